package trie

// key is a build-time view of a byte span owned by the keyset. The first
// level reads spans forwards; nested levels and tail entries read them
// backwards, so that shared suffixes become shared prefixes.
type key struct {
	data     []byte
	weight   float32
	terminal uint32
	id       uint32
	reverse  bool
}

func (k *key) length() int { return len(k.data) }

// at returns the i-th label in reading order.
func (k *key) at(i int) byte {
	if k.reverse {
		return k.data[len(k.data)-1-i]
	}
	return k.data[i]
}

// substr narrows k to n labels starting at label pos, in reading order.
func (k *key) substr(pos, n int) {
	if k.reverse {
		end := len(k.data) - pos
		k.data = k.data[end-n : end]
		return
	}
	k.data = k.data[pos : pos+n]
}

// keyRange is a run of sorted keys sharing their first keyPos labels.
type keyRange struct {
	begin  int
	end    int
	keyPos int
}

type weightedRange struct {
	keyRange
	weight float32
}
