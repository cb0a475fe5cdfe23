package trie

import (
	"fmt"
	"slices"

	"github.com/CVDpl/go-marisa/internal/common"
)

// Lookup reports whether the query of a is a key. On success the key and its
// ID are set on a.
func (t *LoudsTrie) Lookup(a *Agent) bool {
	st := a.state
	st.lookupInit()
	for st.queryPos < len(a.query) {
		if !t.findChild(a) {
			return false
		}
	}
	if !t.terminalFlags.Get(st.nodeID) {
		return false
	}
	a.setKeyFromQuery(len(a.query), t.terminalFlags.Rank1(st.nodeID))
	return true
}

// ReverseLookup restores the key whose ID is the query ID of a.
func (t *LoudsTrie) ReverseLookup(a *Agent) error {
	if a.queryID >= t.NumKeys() {
		return fmt.Errorf("key id %d of %d: %w", a.queryID, t.NumKeys(), common.ErrOutOfRange)
	}
	st := a.state
	st.reverseLookupInit()

	st.nodeID = t.terminalFlags.Select1(a.queryID)
	if st.nodeID == 0 {
		a.setKeyFromBuf(a.queryID)
		return nil
	}
	for {
		if t.linkFlags.Get(st.nodeID) {
			prev := len(st.keyBuf)
			t.restore(a, t.getLink(st.nodeID))
			slices.Reverse(st.keyBuf[prev:])
		} else {
			st.keyBuf = append(st.keyBuf, t.bases[st.nodeID])
		}
		if st.nodeID <= t.numL1Nodes {
			slices.Reverse(st.keyBuf)
			a.setKeyFromBuf(a.queryID)
			return nil
		}
		st.nodeID = t.louds.Select1(st.nodeID) - st.nodeID - 1
	}
}

// CommonPrefixSearch finds the next key that is a prefix of the query, in
// order of increasing length. It returns false once there are no more.
func (t *LoudsTrie) CommonPrefixSearch(a *Agent) bool {
	st := a.state
	if st.status == endOfCommonPrefixSearch {
		return false
	}
	if st.status != readyToCommonPrefixSearch {
		st.commonPrefixSearchInit()
		if t.terminalFlags.Get(st.nodeID) {
			a.setKeyFromQuery(st.queryPos, t.terminalFlags.Rank1(st.nodeID))
			return true
		}
	}
	for st.queryPos < len(a.query) {
		if !t.findChild(a) {
			st.status = endOfCommonPrefixSearch
			return false
		}
		if t.terminalFlags.Get(st.nodeID) {
			a.setKeyFromQuery(st.queryPos, t.terminalFlags.Rank1(st.nodeID))
			return true
		}
	}
	st.status = endOfCommonPrefixSearch
	return false
}

// PredictiveSearch finds the next key that starts with the query. Keys come
// in depth-first order of the first level. It returns false once there are
// no more.
func (t *LoudsTrie) PredictiveSearch(a *Agent) bool {
	st := a.state
	if st.status == endOfPredictiveSearch {
		return false
	}
	if st.status != readyToPredictiveSearch {
		st.predictiveSearchInit()
		for st.queryPos < len(a.query) {
			if !t.predictiveFindChild(a) {
				st.status = endOfPredictiveSearch
				return false
			}
		}

		h := newHistory()
		h.nodeID = st.nodeID
		h.keyPos = uint32(len(st.keyBuf))
		st.history = append(st.history, h)
		st.historyPos = 1

		if t.terminalFlags.Get(st.nodeID) {
			a.setKeyFromBuf(t.terminalFlags.Rank1(st.nodeID))
			return true
		}
	}

	for {
		if st.historyPos == len(st.history) {
			cur := st.history[len(st.history)-1]
			next := newHistory()
			next.loudsPos = t.louds.Select0(cur.nodeID) + 1
			next.nodeID = next.loudsPos - cur.nodeID - 1
			st.history = append(st.history, next)
		}

		// Frames beyond historyPos are kept: children of consecutive
		// siblings are contiguous, so a frame resumes where it stopped.
		next := &st.history[st.historyPos]
		hasChild := t.louds.Get(next.loudsPos)
		next.loudsPos++
		switch {
		case hasChild:
			st.historyPos++
			if t.linkFlags.Get(next.nodeID) {
				next.linkID = t.updateLinkID(next.linkID, next.nodeID)
				t.restore(a, t.getLinkAt(next.nodeID, next.linkID))
			} else {
				st.keyBuf = append(st.keyBuf, t.bases[next.nodeID])
			}
			next.keyPos = uint32(len(st.keyBuf))

			if t.terminalFlags.Get(next.nodeID) {
				if next.keyID == common.InvalidKeyID {
					next.keyID = t.terminalFlags.Rank1(next.nodeID)
				} else {
					next.keyID++
				}
				a.setKeyFromBuf(next.keyID)
				return true
			}
		case st.historyPos != 1:
			cur := &st.history[st.historyPos-1]
			cur.nodeID++
			prev := &st.history[st.historyPos-2]
			st.keyBuf = st.keyBuf[:prev.keyPos]
			st.historyPos--
		default:
			st.status = endOfPredictiveSearch
			return false
		}
	}
}

func (t *LoudsTrie) findChild(a *Agent) bool {
	st := a.state
	label := a.query[st.queryPos]
	c := &t.cache[t.labelCacheID(st.nodeID, label)]
	if st.nodeID == c.parent {
		if c.isLink() {
			if !t.match(a, c.target()) {
				return false
			}
		} else {
			st.queryPos++
		}
		st.nodeID = c.child
		return true
	}

	loudsPos := t.louds.Select0(st.nodeID) + 1
	if !t.louds.Get(loudsPos) {
		return false
	}
	st.nodeID = loudsPos - st.nodeID - 1
	linkID := common.InvalidLinkID
	for {
		if t.linkFlags.Get(st.nodeID) {
			linkID = t.updateLinkID(linkID, st.nodeID)
			prev := st.queryPos
			if t.match(a, t.getLinkAt(st.nodeID, linkID)) {
				return true
			}
			if st.queryPos != prev {
				return false
			}
		} else if t.bases[st.nodeID] == a.query[st.queryPos] {
			st.queryPos++
			return true
		}
		st.nodeID++
		loudsPos++
		if !t.louds.Get(loudsPos) {
			return false
		}
	}
}

// predictiveFindChild is findChild that also records matched labels in the
// key buffer.
func (t *LoudsTrie) predictiveFindChild(a *Agent) bool {
	st := a.state
	label := a.query[st.queryPos]
	c := &t.cache[t.labelCacheID(st.nodeID, label)]
	if st.nodeID == c.parent {
		if c.isLink() {
			if !t.prefixMatch(a, c.target()) {
				return false
			}
		} else {
			st.keyBuf = append(st.keyBuf, c.label())
			st.queryPos++
		}
		st.nodeID = c.child
		return true
	}

	loudsPos := t.louds.Select0(st.nodeID) + 1
	if !t.louds.Get(loudsPos) {
		return false
	}
	st.nodeID = loudsPos - st.nodeID - 1
	linkID := common.InvalidLinkID
	for {
		if t.linkFlags.Get(st.nodeID) {
			linkID = t.updateLinkID(linkID, st.nodeID)
			prev := st.queryPos
			if t.prefixMatch(a, t.getLinkAt(st.nodeID, linkID)) {
				return true
			}
			if st.queryPos != prev {
				return false
			}
		} else if t.bases[st.nodeID] == a.query[st.queryPos] {
			st.keyBuf = append(st.keyBuf, t.bases[st.nodeID])
			st.queryPos++
			return true
		}
		st.nodeID++
		loudsPos++
		if !t.louds.Get(loudsPos) {
			return false
		}
	}
}

// restore appends the label behind link, read from the next level or the
// tail.
func (t *LoudsTrie) restore(a *Agent, link uint32) {
	if t.next != nil {
		t.next.restoreNode(a, link)
		return
	}
	t.tail.restore(a.state, link)
}

func (t *LoudsTrie) match(a *Agent, link uint32) bool {
	if t.next != nil {
		return t.next.matchNode(a, link)
	}
	return t.tail.match(a, link)
}

func (t *LoudsTrie) prefixMatch(a *Agent, link uint32) bool {
	if t.next != nil {
		return t.next.prefixMatchNode(a, link)
	}
	return t.tail.prefixMatch(a, link)
}

// restoreNode walks from nodeID up to the root of a nested level, appending
// labels as it goes. Nested levels hold reversed keys, so the walk yields
// them in reading order.
func (t *LoudsTrie) restoreNode(a *Agent, nodeID uint32) {
	st := a.state
	for {
		c := &t.cache[t.nodeCacheID(nodeID)]
		if nodeID == c.child {
			if c.isLink() {
				t.restore(a, c.target())
			} else {
				st.keyBuf = append(st.keyBuf, c.label())
			}
			nodeID = c.parent
			if nodeID == 0 {
				return
			}
			continue
		}

		if t.linkFlags.Get(nodeID) {
			t.restore(a, t.getLink(nodeID))
		} else {
			st.keyBuf = append(st.keyBuf, t.bases[nodeID])
		}
		if nodeID <= t.numL1Nodes {
			return
		}
		nodeID = t.louds.Select1(nodeID) - nodeID - 1
	}
}

// matchNode consumes the label that ends at nodeID from the query.
func (t *LoudsTrie) matchNode(a *Agent, nodeID uint32) bool {
	st := a.state
	for {
		c := &t.cache[t.nodeCacheID(nodeID)]
		if nodeID == c.child {
			if c.isLink() {
				if !t.match(a, c.target()) {
					return false
				}
			} else if c.label() == a.query[st.queryPos] {
				st.queryPos++
			} else {
				return false
			}

			nodeID = c.parent
			if nodeID == 0 {
				return true
			}
			if st.queryPos >= len(a.query) {
				return false
			}
			continue
		}

		if t.linkFlags.Get(nodeID) {
			if !t.match(a, t.getLink(nodeID)) {
				return false
			}
		} else if t.bases[nodeID] == a.query[st.queryPos] {
			st.queryPos++
		} else {
			return false
		}

		if nodeID <= t.numL1Nodes {
			return true
		}
		if st.queryPos >= len(a.query) {
			return false
		}
		nodeID = t.louds.Select1(nodeID) - nodeID - 1
	}
}

// prefixMatchNode is matchNode for predictive search. When the query runs
// out part way, the rest of the label is restored into the key buffer.
func (t *LoudsTrie) prefixMatchNode(a *Agent, nodeID uint32) bool {
	st := a.state
	for {
		c := &t.cache[t.nodeCacheID(nodeID)]
		if nodeID == c.child {
			if c.isLink() {
				if !t.prefixMatch(a, c.target()) {
					return false
				}
			} else if c.label() == a.query[st.queryPos] {
				st.keyBuf = append(st.keyBuf, c.label())
				st.queryPos++
			} else {
				return false
			}

			nodeID = c.parent
			if nodeID == 0 {
				return true
			}
		} else {
			if t.linkFlags.Get(nodeID) {
				if !t.prefixMatch(a, t.getLink(nodeID)) {
					return false
				}
			} else if t.bases[nodeID] == a.query[st.queryPos] {
				st.keyBuf = append(st.keyBuf, t.bases[nodeID])
				st.queryPos++
			} else {
				return false
			}

			if nodeID <= t.numL1Nodes {
				return true
			}
			nodeID = t.louds.Select1(nodeID) - nodeID - 1
		}

		if st.queryPos >= len(a.query) {
			t.restoreNode(a, nodeID)
			return true
		}
	}
}
