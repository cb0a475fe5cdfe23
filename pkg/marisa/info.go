package marisa

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/CVDpl/go-marisa/pkg/marisa/utils"
)

// Info describes a saved dictionary. It is written next to the dictionary
// as JSON so tools can inspect a file without loading it.
type Info struct {
	Format        string `json:"format"`
	Version       string `json:"version"`
	FormatVersion string `json:"formatVersion"`
	Keys          uint32 `json:"keys"`
	Nodes         uint32 `json:"nodes"`
	Tries         int    `json:"tries"`
	IOSize        uint64 `json:"ioSize"`
	TotalSize     uint64 `json:"totalSize"`
	TailMode      string `json:"tailMode"`
	NodeOrder     string `json:"nodeOrder"`
	CreatedAtUnix int64  `json:"createdAtUnix"`
	Blake3        string `json:"blake3"`
}

// Info returns a description of t including the BLAKE3 digest of its
// serialized form.
func (t *Trie) Info() (*Info, error) {
	if t.lt == nil {
		return nil, ErrNotInitialized
	}
	h := utils.NewBLAKE3()
	if _, err := t.lt.WriteTo(h); err != nil {
		return nil, err
	}
	return &Info{
		Format:        "marisa-trie",
		Version:       Version,
		FormatVersion: FormatVersion,
		Keys:          t.Size(),
		Nodes:         t.NumNodes(),
		Tries:         t.NumTries(),
		IOSize:        t.DiskSize(),
		TotalSize:     t.TotalSize(),
		TailMode:      t.TailMode().String(),
		NodeOrder:     t.NodeOrder().String(),
		CreatedAtUnix: time.Now().Unix(),
		Blake3:        h.HexSum(),
	}, nil
}

// SaveToFile writes the info as indented JSON.
func (i *Info) SaveToFile(path string) error {
	data, err := json.MarshalIndent(i, "", "  ")
	if err != nil {
		return err
	}
	af, err := utils.NewAtomicFile(path)
	if err != nil {
		return err
	}
	defer af.Close()
	if _, err := af.Write(data); err != nil {
		return err
	}
	return af.Commit()
}

// Verify checks that the dictionary file at path matches the size and
// digest recorded in i.
func (i *Info) Verify(path string) error {
	sum, n, err := utils.ComputeBLAKE3File(path)
	if err != nil {
		return err
	}
	if uint64(n) != i.IOSize {
		return fmt.Errorf("%s: %d bytes, want %d: %w", path, n, i.IOSize, ErrCorrupt)
	}
	if sum != i.Blake3 {
		return fmt.Errorf("%s: blake3 %s, want %s: %w", path, sum, i.Blake3, ErrCorrupt)
	}
	return nil
}

// LoadInfo reads an info file written by SaveToFile.
func LoadInfo(path string) (*Info, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var i Info
	if err := json.Unmarshal(data, &i); err != nil {
		return nil, err
	}
	return &i, nil
}
