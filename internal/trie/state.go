package trie

import (
	"fmt"
	"slices"
	"unsafe"

	"github.com/CVDpl/go-marisa/internal/common"
)

type status int

const (
	readyToAll status = iota
	readyToCommonPrefixSearch
	readyToPredictiveSearch
	endOfCommonPrefixSearch
	endOfPredictiveSearch
)

// history is one frame of the predictive search walk.
type history struct {
	nodeID   uint32
	loudsPos uint32
	keyPos   uint32
	linkID   uint32
	keyID    uint32
}

func newHistory() history {
	return history{linkID: common.InvalidLinkID, keyID: common.InvalidKeyID}
}

// State is the resumable part of a search: the key being rebuilt, the walk
// stack of a predictive search and the position of the cursor.
type State struct {
	keyBuf     []byte
	history    []history
	nodeID     uint32
	queryPos   int
	historyPos int
	status     status
}

func (s *State) reset() { s.status = readyToAll }

func (s *State) lookupInit() {
	s.nodeID = 0
	s.queryPos = 0
	s.status = readyToAll
}

func (s *State) reverseLookupInit() {
	s.keyBuf = slices.Grow(s.keyBuf[:0], 32)
	s.nodeID = 0
	s.queryPos = 0
	s.status = readyToAll
}

func (s *State) commonPrefixSearchInit() {
	s.nodeID = 0
	s.queryPos = 0
	s.status = readyToCommonPrefixSearch
}

func (s *State) predictiveSearchInit() {
	s.keyBuf = slices.Grow(s.keyBuf[:0], 64)
	s.history = slices.Grow(s.history[:0], 4)
	s.nodeID = 0
	s.queryPos = 0
	s.historyPos = 0
	s.status = readyToPredictiveSearch
}

func (s *State) clone() *State {
	c := *s
	c.keyBuf = slices.Clone(s.keyBuf)
	c.history = slices.Clone(s.history)
	return &c
}

// Agent carries one query through the dictionary: the query itself, the
// last result, and the state that lets common-prefix and predictive search
// resume where the previous call stopped. An Agent must not be shared
// between goroutines.
type Agent struct {
	query    []byte
	queryID  uint32
	key      []byte
	keyID    uint32
	keyInBuf bool
	state    *State
}

// SetQuery sets a byte query and resets any search in progress. The slice
// is read but never modified.
func (a *Agent) SetQuery(q []byte) {
	if a.state != nil {
		a.state.reset()
	}
	a.query = q
	a.queryID = 0
}

// SetQueryString is SetQuery without copying s.
func (a *Agent) SetQueryString(s string) {
	a.SetQuery(unsafe.Slice(unsafe.StringData(s), len(s)))
}

// SetQueryID sets a key ID query for reverse lookup.
func (a *Agent) SetQueryID(id uint32) {
	if a.state != nil {
		a.state.reset()
	}
	a.query = nil
	a.queryID = id
}

func (a *Agent) Query() []byte   { return a.query }
func (a *Agent) QueryID() uint32 { return a.queryID }

// Key returns the last result. It is only valid until the next search on a.
func (a *Agent) Key() []byte { return a.key }

// KeyID returns the ID of the last result.
func (a *Agent) KeyID() uint32 { return a.keyID }

// InitState allocates the search state.
func (a *Agent) InitState() error {
	if a.state != nil {
		return fmt.Errorf("agent state already initialized: %w", common.ErrLogic)
	}
	a.state = &State{}
	return nil
}

// HasState reports whether InitState has been called.
func (a *Agent) HasState() bool { return a.state != nil }

// Clone returns an independent copy of a. A search in progress continues
// from the same point in both agents.
func (a *Agent) Clone() *Agent {
	c := *a
	if a.state != nil {
		c.state = a.state.clone()
		if a.keyInBuf {
			c.key = c.state.keyBuf[:len(a.key)]
		}
	}
	return &c
}

// setKeyFromQuery reports the first n bytes of the query as the result.
func (a *Agent) setKeyFromQuery(n int, id uint32) {
	a.key = a.query[:n]
	a.keyID = id
	a.keyInBuf = false
}

// setKeyFromBuf reports the rebuilt key buffer as the result.
func (a *Agent) setKeyFromBuf(id uint32) {
	a.key = a.state.keyBuf
	a.keyID = id
	a.keyInBuf = true
}
