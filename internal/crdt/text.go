package crdt

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"sync"
)

// Package crdt implements the replicated text state carried by editing
// sessions. Every character owns a globally unique ID (replica + logical
// clock) and a sortable position vector that fixes its place in the document.
// Deletes are tombstones. Merging two states is a union keyed by character ID
// with a monotonic deleted flag, which makes the merge commutative,
// associative and idempotent: replicas exchanging the same fragments in any
// order converge to the same document.

// ID is the globally unique identifier of a character, combining the ID of
// the replica that created it with that replica's logical clock.
type ID struct {
	Replica string `json:"r"`
	Clock   uint64 `json:"c"`
}

// Char is a single character of the replicated sequence.
type Char struct {
	ID      ID       `json:"id"`
	Pos     []uint32 `json:"p"`
	Value   string   `json:"v"`
	Deleted bool     `json:"d,omitempty"`
}

// State is the merged replicated state of one document. All methods are safe
// for concurrent use; Snapshot and Text may run concurrently with merges.
type State struct {
	mu    sync.RWMutex
	chars map[ID]Char
	clock uint64
}

// NewState returns an empty document state.
func NewState() *State {
	return &State{chars: make(map[ID]Char)}
}

// Seed builds a state holding text as if a single replica typed it. Used for
// template-based document creation before any live replica connects.
func Seed(text string) *State {
	s := NewState()
	if text != "" {
		// The seed replica is deterministic on purpose: seeding the same text
		// twice merges to a single copy.
		s.insertLocked("seed", 0, text)
	}
	return s
}

// DecodeState reconstructs a state from an encoded snapshot. Nil or empty
// input yields an empty state (a never-edited file).
func DecodeState(encoded []byte) (*State, error) {
	s := NewState()
	if len(encoded) == 0 {
		return s, nil
	}
	var chars []Char
	if err := json.Unmarshal(encoded, &chars); err != nil {
		return nil, fmt.Errorf("decode replicated state: %w", err)
	}
	s.merge(chars)
	return s, nil
}

// ApplyUpdate merges an encoded fragment into the state. Re-applying an
// already-seen fragment is a no-op; fragments from different replicas may be
// applied in any order.
func (s *State) ApplyUpdate(fragment []byte) error {
	if len(fragment) == 0 {
		return nil
	}
	var chars []Char
	if err := json.Unmarshal(fragment, &chars); err != nil {
		return fmt.Errorf("decode update fragment: %w", err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(chars)
	return nil
}

func (s *State) merge(chars []Char) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mergeLocked(chars)
}

func (s *State) mergeLocked(chars []Char) {
	for _, in := range chars {
		if existing, ok := s.chars[in.ID]; ok {
			// Tombstones are monotonic: once deleted, always deleted.
			if in.Deleted && !existing.Deleted {
				existing.Deleted = true
				s.chars[in.ID] = existing
			}
		} else {
			s.chars[in.ID] = in
		}
		if in.ID.Clock > s.clock {
			s.clock = in.ID.Clock
		}
	}
}

// Encode serializes the full state. The output is deterministic: the same
// set of characters always encodes to the same bytes, so byte-equality of
// snapshots implies state equality.
func (s *State) Encode() []byte {
	s.mu.RLock()
	chars := make([]Char, 0, len(s.chars))
	for _, c := range s.chars {
		chars = append(chars, c)
	}
	s.mu.RUnlock()

	sortChars(chars)
	encoded, err := json.Marshal(chars)
	if err != nil {
		// Char contains only marshalable fields; this cannot fail.
		panic(fmt.Sprintf("encode replicated state: %v", err))
	}
	return encoded
}

// Text returns the plain-text projection of the current state.
func (s *State) Text() string {
	visible := s.visible()
	var b []byte
	for _, c := range visible {
		b = append(b, c.Value...)
	}
	return string(b)
}

// Len returns the number of visible characters.
func (s *State) Len() int {
	return len(s.visible())
}

// Insert inserts text at the given rune index of the visible document and
// returns the encoded fragment describing the insertion, already applied
// locally. Index 0 prepends; Len() appends.
func (s *State) Insert(replica string, index int, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.insertLocked(replica, index, text)
}

func (s *State) insertLocked(replica string, index int, text string) ([]byte, error) {
	visible := s.visibleLocked()
	if index < 0 || index > len(visible) {
		return nil, fmt.Errorf("insert index %d out of range [0,%d]", index, len(visible))
	}

	var left, right []uint32
	if index > 0 {
		left = visible[index-1].Pos
	}
	if index < len(visible) {
		right = visible[index].Pos
	}

	inserted := make([]Char, 0, len(text))
	for _, r := range text {
		s.clock++
		c := Char{
			ID:    ID{Replica: replica, Clock: s.clock},
			Pos:   posBetween(left, right),
			Value: string(r),
		}
		s.chars[c.ID] = c
		inserted = append(inserted, c)
		left = c.Pos
	}

	return encodeFragment(inserted), nil
}

// Delete tombstones length visible characters starting at the given rune
// index and returns the encoded fragment describing the deletion.
func (s *State) Delete(index, length int) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.deleteLocked(index, length)
}

func (s *State) deleteLocked(index, length int) ([]byte, error) {
	visible := s.visibleLocked()
	if index < 0 || length < 0 || index+length > len(visible) {
		return nil, fmt.Errorf("delete range [%d,%d) out of range [0,%d]", index, index+length, len(visible))
	}

	deleted := make([]Char, 0, length)
	for _, c := range visible[index : index+length] {
		c.Deleted = true
		s.chars[c.ID] = c
		deleted = append(deleted, c)
	}

	return encodeFragment(deleted), nil
}

// ReplaceAll tombstones the whole visible document and inserts text in its
// place, returning one fragment covering both halves. This is how restore and
// whole-document writers edit: a normal replicated edit, not a state rewrite.
func (s *State) ReplaceAll(replica, text string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed, err := s.deleteLocked(0, len(s.visibleLocked()))
	if err != nil {
		return nil, err
	}
	added, err := s.insertLocked(replica, 0, text)
	if err != nil {
		return nil, err
	}

	var fragment []Char
	if err := json.Unmarshal(removed, &fragment); err != nil {
		return nil, err
	}
	var insertedChars []Char
	if err := json.Unmarshal(added, &insertedChars); err != nil {
		return nil, err
	}
	return encodeFragment(append(fragment, insertedChars...)), nil
}

func (s *State) visible() []Char {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.visibleLocked()
}

func (s *State) visibleLocked() []Char {
	visible := make([]Char, 0, len(s.chars))
	for _, c := range s.chars {
		if !c.Deleted {
			visible = append(visible, c)
		}
	}
	sortChars(visible)
	return visible
}

func encodeFragment(chars []Char) []byte {
	sortChars(chars)
	encoded, err := json.Marshal(chars)
	if err != nil {
		panic(fmt.Sprintf("encode fragment: %v", err))
	}
	return encoded
}

func sortChars(chars []Char) {
	sort.Slice(chars, func(i, j int) bool {
		if c := comparePos(chars[i].Pos, chars[j].Pos); c != 0 {
			return c < 0
		}
		if chars[i].ID.Replica != chars[j].ID.Replica {
			return chars[i].ID.Replica < chars[j].ID.Replica
		}
		return chars[i].ID.Clock < chars[j].ID.Clock
	})
}

// comparePos orders position vectors lexicographically; on an equal prefix
// the shorter vector sorts first, so children generated between a position
// and its successor land after their left neighbor.
func comparePos(a, b []uint32) int {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			if a[i] < b[i] {
				return -1
			}
			return 1
		}
	}
	return len(a) - len(b)
}

// posBetween generates a fresh position strictly between left and right.
// Nil left means the start of the document, nil right the end.
func posBetween(left, right []uint32) []uint32 {
	var pos []uint32
	rightBounds := true
	for depth := 0; ; depth++ {
		var l uint32
		if depth < len(left) {
			l = left[depth]
		}
		r := uint32(math.MaxUint32)
		if rightBounds && depth < len(right) {
			r = right[depth]
		}
		if r-l > 1 {
			return append(pos, l+1)
		}
		// No room at this depth: commit the left digit and descend. Once the
		// committed digit is below right's digit, right no longer constrains.
		pos = append(pos, l)
		if l != r {
			rightBounds = false
		}
	}
}
