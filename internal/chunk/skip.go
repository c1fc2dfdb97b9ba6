package chunk

// SkipList is a run-length-encoded offset→line map: one entry per line
// change rather than one entry per instruction, grounded on
// original_source/src/skip.rs.
type SkipList struct {
	entries []skipEntry
}

type skipEntry struct {
	offset int
	line   int
}

// NewSkipList returns an empty SkipList.
func NewSkipList() *SkipList { return &SkipList{} }

// Push records that offset begins line. A push carrying the same line as
// the previous entry is a no-op, collapsing runs of same-line instructions
// into a single entry.
func (s *SkipList) Push(offset, line int) {
	if len(s.entries) > 0 && s.entries[len(s.entries)-1].line == line {
		return
	}
	s.entries = append(s.entries, skipEntry{offset: offset, line: line})
}

// Get returns the line in effect at offset: the last entry whose offset is
// ≤ the query.
func (s *SkipList) Get(offset int) int {
	line := 0
	for _, e := range s.entries {
		if e.offset > offset {
			break
		}
		line = e.line
	}
	return line
}
