package comparison

// DefaultMaxEntities is how many entities fit side by side.
const DefaultMaxEntities = 4

// Set is the membership list of one comparison session. Adding to a full set
// or adding an existing member does nothing. A Set belongs to a single client
// and is not safe for concurrent use.
type Set struct {
	max int
	ids []string
}

// NewSet returns a set capped at limit members, seeded with ids in order
// until full. A limit below one falls back to DefaultMaxEntities.
func NewSet(limit int, ids ...string) *Set {
	if limit < 1 {
		limit = DefaultMaxEntities
	}
	s := &Set{max: limit, ids: make([]string, 0, limit)}
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

// Add reports whether id was added.
func (s *Set) Add(id string) bool {
	if id == "" || s.Full() || s.Contains(id) {
		return false
	}
	s.ids = append(s.ids, id)
	return true
}

// Remove reports whether id was a member.
func (s *Set) Remove(id string) bool {
	for i, existing := range s.ids {
		if existing == id {
			s.ids = append(s.ids[:i], s.ids[i+1:]...)
			return true
		}
	}
	return false
}

func (s *Set) Clear() { s.ids = s.ids[:0] }

func (s *Set) Contains(id string) bool {
	for _, existing := range s.ids {
		if existing == id {
			return true
		}
	}
	return false
}

// IDs returns members in insertion order.
func (s *Set) IDs() []string { return append([]string(nil), s.ids...) }

func (s *Set) Len() int { return len(s.ids) }

func (s *Set) Max() int { return s.max }

func (s *Set) Full() bool { return len(s.ids) >= s.max }
