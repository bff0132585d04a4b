package availability

import (
	"sort"

	"github.com/samber/lo"
)

// Set is the set of currently active model ids.
type Set struct {
	ids map[string]struct{}
}

func NewSet(ids ...string) Set {
	s := Set{ids: make(map[string]struct{}, len(ids))}
	for _, id := range ids {
		if id != "" {
			s.ids[id] = struct{}{}
		}
	}
	return s
}

func (s Set) Has(id string) bool {
	_, ok := s.ids[id]
	return ok
}

func (s Set) Len() int {
	return len(s.ids)
}

// IDs returns the members in lexicographic order.
func (s Set) IDs() []string {
	out := lo.Keys(s.ids)
	sort.Strings(out)
	return out
}

func (s Set) Without(id string) Set {
	return NewSet(lo.Without(s.IDs(), id)...)
}

func (s Set) Filter(keep func(id string) bool) Set {
	return NewSet(lo.Filter(s.IDs(), func(id string, _ int) bool { return keep(id) })...)
}
