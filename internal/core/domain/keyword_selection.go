package domain

// KeywordSelection tracks which of an analysis' missing keywords the user
// wants woven into the resume. It never holds a keyword outside the
// originating set.
type KeywordSelection struct {
	universe []string
	chosen   map[string]struct{}
}

// NewKeywordSelection starts with every missing keyword selected.
func NewKeywordSelection(missing []string) KeywordSelection {
	s := KeywordSelection{
		universe: make([]string, 0, len(missing)),
		chosen:   make(map[string]struct{}, len(missing)),
	}
	for _, k := range missing {
		if _, dup := s.chosen[k]; dup {
			continue
		}
		s.universe = append(s.universe, k)
		s.chosen[k] = struct{}{}
	}
	return s
}

func (s KeywordSelection) contains(k string) bool {
	for _, u := range s.universe {
		if u == k {
			return true
		}
	}
	return false
}

// Toggle flips membership of k. Unknown keywords are ignored.
func (s *KeywordSelection) Toggle(k string) {
	if !s.contains(k) {
		return
	}
	if s.chosen == nil {
		s.chosen = make(map[string]struct{}, len(s.universe))
	}
	if _, ok := s.chosen[k]; ok {
		delete(s.chosen, k)
		return
	}
	s.chosen[k] = struct{}{}
}

func (s *KeywordSelection) SelectAll() {
	s.chosen = make(map[string]struct{}, len(s.universe))
	for _, k := range s.universe {
		s.chosen[k] = struct{}{}
	}
}

func (s *KeywordSelection) DeselectAll() {
	s.chosen = make(map[string]struct{}, len(s.universe))
}

func (s KeywordSelection) Has(k string) bool {
	_, ok := s.chosen[k]
	return ok
}

func (s KeywordSelection) Len() int { return len(s.chosen) }

func (s KeywordSelection) Empty() bool { return len(s.chosen) == 0 }

// Selected returns the chosen keywords in their original order.
func (s KeywordSelection) Selected() []string {
	out := make([]string, 0, len(s.chosen))
	for _, k := range s.universe {
		if _, ok := s.chosen[k]; ok {
			out = append(out, k)
		}
	}
	return out
}

// Universe is the missing keyword set the selection was derived from.
func (s KeywordSelection) Universe() []string {
	return cloneStrings(s.universe)
}

func (s KeywordSelection) Clone() KeywordSelection {
	out := KeywordSelection{
		universe: cloneStrings(s.universe),
		chosen:   make(map[string]struct{}, len(s.chosen)),
	}
	for k := range s.chosen {
		out.chosen[k] = struct{}{}
	}
	return out
}
