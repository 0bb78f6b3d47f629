package pipeline

// SeenURLs is the run-scoped set of canonical URLs already committed.
type SeenURLs map[string]struct{}

func (s SeenURLs) Has(u string) bool {
	_, ok := s[u]
	return ok
}

func (s SeenURLs) Add(u string) {
	s[u] = struct{}{}
}
