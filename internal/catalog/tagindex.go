package catalog

// TagIndex maps tag → pattern → question ids. Every level keeps insertion
// order so that pools built from it are reproducible.
type TagIndex struct {
	tags     []string
	patterns map[string][]string
	ids      map[string]map[string][]string
}

func newTagIndex() *TagIndex {
	return &TagIndex{
		patterns: make(map[string][]string),
		ids:      make(map[string]map[string][]string),
	}
}

func (t *TagIndex) add(tag, pattern, id string) {
	byPattern, ok := t.ids[tag]
	if !ok {
		byPattern = make(map[string][]string)
		t.ids[tag] = byPattern
		t.tags = append(t.tags, tag)
	}
	if _, ok := byPattern[pattern]; !ok {
		t.patterns[tag] = append(t.patterns[tag], pattern)
	}
	byPattern[pattern] = append(byPattern[pattern], id)
}

// Tags returns all tags in insertion order.
func (t *TagIndex) Tags() []string {
	return append([]string(nil), t.tags...)
}

// Patterns returns the patterns under tag in insertion order.
func (t *TagIndex) Patterns(tag string) []string {
	return append([]string(nil), t.patterns[tag]...)
}

// QuestionIDs returns the ids under (tag, pattern) in insertion order.
func (t *TagIndex) QuestionIDs(tag, pattern string) []string {
	return append([]string(nil), t.ids[tag][pattern]...)
}

// Count returns the number of ids filed under tag across all patterns.
func (t *TagIndex) Count(tag string) int {
	n := 0
	for _, ids := range t.ids[tag] {
		n += len(ids)
	}
	return n
}
