package domain

// Candidate is a document surfaced by the lexical stage. It is enriched in
// place as it moves through metadata resolution and reranking; it never
// outlives the request or cache entry that produced it.
type Candidate struct {
	ID           int64
	LexicalScore float64
	LearnedScore float64
	Highlights   map[string][]string
	Doc          *Document
}

// Resolved reports whether document metadata has been attached.
func (c *Candidate) Resolved() bool {
	return c.Doc != nil
}
