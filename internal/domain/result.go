package domain

import "time"

// RankedResult is the externally visible unit of a search response.
// Score mirrors LearnedScore; in the baseline pipeline both equal the
// lexical score.
type RankedResult struct {
	ID            int64               `json:"id"`
	Title         string              `json:"title"`
	URL           string              `json:"url"`
	Score         float64             `json:"score"`
	LexicalScore  float64             `json:"lexical_score"`
	LearnedScore  float64             `json:"learned_score"`
	Views         int64               `json:"views"`
	CommentsCount int64               `json:"comments_count"`
	Tags          []string            `json:"tags"`
	Highlights    map[string][]string `json:"highlights,omitempty"`
}

// SearchResponse is the output of one pipeline run. Took always reflects
// work actually performed, cache lookups included.
type SearchResponse struct {
	Query        string
	Results      []RankedResult
	TotalResults int
	Took         time.Duration
}

// ResultFromCandidate assembles a RankedResult from an enriched candidate.
// The candidate must be resolved.
func ResultFromCandidate(c *Candidate) RankedResult {
	return RankedResult{
		ID:            c.ID,
		Title:         c.Doc.Title,
		URL:           c.Doc.URL,
		Score:         c.LearnedScore,
		LexicalScore:  c.LexicalScore,
		LearnedScore:  c.LearnedScore,
		Views:         c.Doc.Views,
		CommentsCount: c.Doc.CommentsCount,
		Tags:          c.Doc.Tags,
		Highlights:    c.Highlights,
	}
}
