package db

// TextQuery is the input for a scored multi-field text search.
// Field weighting lives in the index schema (TEXT ... WEIGHT), so the query
// carries only terms and retrieval options.
type TextQuery struct {
	IndexName string
	// Terms are normalized query terms, OR-combined.
	Terms []string
	// Fuzzy enables Levenshtein-1 matching for terms of FuzzyMinLen+ runes.
	Fuzzy bool
	TopK  int
	// ReturnFields limits the per-hit payload.
	ReturnFields []string
	// HighlightFields get <em> tags around matched terms.
	HighlightFields []string
	// SummarizeField, when set, is returned as up to SummarizeFrags
	// fragments instead of the whole value.
	SummarizeField string
	SummarizeFrags int
}

// FuzzyMinLen is the minimum term length for fuzzy expansion. Shorter terms
// match exactly; a 1-edit radius on a 3-rune term is mostly noise.
const FuzzyMinLen = 4

// SearchResult is the output of a search operation.
type SearchResult struct {
	Total   int
	Entries []SearchEntry
}

// SearchEntry is a single document hit from a search.
type SearchEntry struct {
	Key    string
	Score  float64
	Fields map[string]string
}

// IndexStats mirrors the subset of FT.INFO the service reports.
type IndexStats struct {
	DocCount  int64
	SizeBytes int64
}
