package domain

// FeatureVector is an ordered list of numeric features. A vector is valid
// for scoring only when its length matches the schema bound to the loaded
// model; mismatches are rejected, never truncated or padded.
type FeatureVector []float64

// FeatureSchema is the versioned, ordered list of feature names a ranking
// model expects. Order is part of the contract.
type FeatureSchema []string

// Matches reports whether the vector is scoreable under this schema.
func (s FeatureSchema) Matches(v FeatureVector) bool {
	return len(s) > 0 && len(v) == len(s)
}

// DefaultFeatureSchema is the schema the offline trainer emits when no
// descriptor sidecar is present: document features first, then
// query-document interaction features.
func DefaultFeatureSchema() FeatureSchema {
	return FeatureSchema{
		"freshness",
		"author_rating",
		"views",
		"comments_count",
		"article_word_count",
		"has_code",
		"has_images",
		"title_length",
		"tags_count",
		"tfidf_similarity",
		"query_in_title",
		"query_in_tags",
		"text_overlap_ratio",
		"query_length",
		"bm25_score",
	}
}
