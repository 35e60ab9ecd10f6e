package domain

// TagCount is a tag with its frequency across the corpus.
type TagCount struct {
	Tag   string `json:"tag"`
	Count int64  `json:"count"`
}

// CorpusStats aggregates relational and index statistics for reporting.
type CorpusStats struct {
	TotalArticles  int64      `json:"total_articles"`
	TotalViews     int64      `json:"total_views"`
	TotalComments  int64      `json:"total_comments"`
	TopTags        []TagCount `json:"top_tags"`
	IndexDocuments int64      `json:"index_documents"`
	IndexSizeBytes int64      `json:"index_size_bytes"`
}
