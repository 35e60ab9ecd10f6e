package domain

import (
	"fmt"
	"time"
)

// KeyPrefix namespaces every key rankdex writes to the store.
const KeyPrefix = "rankdex:"

// DocKeyPrefix prefixes indexed document hashes.
const DocKeyPrefix = KeyPrefix + "doc:"

// DocKey is the hash key of an indexed document.
func DocKey(id int64) string {
	return fmt.Sprintf("%s%d", DocKeyPrefix, id)
}

// Document is a transient copy of a canonical document row. The relational
// store owns the record; the pipeline never writes it back.
type Document struct {
	ID            int64
	URL           string
	Title         string
	Body          string
	Tags          []string
	Views         int64
	Score         int64
	CommentsCount int64
	ScrapedAt     time.Time
}
