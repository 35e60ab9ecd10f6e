package rescache

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

var (
	searchKeyPrefix = domain.KeyPrefix + "search_cache:"
	docKeyPrefix    = domain.KeyPrefix + "doc_cache:"
	statsKey        = domain.KeyPrefix + "stats_cache"
)

// searchFingerprint identifies a search request for caching. Queries that
// differ only in surrounding or interior whitespace share an entry.
func searchFingerprint(pipeline, query string, limit int) string {
	normalized := strings.Join(strings.Fields(query), " ")
	payload := fmt.Sprintf("%s\x1f%s\x1f%d", pipeline, normalized, limit)
	h := sha256.Sum256([]byte(payload))
	return searchKeyPrefix + hex.EncodeToString(h[:])
}

func docCacheKey(id int64) string {
	return fmt.Sprintf("%s%d", docKeyPrefix, id)
}
