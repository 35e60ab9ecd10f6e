package redis

import (
	"fmt"
	"strconv"
	"strings"

	"context"

	"github.com/redis/rueidis"

	"github.com/kailas-cloud/rankdex/internal/db"
)

// SearchText runs a scored text search via FT.SEARCH. Field weights come
// from the index schema; the query contributes terms and fuzziness.
func (s *Store) SearchText(ctx context.Context, q *db.TextQuery) (*db.SearchResult, error) {
	if q.IndexName == "" {
		return nil, fmt.Errorf("index name is required")
	}
	if len(q.Terms) == 0 {
		return nil, fmt.Errorf("at least one term is required")
	}
	if q.TopK <= 0 {
		return nil, fmt.Errorf("topK must be positive")
	}

	args := []string{q.IndexName, BuildTextQuery(q.Terms, q.Fuzzy)}

	if len(q.ReturnFields) > 0 {
		args = append(args, "RETURN", strconv.Itoa(len(q.ReturnFields)))
		args = append(args, q.ReturnFields...)
	}

	if len(q.HighlightFields) > 0 {
		args = append(args, "HIGHLIGHT", "FIELDS", strconv.Itoa(len(q.HighlightFields)))
		args = append(args, q.HighlightFields...)
		args = append(args, "TAGS", "<em>", "</em>")
	}

	if q.SummarizeField != "" {
		frags := q.SummarizeFrags
		if frags <= 0 {
			frags = 3
		}
		args = append(args,
			"SUMMARIZE", "FIELDS", "1", q.SummarizeField,
			"FRAGS", strconv.Itoa(frags),
		)
	}

	args = append(args,
		"WITHSCORES",
		"LIMIT", "0", strconv.Itoa(q.TopK),
		"DIALECT", "2",
	)

	cmd := s.b().Arbitrary("FT.SEARCH").Args(args...).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		return nil, &db.Error{Op: db.OpSearch, Err: err}
	}

	return parseTextResult(raw)
}

// BuildTextQuery assembles the FT.SEARCH query string: terms are escaped,
// OR-combined by the engine's default union semantics, and wrapped in %...%
// for Levenshtein-1 matching when fuzzy is on and the term is long enough.
func BuildTextQuery(terms []string, fuzzy bool) string {
	parts := make([]string, 0, len(terms))
	for _, t := range terms {
		t = escapeQuery(t)
		if t == "" {
			continue
		}
		if fuzzy && len([]rune(t)) >= db.FuzzyMinLen {
			t = "%" + t + "%"
		}
		parts = append(parts, t)
	}
	if len(parts) == 0 {
		return "*"
	}
	return "(" + strings.Join(parts, "|") + ")"
}

// IndexInfo reports document count and inverted index size via FT.INFO.
func (s *Store) IndexInfo(ctx context.Context, name string) (db.IndexStats, error) {
	cmd := s.b().Arbitrary("FT.INFO").Args(name).Build()
	raw, err := s.do(ctx, cmd).ToArray()
	if err != nil {
		if isRedisErr(err, "unknown index name") {
			return db.IndexStats{}, db.ErrIndexNotFound
		}
		return db.IndexStats{}, &db.Error{Op: db.OpIndexInfo, Err: err}
	}

	var stats db.IndexStats
	// FT.INFO replies with a flat [name, value, name, value, ...] array.
	for i := 0; i+1 < len(raw); i += 2 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}
		switch key {
		case "num_docs":
			if v, err := raw[i+1].ToString(); err == nil {
				if n, err := strconv.ParseInt(v, 10, 64); err == nil {
					stats.DocCount = n
				}
			}
		case "inverted_sz_mb":
			if v, err := raw[i+1].ToString(); err == nil {
				if mb, err := strconv.ParseFloat(v, 64); err == nil {
					stats.SizeBytes = int64(mb * 1024 * 1024)
				}
			}
		}
	}
	return stats, nil
}

// parseTextResult parses a WITHSCORES FT.SEARCH reply.
func parseTextResult(raw []rueidis.RedisMessage) (*db.SearchResult, error) {
	if len(raw) == 0 {
		return &db.SearchResult{}, nil
	}

	total, err := raw[0].AsInt64()
	if err != nil {
		return nil, fmt.Errorf("parse total: %w", err)
	}
	if total == 0 {
		return &db.SearchResult{}, nil
	}

	entries := make([]db.SearchEntry, 0, total)
	// 3-stride: [total, key1, score1, fields1, key2, score2, fields2, ...]
	for i := 1; i+2 < len(raw); i += 3 {
		key, err := raw[i].ToString()
		if err != nil {
			continue
		}

		scoreStr, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		score, err := strconv.ParseFloat(scoreStr, 64)
		if err != nil {
			continue
		}

		fields, err := raw[i+2].ToArray()
		if err != nil {
			continue
		}

		entries = append(entries, db.SearchEntry{
			Key:    key,
			Score:  score,
			Fields: parseFieldPairs(fields),
		})
	}

	return &db.SearchResult{Total: int(total), Entries: entries}, nil
}

func parseFieldPairs(raw []rueidis.RedisMessage) map[string]string {
	fields := make(map[string]string, len(raw)/2)
	for i := 0; i+1 < len(raw); i += 2 {
		k, err := raw[i].ToString()
		if err != nil {
			continue
		}
		v, err := raw[i+1].ToString()
		if err != nil {
			continue
		}
		fields[k] = v
	}
	return fields
}

func escapeQuery(s string) string {
	return queryEscaper.Replace(s)
}

var queryEscaper = strings.NewReplacer(
	`\`, `\\`,
	`'`, `\'`,
	`"`, `\"`,
	`@`, `\@`,
	`{`, `\{`,
	`}`, `\}`,
	`(`, `\(`,
	`)`, `\)`,
	`|`, `\|`,
	`-`, `\-`,
	`~`, `\~`,
	`*`, `\*`,
	`[`, `\[`,
	`]`, `\]`,
	`!`, `\!`,
	`%`, `\%`,
	`^`, `\^`,
	`$`, `\$`,
	`<`, `\<`,
	`>`, `\>`,
	`=`, `\=`,
)
