package feature

import (
	"math"
	"reflect"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

func TestTokens(t *testing.T) {
	got := Tokens("Go, the Language: concurrency IS easy!")
	want := []string{"the", "language", "concurrency", "easy"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestTokensUnicode(t *testing.T) {
	got := Tokens("Машинное обучение на Go")
	want := []string{"машинное", "обучение"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Tokens() = %v, want %v", got, want)
	}
}

func TestWordCountKeepsShortWords(t *testing.T) {
	if n := WordCount("a go to do it"); n != 5 {
		t.Errorf("WordCount() = %d, want 5", n)
	}
}

func TestTruncateRunes(t *testing.T) {
	if got := truncateRunes("привет", 3); got != "при" {
		t.Errorf("truncateRunes() = %q, want %q", got, "при")
	}
	if got := truncateRunes("ab", 10); got != "ab" {
		t.Errorf("truncateRunes() = %q, want %q", got, "ab")
	}
}

func TestVectorMatchesSchemaLength(t *testing.T) {
	e := NewExtractor(nil)
	doc := &domain.Document{
		ID:    1,
		Title: "Profiling Go services",
		Body:  "pprof shows where time goes. import runtime for hooks.",
		Tags:  []string{"go", "profiling"},
		Views: 1500,
		Score: 42,
	}
	v := e.Vector("profiling services", doc, 7.5)
	if !e.Schema().Matches(v) {
		t.Fatalf("vector length %d does not match schema length %d", len(v), len(e.Schema()))
	}
}

func TestVectorValues(t *testing.T) {
	e := NewExtractor(nil)
	doc := &domain.Document{
		ID:            10,
		Title:         "Profiling Go services",
		Body:          "pprof profiling shows hot paths. import runtime for hooks. See chart.png for results.",
		Tags:          []string{"go", "profiling"},
		Views:         1500,
		Score:         42,
		CommentsCount: 7,
	}
	v := e.Vector("profiling services", doc, 7.5)

	check := func(name string, want float64) {
		t.Helper()
		idx := -1
		for i, n := range domain.DefaultFeatureSchema() {
			if n == name {
				idx = i
				break
			}
		}
		if idx < 0 {
			t.Fatalf("feature %q not in schema", name)
		}
		if math.Abs(v[idx]-want) > 1e-9 {
			t.Errorf("feature %q = %v, want %v", name, v[idx], want)
		}
	}

	check("freshness", 85)     // 100 - 1500/100
	check("author_rating", 42)
	check("views", 1500)
	check("comments_count", 7)
	check("has_code", 1)  // "import runtime"
	check("has_images", 1) // ".png"
	check("tags_count", 2)
	check("tfidf_similarity", 0) // unfit vectorizer
	check("query_in_title", 1)
	check("query_in_tags", 0)
	check("text_overlap_ratio", 0.5) // "profiling" in body prefix, "services" not
	check("query_length", 2)
	check("bm25_score", 7.5)
}

func TestFreshnessBounds(t *testing.T) {
	cases := []struct {
		views int64
		want  float64
	}{
		{0, 100},
		{50, 100},
		{100, 99},
		{9900, 1},
		{1000000, 1},
	}
	for _, tc := range cases {
		if got := freshness(tc.views); got != tc.want {
			t.Errorf("freshness(%d) = %v, want %v", tc.views, got, tc.want)
		}
	}
}

func TestQueryInTagsExactMatch(t *testing.T) {
	tags := []string{"Go", "machine learning"}
	if !queryInTags("  Machine Learning ", tags) {
		t.Error("expected whole-query tag match")
	}
	if queryInTags("machine", tags) {
		t.Error("partial query must not match a tag")
	}
}

func TestVectorizerSimilarity(t *testing.T) {
	vocab := map[string]int{
		"машинное":          0,
		"обучение":          1,
		"машинное обучение": 2,
		"golang":            3,
	}
	idf := []float64{1.2, 1.2, 2.0, 3.0}
	v, err := NewVectorizer(vocab, idf, 2)
	if err != nil {
		t.Fatalf("NewVectorizer() error: %v", err)
	}

	same := v.Similarity("машинное обучение", "машинное обучение")
	if math.Abs(same-1) > 1e-9 {
		t.Errorf("self similarity = %v, want 1", same)
	}
	cross := v.Similarity("машинное обучение", "golang")
	if cross != 0 {
		t.Errorf("disjoint similarity = %v, want 0", cross)
	}
	partial := v.Similarity("машинное обучение", "обучение моделей")
	if partial <= 0 || partial >= 1 {
		t.Errorf("partial similarity = %v, want in (0, 1)", partial)
	}
}

func TestVectorizerRejectsBadIndex(t *testing.T) {
	_, err := NewVectorizer(map[string]int{"term": 5}, []float64{1.0}, 1)
	if err == nil {
		t.Fatal("expected error for idf index out of range")
	}
}

func TestUnfitVectorizer(t *testing.T) {
	v := UnfitVectorizer()
	if v.Ready() {
		t.Error("unfit vectorizer must not be ready")
	}
	if s := v.Similarity("a query here", "a document here"); s != 0 {
		t.Errorf("unfit similarity = %v, want 0", s)
	}
	if v.VocabularySize() != 0 {
		t.Error("unfit vocabulary size must be 0")
	}
}
