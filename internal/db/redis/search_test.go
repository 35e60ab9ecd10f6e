package redis

import (
	"strings"
	"testing"

	"github.com/kailas-cloud/rankdex/internal/db"
)

func TestBuildTextQuery_Fuzzy(t *testing.T) {
	q := BuildTextQuery([]string{"machine", "learning"}, true)
	if q != "(%machine%|%learning%)" {
		t.Errorf("unexpected query: %q", q)
	}
}

func TestBuildTextQuery_ShortTermsStayExact(t *testing.T) {
	// "go" is below the fuzzy threshold, "golang" gets expanded.
	q := BuildTextQuery([]string{"go", "golang"}, true)
	if q != "(go|%golang%)" {
		t.Errorf("unexpected query: %q", q)
	}
}

func TestBuildTextQuery_NoFuzzy(t *testing.T) {
	q := BuildTextQuery([]string{"redis", "search"}, false)
	if q != "(redis|search)" {
		t.Errorf("unexpected query: %q", q)
	}
}

func TestBuildTextQuery_EscapesSpecials(t *testing.T) {
	q := BuildTextQuery([]string{"c++", "a|b"}, false)
	if strings.Contains(q, "a|b") {
		t.Errorf("pipe not escaped: %q", q)
	}
	if !strings.Contains(q, `a\|b`) {
		t.Errorf("expected escaped pipe, got %q", q)
	}
	_ = q
}

func TestBuildTextQuery_AllEmptyTermsFallsBackToWildcard(t *testing.T) {
	if q := BuildTextQuery([]string{""}, true); q != "*" {
		t.Errorf("expected wildcard, got %q", q)
	}
}

func TestBuildFieldArgs_TextWeight(t *testing.T) {
	args := buildFieldArgs(&db.IndexField{Name: "title", Type: db.IndexFieldText, Weight: 3})
	got := strings.Join(args, " ")
	if got != "title TEXT WEIGHT 3" {
		t.Errorf("unexpected args: %q", got)
	}
}

func TestBuildFieldArgs_TextDefaultWeightOmitted(t *testing.T) {
	args := buildFieldArgs(&db.IndexField{Name: "body", Type: db.IndexFieldText})
	got := strings.Join(args, " ")
	if got != "body TEXT" {
		t.Errorf("unexpected args: %q", got)
	}
}

func TestBuildFieldArgs_Tag(t *testing.T) {
	args := buildFieldArgs(&db.IndexField{Name: "tags", Type: db.IndexFieldTag, TagSeparator: ","})
	got := strings.Join(args, " ")
	if got != "tags TAG SEPARATOR ," {
		t.Errorf("unexpected args: %q", got)
	}
}

func TestIndexDefinition_Validate(t *testing.T) {
	def := &db.IndexDefinition{
		Name:     "rankdex:doc:idx",
		Prefixes: []string{"rankdex:doc:"},
		Fields: []db.IndexField{
			{Name: "title", Type: db.IndexFieldText, Weight: 3},
			{Name: "tags", Type: db.IndexFieldText, Weight: 2},
			{Name: "body", Type: db.IndexFieldText},
		},
	}
	if err := def.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	def.Fields = append(def.Fields, db.IndexField{Name: "title", Type: db.IndexFieldText})
	if err := def.Validate(); err == nil {
		t.Fatal("expected duplicate field error")
	}
}
