package feature

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kailas-cloud/rankdex/internal/domain"
)

// bodySimilarityLimit bounds how much of the document body participates in
// the similarity and overlap features. Matches the training pipeline.
const bodySimilarityLimit = 1000

var codePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<code`),
	regexp.MustCompile("```"),
	regexp.MustCompile(`(?i)<pre`),
	regexp.MustCompile(`(?is)\{[^{}]*\}`),
	regexp.MustCompile(`(?i)function\s+\w+`),
	regexp.MustCompile(`(?i)class\s+\w+`),
	regexp.MustCompile(`(?i)def\s+\w+`),
	regexp.MustCompile(`(?i)import\s+\w+`),
	regexp.MustCompile(`(?i)from\s+\w+`),
}

var imagePatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)<img`),
	regexp.MustCompile(`!\[[^\]]*\]\([^)]*\)`),
	regexp.MustCompile(`(?i)<figure`),
	regexp.MustCompile(`(?i)\.(jpg|jpeg|png|gif|svg)`),
}

// Extractor builds ranking feature vectors from a query/document pair. The
// produced vector order follows domain.DefaultFeatureSchema.
type Extractor struct {
	vectorizer *Vectorizer
}

// NewExtractor builds an extractor. A nil vectorizer behaves as unfit and
// yields zero tf-idf similarity.
func NewExtractor(v *Vectorizer) *Extractor {
	if v == nil {
		v = UnfitVectorizer()
	}
	return &Extractor{vectorizer: v}
}

// Schema names the features Vector produces, in order.
func (e *Extractor) Schema() domain.FeatureSchema {
	return domain.DefaultFeatureSchema()
}

// Vector extracts the feature vector for doc under query. lexicalScore is
// the retrieval score of the candidate the document was resolved from.
func (e *Extractor) Vector(query string, doc *domain.Document, lexicalScore float64) domain.FeatureVector {
	bodyPrefix := truncateRunes(doc.Body, bodySimilarityLimit)

	v := make(domain.FeatureVector, 0, len(domain.DefaultFeatureSchema()))
	v = append(v,
		freshness(doc.Views),
		float64(doc.Score),
		float64(doc.Views),
		float64(doc.CommentsCount),
		float64(WordCount(doc.Body)),
		boolFeature(matchesAny(codePatterns, doc.Body)),
		boolFeature(matchesAny(imagePatterns, doc.Body)),
		float64(utf8.RuneCountInString(doc.Title)),
		float64(len(doc.Tags)),
		e.vectorizer.Similarity(query, doc.Title+" "+bodyPrefix),
		boolFeature(tokensOverlap(query, doc.Title)),
		boolFeature(queryInTags(query, doc.Tags)),
		overlapRatio(query, bodyPrefix),
		float64(len(strings.Fields(query))),
		lexicalScore,
	)
	return v
}

// freshness is a popularity-derived proxy used at serving time where the
// trainer had publication dates. Heavily viewed documents read as older.
func freshness(views int64) float64 {
	age := views / 100
	if age > 99 {
		age = 99
	}
	f := 100 - age
	if f < 1 {
		f = 1
	}
	return float64(f)
}

func boolFeature(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func matchesAny(patterns []*regexp.Regexp, text string) bool {
	for _, p := range patterns {
		if p.MatchString(text) {
			return true
		}
	}
	return false
}

func tokensOverlap(a, b string) bool {
	sa := TokenSet(a)
	if len(sa) == 0 {
		return false
	}
	for t := range TokenSet(b) {
		if _, ok := sa[t]; ok {
			return true
		}
	}
	return false
}

func queryInTags(query string, tags []string) bool {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return false
	}
	for _, tag := range tags {
		if strings.ToLower(strings.TrimSpace(tag)) == q {
			return true
		}
	}
	return false
}

func overlapRatio(query, text string) float64 {
	qset := TokenSet(query)
	if len(qset) == 0 {
		return 0
	}
	tset := TokenSet(text)
	if len(tset) == 0 {
		return 0
	}
	var shared int
	for t := range qset {
		if _, ok := tset[t]; ok {
			shared++
		}
	}
	return float64(shared) / float64(len(qset))
}
