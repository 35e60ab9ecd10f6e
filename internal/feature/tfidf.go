package feature

import (
	"fmt"
	"math"
	"strings"
)

// Vectorizer maps text to a sparse tf-idf vector using a vocabulary and idf
// weights exported by the training pipeline. An unfit vectorizer is a valid
// value whose Similarity is always zero.
type Vectorizer struct {
	vocabulary map[string]int
	idf        []float64
	ngramMax   int
	ready      bool
}

// NewVectorizer builds a fitted vectorizer. Every vocabulary index must have
// an idf weight.
func NewVectorizer(vocabulary map[string]int, idf []float64, ngramMax int) (*Vectorizer, error) {
	if len(vocabulary) == 0 {
		return nil, fmt.Errorf("vectorizer: empty vocabulary")
	}
	for term, idx := range vocabulary {
		if idx < 0 || idx >= len(idf) {
			return nil, fmt.Errorf("vectorizer: term %q index %d out of idf range %d", term, idx, len(idf))
		}
	}
	if ngramMax < 1 {
		ngramMax = 1
	}
	return &Vectorizer{
		vocabulary: vocabulary,
		idf:        idf,
		ngramMax:   ngramMax,
		ready:      true,
	}, nil
}

// UnfitVectorizer returns a vectorizer that reports zero similarity for
// every input. Used when no vectorizer artifact is available.
func UnfitVectorizer() *Vectorizer {
	return &Vectorizer{}
}

func (v *Vectorizer) Ready() bool {
	return v != nil && v.ready
}

// VocabularySize reports the number of fitted terms, zero when unfit.
func (v *Vectorizer) VocabularySize() int {
	if !v.Ready() {
		return 0
	}
	return len(v.vocabulary)
}

// Similarity is the cosine similarity of the tf-idf vectors of a and b.
// Returns 0 when the vectorizer is unfit or either vector is empty.
func (v *Vectorizer) Similarity(a, b string) float64 {
	if !v.Ready() {
		return 0
	}
	va := v.transform(a)
	vb := v.transform(b)
	if len(va) == 0 || len(vb) == 0 {
		return 0
	}
	if len(vb) < len(va) {
		va, vb = vb, va
	}
	var dot float64
	for idx, w := range va {
		dot += w * vb[idx]
	}
	if dot < 0 {
		return 0
	}
	return dot
}

// transform produces the l2-normalized sparse tf-idf vector of text.
func (v *Vectorizer) transform(text string) map[int]float64 {
	counts := make(map[int]float64)
	toks := Tokens(text)
	for n := 1; n <= v.ngramMax; n++ {
		for i := 0; i+n <= len(toks); i++ {
			term := strings.Join(toks[i:i+n], " ")
			if idx, ok := v.vocabulary[term]; ok {
				counts[idx]++
			}
		}
	}
	var norm float64
	for idx := range counts {
		counts[idx] *= v.idf[idx]
		norm += counts[idx] * counts[idx]
	}
	if norm == 0 {
		return nil
	}
	norm = math.Sqrt(norm)
	for idx := range counts {
		counts[idx] /= norm
	}
	return counts
}
