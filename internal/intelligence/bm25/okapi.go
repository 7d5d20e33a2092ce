// Package bm25 implements Okapi BM25 lexical scoring over policy chunks,
// including the chapter-title filter used to narrow retrieval to the
// chapters an intent points at.
package bm25

import "math"

// Params are the Okapi BM25 free parameters.
type Params struct {
	K1      float64
	B       float64
	Epsilon float64
}

// DefaultParams are the content index parameters.
func DefaultParams() Params {
	return Params{K1: 1.5, B: 0.75, Epsilon: 0.25}
}

// ChapterParams are the parameters of the chapter-title index. Titles are
// short so length normalization is damped.
func ChapterParams() Params {
	return Params{K1: 1.2, B: 0.4, Epsilon: 0.25}
}

// Okapi is an immutable BM25 model over a tokenized corpus.
type Okapi struct {
	params   Params
	docFreqs []map[string]int
	docLen   []int
	avgdl    float64
	idf      map[string]float64
}

// NewOkapi indexes corpus. Each entry is one document's token list.
//
// idf(t) = ln(N - n(t) + 0.5) - ln(n(t) + 0.5). Terms whose idf is negative
// (present in more than half of the corpus) get Epsilon times the mean idf
// instead.
func NewOkapi(corpus [][]string, p Params) *Okapi {
	o := &Okapi{
		params:   p,
		docFreqs: make([]map[string]int, len(corpus)),
		docLen:   make([]int, len(corpus)),
		idf:      make(map[string]float64),
	}

	nd := make(map[string]int)
	total := 0
	for i, doc := range corpus {
		freqs := make(map[string]int, len(doc))
		for _, term := range doc {
			freqs[term]++
		}
		o.docFreqs[i] = freqs
		o.docLen[i] = len(doc)
		total += len(doc)
		for term := range freqs {
			nd[term]++
		}
	}
	if len(corpus) > 0 {
		o.avgdl = float64(total) / float64(len(corpus))
	}

	n := float64(len(corpus))
	idfSum := 0.0
	var negative []string
	for term, df := range nd {
		v := math.Log(n-float64(df)+0.5) - math.Log(float64(df)+0.5)
		o.idf[term] = v
		idfSum += v
		if v < 0 {
			negative = append(negative, term)
		}
	}
	if len(o.idf) > 0 {
		eps := p.Epsilon * idfSum / float64(len(o.idf))
		for _, term := range negative {
			o.idf[term] = eps
		}
	}
	return o
}

// Len is the number of indexed documents.
func (o *Okapi) Len() int { return len(o.docLen) }

// IDF returns the smoothed idf of term and whether it occurs in the corpus.
func (o *Okapi) IDF(term string) (float64, bool) {
	v, ok := o.idf[term]
	return v, ok
}

// Scores returns the BM25 score of query against every document, in corpus
// order. Repeated query terms contribute once per occurrence; terms absent
// from the corpus contribute nothing.
func (o *Okapi) Scores(query []string) []float64 {
	scores := make([]float64, len(o.docLen))
	k1, b := o.params.K1, o.params.B
	for _, term := range query {
		idf, ok := o.idf[term]
		if !ok {
			continue
		}
		for i, freqs := range o.docFreqs {
			f := float64(freqs[term])
			if f == 0 {
				continue
			}
			norm := 1 - b
			if o.avgdl > 0 {
				norm += b * float64(o.docLen[i]) / o.avgdl
			}
			scores[i] += idf * f * (k1 + 1) / (f + k1*norm)
		}
	}
	return scores
}

//Personal.AI order the ending
