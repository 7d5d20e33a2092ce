// Package tokenizer segments Chinese policy text into terms for lexical
// scoring.
package tokenizer

import (
	"strings"
	"sync"

	"github.com/go-ego/gse"

	"github.com/turtacn/FairReview-Intelligence/pkg/errors"
)

// Tokenizer splits text into scoring terms. Implementations must be safe for
// concurrent use once constructed.
type Tokenizer interface {
	Tokenize(text string) []string
}

// Func adapts a plain function to Tokenizer.
type Func func(text string) []string

func (f Func) Tokenize(text string) []string { return f(text) }

// GSE is a dictionary + HMM segmenter over the embedded simplified Chinese
// dictionary. Whitespace-only tokens are dropped.
type GSE struct {
	seg gse.Segmenter
}

var (
	sharedOnce sync.Once
	shared     *GSE
	sharedErr  error
)

// NewGSE loads the embedded dictionary. Loading takes a noticeable moment, so
// prefer Shared in long-lived processes.
func NewGSE(dicts ...string) (*GSE, error) {
	t := &GSE{}
	if err := t.seg.LoadDictEmbed(dicts...); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeIndexBuildFailed, "tokenizer: failed to load dictionary")
	}
	return t, nil
}

// Shared returns a process-wide GSE tokenizer, loading it on first use.
func Shared() (*GSE, error) {
	sharedOnce.Do(func() {
		shared, sharedErr = NewGSE()
	})
	return shared, sharedErr
}

func (t *GSE) Tokenize(text string) []string {
	return Clean(t.seg.Cut(text, true))
}

// Clean drops tokens that are empty after trimming whitespace. Kept tokens are
// returned as produced.
func Clean(tokens []string) []string {
	out := tokens[:0:0]
	for _, tok := range tokens {
		if strings.TrimSpace(tok) == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}

//Personal.AI order the ending
