package evaluation

import (
	"fmt"
	"io"
	"strings"
)

const maxMissesShown = 10

// WriteText prints the summary. showResults adds the top-K candidates of
// every row; showErrors adds up to ten misses with five candidates each.
func WriteText(w io.Writer, rep Report, showResults, showErrors bool) {
	if showResults {
		for _, row := range rep.Rows {
			fmt.Fprintln(w)
			fmt.Fprintln(w, "Query result:")
			fmt.Fprintf(w, "- text: %s\n", clip(row.Sample.Text, 120))
			writeRow(w, row, rep.K)
		}
	}

	if rep.Samples == 0 {
		fmt.Fprintln(w, "No valid rows to evaluate.")
		return
	}
	fmt.Fprintf(w, "Samples: %d\n", rep.Samples)
	fmt.Fprintf(w, "Top-K: %d\n", rep.K)
	fmt.Fprintf(w, "Hit@K (Recall@K): %.4f\n", rep.HitAtK)
	fmt.Fprintf(w, "MRR: %.4f\n", rep.MRR)
	fmt.Fprintf(w, "Accuracy: %.4f\n", rep.Accuracy)

	misses := rep.Misses()
	if !showErrors || len(misses) == 0 {
		return
	}
	fmt.Fprintln(w)
	fmt.Fprintf(w, "Missed cases (first %d):\n", maxMissesShown)
	if len(misses) > maxMissesShown {
		misses = misses[:maxMissesShown]
	}
	for _, row := range misses {
		fmt.Fprintf(w, "- text: %s\n", clip(row.Sample.Text, 120))
		writeRow(w, row, 5)
		fmt.Fprintln(w)
	}
}

func writeRow(w io.Writer, row RowResult, limit int) {
	fmt.Fprintf(w, "  true: %s\n", row.TrueStatement)
	fmt.Fprintf(w, "  query: %s\n", row.Query)
	if row.Rank > 0 {
		fmt.Fprintf(w, "  rank: %d\n", row.Rank)
	} else {
		fmt.Fprintln(w, "  rank: None")
	}
	n := limit
	if len(row.Candidates) < n {
		n = len(row.Candidates)
	}
	if n == 0 {
		return
	}
	fmt.Fprintf(w, "  top%d candidates:\n", n)
	for _, c := range row.Candidates[:n] {
		fmt.Fprintf(w, "    #%d: score=%.4f source=%s chapter=%s\n", c.Rank, c.Score, c.Source, c.Chapter)
		if c.Preview != "" {
			fmt.Fprintf(w, "      preview: %s\n", clip(strings.ReplaceAll(c.Preview, "\n", " "), 200))
		}
	}
}

func clip(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		return string(r[:n])
	}
	return s
}

//Personal.AI order the ending
