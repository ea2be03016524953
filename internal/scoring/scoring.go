// Package scoring compares two skill sets with confusion-matrix accounting.
//
// The counts are intentionally asymmetric: FP counts reference-only skills and
// FN counts candidate-only skills. Downstream reports depend on these exact
// definitions. TN is always zero since an open vocabulary has no notion of
// agreed absence.
package scoring

import (
	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/skills"
)

// Counts is the confusion matrix.
type Counts struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Report holds the counts with metrics rounded to two decimals.
type Report struct {
	Counts
	Precision float64 `json:"precision"`
	Recall    float64 `json:"recall"`
	F1        float64 `json:"f1"`
	Accuracy  float64 `json:"accuracy"`
}

// Score compares candidate skills against reference skills after
// normalization. F1 is computed from the rounded precision and recall.
func Score(candidate, reference []string) Report {
	cand := skills.NewSet(candidate...).Index()
	ref := skills.NewSet(reference...).Index()

	var c Counts
	for s := range cand {
		if _, ok := ref[s]; ok {
			c.TP++
		} else {
			c.FN++
		}
	}
	for s := range ref {
		if _, ok := cand[s]; !ok {
			c.FP++
		}
	}

	precision := oracle.Round(ratio(c.TP, c.TP+c.FP), 2)
	recall := oracle.Round(ratio(c.TP, c.TP+c.FN), 2)

	f1 := 0.0
	if precision+recall > 0 {
		f1 = 2 * precision * recall / (precision + recall)
	}

	return Report{
		Counts:    c,
		Precision: precision,
		Recall:    recall,
		F1:        oracle.Round(f1, 2),
		Accuracy:  oracle.Round(ratio(c.TP, c.TP+c.FP+c.FN), 2),
	}
}

func ratio(n, d int) float64 {
	if d == 0 {
		return 0
	}
	return float64(n) / float64(d)
}
