// Package oracle defines the capability interfaces of the external language
// models: named-entity recognition and sentence embeddings.
package oracle

import (
	"context"
	"math"
)

// Entity labels understood by the extraction engine.
const (
	LabelOrg   = "ORG"
	LabelGPE   = "GPE"
	LabelLoc   = "LOC"
	LabelFac   = "FAC"
	LabelMoney = "MONEY"
)

// Entity is a labeled text span.
type Entity struct {
	Text  string `json:"text" mapstructure:"text"`
	Label string `json:"label" mapstructure:"label"`
}

// EntityRecognizer finds labeled spans in free text.
type EntityRecognizer interface {
	Recognize(ctx context.Context, text string) ([]Entity, error)
}

// Embedder maps each text to a fixed-length vector. The result has one vector
// per input, in input order.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float64, error)
}

// Cosine returns the cosine similarity of a and b, or 0 when either vector has
// zero magnitude or the lengths differ.
func Cosine(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dot, na, nb float64
	for i := range a {
		dot += a[i] * b[i]
		na += a[i] * a[i]
		nb += b[i] * b[i]
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

// Round rounds x to the given number of decimal places.
func Round(x float64, places int) float64 {
	p := math.Pow(10, float64(places))
	return math.Round(x*p) / p
}

// Filter returns the entities carrying any of the given labels, in order.
func Filter(entities []Entity, labels ...string) []Entity {
	var out []Entity
	for _, e := range entities {
		for _, l := range labels {
			if e.Label == l {
				out = append(out, e)
				break
			}
		}
	}
	return out
}
