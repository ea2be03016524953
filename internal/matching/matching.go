package matching

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/skills"
)

// DefaultThreshold is the cosine similarity at which two skills are considered the same.
const DefaultThreshold = 0.6

// Comparison partitions reference skills into matched and missing.
// Scores[i] is the best similarity of Matched[i], rounded to 4 decimals.
type Comparison struct {
	Matched   []string  `json:"matched_skills"`
	Missing   []string  `json:"missing_skills"`
	Scores    []float64 `json:"similarity_scores"`
	MatchRate float64   `json:"match_rate"`
}

// Matcher compares skill sets by embedding similarity.
type Matcher struct {
	embedder oracle.Embedder
	logger   *zap.Logger
}

func New(embedder oracle.Embedder, logger *zap.Logger) *Matcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Matcher{embedder: embedder, logger: logger}
}

// Compare reports, for each reference skill, whether any candidate skill is at
// least threshold-similar to it. MatchRate is the matched percentage rounded
// to 2 decimals.
func (m *Matcher) Compare(ctx context.Context, reference, candidate []string, threshold float64) (*Comparison, error) {
	ref := skills.NewSet(reference...)
	cand := skills.NewSet(candidate...)

	result := &Comparison{Matched: []string{}, Missing: []string{}, Scores: []float64{}}
	if len(ref) == 0 {
		return result, nil
	}
	if len(cand) == 0 {
		result.Missing = append(result.Missing, ref...)
		return result, nil
	}
	if m.embedder == nil {
		return nil, errors.New("embedder is not configured")
	}

	texts := make([]string, 0, len(ref)+len(cand))
	texts = append(texts, ref...)
	texts = append(texts, cand...)
	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed skills: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d skills", len(vectors), len(texts))
	}
	refVecs, candVecs := vectors[:len(ref)], vectors[len(ref):]

	for i, skill := range ref {
		best := -1.0
		for _, cv := range candVecs {
			if sim := oracle.Cosine(refVecs[i], cv); sim > best {
				best = sim
			}
		}
		if best >= threshold {
			result.Matched = append(result.Matched, skill)
			result.Scores = append(result.Scores, oracle.Round(best, 4))
		} else {
			result.Missing = append(result.Missing, skill)
		}
	}

	result.MatchRate = oracle.Round(float64(len(result.Matched))/float64(len(ref))*100, 2)

	m.logger.Debug("skills compared",
		zap.Int("reference", len(ref)),
		zap.Int("candidate", len(cand)),
		zap.Int("matched", len(result.Matched)),
		zap.Float64("match_rate", result.MatchRate),
	)

	return result, nil
}

// Profile is a document's skill list as stored, comma joined.
type Profile struct {
	ID     uint
	Skills string
}

// Pair is the similarity of one job's skills to one resume's skills.
type Pair struct {
	JobID      uint
	ResumeID   uint
	Similarity float64
}

// CrossSimilarity scores every job against every resume by the cosine
// similarity of their skill strings, rounded to 3 decimals. Pairs are ordered
// by job then resume.
func (m *Matcher) CrossSimilarity(ctx context.Context, jobs, resumes []Profile) ([]Pair, error) {
	if len(jobs) == 0 || len(resumes) == 0 {
		return nil, nil
	}
	if m.embedder == nil {
		return nil, errors.New("embedder is not configured")
	}

	texts := make([]string, 0, len(jobs)+len(resumes))
	for _, j := range jobs {
		texts = append(texts, j.Skills)
	}
	for _, r := range resumes {
		texts = append(texts, r.Skills)
	}

	vectors, err := m.embedder.Embed(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("embed skill profiles: %w", err)
	}
	if len(vectors) != len(texts) {
		return nil, fmt.Errorf("embedder returned %d vectors for %d profiles", len(vectors), len(texts))
	}

	pairs := make([]Pair, 0, len(jobs)*len(resumes))
	for i, j := range jobs {
		for k, r := range resumes {
			pairs = append(pairs, Pair{
				JobID:      j.ID,
				ResumeID:   r.ID,
				Similarity: oracle.Round(oracle.Cosine(vectors[i], vectors[len(jobs)+k]), 3),
			})
		}
	}
	return pairs, nil
}
