// Package weighting scores how central each extracted skill is to its
// document and how distinctive it is across the corpus.
package weighting

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/spigell/jd-matcher/internal/oracle"
	"github.com/spigell/jd-matcher/internal/skills"
)

const defaultWorkers = 4

// Document is one corpus entry: its raw description and extracted skills.
type Document struct {
	ID     string
	Text   string
	Skills []string
}

// Record holds a document's per-skill statistics. All four maps are keyed by
// exactly the entries of Skills.
type Record struct {
	Skills []string           `json:"skills"`
	Count  map[string]int     `json:"count"`
	Weight map[string]float64 `json:"weight"`
	IDF    map[string]float64 `json:"idf"`
	TFIDF  map[string]float64 `json:"tf_idf"`
}

// CorpusStats is the document frequency table of one Weigh call.
type CorpusStats struct {
	// DocFreq maps a normalized skill to the ids of documents mentioning it.
	DocFreq   map[string]map[string]struct{}
	TotalDocs int
}

// Weigher computes skill weights over a corpus.
type Weigher struct {
	embedder oracle.Embedder
	logger   *zap.Logger
	workers  int
}

func New(embedder oracle.Embedder, logger *zap.Logger, workers int) *Weigher {
	if logger == nil {
		logger = zap.NewNop()
	}
	if workers <= 0 {
		workers = defaultWorkers
	}
	return &Weigher{embedder: embedder, logger: logger, workers: workers}
}

type docStats struct {
	id     string
	pretty []string
	norm   []string
	weight []float64
	tf     []int
}

// Weigh computes per-document weights, term counts, IDF and TF-IDF. Statistics
// are rebuilt from scratch on every call. Documents without skills are
// skipped but still count towards the corpus size.
func (w *Weigher) Weigh(ctx context.Context, corpus []Document) (map[string]*Record, CorpusStats, error) {
	seenIDs := make(map[string]struct{}, len(corpus))
	for _, d := range corpus {
		if _, ok := seenIDs[d.ID]; ok {
			return nil, CorpusStats{}, fmt.Errorf("duplicate document id %q", d.ID)
		}
		seenIDs[d.ID] = struct{}{}
	}

	// Phase 1: per-document weights and term frequency.
	stats := make([]*docStats, len(corpus))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.workers)
	for i, d := range corpus {
		g.Go(func() error {
			s, err := w.documentStats(gctx, d)
			if err != nil {
				return fmt.Errorf("document %s: %w", d.ID, err)
			}
			stats[i] = s
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, CorpusStats{}, err
	}

	// Phase 2: corpus aggregation.
	corpusStats := CorpusStats{DocFreq: make(map[string]map[string]struct{}), TotalDocs: len(corpus)}
	for _, s := range stats {
		if s == nil {
			continue
		}
		for i, n := range s.norm {
			if _, ok := corpusStats.DocFreq[n]; !ok {
				corpusStats.DocFreq[n] = make(map[string]struct{})
			}
			if s.tf[i] > 0 {
				corpusStats.DocFreq[n][s.id] = struct{}{}
			}
		}
	}
	idf := make(map[string]float64, len(corpusStats.DocFreq))
	for n, docs := range corpusStats.DocFreq {
		idf[n] = IDF(corpusStats.TotalDocs, len(docs))
	}

	// Phase 3: per-document TF-IDF against the final IDF table.
	records := make([]*Record, len(stats))
	var wg sync.WaitGroup
	sem := make(chan struct{}, w.workers)
	for i, s := range stats {
		if s == nil {
			continue
		}
		wg.Add(1)
		sem <- struct{}{}
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			records[i] = buildRecord(s, idf)
		}()
	}
	wg.Wait()

	out := make(map[string]*Record, len(records))
	for i, r := range records {
		if r != nil {
			out[stats[i].id] = r
		}
	}

	w.logger.Info("skill weights computed",
		zap.Int("documents", len(corpus)),
		zap.Int("weighted", len(out)),
		zap.Int("distinct_skills", len(idf)),
	)

	return out, corpusStats, nil
}

func (w *Weigher) documentStats(ctx context.Context, d Document) (*docStats, error) {
	s := &docStats{id: d.ID}
	seen := make(map[string]struct{})
	for _, raw := range d.Skills {
		n := skills.Normalize(raw)
		if n == "" {
			continue
		}
		if _, ok := seen[n]; ok {
			continue
		}
		seen[n] = struct{}{}
		s.pretty = append(s.pretty, strings.TrimSpace(raw))
		s.norm = append(s.norm, n)
	}
	if len(s.norm) == 0 {
		return nil, nil
	}

	weights, err := w.intraWeights(ctx, s.norm)
	if err != nil {
		return nil, err
	}
	s.weight = weights

	text := strings.ToLower(d.Text)
	s.tf = make([]int, len(s.norm))
	for i, n := range s.norm {
		s.tf[i] = CountOccurrences(text, n)
	}
	return s, nil
}

// intraWeights returns each skill's mean similarity to the other skills of the
// same document, min-max normalized and rounded to 4 decimals. A lone skill
// weighs 1.0; equal weights normalize to 0.
func (w *Weigher) intraWeights(ctx context.Context, norm []string) ([]float64, error) {
	n := len(norm)
	if n == 1 {
		return []float64{1.0}, nil
	}
	if w.embedder == nil {
		return nil, fmt.Errorf("embedder is not configured")
	}

	vectors, err := w.embedder.Embed(ctx, norm)
	if err != nil {
		return nil, fmt.Errorf("embed skills: %w", err)
	}
	if len(vectors) != n {
		return nil, fmt.Errorf("embedder returned %d vectors for %d skills", len(vectors), n)
	}

	raw := make([]float64, n)
	for i := 0; i < n; i++ {
		var sum float64
		for j := 0; j < n; j++ {
			if i != j {
				sum += oracle.Cosine(vectors[i], vectors[j])
			}
		}
		raw[i] = sum / float64(n-1)
	}

	lo, hi := raw[0], raw[0]
	for _, v := range raw[1:] {
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}

	weights := make([]float64, n)
	if hi == lo {
		return weights, nil
	}
	for i, v := range raw {
		weights[i] = oracle.Round((v-lo)/(hi-lo), 4)
	}
	return weights, nil
}

func buildRecord(s *docStats, idf map[string]float64) *Record {
	r := &Record{
		Skills: s.pretty,
		Count:  make(map[string]int, len(s.pretty)),
		Weight: make(map[string]float64, len(s.pretty)),
		IDF:    make(map[string]float64, len(s.pretty)),
		TFIDF:  make(map[string]float64, len(s.pretty)),
	}
	for i, p := range s.pretty {
		v := idf[s.norm[i]]
		r.Count[p] = s.tf[i]
		r.Weight[p] = s.weight[i]
		r.IDF[p] = v
		r.TFIDF[p] = oracle.Round(float64(s.tf[i])*v, 6)
	}
	return r
}

// IDF is the smoothed inverse document frequency ln((1+N)/(1+df))+1, rounded
// to 6 decimals.
func IDF(totalDocs, docFreq int) float64 {
	return oracle.Round(math.Log(float64(1+totalDocs)/float64(1+docFreq))+1, 6)
}

// CountOccurrences counts non-overlapping occurrences of term in text that are
// not adjacent to a letter, digit or underscore. Both are expected lower-cased.
func CountOccurrences(text, term string) int {
	if term == "" {
		return 0
	}

	count := 0
	for i := 0; i < len(text); {
		idx := strings.Index(text[i:], term)
		if idx < 0 {
			break
		}
		start := i + idx
		end := start + len(term)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if (start == 0 || !isWordRune(before)) && (end == len(text) || !isWordRune(after)) {
			count++
			i = end
			continue
		}

		_, size := utf8.DecodeRuneInString(text[start:])
		i = start + size
	}
	return count
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}
