package vocabulary

import (
	"bytes"
	_ "embed"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

// Kind classifies a vocabulary term.
type Kind string

const (
	KindTech Kind = "tech"
	KindSoft Kind = "soft"
)

// Classification labels used by the skill master table.
const (
	Technical    = "technical"
	NonTechnical = "non-technical"
)

//go:embed skills_en.csv
var defaultCSV []byte

// technicalKeywords mark a skill as technical when any of them is a substring.
var technicalKeywords = []string{"python", "java", "sql", "cloud", "react", "ai", "data", "ml"}

// Vocabulary is read-only reference data: the known skill terms in file order
// with their partition.
type Vocabulary struct {
	terms []string
	kinds map[string]Kind
}

// Default returns the embedded vocabulary.
func Default() (*Vocabulary, error) {
	return Parse(bytes.NewReader(defaultCSV))
}

// Load reads a skill,type CSV from path. An empty path loads the embedded
// vocabulary.
func Load(path string) (*Vocabulary, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return Default()
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open vocabulary %q: %w", path, err)
	}
	defer f.Close()

	v, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("parse vocabulary %q: %w", path, err)
	}
	return v, nil
}

// Parse reads a CSV with a skill,type header. Rows with an empty skill are
// ignored; an unknown type is treated as neither tech nor soft.
func Parse(r io.Reader) (*Vocabulary, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, errors.New("vocabulary is empty")
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	skillCol, typeCol := -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case "skill":
			skillCol = i
		case "type":
			typeCol = i
		}
	}
	if skillCol < 0 {
		return nil, errors.New("vocabulary header has no skill column")
	}

	v := &Vocabulary{kinds: make(map[string]Kind)}
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read row: %w", err)
		}
		if skillCol >= len(row) {
			continue
		}

		term := strings.TrimSpace(row[skillCol])
		if term == "" {
			continue
		}
		if strings.Contains(term, ",") {
			return nil, fmt.Errorf("skill %q contains the list delimiter", term)
		}
		if _, ok := v.kinds[term]; ok {
			continue
		}

		var kind Kind
		if typeCol >= 0 && typeCol < len(row) {
			kind = Kind(strings.ToLower(strings.TrimSpace(row[typeCol])))
		}
		v.terms = append(v.terms, term)
		v.kinds[term] = kind
	}

	return v, nil
}

// Terms returns a copy of all terms in vocabulary order.
func (v *Vocabulary) Terms() []string {
	return append([]string(nil), v.terms...)
}

func (v *Vocabulary) Len() int { return len(v.terms) }

// Match scans text for every vocabulary term as a case-insensitive substring.
// Matches are unique and follow vocabulary order.
func (v *Vocabulary) Match(text string) []string {
	if v == nil || text == "" {
		return nil
	}

	lower := strings.ToLower(text)
	var found []string
	seen := make(map[string]struct{})
	for _, term := range v.terms {
		key := strings.ToLower(term)
		if _, ok := seen[key]; ok {
			continue
		}
		if strings.Contains(lower, key) {
			seen[key] = struct{}{}
			found = append(found, term)
		}
	}
	return found
}

// Tech keeps the matched skills that belong to the technical partition.
func (v *Vocabulary) Tech(matched []string) []string {
	return v.filter(matched, KindTech)
}

// Soft keeps the matched skills that belong to the non-technical partition.
func (v *Vocabulary) Soft(matched []string) []string {
	return v.filter(matched, KindSoft)
}

func (v *Vocabulary) filter(matched []string, kind Kind) []string {
	var out []string
	for _, s := range matched {
		if v.kinds[s] == kind {
			out = append(out, s)
		}
	}
	return out
}

// Classify labels an arbitrary normalized skill as technical or non-technical
// by keyword containment.
func Classify(skill string) string {
	skill = strings.ToLower(skill)
	for _, kw := range technicalKeywords {
		if strings.Contains(skill, kw) {
			return Technical
		}
	}
	return NonTechnical
}
