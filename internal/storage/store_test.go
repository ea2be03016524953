package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/spigell/jd-matcher/internal/extraction"
	"github.com/spigell/jd-matcher/internal/weighting"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	dsn := os.Getenv("JDM_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("JDM_TEST_MYSQL_DSN is not set")
	}
	s, err := Open(context.Background(), dsn, nil)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestSaveJobsSkipsKnownFilenames(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	name := fmt.Sprintf("it-%d.txt", time.Now().UnixNano())

	job := NewJob(name, "", extraction.NewRecord())
	if _, err := s.SaveJobs(ctx, []Job{job}); err != nil {
		t.Fatalf("first save: %v", err)
	}
	if _, err := s.SaveJobs(ctx, []Job{job}); err != nil {
		t.Fatalf("second save: %v", err)
	}

	jobs, err := s.Jobs(ctx)
	if err != nil {
		t.Fatalf("jobs: %v", err)
	}
	found := 0
	for _, j := range jobs {
		if j.Filename == name {
			found++
		}
	}
	if found != 1 {
		t.Fatalf("expected exactly one stored job, got %d", found)
	}

	names, err := s.Filenames(ctx, &Job{})
	if err != nil {
		t.Fatalf("filenames: %v", err)
	}
	if _, ok := names[name]; !ok {
		t.Fatalf("expected %s among stored filenames", name)
	}
}

func TestReplaceSkillMaster(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	rows := []SkillMaster{{SkillName: "python", SkillType: "Technical"}, {SkillName: "communication", SkillType: "Non-Technical"}}
	if err := s.ReplaceSkillMaster(ctx, rows); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if err := s.ReplaceSkillMaster(ctx, rows[:1]); err != nil {
		t.Fatalf("second replace: %v", err)
	}

	n, err := s.Count(ctx, &SkillMaster{})
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected the table to be replaced, got %d rows", n)
	}
}

func TestJobNotFound(t *testing.T) {
	s := openTestStore(t)

	if _, err := s.Job(context.Background(), 1<<31); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestReplaceAndLoadSkillWeights(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	row, err := NewJobSkillWeight(7, &weighting.Record{
		Skills: []string{"Python"},
		Count:  map[string]int{"Python": 2},
		Weight: map[string]float64{"Python": 1},
		IDF:    map[string]float64{"Python": 1.405465},
		TFIDF:  map[string]float64{"Python": 2.81093},
	})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := s.ReplaceSkillWeights(ctx, []JobSkillWeight{row}); err != nil {
		t.Fatalf("replace: %v", err)
	}

	stored, err := s.SkillWeights(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	got, ok := stored[7]
	if !ok || len(stored) != 1 {
		t.Fatalf("expected only job 7, got %v", stored)
	}
	rec, err := got.Weights()
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if rec.TFIDF["Python"] != 2.81093 {
		t.Fatalf("unexpected tf-idf %v", rec.TFIDF)
	}
}
