package storage

import (
	"encoding/json"
	"fmt"
	"strings"

	"gorm.io/datatypes"

	"github.com/spigell/jd-matcher/internal/extraction"
	"github.com/spigell/jd-matcher/internal/skills"
	"github.com/spigell/jd-matcher/internal/weighting"
)

// NewJob builds the row for an extracted job description.
func NewJob(filename, description string, rec extraction.Record) Job {
	return Job{
		Filename:         filename,
		Description:      description,
		Company:          rec.Company,
		JobRole:          rec.JobRole,
		EmploymentType:   rec.EmploymentType,
		JobLocation:      rec.JobLocation,
		Experience:       rec.Experience,
		MinExp:           rec.MinExp.Ptr(),
		MaxExp:           rec.MaxExp.Ptr(),
		Skills:           rec.Skills,
		TechSkills:       rec.TechSkills,
		SoftSkills:       rec.SoftSkills,
		Qualification:    rec.Qualification,
		WorkMode:         rec.WorkMode,
		Salary:           rec.Salary,
		JobType:          rec.JobType,
		Responsibilities: rec.Responsibilities,
	}
}

// Record returns the extracted fields of the job.
func (j Job) Record() extraction.Record {
	return extraction.Record{
		Company:          j.Company,
		JobRole:          j.JobRole,
		EmploymentType:   j.EmploymentType,
		JobLocation:      j.JobLocation,
		Experience:       j.Experience,
		MinExp:           extraction.YearsFromPtr(j.MinExp),
		MaxExp:           extraction.YearsFromPtr(j.MaxExp),
		Skills:           j.Skills,
		TechSkills:       j.TechSkills,
		SoftSkills:       j.SoftSkills,
		Qualification:    j.Qualification,
		WorkMode:         j.WorkMode,
		Salary:           j.Salary,
		JobType:          j.JobType,
		Responsibilities: j.Responsibilities,
	}
}

// NewResume builds the row for an extracted résumé. Candidate names are not
// extracted and stay NA.
func NewResume(filename string, rec extraction.Record) Resume {
	return Resume{
		Filename:      filename,
		CandidateName: extraction.NA,
		Skills:        rec.Skills,
		Experience:    rec.Experience,
		Education:     rec.Qualification,
	}
}

// NewJobSkillWeight serializes the weighting statistics of one job.
func NewJobSkillWeight(jobID uint, rec *weighting.Record) (JobSkillWeight, error) {
	row := JobSkillWeight{JobID: jobID, ExtractedSkills: strings.Join(rec.Skills, ", ")}

	for _, f := range []struct {
		dst *datatypes.JSON
		src any
	}{
		{&row.SkillCount, rec.Count},
		{&row.SkillWeight, rec.Weight},
		{&row.IDF, rec.IDF},
		{&row.TFIDF, rec.TFIDF},
	} {
		data, err := json.Marshal(f.src)
		if err != nil {
			return JobSkillWeight{}, fmt.Errorf("encoding weights of job %d: %w", jobID, err)
		}
		*f.dst = datatypes.JSON(data)
	}
	return row, nil
}

// Weights decodes the stored statistics.
func (w JobSkillWeight) Weights() (*weighting.Record, error) {
	rec := &weighting.Record{Skills: skills.Split(w.ExtractedSkills)}
	for _, f := range []struct {
		name string
		src  datatypes.JSON
		dst  any
	}{
		{"skill count", w.SkillCount, &rec.Count},
		{"skill weight", w.SkillWeight, &rec.Weight},
		{"idf", w.IDF, &rec.IDF},
		{"tf-idf", w.TFIDF, &rec.TFIDF},
	} {
		if len(f.src) == 0 {
			continue
		}
		if err := json.Unmarshal(f.src, f.dst); err != nil {
			return nil, fmt.Errorf("decoding %s of job %d: %w", f.name, w.JobID, err)
		}
	}
	return rec, nil
}
