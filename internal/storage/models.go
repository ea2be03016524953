package storage

import (
	"time"

	"gorm.io/datatypes"
)

// Job is one extracted job description.
type Job struct {
	ID               uint   `gorm:"primaryKey;autoIncrement"`
	Filename         string `gorm:"type:varchar(255);not null;uniqueIndex:idx_jobs_filename"`
	Description      string `gorm:"type:mediumtext"`
	Company          string `gorm:"type:varchar(255)"`
	JobRole          string `gorm:"type:varchar(255)"`
	EmploymentType   string `gorm:"type:varchar(255)"`
	JobLocation      string `gorm:"type:varchar(255)"`
	Experience       string `gorm:"type:varchar(255)"`
	MinExp           *int
	MaxExp           *int
	Skills           string `gorm:"type:text"`
	TechSkills       string `gorm:"type:text"`
	SoftSkills       string `gorm:"type:text"`
	Qualification    string `gorm:"type:varchar(255)"`
	WorkMode         string `gorm:"type:varchar(255)"`
	Salary           string `gorm:"type:varchar(255)"`
	JobType          string `gorm:"type:varchar(255)"`
	Responsibilities string `gorm:"type:text"`
	CreatedAt        time.Time
}

func (Job) TableName() string { return "jobs" }

// Resume is one extracted résumé.
type Resume struct {
	ID            uint   `gorm:"primaryKey;autoIncrement"`
	Filename      string `gorm:"type:varchar(255);not null;uniqueIndex:idx_resumes_filename"`
	CandidateName string `gorm:"type:varchar(255)"`
	Skills        string `gorm:"type:text"`
	Experience    string `gorm:"type:varchar(255)"`
	Education     string `gorm:"type:varchar(255)"`
	CreatedAt     time.Time
}

func (Resume) TableName() string { return "resumes" }

// JobSkillWeight stores the per-skill statistics of a job as JSON objects
// keyed by skill.
type JobSkillWeight struct {
	JobID           uint           `gorm:"primaryKey;autoIncrement:false"`
	ExtractedSkills string         `gorm:"type:text"`
	SkillCount      datatypes.JSON `gorm:"type:json"`
	SkillWeight     datatypes.JSON `gorm:"type:json"`
	IDF             datatypes.JSON `gorm:"column:idf;type:json"`
	TFIDF           datatypes.JSON `gorm:"column:tf_idf;type:json"`
}

func (JobSkillWeight) TableName() string { return "job_skill_weights" }

// JobResumeComparison is one cell of the job x résumé similarity table.
type JobResumeComparison struct {
	JobID            uint    `gorm:"primaryKey;autoIncrement:false"`
	ResumeID         uint    `gorm:"primaryKey;autoIncrement:false"`
	CosineSimilarity float64 `gorm:"type:double"`
}

func (JobResumeComparison) TableName() string { return "job_resume_comparisons" }

// SkillMaster lists every skill seen in jobs or résumés.
type SkillMaster struct {
	ID        uint   `gorm:"primaryKey;autoIncrement"`
	SkillName string `gorm:"type:varchar(255);not null;uniqueIndex:idx_skill_master_name"`
	SkillType string `gorm:"type:varchar(32)"`
}

func (SkillMaster) TableName() string { return "skill_master" }

var allModels = []any{&Job{}, &Resume{}, &JobSkillWeight{}, &JobResumeComparison{}, &SkillMaster{}}
