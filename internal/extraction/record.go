package extraction

import (
	"encoding/json"
	"strconv"
	"strings"
)

// NA marks a field the extractors could not resolve.
const NA = "NA"

// Years is an experience bound that is either a known whole number of years
// or unknown. It marshals to a JSON number or to "NA".
type Years struct {
	Value int
	Known bool
}

// YearsOf returns a known bound.
func YearsOf(v int) Years { return Years{Value: v, Known: true} }

func (y Years) String() string {
	if !y.Known {
		return NA
	}
	return strconv.Itoa(y.Value)
}

// Ptr returns the value as a pointer, nil when unknown.
func (y Years) Ptr() *int {
	if !y.Known {
		return nil
	}
	v := y.Value
	return &v
}

// YearsFromPtr is the inverse of Ptr.
func YearsFromPtr(v *int) Years {
	if v == nil {
		return Years{}
	}
	return YearsOf(*v)
}

func (y Years) MarshalJSON() ([]byte, error) {
	if !y.Known {
		return json.Marshal(NA)
	}
	return json.Marshal(y.Value)
}

func (y *Years) UnmarshalJSON(data []byte) error {
	var n int
	if err := json.Unmarshal(data, &n); err == nil {
		*y = YearsOf(n)
		return nil
	}
	*y = Years{}
	return nil
}

// Record holds the fifteen fields extracted from one document. String fields
// are NA when unresolved.
type Record struct {
	Company          string `json:"company" mapstructure:"company"`
	JobRole          string `json:"job_role" mapstructure:"job_role"`
	EmploymentType   string `json:"employment_type" mapstructure:"employment_type"`
	JobLocation      string `json:"job_location" mapstructure:"job_location"`
	Experience       string `json:"experience" mapstructure:"experience"`
	MinExp           Years  `json:"min_exp" mapstructure:"min_exp"`
	MaxExp           Years  `json:"max_exp" mapstructure:"max_exp"`
	Skills           string `json:"skills" mapstructure:"skills"`
	TechSkills       string `json:"tech_skills" mapstructure:"tech_skills"`
	SoftSkills       string `json:"soft_skills" mapstructure:"soft_skills"`
	Qualification    string `json:"qualification" mapstructure:"qualification"`
	WorkMode         string `json:"work_mode" mapstructure:"work_mode"`
	Salary           string `json:"salary" mapstructure:"salary"`
	JobType          string `json:"job_type" mapstructure:"job_type"`
	Responsibilities string `json:"responsibilities" mapstructure:"responsibilities"`

	// SkillList is the matched skills before joining.
	SkillList []string `json:"-" mapstructure:"-"`
}

// NewRecord returns a record with every field unresolved.
func NewRecord() Record {
	return Record{
		Company:          NA,
		JobRole:          NA,
		EmploymentType:   NA,
		JobLocation:      NA,
		Experience:       NA,
		Skills:           NA,
		TechSkills:       NA,
		SoftSkills:       NA,
		Qualification:    NA,
		WorkMode:         NA,
		Salary:           NA,
		JobType:          NA,
		Responsibilities: NA,
	}
}

// Fields returns the record keyed by field name. All fifteen keys are present.
func (r Record) Fields() map[string]any {
	return map[string]any{
		"company":          r.Company,
		"job_role":         r.JobRole,
		"employment_type":  r.EmploymentType,
		"job_location":     r.JobLocation,
		"experience":       r.Experience,
		"min_exp":          yearsField(r.MinExp),
		"max_exp":          yearsField(r.MaxExp),
		"skills":           r.Skills,
		"tech_skills":      r.TechSkills,
		"soft_skills":      r.SoftSkills,
		"qualification":    r.Qualification,
		"work_mode":        r.WorkMode,
		"salary":           r.Salary,
		"job_type":         r.JobType,
		"responsibilities": r.Responsibilities,
	}
}

func yearsField(y Years) any {
	if !y.Known {
		return NA
	}
	return y.Value
}

func joinOrNA(values []string) string {
	if len(values) == 0 {
		return NA
	}
	return strings.Join(values, ", ")
}
