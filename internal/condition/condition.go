package condition

import (
	"encoding/json"
)

// Field names reported by MissingFields, in the order they are asked for.
const (
	FieldJobTitle   = "job_title"
	FieldSalary     = "salary"
	FieldLocation   = "location"
	FieldExperience = "experience"
)

type SalaryUnit string

const (
	SalaryMonthly SalaryUnit = "monthly"
	SalaryYearly  SalaryUnit = "yearly"
	SalaryHourly  SalaryUnit = "hourly"
)

type ExperienceLevel string

const (
	ExperienceUnspecified ExperienceLevel = "unspecified"
	ExperienceEntry       ExperienceLevel = "entry"
	ExperienceMid         ExperienceLevel = "mid"
	ExperienceSenior      ExperienceLevel = "senior"
)

type WorkType string

const (
	WorkTypeUnspecified WorkType = "unspecified"
	WorkTypeRemote      WorkType = "remote"
	WorkTypeOnsite      WorkType = "onsite"
	WorkTypeHybrid      WorkType = "hybrid"
)

// Salary is an expected pay range. A nil bound means the bound was not given.
type Salary struct {
	Min  *int       `json:"min"`
	Max  *int       `json:"max"`
	Unit SalaryUnit `json:"unit"`
}

// IsSet reports whether at least one bound is present.
func (s Salary) IsSet() bool {
	return s.Min != nil || s.Max != nil
}

// SearchCondition is the structured form of a free-text job query.
type SearchCondition struct {
	JobTitle        string          `json:"job_title"`
	Salary          Salary          `json:"salary"`
	Locations       []string        `json:"locations"`
	Industries      []string        `json:"industries"`
	ExperienceLevel ExperienceLevel `json:"experience_level"`
	WorkType        WorkType        `json:"work_type"`
	CompanyTypes    []string        `json:"company_types"`
	Skills          []string        `json:"skills"`
	OriginalText    string          `json:"original_text"`
}

// Empty returns a condition with every field at its default.
func Empty() SearchCondition {
	return SearchCondition{
		Salary:          Salary{Unit: SalaryMonthly},
		ExperienceLevel: ExperienceUnspecified,
		WorkType:        WorkTypeUnspecified,
	}
}

// MissingFields lists the required fields that are still empty. It is derived
// from the other fields on every call and never stored.
func (c SearchCondition) MissingFields() []string {
	missing := make([]string, 0, 4)
	if c.JobTitle == "" {
		missing = append(missing, FieldJobTitle)
	}
	if !c.Salary.IsSet() {
		missing = append(missing, FieldSalary)
	}
	if len(c.Locations) == 0 {
		missing = append(missing, FieldLocation)
	}
	if c.ExperienceLevel == "" || c.ExperienceLevel == ExperienceUnspecified {
		missing = append(missing, FieldExperience)
	}
	return missing
}

// IsComplete reports whether no required field is missing.
func (c SearchCondition) IsComplete() bool {
	return len(c.MissingFields()) == 0
}

// HasScoringFields reports whether any field used for relevance scoring is populated.
func (c SearchCondition) HasScoringFields() bool {
	return c.JobTitle != "" || len(c.Skills) > 0 || len(c.Locations) > 0 ||
		c.Salary.IsSet() || len(c.CompanyTypes) > 0
}

// MarshalJSON includes the derived missing_fields list.
func (c SearchCondition) MarshalJSON() ([]byte, error) {
	type plain SearchCondition
	return json.Marshal(struct {
		plain
		MissingFields []string `json:"missing_fields"`
	}{plain: plain(c), MissingFields: c.MissingFields()})
}

// UnmarshalJSON ignores any serialized missing_fields value.
func (c *SearchCondition) UnmarshalJSON(data []byte) error {
	type plain SearchCondition
	var decoded struct {
		plain
		MissingFields json.RawMessage `json:"missing_fields"`
	}
	if err := json.Unmarshal(data, &decoded); err != nil {
		return err
	}
	*c = SearchCondition(decoded.plain)
	return nil
}
