package condition

// Query is the flat form of a condition handed to listing sources.
type Query struct {
	Keyword      string          `json:"keyword" mapstructure:"keyword"`
	Location     string          `json:"location" mapstructure:"location"`
	SalaryMin    *int            `json:"salary_min" mapstructure:"salary_min"`
	SalaryMax    *int            `json:"salary_max" mapstructure:"salary_max"`
	SalaryUnit   SalaryUnit      `json:"salary_unit" mapstructure:"salary_unit"`
	Experience   ExperienceLevel `json:"experience" mapstructure:"experience"`
	Industries   []string        `json:"industries" mapstructure:"industries"`
	WorkType     WorkType        `json:"work_type" mapstructure:"work_type"`
	CompanyTypes []string        `json:"company_types" mapstructure:"company_types"`
}

// FormatSearchConditions flattens cond into a Query. Only the first location
// is kept.
func FormatSearchConditions(cond SearchCondition) Query {
	q := Query{
		Keyword:      cond.JobTitle,
		SalaryMin:    cond.Salary.Min,
		SalaryMax:    cond.Salary.Max,
		SalaryUnit:   cond.Salary.Unit,
		Experience:   cond.ExperienceLevel,
		Industries:   append([]string(nil), cond.Industries...),
		WorkType:     cond.WorkType,
		CompanyTypes: append([]string(nil), cond.CompanyTypes...),
	}
	if len(cond.Locations) > 0 {
		q.Location = cond.Locations[0]
	}
	return q
}
