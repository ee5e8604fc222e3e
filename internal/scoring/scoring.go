// Package scoring ranks job listings against a search condition using
// weighted partial-credit matching.
package scoring

import (
	"sort"
	"strings"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

const (
	WeightTitle       = 40
	WeightSkills      = 30
	WeightLocation    = 15
	WeightSalary      = 10
	WeightCompanyType = 5

	// Threshold is the lowest accepted score. Anything below scores 0.
	Threshold = 30
	// NeutralScore is returned when the condition constrains nothing.
	NeutralScore = 50
)

// Score rates how well l matches cond on a 0-100 scale. Only categories
// populated in cond contribute to the maximum. A listing that is missing a
// field earns no credit for that category.
func Score(l listing.Listing, cond condition.SearchCondition) float64 {
	if !cond.HasScoringFields() {
		return NeutralScore
	}

	var points, total float64

	title := strings.ToLower(l.Title)
	description := strings.ToLower(l.Description)
	company := strings.ToLower(l.Company)

	if keyword := strings.ToLower(strings.TrimSpace(cond.JobTitle)); keyword != "" {
		total += WeightTitle
		switch {
		case strings.Contains(title, keyword):
			points += WeightTitle
		case strings.Contains(description, keyword) || strings.Contains(company, keyword):
			points += WeightTitle / 2
		}
	}

	if len(cond.Skills) > 0 {
		total += WeightSkills
		text := description + " " + title
		matched := 0
		for _, skill := range cond.Skills {
			if skill = strings.ToLower(strings.TrimSpace(skill)); skill != "" && strings.Contains(text, skill) {
				matched++
			}
		}
		points += WeightSkills * float64(matched) / float64(len(cond.Skills))
	}

	if len(cond.Locations) > 0 {
		total += WeightLocation
		if matchesLocation(strings.ToLower(l.Location), cond.Locations) {
			points += WeightLocation
		}
	}

	if cond.Salary.IsSet() {
		total += WeightSalary
		if salary, ok := ListingSalary(l.SalaryText, cond.Salary.Unit); ok && inRange(salary, cond.Salary) {
			points += WeightSalary
		}
	}

	if len(cond.CompanyTypes) > 0 {
		total += WeightCompanyType
		text := company + " " + description
		matched := 0
		for _, companyType := range cond.CompanyTypes {
			if containsAny(text, condition.CompanyTypeSynonyms(companyType)) {
				matched++
			}
		}
		points += WeightCompanyType * float64(matched) / float64(len(cond.CompanyTypes))
	}

	if total == 0 {
		return NeutralScore
	}

	score := points / total * 100
	if score < Threshold {
		return 0
	}
	return score
}

// Rank scores every listing, drops the ones scoring 0 and sorts the rest by
// descending score. Listings with equal scores keep their input order.
func Rank(items []listing.Listing, cond condition.SearchCondition) []listing.Scored {
	ranked := make([]listing.Scored, 0, len(items))
	for _, item := range items {
		score := Score(item, cond)
		if score <= 0 {
			continue
		}
		ranked = append(ranked, listing.Scored{Listing: item, Score: score})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	return ranked
}

func matchesLocation(location string, wanted []string) bool {
	if location == "" {
		return false
	}
	for _, name := range wanted {
		if containsAny(location, condition.LocationSynonyms(name)) {
			return true
		}
	}
	return false
}

func inRange(salary int, want condition.Salary) bool {
	if want.Min != nil && salary < *want.Min {
		return false
	}
	if want.Max != nil && salary > *want.Max {
		return false
	}
	return true
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if needle = strings.ToLower(needle); needle != "" && strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
