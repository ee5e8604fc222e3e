package scoring

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
)

const (
	maxSuggestions   = 6
	suggestionSample = 10
	suggestionSkills = 3
)

var (
	suggestionLocations   = []string{"台北", "新竹"}
	suggestionExperiences = []string{"新鮮人", "資深"}
)

// Suggestions proposes related searches: the query combined with the skills
// most common among the top results, then with two locations and two
// experience levels.
func Suggestions(query string, ranked []listing.Scored) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	sample := ranked
	if len(sample) > suggestionSample {
		sample = sample[:suggestionSample]
	}

	skills := SkillNamesByFrequency(sample)
	if len(skills) > suggestionSkills {
		skills = skills[:suggestionSkills]
	}

	suggestions := make([]string, 0, maxSuggestions)
	for _, skill := range skills {
		suggestions = append(suggestions, query+" "+skill)
	}
	for _, loc := range suggestionLocations {
		suggestions = append(suggestions, query+" "+loc)
	}
	for _, exp := range suggestionExperiences {
		suggestions = append(suggestions, exp+" "+query)
	}

	if len(suggestions) > maxSuggestions {
		suggestions = suggestions[:maxSuggestions]
	}
	return suggestions
}

// SkillNamesByFrequency returns the known skills mentioned in the listings,
// most frequent first. Ties keep skill table order.
func SkillNamesByFrequency(items []listing.Scored) []string {
	counts := make(map[string]int)
	names := condition.SkillNames()
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Description)
		for _, skill := range names {
			if strings.Contains(text, skill) {
				counts[skill]++
			}
		}
	}

	found := make([]string, 0, len(counts))
	for _, skill := range names {
		if counts[skill] > 0 {
			found = append(found, skill)
		}
	}
	sort.SliceStable(found, func(i, j int) bool {
		return counts[found[i]] > counts[found[j]]
	})
	return found
}

// Summary renders a one-line description of cond followed by the number of
// results.
func Summary(cond condition.SearchCondition, count int) string {
	var parts []string

	if cond.JobTitle != "" {
		parts = append(parts, "關鍵字: "+cond.JobTitle)
	}
	if len(cond.Skills) > 0 {
		parts = append(parts, "技能: "+strings.Join(cond.Skills, ", "))
	}
	if len(cond.Locations) > 0 {
		parts = append(parts, "地點: "+strings.Join(cond.Locations, ", "))
	}
	if cond.Salary.IsSet() {
		parts = append(parts, "薪資: "+condition.SalaryText(cond.Salary))
	}
	if len(cond.CompanyTypes) > 0 {
		parts = append(parts, "公司類型: "+strings.Join(cond.CompanyTypes, ", "))
	}

	summary := "一般搜尋"
	if len(parts) > 0 {
		summary = "搜尋條件: " + strings.Join(parts, " | ")
	}
	return fmt.Sprintf("%s\n找到 %d 個相關職缺", summary, count)
}
