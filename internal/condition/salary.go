package condition

import (
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

const unitPattern = `(k|千|萬|万)?`

var (
	salaryRangeRe = regexp.MustCompile(`(\d+)\s*` + unitPattern + `\s*(?:-|~|到|至)\s*(\d+)\s*` + unitPattern)

	salaryMinRes = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*` + unitPattern + `\s*(?:以上|起)`),
		regexp.MustCompile(`(?:至少|最少|最低|at least|minimum)\s*(\d+)\s*` + unitPattern),
	}

	salaryMaxRes = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*` + unitPattern + `\s*(?:以下|以內)`),
		regexp.MustCompile(`(?:最多|不超過|up to|at most)\s*(\d+)\s*` + unitPattern),
	}

	// A bare amount after a pay keyword ("月薪60k") counts as the minimum.
	salaryKeywordRe = regexp.MustCompile(`(?:月薪|年薪|時薪|薪資|薪水|年收|待遇)\s*(\d+)\s*` + unitPattern)
)

// extractSalary reads the expected pay range from normalized text.
func extractSalary(text string) Salary {
	salary := Salary{Unit: salaryUnit(text)}

	if groups, ok := findSalary(salaryRangeRe, text); ok {
		minUnit, maxUnit := groups[1], groups[3]
		// "40-60k" carries one unit for both bounds.
		if minUnit == "" {
			minUnit = maxUnit
		}
		salary.Min = normalizeSalary(groups[0], minUnit)
		salary.Max = normalizeSalary(groups[2], maxUnit)
	}

	if salary.Min == nil {
		for _, re := range salaryMinRes {
			if groups, ok := findSalary(re, text); ok {
				salary.Min = normalizeSalary(groups[0], groups[1])
				break
			}
		}
	}

	if salary.Max == nil {
		for _, re := range salaryMaxRes {
			if groups, ok := findSalary(re, text); ok {
				salary.Max = normalizeSalary(groups[0], groups[1])
				break
			}
		}
	}

	if !salary.IsSet() {
		if groups, ok := findSalary(salaryKeywordRe, text); ok {
			salary.Min = normalizeSalary(groups[0], groups[1])
		}
	}

	return salary
}

// findSalary returns the capture groups of the first match that is not a
// duration in years, such as "1-3年", "至少3年" or "at least 5 years".
func findSalary(re *regexp.Regexp, text string) ([]string, bool) {
	for _, loc := range re.FindAllStringSubmatchIndex(text, -1) {
		if followedByYears(text[loc[1]:]) {
			continue
		}

		groups := make([]string, 0, len(loc)/2-1)
		for i := 2; i < len(loc); i += 2 {
			if loc[i] < 0 {
				groups = append(groups, "")
				continue
			}
			groups = append(groups, text[loc[i]:loc[i+1]])
		}
		return groups, true
	}
	return nil, false
}

func followedByYears(rest string) bool {
	if next, _ := utf8.DecodeRuneInString(rest); next == '年' {
		return true
	}
	rest = strings.TrimLeft(rest, " +")
	return strings.HasPrefix(rest, "year") || strings.HasPrefix(rest, "yr")
}

func salaryUnit(text string) SalaryUnit {
	switch {
	case containsAny(text, "年薪", "年收", "萬/年", "yearly", "annual"):
		return SalaryYearly
	case containsAny(text, "時薪", "/小時", "hourly", "per hour"):
		return SalaryHourly
	default:
		return SalaryMonthly
	}
}

// normalizeSalary converts an amount and its unit to a plain integer. Bare
// amounts are scaled by magnitude: below 100 they are read as 萬, below 1000 as
// thousands. "50" therefore means 500,000 even when 50,000 was intended.
func normalizeSalary(value, unit string) *int {
	amount, err := strconv.Atoi(value)
	if err != nil {
		return nil
	}

	switch strings.ToLower(unit) {
	case "k", "千":
		amount *= 1000
	case "萬", "万":
		amount *= 10000
	default:
		switch {
		case amount < 100:
			amount *= 10000
		case amount < 1000:
			amount *= 1000
		}
	}

	return &amount
}
