package scoring

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/spigell/jobguide/internal/condition"
)

var listingAmountRe = regexp.MustCompile(`\d+(?:\.\d+)?`)

// ListingSalary reads the first amount from a listing's salary text and
// expresses it in unit. "面議" and text without digits yield false.
func ListingSalary(text string, unit condition.SalaryUnit) (int, bool) {
	normalized := condition.Normalize(text)
	if strings.TrimSpace(normalized) == "" || strings.Contains(normalized, "面議") {
		return 0, false
	}

	match := listingAmountRe.FindString(normalized)
	if match == "" {
		return 0, false
	}

	amount, err := strconv.ParseFloat(match, 64)
	if err != nil {
		return 0, false
	}

	switch {
	case strings.Contains(normalized, "萬") || strings.Contains(normalized, "万"):
		amount *= 10000
	case strings.Contains(normalized, "k"):
		amount *= 1000
	}

	yearly := strings.Contains(normalized, "年薪") || strings.Contains(normalized, "/年")
	switch {
	case yearly && unit == condition.SalaryMonthly:
		amount /= 12
	case !yearly && unit == condition.SalaryYearly:
		amount *= 12
	}

	return int(math.Round(amount)), true
}
