// Package condition turns free-text job queries into structured search
// conditions using keyword tables and salary patterns.
package condition

import (
	"regexp"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/width"
)

var thousandsRe = regexp.MustCompile(`(\d),(\d{3})`)

// Extractor parses free text into a SearchCondition. It holds only static
// tables and is safe for concurrent use.
type Extractor struct {
	tokenizer Tokenizer
	stopwords []string
}

// NewExtractor creates an extractor. A nil tokenizer falls back to ScriptTokenizer.
func NewExtractor(tokenizer Tokenizer) *Extractor {
	if tokenizer == nil {
		tokenizer = ScriptTokenizer{}
	}
	return &Extractor{
		tokenizer: tokenizer,
		stopwords: buildStopwords(),
	}
}

// Parse extracts every condition field from text. It never fails: text
// without usable information yields a condition whose MissingFields lists
// every required field.
func (e *Extractor) Parse(text string) SearchCondition {
	cond := Empty()
	cond.OriginalText = text

	normalized := Normalize(text)
	if strings.TrimSpace(normalized) == "" {
		return cond
	}

	cond.JobTitle = e.extractJobTitle(normalized)
	cond.Salary = extractSalary(normalized)
	cond.Locations = matchCategories(locationTable, normalized)
	cond.Industries = matchCategories(industryTable, normalized)
	cond.CompanyTypes = matchCategories(companyTypeTable, normalized)
	cond.Skills = matchSkills(normalized)
	cond.ExperienceLevel = extractExperience(normalized)
	cond.WorkType = extractWorkType(normalized)

	return cond
}

// Normalize folds full-width characters, drops thousands separators and
// lowercases text.
func Normalize(text string) string {
	folded := width.Fold.String(text)
	for thousandsRe.MatchString(folded) {
		folded = thousandsRe.ReplaceAllString(folded, "$1$2")
	}
	return strings.ToLower(folded)
}

func matchCategories(table []category, text string) []string {
	var found []string
	for _, c := range table {
		if containsAny(text, c.Synonyms...) {
			found = append(found, c.Name)
		}
	}
	return found
}

func matchSkills(text string) []string {
	var found []string
	for _, c := range skillTable {
		for _, skill := range c.Synonyms {
			if containsTerm(text, skill) {
				found = append(found, skill)
			}
		}
	}
	return found
}

func extractExperience(text string) ExperienceLevel {
	for _, level := range experienceTable {
		if containsAny(text, level.Synonyms...) {
			return level.Level
		}
	}
	return ExperienceUnspecified
}

func extractWorkType(text string) WorkType {
	for _, wt := range workTypeTable {
		if containsAny(text, wt.Synonyms...) {
			return wt.Type
		}
	}
	return WorkTypeUnspecified
}

func (e *Extractor) extractJobTitle(text string) string {
	if title, ok := lookupTitle(text); ok {
		return title
	}

	candidates := e.titleCandidates(text)

	for _, candidate := range candidates {
		if containsAny(candidate, positionSuffixes...) {
			return candidate
		}
	}

	for _, candidate := range candidates {
		if !isNumeric(candidate) && utf8.RuneCountInString(candidate) >= 2 {
			return candidate
		}
	}

	return ""
}

// lookupTitle returns the canonical title of the longest phrase found in text.
func lookupTitle(text string) (string, bool) {
	best, bestLen := "", 0
	for _, entry := range directTitles {
		if !containsTerm(text, entry.Phrase) {
			continue
		}
		if n := utf8.RuneCountInString(entry.Phrase); n > bestLen {
			best, bestLen = entry.Title, n
		}
	}
	return best, bestLen > 0
}

// titleCandidates tokenizes text and strips condition words, salary amounts
// and single characters from the tokens.
func (e *Extractor) titleCandidates(text string) []string {
	var candidates []string
	for _, token := range e.tokenizer.Tokenize(text) {
		for _, part := range strings.Fields(e.stripStopwords(token)) {
			if utf8.RuneCountInString(part) < 2 || isNumeric(part) {
				continue
			}
			if strings.ContainsAny(part, "k萬万千") && strings.ContainsFunc(part, unicode.IsDigit) {
				continue
			}
			candidates = append(candidates, part)
		}
	}
	return candidates
}

func (e *Extractor) stripStopwords(token string) string {
	for _, word := range e.stopwords {
		if strings.Contains(token, word) {
			token = strings.ReplaceAll(token, word, " ")
		}
	}
	return token
}

// buildStopwords merges the condition words with every synonym from the
// keyword tables, longest first so that longer words are removed whole.
func buildStopwords() []string {
	seen := make(map[string]struct{})
	var words []string
	add := func(list ...string) {
		for _, w := range list {
			if _, ok := seen[w]; ok || w == "" {
				continue
			}
			seen[w] = struct{}{}
			words = append(words, w)
		}
	}

	add(conditionWords...)
	for _, table := range [][]category{locationTable, companyTypeTable} {
		for _, c := range table {
			add(c.Synonyms...)
		}
	}
	for _, level := range experienceTable {
		add(level.Synonyms...)
	}
	for _, wt := range workTypeTable {
		add(wt.Synonyms...)
	}

	sort.SliceStable(words, func(i, j int) bool {
		return utf8.RuneCountInString(words[i]) > utf8.RuneCountInString(words[j])
	})
	return words
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if containsTerm(text, needle) {
			return true
		}
	}
	return false
}

// containsTerm reports whether needle occurs in text. An edge of needle that
// is a Latin letter must sit on a word boundary, so "pm" does not match "npm"
// while "python" still matches "python工程師".
func containsTerm(text, needle string) bool {
	if needle == "" {
		return false
	}
	first, _ := utf8.DecodeRuneInString(needle)
	last, _ := utf8.DecodeLastRuneInString(needle)

	for offset := 0; offset < len(text); {
		i := strings.Index(text[offset:], needle)
		if i < 0 {
			return false
		}
		start := offset + i
		end := start + len(needle)

		before, _ := utf8.DecodeLastRuneInString(text[:start])
		after, _ := utf8.DecodeRuneInString(text[end:])
		if !(isLatinLetter(first) && isLatinLetter(before)) && !(isLatinLetter(last) && isLatinLetter(after)) {
			return true
		}
		_, size := utf8.DecodeRuneInString(text[start:])
		offset = start + size
	}
	return false
}

func isLatinLetter(r rune) bool {
	return r < utf8.RuneSelf && unicode.IsLetter(r)
}

func isNumeric(s string) bool {
	for _, r := range s {
		if !unicode.IsDigit(r) {
			return false
		}
	}
	return s != ""
}
