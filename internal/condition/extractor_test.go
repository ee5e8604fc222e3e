package condition

import (
	"reflect"
	"slices"
	"testing"
)

func intPtr(v int) *int { return &v }

func TestParseFullQuery(t *testing.T) {
	cond := NewExtractor(nil).Parse("我想找台北的Python工程師，月薪60k以上")

	if cond.JobTitle != "Python工程師" {
		t.Fatalf("expected job title Python工程師, got %q", cond.JobTitle)
	}
	if !reflect.DeepEqual(cond.Locations, []string{"台北"}) {
		t.Fatalf("unexpected locations: %v", cond.Locations)
	}
	if cond.Salary.Min == nil || *cond.Salary.Min != 60000 {
		t.Fatalf("expected salary min 60000, got %v", cond.Salary.Min)
	}
	if cond.Salary.Max != nil {
		t.Fatalf("expected no salary max, got %d", *cond.Salary.Max)
	}
	if cond.Salary.Unit != SalaryMonthly {
		t.Fatalf("expected monthly salary, got %q", cond.Salary.Unit)
	}
	if !slices.Contains(cond.Skills, "python") {
		t.Fatalf("expected python skill, got %v", cond.Skills)
	}

	missing := cond.MissingFields()
	if !reflect.DeepEqual(missing, []string{FieldExperience}) {
		t.Fatalf("expected only experience missing, got %v", missing)
	}
}

func TestParseTitleOnly(t *testing.T) {
	cond := NewExtractor(nil).Parse("軟體工程師")

	if cond.JobTitle != "軟體工程師" {
		t.Fatalf("expected job title 軟體工程師, got %q", cond.JobTitle)
	}

	want := []string{FieldSalary, FieldLocation, FieldExperience}
	if got := cond.MissingFields(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected missing %v, got %v", want, got)
	}
	if cond.IsComplete() {
		t.Fatalf("expected incomplete condition")
	}
}

func TestParseEmptyInput(t *testing.T) {
	for _, input := range []string{"", "   ", "123", "？！"} {
		cond := NewExtractor(nil).Parse(input)
		if cond.JobTitle != "" {
			t.Fatalf("%q: expected empty job title, got %q", input, cond.JobTitle)
		}
		want := []string{FieldJobTitle, FieldSalary, FieldLocation, FieldExperience}
		if got := cond.MissingFields(); !reflect.DeepEqual(got, want) {
			t.Fatalf("%q: expected missing %v, got %v", input, want, got)
		}
		if cond.OriginalText != input {
			t.Fatalf("%q: original text not kept: %q", input, cond.OriginalText)
		}
	}
}

func TestParseIsDeterministic(t *testing.T) {
	extractor := NewExtractor(nil)
	inputs := []string{
		"我想找台北的Python工程師，月薪60k以上",
		"新竹 資深後端工程師 年薪150萬 外商 遠端",
		"hello",
		"1-3年經驗 行銷專員 高雄",
	}

	for _, input := range inputs {
		first := extractor.Parse(input)
		second := extractor.Parse(input)
		if !reflect.DeepEqual(first, second) {
			t.Fatalf("%q: parse not deterministic: %+v vs %+v", input, first, second)
		}
	}
}

func TestParseCompleteCondition(t *testing.T) {
	cond := NewExtractor(nil).Parse("新竹 資深後端工程師 年薪150萬以上 外商 遠端")

	if cond.JobTitle != "後端工程師" {
		t.Fatalf("unexpected job title %q", cond.JobTitle)
	}
	if cond.ExperienceLevel != ExperienceSenior {
		t.Fatalf("expected senior, got %q", cond.ExperienceLevel)
	}
	if cond.Salary.Unit != SalaryYearly {
		t.Fatalf("expected yearly salary, got %q", cond.Salary.Unit)
	}
	if cond.Salary.Min == nil || *cond.Salary.Min != 1500000 {
		t.Fatalf("expected salary min 1500000, got %v", cond.Salary.Min)
	}
	if cond.WorkType != WorkTypeRemote {
		t.Fatalf("expected remote work type, got %q", cond.WorkType)
	}
	if !reflect.DeepEqual(cond.CompanyTypes, []string{"外商"}) {
		t.Fatalf("unexpected company types: %v", cond.CompanyTypes)
	}
	if !reflect.DeepEqual(cond.Locations, []string{"新竹", "遠端"}) {
		t.Fatalf("unexpected locations: %v", cond.Locations)
	}
	if !cond.IsComplete() {
		t.Fatalf("expected complete condition, missing %v", cond.MissingFields())
	}
}

func TestParseMultipleLocations(t *testing.T) {
	cond := NewExtractor(nil).Parse("台北或台中的數據分析師")
	if !reflect.DeepEqual(cond.Locations, []string{"台北", "台中"}) {
		t.Fatalf("unexpected locations: %v", cond.Locations)
	}
	if cond.JobTitle != "數據分析師" {
		t.Fatalf("unexpected job title %q", cond.JobTitle)
	}
}

func TestParseJobTitle(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		expect string
	}{
		{name: "direct phrase", input: "想當UI設計師", expect: "UI設計師"},
		{name: "longest phrase wins", input: "前端工程師 javascript工程師", expect: "JavaScript工程師"},
		{name: "english phrase", input: "Data Scientist in Taipei", expect: "資料科學家"},
		{name: "suffix fallback", input: "我想找區塊鏈工程師", expect: "區塊鏈工程師"},
		{name: "suffix fallback strips conditions", input: "台中 區塊鏈工程師 月薪50k", expect: "區塊鏈工程師"},
		{name: "first token fallback", input: "咖啡師", expect: "咖啡師"},
		{name: "salary only", input: "月薪60k以上", expect: ""},
	}

	extractor := NewExtractor(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := extractor.Parse(tt.input).JobTitle; got != tt.expect {
				t.Fatalf("expected %q, got %q", tt.expect, got)
			}
		})
	}
}

func TestParseExperience(t *testing.T) {
	tests := []struct {
		input  string
		expect ExperienceLevel
	}{
		{input: "新鮮人 行銷專員", expect: ExperienceEntry},
		{input: "1-3年經驗", expect: ExperienceEntry},
		{input: "3-5年經驗", expect: ExperienceMid},
		{input: "5年以上經驗", expect: ExperienceSenior},
		{input: "Senior Engineer", expect: ExperienceSenior},
		{input: "行銷專員", expect: ExperienceUnspecified},
	}

	extractor := NewExtractor(nil)
	for _, tt := range tests {
		if got := extractor.Parse(tt.input).ExperienceLevel; got != tt.expect {
			t.Fatalf("%q: expected %q, got %q", tt.input, tt.expect, got)
		}
	}
}

func TestFormatSearchConditionsNormalisesSalary(t *testing.T) {
	extractor := NewExtractor(nil)
	inputs := []string{
		"台北 Python工程師 資深 月薪60k以上",
		"台北 Python工程師 資深 月薪60,000以上",
		"台北 Python工程師 資深 月薪6萬以上",
		"台北 Python工程師 資深 月薪６０ｋ以上",
	}

	var first Query
	for i, input := range inputs {
		q := FormatSearchConditions(extractor.Parse(input))
		if q.SalaryMin == nil || *q.SalaryMin != 60000 {
			t.Fatalf("%q: expected salary min 60000, got %v", input, q.SalaryMin)
		}
		if i == 0 {
			first = q
			continue
		}
		if !reflect.DeepEqual(first, q) {
			t.Fatalf("%q: expected %+v, got %+v", input, first, q)
		}
	}

	if first.Keyword != "Python工程師" || first.Location != "台北" || first.Experience != ExperienceSenior {
		t.Fatalf("unexpected query: %+v", first)
	}
}

func TestFormatSearchConditionsKeepsFirstLocation(t *testing.T) {
	cond := Empty()
	cond.JobTitle = "產品經理"
	cond.Locations = []string{"台中", "台北"}
	cond.Industries = []string{"科技業"}

	q := FormatSearchConditions(cond)
	if q.Location != "台中" {
		t.Fatalf("expected first location, got %q", q.Location)
	}

	q.Industries[0] = "changed"
	if cond.Industries[0] != "科技業" {
		t.Fatalf("query must not share slices with the condition")
	}
}

func TestParseEnglishYearsLeaveSalaryMissing(t *testing.T) {
	cond := NewExtractor(nil).Parse("python engineer 5+ years 台北")

	if cond.Salary.IsSet() {
		t.Fatalf("expected no salary, got min=%v max=%v", deref(cond.Salary.Min), deref(cond.Salary.Max))
	}
	if !slices.Contains(cond.MissingFields(), FieldSalary) {
		t.Fatalf("expected salary to be missing, got %v", cond.MissingFields())
	}
}

func TestParseShortLatinTermsNeedWordBoundaries(t *testing.T) {
	extractor := NewExtractor(nil)

	tests := []struct {
		input      string
		title      string
		notTitle   string
		experience ExperienceLevel
		industries []string
	}{
		{input: "three years 台北", notTitle: "人資專員", experience: ExperienceUnspecified},
		{input: "npm 套件維護", notTitle: "產品經理", experience: ExperienceUnspecified},
		{input: "midnight shift", experience: ExperienceUnspecified},
		{input: "email 行銷", experience: ExperienceUnspecified, industries: []string{"媒體業"}},
		{input: "PM 台北", title: "產品經理", experience: ExperienceUnspecified},
		{input: "HR專員", title: "人資專員", experience: ExperienceUnspecified},
		{input: "mid-level engineer", experience: ExperienceMid},
		{input: "AI 新創", experience: ExperienceUnspecified, industries: []string{"科技業", "新創"}},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			cond := extractor.Parse(tt.input)
			if tt.title != "" && cond.JobTitle != tt.title {
				t.Fatalf("expected title %q, got %q", tt.title, cond.JobTitle)
			}
			if tt.notTitle != "" && cond.JobTitle == tt.notTitle {
				t.Fatalf("title %q must not be read from %q", tt.notTitle, tt.input)
			}
			if cond.ExperienceLevel != tt.experience {
				t.Fatalf("expected experience %q, got %q", tt.experience, cond.ExperienceLevel)
			}
			if tt.industries != nil && !reflect.DeepEqual(cond.Industries, tt.industries) {
				t.Fatalf("expected industries %v, got %v", tt.industries, cond.Industries)
			}
		})
	}
}

func TestParseSkillsRespectWordBoundaries(t *testing.T) {
	cond := NewExtractor(nil).Parse("javascript 前端工程師")
	if slices.Contains(cond.Skills, "java") || !slices.Contains(cond.Skills, "javascript") {
		t.Fatalf("unexpected skills %v", cond.Skills)
	}
}
