package condition

import (
	"slices"
	"strconv"
	"strings"
)

// QuickReply is a suggested answer offered next to a reply.
type QuickReply struct {
	Label string
	Text  string
}

var fieldQuestions = []struct {
	Field    string
	Question string
}{
	{FieldJobTitle, "🎯 你想找什麼職位？（例如：軟體工程師、產品經理、UI設計師）"},
	{FieldSalary, "💰 期望薪資範圍？（例如：月薪50k-80k、年薪100萬以上）"},
	{FieldLocation, "📍 希望在哪個地區工作？（例如：台北、新竹、遠端工作）"},
	{FieldExperience, "📊 你的工作經驗？（例如：新鮮人、3年經驗、資深）"},
}

// Quick replies are offered for one field at a time, in this order.
var quickReplyOrder = []string{FieldJobTitle, FieldLocation, FieldSalary, FieldExperience}

var quickReplies = map[string][]QuickReply{
	FieldJobTitle: {
		{"軟體工程師", "軟體工程師"},
		{"產品經理", "產品經理"},
		{"UI設計師", "UI設計師"},
		{"數據分析師", "數據分析師"},
		{"前端工程師", "前端工程師"},
		{"後端工程師", "後端工程師"},
	},
	FieldLocation: {
		{"台北", "台北"},
		{"新竹", "新竹"},
		{"台中", "台中"},
		{"高雄", "高雄"},
		{"遠端工作", "遠端工作"},
		{"不限地點", "不限地點"},
	},
	FieldSalary: {
		{"40k-60k", "月薪40k-60k"},
		{"60k-80k", "月薪60k-80k"},
		{"80k-100k", "月薪80k-100k"},
		{"100k以上", "月薪100k以上"},
		{"面議", "薪資面議"},
	},
	FieldExperience: {
		{"新鮮人", "新鮮人"},
		{"1-3年", "1-3年經驗"},
		{"3-5年", "3-5年經驗"},
		{"5年以上", "5年以上經驗"},
	},
}

var unitLabels = map[SalaryUnit]string{
	SalaryMonthly: "月薪",
	SalaryYearly:  "年薪",
	SalaryHourly:  "時薪",
}

var experienceLabels = map[ExperienceLevel]string{
	ExperienceEntry:  "新鮮人",
	ExperienceMid:    "中階",
	ExperienceSenior: "資深",
}

var workTypeLabels = map[WorkType]string{
	WorkTypeRemote: "遠端",
	WorkTypeOnsite: "現場",
	WorkTypeHybrid: "混合",
}

// Clarification asks for the fields cond is still missing. A complete
// condition gets the confirmation text instead.
func Clarification(cond SearchCondition) string {
	missing := cond.MissingFields()
	if len(missing) == 0 {
		return Confirmation(cond)
	}

	var b strings.Builder
	b.WriteString("我來幫你搜尋職缺！為了找到更符合你需求的工作，請提供以下資訊：\n\n")

	questions := make([]string, 0, len(missing))
	for _, q := range fieldQuestions {
		if slices.Contains(missing, q.Field) {
			questions = append(questions, q.Question)
		}
	}
	b.WriteString(strings.Join(questions, "\n"))

	b.WriteString("\n\n💡 你可以一次回答多個問題，例如：\n")
	b.WriteString("「我想找台北的Python工程師，月薪60k以上，有2年經驗」")
	return b.String()
}

// Confirmation lists the populated fields of cond.
func Confirmation(cond SearchCondition) string {
	var b strings.Builder
	b.WriteString("✅ 我了解你的需求了！\n\n")
	b.WriteString(Describe(cond))
	b.WriteString("\n🚀 正在為你搜尋相關職缺...")
	return b.String()
}

// Describe renders the populated fields of cond as a bullet list.
func Describe(cond SearchCondition) string {
	var b strings.Builder
	b.WriteString("🔍 搜尋條件：\n")

	if cond.JobTitle != "" {
		b.WriteString("• 職位：" + cond.JobTitle + "\n")
	}
	if cond.Salary.IsSet() {
		b.WriteString("• 薪資：" + SalaryText(cond.Salary) + "\n")
	}
	if len(cond.Locations) > 0 {
		b.WriteString("• 地點：" + strings.Join(cond.Locations, ", ") + "\n")
	}
	if len(cond.Industries) > 0 {
		b.WriteString("• 產業：" + strings.Join(cond.Industries, ", ") + "\n")
	}
	if label, ok := experienceLabels[cond.ExperienceLevel]; ok {
		b.WriteString("• 經驗：" + label + "\n")
	}
	if label, ok := workTypeLabels[cond.WorkType]; ok {
		b.WriteString("• 工作型態：" + label + "\n")
	}
	if len(cond.CompanyTypes) > 0 {
		b.WriteString("• 公司類型：" + strings.Join(cond.CompanyTypes, ", ") + "\n")
	}

	return b.String()
}

// SalaryText renders a salary range such as "月薪 60,000 以上".
func SalaryText(s Salary) string {
	label := unitLabels[s.Unit]
	if label == "" {
		label = unitLabels[SalaryMonthly]
	}

	switch {
	case s.Min != nil && s.Max != nil:
		return label + " " + groupThousands(*s.Min) + " - " + groupThousands(*s.Max)
	case s.Min != nil:
		return label + " " + groupThousands(*s.Min) + " 以上"
	case s.Max != nil:
		return label + " " + groupThousands(*s.Max) + " 以下"
	default:
		return ""
	}
}

// QuickReplies suggests answers for the first missing field. It returns nil
// when nothing is missing.
func QuickReplies(missing []string) []QuickReply {
	for _, field := range quickReplyOrder {
		if slices.Contains(missing, field) {
			return append([]QuickReply(nil), quickReplies[field]...)
		}
	}
	return nil
}

func groupThousands(n int) string {
	digits := strconv.Itoa(n)
	sign := ""
	if strings.HasPrefix(digits, "-") {
		sign, digits = "-", digits[1:]
	}

	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
