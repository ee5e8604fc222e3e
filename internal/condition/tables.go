package condition

// category maps a canonical value to the surface forms that select it.
// Synonyms are stored lowercased because matching runs on lowercased text.
type category struct {
	Name     string
	Synonyms []string
}

var locationTable = []category{
	{"台北", []string{"台北", "臺北", "信義", "大安", "中山", "松山", "內湖", "南港", "士林", "北投"}},
	{"新北", []string{"新北", "板橋", "新莊", "中和", "永和", "土城", "三重", "蘆洲", "汐止"}},
	{"桃園", []string{"桃園", "中壢", "平鎮", "八德", "楊梅", "龜山"}},
	{"新竹", []string{"新竹", "竹北", "湖口", "關埔", "科學園區"}},
	{"台中", []string{"台中", "臺中", "西屯", "南屯", "北屯", "大里", "太平", "烏日"}},
	{"台南", []string{"台南", "臺南", "永康", "仁德", "歸仁", "關廟"}},
	{"高雄", []string{"高雄", "鳳山", "三民", "左營", "楠梓", "岡山"}},
	{"遠端", []string{"遠端", "remote", "在家", "居家", "wfh", "彈性"}},
}

var industryTable = []category{
	{"科技業", []string{"軟體", "科技", "it", "資訊", "網路", "電商", "遊戲", "ai", "人工智慧"}},
	{"金融業", []string{"銀行", "金融", "保險", "證券", "投資", "理財", "fintech"}},
	{"製造業", []string{"製造", "工廠", "生產", "品管", "工程", "機械"}},
	{"服務業", []string{"服務", "餐飲", "零售", "旅遊", "物流", "客服"}},
	{"醫療業", []string{"醫療", "醫院", "診所", "護理", "藥局", "生技"}},
	{"教育業", []string{"教育", "學校", "補習", "培訓", "講師"}},
	{"媒體業", []string{"媒體", "廣告", "行銷", "公關", "新聞", "出版"}},
	{"新創", []string{"新創", "startup", "創業", "團隊"}},
}

var companyTypeTable = []category{
	{"外商", []string{"外商", "外資", "foreign", "international"}},
	{"新創", []string{"新創", "startup", "創業"}},
	{"上市", []string{"上市", "上櫃", "大公司", "知名企業"}},
	{"傳統產業", []string{"傳統", "老牌", "歷史悠久"}},
}

// Experience levels are checked in order; the first level with a hit wins.
var experienceTable = []struct {
	Level    ExperienceLevel
	Synonyms []string
}{
	{ExperienceEntry, []string{"新鮮人", "應屆", "無經驗", "實習", "初級", "junior", "1-3年", "1年"}},
	{ExperienceMid, []string{"3-5年", "2年", "3年", "4年", "中級", "mid", "有經驗"}},
	{ExperienceSenior, []string{"5年以上", "5年", "資深", "senior", "主管", "經理"}},
}

var workTypeTable = []struct {
	Type     WorkType
	Synonyms []string
}{
	{WorkTypeRemote, []string{"遠端", "remote", "在家", "居家", "wfh"}},
	{WorkTypeOnsite, []string{"現場", "辦公室", "office", "on-site", "onsite"}},
	{WorkTypeHybrid, []string{"混合", "hybrid", "彈性"}},
}

var skillTable = []category{
	{"programming", []string{"python", "java", "javascript", "react", "vue", "angular", "node.js", "php", "c++", "c#", "golang", "rust"}},
	{"data", []string{"sql", "mysql", "postgresql", "mongodb", "redis", "elasticsearch", "pandas", "numpy", "tensorflow", "pytorch"}},
	{"design", []string{"photoshop", "illustrator", "figma", "sketch", "wireframe", "prototype"}},
	{"marketing", []string{"google analytics", "facebook ads", "seo", "sem", "content marketing", "social media"}},
	{"management", []string{"project management", "agile", "scrum", "leadership", "team management"}},
}

// titleEntry maps a lowercased phrase to the canonical job title it stands for.
type titleEntry struct {
	Phrase string
	Title  string
}

var directTitles = []titleEntry{
	{"產品經理", "產品經理"},
	{"專案經理", "專案經理"},
	{"產品manager", "產品經理"},
	{"pm", "產品經理"},
	{"product manager", "產品經理"},
	{"project manager", "專案經理"},

	{"ui設計師", "UI設計師"},
	{"ux設計師", "UX設計師"},
	{"ui/ux", "UI/UX設計師"},
	{"視覺設計師", "視覺設計師"},
	{"平面設計師", "平面設計師"},
	{"網頁設計師", "網頁設計師"},

	{"軟體工程師", "軟體工程師"},
	{"前端工程師", "前端工程師"},
	{"後端工程師", "後端工程師"},
	{"全端工程師", "全端工程師"},
	{"python工程師", "Python工程師"},
	{"java工程師", "Java工程師"},
	{"javascript工程師", "JavaScript工程師"},

	{"數據分析師", "數據分析師"},
	{"資料分析師", "數據分析師"},
	{"資料科學家", "資料科學家"},
	{"data analyst", "數據分析師"},
	{"data scientist", "資料科學家"},

	{"營運專員", "營運專員"},
	{"行銷專員", "行銷專員"},
	{"業務代表", "業務代表"},
	{"客服專員", "客服專員"},

	{"會計師", "會計師"},
	{"財務專員", "財務專員"},
	{"稽核", "稽核"},

	{"人資專員", "人資專員"},
	{"人力資源", "人資專員"},
	{"hr", "人資專員"},

	{"法務", "法務專員"},
	{"律師", "律師"},
	{"護理師", "護理師"},
	{"醫師", "醫師"},
	{"老師", "老師"},
	{"講師", "講師"},
	{"翻譯", "翻譯"},
	{"編輯", "編輯"},
	{"記者", "記者"},

	{"系統管理員", "系統管理員"},
	{"devops", "DevOps工程師"},
	{"測試工程師", "測試工程師"},
	{"品質保證", "QA工程師"},
	{"資安工程師", "資安工程師"},

	{"銷售", "業務代表"},
	{"業務", "業務代表"},
	{"sales", "業務代表"},

	{"實習生", "實習生"},
	{"新鮮人", "新鮮人職缺"},
	{"應屆畢業生", "新鮮人職缺"},
}

var positionSuffixes = []string{
	"經理", "工程師", "設計師", "分析師", "專員", "主管", "總監", "助理", "實習",
	"manager", "engineer", "designer", "analyst", "specialist", "developer",
}

// conditionWords never form a job title on their own.
var conditionWords = []string{
	"薪資", "薪水", "月薪", "年薪", "時薪", "年收", "待遇", "地點", "年經驗", "經驗",
	"以上", "以下", "左右", "大約", "至少", "希望", "想要", "工作", "職缺", "面議",
	"我想", "我要", "找", "的", "我", "想", "要", "有", "年", "在", "和", "或", "是",
	"外商", "新創", "上市", "遠端", "現場", "混合", "不限", "請", "幫我", "一個",
}

// LocationSynonyms returns the surface forms of a canonical location,
// including the name itself.
func LocationSynonyms(name string) []string {
	return synonymsOf(locationTable, name)
}

// CompanyTypeSynonyms returns the surface forms of a canonical company type,
// including the name itself.
func CompanyTypeSynonyms(name string) []string {
	return synonymsOf(companyTypeTable, name)
}

func synonymsOf(table []category, name string) []string {
	for _, c := range table {
		if c.Name == name {
			return append([]string{c.Name}, c.Synonyms...)
		}
	}
	if name == "" {
		return nil
	}
	return []string{name}
}

// SkillNames lists every known skill keyword in table order.
func SkillNames() []string {
	var names []string
	for _, c := range skillTable {
		names = append(names, c.Synonyms...)
	}
	return names
}
