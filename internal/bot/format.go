package bot

import (
	"fmt"
	"math"
	"strings"

	"github.com/spigell/jobguide/internal/condition"
	"github.com/spigell/jobguide/internal/listing"
	"github.com/spigell/jobguide/internal/scoring"
)

const (
	searchPromptText = "請輸入你想搜尋的職缺條件，例如：\n• Python工程師\n• 台北的前端工程師，月薪60k以上\n• 數據分析師 遠端工作"

	greetingText = "你好！歡迎使用職涯助手 🎯\n\n我可以幫你搜尋多個平台的職缺資訊，讓找工作更有效率！\n\n請選擇你需要的功能："

	helpText = `🤖 職涯助手使用說明

🔍 搜尋職缺：
   直接輸入想找的職位、地點、薪資與經驗

💾 我的收藏：
   查看已收藏的職缺清單
   輸入「收藏 <職缺編號>」加入收藏
   輸入「取消收藏 <職缺編號>」移除收藏

🏷️ 熱門標籤：
   瀏覽熱門搜尋關鍵字

🔄 重新開始：
   清除目前的搜尋條件`

	resetText          = "🔄 已清除搜尋條件，請重新告訴我你想找什麼工作！"
	searchFailedText   = "😢 搜尋職缺時發生問題，請稍後再試。"
	internalErrorText  = "😢 系統忙碌中，請稍後再試。"
	noResultsText      = "😢 沒有找到符合條件的職缺。\n試試放寬條件，或輸入「重新開始」換個方向。"
	favoritesOffText   = "收藏功能目前未開啟。"
	noFavoritesText    = "你還沒有收藏任何職缺唷！\n可以搜尋職缺後輸入「收藏 <職缺編號>」進行收藏 💾"
	suggestionsHeading = "💡 你也可以試試："
)

var fallbackTags = []string{"遠端工作", "外商公司", "新創公司", "高薪職缺", "Python開發", "前端工程師", "數據分析", "產品經理"}

var menuReplies = []condition.QuickReply{
	{Label: "🔍 搜尋職缺", Text: CommandSearch},
	{Label: "💾 我的收藏", Text: CommandFavorites},
	{Label: "🏷️ 熱門標籤", Text: CommandPopularTags},
	{Label: "ℹ️ 使用說明", Text: CommandHelp},
}

// FormatResult renders a search result as push messages: the ranked listings
// first, then the related searches as quick replies.
func FormatResult(r *SearchResult) []Reply {
	if r == nil || len(r.Results) == 0 {
		return []Reply{{Text: noResultsText, QuickReplies: menu()}}
	}

	var b strings.Builder
	b.WriteString(scoring.Summary(r.Condition, r.Total))
	for i, item := range r.Results {
		b.WriteString("\n\n")
		b.WriteString(formatListing(i+1, item))
	}

	replies := []Reply{{Text: b.String()}}
	if len(r.Suggestions) > 0 {
		quick := make([]condition.QuickReply, 0, len(r.Suggestions))
		for _, s := range r.Suggestions {
			quick = append(quick, condition.QuickReply{Label: s, Text: s})
		}
		replies = append(replies, Reply{Text: suggestionsHeading, QuickReplies: quick})
	}
	return replies
}

func formatListing(n int, item listing.Scored) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d. %s｜%s", n, item.Title, item.Company)

	var details []string
	if item.SalaryText != "" {
		details = append(details, "💰 "+item.SalaryText)
	}
	if item.Location != "" {
		details = append(details, "📍 "+item.Location)
	}
	if len(details) > 0 {
		b.WriteString("\n   " + strings.Join(details, "  "))
	}

	score := fmt.Sprintf("⭐ 相關度 %d", int(math.Round(item.Score)))
	if item.Platform != "" {
		score += " · " + item.Platform
	}
	b.WriteString("\n   " + score)

	if item.AI != nil && item.AI.Reason != "" {
		b.WriteString("\n   🤖 " + item.AI.Reason)
	}
	if item.ID != "" {
		b.WriteString("\n   🆔 " + item.ID)
	}
	if item.URL != "" {
		b.WriteString("\n   🔗 " + item.URL)
	}
	return b.String()
}

func formatFavorites(items []listing.Listing, missing int) string {
	var b strings.Builder
	fmt.Fprintf(&b, "💾 你收藏了 %d 個職缺：", len(items)+missing)
	for i, item := range items {
		fmt.Fprintf(&b, "\n\n%d. %s｜%s", i+1, item.Title, item.Company)
		if item.SalaryText != "" {
			b.WriteString("\n   💰 " + item.SalaryText)
		}
		b.WriteString("\n   🆔 " + item.ID)
		if item.URL != "" {
			b.WriteString("\n   🔗 " + item.URL)
		}
	}
	if missing > 0 {
		fmt.Fprintf(&b, "\n\n另有 %d 個職缺已下架。", missing)
	}
	return b.String()
}

func formatTags(tags []string) string {
	var b strings.Builder
	b.WriteString("🏷️ 熱門職缺標籤：\n")
	for _, tag := range tags {
		b.WriteString("\n• #" + tag)
	}
	return b.String()
}

func menu() []condition.QuickReply {
	return append([]condition.QuickReply(nil), menuReplies...)
}
