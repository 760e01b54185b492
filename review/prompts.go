package review

import (
	"fmt"
	"strings"
)

// MaxPrompts bounds the number of review angles per request.
const MaxPrompts = 5

// ReviewPrompt is a fixed natural-language review template, identified by
// its ordinal index. The contract text is substituted in at render time.
// Immutable once configured.
type ReviewPrompt struct {
	Index    int
	Template string
}

// Render substitutes the contract text into the template.
func (p ReviewPrompt) Render(contractText string) string {
	return fmt.Sprintf(p.Template, contractText)
}

// defaultReviewTemplate is the legality review angle: find every illegal or
// clearly unreasonable clause and report each one in the four-step block
// format the structurer parses.
const defaultReviewTemplate = `角色設定：
你是一位精通台灣《勞動基準法》與《就業服務法》的專業律師，專門負責審查外籍勞工聘僱契約。

任務目標：
請仔細審查以下契約內容，找出所有「違法」或「顯著不合理」的條款。針對每一個違規點，必須嚴格依照下列四個步驟進行分析。

待審查契約：
%s

請依照以下格式輸出（若無違法項目，請回答「本合約符合現行法規」）：

---
【違規項目 1】
1. 違法條款原文：(請直接複製合約中違法的那一句話)
2. 違反法規：(請精確指出法條，例如：違反《就業服務法》第57條第8款)
3. 違法原因：(請簡述為何違法，例如：雇主不得非法扣留受僱人之護照或居留證)
4. 修改建議：(請撰寫一段合法的替代條文，或註明「應直接刪除」)

【違規項目 2】
1. 違法條款原文：...
2. 違反法規：...
3. 違法原因：...
4. 修改建議：...
---

注意事項：
1. 請特別檢查「扣留證件」、「指派許可外工作」、「薪資低於基本工資(NT$28,590)」、「超時工作」及「不法扣款」等項目。
2. 法律引用必須精確，不要模糊帶過。
3. 修改建議必須符合台灣現行法律標準。`

// DefaultPrompts returns the built-in review prompt set.
func DefaultPrompts() []ReviewPrompt {
	return []ReviewPrompt{
		{Index: 1, Template: defaultReviewTemplate},
	}
}

// TruncateContract cuts contract text to at most maxChars runes. Truncation
// is a plain prefix cut so identical input always truncates identically.
func TruncateContract(text string, maxChars int) string {
	if maxChars <= 0 {
		return text
	}
	runes := []rune(text)
	if len(runes) <= maxChars {
		return text
	}
	return string(runes[:maxChars])
}

// augmentPrompt prepends the retrieved law text as context ahead of the
// rendered question, mirroring a stuffed retrieval chain.
func augmentPrompt(contextTexts []string, question string) string {
	var builder strings.Builder
	builder.WriteString("請根據以下法規內容回答問題。若法規內容不足以回答，請依據台灣現行勞動法規的一般原則回答。\n\n")
	builder.WriteString("法規內容：\n")
	for _, text := range contextTexts {
		builder.WriteString(text)
		builder.WriteString("\n\n")
	}
	builder.WriteString("問題：\n")
	builder.WriteString(question)
	return builder.String()
}
