package review

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"laborlens-backend/models"
)

// The plain-text report is a fixed-format artifact: downstream tooling reads
// it back, so rendering the same report twice must produce identical bytes,
// and violation blocks keep the same labeled shape the structurer parses.
const (
	reportTitle = "外籍勞工聘僱契約審查報告"

	reportIntro = "本報告針對所提供之外籍勞工聘僱契約進行全面性法規符合度審查。" +
		"經分析後，發現該契約在多項條款上與現行法規有出入，以下為詳細說明。"

	compliantSentence = "本合約符合現行法規"

	lawSectionTitle = "參考法規條文"

	// Display cap for law previews inside report.txt, tighter than the
	// preview stored in the JSON report.
	lawDisplayLen = 200
)

var sectionRule = strings.Repeat("=", 80)

// RenderReport serializes a report into the fixed plain-text layout.
func RenderReport(report models.ReviewReport) string {
	var b strings.Builder

	b.WriteString(reportTitle + "\n")
	b.WriteString(report.ReviewDate + "\n\n")

	b.WriteString("簡介\n")
	b.WriteString(reportIntro + "\n\n")

	b.WriteString("審查檔案: " + report.ContractPath + "\n")
	b.WriteString("契約字數: " + strconv.Itoa(report.ContractLength) + "\n\n")

	if len(report.Violations) == 0 {
		b.WriteString(compliantSentence + "。\n\n")
	} else {
		b.WriteString("發現事項\n\n")
		for _, v := range report.Violations {
			fmt.Fprintf(&b, "【違規項目 %d】\n", v.ID)
			fmt.Fprintf(&b, "1. 違法條款原文：%s\n", collapseLines(v.OriginalText))
			fmt.Fprintf(&b, "2. 違反法規：%s\n", strings.Join(v.ViolatedLaws, "；"))
			fmt.Fprintf(&b, "3. 違法原因：%s\n", collapseLines(v.Reason))
			fmt.Fprintf(&b, "4. 修改建議：%s\n\n", collapseLines(v.Suggestion))
		}
	}

	b.WriteString("結論\n")
	if len(report.Violations) == 0 {
		b.WriteString("綜上所述，本合約符合現行法規，未發現違規事項。\n")
	} else {
		fmt.Fprintf(&b, "綜上所述，該聘僱契約共發現 %d 項違規事項，整體風險等級為 %s，審查結果為 %s。",
			report.Summary.TotalViolations, report.Summary.SeverityLevel, report.Summary.OverallStatus)
		b.WriteString("建議雇主於簽訂契約前進行修正，以確保符合勞動法規並保障勞工權益。\n")
	}

	if len(report.RelatedLaws) > 0 {
		b.WriteString("\n" + sectionRule + "\n")
		b.WriteString(lawSectionTitle + "\n")
		b.WriteString(sectionRule + "\n\n")
		for i, law := range report.RelatedLaws {
			content := collapseLines(law.Content)
			if runeLen := len([]rune(content)); runeLen > lawDisplayLen {
				content = string([]rune(content)[:lawDisplayLen]) + "..."
			}
			fmt.Fprintf(&b, "%d.%s\n", i+1, content)
			fmt.Fprintf(&b, "   來源:  %s\n\n", law.SourceFile)
		}
	}

	return b.String()
}

// collapseLines flattens newlines so one field occupies exactly one line of
// the report, keeping the layout line-oriented and re-parsable.
func collapseLines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

var (
	contractFileRe = regexp.MustCompile(`(?m)^審查檔案: (.*)$`)
	contractLenRe  = regexp.MustCompile(`(?m)^契約字數: (\d+)$`)
	lawEntryRe     = regexp.MustCompile(`(?m)^(\d+)\.(.*)$`)
	lawSourceRe    = regexp.MustCompile(`(?m)^\s*來源:\s*(.*)$`)
)

// ParseReport reconstructs a report from its plain-text rendering. Law
// previews come back display-truncated and chunk ids are not recoverable
// from the text form; everything else round-trips. The summary is recomputed
// from the parsed violation count rather than trusted from the text.
func ParseReport(content string) (models.ReviewReport, error) {
	lines := strings.Split(content, "\n")
	if len(lines) < 2 || strings.TrimSpace(lines[0]) != reportTitle {
		return models.ReviewReport{}, fmt.Errorf("not a review report: missing title header")
	}

	report := models.ReviewReport{
		ReviewDate: strings.TrimSpace(lines[1]),
	}

	if m := contractFileRe.FindStringSubmatch(content); m != nil {
		report.ContractPath = strings.TrimSpace(m[1])
	}
	if m := contractLenRe.FindStringSubmatch(content); m != nil {
		n, err := strconv.Atoi(m[1])
		if err != nil {
			return models.ReviewReport{}, fmt.Errorf("bad contract length %q: %w", m[1], err)
		}
		report.ContractLength = n
	}

	body := content
	if i := strings.Index(content, sectionRule); i >= 0 {
		body = content[:i]
		report.RelatedLaws = parseLawSection(content[i:])
	}
	// The conclusion follows the last violation block; drop it so it does
	// not attach to the final suggestion field.
	if i := strings.Index(body, "\n結論\n"); i >= 0 {
		body = body[:i]
	}

	report.Violations = ParseViolations(body)
	report.Summary = models.ReviewSummary{
		TotalViolations: len(report.Violations),
		SeverityLevel:   models.ClassifySeverity(len(report.Violations)),
		OverallStatus:   models.ClassifyStatus(len(report.Violations)),
	}
	return report, nil
}

func parseLawSection(section string) []models.LawReference {
	entries := lawEntryRe.FindAllStringSubmatchIndex(section, -1)
	sources := lawSourceRe.FindAllStringSubmatchIndex(section, -1)

	var refs []models.LawReference
	for i, entry := range entries {
		ref := models.LawReference{
			Content: strings.TrimSpace(section[entry[4]:entry[5]]),
		}
		// Pair each numbered entry with the first source line after it.
		for _, src := range sources {
			if src[0] > entry[1] && (i+1 >= len(entries) || src[0] < entries[i+1][0]) {
				ref.SourceFile = strings.TrimSpace(section[src[2]:src[3]])
				break
			}
		}
		refs = append(refs, ref)
	}
	return refs
}
