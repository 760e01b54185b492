package review

import (
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"laborlens-backend/models"
)

func sampleReport() models.ReviewReport {
	return models.ReviewReport{
		ReviewDate:     "2026/08/29",
		ContractPath:   "contracts/contract-1700000000.txt",
		ContractLength: 2048,
		Violations: []models.Violation{
			{
				ID:           1,
				OriginalText: "乙方之護照由甲方保管。",
				ViolatedLaws: []string{"就業服務法第57條第8款", "勞動基準法第26條"},
				Reason:       "雇主不得扣留受僱人之護照或居留證。",
				Suggestion:   "應直接刪除。",
			},
			{
				ID:           2,
				OriginalText: "乙方每月工資為新臺幣25,000元。",
				ViolatedLaws: []string{"勞動基準法第21條"},
				Reason:       "工資低於基本工資標準。",
				Suggestion:   "每月工資不得低於新臺幣28,590元。",
			},
		},
		RelatedLaws: []models.LawReference{
			{Content: "雇主不得扣留受僱人之護照、居留證或財物。", SourceFile: "laws.json", ChunkID: uuid.New()},
			{Content: "工資由勞雇雙方議定之，但不得低於基本工資。", SourceFile: "laws.json", ChunkID: uuid.New()},
		},
		Summary: models.ReviewSummary{
			TotalViolations: 2,
			SeverityLevel:   models.SeverityMedium,
			OverallStatus:   models.StatusNonCompliant,
		},
	}
}

func TestRenderReportIsDeterministic(t *testing.T) {
	report := sampleReport()
	assert.Equal(t, RenderReport(report), RenderReport(report))
}

func TestRenderReportLayout(t *testing.T) {
	text := RenderReport(sampleReport())

	lines := strings.Split(text, "\n")
	require.Greater(t, len(lines), 5)
	assert.Equal(t, "外籍勞工聘僱契約審查報告", lines[0])
	assert.Equal(t, "2026/08/29", lines[1])

	assert.Contains(t, text, "審查檔案: contracts/contract-1700000000.txt")
	assert.Contains(t, text, "契約字數: 2048")
	assert.Contains(t, text, "【違規項目 1】")
	assert.Contains(t, text, "【違規項目 2】")
	assert.Contains(t, text, "2. 違反法規：就業服務法第57條第8款；勞動基準法第26條")
	assert.Contains(t, text, strings.Repeat("=", 80))
	assert.Contains(t, text, "參考法規條文")
	assert.Contains(t, text, "來源:  laws.json")
}

func TestReportRoundTrip(t *testing.T) {
	original := sampleReport()

	parsed, err := ParseReport(RenderReport(original))
	require.NoError(t, err)

	assert.Equal(t, original.ReviewDate, parsed.ReviewDate)
	assert.Equal(t, original.ContractPath, parsed.ContractPath)
	assert.Equal(t, original.ContractLength, parsed.ContractLength)

	require.Len(t, parsed.Violations, 2)
	for i, violation := range parsed.Violations {
		assert.Equal(t, original.Violations[i].ID, violation.ID)
		assert.Equal(t, original.Violations[i].OriginalText, violation.OriginalText)
		assert.Equal(t, original.Violations[i].ViolatedLaws, violation.ViolatedLaws)
		assert.Equal(t, original.Violations[i].Reason, violation.Reason)
		assert.Equal(t, original.Violations[i].Suggestion, violation.Suggestion)
	}

	require.Len(t, parsed.RelatedLaws, 2)
	for i, law := range parsed.RelatedLaws {
		assert.Equal(t, original.RelatedLaws[i].Content, law.Content)
		assert.Equal(t, original.RelatedLaws[i].SourceFile, law.SourceFile)
	}

	assert.Equal(t, original.Summary, parsed.Summary)
}

func TestRenderReportCompliant(t *testing.T) {
	report := models.ReviewReport{
		ReviewDate:     "2026/08/29",
		ContractPath:   "contracts/contract-2.txt",
		ContractLength: 800,
		Summary: models.ReviewSummary{
			TotalViolations: 0,
			SeverityLevel:   models.SeverityLow,
			OverallStatus:   models.StatusCompliant,
		},
	}

	text := RenderReport(report)
	assert.Contains(t, text, "本合約符合現行法規")
	assert.NotContains(t, text, "【違規項目")

	parsed, err := ParseReport(text)
	require.NoError(t, err)
	assert.Empty(t, parsed.Violations)
	assert.Equal(t, models.StatusCompliant, parsed.Summary.OverallStatus)
}

func TestParseReportRejectsForeignText(t *testing.T) {
	_, err := ParseReport("這不是審查報告")
	assert.Error(t, err)
}

func TestRenderReportTruncatesLawPreview(t *testing.T) {
	report := sampleReport()
	report.RelatedLaws = []models.LawReference{
		{Content: strings.Repeat("法", 300), SourceFile: "laws.json", ChunkID: uuid.New()},
	}

	text := RenderReport(report)
	assert.Contains(t, text, strings.Repeat("法", 200)+"...")
	assert.NotContains(t, text, strings.Repeat("法", 201))
}
