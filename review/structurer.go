package review

import (
	"regexp"
	"strings"
	"time"

	"github.com/phuslu/log"

	"laborlens-backend/models"
)

// lawPreviewLen bounds the stored preview of a cited chunk, independent of
// the full text kept in the index.
const lawPreviewLen = 300

// The answer grammar: blocks headed by a violation-number marker, each
// containing four labeled fields in fixed order. Labels act as anchors;
// the value of a field is the text strictly between its label and the next
// anchor. A missing field yields an empty string, never a parse failure.
var (
	blockMarkerRe = regexp.MustCompile(`【違規項目\s*(\d+)】`)

	fieldLabelRes = [4]*regexp.Regexp{
		regexp.MustCompile(`(?:\d+[\.、])?\s*違法條款原文\s*[:：]`),
		regexp.MustCompile(`(?:\d+[\.、])?\s*違反法規\s*[:：]`),
		regexp.MustCompile(`(?:\d+[\.、])?\s*違法原因\s*[:：]`),
		regexp.MustCompile(`(?:\d+[\.、])?\s*修改建議\s*[:：]`),
	}
)

// ParseViolations extracts structured violations from a raw answer.
// Zero matched blocks is a valid outcome: the contract was found compliant
// for that review angle. Parsing the same text twice yields identical
// results.
func ParseViolations(answerText string) []models.Violation {
	markers := blockMarkerRe.FindAllStringIndex(answerText, -1)
	if len(markers) == 0 {
		log.Info().Msg("no violation blocks found in answer")
		return nil
	}

	violations := make([]models.Violation, 0, len(markers))
	for i, marker := range markers {
		blockStart := marker[1]
		blockEnd := len(answerText)
		if i+1 < len(markers) {
			blockEnd = markers[i+1][0]
		}

		violation := parseBlock(answerText[blockStart:blockEnd])
		violation.ID = len(violations) + 1
		violations = append(violations, violation)
	}
	return violations
}

// fieldAnchor marks where one recognized label sits inside a block.
type fieldAnchor struct {
	field      int
	labelStart int
	labelEnd   int
}

func parseBlock(block string) models.Violation {
	var anchors []fieldAnchor
	for field, re := range fieldLabelRes {
		if loc := re.FindStringIndex(block); loc != nil {
			anchors = append(anchors, fieldAnchor{field: field, labelStart: loc[0], labelEnd: loc[1]})
		}
	}
	// Anchors already appear in label order when the model follows the
	// format, but tolerate reordered output.
	for i := 1; i < len(anchors); i++ {
		for j := i; j > 0 && anchors[j].labelStart < anchors[j-1].labelStart; j-- {
			anchors[j], anchors[j-1] = anchors[j-1], anchors[j]
		}
	}

	var fields [4]string
	for i, anchor := range anchors {
		valueEnd := len(block)
		if i+1 < len(anchors) {
			valueEnd = anchors[i+1].labelStart
		}
		fields[anchor.field] = cleanFieldValue(block[anchor.labelEnd:valueEnd])
	}

	if missing := 4 - len(anchors); missing > 0 {
		log.Warn().Int("missing_fields", missing).Msg("violation block parsed with missing fields")
	}

	return models.Violation{
		OriginalText: truncateRunes(fields[0], models.MaxOriginalTextLen),
		ViolatedLaws: splitLaws(fields[1]),
		Reason:       truncateRunes(fields[2], models.MaxReasonLen),
		Suggestion:   truncateRunes(fields[3], models.MaxSuggestionLen),
	}
}

func cleanFieldValue(value string) string {
	value = strings.TrimSpace(value)
	value = strings.TrimSuffix(value, "---")
	return strings.TrimSpace(value)
}

// splitLaws breaks the violated-law field into individual citations on
// semicolon and newline boundaries, capped at MaxViolatedLaws. Excess
// citations are dropped, not an error.
func splitLaws(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.FieldsFunc(value, func(r rune) bool {
		return r == ';' || r == '；' || r == '\n'
	})
	laws := make([]string, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		laws = append(laws, part)
		if len(laws) == models.MaxViolatedLaws {
			break
		}
	}
	return laws
}

// AggregateLaws collects every cited source chunk across all answers into a
// deduplicated reference list. The dedup key is (source file, chunk id);
// the first occurrence wins. Previews are truncated to a fixed length.
func AggregateLaws(answers []models.RawAnswer) []models.LawReference {
	seen := make(map[string]struct{})
	var refs []models.LawReference
	for _, answer := range answers {
		for _, chunk := range answer.SourceChunks {
			key := chunk.SourceFile + ":" + chunk.ID.String()
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			refs = append(refs, models.LawReference{
				Content:    truncateRunes(chunk.Text, lawPreviewLen),
				SourceFile: chunk.SourceFile,
				ChunkID:    chunk.ID,
			})
		}
	}
	return refs
}

// BuildReport structures the raw answers of one review run into the final
// report. Failed answers contribute nothing; violations are renumbered
// sequentially across answers in prompt order.
func BuildReport(contractPath string, contractLength int, answers []models.RawAnswer, now time.Time) models.ReviewReport {
	var violations []models.Violation
	for _, answer := range answers {
		if answer.Failed() {
			continue
		}
		for _, v := range ParseViolations(answer.Text) {
			v.ID = len(violations) + 1
			violations = append(violations, v)
		}
	}

	return models.ReviewReport{
		ReviewDate:     now.Format("2006/01/02"),
		ContractPath:   contractPath,
		ContractLength: contractLength,
		Violations:     violations,
		RelatedLaws:    AggregateLaws(answers),
		Summary: models.ReviewSummary{
			TotalViolations: len(violations),
			SeverityLevel:   models.ClassifySeverity(len(violations)),
			OverallStatus:   models.ClassifyStatus(len(violations)),
		},
	}
}

func truncateRunes(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max])
}
