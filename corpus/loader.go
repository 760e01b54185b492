package corpus

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/phuslu/log"

	"laborlens-backend/models"
)

// ErrEmptyCorpus is returned when the corpus directory yields no documents.
// The index cannot be built from nothing, so this is fatal.
var ErrEmptyCorpus = errors.New("no legal documents found in corpus directory")

// maxFallbackLen bounds the string dump used for records that match no
// known shape, so no record is silently dropped.
const maxFallbackLen = 500

// Document is one normalized legal text with provenance, ready for chunking.
type Document struct {
	Text          string
	SourceFile    string
	LawName       *string
	ArticleNumber *string
	Type          models.ChunkType
}

// Loader reads structured legal-article records and free-text regulation
// documents from a directory tree.
type Loader struct {
	dir string
}

// NewLoader creates a loader rooted at dir.
func NewLoader(dir string) *Loader {
	return &Loader{dir: dir}
}

// Load reads every *.json and *.txt file under the corpus directory and
// returns the normalized documents. Malformed JSON files are skipped with a
// warning. An empty result is ErrEmptyCorpus.
func (l *Loader) Load() ([]Document, error) {
	var documents []Document

	jsonDocs, err := l.loadJSONFiles()
	if err != nil {
		return nil, err
	}
	documents = append(documents, jsonDocs...)

	textDocs, err := l.loadTextFiles()
	if err != nil {
		return nil, err
	}
	documents = append(documents, textDocs...)

	if len(documents) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, l.dir)
	}

	log.Info().Int("documents", len(documents)).Str("dir", l.dir).Msg("legal corpus loaded")
	return documents, nil
}

func (l *Loader) loadJSONFiles() ([]Document, error) {
	entries, err := os.ReadDir(l.dir)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrEmptyCorpus, l.dir)
		}
		return nil, fmt.Errorf("failed to read corpus directory: %w", err)
	}

	var documents []Document
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}

		path := filepath.Join(l.dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping unreadable JSON file")
			continue
		}

		docs, err := parseJSONRecords(data, entry.Name())
		if err != nil {
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping malformed JSON file")
			continue
		}
		documents = append(documents, docs...)
	}
	return documents, nil
}

// parseJSONRecords accepts either a list of article records or a mapping
// from law name to a list of records.
func parseJSONRecords(data []byte, sourceFile string) ([]Document, error) {
	var records []map[string]any
	if err := json.Unmarshal(data, &records); err == nil {
		docs := make([]Document, 0, len(records))
		for _, record := range records {
			docs = append(docs, normalizeRecord(record, sourceFile, nil))
		}
		return docs, nil
	}

	var grouped map[string][]map[string]any
	if err := json.Unmarshal(data, &grouped); err != nil {
		return nil, fmt.Errorf("neither a record list nor a law-name mapping: %w", err)
	}

	var docs []Document
	for lawName, records := range grouped {
		name := lawName
		for _, record := range records {
			docs = append(docs, normalizeRecord(record, sourceFile, &name))
		}
	}
	return docs, nil
}

// normalizeRecord renders one article record into a uniform textual
// representation. Priority: instruction-tuned shape, then titled citation
// block, then a truncated string dump.
func normalizeRecord(record map[string]any, sourceFile string, groupLaw *string) Document {
	doc := Document{
		SourceFile: sourceFile,
		LawName:    groupLaw,
		Type:       models.ChunkTypeStructured,
	}

	instruction, hasInstruction := stringField(record, "instruction")
	input, hasInput := stringField(record, "input")
	if hasInstruction && hasInput {
		parts := []string{
			"【問題】" + instruction,
			"【法規依據】" + input,
		}
		if output, ok := stringField(record, "output"); ok {
			parts = append(parts, "【說明】"+output)
		}
		doc.Text = strings.Join(parts, "\n")
		return doc
	}

	var parts []string
	if lawName, ok := stringField(record, "法規名稱"); ok {
		parts = append(parts, "【"+lawName+"】")
		doc.LawName = &lawName
	}
	if article, ok := stringField(record, "條號"); ok {
		parts = append(parts, "第 "+article+" 條")
		doc.ArticleNumber = &article
	}
	if content, ok := stringField(record, "條文內容"); ok {
		parts = append(parts, content)
	}
	if explanation, ok := stringField(record, "說明"); ok {
		parts = append(parts, "說明："+explanation)
	}
	if len(parts) > 0 {
		doc.Text = strings.Join(parts, "\n")
		return doc
	}

	text := fmt.Sprintf("%v", record)
	if len([]rune(text)) > maxFallbackLen {
		text = string([]rune(text)[:maxFallbackLen]) + "..."
	}
	doc.Text = text
	return doc
}

func stringField(record map[string]any, key string) (string, bool) {
	v, ok := record[key]
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	if !ok || s == "" {
		return "", false
	}
	return s, true
}

func (l *Loader) loadTextFiles() ([]Document, error) {
	var documents []Document
	err := filepath.WalkDir(l.dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil
			}
			return err
		}
		if d.IsDir() || !strings.HasSuffix(d.Name(), ".txt") {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			log.Warn().Err(err).Str("file", d.Name()).Msg("skipping unreadable text file")
			return nil
		}
		documents = append(documents, Document{
			Text:       string(data),
			SourceFile: d.Name(),
			Type:       models.ChunkTypeFreeText,
		})
		return nil
	})
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to walk corpus directory: %w", err)
	}
	return documents, nil
}
