package corpus

import (
	"strings"

	"github.com/google/uuid"

	"laborlens-backend/models"
)

// DefaultSeparators orders split points from coarsest to finest: blank line,
// newline, sentence-ending punctuation, semicolon, comma, space, and finally
// individual characters. The chunker backs off to a finer separator only
// when a candidate piece still exceeds the size budget.
var DefaultSeparators = []string{"\n\n", "\n", "。", "；", "，", " ", ""}

// Chunker splits documents into overlapping segments bounded by semantic
// separators. Sizes are measured in runes so multi-byte text is not
// penalized.
type Chunker struct {
	chunkSize    int
	chunkOverlap int
	separators   []string
}

// NewChunker creates a chunker with the given size budget and overlap,
// both in runes.
func NewChunker(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = 800
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		chunkOverlap = 0
	}
	return &Chunker{
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		separators:   DefaultSeparators,
	}
}

// ChunkDocument splits one document and stamps every chunk with the parent
// document's provenance. Chunk order follows text order.
func (c *Chunker) ChunkDocument(doc Document) []models.LegalChunk {
	pieces := c.Split(doc.Text)
	chunks := make([]models.LegalChunk, 0, len(pieces))
	for i, text := range pieces {
		if strings.TrimSpace(text) == "" {
			continue
		}
		chunks = append(chunks, models.LegalChunk{
			ID:            uuid.New(),
			Text:          text,
			SourceFile:    doc.SourceFile,
			LawName:       doc.LawName,
			ArticleNumber: doc.ArticleNumber,
			ChunkType:     doc.Type,
			ChunkIndex:    i,
		})
	}
	return chunks
}

// Split breaks text into ordered segments of at most chunkSize runes
// (overlap regions may push a segment slightly past the budget when the
// carried context plus a single atom exceed it). Separators stay attached
// to the text preceding them, so concatenating segments minus their overlap
// prefixes reproduces the input exactly.
func (c *Chunker) Split(text string) []string {
	if text == "" {
		return nil
	}
	atoms := c.atomize(text, c.separators)
	return c.merge(atoms)
}

// atomize recursively splits text until every piece fits the budget,
// preferring the coarsest separator that actually occurs.
func (c *Chunker) atomize(text string, separators []string) []string {
	if runeLen(text) <= c.chunkSize {
		return []string{text}
	}
	for i, sep := range separators {
		if sep == "" {
			return splitRunes(text, c.chunkSize)
		}
		pieces := strings.SplitAfter(text, sep)
		if len(pieces) < 2 {
			continue
		}
		var atoms []string
		for _, piece := range pieces {
			if piece == "" {
				continue
			}
			atoms = append(atoms, c.atomize(piece, separators[i+1:])...)
		}
		return atoms
	}
	return splitRunes(text, c.chunkSize)
}

// merge greedily packs atoms into chunks up to the size budget, carrying a
// suffix of up to chunkOverlap runes into the next chunk so a clause's
// binding context is not severed at the boundary.
func (c *Chunker) merge(atoms []string) []string {
	var chunks []string
	var current []string
	currentLen := 0

	for _, atom := range atoms {
		atomLen := runeLen(atom)
		if currentLen > 0 && currentLen+atomLen > c.chunkSize {
			chunks = append(chunks, strings.Join(current, ""))

			var carried []string
			carriedLen := 0
			for i := len(current) - 1; i >= 0; i-- {
				l := runeLen(current[i])
				if carriedLen+l > c.chunkOverlap {
					break
				}
				carried = append([]string{current[i]}, carried...)
				carriedLen += l
			}
			current = carried
			currentLen = carriedLen
		}
		current = append(current, atom)
		currentLen += atomLen
	}

	if currentLen > 0 {
		chunks = append(chunks, strings.Join(current, ""))
	}
	return chunks
}

func runeLen(s string) int {
	return len([]rune(s))
}

func splitRunes(s string, size int) []string {
	runes := []rune(s)
	var pieces []string
	for start := 0; start < len(runes); start += size {
		end := start + size
		if end > len(runes) {
			end = len(runes)
		}
		pieces = append(pieces, string(runes[start:end]))
	}
	return pieces
}
