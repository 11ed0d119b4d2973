package chunking

import (
	"strings"

	"github.com/acrobyte007/Sustainability/internal/core/domain"
)

// Splitter cuts each page into windows of ChunkWords words, consecutive
// windows sharing Overlap words. Chunks never span pages.
type Splitter struct {
	ChunkWords int
	Overlap    int
}

func NewSplitter(chunkWords, overlap int) *Splitter {
	if chunkWords <= 0 {
		chunkWords = 500
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkWords {
		overlap = chunkWords / 4
	}
	return &Splitter{
		ChunkWords: chunkWords,
		Overlap:    overlap,
	}
}

// Split numbers chunks from 1 within each page.
func (s *Splitter) Split(documentID string, pages []domain.PageText) []domain.Chunk {
	var out []domain.Chunk
	for _, page := range pages {
		for i, text := range s.windows(page.Text) {
			out = append(out, domain.Chunk{
				DocumentID: documentID,
				Page:       page.Page,
				ChunkIndex: i + 1,
				Text:       text,
			})
		}
	}
	return out
}

func (s *Splitter) windows(text string) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return nil
	}

	step := s.ChunkWords - s.Overlap
	if step <= 0 {
		step = s.ChunkWords
	}

	out := make([]string, 0, len(words)/step+1)
	for start := 0; start < len(words); start += step {
		end := min(start+s.ChunkWords, len(words))
		out = append(out, strings.Join(words[start:end], " "))
		if end == len(words) {
			break
		}
	}
	return out
}
