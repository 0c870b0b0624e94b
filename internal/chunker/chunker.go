// Package chunker splits extracted document text into overlapping fixed-size
// character windows, one pass per page. The overlap makes neighboring chunks
// share context so a sentence cut at a window boundary is still retrievable.
package chunker

import (
	"strings"

	"chatbot-rag/internal/models"
)

type Chunker struct {
	chunkSize    int // characters per window
	chunkOverlap int // characters shared with the previous window
}

func New(chunkSize, chunkOverlap int) *Chunker {
	if chunkSize <= 0 {
		chunkSize = models.DefaultChunkSize
	}
	if chunkOverlap < 0 {
		chunkOverlap = 0
	}
	if chunkOverlap >= chunkSize {
		chunkOverlap = chunkSize / 2
	}
	return &Chunker{chunkSize: chunkSize, chunkOverlap: chunkOverlap}
}

// Chunk windows every page of a document. Each emitted chunk carries the
// source document name, its 1-based page number and its character span within
// the page. IDs stay zero until the index assigns them.
func (c *Chunker) Chunk(source string, pages []models.Page) []models.Chunk {
	var chunks []models.Chunk
	for _, page := range pages {
		for _, span := range c.spans(page.Text) {
			text := strings.TrimSpace(page.Text[span.start:span.end])
			if text == "" {
				continue
			}
			chunks = append(chunks, models.Chunk{
				Text:       text,
				Source:     source,
				PageNumber: page.Number,
				CharStart:  span.start,
				CharEnd:    span.end,
			})
		}
	}
	return chunks
}

type span struct {
	start, end int
}

// spans computes the window boundaries over one page. A page shorter than the
// window yields exactly one span; an empty page yields none. Window ends are
// nudged back to the nearest space or sentence end within the last tenth of
// the window, which never opens a gap because the next window starts a full
// overlap earlier.
func (c *Chunker) spans(text string) []span {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	n := len(text)
	if n <= c.chunkSize {
		return []span{{0, n}}
	}

	var spans []span
	start := 0
	for start < n {
		end := min(start+c.chunkSize, n)
		if end < n {
			lookBack := min(c.chunkSize/10, end-start)
			for i := end - 1; i >= end-lookBack && i > start; i-- {
				if text[i] == ' ' || text[i] == '\n' || text[i] == '.' {
					end = i + 1
					break
				}
			}
		}
		spans = append(spans, span{start, end})
		if start+c.chunkSize >= n {
			break
		}
		start += c.chunkSize - c.chunkOverlap
	}
	return spans
}
