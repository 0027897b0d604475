// Copyright Amazon.com, Inc. or its affiliates. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

// Package mltext prepares document text for token-limited model inference
// and folds the model output back into document coordinates.
package mltext

import (
	"regexp"
	"sort"

	"piisift/internal/detector"
)

// Chunk is a bounded, offset-tracked slice of a document. Text always
// equals document[Start:End].
type Chunk struct {
	Index           int
	Start           int
	End             int
	Text            string
	EstimatedTokens int
}

// ChunkerConfig bounds chunk size in estimated tokens.
type ChunkerConfig struct {
	TokenLimit    int
	OverlapTokens int // trailing words carried into the next chunk
}

// DefaultChunkerConfig returns the limits of the default NER model.
func DefaultChunkerConfig() ChunkerConfig {
	return ChunkerConfig{TokenLimit: 512, OverlapTokens: 50}
}

// TextChunker splits text on sentence boundaries so no chunk exceeds the
// model token limit.
type TextChunker struct {
	cfg ChunkerConfig
}

// NewTextChunker creates a chunker.
func NewTextChunker(cfg ChunkerConfig) *TextChunker {
	if cfg.TokenLimit == 0 {
		cfg = DefaultChunkerConfig()
	}
	return &TextChunker{cfg: cfg}
}

var (
	sentenceEnd = regexp.MustCompile(`[.!?]+[\s\n]+`)
	wordSpan    = regexp.MustCompile(`\S+`)
)

// EstimateTokens approximates the subword token count of a text. Both a
// character heuristic and the word count are computed; the larger wins, so
// whitespace-dense and long-word texts are both bounded.
func EstimateTokens(text string) int {
	byChars := len(text) / 4
	byWords := len(wordSpan.FindAllStringIndex(text, -1))
	if byWords > byChars {
		return byWords
	}
	return byChars
}

// Chunk splits the text. A text within the token limit comes back as a
// single chunk covering the whole document.
func (c *TextChunker) Chunk(text string) []Chunk {
	if text == "" {
		return nil
	}
	if EstimateTokens(text) <= c.cfg.TokenLimit {
		return []Chunk{{Index: 0, Start: 0, End: len(text), Text: text, EstimatedTokens: EstimateTokens(text)}}
	}

	units := c.splitUnits(text)
	var chunks []Chunk
	start := units[0][0]
	lastEnd := start

	emit := func(end int) {
		chunks = append(chunks, Chunk{
			Index:           len(chunks),
			Start:           start,
			End:             end,
			Text:            text[start:end],
			EstimatedTokens: EstimateTokens(text[start:end]),
		})
	}

	for _, u := range units {
		if lastEnd > start && EstimateTokens(text[start:u[1]]) > c.cfg.TokenLimit {
			emit(lastEnd)
			overlapStart := c.overlapStart(text, start, lastEnd)
			start = overlapStart
		}
		lastEnd = u[1]
	}
	if lastEnd > start {
		emit(lastEnd)
	}
	return chunks
}

// splitUnits returns sentence spans; a sentence exceeding the limit on its
// own is pre-split at word boundaries.
func (c *TextChunker) splitUnits(text string) [][2]int {
	var sentences [][2]int
	prev := 0
	for _, m := range sentenceEnd.FindAllStringIndex(text, -1) {
		sentences = append(sentences, [2]int{prev, m[1]})
		prev = m[1]
	}
	if prev < len(text) {
		sentences = append(sentences, [2]int{prev, len(text)})
	}

	var units [][2]int
	for _, s := range sentences {
		if EstimateTokens(text[s[0]:s[1]]) <= c.cfg.TokenLimit {
			units = append(units, s)
			continue
		}
		units = append(units, c.splitOversized(text, s)...)
	}
	return units
}

func (c *TextChunker) splitOversized(text string, sentence [2]int) [][2]int {
	words := wordSpan.FindAllStringIndex(text[sentence[0]:sentence[1]], -1)
	var units [][2]int
	start := sentence[0]
	lastEnd := start
	for _, w := range words {
		wordEnd := sentence[0] + w[1]
		if lastEnd > start && EstimateTokens(text[start:wordEnd]) > c.cfg.TokenLimit {
			units = append(units, [2]int{start, lastEnd})
			start = lastEnd
		}
		lastEnd = wordEnd
	}
	if lastEnd > start {
		units = append(units, [2]int{start, lastEnd})
	}
	return units
}

// overlapStart walks back OverlapTokens words from the chunk end, bounded
// by the chunk's own start.
func (c *TextChunker) overlapStart(text string, chunkStart, chunkEnd int) int {
	words := wordSpan.FindAllStringIndex(text[chunkStart:chunkEnd], -1)
	if len(words) == 0 {
		return chunkEnd
	}
	back := c.cfg.OverlapTokens
	if back >= len(words) {
		back = len(words) - 1
	}
	if back <= 0 {
		return chunkEnd
	}
	return chunkStart + words[len(words)-back][0]
}

// Prediction is one model hit in chunk-relative offsets.
type Prediction struct {
	Label      string
	Start      int
	End        int
	Confidence float64
}

// MergeChunkPredictions remaps per-chunk predictions into document
// coordinates and deduplicates across chunk overlaps: two same-label
// predictions overlapping more than half of the shorter span collapse into
// the higher-confidence one, with bounds expanded to cover both.
func MergeChunkPredictions(document string, chunks []Chunk, predictions [][]Prediction) []detector.Entity {
	type span struct {
		label      string
		start, end int
		confidence float64
	}

	var spans []span
	for i, chunk := range chunks {
		if i >= len(predictions) {
			break
		}
		for _, p := range predictions[i] {
			start := chunk.Start + p.Start
			end := chunk.Start + p.End
			if start < chunk.Start || end > chunk.End || start >= end {
				continue
			}
			spans = append(spans, span{label: p.Label, start: start, end: end, confidence: p.Confidence})
		}
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].start != spans[j].start {
			return spans[i].start < spans[j].start
		}
		return spans[i].end > spans[j].end
	})

	var merged []span
	for _, s := range spans {
		absorbed := false
		for i := range merged {
			m := &merged[i]
			if m.label != s.label {
				continue
			}
			overlap := minInt(m.end, s.end) - maxInt(m.start, s.start)
			if overlap <= 0 {
				continue
			}
			shorter := minInt(m.end-m.start, s.end-s.start)
			if float64(overlap) <= 0.5*float64(shorter) {
				continue
			}
			if s.confidence > m.confidence {
				m.confidence = s.confidence
			}
			m.start = minInt(m.start, s.start)
			m.end = maxInt(m.end, s.end)
			absorbed = true
			break
		}
		if !absorbed {
			merged = append(merged, s)
		}
	}

	out := make([]detector.Entity, 0, len(merged))
	for _, m := range merged {
		out = append(out, detector.NewEntity(m.label, document[m.start:m.end], m.start, m.end,
			detector.ClampConfidence(m.confidence), detector.SourceML))
	}
	return out
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
