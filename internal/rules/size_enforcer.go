// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"regexp"
	"strings"
	"unicode"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

var sentenceBoundaryRe = regexp.MustCompile(`[.!?]+\s+`)

func measure(text, unit string) int {
	switch unit {
	case "words":
		return len(strings.Fields(text))
	case "bytes":
		return len(text)
	default:
		return len([]rune(text))
	}
}

func minSplitSize(cfg config.SizeEnforcerConfig) int {
	return int(float64(cfg.MaxSize) * cfg.MinSplitSizeRatio)
}

func needsSplitting(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) bool {
	return cfg.Enabled && measure(e.Text, cfg.SizeUnit) > cfg.MaxSize
}

func splitBoundingBox(box docgraph.BoundingBox, startRatio, endRatio float64, direction string) docgraph.BoundingBox {
	if direction == "horizontal" {
		width := box.Width * (endRatio - startRatio)
		return docgraph.BoundingBox{X: box.X + box.Width*startRatio, Y: box.Y, Width: width, Height: box.Height}
	}
	height := box.Height * (endRatio - startRatio)
	return docgraph.BoundingBox{X: box.X, Y: box.Y + box.Height*startRatio, Width: box.Width, Height: height}
}

// apportionTokenCounts assigns each chunk a TokenCount proportional to
// its share of original's text length, mirroring how splitBoundingBox
// apportions geometry by ratio. Any rounding remainder is folded into
// the last chunk so the parts sum to exactly original.TokenCount.
func apportionTokenCounts(chunks []docgraph.ParsedElement, original docgraph.ParsedElement) {
	if len(chunks) == 0 {
		return
	}
	lens := make([]int, len(chunks))
	totalLen := 0
	for i, c := range chunks {
		lens[i] = len([]rune(c.Text))
		totalLen += lens[i]
	}
	if totalLen == 0 {
		return
	}
	assigned := 0
	for i := range chunks {
		if i == len(chunks)-1 {
			chunks[i].TokenCount = original.TokenCount - assigned
			continue
		}
		share := original.TokenCount * lens[i] / totalLen
		chunks[i].TokenCount = share
		assigned += share
	}
}

// SizeEnforcer iteratively splits any element whose measured size
// exceeds max_size, preferring sentence boundaries and falling back
// to whitespace/punctuation splits past the halfway mark.
func SizeEnforcer(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	sc := cfg.SizeEnforcer
	if !sc.Enabled {
		return elements
	}

	result := elements
	if sc.Recursive {
		for iter := 0; iter < sc.MaxIterations; iter++ {
			var next []docgraph.ParsedElement
			hasOversized := false
			for _, e := range result {
				split := splitElement(e, sc)
				for _, s := range split {
					if needsSplitting(s, sc) {
						hasOversized = true
					}
				}
				next = append(next, split...)
			}
			result = next
			if !hasOversized {
				break
			}
		}
	} else {
		var next []docgraph.ParsedElement
		for _, e := range result {
			next = append(next, splitElement(e, sc)...)
		}
		result = next
	}

	if ctx.Log != nil {
		ctx.Log.Debugw("size enforcement complete", "from", len(elements), "to", len(result))
	}
	return result
}

func splitElement(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) []docgraph.ParsedElement {
	if !needsSplitting(e, cfg) {
		return []docgraph.ParsedElement{e}
	}
	if e.ElementType == docgraph.TypeList {
		return splitList(e, cfg)
	}
	return splitParagraph(e, cfg)
}

func splitList(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) []docgraph.ParsedElement {
	lines := strings.Split(e.Text, "\n")
	if len(lines) <= 1 {
		return splitParagraph(e, cfg)
	}
	total := len(lines)

	var result []docgraph.ParsedElement
	var chunk []string
	currentSize := 0
	linesProcessed := 0

	flush := func(endRatioOverride *float64) {
		if len(chunk) == 0 {
			return
		}
		startRatio := float64(linesProcessed-len(chunk)) / float64(total)
		endRatio := float64(linesProcessed) / float64(total)
		if endRatioOverride != nil {
			endRatio = *endRatioOverride
		}
		next := e
		next.Text = strings.Join(chunk, "\n")
		next.Position = e.Position + len(result)
		next.BoundingBox = splitBoundingBox(e.BoundingBox, startRatio, endRatio, cfg.SplitDirection)
		result = append(result, next)
		chunk = nil
		currentSize = 0
	}

	for _, line := range lines {
		lineSize := measure(line, cfg.SizeUnit)
		if currentSize+lineSize > cfg.MaxSize && len(chunk) > 0 {
			flush(nil)
		}
		chunk = append(chunk, line)
		currentSize += lineSize
		linesProcessed++
	}
	one := 1.0
	flush(&one)

	if len(result) == 0 {
		result = append(result, e)
	} else {
		apportionTokenCounts(result, e)
	}
	return result
}

func splitParagraph(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) []docgraph.ParsedElement {
	if cfg.PreserveSentences {
		if result := splitBySentences(e, cfg); result != nil {
			return result
		}
	}
	return splitByPosition(e, cfg)
}

func splitBySentences(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) []docgraph.ParsedElement {
	text := e.Text
	type span struct{ start, end int }
	var sentences []string
	var positions []span
	start := 0
	for _, loc := range sentenceBoundaryRe.FindAllStringIndex(text, -1) {
		end := loc[1]
		sentences = append(sentences, text[start:end])
		positions = append(positions, span{start, end})
		start = end
	}
	if start < len(text) {
		sentences = append(sentences, text[start:])
		positions = append(positions, span{start, len(text)})
	}
	if len(sentences) <= 1 {
		return nil
	}

	totalLen := len(text)
	var result []docgraph.ParsedElement
	var chunkParts []string
	currentSize := 0
	chunkStart := 0
	idx := 0
	minSize := minSplitSize(cfg)

	for _, sentence := range sentences {
		size := measure(sentence, cfg.SizeUnit)
		if currentSize+size > cfg.MaxSize && len(chunkParts) > 0 {
			chunkText := strings.TrimSpace(strings.Join(chunkParts, ""))
			if measure(chunkText, cfg.SizeUnit) >= minSize {
				chunkEnd := positions[idx-1].end
				startRatio := float64(chunkStart) / float64(totalLen)
				endRatio := float64(chunkEnd) / float64(totalLen)
				next := e
				next.Text = chunkText
				next.Position = e.Position + len(result)
				next.BoundingBox = splitBoundingBox(e.BoundingBox, startRatio, endRatio, cfg.SplitDirection)
				result = append(result, next)
			}
			chunkParts = nil
			currentSize = 0
			chunkStart = positions[idx].start
		}
		chunkParts = append(chunkParts, sentence)
		currentSize += size
		idx++
	}

	if len(chunkParts) > 0 {
		chunkText := strings.TrimSpace(strings.Join(chunkParts, ""))
		if measure(chunkText, cfg.SizeUnit) >= minSize {
			startRatio := float64(chunkStart) / float64(totalLen)
			next := e
			next.Text = chunkText
			next.Position = e.Position + len(result)
			next.BoundingBox = splitBoundingBox(e.BoundingBox, startRatio, 1.0, cfg.SplitDirection)
			result = append(result, next)
			apportionTokenCounts(result, e)
			return result
		}
	}

	if len(result) == 0 {
		return nil
	}
	apportionTokenCounts(result, e)
	return result
}

func splitByPosition(e docgraph.ParsedElement, cfg config.SizeEnforcerConfig) []docgraph.ParsedElement {
	chars := []rune(e.Text)
	var result []docgraph.ParsedElement
	start := 0
	minSize := minSplitSize(cfg)

	for start < len(chars) {
		end := start + cfg.MaxSize
		if end >= len(chars) {
			end = len(chars)
		} else {
			for i := end - 1; i >= start+cfg.MaxSize/2; i-- {
				if unicode.IsSpace(chars[i]) || unicode.IsPunct(chars[i]) {
					end = i + 1
					break
				}
			}
		}

		chunkText := strings.TrimSpace(string(chars[start:end]))
		if chunkText != "" && measure(chunkText, cfg.SizeUnit) >= minSize {
			startRatio := float64(start) / float64(len(chars))
			endRatio := float64(end) / float64(len(chars))
			next := e
			next.Text = chunkText
			next.Position = e.Position + len(result)
			next.BoundingBox = splitBoundingBox(e.BoundingBox, startRatio, endRatio, cfg.SplitDirection)
			result = append(result, next)
		}
		start = end
	}

	if len(result) == 0 {
		result = append(result, e)
	} else {
		apportionTokenCounts(result, e)
	}
	return result
}
