// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"strings"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

// hierarchyContext tracks contextual hierarchy levels while walking
// the element sequence in order.
type hierarchyContext struct {
	currentLevel             int
	previousSectionFontSize  *float64
	levelFontSizes           []float64
}

func newHierarchyContext() *hierarchyContext {
	return &hierarchyContext{currentLevel: 1}
}

func (h *hierarchyContext) updateForSection(fontSize float64, cfg config.SectionAndHierarchyConfig) int {
	defer func() {
		fs := fontSize
		h.previousSectionFontSize = &fs
	}()

	if h.previousSectionFontSize == nil {
		h.currentLevel = cfg.StartingSectionLevel
		h.levelFontSizes = []float64{fontSize}
		return cfg.StartingSectionLevel
	}

	prev := *h.previousSectionFontSize
	switch {
	case absFloat(fontSize-prev) < cfg.FontSizeTolerance:
		h.setLevelFontSize(h.currentLevel, fontSize)
		return h.currentLevel
	case fontSize < prev:
		proposed := h.currentLevel + 1
		if cfg.EnforceMaxDepth && proposed > cfg.MaxDepth {
			h.setLevelFontSize(h.currentLevel, fontSize)
			return h.currentLevel
		}
		h.currentLevel = proposed
		h.setLevelFontSize(h.currentLevel, fontSize)
		return h.currentLevel
	default:
		h.currentLevel = h.findAppropriateLevel(fontSize, cfg)
		h.setLevelFontSize(h.currentLevel, fontSize)
		return h.currentLevel
	}
}

func (h *hierarchyContext) setLevelFontSize(level int, fontSize float64) {
	for len(h.levelFontSizes) < level {
		h.levelFontSizes = append(h.levelFontSizes, 0)
	}
	h.levelFontSizes[level-1] = fontSize
}

func (h *hierarchyContext) findAppropriateLevel(fontSize float64, cfg config.SectionAndHierarchyConfig) int {
	for idx, size := range h.levelFontSizes {
		if absFloat(fontSize-size) < cfg.FontSizeTolerance {
			return idx + 1
		}
	}
	for idx, size := range h.levelFontSizes {
		if fontSize > size {
			return idx + 1
		}
	}
	return 1
}

func (h *hierarchyContext) contentLevel() int {
	return h.currentLevel + 1
}

func absFloat(f float64) float64 {
	if f < 0 {
		return -f
	}
	return f
}

// isMeaningfulHeader applies the text-length guard that keeps very
// short fragments ("To", "Our") from being promoted unless style
// strongly supports it.
func isMeaningfulHeader(text string, bold bool, fontSize float64, ctx *Context) bool {
	trimmed := strings.TrimSpace(text)
	if len(trimmed) < 3 {
		return false
	}
	if len(trimmed) >= 8 {
		return true
	}
	return bold || ctx.FontAnalysis.IsPotentialHeaderSize(fontSize)
}

func isHeaderByStyle(el docgraph.ParsedElement, cfg config.SectionAndHierarchyConfig, ctx *Context) bool {
	fontSize := el.Style.FontSize
	if fontSize < cfg.MinHeaderSize {
		return false
	}
	bold := el.Style.IsBold()
	var boldLogic bool
	if cfg.BoldSizeStrict {
		boldLogic = cfg.UseBoldIndicator && bold && fontSize > ctx.FontAnalysis.BodyTextSize
	} else {
		boldLogic = cfg.UseBoldIndicator && bold
	}
	return fontSize > ctx.FontAnalysis.BodyTextSize || ctx.FontAnalysis.IsPotentialHeaderSize(fontSize) || boldLogic
}

// SectionAndHierarchyDetection promotes paragraph elements to Section
// where typography warrants it, and assigns every element a
// contextual depth via hierarchyContext.
func SectionAndHierarchyDetection(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	hctx := newHierarchyContext()
	out := make([]docgraph.ParsedElement, len(elements))

	for i, el := range elements {
		isHeader := isHeaderByStyle(el, cfg.SectionAndHierarchy, ctx)

		if !isHeader {
			el.HierarchyLevel = hctx.contentLevel()
			out[i] = el
			continue
		}

		if !isMeaningfulHeader(el.Text, el.Style.IsBold(), el.Style.FontSize, ctx) {
			el.HierarchyLevel = hctx.contentLevel()
			out[i] = el
			continue
		}

		el.ElementType = docgraph.TypeSection
		el.HierarchyLevel = hctx.updateForSection(el.Style.FontSize, cfg.SectionAndHierarchy)
		out[i] = el
	}

	if ctx.Log != nil {
		sections := 0
		for _, e := range out {
			if e.ElementType == docgraph.TypeSection {
				sections++
			}
		}
		ctx.Log.Debugw("section detection complete", "sections", sections, "elements", len(out))
	}

	return out
}
