// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"regexp"
	"strings"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

var patternCache = map[string]*regexp.Regexp{}

func compilePattern(p string) *regexp.Regexp {
	if re, ok := patternCache[p]; ok {
		return re
	}
	re, err := regexp.Compile(p)
	if err != nil {
		patternCache[p] = nil
		return nil
	}
	patternCache[p] = re
	return re
}

// PatternBasedSectionDetection promotes additional elements to Section
// when their text matches a configured regex pattern, optionally
// still subject to the font-size constraints SectionDetection uses.
// Already-Section elements replay through the hierarchy context so
// depth assignment for newly promoted elements stays consistent with
// the font-driven pass that ran before it.
func PatternBasedSectionDetection(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	pd := cfg.SectionAndHierarchy.PatternDetection
	if !pd.Enabled || len(pd.Patterns) == 0 {
		return elements
	}

	var patterns []*regexp.Regexp
	for _, p := range pd.Patterns {
		if re := compilePattern(p); re != nil {
			patterns = append(patterns, re)
		}
	}

	hctx := newHierarchyContext()
	out := make([]docgraph.ParsedElement, len(elements))
	promoted := 0

	for i, el := range elements {
		if el.ElementType == docgraph.TypeSection {
			hctx.updateForSection(el.Style.FontSize, cfg.SectionAndHierarchy)
			out[i] = el
			continue
		}

		matched := false
		trimmed := strings.TrimSpace(el.Text)
		for _, re := range patterns {
			if re.MatchString(trimmed) {
				matched = true
				break
			}
		}
		if !matched {
			out[i] = el
			continue
		}
		if pd.RespectFontConstraints && !isHeaderByStyle(el, cfg.SectionAndHierarchy, ctx) {
			out[i] = el
			continue
		}
		if !isMeaningfulHeader(el.Text, el.Style.IsBold(), el.Style.FontSize, ctx) {
			out[i] = el
			continue
		}

		el.ElementType = docgraph.TypeSection
		el.HierarchyLevel = hctx.updateForSection(el.Style.FontSize, cfg.SectionAndHierarchy)
		promoted++
		out[i] = el
	}

	if ctx.Log != nil && promoted > 0 {
		ctx.Log.Debugw("pattern-based section detection promoted elements", "promoted", promoted)
	}

	return out
}
