// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
	"github.com/jruiz/blazegraph/internal/fontstats"
)

func TestPatternBasedSectionDetectionPromotesMatchingText(t *testing.T) {
	cfg := config.Default()
	cfg.SectionAndHierarchy.PatternDetection.Enabled = true
	cfg.SectionAndHierarchy.PatternDetection.Patterns = []string{`^Appendix [A-Z]:`}
	cfg.SectionAndHierarchy.PatternDetection.RespectFontConstraints = false
	ctx := &Context{FontAnalysis: fontstats.Analysis{BodyTextSize: 10}}

	elements := []docgraph.ParsedElement{
		{ElementType: docgraph.TypeParagraph, Text: "Appendix A: Supporting Data", Style: docgraph.FontClass{FontSize: 10}},
		{ElementType: docgraph.TypeParagraph, Text: "Regular body text that is not a heading.", Style: docgraph.FontClass{FontSize: 10}},
	}

	out := PatternBasedSectionDetection(elements, cfg, ctx)
	require.Equal(t, docgraph.TypeSection, out[0].ElementType)
	require.Equal(t, 1, out[0].HierarchyLevel)
	require.Equal(t, docgraph.TypeParagraph, out[1].ElementType)
}

func TestPatternBasedSectionDetectionHonorsFontConstraints(t *testing.T) {
	cfg := config.Default()
	cfg.SectionAndHierarchy.PatternDetection.Enabled = true
	cfg.SectionAndHierarchy.PatternDetection.Patterns = []string{`^Appendix [A-Z]:`}
	cfg.SectionAndHierarchy.PatternDetection.RespectFontConstraints = true
	cfg.SectionAndHierarchy.MinHeaderSize = 14
	ctx := &Context{FontAnalysis: fontstats.Analysis{BodyTextSize: 10}}

	elements := []docgraph.ParsedElement{
		{ElementType: docgraph.TypeParagraph, Text: "Appendix A: Supporting Data", Style: docgraph.FontClass{FontSize: 10}},
	}

	out := PatternBasedSectionDetection(elements, cfg, ctx)
	require.Equal(t, docgraph.TypeParagraph, out[0].ElementType, "font size below MinHeaderSize should block promotion")
}

func TestPatternBasedSectionDetectionDisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.SectionAndHierarchy.PatternDetection.Enabled = false
	ctx := &Context{}

	elements := []docgraph.ParsedElement{{ElementType: docgraph.TypeParagraph, Text: "Appendix A: Supporting Data"}}
	out := PatternBasedSectionDetection(elements, cfg, ctx)
	require.Equal(t, elements, out)
}

func TestPatternBasedSectionDetectionReplaysExistingSectionsForDepth(t *testing.T) {
	cfg := config.Default()
	cfg.SectionAndHierarchy.PatternDetection.Enabled = true
	cfg.SectionAndHierarchy.PatternDetection.Patterns = []string{`^Appendix [A-Z]:`}
	cfg.SectionAndHierarchy.PatternDetection.RespectFontConstraints = false
	ctx := &Context{FontAnalysis: fontstats.Analysis{BodyTextSize: 10}}

	elements := []docgraph.ParsedElement{
		{ElementType: docgraph.TypeSection, Text: "Introduction", Style: docgraph.FontClass{FontSize: 20}},
		{ElementType: docgraph.TypeParagraph, Text: "Appendix A: Supporting Data", Style: docgraph.FontClass{FontSize: 16}},
	}

	out := PatternBasedSectionDetection(elements, cfg, ctx)
	require.Equal(t, docgraph.TypeSection, out[1].ElementType)
	require.Equal(t, 2, out[1].HierarchyLevel, "promoted section should continue depth from the replayed prior section")
}
