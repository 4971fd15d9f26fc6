// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

func TestSizeEnforcerSplitsOversizedParagraph(t *testing.T) {
	cfg := config.Default()
	cfg.SizeEnforcer.MaxSize = 40
	cfg.SizeEnforcer.MinSplitSizeRatio = 0.1
	ctx := &Context{}

	sentence := "This is one sentence. "
	text := strings.Repeat(sentence, 6)
	originalTokenCount := 42
	elements := []docgraph.ParsedElement{{ElementType: docgraph.TypeParagraph, Text: text, TokenCount: originalTokenCount, BoundingBox: docgraph.BoundingBox{X: 0, Y: 0, Width: 100, Height: 100}}}

	out := SizeEnforcer(elements, cfg, ctx)

	require.Greater(t, len(out), 1)
	sum := 0
	for _, e := range out {
		require.LessOrEqual(t, len([]rune(e.Text)), cfg.SizeEnforcer.MaxSize+20)
		require.GreaterOrEqual(t, e.TokenCount, 0)
		sum += e.TokenCount
	}
	require.Equal(t, originalTokenCount, sum, "split chunks' token counts should sum back to the original element's")
}

func TestSizeEnforcerLeavesSmallElementsAlone(t *testing.T) {
	cfg := config.Default()
	ctx := &Context{}

	elements := []docgraph.ParsedElement{{ElementType: docgraph.TypeParagraph, Text: "short text"}}
	out := SizeEnforcer(elements, cfg, ctx)
	require.Equal(t, elements, out)
}

func TestSizeEnforcerDisabledIsNoop(t *testing.T) {
	cfg := config.Default()
	cfg.SizeEnforcer.Enabled = false
	ctx := &Context{}

	elements := []docgraph.ParsedElement{{ElementType: docgraph.TypeParagraph, Text: strings.Repeat("x", 5000)}}
	out := SizeEnforcer(elements, cfg, ctx)
	require.Equal(t, elements, out)
}

func TestSplitListRespectsMaxSize(t *testing.T) {
	cfg := config.Default().SizeEnforcer
	cfg.MaxSize = 20

	e := docgraph.ParsedElement{ElementType: docgraph.TypeList, Text: "line one\nline two\nline three\nline four"}
	out := splitList(e, cfg)
	require.Greater(t, len(out), 1)
}
