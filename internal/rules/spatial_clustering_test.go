// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

func TestMergeParagraphsCombinesSameParagraphGroup(t *testing.T) {
	elements := []docgraph.ParsedElement{
		{Text: "Hello", PageNumber: 1, ParagraphNumber: 1, ReadingOrder: 0, TokenCount: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 0, Width: 10, Height: 10}},
		{Text: "world", PageNumber: 1, ParagraphNumber: 1, ReadingOrder: 1, TokenCount: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 10, Width: 10, Height: 10}},
		{Text: "Other paragraph", PageNumber: 1, ParagraphNumber: 2, ReadingOrder: 2, TokenCount: 2, BoundingBox: docgraph.BoundingBox{X: 0, Y: 20, Width: 10, Height: 10}},
	}

	out := mergeParagraphs(elements)
	require.Len(t, out, 2)
	require.Equal(t, "Hello world", out[0].Text)
	require.Equal(t, 2, out[0].TokenCount)
	require.Equal(t, "Other paragraph", out[1].Text)
}

func TestSpatialClusteringDisabledReturnsUnchanged(t *testing.T) {
	cfg := config.Default()
	cfg.SpatialClustering.Enabled = false
	ctx := &Context{}

	elements := []docgraph.ParsedElement{{Text: "a"}, {Text: "b"}}
	out := SpatialClustering(elements, cfg, ctx)
	require.Equal(t, elements, out)
}

func TestClusterAdjacentMergesCloseSameLevelElements(t *testing.T) {
	cfg := config.Default()
	cfg.SpatialClustering.MinLineHeight = 10
	cfg.SpatialClustering.VerticalGapThresholdMultiplier = 1.0
	cfg.SpatialClustering.HorizontalAlignmentTolerance = 5
	cfg.SpatialClustering.Paragraphs = config.ElementClusteringConfig{MinSegmentSize: 1, MaxSegmentSize: 2000}

	elements := []docgraph.ParsedElement{
		{ElementType: docgraph.TypeParagraph, Text: "line one", PageNumber: 1, HierarchyLevel: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 0, Width: 100, Height: 10}},
		{ElementType: docgraph.TypeParagraph, Text: "line two", PageNumber: 1, HierarchyLevel: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 11, Width: 100, Height: 10}},
	}

	out := clusterAdjacent(elements, cfg)
	require.Len(t, out, 1)
	require.Equal(t, "line one line two", out[0].Text)
}

func TestClusterAdjacentDoesNotMergeFarApartElements(t *testing.T) {
	cfg := config.Default()
	cfg.SpatialClustering.MinLineHeight = 10
	cfg.SpatialClustering.VerticalGapThresholdMultiplier = 0.5

	elements := []docgraph.ParsedElement{
		{ElementType: docgraph.TypeParagraph, Text: "line one", PageNumber: 1, HierarchyLevel: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 0, Width: 100, Height: 10}},
		{ElementType: docgraph.TypeParagraph, Text: "line two", PageNumber: 1, HierarchyLevel: 1, BoundingBox: docgraph.BoundingBox{X: 0, Y: 500, Width: 100, Height: 10}},
	}

	out := clusterAdjacent(elements, cfg)
	require.Len(t, out, 2)
}
