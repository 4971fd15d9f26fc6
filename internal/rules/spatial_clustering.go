// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"fmt"
	"sort"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

// SpatialClustering runs the two independent sub-passes controlled by
// config flags: paragraph merging by (page, paragraph_number), then
// spatial-adjacency clustering of consecutive same-type same-level
// elements on the same page.
func SpatialClustering(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	if len(elements) == 0 || !cfg.SpatialClustering.Enabled {
		return elements
	}

	out := elements
	if cfg.SpatialClustering.EnableParagraphMerging {
		out = mergeParagraphs(out)
	}
	if cfg.SpatialClustering.EnableSpatialAdjacency {
		out = clusterAdjacent(out, cfg)
	}

	if ctx.Log != nil {
		ctx.Log.Debugw("spatial clustering complete", "from", len(elements), "to", len(out))
	}
	return out
}

func mergeParagraphs(elements []docgraph.ParsedElement) []docgraph.ParsedElement {
	type key struct {
		page int
		para int
	}
	groups := make(map[key][]docgraph.ParsedElement)
	var order []key
	for _, e := range elements {
		k := key{e.PageNumber, e.ParagraphNumber}
		if _, ok := groups[k]; !ok {
			order = append(order, k)
		}
		groups[k] = append(groups[k], e)
	}

	out := make([]docgraph.ParsedElement, 0, len(order))
	for _, k := range order {
		group := groups[k]
		if len(group) == 1 {
			out = append(out, group[0])
			continue
		}
		sort.SliceStable(group, func(i, j int) bool { return group[i].ReadingOrder < group[j].ReadingOrder })
		merged := group[0]
		for _, e := range group[1:] {
			merged.Text = fmt.Sprintf("%s %s", merged.Text, e.Text)
			merged.BoundingBox = merged.BoundingBox.Union(e.BoundingBox)
			merged.TokenCount += e.TokenCount
		}
		out = append(out, merged)
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].PageNumber != out[j].PageNumber {
			return out[i].PageNumber < out[j].PageNumber
		}
		return out[i].ReadingOrder < out[j].ReadingOrder
	})
	return out
}

func clusterAdjacent(elements []docgraph.ParsedElement, cfg config.ParsingConfig) []docgraph.ParsedElement {
	var out []docgraph.ParsedElement
	var current *docgraph.ParsedElement

	flush := func() {
		if current != nil {
			out = append(out, *current)
			current = nil
		}
	}

	for _, e := range elements {
		el := e
		if current == nil {
			current = &el
			continue
		}
		if canMerge(*current, el, cfg) {
			current.Text = fmt.Sprintf("%s %s", current.Text, el.Text)
			current.BoundingBox = current.BoundingBox.Union(el.BoundingBox)
			current.TokenCount += el.TokenCount
			continue
		}
		flush()
		current = &el
	}
	flush()
	return out
}

func clusteringConfigFor(t docgraph.ElementType, cfg config.ParsingConfig) config.ElementClusteringConfig {
	if t == docgraph.TypeSection {
		return cfg.SpatialClustering.Sections
	}
	return cfg.SpatialClustering.Paragraphs
}

func canMerge(cluster, element docgraph.ParsedElement, cfg config.ParsingConfig) bool {
	if cluster.ElementType != element.ElementType {
		return false
	}
	if cluster.HierarchyLevel != element.HierarchyLevel {
		return false
	}
	if cluster.PageNumber != element.PageNumber {
		return false
	}
	sizeCfg := clusteringConfigFor(cluster.ElementType, cfg)
	combined := len(cluster.Text) + len(element.Text) + 1
	if combined > sizeCfg.MaxSegmentSize {
		return false
	}
	return spatiallyAdjacent(cluster, element, cfg)
}

func spatiallyAdjacent(cluster, element docgraph.ParsedElement, cfg config.ParsingConfig) bool {
	cb, eb := cluster.BoundingBox, element.BoundingBox

	var verticalGap float64
	clusterBottom := cb.Y + cb.Height
	elementTop := eb.Y
	elementBottom := eb.Y + eb.Height
	clusterTop := cb.Y

	switch {
	case clusterBottom <= elementTop:
		verticalGap = elementTop - clusterBottom
	case elementBottom <= clusterTop:
		verticalGap = clusterTop - elementBottom
	default:
		verticalGap = 0
	}

	maxVerticalGap := cfg.SpatialClustering.MinLineHeight * cfg.SpatialClustering.VerticalGapThresholdMultiplier
	if verticalGap > maxVerticalGap {
		return false
	}

	clusterLeft, clusterRight := cb.X, cb.X+cb.Width
	elementLeft, elementRight := eb.X, eb.X+eb.Width
	tolerance := cfg.SpatialClustering.HorizontalAlignmentTolerance

	maxRight := clusterRight
	if elementRight > maxRight {
		maxRight = elementRight
	}
	minLeft := clusterLeft
	if elementLeft < minLeft {
		minLeft = elementLeft
	}
	horizontalOverlap := maxRight-minLeft < cb.Width+eb.Width+tolerance
	return horizontalOverlap
}
