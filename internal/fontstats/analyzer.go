// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package fontstats computes a statistically grounded view of how
// fonts are used across a document, so the rule engine can separate
// body text from header candidates without document-specific magic
// numbers. The histogram/median/mode arithmetic is plain sort+math:
// no library in the retrieval pack offers weighted-mode/rarity
// statistics for this shape of problem.
package fontstats

import "sort"

// Analysis is the font-usage view handed to the rule engine.
type Analysis struct {
	BodyTextSize         float64
	PotentialHeaderSizes []float64
	HierarchyLevels      []float64
	SizeCounts           map[float64]int
	ClassCounts          map[string]int
	MinSize              float64
	MaxSize              float64
	MedianSize           float64
}

// Element is the minimal shape the analyzer needs from a text element.
type Element struct {
	FontSize  float64
	ClassName string
}

// Analyze computes an Analysis over the given elements. An empty
// input yields a zero-value Analysis with empty maps/slices, never a
// panic.
func Analyze(elements []Element) Analysis {
	sizeCounts := make(map[float64]int)
	classCounts := make(map[string]int)
	for _, e := range elements {
		sizeCounts[e.FontSize]++
		classCounts[e.ClassName]++
	}

	if len(sizeCounts) == 0 {
		return Analysis{SizeCounts: sizeCounts, ClassCounts: classCounts}
	}

	sizes := make([]float64, 0, len(sizeCounts))
	for s := range sizeCounts {
		sizes = append(sizes, s)
	}
	sort.Float64s(sizes)

	bodySize := sizes[0]
	bodyCount := sizeCounts[bodySize]
	for _, s := range sizes {
		if sizeCounts[s] > bodyCount {
			bodySize = s
			bodyCount = sizeCounts[s]
		}
	}

	var potential []float64
	for _, s := range sizes {
		if s > bodySize && sizeCounts[s] < bodyCount/2+bodyCount%2 {
			potential = append(potential, s)
		}
	}

	levels := make([]float64, len(sizes))
	copy(levels, sizes)
	sort.Slice(levels, func(i, j int) bool {
		if levels[i] != levels[j] {
			return levels[i] > levels[j]
		}
		return sizeCounts[levels[i]] < sizeCounts[levels[j]]
	})

	allSizes := make([]float64, 0, len(elements))
	for _, e := range elements {
		allSizes = append(allSizes, e.FontSize)
	}
	sort.Float64s(allSizes)

	return Analysis{
		BodyTextSize:         bodySize,
		PotentialHeaderSizes: potential,
		HierarchyLevels:      levels,
		SizeCounts:           sizeCounts,
		ClassCounts:          classCounts,
		MinSize:              allSizes[0],
		MaxSize:              allSizes[len(allSizes)-1],
		MedianSize:           median(allSizes),
	}
}

func median(sorted []float64) float64 {
	n := len(sorted)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}

// IsPotentialHeaderSize reports whether size is in a's
// PotentialHeaderSizes list.
func (a Analysis) IsPotentialHeaderSize(size float64) bool {
	for _, s := range a.PotentialHeaderSizes {
		if s == size {
			return true
		}
	}
	return false
}
