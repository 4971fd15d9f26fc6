// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package docgraph

import "sort"

// ComputeStructuralProfile derives a StructuralProfile mechanically
// from a finished graph's nodes: token/type/depth distributions and
// a coarse structural-health triage.
func ComputeStructuralProfile(nodes map[NodeId]*DocumentNode, docType DocumentType) StructuralProfile {
	all := make([]*DocumentNode, 0, len(nodes))
	for _, n := range nodes {
		all = append(all, n)
	}

	tokenDist := computeTokenDistribution(all)
	typeDist := computeNodeTypeDistribution(all)
	depthDist := computeDepthDistribution(all)

	return StructuralProfile{
		DocumentType:      docType,
		FlowType:          FlowFixed,
		NodeCount:         len(all),
		TokenDistribution: tokenDist,
		TypeDistribution:  typeDist,
		DepthDistribution: depthDist,
		StructuralHealth:  assessStructuralHealth(tokenDist, depthDist, typeDist),
	}
}

func computeTokenDistribution(nodes []*DocumentNode) TokenDistribution {
	var overall []int
	byType := make(map[ElementType][]int)
	for _, n := range nodes {
		overall = append(overall, n.TokenCount)
		byType[n.NodeType] = append(byType[n.NodeType], n.TokenCount)
	}

	result := TokenDistribution{Overall: createHistogram(overall), ByNodeType: make(map[ElementType]TokenHistogram)}
	for t, counts := range byType {
		result.ByNodeType[t] = createHistogram(counts)
	}
	return result
}

func createHistogram(counts []int) TokenHistogram {
	if len(counts) == 0 {
		return TokenHistogram{}
	}
	sorted := append([]int(nil), counts...)
	sort.Ints(sorted)

	minV, maxV := sorted[0], sorted[len(sorted)-1]
	total := 0
	for _, c := range sorted {
		total += c
	}

	bins := generateAdaptiveBins(minV, maxV, 10)
	var hb []HistogramBin
	for _, b := range bins {
		count, sum := 0, 0
		for _, c := range sorted {
			if c >= b[0] && c < b[1] {
				count++
				sum += c
			}
		}
		hb = append(hb, HistogramBin{RangeStart: b[0], RangeEnd: b[1], Count: count, TokenSum: sum})
	}

	mean := float64(total) / float64(len(sorted))
	var median float64
	n := len(sorted)
	if n%2 == 0 {
		median = float64(sorted[n/2-1]+sorted[n/2]) / 2
	} else {
		median = float64(sorted[n/2])
	}

	var mode *int
	bestCount := -1
	for _, b := range hb {
		if b.Count > bestCount {
			bestCount = b.Count
			start := b.RangeStart
			mode = &start
		}
	}

	var variance float64
	if len(sorted) > 1 {
		var sum float64
		for _, c := range sorted {
			d := float64(c) - mean
			sum += d * d
		}
		variance = sum / float64(len(sorted)-1)
	}

	return TokenHistogram{Bins: hb, TotalCount: len(sorted), TotalTokens: total, Mean: mean, Median: median, Mode: mode, Variance: variance}
}

func generateAdaptiveBins(minVal, maxVal, targetBins int) [][2]int {
	if minVal >= maxVal {
		return [][2]int{{minVal, minVal + 1}}
	}
	rng := maxVal - minVal
	binWidth := (rng + targetBins - 1) / targetBins
	if binWidth < 1 {
		binWidth = 1
	}
	var bins [][2]int
	current := minVal
	for current < maxVal {
		end := current + binWidth
		if end > maxVal+1 {
			end = maxVal + 1
		}
		bins = append(bins, [2]int{current, end})
		current = end
	}
	return bins
}

func computeNodeTypeDistribution(nodes []*DocumentNode) NodeTypeDistribution {
	counts := make(map[ElementType]int)
	for _, n := range nodes {
		counts[n.NodeType]++
	}
	percentages := make(map[ElementType]float64)
	total := len(nodes)
	for t, c := range counts {
		if total > 0 {
			percentages[t] = float64(c) / float64(total) * 100
		}
	}
	return NodeTypeDistribution{Counts: counts, Percentages: percentages}
}

func computeDepthDistribution(nodes []*DocumentNode) DepthDistribution {
	depthCounts := make(map[int]int)
	totalDepth, maxDepth := 0, 0
	for _, n := range nodes {
		d := n.Location.Semantic.Depth
		depthCounts[d]++
		totalDepth += d
		if d > maxDepth {
			maxDepth = d
		}
	}
	avg := 0.0
	if len(nodes) > 0 {
		avg = float64(totalDepth) / float64(len(nodes))
	}
	return DepthDistribution{MaxDepth: maxDepth, DepthCounts: depthCounts, AvgDepth: avg}
}

func assessStructuralHealth(tokenDist TokenDistribution, depthDist DepthDistribution, typeDist NodeTypeDistribution) StructuralHealth {
	var varianceLevel VarianceLevel
	switch {
	case tokenDist.Overall.Variance < 1000:
		varianceLevel = VarianceLow
	case tokenDist.Overall.Variance < 10000:
		varianceLevel = VarianceMedium
	default:
		varianceLevel = VarianceHigh
	}

	var balance BalanceLevel
	switch {
	case depthDist.AvgDepth < 2:
		balance = BalanceShallow
	case depthDist.AvgDepth > 5:
		balance = BalanceDeep
	default:
		balance = BalanceBalanced
	}

	var richness RichnessLevel
	switch n := len(typeDist.Counts); {
	case n <= 2:
		richness = RichnessSparse
	case n <= 5:
		richness = RichnessRich
	default:
		richness = RichnessUnbalanced
	}

	return StructuralHealth{TokenVarianceLevel: varianceLevel, DepthBalance: balance, NodeTypeRichness: richness}
}
