// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package fontstats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func repeat(size float64, n int) []Element {
	out := make([]Element, n)
	for i := range out {
		out[i] = Element{FontSize: size, ClassName: "c"}
	}
	return out
}

func TestAnalyzeBodySizeIsMostCommon(t *testing.T) {
	var elements []Element
	elements = append(elements, repeat(10, 8)...)
	elements = append(elements, repeat(18, 2)...)
	elements = append(elements, repeat(24, 1)...)

	a := Analyze(elements)

	require.Equal(t, 10.0, a.BodyTextSize)
	require.Equal(t, []float64{18, 24}, a.PotentialHeaderSizes)
	require.Equal(t, []float64{24, 18, 10}, a.HierarchyLevels)
	require.Equal(t, 10.0, a.MinSize)
	require.Equal(t, 24.0, a.MaxSize)
	require.Equal(t, 10.0, a.MedianSize)
	require.True(t, a.IsPotentialHeaderSize(18))
	require.False(t, a.IsPotentialHeaderSize(10))
}

func TestAnalyzeEmptyInput(t *testing.T) {
	a := Analyze(nil)
	require.Empty(t, a.PotentialHeaderSizes)
	require.Empty(t, a.HierarchyLevels)
	require.NotNil(t, a.SizeCounts)
	require.NotNil(t, a.ClassCounts)
}

func TestAnalyzeUniformSizesNoPotentialHeaders(t *testing.T) {
	a := Analyze(repeat(12, 5))
	require.Equal(t, 12.0, a.BodyTextSize)
	require.Empty(t, a.PotentialHeaderSizes)
}
