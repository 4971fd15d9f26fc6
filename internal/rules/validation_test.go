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

func healthyElement(order, page, level int) docgraph.ParsedElement {
	return docgraph.ParsedElement{
		ElementType:    docgraph.TypeParagraph,
		Text:           "a reasonably sized piece of body text",
		ReadingOrder:   order,
		PageNumber:     page,
		HierarchyLevel: level,
		BoundingBox:    docgraph.BoundingBox{X: 10, Y: 10, Width: 200, Height: 20},
	}
}

func TestValidationCleanDocumentHasNoIssues(t *testing.T) {
	cfg := config.Default()
	ctx := &Context{}

	elements := []docgraph.ParsedElement{
		healthyElement(0, 1, 1),
		healthyElement(1, 1, 2),
		healthyElement(2, 1, 2),
	}

	out := Validation(elements, cfg, ctx)
	require.Equal(t, elements, out)
	require.Empty(t, ctx.ValidationIssues)
	require.Equal(t, 1.0, ctx.QualityScore)
}

func TestValidationFlagsHierarchyJump(t *testing.T) {
	cfg := config.Default()
	ctx := &Context{}

	elements := []docgraph.ParsedElement{
		healthyElement(0, 1, 1),
		healthyElement(1, 1, 4),
	}

	Validation(elements, cfg, ctx)

	var found bool
	for _, issue := range ctx.ValidationIssues {
		if issue.Kind == IssueHierarchyJump {
			found = true
		}
	}
	require.True(t, found)
	require.Less(t, ctx.QualityScore, 1.0)
}

func TestValidationFlagsInvalidBoundingBox(t *testing.T) {
	cfg := config.Default()
	ctx := &Context{}

	e := healthyElement(0, 1, 1)
	e.BoundingBox = docgraph.BoundingBox{}
	out := Validation([]docgraph.ParsedElement{e}, cfg, ctx)
	require.Len(t, out, 1)

	var found bool
	for _, issue := range ctx.ValidationIssues {
		if issue.Kind == IssueInvalidPosition {
			found = true
		}
	}
	require.True(t, found)
}

func TestValidationFlagsSuspiciousSection(t *testing.T) {
	cfg := config.Default()
	ctx := &Context{}

	e := healthyElement(0, 1, 1)
	e.ElementType = docgraph.TypeSection
	e.Text = "Hi"

	Validation([]docgraph.ParsedElement{e}, cfg, ctx)

	require.Len(t, ctx.ValidationIssues, 1)
	require.Equal(t, IssueSuspiciousSection, ctx.ValidationIssues[0].Kind)
}
