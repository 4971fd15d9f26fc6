// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package docgraph

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func el(typ ElementType, level int, text string) ParsedElement {
	return ParsedElement{ElementType: typ, HierarchyLevel: level, Text: text, TokenCount: len([]rune(text))}
}

func TestBuildSingleRoot(t *testing.T) {
	g := Build("fp", "", []ParsedElement{el(TypeParagraph, 1, "hello")})
	require.Len(t, g.Nodes, 2)

	root, ok := g.Nodes[g.DocumentInfo.RootId]
	require.True(t, ok)
	require.Equal(t, TypeDocument, root.NodeType)
	require.Nil(t, root.Parent)
	require.Len(t, root.Children, 1)
}

func TestBuildParentChildConsistency(t *testing.T) {
	elements := []ParsedElement{
		el(TypeSection, 1, "Intro"),
		el(TypeParagraph, 2, "body text"),
		el(TypeSection, 2, "Sub"),
		el(TypeParagraph, 3, "sub body"),
	}
	g := Build("fp", "", elements)

	for id, n := range g.Nodes {
		if n.Parent == nil {
			require.Equal(t, g.DocumentInfo.RootId, id)
			continue
		}
		parent, ok := g.Nodes[*n.Parent]
		require.True(t, ok)
		require.Contains(t, parent.Children, id)
	}
}

func TestBuildDepthEqualsParentDepthPlusOne(t *testing.T) {
	elements := []ParsedElement{
		el(TypeSection, 1, "A"),
		el(TypeSection, 2, "A.1"),
		el(TypeParagraph, 3, "body"),
	}
	g := Build("fp", "", elements)

	for id, n := range g.Nodes {
		if n.Parent == nil {
			continue
		}
		parent := g.Nodes[*n.Parent]
		require.Equal(t, parent.Location.Semantic.Depth+1, n.Location.Semantic.Depth, "node %s", id)
	}
}

func TestBuildStepBackUpReattachesToAncestor(t *testing.T) {
	elements := []ParsedElement{
		el(TypeSection, 1, "A"),
		el(TypeSection, 2, "A.1"),
		el(TypeSection, 3, "A.1.1"),
		el(TypeSection, 2, "A.2"),
	}
	g := Build("fp", "", elements)

	var a1, a2 *DocumentNode
	for _, n := range g.Nodes {
		switch n.Content.Text {
		case "A.1":
			a1 = n
		case "A.2":
			a2 = n
		}
	}
	require.NotNil(t, a1)
	require.NotNil(t, a2)
	require.Equal(t, *a1.Parent, *a2.Parent, "A.1 and A.2 should share the same parent (A)")
}

func TestBuildBreadcrumbsPropagate(t *testing.T) {
	elements := []ParsedElement{
		el(TypeSection, 1, "Chapter One"),
		el(TypeSection, 2, "Section A"),
		el(TypeParagraph, 3, "content"),
	}
	g := Build("fp", "", elements)

	for _, n := range g.Nodes {
		if n.Content.Text == "content" {
			require.Equal(t, []string{"Chapter One", "Section A"}, n.Location.Semantic.Breadcrumbs)
		}
	}
}

func TestBuildRootAndChildrenBreadcrumbsContainTitleWhenKnown(t *testing.T) {
	elements := []ParsedElement{
		el(TypeParagraph, 1, "intro text"),
		el(TypeSection, 1, "Chapter One"),
		el(TypeParagraph, 2, "content"),
	}
	g := Build("fp", "Annual Report", elements)

	root := g.Nodes[g.DocumentInfo.RootId]
	require.Equal(t, []string{"Annual Report"}, root.Location.Semantic.Breadcrumbs)

	for _, n := range g.Nodes {
		switch n.Content.Text {
		case "intro text":
			require.Equal(t, []string{"Annual Report"}, n.Location.Semantic.Breadcrumbs)
		case "content":
			require.Equal(t, []string{"Annual Report", "Chapter One"}, n.Location.Semantic.Breadcrumbs)
		}
	}
}

func TestBuildRootBreadcrumbsEmptyWhenTitleUnknown(t *testing.T) {
	g := Build("fp", "", []ParsedElement{el(TypeParagraph, 1, "hello")})
	root := g.Nodes[g.DocumentInfo.RootId]
	require.Nil(t, root.Location.Semantic.Breadcrumbs)
}

func TestBuildDeterministicIds(t *testing.T) {
	elements := []ParsedElement{el(TypeParagraph, 1, "same text")}
	g1 := Build("fingerprint-x", "", elements)
	g2 := Build("fingerprint-x", "", elements)

	require.Equal(t, g1.DocumentInfo.RootId, g2.DocumentInfo.RootId)

	var id1, id2 NodeId
	for id, n := range g1.Nodes {
		if n.NodeType == TypeParagraph {
			id1 = id
		}
	}
	for id, n := range g2.Nodes {
		if n.NodeType == TypeParagraph {
			id2 = id
		}
	}
	require.Equal(t, id1, id2)
}

func TestBuildTextOrderStrictlyIncreasing(t *testing.T) {
	elements := []ParsedElement{
		el(TypeParagraph, 1, "first"),
		el(TypeParagraph, 1, "second"),
		el(TypeParagraph, 1, "third"),
	}
	g := Build("fp", "", elements)

	var orders []int
	for _, n := range g.Nodes {
		if n.TextOrder != nil {
			orders = append(orders, *n.TextOrder)
		}
	}
	require.Len(t, orders, 3)
	seen := map[int]bool{}
	for _, o := range orders {
		require.False(t, seen[o], "duplicate text_order %d", o)
		seen[o] = true
	}
}
