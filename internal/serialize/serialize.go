// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package serialize projects a DocumentGraph into the three
// documented output shapes: graph, sequential, and flat.
package serialize

import (
	"encoding/json"
	"sort"

	"github.com/jruiz/blazegraph/internal/docgraph"
)

// sortedNodes returns the graph's nodes ordered by text_order, with
// the Document root (text_order == nil) sorted first.
func sortedNodes(g *docgraph.DocumentGraph) []*docgraph.DocumentNode {
	nodes := make([]*docgraph.DocumentNode, 0, len(g.Nodes))
	for _, n := range g.Nodes {
		nodes = append(nodes, n)
	}
	sort.SliceStable(nodes, func(i, j int) bool {
		a, b := nodes[i].TextOrder, nodes[j].TextOrder
		switch {
		case a == nil && b == nil:
			return false
		case a == nil:
			return true
		case b == nil:
			return false
		default:
			return *a < *b
		}
	})
	return nodes
}

// GraphNode is the canonical per-node shape in the "graph" output;
// field order matches the documented contract.
type GraphNode struct {
	Id         docgraph.NodeId          `json:"id"`
	NodeType   docgraph.ElementType     `json:"node_type"`
	Location   docgraph.NodeLocation    `json:"location"`
	TextOrder  *int                     `json:"text_order"`
	Content    docgraph.NodeContent     `json:"content"`
	Style      *docgraph.StyleMetadata  `json:"style,omitempty"`
	TokenCount int                      `json:"token_count"`
	Parent     *docgraph.NodeId         `json:"parent"`
	Children   []docgraph.NodeId        `json:"children"`
}

// GraphDocument is the canonical "graph" serialization: schema
// version, nodes sorted by text_order (Document first), document
// info, and structural profile.
type GraphDocument struct {
	SchemaVersion     string                      `json:"schema_version"`
	Nodes             []GraphNode                 `json:"nodes"`
	DocumentInfo      docgraph.DocumentInfo        `json:"document_info"`
	StructuralProfile docgraph.StructuralProfile   `json:"structural_profile"`
}

// ToGraph renders g as the canonical shape. stripStyle omits each
// node's style metadata for a more compact output.
func ToGraph(g *docgraph.DocumentGraph, stripStyle bool) GraphDocument {
	var nodes []GraphNode
	for _, n := range sortedNodes(g) {
		gn := GraphNode{
			Id: n.Id, NodeType: n.NodeType, Location: n.Location, TextOrder: n.TextOrder,
			Content: n.Content, TokenCount: n.TokenCount, Parent: n.Parent, Children: n.Children,
		}
		if !stripStyle {
			gn.Style = n.Style
		}
		nodes = append(nodes, gn)
	}
	return GraphDocument{
		SchemaVersion:     g.SchemaVersion,
		Nodes:             nodes,
		DocumentInfo:      g.DocumentInfo,
		StructuralProfile: g.StructuralProfile,
	}
}

// SequentialSegment is one entry of the "sequential" projection.
type SequentialSegment struct {
	Id       int                     `json:"id"`
	NodeType docgraph.ElementType    `json:"node_type"`
	Text     string                  `json:"text"`
	Location docgraph.NodeLocation   `json:"location"`
	Style    *docgraph.StyleMetadata `json:"style,omitempty"`
	Tokens   int                     `json:"tokens"`
}

// SequentialDocument is the flat, tree-traversal-order projection.
type SequentialDocument struct {
	Format            string                     `json:"format"`
	Segments          []SequentialSegment         `json:"segments"`
	StructuralProfile docgraph.StructuralProfile `json:"structural_profile"`
}

// ToSequential renders g as a flat ordered array of segments.
func ToSequential(g *docgraph.DocumentGraph, stripStyle bool) SequentialDocument {
	var segments []SequentialSegment
	for i, n := range sortedNodes(g) {
		seg := SequentialSegment{Id: i, NodeType: n.NodeType, Text: n.Content.Text, Location: n.Location, Tokens: n.TokenCount}
		if !stripStyle {
			seg.Style = n.Style
		}
		segments = append(segments, seg)
	}
	return SequentialDocument{Format: "sequential", Segments: segments, StructuralProfile: g.StructuralProfile}
}

// FlatDocument is just the array of text strings.
type FlatDocument struct {
	Format string   `json:"format"`
	Chunks []string `json:"chunks"`
}

// ToFlat renders g as the array of node text strings, in the same
// order as ToSequential.
func ToFlat(g *docgraph.DocumentGraph) FlatDocument {
	var chunks []string
	for _, n := range sortedNodes(g) {
		chunks = append(chunks, n.Content.Text)
	}
	return FlatDocument{Format: "flat", Chunks: chunks}
}

// MarshalIndent is a thin convenience wrapper so callers don't import
// encoding/json directly for the common pretty-printed case.
func MarshalIndent(v interface{}) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}
