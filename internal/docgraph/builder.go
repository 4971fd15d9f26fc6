// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package docgraph

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// stackFrame is one entry of the graph builder's ancestor stack.
type stackFrame struct {
	id    NodeId
	depth int
}

// computeNodeId derives a deterministic id from the document
// fingerprint, text order and node type, per the design note that
// ids must be position-derivable rather than randomly assigned. The
// root node uses the literal "root" marker in place of a text order.
func computeNodeId(fingerprint string, textOrder *int, nodeType ElementType) NodeId {
	h := sha256.New()
	h.Write([]byte(fingerprint))
	h.Write([]byte{0})
	if textOrder == nil {
		h.Write([]byte("root"))
	} else {
		fmt.Fprintf(h, "%d", *textOrder)
	}
	h.Write([]byte{0})
	h.Write([]byte(nodeType))
	return NodeId(hex.EncodeToString(h.Sum(nil)))
}

// BuildInput is one ParsedElement plus the physical placement the
// graph builder should attach when the source format is fixed-flow.
type BuildInput struct {
	Element     ParsedElement
	HasPhysical bool
}

// Build constructs a DocumentGraph from an ordered ParsedElement
// sequence, following the stack-discipline algorithm: elements at
// hierarchy_level <= 1 parent to root; otherwise the stack is popped
// while its top has depth >= the element's level, and the new top
// becomes the parent. Section elements push themselves onto the
// stack. Edges are not modeled — only id-based parent/children
// pointers and NodeLocation.
func Build(fingerprint string, title string, elements []ParsedElement) *DocumentGraph {
	nodes := make(map[NodeId]*DocumentNode)

	rootId := computeNodeId(fingerprint, nil, TypeDocument)
	rootText := "Document"
	if title != "" {
		rootText = title
	}
	root := &DocumentNode{
		Id:        rootId,
		NodeType:  TypeDocument,
		Location:  NodeLocation{Semantic: SemanticLocation{Path: "", Depth: 0, Breadcrumbs: nil}},
		TextOrder: nil,
		Content:   NodeContent{Text: rootText},
	}
	nodes[rootId] = root

	stack := []stackFrame{{id: rootId, depth: 0}}

	for i, el := range elements {
		level := el.HierarchyLevel
		if level < 1 {
			level = 1
		}

		var parentId NodeId
		if level <= 1 {
			stack = stack[:1]
			parentId = rootId
		} else {
			for len(stack) > 1 && stack[len(stack)-1].depth >= level {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				parentId = rootId
				stack = []stackFrame{{id: rootId, depth: 0}}
			} else {
				parentId = stack[len(stack)-1].id
			}
		}

		parent := nodes[parentId]
		textOrder := i
		nodeId := computeNodeId(fingerprint, &textOrder, el.ElementType)

		path := fmt.Sprintf("%d", len(parent.Children)+1)
		if parent.Location.Semantic.Path != "" {
			path = parent.Location.Semantic.Path + "." + path
		}

		loc := NodeLocation{Semantic: SemanticLocation{Path: path, Depth: level}}
		if el.BoundingBox.Valid() {
			loc.Physical = &PhysicalLocation{Page: el.PageNumber, BoundingBox: el.BoundingBox}
		}

		node := &DocumentNode{
			Id:         nodeId,
			NodeType:   el.ElementType,
			Location:   loc,
			TextOrder:  &textOrder,
			Content:    NodeContent{Text: el.Text},
			Style:      styleMetadataFor(el),
			TokenCount: el.TokenCount,
			Parent:     &parentId,
		}
		nodes[nodeId] = node
		parent.Children = append(parent.Children, nodeId)

		if el.ElementType == TypeSection {
			stack = append(stack, stackFrame{id: nodeId, depth: level})
		}
	}

	var rootBreadcrumbs []string
	if title != "" {
		rootBreadcrumbs = []string{title}
	}
	computeBreadcrumbs(nodes, rootId, rootBreadcrumbs)

	return &DocumentGraph{
		SchemaVersion: SchemaVersion,
		Nodes:         nodes,
		DocumentInfo:  DocumentInfo{RootId: rootId},
	}
}

func styleMetadataFor(el ParsedElement) *StyleMetadata {
	return &StyleMetadata{
		FontClass:  el.Style.ClassName,
		FontSize:   el.Style.FontSize,
		FontFamily: el.Style.FontFamily,
		Color:      el.Style.Color,
		Bold:       el.Style.IsBold(),
		Italic:     el.Style.IsItalic(),
	}
}

// computeBreadcrumbs walks the tree top-down from root, assigning
// each non-Section node its parent's breadcrumbs and each Section
// node its parent's breadcrumbs plus its own text (I6). The initial
// inherited slice passed for root is []string{title} when the
// document title is known, so root's own breadcrumbs (and, by the
// non-Section propagation rule, every node's until the first nested
// Section) carry the title rather than starting empty.
func computeBreadcrumbs(nodes map[NodeId]*DocumentNode, id NodeId, inherited []string) {
	node := nodes[id]
	node.Location.Semantic.Breadcrumbs = inherited

	childBreadcrumbs := inherited
	if node.NodeType == TypeSection {
		childBreadcrumbs = append(append([]string{}, inherited...), strings.TrimSpace(node.Content.Text))
	}

	for _, childId := range node.Children {
		computeBreadcrumbs(nodes, childId, childBreadcrumbs)
	}
}
