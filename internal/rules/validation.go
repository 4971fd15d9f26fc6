// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

// ValidationIssueKind tags the shape of one ValidationIssue.
type ValidationIssueKind string

const (
	IssueHierarchyJump             ValidationIssueKind = "hierarchy_jump"
	IssueOrphanedElement           ValidationIssueKind = "orphaned_element"
	IssueSuspiciousSection         ValidationIssueKind = "suspicious_section"
	IssueReadingOrderInconsistency ValidationIssueKind = "reading_order_inconsistency"
	IssuePageInconsistency         ValidationIssueKind = "page_inconsistency"
	IssueInvalidPosition           ValidationIssueKind = "invalid_position"
)

// ValidationIssue is a single non-fatal structural finding.
type ValidationIssue struct {
	Kind     ValidationIssueKind `json:"kind"`
	Position int                 `json:"position"`
	Detail   string              `json:"detail"`
}

// Validation scans the element sequence and records issues; it never
// mutates elements. Findings and the resulting quality_score are
// attached to ctx; internal/pipeline returns them on its Result. The
// graph's StructuralProfile does not include them.
func Validation(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	var issues []ValidationIssue
	maxDepth := cfg.SectionAndHierarchy.MaxDepth

	for i, e := range elements {
		if e.HierarchyLevel > maxDepth {
			issues = append(issues, ValidationIssue{Kind: IssueOrphanedElement, Position: i, Detail: preview(e.Text, 50)})
		}
		if i > 0 && e.HierarchyLevel > elements[i-1].HierarchyLevel+1 {
			issues = append(issues, ValidationIssue{Kind: IssueHierarchyJump, Position: i, Detail: "level jump from previous element"})
		}
	}

	expectedOrder := 0
	for i, e := range elements {
		lowBound := expectedOrder - 5
		if lowBound < 0 {
			lowBound = 0
		}
		if e.ReadingOrder < lowBound || e.ReadingOrder > expectedOrder+10 {
			issues = append(issues, ValidationIssue{Kind: IssueReadingOrderInconsistency, Position: i, Detail: "reading order out of tolerance window"})
		}
		expectedOrder = e.ReadingOrder + 1
	}

	for i, e := range elements {
		if !e.BoundingBox.Valid() {
			issues = append(issues, ValidationIssue{Kind: IssueInvalidPosition, Position: i, Detail: "degenerate bounding box"})
		}
	}

	for i, e := range elements {
		if e.PageNumber == 0 {
			issues = append(issues, ValidationIssue{Kind: IssuePageInconsistency, Position: i, Detail: "page number is 0"})
		}
		if i > 0 && e.PageNumber > elements[i-1].PageNumber+5 {
			issues = append(issues, ValidationIssue{Kind: IssuePageInconsistency, Position: i, Detail: "large page jump"})
		}
	}

	for i, e := range elements {
		if e.ElementType != docgraph.TypeSection {
			continue
		}
		text := trimmed(e.Text)
		switch {
		case len(text) < 3:
			issues = append(issues, ValidationIssue{Kind: IssueSuspiciousSection, Position: i, Detail: "section text too short"})
		case len(text) > 200:
			issues = append(issues, ValidationIssue{Kind: IssueSuspiciousSection, Position: i, Detail: "section text unusually long"})
		}
	}

	quality := 1.0
	if len(elements) > 0 {
		quality = 1.0 - float64(len(issues))/float64(len(elements))
		if quality < 0 {
			quality = 0
		}
	}

	ctx.ValidationIssues = issues
	ctx.QualityScore = quality

	if ctx.Log != nil {
		ctx.Log.Infow("structural validation complete", "quality_score", quality, "issues", len(issues))
	}

	return elements
}

func trimmed(s string) string {
	start, end := 0, len(s)
	for start < end && isSpace(s[start]) {
		start++
	}
	for end > start && isSpace(s[end-1]) {
		end--
	}
	return s[start:end]
}

func isSpace(b byte) bool {
	return b == ' ' || b == '\t' || b == '\n' || b == '\r'
}

func preview(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
