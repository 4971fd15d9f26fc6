// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package rules implements the configurable pass pipeline that turns
// a PreprocessorOutput into a sequence of ParsedElements: base
// conversion, then each enabled pass in config order.
package rules

import (
	"go.uber.org/zap"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
	"github.com/jruiz/blazegraph/internal/fontstats"
)

// Pass is a pure transformation over the working element sequence.
type Pass func(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement

// Context carries read-only cross-pass state: the font analysis and a
// logger. Validation writes its findings back onto ctx.
type Context struct {
	Log              *zap.SugaredLogger
	FontAnalysis     fontstats.Analysis
	ValidationIssues []ValidationIssue
	QualityScore     float64
}

var registry = map[string]Pass{
	"SectionAndHierarchyDetection": SectionAndHierarchyDetection,
	"PatternBasedSectionDetection": PatternBasedSectionDetection,
	"SpatialClustering":            SpatialClustering,
	"ListDetection":                ListDetection,
	"SizeEnforcer":                 SizeEnforcer,
	"Validation":                   Validation,
}

// Engine runs the configured pipeline against a PreprocessorOutput.
type Engine struct {
	Log *zap.SugaredLogger
}

// NewEngine constructs an Engine with the given logger.
func NewEngine(log *zap.SugaredLogger) *Engine {
	return &Engine{Log: log}
}

// Result is the outcome of one Engine.Run.
type Result struct {
	Elements         []docgraph.ParsedElement
	ValidationIssues []ValidationIssue
	QualityScore     float64
}

// BaseConvert turns raw text elements into level-1 Paragraph
// ParsedElements, preserving position and reading order.
func BaseConvert(elements []docgraph.TextElement) []docgraph.ParsedElement {
	out := make([]docgraph.ParsedElement, len(elements))
	for i, e := range elements {
		out[i] = docgraph.ParsedElement{
			ElementType:     docgraph.TypeParagraph,
			Text:            e.Text,
			Style:           e.Style,
			BoundingBox:     e.BoundingBox,
			PageNumber:      e.PageNumber,
			ParagraphNumber: e.ParagraphNumber,
			ReadingOrder:    e.ReadingOrder,
			HierarchyLevel:  1,
			Position:        i,
			TokenCount:      e.TokenCount,
			BookmarkMatch:   e.BookmarkMatch,
		}
	}
	return out
}

// Run executes base conversion followed by every enabled configured
// pass, in order. minimal_parse short-circuits immediately after base
// conversion. An unknown pass name is logged and skipped, never
// fatal.
func (e *Engine) Run(output docgraph.PreprocessorOutput, cfg config.ParsingConfig) Result {
	elements := BaseConvert(output.TextElements)

	if cfg.MinimalParse {
		return Result{Elements: elements}
	}

	fontElements := make([]fontstats.Element, len(output.TextElements))
	for i, te := range output.TextElements {
		fontElements[i] = fontstats.Element{FontSize: te.Style.FontSize, ClassName: te.Style.ClassName}
	}
	ctx := &Context{Log: e.Log, FontAnalysis: fontstats.Analyze(fontElements)}

	for _, rc := range cfg.EffectiveRules() {
		if !rc.Enabled {
			continue
		}
		pass, ok := registry[rc.Name]
		if !ok {
			if e.Log != nil {
				e.Log.Warnw("unknown pipeline rule name, skipping", "rule", rc.Name)
			}
			continue
		}
		elements = pass(elements, cfg, ctx)
	}

	return Result{Elements: elements, ValidationIssues: ctx.ValidationIssues, QualityScore: ctx.QualityScore}
}
