// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package rules

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/samber/lo"

	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

type markerKind int

const (
	markerNone markerKind = iota
	markerBullet
	markerNumbered
	markerAlphaLower
	markerAlphaUpper
	markerRomanLower
	markerRomanUpper
)

var (
	numberRe    = regexp.MustCompile(`^\(?(\d+)[.)]`)
	alphaLowerRe = regexp.MustCompile(`^([a-z])[.)]`)
	alphaUpperRe = regexp.MustCompile(`^([A-Z])[.)]`)
	romanLowerRe = regexp.MustCompile(`^([ivxlc]+)\.`)
	romanUpperRe = regexp.MustCompile(`^([IVXLC]+)\.`)
	parenNumRe   = regexp.MustCompile(`^\((\d+)\)`)
)

func classifyMarker(text string, bullets []string) (markerKind, string) {
	trimmed := strings.TrimSpace(text)
	for _, b := range bullets {
		if strings.HasPrefix(trimmed, b) {
			return markerBullet, b
		}
	}
	if m := parenNumRe.FindStringSubmatch(trimmed); m != nil {
		return markerNumbered, m[1]
	}
	if m := numberRe.FindStringSubmatch(trimmed); m != nil {
		return markerNumbered, m[1]
	}
	if m := romanUpperRe.FindStringSubmatch(trimmed); m != nil && len(m[1]) <= 4 {
		return markerRomanUpper, m[1]
	}
	if m := romanLowerRe.FindStringSubmatch(trimmed); m != nil && len(m[1]) <= 4 {
		return markerRomanLower, m[1]
	}
	if m := alphaUpperRe.FindStringSubmatch(trimmed); m != nil {
		return markerAlphaUpper, m[1]
	}
	if m := alphaLowerRe.FindStringSubmatch(trimmed); m != nil {
		return markerAlphaLower, m[1]
	}
	return markerNone, ""
}

type listSequence struct {
	start, end int // indices into elements, inclusive
	markers    []int
	kind       markerKind
}

// ListDetection recovers bullet/numbered lists via two-phase
// detection: marker-sequence discovery, then content attribution and
// a validation battery that rejects math-context false positives,
// mis-started sequences, and bare word-continuation hyphens.
func ListDetection(elements []docgraph.ParsedElement, cfg config.ParsingConfig, ctx *Context) []docgraph.ParsedElement {
	ld := cfg.ListDetection
	if !ld.Enabled || len(elements) == 0 {
		return elements
	}

	markerKinds := make([]markerKind, len(elements))
	for i, e := range elements {
		if e.ElementType != docgraph.TypeParagraph {
			continue
		}
		k, _ := classifyMarker(e.Text, ld.BulletPatterns)
		markerKinds[i] = k
	}

	var sequences []listSequence
	var current *listSequence
	for i, k := range markerKinds {
		if k == markerNone {
			continue
		}
		if current == nil {
			current = &listSequence{start: i, end: i, kind: k, markers: []int{i}}
			continue
		}
		if i-current.markers[len(current.markers)-1] <= ld.SequenceLookaheadElements && compatibleMarkerKind(current.kind, k) {
			current.markers = append(current.markers, i)
			current.end = i
			continue
		}
		sequences = append(sequences, *current)
		current = &listSequence{start: i, end: i, kind: k, markers: []int{i}}
	}
	if current != nil {
		sequences = append(sequences, *current)
	}

	for i := range sequences {
		ext := sequences[i].end + ld.SequenceBoundaryExtension
		if ext >= len(elements) {
			ext = len(elements) - 1
		}
		sequences[i].end = ext
	}

	consumed := make([]bool, len(elements))
	var replacements []docgraph.ParsedElement

	for _, seq := range sequences {
		if len(seq.markers) < 2 || !validateSequence(elements, seq, ld) {
			continue
		}

		items := attributeContent(elements, seq, ld)
		if len(items) < 2 {
			continue
		}

		for idx := seq.start; idx <= seq.end && idx < len(elements); idx++ {
			consumed[idx] = true
		}

		listItems := lo.Map(items, func(merged docgraph.ParsedElement, _ int) docgraph.ParsedElement {
			merged.ElementType = docgraph.TypeListItem
			return merged
		})

		if ld.CreateListContainers {
			container := listItems[0]
			container.ElementType = docgraph.TypeList
			container.Text = ""
			container.TokenCount = lo.SumBy(listItems, func(e docgraph.ParsedElement) int { return e.TokenCount })
			for _, it := range listItems[1:] {
				container.BoundingBox = container.BoundingBox.Union(it.BoundingBox)
			}
			replacements = append(replacements, container)
			if ld.PreserveListItems {
				replacements = append(replacements, listItems...)
			}
		} else {
			replacements = append(replacements, listItems...)
		}
	}

	if len(replacements) == 0 {
		return elements
	}

	out := make([]docgraph.ParsedElement, 0, len(elements))
	replIdx := 0
	inConsumedRun := false
	for i, e := range elements {
		if consumed[i] {
			if !inConsumedRun {
				inConsumedRun = true
			}
			continue
		}
		if inConsumedRun {
			for replIdx < len(replacements) {
				out = append(out, replacements[replIdx])
				replIdx++
			}
			inConsumedRun = false
		}
		out = append(out, e)
	}
	for replIdx < len(replacements) {
		out = append(out, replacements[replIdx])
		replIdx++
	}

	if ctx.Log != nil {
		ctx.Log.Debugw("list detection complete", "sequences", len(sequences), "kept", len(replacements))
	}

	return out
}

func compatibleMarkerKind(a, b markerKind) bool {
	if a == b {
		return true
	}
	if a == markerBullet || b == markerBullet {
		return false
	}
	return true
}

func attributeContent(elements []docgraph.ParsedElement, seq listSequence, ld config.ListDetectionConfig) []docgraph.ParsedElement {
	var items []docgraph.ParsedElement
	markers := seq.markers
	for mi, markerIdx := range markers {
		end := seq.end
		if mi+1 < len(markers) {
			end = markers[mi+1] - 1
		}
		if end >= len(elements) {
			end = len(elements) - 1
		}
		merged := elements[markerIdx]
		for j := markerIdx + 1; j <= end; j++ {
			if markerIdx != markers[len(markers)-1] {
				// non-final item: stop at next marker boundary already handled by `end`
			}
			merged.Text = merged.Text + " " + elements[j].Text
			merged.BoundingBox = merged.BoundingBox.Union(elements[j].BoundingBox)
			merged.TokenCount += elements[j].TokenCount
		}
		items = append(items, merged)
	}
	return items
}

// romanToInt converts a subtractive-notation roman numeral restricted
// to I, V, X, L, C (the set romanLowerRe/romanUpperRe can match) to
// its integer value.
func romanToInt(s string) (int, bool) {
	values := map[byte]int{'I': 1, 'V': 5, 'X': 10, 'L': 50, 'C': 100}
	up := strings.ToUpper(s)
	total := 0
	for i := 0; i < len(up); i++ {
		v, ok := values[up[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(up) {
			if next, ok2 := values[up[i+1]]; ok2 && v < next {
				total -= v
				continue
			}
		}
		total += v
	}
	return total, true
}

// markerOrdinal extracts the ordinal value a marker of the given kind
// represents (1-based), so consecutive markers in a sequence can be
// checked for gaps.
func markerOrdinal(kind markerKind, text string) (int, bool) {
	trimmed := strings.TrimSpace(text)
	switch kind {
	case markerNumbered:
		if m := parenNumRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
		if m := numberRe.FindStringSubmatch(trimmed); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil {
				return n, true
			}
		}
	case markerAlphaLower:
		if m := alphaLowerRe.FindStringSubmatch(trimmed); m != nil {
			return int(m[1][0]-'a') + 1, true
		}
	case markerAlphaUpper:
		if m := alphaUpperRe.FindStringSubmatch(trimmed); m != nil {
			return int(m[1][0]-'A') + 1, true
		}
	case markerRomanLower:
		if m := romanLowerRe.FindStringSubmatch(trimmed); m != nil {
			return romanToInt(m[1])
		}
	case markerRomanUpper:
		if m := romanUpperRe.FindStringSubmatch(trimmed); m != nil {
			return romanToInt(m[1])
		}
	}
	return 0, false
}

// sequentialNumberingOK rejects sequences whose markers skip ahead by
// more than MaxGapTolerance beyond the next expected ordinal (e.g.
// "1.", "2.", "5." with MaxGapTolerance 0 skips 3 and 4). Letter
// sequences (alpha kinds) are only checked when AllowLetterSequences
// is set; markers whose ordinal can't be parsed are skipped rather
// than rejected.
func sequentialNumberingOK(elements []docgraph.ParsedElement, seq listSequence, cfg config.SequentialNumberingConfig) bool {
	isLetterKind := seq.kind == markerAlphaLower || seq.kind == markerAlphaUpper
	if isLetterKind && !cfg.AllowLetterSequences {
		return true
	}

	prev, ok := markerOrdinal(seq.kind, elements[seq.markers[0]].Text)
	if !ok {
		return true
	}
	for _, mi := range seq.markers[1:] {
		cur, curOk := markerOrdinal(seq.kind, elements[mi].Text)
		if !curOk {
			continue
		}
		if gap := cur - prev - 1; gap > cfg.MaxGapTolerance {
			return false
		}
		prev = cur
	}
	return true
}

func validateSequence(elements []docgraph.ParsedElement, seq listSequence, ld config.ListDetectionConfig) bool {
	v := ld.Validation
	if !v.Enabled {
		return true
	}
	if v.MinimumSizeCheck && len(seq.markers) < 2 {
		return false
	}

	firstText := strings.TrimSpace(elements[seq.markers[0]].Text)
	if v.FirstItemValidation {
		switch seq.kind {
		case markerNumbered:
			if m := numberRe.FindStringSubmatch(firstText); m == nil || m[1] != "1" {
				if m2 := parenNumRe.FindStringSubmatch(firstText); m2 == nil || m2[1] != "1" {
					return false
				}
			}
		case markerAlphaLower:
			if m := alphaLowerRe.FindStringSubmatch(firstText); m == nil || m[1] != "a" {
				return false
			}
		case markerAlphaUpper:
			if m := alphaUpperRe.FindStringSubmatch(firstText); m == nil || m[1] != "A" {
				return false
			}
		case markerRomanLower:
			if m := romanLowerRe.FindStringSubmatch(firstText); m == nil || m[1] != "i" {
				return false
			}
		case markerRomanUpper:
			if m := romanUpperRe.FindStringSubmatch(firstText); m == nil || m[1] != "I" {
				return false
			}
		}
	}

	if v.ParentheticalContextCheck && parenNumRe.MatchString(firstText) {
		if m := parenNumRe.FindStringSubmatch(firstText); m != nil && m[1] != "1" {
			return false
		}
	}

	if v.HyphenContextCheck && seq.kind == markerBullet {
		for _, mi := range seq.markers {
			text := elements[mi].Text
			if strings.HasPrefix(strings.TrimSpace(text), "-") {
				if v.HyphenContext.RequireSpaceAfter && !strings.HasPrefix(strings.TrimSpace(text), "- ") {
					return false
				}
			}
		}
	}

	if v.SequentialNumberingCheck && !sequentialNumberingOK(elements, seq, v.SequentialNumbering) {
		return false
	}

	if v.MathematicalContextCheck {
		for _, mi := range seq.markers {
			text := elements[mi].Text
			for _, sym := range v.MathematicalContext.Symbols {
				if strings.Contains(text, sym) {
					return false
				}
			}
		}
	}

	return true
}
