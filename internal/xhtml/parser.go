// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package xhtml translates the extractor's XHTML dialect into a
// docgraph.PreprocessorOutput: pages of <p><span> runs, a <style>
// block of per-class font rules, <meta> document metadata, and an
// optional flat bookmark outline.
package xhtml

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/blevesearch/segment"
	"golang.org/x/text/unicode/norm"

	"github.com/jruiz/blazegraph/internal/docerr"
	"github.com/jruiz/blazegraph/internal/docgraph"
	"github.com/jruiz/blazegraph/sliceedit"
)

var styleRuleRe = regexp.MustCompile(`\.([A-Za-z0-9_-]+)\s*\{([^}]*)\}`)
var declRe = regexp.MustCompile(`([a-zA-Z-]+)\s*:\s*([^;]+);?`)

// Sanitize strips control characters and a handful of malformed
// entities that extractors occasionally emit, using sliceedit's
// queued-edit buffer so the whole pass costs one allocation.
func Sanitize(raw []byte) []byte {
	buf := sliceedit.NewBuffer(raw)
	for _, ctrl := range []string{"\x00", "\x01", "\x02", "\x03", "\x1b"} {
		buf.DeleteAllString(ctrl)
	}
	buf.ReplaceAllString("&nbsp;", " ")
	return buf.Bytes()
}

// Parse converts raw XHTML bytes into a PreprocessorOutput per the
// documented dialect. Malformed bounding boxes drop the owning run;
// a missing style block yields an empty style table with fallback
// FontClass values synthesized per unknown class name; missing
// bookmarks yield a nil BookmarkData.
func Parse(raw []byte) (docgraph.PreprocessorOutput, error) {
	clean := Sanitize(raw)
	clean = norm.NFC.Bytes(clean)

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(clean)))
	if err != nil {
		return docgraph.PreprocessorOutput{}, docerr.NewInputError("xhtml.Parse", "", fmt.Errorf("parse xhtml: %w", err))
	}

	styles := parseStyles(doc)
	metadata := parseMetadata(doc)
	bookmarks := parseBookmarks(doc)

	type pageElements struct {
		page     int
		elements []docgraph.TextElement
	}
	var pages []pageElements
	paragraphCounter := 0

	doc.Find("div.page").Each(func(_ int, pageSel *goquery.Selection) {
		pageNum, _ := strconv.Atoi(pageSel.AttrOr("data-page", "0"))
		var elems []docgraph.TextElement

		pageSel.Find("p").Each(func(_ int, pSel *goquery.Selection) {
			paragraphCounter++
			paragraphNumber := paragraphCounter

			pSel.Find("span").Each(func(_ int, spanSel *goquery.Selection) {
				text := strings.TrimSpace(spanSel.Text())
				if text == "" {
					return
				}
				bbox, ok := parseBBox(spanSel.AttrOr("data-bbox", ""))
				if !ok {
					return
				}
				className := spanSel.AttrOr("class", "")
				style, known := styles.FontClasses[className]
				if !known {
					style = docgraph.FallbackFontClass(className)
				}
				lineNum, _ := strconv.Atoi(spanSel.AttrOr("data-line", "0"))
				segNum, _ := strconv.Atoi(spanSel.AttrOr("data-segment", "0"))

				var bookmarkMatch *docgraph.BookmarkSection
				if bookmarks != nil {
					for i := range bookmarks.Sections {
						if bookmarks.Sections[i].Title == text {
							m := bookmarks.Sections[i]
							bookmarkMatch = &m
							break
						}
					}
				}

				elems = append(elems, docgraph.TextElement{
					Text:            text,
					Style:           style,
					BoundingBox:     bbox,
					PageNumber:      pageNum,
					ParagraphNumber: paragraphNumber,
					LineNumber:      lineNum,
					SegmentNumber:   segNum,
					BookmarkMatch:   bookmarkMatch,
					TokenCount:      EstimateTokens(text),
				})
			})
		})

		// Within a page, sort stably by y then x.
		sort.SliceStable(elems, func(i, j int) bool {
			if elems[i].BoundingBox.Y != elems[j].BoundingBox.Y {
				return elems[i].BoundingBox.Y < elems[j].BoundingBox.Y
			}
			return elems[i].BoundingBox.X < elems[j].BoundingBox.X
		})

		pages = append(pages, pageElements{page: pageNum, elements: elems})
	})

	sort.SliceStable(pages, func(i, j int) bool { return pages[i].page < pages[j].page })

	var all []docgraph.TextElement
	order := 0
	for _, p := range pages {
		for _, e := range p.elements {
			e.ReadingOrder = order
			order++
			all = append(all, e)
		}
	}

	return docgraph.PreprocessorOutput{
		TextElements: all,
		Metadata:     metadata,
		StyleData:    styles,
		BookmarkData: bookmarks,
	}, nil
}

func parseBBox(raw string) (docgraph.BoundingBox, bool) {
	parts := strings.Split(raw, ",")
	if len(parts) != 4 {
		return docgraph.BoundingBox{}, false
	}
	vals := make([]float64, 4)
	for i, p := range parts {
		v, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return docgraph.BoundingBox{}, false
		}
		vals[i] = v
	}
	box := docgraph.BoundingBox{X: vals[0], Y: vals[1], Width: vals[2], Height: vals[3]}
	if !box.Valid() {
		return docgraph.BoundingBox{}, false
	}
	return box, true
}

func parseStyles(doc *goquery.Document) docgraph.StyleData {
	classes := make(map[string]docgraph.FontClass)
	doc.Find("style").Each(func(_ int, styleSel *goquery.Selection) {
		for _, m := range styleRuleRe.FindAllStringSubmatch(styleSel.Text(), -1) {
			className, body := m[1], m[2]
			fc := docgraph.FontClass{ClassName: className, FontFamily: "unknown", FontSize: 12, FontStyle: "normal", FontWeight: "normal", Color: "#000000"}
			for _, d := range declRe.FindAllStringSubmatch(body, -1) {
				key, val := strings.TrimSpace(d[1]), strings.TrimSpace(d[2])
				switch key {
				case "font-family":
					fc.FontFamily = val
				case "font-size":
					if size, err := strconv.ParseFloat(strings.TrimSuffix(val, "px"), 64); err == nil {
						fc.FontSize = size
					}
				case "font-style":
					fc.FontStyle = val
				case "font-weight":
					fc.FontWeight = val
				case "color":
					fc.Color = val
				}
			}
			// Last definition of a class wins, matching this dialect's
			// documented quirk.
			classes[className] = fc
		}
	})
	return docgraph.StyleData{FontClasses: classes}
}

var metaNameMap = map[string]func(*docgraph.DocumentMetadata, string){
	"dc:title":     func(m *docgraph.DocumentMetadata, v string) { m.Title = v },
	"dc:creator":   func(m *docgraph.DocumentMetadata, v string) { m.Author = v },
	"dc:language":  func(m *docgraph.DocumentMetadata, v string) { m.Language = v },
	"dc:publisher": func(m *docgraph.DocumentMetadata, v string) { m.Publisher = v },
	"dc:description": func(m *docgraph.DocumentMetadata, v string) { m.Description = v },
	"xmp:creatortool": func(m *docgraph.DocumentMetadata, v string) { m.CreatorTool = v },
	"pdf:producer":    func(m *docgraph.DocumentMetadata, v string) { m.Producer = v },
	"pdf:pdfversion":  func(m *docgraph.DocumentMetadata, v string) { m.PDFVersion = v },
	"dcterms:created":  func(m *docgraph.DocumentMetadata, v string) { m.Created = v },
	"dcterms:modified": func(m *docgraph.DocumentMetadata, v string) { m.Modified = v },
}

func parseMetadata(doc *goquery.Document) docgraph.DocumentMetadata {
	var meta docgraph.DocumentMetadata
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		name := strings.ToLower(s.AttrOr("name", ""))
		content := s.AttrOr("content", "")
		if set, ok := metaNameMap[name]; ok {
			set(&meta, content)
		}
	})
	meta.PageCount = doc.Find("div.page").Length()
	return meta
}

func parseBookmarks(doc *goquery.Document) *docgraph.BookmarkData {
	var sections []docgraph.BookmarkSection
	doc.Find("ul").First().Find("li").Each(func(i int, s *goquery.Selection) {
		title := strings.TrimSpace(s.Text())
		if title == "" {
			return
		}
		sections = append(sections, docgraph.BookmarkSection{Title: title, Order: i})
	})
	if len(sections) == 0 {
		return nil
	}
	return &docgraph.BookmarkData{Sections: sections}
}

// EstimateTokens gives a fast, non-exact token-count approximation
// using UAX-29 word segmentation rather than the crude len/4
// heuristic a byte-oriented parser would otherwise use. Only word
// segments count; whitespace and punctuation segments are skipped.
func EstimateTokens(text string) int {
	if text == "" {
		return 0
	}
	segmenter := segment.NewWordSegmenter(strings.NewReader(text))
	count := 0
	for segmenter.Segment() {
		if segmenter.Type() != segment.None {
			count++
		}
	}
	if segmenter.Err() != nil || count == 0 {
		return len(strings.Fields(text))
	}
	return count
}
