// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package xhtml

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

const sampleDoc = `<html><head>
<style>
.c1 { font-family: Arial; font-size: 20px; font-weight: bold; color: #000000; }
.c2 { font-family: Arial; font-size: 10px; font-weight: normal; }
</style>
<meta name="dc:title" content="Sample Report">
<meta name="dc:creator" content="Jane Doe">
</head><body>
<ul><li>Introduction</li><li>Background</li></ul>
<div class="page" data-page="1">
<p><span class="c1" data-bbox="10,10,200,20" data-line="1" data-segment="1">Introduction</span></p>
<p><span class="c2" data-bbox="10,40,200,20" data-line="2" data-segment="1">Body text here.</span></p>
<p><span class="c2" data-bbox="bad,bbox,value,x" data-line="3" data-segment="1">Dropped run.</span></p>
</div>
</body></html>`

func TestSanitizeStripsControlCharsAndNbsp(t *testing.T) {
	raw := []byte("hello\x00world\x1b&nbsp;there")
	out := Sanitize(raw)
	require.Equal(t, "helloworld there", string(out))
}

func TestParseExtractsElementsStylesMetadataAndBookmarks(t *testing.T) {
	output, err := Parse([]byte(sampleDoc))
	require.NoError(t, err)

	require.Len(t, output.TextElements, 2, "the malformed bbox run should be dropped")
	require.Equal(t, "Introduction", output.TextElements[0].Text)
	require.Equal(t, "Body text here.", output.TextElements[1].Text)
	require.Equal(t, 0, output.TextElements[0].ReadingOrder)
	require.Equal(t, 1, output.TextElements[1].ReadingOrder)

	require.Equal(t, "Sample Report", output.Metadata.Title)
	require.Equal(t, "Jane Doe", output.Metadata.Author)
	require.Equal(t, 1, output.Metadata.PageCount)

	require.Contains(t, output.StyleData.FontClasses, "c1")
	require.Equal(t, 20.0, output.StyleData.FontClasses["c1"].FontSize)
	require.Equal(t, "bold", output.StyleData.FontClasses["c1"].FontWeight)

	require.NotNil(t, output.BookmarkData)
	require.Len(t, output.BookmarkData.Sections, 2)
	require.Equal(t, "Introduction", output.BookmarkData.Sections[0].Title)

	require.NotNil(t, output.TextElements[0].BookmarkMatch, "the section title matches a bookmark entry")
}

func TestParseUnknownClassFallsBackToSyntheticStyle(t *testing.T) {
	doc := `<html><body><div class="page" data-page="1">
<p><span class="unknown-class" data-bbox="0,0,10,10">orphan run</span></p>
</div></body></html>`

	output, err := Parse([]byte(doc))
	require.NoError(t, err)
	require.Len(t, output.TextElements, 1)
	require.Equal(t, "unknown-class", output.TextElements[0].Style.ClassName)
}

func TestParseDegenerateInputDoesNotPanic(t *testing.T) {
	_, err := Parse([]byte("\x00\x00\x00"))
	// Even degenerate input should not panic; goquery tolerates most
	// malformed markup, so this mainly guards against a regression
	// that starts returning a panic instead of a clean result/error.
	_ = err
}

func TestParseBBoxRejectsWrongArity(t *testing.T) {
	_, ok := parseBBox("1,2,3")
	require.False(t, ok)
}

func TestParseBBoxRejectsNonNumeric(t *testing.T) {
	_, ok := parseBBox("a,b,c,d")
	require.False(t, ok)
}

func TestParseBBoxAcceptsValidBox(t *testing.T) {
	box, ok := parseBBox("1.5,2.5,100,50")
	require.True(t, ok)
	require.Equal(t, 1.5, box.X)
	require.Equal(t, 100.0, box.Width)
}

func TestEstimateTokensEmptyString(t *testing.T) {
	require.Equal(t, 0, EstimateTokens(""))
}

func TestEstimateTokensCountsWords(t *testing.T) {
	n := EstimateTokens("The quick brown fox jumps.")
	require.Greater(t, n, 0)
	require.LessOrEqual(t, n, len(strings.Fields("The quick brown fox jumps."))+2)
}
