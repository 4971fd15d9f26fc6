// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package cache

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/jruiz/blazegraph/internal/docgraph"
)

func TestCalculatePDFHashConsistentAndSensitive(t *testing.T) {
	a := []byte("pdf content number one")
	b := []byte("pdf content number two")

	require.Equal(t, CalculatePDFHash(a), CalculatePDFHash(a))
	require.NotEqual(t, CalculatePDFHash(a), CalculatePDFHash(b))
}

func TestCalculatePDFHashHandlesSmallInput(t *testing.T) {
	require.NotPanics(t, func() { CalculatePDFHash(nil) })
	require.NotPanics(t, func() { CalculatePDFHash([]byte("x")) })
}

func TestGraphCacheKeyHashStable(t *testing.T) {
	k1 := NewGraphCacheKey("xhtml-hash", "config-hash")
	k2 := NewGraphCacheKey("xhtml-hash", "config-hash")
	require.Equal(t, k1.Hash(), k2.Hash())

	k3 := NewGraphCacheKey("other-hash", "config-hash")
	require.NotEqual(t, k1.Hash(), k3.Hash())
}

func TestFileStoragePreprocessorRoundtrip(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	output := &docgraph.PreprocessorOutput{
		TextElements: []docgraph.TextElement{{Text: "hello", PageNumber: 1}},
	}
	require.NoError(t, fs.StorePreprocessorOutput("hash1", output))

	got, err := fs.GetPreprocessorOutput("hash1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "hello", got.TextElements[0].Text)
}

func TestFileStoragePreprocessorMissIsNilNilError(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	got, err := fs.GetPreprocessorOutput("does-not-exist")
	require.NoError(t, err)
	require.Nil(t, got)
}

func TestFileStorageGraphRoundtripPreservesNodes(t *testing.T) {
	fs, err := NewFileStorage(t.TempDir())
	require.NoError(t, err)

	graph := &docgraph.DocumentGraph{
		SchemaVersion: docgraph.SchemaVersion,
		Nodes: map[docgraph.NodeId]*docgraph.DocumentNode{
			"root": {Id: "root", NodeType: docgraph.TypeDocument},
			"p1":   {Id: "p1", NodeType: docgraph.TypeParagraph, Content: docgraph.NodeContent{Text: "hi"}},
		},
		DocumentInfo: docgraph.DocumentInfo{RootId: "root"},
	}

	key := NewGraphCacheKey("xhash", "chash")
	value := NewGraphCacheValue(graph, 42)
	require.NoError(t, fs.StoreGraphOutput(key, value))

	got, err := fs.GetGraphOutput(key)
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Len(t, got.Graph.Nodes, 2)
	require.Equal(t, "hi", got.Graph.Nodes["p1"].Content.Text)
	require.Equal(t, int64(42), got.ProcessingTimeMs)

	// The round trip goes through wireGraph's JSON shape rather than a
	// direct struct copy, so diff the full node maps rather than just
	// spot-checking fields above.
	if diff := cmp.Diff(graph.Nodes, got.Graph.Nodes); diff != "" {
		t.Errorf("graph nodes changed across cache round trip (-want +got):\n%s", diff)
	}
}

func TestNoOpStorageAlwaysMisses(t *testing.T) {
	s := NoOpStorage{}
	out, err := s.GetPreprocessorOutput("anything")
	require.NoError(t, err)
	require.Nil(t, out)

	require.NoError(t, s.StorePreprocessorOutput("anything", &docgraph.PreprocessorOutput{}))

	graphOut, err := s.GetGraphOutput(NewGraphCacheKey("a", "b"))
	require.NoError(t, err)
	require.Nil(t, graphOut)
}

func TestCalculatePreprocessorHashDeterministic(t *testing.T) {
	output := &docgraph.PreprocessorOutput{TextElements: []docgraph.TextElement{{Text: "a"}}}
	h1, err := CalculatePreprocessorHash(output)
	require.NoError(t, err)
	h2, err := CalculatePreprocessorHash(output)
	require.NoError(t, err)
	require.Equal(t, h1, h2)
}
