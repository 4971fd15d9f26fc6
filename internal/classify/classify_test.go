// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

package classify

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jruiz/blazegraph/internal/docgraph"
)

func TestGenericClassifierAlwaysReturnsGeneric(t *testing.T) {
	var c Classifier = GenericClassifier{}

	docType, confidence := c.Classify(docgraph.PreprocessorOutput{})
	require.Equal(t, docgraph.DocumentGeneric, docType)
	require.Equal(t, 0.9, confidence)

	populated := docgraph.PreprocessorOutput{
		TextElements: []docgraph.TextElement{{Text: "Some Contract Agreement"}},
	}
	docType, confidence = c.Classify(populated)
	require.Equal(t, docgraph.DocumentGeneric, docType)
	require.Equal(t, 0.9, confidence)
}
