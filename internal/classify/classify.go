// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package classify provides the document-type classification seam.
// The only shipping implementation always returns Generic; richer
// classification is an unimplemented extension point, not a Non-goal
// of the pipeline itself.
package classify

import "github.com/jruiz/blazegraph/internal/docgraph"

// Classifier assigns a DocumentType to a parsed document.
type Classifier interface {
	Classify(output docgraph.PreprocessorOutput) (docgraph.DocumentType, float64)
}

// GenericClassifier always reports Generic with high confidence. A
// pattern-based classifier (legal contract, academic paper, technical
// manual, business report) would slot in here by implementing
// Classifier and inspecting output's text/style distribution; none is
// wired today, matching the stub behavior this was grounded on.
type GenericClassifier struct{}

// Classify always returns (Generic, 0.9).
func (GenericClassifier) Classify(docgraph.PreprocessorOutput) (docgraph.DocumentType, float64) {
	return docgraph.DocumentGeneric, 0.9
}
