// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package pipeline orchestrates one document's trip from PDF bytes to
// a serialized graph: extractor, XHTML parser, classifier, rule
// engine, graph builder and the two-level cache that wraps the
// extractor and graph-build steps.
package pipeline

import (
	"time"

	"go.uber.org/zap"

	"github.com/jruiz/blazegraph/internal/cache"
	"github.com/jruiz/blazegraph/internal/classify"
	"github.com/jruiz/blazegraph/internal/config"
	"github.com/jruiz/blazegraph/internal/docgraph"
	"github.com/jruiz/blazegraph/internal/extractor"
	"github.com/jruiz/blazegraph/internal/fontstats"
	"github.com/jruiz/blazegraph/internal/rules"
	"github.com/jruiz/blazegraph/internal/xhtml"
)

// Stages holds every intermediate artifact of one run, written out
// verbatim by the CLI's --dump-stages flag.
type Stages struct {
	XHTML        string                      `json:"xhtml"`
	Preprocessor docgraph.PreprocessorOutput `json:"preprocessor"`
	Elements     []docgraph.ParsedElement    `json:"elements"`
	Graph        *docgraph.DocumentGraph     `json:"graph"`
}

// Result is what one Pipeline.Run call returns.
type Result struct {
	Graph            *docgraph.DocumentGraph
	ValidationIssues []rules.ValidationIssue
	QualityScore     float64
	FromCache        bool
	Stages           *Stages
}

// StepProfiler times named steps and logs one structured line per step
// as it completes; it keeps no record of earlier steps.
type StepProfiler struct {
	log   *zap.SugaredLogger
	start time.Time
}

// NewStepProfiler begins timing; pass nil to disable logging.
func NewStepProfiler(log *zap.SugaredLogger) *StepProfiler {
	return &StepProfiler{log: log, start: time.Now()}
}

// Step logs the elapsed time since the previous Step/NewStepProfiler
// call under name, then resets the clock.
func (p *StepProfiler) Step(name string) {
	elapsed := time.Since(p.start)
	if p.log != nil {
		p.log.Debugw("pipeline step complete", "step", name, "elapsed_ms", elapsed.Milliseconds())
	}
	p.start = time.Now()
}

// Options controls one Run call.
type Options struct {
	Config         config.ParsingConfig
	Title          string
	SkipCache      bool
	IncludeStages  bool
	StripStyleInfo bool
}

// Pipeline wires an Extractor, a DocumentStorage cache, a Classifier
// and a rule Engine into the single PDF -> DocumentGraph operation.
type Pipeline struct {
	Extractor  extractor.Extractor
	Storage    cache.DocumentStorage
	Classifier classify.Classifier
	Engine     *rules.Engine
	Log        *zap.SugaredLogger
}

// New constructs a Pipeline with sensible defaults for the classifier
// and rule engine, given only the extractor and storage.
func New(ext extractor.Extractor, storage cache.DocumentStorage, log *zap.SugaredLogger) *Pipeline {
	return &Pipeline{
		Extractor:  ext,
		Storage:    storage,
		Classifier: classify.GenericClassifier{},
		Engine:     rules.NewEngine(log),
		Log:        log,
	}
}

// Run executes one document through the full pipeline, consulting and
// populating both cache levels unless opts.SkipCache is set.
func (p *Pipeline) Run(pdf []byte, opts Options) (*Result, error) {
	started := time.Now()
	profiler := NewStepProfiler(p.Log)

	pdfHash := cache.CalculatePDFHash(pdf)

	preOutput, err := p.preprocess(pdf, pdfHash, opts.SkipCache)
	if err != nil {
		return nil, err
	}
	profiler.Step("preprocess")

	xhtmlText := preOutput.xhtml
	output := preOutput.output

	configHash, err := cache.CalculateConfigHash(opts.Config)
	if err != nil {
		return nil, err
	}
	preprocessorHash, err := cache.CalculatePreprocessorHash(&output)
	if err != nil {
		return nil, err
	}
	graphKey := cache.NewGraphCacheKey(preprocessorHash, configHash)

	var fromCache bool
	var graph *docgraph.DocumentGraph
	var elements []docgraph.ParsedElement
	var issues []rules.ValidationIssue
	var quality float64

	if !opts.SkipCache {
		if cached, err := p.Storage.GetGraphOutput(graphKey); err == nil && cached != nil {
			graph = cached.Graph
			fromCache = true
		}
	}

	if graph == nil {
		docType, _ := p.Classifier.Classify(output)

		result := p.Engine.Run(output, opts.Config)
		elements = result.Elements
		issues = result.ValidationIssues
		quality = result.QualityScore
		profiler.Step("rule_engine")

		graph = docgraph.Build(pdfHash, opts.Title, elements)
		graph.DocumentInfo.SourceMetadata = output.Metadata
		graph.DocumentInfo.FontUsage = fontUsageFrom(output)
		graph.StructuralProfile = docgraph.ComputeStructuralProfile(graph.Nodes, docType)
		profiler.Step("graph_build")

		if !opts.SkipCache {
			value := cache.NewGraphCacheValue(graph, time.Since(started).Milliseconds())
			if err := p.Storage.StoreGraphOutput(graphKey, value); err != nil {
				return nil, err
			}
		}
	}

	res := &Result{Graph: graph, ValidationIssues: issues, QualityScore: quality, FromCache: fromCache}
	if opts.IncludeStages {
		res.Stages = &Stages{XHTML: xhtmlText, Preprocessor: output, Elements: elements, Graph: graph}
	}
	return res, nil
}

type preprocessed struct {
	xhtml  string
	output docgraph.PreprocessorOutput
}

// preprocess resolves XHTML through the L1 cache (PDF fingerprint ->
// PreprocessorOutput) when enabled, otherwise always invokes the
// extractor.
func (p *Pipeline) preprocess(pdf []byte, pdfHash string, skipCache bool) (preprocessed, error) {
	if !skipCache {
		if cached, err := p.Storage.GetPreprocessorOutput(pdfHash); err == nil && cached != nil {
			return preprocessed{output: *cached}, nil
		}
	}

	xhtmlText, err := p.Extractor.ExtractToXHTML(pdf)
	if err != nil {
		return preprocessed{}, err
	}

	output, err := xhtml.Parse([]byte(xhtmlText))
	if err != nil {
		return preprocessed{}, err
	}

	if !skipCache {
		if err := p.Storage.StorePreprocessorOutput(pdfHash, &output); err != nil {
			return preprocessed{}, err
		}
	}

	return preprocessed{xhtml: xhtmlText, output: output}, nil
}

func fontUsageFrom(output docgraph.PreprocessorOutput) docgraph.FontUsageSummary {
	elements := make([]fontstats.Element, len(output.TextElements))
	for i, te := range output.TextElements {
		elements[i] = fontstats.Element{FontSize: te.Style.FontSize, ClassName: te.Style.ClassName}
	}
	analysis := fontstats.Analyze(elements)
	return docgraph.FontUsageSummary{
		BodyTextSize:         analysis.BodyTextSize,
		PotentialHeaderSizes: analysis.PotentialHeaderSizes,
		HierarchyLevels:      analysis.HierarchyLevels,
	}
}
