// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package config defines ParsingConfig and its defaults, and loads it
// from YAML using github.com/goccy/go-yaml.
package config

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"os"

	yaml "github.com/goccy/go-yaml"

	"github.com/jruiz/blazegraph/internal/docerr"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

// RuleConfig names one pipeline pass and whether it runs.
type RuleConfig struct {
	Name    string `yaml:"name" json:"name"`
	Enabled bool   `yaml:"enabled" json:"enabled"`
}

// PipelineConfig orders the enabled rule passes.
type PipelineConfig struct {
	Rules []RuleConfig `yaml:"rules" json:"rules"`
}

// PatternDetectionConfig configures the optional regex-based section
// promotion pass.
type PatternDetectionConfig struct {
	Enabled               bool     `yaml:"enabled" json:"enabled"`
	Patterns              []string `yaml:"patterns" json:"patterns"`
	RespectFontConstraints bool    `yaml:"respect_font_constraints" json:"respect_font_constraints"`
}

// SectionAndHierarchyConfig gates header promotion and depth assignment.
type SectionAndHierarchyConfig struct {
	LargeHeaderThreshold  float64 `yaml:"large_header_threshold" json:"large_header_threshold"`
	MediumHeaderThreshold float64 `yaml:"medium_header_threshold" json:"medium_header_threshold"`
	SmallHeaderThreshold  float64 `yaml:"small_header_threshold" json:"small_header_threshold"`
	MinHeaderSize         float64 `yaml:"min_header_size" json:"min_header_size"`
	UseBoldIndicator      bool    `yaml:"use_bold_indicator" json:"use_bold_indicator"`
	BoldSizeStrict        bool    `yaml:"bold_size_strict" json:"bold_size_strict"`
	MaxDepth              int     `yaml:"max_depth" json:"max_depth"`
	FontSizeTolerance     float64 `yaml:"font_size_tolerance" json:"font_size_tolerance"`
	EnforceMaxDepth       bool    `yaml:"enforce_max_depth" json:"enforce_max_depth"`
	StartingSectionLevel  int     `yaml:"starting_section_level" json:"starting_section_level"`

	PatternDetection PatternDetectionConfig `yaml:"pattern_detection" json:"pattern_detection"`
}

// ElementClusteringConfig bounds segment sizes for one element type.
type ElementClusteringConfig struct {
	MinSegmentSize int `yaml:"min_segment_size" json:"min_segment_size"`
	MaxSegmentSize int `yaml:"max_segment_size" json:"max_segment_size"`
}

// SpatialClusteringConfig configures paragraph merging and
// spatial-adjacency clustering.
type SpatialClusteringConfig struct {
	Enabled                        bool    `yaml:"enabled" json:"enabled"`
	EnableParagraphMerging         bool    `yaml:"enable_paragraph_merging" json:"enable_paragraph_merging"`
	EnableSpatialAdjacency         bool    `yaml:"enable_spatial_adjacency" json:"enable_spatial_adjacency"`
	MinLineHeight                  float64 `yaml:"min_line_height" json:"min_line_height"`
	VerticalGapThresholdMultiplier float64 `yaml:"vertical_gap_threshold_multiplier" json:"vertical_gap_threshold_multiplier"`
	HorizontalAlignmentTolerance   float64 `yaml:"horizontal_alignment_tolerance" json:"horizontal_alignment_tolerance"`
	LineGroupingTolerance          float64 `yaml:"line_grouping_tolerance" json:"line_grouping_tolerance"`
	Sections                       ElementClusteringConfig `yaml:"sections" json:"sections"`
	Paragraphs                     ElementClusteringConfig `yaml:"paragraphs" json:"paragraphs"`
}

// SequentialNumberingConfig configures the sequential-numbering list
// validation check.
type SequentialNumberingConfig struct {
	AllowLetterSequences bool `yaml:"allow_letter_sequences" json:"allow_letter_sequences"`
	MaxGapTolerance      int  `yaml:"max_gap_tolerance" json:"max_gap_tolerance"`
}

// MathematicalContextConfig configures the math-context rejection check.
type MathematicalContextConfig struct {
	Symbols []string `yaml:"symbols" json:"symbols"`
	Terms   []string `yaml:"terms" json:"terms"`
}

// HyphenContextConfig configures hyphen-as-bullet strictness.
type HyphenContextConfig struct {
	Strategy        string `yaml:"strategy" json:"strategy"`
	RequireSpaceAfter bool `yaml:"require_space_after" json:"require_space_after"`
}

// ListValidationConfig switches on/off each validation-battery check.
type ListValidationConfig struct {
	Enabled                    bool `yaml:"enabled" json:"enabled"`
	MinimumSizeCheck           bool `yaml:"minimum_size_check" json:"minimum_size_check"`
	FirstItemValidation        bool `yaml:"first_item_validation" json:"first_item_validation"`
	ParentheticalContextCheck  bool `yaml:"parenthetical_context_check" json:"parenthetical_context_check"`
	SequentialNumberingCheck   bool `yaml:"sequential_numbering_check" json:"sequential_numbering_check"`
	MathematicalContextCheck   bool `yaml:"mathematical_context_check" json:"mathematical_context_check"`
	HyphenContextCheck         bool `yaml:"hyphen_context_check" json:"hyphen_context_check"`

	SequentialNumbering SequentialNumberingConfig `yaml:"sequential_numbering" json:"sequential_numbering"`
	MathematicalContext MathematicalContextConfig `yaml:"mathematical_context" json:"mathematical_context"`
	HyphenContext       HyphenContextConfig       `yaml:"hyphen_context" json:"hyphen_context"`
}

// ListDetectionConfig configures the two-phase list-recovery pass.
type ListDetectionConfig struct {
	Enabled                    bool     `yaml:"enabled" json:"enabled"`
	SequenceLookaheadElements   int      `yaml:"sequence_lookahead_elements" json:"sequence_lookahead_elements"`
	SequenceBoundaryExtension   int      `yaml:"sequence_boundary_extension" json:"sequence_boundary_extension"`
	YTolerance                  float64  `yaml:"y_tolerance" json:"y_tolerance"`
	BulletPatterns              []string `yaml:"bullet_patterns" json:"bullet_patterns"`
	NumberedPatterns            []string `yaml:"numbered_patterns" json:"numbered_patterns"`
	CreateListContainers        bool     `yaml:"create_list_containers" json:"create_list_containers"`
	PreserveListItems           bool     `yaml:"preserve_list_items" json:"preserve_list_items"`
	MaxLookaheadElements        int      `yaml:"max_lookahead_elements" json:"max_lookahead_elements"`
	LastItemBoundaryGap         float64  `yaml:"last_item_boundary_gap" json:"last_item_boundary_gap"`
	Validation                  ListValidationConfig `yaml:"validation" json:"validation"`
}

// SizeEnforcerConfig configures oversized-element splitting.
type SizeEnforcerConfig struct {
	Enabled            bool    `yaml:"enabled" json:"enabled"`
	MaxSize            int     `yaml:"max_size" json:"max_size"`
	SizeUnit           string  `yaml:"size_unit" json:"size_unit"`
	PreserveSentences  bool    `yaml:"preserve_sentences" json:"preserve_sentences"`
	MinSplitSizeRatio  float64 `yaml:"min_split_size_ratio" json:"min_split_size_ratio"`
	Recursive          bool    `yaml:"recursive" json:"recursive"`
	MaxIterations      int     `yaml:"max_iterations" json:"max_iterations"`
	SplitDirection     string  `yaml:"split_direction" json:"split_direction"`
}

// ParsingConfig is the full configuration surface for one run of the
// pipeline.
type ParsingConfig struct {
	DocumentType        docgraph.DocumentType     `yaml:"document_type" json:"document_type"`
	SectionAndHierarchy SectionAndHierarchyConfig `yaml:"section_and_hierarchy" json:"section_and_hierarchy"`
	SpatialClustering   SpatialClusteringConfig   `yaml:"spatial_clustering" json:"spatial_clustering"`
	IncludeRawTika      bool                      `yaml:"include_raw_tika" json:"include_raw_tika"`
	Pipeline            PipelineConfig            `yaml:"pipeline" json:"pipeline"`
	ListDetection       ListDetectionConfig       `yaml:"list_detection" json:"list_detection"`
	SizeEnforcer        SizeEnforcerConfig        `yaml:"size_enforcer" json:"size_enforcer"`
	MinimalParse        bool                      `yaml:"minimal_parse" json:"minimal_parse"`
}

// DefaultPipelineRules is the effective pass order when
// Pipeline.Rules is empty.
var DefaultPipelineRules = []string{
	"SectionAndHierarchyDetection",
	"PatternBasedSectionDetection",
	"SpatialClustering",
	"ListDetection",
	"SizeEnforcer",
	"Validation",
}

// EffectiveRules returns the configured pipeline rule order, or
// DefaultPipelineRules when none were configured.
func (c ParsingConfig) EffectiveRules() []RuleConfig {
	if len(c.Pipeline.Rules) > 0 {
		return c.Pipeline.Rules
	}
	rules := make([]RuleConfig, len(DefaultPipelineRules))
	for i, name := range DefaultPipelineRules {
		rules[i] = RuleConfig{Name: name, Enabled: true}
	}
	return rules
}

func defaultPatternDetection() PatternDetectionConfig {
	return PatternDetectionConfig{
		Enabled: true,
		Patterns: []string{
			`^[A-Z][A-Z\s]{2,}$`,
			`^\d+\.\s+[A-Z][a-z]{3,}`,
			`^(Chapter|Section|Part|Article)\s+\d+`,
			`^[A-Z][a-z]{2,}(?:\s+[A-Z][a-z]{2,})*:$`,
		},
		RespectFontConstraints: true,
	}
}

func defaultSectionAndHierarchy() SectionAndHierarchyConfig {
	return SectionAndHierarchyConfig{
		LargeHeaderThreshold:  0.7,
		MediumHeaderThreshold: 0.3,
		SmallHeaderThreshold:  0.1,
		MinHeaderSize:         8.5,
		UseBoldIndicator:      true,
		BoldSizeStrict:        true,
		MaxDepth:              5,
		FontSizeTolerance:     0.1,
		EnforceMaxDepth:       true,
		StartingSectionLevel:  1,
		PatternDetection:      defaultPatternDetection(),
	}
}

func defaultSpatialClustering() SpatialClusteringConfig {
	return SpatialClusteringConfig{
		Enabled:                        true,
		EnableParagraphMerging:         true,
		EnableSpatialAdjacency:         false,
		MinLineHeight:                  8.0,
		VerticalGapThresholdMultiplier: 0.8,
		HorizontalAlignmentTolerance:   5.0,
		LineGroupingTolerance:          0.3,
		Sections:                       ElementClusteringConfig{MinSegmentSize: 3, MaxSegmentSize: 200},
		Paragraphs:                     ElementClusteringConfig{MinSegmentSize: 1, MaxSegmentSize: 2000},
	}
}

func defaultBulletPatterns() []string {
	return []string{
		"•", "·", "●", "■", "▪", "▫", "◦", "‣", "⁃", "-", "*", "→", "➤", "✓", "&bull;", "&middot;",
	}
}

func defaultNumberedPatterns() []string {
	return []string{
		`^\d+\.`, `^\d+\)`, `^\(\d+\)`, `^[a-z]\.`, `^[a-z]\)`, `^[A-Z]\.`, `^[A-Z]\)`, `^[ivx]+\.`, `^[IVX]+\.`,
	}
}

func defaultListValidation() ListValidationConfig {
	return ListValidationConfig{
		Enabled:                   true,
		MinimumSizeCheck:          true,
		FirstItemValidation:       true,
		ParentheticalContextCheck: true,
		SequentialNumberingCheck:  true,
		MathematicalContextCheck:  true,
		HyphenContextCheck:        true,
		SequentialNumbering:       SequentialNumberingConfig{AllowLetterSequences: true, MaxGapTolerance: 0},
		MathematicalContext: MathematicalContextConfig{
			Symbols: []string{"→", "←", "⇒", "⇐", "∀", "∃"},
			Terms:   []string{"equation", "formula", "coordinates", "system", "transform"},
		},
		HyphenContext: HyphenContextConfig{Strategy: "strict", RequireSpaceAfter: true},
	}
}

func defaultListDetection() ListDetectionConfig {
	return ListDetectionConfig{
		Enabled:                   true,
		SequenceLookaheadElements: 10,
		SequenceBoundaryExtension: 3,
		YTolerance:                15.0,
		BulletPatterns:            defaultBulletPatterns(),
		NumberedPatterns:          defaultNumberedPatterns(),
		CreateListContainers:      true,
		PreserveListItems:         false,
		MaxLookaheadElements:      25,
		LastItemBoundaryGap:       80.0,
		Validation:                defaultListValidation(),
	}
}

func defaultSizeEnforcer() SizeEnforcerConfig {
	return SizeEnforcerConfig{
		Enabled:           true,
		MaxSize:           800,
		SizeUnit:          "characters",
		PreserveSentences: true,
		MinSplitSizeRatio: 0.25,
		Recursive:         true,
		MaxIterations:     10,
		SplitDirection:    "vertical",
	}
}

// Default returns the generic-document default configuration, the
// same shape the pipeline falls back to when no config file is given.
func Default() ParsingConfig {
	return ParsingConfig{
		DocumentType:        docgraph.DocumentGeneric,
		SectionAndHierarchy: defaultSectionAndHierarchy(),
		SpatialClustering:   defaultSpatialClustering(),
		IncludeRawTika:      false,
		Pipeline:            PipelineConfig{},
		ListDetection:       defaultListDetection(),
		SizeEnforcer:        defaultSizeEnforcer(),
		MinimalParse:        false,
	}
}

// LoadFile reads and parses a YAML config file merged onto Default():
// fields the file sets override the defaults, fields it omits keep
// their default values. Bad YAML is a fatal *docerr.ConfigError.
func LoadFile(path string) (ParsingConfig, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return ParsingConfig{}, docerr.NewConfigError(path, err)
	}
	cfg := Default()
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return ParsingConfig{}, docerr.NewConfigError(path, err)
	}
	return cfg, nil
}

// Hash returns the SHA-256 digest (hex-encoded) of the canonical JSON
// serialization of cfg — the config_hash half of the L2 cache key.
func Hash(cfg ParsingConfig) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:]), nil
}
