// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package cache implements the two-level content-addressed cache that
// sits in front of the extractor and the rule engine: an L1 keyed on
// the PDF's content fingerprint (PDF -> PreprocessorOutput), and an L2
// keyed on a hash of the document content plus the effective config
// (document+Config -> DocumentGraph). The L2 key also carries
// CodeVersion and ProcessingVersion, so changing either invalidates
// every cached graph; the L1 key is the PDF fingerprint alone and is
// not versioned.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jruiz/blazegraph/internal/docerr"
	"github.com/jruiz/blazegraph/internal/docgraph"
)

// Version constants participate in the L2 cache key; bumping either
// one invalidates every previously cached graph without touching the
// files on disk.
const (
	CodeVersion       = "0.1.0"
	ProcessingVersion = "1.0.0"
)

// GraphCacheKey is the Level 2 cache key: a document content hash plus
// the config that produced a graph from it, plus the versions under
// which it was produced. The pipeline fills XHTMLHash with
// CalculatePreprocessorHash's digest, not CalculateXHTMLHash's (see
// CalculatePreprocessorHash).
type GraphCacheKey struct {
	XHTMLHash         string `json:"xhtml_hash"`
	ConfigHash        string `json:"config_hash"`
	CodeVersion       string `json:"code_version"`
	ProcessingVersion string `json:"processing_version"`
}

// NewGraphCacheKey stamps xhtmlHash/configHash with the current
// version constants.
func NewGraphCacheKey(xhtmlHash, configHash string) GraphCacheKey {
	return GraphCacheKey{
		XHTMLHash:         xhtmlHash,
		ConfigHash:        configHash,
		CodeVersion:       CodeVersion,
		ProcessingVersion: ProcessingVersion,
	}
}

// Hash derives the on-disk filename for this key.
func (k GraphCacheKey) Hash() string {
	h := sha256.New()
	fmt.Fprint(h, k.XHTMLHash, k.ConfigHash, k.CodeVersion, k.ProcessingVersion)
	return hex.EncodeToString(h.Sum(nil))
}

// GraphCacheValue is the Level 2 cache payload: the graph plus the
// bookkeeping needed to judge whether it's worth trusting.
type GraphCacheValue struct {
	Graph            *docgraph.DocumentGraph `json:"-"`
	CreatedAt        time.Time               `json:"created_at"`
	ProcessingTimeMs int64                   `json:"processing_time_ms"`
	CacheVersion     string                  `json:"cache_version"`
}

// NewGraphCacheValue stamps graph with the current time and CodeVersion.
func NewGraphCacheValue(graph *docgraph.DocumentGraph, processingTimeMs int64) GraphCacheValue {
	return GraphCacheValue{
		Graph:            graph,
		CreatedAt:        time.Now(),
		ProcessingTimeMs: processingTimeMs,
		CacheVersion:     CodeVersion,
	}
}

// wireGraph mirrors docgraph.DocumentGraph but carries Nodes as a
// plain map, since DocumentGraph itself excludes Nodes from JSON so
// that callers go through internal/serialize's node-ordering contract
// instead. The cache needs the raw node set back, so it round-trips
// through this shape rather than through a serialize.* projection.
type wireGraph struct {
	SchemaVersion     string                                `json:"schema_version"`
	Nodes             map[docgraph.NodeId]*docgraph.DocumentNode `json:"nodes"`
	DocumentInfo      docgraph.DocumentInfo                 `json:"document_info"`
	StructuralProfile docgraph.StructuralProfile            `json:"structural_profile"`
}

type wireCacheValue struct {
	Graph            wireGraph `json:"graph"`
	CreatedAt        time.Time `json:"created_at"`
	ProcessingTimeMs int64     `json:"processing_time_ms"`
	CacheVersion     string    `json:"cache_version"`
}

func (v GraphCacheValue) toWire() wireCacheValue {
	var wg wireGraph
	if v.Graph != nil {
		wg = wireGraph{
			SchemaVersion:     v.Graph.SchemaVersion,
			Nodes:             v.Graph.Nodes,
			DocumentInfo:      v.Graph.DocumentInfo,
			StructuralProfile: v.Graph.StructuralProfile,
		}
	}
	return wireCacheValue{Graph: wg, CreatedAt: v.CreatedAt, ProcessingTimeMs: v.ProcessingTimeMs, CacheVersion: v.CacheVersion}
}

func (w wireCacheValue) toValue() GraphCacheValue {
	return GraphCacheValue{
		Graph: &docgraph.DocumentGraph{
			SchemaVersion:     w.Graph.SchemaVersion,
			Nodes:             w.Graph.Nodes,
			DocumentInfo:      w.Graph.DocumentInfo,
			StructuralProfile: w.Graph.StructuralProfile,
		},
		CreatedAt:        w.CreatedAt,
		ProcessingTimeMs: w.ProcessingTimeMs,
		CacheVersion:     w.CacheVersion,
	}
}

// MarshalJSON encodes v via wireGraph so Nodes survives the round trip.
func (v GraphCacheValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.toWire())
}

// UnmarshalJSON decodes v via wireGraph so Nodes survives the round trip.
func (v *GraphCacheValue) UnmarshalJSON(b []byte) error {
	var w wireCacheValue
	if err := json.Unmarshal(b, &w); err != nil {
		return err
	}
	*v = w.toValue()
	return nil
}

// DocumentStorage abstracts the two-level cache so the pipeline can
// run uncached (NoOpStorage) or against a local directory (FileStorage).
type DocumentStorage interface {
	GetPreprocessorOutput(pdfHash string) (*docgraph.PreprocessorOutput, error)
	StorePreprocessorOutput(pdfHash string, output *docgraph.PreprocessorOutput) error

	GetGraphOutput(key GraphCacheKey) (*GraphCacheValue, error)
	StoreGraphOutput(key GraphCacheKey, value GraphCacheValue) error
}

// CalculatePDFHash hashes the PDF's byte length plus its first and
// last 1KB, so a multi-hundred-page PDF can be fingerprinted without
// reading it in full.
func CalculatePDFHash(pdf []byte) string {
	const chunkSize = 1024
	h := sha256.New()
	fmt.Fprintf(h, "%d", len(pdf))
	end := min(chunkSize, len(pdf))
	h.Write(pdf[:end])
	if len(pdf) > chunkSize {
		h.Write(pdf[len(pdf)-chunkSize:])
	}
	return hex.EncodeToString(h.Sum(nil))
}

// CalculateConfigHash hashes the canonical JSON encoding of cfg.
func CalculateConfigHash(cfg interface{}) (string, error) {
	b, err := json.Marshal(cfg)
	if err != nil {
		return "", docerr.NewConfigError("cache", err)
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

// CalculateXHTMLHash hashes the raw XHTML text handed to the rule engine.
func CalculateXHTMLHash(xhtml string) string {
	h := sha256.Sum256([]byte(xhtml))
	return hex.EncodeToString(h[:])
}

// CalculatePreprocessorHash hashes the canonical JSON of a
// PreprocessorOutput. The pipeline uses this instead of
// CalculateXHTMLHash for its L2 key, since on an L1 cache hit the raw
// XHTML text itself was never re-read from storage — only its parsed
// form was — and the parsed form is what the rule engine actually
// consumes.
func CalculatePreprocessorHash(output *docgraph.PreprocessorOutput) (string, error) {
	b, err := json.Marshal(output)
	if err != nil {
		return "", docerr.NewConfigError("preprocessor-output", err)
	}
	h := sha256.Sum256(b)
	return hex.EncodeToString(h[:]), nil
}

// NoOpStorage disables caching: every get is a miss, every store is
// discarded. Used when the CLI is invoked with --skip-cache.
type NoOpStorage struct{}

func (NoOpStorage) GetPreprocessorOutput(string) (*docgraph.PreprocessorOutput, error) { return nil, nil }
func (NoOpStorage) StorePreprocessorOutput(string, *docgraph.PreprocessorOutput) error { return nil }
func (NoOpStorage) GetGraphOutput(GraphCacheKey) (*GraphCacheValue, error)             { return nil, nil }
func (NoOpStorage) StoreGraphOutput(GraphCacheKey, GraphCacheValue) error              { return nil }

// FileStorage is a local-directory cache with the layout:
//
//	<root>/preprocessor/<pdf_hash>.json
//	<root>/graph/<graph_cache_key_hash>.json
//
// Writes go to a temp file in the same directory and are renamed into
// place, so a crash mid-write never leaves a truncated cache entry
// that a later read would trust.
type FileStorage struct {
	root string

	mu      sync.Mutex
	keyLock map[string]*sync.Mutex
}

// NewFileStorage creates (if needed) root and its two subdirectories.
func NewFileStorage(root string) (*FileStorage, error) {
	for _, sub := range []string{"preprocessor", "graph"} {
		if err := os.MkdirAll(filepath.Join(root, sub), 0o755); err != nil {
			return nil, docerr.NewStorageError("mkdir", sub, root, err)
		}
	}
	return &FileStorage{root: root, keyLock: make(map[string]*sync.Mutex)}, nil
}

// lockFor returns a mutex private to key, so concurrent writers to
// different cache entries never block each other while still
// serializing writes to the same entry.
func (s *FileStorage) lockFor(key string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.keyLock[key]
	if !ok {
		m = &sync.Mutex{}
		s.keyLock[key] = m
	}
	return m
}

func (s *FileStorage) preprocessorPath(pdfHash string) string {
	return filepath.Join(s.root, "preprocessor", pdfHash+".json")
}

func (s *FileStorage) graphPath(key GraphCacheKey) string {
	return filepath.Join(s.root, "graph", key.Hash()+".json")
}

func readJSON(path string, v interface{}) (bool, error) {
	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return false, nil
	}
	if err != nil {
		return false, docerr.NewStorageError("read", "cache", path, err)
	}
	if err := json.Unmarshal(b, v); err != nil {
		return false, docerr.NewStorageError("decode", "cache", path, err)
	}
	return true, nil
}

// writeJSONAtomic marshals v and writes it via a temp-file-then-rename
// so readers never observe a partial write.
func writeJSONAtomic(path string, v interface{}) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return docerr.NewStorageError("encode", "cache", path, err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return docerr.NewStorageError("write", "cache", path, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return docerr.NewStorageError("rename", "cache", path, err)
	}
	return nil
}

func (s *FileStorage) GetPreprocessorOutput(pdfHash string) (*docgraph.PreprocessorOutput, error) {
	var out docgraph.PreprocessorOutput
	ok, err := readJSON(s.preprocessorPath(pdfHash), &out)
	if err != nil || !ok {
		return nil, err
	}
	return &out, nil
}

func (s *FileStorage) StorePreprocessorOutput(pdfHash string, output *docgraph.PreprocessorOutput) error {
	lock := s.lockFor("preprocessor:" + pdfHash)
	lock.Lock()
	defer lock.Unlock()
	return writeJSONAtomic(s.preprocessorPath(pdfHash), output)
}

func (s *FileStorage) GetGraphOutput(key GraphCacheKey) (*GraphCacheValue, error) {
	var val GraphCacheValue
	ok, err := readJSON(s.graphPath(key), &val)
	if err != nil || !ok {
		return nil, err
	}
	return &val, nil
}

func (s *FileStorage) StoreGraphOutput(key GraphCacheKey, value GraphCacheValue) error {
	lock := s.lockFor("graph:" + key.Hash())
	lock.Lock()
	defer lock.Unlock()
	return writeJSONAtomic(s.graphPath(key), value)
}
