// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package extractor defines the PDF-to-XHTML boundary the pipeline
// runs against. Runtime bootstrap of a real extractor (downloading or
// spawning the auxiliary binary that does PDF layout analysis) is out
// of scope here; this package only fixes the contract and the
// process-lifetime rule a concrete implementation must follow: one
// runtime per process, lazily started, never torn down.
package extractor

import (
	"context"
	"sync"

	"github.com/jruiz/blazegraph/internal/docerr"
)

// Extractor turns raw PDF bytes into the XHTML intermediate that
// internal/xhtml.Parse consumes.
type Extractor interface {
	ExtractToXHTML(pdf []byte) (string, error)
	Healthy(ctx context.Context) error
}

// Runtime lazily constructs an Extractor at most once per process and
// hands out the same instance to every caller thereafter. A failed
// construction is cached too: retrying inside the same process rarely
// helps when the failure is a missing auxiliary binary, so callers
// get the same error back in Get rather than re-attempting bootstrap
// per-document.
type Runtime struct {
	once sync.Once
	new  func() (Extractor, error)

	instance Extractor
	err      error
}

// NewRuntime wraps new so it only ever runs once, on first Get.
func NewRuntime(new func() (Extractor, error)) *Runtime {
	return &Runtime{new: new}
}

// Get returns the process-wide Extractor instance, constructing it on
// the first call.
func (r *Runtime) Get() (Extractor, error) {
	r.once.Do(func() {
		r.instance, r.err = r.new()
	})
	if r.err != nil {
		return nil, docerr.NewInputError("extractor-bootstrap", "", r.err)
	}
	return r.instance, nil
}

// StaticExtractor is an Extractor that already holds PDF->XHTML
// output in memory, used by tests and by any caller that has already
// extracted XHTML through an out-of-process tool and just wants to
// run the rest of the pipeline over it.
type StaticExtractor struct {
	XHTML string
	Err   error
}

func (s StaticExtractor) ExtractToXHTML([]byte) (string, error) { return s.XHTML, s.Err }

func (s StaticExtractor) Healthy(context.Context) error { return s.Err }
