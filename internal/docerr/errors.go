// Copyright 2024 The Blazegraph Authors. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package docerr defines the typed error kinds the pipeline surfaces:
// input errors, configuration errors, and storage errors. Pass-local
// anomalies (a bad bounding box, an unresolved font class) are never
// wrapped here — they are soft failures handled inline by the pass
// that hit them.
package docerr

import "fmt"

// InputError reports a PDF or XHTML document that the parser cannot
// recover from, with the stage that detected it.
type InputError struct {
	Path  string
	Stage string
	Err   error
}

func (e *InputError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("input error at %s: %v", e.Stage, e.Err)
	}
	return fmt.Sprintf("input error at %s (%s): %v", e.Stage, e.Path, e.Err)
}

func (e *InputError) Unwrap() error { return e.Err }

// NewInputError wraps err as an InputError for the given stage/path.
func NewInputError(stage, path string, err error) *InputError {
	return &InputError{Path: path, Stage: stage, Err: err}
}

// ConfigError reports malformed configuration. Bad YAML is always a
// ConfigError; unknown pipeline rule names are logged and skipped
// instead, never wrapped as one.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("config error: %v", e.Err)
	}
	return fmt.Sprintf("config error (%s): %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// NewConfigError wraps err as a ConfigError for the given field.
func NewConfigError(field string, err error) *ConfigError {
	return &ConfigError{Field: field, Err: err}
}

// StorageError reports a failed cache read/write. Writers must fail
// closed. internal/cache's FileStorage also returns a StorageError
// for an unreadable or corrupt entry on read; internal/pipeline treats
// any cache read error as a miss, recomputes, and overwrites the entry.
type StorageError struct {
	Namespace string
	Key       string
	Op        string
	Err       error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage error: %s %s/%s: %v", e.Op, e.Namespace, e.Key, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NewStorageError wraps err as a StorageError for the given op/namespace/key.
func NewStorageError(op, namespace, key string, err error) *StorageError {
	return &StorageError{Namespace: namespace, Key: key, Op: op, Err: err}
}
