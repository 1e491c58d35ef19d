// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package config loads client configuration from a YAML document and
// layers in-code overrides on top of it via a fluent setter chain (see
// internal/scheduler.Policy, which this package's Options wraps).
package config

import (
	"io"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/vaultdocdb/vaultdoc-client-go/internal/scheduler"
)

// File is the YAML shape this package loads. Zero values are valid:
// an absent field falls back to the scheduler's built-in default.
type File struct {
	ProjectID          string `yaml:"projectId"`
	DatabaseID         string `yaml:"databaseId"`
	ServerURL          string `yaml:"serverUrl"`
	AuthToken          string `yaml:"authToken"`
	PreferTransactions bool   `yaml:"preferTransactions"`

	MaxBatchSize         int `yaml:"maxBatchSize"`
	MaxConcurrentBatches int `yaml:"maxConcurrentBatches"`
	// FlushIntervalMillis, if positive, is the interval a caller's own
	// background timer should flush on; the scheduler itself has no
	// implicit timer and leaves flush cadence to the caller.
	FlushIntervalMillis int64 `yaml:"flushIntervalMillis"`
}

// Load parses a YAML document from r into a File.
func Load(r io.Reader) (File, error) {
	var f File
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(&f); err != nil && err != io.EOF {
		return File{}, errors.Wrap(err, "config: decoding YAML")
	}
	return f, nil
}

// LoadFile opens path and parses it as a File.
func LoadFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, errors.Wrapf(err, "config: opening %s", path)
	}
	defer f.Close()
	return Load(f)
}

// Options layers fluent, in-code overrides on top of a loaded File,
// mirroring internal/scheduler.Policy's own setter chain so a caller
// can write config.NewOptions(file).SetMaxBatchSize(100).Policy().
type Options struct {
	file File
}

// NewOptions wraps file for override chaining.
func NewOptions(file File) *Options {
	return &Options{file: file}
}

// SetMaxBatchSize overrides the loaded max batch size.
func (o *Options) SetMaxBatchSize(n int) *Options {
	o.file.MaxBatchSize = n
	return o
}

// SetMaxConcurrentBatches overrides the loaded concurrency cap.
func (o *Options) SetMaxConcurrentBatches(n int) *Options {
	o.file.MaxConcurrentBatches = n
	return o
}

// SetFlushInterval overrides the loaded flush interval.
func (o *Options) SetFlushInterval(d time.Duration) *Options {
	o.file.FlushIntervalMillis = d.Milliseconds()
	return o
}

// SetPreferTransactions overrides the loaded transactional-commit
// preference.
func (o *Options) SetPreferTransactions(prefer bool) *Options {
	o.file.PreferTransactions = prefer
	return o
}

// File returns the effective, overridden File.
func (o *Options) File() File {
	return o.file
}

// FlushInterval returns the effective flush interval, or zero if
// unset (meaning: caller-driven flush only, no timer).
func (o *Options) FlushInterval() time.Duration {
	return time.Duration(o.file.FlushIntervalMillis) * time.Millisecond
}

// Policy builds an internal/scheduler.Policy from the effective
// configuration. Zero-valued fields fall back to scheduler.NewPolicy's
// defaults via its setters' own positive-value guards.
func (o *Options) Policy() *scheduler.Policy {
	p := scheduler.NewPolicy()
	p.SetMaxBatchSize(o.file.MaxBatchSize)
	p.SetMaxConcurrentBatches(o.file.MaxConcurrentBatches)
	return p
}
