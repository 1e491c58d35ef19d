// Copyright 2021-2024 Vaultdoc, Inc. All rights reserved.
// Use of this source code is governed by MIT
// license that can be found in the LICENSE file.

// Package log provides internal logging helpers that forward to the
// public log.Log, filtering by log.LogLevel. This mirrors the
// teacher's internal/log + public log package split: internal
// packages never import a concrete logging backend, only this shim.
package log

import (
	"fmt"

	ilog "github.com/vaultdocdb/vaultdoc-client-go/log"
)

// Level returns the currently configured log.LogLevel.
func Level() ilog.Level {
	return ilog.LogLevel
}

func Error(msg string) {
	if Level() >= ilog.ErrorLevel {
		ilog.Log.Error(msg)
	}
}

func Errorf(format string, args ...interface{}) {
	Error(fmt.Sprintf(format, args...))
}

func Warn(msg string) {
	if Level() >= ilog.WarningLevel {
		ilog.Log.Warn(msg)
	}
}

func Warnf(format string, args ...interface{}) {
	Warn(fmt.Sprintf(format, args...))
}

func Info(msg string) {
	if Level() >= ilog.InfoLevel {
		ilog.Log.Info(msg)
	}
}

func Infof(format string, args ...interface{}) {
	Info(fmt.Sprintf(format, args...))
}

func Debug(msg string) {
	if Level() >= ilog.DebugLevel {
		ilog.Log.Debug(msg)
	}
}

func Debugf(format string, args ...interface{}) {
	Debug(fmt.Sprintf(format, args...))
}
