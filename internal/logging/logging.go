// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package logging builds the structured logger used by the rnaperf
// tools and carries it through contexts.
package logging

import (
	"context"
	"fmt"
	"io"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Verbosity levels for logr's V. Level 0 is always logged.
const (
	INFO  = 0
	DEBUG = 1
	TRACE = 2
)

// New returns a logger writing human-readable lines to w. Messages
// at V levels above verbosity are discarded.
func New(w io.Writer, verbosity int) (logr.Logger, error) {
	if verbosity < INFO || verbosity > TRACE {
		return logr.Discard(), fmt.Errorf("verbosity %d out of range [%d, %d]", verbosity, INFO, TRACE)
	}
	enc := zap.NewDevelopmentEncoderConfig()
	enc.TimeKey = ""
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(enc),
		zapcore.AddSync(w),
		// logr's V(n) maps to zap level -n.
		zap.NewAtomicLevelAt(zapcore.Level(-verbosity)),
	)
	return zapr.NewLogger(zap.New(core)), nil
}

// NewContext returns ctx carrying logger.
func NewContext(ctx context.Context, logger logr.Logger) context.Context {
	return logr.NewContext(ctx, logger)
}

// FromContext returns the logger carried by ctx, or a logger that
// discards everything.
func FromContext(ctx context.Context) logr.Logger {
	return logr.FromContextOrDiscard(ctx)
}
