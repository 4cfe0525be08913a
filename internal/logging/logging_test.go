// Copyright 2025 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package logging

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerbosity(t *testing.T) {
	var buf bytes.Buffer
	logger, err := New(&buf, DEBUG)
	require.NoError(t, err)

	ctx := NewContext(context.Background(), logger)
	log := FromContext(ctx)
	log.Info("fit failed", "expr", "n^c")
	log.V(DEBUG).Info("fit done", "expr", "n")
	log.V(TRACE).Info("iteration", "lambda", 1e-3)

	out := buf.String()
	assert.Contains(t, out, "fit failed")
	assert.Contains(t, out, `"expr": "n^c"`)
	assert.Contains(t, out, "fit done")
	assert.NotContains(t, out, "iteration")
}

func TestBadVerbosity(t *testing.T) {
	_, err := New(&bytes.Buffer{}, 7)
	assert.Error(t, err)
}

func TestDiscardWithoutLogger(t *testing.T) {
	FromContext(context.Background()).Info("dropped")
}
