/*
Copyright 2026 Benny Powers. All rights reserved.
Use of this source code is governed by the GPLv3
license that can be found in the LICENSE file.
*/

package logger

import (
	"bytes"
	"io"
	"os"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func TestLogger_Levels(t *testing.T) {
	var buf bytes.Buffer
	SetOutput(&buf)
	t.Cleanup(func() {
		SetOutput(os.Stderr)
		SetLevel(zapcore.InfoLevel)
	})

	Info("resolved %d requests", 3)
	Warn("missing %s", "entry")
	Debug("hidden")

	out := buf.String()
	if !strings.Contains(out, "resolved 3 requests") {
		t.Errorf("expected info line, got %q", out)
	}
	if !strings.Contains(out, "missing entry") || !strings.Contains(out, "WARN") {
		t.Errorf("expected warn line, got %q", out)
	}
	if strings.Contains(out, "hidden") {
		t.Errorf("debug line written at info level: %q", out)
	}

	buf.Reset()
	SetLevel(zapcore.DebugLevel)
	Debug("visible")
	L().Debug("structured", zap.String("request", "./a"))
	out = buf.String()
	if !strings.Contains(out, "visible") {
		t.Errorf("expected debug line, got %q", out)
	}
	if !strings.Contains(out, `"request": "./a"`) {
		t.Errorf("expected structured field, got %q", out)
	}
}

func TestLogger_Discard(t *testing.T) {
	SetOutput(io.Discard)
	t.Cleanup(func() { SetOutput(os.Stderr) })

	if L().Core().Enabled(zapcore.ErrorLevel) {
		t.Error("expected discarded logger to be disabled")
	}
	Warn("nobody hears this")
}
