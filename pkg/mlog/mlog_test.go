// Structured logging tests
//
// Copyright (C) 2026  Go Migration Team
//
// This file may be distributed under the terms of the GNU GPLv3 license.

package mlog

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLoggerBasic(t *testing.T) {
	var buf bytes.Buffer
	logger := New("triangulate")
	logger.SetWriter(&buf)
	logger.SetLevel(Debug)

	logger.Info("resolved %s", "crank_pin")

	output := buf.String()
	if !strings.Contains(output, "[INFO ]") {
		t.Errorf("expected INFO level, got: %s", output)
	}
	if !strings.Contains(output, "triangulate:") {
		t.Errorf("expected prefix 'triangulate:', got: %s", output)
	}
	if !strings.Contains(output, "resolved crank_pin") {
		t.Errorf("expected formatted message, got: %s", output)
	}
}

func TestLoggerLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := New("solver")
	logger.SetWriter(&buf)
	logger.SetLevel(Info)

	logger.Debug("iteration detail")
	if buf.Len() != 0 {
		t.Errorf("expected Debug to be filtered at Info level, got: %s", buf.String())
	}

	logger.Warn("residual above tolerance")
	if !strings.Contains(buf.String(), "residual above tolerance") {
		t.Errorf("expected Warn to pass, got: %s", buf.String())
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   Debug,
		"INFO":    Info,
		"warn":    Warn,
		"warning": Warn,
		"Error":   Error,
		"bogus":   Info,
	}
	for input, want := range cases {
		if got := ParseLevel(input); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", input, got, want)
		}
	}
}

func TestWithFieldsAttachesStructuredData(t *testing.T) {
	var buf bytes.Buffer
	logger := New("solver").WithFields(Fields{"joints": 4, "residual": 1e-9})
	logger.SetWriter(&buf)
	logger.SetLevel(Debug)

	logger.Info("solve complete")

	output := buf.String()
	if !strings.Contains(output, "joints=4") || !strings.Contains(output, "residual=1e-09") {
		t.Errorf("expected structured fields in output, got: %s", output)
	}
}

func TestWithFieldsIsImmutable(t *testing.T) {
	base := New("solver")
	derived := base.WithFields(Fields{"a": 1})
	derived.WithFields(Fields{"b": 2})

	if len(base.fields) != 0 {
		t.Errorf("base logger fields should stay empty, got: %v", base.fields)
	}
	if len(derived.fields) != 1 {
		t.Errorf("derived logger should carry only its own field, got: %v", derived.fields)
	}
}

func TestJSONFormatProducesValidJSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New("triangulate").WithFields(Fields{"joints": 4})
	logger.SetWriter(&buf)
	logger.SetFormat(FormatJSON)
	logger.SetLevel(Debug)

	logger.Error("no solution")

	var entry map[string]any
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry["level"] != "ERROR" {
		t.Errorf("level = %v, want ERROR", entry["level"])
	}
	if entry["component"] != "triangulate" {
		t.Errorf("component = %v, want triangulate", entry["component"])
	}
	if entry["message"] != "no solution" {
		t.Errorf("message = %v, want %q", entry["message"], "no solution")
	}
}
