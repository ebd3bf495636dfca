package common

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn", "json")
	require.NoError(t, err)

	logger.Info("hidden")
	logger.Warn("pipeline.run.failed", "run_id", "r1")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "pipeline.run.failed", line["msg"])
	assert.Equal(t, "r1", line["run_id"])
}

func TestNewLoggerInvalid(t *testing.T) {
	_, err := NewLogger(&bytes.Buffer{}, "loud", "text")
	assert.ErrorIs(t, err, ErrConfiguration)
	_, err = NewLogger(&bytes.Buffer{}, "", "xml")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoggerFromContext(t *testing.T) {
	var buf bytes.Buffer
	fallback := slog.New(slog.NewJSONHandler(&buf, nil))

	ctx := WithRunID(context.Background(), "run-7")
	assert.Equal(t, "run-7", RunIDFromContext(ctx))
	LoggerFromContext(ctx, fallback).Info("x")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "run-7", line["run_id"])

	scoped := slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))
	assert.Same(t, scoped, LoggerFromContext(WithLogger(ctx, scoped), fallback))
	assert.Equal(t, "", RunIDFromContext(context.Background()))
}
