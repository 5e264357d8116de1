package main

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aevon-lab/envelope/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const events = `
specversion: "1.0"
id: "1"
source: /payments
type: payment.created
datacontenttype: application/json
data: '{"amount":12}'
extensions:
  namespace: billing
---
specversion: "1.0"
id: "2"
source: /payments
type: payment.refunded
`

type env struct {
	dir    string
	config string
	events string
}

func setup(t *testing.T, configBody string) env {
	t.Helper()
	dir := t.TempDir()
	e := env{
		dir:    dir,
		config: filepath.Join(dir, "envelope.yaml"),
		events: filepath.Join(dir, "events.yaml"),
	}
	require.NoError(t, os.WriteFile(e.config, []byte(configBody), 0o644))
	require.NoError(t, os.WriteFile(e.events, []byte(events), 0o644))
	return e
}

func lines(out *bytes.Buffer) []map[string]any {
	var result []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(out.String()), "\n") {
		if line == "" {
			continue
		}
		var m map[string]any
		if err := json.Unmarshal([]byte(line), &m); err == nil {
			result = append(result, m)
		}
	}
	return result
}

func TestRun_DefaultValidator(t *testing.T) {
	e := setup(t, "validation:\n  rules_dir: ./does-not-exist\n")

	var out bytes.Buffer
	err := run(context.Background(), options{configPath: e.config, files: []string{e.events}}, &out, io.Discard)
	require.NoError(t, err)

	got := lines(&out)
	require.Len(t, got, 2)
	assert.Equal(t, "1", got[0]["id"])
	assert.Equal(t, "2", got[1]["id"])
	assert.Equal(t, "billing", got[0]["namespace"])
}

func TestRun_NamespaceValidatorRefusesOne(t *testing.T) {
	e := setup(t, "header:\n  validator:\n    class: "+validation.NamespaceValidatorName+"\n")

	var out bytes.Buffer
	err := run(context.Background(), options{configPath: e.config, files: []string{e.events}}, &out, io.Discard)
	require.ErrorIs(t, err, errFailed)

	got := lines(&out)
	require.Len(t, got, 1)
	assert.Equal(t, "1", got[0]["id"])
}

func TestRun_ConvertAndRuleFiles(t *testing.T) {
	e := setup(t, "")
	rulesDir := filepath.Join(e.dir, "rules")
	require.NoError(t, os.Mkdir(rulesDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(rulesDir, "payments.yaml"), []byte(`
name: com.example.Payments
extensions:
  namespace: string
`), 0o644))
	require.NoError(t, os.WriteFile(e.config, []byte(
		"validation:\n  rules_dir: "+rulesDir+"\n  require_rules: true\n"+
			"header:\n  validator:\n    class: com.example.Payments\n"), 0o644))

	var out bytes.Buffer
	err := run(context.Background(), options{
		configPath: e.config,
		convertTo:  "0.3",
		files:      []string{e.events},
	}, &out, io.Discard)
	require.NoError(t, err)

	got := lines(&out)
	require.Len(t, got, 2)
	for _, m := range got {
		assert.Equal(t, "0.3", m["specversion"])
	}
}

func TestRun_Errors(t *testing.T) {
	e := setup(t, "")

	tests := []struct {
		name   string
		opts   options
		errMsg string
	}{
		{
			name:   "no files",
			opts:   options{configPath: e.config},
			errMsg: "no fixture files given",
		},
		{
			name:   "unknown convert target",
			opts:   options{configPath: e.config, convertTo: "2.0", files: []string{e.events}},
			errMsg: "unsupported specversion",
		},
		{
			name:   "missing fixture file",
			opts:   options{configPath: e.config, files: []string{filepath.Join(e.dir, "nope.yaml")}},
			errMsg: "open fixture file",
		},
		{
			name:   "missing config file",
			opts:   options{configPath: filepath.Join(e.dir, "nope.yaml"), files: []string{e.events}},
			errMsg: "failed to load config file",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := run(context.Background(), tc.opts, io.Discard, io.Discard)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.errMsg)
		})
	}
}

func TestRun_ValidatorFlagOverridesConfig(t *testing.T) {
	e := setup(t, "")

	err := run(context.Background(), options{
		configPath: e.config,
		validator:  "com.example.Missing",
		files:      []string{e.events},
	}, io.Discard, io.Discard)
	require.ErrorIs(t, err, errFailed)
}
