// Copyright (c) Abstract Machines
// SPDX-License-Identifier: Apache-2.0

package config_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/absmach/coapattr/pkg/attributes"
	"github.com/absmach/coapattr/pkg/config"
	"github.com/absmach/coapattr/pkg/errors"
	"github.com/absmach/coapattr/pkg/option"
	"github.com/caarlos0/env/v11"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := config.Load(env.Options{Prefix: config.EnvPrefix, Environment: map[string]string{}})
	require.NoError(t, err)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 4, cfg.Workers)
	assert.False(t, cfg.StrictOptions)
	assert.Equal(t, attributes.AllMethods, cfg.Methods)
	assert.True(t, cfg.Resource().Observable)
}

func TestLoadFromEnvironment(t *testing.T) {
	cfg, err := config.Load(env.Options{
		Prefix: config.EnvPrefix,
		Environment: map[string]string{
			"COAPATTR_LOG_LEVEL":      "debug",
			"COAPATTR_LOG_FORMAT":     "text",
			"COAPATTR_STRICT_OPTIONS": "true",
			"COAPATTR_WORKERS":        "8",
			"COAPATTR_METHODS":        "GET,FETCH",
			"COAPATTR_OBSERVABLE":     "false",
			"COAPATTR_SNAPSHOT_DIR":   "/tmp/snap",
		},
	})
	require.NoError(t, err)
	assert.True(t, cfg.StrictOptions)
	assert.Equal(t, 8, cfg.Workers)
	assert.Equal(t, "/tmp/snap", cfg.SnapshotDir)

	rc := cfg.Resource()
	assert.Equal(t, attributes.NewMethodSet(attributes.MethodGet, attributes.MethodFetch), rc.Methods)
	assert.False(t, rc.Observable)

	var buf bytes.Buffer
	logger, err := cfg.Logger(&buf)
	require.NoError(t, err)
	logger.Debug("hello")
	assert.Contains(t, buf.String(), "msg=hello")
}

func TestLoadErrors(t *testing.T) {
	cases := map[string]string{
		"COAPATTR_WORKERS": "0",
		"COAPATTR_METHODS": "BREW",
	}
	for k, v := range cases {
		t.Run(k, func(t *testing.T) {
			_, err := config.Load(env.Options{Prefix: config.EnvPrefix, Environment: map[string]string{k: v}})
			assert.Error(t, err)
		})
	}

	_, err := config.Config{LogLevel: "loud"}.Logger(&bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
	_, err = config.Config{LogLevel: "info", LogFormat: "xml"}.Logger(&bytes.Buffer{})
	assert.ErrorIs(t, err, errors.ErrInvalidInput)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

const tomlRegistry = `
[[option]]
number = 65000
name = "Device-Id"
format = "string"

[[option]]
number = 65004
name = "seq"
format = "uint"
max_len = 2
`

const yamlRegistry = `
option:
  - number: 65000
    name: Device-Id
    format: string
  - number: 65004
    name: seq
    format: uint
    max_len: 2
`

func TestLoadRegistry(t *testing.T) {
	for _, path := range []string{
		writeFile(t, "options.toml", tomlRegistry),
		writeFile(t, "options.yaml", yamlRegistry),
	} {
		t.Run(filepath.Ext(path), func(t *testing.T) {
			r, err := config.LoadRegistry(path)
			require.NoError(t, err)

			d, ok := r.ByName("device-id")
			require.True(t, ok)
			assert.Equal(t, option.Number(65000), d.Number)
			assert.Equal(t, option.FormatString, d.Format)
			assert.Equal(t, option.MaxOtherLen, d.MaxLen)

			d, ok = r.Lookup(65004)
			require.True(t, ok)
			assert.Equal(t, option.FormatUint, d.Format)
			assert.Equal(t, 2, d.MaxLen)
			assert.Equal(t, "seq", r.Alias(65004))
		})
	}

	r, err := config.LoadRegistry("")
	assert.NoError(t, err)
	assert.Nil(t, r)
}

func TestLoadRegistryErrors(t *testing.T) {
	cases := map[string]string{
		"unknown.toml":   "[[option]]\nnumber = 65000\ncolour = \"red\"\n",
		"standard.toml":  "[[option]]\nnumber = 11\nname = \"path\"\n",
		"format.yaml":    "option:\n  - number: 65000\n    format: float\n",
		"bounds.yaml":    "option:\n  - number: 65000\n    min_len: 4\n    max_len: 2\n",
		"strict.yaml":    "option:\n  - number: 65000\n    colour: red\n",
		"options.ini":    "number=1",
		"duplicate.toml": "[[option]]\nnumber = 65000\n[[option]]\nnumber = 65000\n",
	}
	for name, content := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := config.LoadRegistry(writeFile(t, name, content))
			assert.ErrorIs(t, err, errors.ErrInvalidInput)
		})
	}

	_, err := config.LoadRegistry(filepath.Join(t.TempDir(), "missing.toml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
