package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func exampleModule(t *testing.T) string {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "go.mod"), "module example.com/lib\n\ngo 1.22\n")
	writeFile(t, filepath.Join(dir, "f.go"), "package lib\n\nimport \"example.com/alog\"\n")
	writeFile(t, filepath.Join(dir, "submod", "s.go"), "package submod\n")
	return dir
}

func TestRunPlainMode(t *testing.T) {
	dir := exampleModule(t)
	var out bytes.Buffer
	code := run([]string{"--dir", dir}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	require.Contains(t, parsed, "example.com/lib")
	require.Contains(t, parsed["example.com/lib"], "example.com/alog")
}

func TestRunAnnotatedMode(t *testing.T) {
	dir := exampleModule(t)
	var out bytes.Buffer
	code := run([]string{"--dir", dir, "--detect_transitive", "--show_optional"}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string]map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	dep := parsed["example.com/lib"]["example.com/alog"]
	require.Equal(t, "direct", dep["type"])
	require.Equal(t, false, dep["optional"])
}

func TestRunTrackImportStack(t *testing.T) {
	dir := exampleModule(t)
	var out bytes.Buffer
	code := run([]string{"--dir", dir, "--track_import_stack"}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string]map[string]struct {
		Stack []struct {
			Filename    string `json:"filename"`
			Lineno      int    `json:"lineno"`
			CodeContext string `json:"code_context"`
		} `json:"stack"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	stack := parsed["example.com/lib"]["example.com/alog"].Stack
	require.Len(t, stack, 2)
	require.Equal(t, "example.com/lib", stack[0].CodeContext)
	require.Equal(t, "f.go", filepath.Base(stack[1].Filename))
	require.Equal(t, 3, stack[1].Lineno)
	require.Equal(t, `"example.com/alog"`, stack[1].CodeContext)
}

func TestRunProjectConfigIgnore(t *testing.T) {
	dir := exampleModule(t)
	writeFile(t, filepath.Join(dir, ".depsplit.toml"), "ignore = [\"example.com/alog\"]\n")

	var out bytes.Buffer
	code := run([]string{"--dir", dir}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	require.NotContains(t, parsed["example.com/lib"], "example.com/alog")
}

func TestRunProjectConfigExtrasModulesDefaultSubmodules(t *testing.T) {
	dir := exampleModule(t)
	writeFile(t, filepath.Join(dir, ".depsplit.toml"), "extras_modules = [\"example.com/lib/submod\"]\n")

	var out bytes.Buffer
	code := run([]string{"--dir", dir}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	require.Contains(t, parsed, "example.com/lib")
	require.Contains(t, parsed, "example.com/lib/submod")
}

func TestRunSubmodulesAll(t *testing.T) {
	dir := exampleModule(t)
	var out bytes.Buffer
	code := run([]string{"--dir", dir, "--submodules"}, &out, &out)
	require.Equal(t, 0, code)

	var parsed map[string][]string
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	require.Contains(t, parsed, "example.com/lib")
	require.Contains(t, parsed, "example.com/lib/submod")
	require.Contains(t, parsed["example.com/lib/submod"], "example.com/alog")
}

func TestRunMissingGoMod(t *testing.T) {
	dir := t.TempDir()
	var out bytes.Buffer
	code := run([]string{"--dir", dir}, &out, &out)
	require.NotEqual(t, 0, code)
}
