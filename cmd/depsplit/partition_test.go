package main

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRunPartitionBasic(t *testing.T) {
	dir := exampleModule(t)
	writeFile(t, filepath.Join(dir, "go.mod"),
		"module example.com/lib\n\ngo 1.22\n\nrequire example.com/alog v1.0.0\n")
	writeFile(t, filepath.Join(dir, ".depsplit.toml"),
		"extras_modules = [\"example.com/lib/submod\"]\n")

	var out, errOut bytes.Buffer
	code := run([]string{"partition", "--dir", dir, "--index", filepath.Join(dir, "index.db")}, &out, &errOut)
	require.Equal(t, 0, code)

	var parsed struct {
		Base   []string            `json:"Base"`
		Extras map[string][]string `json:"Extras"`
		All    []string            `json:"All"`
	}
	require.NoError(t, json.Unmarshal(out.Bytes(), &parsed))
	require.Contains(t, parsed.All, "example.com/alog")
}
