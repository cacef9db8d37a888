package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (stdout, stderr string, code int) {
	t.Helper()
	var out, errOut bytes.Buffer
	code = Run(args, &out, &errOut)
	return out.String(), errOut.String(), code
}

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// clearLegacyEnv keeps a developer's MIN_DOTS or STRING_IMPORTS from leaking
// into the defaults under test.
func clearLegacyEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{"MIN_DOTS", "STRING_IMPORTS"} {
		if val, ok := os.LookupEnv(key); ok {
			require.NoError(t, os.Unsetenv(key))
			t.Cleanup(func() { _ = os.Setenv(key, val) })
		}
	}
}

func TestHelpAndSubcommands(t *testing.T) {
	tests := []struct {
		args    []string
		wantOut string
		wantErr bool
	}{
		{args: []string{"--help"}, wantOut: "pyimports reports every module"},
		{args: []string{"parse", "--help"}, wantOut: "cannot be read is an error"},
		{args: []string{"scan", "--help"}, wantOut: "never stop the scan"},
		{args: []string{"watch", "--help"}, wantOut: "Runs until interrupted"},
		{args: []string{"version"}, wantOut: "pyimports dev"},
		{args: []string{"unknown"}, wantErr: true},
		{args: []string{"parse"}, wantErr: true},
	}
	for _, tt := range tests {
		stdout, stderr, code := run(t, tt.args...)
		if tt.wantErr {
			assert.Equal(t, 1, code, "args %v", tt.args)
			assert.Contains(t, stderr, "error:", "args %v", tt.args)
			continue
		}
		assert.Equal(t, 0, code, "args %v: %s", tt.args, stderr)
		assert.Contains(t, stdout, tt.wantOut, "args %v", tt.args)
	}
}

func TestParse(t *testing.T) {
	clearLegacyEnv(t)
	dir := t.TempDir()

	t.Run("prints the import map", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "main.py"), "import os\nimport a.b  # noqa\nx = \"pkg.mod.attr\"\n")
		stdout, stderr, code := run(t, "parse", path)
		require.Equal(t, 0, code, stderr)
		assert.Equal(t, "{\"a.b\":2,\"os\":1}\n", stdout)
	})

	t.Run("unparseable file prints an empty map", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "broken.py"), "import os\ndef (:\n")
		stdout, _, code := run(t, "parse", path)
		assert.Equal(t, 0, code)
		assert.Equal(t, "{}\n", stdout)
	})

	t.Run("unreadable file fails", func(t *testing.T) {
		stdout, stderr, code := run(t, "parse", filepath.Join(dir, "missing.py"))
		assert.Equal(t, 1, code)
		assert.Empty(t, stdout)
		assert.Contains(t, stderr, "NOT_FOUND")
	})

	t.Run("string imports by flag", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "strings.py"), "x = \"a.b\"\n")
		stdout, _, code := run(t, "parse", "--string-imports", "--min-dots", "1", path)
		require.Equal(t, 0, code)
		assert.Equal(t, "{\"a.b\":1}\n", stdout)
	})

	t.Run("tsv", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "tsv.py"), "import sys\n")
		stdout, _, code := run(t, "parse", "-f", "tsv", path)
		require.Equal(t, 0, code)
		assert.Equal(t, "Module\tLine\nsys\t1\n", stdout)
	})

	t.Run("unsupported format", func(t *testing.T) {
		path := writeFile(t, filepath.Join(dir, "fmt.py"), "import sys\n")
		_, stderr, code := run(t, "parse", "--format", "xml", path)
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "output.format")
	})
}

func TestLegacyEnvironment(t *testing.T) {
	path := writeFile(t, filepath.Join(t.TempDir(), "settings.py"), "x = \"a.b\"\n")

	t.Setenv("STRING_IMPORTS", "y")
	t.Setenv("MIN_DOTS", "1")
	stdout, _, code := run(t, "parse", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "{\"a.b\":1}\n", stdout)

	stdout, _, code = run(t, "parse", "--string-imports=false", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "{}\n", stdout)
}

func TestConfigFile(t *testing.T) {
	clearLegacyEnv(t)
	dir := t.TempDir()
	path := writeFile(t, filepath.Join(dir, "settings.py"), "x = \"a.b\"\ny = \"a.b.c\"\n")
	cfgPath := writeFile(t, filepath.Join(dir, "pyimports.toml"), "[imports]\nstring_imports = true\nmin_dots = 1\n")

	stdout, stderr, code := run(t, "parse", "--config", cfgPath, path)
	require.Equal(t, 0, code, stderr)
	assert.Equal(t, "{\"a.b\":1,\"a.b.c\":2}\n", stdout)

	stdout, _, code = run(t, "parse", "--config", cfgPath, "--min-dots", "2", path)
	require.Equal(t, 0, code)
	assert.Equal(t, "{\"a.b.c\":2}\n", stdout)

	_, stderr, code = run(t, "parse", "--config", filepath.Join(dir, "missing.toml"), path)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "NOT_FOUND")
}

func TestScan(t *testing.T) {
	clearLegacyEnv(t)
	root := t.TempDir()
	app := writeFile(t, filepath.Join(root, "app.py"), "import os\n")
	lib := writeFile(t, filepath.Join(root, "lib", "util.py"), "from json import loads\n")
	writeFile(t, filepath.Join(root, "lib", "test_util.py"), "import pytest\n")
	writeFile(t, filepath.Join(root, ".venv", "site.py"), "import site\n")

	stdout, stderr, code := run(t, "scan", "--summary=false", root)
	require.Equal(t, 0, code, stderr)

	var got map[string]map[string]int
	require.NoError(t, json.Unmarshal([]byte(stdout), &got))
	assert.Equal(t, map[string]map[string]int{
		app: {"os": 1},
		lib: {"json.loads": 1},
	}, got)

	t.Run("summary on stderr", func(t *testing.T) {
		_, stderr, code := run(t, "scan", root)
		require.Equal(t, 0, code)
		assert.Contains(t, stderr, "files")
		assert.Contains(t, stderr, "parse failed")
	})

	t.Run("output file", func(t *testing.T) {
		out := filepath.Join(root, "reports", "imports.json")
		stdout, _, code := run(t, "scan", "--summary=false", "-o", out, app)
		require.Equal(t, 0, code)
		assert.Empty(t, stdout)

		data, err := os.ReadFile(out)
		require.NoError(t, err)
		assert.Contains(t, string(data), "\"os\": 1")
	})

	t.Run("missing path", func(t *testing.T) {
		_, stderr, code := run(t, "scan", filepath.Join(root, "nope"))
		assert.Equal(t, 1, code)
		assert.Contains(t, stderr, "NOT_FOUND")
	})
}
