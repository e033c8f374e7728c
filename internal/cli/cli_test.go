package cli

import (
	"bytes"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var out, errOut bytes.Buffer
	code := execute(args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func isolateEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"REVIEWMARKS_LISTEN_ADDR",
		"REVIEWMARKS_DB_PATH",
		"REVIEWMARKS_GITHUB_TOKEN",
		"REVIEWMARKS_SHUTDOWN_TIMEOUT",
		"REVIEWMARKS_LOG_LEVEL",
		"REVIEWMARKS_LOG_FORMAT",
	} {
		t.Setenv(key, "")
	}
}

func TestVersion(t *testing.T) {
	code, out, _ := runCLI(t, "version")

	assert.Equal(t, ExitOK, code)
	assert.Equal(t, "reviewmarks dev\n", out)
}

func TestUsageErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"unknown flag", []string{"version", "--bogus"}},
		{"extra argument", []string{"version", "extra"}},
		{"import without repo", []string{"import", "--number", "1"}},
		{"import malformed repo", []string{"import", "--repo", "owner", "--number", "1"}},
		{"import without number", []string{"import", "--repo", "owner/name"}},
		{"import non-numeric number", []string{"import", "--repo", "owner/name", "--number", "abc"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, _, errOut := runCLI(t, tt.args...)

			assert.Equal(t, ExitUsageError, code)
			assert.Contains(t, errOut, "Error:")
			assert.Contains(t, errOut, "Usage:")
		})
	}
}

func TestImportOptionsValidate(t *testing.T) {
	tests := []struct {
		name    string
		opts    importOptions
		wantErr string
	}{
		{"valid", importOptions{repo: "owner/name", number: 7}, ""},
		{"missing owner", importOptions{repo: "/name", number: 7}, "--repo"},
		{"too many segments", importOptions{repo: "a/b/c", number: 7}, "--repo"},
		{"negative number", importOptions{repo: "owner/name", number: -1}, "--number"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.opts.validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestMigrate(t *testing.T) {
	isolateEnv(t)
	dbPath := filepath.Join(t.TempDir(), "reviewmarks.db")
	t.Setenv("REVIEWMARKS_DB_PATH", dbPath)

	code, out, errOut := runCLI(t, "migrate")
	require.Equal(t, ExitOK, code, errOut)
	assert.Equal(t, dbPath+" at schema version 2\n", out)

	// Running again is a no-op at the same version.
	code, out, _ = runCLI(t, "migrate")
	require.Equal(t, ExitOK, code)
	assert.Contains(t, out, "schema version 2")
}

func TestMigrate_InvalidConfig(t *testing.T) {
	isolateEnv(t)
	t.Setenv("REVIEWMARKS_LOG_FORMAT", "xml")

	code, _, errOut := runCLI(t, "migrate")

	assert.Equal(t, ExitError, code)
	assert.Contains(t, errOut, "REVIEWMARKS_LOG_FORMAT")
	assert.NotContains(t, errOut, "Usage:")
}
