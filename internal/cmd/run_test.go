package cmd

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harrison/srcflat/internal/config"
	"github.com/harrison/srcflat/internal/filelock"
	"github.com/harrison/srcflat/internal/runner"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func writeProject(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	files := map[string]string{
		"settings.gradle.kts":     "rootProject.name = \"demo\"",
		"api/src/Main.java":       "class Main {}",
		"core/src/Main.java":      "class CoreMain {}",
		"build/generated/X.java":  "generated",
		"docs/README.md":          "# readme",
		"native/Jolt/Physics.cpp": "jolt",
	}
	for rel, content := range files {
		p := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(p), 0755))
		require.NoError(t, os.WriteFile(p, []byte(content), 0644))
	}
	return root
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := NewRootCommand()
	stdout := new(bytes.Buffer)
	stderr := new(bytes.Buffer)
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func TestRunCommandFlattensProject(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "run", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Searching for files...\n")
	assert.Contains(t, out, "Found 3 files to process.\n")
	assert.Contains(t, out, "Done. Processed and saved 3 files to folder 'gpt_project'.\n")
	assert.Contains(t, out, "Resolved 1 file name conflict(s) by adding (n).\n")

	for _, name := range []string{"settings.gradle.kts.txt", "Main.java.txt", "Main.java(1).txt"} {
		assert.FileExists(t, filepath.Join(root, "gpt_project", name))
	}
	assert.FileExists(t, filepath.Join(root, ".srcflat", "history.db"))
	assert.FileExists(t, filepath.Join(root, ".srcflat", "logs", "latest.log"))
}

func TestRootCommandDefaultsToRun(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "Done. Processed and saved 3 files")
	assert.DirExists(t, filepath.Join(root, "gpt_project"))
}

func TestRunCommandDryRun(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "run", "--root", root, "--dry-run", "--no-history")
	require.NoError(t, err)

	assert.Contains(t, out, "Dry run: 3 files would be written to folder 'gpt_project':")
	assert.Contains(t, out, "  core/src/Main.java\n")
	assert.NoDirExists(t, filepath.Join(root, "gpt_project"))
	assert.NoDirExists(t, filepath.Join(root, ".srcflat"))
}

func TestRunCommandNothingFound(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "script.py"), []byte("print()"), 0644))

	out, _, err := execute(t, "run", "--root", root)
	require.NoError(t, err)

	assert.Contains(t, out, "No files found matching your criteria.\n")
	assert.NotContains(t, out, "Done.")
	assert.NoDirExists(t, filepath.Join(root, "gpt_project"))
}

func TestRunCommandOutputFlag(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "run", "--root", root, "--output", "bundle")
	require.NoError(t, err)

	assert.Contains(t, out, "to folder 'bundle'")
	assert.FileExists(t, filepath.Join(root, "bundle", "Main.java.txt"))

	// The second run must not pick up its own .txt output
	out, _, err = execute(t, "run", "--root", root, "--output", "bundle")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 files to process.")
}

func TestRunCommandWhitelist(t *testing.T) {
	root := writeProject(t)
	cfgYAML := "whitelist_files:\n  - core/src/Main.java\n"
	require.NoError(t, os.MkdirAll(config.StateDir(root), 0755))
	require.NoError(t, os.WriteFile(config.ConfigPath(root), []byte(cfgYAML), 0644))

	out, _, err := execute(t, "run", "--root", root, "-w")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 1 files to process.")

	data, err := os.ReadFile(filepath.Join(root, "gpt_project", "Main.java.txt"))
	require.NoError(t, err)
	assert.Equal(t, "/* Original project path: core/src/Main.java */\n\nclass CoreMain {}", string(data))

	// Without -w the whitelist is ignored
	out, _, err = execute(t, "run", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 files to process.")
}

func TestRunCommandWhitelistFlagWithEmptyList(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "run", "--root", root, "--whitelist")
	require.NoError(t, err)
	assert.Contains(t, out, "Found 3 files to process.")
}

func TestRunCommandExplicitConfig(t *testing.T) {
	root := writeProject(t)
	cfgPath := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("output_dir: flat\nextensions: [\".java\"]\n"), 0644))

	out, _, err := execute(t, "run", "--root", root, "--config", cfgPath)
	require.NoError(t, err)

	assert.Contains(t, out, "Found 2 files to process.")
	assert.DirExists(t, filepath.Join(root, "flat"))
}

func TestRunCommandConfigErrors(t *testing.T) {
	root := writeProject(t)

	t.Run("missing explicit config", func(t *testing.T) {
		_, _, err := execute(t, "run", "--root", root, "--config", filepath.Join(root, "nope.yaml"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load config")
	})

	t.Run("malformed config", func(t *testing.T) {
		bad := filepath.Join(t.TempDir(), "bad.yaml")
		require.NoError(t, os.WriteFile(bad, []byte("extensions: [unterminated"), 0644))

		_, _, err := execute(t, "run", "--root", root, "--config", bad)
		require.Error(t, err)
		var cfgErr *config.ConfigurationError
		assert.True(t, errors.As(err, &cfgErr))
	})

	t.Run("invalid output flag", func(t *testing.T) {
		_, _, err := execute(t, "run", "--root", root, "--output", "../escape")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid configuration")
	})

	t.Run("invalid log level", func(t *testing.T) {
		_, _, err := execute(t, "run", "--root", root, "--log-level", "loud")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "log_level")
	})

	t.Run("root is not a directory", func(t *testing.T) {
		_, _, err := execute(t, "run", "--root", filepath.Join(root, "settings.gradle.kts"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "not a directory")
	})
}

func TestRunCommandEnvOverride(t *testing.T) {
	root := writeProject(t)
	t.Setenv(config.EnvOutputDir, "from_env")

	out, _, err := execute(t, "run", "--root", root)
	require.NoError(t, err)
	assert.Contains(t, out, "to folder 'from_env'")

	// Flags win over the environment
	out, _, err = execute(t, "run", "--root", root, "--output", "from_flag")
	require.NoError(t, err)
	assert.Contains(t, out, "to folder 'from_flag'")
}

func TestRunCommandLockHeld(t *testing.T) {
	root := writeProject(t)

	holder := filelock.NewFileLock(config.LockPath(root))
	acquired, err := holder.TryLock()
	require.NoError(t, err)
	require.True(t, acquired)
	defer holder.Unlock()

	_, _, err = execute(t, "run", "--root", root)
	assert.ErrorIs(t, err, runner.ErrRunInProgress)
	assert.NoDirExists(t, filepath.Join(root, "gpt_project"))
}

func TestRunCommandNoHistory(t *testing.T) {
	root := writeProject(t)

	_, _, err := execute(t, "run", "--root", root, "--no-history")
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(root, ".srcflat", "history.db"))
}

func TestRunCommandLogLevelEnablesConsole(t *testing.T) {
	root := writeProject(t)

	_, stderr, err := execute(t, "run", "--root", root, "--log-level", "info")
	require.NoError(t, err)
	assert.Contains(t, stderr, "scanning "+root)

	_, stderr, err = execute(t, "run", "--root", root)
	require.NoError(t, err)
	assert.NotContains(t, stderr, "scanning")
}

func TestHistoryCommand(t *testing.T) {
	root := writeProject(t)

	out, _, err := execute(t, "history", "--root", root)
	require.NoError(t, err)
	assert.Equal(t, "No runs recorded yet.\n", out)

	for i := 0; i < 3; i++ {
		_, _, err := execute(t, "run", "--root", root)
		require.NoError(t, err)
	}

	out, _, err = execute(t, "history", "--root", root)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	assert.Len(t, lines, 2+3, "header, rule and one row per run:\n%s", out)
	assert.Contains(t, lines[0], "PROCESSED")

	out, _, err = execute(t, "history", "--root", root, "--limit", "1")
	require.NoError(t, err)
	assert.Len(t, strings.Split(strings.TrimSpace(out), "\n"), 3)

	_, _, err = execute(t, "history", "--root", root, "--limit", "0")
	assert.Error(t, err)
}

func TestConfigCommand(t *testing.T) {
	root := t.TempDir()

	out, _, err := execute(t, "config", "--root", root, "--output", "bundle")
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	assert.Equal(t, "bundle", cfg.OutputDir)
	assert.Contains(t, cfg.Extensions, ".java")
	assert.Equal(t, config.CommentStyle{Prefix: "/*", Suffix: "*/"}, cfg.CommentStyles[".java"])
	assert.True(t, cfg.History.Enabled)

	// The printed config loads back to the same values
	path := filepath.Join(t.TempDir(), "roundtrip.yaml")
	require.NoError(t, os.WriteFile(path, []byte(out), 0644))
	loaded, err := config.LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "bundle", loaded.OutputDir)
	assert.ElementsMatch(t, cfg.BlacklistFiles, loaded.BlacklistFiles)
}
