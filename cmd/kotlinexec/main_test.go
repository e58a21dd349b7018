//go:build unix

package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const fakeKotlinc = `#!/bin/sh
if [ "$1" = "-version" ]; then
  echo "info: kotlinc-jvm 2.0.21 (JRE 21)" >&2
  exit 0
fi
for a in "$@"; do
  case "$a" in
    *Broken.kt) echo "e: Broken.kt:1:1 expecting a top level declaration" >&2; exit 1 ;;
    *Slow.kt) echo $$ > "$FAKE_KOTLINC_PIDFILE"; exec sleep 30 ;;
  esac
done
exit 0
`

// setup installs a scripted kotlinc under a fake home and writes an HCL
// configuration selecting the external compiler.
func setup(t *testing.T) (cfgPath, kotlinc string) {
	t.Helper()
	dir := t.TempDir()
	home := filepath.Join(dir, "kotlin")
	kotlinc = filepath.Join(home, "bin", "kotlinc")
	require.NoError(t, os.MkdirAll(filepath.Dir(kotlinc), 0o755))
	require.NoError(t, os.WriteFile(kotlinc, []byte(fakeKotlinc), 0o755))

	cfgPath = filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(cfgPath, []byte("kotlin {\n  external = true\n}\n"), 0o644))
	t.Setenv("KOTLIN_HOME", home)
	return cfgPath, kotlinc
}

func runCLI(args ...string) (code int, stdout, stderr string) {
	var out, errOut bytes.Buffer
	code = run(context.Background(), args, &out, &errOut)
	return code, out.String(), errOut.String()
}

func TestLocate(t *testing.T) {
	cfg, kotlinc := setup(t)

	code, out, errOut := runCLI("--config", cfg, "locate")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "external")
	assert.Contains(t, out, kotlinc)
}

func TestVersion(t *testing.T) {
	cfg, kotlinc := setup(t)

	code, out, errOut := runCLI("-c", cfg, "version", "--rule-key")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, kotlinc+": info: kotlinc-jvm 2.0.21 (JRE 21)")
	assert.Contains(t, out, "rule key: ")
}

func TestCompile(t *testing.T) {
	cfg, _ := setup(t)
	out := t.TempDir()

	code, _, errOut := runCLI("-c", cfg, "compile", "-d", out, "Main.kt")
	assert.Equal(t, 0, code, errOut)

	code, _, errOut = runCLI("-c", cfg, "compile", "-d", out, "Main.kt", "Broken.kt")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "expecting a top level declaration")
}

func TestCompile_RequiresOutputDir(t *testing.T) {
	cfg, _ := setup(t)

	code, _, errOut := runCLI("-c", cfg, "compile", "Main.kt")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "output-dir")
}

func TestResolutionFailure(t *testing.T) {
	t.Setenv("KOTLIN_HOME", "")
	t.Setenv("PATH", t.TempDir())

	code, _, errOut := runCLI("--project-root", t.TempDir(), "--verbosity", "silent", "locate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "KOTLIN_HOME")
}

func TestBadVerbosity(t *testing.T) {
	cfg, _ := setup(t)

	code, _, errOut := runCLI("-c", cfg, "--verbosity", "loud", "locate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown verbosity")
}

func TestTools(t *testing.T) {
	cfg, _ := setup(t)

	code, out, errOut := runCLI("-c", cfg, "tools")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "kotlin:compile")
	assert.Contains(t, out, "kotlin:locate")
	assert.Contains(t, out, "kotlin:version")

	code, out, errOut = runCLI("-c", cfg, "tools", "--describe", "kotlin:compile")
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "Compile Kotlin sources")
}

func TestExitStatus(t *testing.T) {
	tests := []struct{ code, want int }{
		{1, 1},
		{2, 2},
		{-1, 1},
		{300, 1},
	}
	for _, tt := range tests {
		if got := exitStatus(tt.code); got != tt.want {
			t.Errorf("exitStatus(%d) = %d, want %d", tt.code, got, tt.want)
		}
	}
}

func TestInvalidConfig(t *testing.T) {
	setup(t)
	cfg := filepath.Join(t.TempDir(), "build.toml")
	require.NoError(t, os.WriteFile(cfg, []byte("[kotlin]\nexternal = \"maybe\"\nkotlinc = \"/usr/bin/kotlinc\"\n"), 0o644))

	code, _, errOut := runCLI("-c", cfg, "locate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "unknown key kotlin.kotlinc")
	assert.Contains(t, errOut, "external")
}

func TestCompile_InterruptKillsCompiler(t *testing.T) {
	cfg, _ := setup(t)
	pidFile := filepath.Join(t.TempDir(), "kotlinc.pid")
	t.Setenv("FAKE_KOTLINC_PIDFILE", pidFile)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var errOut bytes.Buffer
	done := make(chan int, 1)
	go func() {
		done <- run(ctx, []string{"-c", cfg, "compile", "-d", t.TempDir(), "Slow.kt"}, &bytes.Buffer{}, &errOut)
	}()

	var pid int
	require.Eventually(t, func() bool {
		data, err := os.ReadFile(pidFile)
		if err != nil {
			return false
		}
		pid, err = strconv.Atoi(strings.TrimSpace(string(data)))
		return err == nil && pid > 0
	}, 10*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case code := <-done:
		assert.Equal(t, exitInterrupted, code)
	case <-time.After(10 * time.Second):
		t.Fatal("compile did not return after cancellation")
	}
	assert.Contains(t, errOut.String(), "interrupted")
	assert.ErrorIs(t, syscall.Kill(pid, 0), syscall.ESRCH, "kotlinc %d still running", pid)
}

func TestLoaderFlag(t *testing.T) {
	setup(t)
	dir := t.TempDir()
	for _, name := range []string{"kotlin-runtime.so", "kotlin-compiler.so"} {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte("not a plugin"), 0o644))
	}
	cfg := filepath.Join(dir, "build.hcl")
	require.NoError(t, os.WriteFile(cfg, []byte(`kotlin {
  runtime_jar  = "kotlin-runtime.so"
  compiler_jar = "kotlin-compiler.so"
}
`), 0o644))

	code, _, errOut := runCLI("-c", cfg, "--loader", "plugin", "compile", "-d", t.TempDir(), "Main.kt")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "invalid classpath locator")
	assert.Contains(t, errOut, ".so")

	code, _, errOut = runCLI("-c", cfg, "--loader", "dalvik", "locate")
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, `unknown loader "dalvik"`)
}
