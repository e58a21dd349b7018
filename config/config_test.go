package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestConfig_ValueIsCaseInsensitive(t *testing.T) {
	c := New(map[string]map[string]string{
		"Kotlin": {"Compiler": "/opt/kotlin/bin/kotlinc"},
	})

	v, ok := c.Value("kotlin", "compiler")
	require.True(t, ok)
	assert.Equal(t, "/opt/kotlin/bin/kotlinc", v)

	_, ok = c.Value("kotlin", "runtime_jar")
	assert.False(t, ok)
	_, ok = c.Value("java", "compiler")
	assert.False(t, ok)
}

func TestConfig_Bool(t *testing.T) {
	c := New(map[string]map[string]string{
		"kotlin": {"external": "true", "broken": "sometimes"},
	})

	b, ok, err := c.Bool("kotlin", "external")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, b)

	_, ok, err = c.Bool("kotlin", "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	_, _, err = c.Bool("kotlin", "broken")
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestConfig_SourcePath(t *testing.T) {
	c := New(map[string]map[string]string{
		"kotlin": {
			"runtime_jar":  "//third_party/kotlin:kotlin-runtime",
			"compiler_jar": "third_party/kotlin/kotlin-compiler.jar",
		},
	})

	sp, ok := c.SourcePath("kotlin", "runtime_jar")
	require.True(t, ok)
	assert.Equal(t, "//third_party/kotlin:kotlin-runtime", sp.Target)

	_, ok = c.SourcePath("kotlin", "compiler_jar")
	assert.False(t, ok)
}

func TestConfig_EnvironmentIsCopied(t *testing.T) {
	env := map[string]string{"KOTLIN_HOME": "/opt/kotlin"}
	c := New(nil, WithEnvironment(env), WithProjectRoot("/repo/"))

	env["KOTLIN_HOME"] = "/elsewhere"
	got := c.Environment()
	assert.Equal(t, "/opt/kotlin", got["KOTLIN_HOME"])

	got["KOTLIN_HOME"] = "/mutated"
	assert.Equal(t, "/opt/kotlin", c.Environment()["KOTLIN_HOME"])
	assert.Equal(t, "/repo", c.ProjectRoot())
}

func TestConfig_ZeroValue(t *testing.T) {
	var c Config
	_, ok := c.Value("kotlin", "external")
	assert.False(t, ok)
	assert.Equal(t, ".", c.ProjectRoot())
	assert.Empty(t, c.Environment())
}

func TestLoadFile_HCL(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "kotlin.hcl", `
kotlin {
  external     = true
  compiler     = "tools/kotlinc"
  runtime_jar  = "//third_party/kotlin:kotlin-runtime"
}
`)

	c, err := LoadFile(path, WithEnvironment(map[string]string{"PATH": "/usr/bin"}))
	require.NoError(t, err)

	ext, ok, err := c.Bool(SectionKotlin, KeyExternal)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.True(t, ext)

	v, _ := c.Value(SectionKotlin, KeyCompiler)
	assert.Equal(t, "tools/kotlinc", v)

	_, isRef := c.SourcePath(SectionKotlin, KeyRuntimeJar)
	assert.True(t, isRef)

	assert.Equal(t, "/usr/bin", c.Environment()["PATH"])
	assert.Equal(t, dir, c.ProjectRoot())
}

func TestLoadFile_HCLRejectsTopLevelAttributes(t *testing.T) {
	path := writeFile(t, t.TempDir(), "bad.hcl", `external = true`)

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadFile_HCLSyntaxError(t *testing.T) {
	path := writeFile(t, t.TempDir(), "broken.hcl", `kotlin {`)

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestLoadFile_TOML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "kotlin.toml", `
[kotlin]
external = false
compiler_jar = "/opt/kotlin/lib/kotlin-compiler.jar"
`)

	c, err := LoadFile(path)
	require.NoError(t, err)

	ext, ok, err := c.Bool(SectionKotlin, KeyExternal)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, ext)

	v, ok := c.Value(SectionKotlin, KeyCompilerJar)
	require.True(t, ok)
	assert.Equal(t, "/opt/kotlin/lib/kotlin-compiler.jar", v)
}

func TestLoadFile_UnsupportedExtension(t *testing.T) {
	path := writeFile(t, t.TempDir(), ".buckconfig.ini", "[kotlin]\n")

	_, err := LoadFile(path)
	assert.ErrorIs(t, err, ErrConfiguration)
}

func TestValidate_ReportsEveryProblem(t *testing.T) {
	c := New(map[string]map[string]string{
		"kotlin": {
			"external":    "perhaps",
			"compiler":    "//tools:kotlinc",
			"runtime_jar": "",
			"kotlinc":     "/usr/bin/kotlinc",
		},
	})

	err := Validate(c)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrConfiguration)

	var merr *multierror.Error
	require.True(t, errors.As(err, &merr))
	assert.Len(t, merr.Errors, 4)
}

func TestValidate_Clean(t *testing.T) {
	c := New(map[string]map[string]string{
		"kotlin": {"external": "true", "compiler": "/opt/kotlin/bin/kotlinc"},
	})
	assert.NoError(t, Validate(c))
	assert.NoError(t, Validate(New(nil)))
}
