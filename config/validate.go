package config

import (
	"fmt"

	"github.com/hashicorp/go-multierror"
)

// Section and keys of the Kotlin toolchain configuration.
const (
	SectionKotlin  = "kotlin"
	KeyExternal    = "external"
	KeyCompiler    = "compiler"
	KeyRuntimeJar  = "runtime_jar"
	KeyCompilerJar = "compiler_jar"
)

// EnvKotlinHome names the environment variable pointing at a Kotlin install.
const EnvKotlinHome = "KOTLIN_HOME"

var knownKeys = map[string]bool{
	KeyExternal:    true,
	KeyCompiler:    true,
	KeyRuntimeJar:  true,
	KeyCompilerJar: true,
}

// Validate checks the kotlin section of c and reports every problem at once.
// It returns nil when the section is absent.
func Validate(c *Config) error {
	var result *multierror.Error

	for _, key := range c.Keys(SectionKotlin) {
		if !knownKeys[key] {
			result = multierror.Append(result,
				fmt.Errorf("%w: unknown key %s.%s", ErrConfiguration, SectionKotlin, key))
		}
	}

	if _, _, err := c.Bool(SectionKotlin, KeyExternal); err != nil {
		result = multierror.Append(result, err)
	}

	for _, key := range []string{KeyCompiler, KeyRuntimeJar, KeyCompilerJar} {
		if v, ok := c.Value(SectionKotlin, key); ok && v == "" {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s.%s is set but empty", ErrConfiguration, SectionKotlin, key))
		}
	}

	if v, ok := c.Value(SectionKotlin, KeyCompiler); ok {
		if _, isTarget := c.SourcePath(SectionKotlin, KeyCompiler); isTarget {
			result = multierror.Append(result,
				fmt.Errorf("%w: %s.%s must be a path, got build target %q",
					ErrConfiguration, SectionKotlin, KeyCompiler, v))
		}
	}

	return result.ErrorOrNil()
}
