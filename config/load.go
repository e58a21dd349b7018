package config

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclparse"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/spf13/cast"
	"github.com/spf13/viper"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
)

// LoadFile reads a configuration file. The format follows the extension:
// ".hcl" is parsed as HCL blocks, ".toml", ".yaml", ".yml" and ".json" are read
// through viper. The project root defaults to the file's directory.
//
// HCL layout:
//
//	kotlin {
//	  external    = false
//	  runtime_jar = "//third_party/kotlin:kotlin-runtime"
//	  compiler_jar = "third_party/kotlin/kotlin-compiler.jar"
//	}
func LoadFile(path string, opts ...Option) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}

	var cfg *Config
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".hcl":
		cfg, err = loadHCL(abs)
	case ".toml", ".yaml", ".yml", ".json":
		cfg, err = loadViper(abs)
	default:
		return nil, fmt.Errorf("%w: %s: unsupported config format %q", ErrConfiguration, path, filepath.Ext(abs))
	}
	if err != nil {
		return nil, err
	}

	cfg.root = filepath.Dir(abs)
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg, nil
}

func loadHCL(path string) (*Config, error) {
	file, diags := hclparse.NewParser().ParseHCLFile(path)
	if diags.HasErrors() {
		return nil, fmt.Errorf("%w: %s", ErrConfiguration, diags.Error())
	}
	body, ok := file.Body.(*hclsyntax.Body)
	if !ok {
		return nil, fmt.Errorf("%w: %s: unexpected HCL body type", ErrConfiguration, path)
	}
	if len(body.Attributes) > 0 {
		for name, attr := range body.Attributes {
			return nil, fmt.Errorf("%w: %s: top-level attribute %q must live in a section block",
				ErrConfiguration, attr.SrcRange.String(), name)
		}
	}

	cfg := New(nil)
	for _, block := range body.Blocks {
		if len(block.Labels) > 0 {
			return nil, fmt.Errorf("%w: %s: section %q takes no labels",
				ErrConfiguration, block.DefRange().String(), block.Type)
		}
		for name, attr := range block.Body.Attributes {
			value, err := hclString(attr.Expr)
			if err != nil {
				return nil, fmt.Errorf("%w: %s: %s.%s: %v",
					ErrConfiguration, attr.SrcRange.String(), block.Type, name, err)
			}
			cfg.set(block.Type, name, value)
		}
	}
	return cfg, nil
}

// hclString evaluates a literal attribute and renders it as a string.
// Variables and functions are not available.
func hclString(expr hcl.Expression) (string, error) {
	val, diags := expr.Value(nil)
	if diags.HasErrors() {
		return "", diags
	}
	if val.IsNull() || !val.IsKnown() {
		return "", fmt.Errorf("value must be known and non-null")
	}
	str, err := convert.Convert(val, cty.String)
	if err != nil {
		return "", fmt.Errorf("value must be a string, number or bool: %w", err)
	}
	return str.AsString(), nil
}

func loadViper(path string) (*Config, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfiguration, path, err)
	}

	cfg := New(nil)
	for _, key := range v.AllKeys() {
		section, name, ok := strings.Cut(key, ".")
		if !ok || strings.Contains(name, ".") {
			return nil, fmt.Errorf("%w: %s: key %q must be section.key", ErrConfiguration, path, key)
		}
		value, err := cast.ToStringE(v.Get(key))
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %s: %v", ErrConfiguration, path, key, err)
		}
		cfg.set(section, name, value)
	}
	return cfg, nil
}
