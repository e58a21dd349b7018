// Package local provides a backend serving a Kotlin toolchain's operations
// as in-process tool handlers.
package local

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/spf13/cast"

	"github.com/jonwraymond/kotlinexec/backend"
	"github.com/jonwraymond/kotlinexec/exec"
	"github.com/jonwraymond/kotlinexec/invoke"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// Tool names served by a toolchain backend.
const (
	ToolCompile = "compile"
	ToolVersion = "version"
	ToolLocate  = "locate"
)

// HandlerFunc is the function signature for tool handlers.
type HandlerFunc func(ctx context.Context, args map[string]any) (any, error)

// ToolDef defines a local tool with its handler.
type ToolDef struct {
	Name         string
	Title        string
	Description  string
	InputSchema  map[string]any
	OutputSchema map[string]any
	Annotations  *mcp.ToolAnnotations
	Tags         []string
	Doc          tooldoc.DocEntry
	Handler      HandlerFunc
}

// Backend implements backend.Backend over an exec.Exec.
type Backend struct {
	name     string
	ex       *exec.Exec
	mu       sync.RWMutex
	enabled  bool
	handlers map[string]ToolDef
}

// New creates a backend named name serving the compile, version and locate
// tools of ex. A nil ex yields a backend with no built-in tools.
func New(name string, ex *exec.Exec) *Backend {
	b := &Backend{
		name:     name,
		ex:       ex,
		enabled:  true,
		handlers: make(map[string]ToolDef),
	}
	if ex == nil {
		return b
	}
	b.RegisterHandler(ToolCompile, ToolDef{
		Title:        "Compile Kotlin sources",
		Description:  "Compiles Kotlin source files into a class directory and reports the compiler exit code and diagnostics.",
		InputSchema:  compileInputSchema,
		OutputSchema: compileOutputSchema,
		Tags:         []string{"kotlin", "compile", "build"},
		Doc: tooldoc.DocEntry{
			Summary: "Compile Kotlin sources with the configured toolchain.",
			Notes: "The exit code is the compiler's own. stderr is present only when it is non-zero. " +
				"Classpath entries are sorted and de-duplicated; sources keep their order.",
		},
		Handler: b.compile,
	})
	b.RegisterHandler(ToolVersion, ToolDef{
		Title:       "Kotlin compiler version",
		Description: "Reports the Kotlin compiler version and the rule key of the configured toolchain.",
		InputSchema: map[string]any{"type": "object"},
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		Tags:        []string{"kotlin", "toolchain"},
		Doc: tooldoc.DocEntry{
			Summary: "Report the compiler version and toolchain rule key.",
			Notes:   "An external compiler that cannot report a version is keyed by its path.",
		},
		Handler: b.version,
	})
	b.RegisterHandler(ToolLocate, ToolDef{
		Title:       "Locate Kotlin toolchain",
		Description: "Reports the Kotlin home directory, compiler path and library jars resolved from configuration.",
		InputSchema: map[string]any{"type": "object"},
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
		Tags:        []string{"kotlin", "toolchain"},
		Doc: tooldoc.DocEntry{
			Summary: "Report where the Kotlin toolchain was found.",
			Notes:   "Home resolution tries kotlin.compiler, then KOTLIN_HOME, then kotlinc on PATH.",
		},
		Handler: b.locate,
	})
	return b
}

// Kind returns the backend kind.
func (b *Backend) Kind() string {
	return "local"
}

// Name returns the backend instance name.
func (b *Backend) Name() string {
	return b.name
}

// Enabled returns whether the backend is enabled.
func (b *Backend) Enabled() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.enabled
}

// SetEnabled enables or disables the backend.
func (b *Backend) SetEnabled(enabled bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.enabled = enabled
}

// RegisterHandler registers or replaces a tool handler.
func (b *Backend) RegisterHandler(name string, def ToolDef) {
	if def.Name == "" {
		def.Name = name
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[name] = def
}

// ToolDoc returns the documentation registered with a tool.
func (b *Backend) ToolDoc(tool string) (tooldoc.DocEntry, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	def, ok := b.handlers[tool]
	if !ok || def.Doc.Summary == "" {
		return tooldoc.DocEntry{}, false
	}
	return def.Doc, true
}

// ListTools returns the backend's tools sorted by name.
func (b *Backend) ListTools(_ context.Context) ([]model.Tool, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]model.Tool, 0, len(b.handlers))
	for _, def := range b.handlers {
		out = append(out, model.Tool{
			Tool: mcp.Tool{
				Name:         def.Name,
				Title:        def.Title,
				Description:  def.Description,
				InputSchema:  def.InputSchema,
				OutputSchema: def.OutputSchema,
				Annotations:  def.Annotations,
			},
			Namespace: b.name,
			Tags:      model.NormalizeTags(def.Tags),
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Execute invokes a tool handler.
func (b *Backend) Execute(ctx context.Context, tool string, args map[string]any) (any, error) {
	b.mu.RLock()
	enabled := b.enabled
	def, ok := b.handlers[tool]
	b.mu.RUnlock()

	if !enabled {
		return nil, backend.ErrBackendDisabled
	}
	if !ok || def.Handler == nil {
		return nil, fmt.Errorf("%w: %s", backend.ErrToolNotFound, tool)
	}
	return def.Handler(ctx, args)
}

// Start is a no-op: the toolchain is resolved when the Exec is built.
func (b *Backend) Start(_ context.Context) error {
	return nil
}

// Stop releases the Exec's build context.
func (b *Backend) Stop() error {
	if b.ex == nil {
		return nil
	}
	return b.ex.Close()
}

func (b *Backend) compile(ctx context.Context, args map[string]any) (any, error) {
	req, err := requestFromArgs(args)
	if err != nil {
		return nil, err
	}
	res, err := b.ex.Compile(ctx, req)
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"exit_code":   res.ExitCode,
		"description": res.Description,
		"duration_ms": res.Duration.Milliseconds(),
	}
	if res.Stderr != nil {
		out["stderr"] = *res.Stderr
	}
	return out, nil
}

func (b *Backend) version(ctx context.Context, _ map[string]any) (any, error) {
	v, err := b.ex.Version(ctx)
	if err != nil {
		return nil, err
	}
	key, err := b.ex.RuleKey(ctx)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"short_name": b.ex.Invocation().ShortName(),
		"version":    v,
		"rule_key":   key,
	}, nil
}

func (b *Backend) locate(_ context.Context, _ map[string]any) (any, error) {
	tc, err := b.ex.Toolchain()
	if err != nil {
		return nil, err
	}
	out := map[string]any{
		"external": tc.External,
		"home":     tc.Home,
	}
	if tc.External {
		out["compiler"] = tc.CompilerPath
	} else {
		out["runtime_jar"] = tc.RuntimeJar.String()
		out["compiler_jar"] = tc.CompilerJar.String()
	}
	return out, nil
}

func requestFromArgs(args map[string]any) (invoke.Request, error) {
	var req invoke.Request
	var err error
	if req.OutputDir, err = stringArg(args, "output_dir", true); err != nil {
		return req, err
	}
	if req.SrcsList, err = stringArg(args, "srcs_list", false); err != nil {
		return req, err
	}
	if req.WorkingDir, err = stringArg(args, "working_dir", false); err != nil {
		return req, err
	}
	if req.SourceFiles, err = listArg(args, "sources"); err != nil {
		return req, err
	}
	if req.ExtraArgs, err = listArg(args, "extra_args"); err != nil {
		return req, err
	}
	if req.Options, err = listArg(args, "options"); err != nil {
		return req, err
	}
	cp, err := listArg(args, "classpath")
	if err != nil {
		return req, err
	}
	req.Classpath = invoke.NewClasspath(cp...)
	return req, nil
}

func stringArg(args map[string]any, key string, required bool) (string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("%w: %s is required", backend.ErrInvalidArguments, key)
		}
		return "", nil
	}
	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", backend.ErrInvalidArguments, key, err)
	}
	if required && s == "" {
		return "", fmt.Errorf("%w: %s is required", backend.ErrInvalidArguments, key)
	}
	return s, nil
}

func listArg(args map[string]any, key string) ([]string, error) {
	v, ok := args[key]
	if !ok || v == nil {
		return nil, nil
	}
	if _, isString := v.(string); isString {
		return nil, fmt.Errorf("%w: %s must be a list", backend.ErrInvalidArguments, key)
	}
	out, err := cast.ToStringSliceE(v)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", backend.ErrInvalidArguments, key, err)
	}
	return out, nil
}

var stringList = map[string]any{"type": "array", "items": map[string]any{"type": "string"}}

var compileInputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"output_dir":  map[string]any{"type": "string", "description": "Directory receiving compiled classes."},
		"sources":     stringList,
		"classpath":   stringList,
		"extra_args":  stringList,
		"options":     stringList,
		"srcs_list":   map[string]any{"type": "string"},
		"working_dir": map[string]any{"type": "string"},
	},
	"required": []any{"output_dir"},
}

var compileOutputSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"exit_code":   map[string]any{"type": "integer"},
		"stderr":      map[string]any{"type": "string"},
		"description": map[string]any{"type": "string"},
		"duration_ms": map[string]any{"type": "integer"},
	},
	"required": []any{"exit_code"},
}

var (
	_ backend.Backend    = (*Backend)(nil)
	_ backend.Documenter = (*Backend)(nil)
)
