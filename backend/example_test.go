package backend_test

import (
	"context"
	"fmt"
	"strings"

	"github.com/jonwraymond/kotlinexec/backend"
	"github.com/jonwraymond/kotlinexec/backend/local"
)

func ExampleRegistry() {
	reg := backend.NewRegistry()

	b := local.New("kotlin", nil)
	b.RegisterHandler("echo", local.ToolDef{
		Description: "Echoes its message",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			return args["message"], nil
		},
	})
	_ = reg.Register(b)

	found, ok := reg.Get("kotlin")
	fmt.Printf("Registered backends: %d\n", len(reg.List()))
	fmt.Printf("Found 'kotlin': %v\n", ok)
	fmt.Printf("Backend kind: %s\n", found.Kind())
	// Output:
	// Registered backends: 1
	// Found 'kotlin': true
	// Backend kind: local
}

func ExampleAggregator() {
	reg := backend.NewRegistry()

	b := local.New("text", nil)
	b.RegisterHandler("upper", local.ToolDef{
		Description: "Converts to uppercase",
		InputSchema: map[string]any{"type": "object"},
		Handler: func(_ context.Context, args map[string]any) (any, error) {
			s, _ := args["s"].(string)
			return strings.ToUpper(s), nil
		},
	})
	_ = reg.Register(b)

	agg := backend.NewAggregator(reg)
	ctx := context.Background()

	tools, _ := agg.ListAllTools(ctx)
	fmt.Printf("Total tools: %d\n", len(tools))

	result, _ := agg.Execute(ctx, "text:upper", map[string]any{"s": "kotlinc"})
	fmt.Println(result)
	// Output:
	// Total tools: 1
	// KOTLINC
}
