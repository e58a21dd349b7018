package backend

import (
	"context"
	"errors"

	"github.com/jonwraymond/toolfoundation/model"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// mockBackend implements Backend for testing.
type mockBackend struct {
	kind     string
	name     string
	enabled  bool
	tools    []model.Tool
	execFn   func(ctx context.Context, tool string, args map[string]any) (any, error)
	startErr error
	stopErr  error
	started  bool
	stopped  bool
}

func (m *mockBackend) Kind() string  { return m.kind }
func (m *mockBackend) Name() string  { return m.name }
func (m *mockBackend) Enabled() bool { return m.enabled }

func (m *mockBackend) ListTools(_ context.Context) ([]model.Tool, error) {
	out := make([]model.Tool, len(m.tools))
	copy(out, m.tools)
	return out, nil
}

func (m *mockBackend) Execute(ctx context.Context, tool string, args map[string]any) (any, error) {
	if m.execFn != nil {
		return m.execFn(ctx, tool, args)
	}
	return nil, nil
}

func (m *mockBackend) Start(_ context.Context) error {
	if m.startErr != nil {
		return m.startErr
	}
	m.started = true
	return nil
}

func (m *mockBackend) Stop() error {
	m.stopped = true
	return m.stopErr
}

func tool(name string) model.Tool {
	return model.Tool{Tool: mcp.Tool{Name: name, Description: name + " tool", InputSchema: map[string]any{"type": "object"}}}
}

var errBoom = errors.New("boom")

var _ Backend = (*mockBackend)(nil)
