package backend

import (
	"context"
	"errors"
	"fmt"

	"github.com/jonwraymond/tooldiscovery/index"
	"github.com/jonwraymond/tooldiscovery/tooldoc"
	"github.com/jonwraymond/toolfoundation/model"
)

// ErrInvalidToolID is returned for malformed tool IDs.
var ErrInvalidToolID = errors.New("invalid tool ID format")

// Aggregator combines tools from every enabled backend.
type Aggregator struct {
	registry *Registry
}

// NewAggregator creates a new tool aggregator.
func NewAggregator(registry *Registry) *Aggregator {
	return &Aggregator{registry: registry}
}

// ListAllTools returns tools from all enabled backends. Tools without a
// namespace are placed in their backend's.
func (a *Aggregator) ListAllTools(ctx context.Context) ([]model.Tool, error) {
	all := make([]model.Tool, 0)
	for _, b := range a.registry.ListEnabled() {
		tools, err := b.ListTools(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", b.Name(), err)
		}
		for i := range tools {
			if tools[i].Namespace == "" {
				tools[i].Namespace = b.Name()
			}
			all = append(all, tools[i])
		}
	}
	return all, nil
}

// Execute invokes a tool by "backend:tool" ID.
func (a *Aggregator) Execute(ctx context.Context, toolID string, args map[string]any) (any, error) {
	backendName, tool, err := ParseToolID(toolID)
	if err != nil {
		return nil, err
	}
	if backendName == "" {
		return nil, ErrInvalidToolID
	}

	b, ok := a.registry.Get(backendName)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrBackendNotFound, backendName)
	}
	if !b.Enabled() {
		return nil, fmt.Errorf("%w: %s", ErrBackendDisabled, backendName)
	}
	return b.Execute(ctx, tool, args)
}

// Publish registers every enabled backend's tools in idx, each bound to a
// local backend named after its tool ID. When docs is non-nil each tool's
// documentation is registered too: the backend's own entry if it is a
// Documenter, otherwise the tool description. It returns how many tools were
// registered.
func (a *Aggregator) Publish(ctx context.Context, idx index.Index, docs *tooldoc.InMemoryStore) (int, error) {
	tools, err := a.ListAllTools(ctx)
	if err != nil {
		return 0, err
	}
	for i, tool := range tools {
		id := FormatToolID(tool.Namespace, tool.Name)
		if err := idx.RegisterTool(tool, model.NewLocalBackend(id)); err != nil {
			return i, fmt.Errorf("publishing %s: %w", id, err)
		}
		if docs == nil {
			continue
		}
		if err := docs.RegisterDoc(id, a.docFor(tool)); err != nil {
			return i, fmt.Errorf("documenting %s: %w", id, err)
		}
	}
	return len(tools), nil
}

func (a *Aggregator) docFor(tool model.Tool) tooldoc.DocEntry {
	if b, ok := a.registry.Get(tool.Namespace); ok {
		if d, ok := b.(Documenter); ok {
			if entry, ok := d.ToolDoc(tool.Name); ok {
				return entry
			}
		}
	}
	return tooldoc.DocEntry{Summary: tool.Description}
}

// ParseToolID splits a tool ID into backend and tool name.
func ParseToolID(id string) (backendName, tool string, err error) {
	backendName, tool, err = model.ParseToolID(id)
	if err != nil {
		return "", "", ErrInvalidToolID
	}
	return backendName, tool, nil
}

// FormatToolID builds a tool ID from backend and tool name.
func FormatToolID(backendName, tool string) string {
	if backendName == "" {
		return tool
	}
	return backendName + ":" + tool
}
