// Package backend exposes compiler toolchains as named sources of tools.
//
// A [Backend] publishes operations such as compile, version and locate as
// tools described with the toolfoundation model, so build front-ends and
// agents can discover and call them uniformly:
//
//   - Backend interface for tool sources
//   - Registry for managing backends by name
//   - Aggregator for listing, dispatching and publishing tools
//
// # Registry
//
//	registry := backend.NewRegistry()
//	registry.Register(local.New("kotlin", executor))
//
// # Aggregator
//
// Tool IDs have the form "backend:tool":
//
//	agg := backend.NewAggregator(registry)
//	result, _ := agg.Execute(ctx, "kotlin:compile", args)
//
// Publish registers every enabled backend's tools in a tooldiscovery index,
// and their documentation in a doc store, so they can be searched and
// described:
//
//	idx := index.NewInMemoryIndex()
//	docs := tooldoc.NewInMemoryStore(tooldoc.StoreOptions{Index: idx})
//	n, err := agg.Publish(ctx, idx, docs)
package backend
