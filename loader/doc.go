// Package loader provides isolated loading contexts for a compiler
// implementation and the process-wide, reference-counted cache that shares
// them across compilations.
//
// A [Context] is a namespace seeded with a list of locators (file URLs of the
// compiler's classpath) and chained to a parent. Instantiating a type name
// asks the parent first and falls back to the context's own [Library], which
// a [Driver] opened from the locators.
//
// The [Cache] hands out contexts keyed by parent identity and locator list.
// Construction happens exactly once per key even when many goroutines ask at
// the same time. Contexts stay alive while the cache holds at least one
// reference:
//
//	driver, _ := loader.NewJVMDriver(loader.JVMConfig{Executor: process.NewExecutor(logger)})
//	cache := loader.NewCache(driver, logger)
//	cache.AddRef()
//	defer cache.Release()
//
//	ctx, err := cache.ContextFor(loader.Root(), loader.FileLocators(jars))
//	if err != nil {
//	    return err
//	}
//	instance, err := ctx.Instantiate(goctx, "org.jetbrains.kotlin.cli.jvm.K2JVMCompiler")
//
// Three drivers are provided: [JVMDriver] runs the loaded main class in a JVM
// child process, [PluginDriver] opens Go plugin shared objects, and
// [StaticDriver] serves in-memory factories.
package loader
