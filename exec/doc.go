// Package exec is the facade over the Kotlin toolchain: it resolves the
// toolchain from configuration, builds the configured invocation strategy
// and runs compilation steps in a build context.
//
// # Basic Usage
//
//	cfg, err := config.LoadFile(".kotlinexec.hcl",
//	    config.WithEnvironment(env))
//	if err != nil {
//	    return err
//	}
//
//	executor, err := exec.New(exec.Options{Config: cfg})
//	if err != nil {
//	    return err // toolchain could not be resolved
//	}
//	defer executor.Close()
//
//	result, err := executor.Compile(ctx, invoke.Request{
//	    OutputDir:   "buck-out/classes",
//	    SourceFiles: []string{"src/Foo.kt"},
//	    Classpath:   invoke.NewClasspath(deps...),
//	})
//	if err != nil {
//	    return err // interrupted, or the in-process compiler is broken
//	}
//	if !result.OK() {
//	    fmt.Fprint(os.Stderr, result.Diagnostics())
//	}
//
// # Batches
//
// CompileAll runs independent requests concurrently with a parallelism
// limit:
//
//	results, err := executor.CompileAll(ctx, requests, 4)
//
// # Integration
//
// The exec package ties together:
//
//   - [github.com/jonwraymond/kotlinexec/toolchain] for toolchain resolution
//   - [github.com/jonwraymond/kotlinexec/invoke] for the compiler strategies
//   - [github.com/jonwraymond/kotlinexec/step] for captured compilation steps
//   - [github.com/jonwraymond/kotlinexec/buildctx] for the execution context
package exec
