package invoke

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/kotlinexec/artifact"
	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/process"
	"github.com/jonwraymond/kotlinexec/rulekey"
)

func compilerDriver(c *scriptedCompiler) *loader.StaticDriver {
	return loader.NewStaticDriver(map[string]loader.Factory{
		CompilerClass: func() any { return c },
	})
}

func testClasspath() []artifact.Ref {
	return []artifact.Ref{
		artifact.FromPath("/opt/kotlin/lib/kotlin-runtime.jar"),
		artifact.FromPath("/opt/kotlin/lib/kotlin-compiler.jar"),
	}
}

func TestInProcess_Args(t *testing.T) {
	p := NewInProcess(testClasspath(), WithRegistry(NewShimRegistry()))
	sep := string(os.PathListSeparator)

	args := p.Args(Request{
		OutputDir:   "out",
		SourceFiles: []string{"src/Foo.kt", "/abs/Bar.kt"},
		ExtraArgs:   []string{"-nowarn"},
		Classpath:   []string{"/libs/a.jar", "/libs/b.jar"},
	}, "/work")
	assert.Equal(t, []string{
		"-include-runtime", "-d", "/work/out", "-nowarn", "/work/src/Foo.kt", "/abs/Bar.kt",
		"-cp", "/libs/a.jar" + sep + "/libs/b.jar",
	}, args)

	args = p.Args(Request{OutputDir: "/out", SourceFiles: []string{"/src/Foo.kt"}}, "/work")
	assert.Equal(t, []string{"-include-runtime", "-d", "/out", "/src/Foo.kt"}, args)
}

func TestInProcess_Accessors(t *testing.T) {
	runtimeTarget, ok := artifact.ParseSourcePath("//third-party/kotlin:runtime")
	require.True(t, ok)
	p := NewInProcess([]artifact.Ref{
		artifact.FromSource(runtimeTarget),
		artifact.FromPath("/opt/kotlin/lib/kotlin-compiler.jar"),
	})

	_, err := p.CommandPrefix()
	assert.ErrorIs(t, err, ErrUnsupported)
	_, err = p.Environment()
	assert.ErrorIs(t, err, ErrUnsupported)

	assert.Equal(t, []artifact.SourcePath{runtimeTarget}, p.Inputs())
	v, err := p.Version(context.Background())
	require.NoError(t, err)
	assert.Equal(t, InMemoryVersion, v)
	assert.Equal(t, "kotlinc  @/tmp/srcs", p.Description(nil, "/tmp/srcs"))

	b := rulekey.NewBuilder()
	require.NoError(t, p.AppendToRuleKey(context.Background(), b))
	fields := b.Fields()
	assert.Equal(t, "jar-backed", fields["kotlinc"])
	assert.Equal(t, "in-memory", fields["kotlinc.version"])
	assert.Equal(t, p.Classpath().String(), fields["kotlinc.classpath"])
}

func TestInProcess_CompileWritesToStderr(t *testing.T) {
	c := &scriptedCompiler{msg: "error: unresolved reference", code: loader.ExitCode(1)}
	env := newTestEnv(t, compilerDriver(c))
	p := NewInProcess(testClasspath(), WithRegistry(NewShimRegistry()))

	code, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out", SourceFiles: []string{"/src/Foo.kt"}})
	require.NoError(t, err)
	assert.Equal(t, 1, code)
	assert.Equal(t, "error: unresolved reference", env.stderr.String())
	assert.Equal(t, []string{"-include-runtime", "-d", "/out", "/src/Foo.kt"}, c.lastArgs())
	assert.Empty(t, env.exec.Calls(), "in-process compilation must not spawn processes")
}

func TestInProcess_OutputSinkCannotBeClosed(t *testing.T) {
	c := &scriptedCompiler{code: 0}
	cache := loader.NewCache(compilerDriver(c), nil)
	sink := &closableBuffer{}
	bc, err := buildctx.New(buildctx.Options{Cache: cache, Stderr: sink, Env: map[string]string{}, WorkingDir: "/work"})
	require.NoError(t, err)
	defer bc.Close()

	p := NewInProcess(testClasspath(), WithRegistry(NewShimRegistry()))
	_, err = p.Compile(context.Background(), bc, Request{OutputDir: "/out"})
	require.NoError(t, err)
	assert.False(t, c.closer, "compiler received a closable stream")
	assert.False(t, sink.closed)
}

func TestInProcess_SingleLoadPerClasspath(t *testing.T) {
	c := &scriptedCompiler{code: 0}
	driver := compilerDriver(c)
	env := newTestEnv(t, driver)
	reg := NewShimRegistry()
	t.Cleanup(func() { _ = reg.Reset() })

	a := NewInProcess(testClasspath(), WithRegistry(reg))
	reversed := testClasspath()
	reversed[0], reversed[1] = reversed[1], reversed[0]
	b := NewInProcess(reversed, WithRegistry(reg))

	var wg sync.WaitGroup
	for i := 0; i < 24; i++ {
		inv := a
		if i%2 == 1 {
			inv = b
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			code, err := inv.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
			assert.NoError(t, err)
			assert.Equal(t, 0, code)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, reg.Constructions())
	assert.Equal(t, 1, reg.Len())
	assert.Equal(t, 1, driver.Opened())
	assert.Equal(t, 2, env.cache.Stats().Refs, "context and loaded compiler each hold a reference")
}

func TestInProcess_NonZeroExitKeepsCompiler(t *testing.T) {
	c := &scriptedCompiler{code: 2}
	env := newTestEnv(t, compilerDriver(c))
	reg := NewShimRegistry()
	p := NewInProcess(testClasspath(), WithRegistry(reg))

	for i := 0; i < 3; i++ {
		code, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
		require.NoError(t, err)
		assert.Equal(t, 2, code)
	}
	assert.Equal(t, 1, reg.Constructions())
}

func TestInProcess_InvocationErrorInvalidates(t *testing.T) {
	c := &scriptedCompiler{err: errors.New("NoSuchMethodError")}
	driver := compilerDriver(c)
	env := newTestEnv(t, driver)
	reg := NewShimRegistry()
	p := NewInProcess(testClasspath(), WithRegistry(reg))

	_, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInternal)
	var ie *InternalError
	require.True(t, errors.As(err, &ie))
	assert.Equal(t, "invoke", ie.Op)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, env.cache.Stats().Refs)
	assert.Equal(t, 0, env.cache.Stats().Contexts, "loading context should be evicted")

	c.err = nil
	c.code = 0
	code, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	require.NoError(t, err)
	assert.Equal(t, 0, code)
	assert.Equal(t, 2, reg.Constructions())
	assert.Equal(t, 2, driver.Opened(), "library should be opened again")
	assert.Equal(t, 2, env.cache.Stats().Constructions)
}

func TestInProcess_PanicIsInternalError(t *testing.T) {
	c := &scriptedCompiler{panic: true}
	env := newTestEnv(t, compilerDriver(c))
	reg := NewShimRegistry()
	p := NewInProcess(testClasspath(), WithRegistry(reg))

	_, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.Equal(t, 0, reg.Len())
}

func TestInProcess_BadExitCodeIsInternalError(t *testing.T) {
	c := &scriptedCompiler{code: "OK"}
	env := newTestEnv(t, compilerDriver(c))
	p := NewInProcess(testClasspath(), WithRegistry(NewShimRegistry()))

	_, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, loader.ErrIncompatible)
}

func TestInProcess_MissingCompilerClass(t *testing.T) {
	env := newTestEnv(t, loader.NewStaticDriver(nil))
	reg := NewShimRegistry()
	p := NewInProcess(testClasspath(), WithRegistry(reg))

	_, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	assert.ErrorIs(t, err, ErrInternal)
	assert.ErrorIs(t, err, loader.ErrClassNotFound)
	assert.Equal(t, 0, reg.Len())
	assert.Equal(t, 1, env.cache.Stats().Refs, "failed load must give back its reference")
}

func TestInProcess_InterruptionIsNotInternal(t *testing.T) {
	c := &scriptedCompiler{err: errors.Join(process.ErrInterrupted, context.Canceled)}
	env := newTestEnv(t, compilerDriver(c))
	reg := NewShimRegistry()
	p := NewInProcess(testClasspath(), WithRegistry(reg))

	_, err := p.Compile(context.Background(), env.bc, Request{OutputDir: "/out"})
	assert.ErrorIs(t, err, process.ErrInterrupted)
	assert.NotErrorIs(t, err, ErrInternal)
	assert.Equal(t, 1, reg.Len())
}
