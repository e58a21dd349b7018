package invoke

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jonwraymond/kotlinexec/buildctx"
	"github.com/jonwraymond/kotlinexec/loader"
	"github.com/jonwraymond/kotlinexec/process"
)

type fakeExecutor struct {
	mu    sync.Mutex
	calls []process.Params
	run   func(p process.Params) (process.Result, error)
}

func (f *fakeExecutor) Execute(_ context.Context, p process.Params) (process.Result, error) {
	f.mu.Lock()
	f.calls = append(f.calls, p)
	f.mu.Unlock()
	if f.run == nil {
		return process.Result{}, nil
	}
	return f.run(p)
}

func (f *fakeExecutor) Calls() []process.Params {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]process.Params(nil), f.calls...)
}

type testEnv struct {
	bc     *buildctx.Context
	exec   *fakeExecutor
	cache  *loader.Cache
	stdout *bytes.Buffer
	stderr *bytes.Buffer
}

func newTestEnv(t *testing.T, driver loader.Driver) *testEnv {
	t.Helper()
	if driver == nil {
		driver = loader.NewStaticDriver(nil)
	}
	env := &testEnv{
		exec:   &fakeExecutor{},
		cache:  loader.NewCache(driver, nil),
		stdout: &bytes.Buffer{},
		stderr: &bytes.Buffer{},
	}
	bc, err := buildctx.New(buildctx.Options{
		Executor:   env.exec,
		Env:        map[string]string{"LANG": "C"},
		WorkingDir: "/work",
		Stdout:     env.stdout,
		Stderr:     env.stderr,
		Cache:      env.cache,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = bc.Close() })
	env.bc = bc
	return env
}

// scriptedCompiler writes msg to out and returns code.
type scriptedCompiler struct {
	msg   string
	code  any
	err   error
	panic bool

	mu     sync.Mutex
	args   [][]string
	closer bool
}

func (c *scriptedCompiler) Exec(_ context.Context, out io.Writer, args []string) (any, error) {
	c.mu.Lock()
	c.args = append(c.args, args)
	_, c.closer = out.(io.Closer)
	c.mu.Unlock()
	if c.panic {
		panic("boom")
	}
	_, _ = io.WriteString(out, c.msg)
	return c.code, c.err
}

func (c *scriptedCompiler) lastArgs() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.args) == 0 {
		return nil
	}
	return c.args[len(c.args)-1]
}

// closableBuffer is a stderr sink that fails the test if closed.
type closableBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closableBuffer) Close() error {
	b.closed = true
	return nil
}
