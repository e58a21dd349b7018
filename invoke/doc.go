// Package invoke runs the Kotlin compiler.
//
// An [Invocation] is one of two strategies. [External] spawns kotlinc for
// every request. [InProcess] loads the compiler once per distinct classpath
// into a shared loading context and calls it directly, which avoids paying
// JVM start-up for every compilation in a long-running build daemon.
//
// Both strategies take a [Request] and a [buildctx.Context] and return the
// compiler's exit code. A non-zero exit code is a compilation failure, not
// an error; errors are reserved for interruption and, in process, for a
// broken toolchain ([ErrInternal]).
package invoke
