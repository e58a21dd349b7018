// Package toolchain locates a Kotlin compiler installation from build
// configuration, the environment and the filesystem.
//
// The toolchain home is resolved from, in order:
//
//  1. the kotlin.compiler setting, which must name an executable;
//  2. the KOTLIN_HOME environment variable, used as-is;
//  3. a kotlinc found on the configured PATH.
//
// For 1 and 3 the home is the executable's real parent directory, or that
// directory's parent when it is named bin. The result is memoized for the
// life of the [Locator].
//
// Library jars (kotlin-runtime.jar, kotlin-compiler.jar) resolve to a
// configured build-target reference, else a configured path, else the file
// under the home, else the file under home/lib.
package toolchain
