// Package artifact models the inputs a toolchain needs that may not exist yet.
//
// A [Ref] is either a [SourcePath], a reference to a file some other build rule
// produces and that the build engine resolves later, or a concrete filesystem
// path that can be used right away. Exactly one variant is populated:
//
//	ref, err := locator.RuntimeJar()
//	if err != nil {
//	    return err
//	}
//	if ref.IsSource() {
//	    deps = append(deps, ref.Source())
//	} else {
//	    classpath = append(classpath, ref.Path())
//	}
//
// The accessors panic when called for the wrong variant, so callers always
// branch on [Ref.IsSource] or [Ref.IsPath] first.
package artifact
