package driver

import (
	"errors"

	"github.com/depsplit/depsplit/importscan"
	"github.com/depsplit/depsplit/modpath"
	"github.com/depsplit/depsplit/pkgload"
)

// UnknownTargetModule reports that the loader could not find the queried
// target at all (spec.md §7). Fatal.
type UnknownTargetModule struct {
	Target modpath.Name
	Cause  error
}

func (e *UnknownTargetModule) Error() string {
	return "unknown target module " + string(e.Target) + ": " + e.Cause.Error()
}

func (e *UnknownTargetModule) Unwrap() error { return e.Cause }

// ExtractorFailure reports an unterminated import or unreadable source
// (spec.md §7). Fatal.
type ExtractorFailure struct {
	Module modpath.Name
	Reason error
}

func (e *ExtractorFailure) Error() string {
	return "extracting imports for " + string(e.Module) + ": " + e.Reason.Error()
}

func (e *ExtractorFailure) Unwrap() error { return e.Reason }

// LoaderFailure reports that the target module's own package could not be
// loaded (spec.md §7 — the Go analogue of "target module's own top-level
// code raised": here that's always a load-time failure, since extracting
// imports never evaluates the package).
type LoaderFailure struct {
	Module modpath.Name
	Cause  error
}

func (e *LoaderFailure) Error() string {
	return "loading " + string(e.Module) + ": " + e.Cause.Error()
}

func (e *LoaderFailure) Unwrap() error { return e.Cause }

// classifyBuildError translates a depgraph.Build failure into one of the
// three named fatal error kinds §7 specifies, keyed off the wrapped cause's
// concrete type rather than leaking depgraph/pkgload/importscan error types
// across the Driver's public boundary.
func classifyBuildError(root modpath.Name, err error) error {
	var notFound *pkgload.NotFoundError
	if errors.As(err, &notFound) {
		return &UnknownTargetModule{Target: root, Cause: err}
	}
	var loadFailed *pkgload.LoadFailedError
	if errors.As(err, &loadFailed) {
		return &LoaderFailure{Module: root, Cause: err}
	}
	var unterminated *importscan.UnterminatedImportError
	if errors.As(err, &unterminated) {
		return &ExtractorFailure{Module: root, Reason: err}
	}
	return err
}
