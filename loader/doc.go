// Package loader loads and memoizes the identity provider SDK resource once per
// process.
//
// A Loader wraps a Source whose Inject method performs the single side effect
// (fetching the provider metadata, injecting a script, ...). The first call to
// EnsureLoaded starts the injection; every other caller, concurrent or later,
// waits on the same result. Once settled the outcome never changes: a failed
// load stays failed until the process restarts.
//
// If a Probe reports that the readiness object is already present, the loader
// resolves without injecting anything.
//
//	source := loader.NewMetadataSource("https://accounts.example.com", nil)
//	l := loader.Shared(source, loader.WithProbe(source.Ready))
//	if err := l.EnsureLoaded(ctx); err != nil {
//	    // SDK unavailable for the rest of the process
//	}
package loader
