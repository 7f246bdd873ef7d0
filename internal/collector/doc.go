// Package collector selects the source files of a project tree.
//
// A Collector walks a root directory top-down and returns the files whose
// extension is allowed by config.Rules, skipping blacklisted file names and,
// when a whitelist is configured, anything not named in it.
//
// # Pruning
//
// Each subdirectory is checked against the directory blacklist before it is
// listed, both by bare name and by its root-relative path:
//
//	blacklist_dirs: [".git", "native/Jolt"]
//
// prunes every ".git" directory at any depth, but only the "Jolt" directly
// under "native". A pruned directory is never read, so nothing beneath it
// can appear in the result.
//
// # Ordering
//
// Results follow traversal order: the files of a directory in listing order
// (os.ReadDir sorts by name), then each surviving subdirectory recursively.
// The same tree always yields the same sequence, which the flattener relies
// on for reproducible name-collision resolution.
//
// # Errors
//
// An unreadable root fails the call with a *TraversalError. An unreadable
// subdirectory is skipped together with its subtree and reported in
// Result.Errors; traversal continues with its siblings.
//
// Usage:
//
//	result, err := collector.Collect(root, cfg.Rules())
//	if err != nil {
//	    return err
//	}
//	for _, f := range result.Files {
//	    fmt.Println(f.RelPath)
//	}
package collector
