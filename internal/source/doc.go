// Package source materializes build contexts.
//
// A context spec is either a local directory, used in place, or a git URL,
// shallow-cloned into the run's scratch space. A trailing "#ref" on a git
// URL selects a branch or tag.
package source
