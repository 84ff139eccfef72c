// Package registry publishes assembled images to a container registry.
//
// A publish takes the per-platform stage archives produced by a build,
// joins them into a multi-architecture OCI index, and pushes that index
// under each requested tag. All tags of one publish point at the same
// index digest.
package registry
