// Provides platform-appropriate paths for the pipeline.
//
// All paths follow XDG conventions on Linux and platform-native conventions
// on macOS and Windows. The tool name "slipway" is used as the subdirectory
// under each base path. Every pipeline run gets its own scratch directory,
// so concurrent runs never share mutable state on disk.
package paths
