// Parses flags and dispatches the slipway subcommands.
//
// The tool accepts the following global flags:
//
//	-q, --quiet        Suppress informational output.
//	-d, --debug        Enable debug output.
//	-c, --config       Pipeline configuration file.
//	    --containerd   Containerd socket address.
//	    --namespace    Containerd namespace.
//
// Flags override build-time defaults set via linker flags. After parsing,
// the global logger is reconfigured to reflect the final level before the
// selected command runs.
package cli
