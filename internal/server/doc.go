// Package server exposes the release pipeline over HTTP.
//
// The daemon accepts forge webhook tag pushes and manual dispatches, starts
// releases in the background, and reports the pipeline state. One release
// runs at a time; triggers arriving mid-run are rejected, not queued.
package server
