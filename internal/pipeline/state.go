package pipeline

import "strings"

// State of the pipeline.
type State string

const (
	// StateIdle means no release has run yet or the pipeline is between runs.
	StateIdle State = "idle"

	// StateTriggered means a release is currently running.
	StateTriggered State = "triggered"

	// StatePublished means the last release completed and all tags were pushed.
	StatePublished State = "published"

	// StateFailed means the last release aborted before all tags were pushed.
	StateFailed State = "failed"
)

// TriggerKind classifies what started a release.
type TriggerKind string

const (
	// TriggerTagPush is a release started by a pushed version tag.
	TriggerTagPush TriggerKind = "tag-push"

	// TriggerManual is an operator-initiated release.
	TriggerManual TriggerKind = "manual"
)

// Trigger starts a release.
type Trigger struct {
	// Kind of the trigger.
	Kind TriggerKind

	// Ref is the pushed git reference for tag-push triggers, e.g.
	// "refs/tags/v1.2.3". Empty for manual triggers.
	Ref string

	// Context optionally overrides the pipeline's build context for this
	// run: a local directory or a git URL.
	Context string
}

// IsTagRef reports whether a tag-push trigger actually carries a tag ref.
//
// The ref is recorded for the audit trail only; the release version always
// comes from the manifest, never from the tag name.
func (t Trigger) IsTagRef() bool {
	if t.Kind != TriggerTagPush || t.Ref == "" {
		return false
	}
	if strings.HasPrefix(t.Ref, "refs/") {
		return strings.HasPrefix(t.Ref, "refs/tags/")
	}
	// A bare name is taken as a tag; forges that strip the prefix exist.
	return true
}
