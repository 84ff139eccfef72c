package server

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/slipwayci/slipway/internal/pipeline"
)

type fakeRunner struct {
	mu       sync.Mutex
	state    pipeline.State
	last     *pipeline.Release
	triggers []pipeline.Trigger

	// Leaves the run slot occupied after Execute, so admission contention
	// stays observable.
	hold bool
}

func (f *fakeRunner) Begin() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.state == pipeline.StateTriggered {
		return pipeline.ErrBusy
	}
	f.state = pipeline.StateTriggered
	return nil
}

func (f *fakeRunner) Execute(ctx context.Context, trigger pipeline.Trigger) (*pipeline.Release, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.triggers = append(f.triggers, trigger)
	if !f.hold {
		f.state = pipeline.StatePublished
	}
	return &pipeline.Release{Version: "1.2.3"}, nil
}

func (f *fakeRunner) State() pipeline.State {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.state
}

func (f *fakeRunner) LastRelease() *pipeline.Release {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeRunner) received() []pipeline.Trigger {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]pipeline.Trigger(nil), f.triggers...)
}

func postJSON(t *testing.T, s *Server, path, body string) *http.Response {
	t.Helper()

	req, err := http.NewRequest(http.MethodPost, path, strings.NewReader(body))
	if err != nil {
		t.Fatal(err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	return resp
}

// The background goroutine fires after the response; poll briefly.
func waitForTriggers(t *testing.T, runner *fakeRunner, n int) []pipeline.Trigger {
	t.Helper()

	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) {
		if got := runner.received(); len(got) >= n {
			return got
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatalf("expected %d triggers, got %d", n, len(runner.received()))
	return nil
}

func TestTagPushStartsRelease(t *testing.T) {
	runner := &fakeRunner{state: pipeline.StateIdle}
	s := New(":0", runner)

	resp := postJSON(t, s, "/v1/triggers/tag", `{"ref": "refs/tags/v1.2.3"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	triggers := waitForTriggers(t, runner, 1)
	if triggers[0].Kind != pipeline.TriggerTagPush || triggers[0].Ref != "refs/tags/v1.2.3" {
		t.Errorf("unexpected trigger: %+v", triggers[0])
	}
}

func TestTagPushIgnoresBranchRefs(t *testing.T) {
	runner := &fakeRunner{state: pipeline.StateIdle}
	s := New(":0", runner)

	resp := postJSON(t, s, "/v1/triggers/tag", `{"ref": "refs/heads/main"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	time.Sleep(10 * time.Millisecond)
	if got := runner.received(); len(got) != 0 {
		t.Errorf("expected no triggers for a branch push, got %d", len(got))
	}
}

func TestTagPushRejectsMissingRef(t *testing.T) {
	s := New(":0", &fakeRunner{state: pipeline.StateIdle})

	resp := postJSON(t, s, "/v1/triggers/tag", `{}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("expected 400, got %d", resp.StatusCode)
	}
}

func TestTriggerRejectedWhileRunning(t *testing.T) {
	runner := &fakeRunner{state: pipeline.StateTriggered}
	s := New(":0", runner)

	resp := postJSON(t, s, "/v1/triggers/dispatch", `{}`)
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("expected 409, got %d", resp.StatusCode)
	}
}

func TestConcurrentTriggersAdmitExactlyOne(t *testing.T) {
	runner := &fakeRunner{state: pipeline.StateIdle, hold: true}
	s := New(":0", runner)

	const n = 20
	var accepted, rejected atomic.Uint64

	var wg sync.WaitGroup
	for range n {
		wg.Add(1)
		go func() {
			defer wg.Done()

			// No test helpers here; Fatal must not fire off the test
			// goroutine.
			req, err := http.NewRequest(http.MethodPost, "/v1/triggers/dispatch", strings.NewReader(`{}`))
			if err != nil {
				return
			}
			req.Header.Set("Content-Type", "application/json")
			resp, err := s.app.Test(req, -1)
			if err != nil {
				return
			}
			switch resp.StatusCode {
			case http.StatusAccepted:
				accepted.Add(1)
			case http.StatusConflict:
				rejected.Add(1)
			}
		}()
	}
	wg.Wait()

	// A 202 must mean the release actually runs; every loser gets the 409.
	if accepted.Load() != 1 {
		t.Errorf("expected exactly 1 accepted trigger, got %d", accepted.Load())
	}
	if rejected.Load() != n-1 {
		t.Errorf("expected %d rejected triggers, got %d", n-1, rejected.Load())
	}

	triggers := waitForTriggers(t, runner, 1)
	if len(triggers) != 1 {
		t.Errorf("expected exactly one release, got %d", len(triggers))
	}
	if got := s.runs.Load(); got != 1 {
		t.Errorf("expected run counter 1, got %d", got)
	}
}

func TestDispatchPassesContext(t *testing.T) {
	runner := &fakeRunner{state: pipeline.StateIdle}
	s := New(":0", runner)

	resp := postJSON(t, s, "/v1/triggers/dispatch", `{"context": "https://github.com/acme/tool.git#main"}`)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", resp.StatusCode)
	}

	triggers := waitForTriggers(t, runner, 1)
	if triggers[0].Kind != pipeline.TriggerManual {
		t.Errorf("expected manual trigger, got %s", triggers[0].Kind)
	}
	if triggers[0].Context != "https://github.com/acme/tool.git#main" {
		t.Errorf("unexpected context: %q", triggers[0].Context)
	}
}

func TestStatusReportsStateAndLastRelease(t *testing.T) {
	runner := &fakeRunner{
		state: pipeline.StatePublished,
		last:  &pipeline.Release{Version: "1.2.3", Tags: []string{"1.2.3", "latest"}},
	}
	s := New(":0", runner)

	req, err := http.NewRequest(http.MethodGet, "/v1/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := s.app.Test(req, -1)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var body struct {
		State       string            `json:"state"`
		Version     string            `json:"version"`
		Uptime      string            `json:"uptime"`
		Runs        uint64            `json:"runs"`
		LastRelease *pipeline.Release `json:"last_release"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}

	if body.State != string(pipeline.StatePublished) {
		t.Errorf("expected published state, got %q", body.State)
	}
	if body.Version == "" {
		t.Error("expected a version string")
	}
	if body.Uptime == "" {
		t.Error("expected an uptime string")
	}
	if body.LastRelease == nil || body.LastRelease.Version != "1.2.3" {
		t.Errorf("unexpected last release: %+v", body.LastRelease)
	}
}
