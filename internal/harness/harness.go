package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"slices"

	"github.com/roach88/pagecloud/internal/cloud"
	"github.com/roach88/pagecloud/internal/ir"
	"github.com/roach88/pagecloud/internal/page"
	"github.com/roach88/pagecloud/internal/store"
	"github.com/roach88/pagecloud/internal/testutil"
)

// Harness executes scenario steps against one cloud journaled to an
// in-memory store.
type Harness struct {
	cloud        *cloud.Cloud
	store        *store.Store
	fingerprints *testutil.SequenceGenerator
	logger       *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Each scenario runs in a fresh cloud backed by a fresh in-memory
// database. After the last step the journal is restored into a second
// cloud, which must reproduce every page's commit log and the set of
// fingerprints.
//
// An error is returned only when the harness itself fails; expectation
// mismatches are reported in the result.
func Run(scenario *Scenario) (*Result, error) {
	st, err := store.Open(":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to create in-memory store: %w", err)
	}
	defer st.Close()

	// Suppress logs in tests
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	h := &Harness{
		cloud:        cloud.New(cloud.WithLogger(logger), cloud.WithJournal(st)),
		store:        st,
		fingerprints: testutil.NewSequenceGenerator("device"),
		logger:       logger,
	}

	ctx := context.Background()
	result := NewResult()

	for i, step := range scenario.Steps {
		event, err := h.execute(ctx, scenario, i+1, step)
		if err != nil {
			return nil, fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
		result.Trace = append(result.Trace, event)

		for _, aerr := range checkStep(step, event) {
			result.AddError(aerr.Error())
		}

		h.logger.Info("step completed",
			"step", event.Step,
			"op", event.Op,
			"error", event.Error,
		)
	}

	if err := h.verifyReplay(ctx); err != nil {
		result.AddError(err.Error())
	}

	return result, nil
}

// execute runs one step and records its outcome.
func (h *Harness) execute(ctx context.Context, s *Scenario, n int, step Step) (TraceEvent, error) {
	event := TraceEvent{Step: n, Op: step.Op}

	var err error
	if isPageOp(step.Op) {
		pageID := s.pageFor(step)
		event.Page = string(pageID)
		err = h.executePage(ctx, h.cloud.Page(pageID), step, &event)
	} else {
		err = h.executeDevice(ctx, step, &event)
	}
	if err == nil {
		return event, nil
	}

	code := page.CodeOf(err)
	if code == "" {
		return TraceEvent{}, err
	}
	event.Error = string(code)
	return event, nil
}

func (h *Harness) executePage(ctx context.Context, p *page.PageCloud, step Step, event *TraceEvent) error {
	switch step.Op {
	case OpAddCommits:
		n, err := p.AddCommits(ctx, step.upload())
		if err != nil {
			return err
		}
		event.Accepted = &n

	case OpGetCommits:
		next, commits, _ := p.GetCommits(ir.Token(step.From))
		token := int(next)
		event.Token = &token
		event.Commits = make([]string, len(commits))
		for i, c := range commits {
			event.Commits[i] = string(c.ID)
		}

	case OpGetDiff:
		bases := make([]ir.CommitID, len(step.Bases))
		for i, b := range step.Bases {
			bases[i] = ir.CommitID(b)
		}
		diff, err := p.GetDiff(ir.CommitID(step.Commit), bases)
		if err != nil {
			return err
		}
		event.Base = diff.BaseState.String()
		event.Changes = make([]string, len(diff.Changes))
		for i, e := range diff.Changes {
			event.Changes[i] = changeKey(e)
		}
		slices.Sort(event.Changes)

	case OpAddObject:
		return p.AddObject(ctx, ir.ObjectID(step.Object), ir.Object{Data: []byte(step.Data)})

	case OpGetObject:
		obj, err := p.GetObject(ir.ObjectID(step.Object))
		found := err == nil
		event.Found = &found
		if page.IsNotFound(err) {
			return nil
		}
		if err != nil {
			return err
		}
		event.Data = string(obj.Data)
	}
	return nil
}

func (h *Harness) executeDevice(ctx context.Context, step Step, event *TraceEvent) error {
	devices := h.cloud.DeviceSet()

	switch step.Op {
	case OpSetFingerprint:
		fp := step.Fingerprint
		if fp == "" {
			fp = h.fingerprints.Generate()
		}
		return devices.SetFingerprint(ctx, ir.NormalizeFingerprint(fp))

	case OpCheckFingerprint:
		found := devices.CheckFingerprint(ir.NormalizeFingerprint(step.Fingerprint))
		event.Found = &found

	case OpErase:
		return devices.Erase(ctx)
	}
	return nil
}

// verifyReplay restores the journal into a new cloud and compares it with
// the live one.
func (h *Harness) verifyReplay(ctx context.Context) error {
	replayed := cloud.New(cloud.WithLogger(h.logger))
	if err := replayed.Restore(ctx, h.store); err != nil {
		return &AssertionError{
			Type:     "replay",
			Expected: "journal restores cleanly",
			Actual:   err.Error(),
		}
	}

	for _, id := range h.cloud.PageIDs() {
		want := commitIDs(h.cloud.Page(id))
		got := commitIDs(replayed.Page(id))
		if !slices.Equal(want, got) {
			return &AssertionError{
				Type:     "replay",
				Expected: fmt.Sprintf("page %s commit log %v", id, want),
				Actual:   fmt.Sprintf("%v", got),
			}
		}
	}

	want := h.cloud.DeviceSet().Fingerprints()
	got := replayed.DeviceSet().Fingerprints()
	if !slices.Equal(want, got) {
		return &AssertionError{
			Type:     "replay",
			Expected: fmt.Sprintf("fingerprints %v", want),
			Actual:   fmt.Sprintf("%v", got),
		}
	}

	return nil
}

func commitIDs(p *page.PageCloud) []string {
	_, commits, _ := p.GetCommits(0)
	ids := make([]string, len(commits))
	for i, c := range commits {
		ids[i] = string(c.ID)
	}
	return ids
}
