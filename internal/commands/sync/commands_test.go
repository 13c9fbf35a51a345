package synccmd_test

import (
	"context"
	"errors"
	"testing"

	goerrors "github.com/goliatone/go-errors"
	synccmd "github.com/webizupfr/notion-mirror/internal/commands/sync"
	"github.com/webizupfr/notion-mirror/internal/content"
)

type fakeOrchestrator struct {
	fullCalls int
	forceSeen bool
	pageCalls int
	slugSeen  string
	failRuns  error
}

func (f *fakeOrchestrator) RunFullSync(_ context.Context, force bool) (*content.SyncReport, error) {
	f.fullCalls++
	f.forceSeen = force
	if f.failRuns != nil {
		return nil, f.failRuns
	}
	return &content.SyncReport{}, nil
}

func (f *fakeOrchestrator) RunSync(_ context.Context, slug string) (*content.PageBundle, error) {
	f.pageCalls++
	f.slugSeen = slug
	if f.failRuns != nil {
		return nil, f.failRuns
	}
	return &content.PageBundle{}, nil
}

func TestFullSyncHandler_Executes(t *testing.T) {
	orch := &fakeOrchestrator{}
	handler := synccmd.NewFullSyncHandler(orch, nil)

	if err := handler.Execute(context.Background(), synccmd.FullSyncCommand{Force: true}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if orch.fullCalls != 1 || !orch.forceSeen {
		t.Fatalf("unexpected orchestrator state: %+v", orch)
	}
}

func TestFullSyncHandler_WrapsExecutionError(t *testing.T) {
	orch := &fakeOrchestrator{failRuns: errors.New("upstream down")}
	handler := synccmd.NewFullSyncHandler(orch, nil)

	err := handler.Execute(context.Background(), synccmd.FullSyncCommand{})
	if err == nil {
		t.Fatal("expected error")
	}
	if !goerrors.IsWrapped(err) {
		t.Fatalf("expected wrapped error, got %v", err)
	}
}

func TestPageSyncHandler_Executes(t *testing.T) {
	orch := &fakeOrchestrator{}
	handler := synccmd.NewPageSyncHandler(orch, nil)

	if err := handler.Execute(context.Background(), synccmd.PageSyncCommand{Slug: "welcome"}); err != nil {
		t.Fatalf("execute: %v", err)
	}
	if orch.slugSeen != "welcome" {
		t.Fatalf("expected slug to reach orchestrator, got %q", orch.slugSeen)
	}
}

func TestPageSyncHandler_RejectsMissingSlug(t *testing.T) {
	orch := &fakeOrchestrator{}
	handler := synccmd.NewPageSyncHandler(orch, nil)

	if err := handler.Execute(context.Background(), synccmd.PageSyncCommand{}); err == nil {
		t.Fatal("expected validation error")
	}
	if orch.pageCalls != 0 {
		t.Fatal("validation failure must not reach the orchestrator")
	}
}
