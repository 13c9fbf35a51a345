// Package synccmd exposes synchronization runs as command messages so they
// can be dispatched from HTTP triggers and background jobs alike.
package synccmd

import (
	"context"
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/webizupfr/notion-mirror/internal/commands"
	"github.com/webizupfr/notion-mirror/internal/logging"
	"github.com/webizupfr/notion-mirror/internal/sync"
	"github.com/webizupfr/notion-mirror/pkg/interfaces"
)

const (
	fullSyncMessageType = "mirror.sync.full"
	pageSyncMessageType = "mirror.sync.page"
)

// FullSyncCommand requests a full mirror run over every configured database.
type FullSyncCommand struct {
	Force bool `json:"force"`
}

// Type implements command.Message.
func (FullSyncCommand) Type() string { return fullSyncMessageType }

// PageSyncCommand requests a scoped refresh of one slug.
type PageSyncCommand struct {
	Slug string `json:"slug"`
}

// Type implements command.Message.
func (PageSyncCommand) Type() string { return pageSyncMessageType }

// Validate ensures the slug is present before the handler runs.
func (m PageSyncCommand) Validate() error {
	errs := validation.Errors{}
	if strings.TrimSpace(m.Slug) == "" {
		errs["slug"] = validation.NewError("mirror.sync.page.slug_required", "slug is required")
	}
	if len(errs) > 0 {
		return errs
	}
	return nil
}

// FullSyncHandler drives full runs through the orchestrator.
type FullSyncHandler struct {
	inner *commands.Handler[FullSyncCommand]
}

// NewFullSyncHandler wires a handler to the orchestrator.
func NewFullSyncHandler(orchestrator sync.Orchestrator, logger interfaces.Logger, opts ...commands.HandlerOption[FullSyncCommand]) *FullSyncHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg FullSyncCommand) error {
		_, err := orchestrator.RunFullSync(ctx, msg.Force)
		return err
	}

	handlerOpts := []commands.HandlerOption[FullSyncCommand]{
		commands.WithLogger[FullSyncCommand](baseLogger),
		commands.WithOperation[FullSyncCommand]("sync.full"),
		commands.WithMessageFields(func(msg FullSyncCommand) map[string]any {
			if !msg.Force {
				return nil
			}
			return map[string]any{"force": true}
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &FullSyncHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[FullSyncCommand].Execute.
func (h *FullSyncHandler) Execute(ctx context.Context, msg FullSyncCommand) error {
	return h.inner.Execute(ctx, msg)
}

// PageSyncHandler drives scoped runs through the orchestrator.
type PageSyncHandler struct {
	inner *commands.Handler[PageSyncCommand]
}

// NewPageSyncHandler wires a handler to the orchestrator.
func NewPageSyncHandler(orchestrator sync.Orchestrator, logger interfaces.Logger, opts ...commands.HandlerOption[PageSyncCommand]) *PageSyncHandler {
	baseLogger := logger
	if baseLogger == nil {
		baseLogger = logging.NoOp()
	}

	exec := func(ctx context.Context, msg PageSyncCommand) error {
		_, err := orchestrator.RunSync(ctx, msg.Slug)
		return err
	}

	handlerOpts := []commands.HandlerOption[PageSyncCommand]{
		commands.WithLogger[PageSyncCommand](baseLogger),
		commands.WithOperation[PageSyncCommand]("sync.page"),
		commands.WithMessageFields(func(msg PageSyncCommand) map[string]any {
			if trimmed := strings.TrimSpace(msg.Slug); trimmed != "" {
				return map[string]any{"slug": trimmed}
			}
			return nil
		}),
	}
	handlerOpts = append(handlerOpts, opts...)

	return &PageSyncHandler{inner: commands.NewHandler(exec, handlerOpts...)}
}

// Execute satisfies command.Commander[PageSyncCommand].Execute.
func (h *PageSyncHandler) Execute(ctx context.Context, msg PageSyncCommand) error {
	return h.inner.Execute(ctx, msg)
}
