// Package display keeps the published partner display in sync with the embed definitions.
package display

import (
	"context"
	"fmt"

	"github.com/bwmarrin/snowflake"
	"go.uber.org/zap"

	"github.com/partnerbot/backend/internal/models"
	"github.com/partnerbot/backend/internal/platform"
	"github.com/partnerbot/backend/internal/render"
)

// MessageStore persists which messages the reconciler owns.
type MessageStore interface {
	ListPublished(ctx context.Context, org snowflake.ID) ([]models.PublishedMessage, error)
	InsertPublished(ctx context.Context, m models.PublishedMessage) error
	DeletePublished(ctx context.Context, org, message snowflake.ID) error
}

// Operation names one step of a reconciliation pass.
type Operation string

const (
	OpLoad    Operation = "load"
	OpEdit    Operation = "edit"
	OpCreate  Operation = "create"
	OpDelete  Operation = "delete"
	OpPersist Operation = "persist"
)

// ReconcileError reports the step that aborted a pass. Steps before Position were applied.
type ReconcileError struct {
	Op        Operation
	Position  int
	MessageID snowflake.ID
	Err       error
}

func (e *ReconcileError) Error() string {
	if e.Op == OpLoad {
		return fmt.Sprintf("display reconcile: load published messages: %v", e.Err)
	}
	return fmt.Sprintf("display reconcile: %s at position %d (message %s): %v", e.Op, e.Position, e.MessageID, e.Err)
}

func (e *ReconcileError) Unwrap() error { return e.Err }

// Result counts the calls a pass made.
type Result struct {
	Edited  int `json:"edited"`
	Created int `json:"created"`
	Deleted int `json:"deleted"`
}

// Reconciler maps pages onto owned messages by position.
type Reconciler struct {
	messenger platform.Messenger
	store     MessageStore
	logger    *zap.Logger
}

// NewReconciler creates a message reconciler.
func NewReconciler(messenger platform.Messenger, store MessageStore, logger *zap.Logger) *Reconciler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reconciler{messenger: messenger, store: store, logger: logger}
}

// Reconcile zips pages with the organization's messages, oldest first: positions with both are
// edited, extra pages are sent to channel, extra messages are deleted. A message already gone
// counts as deleted. Any other failure stops the pass; identity rows only change after the
// matching call succeeded.
func (r *Reconciler) Reconcile(ctx context.Context, org, channel snowflake.ID, pages []render.Page) (Result, error) {
	var res Result
	existing, err := r.store.ListPublished(ctx, org)
	if err != nil {
		return res, &ReconcileError{Op: OpLoad, Err: err}
	}

	n := max(len(pages), len(existing))
	for i := 0; i < n; i++ {
		switch {
		case i < len(pages) && i < len(existing):
			msg := existing[i]
			if err := r.messenger.EditMessage(ctx, msg.ChannelID, msg.MessageID, pages[i].Blocks); err != nil {
				return res, &ReconcileError{Op: OpEdit, Position: i, MessageID: msg.MessageID, Err: err}
			}
			res.Edited++

		case i < len(pages):
			id, err := r.messenger.SendMessage(ctx, channel, pages[i].Blocks)
			if err != nil {
				return res, &ReconcileError{Op: OpCreate, Position: i, Err: err}
			}
			res.Created++
			m := models.PublishedMessage{OrganizationID: org, ChannelID: channel, MessageID: id}
			if err := r.store.InsertPublished(ctx, m); err != nil {
				r.logger.Error("published message not recorded; it must be removed by hand",
					zap.String("organization_id", org.String()),
					zap.String("channel_id", channel.String()),
					zap.String("message_id", id.String()),
					zap.Error(err))
				return res, &ReconcileError{Op: OpPersist, Position: i, MessageID: id, Err: err}
			}

		default:
			msg := existing[i]
			if err := r.messenger.DeleteMessage(ctx, msg.ChannelID, msg.MessageID); err != nil {
				switch platform.KindOf(err) {
				case platform.KindNotFound:
					r.logger.Debug("published message already gone", zap.String("message_id", msg.MessageID.String()))
				case platform.KindForbidden, platform.KindOther:
					return res, &ReconcileError{Op: OpDelete, Position: i, MessageID: msg.MessageID, Err: err}
				}
			}
			res.Deleted++
			if err := r.store.DeletePublished(ctx, org, msg.MessageID); err != nil {
				return res, &ReconcileError{Op: OpPersist, Position: i, MessageID: msg.MessageID, Err: err}
			}
		}
	}

	return res, nil
}
