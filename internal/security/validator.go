// Package security gates every inbound message before business handlers run.
//
// Three checks apply in order, short-circuiting on first failure: the message
// type must be on the protocol allow-list, the sender must be this extension
// when sender identity is required, and the sender must report the top-level
// frame when frame origin is required. Rejections are classified: a missing
// frame id happens under normal browser conditions and is logged quietly,
// while an unknown type, a foreign extension id, or a non-zero frame id is
// potential attack traffic and is always logged loudly.
//
// The check wraps handler registration as a decorator, so there is no code
// path where a handler runs on an unvalidated message.
package security

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/absmartly/extension-bridge/internal/bridge"
	"github.com/absmartly/extension-bridge/internal/logging"
	"github.com/absmartly/extension-bridge/internal/monitoring"
	"github.com/absmartly/extension-bridge/internal/protocol"
)

// Rejection reasons. All are violations except ErrMissingFrame.
var (
	ErrUnknownType   = errors.New("unrecognized message type")
	ErrForeignSender = errors.New("sender is not this extension")
	ErrMissingFrame  = errors.New("sender frame id missing")
	ErrBadFrame      = errors.New("sender frame is not the top-level frame")
)

// IsViolation reports whether err is a security violation rather than a
// benign validation failure.
func IsViolation(err error) bool {
	return errors.Is(err, ErrUnknownType) ||
		errors.Is(err, ErrForeignSender) ||
		errors.Is(err, ErrBadFrame)
}

// Checks selects which sender checks apply at a registration point. The type
// allow-list always applies.
type Checks struct {
	// RequireSender verifies the sender's extension id against our own.
	RequireSender bool
	// RequireTopFrame verifies the sender is the tab's top-level frame.
	RequireTopFrame bool
}

// Validator decides accept or reject for inbound messages.
type Validator struct {
	extensionID string
	logger      *logging.Logger
	metrics     *monitoring.Metrics
}

// NewValidator creates a validator bound to our own extension id.
func NewValidator(extensionID string, logger *logging.Logger, metrics *monitoring.Metrics) *Validator {
	if logger == nil {
		logger = logging.NewNop()
	}
	if metrics == nil {
		metrics = monitoring.Nop()
	}
	return &Validator{
		extensionID: extensionID,
		logger:      logger.Named("security"),
		metrics:     metrics,
	}
}

// Check applies the ordered checks and returns the first failure, or nil
// when the message is acceptable.
func (v *Validator) Check(env *protocol.Envelope, sender protocol.Sender, checks Checks) error {
	if env.Type == "" || !env.Type.Known() {
		return fmt.Errorf("%w: %q", ErrUnknownType, string(env.Type))
	}

	if checks.RequireSender && sender.ExtensionID != v.extensionID {
		return fmt.Errorf("%w: %q", ErrForeignSender, sender.ExtensionID)
	}

	if checks.RequireTopFrame {
		if sender.FrameID == nil {
			return ErrMissingFrame
		}
		if *sender.FrameID != protocol.TopFrameID {
			return fmt.Errorf("%w: frame %d", ErrBadFrame, *sender.FrameID)
		}
	}

	return nil
}

// Decorate wraps h so it only ever sees validated messages. A rejected
// message is claimed by the decorator: when the sender expected a response
// it receives a structured failure reply carrying the rejection reason, and
// the message never reaches h or any later listener.
func (v *Validator) Decorate(h bridge.Handler, checks Checks) bridge.Handler {
	return func(ctx context.Context, env *protocol.Envelope, sender protocol.Sender) bridge.Result {
		if err := v.Check(env, sender, checks); err != nil {
			v.report(env, sender, err)
			if env.ExpectsResponse {
				return bridge.Immediate(env.Failure(err.Error()))
			}
			return bridge.Immediate(nil)
		}
		return h(ctx, env, sender)
	}
}

// report logs and counts a rejection according to its classification.
func (v *Validator) report(env *protocol.Envelope, sender protocol.Sender, err error) {
	if IsViolation(err) {
		v.metrics.Violations.WithLabelValues(violationReason(err)).Inc()
		v.logger.Violation(err.Error(),
			zap.String("type", env.Type.String()),
			zap.String("sender_extension", sender.ExtensionID),
		)
		return
	}
	v.metrics.ValidationFailures.Inc()
	v.logger.Quiet("message rejected: "+err.Error(),
		zap.String("type", env.Type.String()),
	)
}

func violationReason(err error) string {
	switch {
	case errors.Is(err, ErrUnknownType):
		return "unknown_type"
	case errors.Is(err, ErrForeignSender):
		return "foreign_sender"
	case errors.Is(err, ErrBadFrame):
		return "bad_frame"
	default:
		return "other"
	}
}
