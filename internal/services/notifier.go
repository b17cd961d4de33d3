package services

import (
	"context"
	"fmt"
)

// Action is a lifecycle transition requested from the chat surface
type Action string

const (
	ActionAcknowledge Action = "acknowledge"
	ActionResolve     Action = "resolve"
)

// Callback token verbs, encoded as "<verb>_<alert id>"
const (
	TokenVerbAcknowledge = "ack"
	TokenVerbResolve     = "resolve"
)

// CallbackToken builds the opaque token carried by an interactive control
func CallbackToken(action Action, alertID uint) string {
	verb := TokenVerbAcknowledge
	if action == ActionResolve {
		verb = TokenVerbResolve
	}
	return fmt.Sprintf("%s_%d", verb, alertID)
}

// ControlStyle hints how a control should be rendered
type ControlStyle string

const (
	ControlStyleDefault ControlStyle = ""
	ControlStylePrimary ControlStyle = "primary"
	ControlStyleDanger  ControlStyle = "danger"
)

// Control is one interactive button attached to a notification
type Control struct {
	Label string
	Token string
	Style ControlStyle
}

// MessageHandle identifies a delivered notification so it can be edited later
type MessageHandle struct {
	ChannelID string
	MessageID string
}

// IsZero reports whether the handle points at nothing
func (h MessageHandle) IsZero() bool {
	return h.ChannelID == "" && h.MessageID == ""
}

// Notifier delivers alert notifications to a chat surface
type Notifier interface {
	// Send posts a new notification and returns where it landed
	Send(ctx context.Context, text string, controls []Control) (MessageHandle, error)

	// Edit replaces the text and controls of an earlier notification
	Edit(ctx context.Context, handle MessageHandle, text string, controls []Control) error
}

// DeliveryErrorClassifier maps a notifier error to a short category and an
// operator-facing hint
type DeliveryErrorClassifier func(err error) (category string, guidance string)

func defaultClassifier(err error) (string, string) {
	if err == nil {
		return "", ""
	}
	return "unknown", ""
}
