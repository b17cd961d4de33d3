package slack

import (
	"context"
	"fmt"
	"strings"

	"github.com/akmatori/alertrelay/internal/services"
	"github.com/akmatori/alertrelay/internal/utils"
	"github.com/slack-go/slack"
)

// ActionBlockID is the block id of the alert button row
const ActionBlockID = "alert_actions"

// maxSectionText is Slack's limit for a section block's text
const maxSectionText = 3000

// Notifier posts alert notifications to the configured alerts channel
type Notifier struct {
	manager *Manager
}

// NewNotifier creates a notifier backed by the manager's current client
func NewNotifier(manager *Manager) *Notifier {
	return &Notifier{manager: manager}
}

// Send posts a new alert message with its buttons
func (n *Notifier) Send(ctx context.Context, text string, controls []services.Control) (services.MessageHandle, error) {
	client := n.manager.GetClient()
	if client == nil {
		return services.MessageHandle{}, ErrNotConfigured
	}

	channelID, err := n.manager.ResolveAlertsChannel(ctx)
	if err != nil {
		return services.MessageHandle{}, err
	}

	channel, ts, err := client.PostMessageContext(ctx, channelID, messageOptions(text, controls)...)
	if err != nil {
		return services.MessageHandle{}, fmt.Errorf("failed to post alert message: %w", err)
	}
	return services.MessageHandle{ChannelID: channel, MessageID: ts}, nil
}

// Edit replaces an earlier alert message. Passing no controls removes the buttons.
func (n *Notifier) Edit(ctx context.Context, handle services.MessageHandle, text string, controls []services.Control) error {
	client := n.manager.GetClient()
	if client == nil {
		return ErrNotConfigured
	}
	if handle.ChannelID == "" || handle.MessageID == "" {
		return fmt.Errorf("cannot edit message without channel and timestamp")
	}

	if _, _, _, err := client.UpdateMessageContext(ctx, handle.ChannelID, handle.MessageID, messageOptions(text, controls)...); err != nil {
		return fmt.Errorf("failed to update alert message: %w", err)
	}
	return nil
}

// Ephemeral shows text only to userID in channelID
func (n *Notifier) Ephemeral(ctx context.Context, channelID, userID, text string) error {
	client := n.manager.GetClient()
	if client == nil {
		return ErrNotConfigured
	}
	if _, err := client.PostEphemeralContext(ctx, channelID, userID, slack.MsgOptionText(text, false)); err != nil {
		return fmt.Errorf("failed to post ephemeral message: %w", err)
	}
	return nil
}

func messageOptions(text string, controls []services.Control) []slack.MsgOption {
	return []slack.MsgOption{
		slack.MsgOptionText(fallbackText(text), false),
		slack.MsgOptionBlocks(BuildBlocks(text, controls)...),
	}
}

// BuildBlocks renders the alert text as a section block followed by one
// button per control. The button value carries the callback token.
func BuildBlocks(text string, controls []services.Control) []slack.Block {
	section := slack.NewSectionBlock(
		slack.NewTextBlockObject(slack.MarkdownType, utils.TruncateText(text, maxSectionText), false, false),
		nil, nil,
	)
	blocks := []slack.Block{section}
	if len(controls) == 0 {
		return blocks
	}

	elements := make([]slack.BlockElement, 0, len(controls))
	for _, c := range controls {
		button := slack.NewButtonBlockElement(
			c.Token,
			c.Token,
			slack.NewTextBlockObject(slack.PlainTextType, c.Label, false, false),
		)
		if c.Style != services.ControlStyleDefault {
			button = button.WithStyle(slack.Style(c.Style))
		}
		elements = append(elements, button)
	}
	return append(blocks, slack.NewActionBlock(ActionBlockID, elements...))
}

// fallbackText is shown in notifications and clients that cannot render blocks
func fallbackText(text string) string {
	first, _, _ := strings.Cut(text, "\n")
	return utils.TruncateText(first, 150)
}
