package handlers

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/akmatori/alertrelay/internal/database"
	"github.com/akmatori/alertrelay/internal/services"
	alertslack "github.com/akmatori/alertrelay/internal/slack"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
)

// StatsCommand is the slash command that reports alert statistics
const StatsCommand = "/alerts"

// callbackTimeout bounds the work done for one button press or command
const callbackTimeout = 10 * time.Second

// MessageEditor updates delivered alert messages and answers individual users
type MessageEditor interface {
	Edit(ctx context.Context, handle services.MessageHandle, text string, controls []services.Control) error
	Ephemeral(ctx context.Context, channelID, userID, text string) error
}

// SlackHandler handles Slack button presses and commands
type SlackHandler struct {
	lifecycle    *services.LifecycleService
	alertService *services.AlertService
	messages     MessageEditor
}

// NewSlackHandler creates a new Slack handler
func NewSlackHandler(lifecycle *services.LifecycleService, alertService *services.AlertService, messages MessageEditor) *SlackHandler {
	return &SlackHandler{
		lifecycle:    lifecycle,
		alertService: alertService,
		messages:     messages,
	}
}

// HandleSocketMode starts the Socket Mode handler
func (h *SlackHandler) HandleSocketMode(socketClient *socketmode.Client) {
	go func() {
		for evt := range socketClient.Events {
			switch evt.Type {
			case socketmode.EventTypeConnecting:
				log.Println("Connecting to Slack with Socket Mode...")

			case socketmode.EventTypeConnectionError:
				log.Printf("Slack Socket Mode connection failed, retrying: %v", evt.Data)

			case socketmode.EventTypeConnected:
				log.Println("Connected to Slack with Socket Mode")

			case socketmode.EventTypeInteractive:
				callback, ok := evt.Data.(slack.InteractionCallback)
				if !ok {
					log.Printf("Ignored %+v\n", evt)
					continue
				}

				// Ack immediately; the message edit follows asynchronously
				socketClient.Ack(*evt.Request)

				go func() {
					ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
					defer cancel()
					h.HandleInteraction(ctx, callback)
				}()

			case socketmode.EventTypeSlashCommand:
				cmd, ok := evt.Data.(slack.SlashCommand)
				if !ok {
					log.Printf("Ignored %+v\n", evt)
					continue
				}

				ctx, cancel := context.WithTimeout(context.Background(), callbackTimeout)
				payload := h.HandleSlashCommand(ctx, cmd)
				cancel()
				socketClient.Ack(*evt.Request, payload)

			case socketmode.EventTypeEventsAPI:
				socketClient.Ack(*evt.Request)

			case socketmode.EventTypeHello, socketmode.EventTypeDisconnect:
				// handled by the client

			default:
				log.Printf("Unexpected event type received: %s\n", evt.Type)
			}
		}
	}()
}

// HandleInteraction applies the lifecycle action behind each pressed button.
// Applied transitions edit the alert message; anything else is answered with
// an ephemeral notice to the user who pressed it.
func (h *SlackHandler) HandleInteraction(ctx context.Context, callback slack.InteractionCallback) {
	if callback.Type != slack.InteractionTypeBlockActions {
		return
	}

	actor := database.Actor{
		Handle: callback.User.Name,
		ID:     callback.User.ID,
		Name:   callback.User.RealName,
	}
	channelID := callbackChannel(callback)

	for _, action := range callback.ActionCallback.BlockActions {
		token := action.Value
		if token == "" {
			token = action.ActionID
		}

		verb, alertID, err := alertslack.ParseCallbackToken(token)
		if err != nil {
			log.Printf("Ignoring button press from %s: %v", actor.ID, err)
			h.notify(ctx, channelID, actor.ID, "This button is no longer valid.")
			continue
		}

		outcome, err := h.lifecycle.Transition(ctx, alertID, verb, actor)
		if err != nil {
			log.Printf("Failed to %s alert %d for %s: %v", verb, alertID, actor.ID, err)
			h.notify(ctx, channelID, actor.ID, fmt.Sprintf("Could not update alert #%d, please try again.", alertID))
			continue
		}

		if outcome.Kind != services.OutcomeApplied {
			h.notify(ctx, channelID, actor.ID, outcome.Notice)
			continue
		}

		handle := messageHandle(callback, outcome.Alert)
		if handle.ChannelID == "" || handle.MessageID == "" {
			log.Printf("Warning: alert %d has no delivered message to update", alertID)
			continue
		}
		if err := h.messages.Edit(ctx, handle, outcome.Text, outcome.Controls); err != nil {
			category, _ := alertslack.ClassifyDeliveryError(err)
			log.Printf("Failed to update message for alert %d [%s]: %v", alertID, category, err)
		}
	}
}

// HandleSlashCommand builds the response for a slash command
func (h *SlackHandler) HandleSlashCommand(ctx context.Context, cmd slack.SlashCommand) map[string]interface{} {
	if cmd.Command != StatsCommand {
		return ephemeralResponse(fmt.Sprintf("Unknown command %s", cmd.Command))
	}

	stats, err := h.alertService.Stats(ctx)
	if err != nil {
		log.Printf("Failed to compute stats for %s: %v", cmd.UserID, err)
		return ephemeralResponse("Could not load alert statistics, please try again.")
	}
	return ephemeralResponse(services.RenderStats(stats))
}

func (h *SlackHandler) notify(ctx context.Context, channelID, userID, text string) {
	if text == "" || channelID == "" || userID == "" {
		return
	}
	if err := h.messages.Ephemeral(ctx, channelID, userID, text); err != nil {
		log.Printf("Warning: failed to send notice to %s: %v", userID, err)
	}
}

func ephemeralResponse(text string) map[string]interface{} {
	return map[string]interface{}{
		"response_type": slack.ResponseTypeEphemeral,
		"text":          text,
	}
}

// callbackChannel returns the channel the button was pressed in
func callbackChannel(callback slack.InteractionCallback) string {
	if callback.Container.ChannelID != "" {
		return callback.Container.ChannelID
	}
	return callback.Channel.ID
}

// messageHandle locates the message to edit: the one the button belongs to,
// or the stored delivery when the callback does not say
func messageHandle(callback slack.InteractionCallback, alert *database.Alert) services.MessageHandle {
	handle := services.MessageHandle{
		ChannelID: callbackChannel(callback),
		MessageID: callback.Container.MessageTs,
	}
	if handle.MessageID == "" {
		handle.MessageID = callback.Message.Timestamp
	}
	if (handle.ChannelID == "" || handle.MessageID == "") && alert != nil {
		handle = services.MessageHandle{
			ChannelID: alert.NotificationChannelID,
			MessageID: alert.NotificationMessageID,
		}
	}
	return handle
}
