package slack

import (
	"context"
	"errors"
	"net"

	"github.com/slack-go/slack"
)

// ErrNotConfigured is returned when Slack credentials are missing
var ErrNotConfigured = errors.New("slack is not configured")

// Delivery error categories
const (
	CategoryChatNotFound  = "chat_not_found"
	CategoryBlocked       = "blocked"
	CategoryTimeout       = "timeout"
	CategoryRateLimited   = "rate_limited"
	CategoryNotConfigured = "not_configured"
	CategoryUnknown       = "unknown"
)

var categoryGuidance = map[string]string{
	CategoryChatNotFound:  "check SLACK_ALERTS_CHANNEL names an existing channel",
	CategoryBlocked:       "invite the bot to the channel and check its token and scopes",
	CategoryTimeout:       "Slack did not answer within NOTIFY_TIMEOUT",
	CategoryRateLimited:   "Slack is rate limiting the bot, alerts are being dropped",
	CategoryNotConfigured: "set SLACK_BOT_TOKEN and SLACK_ALERTS_CHANNEL",
}

// Slack API error codes per category
var slackErrorCategories = map[string]string{
	"channel_not_found": CategoryChatNotFound,
	"not_in_channel":    CategoryBlocked,
	"is_archived":       CategoryBlocked,
	"account_inactive":  CategoryBlocked,
	"invalid_auth":      CategoryBlocked,
	"not_authed":        CategoryBlocked,
	"token_revoked":     CategoryBlocked,
	"restricted_action": CategoryBlocked,
	"missing_scope":     CategoryBlocked,
	"ratelimited":       CategoryRateLimited,
}

// ClassifyDeliveryError maps a notifier error to a category and a hint for the operator
func ClassifyDeliveryError(err error) (string, string) {
	category := classify(err)
	return category, categoryGuidance[category]
}

func classify(err error) string {
	if err == nil {
		return ""
	}

	if errors.Is(err, ErrNotConfigured) {
		return CategoryNotConfigured
	}

	var rateLimited *slack.RateLimitedError
	if errors.As(err, &rateLimited) {
		return CategoryRateLimited
	}

	var apiErr slack.SlackErrorResponse
	if errors.As(err, &apiErr) {
		if category, ok := slackErrorCategories[apiErr.Err]; ok {
			return category
		}
		return CategoryUnknown
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return CategoryTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CategoryTimeout
	}

	// Fall back to the raw code for errors that lost their type on the way
	if category, ok := slackErrorCategories[err.Error()]; ok {
		return category
	}
	return CategoryUnknown
}
