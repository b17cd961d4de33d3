package slack

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/slack-go/slack"
)

// ChannelResolver resolves channel names to IDs so SLACK_ALERTS_CHANNEL may be
// given either way
type ChannelResolver struct {
	client *slack.Client
	cache  map[string]string // name -> id
	mu     sync.RWMutex
}

// NewChannelResolver creates a new channel resolver
func NewChannelResolver(client *slack.Client) *ChannelResolver {
	return &ChannelResolver{
		client: client,
		cache:  make(map[string]string),
	}
}

// ResolveChannel resolves a channel name or ID to a channel ID
// Accepts:
// - Channel ID (C01234567890, G01234567890)
// - Channel name (#alerts or alerts)
func (r *ChannelResolver) ResolveChannel(ctx context.Context, nameOrID string) (string, error) {
	if nameOrID == "" {
		return "", fmt.Errorf("channel name/ID is empty")
	}

	if isChannelID(nameOrID) {
		return nameOrID, nil
	}

	channelName := strings.TrimPrefix(nameOrID, "#")

	r.mu.RLock()
	id, ok := r.cache[channelName]
	r.mu.RUnlock()
	if ok {
		return id, nil
	}

	id, err := r.lookupChannel(ctx, channelName)
	if err != nil {
		return "", err
	}

	r.mu.Lock()
	r.cache[channelName] = id
	r.mu.Unlock()

	log.Printf("Resolved channel '%s' to '%s'", channelName, id)
	return id, nil
}

// lookupChannel looks up a channel by name, public channels first
func (r *ChannelResolver) lookupChannel(ctx context.Context, name string) (string, error) {
	if r.client == nil {
		return "", ErrNotConfigured
	}

	for _, kind := range []string{"public_channel", "private_channel"} {
		id, err := r.findInConversations(ctx, name, kind)
		if err != nil {
			if kind == "public_channel" {
				return "", fmt.Errorf("failed to list public channels: %w", err)
			}
			// Listing private channels needs an extra scope
			log.Printf("Warning: Failed to list private channels: %v", err)
			break
		}
		if id != "" {
			return id, nil
		}
	}

	return "", fmt.Errorf("channel '%s' not found", name)
}

// findInConversations pages through one conversation type looking for name
func (r *ChannelResolver) findInConversations(ctx context.Context, name, kind string) (string, error) {
	cursor := ""
	for {
		channels, next, err := r.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor:          cursor,
			ExcludeArchived: true,
			Limit:           1000,
			Types:           []string{kind},
		})
		if err != nil {
			return "", err
		}
		for _, channel := range channels {
			if channel.Name == name {
				return channel.ID, nil
			}
		}
		if next == "" {
			return "", nil
		}
		cursor = next
	}
}

// isChannelID checks if a string looks like a Slack channel ID.
// Public channel IDs start with C, legacy private ones with G.
func isChannelID(s string) bool {
	if len(s) < 9 || len(s) > 15 {
		return false
	}
	if s[0] != 'C' && s[0] != 'G' {
		return false
	}
	for _, c := range s[1:] {
		if !((c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')) {
			return false
		}
	}
	return true
}
