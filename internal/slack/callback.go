package slack

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/akmatori/alertrelay/internal/services"
)

// ErrInvalidCallbackToken is returned for button values this service did not produce
var ErrInvalidCallbackToken = errors.New("invalid callback token")

// ParseCallbackToken splits a button value such as "ack_7" into its action and alert id
func ParseCallbackToken(token string) (services.Action, uint, error) {
	verb, rawID, ok := strings.Cut(token, "_")
	if !ok {
		return "", 0, fmt.Errorf("%w: %q", ErrInvalidCallbackToken, token)
	}

	var action services.Action
	switch verb {
	case services.TokenVerbAcknowledge:
		action = services.ActionAcknowledge
	case services.TokenVerbResolve:
		action = services.ActionResolve
	default:
		return "", 0, fmt.Errorf("%w: unknown verb %q", ErrInvalidCallbackToken, verb)
	}

	id, err := strconv.ParseUint(rawID, 10, strconv.IntSize)
	if err != nil || id == 0 {
		return "", 0, fmt.Errorf("%w: bad alert id %q", ErrInvalidCallbackToken, rawID)
	}
	return action, uint(id), nil
}
