package adapters

import (
	"encoding/json"
	"testing"
	"time"
)

var receivedAt = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func decodePayload(t *testing.T, body string) map[string]interface{} {
	t.Helper()
	var payload map[string]interface{}
	if err := json.Unmarshal([]byte(body), &payload); err != nil {
		t.Fatalf("invalid test payload: %v", err)
	}
	return payload
}
