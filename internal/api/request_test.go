package api

import (
	"errors"
	"net/http"
	"strings"
	"testing"
)

func TestDecodeJSONObject_ValidInput(t *testing.T) {
	r := newRequest(`{"title":"test","count":42,"labels":{"a":"b"}}`)

	obj, err := DecodeJSONObject(r)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if obj["title"] != "test" {
		t.Errorf("title = %v, want %q", obj["title"], "test")
	}
	if obj["count"] != float64(42) {
		t.Errorf("count = %v, want 42", obj["count"])
	}
	if _, ok := obj["labels"].(map[string]interface{}); !ok {
		t.Errorf("labels should decode to an object, got %T", obj["labels"])
	}
}

func TestDecodeJSONObject_Errors(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{"empty body", "", "request body is empty"},
		{"malformed", `{invalid}`, "malformed JSON"},
		{"truncated", `{"title":`, "malformed JSON"},
		{"array", `[1,2]`, "must be a JSON object"},
		{"string", `"hello"`, "must be a JSON object"},
		{"null", `null`, "must be a JSON object"},
		{"oversized", `{"data":"` + strings.Repeat("x", MaxBodySize+1) + `"}`, "exceeds maximum size"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := DecodeJSONObject(newRequest(tt.body))
			if err == nil {
				t.Fatal("expected error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("error = %q, want to contain %q", err.Error(), tt.wantErr)
			}
		})
	}
}

func TestDecodeJSONObject_NilBody(t *testing.T) {
	r, _ := http.NewRequest(http.MethodPost, "/test", nil)

	_, err := DecodeJSONObject(r)
	if err == nil || err.Error() != "request body is empty" {
		t.Errorf("error = %v, want %q", err, "request body is empty")
	}
}

func TestDecodeJSONObject_NotObjectSentinel(t *testing.T) {
	_, err := DecodeJSONObject(newRequest(`42`))
	if !errors.Is(err, ErrNotObject) {
		t.Errorf("expected ErrNotObject, got %v", err)
	}
}

// newRequest creates an http.Request with the given JSON body.
func newRequest(body string) *http.Request {
	r, _ := http.NewRequest(http.MethodPost, "/test", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")
	return r
}
