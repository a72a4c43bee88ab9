package ai

import (
	"encoding/json"
	"testing"
)

func TestAttachmentIsImage(t *testing.T) {
	tests := []struct {
		mimeType string
		want     bool
	}{
		{"image/png", true},
		{"image/jpeg", true},
		{"image/svg+xml", true},
		{"text/plain", false},
		{"application/octet-stream", false},
		{"", false},
	}

	for _, tt := range tests {
		att := Attachment{MimeType: tt.mimeType}
		if got := att.IsImage(); got != tt.want {
			t.Errorf("IsImage(%q) = %v, want %v", tt.mimeType, got, tt.want)
		}
	}
}

func TestAttachmentJSONField(t *testing.T) {
	att := Attachment{Name: "a.txt", MimeType: "text/plain", SizeBytes: 4, Data: "data"}

	encoded, err := json.Marshal(att)
	if err != nil {
		t.Fatalf("marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(encoded, &raw); err != nil {
		t.Fatalf("unmarshal failed: %v", err)
	}
	if raw["encoded_content"] != "data" {
		t.Errorf("attachment data must serialize as encoded_content, got %v", raw)
	}
	if _, present := raw["preview_url"]; present {
		t.Error("empty preview_url must be omitted")
	}
}
