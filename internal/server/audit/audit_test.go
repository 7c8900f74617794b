package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/legalize/backoffice/internal/logging"
)

func TestFromRequest(t *testing.T) {
	r := httptest.NewRequest("POST", "/api/documents/5/confirm", nil)
	r.RemoteAddr = "10.0.0.7:51234"
	r.Header.Set("User-Agent", "curl/8")

	rc := FromRequest(r, "anna")
	assert.Equal(t, RequestContext{
		User:      "anna",
		IP:        "10.0.0.7",
		UserAgent: "curl/8",
		Path:      "/api/documents/5/confirm",
		Method:    "POST",
	}, rc)

	r.Header.Set("X-Forwarded-For", "203.0.113.9, 10.0.0.1")
	assert.Equal(t, "203.0.113.9", FromRequest(r, "").IP)
}

func TestLogRecorder(t *testing.T) {
	var buf bytes.Buffer
	log, err := logging.New(&buf, logging.Options{})
	require.NoError(t, err)

	NewLogRecorder(log).Record(context.Background(), System("update_reminders"), Event{
		Action: "confirm", Entity: "client", EntityID: 3, Changes: []string{"case number"},
	})

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "audit", line["msg"])
	assert.Equal(t, "confirm", line["action"])
	assert.Equal(t, "system", line["user"])
	assert.Equal(t, "update_reminders", line["path"])
	assert.Equal(t, "audit", line["module"])
}
