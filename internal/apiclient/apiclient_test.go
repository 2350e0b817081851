package apiclient

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/daviddao/mailtriage/internal/schema"
	"github.com/daviddao/mailtriage/internal/server"
)

func testMessage() *schema.GmailMessage {
	return &schema.GmailMessage{
		ID:      "msg-42",
		Payload: &schema.GmailPart{MimeType: "text/plain"},
	}
}

func TestTriagePostsAndDecodes(t *testing.T) {
	var gotPath, gotMethod string
	var gotBody []byte

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotMethod = r.Method
		gotBody, _ = io.ReadAll(r.Body)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"output": map[string]any{
				"major_category": "schedule_and_time",
				"sub_action_key": "SCHEDULE_CONFIRM_TIME",
				"confidence":     0.9,
			},
		})
	}))
	defer ts.Close()

	c := New(ts.URL, 5*time.Second)
	resp, err := c.Triage(context.Background(), testMessage())
	require.NoError(t, err)

	assert.Equal(t, http.MethodPost, gotMethod)
	assert.Equal(t, server.PathTriage, gotPath)
	assert.Contains(t, string(gotBody), `"msg-42"`)
	assert.Equal(t, schema.CategoryScheduleAndTime, resp.Output.MajorCategory)
	assert.Equal(t, 0.9, resp.Output.Confidence)
}

func TestTriageSurfacesServerDetail(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		json.NewEncoder(w).Encode(map[string]string{"detail": "failed_to_triage: model unavailable"})
	}))
	defer ts.Close()

	c := New(ts.URL, 5*time.Second)
	_, err := c.Triage(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "500")
	assert.Contains(t, err.Error(), "failed_to_triage: model unavailable")

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusInternalServerError, se.Code)
	assert.Equal(t, "failed_to_triage: model unavailable", se.Detail)
}

func TestTriageFallsBackToStatusText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	c := New(ts.URL, 5*time.Second)
	_, err := c.Triage(context.Background(), testMessage())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestTriageNetworkErrors(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	ts.Close()

	c := New(ts.URL, time.Second)
	_, err := c.Triage(context.Background(), testMessage())
	assert.Error(t, err)
}
