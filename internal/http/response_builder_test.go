package http

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mutuo/internal/core"
	"mutuo/internal/report"
)

func TestHTMXResponseBuilder_Basic(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusOK).
		Body([]byte("test")).
		Write(w)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "test", w.Body.String())
	assert.Empty(t, w.Header().Get("HX-Trigger"))
}

func TestHTMXResponseBuilder_Triggers(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		TriggerScheduleUpdated(report.Summary{
			Months:        180,
			TotalPaid:     core.Money{Cents: 9_266_280},
			TotalInterest: core.Money{Cents: 1_266_280},
		}).
		TriggerErrorNotification("careful").
		Write(w)

	var triggers map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(w.Header().Get("HX-Trigger")), &triggers))

	assert.Equal(t, float64(180), triggers["schedule:updated"]["months"])
	assert.Equal(t, "92662.80", triggers["schedule:updated"]["total_paid"])
	assert.Equal(t, "12662.80", triggers["schedule:updated"]["total_interest"])
	assert.Equal(t, "error", triggers["show-notification"]["type"])
	assert.Equal(t, float64(5000), triggers["show-notification"]["duration"])
}

func TestHTMXResponseBuilder_HeadersAndHTML(t *testing.T) {
	w := httptest.NewRecorder()

	NewHTMXResponse().
		Status(http.StatusCreated).
		Header("X-Custom", "v").
		BodyHTML([]byte("<p>ok</p>")).
		Write(w)

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, "v", w.Header().Get("X-Custom"))
	assert.Equal(t, "text/html; charset=utf-8", w.Header().Get("Content-Type"))
	assert.Equal(t, "<p>ok</p>", w.Body.String())
}

func TestErrorResponses(t *testing.T) {
	tests := []struct {
		name    string
		builder *HTMXResponseBuilder
		code    int
	}{
		{"bad request", BadRequestError("<b>bad</b>"), http.StatusBadRequest},
		{"internal", InternalServerError("<b>bad</b>"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			tt.builder.Write(w)

			assert.Equal(t, tt.code, w.Code)
			assert.Contains(t, w.Body.String(), "&lt;b&gt;bad&lt;/b&gt;")
			assert.NotContains(t, w.Body.String(), "<b>")
		})
	}
}
