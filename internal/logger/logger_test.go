package logger

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJSONOutsideLocal(t *testing.T) {
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("LOG_LEVEL", "debug")
	var buf bytes.Buffer
	log := NewWithOutput(&buf)

	log.Component("call_manager").WithCall("c1", "general").Debug("call started")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "call started", line["msg"])
	assert.Equal(t, "dispatch-voice-go", line["service"])
	assert.Equal(t, "call_manager", line["component"])
	assert.Equal(t, "c1", line["call_id"])
	assert.Equal(t, "general", line["scenario"])
}

func TestWithRequestKeepsRequestID(t *testing.T) {
	log := Discard()
	r := httptest.NewRequest("POST", "/calls", nil)
	r.Header.Set("X-Request-ID", "req-7")
	e := log.WithRequest(r)
	assert.Equal(t, "req-7", e.Data["req_id"])
	assert.Equal(t, "/calls", e.Data["path"])

	r = httptest.NewRequest("GET", "/healthz", nil)
	assert.NotEmpty(t, log.WithRequest(r).Data["req_id"])
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, logrus.DebugLevel, ParseLevel(" DEBUG "))
	assert.Equal(t, logrus.WarnLevel, ParseLevel("warning"))
	assert.Equal(t, logrus.ErrorLevel, ParseLevel("error"))
	assert.Equal(t, logrus.InfoLevel, ParseLevel("verbose"))
}

func TestWithErrorNil(t *testing.T) {
	log := Discard()
	assert.NotContains(t, log.WithError(nil).Data, "error")
}
