package logging

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/apex/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWriter_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "info", "json"))

	log.WithField("component", "search").Info("page extracted")
	log.Debug("hidden")

	var line map[string]interface{}
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "page extracted", line["message"])
	assert.Equal(t, "info", line["level"])

	fields, ok := line["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "search", fields["component"])
}

func TestSetupWriter_TextDebug(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, SetupWriter(&buf, "DEBUG", "text"))

	log.Debug("brand matched")
	assert.Contains(t, buf.String(), "brand matched")
}

func TestSetupWriter_Errors(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, SetupWriter(&buf, "loud", "text"))
	assert.Error(t, SetupWriter(&buf, "info", "xml"))
}
