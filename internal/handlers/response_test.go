package handlers

import (
	"encoding/json"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordedContext(t *testing.T) (*gin.Context, *httptest.ResponseRecorder) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	recorder := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(recorder)
	c.Request = httptest.NewRequest("GET", "/", nil)
	return c, recorder
}

func TestRespondOKEnvelope(t *testing.T) {
	c, recorder := recordedContext(t)

	respondOK(c, 200, gin.H{"hello": "world"}, "success")

	assert.Equal(t, 200, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, float64(200), body["statusCode"])
	assert.Equal(t, "success", body["message"])
	assert.Equal(t, true, body["success"])
	assert.Equal(t, map[string]any{"hello": "world"}, body["data"])
}

func TestRespondWithErrorEnvelope(t *testing.T) {
	c, recorder := recordedContext(t)

	respondWithError(c, 404, "GET /videos/:videoId", "No video found")

	assert.Equal(t, 404, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, float64(404), body["statusCode"])
	assert.Equal(t, "No video found", body["message"])
	assert.Equal(t, false, body["success"])
	assert.Equal(t, []any{}, body["errors"])
	assert.NotContains(t, body, "stack")
}

func TestRespondAPIErrorUsesEmbeddedStatus(t *testing.T) {
	c, recorder := recordedContext(t)

	respondAPIError(c, "POST /users/register", newAPIError(409, "Username or email already exists"))

	assert.Equal(t, 409, recorder.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), &body))
	assert.Equal(t, "Username or email already exists", body["message"])
}

func TestRespondAPIErrorDefaultsTo500(t *testing.T) {
	c, recorder := recordedContext(t)

	respondAPIError(c, "GET /videos", assert.AnError)

	assert.Equal(t, 500, recorder.Code)
}

func TestLowerCamel(t *testing.T) {
	assert.Equal(t, "fullName", lowerCamel("FullName"))
	assert.Equal(t, "", lowerCamel(""))
}
