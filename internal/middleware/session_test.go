package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func testContext(t *testing.T) *gin.Context {
	t.Helper()
	gin.SetMode(gin.TestMode)
	c, _ := gin.CreateTestContext(httptest.NewRecorder())
	c.Request = httptest.NewRequest("GET", "/api/v1/users/current-user", nil)
	return c
}

func TestExtractAccessTokenFromBearer(t *testing.T) {
	c := testContext(t)
	c.Request.Header.Set("Authorization", "Bearer abc.def.ghi")
	assert.Equal(t, "abc.def.ghi", extractAccessToken(c))
}

func TestExtractAccessTokenCookieWins(t *testing.T) {
	c := testContext(t)
	c.Request.Header.Set("Authorization", "Bearer from-header")
	c.Request.Header.Set("Cookie", "accessToken=from-cookie")
	assert.Equal(t, "from-cookie", extractAccessToken(c))
}

func TestExtractAccessTokenMissing(t *testing.T) {
	c := testContext(t)
	assert.Equal(t, "", extractAccessToken(c))
}

func TestExtractAccessTokenMalformedHeader(t *testing.T) {
	c := testContext(t)
	c.Request.Header.Set("Authorization", "Basic abc")
	assert.Equal(t, "", extractAccessToken(c))

	c.Request.Header.Set("Authorization", "Bearer")
	assert.Equal(t, "", extractAccessToken(c))
}

func TestCurrentUserAbsent(t *testing.T) {
	c := testContext(t)
	_, ok := CurrentUser(c)
	assert.False(t, ok)
}
