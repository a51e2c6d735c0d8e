package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
)

func authedContext(roles []string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodPost, "/", nil)
	c.Set("user_id", "u-1")
	c.Set("roles", roles)
	return c, w
}

func TestRequireRoleAllowsMatchingRole(t *testing.T) {
	c, _ := authedContext([]string{"admin", "staff"})
	RequireRole("admin")(c)
	assert.False(t, c.IsAborted())
}

func TestRequireRoleBlocksMissingRole(t *testing.T) {
	c, w := authedContext([]string{"staff"})
	RequireRole("admin")(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}

func TestRequireRoleBlocksEmptyRoles(t *testing.T) {
	c, w := authedContext(nil)
	RequireRole("admin")(c)
	assert.True(t, c.IsAborted())
	assert.Equal(t, http.StatusForbidden, w.Code)
}
