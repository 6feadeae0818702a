package middleware

import "github.com/gin-gonic/gin"

const (
	adminIDKey      = "admin_id"
	sessionTokenKey = "session_token"
)

// CurrentAdmin returns the admin whose session AdminSession accepted.
func CurrentAdmin(c *gin.Context) (adminID string, token string, ok bool) {
	adminID = c.GetString(adminIDKey)
	token = c.GetString(sessionTokenKey)
	return adminID, token, adminID != "" && token != ""
}
