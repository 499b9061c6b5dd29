package middleware

import (
	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"

	"github.com/partnerbot/backend/pkg/response"
)

// ContextOrganizationID is the context key for the guild addressed by the route.
const ContextOrganizationID = "organization_id"

// Organization parses the :guild route parameter into a snowflake ID.
func Organization() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := snowflake.ParseString(c.Param("guild"))
		if err != nil || id <= 0 {
			response.BadRequest(c, "invalid guild id")
			c.Abort()
			return
		}
		c.Set(ContextOrganizationID, id)
		c.Next()
	}
}

// OrganizationID returns the ID set by Organization.
func OrganizationID(c *gin.Context) snowflake.ID {
	return c.MustGet(ContextOrganizationID).(snowflake.ID)
}
