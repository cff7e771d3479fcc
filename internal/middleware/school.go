package middleware

import (
	"net/http"

	"github.com/anishka-v/eco-dining/internal/auth"

	"github.com/gin-gonic/gin"
)

// SchoolScope resolves the school a request acts on and stores it under
// "schoolID". The candidate comes from the school_id query or form value.
//
// Staff are pinned to the school in their token. Admins, and every caller
// when authRequired is false, may name any school and get defaultSchool
// otherwise.
func SchoolScope(defaultSchool string, authRequired bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		requested := c.Query("school_id")
		if requested == "" {
			requested = c.PostForm("school_id")
		}

		role := c.GetString("userRole")
		if authRequired && role != auth.RoleAdmin {
			own := c.GetString("userSchoolID")
			if own == "" {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "account has no school"})
				return
			}
			if requested != "" && requested != own {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "school_id outside your school"})
				return
			}
			c.Set("schoolID", own)
			c.Next()
			return
		}

		if requested == "" {
			requested = defaultSchool
		}
		c.Set("schoolID", requested)
		c.Next()
	}
}
