package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/pricewatch-dev/pricewatch/internal/models"
)

// UserDetail represents account information returned by admin endpoints
type UserDetail struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	PhotoURL  string `json:"photo_url,omitempty"`
	Role      string `json:"role"`
	CreatedAt string `json:"created_at"`
}

// SetRoleRequest changes an account's role
type SetRoleRequest struct {
	Role string `json:"role" binding:"required,oneof=user vendor admin"`
}

// getUserRole serves the role lookup the client's resolver depends on.
// Accounts may only read their own role; admins may read anyone's.
func (s *Server) getUserRole(c *gin.Context) {
	session, _ := GetSession(c)
	email := c.Param("email")

	if session.Email != email && session.Role != models.RoleAdmin {
		c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden"})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", email).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"role": user.Role})
}

func (s *Server) listUsers(c *gin.Context) {
	var users []models.User
	if err := s.db.Order("created_at desc").Find(&users).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to list users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	resp := make([]UserDetail, 0, len(users))
	for _, user := range users {
		resp = append(resp, UserDetail{
			ID:        user.ID,
			Email:     user.Email,
			Name:      user.Name,
			PhotoURL:  user.PhotoURL,
			Role:      user.Role,
			CreatedAt: user.CreatedAt.UTC().Format("2006-01-02T15:04:05Z07:00"),
		})
	}

	c.JSON(http.StatusOK, resp)
}

func (s *Server) setUserRole(c *gin.Context) {
	var req SetRoleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", c.Param("email")).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Role = req.Role
	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update role")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update role"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"email": user.Email, "role": user.Role})
}
