package stubserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"github.com/pricewatch-dev/pricewatch/internal/auth"
	"github.com/pricewatch-dev/pricewatch/internal/models"
)

// RegisterRequest represents an account creation request
type RegisterRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name"`
	PhotoURL string `json:"photo_url"`
}

// LoginRequest represents a credential sign-in request
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// TokenResponse carries the issued bearer token
type TokenResponse struct {
	Token string `json:"token"`
}

// The account every federated sign-in resolves to. A stand-in for the
// provider popup flow, which has no place in a local stub.
const (
	federatedEmail = "demo.google@pricewatch.local"
	federatedName  = "Google Demo User"
)

func (s *Server) issueToken(c *gin.Context, user *models.User, status int) {
	token, err := auth.GenerateToken(user.ID, user.Email, user.Name, user.PhotoURL, tokenTTL)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to generate token")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to issue token"})
		return
	}
	c.JSON(status, TokenResponse{Token: token})
}

func (s *Server) register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var count int64
	if err := s.db.Model(&models.User{}).Where("email = ?", req.Email).Count(&count).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to count users")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}
	if count > 0 {
		c.JSON(http.StatusConflict, gin.H{"error": "Account already exists"})
		return
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error().Err(err).Msg("Failed to hash password")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	user := &models.User{
		Email:        req.Email,
		Name:         req.Name,
		PhotoURL:     req.PhotoURL,
		PasswordHash: passwordHash,
		Role:         models.RoleUser,
	}
	if err := s.db.Create(user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to create user")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create account"})
		return
	}

	s.issueToken(c, user, http.StatusCreated)
}

func (s *Server) login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("email = ?", req.Email).First(&user).Error; err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := auth.VerifyPassword(user.PasswordHash, req.Password); err != nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	s.issueToken(c, &user, http.StatusOK)
}

func (s *Server) federatedSignIn(c *gin.Context) {
	var user models.User
	err := s.db.Where("email = ?", federatedEmail).First(&user).Error
	if err != nil {
		if err != gorm.ErrRecordNotFound {
			s.logger.Error().Err(err).Msg("Failed to look up federated account")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}

		user = models.User{
			Email: federatedEmail,
			Name:  federatedName,
			// Federated accounts have no local password
			PasswordHash: "-",
			Role:         models.RoleUser,
		}
		if err := s.db.Create(&user).Error; err != nil {
			s.logger.Error().Err(err).Msg("Failed to create federated account")
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
			return
		}
	}

	s.issueToken(c, &user, http.StatusOK)
}

// UpdateProfileRequest mutates the account's display attributes
type UpdateProfileRequest struct {
	DisplayName string `json:"display_name"`
	PhotoURL    string `json:"photo_url"`
}

func (s *Server) updateProfile(c *gin.Context) {
	session, _ := GetSession(c)

	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var user models.User
	if err := s.db.Where("id = ?", session.UserID).First(&user).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
		return
	}

	user.Name = req.DisplayName
	user.PhotoURL = req.PhotoURL
	if err := s.db.Save(&user).Error; err != nil {
		s.logger.Error().Err(err).Msg("Failed to update profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to update profile"})
		return
	}

	// Re-issue the token so the client's identity claims stay current
	s.issueToken(c, &user, http.StatusOK)
}
