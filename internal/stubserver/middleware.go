package stubserver

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/pricewatch-dev/pricewatch/internal/auth"
	"github.com/pricewatch-dev/pricewatch/internal/models"
)

const bearerPrefix = "Bearer "

var (
	ErrMissingAuthHeader = errors.New("missing authorization header")
	ErrInvalidAuthFormat = errors.New("invalid authorization header format")
	ErrEmptyToken        = errors.New("empty token")
	ErrInvalidToken      = errors.New("invalid token")
	ErrUserNotFound      = errors.New("user not found")
)

// Session is the authenticated account context for a request
type Session struct {
	UserID string
	Email  string
	Name   string
	Role   string
}

func setSession(c *gin.Context, session *Session) {
	c.Set("session", session)
}

// GetSession returns the authenticated session attached by the middleware
func GetSession(c *gin.Context) (*Session, bool) {
	value, exists := c.Get("session")
	if !exists {
		return nil, false
	}

	session, ok := value.(*Session)
	return session, ok
}

func extractBearerToken(authHeader string) (string, error) {
	if authHeader == "" {
		return "", ErrMissingAuthHeader
	}

	if !strings.HasPrefix(authHeader, bearerPrefix) {
		return "", ErrInvalidAuthFormat
	}

	token := strings.TrimPrefix(authHeader, bearerPrefix)
	if token == "" {
		return "", ErrEmptyToken
	}

	return token, nil
}

func respondWithError(c *gin.Context, log zerolog.Logger, statusCode int, err error, message string) {
	log.Warn().Err(err).Msg(message)
	c.JSON(statusCode, gin.H{"error": message})
	c.Abort()
}

// JWTAuthMiddleware validates bearer tokens and attaches the account session
func JWTAuthMiddleware(db *gorm.DB, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := extractBearerToken(c.GetHeader("Authorization"))
		if err != nil {
			var message string
			switch err {
			case ErrMissingAuthHeader:
				message = "Missing authorization header"
			case ErrInvalidAuthFormat:
				message = "Invalid authorization header format"
			case ErrEmptyToken:
				message = "Empty token"
			}
			respondWithError(c, log, http.StatusUnauthorized, err, message)
			return
		}

		claims, err := auth.ValidateToken(token)
		if err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrInvalidToken, "Invalid or expired token")
			return
		}

		// The role always comes from the database, never from the token
		var user models.User
		if err := db.Where("id = ?", claims.UserID).First(&user).Error; err != nil {
			respondWithError(c, log, http.StatusUnauthorized, ErrUserNotFound, "User not found")
			return
		}

		setSession(c, &Session{
			UserID: user.ID,
			Email:  user.Email,
			Name:   user.Name,
			Role:   user.Role,
		})

		c.Next()
	}
}

// RequireRole ensures the authenticated account holds exactly the given role
func RequireRole(role string, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		session, exists := GetSession(c)
		if !exists {
			respondWithError(c, log, http.StatusUnauthorized, errors.New("no session"), "Unauthorized")
			return
		}

		if session.Role != role {
			respondWithError(c, log, http.StatusForbidden, errors.New("role mismatch"), role+" access required")
			return
		}

		c.Next()
	}
}
