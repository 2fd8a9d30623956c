package middleware

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v4"
)

const superAdminRole = "super_admin"

// Claims represents the JWT claims
type Claims struct {
	UserID   string   `json:"user_id"`
	Email    string   `json:"email"`
	TenantID string   `json:"tenant_id"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

func abortWithError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{
		"success": false,
		"error": gin.H{
			"code":    code,
			"message": message,
		},
	})
	c.Abort()
}

// AuthMiddleware validates JWT tokens
func AuthMiddleware(jwtSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/ready" {
			c.Next()
			return
		}

		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			abortWithError(c, http.StatusUnauthorized, "MISSING_TOKEN", "Authorization header is required")
			return
		}

		tokenParts := strings.Split(authHeader, " ")
		if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN_FORMAT", "Authorization header must be in format: Bearer <token>")
			return
		}

		token, err := jwt.ParseWithClaims(tokenParts[1], &Claims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(jwtSecret), nil
		})
		if err != nil {
			abortWithError(c, http.StatusUnauthorized, "INVALID_TOKEN", "Invalid or expired token")
			return
		}

		claims, ok := token.Claims.(*Claims)
		if !ok || !token.Valid {
			abortWithError(c, http.StatusUnauthorized, "INVALID_CLAIMS", "Invalid token claims")
			return
		}

		c.Set("user_id", claims.UserID)
		c.Set("user_email", claims.Email)
		c.Set("user_roles", claims.Roles)
		if claims.TenantID != "" {
			c.Set("tenant_id", claims.TenantID)
		}
		c.Next()
	}
}

// DevelopmentAuthMiddleware trusts identity headers. Never use it in production.
func DevelopmentAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			userID = "00000000-0000-0000-0000-000000000001"
		}

		userEmail := c.GetHeader("X-User-Email")
		if userEmail == "" {
			userEmail = "dev@example.com"
		}

		roles := []string{"admin", "seller"}
		if header := c.GetHeader("X-User-Roles"); header != "" {
			roles = roles[:0]
			for _, role := range strings.Split(header, ",") {
				if role = strings.TrimSpace(role); role != "" {
					roles = append(roles, role)
				}
			}
		}

		c.Set("user_id", userID)
		c.Set("user_email", userEmail)
		c.Set("user_roles", roles)
		c.Next()
	}
}

func userRoles(c *gin.Context) ([]string, bool) {
	roles, exists := c.Get("user_roles")
	if !exists {
		abortWithError(c, http.StatusForbidden, "NO_ROLES", "User roles not found")
		return nil, false
	}
	list, ok := roles.([]string)
	if !ok {
		abortWithError(c, http.StatusForbidden, "INVALID_ROLES", "Invalid user roles format")
		return nil, false
	}
	return list, true
}

func hasAnyRole(userRoles []string, required []string) bool {
	for _, userRole := range userRoles {
		if userRole == superAdminRole {
			return true
		}
		for _, r := range required {
			if userRole == r {
				return true
			}
		}
	}
	return false
}

// RequireRole middleware checks if user has required role
func RequireRole(requiredRole string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := userRoles(c)
		if !ok {
			return
		}
		if !hasAnyRole(roles, []string{requiredRole}) {
			abortWithError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", fmt.Sprintf("Required role: %s", requiredRole))
			return
		}
		c.Next()
	}
}

// RequireAnyRole middleware checks if user has any of the required roles
func RequireAnyRole(requiredRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		roles, ok := userRoles(c)
		if !ok {
			return
		}
		if !hasAnyRole(roles, requiredRoles) {
			abortWithError(c, http.StatusForbidden, "INSUFFICIENT_PERMISSIONS", fmt.Sprintf("Required one of roles: %v", requiredRoles))
			return
		}
		c.Next()
	}
}
