package middleware

import (
	"fmt"
	"strings"

	"github.com/dgrijalva/jwt-go"
	"github.com/gofiber/fiber/v2"
)

// Context keys the handlers read the authenticated actor from.
const (
	LocalUserID = "user_id"
	LocalRole   = "role"
)

// Roles the user service issues tokens for.
const (
	RoleCustomer = "customer"
	RoleSeller   = "seller"
)

// Auth verifies bearer tokens issued by the user service and exposes role
// guards for the route groups.
type Auth struct {
	secret []byte
}

// NewAuth builds the middleware with the shared signing secret.
func NewAuth(secret string) *Auth {
	return &Auth{secret: []byte(secret)}
}

// RequireCustomer admits only tokens carrying the customer role.
func (a *Auth) RequireCustomer() fiber.Handler { return a.require(RoleCustomer) }

// RequireSeller admits only tokens carrying the seller role.
func (a *Auth) RequireSeller() fiber.Handler { return a.require(RoleSeller) }

func (a *Auth) require(role string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		claims, err := a.parse(c.Get("Authorization"))
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
				"error": err.Error(),
				"code":  "UNAUTHORIZED",
			})
		}

		userID, _ := claims["user_id"].(string)
		tokenRole, _ := claims["role"].(string)
		if userID == "" || tokenRole != role {
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": fmt.Sprintf("%s token required", role),
				"code":  "FORBIDDEN",
			})
		}

		c.Locals(LocalUserID, userID)
		c.Locals(LocalRole, tokenRole)
		return c.Next()
	}
}

func (a *Auth) parse(authHeader string) (jwt.MapClaims, error) {
	if authHeader == "" {
		return nil, fmt.Errorf("authorization header is required")
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || parts[0] != "Bearer" {
		return nil, fmt.Errorf("authorization header format must be 'Bearer <token>'")
	}

	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return a.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid or expired token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid token claims")
	}
	return claims, nil
}
