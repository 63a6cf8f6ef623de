package middleware

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"

	"github.com/noah-isme/gema-interview-api/internal/utils"
)

const (
	localReviewerID   = "reviewer_id"
	localReviewerRole = "reviewer_role"
)

// JWTProtected returns a middleware that validates interviewer bearer tokens signed with HMAC.
func JWTProtected(secret string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		authorization := c.Get(fiber.HeaderAuthorization)
		if authorization == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "authorization header missing")
		}

		const bearer = "bearer "
		if len(authorization) < len(bearer) || strings.ToLower(authorization[:len(bearer)]) != bearer {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid authorization header")
		}

		tokenString := strings.TrimSpace(authorization[len(bearer):])
		if tokenString == "" {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		token, err := jwt.Parse(tokenString, func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return []byte(secret), nil
		})
		if err != nil || !token.Valid {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token")
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			return utils.SendError(c, fiber.StatusUnauthorized, "invalid token claims")
		}

		if reviewer := reviewerFromClaims(claims); reviewer != "" {
			c.Locals(localReviewerID, reviewer)
		}
		if role := roleFromClaims(claims); role != "" {
			c.Locals(localReviewerRole, role)
		}

		return c.Next()
	}
}

// ReviewerID returns the authenticated interviewer's subject, if any.
func ReviewerID(c *fiber.Ctx) string {
	if value, ok := c.Locals(localReviewerID).(string); ok {
		return value
	}
	return ""
}

func reviewerFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"sub", "email", "reviewer_id"} {
		switch v := claims[key].(type) {
		case string:
			if trimmed := strings.TrimSpace(v); trimmed != "" {
				return trimmed
			}
		case float64:
			if v >= 0 {
				return strconv.FormatInt(int64(v), 10)
			}
		}
	}
	return ""
}

func roleFromClaims(claims jwt.MapClaims) string {
	for _, key := range []string{"role", "roles"} {
		switch v := claims[key].(type) {
		case string:
			if role := strings.ToLower(strings.TrimSpace(v)); role != "" {
				return role
			}
		case []interface{}:
			for _, item := range v {
				if str, ok := item.(string); ok {
					if role := strings.ToLower(strings.TrimSpace(str)); role != "" {
						return role
					}
				}
			}
		}
	}
	return ""
}
