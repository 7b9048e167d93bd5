package middleware

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"edufund-backend/internal/domain/actor"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims carries the caller's role next to the standard subject.
type Claims struct {
	Role actor.Role `json:"role"`
	jwt.RegisteredClaims
}

// IssueToken signs an HS256 token for userID.
func IssueToken(secret []byte, userID string, role actor.Role, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		Role: role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(secret)
}

func parseToken(secret []byte, raw string) (actor.Actor, error) {
	var claims Claims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return actor.Actor{}, err
	}
	if claims.Subject == "" {
		return actor.Actor{}, errors.New("token has no subject")
	}
	switch claims.Role {
	case actor.RoleAdmin, actor.RoleStudent, actor.RoleDonor:
	default:
		return actor.Actor{}, errors.New("token has an unknown role")
	}
	return actor.Actor{UserID: claims.Subject, Role: claims.Role}, nil
}

// Auth resolves the bearer token into an actor on the request context.
// Role checks happen further in: the admin gate, the submission handlers.
func Auth(secret []byte) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			h := c.Request().Header.Get(echo.HeaderAuthorization)
			raw, found := strings.CutPrefix(h, "Bearer ")
			if !found || strings.TrimSpace(raw) == "" {
				return fail(c, http.StatusUnauthorized, "unauthorized", "missing bearer token")
			}
			a, err := parseToken(secret, strings.TrimSpace(raw))
			if err != nil {
				return fail(c, http.StatusUnauthorized, "unauthorized", "invalid token")
			}
			req := c.Request()
			c.SetRequest(req.WithContext(actor.WithActor(req.Context(), a)))
			return next(c)
		}
	}
}
