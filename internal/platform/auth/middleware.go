package auth

import (
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
	"github.com/labstack/echo/v4"
)

// Claims carries the registered claims plus the Cognito custom attributes the
// user pool stamps on access tokens.
type Claims struct {
	jwt.RegisteredClaims
	Email      string `json:"email"`
	Role       string `json:"custom:role"`
	Department string `json:"custom:department"`
	TokenUse   string `json:"token_use"`
	Username   string `json:"username"`
}

// Config controls token verification.
type Config struct {
	Issuer  string
	JWKSURL string
	// SigningKey switches verification to HMAC for development and tests.
	SigningKey []byte
}

// Verifier returns a function that validates a raw token string and maps its
// claims to an Actor. The integer actor id is derived from the token subject
// so it lines up with the users table without a lookup on every request.
func Verifier(cfg Config) func(token string) (Actor, error) {
	var keyFunc jwt.Keyfunc
	if len(cfg.SigningKey) > 0 {
		keyFunc = func(t *jwt.Token) (interface{}, error) { return cfg.SigningKey, nil }
	} else {
		keyFunc = jwksKeyFunc(cfg.JWKSURL)
	}

	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{"RS256", "HS256"}),
	}
	if cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(cfg.Issuer))
	}

	return func(tokenStr string) (Actor, error) {
		claims := &Claims{}
		token, err := jwt.ParseWithClaims(tokenStr, claims, keyFunc, opts...)
		if err != nil || !token.Valid {
			return Actor{}, echo.NewHTTPError(http.StatusUnauthorized, "invalid or expired token")
		}
		return Actor{
			ID:         SubjectID(claims.Subject),
			Subject:    claims.Subject,
			Email:      claims.Email,
			Role:       claims.Role,
			Department: claims.Department,
		}, nil
	}
}

// Middleware verifies the bearer token and attaches the Actor to the request
// context.
func Middleware(cfg Config) echo.MiddlewareFunc {
	verify := Verifier(cfg)

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			tokenStr, err := bearerToken(c.Request().Header.Get("Authorization"))
			if err != nil {
				return err
			}

			actor, err := verify(tokenStr)
			if err != nil {
				return err
			}

			c.Set("actor", actor)
			c.SetRequest(c.Request().WithContext(WithActor(c.Request().Context(), actor)))
			return next(c)
		}
	}
}

func bearerToken(header string) (string, error) {
	if header == "" {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "missing authorization header")
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", echo.NewHTTPError(http.StatusUnauthorized, "invalid authorization format")
	}
	return parts[1], nil
}

// ActorFromEcho returns the actor attached by Middleware.
func ActorFromEcho(c echo.Context) (Actor, bool) {
	a, ok := c.Get("actor").(Actor)
	return a, ok
}
