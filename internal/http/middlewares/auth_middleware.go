package middlewares

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/geocoder89/bankly/internal/actorctx"
	"github.com/geocoder89/bankly/internal/auth"
	"github.com/gin-gonic/gin"
)

// Keep this small interface so tests can fake it easily.
type TokenVerifier interface {
	Verify(token string) (auth.Claims, error)
}

// RejectionRecorder observes terminal gate outcomes.
type RejectionRecorder interface {
	ObserveRejection(gate string, status int)
}

type AuthMiddleware struct {
	jwt     TokenVerifier
	metrics RejectionRecorder
}

func NewAuthMiddleware(jwt TokenVerifier, metrics RejectionRecorder) *AuthMiddleware {
	return &AuthMiddleware{jwt: jwt, metrics: metrics}
}

// body field carrying the token when no Authorization header is sent
const bodyTokenField = "_token"

// Identify attaches verified claims to the request. No token leaves the request
// unauthenticated; a token that fails verification is rejected with 401.
func (m *AuthMiddleware) Identify() gin.HandlerFunc {
	return m.identify(true)
}

// IdentifyOptional is Identify for public endpoints: a bad token is ignored and
// the request carries on unauthenticated.
func (m *AuthMiddleware) IdentifyOptional() gin.HandlerFunc {
	return m.identify(false)
}

func (m *AuthMiddleware) identify(strict bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, found, err := extractToken(c)
		if err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, gin.H{
					"error": gin.H{
						"code":    "payload_too_large",
						"message": "Request body too large",
						"status":  http.StatusRequestEntityTooLarge,
					},
				})
				return
			}
			// an unreadable body carries no usable token
			c.Next()
			return
		}
		if !found {
			c.Next()
			return
		}

		claims, err := m.jwt.Verify(raw)
		if err != nil {
			if strict {
				m.reject(c, "identify", &Rejection{Status: http.StatusUnauthorized, Message: msgUnauthorized})
				return
			}
			c.Next()
			return
		}

		// Stash identity on both the gin and the request context
		c.Set(CtxClaims, claims)
		c.Request = c.Request.WithContext(actorctx.WithActor(c.Request.Context(), actorctx.Actor{
			Username: claims.Username,
			IsAdmin:  claims.IsAdmin,
		}))

		c.Next()
	}
}

// Authorize runs the gates in order and aborts on the first rejection.
func (m *AuthMiddleware) Authorize(gates ...Gate) gin.HandlerFunc {
	return func(c *gin.Context) {
		gc := gateContextFrom(c)

		_, rejection, gate := Run(gc, gates...)
		if rejection != nil {
			m.reject(c, gate, rejection)
			return
		}

		c.Next()
	}
}

func (m *AuthMiddleware) reject(c *gin.Context, gate string, r *Rejection) {
	if m.metrics != nil {
		m.metrics.ObserveRejection(gate, r.Status)
	}

	c.AbortWithStatusJSON(r.Status, gin.H{"message": r.Message})
}

// ClaimsFromContext returns the claims Identify attached, if any.
func ClaimsFromContext(c *gin.Context) (auth.Claims, bool) {
	v, ok := c.Get(CtxClaims)
	if !ok {
		return auth.Claims{}, false
	}
	claims, ok := v.(auth.Claims)
	return claims, ok
}

func gateContextFrom(c *gin.Context) GateContext {
	params := make(map[string]string, len(c.Params))
	for _, p := range c.Params {
		params[p.Key] = p.Value
	}

	if claims, ok := ClaimsFromContext(c); ok {
		return NewGateContext(&claims, params)
	}
	return NewGateContext(nil, params)
}

// extractToken prefers the Authorization header and falls back to the _token
// body field. found reports whether a token was presented at all.
func extractToken(c *gin.Context) (raw string, found bool, err error) {
	if header := c.GetHeader("Authorization"); header != "" {
		const prefix = "Bearer "
		if len(header) > len(prefix) && strings.EqualFold(header[:len(prefix)], prefix) {
			return strings.TrimSpace(header[len(prefix):]), true, nil
		}
		// present but not a bearer credential
		return "", true, nil
	}

	return tokenFromBody(c)
}

func tokenFromBody(c *gin.Context) (string, bool, error) {
	if c.Request.Body == nil || c.Request.Body == http.NoBody {
		return "", false, nil
	}

	if !strings.HasPrefix(strings.ToLower(c.ContentType()), "application/json") {
		return "", false, nil
	}

	body, err := io.ReadAll(c.Request.Body)
	// restore so handlers can bind the same payload
	c.Request.Body = io.NopCloser(bytes.NewReader(body))

	if err != nil {
		return "", false, err
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return "", false, nil
	}

	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return "", false, nil
	}

	rawToken, ok := payload[bodyTokenField]
	if !ok {
		return "", false, nil
	}

	var token string
	if err := json.Unmarshal(rawToken, &token); err != nil {
		// a non-string _token is a presented but unusable credential
		return "", true, nil
	}

	return token, true, nil
}
