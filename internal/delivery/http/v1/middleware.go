package v1

import (
	"errors"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/adanyl0v/go-reminders/internal/services"
)

const (
	userIDCtxKey    = "user_id"
	sessionIDCtxKey = "session_id"
)

// bearerToken reads the access token from the Authorization header and
// falls back to the access token cookie.
func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader("Authorization")
	if header == "" {
		token, err := c.Cookie(accessTokenCookie)
		return token, err == nil && token != ""
	}

	scheme, token, found := strings.Cut(header, " ")
	if !found || scheme != "Bearer" || token == "" {
		return "", false
	}
	return token, true
}

// authenticate parses the access token and transparently rotates the
// session when the token is expired or its cookie is already gone.
func (h *handlerImpl) authenticate(c *gin.Context) (*jwt.RegisteredClaims, bool) {
	accessToken, ok := bearerToken(c)
	if ok {
		claims, err := h.auth.ParseJWTToken(accessToken)
		if err == nil {
			return claims, true
		}
		if !errors.Is(err, jwt.ErrTokenExpired) {
			h.logger.Warn().
				Err(err).
				Msg("failed to parse access token")
			abort(c, newUnauthorizedError(errInvalidAuthorization.Error()))
			return nil, false
		}
	}

	result, ok := h.refreshSession(c)
	if !ok {
		return nil, false
	}
	claims, err := h.auth.ParseJWTToken(result.AccessToken)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to parse refreshed access token")
		abort(c, newInternalError())
		return nil, false
	}
	return claims, true
}

func (h *handlerImpl) HandleAuthMiddleware(c *gin.Context) {
	claims, ok := h.authenticate(c)
	if !ok {
		return
	}

	session, err := h.sessions.GetSessionByID(c, claims.Subject)
	if err != nil {
		if errors.Is(err, services.ErrSessionNotFound) {
			abort(c, newUnauthorizedError(services.ErrSessionNotFound.Error()))
			return
		}

		h.logger.Error().
			Err(err).
			Msg("failed to get session")
		abort(c, newInternalError())
		return
	}

	fingerprint, err := generateFingerprint(c)
	if err != nil {
		h.logger.Error().
			Err(err).
			Msg("failed to generate fingerprint")
		abort(c, newInternalError())
		return
	}
	if fingerprint != session.Fingerprint {
		h.logger.Warn().
			Str("session_id", session.ID).
			Msg("fingerprint mismatch")
		abort(c, newUnauthorizedError(errInvalidAuthorization.Error()))
		return
	}

	c.Set(userIDCtxKey, session.UserID)
	c.Set(sessionIDCtxKey, session.ID)
	c.Next()
}
