package middleware

import (
	"net/http"
	"strings"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type AuthMiddleware struct {
	sessions *service.SessionManager
}

func NewAuthMiddleware(sessions *service.SessionManager) *AuthMiddleware {
	return &AuthMiddleware{sessions: sessions}
}

// RequireAccess validates the bearer access token and puts the subject on
// both the gin context and the request context.
func (m *AuthMiddleware) RequireAccess() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithFunction(c.Request.Context(), "middleware", "RequireAccess")

		token, ok := bearerToken(c)
		if !ok {
			logger.WarnWithContext(ctx, "Missing or malformed Authorization header").
				String("path", c.Request.URL.Path).
				Log()
			constants.RespondError(c, http.StatusUnauthorized, apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil)
			return
		}

		claims, err := m.sessions.Codec().VerifyAccess(token)
		if err != nil {
			logger.WarnWithContext(ctx, "Access token rejected").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			constants.RespondError(c, http.StatusUnauthorized, apperrors.GetErrorMessage(err), nil)
			return
		}

		if m.sessions.IsAccessTokenRevoked(ctx, claims.ID) {
			logger.WarnWithContext(ctx, "Revoked access token presented").
				String("user_id", claims.Subject).
				String("jti", claims.ID).
				Log()
			constants.RespondError(c, http.StatusUnauthorized, apperrors.GetErrorMessage(apperrors.ErrTokenRevoked), nil)
			return
		}

		setSubject(c, claims)
		c.Next()
	}
}

// RequireRefresh validates the bearer refresh token. The raw token is kept
// so the handler can compare it with the stored digest.
func (m *AuthMiddleware) RequireRefresh() gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := ctxutil.WithFunction(c.Request.Context(), "middleware", "RequireRefresh")

		token, ok := bearerToken(c)
		if !ok {
			logger.WarnWithContext(ctx, "Missing or malformed Authorization header").
				String("path", c.Request.URL.Path).
				Log()
			constants.RespondError(c, http.StatusUnauthorized, apperrors.GetErrorMessage(apperrors.ErrUnauthorized), nil)
			return
		}

		claims, err := m.sessions.Codec().VerifyRefresh(token)
		if err != nil {
			logger.WarnWithContext(ctx, "Refresh token rejected").
				String("path", c.Request.URL.Path).
				Err(err).
				Log()
			constants.RespondError(c, http.StatusUnauthorized, apperrors.GetErrorMessage(err), nil)
			return
		}

		setSubject(c, claims)
		c.Set(constants.GinKeyRefreshToken, token)
		c.Next()
	}
}

func setSubject(c *gin.Context, claims *service.TokenClaims) {
	c.Set(constants.GinKeyUserID, claims.Subject)
	c.Set(constants.GinKeyEmail, claims.Email)
	c.Set(constants.GinKeyClaims, claims)
	c.Request = c.Request.WithContext(ctxutil.WithUserID(c.Request.Context(), claims.Subject))
}

func bearerToken(c *gin.Context) (string, bool) {
	scheme, token, found := strings.Cut(c.GetHeader(constants.HeaderAuthorization), " ")
	if !found || !strings.EqualFold(scheme, constants.BearerScheme) {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// UserIDFrom returns the subject set by RequireAccess or RequireRefresh.
func UserIDFrom(c *gin.Context) string {
	return c.GetString(constants.GinKeyUserID)
}

func ClaimsFrom(c *gin.Context) *service.TokenClaims {
	v, ok := c.Get(constants.GinKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*service.TokenClaims)
	return claims
}

func RefreshTokenFrom(c *gin.Context) string {
	return c.GetString(constants.GinKeyRefreshToken)
}
