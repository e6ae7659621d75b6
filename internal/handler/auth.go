package handler

import (
	"errors"
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	apperrors "github.com/Payphone-Digital/auth-service/internal/errors"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/Payphone-Digital/auth-service/pkg/validation"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	sessions *service.SessionManager
	// collapseSignIn answers unknown email and wrong password identically.
	collapseSignIn bool
}

func NewAuthHandler(sessions *service.SessionManager, collapseSignIn bool) *AuthHandler {
	return &AuthHandler{
		sessions:       sessions,
		collapseSignIn: collapseSignIn,
	}
}

// SignUp registers a user and starts their first session
func (h *AuthHandler) SignUp(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "SignUp")

	var req dto.SignUpRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.sessions.SignUp(ctx, req.Email, req.Password, req.ProfileRequest.ToModel())
	if err != nil {
		logger.WarnWithContext(ctx, "Sign up failed").
			String("email", req.Email).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	constants.Respond(c, http.StatusCreated, constants.MsgSignedUp, toTokenResponse(pair))
}

// SignIn starts a new session, replacing any previous one
func (h *AuthHandler) SignIn(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "SignIn")

	var req dto.SignInRequest
	if !bindJSON(c, &req) {
		return
	}

	pair, err := h.sessions.SignIn(ctx, req.Email, req.Password)
	if err != nil {
		logger.WarnWithContext(ctx, "Sign in failed").
			String("email", req.Email).
			Err(err).
			Log()
		if h.collapseSignIn && (errors.Is(err, apperrors.ErrUserNotFound) || errors.Is(err, apperrors.ErrInvalidCredentials)) {
			err = apperrors.ErrSignInFailed
		}
		respondError(c, err)
		return
	}

	constants.Respond(c, http.StatusOK, constants.MsgSignedIn, toTokenResponse(pair))
}

// Refresh rotates the session. The refresh token arrives as the bearer
// credential and has already been verified by the middleware.
func (h *AuthHandler) Refresh(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Refresh")
	userID := middleware.UserIDFrom(c)

	pair, err := h.sessions.RefreshTokens(ctx, userID, middleware.RefreshTokenFrom(c))
	if err != nil {
		logger.WarnWithContext(ctx, "Token refresh failed").
			String("user_id", userID).
			Err(err).
			Log()
		respondError(c, err)
		return
	}

	constants.Respond(c, http.StatusOK, constants.MsgTokensRefreshed, toTokenResponse(pair))
}

// Logout ends the session and revokes the access token that made the call
func (h *AuthHandler) Logout(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Logout")
	userID := middleware.UserIDFrom(c)

	if err := h.sessions.Logout(ctx, userID); err != nil {
		respondError(c, err)
		return
	}

	if err := h.sessions.RevokeAccessToken(ctx, middleware.ClaimsFrom(c)); err != nil {
		logger.WarnWithContext(ctx, "Access token left live after logout").
			String("user_id", userID).
			Err(err).
			Log()
	}

	constants.Respond[any](c, http.StatusOK, constants.MsgLoggedOut, nil)
}

func toTokenResponse(pair *service.TokenPair) dto.TokenResponse {
	return dto.TokenResponse{
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		TokenType:    constants.BearerScheme,
		ExpiresIn:    pair.ExpiresIn,
	}
}

// bindJSON answers 400 with the field messages when the body does not bind.
func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		var details any
		msg := constants.MsgBadRequest
		if messages := validation.Messages(err); len(messages) > 0 {
			msg, details = constants.MsgValidationFailed, messages
		}
		logger.WarnWithContext(c.Request.Context(), "Invalid request body").
			String("path", c.Request.URL.Path).
			Err(err).
			Log()
		constants.RespondError(c, http.StatusBadRequest, msg, details)
		return false
	}
	return true
}

func respondError(c *gin.Context, err error) {
	constants.RespondError(c, apperrors.ToHTTPStatus(err), apperrors.GetErrorMessage(err), nil)
}
