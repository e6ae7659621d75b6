package handler

import (
	"context"
	"net/http"

	"github.com/Payphone-Digital/auth-service/internal/constants"
	"github.com/Payphone-Digital/auth-service/internal/dto"
	"github.com/Payphone-Digital/auth-service/internal/middleware"
	"github.com/Payphone-Digital/auth-service/internal/service"
	ctxutil "github.com/Payphone-Digital/auth-service/pkg/context"
	"github.com/Payphone-Digital/auth-service/pkg/logger"
	"github.com/gin-gonic/gin"
)

type UserHandler struct {
	userService *service.UserService
	sessions    *service.SessionManager
}

func NewUserHandler(userService *service.UserService, sessions *service.SessionManager) *UserHandler {
	return &UserHandler{
		userService: userService,
		sessions:    sessions,
	}
}

func (h *UserHandler) List(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "List")
	pagination := constants.ParsePaginationParams(c)

	users, total, pageTotal, err := h.userService.List(ctx, pagination.Limit, pagination.Offset, pagination.Search)
	if err != nil {
		respondError(c, err)
		return
	}

	logger.DebugWithContext(ctx, "Users listed").
		Int("page", pagination.Page).
		Int("count", len(users)).
		Int64("total", total).
		Log()

	constants.Respond(c, http.StatusOK, constants.MsgUsersRetrieved,
		constants.BuildListResponse(total, pagination.Page, pageTotal, users))
}

// Me returns the caller's own record
func (h *UserHandler) Me(c *gin.Context) {
	h.respondUser(c, middleware.UserIDFrom(c), "Me")
}

func (h *UserHandler) GetByID(c *gin.Context) {
	h.respondUser(c, c.Param("id"), "GetByID")
}

func (h *UserHandler) respondUser(c *gin.Context, id, function string) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", function)

	user, err := h.userService.GetByID(ctx, id)
	if err != nil {
		respondError(c, err)
		return
	}

	constants.Respond(c, http.StatusOK, constants.MsgUserFound, user)
}

func (h *UserHandler) UpdateProfile(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "UpdateProfile")

	var req dto.UpdateProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.UpdateProfile(ctx, middleware.UserIDFrom(c), c.Param("id"), &req)
	if err != nil {
		respondError(c, err)
		return
	}

	constants.Respond(c, http.StatusOK, constants.MsgUserUpdated, user)
}

// ChangePassword ends the session on success, so the access token that made
// the call is revoked as well.
func (h *UserHandler) ChangePassword(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "ChangePassword")

	var req dto.UpdatePasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.userService.ChangePassword(ctx, middleware.UserIDFrom(c), c.Param("id"), &req); err != nil {
		respondError(c, err)
		return
	}

	h.revokeCaller(ctx, c)
	constants.Respond[any](c, http.StatusOK, constants.MsgPasswordUpdated, nil)
}

func (h *UserHandler) Delete(c *gin.Context) {
	ctx := ctxutil.NewContextWithRequest(c.Request.Context(), "handler", "Delete")

	if err := h.userService.Delete(ctx, middleware.UserIDFrom(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}

	h.revokeCaller(ctx, c)
	constants.Respond[any](c, http.StatusOK, constants.MsgUserRemoved, nil)
}

// revokeCaller is best effort; a denylist outage does not undo the change.
func (h *UserHandler) revokeCaller(ctx context.Context, c *gin.Context) {
	if err := h.sessions.RevokeAccessToken(ctx, middleware.ClaimsFrom(c)); err != nil {
		logger.WarnWithContext(ctx, "Access token left live").
			String("user_id", middleware.UserIDFrom(c)).
			Err(err).
			Log()
	}
}
