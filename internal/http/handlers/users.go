package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/utils"
	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// per-column rules for PATCH values; every updatable column has an entry
var updateRules = map[string]string{
	"first_name": "required,max=100",
	"last_name":  "required,max=100",
	"email":      "required,email,max=254",
	"phone":      "required,max=32",
}

type UsersHandler struct {
	users UserStore
	cache ListCache
	log   *slog.Logger
}

func NewUsersHandler(users UserStore, cache ListCache, log *slog.Logger) *UsersHandler {
	if log == nil {
		log = slog.Default()
	}
	return &UsersHandler{users: users, cache: cache, log: log}
}

func (h *UsersHandler) List(ctx *gin.Context) {
	if h.cache != nil {
		if v, ok := h.cache.Get(usersListCacheKey); ok {
			if summaries, ok := v.([]user.Summary); ok {
				RespondJSONWithETag(ctx, http.StatusOK, gin.H{"users": summaries})
				return
			}
		}
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	users, err := h.users.List(cctx)
	if err != nil {
		h.log.ErrorContext(cctx, "list users failed", "err", err)
		RespondInternal(ctx, "Could not list users")
		return
	}

	summaries := make([]user.Summary, 0, len(users))
	for _, u := range users {
		summaries = append(summaries, u.Summary())
	}

	if h.cache != nil {
		h.cache.Set(usersListCacheKey, summaries)
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"users": summaries})
}

func (h *UsersHandler) Get(ctx *gin.Context) {
	username := ctx.Param("username")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	u, err := h.users.FindByUsername(cctx, username)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "get user failed", "err", err, "username", username)
		RespondInternal(ctx, "Could not load user")
		return
	}

	RespondJSONWithETag(ctx, http.StatusOK, gin.H{"user": u.Profile()})
}

// Patch applies a partial profile update. Only allow-listed fields reach the
// store; anything else (username, is_admin, admin...) is refused with 401.
func (h *UsersHandler) Patch(ctx *gin.Context) {
	username := ctx.Param("username")

	fields, ok := decodeUpdateBody(ctx)
	if !ok {
		return
	}
	delete(fields, "_token")

	upd, err := utils.BuildPartialUpdate(fields, user.UpdatableColumns)
	if err != nil {
		var unknown *utils.UnknownFieldError
		switch {
		case errors.As(err, &unknown):
			RespondMessage(ctx, http.StatusUnauthorized, fmt.Sprintf("Cannot update '%s' field", unknown.Field))
		case errors.Is(err, utils.ErrEmptyUpdate):
			RespondBadRequest(ctx, "No data to update", nil)
		default:
			RespondInternal(ctx, "Could not update user")
		}
		return
	}

	if details := validateUpdateValues(upd); len(details) > 0 {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": details})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	updated, err := h.users.UpdateFields(cctx, username, upd)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "update user failed", "err", err, "username", username)
		RespondInternal(ctx, "Could not update user")
		return
	}
	invalidateUsersList(h.cache)

	ctx.JSON(http.StatusOK, gin.H{"user": updated.Record()})
}

// Delete confirms the user exists, removes it, and only then reports success.
func (h *UsersHandler) Delete(ctx *gin.Context) {
	username := ctx.Param("username")

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	if _, err := h.users.FindByUsername(cctx, username); err != nil {
		if errors.Is(err, user.ErrNotFound) {
			RespondNotFound(ctx, "User not found")
			return
		}
		h.log.ErrorContext(cctx, "delete lookup failed", "err", err, "username", username)
		RespondInternal(ctx, "Could not delete user")
		return
	}

	removed, err := h.users.Delete(cctx, username)
	if err != nil {
		h.log.ErrorContext(cctx, "delete user failed", "err", err, "username", username)
		RespondInternal(ctx, "Could not delete user")
		return
	}
	if !removed {
		// raced with another delete
		RespondNotFound(ctx, "User not found")
		return
	}
	invalidateUsersList(h.cache)

	RespondMessage(ctx, http.StatusOK, "deleted")
}

func decodeUpdateBody(ctx *gin.Context) (map[string]any, bool) {
	fields := map[string]any{}

	if ctx.Request.Body == nil {
		return fields, true
	}

	err := json.NewDecoder(ctx.Request.Body).Decode(&fields)
	if err != nil && !errors.Is(err, io.EOF) {
		respondBodyError(ctx, err, nil)
		return nil, false
	}

	return fields, true
}

func validateUpdateValues(upd utils.PartialUpdate) []FieldError {
	var out []FieldError

	for i, col := range upd.Columns {
		s, ok := upd.Args[i].(string)
		if !ok {
			out = append(out, FieldError{Field: col, Rule: "type", Message: "must be of type string"})
			continue
		}

		rules, ok := updateRules[col]
		if !ok {
			continue
		}

		if err := validate.Var(s, rules); err != nil {
			var verrs validator.ValidationErrors
			if errors.As(err, &verrs) && len(verrs) > 0 {
				out = append(out, FieldError{
					Field:   col,
					Rule:    verrs[0].Tag(),
					Param:   verrs[0].Param(),
					Message: validationMessage(verrs[0].Tag(), verrs[0].Param()),
				})
				continue
			}
			out = append(out, FieldError{Field: col, Rule: "invalid", Message: err.Error()})
		}
	}

	return out
}
