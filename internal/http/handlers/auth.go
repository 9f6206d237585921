package handlers

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/geocoder89/bankly/internal/config"
	"github.com/geocoder89/bankly/internal/domain/user"
	"github.com/geocoder89/bankly/internal/security"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	users   UserStore
	tokens  TokenIssuer
	hasher  PasswordHasher
	cache   ListCache
	metrics AuthMetrics
	log     *slog.Logger
}

func NewAuthHandler(users UserStore, tokens TokenIssuer, hasher PasswordHasher, cache ListCache, metrics AuthMetrics, log *slog.Logger) *AuthHandler {
	if log == nil {
		log = slog.Default()
	}

	return &AuthHandler{
		users:   users,
		tokens:  tokens,
		hasher:  hasher,
		cache:   cache,
		metrics: metrics,
		log:     log,
	}
}

func usernameTakenMessage(username string) string {
	return fmt.Sprintf("There already exists a user with username '%s'", username)
}

// Register creates a non-admin account and returns a token for it.
func (h *AuthHandler) Register(ctx *gin.Context) {
	var req user.RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" {
		RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
			Field:   "username",
			Rule:    "required",
			Message: "must not be blank",
		}}})
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 3*time.Second)
	defer cancel()

	// cheap check first so a taken name does not pay for bcrypt
	if _, err := h.users.FindByUsername(cctx, req.Username); err == nil {
		RespondStatusMessage(ctx, http.StatusBadRequest, usernameTakenMessage(req.Username))
		return
	} else if !errors.Is(err, user.ErrNotFound) {
		h.log.ErrorContext(cctx, "register lookup failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			RespondBadRequest(ctx, "Invalid request body", gin.H{"fields": []FieldError{{
				Field:   "password",
				Rule:    "max",
				Param:   strconv.Itoa(security.MaxPasswordBytes),
				Message: fmt.Sprintf("must be at most %d bytes", security.MaxPasswordBytes),
			}}})
			return
		}
		RespondInternal(ctx, "Could not create user")
		return
	}

	newUser := user.NewFromRegisterRequest(req, hash)

	// sign before inserting so a token failure cannot leave an account behind
	token, err := h.tokens.IssueFor(newUser)
	if err != nil {
		h.log.ErrorContext(cctx, "register token failed", "err", err)
		RespondInternal(ctx, "Could not generate token")
		return
	}

	if _, err := h.users.Insert(cctx, newUser); err != nil {
		if errors.Is(err, user.ErrUsernameTaken) {
			RespondStatusMessage(ctx, http.StatusBadRequest, usernameTakenMessage(req.Username))
			return
		}

		h.log.ErrorContext(cctx, "register insert failed", "err", err)
		RespondInternal(ctx, "Could not create user")
		return
	}
	invalidateUsersList(h.cache)
	h.observeIssued("register")

	ctx.JSON(http.StatusCreated, gin.H{"token": token})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req user.LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(ctx.Request.Context(), 2*time.Second)
	defer cancel()

	found, err := h.users.FindByUsername(cctx, req.Username)
	if err != nil {
		if !errors.Is(err, user.ErrNotFound) {
			h.log.ErrorContext(cctx, "login lookup failed", "err", err)
			RespondInternal(ctx, "Could not log in")
			return
		}
		h.loginFailed(ctx)
		return
	}

	if err := h.hasher.Check(found.PasswordHash, req.Password); err != nil {
		h.loginFailed(ctx)
		return
	}

	token, err := h.tokens.IssueFor(found)
	if err != nil {
		RespondInternal(ctx, "Could not generate token")
		return
	}
	h.observeIssued("login")

	ctx.JSON(http.StatusOK, gin.H{"token": token})
}

func (h *AuthHandler) loginFailed(ctx *gin.Context) {
	if h.metrics != nil {
		h.metrics.ObserveLoginFailure()
	}
	RespondUnAuthorized(ctx, "invalid_credentials", "Invalid username/password")
}

func (h *AuthHandler) observeIssued(flow string) {
	if h.metrics != nil {
		h.metrics.ObserveTokenIssued(flow)
	}
}
