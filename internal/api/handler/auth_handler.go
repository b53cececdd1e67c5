package handler

import (
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"loan-engine/internal/api/handler/dto"
	"loan-engine/internal/config"
	"loan-engine/internal/pkg/apperrors"

	"github.com/golang-jwt/jwt/v5"
)

const (
	defaultTokenTTL   = 24 * time.Hour
	operatorKeyHeader = "X-Operator-Key"
)

type AuthHandler struct {
	cfg    config.AuthConfig
	now    func() time.Time
	logger *slog.Logger
}

func NewAuthHandler(cfg config.AuthConfig, l *slog.Logger) *AuthHandler {
	return &AuthHandler{
		cfg:    cfg,
		now:    time.Now,
		logger: l.With("component", "AuthHandler"),
	}
}

func (h *AuthHandler) operatorAllowed(r *http.Request) bool {
	if h.cfg.OperatorKey == "" {
		return false
	}
	got := r.Header.Get(operatorKeyHeader)
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.cfg.OperatorKey)) == 1
}

// GenerateBearerToken issues an HS256 token for the ingestion endpoints to callers holding the operator key.
//
// @Summary Generate a JWT bearer token
// @Tags Authentication
// @Accept json
// @Produce json
// @Param X-Operator-Key header string true "Operator key"
// @Param request body dto.TokenRequest true "username"
// @Success 200 {object} dto.TokenResponse "Token successfully generated"
// @Failure 400 {object} dto.ErrorResponse "Invalid request parameters"
// @Failure 401 {object} dto.ErrorResponse "Missing or wrong operator key"
// @Failure 500 {object} dto.ErrorResponse "Internal server error"
// @Router /auth/token [post]
func (h *AuthHandler) GenerateBearerToken(w http.ResponseWriter, r *http.Request) {
	if !h.operatorAllowed(r) {
		h.logger.WarnContext(r.Context(), "Rejected token request", "remote_addr", r.RemoteAddr)
		respondError(w, apperrors.ErrUnauthorized)
		return
	}

	var req dto.TokenRequest
	if err := decodeJSON(r, &req); err != nil {
		h.logger.WarnContext(r.Context(), "Failed to decode token request", "error", err)
		respondError(w, badRequest(err))
		return
	}
	if err := dto.Validate(&req); err != nil {
		respondError(w, err)
		return
	}

	ttl := h.cfg.TokenTTL
	if ttl <= 0 {
		ttl = defaultTokenTTL
	}
	claims := jwt.MapClaims{
		"username": req.Username,
		"iat":      h.now().Unix(),
		"exp":      h.now().Add(ttl).Unix(),
	}
	tokenString, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(h.cfg.JWTSecret))
	if err != nil {
		h.logger.ErrorContext(r.Context(), "Failed to sign token", "error", err)
		respondError(w, fmt.Errorf("failed to sign token: %w", err))
		return
	}

	h.logger.InfoContext(r.Context(), "Issued bearer token", "username", req.Username)
	respondJSON(w, http.StatusOK, dto.TokenResponse{Token: "Bearer " + tokenString})
}
