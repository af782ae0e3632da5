package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"bookexchange/internal/httpx"
	"bookexchange/internal/platform/validation"
)

type HTTPHandler struct {
	service *Service
	logger  *slog.Logger
}

func NewHTTPHandler(service *Service, logger *slog.Logger) *HTTPHandler {
	return &HTTPHandler{service: service, logger: logger}
}

type TokenReq struct {
	ClientID string `json:"clientId" validate:"notblank"`
}

// IssueToken handles POST /books/auth
// @Summary Issue an access token
// @Description Exchange the configured client id for a bearer token valid for one hour
// @Tags auth
// @Accept json
// @Produce json
// @Param request body TokenReq true "Client credentials"
// @Success 200 {object} Token
// @Failure 400 {object} httpx.ErrorResponse
// @Failure 401 {object} httpx.ErrorResponse
// @Failure 500 {object} httpx.ErrorResponse
// @Router /books/auth [post]
func (h *HTTPHandler) IssueToken(w http.ResponseWriter, r *http.Request) {
	var req TokenReq
	if err := httpx.DecodeJSON(r, &req); err != nil {
		httpx.JSONDecodeError(w, r, err)
		return
	}
	req.ClientID = strings.TrimSpace(req.ClientID)

	if err := validation.Struct(req); err != nil {
		httpx.JSONValidationError(w, r, err)
		return
	}

	token, err := h.service.IssueToken(r.Context(), req.ClientID)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			httpx.JSONError(w, r, http.StatusUnauthorized, httpx.CodeUnauthorized, "Invalid client credentials", nil)
			return
		}
		h.logger.Error("issue token failed", "error", err, "request_id", httpx.RequestIDFrom(r))
		httpx.JSONError(w, r, http.StatusInternalServerError, httpx.CodeInternal, "Internal server error", nil)
		return
	}

	httpx.JSONSuccess(w, token)
}
