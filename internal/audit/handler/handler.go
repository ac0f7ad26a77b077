// Package handler exposes the read-only audit query API and the
// verification-code endpoints.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"chronicle/internal/audit/bus"
	"chronicle/internal/audit/ports"
	"chronicle/internal/audit/service"
	"chronicle/internal/platform/middleware"
	"chronicle/internal/sms"
)

const (
	defaultListLimit = 50
	maxListLimit     = 500
)

// Handler is the thin HTTP layer over the audit stores and the verification
// flow. Records are immutable, so the API is list-only.
type Handler struct {
	operate   ports.OperateStore
	logins    ports.LoginStore
	passwords ports.PasswordChangeStore
	events    *bus.Bus
	verify    *sms.VerifyService // nil when no SMS backend is configured
	logger    *slog.Logger
}

// New builds a Handler.
func New(operate ports.OperateStore, logins ports.LoginStore, passwords ports.PasswordChangeStore, events *bus.Bus, verify *sms.VerifyService, logger *slog.Logger) *Handler {
	return &Handler{
		operate:   operate,
		logins:    logins,
		passwords: passwords,
		events:    events,
		verify:    verify,
		logger:    logger,
	}
}

// Register mounts all routes on the router.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1/audits", func(r chi.Router) {
		r.Get("/operate-logs", h.listOperateLogs)
		r.Get("/login-logs", h.listLoginLogs)
		r.Get("/password-change-logs", h.listPasswordChangeLogs)
		r.Post("/auth-events", h.reportAuthEvent)
	})
	r.Route("/api/v1/verify", func(r chi.Router) {
		r.Post("/codes", h.sendCode)
		r.Post("/codes/check", h.checkCode)
	})
}

func (h *Handler) listOperateLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.operate.ListRecent(r.Context(), r.URL.Query().Get("org"), listLimit(r))
	if err != nil {
		h.listFailed(w, r, "operate", err)
		return
	}
	h.writeList(w, r, len(records), records)
}

func (h *Handler) listLoginLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.logins.ListRecent(r.Context(), listLimit(r))
	if err != nil {
		h.listFailed(w, r, "login", err)
		return
	}
	h.writeList(w, r, len(records), records)
}

func (h *Handler) listPasswordChangeLogs(w http.ResponseWriter, r *http.Request) {
	records, err := h.passwords.ListRecent(r.Context(), listLimit(r))
	if err != nil {
		h.listFailed(w, r, "password change", err)
		return
	}
	h.writeList(w, r, len(records), records)
}

// authEventRequest is how sibling components (auth service, terminal
// gateway) report authentication outcomes they observed.
type authEventRequest struct {
	Username   string `json:"username"`
	Success    bool   `json:"success"`
	MFAEnabled bool   `json:"mfa_enabled"`
	Reason     string `json:"reason"`
}

// LoginTypeHeader is the request-supplied login type hint.
const LoginTypeHeader = "X-Chronicle-Login-Type"

func (h *Handler) reportAuthEvent(w http.ResponseWriter, r *http.Request) {
	var req authEventRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "username is required")
		return
	}

	meta := service.RequestMeta{
		IP:            middleware.ClientIP(r),
		UserAgent:     r.UserAgent(),
		LoginTypeHint: r.Header.Get(LoginTypeHeader),
		API:           true,
	}
	if req.Success {
		h.events.PublishAuthSucceeded(r.Context(), service.AuthSucceeded{
			Username:   req.Username,
			MFAEnabled: req.MFAEnabled,
			Meta:       meta,
		})
	} else {
		h.events.PublishAuthFailed(r.Context(), service.AuthFailed{
			Username: req.Username,
			Reason:   req.Reason,
			Meta:     meta,
		})
	}
	h.writeJSON(w, http.StatusCreated, map[string]string{"status": "recorded"})
}

type sendCodeRequest struct {
	Recipient string `json:"recipient"`
}

func (h *Handler) sendCode(w http.ResponseWriter, r *http.Request) {
	if h.verify == nil {
		h.writeError(w, http.StatusServiceUnavailable, "sms_not_configured", "no SMS backend is configured")
		return
	}
	var req sendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Recipient == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "recipient is required")
		return
	}

	err := h.verify.SendCode(r.Context(), req.Recipient)
	switch {
	case errors.Is(err, sms.ErrMisconfiguredTemplate):
		h.writeError(w, http.StatusBadRequest, "verify_code_sign_tmpl_invalid", err.Error())
	case err != nil:
		h.logger.ErrorContext(r.Context(), "send verification code", "error", err)
		h.writeError(w, http.StatusBadGateway, "delivery_failed", "verification code delivery failed")
	default:
		h.writeJSON(w, http.StatusAccepted, map[string]string{"status": "sent"})
	}
}

type checkCodeRequest struct {
	Recipient string `json:"recipient"`
	Code      string `json:"code"`
}

func (h *Handler) checkCode(w http.ResponseWriter, r *http.Request) {
	if h.verify == nil {
		h.writeError(w, http.StatusServiceUnavailable, "sms_not_configured", "no SMS backend is configured")
		return
	}
	var req checkCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Recipient == "" || req.Code == "" {
		h.writeError(w, http.StatusBadRequest, "invalid_request", "recipient and code are required")
		return
	}

	err := h.verify.CheckCode(r.Context(), req.Recipient, req.Code)
	switch {
	case errors.Is(err, sms.ErrCodeExpired):
		h.writeError(w, http.StatusBadRequest, "code_expired", "verification code expired")
	case errors.Is(err, sms.ErrCodeMismatch):
		h.writeError(w, http.StatusBadRequest, "code_mismatch", "verification code mismatch")
	case err != nil:
		h.logger.ErrorContext(r.Context(), "check verification code", "error", err)
		h.writeError(w, http.StatusInternalServerError, "internal", "verification check failed")
	default:
		h.writeJSON(w, http.StatusOK, map[string]string{"status": "verified"})
	}
}

func (h *Handler) listFailed(w http.ResponseWriter, r *http.Request, what string, err error) {
	h.logger.ErrorContext(r.Context(), "list "+what+" records", "error", err)
	h.writeError(w, http.StatusInternalServerError, "internal", "failed to list records")
}

func (h *Handler) writeList(w http.ResponseWriter, r *http.Request, count int, results any) {
	h.writeJSON(w, http.StatusOK, map[string]any{"count": count, "results": results})
}

func (h *Handler) writeError(w http.ResponseWriter, status int, code, detail string) {
	h.writeJSON(w, status, map[string]string{"error": code, "detail": detail})
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("write response", "error", err)
	}
}

func listLimit(r *http.Request) int {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			limit = n
		}
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return limit
}
