package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/rs/zerolog/log"

	"morse-quiz-service/internal/app"
	"morse-quiz-service/internal/auth"
	"morse-quiz-service/internal/domain"
)

// APIHandler serves the plain HTTP endpoints: accounts, leaderboard and health.
type APIHandler struct {
	service *app.QuizService
	auth    *auth.Service
}

func NewAPIHandler(service *app.QuizService, authService *auth.Service) *APIHandler {
	return &APIHandler{service: service, auth: authService}
}

type credentials struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"displayName"`
}

// Register mounts every route, including the websocket endpoint.
func (h *APIHandler) Register(mux *http.ServeMux, ws *WSHandler) {
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/auth/signup", h.SignUp)
	mux.HandleFunc("/auth/signin", h.SignIn)
	mux.HandleFunc("/auth/signout", h.SignOut)
	mux.HandleFunc("/leaderboard", h.Leaderboard)
	mux.HandleFunc("/ws", ws.ServeWS)
}

func (h *APIHandler) Health(w http.ResponseWriter, r *http.Request) {
	w.Write([]byte("ok"))
}

func (h *APIHandler) SignUp(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodePost(w, r, &body) {
		return
	}
	result, err := h.auth.SignUp(r.Context(), body.Email, body.Password, body.DisplayName)
	if err != nil {
		status := http.StatusBadRequest
		if errors.Is(err, domain.ErrAccountExists) {
			status = http.StatusConflict
		}
		writeError(w, status, err)
		return
	}
	log.Info().Str("user_id", result.Identity.UserID).Msg("account created")
	writeJSON(w, http.StatusCreated, result)
}

func (h *APIHandler) SignIn(w http.ResponseWriter, r *http.Request) {
	var body credentials
	if !decodePost(w, r, &body) {
		return
	}
	result, err := h.auth.SignIn(r.Context(), body.Email, body.Password)
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// SignOut revokes the caller's token and discards their active quiz session.
func (h *APIHandler) SignOut(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	identity, err := h.auth.SignOut(bearerToken(r))
	if err != nil {
		writeError(w, http.StatusUnauthorized, err)
		return
	}
	h.service.SignedOut(identity.UserID)
	w.WriteHeader(http.StatusNoContent)
}

func (h *APIHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	entries, err := h.service.Leaderboard(r.Context())
	if err != nil {
		writeError(w, http.StatusServiceUnavailable, err)
		return
	}
	writeJSON(w, http.StatusOK, entries)
}

func decodePost(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, errorPayload{Message: "invalid request body"})
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Debug().Err(err).Msg("write response")
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorPayload{Message: app.UserMessage(err)})
}
