package http

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/zaidAlkhathlan/ramdan/internal/app"
	"github.com/zaidAlkhathlan/ramdan/internal/domain"
	"github.com/zaidAlkhathlan/ramdan/internal/identity"
)

// Handler exposes the riddle game as a JSON API.
type Handler struct {
	game *app.GameService
	ids  *identity.Service
}

func NewHandler(game *app.GameService, ids *identity.Service) *Handler {
	return &Handler{game: game, ids: ids}
}

// Register wires all routes onto mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/register", h.handleRegister)
	mux.HandleFunc("/api/login", h.handleLogin)
	mux.HandleFunc("/api/riddle", h.handleRiddle)
	mux.HandleFunc("/api/answer", h.handleAnswer)
	mux.HandleFunc("/api/leaderboard", h.handleLeaderboard)
}

type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type sessionResponse struct {
	Token string `json:"token"`
	Email string `json:"email"`
}

type riddleResponse struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	State    string   `json:"state"`
}

type answerRequest struct {
	Choice string `json:"choice"`
}

type answerResponse struct {
	domain.ScoreResult
	Rank int `json:"rank,omitempty"`
}

type leaderboardResponse struct {
	domain.Leaderboard
	YourRank int `json:"yourRank,omitempty"`
}

type errorPayload struct {
	Message string `json:"message"`
}

func (h *Handler) handleRegister(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid json")
		return
	}

	account, token, err := h.ids.Register(r.Context(), req.Email, req.Password)
	if errors.Is(err, domain.ErrInvalidCredentials) {
		writeStatus(w, http.StatusBadRequest, "invalid email or password")
		return
	}
	if err != nil {
		writeError(w, err)
		return
	}
	// The zero-point participant record is created alongside the account.
	if err := h.game.EnsureRecord(r.Context(), account.ID, account.Email); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Email: account.Email})
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid json")
		return
	}

	account, token, err := h.ids.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{Token: token, Email: account.Email})
}

func (h *Handler) handleRiddle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, _, ok := h.authenticate(w, r)
	if !ok {
		return
	}

	view, state, err := h.game.TodayRiddle(r.Context(), userID)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, riddleResponse{
		Question: view.Question,
		Options:  view.Options,
		State:    state.String(),
	})
}

func (h *Handler) handleAnswer(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	userID, email, ok := h.authenticate(w, r)
	if !ok {
		return
	}
	var req answerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeStatus(w, http.StatusBadRequest, "invalid json")
		return
	}

	result, err := h.game.SubmitAnswer(r.Context(), userID, email, req.Choice)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := answerResponse{ScoreResult: result}
	if rank, err := h.game.Rank(r.Context(), userID, app.DefaultLeaderboardLimit); err == nil {
		resp.Rank = rank
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) handleLeaderboard(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeStatus(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	limit := app.DefaultLeaderboardLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	lb, err := h.game.Leaderboard(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := leaderboardResponse{Leaderboard: lb}
	// Rank is informational; an anonymous or unranked caller just gets the rows.
	if userID, _, err := h.verifyBearer(r); err == nil {
		if rank, err := h.game.Rank(r.Context(), userID, limit); err == nil {
			resp.YourRank = rank
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// authenticate resolves the bearer token or writes a 401.
func (h *Handler) authenticate(w http.ResponseWriter, r *http.Request) (userID, email string, ok bool) {
	userID, email, err := h.verifyBearer(r)
	if err != nil {
		writeStatus(w, http.StatusUnauthorized, "invalid or missing token")
		return "", "", false
	}
	return userID, email, true
}

func (h *Handler) verifyBearer(r *http.Request) (string, string, error) {
	header := r.Header.Get("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		return "", "", domain.ErrInvalidCredentials
	}
	return h.ids.Verify(strings.TrimPrefix(header, "Bearer "))
}

func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrEmptyChoice):
		writeStatus(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrInvalidCredentials):
		writeStatus(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, domain.ErrOutsideWindow):
		writeStatus(w, http.StatusForbidden, err.Error())
	case errors.Is(err, domain.ErrAccountNotFound), errors.Is(err, domain.ErrRecordNotFound):
		writeStatus(w, http.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrAccountExists), errors.Is(err, domain.ErrAlreadyAnswered):
		writeStatus(w, http.StatusConflict, err.Error())
	default:
		log.Printf("internal error: %v", err)
		writeStatus(w, http.StatusInternalServerError, "internal error")
	}
}

func writeStatus(w http.ResponseWriter, code int, message string) {
	writeJSON(w, code, errorPayload{Message: message})
}

func writeJSON(w http.ResponseWriter, code int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("write response: %v", err)
	}
}
