package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/jwebster45206/skeld-engine/internal/orchestrator"
	"github.com/jwebster45206/skeld-engine/internal/services"
	"github.com/jwebster45206/skeld-engine/pkg/game"
)

type ErrorResponse struct {
	Error string `json:"error"`
}

type GamesHandler struct {
	orch   *orchestrator.Orchestrator
	store  services.Store
	logger *slog.Logger
}

func NewGamesHandler(orch *orchestrator.Orchestrator, store services.Store, logger *slog.Logger) *GamesHandler {
	return &GamesHandler{
		orch:   orch,
		store:  store,
		logger: logger,
	}
}

// CreateGameRequest defines the request body for starting a game.
type CreateGameRequest struct {
	Players []game.Player `json:"players"`
}

// CreateGameResponse returns the new session to the caller.
type CreateGameResponse struct {
	ID      uuid.UUID     `json:"id"`
	Players []game.Player `json:"players"`
}

// ServeHTTP handles game lifecycle and turn requests.
// Routes:
// POST /v1/games                 - Start a new game
// POST /v1/games/{id}/turn       - Run one agent turn
// GET /v1/games/{id}/beliefs     - Read persisted belief matrices
// GET /v1/games/{id}/rewards     - Read the reward history
// DELETE /v1/games/{id}          - End the game
func (h *GamesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	path := strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/games"), "/")
	if path == "" {
		if r.Method != http.MethodPost {
			h.writeError(w, http.StatusMethodNotAllowed, "Method not allowed. Supported methods: POST")
			return
		}
		h.handleCreate(w, r)
		return
	}

	parts := strings.SplitN(path, "/", 2)
	gameID, err := uuid.Parse(parts[0])
	if err != nil {
		h.logger.Warn("Invalid game ID", "id", parts[0], "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid game ID format")
		return
	}
	sub := ""
	if len(parts) == 2 {
		sub = parts[1]
	}

	switch {
	case sub == "" && r.Method == http.MethodDelete:
		h.handleDelete(w, r, gameID)
	case sub == "turn" && r.Method == http.MethodPost:
		h.handleTurn(w, r, gameID)
	case sub == "beliefs" && r.Method == http.MethodGet:
		h.handleBeliefs(w, r, gameID)
	case sub == "rewards" && r.Method == http.MethodGet:
		h.handleRewards(w, r, gameID)
	default:
		h.writeError(w, http.StatusNotFound, "Unknown game resource")
	}
}

func (h *GamesHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	h.logger.Debug("Creating new game")

	var req CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	if len(req.Players) == 0 {
		h.writeError(w, http.StatusBadRequest, "players field is required")
		return
	}

	g, err := h.orch.CreateGame(r.Context(), req.Players)
	if err != nil {
		h.logger.Error("Failed to create game", "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to create game")
		return
	}

	w.WriteHeader(http.StatusCreated)
	h.encode(w, CreateGameResponse{ID: g.Session.ID, Players: g.Session.Players})
}

func (h *GamesHandler) handleTurn(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	var req orchestrator.TurnRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.logger.Warn("Invalid JSON in request body", "error", err)
		h.writeError(w, http.StatusBadRequest, "Invalid JSON in request body")
		return
	}
	req.GameID = gameID
	if req.Agent == "" {
		h.writeError(w, http.StatusBadRequest, "agent field is required")
		return
	}

	res, err := h.orch.RunTurn(r.Context(), req)
	if err != nil {
		if _, ok := h.orch.Game(gameID); !ok {
			h.writeError(w, http.StatusNotFound, "Game not found")
			return
		}
		h.logger.Error("Turn failed", "game_id", gameID, "agent", req.Agent, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Turn failed: "+err.Error())
		return
	}

	h.encode(w, res)
}

func (h *GamesHandler) handleBeliefs(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	beliefs, err := h.store.LoadBeliefs(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load beliefs", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load beliefs")
		return
	}
	if beliefs == nil {
		h.writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	h.encode(w, beliefs)
}

func (h *GamesHandler) handleRewards(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	records, err := h.store.ListRewards(r.Context(), gameID)
	if err != nil {
		h.logger.Error("Failed to load rewards", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to load rewards")
		return
	}
	if records == nil {
		h.writeError(w, http.StatusNotFound, "Game not found")
		return
	}
	h.encode(w, records)
}

func (h *GamesHandler) handleDelete(w http.ResponseWriter, r *http.Request, gameID uuid.UUID) {
	h.orch.EndGame(gameID)
	if err := h.store.DeleteSession(r.Context(), gameID); err != nil {
		h.logger.Error("Failed to delete session", "game_id", gameID, "error", err)
		h.writeError(w, http.StatusInternalServerError, "Failed to delete session")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *GamesHandler) writeError(w http.ResponseWriter, status int, msg string) {
	w.WriteHeader(status)
	h.encode(w, ErrorResponse{Error: msg})
}

func (h *GamesHandler) encode(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error("Failed to encode response", "error", err)
	}
}
