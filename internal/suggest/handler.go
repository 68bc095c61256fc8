// HTTP handlers for the suggestion engine.
//
// All mutating routes expect an x-user-id header forwarded by the Gateway.
//
// Routes:
//
//	POST /suggestions               → generate ranked suggestions for games
//	GET  /suggestions               → list suggestions with filters
//	GET  /suggestions/{id}          → fetch one suggestion
//	PUT  /suggestions/{id}/accept   → accept into an assignment
//	PUT  /suggestions/{id}/reject   → reject with optional reason
package suggest

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"refzone/assignment-service/internal/model"
)

// Handler holds shared dependencies.
type Handler struct {
	svc *Service
}

// NewHandler returns a configured Handler.
func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts all suggestion routes on mux.
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/suggestions", h.handleSuggestions)
	mux.HandleFunc("/suggestions/", h.handleSuggestionAction)
}

// ─── Route dispatch ───────────────────────────────────────────────────────────

// handleSuggestions handles POST /suggestions and GET /suggestions
func (h *Handler) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		h.generateSuggestions(w, r)
	case http.MethodGet:
		h.listSuggestions(w, r)
	default:
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleSuggestionAction handles GET /suggestions/{id} and
// PUT /suggestions/{id}/accept|reject
func (h *Handler) handleSuggestionAction(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")

	if r.Method == http.MethodGet {
		if len(parts) != 2 {
			jsonError(w, "invalid path", http.StatusNotFound)
			return
		}
		h.getSuggestion(w, r, parts[1])
		return
	}
	if r.Method != http.MethodPut {
		jsonError(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	// Parse /suggestions/{id}/{action}
	if len(parts) != 3 {
		jsonError(w, "invalid path", http.StatusNotFound)
		return
	}

	suggestionID := parts[1]
	action := parts[2]

	switch action {
	case "accept":
		h.acceptSuggestion(w, r, suggestionID)
	case "reject":
		h.rejectSuggestion(w, r, suggestionID)
	default:
		jsonError(w, fmt.Sprintf("unknown action %q", action), http.StatusNotFound)
	}
}

// ─── Individual handlers ──────────────────────────────────────────────────────

func (h *Handler) generateSuggestions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		GameIDs []string `json:"game_ids"`
		Factors *struct {
			Proximity    *float64 `json:"proximity_weight"`
			Availability *float64 `json:"availability_weight"`
			Experience   *float64 `json:"experience_weight"`
			Performance  *float64 `json:"performance_weight"`
		} `json:"factors"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	// Absent weights keep their defaults; factors need not be complete.
	weights := model.DefaultWeights()
	if f := body.Factors; f != nil {
		if f.Proximity != nil {
			weights.Proximity = *f.Proximity
		}
		if f.Availability != nil {
			weights.Availability = *f.Availability
		}
		if f.Experience != nil {
			weights.Experience = *f.Experience
		}
		if f.Performance != nil {
			weights.Performance = *f.Performance
		}
	}

	suggestions, err := h.svc.GenerateSuggestions(r.Context(), body.GameIDs, weights)
	if err != nil {
		h.writeError(w, "generateSuggestions", err)
		return
	}

	jsonOK(w, map[string]any{
		"suggestions":     suggestions,
		"generated_count": len(suggestions),
		"request_id":      uuid.NewString(),
	})
}

func (h *Handler) getSuggestion(w http.ResponseWriter, r *http.Request, suggestionID string) {
	sg, err := h.svc.Get(r.Context(), suggestionID)
	if err != nil {
		h.writeError(w, "getSuggestion", err)
		return
	}
	jsonOK(w, map[string]any{"suggestion": sg})
}

func (h *Handler) listSuggestions(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := ListFilter{
		Status:    q.Get("status"),
		GameID:    q.Get("game_id"),
		RefereeID: q.Get("referee_id"),
	}

	if v := q.Get("start_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			jsonError(w, "start_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		f.StartDate = &t
	}
	if v := q.Get("end_date"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			jsonError(w, "end_date must be YYYY-MM-DD", http.StatusBadRequest)
			return
		}
		f.EndDate = &t
	}
	if v := q.Get("min_confidence"); v != "" {
		c, err := strconv.ParseFloat(v, 64)
		if err != nil || c < 0 || c > 1 {
			jsonError(w, "min_confidence must be between 0 and 1", http.StatusBadRequest)
			return
		}
		f.MinConfidence = &c
	}
	if v := q.Get("page"); v != "" {
		p, err := strconv.Atoi(v)
		if err != nil || p < 1 {
			jsonError(w, "page must be a positive integer", http.StatusBadRequest)
			return
		}
		f.Page = p
	}
	if v := q.Get("limit"); v != "" {
		l, err := strconv.Atoi(v)
		if err != nil || l < 1 || l > 100 {
			jsonError(w, "limit must be between 1 and 100", http.StatusBadRequest)
			return
		}
		f.Limit = l
	}

	rows, total, err := h.svc.ListSuggestions(r.Context(), f)
	if err != nil {
		h.writeError(w, "listSuggestions", err)
		return
	}

	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = 20
	}
	jsonOK(w, map[string]any{
		"suggestions": rows,
		"page":        f.Page,
		"limit":       f.Limit,
		"total":       total,
	})
}

func (h *Handler) acceptSuggestion(w http.ResponseWriter, r *http.Request, suggestionID string) {
	actor := r.Header.Get("x-user-id")
	if actor == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	sg, asg, err := h.svc.Accept(r.Context(), suggestionID, actor)
	if err != nil {
		h.writeError(w, "acceptSuggestion", err)
		return
	}

	jsonOK(w, map[string]any{
		"suggestion": sg,
		"assignment": asg,
	})
}

func (h *Handler) rejectSuggestion(w http.ResponseWriter, r *http.Request, suggestionID string) {
	actor := r.Header.Get("x-user-id")
	if actor == "" {
		jsonError(w, "missing x-user-id header", http.StatusUnauthorized)
		return
	}

	var body struct {
		Reason string `json:"reason"`
	}
	// An empty body is fine: the reason is optional.
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil && !errors.Is(err, io.EOF) {
		jsonError(w, "invalid JSON body", http.StatusBadRequest)
		return
	}

	sg, err := h.svc.Reject(r.Context(), suggestionID, actor, body.Reason)
	if err != nil {
		h.writeError(w, "rejectSuggestion", err)
		return
	}

	jsonOK(w, map[string]any{"suggestion": sg})
}

// ─── Error mapping ────────────────────────────────────────────────────────────

// writeError maps service errors onto the HTTP taxonomy: validation → 400,
// missing/not-pending → 404, assignment race → 409, everything else → 500.
func (h *Handler) writeError(w http.ResponseWriter, op string, err error) {
	var verr *ValidationError
	switch {
	case errors.As(err, &verr):
		jsonError(w, verr.Msg, http.StatusBadRequest)
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrNoGames), errors.Is(err, ErrNoCandidates):
		jsonError(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, ErrGameAssigned):
		jsonError(w, err.Error(), http.StatusConflict)
	default:
		log.Printf("[suggestions] %s error: %v", op, err)
		jsonError(w, "internal error", http.StatusInternalServerError)
	}
}

// ─── Helpers ─────────────────────────────────────────────────────────────────

func jsonOK(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func jsonError(w http.ResponseWriter, msg string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
