package api

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
)

// Handler methods for routerHandlers.
// These are used by both the standalone router (for testing) and the full Server.

func (h *routerHandlers) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *routerHandlers) handleListEncounters(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, "encounter history disabled", http.StatusNotFound)
		return
	}

	limit := 25
	if v, err := strconv.Atoi(r.URL.Query().Get("limit")); err == nil && v > 0 && v <= 100 {
		limit = v
	}
	offset := 0
	if v, err := strconv.Atoi(r.URL.Query().Get("offset")); err == nil && v > 0 {
		offset = v
	}

	previews, err := h.store.ListPreviews(limit, offset)
	if err != nil {
		log.Printf("⚠️ encounter list failed: %v", err)
		writeError(w, "failed to list encounters", http.StatusInternalServerError)
		return
	}
	writeJSON(w, map[string]any{"encounters": previews})
}

func (h *routerHandlers) handleGetEncounter(w http.ResponseWriter, r *http.Request) {
	if h.store == nil {
		writeError(w, "encounter history disabled", http.StatusNotFound)
		return
	}

	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, "invalid encounter id", http.StatusBadRequest)
		return
	}
	rec, err := h.store.Get(id)
	if err != nil {
		log.Printf("⚠️ encounter load failed: %v", err)
		writeError(w, "failed to load encounter", http.StatusInternalServerError)
		return
	}
	if rec == nil {
		writeError(w, "encounter not found", http.StatusNotFound)
		return
	}
	writeJSON(w, rec)
}

func (h *routerHandlers) handleReset(w http.ResponseWriter, r *http.Request) {
	log.Println("🔄 Reset requested via API")
	h.commands.RequestReset()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleSave(w http.ResponseWriter, r *http.Request) {
	log.Println("💾 Save requested via API")
	h.commands.RequestSave()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handlePause(w http.ResponseWriter, r *http.Request) {
	h.commands.RequestPauseToggle()
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleBossOnly(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, "invalid request body", http.StatusBadRequest)
		return
	}
	h.commands.RequestBossOnly(req.Enabled)
	writeJSON(w, map[string]bool{"success": true})
}

func (h *routerHandlers) handleDetails(w http.ResponseWriter, r *http.Request) {
	h.commands.RequestDetailsToggle()
	writeJSON(w, map[string]bool{"success": true})
}

// Helper functions (package-level for reuse)

func writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(map[string]string{"error": message})
}
