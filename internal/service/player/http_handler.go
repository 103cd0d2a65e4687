package player

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Handler 暴露播放会话的 HTTP 面，挂在结账服务的 mux 上。
type Handler struct {
	manager *Manager
}

func NewHandler(manager *Manager) *Handler {
	return &Handler{manager: manager}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/api/player/state", h.state)
	mux.HandleFunc("/api/player/play", h.play)
	mux.HandleFunc("/api/player/pause", h.pause)
	mux.HandleFunc("/api/player/seek", h.seek)
	mux.HandleFunc("/api/player/volume", h.volume)
	mux.HandleFunc("/api/player/close", h.close)
}

type playerRequest struct {
	UserID   string  `json:"userId"`
	TrackID  string  `json:"trackId,omitempty"`
	Position float64 `json:"position,omitempty"`
	Volume   float64 `json:"volume,omitempty"`
}

func (h *Handler) state(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return
	}
	sess, err := h.manager.Get(r.Context(), userID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (h *Handler) play(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if req.TrackID == "" {
		http.Error(w, "trackId is required", http.StatusBadRequest)
		return
	}
	sess, err := h.manager.Play(r.Context(), req.UserID, req.TrackID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (h *Handler) pause(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.manager.Pause(r.Context(), req.UserID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (h *Handler) seek(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.manager.Seek(r.Context(), req.UserID, req.Position)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (h *Handler) volume(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	sess, err := h.manager.SetVolume(r.Context(), req.UserID, req.Volume)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, sess)
}

func (h *Handler) close(w http.ResponseWriter, r *http.Request) {
	req, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.manager.Close(r.Context(), req.UserID); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (*playerRequest, bool) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return nil, false
	}
	var req playerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.UserID == "" {
		http.Error(w, "userId is required", http.StatusBadRequest)
		return nil, false
	}
	return &req, true
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNoSession) {
		http.Error(w, "no playback session", http.StatusNotFound)
		return
	}
	http.Error(w, "internal error", http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
