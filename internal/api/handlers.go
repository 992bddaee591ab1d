package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"cyberguard/internal/content"
	"cyberguard/internal/llm"
	"cyberguard/internal/scanner"
	"cyberguard/internal/transcript"
)

const maxBodyBytes = 16 * 1024

type textRequest struct {
	Text string `json:"text"`
}

type sessionResponse struct {
	ID       string               `json:"id"`
	Busy     bool                 `json:"busy"`
	Messages []transcript.Message `json:"messages"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"surfaces": h.surfaces.count(),
	})
}

func (h *Handler) catalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, content.All())
}

func (h *Handler) search(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, content.Search(r.URL.Query().Get("q")))
}

func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	sf := h.surfaces.create()
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sf.id, Messages: sf.chat.Messages()})
}

func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if !h.surfaces.remove(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) messages(w http.ResponseWriter, r *http.Request) {
	sf, ok := h.surface(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sf.id, Busy: sf.chat.Busy(), Messages: sf.chat.Messages()})
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	sf, ok := h.surface(w, r)
	if !ok {
		return
	}
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	err := sf.chat.Send(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, sessionResponse{ID: sf.id, Messages: sf.chat.Messages()})
	case errors.Is(err, transcript.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "message is empty")
	case errors.Is(err, transcript.ErrBusy):
		writeError(w, http.StatusConflict, "a reply is already in progress")
	default:
		h.upstreamError(w, err)
	}
}

func (h *Handler) scan(w http.ResponseWriter, r *http.Request) {
	sf, ok := h.surface(w, r)
	if !ok {
		return
	}
	req, ok := decodeText(w, r)
	if !ok {
		return
	}

	res, err := sf.scanner.Scan(r.Context(), req.Text)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, scanner.ErrEmptyInput):
		writeError(w, http.StatusBadRequest, "nothing to scan")
	case errors.Is(err, scanner.ErrBusy):
		writeError(w, http.StatusConflict, "a scan is already in progress")
	default:
		h.upstreamError(w, err)
	}
}

func (h *Handler) lastScan(w http.ResponseWriter, r *http.Request) {
	sf, ok := h.surface(w, r)
	if !ok {
		return
	}
	res, ok := sf.scanner.Last()
	if !ok {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) monitorSnapshot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.monitor.Snapshot())
}

func (h *Handler) surface(w http.ResponseWriter, r *http.Request) (*surface, bool) {
	sf, ok := h.surfaces.get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "session not found")
	}
	return sf, ok
}

// upstreamError maps advisor failures. Only configuration errors reach this
// point, everything else is absorbed by the advisor.
func (h *Handler) upstreamError(w http.ResponseWriter, err error) {
	var cfgErr *llm.ConfigError
	if errors.As(err, &cfgErr) {
		writeError(w, http.StatusServiceUnavailable, "advisor is not configured")
		return
	}
	h.logger.Error().Err(err).Msg("unexpected advisor error")
	writeError(w, http.StatusBadGateway, "advisor failed")
}

func decodeText(w http.ResponseWriter, r *http.Request) (textRequest, bool) {
	var req textRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return req, false
	}
	return req, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}
