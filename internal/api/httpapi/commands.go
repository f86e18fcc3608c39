package httpapi

import (
	"net/http"

	"github.com/osa030/trackcore/internal/domain/options"
	"github.com/osa030/trackcore/internal/domain/track"
)

// setupPlayer handles POST /v1/player with a player options object.
func (h *Handler) setupPlayer(w http.ResponseWriter, r *http.Request) {
	var p options.Player
	if err := decode(r, &p); err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.SetupPlayer(r.Context(), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.Snapshot().Player)
}

// setNowPlaying handles PUT /v1/queue/now-playing with a track object.
func (h *Handler) setNowPlaying(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decode(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	t, err := track.FromMap(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.SetNowPlaying(r.Context(), t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(h.session.Snapshot()))
}

// updatePlayback handles POST /v1/playback with {state, position, duration, force}.
func (h *Handler) updatePlayback(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decode(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.UpdatePlayback(r.Context(), raw); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(h.session.Snapshot()))
}

func (h *Handler) reset(w http.ResponseWriter, r *http.Request) {
	if err := h.session.Reset(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(h.session.Snapshot()))
}

func (h *Handler) getOptions(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.session.MetadataOptions())
}

// updateOptions handles PUT /v1/options with a metadata options object.
func (h *Handler) updateOptions(w http.ResponseWriter, r *http.Request) {
	var o options.Metadata
	if err := decode(r, &o); err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.UpdateOptions(r.Context(), o); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h.session.MetadataOptions())
}

// updateTrack handles PATCH /v1/tracks/{id} with a partial track object.
func (h *Handler) updateTrack(w http.ResponseWriter, r *http.Request) {
	var raw map[string]any
	if err := decode(r, &raw); err != nil {
		writeError(w, err)
		return
	}
	p, err := track.PatchFromMap(raw)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.UpdateMetadataForTrack(r.Context(), r.PathValue("id"), p); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, newStatus(h.session.Snapshot()))
}
