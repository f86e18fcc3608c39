package httpapi

import (
	"net/http"

	"github.com/dustin/go-humanize"

	"github.com/osa030/trackcore/internal/app/playback"
	"github.com/osa030/trackcore/internal/app/session"
	"github.com/osa030/trackcore/internal/domain/capability"
	"github.com/osa030/trackcore/internal/domain/failure"
)

// Status is the session view returned by the API. Times are in seconds.
type Status struct {
	State       playback.State   `json:"state"`
	StateCode   int              `json:"stateCode"`
	Index       int              `json:"index"`
	Track       map[string]any   `json:"track,omitempty"`
	Queue       []map[string]any `json:"queue"`
	Position    float64          `json:"position"`
	Duration    float64          `json:"duration"`
	Buffered    float64          `json:"buffered"`
	CachedBytes int64            `json:"cachedBytes"`
	Cached      string           `json:"cached"`
	PlayIntent  bool             `json:"playIntent"`
}

func newStatus(s session.Snapshot) Status {
	st := Status{
		State:       s.State,
		StateCode:   int(s.State),
		Index:       s.Index,
		Queue:       make([]map[string]any, 0, len(s.Tracks)),
		Position:    s.Position.Seconds(),
		Duration:    s.Duration.Seconds(),
		Buffered:    s.Buffered.Seconds(),
		CachedBytes: s.CachedBytes,
		Cached:      humanize.Bytes(uint64(max(s.CachedBytes, 0))),
		PlayIntent:  s.PlayIntent,
	}
	for _, t := range s.Tracks {
		st.Queue = append(st.Queue, t.ToMap())
	}
	if cur, ok := s.Current(); ok {
		st.Track = cur.ToMap()
	}
	return st
}

func (h *Handler) status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, newStatus(h.session.Snapshot()))
}

// capabilities handles GET /v1/capabilities?surface=full|notification|compact.
func (h *Handler) capabilities(w http.ResponseWriter, r *http.Request) {
	surface := capability.SurfaceFull
	switch name := r.URL.Query().Get("surface"); name {
	case "", "full":
	case "notification":
		surface = capability.SurfaceNotification
	case "compact":
		surface = capability.SurfaceCompact
	default:
		writeError(w, failure.Configf("unknown surface %q", name))
		return
	}
	set := h.session.Remote().Capabilities(surface)
	if set == nil {
		set = capability.Set{}
	}
	writeJSON(w, http.StatusOK, set)
}
