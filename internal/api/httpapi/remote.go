package httpapi

import (
	"io"
	"net/http"
	"time"

	"github.com/cockroachdb/errors"

	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/domain/failure"
	"github.com/osa030/trackcore/internal/domain/rating"
)

// RemoteRequest carries the arguments of a remote signal. Times are in seconds.
type RemoteRequest struct {
	TrackID  string        `json:"trackId,omitempty"`  // skip, play-id
	Position *float64      `json:"position,omitempty"` // seek
	Interval float64       `json:"interval,omitempty"` // jump-forward, jump-backward
	Rating   *rating.Value `json:"rating,omitempty"`   // set-rating
	notification.DuckPayload
	notification.SearchPayload
}

// RemoteResponse acknowledges a routed signal.
type RemoteResponse struct {
	Signal remote.Signal     `json:"signal"`
	Event  notification.Type `json:"event"`
}

// command builds the router command for signal s.
func (req RemoteRequest) command(s remote.Signal) (remote.Command, error) {
	cmd := remote.Command{
		Signal:   s,
		TrackID:  req.TrackID,
		Interval: seconds(req.Interval),
		Duck:     req.DuckPayload,
		Search:   req.SearchPayload,
	}
	switch s {
	case remote.SignalSeek:
		if req.Position == nil {
			return cmd, failure.Configf("seek needs a position")
		}
		cmd.Position = seconds(*req.Position)
	case remote.SignalSetRating:
		if req.Rating == nil {
			return cmd, failure.Configf("set-rating needs a rating")
		}
		cmd.Rating = *req.Rating
	case remote.SignalSkip, remote.SignalPlayID:
		if req.TrackID == "" {
			return cmd, failure.Configf("%s needs a track id", s)
		}
	}
	return cmd, nil
}

// remote handles POST /v1/remote/{signal}. The body is optional.
func (h *Handler) remote(w http.ResponseWriter, r *http.Request) {
	s, err := remote.ParseSignal(r.PathValue("signal"))
	if err != nil {
		writeError(w, err)
		return
	}
	var req RemoteRequest
	if err := decode(r, &req); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, err)
		return
	}
	cmd, err := req.command(s)
	if err != nil {
		writeError(w, err)
		return
	}
	if err := h.session.Remote().Dispatch(r.Context(), cmd); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusAccepted, RemoteResponse{Signal: s, Event: s.Event()})
}

func seconds(s float64) time.Duration {
	return time.Duration(s * float64(time.Second))
}
