package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/notification"
	"github.com/osa030/trackcore/internal/domain/failure"
)

// Event name of the first message of every stream.
const snapshotEvent = "snapshot"

// events handles GET /v1/events?type=a&type=b as a server-sent event stream.
// The stream starts with the current status, then relays events in emission
// order. Without type filters every event is relayed.
func (h *Handler) events(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, errors.New("streaming is not supported"))
		return
	}

	var types []notification.Type
	wanted := make(map[notification.Type]bool)
	for _, v := range r.URL.Query()["type"] {
		for _, name := range strings.Split(v, ",") {
			t := notification.Type(strings.TrimSpace(name))
			if !t.Valid() {
				writeError(w, failure.Configf("unknown event type %q", t))
				return
			}
			types = append(types, t)
			wanted[t] = true
		}
	}

	// One subscription keeps the relative order of all relayed types.
	// It is taken before the snapshot so nothing emitted after it is lost.
	ctx := r.Context()
	ch := make(chan notification.Event, 64)
	sub := h.session.Bus().SubscribeAll(func(ev notification.Event) {
		if len(wanted) > 0 && !wanted[ev.Type] {
			return
		}
		select {
		case ch <- ev:
		case <-ctx.Done():
		}
	})
	defer sub.Remove()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.WriteHeader(http.StatusOK)

	if err := writeEvent(w, snapshotEvent, 0, newStatus(h.session.Snapshot())); err != nil {
		return
	}
	flusher.Flush()

	zlog.Debug().Msgf("httpapi: event stream opened: remote=%s types=%v", r.RemoteAddr, types)
	defer zlog.Debug().Msgf("httpapi: event stream closed: remote=%s", r.RemoteAddr)

	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			if err := writeEvent(w, string(ev.Type), ev.Seq, ev); err != nil {
				zlog.Debug().Err(err).Msg("httpapi: event stream write failed")
				return
			}
			flusher.Flush()
		}
	}
}

func writeEvent(w http.ResponseWriter, name string, id uint64, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return errors.Wrap(err, "failed to encode event")
	}
	_, err = fmt.Fprintf(w, "event: %s\nid: %d\ndata: %s\n\n", name, id, data)
	return err
}
