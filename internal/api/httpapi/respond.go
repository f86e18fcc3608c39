package httpapi

import (
	"encoding/json"
	"net/http"

	"github.com/cockroachdb/errors"
	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/remote"
	"github.com/osa030/trackcore/internal/app/session"
	"github.com/osa030/trackcore/internal/domain/failure"
)

// Upper bound for request bodies.
const maxBodyBytes = 1 << 20

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
	Code  int    `json:"code"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zlog.Warn().Err(err).Msg("httpapi: failed to write response")
	}
}

// statusOf maps an error kind to an HTTP status.
func statusOf(err error) int {
	switch {
	case errors.Is(err, session.ErrClosed):
		return http.StatusServiceUnavailable
	case errors.Is(err, remote.ErrUnknownSignal):
		return http.StatusNotFound
	}
	switch failure.KindOf(err) {
	case failure.KindConfig:
		return http.StatusBadRequest
	case failure.KindInvalidTrack:
		return http.StatusUnprocessableEntity
	case failure.KindNotFound:
		return http.StatusNotFound
	case failure.KindInvalidTransition:
		return http.StatusConflict
	case failure.KindPlayback:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, err error) {
	status := statusOf(err)
	if status >= http.StatusInternalServerError {
		zlog.Error().Err(err).Msg("httpapi: request failed")
	} else {
		zlog.Debug().Err(err).Msg("httpapi: request rejected")
	}
	kind := failure.KindOf(err)
	writeJSON(w, status, ErrorResponse{Error: err.Error(), Kind: kind.String(), Code: int(kind)})
}

// decode reads a JSON body into v. Malformed bodies are ConfigErrors.
func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return failure.Config(errors.Wrap(err, "invalid request body"))
	}
	return nil
}
