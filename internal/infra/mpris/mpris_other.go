//go:build !linux

package mpris

import (
	"context"

	zlog "github.com/rs/zerolog/log"

	"github.com/osa030/trackcore/internal/app/notification"
)

// Service returns a playback service that only waits for its context on
// platforms without MPRIS.
func Service(name string, _ Player) notification.ServiceFactory {
	return func() notification.Service {
		return func(ctx context.Context) error {
			zlog.Info().Msgf("mpris: %s not published, unsupported platform", name)
			<-ctx.Done()
			return nil
		}
	}
}
