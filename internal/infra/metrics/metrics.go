/*
 * file: metrics.go
 * package: metrics
 * description:
 *     Prometheus collectors for the counters operators watch: live
 *     connections, logins, invitations, and games. Registered against
 *     the default registry and served on an optional HTTP endpoint.
 */

package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
)

// Metrics bundles the collectors the server updates as it handles
// connections and game traffic.
type Metrics struct {
	ConnectionsActive prometheus.Gauge
	LoginsTotal        prometheus.Counter
	InvitationsTotal    prometheus.Counter
	InvitationsOpen     prometheus.Gauge
	GamesStartedTotal   prometheus.Counter
	GamesFinishedTotal  prometheus.Counter
}

// New registers and returns a fresh Metrics bundle.
func New() *Metrics {
	return &Metrics{
		ConnectionsActive: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jeux_connections_active",
			Help: "Number of currently registered client connections.",
		}),
		LoginsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jeux_logins_total",
			Help: "Total number of successful LOGIN requests.",
		}),
		InvitationsTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jeux_invitations_total",
			Help: "Total number of invitations created.",
		}),
		InvitationsOpen: promauto.NewGauge(prometheus.GaugeOpts{
			Name: "jeux_invitations_open",
			Help: "Number of invitations currently awaiting a response.",
		}),
		GamesStartedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jeux_games_started_total",
			Help: "Total number of games started by an accepted invitation.",
		}),
		GamesFinishedTotal: promauto.NewCounter(prometheus.CounterOpts{
			Name: "jeux_games_finished_total",
			Help: "Total number of games that reached a terminal outcome.",
		}),
	}
}

// Serve runs the /metrics HTTP endpoint on addr until ctx is done. A
// blank addr disables the endpoint.
func Serve(ctx context.Context, addr string, log zerolog.Logger) {
	if addr == "" {
		return
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}

	go func() {
		<-ctx.Done()
		_ = srv.Close()
	}()

	log.Info().Str("addr", addr).Msg("metrics endpoint listening")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("metrics server failed")
	}
}
