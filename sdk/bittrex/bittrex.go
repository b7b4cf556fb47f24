package bittrex

import (
	"time"

	"github.com/demigunkan/marketstatus/internal/config"
	"github.com/demigunkan/marketstatus/internal/metrics"
	"github.com/demigunkan/marketstatus/pkg/http"
	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

type Options struct {
	RestURL   string
	SocketURL string
	Hub       string
	APIKey    string
	APISecret string

	Watchdog        time.Duration
	SnapshotRate    float64
	SnapshotBurst   int
	BreakerFailures uint32
	BreakerCooldown time.Duration
}

// OptionsFromConfig fills in Mainnet endpoints for anything left empty.
func OptionsFromConfig(cfg config.Config) Options {
	b := cfg.Bittrex
	opts := Options{
		RestURL:         b.RestURL,
		SocketURL:       b.SocketURL,
		Hub:             b.Hub,
		APIKey:          b.APIKey,
		APISecret:       b.APISecret,
		Watchdog:        time.Duration(b.WatchdogSeconds) * time.Second,
		SnapshotRate:    b.SnapshotRatePerSecond,
		SnapshotBurst:   b.SnapshotBurst,
		BreakerFailures: b.BreakerFailures,
		BreakerCooldown: time.Duration(b.BreakerCooldownSecs) * time.Second,
	}
	return opts.withDefaults(Mainnet)
}

func (o Options) withDefaults(e env) Options {
	if o.RestURL == "" {
		o.RestURL = envs[e].rest
	}
	if o.SocketURL == "" {
		o.SocketURL = envs[e].socket
	}
	if o.Hub == "" {
		o.Hub = envs[e].hub
	}
	if o.Watchdog <= 0 {
		o.Watchdog = 10 * time.Second
	}
	if o.SnapshotRate <= 0 {
		o.SnapshotRate = 5
	}
	if o.SnapshotBurst <= 0 {
		o.SnapshotBurst = 1
	}
	if o.BreakerFailures == 0 {
		o.BreakerFailures = 5
	}
	if o.BreakerCooldown <= 0 {
		o.BreakerCooldown = 30 * time.Second
	}
	return o
}

// Bittrex is the REST side of the exchange: order book snapshots, rate
// limited and behind a circuit breaker shared by every worker.
type Bittrex struct {
	opts    Options
	http    *http.HTTP
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker
	logger  zerolog.Logger
}

func New(opts Options, logger zerolog.Logger) *Bittrex {
	opts = opts.withDefaults(Mainnet)
	logger = logger.With().Str("exchange", "bittrex").Logger()

	b := &Bittrex{
		opts:    opts,
		http:    http.New(opts.RestURL),
		limiter: rate.NewLimiter(rate.Limit(opts.SnapshotRate), opts.SnapshotBurst),
		logger:  logger,
	}

	b.breaker = gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "bittrex-snapshot",
		MaxRequests: 1,
		Interval:    time.Minute,
		Timeout:     opts.BreakerCooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= opts.BreakerFailures
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			ev := logger.Warn()
			if to == gobreaker.StateOpen {
				ev = logger.Error()
			}
			ev.Str("breaker", name).Str("from", from.String()).Str("to", to.String()).Msg("snapshot source breaker state changed")
		},
	})

	return b
}
