package providers

import (
	"context"
	"math"

	"github.com/rs/zerolog/log"

	"github.com/ecopulse/environment-data-aggregation/internal/telemetry"
)

// Strategy is one rung of an adapter's fallback ladder. Run returns a nil
// reading (without error) when the source was reachable but had nothing
// usable, and an error when the source itself failed.
type Strategy[R any] struct {
	Name string
	Run  func(ctx context.Context) (*R, error)
}

// runLadder tries strategies in order and returns the first non-nil reading.
// The fallback policy is a value the adapters build, not control flow buried
// in error handling. Outcomes are logged and counted per provider: success
// when the first rung delivered, fallback when a later one did, absent when
// none did.
func runLadder[R any](ctx context.Context, provider string, strategies ...Strategy[R]) *R {
	for i, s := range strategies {
		r, err := s.Run(ctx)
		if err != nil {
			log.Warn().Str("provider", provider).Str("strategy", s.Name).Err(err).
				Msg("strategy failed")
			continue
		}
		if r == nil {
			continue
		}

		outcome := "success"
		if i > 0 {
			outcome = "fallback"
		}
		telemetry.FetchOutcomes.WithLabelValues(provider, outcome).Inc()
		log.Debug().Str("provider", provider).Str("strategy", s.Name).Str("outcome", outcome).
			Msg("reading resolved")
		return r
	}

	telemetry.FetchOutcomes.WithLabelValues(provider, "absent").Inc()
	log.Info().Str("provider", provider).Str("outcome", "absent").Msg("no reading available")
	return nil
}

func ptr[T any](v T) *T { return &v }

func round1(v float64) float64 { return math.Round(v*10) / 10 }
func round2(v float64) float64 { return math.Round(v*100) / 100 }
func round3(v float64) float64 { return math.Round(v*1000) / 1000 }
