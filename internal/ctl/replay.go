package ctl

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/pool"

	"github.com/okian/wildwatch/internal/adapters/http/api"
	"github.com/okian/wildwatch/internal/domain/extract"
	"github.com/okian/wildwatch/pkg/logger"
)

// ReplayConfig drives a synthetic webhook replay against a server.
type ReplayConfig struct {
	Deliveries    int     // distinct deliveries to send
	DuplicateRate float64 // share of deliveries sent twice, 0..1
	Workers       int
	JobID         string
	SourceURL     string
}

// ReplayStats counts acknowledgements by outcome.
type ReplayStats struct {
	Sent      int64
	Accepted  int64
	Duplicate int64
	Rejected  int64
	Failed    int64
	Duration  time.Duration
}

var (
	qualifiers = []string{"definitely", "clearly", "possibly", "what looks like"}
	behaviours = []string{"drinking at the waterhole", "grazing near the trees", "resting in the shade", "walking across the frame"}
)

// GeneratePayloads builds n webhook payloads whose explanations mention
// vocabulary species. Every payload carries a fresh event id.
func GeneratePayloads(n int, jobID, sourceURL string, rng *rand.Rand) []api.WebhookPayload {
	vocab := extract.Vocabulary()
	out := make([]api.WebhookPayload, n)
	now := time.Now().UTC()
	for i := range out {
		triggered := rng.IntN(4) != 0
		explanation := "No wildlife detected. The frame shows an empty savanna."
		if triggered {
			species := vocab[rng.IntN(len(vocab))]
			explanation = fmt.Sprintf("Yes, %s a %s %s.",
				qualifiers[rng.IntN(len(qualifiers))], species, behaviours[rng.IntN(len(behaviours))])
		}
		out[i] = api.WebhookPayload{
			EventID:     uuid.NewString(),
			JobID:       jobID,
			YouTubeURL:  sourceURL,
			Triggered:   triggered,
			Explanation: explanation,
			Model:       "replay",
			Timestamp:   now.Add(time.Duration(i) * time.Second).Format(time.RFC3339),
		}
	}
	return out
}

// Replay sends generated deliveries through c with cfg.Workers in flight.
func Replay(ctx context.Context, c *Client, cfg ReplayConfig, log logger.Logger) (ReplayStats, error) {
	if cfg.Deliveries < 1 {
		return ReplayStats{}, errors.New("deliveries must be positive")
	}
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}
	rng := rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), uint64(cfg.Deliveries))) //nolint:gosec // synthetic data
	payloads := GeneratePayloads(cfg.Deliveries, cfg.JobID, cfg.SourceURL, rng)

	queue := make([]*api.WebhookPayload, 0, len(payloads))
	for i := range payloads {
		queue = append(queue, &payloads[i])
		if rng.Float64() < cfg.DuplicateRate {
			queue = append(queue, &payloads[i])
		}
	}

	log.Info(ctx, "replaying webhook deliveries",
		logger.Int("deliveries", cfg.Deliveries),
		logger.Int("requests", len(queue)),
		logger.Int("workers", cfg.Workers))

	var stats ReplayStats
	start := time.Now()
	p := pool.New().WithMaxGoroutines(cfg.Workers)
	for _, payload := range queue {
		if ctx.Err() != nil {
			break
		}
		p.Go(func() {
			atomic.AddInt64(&stats.Sent, 1)
			ack, err := c.Deliver(ctx, payload)
			var se *StatusError
			switch {
			case errors.As(err, &se) && se.StatusCode == http.StatusTooManyRequests:
				atomic.AddInt64(&stats.Rejected, 1)
			case err != nil:
				atomic.AddInt64(&stats.Failed, 1)
				log.Debug(ctx, "delivery failed", logger.String("event_id", payload.EventID), logger.Error(err))
			case strings.EqualFold(ack.Status, "duplicate"):
				atomic.AddInt64(&stats.Duplicate, 1)
			default:
				atomic.AddInt64(&stats.Accepted, 1)
			}
		})
	}
	p.Wait()
	stats.Duration = time.Since(start)

	log.Info(ctx, "replay completed",
		logger.Any("accepted", stats.Accepted),
		logger.Any("duplicate", stats.Duplicate),
		logger.Any("rejected", stats.Rejected),
		logger.Any("failed", stats.Failed),
		logger.Duration("duration", stats.Duration))
	return stats, ctx.Err()
}
