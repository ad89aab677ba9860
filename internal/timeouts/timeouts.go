// Package timeouts holds the context deadlines used around store and
// external calls.
//
//   - Ping: health checks and limiter round trips
//   - Short: single-document lookups done by middleware
//   - Medium: handler service calls
//   - Long: requests that upload files
package timeouts

import (
	"context"
	"os"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Config holds one deadline per tier. Zero values keep the current value
// when passed to Configure.
type Config struct {
	Ping   time.Duration
	Short  time.Duration
	Medium time.Duration
	Long   time.Duration
}

// Defaults are the deadlines in effect until Configure is called.
var Defaults = Config{
	Ping:   2 * time.Second,
	Short:  5 * time.Second,
	Medium: 10 * time.Second,
	Long:   30 * time.Second,
}

var (
	mu      sync.RWMutex
	current = Defaults
)

func get(pick func(Config) time.Duration) time.Duration {
	mu.RLock()
	defer mu.RUnlock()
	return pick(current)
}

func Ping() time.Duration   { return get(func(c Config) time.Duration { return c.Ping }) }
func Short() time.Duration  { return get(func(c Config) time.Duration { return c.Short }) }
func Medium() time.Duration { return get(func(c Config) time.Duration { return c.Medium }) }
func Long() time.Duration   { return get(func(c Config) time.Duration { return c.Long }) }

func Configure(cfg Config) {
	mu.Lock()
	defer mu.Unlock()
	for _, f := range []struct{ dst, src *time.Duration }{
		{&current.Ping, &cfg.Ping},
		{&current.Short, &cfg.Short},
		{&current.Medium, &cfg.Medium},
		{&current.Long, &cfg.Long},
	} {
		if *f.src > 0 {
			*f.dst = *f.src
		}
	}
}

// ConfigureFromEnv applies TIMEOUT_PING, TIMEOUT_SHORT, TIMEOUT_MEDIUM and
// TIMEOUT_LONG. Unparsable or non-positive values are skipped. It returns
// how many values were applied.
func ConfigureFromEnv() int {
	var cfg Config
	n := 0
	for key, dst := range map[string]*time.Duration{
		"TIMEOUT_PING":   &cfg.Ping,
		"TIMEOUT_SHORT":  &cfg.Short,
		"TIMEOUT_MEDIUM": &cfg.Medium,
		"TIMEOUT_LONG":   &cfg.Long,
	} {
		if d, err := time.ParseDuration(os.Getenv(key)); err == nil && d > 0 {
			*dst = d
			n++
		}
	}
	Configure(cfg)
	return n
}

// WithTimeout derives a context bounded by timeout. Its cancel func logs
// operation when the deadline was the reason the context ended.
func WithTimeout(parent context.Context, timeout time.Duration, log *zap.Logger, operation string) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(parent, timeout)
	return ctx, func() {
		if log != nil && ctx.Err() == context.DeadlineExceeded && parent.Err() == nil {
			log.Warn("operation timed out",
				zap.String("operation", operation),
				zap.Duration("timeout", timeout))
		}
		cancel()
	}
}
