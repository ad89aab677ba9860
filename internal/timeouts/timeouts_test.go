package timeouts

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func restoreDefaults(t *testing.T) {
	t.Cleanup(func() {
		mu.Lock()
		current = Defaults
		mu.Unlock()
	})
}

func TestConfigureKeepsZeroValues(t *testing.T) {
	restoreDefaults(t)

	Configure(Config{Short: time.Second})
	if Short() != time.Second {
		t.Errorf("Short = %v, want 1s", Short())
	}
	if Medium() != Defaults.Medium {
		t.Errorf("Medium = %v, want default", Medium())
	}
}

func TestConfigureFromEnv(t *testing.T) {
	restoreDefaults(t)
	t.Setenv("TIMEOUT_LONG", "45s")
	t.Setenv("TIMEOUT_PING", "garbage")
	t.Setenv("TIMEOUT_SHORT", "-1s")

	if n := ConfigureFromEnv(); n != 1 {
		t.Fatalf("configured %d values, want 1", n)
	}
	if Long() != 45*time.Second || Ping() != Defaults.Ping || Short() != Defaults.Short {
		t.Errorf("unexpected timeouts: long=%v ping=%v short=%v", Long(), Ping(), Short())
	}
}

func TestWithTimeoutLogsDeadline(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	ctx, cancel := WithTimeout(context.Background(), time.Millisecond, zap.New(core), "GET /complaints")
	<-ctx.Done()
	cancel()
	if ctx.Err() != context.DeadlineExceeded {
		t.Fatalf("err = %v, want deadline exceeded", ctx.Err())
	}
	entries := logs.FilterMessage("operation timed out").All()
	if len(entries) != 1 || entries[0].ContextMap()["operation"] != "GET /complaints" {
		t.Fatalf("entries = %+v", entries)
	}
}

func TestWithTimeoutQuietWhenFinishedInTime(t *testing.T) {
	core, logs := observer.New(zap.WarnLevel)

	_, cancel := WithTimeout(context.Background(), time.Minute, zap.New(core), "fast")
	cancel()
	if logs.Len() != 0 {
		t.Fatalf("unexpected log entries: %d", logs.Len())
	}
}
