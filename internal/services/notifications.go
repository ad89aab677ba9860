package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/avast/retry-go"
	"github.com/harentsoaR/complaint-api/internal/timeouts"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

const (
	DefaultExpoPushURL = "https://exp.host/--/api/v2/push/send"

	pushAttempts     = 3
	pushInitialDelay = 500 * time.Millisecond
	pushMaxDelay     = 5 * time.Second
)

// ExpoMessage is one entry of an Expo push request.
type ExpoMessage struct {
	To    []string          `json:"to"`
	Title string            `json:"title"`
	Body  string            `json:"body"`
	Sound string            `json:"sound,omitempty"`
	Data  map[string]string `json:"data,omitempty"`
}

// TokenLookup returns the Expo tokens registered for a user.
type TokenLookup func(ctx context.Context, userID primitive.ObjectID) ([]string, error)

// NotificationService sends Expo push notifications in the background so
// request handlers never wait on the push provider.
type NotificationService struct {
	url         string
	accessToken string
	client      *http.Client
	tokens      TokenLookup
	log         *zap.Logger
	wg          sync.WaitGroup
	delay       time.Duration
}

func NewNotificationService(url, accessToken string, tokens TokenLookup, log *zap.Logger) *NotificationService {
	if url == "" {
		url = DefaultExpoPushURL
	}
	return &NotificationService{
		url:         url,
		accessToken: accessToken,
		client:      &http.Client{Timeout: 10 * time.Second},
		tokens:      tokens,
		log:         log,
		delay:       pushInitialDelay,
	}
}

// NotifyUser looks up the user's tokens and pushes the message
// asynchronously. Failures are logged.
func (s *NotificationService) NotifyUser(userID primitive.ObjectID, title, body string, data map[string]string) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), timeouts.Long())
		defer cancel()

		tokens, err := s.tokens(ctx, userID)
		if err != nil {
			s.log.Warn("push skipped: token lookup failed", zap.String("user_id", userID.Hex()), zap.Error(err))
			return
		}
		if len(tokens) == 0 {
			s.log.Debug("push skipped: user has no expo tokens", zap.String("user_id", userID.Hex()))
			return
		}
		msg := ExpoMessage{To: tokens, Title: title, Body: body, Sound: "default", Data: data}
		if err := s.Send(ctx, msg); err != nil {
			s.log.Warn("push delivery failed", zap.String("user_id", userID.Hex()), zap.Error(err))
			return
		}
		s.log.Info("push delivered", zap.String("user_id", userID.Hex()), zap.Int("devices", len(tokens)))
	}()
}

// Send posts msg to the Expo push API, retrying transport errors and 5xx
// responses with exponential backoff.
func (s *NotificationService) Send(ctx context.Context, msg ExpoMessage) error {
	payload, err := json.Marshal([]ExpoMessage{msg})
	if err != nil {
		return fmt.Errorf("marshal push message: %w", err)
	}

	return retry.Do(
		func() error { return s.post(ctx, payload) },
		retry.Context(ctx),
		retry.Attempts(pushAttempts),
		retry.Delay(s.delay),
		retry.MaxDelay(pushMaxDelay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			s.log.Debug("push retry", zap.Uint("attempt", n+1), zap.Error(err))
		}),
	)
}

func (s *NotificationService) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(payload))
	if err != nil {
		return retry.Unrecoverable(err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if s.accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+s.accessToken)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 || resp.StatusCode == http.StatusTooManyRequests {
		return fmt.Errorf("expo push: status %d", resp.StatusCode)
	}
	if resp.StatusCode >= 300 {
		return retry.Unrecoverable(fmt.Errorf("expo push: status %d", resp.StatusCode))
	}

	var result struct {
		Data []struct {
			Status  string `json:"status"`
			Message string `json:"message"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil
	}
	var failed []string
	for _, d := range result.Data {
		if d.Status == "error" {
			failed = append(failed, d.Message)
		}
	}
	if len(failed) > 0 {
		s.log.Warn("expo rejected some tickets", zap.Strings("errors", failed))
	}
	return nil
}

// Wait blocks until in-flight deliveries finish. Used on shutdown and in tests.
func (s *NotificationService) Wait() { s.wg.Wait() }

// FormatStatus renders a status value for notification text.
func FormatStatus(status string) string {
	return strings.ReplaceAll(status, "_", " ")
}
