package services

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"
)

func newTestNotifier(url string, tokens TokenLookup) *NotificationService {
	s := NewNotificationService(url, "expo-token", tokens, zap.NewNop())
	s.delay = time.Millisecond
	return s
}

func TestSend_RetriesServerErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&calls, 1)
		if r.Header.Get("Authorization") != "Bearer expo-token" {
			t.Errorf("missing auth header")
		}
		if n < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		var msgs []ExpoMessage
		if err := json.NewDecoder(r.Body).Decode(&msgs); err != nil || len(msgs) != 1 || msgs[0].Title != "t" {
			t.Errorf("bad payload: %+v %v", msgs, err)
		}
		w.Write([]byte(`{"data":[{"status":"ok"}]}`))
	}))
	defer srv.Close()

	s := newTestNotifier(srv.URL, nil)
	if err := s.Send(context.Background(), ExpoMessage{To: []string{"a"}, Title: "t", Body: "b"}); err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestSend_DoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	s := newTestNotifier(srv.URL, nil)
	if err := s.Send(context.Background(), ExpoMessage{To: []string{"a"}}); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("calls = %d, want 1", calls)
	}
}

func TestSend_GivesUpAfterAttempts(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	s := newTestNotifier(srv.URL, nil)
	if err := s.Send(context.Background(), ExpoMessage{To: []string{"a"}}); err == nil {
		t.Fatal("expected error")
	}
	if atomic.LoadInt32(&calls) != pushAttempts {
		t.Errorf("calls = %d, want %d", calls, pushAttempts)
	}
}

func TestNotifyUser(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		var msgs []ExpoMessage
		json.NewDecoder(r.Body).Decode(&msgs)
		if len(msgs) != 1 || len(msgs[0].To) != 2 {
			t.Errorf("unexpected payload %+v", msgs)
		}
		w.Write([]byte(`{"data":[]}`))
	}))
	defer srv.Close()

	withTokens := primitive.NewObjectID()
	withoutTokens := primitive.NewObjectID()
	failing := primitive.NewObjectID()
	lookup := func(_ context.Context, id primitive.ObjectID) ([]string, error) {
		switch id {
		case withTokens:
			return []string{"ExponentPushToken[a]", "ExponentPushToken[b]"}, nil
		case failing:
			return nil, errors.New("db down")
		}
		return nil, nil
	}

	s := newTestNotifier(srv.URL, lookup)
	s.NotifyUser(withTokens, "t", "b", map[string]string{"k": "v"})
	s.NotifyUser(withoutTokens, "t", "b", nil)
	s.NotifyUser(failing, "t", "b", nil)
	s.Wait()

	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("push calls = %d, want 1", calls)
	}
}

func TestFormatStatus(t *testing.T) {
	if got := FormatStatus("in_progress"); got != "in progress" {
		t.Errorf("FormatStatus = %q", got)
	}
}
