package store

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Transactor runs a unit of work inside a MongoDB transaction. Standalone
// servers cannot run transactions; there the work runs without one and the
// fallback is logged once per call.
type Transactor struct {
	client *mongo.Client
	log    *zap.Logger
}

func NewTransactor(client *mongo.Client, log *zap.Logger) *Transactor {
	return &Transactor{client: client, log: log}
}

// WithTransaction calls fn with a session-bound context. Stores must use that
// context for their writes to join the transaction.
func (t *Transactor) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	sess, err := t.client.StartSession()
	if err != nil {
		if IsNotSupported(err) {
			return t.fallback(ctx, err, fn)
		}
		return err
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		return t.fallback(ctx, err, fn)
	}
	return err
}

func (t *Transactor) fallback(ctx context.Context, cause error, fn func(ctx context.Context) error) error {
	if t.log != nil {
		t.log.Warn("transactions not supported, running without", zap.Error(cause))
	}
	return fn(ctx)
}

// IsNotSupported reports whether err means the deployment cannot run
// multi-document transactions (standalone mongod, some managed services).
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		switch ce.Code {
		case 20, 51, 263:
			return true
		}
	}
	s := strings.ToLower(err.Error())
	hits := 0
	for _, kw := range []string{"transaction", "replica set", "session", "not supported", "illegal operation"} {
		if strings.Contains(s, kw) {
			hits++
		}
	}
	return hits >= 2
}
