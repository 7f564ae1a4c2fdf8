// Package events publishes claim and file lifecycle events. Publishing is
// best-effort: callers log failures and carry on.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
	"go.uber.org/zap"
)

const (
	StreamName = "fra-events"

	SubjectClaimCreated  = "claims.created"
	SubjectClaimUpdated  = "claims.updated"
	SubjectClaimDeleted  = "claims.deleted"
	SubjectFileUploaded  = "files.uploaded"
	SubjectFileProcessed = "files.processed"
	SubjectFileFailed    = "files.failed"
)

var ErrNotConnected = errors.New("jetstream not initialized")

type Publisher interface {
	Publish(ctx context.Context, subject string, payload any) error
	Close()
}

// Nop drops every event. It is used when NATS_URL is not configured.
type Nop struct{}

func (Nop) Publish(context.Context, string, any) error { return nil }
func (Nop) Close()                                     {}

type NATSPublisher struct {
	nc     *nats.Conn
	js     nats.JetStreamContext
	logger *zap.Logger
}

// ConnectNATS connects to url, enables JetStream and makes sure the event
// stream exists.
func ConnectNATS(url string, logger *zap.Logger) (*NATSPublisher, error) {
	opts := []nats.Option{
		nats.Name("fra-atlas"),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("NATS disconnected", zap.Error(err))
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("NATS reconnected", zap.String("url", nc.ConnectedUrl()))
		}),
	}

	nc, err := nats.Connect(url, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := nc.JetStream()
	if err != nil {
		nc.Close()
		return nil, fmt.Errorf("failed to init JetStream: %w", err)
	}

	p := &NATSPublisher{nc: nc, js: js, logger: logger}
	if err := p.ensureStream(); err != nil {
		logger.Warn("Failed to ensure event stream", zap.Error(err))
	}

	logger.Info("NATS connected", zap.String("url", nc.ConnectedUrl()))
	return p, nil
}

func (p *NATSPublisher) ensureStream() error {
	if _, err := p.js.StreamInfo(StreamName); err == nil {
		return nil
	}
	_, err := p.js.AddStream(&nats.StreamConfig{
		Name:     StreamName,
		Subjects: []string{"claims.*", "files.*"},
		Storage:  nats.FileStorage,
		MaxAge:   30 * 24 * time.Hour,
	})
	return err
}

func (p *NATSPublisher) Publish(ctx context.Context, subject string, payload any) error {
	if p == nil || p.js == nil {
		return ErrNotConnected
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	if _, err := p.js.Publish(subject, data, nats.MsgId(uuid.NewString()), nats.Context(ctx)); err != nil {
		return fmt.Errorf("failed to publish %s: %w", subject, err)
	}
	return nil
}

func (p *NATSPublisher) Close() {
	if p != nil && p.nc != nil {
		_ = p.nc.Drain()
	}
}
