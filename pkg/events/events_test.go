package events

import (
	"context"
	"errors"
	"testing"
)

func TestNopPublisherAcceptsEverything(t *testing.T) {
	var p Publisher = Nop{}
	if err := p.Publish(context.Background(), SubjectClaimCreated, map[string]string{"id": "x"}); err != nil {
		t.Fatalf("Nop.Publish: %v", err)
	}
	p.Close()
}

func TestNATSPublisherWithoutConnection(t *testing.T) {
	var p *NATSPublisher
	if err := p.Publish(context.Background(), SubjectFileUploaded, nil); !errors.Is(err, ErrNotConnected) {
		t.Fatalf("want ErrNotConnected, got=%v", err)
	}
	p.Close()
}
