// Package antivirus scans uploaded binaries before they are accepted.
package antivirus

import (
	"context"
	"errors"
	"fmt"
	"io"

	clamd "github.com/dutchcoders/go-clamd"
	"go.uber.org/zap"
)

var ErrInfected = errors.New("file is infected")

type Scanner interface {
	Scan(ctx context.Context, r io.Reader) error
}

// Disabled accepts every file. It is used when CLAMAV_URL is not configured.
type Disabled struct{}

func (Disabled) Scan(context.Context, io.Reader) error { return nil }

type ClamdScanner struct {
	client *clamd.Clamd
	logger *zap.Logger
}

func NewClamdScanner(url string, logger *zap.Logger) *ClamdScanner {
	return &ClamdScanner{
		client: clamd.NewClamd(url),
		logger: logger,
	}
}

func (s *ClamdScanner) Ping() error {
	return s.client.Ping()
}

// Scan streams r to clamd. It returns ErrInfected when a signature matches
// and a plain error when clamd could not complete the scan.
func (s *ClamdScanner) Scan(ctx context.Context, r io.Reader) error {
	abort := make(chan bool, 1)
	results, err := s.client.ScanStream(r, abort)
	if err != nil {
		return fmt.Errorf("clamd scan failed: %w", err)
	}

	var scanErr error
	for {
		select {
		case <-ctx.Done():
			abort <- true
			return ctx.Err()
		case res, ok := <-results:
			if !ok {
				return scanErr
			}
			switch res.Status {
			case clamd.RES_FOUND:
				s.logger.Warn("Virus detected", zap.String("signature", res.Description))
				scanErr = fmt.Errorf("%w: %s", ErrInfected, res.Description)
			case clamd.RES_ERROR, clamd.RES_PARSE_ERROR:
				if scanErr == nil {
					scanErr = fmt.Errorf("clamd error: %s", res.Description)
				}
			}
		}
	}
}
