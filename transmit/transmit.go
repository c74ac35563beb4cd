// Package transmit sends every pooled probe on a fixed interval.
package transmit

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"time"
)

type (
	// Source hands each probe to send, in pool order.
	// Satisfied by [control.Service].
	//
	// [control.Service]: https://pkg.go.dev/github.com/djdv/go-flowpool/control#Service
	Source interface {
		Transmit(send func(id string, pkt []byte) error) (int, error)
	}
	// Loop writes all probes from Source to Addr every Interval.
	Loop struct {
		Source   Source
		Conn     net.PacketConn
		Addr     net.Addr
		Interval time.Duration
		Logger   *log.Logger
	}
)

// ErrInvalidInterval is returned from [Loop.Run] for non-positive intervals.
var ErrInvalidInterval = errors.New("transmit interval must be positive")

// Run transmits one round per interval until ctx is done.
// Failed rounds are logged and do not stop the loop.
func (l *Loop) Run(ctx context.Context) error {
	if l.Interval <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidInterval, l.Interval)
	}
	logger := l.logger()
	ticker := time.NewTicker(l.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := l.Once(ctx); err != nil {
				logger.Println("transmit:", err)
			}
		}
	}
}

// Once transmits a single round and returns the number of probes written.
func (l *Loop) Once(ctx context.Context) (int, error) {
	return l.Source.Transmit(func(_ string, pkt []byte) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		_, err := l.Conn.WriteTo(pkt, l.Addr)
		return err
	})
}

func (l *Loop) logger() *log.Logger {
	if l.Logger != nil {
		return l.Logger
	}
	return log.Default()
}
