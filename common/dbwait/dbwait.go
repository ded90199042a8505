package dbwait

import (
	"context"
	"time"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
)

const maxBackoff = 30 * time.Second

// Pinger is satisfied by *sql.DB.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Wait pings db until it answers, backing off exponentially, or until timeout elapses.
func Wait(ctx context.Context, db Pinger, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	backoff := 100 * time.Millisecond
	for {
		err := db.PingContext(ctx)
		if err == nil {
			return nil
		}
		log.Debugf("db connection not established, error: %s; retrying in %s", err, backoff)
		select {
		case <-ctx.Done():
			return errors.Wrapf(err, "db connection not established after %s", timeout)
		case <-time.After(backoff):
		}
		if backoff *= 2; backoff > maxBackoff {
			backoff = maxBackoff
		}
	}
}
