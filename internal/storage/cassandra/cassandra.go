// Package cassandra implements the destination tables on Apache Cassandra
// via gocql. This is the primary backend: counter tables, write-time TTL and
// multi-host connection are native here.
package cassandra

import (
	"errors"
	"fmt"
	"time"

	"github.com/gocql/gocql"

	"payment-stream-lab/internal/storage"
)

// Session wraps gocql.Session for dependency injection.
type Session struct {
	*gocql.Session
}

// Config describes how to reach the cluster.
type Config struct {
	Hosts    []string // candidate hosts, tried in the order given
	Port     int      // 0 means the default CQL port 9042
	Keyspace string
	Timeout  time.Duration // per-query timeout, 0 for the driver default
}

// NewSession connects to the cluster. The keyspace and tables must already
// exist; provisioning is owned by an external collaborator.
func NewSession(cfg Config) (*Session, error) {
	if len(cfg.Hosts) == 0 {
		return nil, errors.New("at least one destination host is required")
	}

	cluster := gocql.NewCluster(cfg.Hosts...)
	if cfg.Port > 0 {
		cluster.Port = cfg.Port
	}
	cluster.Keyspace = cfg.Keyspace
	cluster.Consistency = gocql.One
	if cfg.Timeout > 0 {
		cluster.Timeout = cfg.Timeout
	}

	session, err := cluster.CreateSession()
	if err != nil {
		return nil, fmt.Errorf("connect cassandra %v: %w", cfg.Hosts, storage.ErrUnavailable)
	}
	return &Session{Session: session}, nil
}

// Close releases the session.
func (s *Session) Close() {
	s.Session.Close()
}

// Destinations bundles all destination stores over one session.
func Destinations(session *Session) *storage.Destinations {
	return &storage.Destinations{
		UserLog:     NewUserLog(session),
		CategoryLog: NewCategoryLog(session),
		HourlyLog:   NewHourlyLog(session),
		Counters:    NewCounterStore(session),
	}
}

// translateErr maps driver errors onto the storage taxonomy.
func translateErr(op string, err error) error {
	if err == nil {
		return nil
	}
	if isUnavailable(err) {
		return fmt.Errorf("%s: %w", op, storage.ErrUnavailable)
	}
	return fmt.Errorf("%s: %w", op, err)
}

// isUnavailable reports whether the error means the connection is down, as
// opposed to the statement being bad.
func isUnavailable(err error) bool {
	if errors.Is(err, gocql.ErrNoConnections) ||
		errors.Is(err, gocql.ErrConnectionClosed) ||
		errors.Is(err, gocql.ErrSessionClosed) ||
		errors.Is(err, gocql.ErrTimeoutNoResponse) {
		return true
	}
	var unavailable *gocql.RequestErrUnavailable
	return errors.As(err, &unavailable)
}
