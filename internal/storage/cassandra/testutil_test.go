package cassandra

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestSession starts a single-node Cassandra container, provisions the
// destination schema the way the external collaborator would, and returns a
// connected session. Returns a cleanup function to call when done.
func setupTestSession(t *testing.T) (*Session, func()) {
	t.Helper()

	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "cassandra:4.1",
		ExposedPorts: []string{"9042/tcp"},
		Env: map[string]string{
			"CASSANDRA_CLUSTER_NAME": "test",
			"JVM_OPTS":               "-Xms512m -Xmx512m",
		},
		WaitingFor: wait.ForAll(
			wait.ForListeningPort("9042/tcp"),
			wait.ForLog("Startup complete").WithStartupTimeout(3*time.Minute),
		),
	}
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err, "failed to start cassandra container")

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "9042")
	require.NoError(t, err)

	// Provision keyspace and tables before connecting with the keyspace set.
	admin, err := NewSession(Config{
		Hosts:   []string{host},
		Port:    port.Int(),
		Timeout: 30 * time.Second,
	})
	require.NoError(t, err, "failed to connect for provisioning")
	provisionTestSchema(t, admin)
	admin.Close()

	session, err := NewSession(Config{
		Hosts:    []string{host},
		Port:     port.Int(),
		Keyspace: "payment_analytics",
		Timeout:  30 * time.Second,
	})
	require.NoError(t, err, "failed to connect to test keyspace")

	cleanup := func() {
		session.Close()
		_ = container.Terminate(ctx)
	}
	return session, cleanup
}

// provisionTestSchema stands in for the external schema collaborator.
func provisionTestSchema(t *testing.T, s *Session) {
	t.Helper()

	statements := []string{
		`CREATE KEYSPACE IF NOT EXISTS payment_analytics
		 WITH replication = {'class': 'SimpleStrategy', 'replication_factor': 1}`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.transactions_by_user (
			user_id TEXT,
			transaction_time TIMESTAMP,
			transaction_id UUID,
			amount_minor BIGINT,
			category TEXT,
			merchant TEXT,
			payment_method TEXT,
			PRIMARY KEY ((user_id), transaction_time, transaction_id)
		) WITH CLUSTERING ORDER BY (transaction_time DESC, transaction_id ASC)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.transactions_by_category (
			user_id TEXT,
			category TEXT,
			transaction_time TIMESTAMP,
			transaction_id UUID,
			amount_minor BIGINT,
			merchant TEXT,
			PRIMARY KEY ((user_id, category), transaction_time, transaction_id)
		) WITH CLUSTERING ORDER BY (transaction_time DESC, transaction_id ASC)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.hourly_transactions (
			hour_bucket TEXT,
			transaction_time TIMESTAMP,
			transaction_id UUID,
			user_id TEXT,
			amount_minor BIGINT,
			category TEXT,
			PRIMARY KEY ((hour_bucket), transaction_time, transaction_id)
		) WITH CLUSTERING ORDER BY (transaction_time DESC, transaction_id ASC)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.spending_by_category (
			category TEXT PRIMARY KEY,
			total_amount COUNTER,
			transaction_count COUNTER
		)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.spending_by_user_category (
			user_id TEXT,
			category TEXT,
			total_amount COUNTER,
			transaction_count COUNTER,
			PRIMARY KEY ((user_id), category)
		)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.merchant_statistics (
			merchant TEXT PRIMARY KEY,
			total_amount COUNTER,
			transaction_count COUNTER
		)`,
		`CREATE TABLE IF NOT EXISTS payment_analytics.payment_method_stats (
			payment_method TEXT PRIMARY KEY,
			total_amount COUNTER,
			transaction_count COUNTER
		)`,
	}
	for _, stmt := range statements {
		require.NoError(t, s.Query(stmt).Exec(), "provision statement failed")
	}
}
