package cassandra

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"payment-stream-lab/internal/domain"
	"payment-stream-lab/internal/storage"
)

func testEvent(ts time.Time) *domain.TransactionEvent {
	return &domain.TransactionEvent{
		ID:            uuid.New(),
		UserID:        "User_1",
		Time:          ts,
		AmountMinor:   1050,
		Category:      "grocery_pos",
		Merchant:      "Acme",
		PaymentMethod: "credit_card",
		HourBucket:    domain.HourBucket(ts),
	}
}

func TestCassandraDestinations(t *testing.T) {
	session, cleanup := setupTestSession(t)
	defer cleanup()

	ctx := context.Background()
	dest := Destinations(session)
	base := time.Now().UTC().Truncate(time.Millisecond)

	t.Run("user log recent first", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			require.NoError(t, dest.UserLog.Insert(ctx, testEvent(base.Add(time.Duration(i)*time.Second))))
		}

		rows, err := dest.UserLog.RecentByUser(ctx, "User_1", 2)
		require.NoError(t, err)
		require.Len(t, rows, 2)
		require.True(t, rows[0].Time.After(rows[1].Time), "rows should be newest first")
		require.Equal(t, int64(1050), rows[0].AmountMinor)
	})

	t.Run("category log partition", func(t *testing.T) {
		e := testEvent(base)
		e.Category = "gas_transport"
		require.NoError(t, dest.CategoryLog.Insert(ctx, e))

		rows, err := dest.CategoryLog.RecentByUserCategory(ctx, "User_1", "gas_transport", 10)
		require.NoError(t, err)
		require.Len(t, rows, 1)
		require.Equal(t, e.ID, rows[0].ID)
	})

	t.Run("hourly log retention", func(t *testing.T) {
		e := testEvent(base)
		require.NoError(t, dest.HourlyLog.Insert(ctx, e, 2*time.Second))

		rows, err := dest.HourlyLog.RecentByBucket(ctx, e.HourBucket, 10)
		require.NoError(t, err)
		require.NotEmpty(t, rows)

		time.Sleep(3 * time.Second)
		rows, err = dest.HourlyLog.RecentByBucket(ctx, e.HourBucket, 100)
		require.NoError(t, err)
		for _, row := range rows {
			require.NotEqual(t, e.ID, row.ID, "row should have expired")
		}
	})

	t.Run("counters accumulate exactly", func(t *testing.T) {
		key := domain.CounterKey{Primary: "online"}
		require.NoError(t, dest.Counters.Add(ctx, domain.CounterPaymentMethodStats, key, 1000))
		require.NoError(t, dest.Counters.Add(ctx, domain.CounterPaymentMethodStats, key, 500))

		row, err := dest.Counters.Get(ctx, domain.CounterPaymentMethodStats, key)
		require.NoError(t, err)
		require.Equal(t, int64(1500), row.TotalAmountMinor)
		require.Equal(t, int64(2), row.TransactionCount)
	})

	t.Run("two part counter key", func(t *testing.T) {
		key := domain.CounterKey{Primary: "User_1", Secondary: "travel"}
		require.NoError(t, dest.Counters.Add(ctx, domain.CounterSpendingByUserCategory, key, 250))

		row, err := dest.Counters.Get(ctx, domain.CounterSpendingByUserCategory, key)
		require.NoError(t, err)
		require.Equal(t, int64(250), row.TotalAmountMinor)
	})

	t.Run("counter not found", func(t *testing.T) {
		_, err := dest.Counters.Get(ctx, domain.CounterMerchantStatistics, domain.CounterKey{Primary: "nobody"})
		require.ErrorIs(t, err, storage.ErrNotFound)
	})

	t.Run("malformed event rejected", func(t *testing.T) {
		e := testEvent(base)
		e.Merchant = ""
		err := dest.UserLog.Insert(ctx, e)
		require.True(t, errors.Is(err, storage.ErrWriteRejected))
	})
}
