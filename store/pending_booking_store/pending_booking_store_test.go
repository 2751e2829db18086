package pending_booking_store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "user@example.com", NormalizeEmail("User@Example.COM"))
	assert.Equal(t, "user@example.com", NormalizeEmail("  user@example.com\t"))
	assert.Equal(t, "", NormalizeEmail("   "))
}

func TestKey(t *testing.T) {
	tourID := uuid.MustParse("0190a1b2-0000-7000-8000-000000000001")

	t.Run("CaseVariantsCollapse", func(t *testing.T) {
		assert.Equal(t, Key("user@example.com", tourID), Key("USER@example.com", tourID))
	})

	t.Run("KeyIsTourScoped", func(t *testing.T) {
		otherTour := uuid.MustParse("0190a1b2-0000-7000-8000-000000000002")
		assert.NotEqual(t, Key("user@example.com", tourID), Key("user@example.com", otherTour))
	})

	t.Run("KeyCarriesPrefix", func(t *testing.T) {
		assert.Equal(t, "pendingBooking:user@example.com:"+tourID.String(), Key("user@example.com", tourID))
	})
}

func newTestStore(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewStore(client), mr
}

func setRecord(t *testing.T, mr *miniredis.Miniredis, email string, tourID uuid.UUID, rec Record) {
	t.Helper()
	payload, err := json.Marshal(rec)
	require.NoError(t, err)
	require.NoError(t, mr.Set(Key(email, tourID), string(payload)))
}

func TestStorePutGet(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)
	tourID := uuid.New()
	bookingID := uuid.New()

	t.Run("RoundTripUnderNormalizedKey", func(t *testing.T) {
		store.Put(ctx, "User@Example.COM", tourID, bookingID)

		rec := store.Get(ctx, "user@example.com", tourID)
		require.NotNil(t, rec)
		assert.Equal(t, bookingID, rec.BookingID)
		assert.Equal(t, tourID, rec.TourID)
		assert.NotZero(t, rec.TimestampCreated)
	})

	t.Run("PutSetsTTL", func(t *testing.T) {
		assert.Greater(t, mr.TTL(Key("user@example.com", tourID)), time.Duration(0))
	})

	t.Run("MissReturnsNil", func(t *testing.T) {
		assert.Nil(t, store.Get(ctx, "user@example.com", uuid.New()))
		assert.Nil(t, store.Get(ctx, "nobody@example.com", tourID))
	})

	t.Run("CorruptValueIsAMiss", func(t *testing.T) {
		badTour := uuid.New()
		require.NoError(t, mr.Set(Key("user@example.com", badTour), "not json"))
		assert.Nil(t, store.Get(ctx, "user@example.com", badTour))
	})
}

func TestStoreScanLatestUnpaid(t *testing.T) {
	ctx := context.Background()
	store, mr := newTestStore(t)

	older := uuid.New()
	newer := uuid.New()
	tourA := uuid.New()
	tourB := uuid.New()
	setRecord(t, mr, "user@example.com", tourA, Record{BookingID: older, TourID: tourA, TimestampCreated: 1000})
	setRecord(t, mr, "user@example.com", tourB, Record{BookingID: newer, TourID: tourB, TimestampCreated: 2000})

	t.Run("NewestTimestampWins", func(t *testing.T) {
		rec := store.ScanLatestUnpaid(ctx, "User@example.com")
		require.NotNil(t, rec)
		assert.Equal(t, newer, rec.BookingID)
	})

	t.Run("CorruptEntriesAreSkipped", func(t *testing.T) {
		tourC := uuid.New()
		require.NoError(t, mr.Set(Key("user@example.com", tourC), "{broken"))
		rec := store.ScanLatestUnpaid(ctx, "user@example.com")
		require.NotNil(t, rec)
		assert.Equal(t, newer, rec.BookingID)
	})

	t.Run("NoKeysMeansNil", func(t *testing.T) {
		assert.Nil(t, store.ScanLatestUnpaid(ctx, "nobody@example.com"))
	})
}

func TestStorePurgeUser(t *testing.T) {
	ctx := context.Background()
	store, _ := newTestStore(t)

	tourA := uuid.New()
	tourB := uuid.New()
	store.Put(ctx, "user@example.com", tourA, uuid.New())
	store.Put(ctx, "user@example.com", tourB, uuid.New())
	otherTour := uuid.New()
	otherBooking := uuid.New()
	store.Put(ctx, "other@example.com", otherTour, otherBooking)

	store.PurgeUser(ctx, "USER@example.com")

	assert.Nil(t, store.Get(ctx, "user@example.com", tourA))
	assert.Nil(t, store.Get(ctx, "user@example.com", tourB))
	assert.Nil(t, store.ScanLatestUnpaid(ctx, "user@example.com"))

	rec := store.Get(ctx, "other@example.com", otherTour)
	require.NotNil(t, rec)
	assert.Equal(t, otherBooking, rec.BookingID)

	// Purging an already-empty user is a no-op.
	store.PurgeUser(ctx, "user@example.com")
}
