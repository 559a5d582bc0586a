package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/asthmaguardian/asthmaguardian/internal/airquality"
	"github.com/asthmaguardian/asthmaguardian/internal/store"
)

func newReading(postcode string, recordedAt time.Time, aqi int) *airquality.Reading {
	return &airquality.Reading{
		Postcode:   postcode,
		RecordedAt: recordedAt,
		AQI:        aqi,
		Rating:     airquality.RatingForAQI(aqi),
		Source:     "nsw_government",
		ExpiresAt:  recordedAt.Add(airquality.RetentionWindow),
	}
}

func TestMemory_PutAndLatest(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, newReading("2000", base, 40)))
	require.NoError(t, s.Put(ctx, newReading("2000", base.Add(time.Hour), 55)))
	require.NoError(t, s.Put(ctx, newReading("2500", base, 30)))

	latest, err := s.Latest(ctx, "2000")
	require.NoError(t, err)
	assert.Equal(t, 55, latest.AQI)
	assert.Equal(t, base.Add(time.Hour), latest.RecordedAt)
}

func TestMemory_Latest_NotFound(t *testing.T) {
	s := store.NewMemory()

	_, err := s.Latest(context.Background(), "2000")
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestMemory_Put_UpsertLastWriteWins(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	at := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, newReading("2000", at, 40)))
	require.NoError(t, s.Put(ctx, newReading("2000", at, 90)))

	// Same (postcode, timestamp) key: second write replaces, no new row.
	assert.Equal(t, 1, s.Len())
	latest, err := s.Latest(ctx, "2000")
	require.NoError(t, err)
	assert.Equal(t, 90, latest.AQI)
}

func TestMemory_Put_DistinctTimestampsAccumulate(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC)

	// Identical content under different ingestion timestamps stays two
	// rows: the store does not deduplicate by content.
	require.NoError(t, s.Put(ctx, newReading("2000", base, 40)))
	require.NoError(t, s.Put(ctx, newReading("2000", base.Add(time.Minute), 40)))

	assert.Equal(t, 2, s.Len())
}

func TestMemory_Range(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2026, 3, 14, 0, 0, 0, 0, time.UTC)

	for hour := 0; hour < 6; hour++ {
		require.NoError(t, s.Put(ctx, newReading("2000", base.Add(time.Duration(hour)*time.Hour), 40+hour)))
	}
	require.NoError(t, s.Put(ctx, newReading("2500", base.Add(time.Hour), 10)))

	readings, err := s.Range(ctx, "2000", base.Add(time.Hour), base.Add(3*time.Hour))
	require.NoError(t, err)
	require.Len(t, readings, 3)

	// Ascending by timestamp, bounds inclusive, other postcodes excluded.
	for i, r := range readings {
		assert.Equal(t, "2000", r.Postcode)
		assert.Equal(t, base.Add(time.Duration(i+1)*time.Hour), r.RecordedAt)
	}
}

func TestMemory_ListForDay(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	day := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

	require.NoError(t, s.Put(ctx, newReading("2500", day, 20)))
	require.NoError(t, s.Put(ctx, newReading("2000", day.Add(time.Hour), 30)))
	require.NoError(t, s.Put(ctx, newReading("2000", day.AddDate(0, 0, 1), 50)))

	readings, err := s.ListForDay(ctx, "2026-03-14")
	require.NoError(t, err)
	require.Len(t, readings, 2)

	// Ordered by postcode, next day excluded.
	assert.Equal(t, "2000", readings[0].Postcode)
	assert.Equal(t, "2500", readings[1].Postcode)
}

func TestMemory_PurgeExpired(t *testing.T) {
	ctx := context.Background()
	s := store.NewMemory()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	old := newReading("2000", base, 40)
	fresh := newReading("2000", base.AddDate(0, 0, 6), 40)
	require.NoError(t, s.Put(ctx, old))
	require.NoError(t, s.Put(ctx, fresh))

	// Eight days on: the first reading is past its 7-day deadline.
	purged, err := s.PurgeExpired(ctx, base.AddDate(0, 0, 8))
	require.NoError(t, err)
	assert.Equal(t, int64(1), purged)
	assert.Equal(t, 1, s.Len())

	latest, err := s.Latest(ctx, "2000")
	require.NoError(t, err)
	assert.Equal(t, fresh.RecordedAt, latest.RecordedAt)
}

func TestCleaner_SweepsOnInterval(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	s := store.NewMemory()
	expired := newReading("2000", time.Now().Add(-8*24*time.Hour), 40)
	expired.ExpiresAt = time.Now().Add(-24 * time.Hour)
	require.NoError(t, s.Put(ctx, expired))

	cleaner := store.NewCleaner(s, 10*time.Millisecond, zerolog.Nop())
	go cleaner.Run(ctx)

	assert.Eventually(t, func() bool { return s.Len() == 0 },
		time.Second, 5*time.Millisecond)
}
