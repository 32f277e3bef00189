package reaper

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
	"github.com/iliyamo/cinema-seat-booking/internal/repository"
	"github.com/iliyamo/cinema-seat-booking/internal/repository/memstore"
)

type countingSweeper struct {
	mu    sync.Mutex
	calls int
	fail  int
	swept chan struct{}
}

func (c *countingSweeper) DeleteExpiredHolds(context.Context, time.Time) (int64, error) {
	c.mu.Lock()
	c.calls++
	failing := c.calls <= c.fail
	c.mu.Unlock()
	select {
	case c.swept <- struct{}{}:
	default:
	}
	if failing {
		return 0, errors.New("store unavailable")
	}
	return 0, nil
}

func TestSweepRemovesOnlyExpiredHolds(t *testing.T) {
	store := memstore.New()
	seat := store.AddSeat(model.Seat{TheaterID: 1, RowLabel: "A", SeatNumber: 1})
	other := store.AddSeat(model.Seat{TheaterID: 1, RowLabel: "A", SeatNumber: 2})
	base := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
	st := store.AddShowtime(model.Showtime{TheaterID: 1, StartsAt: base.Add(time.Hour)})

	err := store.InTx(context.Background(), func(tx repository.Tx) error {
		if err := tx.InsertHolds(context.Background(), repository.GenerateHolds(1, st.ID, []uint64{seat.ID}, base, base.Add(10*time.Minute))); err != nil {
			return err
		}
		return tx.InsertHolds(context.Background(), repository.GenerateHolds(2, st.ID, []uint64{other.ID}, base, base.Add(20*time.Minute)))
	})
	require.NoError(t, err)

	r := New(store, time.Minute)
	r.now = func() time.Time { return base.Add(10 * time.Minute) }

	n, err := r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(1), n, "a hold expiring exactly now is removed")

	n, err = r.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(0), n, "sweeping is idempotent")

	holds := store.Holds()
	require.Len(t, holds, 1)
	assert.Equal(t, other.ID, holds[0].SeatID)
}

func TestStartSweepsOnIntervalAndSurvivesErrors(t *testing.T) {
	sw := &countingSweeper{fail: 2, swept: make(chan struct{}, 1)}
	r := New(sw, 5*time.Millisecond)
	r.Start(context.Background())
	r.Start(context.Background()) // second start is a no-op

	for i := 0; i < 4; i++ {
		select {
		case <-sw.swept:
		case <-time.After(2 * time.Second):
			t.Fatalf("sweep %d did not happen", i+1)
		}
	}
	r.Stop()
	r.Stop()

	sw.mu.Lock()
	calls := sw.calls
	sw.mu.Unlock()
	assert.GreaterOrEqual(t, calls, 4)

	time.Sleep(20 * time.Millisecond)
	sw.mu.Lock()
	assert.Equal(t, calls, sw.calls, "no sweeps after Stop")
	sw.mu.Unlock()
}

func TestStopOnContextCancel(t *testing.T) {
	sw := &countingSweeper{swept: make(chan struct{}, 1)}
	r := New(sw, time.Hour)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	select {
	case <-sw.swept:
	case <-time.After(2 * time.Second):
		t.Fatal("initial sweep did not happen")
	}
	cancel()
	r.Stop()
	assert.Equal(t, time.Hour, r.Interval())
}

func TestDefaultInterval(t *testing.T) {
	assert.Equal(t, DefaultInterval, New(&countingSweeper{}, 0).Interval())
}
