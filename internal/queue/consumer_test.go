package queue

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/cinema-seat-booking/internal/model"
)

func sampleEvent(eventType string) BookingEvent {
	start := time.Date(2026, 6, 1, 20, 0, 0, 0, time.UTC)
	res := model.Reservation{
		ID:              42,
		UserID:          5,
		ShowtimeID:      7,
		Status:          model.ReservationConfirmed,
		TotalPriceCents: 2500,
		Seats: []model.Seat{
			{ID: 10, RowLabel: "A", SeatNumber: 1},
			{ID: 11, RowLabel: "A", SeatNumber: 2},
		},
	}
	return NewBookingEvent(eventType, res, model.Showtime{ID: 7, StartsAt: start}, start.Add(-time.Hour))
}

func TestNewBookingEvent(t *testing.T) {
	ev := sampleEvent(ReservationConfirmedQueue)
	assert.NotEmpty(t, ev.EventID)
	assert.Equal(t, []uint64{10, 11}, ev.SeatIDs)
	assert.Equal(t, []string{"A1", "A2"}, ev.SeatLabels)
	assert.Equal(t, "2026-06-01T20:00:00Z", ev.StartsAt)

	body, err := json.Marshal(ev)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"total_price":"25.00"`)
}

func TestHandleMessageAppendsLines(t *testing.T) {
	dir := t.TempDir()
	c := NewConsumer("", filepath.Join(dir, "logs"))

	for _, typ := range []string{ReservationConfirmedQueue, ReservationCancelledQueue} {
		body, err := json.Marshal(sampleEvent(typ))
		require.NoError(t, err)
		require.NoError(t, c.handleMessage(body))
	}

	data, err := os.ReadFile(filepath.Join(dir, "logs", "booking.log"))
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "Reservation confirmed | reservation_id=42")
	assert.Contains(t, lines[0], "total=25.00 | seats=[A1,A2]")
	assert.Contains(t, lines[1], "Reservation cancelled")
}

func TestHandleMessageRejectsGarbage(t *testing.T) {
	c := NewConsumer("", t.TempDir())
	assert.Error(t, c.handleMessage([]byte("not json")))
	assert.Error(t, c.handleMessage([]byte(`{"type":"reservation.confirmed"}`)))
}
