package queue

import (
    "context"
    "errors"
    "testing"
    "time"

    amqp "github.com/rabbitmq/amqp091-go"
    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestPublisherBacksOffAfterDialFailure(t *testing.T) {
    at := time.Date(2026, 4, 10, 18, 0, 0, 0, time.UTC)
    dials := 0
    p := NewPublisher("amqp://broker.invalid:5672/")
    p.now = func() time.Time { return at }
    p.dial = func(url string, timeout time.Duration) (*amqp.Connection, error) {
        dials++
        assert.Equal(t, p.DialTimeout, timeout)
        return nil, errors.New("connection refused")
    }
    ev := sampleEvent(ReservationConfirmedQueue)

    err := p.Publish(context.Background(), ev)
    require.Error(t, err)
    assert.Equal(t, 1, dials)

    err = p.Publish(context.Background(), ev)
    assert.ErrorIs(t, err, ErrBrokerUnavailable)
    assert.Equal(t, 1, dials, "no redial inside the retry window")

    at = at.Add(p.RetryAfter)
    err = p.Publish(context.Background(), ev)
    require.Error(t, err)
    assert.NotErrorIs(t, err, ErrBrokerUnavailable)
    assert.Equal(t, 2, dials)
}

func TestPublisherHonoursCancelledContext(t *testing.T) {
    p := NewPublisher("")
    p.dial = func(string, time.Duration) (*amqp.Connection, error) {
        t.Fatal("dial must not be attempted")
        return nil, nil
    }
    ctx, cancel := context.WithCancel(context.Background())
    cancel()
    assert.ErrorIs(t, p.Publish(ctx, sampleEvent(ReservationCancelledQueue)), context.Canceled)
    assert.NoError(t, p.Close())
}
