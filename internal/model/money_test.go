package model

import (
    "encoding/json"
    "testing"
    "time"

    "github.com/stretchr/testify/assert"
    "github.com/stretchr/testify/require"
)

func TestCentsTimesIsExact(t *testing.T) {
    price, err := ParseCents("12.50")
    require.NoError(t, err)
    assert.Equal(t, "25.00", price.Times(2).String())

    // 0.10 * 3 drifts in binary floating point
    dime, err := ParseCents("0.1")
    require.NoError(t, err)
    assert.Equal(t, Cents(30), dime.Times(3))
}

func TestParseCents(t *testing.T) {
    cases := map[string]Cents{"12": 1200, "12.5": 1250, "0.05": 5, "-3.10": -310}
    for in, want := range cases {
        got, err := ParseCents(in)
        require.NoError(t, err, in)
        assert.Equal(t, want, got, in)
    }
    for _, bad := range []string{"", "1.234", "abc", ".5", "1.-5", "1.+5", "+1.50", "1.5x", "1 .50"} {
        _, err := ParseCents(bad)
        assert.Error(t, err, bad)
    }
}

func TestCentsMarshalJSON(t *testing.T) {
    b, err := json.Marshal(struct {
        Total Cents `json:"total"`
    }{Total: 2500})
    require.NoError(t, err)
    assert.JSONEq(t, `{"total":"25.00"}`, string(b))
}

func TestSeatLabelAndShowtimeStart(t *testing.T) {
    assert.Equal(t, "A12", Seat{RowLabel: "A", SeatNumber: 12}.Label())

    start := time.Date(2026, 3, 1, 20, 0, 0, 0, time.UTC)
    st := Showtime{StartsAt: start}
    assert.False(t, st.HasStarted(start.Add(-time.Second)))
    assert.True(t, st.HasStarted(start))
    assert.True(t, st.HasStarted(start.Add(time.Minute)))
}

func TestCentsUnmarshalJSON(t *testing.T) {
    var v struct {
        A Cents `json:"a"`
        B Cents `json:"b"`
    }
    require.NoError(t, json.Unmarshal([]byte(`{"a":"25.00","b":12.5}`), &v))
    assert.Equal(t, Cents(2500), v.A)
    assert.Equal(t, Cents(1250), v.B)
}
