package model

import (
    "encoding/json"
    "fmt"
    "strconv"
    "strings"
)

// Cents is an amount of money in minor units.  Prices are stored and
// multiplied as integers so totals never drift; they are rendered with
// exactly two decimals ("12.50").
type Cents int64

// Times returns c multiplied by n.
func (c Cents) Times(n int) Cents { return c * Cents(n) }

// String formats the amount with two decimals.
func (c Cents) String() string {
    sign := ""
    v := int64(c)
    if v < 0 {
        sign = "-"
        v = -v
    }
    return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// MarshalJSON encodes the amount as a decimal string.
func (c Cents) MarshalJSON() ([]byte, error) {
    return json.Marshal(c.String())
}

// UnmarshalJSON accepts the decimal string form as well as a bare number.
func (c *Cents) UnmarshalJSON(b []byte) error {
    var s string
    if err := json.Unmarshal(b, &s); err != nil {
        s = string(b)
    }
    v, err := ParseCents(s)
    if err != nil {
        return err
    }
    *c = v
    return nil
}

// ParseCents parses "12.5", "12.50" or "12" into cents.  More than two
// fractional digits is an error.
func ParseCents(s string) (Cents, error) {
    s = strings.TrimSpace(s)
    neg := strings.HasPrefix(s, "-")
    s = strings.TrimPrefix(s, "-")
    whole, frac, _ := strings.Cut(s, ".")
    if whole == "" || len(frac) > 2 || !allDigits(whole) || !allDigits(frac) {
        return 0, fmt.Errorf("invalid amount %q", s)
    }
    for len(frac) < 2 {
        frac += "0"
    }
    w, err := strconv.ParseInt(whole, 10, 64)
    if err != nil {
        return 0, fmt.Errorf("invalid amount %q: %w", s, err)
    }
    f, err := strconv.ParseInt(frac, 10, 64)
    if err != nil {
        return 0, fmt.Errorf("invalid amount %q: %w", s, err)
    }
    v := Cents(w*100 + f)
    if neg {
        v = -v
    }
    return v, nil
}

func allDigits(s string) bool {
    for i := 0; i < len(s); i++ {
        if s[i] < '0' || s[i] > '9' {
            return false
        }
    }
    return true
}
