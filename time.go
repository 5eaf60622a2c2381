package ledger

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/tokenvault/ledger/errors"
)

// UnixTime is a block time in whole seconds since the epoch. Offer
// expirations, reward accrual and unstake cooldowns are measured in it.
type UnixTime int64

// AsUnixTime truncates t to the second.
func AsUnixTime(t time.Time) UnixTime {
	return UnixTime(t.Unix())
}

// Time returns the UTC time.Time of the same second.
func (t UnixTime) Time() time.Time {
	return time.Unix(int64(t), 0).UTC()
}

// Since returns the number of seconds elapsed between earlier and t. Time
// never runs backwards on the ledger, so an earlier value after t gives 0.
func (t UnixTime) Since(earlier UnixTime) int64 {
	if earlier >= t {
		return 0
	}
	return int64(t - earlier)
}

// AddSeconds returns the time n seconds after t.
func (t UnixTime) AddSeconds(n int64) UnixTime {
	return t + UnixTime(n)
}

// UnmarshalJSON accepts seconds as a number, or an RFC 3339 string which is
// easier to write by hand in a genesis file or a transaction.
func (t *UnixTime) UnmarshalJSON(raw []byte) error {
	if string(raw) == "null" {
		return nil
	}
	var v UnixTime
	if n, err := strconv.ParseInt(string(raw), 10, 64); err == nil {
		v = UnixTime(n)
	} else {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "time must be a number or a string, got %s", raw)
		}
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return errors.Wrapf(errors.ErrInvalidInput, "time %q: %s", s, err)
		}
		v = AsUnixTime(parsed)
	}
	if err := v.Validate(); err != nil {
		return err
	}
	*t = v
	return nil
}

// Validate rejects times before the epoch.
func (t UnixTime) Validate() error {
	if t < 0 {
		return errors.Wrapf(errors.ErrInvalidInput, "%d is before the epoch", int64(t))
	}
	return nil
}

// String returns t in RFC 3339 format.
func (t UnixTime) String() string {
	return t.Time().Format(time.RFC3339)
}
