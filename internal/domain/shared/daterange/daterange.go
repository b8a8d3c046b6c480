package daterange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jinzhu/now"
)

// DateLayout is the wire format of stay dates.
const DateLayout = "2006-01-02"

const secondsPerDay = 24 * 60 * 60

var (
	ErrInvalidRange = errors.New("daterange: check-out must be after check-in")
	ErrInvalidDate  = errors.New("daterange: date must use YYYY-MM-DD")
)

// DateRange represents a half-open interval [CheckIn, CheckOut) of whole days in UTC.
type DateRange struct {
	CheckIn  time.Time
	CheckOut time.Time
}

// New truncates both bounds to the start of their UTC day and validates ordering.
func New(checkIn, checkOut time.Time) (DateRange, error) {
	dr := DateRange{CheckIn: Day(checkIn), CheckOut: Day(checkOut)}
	if err := dr.Validate(); err != nil {
		return DateRange{}, err
	}
	return dr, nil
}

// Parse builds a range from two YYYY-MM-DD strings.
func Parse(checkIn, checkOut string) (DateRange, error) {
	in, err := ParseDate(checkIn)
	if err != nil {
		return DateRange{}, err
	}
	out, err := ParseDate(checkOut)
	if err != nil {
		return DateRange{}, err
	}
	return New(in, out)
}

func ParseDate(value string) (time.Time, error) {
	t, err := time.ParseInLocation(DateLayout, strings.TrimSpace(value), time.UTC)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidDate, value)
	}
	return t, nil
}

// Day returns the beginning of t's calendar day in UTC.
func Day(t time.Time) time.Time {
	if t.IsZero() {
		return t
	}
	return now.With(t.UTC()).BeginningOfDay()
}

func (dr DateRange) Validate() error {
	if dr.CheckOut.IsZero() || dr.CheckIn.IsZero() {
		return ErrInvalidRange
	}
	if !dr.CheckOut.After(dr.CheckIn) {
		return ErrInvalidRange
	}
	return nil
}

// Nights counts calendar days between the bounds. Unix seconds keep the
// count exact for ranges longer than time.Duration can represent.
func (dr DateRange) Nights() int {
	return int((dr.CheckOut.Unix() - dr.CheckIn.Unix()) / secondsPerDay)
}

// Overlaps uses half-open semantics: a stay ending on the day another starts does not overlap.
func (dr DateRange) Overlaps(other DateRange) bool {
	return dr.CheckIn.Before(other.CheckOut) && other.CheckIn.Before(dr.CheckOut)
}

func (dr DateRange) ContainsDate(t time.Time) bool {
	t = t.UTC()
	return (t.Equal(dr.CheckIn) || t.After(dr.CheckIn)) && t.Before(dr.CheckOut)
}

func (dr DateRange) String() string {
	return dr.CheckIn.Format(DateLayout) + ".." + dr.CheckOut.Format(DateLayout)
}
