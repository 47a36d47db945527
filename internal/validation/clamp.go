package validation

import (
	"fmt"
	"math"
	"time"

	"github.com/2beens/prtracker/pkg"
)

// Bound is an inclusive plausibility range for a numeric input.
type Bound struct {
	Field string
	Min   float64
	Max   float64
}

var (
	BenchPressBound = Bound{Field: "bench_press_pr", Min: 0, Max: 450}
	SquatBound      = Bound{Field: "squat_pr", Min: 0, Max: 505}
	DeadliftBound   = Bound{Field: "deadlift_pr", Min: 0, Max: 501}
	HeightBound     = Bound{Field: "height_cm", Min: 0, Max: 240}
	WeightBound     = Bound{Field: "weight_kg", Min: 0, Max: 500}
)

// Notice tells the user that an input was adjusted before being stored.
type Notice struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Clamp pins v into the bound. A notice is returned only when v was changed.
func (b Bound) Clamp(v float64) (float64, *Notice) {
	switch {
	case math.IsNaN(v):
		return b.Min, &Notice{Field: b.Field, Message: fmt.Sprintf("invalid value, set to %s", formatKg(b.Min))}
	case v > b.Max:
		return b.Max, &Notice{Field: b.Field, Message: fmt.Sprintf("%s exceeds the maximum, set to %s", formatKg(v), formatKg(b.Max))}
	case v < b.Min:
		return b.Min, &Notice{Field: b.Field, Message: fmt.Sprintf("%s is below the minimum, set to %s", formatKg(v), formatKg(b.Min))}
	default:
		return v, nil
	}
}

// ClampPtr clamps an optional value; nil stays nil.
func (b Bound) ClampPtr(v *float64) (*float64, *Notice) {
	if v == nil {
		return nil, nil
	}
	clamped, notice := b.Clamp(*v)
	return &clamped, notice
}

// ClampDate turns a future date into today. now is the reference clock.
func ClampDate(field string, d time.Time, now time.Time) (time.Time, *Notice) {
	d = pkg.DateOnly(d)
	today := pkg.DateOnly(now)
	if d.After(today) {
		return today, &Notice{
			Field:   field,
			Message: fmt.Sprintf("date %s is in the future, set to %s", d.Format(pkg.DateLayout), today.Format(pkg.DateLayout)),
		}
	}
	return d, nil
}

// Notices collects the non-nil notices.
func Notices(notices ...*Notice) []Notice {
	res := make([]Notice, 0, len(notices))
	for _, n := range notices {
		if n != nil {
			res = append(res, *n)
		}
	}
	return res
}

func formatKg(v float64) string {
	return fmt.Sprintf("%g", v)
}
