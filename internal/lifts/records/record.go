package records

import (
	"fmt"
	"strings"
	"time"

	"github.com/2beens/prtracker/internal/errvalues"
	"github.com/2beens/prtracker/internal/validation"
)

type Exercise string

const (
	Bench    Exercise = "bench"
	Squat    Exercise = "squat"
	Deadlift Exercise = "deadlift"
)

// Exercises lists all tracked lifts, in display order.
var Exercises = []Exercise{Bench, Squat, Deadlift}

func ParseExercise(s string) (Exercise, error) {
	switch e := Exercise(strings.ToLower(strings.TrimSpace(s))); e {
	case Bench, Squat, Deadlift:
		return e, nil
	default:
		return "", errvalues.NewValidationError("exercise", fmt.Sprintf("unknown exercise [%s]", s))
	}
}

// Bound is the plausibility range for values of this exercise.
func (e Exercise) Bound() validation.Bound {
	switch e {
	case Squat:
		return validation.SquatBound
	case Deadlift:
		return validation.DeadliftBound
	default:
		return validation.BenchPressBound
	}
}

// CacheColumn is the profile column holding the current max for the exercise.
func (e Exercise) CacheColumn() string {
	switch e {
	case Squat:
		return "squat_pr"
	case Deadlift:
		return "deadlift_pr"
	default:
		return "bench_press_pr"
	}
}

type PersonalRecord struct {
	ID       int       `json:"id"`
	UserID   string    `json:"userId"`
	Exercise Exercise  `json:"exercise"`
	ValueKg  float64   `json:"valueKg"`
	Date     time.Time `json:"date"`
}

type Order string

const (
	OrderAsc  Order = "asc"
	OrderDesc Order = "desc"
)

// ParseOrder defaults to newest first.
func ParseOrder(s string) (Order, error) {
	switch Order(strings.ToLower(s)) {
	case "", OrderDesc:
		return OrderDesc, nil
	case OrderAsc:
		return OrderAsc, nil
	default:
		return "", errvalues.NewValidationError("order", "must be one of [asc desc]")
	}
}

type ListParams struct {
	UserID   string
	Exercise *Exercise
	Order    Order
}
