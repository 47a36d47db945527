package stats

import (
	"math"
	"time"

	"github.com/2beens/prtracker/internal/lifts/records"
)

const (
	ReferenceGlobal  = "global"
	ReferenceFriends = "friends"
)

type Point struct {
	Date    time.Time `json:"date"`
	ValueKg float64   `json:"valueKg"`
}

// ReferenceLine is a flat line at Value, with one point per series date.
type ReferenceLine struct {
	Name   string  `json:"name"`
	Value  float64 `json:"value"`
	Points []Point `json:"points"`
}

type ProgressInput struct {
	// History is expected in ascending date order.
	History        []Point
	Current        *float64
	GlobalAverage  *float64
	FriendAverage  *float64
	ShowComparison bool
}

type Progress struct {
	Initial         *float64        `json:"initial"`
	PercentIncrease *float64        `json:"percentIncrease"`
	Series          []Point         `json:"series"`
	ReferenceLines  []ReferenceLine `json:"referenceLines"`
}

// Initial returns the first value of the history, nil when there is none.
func Initial(history []Point) *float64 {
	if len(history) == 0 {
		return nil
	}
	v := history[0].ValueKg
	return &v
}

// PercentIncrease is the improvement over initial in percent, rounded to one
// decimal. It is nil when initial is missing or zero.
func PercentIncrease(current float64, initial *float64) *float64 {
	if initial == nil || *initial == 0 {
		return nil
	}
	increase := math.Round((current-*initial) / *initial * 100 * 10) / 10
	if math.IsNaN(increase) || math.IsInf(increase, 0) {
		return nil
	}
	return &increase
}

func BuildProgress(in ProgressInput) Progress {
	progress := Progress{
		Initial:        Initial(in.History),
		Series:         make([]Point, len(in.History)),
		ReferenceLines: []ReferenceLine{},
	}
	copy(progress.Series, in.History)

	if in.Current != nil {
		progress.PercentIncrease = PercentIncrease(*in.Current, progress.Initial)
	}

	if !in.ShowComparison {
		return progress
	}
	if line, ok := referenceLine(ReferenceGlobal, in.GlobalAverage, in.History); ok {
		progress.ReferenceLines = append(progress.ReferenceLines, line)
	}
	if line, ok := referenceLine(ReferenceFriends, in.FriendAverage, in.History); ok {
		progress.ReferenceLines = append(progress.ReferenceLines, line)
	}

	return progress
}

func referenceLine(name string, value *float64, series []Point) (ReferenceLine, bool) {
	if value == nil || math.IsNaN(*value) || math.IsInf(*value, 0) {
		return ReferenceLine{}, false
	}

	points := make([]Point, len(series))
	for i, p := range series {
		points[i] = Point{Date: p.Date, ValueKg: *value}
	}
	return ReferenceLine{Name: name, Value: *value, Points: points}, true
}

// InitialValues returns the earliest recorded value per exercise. Ties on date
// go to the lowest record id.
func InitialValues(recs []*records.PersonalRecord) map[records.Exercise]float64 {
	earliest := make(map[records.Exercise]*records.PersonalRecord)
	for _, r := range recs {
		current, ok := earliest[r.Exercise]
		if !ok || r.Date.Before(current.Date) || (r.Date.Equal(current.Date) && r.ID < current.ID) {
			earliest[r.Exercise] = r
		}
	}

	initials := make(map[records.Exercise]float64, len(earliest))
	for exercise, r := range earliest {
		initials[exercise] = r.ValueKg
	}
	return initials
}

// History converts records of one exercise into chart points, keeping their order.
func History(recs []*records.PersonalRecord) []Point {
	points := make([]Point, 0, len(recs))
	for _, r := range recs {
		points = append(points, Point{Date: r.Date, ValueKg: r.ValueKg})
	}
	return points
}

// Average returns the mean of the defined values, nil when there are none.
func Average(values []*float64) *float64 {
	var sum float64
	var n int
	for _, v := range values {
		if v == nil {
			continue
		}
		sum += *v
		n++
	}
	if n == 0 {
		return nil
	}
	avg := sum / float64(n)
	return &avg
}
