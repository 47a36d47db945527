package stats

import (
	"sort"
	"strings"

	"github.com/2beens/prtracker/internal/errvalues"
)

type Mode string

const (
	ModeTotal    Mode = "total"
	ModeBench    Mode = "bench"
	ModeSquat    Mode = "squat"
	ModeDeadlift Mode = "deadlift"
)

// ParseMode defaults to the total of all three lifts.
func ParseMode(s string) (Mode, error) {
	switch mode := Mode(strings.ToLower(strings.TrimSpace(s))); mode {
	case "":
		return ModeTotal, nil
	case ModeTotal, ModeBench, ModeSquat, ModeDeadlift:
		return mode, nil
	default:
		return "", errvalues.NewValidationError("mode", "must be one of total, bench, squat, deadlift")
	}
}

// Participant is a leaderboard entry. Missing lifts count as 0.
type Participant struct {
	ID          string   `json:"id"`
	DisplayName string   `json:"displayName"`
	Bench       *float64 `json:"bench"`
	Squat       *float64 `json:"squat"`
	Deadlift    *float64 `json:"deadlift"`
}

func (p Participant) Score(mode Mode) float64 {
	switch mode {
	case ModeBench:
		return valueOrZero(p.Bench)
	case ModeSquat:
		return valueOrZero(p.Squat)
	case ModeDeadlift:
		return valueOrZero(p.Deadlift)
	default:
		return valueOrZero(p.Bench) + valueOrZero(p.Squat) + valueOrZero(p.Deadlift)
	}
}

type RankedParticipant struct {
	Participant
	Score    float64 `json:"score"`
	Position int     `json:"position"`
}

// Rank orders participants by score, highest first. Equal scores keep their input order.
func Rank(participants []Participant, mode Mode) []RankedParticipant {
	ranked := make([]RankedParticipant, 0, len(participants))
	for _, p := range participants {
		ranked = append(ranked, RankedParticipant{
			Participant: p,
			Score:       p.Score(mode),
		})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	for i := range ranked {
		ranked[i].Position = i + 1
	}
	return ranked
}

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}
