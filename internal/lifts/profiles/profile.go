package profiles

import (
	"time"

	"github.com/2beens/prtracker/internal/lifts/records"
)

type Profile struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Username     *string    `json:"username"`
	HeightCm     *float64   `json:"heightCm"`
	WeightKg     *float64   `json:"weightKg"`
	Birthday     *time.Time `json:"birthday"`
	BenchPressPR *float64   `json:"benchPressPr"`
	SquatPR      *float64   `json:"squatPr"`
	DeadliftPR   *float64   `json:"deadliftPr"`
	Onboarded    bool       `json:"onboarded"`
	ThiefOfJoy   bool       `json:"thiefofjoy"`
	ProfilePic   string     `json:"profilePic"`
	// ids of mutual friends, derived from the friendship edges
	Friends []string `json:"friends"`
}

// DisplayName prefers the real name over the username.
func (p *Profile) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if p.Username != nil {
		return *p.Username
	}
	return ""
}

// Current returns the cached current max for the exercise.
func (p *Profile) Current(exercise records.Exercise) *float64 {
	switch exercise {
	case records.Bench:
		return p.BenchPressPR
	case records.Squat:
		return p.SquatPR
	case records.Deadlift:
		return p.DeadliftPR
	default:
		return nil
	}
}

// Update is a partial profile; nil fields are left unchanged.
type Update struct {
	ID         string
	Name       *string
	Username   *string
	HeightCm   *float64
	WeightKg   *float64
	Birthday   *time.Time
	ThiefOfJoy *bool
	ProfilePic *string
}

// Onboarding holds the already validated first-run data.
type Onboarding struct {
	ID       string
	Name     string
	Username string
	HeightCm float64
	WeightKg float64
	Birthday *time.Time
	Bench    float64
	Squat    float64
	Deadlift float64
	Date     time.Time
}

type ListParams struct {
	IDs      []string
	Username *string
}

// Averages are the current max averages over all onboarded profiles.
type Averages struct {
	Bench    *float64 `json:"bench"`
	Squat    *float64 `json:"squat"`
	Deadlift *float64 `json:"deadlift"`
	Profiles int      `json:"profiles"`
}

func (a *Averages) For(exercise records.Exercise) *float64 {
	if a == nil {
		return nil
	}
	switch exercise {
	case records.Bench:
		return a.Bench
	case records.Squat:
		return a.Squat
	case records.Deadlift:
		return a.Deadlift
	default:
		return nil
	}
}
