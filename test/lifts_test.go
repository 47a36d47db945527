//go:build integration

package test

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/2beens/prtracker/internal/lifts/notifications"
	"github.com/2beens/prtracker/internal/lifts/profiles"
	"github.com/2beens/prtracker/internal/lifts/records"
	"github.com/2beens/prtracker/internal/lifts/stats"
	"github.com/2beens/prtracker/pkg"
)

func onboardingRequest(username string, bench, squat, deadlift float64) profiles.OnboardingRequest {
	return profiles.OnboardingRequest{
		Name:     gofakeit.FirstName(),
		Username: username,
		HeightCm: pkg.Ptr(180.0),
		WeightKg: pkg.Ptr(75.0),
		Birthday: "1990-05-17",
		Bench:    pkg.Ptr(bench),
		Squat:    pkg.Ptr(squat),
		Deadlift: pkg.Ptr(deadlift),
	}
}

func onboard(ctx context.Context, t *testing.T, u *user, bench, squat, deadlift float64) *profiles.Profile {
	t.Helper()
	return onboardAs(ctx, t, u, fmt.Sprintf("lifter%d", gofakeit.Number(100000, 999999)), bench, squat, deadlift)
}

func onboardAs(ctx context.Context, t *testing.T, u *user, username string, bench, squat, deadlift float64) *profiles.Profile {
	t.Helper()

	req := onboardingRequest(username, bench, squat, deadlift)
	resp := doRequest(ctx, t, http.MethodPost, "/profile/onboarding", u.Token, req)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var res profiles.Result
	decodeBody(t, resp, &res)
	require.NotNil(t, res.Profile)
	require.True(t, res.Profile.Onboarded)
	require.NotNil(t, res.Profile.Username)
	assert.Empty(t, res.Notices)

	return res.Profile
}

func (s *IntegrationTestSuite) TestOnboardingAndRecords() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := registerAndLogin(ctx, t)

	// not onboarded yet, no profile data
	resp := doRequest(ctx, t, http.MethodGet, "/profile", u.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var profile profiles.Profile
	decodeBody(t, resp, &profile)
	assert.False(t, profile.Onboarded)

	onboarded := onboard(ctx, t, u, 100, 120, 150)
	assert.Equal(t, 100.0, *onboarded.BenchPressPR)

	t.Run("onboarding twice", func(t *testing.T) {
		req := profiles.OnboardingRequest{
			Name:     "Again",
			Username: "again_user",
			HeightCm: pkg.Ptr(180.0),
			WeightKg: pkg.Ptr(80.0),
			Bench:    pkg.Ptr(1.0),
			Squat:    pkg.Ptr(1.0),
			Deadlift: pkg.Ptr(1.0),
		}
		resp := doRequest(ctx, t, http.MethodPost, "/profile/onboarding", u.Token, req)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("new record raises the current max", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/records", u.Token, records.Submission{
			Exercise: "bench",
			ValueKg:  pkg.Ptr(110.0),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var res records.SubmitResult
		decodeBody(t, resp, &res)
		assert.Equal(t, 110.0, res.Record.ValueKg)
		assert.Empty(t, res.Notices)

		resp = doRequest(ctx, t, http.MethodGet, "/profile", u.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var profile profiles.Profile
		decodeBody(t, resp, &profile)
		assert.Equal(t, 110.0, *profile.BenchPressPR)
	})

	t.Run("implausible record is clamped", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/records", u.Token, records.Submission{
			Exercise: "squat",
			ValueKg:  pkg.Ptr(10000.0),
		})
		require.Equal(t, http.StatusCreated, resp.StatusCode)
		var res records.SubmitResult
		decodeBody(t, resp, &res)
		assert.Less(t, res.Record.ValueKg, 10000.0)
		assert.NotEmpty(t, res.Notices)
	})

	t.Run("unknown exercise", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/records", u.Token, records.Submission{
			Exercise: "curl",
			ValueKg:  pkg.Ptr(40.0),
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("earliest record stays, later ones can go", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodGet, "/records?exercise=bench&order=asc", u.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var benchRecords []*records.PersonalRecord
		decodeBody(t, resp, &benchRecords)
		require.Len(t, benchRecords, 2)
		assert.Equal(t, 100.0, benchRecords[0].ValueKg)

		resp = doRequest(ctx, t, http.MethodDelete, fmt.Sprintf("/records/%d", benchRecords[0].ID), u.Token, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)

		resp = doRequest(ctx, t, http.MethodDelete, fmt.Sprintf("/records/%d", benchRecords[1].ID), u.Token, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		// max falls back to the remaining record
		resp = doRequest(ctx, t, http.MethodGet, "/profile", u.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var profile profiles.Profile
		decodeBody(t, resp, &profile)
		assert.Equal(t, 100.0, *profile.BenchPressPR)
	})

	t.Run("other users records are not found", func(t *testing.T) {
		other := registerAndLogin(ctx, t)
		onboard(ctx, t, other, 60, 80, 100)

		resp := doRequest(ctx, t, http.MethodGet, "/records?exercise=squat", u.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var squatRecords []*records.PersonalRecord
		decodeBody(t, resp, &squatRecords)
		require.NotEmpty(t, squatRecords)

		resp = doRequest(ctx, t, http.MethodDelete, fmt.Sprintf("/records/%d", squatRecords[0].ID), other.Token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestFriendsAndNotifications() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	alice := registerAndLogin(ctx, t)
	aliceProfile := onboard(ctx, t, alice, 100, 140, 180)
	bob := registerAndLogin(ctx, t)
	bobProfile := onboard(ctx, t, bob, 120, 160, 200)

	// bob listens for live notifications
	streamURL := url.URL{
		Scheme:   "ws",
		Host:     fmt.Sprintf("%s:%d", serverHost, serverPort),
		Path:     "/notifications/stream",
		RawQuery: url.Values{"token": []string{bob.Token}}.Encode(),
	}
	wsConn, wsResp, err := websocket.DefaultDialer.DialContext(ctx, streamURL.String(), http.Header{
		"User-Agent": []string{"test-agent"},
	})
	require.NoError(t, err)
	defer wsConn.Close()
	require.Equal(t, http.StatusSwitchingProtocols, wsResp.StatusCode)

	t.Run("self add is rejected", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/friends", alice.Token, map[string]string{
			"username": *aliceProfile.Username,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})

	t.Run("unknown username", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/friends", alice.Token, map[string]string{
			"username": "nobody_here",
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})

	resp := doRequest(ctx, t, http.MethodPost, "/friends", alice.Token, map[string]string{
		"username": *bobProfile.Username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var friend profiles.Profile
	decodeBody(t, resp, &friend)
	assert.Equal(t, bob.ID, friend.ID)
	assert.Contains(t, friend.Friends, alice.ID)

	t.Run("live notification is pushed", func(t *testing.T) {
		require.NoError(t, wsConn.SetReadDeadline(time.Now().Add(5*time.Second)))
		var view notifications.View
		require.NoError(t, wsConn.ReadJSON(&view))
		require.NotNil(t, view.Notification)
		assert.Equal(t, aliceProfile.Name+" added you as a friend", view.Text)
		assert.Equal(t, alice.ID, view.CreatorID)
		assert.True(t, view.Unread)
	})

	t.Run("friendship is symmetric", func(t *testing.T) {
		for _, tc := range []struct {
			u        *user
			expected string
		}{
			{u: alice, expected: bob.ID},
			{u: bob, expected: alice.ID},
		} {
			resp := doRequest(ctx, t, http.MethodGet, "/friends", tc.u.Token, nil)
			require.Equal(t, http.StatusOK, resp.StatusCode)
			var friends []*profiles.Profile
			decodeBody(t, resp, &friends)
			require.Len(t, friends, 1)
			assert.Equal(t, tc.expected, friends[0].ID)
		}
	})

	t.Run("adding again conflicts", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPost, "/friends", bob.Token, map[string]string{
			"username": *aliceProfile.Username,
		})
		defer resp.Body.Close()
		assert.Equal(t, http.StatusConflict, resp.StatusCode)
	})

	t.Run("notification read flow", func(t *testing.T) {
		assert.Equal(t, 1, unreadCount(ctx, t, bob))
		assert.Equal(t, 0, unreadCount(ctx, t, alice))

		resp := doRequest(ctx, t, http.MethodGet, "/notifications", bob.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var views []notifications.View
		decodeBody(t, resp, &views)
		require.Len(t, views, 1)
		assert.True(t, views[0].Unread)

		// not a recipient
		resp = doRequest(ctx, t, http.MethodPost, fmt.Sprintf("/notifications/%d/read", views[0].ID), alice.Token, nil)
		resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)

		for i := 0; i < 2; i++ {
			resp = doRequest(ctx, t, http.MethodPost, fmt.Sprintf("/notifications/%d/read", views[0].ID), bob.Token, nil)
			resp.Body.Close()
			require.Equal(t, http.StatusOK, resp.StatusCode)
		}
		assert.Equal(t, 0, unreadCount(ctx, t, bob))
	})

	t.Run("leaderboard covers friends", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodGet, "/stats/leaderboard?mode=bench", alice.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var leaderboard []stats.RankedParticipant
		decodeBody(t, resp, &leaderboard)
		require.Len(t, leaderboard, 2)
		assert.Equal(t, bob.ID, leaderboard[0].ID)
		assert.Equal(t, 1, leaderboard[0].Position)
		assert.Equal(t, 120.0, leaderboard[0].Score)
	})

	t.Run("remove friend", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodDelete, "/friends/"+bob.ID, alice.Token, nil)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(ctx, t, http.MethodGet, "/friends", bob.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var friends []*profiles.Profile
		decodeBody(t, resp, &friends)
		assert.Empty(t, friends)

		resp = doRequest(ctx, t, http.MethodDelete, "/friends/"+bob.ID, alice.Token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	})
}

func (s *IntegrationTestSuite) TestUsernamesIgnoreCase() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	suffix := gofakeit.Number(100000, 999999)
	upper := registerAndLogin(ctx, t)
	onboardAs(ctx, t, upper, fmt.Sprintf("Bob%d", suffix), 100, 140, 180)

	lower := registerAndLogin(ctx, t)
	resp := doRequest(ctx, t, http.MethodPost, "/profile/onboarding", lower.Token,
		onboardingRequest(fmt.Sprintf("bob%d", suffix), 90, 120, 150))
	resp.Body.Close()
	require.Equal(t, http.StatusConflict, resp.StatusCode)

	onboard(ctx, t, lower, 90, 120, 150)

	// any casing finds the one profile holding the name
	resp = doRequest(ctx, t, http.MethodPost, "/friends", lower.Token, map[string]string{
		"username": fmt.Sprintf("BOB%d", suffix),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var friend profiles.Profile
	decodeBody(t, resp, &friend)
	assert.Equal(t, upper.ID, friend.ID)

	// and the owner can't be confused with someone else
	resp = doRequest(ctx, t, http.MethodPost, "/friends", upper.Token, map[string]string{
		"username": fmt.Sprintf("bob%d", suffix),
	})
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func unreadCount(ctx context.Context, t *testing.T, u *user) int {
	t.Helper()

	resp := doRequest(ctx, t, http.MethodGet, "/notifications/unread/count", u.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var count struct {
		Count int `json:"count"`
	}
	decodeBody(t, resp, &count)
	return count.Count
}

func (s *IntegrationTestSuite) TestHomeDashboard() {
	t := s.T()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	u := registerAndLogin(ctx, t)
	onboard(ctx, t, u, 80, 100, 120)

	resp := doRequest(ctx, t, http.MethodPost, "/records", u.Token, records.Submission{
		Exercise: "deadlift",
		ValueKg:  pkg.Ptr(150.0),
	})
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = doRequest(ctx, t, http.MethodGet, "/stats/home", u.Token, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var home stats.Home
	decodeBody(t, resp, &home)

	assert.Empty(t, home.Errors)
	assert.Equal(t, stats.ModeTotal, home.Mode)
	require.NotNil(t, home.BMI)
	assert.Equal(t, stats.BMINormal, home.BMIClass)

	deadlift := home.Lifts[records.Deadlift]
	require.NotNil(t, deadlift)
	assert.Equal(t, 150.0, *deadlift.Current)
	assert.Equal(t, 120.0, *deadlift.Initial)
	assert.Equal(t, 25.0, *deadlift.PercentIncrease)
	assert.Nil(t, deadlift.GlobalAverage)
	assert.Nil(t, home.GlobalAverages)

	require.Len(t, home.Leaderboard, 1)
	assert.Equal(t, 80.0+100.0+150.0, home.Leaderboard[0].Score)

	t.Run("comparison shown once enabled", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodPut, "/profile", u.Token, profiles.UpdateRequest{
			ThiefOfJoy: pkg.Ptr(true),
		})
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)

		resp = doRequest(ctx, t, http.MethodGet, "/stats/progress/deadlift", u.Token, nil)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var progress stats.Progress
		decodeBody(t, resp, &progress)
		require.Len(t, progress.Series, 2)
		assert.Equal(t, 25.0, *progress.PercentIncrease)
		require.NotEmpty(t, progress.ReferenceLines)
		assert.Equal(t, stats.ReferenceGlobal, progress.ReferenceLines[0].Name)
	})

	t.Run("bad mode", func(t *testing.T) {
		resp := doRequest(ctx, t, http.MethodGet, "/stats/home?mode=curls", u.Token, nil)
		defer resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	})
}
