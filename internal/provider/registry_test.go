package provider

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"activity-recap/internal/activity"
)

type stubProvider struct{ name string }

func (s *stubProvider) FetchActivities(context.Context, Credentials, activity.Window) ([]activity.Record, error) {
	return nil, nil
}
func (s *stubProvider) GenerateAuthURL(redirectURI, state string) string { return s.name }
func (s *stubProvider) FetchProfile(context.Context, Credentials) (*activity.Profile, error) {
	return &activity.Profile{ID: s.name}, nil
}
func (s *stubProvider) RevokeAccess(context.Context, Credentials) error { return nil }

func TestParseID(t *testing.T) {
	tests := []struct {
		raw  string
		want ID
		ok   bool
	}{
		{"strava", Strava, true},
		{"STRAVA", Strava, true},
		{" Strava ", Strava, true},
		{"intervals", Intervals, true},
		{"Intervals.icu", Intervals, true},
		{"intervals-icu", Intervals, true},
		{"ICU", Intervals, true},
		{"garmin", "", false},
		{"", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			id, ok := ParseID(tt.raw)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, id)
		})
	}
}

func TestRegistryResolve(t *testing.T) {
	r := NewRegistry(Strava)
	r.Register(Strava, &stubProvider{name: "s"})
	r.Register(Intervals, &stubProvider{name: "i"})

	p, id, err := r.Resolve("icu")
	require.NoError(t, err)
	assert.Equal(t, Intervals, id)
	assert.Equal(t, "i", p.GenerateAuthURL("", ""))

	for _, raw := range []string{"", "garmin", "???"} {
		p, id, err := r.Resolve(raw)
		require.NoError(t, err, raw)
		assert.Equal(t, Strava, id)
		assert.Equal(t, "s", p.GenerateAuthURL("", ""))
	}

	assert.Equal(t, []ID{Intervals, Strava}, r.IDs())
	assert.Equal(t, Strava, r.Default())
}

func TestRegistryKnownButUnregistered(t *testing.T) {
	r := NewRegistry(Strava)
	r.Register(Strava, &stubProvider{name: "s"})

	_, id, err := r.Resolve("intervals")
	assert.ErrorIs(t, err, ErrNotRegistered)
	assert.Equal(t, Intervals, id)
}

func TestCredentialsValid(t *testing.T) {
	now := time.Unix(1_000_000, 0)
	past := now.Unix() - 1
	future := now.Unix() + 60
	exact := now.Unix()

	assert.True(t, Credentials{AccessToken: "t"}.Valid(now))
	assert.True(t, Credentials{AccessToken: "t", ExpiresAt: &future}.Valid(now))
	assert.False(t, Credentials{AccessToken: "t", ExpiresAt: &past}.Valid(now))
	assert.False(t, Credentials{AccessToken: "t", ExpiresAt: &exact}.Valid(now))
	assert.False(t, Credentials{AccessToken: "  "}.Valid(now))
	assert.False(t, Credentials{}.Valid(now))
}

func TestCredentialsAccount(t *testing.T) {
	alice := Credentials{AccessToken: "alice"}.Account()
	bob := Credentials{AccessToken: "bob"}.Account()

	assert.Len(t, alice, 16)
	assert.NotEqual(t, alice, bob)
	assert.Equal(t, alice, Credentials{AccessToken: " alice "}.Account())
	assert.Empty(t, Credentials{}.Account())
}
