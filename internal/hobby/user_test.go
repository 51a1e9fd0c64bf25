package hobby

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userIDPattern = regexp.MustCompile(`^user_[0-9a-f]{8}-[0-9a-f]{4}-4[0-9a-f]{3}-[89ab][0-9a-f]{3}-[0-9a-f]{12}$`)

func TestNewUserID(t *testing.T) {
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		id := NewUserID()
		require.Regexp(t, userIDPattern, id)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestFormatTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	got := FormatTime(time.Date(2025, 3, 9, 14, 5, 6, 789000000, loc))
	assert.Equal(t, "2025-03-09T12:05:06.789Z", got)

	parsed, err := time.Parse(time.RFC3339Nano, got)
	require.NoError(t, err)
	assert.Equal(t, 12, parsed.Hour())
}

func TestNewUser(t *testing.T) {
	now := time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name      string
		prefs     Preferences
		wantPrefs Preferences
		wantCount int
	}{
		{
			name:      "defaults applied",
			prefs:     Preferences{},
			wantPrefs: Preferences{Interests: []string{}, TimeAvailable: "flexible", Budget: "medium", SkillLevel: "beginner"},
			wantCount: 0,
		},
		{
			name:      "caller values kept",
			prefs:     Preferences{Interests: []string{"Hiking", "Chess"}, TimeAvailable: "weekends", Budget: "low", SkillLevel: "advanced"},
			wantPrefs: Preferences{Interests: []string{"Hiking", "Chess"}, TimeAvailable: "weekends", Budget: "low", SkillLevel: "advanced"},
			wantCount: 2,
		},
		{
			name:      "duplicates still counted",
			prefs:     Preferences{Interests: []string{"Chess", "chess"}},
			wantPrefs: Preferences{Interests: []string{"Chess", "chess"}, TimeAvailable: "flexible", Budget: "medium", SkillLevel: "beginner"},
			wantCount: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			u := NewUser("a@b.com", "Ann", tt.prefs, now)
			assert.Regexp(t, userIDPattern, u.UserID)
			assert.Equal(t, "a@b.com", u.Email)
			assert.Equal(t, "Ann", u.Name)
			assert.Equal(t, "2025-01-02T03:04:05.000Z", u.CreatedAt)
			assert.Equal(t, u.CreatedAt, u.UpdatedAt)
			assert.Equal(t, tt.wantPrefs, u.Preferences)
			assert.Equal(t, tt.wantCount, u.HobbyCount)
			assert.True(t, u.IsActive)
		})
	}
}

func TestInterestEntries(t *testing.T) {
	u := NewUser("a@b.com", "Ann", Preferences{Interests: []string{"Hiking", "Chess", "HIKING"}}, time.Now())

	entries := u.InterestEntries()
	require.Len(t, entries, 2)
	assert.Equal(t, "hiking", entries[0].Interest)
	assert.Equal(t, "chess", entries[1].Interest)
	for _, e := range entries {
		assert.Equal(t, u.UserID, e.UserID)
		assert.Equal(t, "Ann", e.UserName)
		assert.Equal(t, "a@b.com", e.UserEmail)
		assert.Equal(t, u.CreatedAt, e.AddedAt)
	}
}

func TestInterestEntriesSkipsEmptyInterest(t *testing.T) {
	u := NewUser("a@b.com", "Ann", Preferences{Interests: []string{"", "Chess", ""}}, time.Now())

	entries := u.InterestEntries()
	require.Len(t, entries, 1)
	assert.Equal(t, "chess", entries[0].Interest)
}

func TestInterestEntriesEmpty(t *testing.T) {
	u := NewUser("a@b.com", "Ann", Preferences{}, time.Now())
	assert.Empty(t, u.InterestEntries())
}

func TestRecommendationsVariants(t *testing.T) {
	fb := Fallback()
	assert.True(t, fb.Fallback)
	require.Len(t, fb.Items, 1)
	assert.Equal(t, "Photography", fb.Items[0].Name)
	assert.Equal(t, "$200-500", fb.Items[0].EstimatedCost)

	p := Parsed(nil)
	assert.False(t, p.Fallback)
	assert.NotNil(t, p.Items)
}
