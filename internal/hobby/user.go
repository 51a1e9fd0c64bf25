// Package hobby holds the HobbyMatch domain records shared by every handler.
package hobby

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	UserIDPrefix = "user_"

	DefaultTimeAvailable = "flexible"
	DefaultBudget        = "medium"
	DefaultSkillLevel    = "beginner"
)

// timeLayout matches JavaScript's Date.toISOString output.
const timeLayout = "2006-01-02T15:04:05.000Z"

// Preferences describes what a user wants out of a hobby. Interests keep the
// casing the user typed.
type Preferences struct {
	Interests     []string `json:"interests,omitempty" dynamodbav:"interests"`
	TimeAvailable string   `json:"timeAvailable,omitempty" dynamodbav:"timeAvailable"`
	Budget        string   `json:"budget,omitempty" dynamodbav:"budget"`
	SkillLevel    string   `json:"skillLevel,omitempty" dynamodbav:"skillLevel"`
}

// WithDefaults fills any empty free-form field with its default.
func (p Preferences) WithDefaults() Preferences {
	if p.TimeAvailable == "" {
		p.TimeAvailable = DefaultTimeAvailable
	}
	if p.Budget == "" {
		p.Budget = DefaultBudget
	}
	if p.SkillLevel == "" {
		p.SkillLevel = DefaultSkillLevel
	}
	return p
}

// User is the primary record in the users table, keyed by UserID.
type User struct {
	UserID      string      `json:"userId" dynamodbav:"userId"`
	Email       string      `json:"email" dynamodbav:"email"`
	Name        string      `json:"name" dynamodbav:"name"`
	CreatedAt   string      `json:"createdAt" dynamodbav:"createdAt"`
	UpdatedAt   string      `json:"updatedAt" dynamodbav:"updatedAt"`
	Preferences Preferences `json:"preferences" dynamodbav:"preferences"`
	HobbyCount  int         `json:"hobbyCount" dynamodbav:"hobbyCount"`
	IsActive    bool        `json:"isActive" dynamodbav:"isActive"`
}

// InterestEntry is one row of the user-interests index: a denormalized copy
// of the owning user, partitioned by lowercased interest.
type InterestEntry struct {
	Interest  string `json:"-" dynamodbav:"interest"`
	UserID    string `json:"userId" dynamodbav:"userId"`
	UserName  string `json:"userName" dynamodbav:"userName"`
	UserEmail string `json:"userEmail" dynamodbav:"userEmail"`
	AddedAt   string `json:"addedAt" dynamodbav:"addedAt"`
}

// NewUserID returns a fresh id of the form user_<uuid-v4>.
func NewUserID() string {
	return UserIDPrefix + uuid.NewString()
}

// FormatTime renders t as an ISO-8601 UTC timestamp with milliseconds.
func FormatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

// NormalizeInterest is the index partition key form of an interest.
func NormalizeInterest(interest string) string {
	return strings.ToLower(interest)
}

// NewUser builds a fresh, active user. createdAt and updatedAt share one
// timestamp and hobbyCount is a snapshot of the interest count.
func NewUser(email, name string, prefs Preferences, now time.Time) User {
	ts := FormatTime(now)
	prefs = prefs.WithDefaults()
	if prefs.Interests == nil {
		prefs.Interests = []string{}
	}
	return User{
		UserID:      NewUserID(),
		Email:       email,
		Name:        name,
		CreatedAt:   ts,
		UpdatedAt:   ts,
		Preferences: prefs,
		HobbyCount:  len(prefs.Interests),
		IsActive:    true,
	}
}

// InterestEntries fans the user out into index rows, one per distinct
// lowercased interest, in first-seen order. Empty interests get no row.
func (u User) InterestEntries() []InterestEntry {
	seen := make(map[string]bool, len(u.Preferences.Interests))
	entries := make([]InterestEntry, 0, len(u.Preferences.Interests))
	for _, interest := range u.Preferences.Interests {
		key := NormalizeInterest(interest)
		if key == "" || seen[key] {
			continue
		}
		seen[key] = true
		entries = append(entries, InterestEntry{
			Interest:  key,
			UserID:    u.UserID,
			UserName:  u.Name,
			UserEmail: u.Email,
			AddedAt:   u.CreatedAt,
		})
	}
	return entries
}
