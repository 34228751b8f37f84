package synthetic

import (
	"time"

	"github.com/yanqian/health-voice/internal/domain/vitals"
	"github.com/yanqian/health-voice/pkg/util"
)

// DefaultUserID is the profile served for unknown users.
const DefaultUserID = "demo-user"

// ProfileTable is a read-only lookup of synthetic user profiles.
type ProfileTable struct {
	profiles  map[string]vitals.UserProfile
	defaultID string
}

// NewProfileTable builds a table; defaultID must name one of the profiles.
func NewProfileTable(defaultID string, profiles ...vitals.UserProfile) *ProfileTable {
	table := &ProfileTable{
		profiles:  make(map[string]vitals.UserProfile, len(profiles)),
		defaultID: defaultID,
	}
	for _, p := range profiles {
		table.profiles[p.UserID] = p
	}
	return table
}

// DefaultProfiles returns the demo table with its single demo-user profile.
func DefaultProfiles(now time.Time) *ProfileTable {
	return NewProfileTable(DefaultUserID, vitals.UserProfile{
		UserID:           DefaultUserID,
		CurrentHeartRate: 72,
		CurrentOxygen:    98,
		Trends: vitals.TrendSeries{
			{Date: "2025-07-30", AvgHeartRate: 68, AvgOxygen: 97, Trend: vitals.TrendStable},
			{Date: "2025-07-31", AvgHeartRate: 70, AvgOxygen: 98, Trend: vitals.TrendImproving},
			{Date: "2025-08-01", AvgHeartRate: 71, AvgOxygen: 98, Trend: vitals.TrendStable},
			{Date: "2025-08-02", AvgHeartRate: 72, AvgOxygen: 98, Trend: vitals.TrendStable},
		},
		LastMeasurement: util.FormatISO(now),
	})
}

// LookupProfile returns the profile for id. Unknown ids get the default profile with usedDefault set.
// The returned trend slice is a copy.
func (t *ProfileTable) LookupProfile(id string) (profile vitals.UserProfile, usedDefault bool) {
	p, ok := t.profiles[id]
	if !ok {
		p = t.profiles[t.defaultID]
		usedDefault = true
	}
	p.Trends = append(vitals.TrendSeries(nil), p.Trends...)
	return p, usedDefault
}
