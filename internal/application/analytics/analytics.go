// Package analytics computes dashboard metrics from loaded collections.
// Every function is pure: the caller supplies the records and the current time.
package analytics

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/relaxflow/core/internal/domain/entities"
)

// LegacyTimestampLayout is the "DD/MM/YYYY, HH:MM:SS" form older user records carry.
const LegacyTimestampLayout = "02/01/2006, 15:04:05"

const day = 24 * time.Hour

// Trend returns the percentage change from previous to current.
// A zero previous value yields 100 when current is positive and 0 otherwise.
func Trend(current, previous float64) float64 {
	if previous > 0 {
		return (current - previous) / previous * 100
	}
	if current > 0 {
		return 100
	}
	return 0
}

// ParseTimestamp accepts RFC 3339, a bare calendar date and the legacy
// dashboard layout. Values without a zone are read in loc.
func ParseTimestamp(value string, loc *time.Location) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}
	if loc == nil {
		loc = time.UTC
	}
	if t, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(entities.DateLayout, value, loc); err == nil {
		return t, true
	}
	if t, err := time.ParseInLocation(LegacyTimestampLayout, value, loc); err == nil {
		return t, true
	}
	return time.Time{}, false
}

// startOfDay truncates t to midnight in its own location.
func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// PlaySummary describes daily play activity around now.
type PlaySummary struct {
	Today      int     `json:"today"`
	Yesterday  int     `json:"yesterday"`
	DailyTrend float64 `json:"dailyTrend"`

	// Trailing window [today-7d, today] as shown on the activity chart.
	WindowTotal   int `json:"windowTotal"`
	WindowRecords int `json:"windowRecords"`
	AverageDaily  int `json:"averageDaily"`

	// Calendar weeks [today-6d, today] and the seven days before it.
	WeekTotal         int     `json:"weekTotal"`
	PreviousWeekTotal int     `json:"previousWeekTotal"`
	WeekDifference    int     `json:"weekDifference"`
	WeeklyTrend       float64 `json:"weeklyTrend"`

	Series []entities.DailyPlay `json:"series"`
}

// SummarizePlays computes play totals for the UTC calendar day containing now.
// Records whose date does not parse are left out of every window but kept in
// the series.
func SummarizePlays(records []entities.DailyPlay, now time.Time) PlaySummary {
	today := startOfDay(now.UTC())
	todayKey := today.Format(entities.DateLayout)
	yesterdayKey := today.Add(-day).Format(entities.DateLayout)

	windowStart := today.AddDate(0, 0, -7)
	weekStart := today.AddDate(0, 0, -6)
	prevWeekStart := today.AddDate(0, 0, -13)

	summary := PlaySummary{
		Series: make([]entities.DailyPlay, len(records)),
	}
	copy(summary.Series, records)
	sort.SliceStable(summary.Series, func(i, j int) bool {
		return summary.Series[i].Date < summary.Series[j].Date
	})

	for _, rec := range records {
		switch rec.Date {
		case todayKey:
			summary.Today += rec.Plays
		case yesterdayKey:
			summary.Yesterday += rec.Plays
		}

		date, err := time.Parse(entities.DateLayout, rec.Date)
		if err != nil {
			continue
		}
		if !date.Before(windowStart) && !date.After(today) {
			summary.WindowTotal += rec.Plays
			summary.WindowRecords++
		}
		if !date.Before(weekStart) && !date.After(today) {
			summary.WeekTotal += rec.Plays
		}
		if !date.Before(prevWeekStart) && date.Before(weekStart) {
			summary.PreviousWeekTotal += rec.Plays
		}
	}

	if summary.WindowRecords > 0 {
		summary.AverageDaily = int(math.Round(float64(summary.WindowTotal) / float64(summary.WindowRecords)))
	}
	summary.DailyTrend = Trend(float64(summary.Today), float64(summary.Yesterday))
	summary.WeekDifference = summary.WeekTotal - summary.PreviousWeekTotal
	summary.WeeklyTrend = Trend(float64(summary.WeekTotal), float64(summary.PreviousWeekTotal))

	return summary
}

// GrowthPoint is one day of the cumulative user chart.
type GrowthPoint struct {
	Date  string `json:"date"`
	Users int    `json:"users"`
}

// UserGrowth summarises recent user activity by lastLogin.
type UserGrowth struct {
	TotalUsers          int           `json:"totalUsers"`
	ActiveUsers         int           `json:"activeUsers"`
	CurrentWeek         int           `json:"currentWeek"`
	PreviousWeek        int           `json:"previousWeek"`
	Trend               float64       `json:"trend"`
	AverageDailySignups int           `json:"averageDailySignups"`
	Series              []GrowthPoint `json:"series"`
}

// SummarizeUserGrowth counts users whose lastLogin falls in [today-7d, now]
// against [today-14d, today-7d). Days are local to now's location. The series
// holds one cumulative point per day from today-14d to today.
func SummarizeUserGrowth(users []entities.User, now time.Time) UserGrowth {
	loc := now.Location()
	today := startOfDay(now)
	weekAgo := today.AddDate(0, 0, -7)
	twoWeeksAgo := today.AddDate(0, 0, -14)

	growth := UserGrowth{TotalUsers: len(users)}
	perDay := make(map[string]int)

	for _, u := range users {
		if u.Status == entities.UserStatusActive {
			growth.ActiveUsers++
		}

		login, ok := ParseTimestamp(u.LastLogin, loc)
		if !ok {
			continue
		}
		login = login.In(loc)

		if !login.Before(weekAgo) && !login.After(now) {
			growth.CurrentWeek++
		}
		if !login.Before(twoWeeksAgo) && login.Before(weekAgo) {
			growth.PreviousWeek++
		}
		if !login.Before(twoWeeksAgo) && !login.After(now) {
			perDay[login.Format(entities.DateLayout)]++
		}
	}

	growth.Trend = Trend(float64(growth.CurrentWeek), float64(growth.PreviousWeek))
	growth.AverageDailySignups = int(math.Round(float64(growth.CurrentWeek) / 7))

	cumulative := 0
	for d := twoWeeksAgo; !d.After(today); d = d.AddDate(0, 0, 1) {
		key := d.Format(entities.DateLayout)
		cumulative += perDay[key]
		growth.Series = append(growth.Series, GrowthPoint{Date: key, Users: cumulative})
	}

	return growth
}

// CountCreatedSince counts timestamps in [start of today - window, now].
// Zero timestamps are ignored.
func CountCreatedSince(timestamps []time.Time, now time.Time, window time.Duration) int {
	cutoff := startOfDay(now).Add(-window)
	n := 0
	for _, ts := range timestamps {
		if ts.IsZero() {
			continue
		}
		if !ts.Before(cutoff) && !ts.After(now) {
			n++
		}
	}
	return n
}

// ProductStock splits products by availability.
type ProductStock struct {
	Total      int `json:"total"`
	Available  int `json:"available"`
	OutOfStock int `json:"outOfStock"`
	Active     int `json:"active"`
}

// Overview is the dashboard landing summary.
type Overview struct {
	GeneratedAt            time.Time    `json:"generatedAt"`
	TotalUsers             int          `json:"totalUsers"`
	TotalOwners            int          `json:"totalOwners"`
	TotalDevices           int          `json:"totalDevices"`
	TotalMeditations       int          `json:"totalMeditations"`
	NewOwnersLastWeek      int          `json:"newOwnersLastWeek"`
	NewMeditationsLastWeek int          `json:"newMeditationsLastWeek"`
	UsersLoggedInLastWeek  int          `json:"usersLoggedInLastWeek"`
	UsersLoggedInQuarter   int          `json:"usersLoggedInQuarter"`
	Products               ProductStock `json:"products"`
	Plays                  PlaySummary  `json:"plays"`
	UserGrowth             UserGrowth   `json:"userGrowth"`
}

// Input bundles the collections an Overview is computed from.
type Input struct {
	Users       []entities.User
	Owners      []entities.Owner
	Products    []entities.Product
	Meditations []entities.Meditation
	DailyPlays  []entities.DailyPlay
}

// BuildOverview computes every dashboard metric for now.
func BuildOverview(in Input, now time.Time) Overview {
	ov := Overview{
		GeneratedAt:      now,
		TotalUsers:       len(in.Users),
		TotalOwners:      len(in.Owners),
		TotalMeditations: len(in.Meditations),
		Plays:            SummarizePlays(in.DailyPlays, now),
		UserGrowth:       SummarizeUserGrowth(in.Users, now),
	}

	ownerCreated := make([]time.Time, 0, len(in.Owners))
	for _, o := range in.Owners {
		if t, ok := o.CreatedAt.Time(); ok {
			ownerCreated = append(ownerCreated, t)
		}
		ov.TotalDevices += o.DeviceCount()
	}
	ov.NewOwnersLastWeek = CountCreatedSince(ownerCreated, now, 7*day)

	meditationCreated := make([]time.Time, 0, len(in.Meditations))
	for _, m := range in.Meditations {
		if t, ok := m.CreatedAt.Time(); ok {
			meditationCreated = append(meditationCreated, t)
		}
	}
	ov.NewMeditationsLastWeek = CountCreatedSince(meditationCreated, now, 7*day)

	logins := make([]time.Time, 0, len(in.Users))
	for _, u := range in.Users {
		if t, ok := ParseTimestamp(u.LastLogin, now.Location()); ok {
			logins = append(logins, t)
		}
	}
	ov.UsersLoggedInLastWeek = CountCreatedSince(logins, now, 7*day)
	ov.UsersLoggedInQuarter = CountCreatedSince(logins, now, 90*day)

	for _, p := range in.Products {
		ov.Products.Total++
		if entities.StatusForStock(p.StockQuantity) == entities.ProductStatusAvailable {
			ov.Products.Available++
		} else {
			ov.Products.OutOfStock++
		}
		if p.IsActive {
			ov.Products.Active++
		}
	}

	return ov
}
