package analytics

import (
	"testing"
	"time"

	"github.com/relaxflow/core/internal/domain/entities"
)

func TestTrend(t *testing.T) {
	tests := []struct {
		name              string
		current, previous float64
		want              float64
	}{
		{"growth from zero", 5, 0, 100},
		{"halved", 5, 10, -50},
		{"doubled", 20, 10, 100},
		{"both zero", 0, 0, 0},
		{"flat", 7, 7, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Trend(tt.current, tt.previous); got != tt.want {
				t.Errorf("Trend(%v, %v) = %v, want %v", tt.current, tt.previous, got, tt.want)
			}
		})
	}
}

func TestParseTimestamp(t *testing.T) {
	loc := time.UTC

	cases := map[string]time.Time{
		"2024-03-05T10:30:00Z": time.Date(2024, 3, 5, 10, 30, 0, 0, time.UTC),
		"2024-03-05":           time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC),
		"05/03/2024, 10:30:15": time.Date(2024, 3, 5, 10, 30, 15, 0, time.UTC),
	}
	for in, want := range cases {
		got, ok := ParseTimestamp(in, loc)
		if !ok {
			t.Errorf("Expected %q to parse", in)
			continue
		}
		if !got.Equal(want) {
			t.Errorf("ParseTimestamp(%q) = %v, want %v", in, got, want)
		}
	}

	if _, ok := ParseTimestamp("last tuesday", loc); ok {
		t.Error("Expected unparseable value to be rejected")
	}
	if _, ok := ParseTimestamp("", loc); ok {
		t.Error("Expected empty value to be rejected")
	}
}

func TestSummarizePlays(t *testing.T) {
	now := time.Date(2024, 3, 15, 14, 0, 0, 0, time.UTC)
	records := []entities.DailyPlay{
		{Date: "2024-03-15", Plays: 6},
		{Date: "2024-03-14", Plays: 4},
		{Date: "2024-03-09", Plays: 2},  // in both windows
		{Date: "2024-03-08", Plays: 8},  // chart window only, previous week
		{Date: "2024-03-02", Plays: 10}, // previous week
		{Date: "2024-02-01", Plays: 50}, // too old
	}

	s := SummarizePlays(records, now)

	if s.Today != 6 || s.Yesterday != 4 {
		t.Errorf("Expected today 6 yesterday 4, got %d and %d", s.Today, s.Yesterday)
	}
	if s.DailyTrend != 50 {
		t.Errorf("Expected daily trend 50, got %v", s.DailyTrend)
	}
	if s.WindowTotal != 20 || s.WindowRecords != 4 {
		t.Errorf("Expected window total 20 over 4 records, got %d over %d", s.WindowTotal, s.WindowRecords)
	}
	if s.AverageDaily != 5 {
		t.Errorf("Expected average 5, got %d", s.AverageDaily)
	}
	if s.WeekTotal != 12 {
		t.Errorf("Expected week total 12, got %d", s.WeekTotal)
	}
	if s.PreviousWeekTotal != 18 {
		t.Errorf("Expected previous week total 18, got %d", s.PreviousWeekTotal)
	}
	if s.WeekDifference != -6 {
		t.Errorf("Expected week difference -6, got %d", s.WeekDifference)
	}
	if len(s.Series) != len(records) || s.Series[0].Date != "2024-02-01" || s.Series[len(s.Series)-1].Date != "2024-03-15" {
		t.Errorf("Expected series sorted ascending, got %v", s.Series)
	}
	if records[0].Date != "2024-03-15" {
		t.Error("Expected input slice to be left untouched")
	}
}

func TestSummarizePlays_NoTrafficYesterday(t *testing.T) {
	now := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	s := SummarizePlays([]entities.DailyPlay{{Date: "2024-03-15", Plays: 3}}, now)

	if s.DailyTrend != 100 {
		t.Errorf("Expected trend 100 when yesterday had no plays, got %v", s.DailyTrend)
	}
}

func TestSummarizeUserGrowth(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	users := []entities.User{
		{ID: "1", Status: entities.UserStatusActive, LastLogin: "2024-03-15T09:00:00Z"},
		{ID: "2", Status: entities.UserStatusActive, LastLogin: "10/03/2024, 08:00:00"},
		{ID: "3", Status: entities.UserStatusInactive, LastLogin: "2024-03-04T09:00:00Z"},
		{ID: "4", Status: entities.UserStatusActive, LastLogin: "2024-01-01T09:00:00Z"},
		{ID: "5", Status: entities.UserStatusActive, LastLogin: "not a date"},
	}

	g := SummarizeUserGrowth(users, now)

	if g.TotalUsers != 5 || g.ActiveUsers != 4 {
		t.Errorf("Expected 5 users with 4 active, got %d and %d", g.TotalUsers, g.ActiveUsers)
	}
	if g.CurrentWeek != 2 || g.PreviousWeek != 1 {
		t.Errorf("Expected 2 this week and 1 the week before, got %d and %d", g.CurrentWeek, g.PreviousWeek)
	}
	if g.Trend != 100 {
		t.Errorf("Expected trend 100, got %v", g.Trend)
	}
	if g.AverageDailySignups != 0 {
		t.Errorf("Expected round(2/7) = 0, got %d", g.AverageDailySignups)
	}
	if len(g.Series) != 15 {
		t.Fatalf("Expected 15 series points, got %d", len(g.Series))
	}
	if last := g.Series[len(g.Series)-1]; last.Date != "2024-03-15" || last.Users != 3 {
		t.Errorf("Expected last point 2024-03-15 with 3 users, got %+v", last)
	}
}

func TestCountCreatedSince(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	stamps := []time.Time{
		time.Date(2024, 3, 8, 0, 0, 0, 0, time.UTC), // exactly on the cutoff
		time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC),
		time.Date(2024, 3, 15, 11, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 16, 9, 0, 0, 0, time.UTC), // future-dated
		{},
	}

	if got := CountCreatedSince(stamps, now, 7*24*time.Hour); got != 2 {
		t.Errorf("Expected 2, got %d", got)
	}
}

func TestBuildOverview(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)
	in := Input{
		Users: []entities.User{{ID: "1", Status: entities.UserStatusActive, LastLogin: "2024-03-14T10:00:00Z"}},
		Owners: []entities.Owner{
			{ID: "o1", CreatedAt: entities.NewTimestamp(now.Add(-48 * time.Hour)), Locations: []entities.Location{{ID: "l1", DeviceIDs: []string{"a", "b"}}}},
			{ID: "o2", CreatedAt: entities.NewTimestamp(now.AddDate(0, -1, 0))},
			{ID: "o3", CreatedAt: ""},
			{ID: "o4", CreatedAt: "not a date"},
		},
		Products: []entities.Product{
			{ID: "p1", StockQuantity: 3, IsActive: true},
			{ID: "p2", StockQuantity: 0},
		},
		Meditations: []entities.Meditation{
			{ID: "m1", CreatedAt: "2024-03-15T10:00:00.000Z"},
			{ID: "m2", CreatedAt: "2024-03-15T10:00:00Z"},
			{ID: "m3"},
		},
		DailyPlays: []entities.DailyPlay{{Date: "2024-03-15", Plays: 2}},
	}

	ov := BuildOverview(in, now)

	if ov.TotalOwners != 4 || ov.NewOwnersLastWeek != 1 || ov.TotalDevices != 2 {
		t.Errorf("Unexpected owner metrics: %+v", ov)
	}
	if ov.Products.Available != 1 || ov.Products.OutOfStock != 1 || ov.Products.Active != 1 {
		t.Errorf("Unexpected product metrics: %+v", ov.Products)
	}
	if ov.NewMeditationsLastWeek != 2 || ov.UsersLoggedInLastWeek != 1 {
		t.Errorf("Unexpected weekly counts: %+v", ov)
	}
	if ov.Plays.Today != 2 {
		t.Errorf("Expected 2 plays today, got %d", ov.Plays.Today)
	}
}
