package schedule_test

import (
	"testing"
	"time"

	"github.com/subwatch/reminder-dispatch/internal/schedule"
)

func mustYMD(t *testing.T, s string) schedule.YMD {
	t.Helper()
	d, ok := schedule.ParseYMD(s)
	if !ok {
		t.Fatalf("bad date fixture %q", s)
	}
	return d
}

func TestInstant_NewYorkWinter(t *testing.T) {
	// December has no DST in America/New_York (UTC-5): 09:00 local is
	// 14:00 UTC for every lead day.
	billing := mustYMD(t, "2024-12-25")

	tests := []struct {
		lead int
		want string
	}{
		{0, "2024-12-25T14:00:00Z"},
		{1, "2024-12-24T14:00:00Z"},
		{7, "2024-12-18T14:00:00Z"},
	}

	for _, tc := range tests {
		got := schedule.Instant(billing, tc.lead, "09:00", "America/New_York", 0)
		want, _ := time.Parse(time.RFC3339, tc.want)
		if !got.Equal(want) {
			t.Fatalf("lead %d: got %s, want %s", tc.lead, got.Format(time.RFC3339), tc.want)
		}
	}
}

func TestInstant_DenverSpringForward(t *testing.T) {
	// 2024-03-10 is the US spring-forward day. 09:00 local is after the
	// 02:00 transition, so the post-transition offset (UTC-6) applies.
	got := schedule.Instant(mustYMD(t, "2024-03-10"), 0, "09:00", "America/Denver", 0)
	want, _ := time.Parse(time.RFC3339, "2024-03-10T15:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("transition day: got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}

	// The day before still carries the standard offset (UTC-7).
	got = schedule.Instant(mustYMD(t, "2024-03-09"), 0, "09:00", "America/Denver", 0)
	want, _ = time.Parse(time.RFC3339, "2024-03-09T16:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("day before: got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestInstant_LeadCrossesDSTBoundary(t *testing.T) {
	// Billing just after the transition, lead reaching back before it:
	// the target date's own offset must be used, not the billing date's.
	got := schedule.Instant(mustYMD(t, "2024-03-12"), 3, "09:00", "America/Denver", 0)
	want, _ := time.Parse(time.RFC3339, "2024-03-09T16:00:00Z") // 03-09 is pre-transition, UTC-7
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestInstant_LegacyFallback(t *testing.T) {
	// Unloadable zone: fall back to the fixed-offset calculation.
	// -420 minutes east = UTC-7, so 09:00 "local" is 16:00 UTC.
	got := schedule.Instant(mustYMD(t, "2024-12-25"), 0, "09:00", "Invalid/Zone", -420)
	want, _ := time.Parse(time.RFC3339, "2024-12-25T16:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}

	// Lead days subtract whole calendar days before the offset applies.
	got = schedule.Instant(mustYMD(t, "2024-12-25"), 7, "09:00", "Invalid/Zone", -420)
	want, _ = time.Parse(time.RFC3339, "2024-12-18T16:00:00Z")
	if !got.Equal(want) {
		t.Fatalf("lead 7: got %s, want %s", got.Format(time.RFC3339), want.Format(time.RFC3339))
	}
}

func TestAddDays_CalendarBoundaries(t *testing.T) {
	tests := []struct {
		start string
		n     int
		want  string
	}{
		{"2024-03-01", -1, "2024-02-29"}, // leap year
		{"2023-03-01", -1, "2023-02-28"},
		{"2025-01-01", -7, "2024-12-25"}, // year boundary
		{"2024-12-25", 0, "2024-12-25"},
	}
	for _, tc := range tests {
		got := mustYMD(t, tc.start).AddDays(tc.n)
		if got.String() != tc.want {
			t.Fatalf("%s %+d days = %s, want %s", tc.start, tc.n, got, tc.want)
		}
	}
}

func TestBillingDate(t *testing.T) {
	at := time.Date(2024, 12, 20, 23, 30, 0, 0, time.UTC)

	t.Run("explicit date wins over instant", func(t *testing.T) {
		d, ok := schedule.BillingDate("2024-12-25", &at)
		if !ok || d.String() != "2024-12-25" {
			t.Fatalf("got %v ok=%v", d, ok)
		}
	})

	t.Run("instant used when no date", func(t *testing.T) {
		d, ok := schedule.BillingDate("", &at)
		if !ok || d.String() != "2024-12-20" {
			t.Fatalf("got %v ok=%v", d, ok)
		}
	})

	t.Run("instant date is the UTC calendar date", func(t *testing.T) {
		// 23:30Z is already the next day in many zones; the UTC date rules.
		late := time.Date(2024, 6, 30, 23, 30, 0, 0, time.UTC)
		d, _ := schedule.BillingDate("", &late)
		if d.String() != "2024-06-30" {
			t.Fatalf("got %s, want 2024-06-30", d)
		}
	})

	t.Run("unparseable date falls to instant", func(t *testing.T) {
		d, ok := schedule.BillingDate("soon", &at)
		if !ok || d.String() != "2024-12-20" {
			t.Fatalf("got %v ok=%v", d, ok)
		}
	})

	t.Run("neither resolvable", func(t *testing.T) {
		if _, ok := schedule.BillingDate("", nil); ok {
			t.Fatal("expected ok=false with no billing representation")
		}
	})
}

func TestParseTimeOfDay(t *testing.T) {
	h, m := schedule.ParseTimeOfDay("21:45")
	if h != 21 || m != 45 {
		t.Fatalf("got %d:%d", h, m)
	}
	h, m = schedule.ParseTimeOfDay("bogus")
	if h != 9 || m != 0 {
		t.Fatalf("expected 09:00 fallback, got %d:%d", h, m)
	}
}

func TestDue_HalfOpenWindow(t *testing.T) {
	scheduled := time.Date(2024, 12, 25, 14, 0, 0, 0, time.UTC)
	window := 30 * time.Minute

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{"exactly at instant", scheduled, true},
		{"one second before", scheduled.Add(-time.Second), false},
		{"inside window", scheduled.Add(29*time.Minute + 59*time.Second), true},
		// The expired instant is never caught up, even by a later run.
		{"exactly at window end", scheduled.Add(window), false},
		{"long after", scheduled.Add(2 * time.Hour), false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := schedule.Due(tc.now, scheduled, window); got != tc.want {
				t.Fatalf("Due(%s) = %v, want %v", tc.now.Format(time.RFC3339), got, tc.want)
			}
		})
	}
}
