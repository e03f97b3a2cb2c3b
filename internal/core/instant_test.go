package core

import (
	"testing"
	"time"
)

func TestParseInstant(t *testing.T) {
	utc := func(y int, m time.Month, d, h, min int) Instant {
		return InstantOf(time.Date(y, m, d, h, min, 0, 0, time.UTC))
	}
	cases := []struct {
		in   string
		want Instant
		ok   bool
	}{
		{"2023-01-15", utc(2023, time.January, 15, 0, 0), true},
		{" 2023-01-15 ", utc(2023, time.January, 15, 0, 0), true},
		{"2023/01/15", utc(2023, time.January, 15, 0, 0), true},
		{"15/01/2023", utc(2023, time.January, 15, 0, 0), true},
		{"15-01-2023", utc(2023, time.January, 15, 0, 0), true},
		{"2023-01-15T10:30:00Z", utc(2023, time.January, 15, 10, 30), true},
		{"2023-01-15T10:30:00", utc(2023, time.January, 15, 10, 30), true},
		{"2023-01-15T10:30:00-06:00", utc(2023, time.January, 15, 16, 30), true},
		{"2023-02-30", 0, false},
		{"", 0, false},
		{"   ", 0, false},
		{"not a date", 0, false},
	}
	for _, tc := range cases {
		got, ok := ParseInstant(tc.in)
		if ok != tc.ok {
			t.Fatalf("%q: ok=%v, want %v", tc.in, ok, tc.ok)
		}
		if ok && got != tc.want {
			t.Errorf("%q: got %v, want %v", tc.in, got.Time(), tc.want.Time())
		}
	}
}

func TestParseInstantCalendarDateIsUTCMidnight(t *testing.T) {
	got, ok := ParseInstant("2024-03-10")
	if !ok {
		t.Fatal("expected an instant")
	}
	tm := got.Time()
	if tm.Hour() != 0 || tm.Minute() != 0 || tm.Location() != time.UTC {
		t.Fatalf("expected UTC midnight, got %v", tm)
	}
}

func TestParseInstantIgnoresLocalZone(t *testing.T) {
	inputs := []string{"2023-01-15", "15/01/2023", "2023-01-15T10:30:00", "2023-01-15T10:30:00Z", "January 15, 2023"}
	parseAll := func() []Instant {
		out := make([]Instant, 0, len(inputs))
		for _, in := range inputs {
			got, ok := ParseInstant(in)
			if !ok {
				t.Fatalf("%q did not parse", in)
			}
			out = append(out, got)
		}
		return out
	}

	saved := time.Local
	t.Cleanup(func() { time.Local = saved })

	time.Local = time.UTC
	want := parseAll()
	for _, zone := range []*time.Location{
		time.FixedZone("CST", -6*60*60),
		time.FixedZone("JST", 9*60*60),
	} {
		time.Local = zone
		got := parseAll()
		for i := range inputs {
			if got[i] != want[i] {
				t.Errorf("%s: %q = %v, want %v", zone, inputs[i], got[i].Time(), want[i].Time())
			}
		}
	}
}

func TestParseInstantPtr(t *testing.T) {
	if _, ok := ParseInstantPtr(nil); ok {
		t.Fatal("nil must yield no instant")
	}
	if _, ok := ParseInstantPtr(String("2020-05-01")); !ok {
		t.Fatal("expected an instant")
	}
}

func TestInstantRoundTrip(t *testing.T) {
	tm := time.Date(2021, time.June, 1, 12, 0, 0, 0, time.UTC)
	if got := InstantOf(tm).Time(); !got.Equal(tm) {
		t.Fatalf("got %v, want %v", got, tm)
	}
	if Day != Instant(86_400_000) {
		t.Fatalf("unexpected day length %d", Day)
	}
}
