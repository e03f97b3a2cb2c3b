package timeline

import (
	"math"
	"slices"
	"testing"

	"cruce/internal/core"
	"cruce/internal/format"
)

func mustInstant(t *testing.T, s string) core.Instant {
	t.Helper()
	at, ok := core.ParseInstant(s)
	if !ok {
		t.Fatalf("cannot parse %q", s)
	}
	return at
}

func TestExtractPoints(t *testing.T) {
	records := []core.ContractRecord{
		{DeclarantName: "A", Amount: core.Num(100), ContractStartDate: core.String("2023-01-01")},
		{DeclarantName: "A", Amount: core.Num(200), ContractEndDate: core.String("2023-06-01")},
		{DeclarantName: "A", Amount: core.Num(300), ContractStartDate: core.String("2023-02-01"), ContractEndDate: core.String("2023-03-01")},
		{DeclarantName: "A", Amount: core.Num(0), ContractStartDate: core.String("2023-01-01")},
		{DeclarantName: "A", Amount: core.Num(-1), ContractStartDate: core.String("2023-01-01")},
		{DeclarantName: "A", Amount: core.Num(math.Inf(1)), ContractStartDate: core.String("2023-01-01")},
		{DeclarantName: "A", ContractStartDate: core.String("2023-01-01")},
		{DeclarantName: "A", Amount: core.Num(50), ContractStartDate: core.String("garbage")},
	}
	pts := ExtractPoints(records)
	if len(pts.Start) != 2 || len(pts.End) != 2 {
		t.Fatalf("expected 2 start and 2 end points, got %d and %d", len(pts.Start), len(pts.End))
	}
	if pts.Start[0].Amount != 100 || pts.Start[1].Amount != 300 {
		t.Fatalf("unexpected start order %+v", pts.Start)
	}
	if pts.End[0].Record != &records[1] {
		t.Fatal("point must reference its source record")
	}
	if pts.Len() != 4 {
		t.Fatalf("Len = %d", pts.Len())
	}
}

func TestExtractPointsBothDatesInvalid(t *testing.T) {
	pts := ExtractPoints([]core.ContractRecord{{
		DeclarantName:     "A",
		Amount:            core.Num(10),
		ContractStartDate: core.String("x"),
		ContractEndDate:   core.String(""),
	}})
	if pts.Len() != 0 {
		t.Fatalf("expected no points, got %+v", pts)
	}
}

func TestAppointmentMarkersDedup(t *testing.T) {
	records := []core.ContractRecord{
		{AppointmentDate: core.String("2022-05-01")},
		{AppointmentDate: core.String("2020-01-01")},
		{AppointmentDate: core.String("2022-05-01")},
		{AppointmentDate: core.String("??")},
		{},
	}
	got := AppointmentMarkers(records)
	want := []core.Instant{mustInstant(t, "2020-01-01"), mustInstant(t, "2022-05-01")}
	if !slices.Equal(got, want) {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestPadding(t *testing.T) {
	cases := []struct {
		span, want core.Instant
	}{
		{10 * core.Day, 15 * core.Day},
		{0, 15 * core.Day},
		{2000 * core.Day, 100 * core.Day},
	}
	for _, tc := range cases {
		if got := Padding(tc.span); got != tc.want {
			t.Errorf("Padding(%d days) = %d, want %d", tc.span/core.Day, got, tc.want)
		}
	}
}

func TestNewDomain(t *testing.T) {
	if _, ok := NewDomain(Points{}, nil); ok {
		t.Fatal("expected no domain")
	}

	start := mustInstant(t, "2023-01-01")
	end := mustInstant(t, "2023-01-11")
	toma := mustInstant(t, "2023-01-05")
	pts := Points{
		Start: []Point{{At: start, Amount: 1}},
		End:   []Point{{At: end, Amount: 1}},
	}
	d, ok := NewDomain(pts, []core.Instant{toma})
	if !ok {
		t.Fatal("expected a domain")
	}
	if d.Min != start-15*core.Day || d.Max != end+15*core.Day {
		t.Fatalf("unexpected domain %+v", d)
	}

	d, _ = NewDomain(Points{}, []core.Instant{toma})
	if d.Min != toma-MinPadding || d.Max != toma+MinPadding {
		t.Fatalf("markers alone must produce a domain, got %+v", d)
	}
}

func TestMonthBands(t *testing.T) {
	bands := slices.Collect(MonthBands(mustInstant(t, "2023-01-15"), mustInstant(t, "2024-01-10")))
	if len(bands) != 13 {
		t.Fatalf("expected 13 bands, got %d", len(bands))
	}
	first, last := bands[0], bands[len(bands)-1]
	if first.Start != mustInstant(t, "2023-01-01") || first.End != mustInstant(t, "2023-02-01") {
		t.Fatalf("unexpected first band %+v", first)
	}
	if last.Start != mustInstant(t, "2024-01-01") || last.Index != 12 {
		t.Fatalf("unexpected last band %+v", last)
	}
	if first.Label != "ene 2023" || last.Label != "ene 2024" {
		t.Fatalf("unexpected labels %q %q", first.Label, last.Label)
	}
	for i := 1; i < len(bands); i++ {
		if bands[i].Start != bands[i-1].End {
			t.Fatalf("bands %d and %d are not contiguous", i-1, i)
		}
	}
	if !first.Shaded() || bands[1].Shaded() {
		t.Fatal("even bands must be shaded")
	}
}

func TestMonthBandsSingleMonth(t *testing.T) {
	n := 0
	for range MonthBands(mustInstant(t, "2023-02-01"), mustInstant(t, "2023-02-28")) {
		n++
	}
	if n != 1 {
		t.Fatalf("expected one band, got %d", n)
	}
}

func TestMonthBandsRestartableAndStoppable(t *testing.T) {
	seq := MonthBands(mustInstant(t, "2023-01-31"), mustInstant(t, "2023-12-01"), WithLocale(format.English))
	a := slices.Collect(seq)
	b := slices.Collect(seq)
	if len(a) != 12 || !slices.Equal(a, b) {
		t.Fatalf("expected identical runs of 12 bands, got %d and %d", len(a), len(b))
	}
	if a[1].Label != "Feb 2023" {
		t.Fatalf("month stepping must not skip February, got %q", a[1].Label)
	}
	n := 0
	for range seq {
		n++
		if n == 3 {
			break
		}
	}
	if n != 3 {
		t.Fatalf("early break not honored")
	}
}

func TestMonthBandsEmptyWhenInverted(t *testing.T) {
	if got := slices.Collect(MonthBands(mustInstant(t, "2024-01-01"), mustInstant(t, "2023-01-01"))); len(got) != 0 {
		t.Fatalf("expected no bands, got %d", len(got))
	}
}

func TestClassify(t *testing.T) {
	toma := core.String("2020-06-01")
	cases := []struct {
		name       string
		start, end *string
		toma       *string
		want       Phase
	}{
		{"ended before", core.String("2019-01-01"), core.String("2020-01-01"), toma, Before},
		{"started after", core.String("2020-07-01"), core.String("2021-01-01"), toma, After},
		{"straddles", core.String("2020-01-01"), core.String("2021-01-01"), toma, Spanning},
		{"start only before", core.String("2020-05-31"), nil, toma, Before},
		{"end only after", nil, core.String("2020-06-02"), toma, After},
		{"same day", core.String("2020-06-01"), nil, toma, Spanning},
		{"no dates", nil, nil, toma, Undetermined},
		{"no appointment", core.String("2020-01-01"), nil, nil, Undetermined},
		{"bad end falls back to start", core.String("2021-01-01"), core.String("nope"), toma, After},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := core.ContractRecord{AppointmentDate: tc.toma, ContractStartDate: tc.start, ContractEndDate: tc.end}
			if got := Classify(rec); got != tc.want {
				t.Fatalf("got %v, want %v", got, tc.want)
			}
		})
	}
}

func TestSummarize(t *testing.T) {
	toma := core.String("2020-06-01")
	s := Summarize([]core.ContractRecord{
		{AppointmentDate: toma, ContractStartDate: core.String("2019-01-01")},
		{AppointmentDate: toma, ContractStartDate: core.String("2021-01-01")},
		{AppointmentDate: toma, ContractStartDate: core.String("2022-01-01"), Amount: core.Num(0)},
		{},
	})
	want := PhaseSummary{Total: 4, Before: 1, After: 2, Undetermined: 1}
	if s != want {
		t.Fatalf("got %+v, want %+v", s, want)
	}
}
