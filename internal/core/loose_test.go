package core

import (
	"testing"

	json "github.com/goccy/go-json"
)

func TestDateTextUnmarshal(t *testing.T) {
	cases := []struct {
		in    string
		want  string
		valid bool
	}{
		{`"2023-01-01"`, "2023-01-01", true},
		{`"  "`, "  ", true},
		{`20230101`, "", false},
		{`null`, "", false},
		{`{"y":2023}`, "", false},
		{`true`, "", false},
	}
	for _, tc := range cases {
		var d DateText
		if err := json.Unmarshal([]byte(tc.in), &d); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if d.Valid != tc.valid || d.Text != tc.want {
			t.Errorf("%s: got %+v", tc.in, d)
		}
	}
}

func TestFlagUnmarshal(t *testing.T) {
	cases := []struct {
		in    string
		want  bool
		valid bool
	}{
		{`true`, true, true},
		{`false`, false, true},
		{`"true"`, true, true},
		{`"SI"`, false, false},
		{`1.5`, false, false},
		{`null`, false, false},
		{`[]`, false, false},
	}
	for _, tc := range cases {
		var f Flag
		if err := json.Unmarshal([]byte(tc.in), &f); err != nil {
			t.Fatalf("%s: %v", tc.in, err)
		}
		if f.Valid != tc.valid || f.Value != tc.want {
			t.Errorf("%s: got %+v", tc.in, f)
		}
	}
}

func TestRecordWithJunkFieldsStillDecodes(t *testing.T) {
	raw := `[
		{"nombreDeclarante":"Ana","fechaInicioContrato":20230101,"fechaFinContrato":"2024-01-01",
		 "remuneracion":"SI","montoContrato":100,"puesto":"Directora"},
		{"nombreDeclarante":"Luis","fechaTomaPosesion":"2020-03-01","remuneracion":true}
	]`
	var recs []ContractRecord
	if err := json.Unmarshal([]byte(raw), &recs); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("got %d records", len(recs))
	}
	ana := recs[0]
	if ana.ContractStartDate != nil || ana.Remunerated != nil {
		t.Fatalf("junk fields must be absent: %+v", ana)
	}
	if ana.ContractEndDate == nil || *ana.ContractEndDate != "2024-01-01" {
		t.Fatalf("valid end date lost: %v", ana.ContractEndDate)
	}
	if v, ok := ana.ValidAmount(); !ok || v != 100 || ana.Position != "Directora" {
		t.Fatalf("other fields lost: %+v", ana)
	}
	if recs[1].Remunerated == nil || !*recs[1].Remunerated || recs[1].AppointmentDate == nil {
		t.Fatalf("valid fields lost: %+v", recs[1])
	}
}

func TestRosterRowsTolerateJunkDates(t *testing.T) {
	var cross []CrossRow
	if err := json.Unmarshal([]byte(`[{"nombreDeclarante":"A","fechaTomaPosesion":2020,"totalContratos":3}]`), &cross); err != nil {
		t.Fatal(err)
	}
	if cross[0].AppointmentDate != nil || cross[0].TotalContracts != 3 {
		t.Fatalf("cross row %+v", cross[0])
	}

	var conflicts []ConflictRow
	if err := json.Unmarshal([]byte(`[{"nombreDeclarante":"B","fechaTomaPosesion":"2021-05-01","enteCoincidente":"CFE"}]`), &conflicts); err != nil {
		t.Fatal(err)
	}
	if conflicts[0].AppointmentDate == nil || conflicts[0].CoincidentEntity != "CFE" {
		t.Fatalf("conflict row %+v", conflicts[0])
	}
}
