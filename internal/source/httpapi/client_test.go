package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"cruce/internal/core"
	"cruce/internal/source"
)

func newTestServer(t *testing.T, routes map[string]http.HandlerFunc) *Client {
	t.Helper()
	mux := http.NewServeMux()
	for path, h := range routes {
		mux.HandleFunc(path, h)
	}
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return NewWithConfig(Config{BaseURL: srv.URL + "/", Timeout: 2 * time.Second})
}

func write(body string) http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(body))
	}
}

func TestContractsByName(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		pathByName: func(w http.ResponseWriter, r *http.Request) {
			if got := r.URL.Query().Get("nombre"); got != "Ana Pérez" {
				t.Errorf("nombre = %q", got)
			}
			write(`{"count":2,"contratos":[
				{"nombreDeclarante":"Ana Pérez","montoContrato":"1,500.50","fechaTomaPosesion":"2020-01-01","mismoEnteDeclaranteComprador":true,"institucionCompradora":"SEP"},
				{"nombreDeclarante":"Ana Pérez","montoContrato":null,"ingresos":{"totalIngresosAnualesNetos":1000}}
			]}`)(w, r)
		},
	})
	got, err := c.ContractsByName(context.Background(), " Ana Pérez ")
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 records, got %d", len(got))
	}
	if v, ok := got[0].ValidAmount(); !ok || v != 1500.5 {
		t.Fatalf("amount = %v %v", v, ok)
	}
	if !got[0].SameEntity || got[0].BuyingInstitution != "SEP" {
		t.Fatalf("unexpected first record %+v", got[0])
	}
	if got[1].Amount.Valid || got[1].Income == nil {
		t.Fatalf("unexpected second record %+v", got[1])
	}
}

func TestContractsByNameLooseFields(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{pathByName: write(`{"contratos":[
		{"nombreDeclarante":"Ana Pérez","fechaInicioContrato":20230101,"remuneracion":"SI","montoContrato":10},
		{"nombreDeclarante":"Ana Pérez","fechaInicioContrato":"2023-01-01"}
	]}`)})
	got, err := c.ContractsByName(context.Background(), "Ana Pérez")
	if err != nil {
		t.Fatalf("one malformed field must not fail the response: %v", err)
	}
	if len(got) != 2 || got[0].ContractStartDate != nil || got[0].Remunerated != nil {
		t.Fatalf("unexpected records %+v", got)
	}
	if _, ok := got[1].StartInstant(); !ok {
		t.Fatal("well-formed start date lost")
	}
}

func TestContractsByNameEmpty(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{pathByName: write(`{"count":0,"contratos":[]}`)})
	got, err := c.ContractsByName(context.Background(), "Nadie")
	if err != nil || got == nil || len(got) != 0 {
		t.Fatalf("got %v, %v", got, err)
	}
	if _, err := c.ContractsByName(context.Background(), "  "); !errors.Is(err, core.ErrEmptyName) {
		t.Fatalf("expected ErrEmptyName, got %v", err)
	}
}

func TestStatusError(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		pathByName: func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		},
	})
	_, err := c.ContractsByName(context.Background(), "Ana")
	var se *StatusError
	if !errors.As(err, &se) || se.StatusCode != http.StatusInternalServerError || se.Body != "boom" {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if !errors.Is(err, source.ErrUnavailable) {
		t.Fatal("status errors must match ErrUnavailable")
	}
}

func TestMalformedBody(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{pathByName: write(`{"contratos": [`)})
	if _, err := c.ContractsByName(context.Background(), "Ana"); err == nil {
		t.Fatal("expected decode error")
	}
}

func TestSuggest(t *testing.T) {
	calls := 0
	c := newTestServer(t, map[string]http.HandlerFunc{
		pathSuggest: func(w http.ResponseWriter, r *http.Request) {
			calls++
			write(`{"items":["Ana Pérez","Anabel Ruiz"]}`)(w, r)
		},
	})
	got, err := c.Suggest(context.Background(), "a")
	if err != nil || len(got) != 0 || calls != 0 {
		t.Fatalf("short query must not hit the API: %v %v %d", got, err, calls)
	}
	got, err = c.Suggest(context.Background(), "an")
	if err != nil || len(got) != 2 || calls != 1 {
		t.Fatalf("got %v %v %d", got, err, calls)
	}
}

func TestListDeclarantsBothShapes(t *testing.T) {
	for name, body := range map[string]string{
		"wrapped": `{"items":["A","B"]}`,
		"bare":    ` ["A","B"]`,
	} {
		t.Run(name, func(t *testing.T) {
			c := newTestServer(t, map[string]http.HandlerFunc{pathRoster: write(body)})
			got, err := c.ListDeclarants(context.Background())
			if err != nil || len(got) != 2 || got[1] != "B" {
				t.Fatalf("got %v %v", got, err)
			}
		})
	}
}

func TestRosters(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{
		pathCross: func(w http.ResponseWriter, r *http.Request) {
			q := r.URL.Query()
			if q.Get("sort_by") != "contratos" || q.Get("sort_dir") != "desc" {
				t.Errorf("unexpected query %v", q)
			}
			write(`{"count":1,"items":[{"nombreDeclarante":"A","totalContratos":4,"contratosAntes":1,"contratosDespues":3,"montoTotal":900.5}]}`)(w, r)
		},
		pathConflicts: write(`{"count":1,"items":[{"nombreDeclarante":"B","totalContratos":2,"montoTotal":10,"enteCoincidente":"SEP","fechaTomaPosesion":null}]}`),
	})
	cross, err := c.CrossRoster(context.Background(), core.SortByCount)
	if err != nil || len(cross) != 1 || cross[0].ContractsAfter != 3 || cross[0].TotalAmount != 900.5 {
		t.Fatalf("cross = %+v, %v", cross, err)
	}
	conflicts, err := c.ConflictRoster(context.Background())
	if err != nil || len(conflicts) != 1 || conflicts[0].CoincidentEntity != "SEP" || conflicts[0].AppointmentDate != nil {
		t.Fatalf("conflicts = %+v, %v", conflicts, err)
	}
}

func TestContextCanceled(t *testing.T) {
	c := newTestServer(t, map[string]http.HandlerFunc{pathRoster: write(`[]`)})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := c.ListDeclarants(ctx); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
}
