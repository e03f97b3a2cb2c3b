// Package view assembles the chart-ready model for one declarant.
package view

import (
	"math"
	"slices"

	"cruce/internal/conflict"
	"cruce/internal/core"
	"cruce/internal/format"
	"cruce/internal/income"
	"cruce/internal/timeline"
)

const (
	descriptionLimit = 260
	functionLimit    = 160
)

type (
	// PointView is one scatter point with its tooltip data.
	PointView struct {
		At          core.Instant   `json:"x"`
		Amount      float64        `json:"y"`
		AmountLabel string         `json:"montoTexto"`
		SymbolSize  float64        `json:"symbolSize"`
		Description string         `json:"descripcion,omitempty"`
		Buyer       string         `json:"institucionCompradora,omitempty"`
		Company     string         `json:"empresaRelacionada,omitempty"`
		Phase       timeline.Phase `json:"fase"`
	}

	// Marker is a vertical appointment line.
	Marker struct {
		At    core.Instant `json:"x"`
		Label string       `json:"label"`
	}

	Stats struct {
		StartCount  int `json:"inicio"`
		EndCount    int `json:"fin"`
		MarkerCount int `json:"tomas"`
	}

	// Timeline is everything the chart and the declarant card need. Domain
	// and Card are nil when there is nothing to show.
	Timeline struct {
		Query    string                `json:"nombre"`
		Count    int                   `json:"count"`
		Start    []PointView           `json:"inicio"`
		End      []PointView           `json:"fin"`
		Domain   *timeline.Domain      `json:"dominio,omitempty"`
		Bands    []timeline.MonthBand  `json:"bandas"`
		Markers  []Marker              `json:"tomas"`
		Phases   timeline.PhaseSummary `json:"fases"`
		Stats    Stats                 `json:"stats"`
		Card     *Card                 `json:"ficha,omitempty"`
		Conflict conflict.Result       `json:"conflicto"`
	}

	// Card is the declarant summary shown next to the chart.
	Card struct {
		Name              string              `json:"nombreDeclarante"`
		Institution       string              `json:"institucionDeclarante,omitempty"`
		PublicEntity      string              `json:"nombreEntePublico,omitempty"`
		GovernmentLevel   string              `json:"nivelOrdenGobierno,omitempty"`
		Position          string              `json:"puesto,omitempty"`
		Function          string              `json:"funcionPrincipal,omitempty"`
		RelatedCompany    string              `json:"empresaRelacionada,omitempty"`
		ParticipationType string              `json:"tipoParticipacion,omitempty"`
		Participation     core.Number         `json:"porcentajeParticipacion"`
		Remuneration      string              `json:"remuneracion,omitempty"`
		Sector            string              `json:"sector,omitempty"`
		Appointment       string              `json:"fechaTomaPosesion"`
		Income            *income.Composition `json:"ingresos,omitempty"`
		HasConflict       bool                `json:"hasConflicto"`
		CoincidentEntity  string              `json:"enteCoincidente,omitempty"`
	}
)

// BuildTimeline derives the full view for the records of one query. An empty
// record set gives a zero-count view with no domain and no card.
func BuildTimeline(query string, records []core.ContractRecord) Timeline {
	pts := timeline.ExtractPoints(records)
	markers := timeline.AppointmentMarkers(records)

	tl := Timeline{
		Query:    query,
		Count:    len(records),
		Start:    pointViews(pts.Start),
		End:      pointViews(pts.End),
		Bands:    []timeline.MonthBand{},
		Markers:  make([]Marker, 0, len(markers)),
		Phases:   timeline.Summarize(records),
		Conflict: conflict.Detect(records),
		Stats: Stats{
			StartCount:  len(pts.Start),
			EndCount:    len(pts.End),
			MarkerCount: len(markers),
		},
	}
	for _, at := range markers {
		tl.Markers = append(tl.Markers, Marker{At: at, Label: "Toma del cargo · " + format.LongDate(at)})
	}
	if d, ok := timeline.NewDomain(pts, markers); ok {
		tl.Domain = &d
		tl.Bands = slices.Collect(timeline.Bands(d))
	}
	if len(records) > 0 {
		card := BuildCard(records[0], tl.Conflict)
		tl.Card = &card
	}
	return tl
}

// BuildCard summarizes the declarant of rec.
func BuildCard(rec core.ContractRecord, c conflict.Result) Card {
	card := Card{
		Name:              rec.DeclarantName,
		Institution:       rec.DeclarantInstitution,
		PublicEntity:      rec.PublicEntity,
		GovernmentLevel:   format.Humanize(rec.GovernmentLevel),
		Position:          rec.Position,
		Function:          format.Truncate(rec.PrimaryFunction, functionLimit),
		RelatedCompany:    rec.RelatedCompany,
		ParticipationType: rec.ParticipationType,
		Participation:     rec.ParticipationPercentage,
		Sector:            rec.Sector,
		Appointment:       appointmentText(rec.AppointmentDate),
		HasConflict:       c.HasConflict,
		CoincidentEntity:  c.CoincidentEntity,
	}
	if rec.Remunerated != nil {
		card.Remuneration = "Sin remuneración"
		if *rec.Remunerated {
			card.Remuneration = "Con remuneración"
		}
	}
	if comp, ok := income.Compose(rec.Income); ok {
		card.Income = &comp
	}
	return card
}

// SymbolSize scales a point with its amount, within [8, 24].
func SymbolSize(amount float64) float64 {
	base := 10 + math.Sqrt(math.Max(0, amount))/180
	return math.Max(8, math.Min(base, 24))
}

func pointViews(pts []timeline.Point) []PointView {
	out := make([]PointView, 0, len(pts))
	for _, p := range pts {
		out = append(out, PointView{
			At:          p.At,
			Amount:      p.Amount,
			AmountLabel: format.Money(p.Amount),
			SymbolSize:  SymbolSize(p.Amount),
			Description: format.Truncate(p.Record.Description, descriptionLimit),
			Buyer:       p.Record.BuyingInstitution,
			Company:     p.Record.RelatedCompany,
			Phase:       timeline.Classify(*p.Record),
		})
	}
	return out
}

func appointmentText(raw *string) string {
	if at, ok := core.ParseInstantPtr(raw); ok {
		return format.LongDate(at)
	}
	if raw != nil && *raw != "" {
		return *raw
	}
	return "Sin fecha registrada"
}
