// Package income derives the percentage breakdown of a declarant's declared
// annual income.
package income

import (
	"math"

	"cruce/internal/core"
)

const (
	minBarWidth = 3.0
	maxBarWidth = 100.0
)

// Category is one included income source.
type Category struct {
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Color    string  `json:"color"`
	Value    float64 `json:"value"`
	Share    float64 `json:"share"`
	BarWidth float64 `json:"barWidth"`
}

// Composition is the headline total and its categories in display order.
// Shares are independent and need not add up to 100.
type Composition struct {
	Total      float64    `json:"total"`
	Categories []Category `json:"categories"`
}

type candidate struct {
	key, label, color string
	pick              func(*core.IncomeProfile) core.Number
}

var candidates = []candidate{
	{"remuneracionAnualCargoPublico", "Cargo público", "#0ea5e9", func(p *core.IncomeProfile) core.Number { return p.AnnualPublicOfficeSalary }},
	{"actividadEmpresarial", "Actividad empresarial", "#22c55e", func(p *core.IncomeProfile) core.Number { return p.BusinessActivity }},
	{"serviciosProfesionales", "Servicios profesionales", "#f97316", func(p *core.IncomeProfile) core.Number { return p.ProfessionalServices }},
	{"otrosIngresos", "Otros ingresos", "#eab308", func(p *core.IncomeProfile) core.Number { return p.OtherIncome }},
	{"enajenacionBienes", "Enajenación de bienes", "#a855f7", func(p *core.IncomeProfile) core.Number { return p.AssetDisposal }},
	{"actividadFinanciera", "Actividad financiera", "#a71a67", func(p *core.IncomeProfile) core.Number { return p.FinancialActivity }},
}

// HeadlineTotal picks the first present total in priority order: total annual
// net income, annual net income declared, annual public-office salary. The
// picked value must be positive; a present zero does not fall through.
func HeadlineTotal(p *core.IncomeProfile) (float64, bool) {
	if p == nil {
		return 0, false
	}
	for _, n := range []core.Number{p.TotalAnnualNet, p.AnnualNetDeclared, p.AnnualPublicOfficeSalary} {
		if v, ok := n.Get(); ok {
			return v, positive(v)
		}
	}
	return 0, false
}

// Compose returns the composition of p, or false when there is no usable
// total or no positive category.
func Compose(p *core.IncomeProfile) (Composition, bool) {
	total, ok := HeadlineTotal(p)
	if !ok {
		return Composition{}, false
	}
	var cats []Category
	for _, c := range candidates {
		v, ok := c.pick(p).Get()
		if !ok || !positive(v) {
			continue
		}
		share := v * 100 / total
		cats = append(cats, Category{
			Key:      c.key,
			Label:    c.label,
			Color:    c.color,
			Value:    v,
			Share:    share,
			BarWidth: math.Min(math.Max(share, minBarWidth), maxBarWidth),
		})
	}
	if len(cats) == 0 {
		return Composition{}, false
	}
	return Composition{Total: total, Categories: cats}, true
}

func positive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0) && !math.IsNaN(v)
}
