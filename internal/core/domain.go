package core

import (
	"errors"
	"math"
	"strings"
)

type (
	// ContractRecord is one declarant contract/appointment fact row as supplied
	// by the upstream API. Every field except the declarant name is optional.
	ContractRecord struct {
		DeclarantName        string `json:"nombreDeclarante"`
		InstitutionalEmail   string `json:"correoInstitucional,omitempty"`
		DeclarantInstitution string `json:"institucionDeclarante,omitempty"`
		PublicEntity         string `json:"nombreEntePublico,omitempty"`
		GovernmentLevel      string `json:"nivelOrdenGobierno,omitempty"`
		Position             string `json:"puesto,omitempty"`
		PrimaryFunction      string `json:"funcionPrincipal,omitempty"`

		RelatedCompany          string `json:"empresaRelacionada,omitempty"`
		ParticipationType       string `json:"tipoParticipacion,omitempty"`
		ParticipationPercentage Number `json:"porcentajeParticipacion"`
		Remunerated             *bool  `json:"remuneracion,omitempty"`
		Sector                  string `json:"sector,omitempty"`

		AppointmentDate   *string `json:"fechaTomaPosesion,omitempty"`
		ContractStartDate *string `json:"fechaInicioContrato,omitempty"`
		ContractEndDate   *string `json:"fechaFinContrato,omitempty"`
		Amount            Number  `json:"montoContrato"`
		Description       string  `json:"descripcionContrato,omitempty"`
		BuyingInstitution string  `json:"institucionCompradora,omitempty"`

		// SameEntity is derived upstream: the declarant's public entity matches
		// the contract's buying institution.
		SameEntity bool `json:"mismoEnteDeclaranteComprador"`

		Income *IncomeProfile `json:"ingresos,omitempty"`
	}

	// IncomeProfile is the sparse declared income breakdown. A nil field is
	// absent, which is distinct from a present zero.
	IncomeProfile struct {
		MonthlyPublicOfficeSalary Number `json:"remuneracionMensualCargoPublico"`
		AnnualPublicOfficeSalary  Number `json:"remuneracionAnualCargoPublico"`
		MonthlyNetDeclared        Number `json:"ingresoMensualNetoDeclarante"`
		AnnualNetDeclared         Number `json:"ingresoAnualNetoDeclarante"`
		TotalMonthlyNet           Number `json:"totalIngresosMensualesNetos"`
		TotalAnnualNet            Number `json:"totalIngresosAnualesNetos"`
		BusinessActivity          Number `json:"actividadEmpresarial"`
		FinancialActivity         Number `json:"actividadFinanciera"`
		ProfessionalServices      Number `json:"serviciosProfesionales"`
		OtherIncome               Number `json:"otrosIngresos"`
		AssetDisposal             Number `json:"enajenacionBienes"`
	}

	// CrossRow is a precomputed before/after aggregate for one declarant.
	CrossRow struct {
		DeclarantName   string         `json:"nombreDeclarante"`
		AppointmentDate *string        `json:"fechaTomaPosesion,omitempty"`
		TotalContracts  int            `json:"totalContratos"`
		ContractsBefore int            `json:"contratosAntes"`
		ContractsAfter  int            `json:"contratosDespues"`
		TotalAmount     float64        `json:"montoTotal"`
		Income          *IncomeProfile `json:"ingresos,omitempty"`
	}

	// ConflictRow is a precomputed aggregate of the contracts of one declarant
	// whose buying institution matches their own public entity.
	ConflictRow struct {
		DeclarantName    string         `json:"nombreDeclarante"`
		AppointmentDate  *string        `json:"fechaTomaPosesion,omitempty"`
		TotalContracts   int            `json:"totalContratos"`
		TotalAmount      float64        `json:"montoTotal"`
		CoincidentEntity string         `json:"enteCoincidente,omitempty"`
		Income           *IncomeProfile `json:"ingresos,omitempty"`
	}

	// SortKey selects the ordering of the before/after roster.
	SortKey string
)

const (
	SortByAmount SortKey = "monto"
	SortByCount  SortKey = "contratos"
)

var (
	ErrEmptyName      = errors.New("empty declarant name")
	ErrInvalidSortKey = errors.New("invalid sort key")
)

// ParseSortKey maps a query value to a SortKey. Blank defaults to amount.
func ParseSortKey(s string) (SortKey, error) {
	switch SortKey(strings.ToLower(strings.TrimSpace(s))) {
	case "", SortByAmount:
		return SortByAmount, nil
	case SortByCount:
		return SortByCount, nil
	default:
		return "", ErrInvalidSortKey
	}
}

// ValidAmount returns the contract amount when it is a finite number strictly
// greater than zero.
func (c ContractRecord) ValidAmount() (float64, bool) {
	v, ok := c.Amount.Get()
	if !ok || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Validate checks the one required field.
func (c ContractRecord) Validate() error {
	if strings.TrimSpace(c.DeclarantName) == "" {
		return ErrEmptyName
	}
	return nil
}

// AppointmentInstant normalizes the appointment date.
func (c ContractRecord) AppointmentInstant() (Instant, bool) {
	return ParseInstantPtr(c.AppointmentDate)
}

// StartInstant normalizes the contract start date.
func (c ContractRecord) StartInstant() (Instant, bool) {
	return ParseInstantPtr(c.ContractStartDate)
}

// EndInstant normalizes the contract end date.
func (c ContractRecord) EndInstant() (Instant, bool) {
	return ParseInstantPtr(c.ContractEndDate)
}

// IsEmpty reports whether no income field is present at all.
func (p *IncomeProfile) IsEmpty() bool {
	if p == nil {
		return true
	}
	for _, v := range []Number{
		p.MonthlyPublicOfficeSalary, p.AnnualPublicOfficeSalary,
		p.MonthlyNetDeclared, p.AnnualNetDeclared,
		p.TotalMonthlyNet, p.TotalAnnualNet,
		p.BusinessActivity, p.FinancialActivity, p.ProfessionalServices,
		p.OtherIncome, p.AssetDisposal,
	} {
		if v.Valid {
			return false
		}
	}
	return true
}

// String returns a pointer to s.
func String(s string) *string { return &s }

// Bool returns a pointer to b.
func Bool(b bool) *bool { return &b }
