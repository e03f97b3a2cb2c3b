package core

import (
	"bytes"
	"strconv"

	json "github.com/goccy/go-json"
)

// DateText is an optional date field as the dataset writes it. Only a JSON
// string is kept; numbers, objects and null decode as absent.
type DateText struct {
	Text  string
	Valid bool
}

func (d *DateText) UnmarshalJSON(b []byte) error {
	*d = DateText{}
	b = bytes.TrimSpace(b)
	if len(b) == 0 || b[0] != '"' {
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return nil
	}
	*d = DateText{Text: s, Valid: true}
	return nil
}

// Ptr returns the text, or nil when absent.
func (d DateText) Ptr() *string {
	if !d.Valid {
		return nil
	}
	return String(d.Text)
}

// Flag is an optional boolean. It accepts a JSON boolean or a "true"/"false"
// string; anything else is absent.
type Flag struct {
	Value bool
	Valid bool
}

func (f *Flag) UnmarshalJSON(b []byte) error {
	*f = Flag{}
	s := string(bytes.TrimSpace(b))
	if len(s) > 0 && s[0] == '"' {
		unq, err := strconv.Unquote(s)
		if err != nil {
			return nil
		}
		s = unq
	}
	if v, err := strconv.ParseBool(s); err == nil {
		*f = Flag{Value: v, Valid: true}
	}
	return nil
}

// Ptr returns the value, or nil when absent.
func (f Flag) Ptr() *bool {
	if !f.Valid {
		return nil
	}
	return Bool(f.Value)
}

// UnmarshalJSON decodes a record so that a malformed date or remuneration
// flag drops only that field.
func (c *ContractRecord) UnmarshalJSON(b []byte) error {
	type plain ContractRecord
	var aux struct {
		plain
		Remunerated       Flag     `json:"remuneracion"`
		AppointmentDate   DateText `json:"fechaTomaPosesion"`
		ContractStartDate DateText `json:"fechaInicioContrato"`
		ContractEndDate   DateText `json:"fechaFinContrato"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*c = ContractRecord(aux.plain)
	c.Remunerated = aux.Remunerated.Ptr()
	c.AppointmentDate = aux.AppointmentDate.Ptr()
	c.ContractStartDate = aux.ContractStartDate.Ptr()
	c.ContractEndDate = aux.ContractEndDate.Ptr()
	return nil
}

func (r *CrossRow) UnmarshalJSON(b []byte) error {
	type plain CrossRow
	var aux struct {
		plain
		AppointmentDate DateText `json:"fechaTomaPosesion"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = CrossRow(aux.plain)
	r.AppointmentDate = aux.AppointmentDate.Ptr()
	return nil
}

func (r *ConflictRow) UnmarshalJSON(b []byte) error {
	type plain ConflictRow
	var aux struct {
		plain
		AppointmentDate DateText `json:"fechaTomaPosesion"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*r = ConflictRow(aux.plain)
	r.AppointmentDate = aux.AppointmentDate.Ptr()
	return nil
}
