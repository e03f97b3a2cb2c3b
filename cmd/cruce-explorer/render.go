package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"cruce/internal/core"
	"cruce/internal/format"
	"cruce/internal/roster"
	"cruce/internal/session"
	"cruce/internal/view"
)

const nameWidth = 48

func renderSuggestions(w io.Writer, s session.State) {
	if !s.ShowSuggestions || len(s.Suggestions) == 0 {
		return
	}
	for i, name := range s.Suggestions {
		cursor := "  "
		if i == s.Active {
			cursor = "> "
		}
		fmt.Fprintf(w, "%s%d. %s\n", cursor, i+1, name)
	}
}

func renderSearch(w io.Writer, s session.State) {
	switch {
	case s.Error != "":
		fmt.Fprintln(w, s.Error)
		return
	case s.NoMatches != "":
		fmt.Fprintln(w, s.NoMatches)
		return
	case s.View == nil:
		return
	}
	renderTimeline(w, s.View)
}

func renderTimeline(w io.Writer, tl *view.Timeline) {
	if c := tl.Card; c != nil {
		fmt.Fprintf(w, "%s\n", c.Name)
		for _, line := range [][2]string{
			{"Institución", c.Institution},
			{"Ente público", c.PublicEntity},
			{"Puesto", c.Position},
			{"Empresa", c.RelatedCompany},
			{"Toma del cargo", c.Appointment},
		} {
			if line[1] != "" {
				fmt.Fprintf(w, "  %s: %s\n", line[0], line[1])
			}
		}
		if inc := c.Income; inc != nil {
			fmt.Fprintf(w, "  Ingreso neto anual: %s\n", format.Money(inc.Total))
		}
	}

	fmt.Fprintf(w, "%s contratos · %d antes · %d después · %d durante · %d sin fecha\n",
		format.Count(tl.Count), tl.Phases.Before, tl.Phases.After, tl.Phases.Spanning, tl.Phases.Undetermined)
	for _, m := range tl.Markers {
		fmt.Fprintf(w, "  | %s\n", m.Label)
	}
	if tl.Conflict.HasConflict {
		fmt.Fprintf(w, "  ! Posible conflicto: %s compra a su propio ente (%d contratos)\n",
			tl.Conflict.CoincidentEntity, tl.Conflict.Flagged)
	}
}

func renderNames(w io.Writer, s session.State) {
	if s.ListError != "" {
		fmt.Fprintln(w, s.ListError)
		return
	}
	fmt.Fprintln(w, roster.Summary(roster.All, len(s.Declarants)))
	for _, n := range s.Declarants {
		fmt.Fprintf(w, "  %s\n", n)
	}
}

func renderCross(w io.Writer, rows []core.CrossRow, key core.SortKey) {
	fmt.Fprintf(w, "%s (orden: %s)\n", roster.Summary(roster.Cross, len(rows)), key)
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	fmt.Fprintln(tw, "Declarante\tToma\tAntes\tDespués\tTotal\tMonto\t")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%s\t\n",
			format.Truncate(r.DeclarantName, nameWidth), roster.AppointmentLabel(r.AppointmentDate),
			r.ContractsBefore, r.ContractsAfter, r.TotalContracts, format.Money(r.TotalAmount))
	}
	tw.Flush()
}

func renderConflicts(w io.Writer, rows []core.ConflictRow) {
	fmt.Fprintln(w, roster.Summary(roster.Conflict, len(rows)))
	if len(rows) == 0 {
		return
	}
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "Declarante\tEnte coincidente\tContratos\tMonto")
	for _, r := range rows {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n",
			format.Truncate(r.DeclarantName, nameWidth), r.CoincidentEntity, r.TotalContracts, format.Money(r.TotalAmount))
	}
	tw.Flush()
}

const helpText = `Comandos:
  sugerir <texto>     sugerencias de nombres
  arriba | abajo      mover la selección
  elegir              buscar la sugerencia activa
  buscar <nombre>     línea de tiempo de un declarante
  lista               padrón de declarantes
  cruce [monto|contratos]
  conflicto           casos ente / comprador
  salir`

// parseCommand splits a line into a lower-case verb and its argument.
func parseCommand(line string) (verb, arg string) {
	line = strings.TrimSpace(line)
	verb, arg, _ = strings.Cut(line, " ")
	return strings.ToLower(verb), strings.TrimSpace(arg)
}
