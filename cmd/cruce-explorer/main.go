// Command cruce-explorer is a line-oriented front end over one explorer
// session.
package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"slices"
	"sync"

	"cruce/internal/backend"
	"cruce/internal/cli"
	"cruce/internal/core"
	"cruce/internal/log"
	"cruce/internal/session"
)

func main() {
	cli.LoadEnvFile()
	cfg := cli.LoadAndValidateConfig()
	logger := cli.SetupLogger(cfg)

	ctx, stop := cli.SignalContext(logger)
	defer stop()

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		cli.Fatal(logger, "Invalid backend configuration", err, log.FieldBackend, cfg.DataBackend)
	}
	result, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		cli.Fatal(logger, "Failed to initialize backend", err, log.FieldBackend, cfg.DataBackend)
	}
	defer result.Close()

	r := newREPL(os.Stdout)
	explorer := session.New(result.Source,
		session.WithDebounce(session.NewDebouncer(cfg.SuggestDebounce)),
		session.WithLogger(logger),
		session.WithOnChange(r.onChange),
	)
	defer explorer.Close()
	r.explorer = explorer

	// Stdin has no deadline; a signal only stops the next command.
	r.run(ctx, os.Stdin)
}

type repl struct {
	explorer *session.Explorer

	mu        sync.Mutex
	out       io.Writer
	lastShown []string
	lastIdx   int
}

func newREPL(out io.Writer) *repl {
	return &repl{out: out, lastIdx: -1}
}

// onChange prints the suggestion list whenever it or its cursor moves.
func (r *repl) onChange(s session.State) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shown := s.Suggestions
	if !s.ShowSuggestions {
		shown = nil
	}
	if slices.Equal(shown, r.lastShown) && s.Active == r.lastIdx {
		return
	}
	r.lastShown, r.lastIdx = shown, s.Active
	renderSuggestions(r.out, s)
}

func (r *repl) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.out, format, args...)
}

func (r *repl) render(fn func(io.Writer)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fn(r.out)
}

func (r *repl) run(ctx context.Context, in io.Reader) {
	r.printf("%s\n", helpText)
	scanner := bufio.NewScanner(in)
	for {
		r.printf("cruce> ")
		if !scanner.Scan() || ctx.Err() != nil {
			return
		}
		if !r.exec(ctx, scanner.Text()) {
			return
		}
	}
}

// exec runs one command line and reports whether to keep reading.
func (r *repl) exec(ctx context.Context, line string) bool {
	verb, arg := parseCommand(line)
	e := r.explorer
	switch verb {
	case "":
	case "salir", "exit", "quit":
		return false
	case "ayuda", "help":
		r.printf("%s\n", helpText)
	case "sugerir":
		e.Type(arg)
	case "arriba":
		e.MoveSelection(-1)
	case "abajo":
		e.MoveSelection(1)
	case "elegir":
		_ = e.Accept(ctx)
		r.render(func(w io.Writer) { renderSearch(w, e.State()) })
	case "buscar":
		_ = e.Search(ctx, arg)
		r.render(func(w io.Writer) { renderSearch(w, e.State()) })
	case "lista":
		_ = e.LoadRosters(ctx)
		r.render(func(w io.Writer) { renderNames(w, e.State()) })
	case "cruce":
		if arg != "" {
			key, err := core.ParseSortKey(arg)
			if err != nil {
				r.printf("%v\n", err)
				return true
			}
			if err := e.SetCrossSort(ctx, key); err != nil {
				r.printf("%v\n", err)
			}
		} else {
			_ = e.LoadRosters(ctx)
		}
		s := e.State()
		r.render(func(w io.Writer) { renderCross(w, s.Cross, s.CrossSort) })
	case "conflicto":
		_ = e.LoadRosters(ctx)
		r.render(func(w io.Writer) { renderConflicts(w, e.State().Conflicts) })
	default:
		r.printf("Comando desconocido: %s\n", verb)
	}
	return true
}
