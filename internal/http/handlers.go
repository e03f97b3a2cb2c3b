package http

import (
	"context"
	"errors"
	"net/http"

	"cruce/internal/core"
	"cruce/internal/log"
	"cruce/internal/roster"
	"cruce/internal/session"
	"cruce/internal/source"
	"cruce/internal/view"
)

// listResponse wraps every roster and suggestion payload.
type listResponse[T any] struct {
	Items   []T          `json:"items"`
	Count   int          `json:"count"`
	Summary string       `json:"summary,omitempty"`
	SortBy  core.SortKey `json:"sortBy,omitempty"`
}

func newList[T any](items []T) listResponse[T] {
	if items == nil {
		items = []T{}
	}
	return listResponse[T]{Items: items, Count: len(items)}
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.ready != nil {
		if err := s.ready(r.Context()); err != nil {
			log.FromContext(r.Context()).WarnContext(r.Context(), "Readiness check failed", log.FieldError, err)
			_ = ServiceUnavailableError("not ready").Write(w)
			return
		}
	}
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}

func (s *Server) handleTimeline(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	logger := log.FromContext(ctx)

	name, err := ParseName(r.URL.Query(), "nombre")
	if err != nil {
		msg := session.MsgEmptyQuery
		if errors.Is(err, ErrNameTooLong) {
			msg = "El nombre es demasiado largo"
		}
		_ = BadRequestError(msg).Write(w)
		return
	}

	records, err := s.src.ContractsByName(ctx, name)
	if err != nil {
		s.upstreamError(w, r, log.OpSearch, session.MsgFetchFailed, err)
		return
	}

	tl := view.BuildTimeline(name, records)
	log.NewStructuredLogger(logger).LogSearch(ctx, name, len(records), tl.Conflict.HasConflict)

	if tl.Conflict.HasConflict && s.notifier != nil {
		if err := s.notifier.NotifyConflict(ctx, name, tl.Conflict); err != nil {
			logger.WithComponent(log.ComponentAMQP).WarnContext(ctx, "Conflict notification failed",
				log.FieldDeclarant, name, log.FieldError, err)
		}
	}

	_ = NewJSONResponse().Body(tl).Write(w)
}

func (s *Server) handleSuggest(w http.ResponseWriter, r *http.Request) {
	q := ParseSuggestQuery(r.URL.Query())
	if len([]rune(q)) < source.MinSuggestLength {
		_ = NewJSONResponse().Body(newList[string](nil)).Write(w)
		return
	}

	items, err := s.src.Suggest(r.Context(), q)
	if err != nil {
		s.upstreamError(w, r, log.OpSuggest, "No se pudieron obtener sugerencias.", err)
		return
	}
	_ = NewJSONResponse().Body(newList(items)).Write(w)
}

func (s *Server) handleDeclarants(w http.ResponseWriter, r *http.Request) {
	names, err := s.src.ListDeclarants(r.Context())
	if err != nil {
		s.upstreamError(w, r, log.OpRoster, session.MsgRosterFailed, err)
		return
	}
	resp := newList(names)
	resp.Summary = roster.Summary(roster.All, resp.Count)
	_ = NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleCross(w http.ResponseWriter, r *http.Request) {
	key, err := ParseSortKey(r.URL.Query())
	if err != nil {
		_ = BadRequestError("sort_by debe ser monto o contratos").Write(w)
		return
	}

	rows, err := s.src.CrossRoster(r.Context(), key)
	if err != nil {
		s.upstreamError(w, r, log.OpCross, "No se pudo obtener el cruce de contratos.", err)
		return
	}
	roster.SortCross(rows, key)

	resp := newList(rows)
	resp.Summary = roster.Summary(roster.Cross, resp.Count)
	resp.SortBy = key
	_ = NewJSONResponse().Body(resp).Write(w)
}

func (s *Server) handleConflict(w http.ResponseWriter, r *http.Request) {
	rows, err := s.src.ConflictRoster(r.Context())
	if err != nil {
		s.upstreamError(w, r, log.OpConflict, "No se pudo obtener la lista de conflictos.", err)
		return
	}
	roster.SortConflict(rows)

	resp := newList(rows)
	resp.Summary = roster.Summary(roster.Conflict, resp.Count)
	_ = NewJSONResponse().Body(resp).Write(w)
}

// upstreamError logs a failed fetch and answers 502. A request the client
// already abandoned gets no body.
func (s *Server) upstreamError(w http.ResponseWriter, r *http.Request, op, msg string, err error) {
	ctx := r.Context()
	if errors.Is(err, context.Canceled) && ctx.Err() != nil {
		return
	}
	log.NewStructuredLogger(log.FromContext(ctx)).LogError(ctx, "Upstream fetch failed", err, log.ComponentSource, op, nil)
	_ = BadGatewayError(msg).Write(w)
}
