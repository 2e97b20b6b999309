package server

import (
	"bytes"
	"net/http"

	"go.uber.org/zap"

	"github.com/athanius07/EMESRT11/internal/refresh"
	"github.com/athanius07/EMESRT11/internal/store"
	"github.com/athanius07/EMESRT11/internal/view"
)

// RefreshResponse is the body of the refresh trigger.
type RefreshResponse struct {
	OK    bool   `json:"ok"`
	Count int    `json:"count"`
	TS    string `json:"ts"`
}

// HealthResponse reports liveness and which kind of store a request got.
type HealthResponse struct {
	Status string `json:"status"`
	Store  string `json:"store"`
}

func (s *Server) orchestrator(st store.Store, logger *zap.Logger) *refresh.Orchestrator {
	opts := []refresh.Option{refresh.WithLogger(logger)}
	if s.metrics != nil {
		opts = append(opts, refresh.WithMetrics(s.metrics))
	}
	if s.clock != nil {
		opts = append(opts, refresh.WithClock(s.clock))
	}
	return refresh.New(s.provider, st, opts...)
}

func (s *Server) requestLogger(r *http.Request) *zap.Logger {
	return s.logger.With(zap.String("request_id", RequestIDFrom(r.Context())))
}

// handleRead serves the filtered dataset as JSON or CSV.
func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := view.ParseQuery(r.URL.Query())

	st := s.openStore(ctx)
	defer st.Close()

	orch := s.orchestrator(st, s.requestLogger(r))
	var (
		res refresh.Result
		err error
	)
	if q.Cached {
		res, err = orch.Cached(ctx)
	} else {
		res, err = orch.Refresh(ctx)
	}
	if err != nil {
		s.errors.HandleRefreshError(w, r, err)
		return
	}

	rows := view.Filter(res.Snapshot, q.Toggles)

	var buf bytes.Buffer
	if q.Format == view.FormatCSV {
		if err := view.WriteCSV(&buf, rows); err != nil {
			s.errors.Write(w, r, http.StatusInternalServerError, CodeInternal, "encode csv")
			return
		}
		w.Header().Set("Content-Type", view.ContentTypeCSV)
		w.Header().Set("Content-Disposition", view.ContentDisposition)
		s.writeBody(w, http.StatusOK, buf.Bytes())
		return
	}

	resp := view.NewResponse(res.GeneratedAt, rows, res.Changelog, q.IncludeChangelog)
	s.writeJSON(w, r, http.StatusOK, resp)
}

// handleRefresh always performs a full refresh.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	st := s.openStore(ctx)
	defer st.Close()

	res, err := s.orchestrator(st, s.requestLogger(r)).Refresh(ctx)
	if err != nil {
		s.errors.HandleRefreshError(w, r, err)
		return
	}

	s.writeJSON(w, r, http.StatusOK, RefreshResponse{
		OK:    true,
		Count: len(res.Snapshot),
		TS:    res.GeneratedAt,
	})
}

// handleHealth is always 200. The store field shows whether requests are
// currently landing on a durable or an ephemeral store.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	st := s.openStore(r.Context())
	defer st.Close()

	s.writeJSON(w, r, http.StatusOK, HealthResponse{
		Status: "healthy",
		Store:  st.Kind().String(),
	})
}

func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := view.WriteJSON(&buf, v); err != nil {
		s.errors.Write(w, r, http.StatusInternalServerError, CodeInternal, "encode response")
		return
	}
	w.Header().Set("Content-Type", view.ContentTypeJSON)
	s.writeBody(w, status, buf.Bytes())
}

func (s *Server) writeBody(w http.ResponseWriter, status int, body []byte) {
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		s.logger.Debug("write response body", zap.Error(err))
	}
}
