package server

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/matzehuels/stagegraph/pkg/buildinfo"
	"github.com/matzehuels/stagegraph/pkg/dag/build"
	"github.com/matzehuels/stagegraph/pkg/errors"
	"github.com/matzehuels/stagegraph/pkg/layout"
	"github.com/matzehuels/stagegraph/pkg/observability"
	"github.com/matzehuels/stagegraph/pkg/runner"
	"github.com/matzehuels/stagegraph/pkg/session"
	"github.com/matzehuels/stagegraph/pkg/stage"
)

// layoutRequest is a pipeline or an execution with its view state, plus
// per-request options.
type layoutRequest struct {
	stage.Input
	Options requestOptions `json:"options"`
}

type requestOptions struct {
	Width            float64  `json:"width,omitempty"`
	Formats          []string `json:"formats,omitempty"`
	Detailed         bool     `json:"detailed,omitempty"`
	ShowPlaceholders bool     `json:"show_placeholders,omitempty"`
	Refresh          bool     `json:"refresh,omitempty"`
}

type layoutResponse struct {
	Layout    layout.Document   `json:"layout"`
	Artifacts map[string]string `json:"artifacts,omitempty"` // every format but json
	Stats     statsResponse     `json:"stats"`
	Cached    bool              `json:"cached"`
}

type statsResponse struct {
	Nodes        int   `json:"nodes"`
	Links        int   `json:"links"`
	Placeholders int   `json:"placeholders"`
	Phases       int   `json:"phases"`
	LayoutMillis int64 `json:"layout_ms"`
	RenderMillis int64 `json:"render_ms"`
}

type sessionResponse struct {
	ID     string          `json:"id"`
	Full   bool            `json:"full"` // whether the change needed a full layout
	Layout layout.Document `json:"layout"`
}

type hoverResponse struct {
	ID      string          `json:"id"`
	Node    string          `json:"node"`
	Changed bool            `json:"changed"`
	Layout  layout.Document `json:"layout"`
}

type widthRequest struct {
	Width float64 `json:"width"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "version": buildinfo.Version, "sessions": s.sessions.Len()})
}

func (s *Server) handleLayout(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}

	res, err := s.runner.Execute(r.Context(), req.Input, s.requestOptions(req.Options))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	resp := layoutResponse{
		Layout: res.Document,
		Stats: statsResponse{
			Nodes:        res.Stats.NodeCount,
			Links:        res.Stats.LinkCount,
			Placeholders: res.Stats.PlaceholderCount,
			Phases:       res.Stats.PhaseCount,
			LayoutMillis: res.Stats.LayoutTime.Milliseconds(),
			RenderMillis: res.Stats.RenderTime.Milliseconds(),
		},
		Cached: res.CacheInfo.LayoutHit,
	}
	for format, data := range res.Artifacts {
		if format == runner.FormatJSON {
			continue
		}
		if resp.Artifacts == nil {
			resp.Artifacts = make(map[string]string)
		}
		resp.Artifacts[format] = string(data)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req layoutRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	opts := s.requestOptions(req.Options)
	if err := opts.ValidateAndSetDefaults(); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, err := build.FromInput(req.Input)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	engine, err := layout.NewEngine(opts.Layout, opts.MeasureFunc())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	l, err := s.observeFull(r.Context(), src.Mode(), req.StageCount(), func() (*layout.Layout, error) {
		return engine.Recompute(src, req.ViewState)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sess, err := session.New(engine, s.ttl)
	if err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "create session"))
		return
	}
	if err := s.sessions.Set(r.Context(), sess); err != nil {
		s.writeError(w, r, errors.Wrap(errors.ErrCodeInternal, err, "store session"))
		return
	}
	s.logger.Debug("session created", "session", sess.ID, "mode", src.Mode())
	writeJSON(w, http.StatusCreated, sessionResponse{ID: sess.ID, Full: true, Layout: layout.Export(l)})
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, Layout: layout.Export(sess.Engine.Current())})
}

// handleUpdateSession applies a new snapshot of the pipeline or execution.
// An unchanged topology only refreshes the selection.
func (s *Server) handleUpdateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var in stage.Input
	if err := decodeBody(w, r, &in); err != nil {
		s.writeError(w, r, err)
		return
	}
	if err := in.Validate(); err != nil {
		s.writeError(w, r, err)
		return
	}
	src, err := build.FromInput(in)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	l, full, err := sess.Engine.Update(r.Context(), src, in.ViewState)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, Full: full, Layout: layout.Export(l)})
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var vs stage.ViewState
	if err := decodeBody(w, r, &vs); err != nil {
		s.writeError(w, r, err)
		return
	}

	start := time.Now()
	l, err := sess.Engine.RefreshState(vs)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	observability.Layout().OnStateRefresh(r.Context(), l.Mode, time.Since(start))
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, Layout: layout.Export(l)})
}

func (s *Server) handleWidth(w http.ResponseWriter, r *http.Request) {
	sess, err := s.session(r)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	var req widthRequest
	if err := decodeBody(w, r, &req); err != nil {
		s.writeError(w, r, err)
		return
	}
	if req.Width <= 0 {
		s.writeError(w, r, errors.New(errors.ErrCodeInvalidInput, "width must be positive"))
		return
	}

	cur := sess.Engine.Current()
	l, err := s.observeFull(r.Context(), cur.Mode, cur.Graph.NodeCount(), func() (*layout.Layout, error) {
		return sess.Engine.Resize(req.Width)
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, sessionResponse{ID: sess.ID, Full: true, Layout: layout.Export(l)})
}

func (s *Server) handleHover(on bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, err := s.session(r)
		if err != nil {
			s.writeError(w, r, err)
			return
		}
		id := chi.URLParam(r, "node")
		if _, ok := sess.Engine.Current().Node(id); !ok {
			s.writeError(w, r, errors.New(errors.ErrCodeNotFound, "node %q not found", id))
			return
		}
		l, changed := sess.Engine.Highlight(id, on)
		writeJSON(w, http.StatusOK, hoverResponse{ID: sess.ID, Node: id, Changed: changed, Layout: layout.Export(l)})
	}
}

func (s *Server) handleDeleteSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.sessions.Delete(r.Context(), id); err != nil {
		if stderrors.Is(err, session.ErrNotFound) {
			err = errors.New(errors.ErrCodeNotFound, "session %q not found", id)
		}
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) session(r *http.Request) (*session.Session, error) {
	id := chi.URLParam(r, "id")
	sess, err := s.sessions.Get(r.Context(), id)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err, "load session")
	}
	if sess == nil || sess.Engine.Current() == nil {
		return nil, errors.New(errors.ErrCodeNotFound, "session %q not found", id)
	}
	return sess, nil
}

// observeFull runs a full layout and reports it to the layout hooks.
func (s *Server) observeFull(ctx context.Context, mode string, stages int, fn func() (*layout.Layout, error)) (*layout.Layout, error) {
	observability.Layout().OnLayoutStart(ctx, mode, stages)
	start := time.Now()
	l, err := fn()
	nodes := 0
	if l != nil {
		nodes = l.Graph.NodeCount()
	}
	observability.Layout().OnLayoutComplete(ctx, mode, nodes, time.Since(start), err)
	return l, err
}

func (s *Server) requestOptions(req requestOptions) runner.Options {
	opts := s.base
	if req.Width != 0 {
		opts.Layout.Width = req.Width
	}
	if len(req.Formats) > 0 {
		opts.Formats = req.Formats
	}
	opts.Detailed = opts.Detailed || req.Detailed
	opts.ShowPlaceholders = opts.ShowPlaceholders || req.ShowPlaceholders
	opts.Refresh = req.Refresh
	return opts
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidFormat, err, "decode request body")
	}
	return nil
}
