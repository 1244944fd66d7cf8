// Package server exposes the projection engine over HTTP: selection
// validation, projection description, and the entity catalog.
package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/shapecast/shapecast/internal/entity"
	"github.com/shapecast/shapecast/internal/eventbus"
	"github.com/shapecast/shapecast/internal/events"
	"github.com/shapecast/shapecast/internal/manifest"
	"github.com/shapecast/shapecast/internal/page"
	"github.com/shapecast/shapecast/internal/project"
	"github.com/shapecast/shapecast/internal/reqid"
	"github.com/shapecast/shapecast/internal/selection"
	"github.com/shapecast/shapecast/internal/shape"
	"github.com/shapecast/shapecast/internal/validate"
)

// Handler serves the projection API. The graph is read through a snapshot
// function so serve-mode hot reload can swap it atomically between
// requests.
type Handler struct {
	snapshot func() *manifest.Graph
	opt      Options
}

// Options configures the handler.
type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxBodyBytes limits the size of the request body. 0 means unlimited.
	MaxBodyBytes int64

	// MaxDepth bounds accepted selection depth. 0 means the validator default.
	MaxDepth int

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                 { return func(o *Options) { o.Pretty = true } }
func WithMaxBodyBytes(n int64) Option    { return func(o *Options) { o.MaxBodyBytes = n } }
func WithMaxDepth(n int) Option          { return func(o *Options) { o.MaxDepth = n } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// New creates a handler over the given graph snapshot function.
func New(snapshot func() *manifest.Graph, opts ...Option) *Handler {
	op := Options{Timeout: 10 * time.Second}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{snapshot: snapshot, opt: op}
}

// Router mounts the API routes.
func (h *Handler) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(h.instrument)
	r.Post("/v1/validate", h.handleValidate)
	r.Post("/v1/projection", h.handleProjection)
	r.Get("/v1/entities", h.handleCatalog)
	r.Get("/v1/entities/{name}", h.handleEntity)
	r.Get("/v1/scalars", h.handleScalars)
	return r
}

// instrument applies timeout, request ID, CORS, and lifecycle events.
func (h *Handler) instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
			defer cancel()
		}
		ctx, _ = reqid.NewContext(ctx)
		r = r.WithContext(ctx)

		if len(h.opt.CORS.AllowedOrigins) > 0 {
			setCORSHeaders(w, r, h.opt.CORS)
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}

		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		eventbus.Publish(ctx, events.HTTPStart{Request: r})
		next.ServeHTTP(sw, r)
		eventbus.Publish(ctx, events.HTTPFinish{Request: r, Status: sw.status, Duration: time.Since(start)})
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}

// ------------------ Request parsing ------------------

// Request is one validation or projection request. The selection arrives
// either as the JSON tree or as GraphQL-style shorthand in Query; the base
// entity is named directly or through a read action, which also carries
// the pagination contract for Page.
type Request struct {
	Entity    string         `json:"entity,omitempty"`
	Action    string         `json:"action,omitempty"`
	Selection selection.List `json:"selection,omitempty"`
	Query     string         `json:"query,omitempty"`
	Page      map[string]any `json:"page,omitempty"`
}

func (h *Handler) parseBody(r *http.Request) (Request, []Request, *requestError) {
	ct := r.Header.Get("Content-Type")
	if ct != "" && ct != "application/json" && !strings.HasPrefix(ct, "application/json;") {
		return Request{}, nil, badRequest("unsupported Content-Type")
	}
	reader := io.Reader(r.Body)
	if h.opt.MaxBodyBytes > 0 {
		reader = io.LimitReader(r.Body, h.opt.MaxBodyBytes+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return Request{}, nil, badRequest("failed to read body")
	}
	defer r.Body.Close()
	if h.opt.MaxBodyBytes > 0 && int64(len(body)) > h.opt.MaxBodyBytes {
		return Request{}, nil, &requestError{status: http.StatusRequestEntityTooLarge, message: "body too large"}
	}

	// Array bodies are batches.
	if len(body) > 0 && body[0] == '[' {
		var batch []Request
		if err := json.Unmarshal(body, &batch); err != nil {
			return Request{}, nil, badRequest("invalid JSON: " + err.Error())
		}
		if len(batch) == 0 {
			return Request{}, nil, badRequest("empty batch")
		}
		return Request{}, batch, nil
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		return Request{}, nil, badRequest("invalid JSON: " + err.Error())
	}
	return req, nil, nil
}

type requestError struct {
	status  int
	message string
}

func badRequest(msg string) *requestError {
	return &requestError{status: http.StatusBadRequest, message: msg}
}

// ------------------ Response formatting ------------------

type errorBody struct {
	Kind    validate.ErrorKind `json:"kind,omitempty"`
	Path    selection.Path     `json:"path,omitempty"`
	Name    string             `json:"name,omitempty"`
	Message string             `json:"message"`
}

type result struct {
	Valid bool         `json:"valid,omitempty"`
	Shape *shape.Shape `json:"shape,omitempty"`
	Error *errorBody   `json:"error,omitempty"`
}

func validationError(err *validate.Error) *errorBody {
	return &errorBody{Kind: err.Kind, Path: err.Path, Name: err.Name, Message: err.Error()}
}

// ------------------ Endpoints ------------------

func (h *Handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	h.serveSelection(w, r, false)
}

func (h *Handler) handleProjection(w http.ResponseWriter, r *http.Request) {
	h.serveSelection(w, r, true)
}

func (h *Handler) serveSelection(w http.ResponseWriter, r *http.Request, projectShape bool) {
	req, batch, rerr := h.parseBody(r)
	if rerr != nil {
		h.writeJSON(w, rerr.status, result{Error: &errorBody{Message: rerr.message}})
		return
	}

	graph := h.snapshot()
	if batch != nil {
		out := make([]result, len(batch))
		for i := range batch {
			res, rerr := h.executeOne(r.Context(), graph, batch[i], projectShape)
			if rerr != nil {
				res = result{Error: &errorBody{Message: rerr.message}}
			}
			out[i] = res
		}
		h.writeJSON(w, http.StatusOK, out)
		return
	}

	res, rerr := h.executeOne(r.Context(), graph, req, projectShape)
	if rerr != nil {
		h.writeJSON(w, rerr.status, result{Error: &errorBody{Message: rerr.message}})
		return
	}
	h.writeJSON(w, http.StatusOK, res)
}

// executeOne resolves the target entity, validates the selection, and for
// projection requests computes the (possibly paginated) shape. Selection
// validation failures are results, not transport errors.
func (h *Handler) executeOne(ctx context.Context, graph *manifest.Graph, req Request, projectShape bool) (result, *requestError) {
	var act *manifest.Action
	entityName := req.Entity
	switch {
	case req.Action != "" && req.Entity != "":
		return result{}, badRequest("request names both entity and action")
	case req.Action != "":
		a, ok := graph.Actions[req.Action]
		if !ok {
			return result{}, &requestError{status: http.StatusNotFound, message: "unknown action " + req.Action}
		}
		act = a
		entityName = a.Entity
	case req.Entity == "":
		return result{}, badRequest("request names neither entity nor action")
	}

	ent, ok := graph.Registry.Lookup(entityName)
	if !ok {
		return result{}, &requestError{status: http.StatusNotFound, message: "unknown entity " + entityName}
	}

	sel := req.Selection
	if req.Query != "" {
		if sel != nil {
			return result{}, badRequest("request carries both selection and query")
		}
		parsed, err := selection.ParseShorthand(req.Query)
		if err != nil {
			return result{}, badRequest("invalid query: " + err.Error())
		}
		sel = parsed
	}
	if req.Page != nil && act == nil {
		return result{}, badRequest("page parameter requires an action")
	}

	start := time.Now()
	eventbus.Publish(ctx, events.ProjectionStart{Entity: entityName, Action: req.Action})
	res, verr := h.describe(graph.Registry, ent, act, sel, req.Page, projectShape)
	var finishErr error
	if verr != nil {
		finishErr = verr
	}
	eventbus.Publish(ctx, events.ProjectionFinish{
		Entity:   entityName,
		Action:   req.Action,
		Err:      finishErr,
		Duration: time.Since(start),
	})
	if verr != nil {
		return result{Error: validationError(verr)}, nil
	}
	return res, nil
}

func (h *Handler) describe(reg *entity.Registry, ent *entity.Entity, act *manifest.Action, sel selection.List, pageParam map[string]any, projectShape bool) (result, *validate.Error) {
	if !projectShape {
		v := &validate.Validator{Registry: reg, MaxDepth: h.opt.MaxDepth}
		if err := v.Validate(ent, sel); err != nil {
			return result{}, err
		}
		return result{Valid: true}, nil
	}

	proj := &project.Projector{Registry: reg, MaxDepth: h.opt.MaxDepth}
	s, err := proj.DescribeProjection(ent, sel)
	if err != nil {
		return result{}, err
	}
	if act != nil {
		var offset, keyset page.Envelope
		if act.Offset {
			offset = page.OffsetEnvelope
		}
		if act.Keyset {
			keyset = page.KeysetEnvelope
		}
		wrapped, perr := page.Resolve(pageParam, s, offset, keyset)
		if perr != nil {
			return result{}, perr
		}
		s = wrapped
	}
	return result{Shape: s}, nil
}

// ------------------ Catalog ------------------

type catalogEntry struct {
	Name string      `json:"name"`
	Kind entity.Kind `json:"kind"`
}

func (h *Handler) handleCatalog(w http.ResponseWriter, r *http.Request) {
	graph := h.snapshot()
	names := graph.Registry.Names()
	out := make([]catalogEntry, 0, len(names))
	for _, name := range names {
		ent, _ := graph.Registry.Lookup(name)
		out = append(out, catalogEntry{Name: name, Kind: ent.Kind})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) handleEntity(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	graph := h.snapshot()
	ent, ok := graph.Registry.Lookup(name)
	if !ok {
		h.writeJSON(w, http.StatusNotFound, result{Error: &errorBody{Message: "unknown entity " + name}})
		return
	}
	h.writeJSON(w, http.StatusOK, ent)
}

type scalarEntry struct {
	Name        entity.ScalarType `json:"name"`
	Description string            `json:"description"`
}

func (h *Handler) handleScalars(w http.ResponseWriter, r *http.Request) {
	scalars := []entity.ScalarType{
		entity.ScalarString, entity.ScalarInteger, entity.ScalarFloat,
		entity.ScalarBoolean, entity.ScalarID, entity.ScalarTimestamp,
		entity.ScalarJSON,
	}
	out := make([]scalarEntry, 0, len(scalars))
	for _, s := range scalars {
		out = append(out, scalarEntry{Name: s, Description: entity.ScalarDescription(s)})
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	enc := json.NewEncoder(w)
	if h.opt.Pretty {
		enc.SetIndent("", "  ")
	}
	_ = enc.Encode(v)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	wildcard := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			wildcard = true
			allowed = true
		}
		if o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
	}
}
