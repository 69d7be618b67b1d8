// Package server exposes the query interpreter over HTTP. Every request is
// answered from an immutable table snapshot; no query state is kept.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"

	"github.com/KaramelBytes/sheetask-cli/internal/analysis"
	"github.com/KaramelBytes/sheetask-cli/internal/logging"
	"github.com/KaramelBytes/sheetask-cli/internal/query"
	"github.com/KaramelBytes/sheetask-cli/internal/table"
)

// genericQueryError is the only failure detail a client ever sees.
const genericQueryError = "Error processing query"

type Options struct {
	MaxUploadBytes int64
	MaxTables      int
	PreviewRows    int
	SheetName      string
	Logger         *logging.Logger
}

type Server struct {
	opts   Options
	store  *Store
	log    *logging.Logger
	router chi.Router
}

func New(opts Options) *Server {
	if opts.MaxUploadBytes <= 0 {
		opts.MaxUploadBytes = 20 << 20
	}
	if opts.PreviewRows < 0 {
		opts.PreviewRows = 0
	}
	if opts.Logger == nil {
		opts.Logger = logging.Default()
	}
	s := &Server{
		opts:   opts,
		store:  NewStore(opts.MaxTables),
		log:    opts.Logger,
		router: chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{
		Logger:  log.New(s.log.Writer(), "", log.LstdFlags),
		NoColor: true,
	}))
	s.router.Use(middleware.Recoverer)
}

func (s *Server) setupRoutes() {
	s.router.Get("/healthz", s.handleHealth)
	s.router.Route("/api/tables", func(r chi.Router) {
		r.Post("/", s.handleUpload)
		r.Get("/{id}", s.handleGetTable)
		r.Delete("/{id}", s.handleDeleteTable)
		r.Post("/{id}/query", s.handleQuery)
	})
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler { return s.router }

// Store exposes the snapshot store.
func (s *Server) Store() *Store { return s.store }

// ListenAndServe serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()
	s.log.Infof("listening on %s", addr)
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

type columnInfo struct {
	Name string              `json:"name"`
	Type analysis.ColumnType `json:"type"`
}

type tableResponse struct {
	ID      string       `json:"id"`
	Name    string       `json:"name"`
	Rows    int          `json:"rows"`
	Columns []columnInfo `json:"columns"`
	Preview string       `json:"preview,omitempty"`
}

func describeSnapshot(snap *Snapshot, withPreview bool) tableResponse {
	out := tableResponse{ID: snap.ID, Name: snap.Table.Name, Rows: snap.Table.Rows()}
	for _, name := range snap.Table.Names() {
		out.Columns = append(out.Columns, columnInfo{Name: name, Type: snap.Types[name]})
	}
	if withPreview && snap.Report != nil {
		out.Preview = snap.Report.Markdown()
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "tables": s.store.Len()})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opts.MaxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "upload too large")
			return
		}
		writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "could not read upload")
		return
	}
	t, err := table.Load(header.Filename, data, table.Options{SheetName: s.opts.SheetName})
	if err != nil {
		var le *table.LoadError
		if errors.As(err, &le) {
			writeError(w, http.StatusBadRequest, le.Msg)
			return
		}
		s.log.Errorf("load %s: %v", header.Filename, err)
		writeError(w, http.StatusBadRequest, "could not load table")
		return
	}
	types := analysis.Classify(t)
	rep := analysis.Describe(t, types, s.opts.PreviewRows)
	snap := s.store.Add(t, types, rep)
	s.log.Infof("stored table %s (%s, %d rows)", snap.ID, t.Name, t.Rows())
	writeJSON(w, http.StatusCreated, describeSnapshot(snap, false))
}

func (s *Server) snapshot(w http.ResponseWriter, r *http.Request) (*Snapshot, bool) {
	snap, ok := s.store.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "table not found")
	}
	return snap, ok
}

func (s *Server) handleGetTable(w http.ResponseWriter, r *http.Request) {
	if snap, ok := s.snapshot(w, r); ok {
		writeJSON(w, http.StatusOK, describeSnapshot(snap, true))
	}
}

func (s *Server) handleDeleteTable(w http.ResponseWriter, r *http.Request) {
	if !s.store.Delete(chi.URLParam(r, "id")) {
		writeError(w, http.StatusNotFound, "table not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type queryRequest struct {
	Question string `json:"question"`
}

func (s *Server) handleQuery(w http.ResponseWriter, r *http.Request) {
	snap, ok := s.snapshot(w, r)
	if !ok {
		return
	}
	var req queryRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, 64<<10)).Decode(&req); err != nil || strings.TrimSpace(req.Question) == "" {
		writeError(w, http.StatusBadRequest, "body must be {\"question\": \"...\"}")
		return
	}
	res, err := query.Answer(snap.Table, req.Question, snap.Types)
	if err != nil {
		s.log.Warnf("query %q on %s [%s]: %v", req.Question, snap.ID, middleware.GetReqID(r.Context()), err)
		writeError(w, http.StatusUnprocessableEntity, genericQueryError)
		return
	}
	if r.URL.Query().Get("format") == "html" {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(renderHTML(res.Text))
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// renderHTML converts result markdown to an HTML fragment. Raw HTML in cell
// values is dropped.
func renderHTML(md string) []byte {
	p := parser.NewWithExtensions(parser.CommonExtensions)
	r := html.NewRenderer(html.RendererOptions{Flags: html.CommonFlags | html.SkipHTML})
	return markdown.ToHTML([]byte(md), p, r)
}
