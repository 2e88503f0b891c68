package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/kasuboski/umaru/pkg/catalog"
	"github.com/kasuboski/umaru/pkg/ledger"
	"github.com/kasuboski/umaru/pkg/logger"
	"github.com/kasuboski/umaru/pkg/manager"
	"github.com/kasuboski/umaru/pkg/pagination"
	"github.com/kasuboski/umaru/pkg/reconcile"
	"github.com/kasuboski/umaru/pkg/watchlist"
	"go.uber.org/zap"
)

const shutdownTimeout = 3 * time.Second

type GenericResponse struct {
	Error    *string `json:"error,omitempty"`
	Response any     `json:"response"`
}

// Manager is the view of the daemon's state the http api serves
type Manager interface {
	Status() manager.Status
	Watchlist(ctx context.Context) ([]watchlist.Entry, error)
	Catalog() catalog.Snapshot
	Reconciled() reconcile.Result
	Ledger() []ledger.Record
	Pending() []ledger.Work
	RecordEpisode(ctx context.Context, title string, episode int) (bool, error)
}

// Server exposes the daemon's state over http alongside the line protocol
type Server struct {
	baseLogger *zap.SugaredLogger
	manager    Manager
	metrics    http.Handler
	validate   *validator.Validate
}

// New creates a new http server. metrics may be nil.
func New(logger *zap.SugaredLogger, manager Manager, metrics http.Handler) Server {
	return Server{
		baseLogger: logger,
		manager:    manager,
		metrics:    metrics,
		validate:   validator.New(),
	}
}

func writeErrorResponse(w http.ResponseWriter, status int, err error) error {
	msg := err.Error()
	return writeResponse(w, status, GenericResponse{
		Error: &msg,
	})
}

func writeResponse(w http.ResponseWriter, status int, body any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}

	w.Header().Set("content-type", "application/json")
	if status != http.StatusOK {
		w.WriteHeader(status)
	}

	w.Write(b)
	return nil
}

// Handler builds the router with middleware applied
func (s Server) Handler() http.Handler {
	rtr := mux.NewRouter()
	rtr.Use(s.LogMiddleware())
	rtr.HandleFunc("/healthz", s.Healthz()).Methods(http.MethodGet)
	if s.metrics != nil {
		rtr.Handle("/metrics", s.metrics).Methods(http.MethodGet)
	}

	api := rtr.PathPrefix("/api").Subrouter()

	v1 := api.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/status", s.GetStatus()).Methods(http.MethodGet)
	v1.HandleFunc("/watchlist", s.ListWatchlist()).Methods(http.MethodGet)
	v1.HandleFunc("/catalog", s.ListCatalog()).Methods(http.MethodGet)
	v1.HandleFunc("/reconciled", s.ListReconciled()).Methods(http.MethodGet)

	v1.HandleFunc("/ledger", s.ListLedger()).Methods(http.MethodGet)
	v1.HandleFunc("/ledger/pending", s.ListPending()).Methods(http.MethodGet)
	v1.HandleFunc("/ledger/{title}", s.RecordEpisode()).Methods(http.MethodPut)

	return handlers.CORS(
		handlers.AllowedOrigins([]string{"*"}),
	)(rtr)
}

// Serve starts the http server and blocks until ctx is done
func (s Server) Serve(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:    addr,
		Handler: s.Handler(),
		BaseContext: func(net.Listener) context.Context {
			return ctx
		},
	}

	errs := make(chan error, 1)
	go func() {
		s.baseLogger.Infow("serving...", "address", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errs <- err
		}
		close(errs)
	}()

	select {
	case err, ok := <-errs:
		if ok {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	return srv.Shutdown(shutdownCtx)
}

// Healthz answers liveness checks
func (s Server) Healthz() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := GenericResponse{
			Response: "ok",
		}
		writeResponse(w, http.StatusOK, response)
	}
}

func (s Server) GetStatus() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		err := writeResponse(w, http.StatusOK, GenericResponse{Response: s.manager.Status()})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

// ListWatchlist reads the watchlist file as it is now
func (s Server) ListWatchlist() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		entries, err := s.manager.Watchlist(r.Context())
		if err != nil {
			log.Errorw("failed to read watchlist", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		}

		err = writeResponse(w, http.StatusOK, GenericResponse{Response: watchlist.Strings(entries)})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

type CatalogPage struct {
	Entries   []catalog.Entry `json:"entries"`
	FetchedAt time.Time       `json:"fetchedAt"`
	Meta      pagination.Meta `json:"meta"`
}

// ListCatalog pages through the current snapshot in snapshot order
func (s Server) ListCatalog() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		params, err := ParsePaginationParams(r)
		if err != nil {
			writeErrorResponse(w, http.StatusBadRequest, err)
			return
		}

		snapshot := s.manager.Catalog()
		entries, meta := pagination.Page(snapshot.Entries, params)

		err = writeResponse(w, http.StatusOK, GenericResponse{Response: CatalogPage{
			Entries:   entries,
			FetchedAt: snapshot.FetchedAt,
			Meta:      meta,
		}})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

func (s Server) ListReconciled() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		err := writeResponse(w, http.StatusOK, GenericResponse{Response: s.manager.Reconciled()})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

func (s Server) ListLedger() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		err := writeResponse(w, http.StatusOK, GenericResponse{Response: s.manager.Ledger()})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

func (s Server) ListPending() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		err := writeResponse(w, http.StatusOK, GenericResponse{Response: s.manager.Pending()})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}

type RecordEpisodeRequest struct {
	Episode *int `json:"episode" validate:"required,gte=0"`
}

type RecordEpisodeResponse struct {
	Title    string `json:"title"`
	Episode  int    `json:"episode"`
	Advanced bool   `json:"advanced"`
}

// RecordEpisode advances the ledger record for a title
func (s Server) RecordEpisode() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		log := logger.FromCtx(r.Context())
		title := mux.Vars(r)["title"]

		b, err := io.ReadAll(r.Body)
		if err != nil {
			log.Debugw("invalid request body", "error", err)
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		var request RecordEpisodeRequest
		err = json.Unmarshal(b, &request)
		if err != nil {
			log.Debugw("invalid request body", "body", string(b))
			http.Error(w, "invalid request body", http.StatusBadRequest)
			return
		}

		if err := s.validate.Struct(request); err != nil {
			writeErrorResponse(w, http.StatusBadRequest, fmt.Errorf("invalid request: %w", err))
			return
		}

		advanced, err := s.manager.RecordEpisode(r.Context(), title, *request.Episode)
		switch {
		case errors.Is(err, manager.ErrUnknownTitle):
			writeErrorResponse(w, http.StatusNotFound, err)
			return
		case errors.Is(err, ledger.ErrNegativeEpisode):
			writeErrorResponse(w, http.StatusBadRequest, err)
			return
		case err != nil && !advanced:
			log.Errorw("failed to record episode", "error", err)
			writeErrorResponse(w, http.StatusInternalServerError, err)
			return
		case err != nil:
			log.Warnw("episode recorded but not persisted", "error", err)
		}

		err = writeResponse(w, http.StatusOK, GenericResponse{Response: RecordEpisodeResponse{
			Title:    title,
			Episode:  *request.Episode,
			Advanced: advanced,
		}})
		if err != nil {
			log.Errorw("failed to write response", "error", err)
		}
	}
}
