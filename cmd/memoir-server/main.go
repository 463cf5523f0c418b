// memoir-server is the HTTP API for the relationship memory backend.
//
// Endpoints:
//   - POST   /v1/users/{uid}/relationships       - Upload a chat export
//   - GET    /v1/users/{uid}/relationships       - List relationships
//   - GET    /v1/users/{uid}/relationships/{id}  - Relationship detail
//   - PATCH  /v1/users/{uid}/relationships/{id}  - Set active / participants
//   - DELETE /v1/users/{uid}/relationships/{id}  - Delete relationship
//   - POST   /v1/users/{uid}/chat-context        - Build chat context
//   - GET    /health                             - Health check
package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/sevgi-app/memoir/pkg/analysis"
	"github.com/sevgi-app/memoir/pkg/chatlog"
	"github.com/sevgi-app/memoir/pkg/indexing"
	"github.com/sevgi-app/memoir/pkg/memconfig"
	"github.com/sevgi-app/memoir/pkg/pipeline"
	"github.com/sevgi-app/memoir/pkg/retrieval"
	"github.com/sevgi-app/memoir/pkg/store"
)

type serverConfig struct {
	Addr       string `default:":8080"`
	DBPath     string `envconfig:"DB_PATH"`
	BlobRoot   string `envconfig:"BLOB_ROOT"`
	OpenAIKey  string `envconfig:"OPENAI_API_KEY"`
	Model      string `envconfig:"MODEL"`
	ConfigPath string `envconfig:"CONFIG_PATH"`
	Debug      bool   `default:"false"`
}

func main() {
	_ = godotenv.Load()

	var env serverConfig
	if err := envconfig.Process("memoir", &env); err != nil {
		log.Fatal().Err(err).Msg("Failed to read environment")
	}
	if env.OpenAIKey == "" {
		env.OpenAIKey = os.Getenv("OPENAI_API_KEY")
	}

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if env.Debug {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	} else {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
	}

	cfg := loadConfig(env.ConfigPath)
	if env.Model != "" {
		cfg.Analysis.Model = env.Model
	}

	dbPath := env.DBPath
	if dbPath == "" {
		dbPath = cfg.Storage.SQLite
	}
	blobRoot := env.BlobRoot
	if blobRoot == "" {
		blobRoot = cfg.Storage.BlobRoot
	}

	docs, err := store.NewSQLite(dbPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", dbPath).Msg("Failed to open document store")
	}
	defer docs.Close()
	log.Info().Str("path", dbPath).Msg("Opened document store")

	blobs, err := store.NewFileBlobStore(blobRoot)
	if err != nil {
		log.Fatal().Err(err).Str("root", blobRoot).Msg("Failed to open blob store")
	}

	var llm analysis.Completer = analysis.Disabled{}
	if env.OpenAIKey != "" {
		llm = analysis.NewOpenAIClient(env.OpenAIKey, cfg.Analysis.Model)
		log.Info().Str("model", cfg.Analysis.Model).Msg("Analysis service enabled")
	} else {
		log.Warn().Msg("OPENAI_API_KEY not set, chunk analysis will use fallback entries")
	}

	idx := indexing.NewIndexer(cfg, llm)
	pipe := pipeline.New(cfg, docs, blobs, idx)
	retriever := retrieval.NewService(cfg, docs, blobs, llm)

	srv := &server{cfg: cfg, docs: docs, blobs: blobs, llm: llm, pipe: pipe, retriever: retriever}

	r := mux.NewRouter()
	r.HandleFunc("/v1/users/{uid}/relationships", srv.handleUpload).Methods(http.MethodPost)
	r.HandleFunc("/v1/users/{uid}/relationships", srv.handleList).Methods(http.MethodGet)
	r.HandleFunc("/v1/users/{uid}/relationships/{id}", srv.handleGet).Methods(http.MethodGet)
	r.HandleFunc("/v1/users/{uid}/relationships/{id}", srv.handlePatch).Methods(http.MethodPatch)
	r.HandleFunc("/v1/users/{uid}/relationships/{id}", srv.handleDelete).Methods(http.MethodDelete)
	r.HandleFunc("/v1/users/{uid}/chat-context", srv.handleChatContext).Methods(http.MethodPost)
	r.HandleFunc("/health", srv.handleHealth).Methods(http.MethodGet)
	r.Use(loggingMiddleware)

	httpServer := &http.Server{
		Addr:         env.Addr,
		Handler:      r,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 120 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		log.Info().Msg("Shutting down server...")
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("Server shutdown error")
		}
	}()

	log.Info().Str("addr", env.Addr).Msg("Starting memoir server")
	if err := httpServer.ListenAndServe(); err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("Server error")
	}
	log.Info().Msg("Server stopped")
}

func loadConfig(path string) *memconfig.Config {
	if path != "" {
		cfg, err := memconfig.Load(path)
		if err != nil {
			log.Fatal().Err(err).Str("path", path).Msg("Failed to load configuration")
		}
		return cfg
	}
	return memconfig.LoadOrDefault(".")
}

type server struct {
	cfg       *memconfig.Config
	docs      store.DocumentStore
	blobs     store.BlobStore
	llm       analysis.Completer
	pipe      *pipeline.Pipeline
	retriever *retrieval.Service
}

type uploadRequest struct {
	ChatText       string `json:"chatText"`
	RelationshipID string `json:"relationshipId"`
}

func (s *server) handleUpload(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req uploadRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.ChatText == "" {
		writeError(w, http.StatusBadRequest, "chatText is required")
		return
	}

	result, err := s.pipe.ProcessUpload(r.Context(), uid, req.ChatText, req.RelationshipID)
	if errors.Is(err, chatlog.ErrNoMessages) {
		writeError(w, http.StatusUnprocessableEntity, "no messages found in chat export")
		return
	}
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Upload failed")
		writeError(w, http.StatusInternalServerError, "upload failed")
		return
	}
	writeJSON(w, http.StatusOK, result)
}

func (s *server) handleList(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	recs, err := s.docs.Relationships(r.Context(), uid)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("List relationships failed")
		writeError(w, http.StatusInternalServerError, "list failed")
		return
	}
	if recs == nil {
		recs = []*store.Relationship{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"relationships": recs})
}

func (s *server) handleGet(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)

	rec, err := s.docs.Relationship(r.Context(), vars["uid"], vars["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "relationship not found")
		return
	}
	if err != nil {
		log.Error().Err(err).Msg("Get relationship failed")
		writeError(w, http.StatusInternalServerError, "get failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

type patchRequest struct {
	Active             *bool   `json:"active"`
	SelfParticipant    *string `json:"selfParticipant"`
	PartnerParticipant *string `json:"partnerParticipant"`
}

func (s *server) handlePatch(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uid, id := vars["uid"], vars["id"]

	var req patchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if req.Active != nil {
		var err error
		if *req.Active {
			err = s.docs.SetActive(r.Context(), uid, id)
		} else {
			err = s.docs.ClearActive(r.Context(), uid, id)
		}
		if err != nil {
			s.writeStoreError(w, err, "Set active failed")
			return
		}
	}
	if req.SelfParticipant != nil {
		partner := ""
		if req.PartnerParticipant != nil {
			partner = *req.PartnerParticipant
		}
		if err := s.docs.SetParticipants(r.Context(), uid, id, *req.SelfParticipant, partner); err != nil {
			s.writeStoreError(w, err, "Set participants failed")
			return
		}
	}

	rec, err := s.docs.Relationship(r.Context(), uid, id)
	if err != nil {
		s.writeStoreError(w, err, "Get relationship failed")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (s *server) handleDelete(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	uid, id := vars["uid"], vars["id"]

	if err := s.docs.DeleteRelationship(r.Context(), uid, id); err != nil {
		s.writeStoreError(w, err, "Delete relationship failed")
		return
	}
	if err := s.blobs.DeletePrefix(r.Context(), uid+"/"+id); err != nil {
		// Index row is already gone; orphaned blobs are harmless.
		log.Warn().Err(err).Str("uid", uid).Str("relationship", id).Msg("Failed to delete chunk blobs")
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}

type chatContextRequest struct {
	Message string `json:"message"`
}

func (s *server) handleChatContext(w http.ResponseWriter, r *http.Request) {
	uid := mux.Vars(r)["uid"]

	var req chatContextRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Message == "" {
		writeError(w, http.StatusBadRequest, "message is required")
		return
	}

	s.maybeDetectParticipant(r.Context(), uid, req.Message)

	chatCtx, err := s.retriever.Context(r.Context(), uid, req.Message)
	if err != nil {
		log.Error().Err(err).Str("uid", uid).Msg("Context build failed")
		writeError(w, http.StatusInternalServerError, "context build failed")
		return
	}
	if chatCtx == nil {
		writeJSON(w, http.StatusOK, map[string]any{"context": "", "hasRetrieval": false})
		return
	}
	writeJSON(w, http.StatusOK, chatCtx)
}

// maybeDetectParticipant opportunistically fills the participant mapping
// from a self-introduction in the user's message. Failures only cost us
// the mapping, never the request.
func (s *server) maybeDetectParticipant(ctx context.Context, uid, message string) {
	rec, err := s.docs.ActiveRelationship(ctx, uid)
	if err != nil || rec == nil || rec.SelfParticipant != "" {
		return
	}
	self := retrieval.DetectSelfParticipant(message, rec.Speakers)
	if self == "" {
		return
	}
	partner := retrieval.PartnerOf(self, rec.Speakers)
	if err := s.docs.SetParticipants(ctx, uid, rec.ID, self, partner); err != nil {
		log.Warn().Err(err).Str("uid", uid).Msg("Failed to persist participant mapping")
		return
	}
	log.Info().Str("uid", uid).Str("self", self).Msg("Detected participant mapping")
}

type healthResponse struct {
	Status    string    `json:"status"`
	Store     bool      `json:"store"`
	Analysis  bool      `json:"analysis"`
	Timestamp time.Time `json:"timestamp"`
}

// handleHealth probes the document store and reports whether analysis is
// live. A dead store is unhealthy (503); running on fallback entries
// only degrades us (still 200).
func (s *server) handleHealth(w http.ResponseWriter, r *http.Request) {
	storeOK := s.docs.Ping(r.Context()) == nil
	_, fallback := s.llm.(analysis.Disabled)

	status := "ok"
	httpStatus := http.StatusOK
	if fallback {
		status = "degraded"
	}
	if !storeOK {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	writeJSON(w, httpStatus, healthResponse{
		Status:    status,
		Store:     storeOK,
		Analysis:  !fallback,
		Timestamp: time.Now(),
	})
}

func (s *server) writeStoreError(w http.ResponseWriter, err error, logMsg string) {
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "relationship not found")
		return
	}
	log.Error().Err(err).Msg(logMsg)
	writeError(w, http.StatusInternalServerError, "internal error")
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		wrapped := &responseWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(wrapped, r)

		log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", wrapped.status).
			Dur("duration", time.Since(start)).
			Msg("HTTP request")
	})
}

type responseWriter struct {
	http.ResponseWriter
	status int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.status = code
	rw.ResponseWriter.WriteHeader(code)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
