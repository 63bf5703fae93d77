package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"time"

	"github.com/image-harvest/internal/app"
	"github.com/image-harvest/internal/logger"
	"github.com/image-harvest/internal/service"
	"github.com/image-harvest/internal/store"
	_ "github.com/joho/godotenv/autoload"
	"github.com/rs/zerolog"
)

var log = logger.New("server")

type imageLister interface {
	ListByPrefix(ctx context.Context, prefix string) ([]store.Image, error)
}

type Server struct {
	config  *app.Config
	images  imageLister
	similar *service.SimilarService
}

func main() {
	config := &app.Config{
		DatabaseUrl: os.Getenv("DATABASE_URL"),
		OutputRoot:  os.Getenv("OUTPUT_ROOT"),
		WebEndpoint: os.Getenv("WEB_ENDPOINT"),
	}
	if config.OutputRoot == "" {
		config.OutputRoot = app.DefaultOutputRoot
	}
	if config.WebEndpoint == "" {
		config.WebEndpoint = ":8080"
	}
	_, debug := os.LookupEnv("DEBUG")
	logger.Setup(os.Stderr, debug)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	pool, err := store.Open(ctx, config.DatabaseUrl)
	if err != nil {
		log.Fatal().Err(err).Msg("could not open catalog")
	}
	defer pool.Close()

	imageStore := store.NewImageStore(pool)
	srv := &Server{
		config:  config,
		images:  imageStore,
		similar: service.NewSimilarService(imageStore),
	}

	server := &http.Server{
		Addr:         config.WebEndpoint,
		Handler:      loggingMiddleware(log, srv.routes()),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdown)
	}()

	log.Info().Str("addr", config.WebEndpoint).Str("root", config.OutputRoot).Msg("listening")
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatal().Err(err).Msg("server stopped")
	}
}

func (srv *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/images/", http.StripPrefix("/images/", http.FileServer(http.Dir(srv.config.OutputRoot))))
	mux.HandleFunc("/api/images", srv.handleImages)
	mux.HandleFunc("/api/similar", srv.handleSimilar)
	return mux
}

func (srv *Server) handleImages(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	images, err := srv.images.ListByPrefix(r.Context(), r.URL.Query().Get("prefix"))
	if err != nil {
		log.Error().Err(err).Msg("list images")
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
		return
	}

	type imageJSON struct {
		ID     int64  `json:"id"`
		Prefix string `json:"prefix"`
		Path   string `json:"path"`
		Width  int    `json:"width"`
		Height int    `json:"height"`
		Hash   string `json:"dhash"`
	}
	out := make([]imageJSON, 0, len(images))
	for _, image := range images {
		out = append(out, imageJSON{
			ID:     image.ID,
			Prefix: image.Prefix,
			Path:   image.Path,
			Width:  image.Width,
			Height: image.Height,
			Hash:   strconv.FormatUint(image.Hash, 16),
		})
	}
	writeJSON(w, out)
}

func (srv *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}

	limit, _ := strconv.Atoi(r.FormValue("limit"))

	file, _, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	defer func() { _ = file.Close() }()

	results, err := srv.similar.Similar(r.Context(), file, limit)
	if err != nil {
		log.Warn().Err(err).Msg("similar search")
		http.Error(w, "could not search", http.StatusUnprocessableEntity)
		return
	}
	writeJSON(w, results)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, http.StatusText(http.StatusInternalServerError), http.StatusInternalServerError)
	}
}

func loggingMiddleware(l zerolog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		l.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("took", time.Since(start)).
			Msg("request")
	})
}
