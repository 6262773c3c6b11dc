package main

import (
	"context"
	"errors"
	"fmt"
	"html/template"
	"net/http"
	"os"
	"os/signal"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/icco/gutil/logging"
	"github.com/icco/skirmish"
	"github.com/icco/skirmish/cmd/server/docs"
	"github.com/jessevdk/go-flags"
	"github.com/microcosm-cc/bluemonday"
	httpSwagger "github.com/swaggo/http-swagger"
	"github.com/unrolled/render"
	"github.com/unrolled/secure"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	// Renderer is a renderer for all occasions. These are our preferred default options.
	// See:
	//  - https://github.com/unrolled/render/blob/v1/README.md
	Renderer = render.New(render.Options{
		Charset:                   "UTF-8",
		DisableHTTPErrorRendering: false,
		IndentJSON:                false,
	})

	log       = logging.Must(logging.NewLogger(skirmish.Service))
	ugcPolicy = bluemonday.StrictPolicy()
)

// Options configures the server. Every option can also come from the
// environment.
type Options struct {
	Port        string   `long:"port" env:"PORT" default:"8080" description:"port to listen on"`
	DatabaseURL string   `long:"database-url" env:"DATABASE_URL" description:"postgres URL or sqlite:<path> for the match archive; empty disables it"`
	Env         string   `long:"env" env:"NAT_ENV" default:"development" description:"set to production to enable SSL redirects"`
	BoardSize   int      `long:"board-size" env:"BOARD_SIZE" default:"5" description:"number of rows and columns"`
	HomeRow     string   `long:"home-row" env:"HOME_ROW" default:"P1,P1,H1,H2,P1" description:"comma separated piece kinds, one per column"`
	Origins     []string `long:"origin" env:"ORIGIN_ALLOWLIST" env-delim:"," description:"host patterns allowed to open websockets from another origin"`
}

func (o Options) gameConfig() (skirmish.Config, error) {
	row, err := skirmish.ParseHomeRow(o.HomeRow)
	if err != nil {
		return skirmish.Config{}, err
	}

	cfg := skirmish.Config{Size: o.BoardSize, HomeRow: row}
	return cfg, cfg.Validate()
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Error string `json:"error" example:"match not found"`
}

// HealthResponse reports the service is up.
type HealthResponse struct {
	Healthy  string `json:"healthy" example:"true"`
	Revision string `json:"revision,omitempty"`
	Tag      string `json:"tag,omitempty"`
	Branch   string `json:"branch,omitempty"`
}

// TurnResponse is a recorded move together with the position after it.
type TurnResponse struct {
	Turn  *skirmish.Turn     `json:"turn"`
	State *skirmish.Snapshot `json:"state"`
}

// @title Skirmish API
// @version 1.0
// @description A two player tactics game played over websockets
// @contact.name API Support
// @contact.url http://github.com/icco/skirmish
// @license.name MIT
// @license.url https://github.com/icco/skirmish/blob/main/LICENSE
// @BasePath /

func main() {
	var opts Options
	if _, err := flags.Parse(&opts); err != nil {
		if fe, ok := err.(*flags.Error); ok && fe.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	cfg, err := opts.gameConfig()
	if err != nil {
		log.Fatalw("bad game configuration", zap.Error(err))
	}

	game, err := skirmish.NewGame(cfg)
	if err != nil {
		log.Fatalw("could not create game", zap.Error(err))
	}

	var archive *Archive
	if opts.DatabaseURL != "" {
		db, err := openDB(opts.DatabaseURL)
		if err != nil {
			log.Fatalw("could not get db", zap.Error(err))
		}
		archive = NewArchive(db)
	}

	metrics, err := NewMetrics()
	if err != nil {
		log.Fatalw("could not set up metrics", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := NewHub(game, archive, metrics, opts.Origins)
	go hub.Run(ctx)

	s := &server{
		hub:     hub,
		archive: archive,
		metrics: metrics,
		isDev:   opts.Env != "production",
	}

	httpServer := &http.Server{
		Addr:              ":" + opts.Port,
		Handler:           s.routes(),
		ReadHeaderTimeout: 15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1MB
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			log.Errorw("http shutdown", zap.Error(err))
		}
		if err := metrics.Shutdown(shutdownCtx); err != nil {
			log.Errorw("metrics shutdown", zap.Error(err))
		}
	}()

	log.Infow("Starting up", "port", opts.Port, "size", cfg.Size, "home_row", cfg.HomeRowText(), "archive", archive != nil)
	if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Fatalw("server failed", zap.Error(err))
	}
}

type server struct {
	hub     *Hub
	archive *Archive
	metrics *Metrics
	isDev   bool
}

func (s *server) routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)

	r.NotFound(notFoundHandler)

	// Websockets are long lived, so they skip request logging.
	r.Get("/ws", s.hub.ServeWS)

	r.Group(func(r chi.Router) {
		r.Use(logging.Middleware(log.Desugar()))

		r.Use(cors.New(cors.Options{
			AllowCredentials:   true,
			OptionsPassthrough: true,
			AllowedOrigins:     []string{"*"},
			AllowedMethods:     []string{"GET", "OPTIONS"},
			AllowedHeaders:     []string{"Accept", "Content-Type"},
			ExposedHeaders:     []string{"Link"},
			MaxAge:             300, // Maximum value not ignored by any of major browsers
		}).Handler)

		r.Use(secure.New(secure.Options{
			BrowserXssFilter:     true,
			ContentTypeNosniff:   true,
			FrameDeny:            true,
			HostsProxyHeaders:    []string{"X-Forwarded-Host"},
			IsDevelopment:        s.isDev,
			SSLProxyHeaders:      map[string]string{"X-Forwarded-Proto": "https"},
			SSLRedirect:          !s.isDev,
			STSIncludeSubdomains: true,
			STSPreload:           true,
			STSSeconds:           315360000,
		}).Handler)

		r.Get("/", rootHandler)
		r.Get("/healthz", healthCheckHandler)
		r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
		r.Get("/swagger/doc.json", swaggerDocHandler)
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
		))

		r.Get("/state", s.stateHandler)
		r.Get("/match/{slug}", s.getMatchHandler)
		r.Get("/match/{slug}/transcript", s.getTranscriptHandler)
		r.Get("/match/{slug}/{turn}", s.getTurnHandler)
	})

	return otelhttp.NewHandler(r, skirmish.Service)
}

// @Summary Get API information
// @Description Returns basic API information and available endpoints
// @Tags info
// @Produce html
// @Success 200 {string} string "HTML page with API information"
// @Router / [get]
func rootHandler(w http.ResponseWriter, r *http.Request) {
	spec, err := docs.GetSwaggerSpec()
	if err != nil {
		log.Errorw("failed to parse swagger.json", zap.Error(err))
		spec = &docs.SwaggerSpec{}
	}

	paths := make([]string, 0, len(spec.Paths))
	for path := range spec.Paths {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	var b strings.Builder
	b.WriteString(`<html>
  <head>
    <title>Skirmish</title>
    <style>
      body { font-family: Arial, sans-serif; max-width: 800px; margin: 40px auto; padding: 20px; }
      .endpoint { margin: 20px 0; padding: 15px; border-left: 4px solid #007acc; background: #f8f9fa; }
      .method { font-weight: bold; color: #007acc; text-transform: uppercase; }
      .path { font-family: monospace; margin: 5px 0; }
      .description { color: #666; margin: 5px 0; }
    </style>
  </head>
  <body>
    <h1>Skirmish</h1>
    <p>Connect to <code>/ws</code> to play. Archived matches are served below.</p>
    <p><a href="/swagger/">View Swagger Documentation</a></p>
    <h2>Available Endpoints</h2>`)

	for _, path := range paths {
		for method, info := range spec.Paths[path] {
			fmt.Fprintf(&b, `
    <div class="endpoint">
      <div class="method">%s</div>
      <div class="path">%s</div>
      <div class="description">%s</div>
    </div>`, template.HTMLEscapeString(method), template.HTMLEscapeString(path), template.HTMLEscapeString(info.Description))
		}
	}

	b.WriteString(`
  </body>
</html>`)

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if _, err := w.Write([]byte(b.String())); err != nil {
		log.Errorw("failed to write response", zap.Error(err))
	}
}

func swaggerDocHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if _, err := w.Write(docs.SwaggerJSON()); err != nil {
		log.Errorw("failed to write response", zap.Error(err))
	}
}

// @Summary Health check
// @Description Returns service health status
// @Tags health
// @Produce json
// @Success 200 {object} HealthResponse
// @Router /healthz [get]
func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	if err := Renderer.JSON(w, http.StatusOK, HealthResponse{
		Healthy:  "true",
		Revision: os.Getenv("GIT_REVISION"),
		Tag:      os.Getenv("GIT_TAG"),
		Branch:   os.Getenv("GIT_BRANCH"),
	}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Current game state
// @Description Returns a snapshot of the match being played
// @Tags game
// @Produce json
// @Success 200 {object} skirmish.Snapshot
// @Failure 503 {object} ErrorResponse
// @Router /state [get]
func (s *server) stateHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := s.hub.Snapshot(r.Context())
	if err != nil {
		log.Errorw("could not get snapshot", zap.Error(err))
		renderError(w, http.StatusServiceUnavailable, "game is not available")
		return
	}

	if err := Renderer.JSON(w, http.StatusOK, snap); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Get an archived match
// @Description Returns a match with its tags and moves
// @Tags archive
// @Produce json
// @Param slug path string true "Match slug"
// @Success 200 {object} Match
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /match/{slug} [get]
func (s *server) getMatchHandler(w http.ResponseWriter, r *http.Request) {
	slug := ugcPolicy.Sanitize(chi.URLParam(r, "slug"))
	match, err := s.archive.Match(slug)
	if err != nil {
		s.archiveError(w, slug, err)
		return
	}

	if err := Renderer.JSON(w, http.StatusOK, match); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

// @Summary Get a match transcript
// @Description Returns the text transcript of an archived match
// @Tags archive
// @Produce plain
// @Param slug path string true "Match slug"
// @Success 200 {string} string "Transcript"
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /match/{slug}/transcript [get]
func (s *server) getTranscriptHandler(w http.ResponseWriter, r *http.Request) {
	slug := ugcPolicy.Sanitize(chi.URLParam(r, "slug"))
	tr, err := s.archive.Transcript(slug)
	if err != nil {
		s.archiveError(w, slug, err)
		return
	}

	if err := Renderer.Text(w, http.StatusOK, tr.Text()); err != nil {
		log.Errorw("failed to render text", zap.Error(err))
	}
}

// @Summary Get specific turn
// @Description Returns one move of an archived match and the position after it
// @Tags archive
// @Produce json
// @Param slug path string true "Match slug"
// @Param turn path int true "Turn number"
// @Success 200 {object} TurnResponse
// @Failure 400 {object} ErrorResponse
// @Failure 404 {object} ErrorResponse
// @Failure 500 {object} ErrorResponse
// @Router /match/{slug}/{turn} [get]
func (s *server) getTurnHandler(w http.ResponseWriter, r *http.Request) {
	slug := ugcPolicy.Sanitize(chi.URLParam(r, "slug"))
	turnStr := ugcPolicy.Sanitize(chi.URLParam(r, "turn"))
	turnNum, err := strconv.ParseInt(turnStr, 10, 64)
	if err != nil || turnNum < 1 {
		renderError(w, http.StatusBadRequest, "turn must be a positive number")
		return
	}

	tr, err := s.archive.Transcript(slug)
	if err != nil {
		s.archiveError(w, slug, err)
		return
	}

	turn, err := tr.GetTurn(turnNum)
	if err != nil {
		renderError(w, http.StatusNotFound, err.Error())
		return
	}

	upTo := &skirmish.Transcript{Meta: tr.Meta}
	for _, t := range tr.Turns {
		if t.Number <= turnNum {
			upTo.Turns = append(upTo.Turns, t)
		}
	}

	game, err := upTo.Replay()
	if err != nil {
		log.Errorw("could not replay match", "slug", slug, "turn", turnNum, zap.Error(err))
		renderError(w, http.StatusInternalServerError, "could not replay match")
		return
	}

	if err := Renderer.JSON(w, http.StatusOK, TurnResponse{Turn: turn, State: game.Snapshot()}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func (s *server) archiveError(w http.ResponseWriter, slug string, err error) {
	switch {
	case errors.Is(err, errArchiveDisabled):
		renderError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, gorm.ErrRecordNotFound):
		renderError(w, http.StatusNotFound, "match not found")
	default:
		log.Errorw("could not load match", "slug", slug, zap.Error(err))
		renderError(w, http.StatusInternalServerError, "could not load match")
	}
}

func renderError(w http.ResponseWriter, status int, msg string) {
	if err := Renderer.JSON(w, status, ErrorResponse{Error: msg}); err != nil {
		log.Errorw("failed to render JSON", zap.Error(err))
	}
}

func notFoundHandler(w http.ResponseWriter, r *http.Request) {
	renderError(w, http.StatusNotFound, "404: This page could not be found")
}
