package http

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"halloween-trivia/internal/app"
)

// RouterOptions configures NewRouter.
type RouterOptions struct {
	Logger    *slog.Logger
	PublicURL string
	Profile   bool
	Version   string
}

type versionBody struct {
	Version string `json:"version"`
}

type healthBody struct {
	Status  string `json:"status"`
	Clients int    `json:"clients"`
}

// NewRouter exposes service over HTTP.
func NewRouter(service *app.Service, opts RouterOptions) http.Handler {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	api := NewAPI(service)
	ws := NewWSHandler(service, logger)

	mux := httprouter.New()
	mux.PanicHandler = func(w http.ResponseWriter, r *http.Request, p interface{}) {
		logger.Error("handler panic", "path", r.URL.Path, "panic", p)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
	}

	mux.GET("/api/state", api.state)
	mux.GET("/api/catalog", api.catalog)
	mux.GET("/api/leaderboard", api.leaderboard)

	mux.POST("/api/game/start", api.action(start))
	mux.POST("/api/game/answer", api.action(answer))
	mux.POST("/api/game/hint", api.action(hint))
	mux.POST("/api/game/restart", api.action(restart))

	mux.POST("/api/leaderboard/open", api.action(openLeaderboard))
	mux.POST("/api/leaderboard/close", api.action(closeLeaderboard))

	mux.POST("/api/admin/open", api.action(openAdmin))
	mux.POST("/api/admin/close", api.action(closeAdmin))
	mux.POST("/api/admin/login", api.action(login))
	mux.PUT("/api/admin/settings", api.action(saveSettings))

	mux.GET("/ws/leaderboard", ws.ServeWS)
	mux.GET("/share.png", shareHandler(opts.PublicURL, logger))

	mux.GET("/healthz", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		clients, err := service.LiveClients(r.Context())
		if err != nil {
			logger.Warn("count live clients", "err", err)
			writeJSON(w, http.StatusServiceUnavailable, healthBody{Status: "degraded"})
			return
		}
		writeJSON(w, http.StatusOK, healthBody{Status: "ok", Clients: clients})
	})
	mux.GET("/version", func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		writeJSON(w, http.StatusOK, versionBody{Version: opts.Version})
	})

	if opts.Profile {
		registerProfileHandlers(mux)
	}

	return withRequestLog(logger, withSecurityHeaders(withClient(mux)))
}

// NewServer wraps handler with the listener timeouts used in production.
func NewServer(addr string, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
}

// Shutdown stops srv, giving in-flight requests five seconds.
func Shutdown(srv *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(ctx)
}
