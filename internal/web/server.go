package web

import (
	"context"
	"errors"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"biliguard/pkg/logger"
	"biliguard/pkg/ratelimit"
	"biliguard/pkg/status"
	"biliguard/pkg/store"
)

// commentsPerPage is the dashboard feed page size
const commentsPerPage = 50

// Server is the HTTP dashboard: a human-readable comment feed, a status
// endpoint, operator flagging, and Prometheus metrics. It only reads the
// store except for the flag endpoints.
type Server struct {
	store  store.Store
	status *status.Manager
	rates  func() ratelimit.Rates
	log    logger.Logger

	engine *gin.Engine
	srv    *http.Server
}

// NewServer builds the dashboard server. rates reports the scrape worker's
// current throughput; gatherer feeds the /metrics endpoint.
func NewServer(addr string, st store.Store, statusMgr *status.Manager, rates func() ratelimit.Rates, gatherer prometheus.Gatherer, log logger.Logger) *Server {
	if log == nil {
		log = logger.GetLogger()
	}

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.SetHTMLTemplate(template.Must(template.New("").Parse(feedTemplate)))

	s := &Server{
		store:  st,
		status: statusMgr,
		rates:  rates,
		log:    log,
		engine: engine,
		srv: &http.Server{
			Addr:    addr,
			Handler: engine,
		},
	}

	engine.GET("/healthz", s.handleHealthz)
	engine.GET("/status", s.handleStatus)
	engine.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))
	engine.GET("/", s.handleFeed)
	engine.GET("/comments", s.handleFeed)

	api := engine.Group("/api")
	{
		api.GET("/comments", s.handleCommentsJSON)
		api.POST("/comments/:rpid/flag", s.handleFlag)
		api.POST("/comments/:rpid/unflag", s.handleUnflag)
	}

	return s
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	s.log.InfoWithFields("dashboard listening", map[string]interface{}{
		"addr": s.srv.Addr,
	})

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return s.srv.Shutdown(shutdownCtx)
}

// Handler exposes the route tree for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}
