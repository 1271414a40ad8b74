package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/nerrad567/enodebd/internal/audit"
	"github.com/nerrad567/enodebd/internal/auth"
	"github.com/nerrad567/enodebd/internal/enodeb"
	"github.com/nerrad567/enodebd/internal/infrastructure/config"
	"github.com/nerrad567/enodebd/internal/infrastructure/database"
	"github.com/nerrad567/enodebd/internal/infrastructure/influxdb"
	"github.com/nerrad567/enodebd/internal/infrastructure/logging"
	"github.com/nerrad567/enodebd/internal/infrastructure/mqtt"
	"github.com/nerrad567/enodebd/internal/manager"
)

// gracefulShutdownTimeout is the maximum time to wait for in-flight requests
// to complete during shutdown.
const gracefulShutdownTimeout = 10 * time.Second

// Deps holds the dependencies required by the API server.
type Deps struct {
	Config    config.APIConfig
	WS        config.WebSocketConfig
	Logger    *logging.Logger
	Manager   *manager.Manager
	Records   enodeb.Repository
	Audit     audit.Repository
	Auth      *auth.Service
	Operators auth.OperatorRepository

	// Optional. Only reported by health and metrics.
	DB       *database.DB
	MQTT     *mqtt.Client
	InfluxDB *influxdb.Client

	// Hub is shared with the manager, which broadcasts on it. When nil
	// the server creates its own.
	Hub     *Hub
	Version string
}

// Server is the HTTP API server.
type Server struct {
	cfg       config.APIConfig
	wsCfg     config.WebSocketConfig
	logger    *logging.Logger
	manager   *manager.Manager
	records   enodeb.Repository
	auditRepo audit.Repository
	auth      *auth.Service
	operators auth.OperatorRepository
	db        *database.DB
	mqtt      *mqtt.Client
	influx    *influxdb.Client
	version   string
	started   time.Time

	server      *http.Server
	hub         *Hub
	externalHub bool
	tickets     *ticketStore
	auditCh     chan *audit.Entry
	cancel      context.CancelFunc
}

// New creates a new API server with the given dependencies.
// The server is not started until Start is called.
func New(deps Deps) (*Server, error) {
	switch {
	case deps.Logger == nil:
		return nil, errors.New("logger is required")
	case deps.Manager == nil:
		return nil, errors.New("manager is required")
	case deps.Records == nil:
		return nil, errors.New("enodeb repository is required")
	case deps.Auth == nil || deps.Operators == nil:
		return nil, errors.New("auth service and operator repository are required")
	}

	s := &Server{
		cfg:       deps.Config,
		wsCfg:     deps.WS,
		logger:    deps.Logger.With("component", "api"),
		manager:   deps.Manager,
		records:   deps.Records,
		auditRepo: deps.Audit,
		auth:      deps.Auth,
		operators: deps.Operators,
		db:        deps.DB,
		mqtt:      deps.MQTT,
		influx:    deps.InfluxDB,
		version:   deps.Version,
		started:   time.Now(),
		tickets:   newTicketStore(),
	}
	if deps.Hub != nil {
		s.hub = deps.Hub
		s.externalHub = true
	}
	if deps.Audit != nil {
		s.auditCh = make(chan *audit.Entry, auditChanSize)
	}
	return s, nil
}

// Start launches the hub, the audit writer and the HTTP listener in the
// background. Stop it with Close.
func (s *Server) Start(ctx context.Context) error {
	var srvCtx context.Context
	srvCtx, s.cancel = context.WithCancel(ctx)

	if s.hub == nil {
		s.hub = NewHub(s.wsCfg, s.logger)
	}
	if !s.externalHub {
		go s.hub.Run(srvCtx)
	}
	go s.tickets.cleanLoop(srvCtx)
	if s.auditCh != nil {
		go s.drainAuditLog(srvCtx)
	}

	s.server = &http.Server{
		Addr:              fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port),
		Handler:           s.buildRouter(),
		ReadTimeout:       time.Duration(s.cfg.Timeouts.Read) * time.Second,
		ReadHeaderTimeout: time.Duration(s.cfg.Timeouts.Read) * time.Second,
		WriteTimeout:      time.Duration(s.cfg.Timeouts.Write) * time.Second,
		IdleTimeout:       time.Duration(s.cfg.Timeouts.Idle) * time.Second,
	}

	go func() {
		var err error
		if s.cfg.TLS.Enabled {
			s.logger.Info("API server starting with TLS", "address", s.server.Addr, "cert", s.cfg.TLS.CertFile)
			err = s.server.ListenAndServeTLS(s.cfg.TLS.CertFile, s.cfg.TLS.KeyFile)
		} else {
			s.logger.Info("API server starting", "address", s.server.Addr)
			err = s.server.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("API server error", "error", err)
		}
	}()

	return nil
}

// Close gracefully shuts down the API server, waiting up to 10 seconds
// for in-flight requests.
func (s *Server) Close() error {
	if s.server == nil {
		return nil
	}
	if s.cancel != nil {
		s.cancel()
	}

	ctx, cancel := context.WithTimeout(context.Background(), gracefulShutdownTimeout)
	defer cancel()

	s.logger.Info("API server shutting down")
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutting down API server: %w", err)
	}
	return nil
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub { return s.hub }

// HealthCheck verifies the API server is running.
func (s *Server) HealthCheck(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("api health check: %w", ctx.Err())
	default:
	}
	if s.server == nil {
		return errors.New("api server not started")
	}
	return nil
}
