package session

import (
	"context"
	"crypto/subtle"
	"crypto/tls"
	"fmt"
	"io"
	"io/ioutil"
	"net"
	"net/http"
	"os"
	"path/filepath"
	"sync"

	"github.com/gorilla/mux"
	"github.com/hashicorp/go-multierror"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	log "github.com/sirupsen/logrus"
	"github.com/weaveworks/common/logging"
	"github.com/weaveworks/common/middleware"
	"github.com/weaveworks/common/signals"

	"github.com/weaveworks/pubbot/botapi"
	"github.com/weaveworks/pubbot/common"
)

// maxBodySize caps how much of a webhook request is read.
const maxBodySize = 1 << 20

var webhookRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: common.PrometheusNamespace,
	Name:      "webhook_requests_total",
	Help:      "Webhook requests received, by outcome.",
}, []string{"result"})

func init() {
	prometheus.MustRegister(webhookRequests)
}

// State of a Session.
type State int

// Session states, in lifecycle order.
const (
	Stopped State = iota
	Registering
	Listening
	Draining
)

func (s State) String() string {
	switch s {
	case Stopped:
		return "stopped"
	case Registering:
		return "registering"
	case Listening:
		return "listening"
	case Draining:
		return "draining"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Dispatcher processes the raw body of an accepted webhook request.
type Dispatcher interface {
	Dispatch(ctx context.Context, raw []byte) error
}

// Session owns the webhook: its secret, its registration with the Bot API
// and the HTTP server receiving updates.
type Session struct {
	cfg        Config
	api        botapi.API
	dispatcher Dispatcher

	secret     string
	webhookURL string
	handler    http.Handler
	// ctx outlives webhook requests so handlers can keep calling out after the response.
	ctx context.Context

	mtx      sync.Mutex
	state    State
	listener net.Listener
	server   *http.Server
	serveErr chan error
	done     chan struct{}

	// stopPending is set by Stop while registering.
	stopPending bool
}

// New creates a Session with a fresh secret drawn from random.
func New(cfg Config, api botapi.API, dispatcher Dispatcher, random io.Reader) (*Session, error) {
	secret, err := generateSecret(random)
	if err != nil {
		return nil, err
	}
	s := &Session{
		cfg:        cfg,
		api:        api,
		dispatcher: dispatcher,
		secret:     secret,
		webhookURL: fmt.Sprintf("https://%s:%d/webhook/%s", cfg.PublicHost, cfg.PublicPort, secret),
		ctx:        context.Background(),
		state:      Stopped,
		serveErr:   make(chan error, 1),
		done:       make(chan struct{}),
	}
	s.handler = s.routes()
	return s, nil
}

func (s *Session) routes() http.Handler {
	r := mux.NewRouter()
	observed := middleware.Merge(
		middleware.Log{Log: logging.Logrus(log.StandardLogger())},
		middleware.Instrument{RouteMatcher: r, Duration: common.RequestDuration},
	)
	// The webhook path carries the secret and its writer must stay flushable,
	// so it is counted by webhookRequests instead.
	r.Handle("/webhook/{secret}", http.HandlerFunc(s.webhook)).Methods("POST").Name("webhook")
	r.Handle("/metrics", observed.Wrap(promhttp.Handler())).Methods("GET").Name("metrics")
	r.Handle("/healthcheck", observed.Wrap(http.HandlerFunc(s.healthcheck))).Methods("GET").Name("healthcheck")
	return r
}

// State returns the current lifecycle state.
func (s *Session) State() State {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	return s.state
}

// Addr returns the address the server listens on, nil before Start.
func (s *Session) Addr() net.Addr {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

func (s *Session) setState(state State) {
	s.mtx.Lock()
	defer s.mtx.Unlock()
	s.state = state
}

// Start binds the listener, starts serving and registers the webhook. If
// registration fails the listener is closed and the error returned. If Stop
// was called while registering, the session drains as soon as registration
// completes.
func (s *Session) Start(ctx context.Context) error {
	s.mtx.Lock()
	if s.state != Stopped || s.server != nil {
		s.mtx.Unlock()
		return errors.New("session already started")
	}
	s.state = Registering
	s.mtx.Unlock()

	server := &http.Server{Handler: s.handler}
	if s.cfg.TLS {
		cert, err := tls.LoadX509KeyPair(s.cfg.TLSCertFile, s.cfg.TLSKeyFile)
		if err != nil {
			s.setState(Stopped)
			return errors.Wrap(err, "loading TLS key pair")
		}
		server.TLSConfig = &tls.Config{Certificates: []tls.Certificate{cert}}
	}

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", s.cfg.ListenPort))
	if err != nil {
		s.setState(Stopped)
		return errors.Wrap(err, "listening")
	}
	s.mtx.Lock()
	s.listener = lis
	s.server = server
	s.mtx.Unlock()

	go func() {
		var err error
		if s.cfg.TLS {
			err = server.ServeTLS(lis, "", "")
		} else {
			err = server.Serve(lis)
		}
		if err != http.ErrServerClosed {
			s.serveErr <- err
		}
	}()

	if err := s.register(ctx); err != nil {
		server.Close()
		s.setState(Stopped)
		close(s.done)
		return errors.Wrap(err, "registering webhook")
	}
	s.mtx.Lock()
	s.state = Listening
	stop := s.stopPending
	s.mtx.Unlock()
	log.Infof("Listening on %s, webhook registered at https://%s:%d/webhook/...", lis.Addr(), s.cfg.PublicHost, s.cfg.PublicPort)
	if stop {
		return s.Stop()
	}
	return nil
}

func (s *Session) register(ctx context.Context) error {
	me, err := s.api.GetMe(ctx)
	if err != nil {
		return err
	}
	log.Infof("Authorized as %s (%d)", me.DisplayName(), me.ID)

	var certificate *botapi.InputFile
	if s.cfg.TLSCertFile != "" {
		f, err := os.Open(s.cfg.TLSCertFile)
		if err != nil {
			return errors.Wrap(err, "opening certificate")
		}
		defer f.Close()
		certificate = &botapi.InputFile{Name: filepath.Base(s.cfg.TLSCertFile), Reader: f}
	}

	ok, err := s.api.SetWebhook(ctx, s.webhookURL, certificate)
	if err != nil {
		return err
	}
	if !ok {
		return errors.New("setWebhook was not acknowledged")
	}
	return nil
}

// Stop stops accepting connections and unregisters the webhook, both at once
// and bounded by the shutdown timeout. Unregistration failures are logged.
// Stop is idempotent and implements signals.SignalReceiver. While
// registering it only marks the session to be stopped by Start.
func (s *Session) Stop() error {
	s.mtx.Lock()
	if s.state == Registering {
		s.stopPending = true
		s.mtx.Unlock()
		log.Info("Stop requested while registering webhook")
		return nil
	}
	if s.state != Listening {
		s.mtx.Unlock()
		return nil
	}
	s.state = Draining
	server := s.server
	s.mtx.Unlock()

	log.Info("Stopping webhook session")
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	var (
		wg   sync.WaitGroup
		mtx  sync.Mutex
		errs error
	)
	record := func(err error) {
		mtx.Lock()
		defer mtx.Unlock()
		errs = multierror.Append(errs, err)
	}
	wg.Add(2)
	go func() {
		defer wg.Done()
		if err := server.Shutdown(ctx); err != nil {
			server.Close()
			record(errors.Wrap(err, "shutting down HTTP server"))
		}
	}()
	go func() {
		defer wg.Done()
		if _, err := s.api.SetWebhook(ctx, "", nil); err != nil {
			record(errors.Wrap(err, "unregistering webhook"))
		}
	}()
	wg.Wait()
	if errs != nil {
		log.Warnf("Webhook session did not stop cleanly: %v", errs)
	}

	s.setState(Stopped)
	close(s.done)
	return nil
}

// Run starts the session and blocks until it is stopped by SIGINT/SIGTERM, by
// ctx or by a server failure.
func (s *Session) Run(ctx context.Context) error {
	handler := signals.NewHandler(logging.Logrus(log.StandardLogger()), s)
	go handler.Loop()
	defer handler.Stop()

	if err := s.Start(ctx); err != nil {
		return err
	}

	select {
	case <-s.done:
	case <-ctx.Done():
		s.Stop()
	case err := <-s.serveErr:
		s.Stop()
		return errors.Wrap(err, "serving webhook")
	}
	<-s.done
	return nil
}

// webhook always answers 204 so senders learn nothing about the secret. The
// body is read first, the response flushed, and only then dispatched.
func (s *Session) webhook(w http.ResponseWriter, r *http.Request) {
	if subtle.ConstantTimeCompare([]byte(mux.Vars(r)["secret"]), []byte(s.secret)) != 1 {
		webhookRequests.WithLabelValues("rejected").Inc()
		w.WriteHeader(http.StatusNoContent)
		return
	}

	body, err := ioutil.ReadAll(io.LimitReader(r.Body, maxBodySize+1))
	w.WriteHeader(http.StatusNoContent)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	if err != nil || len(body) > maxBodySize {
		webhookRequests.WithLabelValues("malformed").Inc()
		log.Warnf("Dropping webhook request: body unreadable or larger than %d bytes", maxBodySize)
		return
	}

	if err := s.dispatcher.Dispatch(s.ctx, body); err != nil {
		webhookRequests.WithLabelValues("malformed").Inc()
		log.WithError(err).Warn("Dropping update")
		return
	}
	webhookRequests.WithLabelValues("accepted").Inc()
}

func (s *Session) healthcheck(w http.ResponseWriter, r *http.Request) {
	state := s.State()
	if state != Listening {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	fmt.Fprintln(w, state)
}
