// Package node assembles the persisted registry core and its HTTP
// interfaces into a runnable unit.
package node

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/surety-network/surety/core"
	"github.com/surety-network/surety/internal/suretyapi"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/metrics"
	"github.com/surety-network/surety/params"
	"github.com/surety-network/surety/suretydb"
	"github.com/surety-network/surety/suretydb/leveldb"
	"github.com/surety-network/surety/suretydb/memorydb"
)

const (
	initializingState = iota
	runningState
	closedState
)

var (
	// ErrNodeStopped is returned when an operation requires a started
	// node and the node has not been started or is already closed.
	ErrNodeStopped = errors.New("node not started")

	// ErrNodeRunning is returned by Start on a node that already runs.
	ErrNodeRunning = errors.New("node already running")
)

const (
	eventBacklog   = 256
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// Node is a container assembling the registry core, its database and
// the HTTP stack serving it.
type Node struct {
	config Config
	db     suretydb.KeyValueStore
	sys    *core.System

	httpServer *http.Server
	listener   net.Listener
	upgrader   websocket.Upgrader

	startStopLock sync.Mutex
	state         int
	quit          chan struct{}
	wg            sync.WaitGroup
}

// New creates a node from config: it opens the backing database, boots
// the registry core and wires up, but does not start, the HTTP stack.
func New(conf *Config) (*Node, error) {
	confCopy := *conf
	conf = &confCopy
	if conf.Name == "" {
		conf.Name = DefaultConfig.Name
	}
	db, err := openDatabase(conf)
	if err != nil {
		return nil, err
	}
	sys, err := core.NewSystem(db, core.Config{
		Owner:        conf.Owner,
		Origin:       conf.Origin,
		FirstAirline: conf.FirstAirline,
		Seed:         conf.Seed,
		Transferor:   journalTransferor{},
	})
	if err != nil {
		db.Close()
		return nil, err
	}
	n := &Node{
		config: *conf,
		db:     db,
		sys:    sys,
		quit:   make(chan struct{}),
	}
	n.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(conf.WSOrigins),
	}
	handler, err := n.assembleHandler()
	if err != nil {
		db.Close()
		return nil, err
	}
	n.httpServer = &http.Server{
		Handler:           handler,
		ReadTimeout:       30 * time.Second,
		ReadHeaderTimeout: 30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return n, nil
}

func openDatabase(conf *Config) (suretydb.KeyValueStore, error) {
	if conf.DataDir == "" {
		log.Warn("Running with an ephemeral in-memory database")
		return memorydb.New(), nil
	}
	return leveldb.New(conf.DatabaseDir(), conf.DatabaseCache, conf.DatabaseHandles, false)
}

// assembleHandler builds the route table. The RPC endpoint is wrapped
// first in the JWT check, then in CORS so preflight requests pass
// unauthenticated.
func (n *Node) assembleHandler() (http.Handler, error) {
	rpc, err := suretyapi.NewServer(n.sys, n.config.Origin)
	if err != nil {
		return nil, err
	}
	var (
		rpcHandler    http.Handler = rpc
		eventsHandler http.Handler = http.HandlerFunc(n.serveEvents)
	)
	if n.config.JWTSecretFile != "" {
		secret, err := ObtainJWTSecret(n.config.ResolvePath(n.config.JWTSecretFile))
		if err != nil {
			return nil, err
		}
		rpcHandler = newJWTHandler(secret, rpcHandler)
		eventsHandler = newJWTHandler(secret, eventsHandler)
	}
	if len(n.config.HTTPCors) > 0 {
		c := cors.New(cors.Options{
			AllowedOrigins: n.config.HTTPCors,
			AllowedMethods: []string{http.MethodPost},
			AllowedHeaders: []string{"Content-Type", "Authorization"},
			MaxAge:         600,
		})
		rpcHandler = c.Handler(rpcHandler)
	}
	router := httprouter.New()
	router.Handler(http.MethodPost, "/rpc", rpcHandler)
	router.Handler(http.MethodOptions, "/rpc", rpcHandler)
	router.Handler(http.MethodGet, "/events", eventsHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())
	router.HandlerFunc(http.MethodGet, "/health", n.serveHealth)
	return router, nil
}

// Start launches the HTTP server.
func (n *Node) Start() error {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()

	switch n.state {
	case runningState:
		return ErrNodeRunning
	case closedState:
		return ErrNodeStopped
	}
	listener, err := net.Listen("tcp", n.config.HTTPEndpoint())
	if err != nil {
		return err
	}
	n.listener = listener
	n.state = runningState
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		if err := n.httpServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("HTTP server failed", "err", err)
		}
	}()
	log.Info("HTTP server started", "endpoint", "http://"+listener.Addr().String(), "name", n.config.Name)
	return nil
}

// Close terminates the node: it shuts the HTTP server down, waits for
// the event streams to wind down and releases the database. Closing a
// node that was never started just releases the database.
func (n *Node) Close() error {
	n.startStopLock.Lock()
	switch n.state {
	case initializingState:
		n.state = closedState
		close(n.quit)
		n.startStopLock.Unlock()
		return n.db.Close()
	case closedState:
		n.startStopLock.Unlock()
		return ErrNodeStopped
	}
	n.state = closedState
	n.startStopLock.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	err := n.httpServer.Shutdown(ctx)
	close(n.quit)
	n.wg.Wait()
	if cerr := n.db.Close(); err == nil {
		err = cerr
	}
	log.Info("Node stopped")
	return err
}

// Wait blocks until the node is closed.
func (n *Node) Wait() {
	<-n.quit
}

// System returns the registry core driven by this node.
func (n *Node) System() *core.System {
	return n.sys
}

// HTTPEndpoint returns the address the HTTP server listens on, or the
// empty string before Start.
func (n *Node) HTTPEndpoint() string {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()
	if n.listener == nil {
		return ""
	}
	return n.listener.Addr().String()
}

type healthStatus struct {
	Name        string `json:"name"`
	Version     string `json:"version"`
	Operational bool   `json:"operational"`
	Airlines    uint64 `json:"airlines"`
	Oracles     int    `json:"oracles"`
}

func (n *Node) serveHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(healthStatus{
		Name:        n.config.Name,
		Version:     params.VersionWithMeta,
		Operational: n.sys.IsOperational(),
		Airlines:    n.sys.RegisteredAirlineCount(),
		Oracles:     len(n.sys.Oracles()),
	})
}

// wsEnvelope frames a notification on the event stream.
type wsEnvelope struct {
	Kind  string            `json:"kind"`
	Event core.Notification `json:"event"`
}

// registerStream reserves a shutdown-tracking slot for a websocket
// handler. It fails once shutdown has begun.
func (n *Node) registerStream() bool {
	n.startStopLock.Lock()
	defer n.startStopLock.Unlock()
	if n.state != runningState {
		return false
	}
	n.wg.Add(1)
	return true
}

// serveEvents streams registry notifications over a websocket. The
// stream is write-only; inbound frames are read solely to surface
// disconnects.
func (n *Node) serveEvents(w http.ResponseWriter, r *http.Request) {
	if !n.registerStream() {
		http.Error(w, "node shutting down", http.StatusServiceUnavailable)
		return
	}
	defer n.wg.Done()

	conn, err := n.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Debug("Websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	metrics.EventClients.Inc()
	defer metrics.EventClients.Dec()

	ch := make(chan core.Notification, eventBacklog)
	sub := n.sys.SubscribeNotifications(ch)
	defer sub.Unsubscribe()

	gone := make(chan struct{})
	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()

	for {
		select {
		case ev := <-ch:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(wsEnvelope{Kind: ev.Kind(), Event: ev}); err != nil {
				return
			}
		case <-ping.C:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-gone:
			return
		case <-n.quit:
			conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "node shutting down"))
			return
		}
	}
}

// originChecker builds the websocket origin filter. Requests without an
// Origin header and same-host requests always pass.
func originChecker(allowed []string) func(*http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		if u, err := url.Parse(origin); err == nil && strings.EqualFold(u.Host, r.Host) {
			return true
		}
		for _, o := range allowed {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
		return false
	}
}
