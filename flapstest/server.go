// Package flapstest provides an in-memory Machines API server for tests.
package flapstest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"slices"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/machine"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// RecordedRequest is a request the server received.
type RecordedRequest struct {
	Method string
	// Path is relative to the app's machines collection, e.g. "/148ed/wait".
	Path   string
	Query  url.Values
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
	times  int
}

// Server is a fake Machines API for a single app.
type Server struct {
	*httptest.Server

	app string

	mu       sync.Mutex
	token    string
	order    []string
	machines map[string]*machine.Machine
	leases   map[string]*flaps.MachineLease
	waits    map[string]int
	failures map[string]*failure
	requests []RecordedRequest
	nextID   int
	nextReq  int
}

// NewServer starts a server for app and closes it when t finishes.
func NewServer(t testing.TB, app string) *Server {
	t.Helper()
	s := &Server{
		app:      app,
		machines: make(map[string]*machine.Machine),
		leases:   make(map[string]*flaps.MachineLease),
		waits:    make(map[string]int),
		failures: make(map[string]*failure),
	}
	s.Server = httptest.NewServer(s.engine())
	t.Cleanup(s.Close)
	return s
}

// Settings returns client settings pointing at the server.
func (s *Server) Settings() flaps.Settings {
	s.mu.Lock()
	defer s.mu.Unlock()
	return flaps.Settings{
		BaseURL:   s.URL,
		AppName:   s.app,
		AuthToken: s.token,
	}
}

// RequireToken rejects requests whose Authorization header is not the one
// flaps derives from token.
func (s *Server) RequireToken(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
}

// AddMachine stores a copy of m.
func (s *Server) AddMachine(m machine.Machine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.put(&m)
}

// Machine returns a copy of the stored machine.
func (s *Server) Machine(id string) (machine.Machine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.machines[id]
	if !ok {
		return machine.Machine{}, false
	}
	return *m, true
}

// ReachStateAfter makes wait requests on id time out n times before the
// machine reports the requested state.
func (s *Server) ReachStateAfter(id string, n int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.waits[id] = n
}

// Fail answers the next times requests to method and path with status and a
// raw body. times <= 0 fails every request. path is relative to the machines
// collection, "" for the collection itself.
func (s *Server) Fail(method, path string, status int, body string, times int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = &failure{status: status, body: body, times: times}
}

// Requests returns the requests received so far.
func (s *Server) Requests() []RecordedRequest {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.requests)
}

// LastRequest returns the most recent request.
func (s *Server) LastRequest() (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.requests) == 0 {
		return RecordedRequest{}, false
	}
	return s.requests[len(s.requests)-1], true
}

func (s *Server) put(m *machine.Machine) {
	if m.ID == "" {
		s.nextID++
		m.ID = fmt.Sprintf("%014x", s.nextID)
	}
	if _, ok := s.machines[m.ID]; !ok {
		s.order = append(s.order, m.ID)
	}
	s.machines[m.ID] = m
}

func (s *Server) remove(id string) {
	delete(s.machines, id)
	delete(s.leases, id)
	s.order = slices.DeleteFunc(s.order, func(v string) bool { return v == id })
}

func (s *Server) engine() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	g := r.Group("/v1/apps/:app/machines", s.record(), s.requestID(), s.auth(), s.appExists(), s.inject())
	g.GET("", s.list)
	g.POST("", s.launch)
	g.GET("/:id", s.get)
	g.POST("/:id", s.update)
	g.POST("/:id/start", s.start)
	g.POST("/:id/stop", s.stop)
	g.POST("/:id/restart", s.restart)
	g.GET("/:id/wait", s.wait)
	g.DELETE("/:id/destroy", s.destroy)
	g.POST("/:id/signal", s.signal)
	g.GET("/:id/lease", s.findLease)
	g.POST("/:id/lease", s.acquireLease)
	g.POST("/:id/lease/refresh", s.refreshLease)
	g.DELETE("/:id/lease", s.releaseLease)
	g.POST("/:id/exec", s.exec)
	g.GET("/:id/ps", s.ps)
	return r
}
