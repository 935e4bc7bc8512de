package flapstest

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/kbukum/flyio-api/flaps"
	"github.com/kbukum/flyio-api/machine"
)

// DefaultLeaseTTL is used when a lease request carries no ttl.
const DefaultLeaseTTL = 30

func apiError(err, message string) gin.H {
	h := gin.H{"error": err}
	if message != "" {
		h["message"] = message
	}
	return h
}

// lookup returns the machine for :id or answers 404.
func (s *Server) lookup(c *gin.Context) (*machine.Machine, bool) {
	m, ok := s.machines[c.Param("id")]
	if !ok {
		c.JSON(http.StatusNotFound, apiError("machine not found", ""))
	}
	return m, ok
}

func (s *Server) list(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := machine.State(c.Query("state"))
	out := make([]*machine.Machine, 0, len(s.order))
	for _, id := range s.order {
		m := s.machines[id]
		if state == "" || m.State == state {
			out = append(out, m)
		}
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) launch(c *gin.Context) {
	var in flaps.LaunchMachineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	now := time.Now().UTC()
	m := &machine.Machine{
		Name:       in.Name,
		Region:     in.Region,
		Config:     in.Config,
		State:      machine.StateStarted,
		InstanceID: uuid.NewString(),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if in.SkipLaunch {
		m.State = machine.StateCreated
	}
	if in.Config != nil {
		if ref, err := machine.ParseImageRef(in.Config.Image); err == nil {
			m.ImageRef = ref
		}
	}
	s.put(m)
	if in.LeaseTTL != nil {
		m.LeaseNonce = s.grantLease(m.ID, *in.LeaseTTL).Data.Nonce
	}
	c.JSON(http.StatusOK, m)
}

func (s *Server) get(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m, ok := s.lookup(c); ok {
		c.JSON(http.StatusOK, m)
	}
}

func (s *Server) update(c *gin.Context) {
	var in flaps.LaunchMachineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	if in.Config != nil {
		m.Config = in.Config
	}
	m.InstanceID = uuid.NewString()
	m.UpdatedAt = time.Now().UTC()
	c.JSON(http.StatusOK, m)
}

func (s *Server) start(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	prev := m.State
	m.State = machine.StateStarted
	c.JSON(http.StatusOK, flaps.MachineStartResponse{Status: "ok", PreviousState: string(prev)})
}

func (s *Server) stop(c *gin.Context) {
	var in flaps.StopMachineInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	m.State = machine.StateStopped
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) restart(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	m.State = machine.StateStarted
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) wait(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok {
		return
	}
	state := machine.State(c.DefaultQuery("state", string(machine.StateStarted)))
	if n := s.waits[m.ID]; n > 0 {
		s.waits[m.ID] = n - 1
		if n == 1 {
			m.State = state
		}
	}
	if m.State != state {
		c.JSON(http.StatusRequestTimeout, apiError("deadline_exceeded: machine did not reach state "+string(state), ""))
		return
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) destroy(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	if m.State == machine.StateStarted && c.Query("kill") != "true" {
		c.JSON(http.StatusPreconditionFailed, apiError("machine still active, refusing to destroy", ""))
		return
	}
	s.remove(m.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) signal(c *gin.Context) {
	var in flaps.Signal
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok {
		return
	}
	if in.Signal == flaps.SIGKILL {
		m.State = machine.StateStopped
	}
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) findLease(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok {
		return
	}
	lease, ok := s.leases[m.ID]
	if !ok {
		c.JSON(http.StatusNotFound, apiError("not_found", "lease not found"))
		return
	}
	c.JSON(http.StatusOK, lease)
}

func (s *Server) acquireLease(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok {
		return
	}
	if _, held := s.leases[m.ID]; held {
		c.JSON(http.StatusConflict, apiError("lease currently held", ""))
		return
	}
	c.JSON(http.StatusOK, s.grantLease(m.ID, ttlParam(c)))
}

func (s *Server) refreshLease(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok {
		return
	}
	lease, held := s.leases[m.ID]
	if !held {
		c.JSON(http.StatusNotFound, apiError("not_found", "lease not found"))
		return
	}
	if c.GetHeader("fly-machine-lease-nonce") != lease.Data.Nonce {
		c.JSON(http.StatusConflict, apiError("lease nonce mismatch", ""))
		return
	}
	lease.Data.ExpiresAt = time.Now().Add(time.Duration(ttlParam(c)) * time.Second).Unix()
	c.JSON(http.StatusOK, lease)
}

func (s *Server) releaseLease(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.lookup(c)
	if !ok || !s.checkNonce(c, m.ID) {
		return
	}
	delete(s.leases, m.ID)
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) exec(c *gin.Context) {
	var in flaps.MachineExecRequest
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, apiError("invalid request", err.Error()))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(c); !ok {
		return
	}
	args := strings.Fields(in.Cmd)
	resp := flaps.MachineExecResponse{}
	switch {
	case len(args) > 0 && args[0] == "echo":
		resp.Stdout = strings.Join(args[1:], " ") + "\n"
	default:
		resp.ExitCode = 127
		resp.Stderr = fmt.Sprintf("%s: command not found\n", in.Cmd)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) ps(c *gin.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.lookup(c); !ok {
		return
	}
	c.JSON(http.StatusOK, []machine.ProcessStat{{
		PID:       1,
		Command:   "/.fly/init",
		Directory: "/",
	}})
}

// checkNonce rejects requests on a leased machine that do not carry the
// lease nonce.
func (s *Server) checkNonce(c *gin.Context, id string) bool {
	lease, held := s.leases[id]
	if !held || c.GetHeader("fly-machine-lease-nonce") == lease.Data.Nonce {
		return true
	}
	c.JSON(http.StatusPreconditionFailed, apiError("machine is leased", "request is missing the lease nonce"))
	return false
}

func (s *Server) grantLease(id string, ttl int) *flaps.MachineLease {
	lease := &flaps.MachineLease{
		Status: "success",
		Data: &flaps.MachineLeaseData{
			Nonce:     uuid.NewString(),
			ExpiresAt: time.Now().Add(time.Duration(ttl) * time.Second).Unix(),
			Owner:     "flapstest",
		},
	}
	s.leases[id] = lease
	return lease
}

func ttlParam(c *gin.Context) int {
	ttl, err := strconv.Atoi(c.Query("ttl"))
	if err != nil || ttl <= 0 {
		return DefaultLeaseTTL
	}
	return ttl
}
