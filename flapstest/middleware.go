package flapstest

import (
	"bytes"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/kbukum/flyio-api/httpclient"
)

func (s *Server) relPath(c *gin.Context) string {
	return strings.TrimPrefix(c.Request.URL.Path, "/v1/apps/"+c.Param("app")+"/machines")
}

// record stores every request before any other handler runs.
func (s *Server) record() gin.HandlerFunc {
	return func(c *gin.Context) {
		body, _ := io.ReadAll(c.Request.Body)
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		s.mu.Lock()
		s.requests = append(s.requests, RecordedRequest{
			Method: c.Request.Method,
			Path:   s.relPath(c),
			Query:  c.Request.URL.Query(),
			Header: c.Request.Header.Clone(),
			Body:   body,
		})
		s.mu.Unlock()
		c.Next()
	}
}

// requestID tags every response with a fly-request-id.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		s.nextReq++
		id := fmt.Sprintf("req-%d", s.nextReq)
		s.mu.Unlock()
		c.Header("fly-request-id", id)
		c.Next()
	}
}

func (s *Server) auth() gin.HandlerFunc {
	return func(c *gin.Context) {
		s.mu.Lock()
		token := s.token
		s.mu.Unlock()
		if token == "" {
			c.Next()
			return
		}
		if c.GetHeader("Authorization") != httpclient.FlyAuth(token).Header() {
			c.AbortWithStatusJSON(http.StatusUnauthorized, apiError("unauthorized", ""))
			return
		}
		c.Next()
	}
}

func (s *Server) appExists() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Param("app") != s.app {
			c.AbortWithStatusJSON(http.StatusNotFound, apiError("app not found", ""))
			return
		}
		c.Next()
	}
}

// inject answers with failures registered through Fail.
func (s *Server) inject() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.Request.Method + " " + s.relPath(c)

		s.mu.Lock()
		f, ok := s.failures[key]
		if ok && f.times > 0 {
			f.times--
			if f.times == 0 {
				delete(s.failures, key)
			}
		}
		s.mu.Unlock()

		if !ok {
			c.Next()
			return
		}
		c.Data(f.status, "application/json", []byte(f.body))
		c.Abort()
	}
}
