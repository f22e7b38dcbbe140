package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/danmuck/plotwire/internal/observability"
	"github.com/danmuck/plotwire/internal/protocol"
	"github.com/danmuck/plotwire/internal/protocol/container"
	"github.com/danmuck/plotwire/internal/protocol/header"
	"github.com/danmuck/plotwire/internal/protocol/session"
	"github.com/gin-gonic/gin"
)

// DataRequest is one named container in JSON form. Type is a wire type code.
type DataRequest struct {
	Name   string    `json:"name" binding:"required"`
	Type   string    `json:"type" binding:"required"`
	Shape  []int     `json:"shape"`
	Values []float64 `json:"values"`
}

// BatchRequest is the body of POST /v1/batch.
type BatchRequest struct {
	Data     []DataRequest `json:"data" binding:"dive"`
	Commands []string      `json:"commands"`
	Raw      string        `json:"raw"`
}

// Items converts the request into session items, validating every header.
func (r BatchRequest) Items() ([]session.Item, error) {
	items := make([]session.Item, 0, len(r.Data))
	for i, d := range r.Data {
		if len(d.Type) != 1 {
			return nil, fmt.Errorf("%w: data[%d] type %q", protocol.ErrUnsupportedType, i, d.Type)
		}
		c, err := container.FromFloat64s(d.Type[0], d.Shape, d.Values)
		if err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		if _, err := header.New(d.Name, c); err != nil {
			return nil, fmt.Errorf("data[%d]: %w", i, err)
		}
		items = append(items, session.Named(d.Name, c))
	}
	return items, nil
}

func (s *Server) handleBatch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	items, err := req.Items()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, cmd := range req.Commands {
		s.sender.Push(cmd)
	}
	if req.Raw != "" {
		s.sender.Raw(req.Raw)
	}
	if err := s.sender.Send(items...); err != nil {
		// Each request is its own batch; nothing carries over.
		s.sender.Discard()
		status := http.StatusBadGateway
		if isRequestError(err) {
			status = http.StatusBadRequest
		}
		if errors.Is(err, protocol.ErrSessionClosed) {
			status = http.StatusServiceUnavailable
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusAccepted, gin.H{
		"status":     "sent",
		"items":      len(items),
		"request_id": observability.RequestIDFrom(c),
	})
}

func isRequestError(err error) bool {
	for _, target := range []error{
		protocol.ErrUnsupportedType,
		protocol.ErrInvalidName,
		protocol.ErrShapeMismatch,
		protocol.ErrInvalidValue,
		protocol.ErrPayloadSize,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
