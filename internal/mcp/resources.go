// ABOUTME: MCP resource providers for readstate
// ABOUTME: Exposes read-only views of counters, the pending queue, and system status

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
)

// ResourceData is the standard response format for all resources.
type ResourceData struct {
	Metadata ResourceMetadata `json:"metadata"`
	Data     interface{}      `json:"data"`
}

// ResourceMetadata contains metadata about the resource response.
type ResourceMetadata struct {
	Timestamp   time.Time `json:"timestamp"`
	Count       int       `json:"count"`
	ResourceURI string    `json:"resource_uri"`
}

func (s *Server) registerResources() {
	s.registerCountsResource()
	s.registerQueueResource()
	s.registerStatusResource()
}

func (s *Server) registerCountsResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "readstate://counts",
			Name:        "Feed Counters",
			Description: "Cached per-feed unread and total counts reflecting optimistic local state",
			MIMEType:    "application/json",
		},
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			states := s.manager.AllCounterStates()
			return resourceJSON(request.Params.URI, len(states), map[string]interface{}{
				"counters":     states,
				"total_unread": s.manager.TotalUnread(),
			})
		},
	)
}

func (s *Server) registerQueueResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "readstate://queue",
			Name:        "Pending Queue",
			Description: "Pending read/unread/star mutations awaiting flush to the backend",
			MIMEType:    "application/json",
		},
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			entries := s.manager.QueueEntries()
			return resourceJSON(request.Params.URI, len(entries), map[string]interface{}{
				"entries": entries,
				"stats":   s.manager.QueueStats(),
			})
		},
	)
}

func (s *Server) registerStatusResource() {
	s.mcpServer.AddResource(
		mcp.Resource{
			URI:         "readstate://status",
			Name:        "System Status",
			Description: "Full diagnostic snapshot: sync state, queue, counters, performance, fallback log",
			MIMEType:    "application/json",
		},
		func(_ context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
			status := s.manager.GetSystemStatus()
			return resourceJSON(request.Params.URI, len(status.Counters), status)
		},
	)
}

func resourceJSON(uri string, count int, data interface{}) ([]mcp.ResourceContents, error) {
	payload := ResourceData{
		Metadata: ResourceMetadata{
			Timestamp:   time.Now(),
			Count:       count,
			ResourceURI: uri,
		},
		Data: data,
	}

	jsonBytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}

	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(jsonBytes),
		},
	}, nil
}
