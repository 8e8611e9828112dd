// ABOUTME: MCP tool definitions and handlers for read-state operations
// ABOUTME: Mark read/unread/star, batch marking, counts, status, and database sync

package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/harper/readstate/internal/models"
)

// Type definitions for input/output structures

type MarkInput struct {
	ArticleID string `json:"article_id"`
	FeedID    string `json:"feed_id"`
}

type MarkOutput struct {
	Success      bool   `json:"success"`
	ResponseTime string `json:"response_time"`
	FallbackUsed bool   `json:"fallback_used"`
	Pending      bool   `json:"pending"`
	TotalUnread  int    `json:"total_unread"`
}

type BatchMarkReadInput struct {
	Articles []models.ArticleRef `json:"articles"`
}

type BatchMarkReadOutput struct {
	Success      bool   `json:"success"`
	Count        int    `json:"count"`
	ResponseTime string `json:"response_time"`
	FallbackUsed bool   `json:"fallback_used"`
	TotalUnread  int    `json:"total_unread"`
}

type GetCountsInput struct {
	FeedID *string `json:"feed_id,omitempty"`
}

type GetCountsOutput struct {
	Counters    []models.CounterState `json:"counters"`
	TotalUnread int                   `json:"total_unread"`
}

type GetQueueOutput struct {
	Entries []models.QueueEntry `json:"entries"`
	Stats   models.QueueStats   `json:"stats"`
}

type SyncDatabaseInput struct {
	RefreshBaseline *bool `json:"refresh_baseline,omitempty"`
}

type SyncDatabaseOutput struct {
	Success       bool   `json:"success"`
	BaselineFeeds int    `json:"baseline_feeds"`
	Message       string `json:"message"`
}

// Tool registration

func (s *Server) registerTools() {
	s.registerMarkReadTool()
	s.registerMarkUnreadTool()
	s.registerToggleStarTool()
	s.registerBatchMarkReadTool()
	s.registerGetCountsTool()
	s.registerGetQueueTool()
	s.registerGetStatusTool()
	s.registerSyncDatabaseTool()
}

func (s *Server) registerMarkReadTool() {
	tool := mcp.Tool{
		Name:        "mark_read",
		Description: "Mark an article as read. The unread counter for its feed is decremented immediately and the mutation is queued for batch persistence to the backend. Returns the operation result including response time and whether the durable store accepted the write (pending=true means the change is memory-only until the next successful flush).",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"article_id": map[string]interface{}{
					"type":        "string",
					"description": "Opaque article identifier. Example: 'a1b2c3d4'",
				},
				"feed_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the feed owning the article. Example: 'feed-42'",
				},
			},
			Required: []string{"article_id", "feed_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleMarkRead)
}

func (s *Server) registerMarkUnreadTool() {
	tool := mcp.Tool{
		Name:        "mark_unread",
		Description: "Mark an article as unread, incrementing its feed's unread counter immediately. A prior pending mutation for the same article is replaced (latest wins), so toggling back and forth before a flush produces exactly one pending entry.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"article_id": map[string]interface{}{
					"type":        "string",
					"description": "Opaque article identifier. Example: 'a1b2c3d4'",
				},
				"feed_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the feed owning the article. Example: 'feed-42'",
				},
			},
			Required: []string{"article_id", "feed_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleMarkUnread)
}

func (s *Server) registerToggleStarTool() {
	tool := mcp.Tool{
		Name:        "toggle_star",
		Description: "Toggle the star flag on an article. Stars are queued like read-state mutations but do not affect unread counts.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"article_id": map[string]interface{}{
					"type":        "string",
					"description": "Opaque article identifier. Example: 'a1b2c3d4'",
				},
				"feed_id": map[string]interface{}{
					"type":        "string",
					"description": "Identifier of the feed owning the article. Example: 'feed-42'",
				},
			},
			Required: []string{"article_id", "feed_id"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleToggleStar)
}

func (s *Server) registerBatchMarkReadTool() {
	tool := mcp.Tool{
		Name:        "batch_mark_read",
		Description: "Mark several articles as read in one call. Counter deltas are aggregated per feed and applied once, avoiding intermediate states. Use this instead of repeated mark_read calls when marking a whole feed or folder read.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"articles": map[string]interface{}{
					"type":        "array",
					"description": "Articles to mark read, each with articleId and feedId. Example: [{\"articleId\":\"a1\",\"feedId\":\"f1\"}]",
					"items": map[string]interface{}{
						"type": "object",
						"properties": map[string]interface{}{
							"articleId": map[string]interface{}{"type": "string"},
							"feedId":    map[string]interface{}{"type": "string"},
						},
						"required": []string{"articleId", "feedId"},
					},
				},
			},
			Required: []string{"articles"},
		},
	}
	s.mcpServer.AddTool(tool, s.handleBatchMarkRead)
}

func (s *Server) registerGetCountsTool() {
	tool := mcp.Tool{
		Name:        "get_counts",
		Description: "Get cached per-feed unread and total counts. Optionally filter to a single feed_id. Counts reflect optimistic local state, which may be ahead of the authoritative backend until the next flush.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"feed_id": map[string]interface{}{
					"type":        "string",
					"description": "Optional feed ID to return counts for that feed only. Example: 'feed-42'",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleGetCounts)
}

func (s *Server) registerGetQueueTool() {
	tool := mcp.Tool{
		Name:        "get_queue",
		Description: "Inspect the pending mutation queue: every queued read/unread/star action with its timestamp, plus queue statistics and durable-storage availability.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
	s.mcpServer.AddTool(tool, s.handleGetQueue)
}

func (s *Server) registerGetStatusTool() {
	tool := mcp.Tool{
		Name:        "get_status",
		Description: "Get a full diagnostic snapshot: initialization state, sync status, queue statistics, all cached counters, performance readings against thresholds, and the tail of the fallback operation log.",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
	s.mcpServer.AddTool(tool, s.handleGetStatus)
}

func (s *Server) registerSyncDatabaseTool() {
	tool := mcp.Tool{
		Name:        "sync_database",
		Description: "Rebase local state onto the authoritative backend: clears the pending queue and processed ledger, resets counters and performance tracking, then (if refresh_baseline is true and a baseline source is configured) re-applies authoritative per-feed counts. Call after the backend has confirmed a batch flush.",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"refresh_baseline": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, fetch authoritative counts and re-apply them after the reset. Default: false",
				},
			},
		},
	}
	s.mcpServer.AddTool(tool, s.handleSyncDatabase)
}

// Tool handlers

func (s *Server) handleMarkRead(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleMark(req, s.manager.MarkArticleRead)
}

func (s *Server) handleMarkUnread(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleMark(req, s.manager.MarkArticleUnread)
}

func (s *Server) handleToggleStar(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return s.handleMark(req, s.manager.ToggleStar)
}

func (s *Server) handleMark(req mcp.CallToolRequest, mark func(articleID, feedID string) models.Result) (*mcp.CallToolResult, error) {
	var input MarkInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if input.ArticleID == "" {
		return nil, fmt.Errorf("article_id is required")
	}

	result := mark(input.ArticleID, input.FeedID)

	output := MarkOutput{
		Success:      result.Success,
		ResponseTime: result.ResponseTime.String(),
		FallbackUsed: result.FallbackUsed,
		Pending:      result.Pending,
		TotalUnread:  s.manager.TotalUnread(),
	}
	return marshalResult(output)
}

func (s *Server) handleBatchMarkRead(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input BatchMarkReadInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}
	if len(input.Articles) == 0 {
		return nil, fmt.Errorf("articles must not be empty")
	}

	result := s.manager.BatchMarkRead(input.Articles)

	output := BatchMarkReadOutput{
		Success:      result.Success,
		Count:        len(input.Articles),
		ResponseTime: result.ResponseTime.String(),
		FallbackUsed: result.FallbackUsed,
		TotalUnread:  s.manager.TotalUnread(),
	}
	return marshalResult(output)
}

func (s *Server) handleGetCounts(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input GetCountsInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	output := GetCountsOutput{TotalUnread: s.manager.TotalUnread()}
	if input.FeedID != nil {
		if state, ok := s.manager.FeedCounterState(*input.FeedID); ok {
			output.Counters = []models.CounterState{state}
		} else {
			output.Counters = []models.CounterState{}
		}
	} else {
		output.Counters = s.manager.AllCounterStates()
	}
	return marshalResult(output)
}

func (s *Server) handleGetQueue(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	output := GetQueueOutput{
		Entries: s.manager.QueueEntries(),
		Stats:   s.manager.QueueStats(),
	}
	return marshalResult(output)
}

func (s *Server) handleGetStatus(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return marshalResult(s.manager.GetSystemStatus())
}

func (s *Server) handleSyncDatabase(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var input SyncDatabaseInput
	if err := req.BindArguments(&input); err != nil {
		return nil, fmt.Errorf("invalid input: %w", err)
	}

	if err := s.manager.SyncWithDatabase(); err != nil {
		return nil, fmt.Errorf("sync failed: %w", err)
	}

	output := SyncDatabaseOutput{Success: true, Message: "local state rebased"}

	if input.RefreshBaseline != nil && *input.RefreshBaseline && s.source != nil {
		fetchCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
		defer cancel()

		refreshed, usedFallback := s.manager.RefreshBaseline(fetchCtx, s.source)
		if usedFallback {
			output.Message = "local state rebased; baseline refresh failed, cached counters kept"
		} else {
			output.BaselineFeeds = refreshed
			output.Message = fmt.Sprintf("local state rebased, %d feeds refreshed", refreshed)
		}
	}

	return marshalResult(output)
}

func marshalResult(output interface{}) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.MarshalIndent(output, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
