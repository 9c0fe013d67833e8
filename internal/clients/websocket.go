package clients

import (
	"context"

	"negativacao-sync/internal/domain"
	ws "negativacao-sync/internal/transport/websocket"
)

const (
	TopicRuns    = "runs"
	TopicReports = "reports"
)

type WebSocketClient struct {
	hub *ws.Hub
}

func NewWebSocketClient(hub *ws.Hub) *WebSocketClient {
	return &WebSocketClient{
		hub: hub,
	}
}

// NotifyRun publishes a recorded workflow run to the runs topic.
func (c *WebSocketClient) NotifyRun(ctx context.Context, run domain.Run) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(TopicRuns, &ws.Message{
		Type: "run_recorded",
		Data: run,
	})
	return nil
}

func (c *WebSocketClient) NotifyReportProgress(ctx context.Context, reportID string, progress float64, stage string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	data := map[string]any{
		"id":       reportID,
		"progress": progress,
	}
	if stage != "" {
		data["stage"] = stage
	}

	c.hub.Broadcast(TopicReports, &ws.Message{
		Type: "report_progress",
		Data: data,
	})
	return nil
}

func (c *WebSocketClient) NotifyReportComplete(ctx context.Context, reportID, url, filename string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(TopicReports, &ws.Message{
		Type: "report_complete",
		Data: map[string]any{
			"id":       reportID,
			"url":      url,
			"filename": filename,
		},
	})
	return nil
}

func (c *WebSocketClient) NotifyReportFailed(ctx context.Context, reportID, errMsg string) error {
	if c == nil || c.hub == nil {
		return nil
	}

	c.hub.Broadcast(TopicReports, &ws.Message{
		Type: "report_failed",
		Data: map[string]any{
			"id":      reportID,
			"message": errMsg,
		},
	})
	return nil
}
