package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/snapfolio/snapfolio-portal/internal/client"
	"github.com/snapfolio/snapfolio-portal/internal/config"
	"github.com/snapfolio/snapfolio-portal/internal/schedule"
)

// errorResult creates an MCP error result with the given message.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(out))},
	}
}

func backendError(err error) *mcp.CallToolResult {
	if errors.Is(err, client.ErrSessionExpired) {
		return errorResult("session expired, log in again")
	}
	return errorResult(err.Error())
}

// registerTools registers the portal's tool set and returns the count.
func registerTools(s *server.MCPServer, backend *client.Backend) int {
	s.AddTool(portfolioTool(), portfolioToolHandler(backend))
	s.AddTool(snapshotsTool(), snapshotsToolHandler(backend))
	s.AddTool(calendarTool(), calendarToolHandler(backend))
	s.AddTool(versionTool(), versionToolHandler())
	return 4
}

func portfolioTool() mcp.Tool {
	return mcp.NewTool("get_portfolio",
		mcp.WithDescription("Get the member's stock holdings with quantities, prices, and returns."),
	)
}

func portfolioToolHandler(backend *client.Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		stocks, err := backend.GetPortfolio(ctx, sessionFrom(ctx))
		if err != nil {
			return backendError(err), nil
		}
		return jsonResult(map[string]any{"stocks": stocks}), nil
	}
}

func snapshotsTool() mcp.Tool {
	return mcp.NewTool("get_snapshots",
		mcp.WithDescription("Get AI news snapshot cards for a day. Omit date for the list of dates that have cards."),
		mcp.WithString("date",
			mcp.Description("Day to fetch, formatted YYYY-MM-DD"),
		),
	)
}

func snapshotsToolHandler(backend *client.Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token := sessionFrom(ctx)
		date := r.GetString("date", "")
		if date == "" {
			dates, err := backend.GetSnapshotDates(ctx, token)
			if err != nil {
				return backendError(err), nil
			}
			return jsonResult(map[string]any{"dates": dates}), nil
		}
		snapshots, err := backend.GetSnapshotsByDate(ctx, token, date)
		if err != nil {
			return backendError(err), nil
		}
		return jsonResult(map[string]any{"date": date, "snapshots": snapshots}), nil
	}
}

func calendarTool() mcp.Tool {
	return mcp.NewTool("get_calendar",
		mcp.WithDescription("Get the merged earnings and disclosure calendar for a month."),
		mcp.WithString("month",
			mcp.Required(),
			mcp.Description("Month to fetch, formatted YYYY-MM"),
		),
	)
}

func calendarToolHandler(backend *client.Backend) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		token := sessionFrom(ctx)
		month := r.GetString("month", "")
		if month == "" {
			return errorResult("month is required (YYYY-MM)"), nil
		}
		earnings, err := backend.GetEarningCalls(ctx, token, month)
		if err != nil {
			return backendError(err), nil
		}
		disclosures, err := backend.GetDisclosures(ctx, token, month)
		if err != nil {
			return backendError(err), nil
		}
		merged := schedule.Merge(earnings, disclosures)
		return jsonResult(map[string]any{"month": month, "entries": merged}), nil
	}
}

func versionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get Snapfolio portal version and build info. Use this to verify connectivity."),
	)
}

func versionToolHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]string{
			"version": config.GetVersion(),
			"build":   config.GetBuild(),
			"commit":  config.GetGitCommit(),
		}), nil
	}
}
