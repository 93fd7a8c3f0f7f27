package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/RustColeone/TradingAgents-web-managed/internal/analysis"
	"github.com/RustColeone/TradingAgents-web-managed/internal/config"
	"github.com/RustColeone/TradingAgents-web-managed/internal/marketdata"
	"github.com/RustColeone/TradingAgents-web-managed/internal/store"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// RegisterTools registers every watchlist tool on the MCP server and
// returns the number registered.
func RegisterTools(s *server.MCPServer, st *store.Store, pipeline *analysis.Pipeline, feed marketdata.Feed) int {
	tools := []struct {
		tool    mcp.Tool
		handler server.ToolHandlerFunc
	}{
		{listPostsTool(), listPostsHandler(st)},
		{getPostTool(), getPostHandler(st)},
		{analyzePostTool(), analyzePostHandler(pipeline)},
		{refreshSnapshotTool(), refreshSnapshotHandler(pipeline)},
		{getPriceTool(), getPriceHandler(feed)},
		{versionTool(), versionHandler()},
	}
	for _, t := range tools {
		s.AddTool(t.tool, t.handler)
	}
	return len(tools)
}

// errorResult creates an MCP error result.
func errorResult(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{
			mcp.NewTextContent(message),
		},
		IsError: true,
	}
}

// jsonResult marshals v into a text content result.
func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.Marshal(v)
	if err != nil {
		return errorResult("failed to marshal result")
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{mcp.NewTextContent(string(out))},
	}
}

func listPostsTool() mcp.Tool {
	return mcp.NewTool("list_posts",
		mcp.WithDescription("List all watchlist posts with their tickers, analysis state and price snapshots."),
	)
}

func listPostsHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(st.List()), nil
	}
}

func getPostTool() mcp.Tool {
	return mcp.NewTool("get_post",
		mcp.WithDescription("Get a single watchlist post by id."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	)
}

func getPostHandler(st *store.Store) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := r.GetString("id", "")
		if id == "" {
			return errorResult("id is required"), nil
		}
		post, err := st.Find(id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errorResult("post not found: " + id), nil
			}
			return errorResult("failed to read post: " + err.Error()), nil
		}
		return jsonResult(post), nil
	}
}

func analyzePostTool() mcp.Tool {
	return mcp.NewTool("analyze_post",
		mcp.WithDescription("Run the analysis engine over every ticker in a post and return the updated post. May take several minutes."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	)
}

func analyzePostHandler(pipeline *analysis.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := r.GetString("id", "")
		if id == "" {
			return errorResult("id is required"), nil
		}
		post, err := pipeline.RunBatch(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errorResult("post not found: " + id), nil
			}
			return errorResult("analysis failed: " + err.Error()), nil
		}
		return jsonResult(post), nil
	}
}

func refreshSnapshotTool() mcp.Tool {
	return mcp.NewTool("refresh_snapshot",
		mcp.WithDescription("Refresh current prices and percent change for every ticker in a post without running analysis."),
		mcp.WithString("id", mcp.Required(), mcp.Description("Post id")),
	)
}

func refreshSnapshotHandler(pipeline *analysis.Pipeline) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		id := r.GetString("id", "")
		if id == "" {
			return errorResult("id is required"), nil
		}
		post, err := pipeline.RefreshSnapshot(ctx, id)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return errorResult("post not found: " + id), nil
			}
			return errorResult("snapshot refresh failed: " + err.Error()), nil
		}
		return jsonResult(post), nil
	}
}

func getPriceTool() mcp.Tool {
	return mcp.NewTool("get_price",
		mcp.WithDescription("Get the latest available price for a ticker symbol."),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Ticker symbol, e.g. AAPL")),
	)
}

func getPriceHandler(feed marketdata.Feed) server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		ticker := r.GetString("ticker", "")
		if ticker == "" {
			return errorResult("ticker is required"), nil
		}
		price, err := feed.LatestPrice(ctx, ticker)
		if err != nil {
			return errorResult("failed to fetch price: " + err.Error()), nil
		}
		return jsonResult(map[string]any{"ticker": ticker, "current": price}), nil
	}
}

func versionTool() mcp.Tool {
	return mcp.NewTool("get_version",
		mcp.WithDescription("Get the server version. Use this to verify connectivity."),
	)
}

func versionHandler() server.ToolHandlerFunc {
	return func(ctx context.Context, r mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return jsonResult(map[string]string{
			"version":    config.GetVersion(),
			"build":      config.GetBuild(),
			"git_commit": config.GetGitCommit(),
		}), nil
	}
}
