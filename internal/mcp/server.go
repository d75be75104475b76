package mcp

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"cronnext/internal/config"
	"cronnext/internal/core"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	serverName    = "cronnext"
	serverVersion = "1.0.0"
)

// MCPServer exposes cron expression tools over the Model Context Protocol.
type MCPServer struct {
	logger   *slog.Logger
	location *time.Location
	preview  config.PreviewConfig
	now      func() time.Time

	mcpServer *server.MCPServer
}

// NewMCPServer creates a new MCP server instance with all tools registered.
func NewMCPServer(logger *slog.Logger, location *time.Location, preview config.PreviewConfig) *MCPServer {
	if location == nil {
		location = time.Local
	}
	if preview.MaxCount < 1 {
		preview.MaxCount = 10
	}
	if preview.DefaultCount < 1 || preview.DefaultCount > preview.MaxCount {
		preview.DefaultCount = min(5, preview.MaxCount)
	}
	s := &MCPServer{
		logger:   logger,
		location: location,
		preview:  preview,
		now:      time.Now,
	}
	s.mcpServer = server.NewMCPServer(
		serverName,
		serverVersion,
		server.WithToolCapabilities(true),
	)
	s.registerTools(s.mcpServer)
	return s
}

// Run serves the MCP protocol over stdio until stdin closes.
func (s *MCPServer) Run() error {
	s.logger.Info("MCP server starting on stdio")
	return server.ServeStdio(s.mcpServer)
}

// Handler returns a streamable HTTP transport for mounting under /mcp.
func (s *MCPServer) Handler() http.Handler {
	return server.NewStreamableHTTPServer(s.mcpServer)
}

// registerTools registers all available MCP tools.
func (s *MCPServer) registerTools(mcpServer *server.MCPServer) {
	// cron_preview
	mcpServer.AddTool(mcp.NewTool("cron_preview",
		mcp.WithDescription("预览 cron 表达式的未来触发时间。支持 6 字段（秒 分 时 日 月 周）或 5 字段（分 时 日 月 周）"),
		mcp.WithString("cron",
			mcp.Required(),
			mcp.Description("Cron 表达式，例如: '0 30 9 * * MON-FRI'"),
		),
		mcp.WithString("now",
			mcp.Description("起始时间（RFC3339），默认当前时间"),
		),
		mcp.WithNumber("count",
			mcp.Description("返回的触发次数，默认 5"),
			mcp.Min(1),
			mcp.Max(float64(s.preview.MaxCount)),
		),
		mcp.WithBoolean("compare_posix",
			mcp.Description("同时给出标准 POSIX cron 语义下的触发时间"),
		),
	), s.handleCronPreview)

	// cron_validate
	mcpServer.AddTool(mcp.NewTool("cron_validate",
		mcp.WithDescription("校验 cron 表达式是否有效，并指出出错的字段"),
		mcp.WithString("cron",
			mcp.Required(),
			mcp.Description("Cron 表达式"),
		),
	), s.handleCronValidate)

	// cron_explain
	mcpServer.AddTool(mcp.NewTool("cron_explain",
		mcp.WithDescription("展开 cron 表达式每个字段允许的取值"),
		mcp.WithString("cron",
			mcp.Required(),
			mcp.Description("Cron 表达式"),
		),
	), s.handleCronExplain)

	s.logger.Info("MCP tools registered", "count", 3)
}

// handleCronPreview handles the cron_preview tool call.
func (s *MCPServer) handleCronPreview(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cronExpr := strings.TrimSpace(mcp.ParseString(request, "cron", ""))

	calc, err := core.ParseCron(cronExpr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("无效的 cron 表达式: %v", err)), nil
	}

	count := int(mcp.ParseFloat64(request, "count", float64(s.preview.DefaultCount)))
	if count < 1 || count > s.preview.MaxCount {
		count = s.preview.DefaultCount
	}

	base := s.now().In(s.location)
	if raw := mcp.ParseString(request, "now", ""); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("无效的起始时间 %q，需要 RFC3339 格式", raw)), nil
		}
		base = parsed.In(s.location)
	}

	nextTimes, err := core.NextOccurrences(calc, base, count)
	if err != nil {
		s.logger.Warn("cron preview", "cron", cronExpr, "err", err)
		return mcp.NewToolResultError(fmt.Sprintf("计算触发时间失败: %v", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Cron 表达式: %s\n", calc.Schedule())
	fmt.Fprintf(&b, "时区: %s\n\n", s.location)
	b.WriteString("未来触发时间:\n")
	writeTimes(&b, nextTimes)

	if calc.Schedule().EveryDayEligible() {
		b.WriteString("\n注意: 日期与星期字段按“或”组合，其中一个为 * 时每天都会触发\n")
	}

	if mcp.ParseBoolean(request, "compare_posix", false) {
		posix, err := core.PosixOccurrences(cronExpr, base, count)
		if err != nil {
			fmt.Fprintf(&b, "\nPOSIX 语义无法解析: %v\n", err)
		} else {
			b.WriteString("\nPOSIX 语义下的触发时间:\n")
			writeTimes(&b, posix)
		}
	}

	return mcp.NewToolResultText(b.String()), nil
}

// handleCronValidate handles the cron_validate tool call.
func (s *MCPServer) handleCronValidate(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cronExpr := strings.TrimSpace(mcp.ParseString(request, "cron", ""))

	calc, err := core.ParseCron(cronExpr)
	if err != nil {
		var fe *core.FieldError
		if errors.As(err, &fe) {
			return mcp.NewToolResultError(fmt.Sprintf("❌ 无效: %s 字段 %q 错误（%s）", fe.Field, fe.Text, fe.Reason)), nil
		}
		return mcp.NewToolResultError(fmt.Sprintf("❌ 无效: %v", err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("✅ 有效: %s", calc.Schedule())), nil
}

// handleCronExplain handles the cron_explain tool call.
func (s *MCPServer) handleCronExplain(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	cronExpr := strings.TrimSpace(mcp.ParseString(request, "cron", ""))

	calc, err := core.ParseCron(cronExpr)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("无效的 cron 表达式: %v", err)), nil
	}

	schedule := calc.Schedule()
	var b strings.Builder
	fmt.Fprintf(&b, "Cron 表达式: %s\n\n", schedule)
	for _, f := range core.Fields {
		fmt.Fprintf(&b, "  %-8s %s\n", f.String()+":", joinInts(schedule.Values(f)))
	}
	return mcp.NewToolResultText(b.String()), nil
}

// Helper functions

func writeTimes(b *strings.Builder, times []time.Time) {
	for i, t := range times {
		fmt.Fprintf(b, "  %d. %s\n", i+1, t.Format("2006-01-02 15:04:05"))
	}
}

func joinInts(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
