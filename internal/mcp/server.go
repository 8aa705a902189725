// Package mcp provides an MCP (Model Context Protocol) server that exposes
// pulse reports, alerts and run metrics as MCP tools.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	gomcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rs/zerolog"
	"github.com/spf13/cast"
	"github.com/valter-silva-au/workpulse/internal/core"
	"github.com/valter-silva-au/workpulse/internal/observability"
	"github.com/valter-silva-au/workpulse/internal/storage"
)

// Server wraps pulse services and exposes them as MCP tools.
type Server struct {
	server      *gomcp.Server
	reporter    *core.Reporter
	records     storage.RecordStore
	alertEngine observability.AlertEngine
	metricsCalc observability.RunMetricsCalculator
	eventLog    observability.EventLog
	logger      zerolog.Logger
	clock       func() time.Time
}

// NewServer creates a new MCP server. alertEngine, metricsCalc and eventLog
// may be nil; the tools that need them then return an error result. Event log
// write failures are logged to logger and never fail a tool call.
func NewServer(reporter *core.Reporter, records storage.RecordStore, alertEngine observability.AlertEngine, metricsCalc observability.RunMetricsCalculator, eventLog observability.EventLog, logger zerolog.Logger, version string) *Server {
	if version == "" {
		version = "dev"
	}

	s := &Server{
		reporter:    reporter,
		records:     records,
		alertEngine: alertEngine,
		metricsCalc: metricsCalc,
		eventLog:    eventLog,
		logger:      logger,
		clock:       func() time.Time { return time.Now().UTC() },
	}

	s.server = gomcp.NewServer(
		&gomcp.Implementation{Name: "pulse", Version: version},
		nil,
	)

	s.registerTools()

	return s
}

// Run starts the MCP server on stdio, blocking until the client disconnects
// or the context is cancelled.
func (s *Server) Run(ctx context.Context) error {
	return s.server.Run(ctx, &gomcp.StdioTransport{})
}

// MCPServer returns the underlying mcp.Server for testing purposes.
func (s *Server) MCPServer() *gomcp.Server {
	return s.server
}

// --- Tool input/output types ---

type getReportInput struct {
	Section string `json:"section,omitempty" jsonschema:"report section to return (summary, status, priority, assignee, project, temporal, trend, timeline, project_timeline, utilization, variance, warnings). Omit for the full report."`
	Now     string `json:"now,omitempty" jsonschema:"reference time for due-date flags, RFC3339 or YYYY-MM-DD. Defaults to the current time."`
}

type getReportOutput struct {
	RunID   string `json:"run_id"`
	Section string `json:"section"`
	Data    any    `json:"data"`
}

type getAlertsInput struct {
	Now string `json:"now,omitempty" jsonschema:"reference time for due-date flags, RFC3339 or YYYY-MM-DD. Defaults to the current time."`
}

type alertOutput struct {
	ID          string `json:"id"`
	Condition   string `json:"condition"`
	Severity    string `json:"severity"`
	Message     string `json:"message"`
	TriggeredAt string `json:"triggered_at"`
}

type getAlertsOutput struct {
	RunID  string        `json:"run_id"`
	Alerts []alertOutput `json:"alerts"`
	Count  int           `json:"count"`
}

type getRunMetricsInput struct {
	Since string `json:"since,omitempty" jsonschema:"time window for metrics (e.g. 7d, 30d, 24h). Defaults to 7d."`
}

type runMetricsOutput struct {
	Runs              int            `json:"runs"`
	ReportsGenerated  int            `json:"reports_generated"`
	RecordsSkipped    int            `json:"records_skipped"`
	FieldsCoerced     int            `json:"fields_coerced"`
	AlertsRaised      int            `json:"alerts_raised"`
	AlertsByCondition map[string]int `json:"alerts_by_condition"`
	ItemsReported     int            `json:"items_reported"`
	EventCount        int            `json:"event_count"`
	OldestEvent       string         `json:"oldest_event,omitempty"`
	NewestEvent       string         `json:"newest_event,omitempty"`
}

// --- Tool registration ---

func (s *Server) registerTools() {
	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_report",
		Description: "Generate a report over the current work item, resource and project records. Returns the full report or a single section.",
	}, s.handleGetReport)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_alerts",
		Description: "Generate a report and return the triggered alerts (overdue items, overloaded resources, too many blocked items, low estimate accuracy).",
	}, s.handleGetAlerts)

	gomcp.AddTool(s.server, &gomcp.Tool{
		Name:        "get_run_metrics",
		Description: "Get report run metrics from the event log: runs, records skipped, fields coerced and alerts raised.",
	}, s.handleGetRunMetrics)
}

// --- Tool handlers ---

func (s *Server) handleGetReport(_ context.Context, _ *gomcp.CallToolRequest, input getReportInput) (*gomcp.CallToolResult, getReportOutput, error) {
	rep, rec, err := s.generate(input.Now)
	if err != nil {
		return errorResult(err.Error()), getReportOutput{}, nil
	}

	out := getReportOutput{RunID: rec.RunID(), Section: "all", Data: rep}
	if section := strings.TrimSpace(input.Section); section != "" {
		data, err := rep.Section(section)
		if err != nil {
			return errorResult(err.Error()), getReportOutput{}, nil
		}
		out.Section = strings.ToLower(section)
		out.Data = data
	}
	return nil, out, nil
}

func (s *Server) handleGetAlerts(_ context.Context, _ *gomcp.CallToolRequest, input getAlertsInput) (*gomcp.CallToolResult, getAlertsOutput, error) {
	if s.alertEngine == nil {
		return errorResult("alert engine not available"), getAlertsOutput{}, nil
	}

	rep, rec, err := s.generate(input.Now)
	if err != nil {
		return errorResult(err.Error()), getAlertsOutput{}, nil
	}

	alerts := s.alertEngine.Evaluate(rep)
	if err := rec.RecordAlerts(alerts); err != nil {
		s.logger.Warn().Err(err).Str("run_id", rec.RunID()).Msg("event log write failed")
	}

	out := getAlertsOutput{
		RunID:  rec.RunID(),
		Alerts: make([]alertOutput, len(alerts)),
		Count:  len(alerts),
	}
	for i, a := range alerts {
		out.Alerts[i] = alertOutput{
			ID:          a.ID,
			Condition:   a.Condition,
			Severity:    string(a.Severity),
			Message:     a.Message,
			TriggeredAt: a.TriggeredAt.Format(time.RFC3339),
		}
	}
	return nil, out, nil
}

func (s *Server) handleGetRunMetrics(_ context.Context, _ *gomcp.CallToolRequest, input getRunMetricsInput) (*gomcp.CallToolResult, runMetricsOutput, error) {
	empty := runMetricsOutput{AlertsByCondition: map[string]int{}}
	if s.metricsCalc == nil {
		return errorResult("metrics calculator not available (event log may be unavailable)"), empty, nil
	}

	since, err := observability.ParseSince(input.Since, s.clock())
	if err != nil {
		return errorResult(fmt.Sprintf("parsing since duration: %s", err)), empty, nil
	}

	m, err := s.metricsCalc.Calculate(since)
	if err != nil {
		return errorResult(fmt.Sprintf("calculating metrics: %s", err)), empty, nil
	}

	out := runMetricsOutput{
		Runs:              m.Runs,
		ReportsGenerated:  m.ReportsGenerated,
		RecordsSkipped:    m.RecordsSkipped,
		FieldsCoerced:     m.FieldsCoerced,
		AlertsRaised:      m.AlertsRaised,
		AlertsByCondition: m.AlertsByCondition,
		ItemsReported:     m.ItemsReported,
		EventCount:        m.EventCount,
	}
	if m.OldestEvent != nil {
		out.OldestEvent = m.OldestEvent.Format(time.RFC3339)
	}
	if m.NewestEvent != nil {
		out.NewestEvent = m.NewestEvent.Format(time.RFC3339)
	}
	return nil, out, nil
}

// --- Helpers ---

// generate loads the records and builds a report, recording the run in the
// event log under a fresh run ID.
func (s *Server) generate(nowArg string) (*core.Report, *observability.RunRecorder, error) {
	if s.reporter == nil || s.records == nil {
		return nil, nil, fmt.Errorf("reporter not available")
	}

	now := s.clock()
	if strings.TrimSpace(nowArg) != "" {
		t, err := cast.ToTimeE(nowArg)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid now %q", nowArg)
		}
		now = t.UTC()
	}

	set, err := s.records.Load()
	if err != nil {
		return nil, nil, err
	}
	rep, err := s.reporter.Generate(core.InputFromRecords(set), now)
	if err != nil {
		return nil, nil, fmt.Errorf("generating report: %w", err)
	}

	rec := observability.NewRunRecorder(s.eventLog, uuid.NewString())
	if err := rec.RecordReport(rep, s.records.Path()); err != nil {
		s.logger.Warn().Err(err).Str("run_id", rec.RunID()).Msg("event log write failed")
	}
	return rep, rec, nil
}

func errorResult(msg string) *gomcp.CallToolResult {
	return &gomcp.CallToolResult{
		Content: []gomcp.Content{&gomcp.TextContent{Text: msg}},
		IsError: true,
	}
}
