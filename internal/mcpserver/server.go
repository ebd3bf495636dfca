package mcpserver

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/joseph-ayodele/rex-zones-humides/internal/async"
	"github.com/joseph-ayodele/rex-zones-humides/internal/common"
	"github.com/joseph-ayodele/rex-zones-humides/internal/entity"
)

// DocumentReader loads a document from a local path.
type DocumentReader interface {
	ReadDocument(ctx context.Context, path string) (entity.RawDocument, error)
}

// ResultSource returns the most recent successful result.
type ResultSource interface {
	Last() (*entity.PipelineResult, bool)
}

// Exporter renders a result as a spreadsheet or JSON.
type Exporter interface {
	XLSX(res *entity.PipelineResult) ([]byte, error)
	JSON(res *entity.PipelineResult) ([]byte, error)
}

// Server exposes the extraction pipeline as MCP tools.
type Server struct {
	MCPServer *sdkmcp.Server

	reader   DocumentReader
	queue    async.Queue
	results  ResultSource
	exporter Exporter
	log      *slog.Logger
}

func NewServer(version string, reader DocumentReader, queue async.Queue, results ResultSource, exporter Exporter, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		MCPServer: sdkmcp.NewServer(&sdkmcp.Implementation{Name: "rex-zones-humides", Version: version}, nil),
		reader:    reader,
		queue:     queue,
		results:   results,
		exporter:  exporter,
		log:       logger.With("component", "mcp"),
	}
	s.registerTools()
	return s
}

// Run serves the tools over stdio until ctx is done or the client disconnects.
func (s *Server) Run(ctx context.Context) error {
	return s.MCPServer.Run(ctx, &sdkmcp.StdioTransport{})
}

func (s *Server) registerTools() {
	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "submit_document",
		Description: "Queue a local REX PDF for extraction. Returns the job ID to poll with run_status.",
	}, s.handleSubmitDocument)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "run_status",
		Description: "Get the stage, progress and status message of a submitted job.",
	}, s.handleRunStatus)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "last_result",
		Description: "Get the projects extracted by the most recent successful run.",
	}, s.handleLastResult)

	sdkmcp.AddTool(s.MCPServer, &sdkmcp.Tool{
		Name:        "export_last_result",
		Description: "Write the most recent result to disk as an XLSX workbook or JSON file.",
	}, s.handleExportLastResult)
}

// --- Tool input/output types ---

type submitDocumentInput struct {
	Path string `json:"path" jsonschema:"local path of the PDF to extract"`
}

type jobOutput struct {
	JobID       string  `json:"job_id"`
	Filename    string  `json:"filename"`
	Status      string  `json:"status"`
	Stage       string  `json:"stage"`
	Progress    float64 `json:"progress"`
	Message     string  `json:"message"`
	Error       string  `json:"error,omitempty"`
	ErrorCode   string  `json:"error_code,omitempty"`
	Projects    int     `json:"projects"`
	SubmittedAt string  `json:"submitted_at"`
	FinishedAt  string  `json:"finished_at,omitempty"`
}

type runStatusInput struct {
	JobID string `json:"job_id" jsonschema:"job ID returned by submit_document"`
}

type lastResultInput struct{}

type lastResultOutput struct {
	RunID    string                  `json:"run_id"`
	Filename string                  `json:"filename"`
	Date     string                  `json:"date"`
	Projects []map[string]any        `json:"projects"`
	Skipped  []entity.SkippedProject `json:"skipped,omitempty"`
	Excluded int                     `json:"excluded"`
}

type exportInput struct {
	OutputPath string `json:"output_path,omitempty" jsonschema:"destination file or directory (default: working directory)"`
	Format     string `json:"format,omitempty" jsonschema:"xlsx (default) or json"`
}

type exportOutput struct {
	Path     string `json:"path"`
	Format   string `json:"format"`
	Bytes    int    `json:"bytes"`
	Projects int    `json:"projects"`
}

// --- Tool handlers ---

func (s *Server) handleSubmitDocument(ctx context.Context, _ *sdkmcp.CallToolRequest, input submitDocumentInput) (*sdkmcp.CallToolResult, jobOutput, error) {
	doc, err := s.reader.ReadDocument(ctx, input.Path)
	if err != nil {
		return nil, jobOutput{}, toolError(err)
	}
	job, err := s.queue.Enqueue(ctx, doc)
	if err != nil {
		return nil, jobOutput{}, toolError(err)
	}
	s.log.Info("mcp.submit.ok", "job_id", job.ID, "filename", doc.Filename)
	return nil, newJobOutput(job), nil
}

func (s *Server) handleRunStatus(_ context.Context, _ *sdkmcp.CallToolRequest, input runStatusInput) (*sdkmcp.CallToolResult, jobOutput, error) {
	if strings.TrimSpace(input.JobID) == "" {
		return nil, jobOutput{}, toolError(common.NewAppError(common.ErrInvalidInput, "job_id is required", nil))
	}
	job, ok := s.queue.Status(input.JobID)
	if !ok {
		return nil, jobOutput{}, toolError(common.NewAppError(common.ErrNotFound, fmt.Sprintf("unknown job %s", input.JobID), nil))
	}
	return nil, newJobOutput(job), nil
}

func (s *Server) handleLastResult(_ context.Context, _ *sdkmcp.CallToolRequest, _ lastResultInput) (*sdkmcp.CallToolResult, lastResultOutput, error) {
	res, err := s.last()
	if err != nil {
		return nil, lastResultOutput{}, toolError(err)
	}
	out := lastResultOutput{
		RunID:    res.RunID,
		Filename: res.Filename,
		Date:     res.DisplayDate(),
		Projects: make([]map[string]any, 0, len(res.Projects)),
		Skipped:  res.Skipped,
		Excluded: res.Excluded,
	}
	for _, p := range res.Projects {
		out.Projects = append(out.Projects, p.Map())
	}
	return nil, out, nil
}

func (s *Server) handleExportLastResult(_ context.Context, _ *sdkmcp.CallToolRequest, input exportInput) (*sdkmcp.CallToolResult, exportOutput, error) {
	res, err := s.last()
	if err != nil {
		return nil, exportOutput{}, toolError(err)
	}
	format := strings.ToLower(strings.TrimSpace(input.Format))
	if format == "" {
		format = "xlsx"
	}

	var data []byte
	switch format {
	case "xlsx":
		data, err = s.exporter.XLSX(res)
	case "json":
		data, err = s.exporter.JSON(res)
	default:
		return nil, exportOutput{}, toolError(common.NewAppError(common.ErrInvalidInput, fmt.Sprintf("unsupported format %q", input.Format), nil))
	}
	if err != nil {
		return nil, exportOutput{}, toolError(err)
	}

	path := OutputPath(input.OutputPath, res.Filename, format)
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, exportOutput{}, toolError(err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return nil, exportOutput{}, toolError(err)
	}
	s.log.Info("mcp.export.ok", "path", path, "format", format, "bytes", len(data))
	return nil, exportOutput{Path: path, Format: format, Bytes: len(data), Projects: len(res.Projects)}, nil
}

func (s *Server) last() (*entity.PipelineResult, error) {
	res, ok := s.results.Last()
	if !ok {
		return nil, common.NewAppError(common.ErrNotFound, "aucun résultat disponible", nil)
	}
	return res, nil
}

func newJobOutput(j async.Job) jobOutput {
	out := jobOutput{
		JobID:       j.ID,
		Filename:    j.Filename,
		Status:      string(j.Status),
		Stage:       string(j.Stage),
		Progress:    j.Progress,
		Message:     j.Message,
		Error:       j.Error,
		ErrorCode:   j.ErrorCode,
		Projects:    j.Projects,
		SubmittedAt: j.SubmittedAt.Format(time.RFC3339),
	}
	if j.FinishedAt != nil {
		out.FinishedAt = j.FinishedAt.Format(time.RFC3339)
	}
	return out
}

// toolError prefixes the user message with its status code name.
func toolError(err error) error {
	return fmt.Errorf("[%s] %s", common.GRPCCode(err), common.UserMessage(err))
}
