package pipeline

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"apsiteimport/internal/artifact"
	"apsiteimport/internal/domain"
	"apsiteimport/internal/input"
)

// InventoryClient is the remote boundary the core depends on. Fetch
// failures are fatal to a run; assign failures are row-local data.
type InventoryClient interface {
	ListInventory(ctx context.Context) ([]domain.InventoryRecord, error)
	Assign(ctx context.Context, siteID, mac string) error
}

// RunRecorder persists run history. A nil recorder disables persistence.
type RunRecorder interface {
	RecordRun(ctx context.Context, record domain.RunRecord) error
	RecordOutcomes(ctx context.Context, runID uuid.UUID, outcomes []domain.AssignmentOutcome) error
}

// Service runs the validation-gated import pipeline.
type Service struct {
	client    InventoryClient
	artifacts *artifact.Writer
	recorder  RunRecorder
	logger    *zap.Logger
	workers   int
	sheetName string
}

type Option func(*Service)

// WithWorkers bounds the assignment worker pool. 1 means strictly
// sequential execution.
func WithWorkers(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithSheetName selects a named worksheet when reading XLSX input.
func WithSheetName(name string) Option {
	return func(s *Service) { s.sheetName = name }
}

// WithRecorder attaches a run-history recorder.
func WithRecorder(recorder RunRecorder) Option {
	return func(s *Service) { s.recorder = recorder }
}

// WithLogger attaches the structured event sink.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

func NewService(client InventoryClient, artifacts *artifact.Writer, opts ...Option) *Service {
	s := &Service{
		client:    client,
		artifacts: artifacts,
		logger:    zap.NewNop(),
		workers:   4,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Request describes one pipeline invocation.
type Request struct {
	Path     string
	SiteID   string
	SiteName string
}

// Run executes one pass of the pipeline: read, normalize, validate, and —
// only when every row is clean — assign each device to the selected site.
//
// Validation problems are not errors: a blocked run returns a RunResult
// with Status RunBlocked, the full issue list, and the path of the written
// validation report. The error return is reserved for fatal problems (file
// unreadable, inventory fetch failed, artifact not writable).
func (s *Service) Run(ctx context.Context, req Request) (domain.RunResult, error) {
	runID := uuid.New()
	fileName := filepath.Base(req.Path)

	s.logger.Info("run started",
		zap.String("run_id", runID.String()),
		zap.String("file", fileName),
		zap.String("site_id", req.SiteID),
		zap.String("site_name", req.SiteName))

	table, err := input.Read(req.Path, s.sheetName)
	if err != nil {
		return domain.RunResult{}, err
	}
	table = input.Normalize(table)

	// Structural check runs before any remote call; a file missing required
	// columns must not trigger an inventory fetch. The report still carries
	// the file's data rows; it degenerates to the synthetic issue row only
	// when there are none.
	if missing := MissingColumns(table); len(missing) > 0 {
		issue := HeaderIssue(missing)
		return s.block(ctx, runID, req, fileName, table, []domain.Issue{issue})
	}

	records, err := s.client.ListInventory(ctx)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("fetch inventory snapshot: %w", err)
	}
	snapshot := domain.NewInventorySnapshot(records)
	s.logger.Info("inventory snapshot built",
		zap.String("run_id", runID.String()),
		zap.Int("devices", len(records)),
		zap.Int("serials", len(snapshot)))

	if issues := ValidateRows(table, snapshot); len(issues) > 0 {
		return s.block(ctx, runID, req, fileName, table, issues)
	}

	outcomes, counts := s.execute(ctx, req.SiteID, table, snapshot)

	headers, rows := BuildResults(table, outcomes)
	path, err := s.artifacts.WriteCSV(s.artifacts.ResultsFileName(req.Path, runID), headers, rows)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("write results artifact: %w", err)
	}

	result := domain.RunResult{
		ID:           runID,
		Status:       domain.RunCompleted,
		SiteID:       req.SiteID,
		SiteName:     req.SiteName,
		FileName:     fileName,
		Outcomes:     outcomes,
		Counts:       counts,
		ArtifactPath: path,
	}
	s.record(ctx, result)

	s.logger.Info("run completed",
		zap.String("run_id", runID.String()),
		zap.Int("success", counts.Success),
		zap.Int("failed", counts.Failed),
		zap.Int("total", counts.Total),
		zap.String("artifact", path))
	return result, nil
}

// block writes the validation report and returns the blocked variant. The
// assignment executor is never reached from here.
func (s *Service) block(ctx context.Context, runID uuid.UUID, req Request, fileName string, table input.Table, issues []domain.Issue) (domain.RunResult, error) {
	headers, rows := BuildReport(table, issues)
	path, err := s.artifacts.WriteCSV(s.artifacts.ReportFileName(runID), headers, rows)
	if err != nil {
		return domain.RunResult{}, fmt.Errorf("write validation report: %w", err)
	}

	result := domain.RunResult{
		ID:           runID,
		Status:       domain.RunBlocked,
		SiteID:       req.SiteID,
		SiteName:     req.SiteName,
		FileName:     fileName,
		Issues:       issues,
		ArtifactPath: path,
	}
	s.record(ctx, result)

	s.logger.Warn("run blocked by validation",
		zap.String("run_id", runID.String()),
		zap.Int("issues", len(issues)),
		zap.String("report", path))
	return result, nil
}

func (s *Service) record(ctx context.Context, result domain.RunResult) {
	if s.recorder == nil {
		return
	}
	record := domain.RunRecord{
		ID:           result.ID,
		SiteID:       result.SiteID,
		SiteName:     result.SiteName,
		FileName:     result.FileName,
		Status:       result.Status,
		IssueCount:   len(result.Issues),
		Counts:       result.Counts,
		ArtifactPath: result.ArtifactPath,
	}
	if err := s.recorder.RecordRun(ctx, record); err != nil {
		s.logger.Warn("record run history", zap.Error(err))
		return
	}
	if len(result.Outcomes) > 0 {
		if err := s.recorder.RecordOutcomes(ctx, result.ID, result.Outcomes); err != nil {
			s.logger.Warn("record run outcomes", zap.Error(err))
		}
	}
}
