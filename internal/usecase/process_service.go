package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/bad-Al-code/video-proccessing-service/internal/domain/model"
	"github.com/bad-Al-code/video-proccessing-service/internal/domain/repository"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/cache"
	"github.com/bad-Al-code/video-proccessing-service/internal/infrastructure/metrics"
	"github.com/bad-Al-code/video-proccessing-service/internal/transcoder"
)

// ProcessServiceConfig holds configuration for ProcessService.
type ProcessServiceConfig struct {
	// TempDir is the base directory for per-job workspaces.
	TempDir string
	// ProcessedPrefix is prepended to every output storage key.
	ProcessedPrefix string
	// Resolutions lists target variant heights in pixels.
	Resolutions []int
	// StageTimeout bounds each remote pipeline stage (download, derive,
	// upload). Zero disables the per-stage deadline.
	StageTimeout time.Duration
}

// DefaultProcessServiceConfig returns the default configuration.
func DefaultProcessServiceConfig() ProcessServiceConfig {
	return ProcessServiceConfig{
		TempDir:         os.TempDir(),
		ProcessedPrefix: "processed/",
		Resolutions:     []int{1080, 720, 480},
		StageTimeout:    10 * time.Minute,
	}
}

// ProcessService defines the interface for driving one upload event through
// the full pipeline: download, derive variants, upload, finalize, publish.
type ProcessService interface {
	// Process executes exactly one pipeline run for the given event.
	// A nil return means the message must be acknowledged; a non-nil return
	// means it must be rejected to the dead-letter queue. Process never
	// panics on collaborator failures: every outcome maps to one of the two
	// verdicts.
	Process(ctx context.Context, event repository.UploadEvent) error
}

type processService struct {
	ledger    repository.VideoLedger
	storage   repository.ObjectStorage
	engine    transcoder.Engine
	publisher repository.ResultPublisher
	cache     cache.VideoCache

	variants        []transcoder.Variant
	tempDir         string
	processedPrefix string
	stageTimeout    time.Duration
}

// NewProcessService creates a new ProcessService instance.
// The cache may be nil; invalidation is then skipped.
func NewProcessService(
	ledger repository.VideoLedger,
	storage repository.ObjectStorage,
	engine transcoder.Engine,
	publisher repository.ResultPublisher,
	videoCache cache.VideoCache,
	cfg ProcessServiceConfig,
) ProcessService {
	return &processService{
		ledger:          ledger,
		storage:         storage,
		engine:          engine,
		publisher:       publisher,
		cache:           videoCache,
		variants:        transcoder.VariantsFromHeights(cfg.Resolutions),
		tempDir:         cfg.TempDir,
		processedPrefix: cfg.ProcessedPrefix,
		stageTimeout:    cfg.StageTimeout,
	}
}

// Process drives one upload event through the pipeline.
//
// Ledger writes are bounded: at most one PROCESSING claim and one terminal
// write per run. At most one result event is published.
func (s *processService) Process(ctx context.Context, event repository.UploadEvent) error {
	// Idempotency gate: a missing record is unrecoverable, a record already
	// PROCESSING or terminal is a duplicate delivery.
	video, err := s.ledger.GetByID(ctx, event.VideoID)
	if err != nil {
		if errors.Is(err, repository.ErrVideoNotFound) {
			cause := fmt.Errorf("no ledger record for video %s", event.VideoID)
			s.publishFailed(ctx, event, cause)
			return cause
		}
		cause := fmt.Errorf("read ledger record: %w", err)
		s.publishFailed(ctx, event, cause)
		return cause
	}

	if !video.Status.IsProcessable() {
		slog.Info("skipping duplicate delivery",
			"video_id", event.VideoID,
			"status", video.Status,
		)
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return nil
	}

	// Claim before any I/O. The conditional write closes the race between
	// two concurrent deliveries that both passed the read above.
	claimed, err := s.ledger.ClaimProcessing(ctx, event.VideoID)
	if err != nil {
		metrics.StageFailuresTotal.WithLabelValues(metrics.StageClaim).Inc()
		cause := fmt.Errorf("before processing started: claim PROCESSING: %w", err)
		s.publishFailed(ctx, event, cause)
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
		return cause
	}
	if !claimed {
		slog.Info("skipping duplicate delivery, claim lost",
			"video_id", event.VideoID,
		)
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeDuplicate).Inc()
		return nil
	}
	s.invalidateCache(ctx, event.VideoID)

	start := time.Now()
	defer func() {
		metrics.JobDurationSeconds.Observe(time.Since(start).Seconds())
	}()

	workDir, err := s.createWorkDir(event.VideoID)
	if err != nil {
		return s.fail(ctx, event, metrics.StageDownload, fmt.Errorf("create workspace: %w", err))
	}
	defer s.cleanup(workDir)

	inputPath, err := s.downloadSource(ctx, event, workDir)
	if err != nil {
		return s.fail(ctx, event, metrics.StageDownload, err)
	}

	// Derived files go into a subdirectory so an input named after a variant
	// (e.g. an upload called 720p.mp4) cannot collide with an output.
	outDir := filepath.Join(workDir, "derived")
	if err := os.MkdirAll(outDir, 0755); err != nil {
		return s.fail(ctx, event, metrics.StageDerive, fmt.Errorf("create output directory: %w", err))
	}

	produced, err := s.deriveAll(ctx, inputPath, outDir)
	if err != nil {
		return s.fail(ctx, event, metrics.StageDerive, err)
	}

	outputs, err := s.uploadAll(ctx, event.VideoID, produced)
	if err != nil {
		return s.fail(ctx, event, metrics.StageUpload, err)
	}

	// Finalize. A failed READY write after all heavy work succeeded must not
	// cause a redo: acknowledge anyway, publish nothing, flag for manual
	// reconciliation.
	if err := s.ledger.MarkReady(ctx, event.VideoID, outputs, time.Now()); err != nil {
		slog.Error("pipeline succeeded but READY write failed, manual reconciliation required",
			"video_id", event.VideoID,
			"error", err,
		)
		metrics.StageFailuresTotal.WithLabelValues(metrics.StageFinalize).Inc()
		metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeReconciliationNeeded).Inc()
		return nil
	}
	s.invalidateCache(ctx, event.VideoID)

	s.publishCompleted(ctx, event, outputs)
	metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeCompleted).Inc()

	slog.Info("video processed",
		"video_id", event.VideoID,
		"outputs", len(outputs),
	)
	return nil
}

// fail finalizes a mid-pipeline failure: ERROR status (best-effort), one
// failure event, reject verdict.
func (s *processService) fail(ctx context.Context, event repository.UploadEvent, stage string, cause error) error {
	metrics.StageFailuresTotal.WithLabelValues(stage).Inc()

	if err := s.ledger.MarkError(ctx, event.VideoID); err != nil {
		slog.Warn("failed to record ERROR status",
			"video_id", event.VideoID,
			"error", err,
		)
	} else {
		s.invalidateCache(ctx, event.VideoID)
	}

	s.publishFailed(ctx, event, cause)
	metrics.JobsProcessedTotal.WithLabelValues(metrics.OutcomeFailed).Inc()
	return cause
}

// createWorkDir creates the per-job workspace directory.
func (s *processService) createWorkDir(videoID uuid.UUID) (string, error) {
	workDir := filepath.Join(s.tempDir, videoID.String())
	if err := os.MkdirAll(workDir, 0755); err != nil {
		return "", fmt.Errorf("mkdir: %w", err)
	}
	return workDir, nil
}

// cleanup removes the workspace directory. Tolerates an already-missing path.
func (s *processService) cleanup(workDir string) {
	_ = os.RemoveAll(workDir)
}

// downloadSource fetches the source blob into the workspace under a
// sanitized local name.
func (s *processService) downloadSource(ctx context.Context, event repository.UploadEvent, workDir string) (string, error) {
	inputPath := filepath.Join(workDir, sanitizeFilename(event.OriginalFilename))

	stageCtx, cancel := s.stageContext(ctx)
	defer cancel()

	if err := s.storage.Fetch(stageCtx, event.SourceKey, inputPath); err != nil {
		return "", fmt.Errorf("download %s: %w", event.SourceKey, err)
	}
	return inputPath, nil
}

// deriveAll runs every variant derivation and the thumbnail concurrently and
// waits for the whole group to settle. Siblings are not cancelled when one
// task fails: work already in flight is allowed to finish. Returns the first
// error after the join; successes are reported for partial-failure
// accounting.
func (s *processService) deriveAll(ctx context.Context, inputPath, outputDir string) ([]*transcoder.Output, error) {
	stageCtx, cancel := s.stageContext(ctx)
	defer cancel()

	var (
		mu       sync.Mutex
		produced []*transcoder.Output
	)
	collect := func(out *transcoder.Output) {
		mu.Lock()
		defer mu.Unlock()
		produced = append(produced, out)
	}

	var g errgroup.Group
	for _, variant := range s.variants {
		variant := variant
		g.Go(func() error {
			out, err := s.engine.TranscodeVariant(stageCtx, inputPath, outputDir, variant)
			if err != nil {
				return fmt.Errorf("derive %s: %w", variant.Label, err)
			}
			collect(out)
			return nil
		})
	}
	g.Go(func() error {
		out, err := s.engine.GenerateThumbnail(stageCtx, inputPath, outputDir)
		if err != nil {
			return fmt.Errorf("derive thumbnail: %w", err)
		}
		collect(out)
		return nil
	})

	if err := g.Wait(); err != nil {
		labels := make([]string, 0, len(produced))
		for _, out := range produced {
			labels = append(labels, out.Label)
		}
		slog.Warn("derivation group failed",
			"succeeded_variants", labels,
			"error", err,
		)
		return nil, err
	}

	return produced, nil
}

// uploadAll stores every produced file concurrently under its deterministic
// destination key. Failures do not retract uploads that already succeeded.
func (s *processService) uploadAll(ctx context.Context, videoID uuid.UUID, produced []*transcoder.Output) (map[string]string, error) {
	stageCtx, cancel := s.stageContext(ctx)
	defer cancel()

	var (
		mu      sync.Mutex
		outputs = make(map[string]string, len(produced))
	)

	var g errgroup.Group
	for _, out := range produced {
		out := out
		g.Go(func() error {
			key := s.outputKey(videoID, out.Label, out.Ext)
			if _, err := s.storage.Store(stageCtx, key, out.Path, contentTypeForExt(out.Ext)); err != nil {
				return fmt.Errorf("upload %s: %w", out.Label, err)
			}
			mu.Lock()
			outputs[out.Label] = key
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return outputs, nil
}

// outputKey computes the deterministic destination key for one variant.
// Format: {processed-prefix}{videoId}/{videoId}_{variant}.{ext}
func (s *processService) outputKey(videoID uuid.UUID, label, ext string) string {
	return fmt.Sprintf("%s%s/%s_%s.%s", s.processedPrefix, videoID, videoID, label, ext)
}

// stageContext derives a per-stage deadline context when configured.
func (s *processService) stageContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if s.stageTimeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.stageTimeout)
}

// invalidateCache evicts the record so readers don't serve a stale status.
// Best-effort: cache failures never affect the job verdict.
func (s *processService) invalidateCache(ctx context.Context, videoID uuid.UUID) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, videoID); err != nil {
		slog.Warn("failed to invalidate video cache",
			"video_id", videoID,
			"error", err,
		)
	}
}

// publishCompleted emits the completion event. Best-effort: the ledger is the
// source of truth, a publish failure is logged and does not change the verdict.
func (s *processService) publishCompleted(ctx context.Context, event repository.UploadEvent, outputs map[string]string) {
	err := s.publisher.Publish(ctx, repository.ResultEvent{
		Kind:    repository.ResultCompleted,
		VideoID: event.VideoID,
		Status:  string(model.StatusReady),
		Outputs: outputs,
	})
	if err != nil {
		slog.Warn("failed to publish completion event",
			"video_id", event.VideoID,
			"error", err,
		)
		metrics.ResultEventsTotal.WithLabelValues(string(repository.ResultCompleted), metrics.PublishError).Inc()
		return
	}
	metrics.ResultEventsTotal.WithLabelValues(string(repository.ResultCompleted), metrics.PublishSuccess).Inc()
}

// publishFailed emits the failure event carrying the first error and the
// original source key.
func (s *processService) publishFailed(ctx context.Context, event repository.UploadEvent, cause error) {
	err := s.publisher.Publish(ctx, repository.ResultEvent{
		Kind:      repository.ResultFailed,
		VideoID:   event.VideoID,
		Status:    string(model.StatusError),
		Error:     cause.Error(),
		SourceKey: event.SourceKey,
	})
	if err != nil {
		slog.Warn("failed to publish failure event",
			"video_id", event.VideoID,
			"error", err,
		)
		metrics.ResultEventsTotal.WithLabelValues(string(repository.ResultFailed), metrics.PublishError).Inc()
		return
	}
	metrics.ResultEventsTotal.WithLabelValues(string(repository.ResultFailed), metrics.PublishSuccess).Inc()
}

// contentTypeForExt maps a produced file extension to its MIME type.
func contentTypeForExt(ext string) string {
	switch ext {
	case "jpg":
		return "image/jpeg"
	default:
		return "video/mp4"
	}
}

// unsafeFilenameChars matches everything outside the safe filename alphabet.
var unsafeFilenameChars = regexp.MustCompile(`[^a-zA-Z0-9._-]+`)

// sanitizeFilename strips path components and unsafe characters from an
// externally supplied filename so it cannot escape the workspace.
func sanitizeFilename(name string) string {
	base := filepath.Base(name)
	safe := unsafeFilenameChars.ReplaceAllString(base, "_")
	safe = trimLeadingDots(safe)
	if safe == "" {
		return "source"
	}
	return safe
}

func trimLeadingDots(s string) string {
	for len(s) > 0 && s[0] == '.' {
		s = s[1:]
	}
	return s
}
