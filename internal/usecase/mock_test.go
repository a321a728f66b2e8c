package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/bad-Al-code/video-proccessing-service/internal/domain/model"
	"github.com/bad-Al-code/video-proccessing-service/internal/domain/repository"
	"github.com/bad-Al-code/video-proccessing-service/internal/transcoder"
)

type mockVideoLedger struct {
	mu sync.Mutex

	getByIDFunc         func(ctx context.Context, id uuid.UUID) (*model.Video, error)
	claimProcessingFunc func(ctx context.Context, id uuid.UUID) (bool, error)
	markReadyFunc       func(ctx context.Context, id uuid.UUID, outputs map[string]string, processedAt time.Time) error
	markErrorFunc       func(ctx context.Context, id uuid.UUID) error

	getCalls       int
	claimCalls     int
	markReadyCalls int
	markErrorCalls int
}

func (m *mockVideoLedger) GetByID(ctx context.Context, id uuid.UUID) (*model.Video, error) {
	m.mu.Lock()
	m.getCalls++
	m.mu.Unlock()
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return nil, repository.ErrVideoNotFound
}

func (m *mockVideoLedger) ClaimProcessing(ctx context.Context, id uuid.UUID) (bool, error) {
	m.mu.Lock()
	m.claimCalls++
	m.mu.Unlock()
	if m.claimProcessingFunc != nil {
		return m.claimProcessingFunc(ctx, id)
	}
	return true, nil
}

func (m *mockVideoLedger) MarkReady(ctx context.Context, id uuid.UUID, outputs map[string]string, processedAt time.Time) error {
	m.mu.Lock()
	m.markReadyCalls++
	m.mu.Unlock()
	if m.markReadyFunc != nil {
		return m.markReadyFunc(ctx, id, outputs, processedAt)
	}
	return nil
}

func (m *mockVideoLedger) MarkError(ctx context.Context, id uuid.UUID) error {
	m.mu.Lock()
	m.markErrorCalls++
	m.mu.Unlock()
	if m.markErrorFunc != nil {
		return m.markErrorFunc(ctx, id)
	}
	return nil
}

func (m *mockVideoLedger) statusWrites() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.claimCalls + m.markReadyCalls + m.markErrorCalls
}

type mockObjectStorage struct {
	mu sync.Mutex

	fetchFunc func(ctx context.Context, key, destPath string) error
	storeFunc func(ctx context.Context, key, srcPath, contentType string) (string, error)

	fetchCalls int
	storeCalls int
	storedKeys []string
}

func (m *mockObjectStorage) Fetch(ctx context.Context, key, destPath string) error {
	m.mu.Lock()
	m.fetchCalls++
	m.mu.Unlock()
	if m.fetchFunc != nil {
		return m.fetchFunc(ctx, key, destPath)
	}
	return nil
}

func (m *mockObjectStorage) Store(ctx context.Context, key, srcPath, contentType string) (string, error) {
	m.mu.Lock()
	m.storeCalls++
	m.storedKeys = append(m.storedKeys, key)
	m.mu.Unlock()
	if m.storeFunc != nil {
		return m.storeFunc(ctx, key, srcPath, contentType)
	}
	return "etag", nil
}

type mockEngine struct {
	mu sync.Mutex

	transcodeVariantFunc  func(ctx context.Context, inputPath, outputDir string, variant transcoder.Variant) (*transcoder.Output, error)
	generateThumbnailFunc func(ctx context.Context, inputPath, outputDir string) (*transcoder.Output, error)

	transcodeCalls int
	thumbnailCalls int
}

func (m *mockEngine) TranscodeVariant(ctx context.Context, inputPath, outputDir string, variant transcoder.Variant) (*transcoder.Output, error) {
	m.mu.Lock()
	m.transcodeCalls++
	m.mu.Unlock()
	if m.transcodeVariantFunc != nil {
		return m.transcodeVariantFunc(ctx, inputPath, outputDir, variant)
	}
	return &transcoder.Output{
		Path:  outputDir + "/" + variant.Label + ".mp4",
		Label: variant.Label,
		Ext:   "mp4",
	}, nil
}

func (m *mockEngine) GenerateThumbnail(ctx context.Context, inputPath, outputDir string) (*transcoder.Output, error) {
	m.mu.Lock()
	m.thumbnailCalls++
	m.mu.Unlock()
	if m.generateThumbnailFunc != nil {
		return m.generateThumbnailFunc(ctx, inputPath, outputDir)
	}
	return &transcoder.Output{
		Path:  outputDir + "/thumbnail.jpg",
		Label: transcoder.ThumbnailLabel,
		Ext:   "jpg",
	}, nil
}

func (m *mockEngine) deriveCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.transcodeCalls + m.thumbnailCalls
}

type mockPublisher struct {
	mu sync.Mutex

	publishFunc func(ctx context.Context, event repository.ResultEvent) error

	published []repository.ResultEvent
}

func (m *mockPublisher) Publish(ctx context.Context, event repository.ResultEvent) error {
	m.mu.Lock()
	m.published = append(m.published, event)
	m.mu.Unlock()
	if m.publishFunc != nil {
		return m.publishFunc(ctx, event)
	}
	return nil
}

func (m *mockPublisher) events() []repository.ResultEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]repository.ResultEvent(nil), m.published...)
}

type mockVideoCache struct {
	mu sync.Mutex

	deleteFunc func(ctx context.Context, videoID uuid.UUID) error

	deleteCalls int
}

func (m *mockVideoCache) Get(ctx context.Context, videoID uuid.UUID) (*model.Video, error) {
	return nil, nil
}

func (m *mockVideoCache) Set(ctx context.Context, video *model.Video, ttl time.Duration) error {
	return nil
}

func (m *mockVideoCache) Delete(ctx context.Context, videoID uuid.UUID) error {
	m.mu.Lock()
	m.deleteCalls++
	m.mu.Unlock()
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, videoID)
	}
	return nil
}
