package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"veritas-data-pipeline/internal/dto"
	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/pkg/progress"
	"veritas-data-pipeline/internal/repository/specification"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/pkg/events"
	"veritas-data-pipeline/pkg/extract"
	"veritas-data-pipeline/pkg/ipfs"
	pktNats "veritas-data-pipeline/pkg/nats"

	"github.com/google/uuid"
)

const (
	defaultListLimit = 20
	maxListLimit     = 100
)

type IIngestionService interface {
	Submit(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error)
	SubmitBatch(ctx context.Context, reqs []dto.IngestDocumentRequest) (*dto.BatchUploadResponse, error)
	GetStatus(ctx context.Context, id uuid.UUID) (*dto.DocumentStatusResponse, error)
	GetContent(ctx context.Context, id uuid.UUID) ([]byte, string, error)
	List(ctx context.Context, page, limit int, statusFilter string) (*dto.ListDocumentsResponse, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type ingestionService struct {
	uowFactory       unitofwork.RepositoryFactory
	publisherService IPublisherService
	ipfsClient       *ipfs.Client
	extractRegistry  *extract.Registry
	tracker          progress.Tracker
	eventPublisher   *pktNats.Publisher
	metrics          IMetricsService

	uploadDir      string
	maxFileSize    int64
	batchSizeLimit int
}

func NewIngestionService(
	uowFactory unitofwork.RepositoryFactory,
	publisherService IPublisherService,
	ipfsClient *ipfs.Client,
	extractRegistry *extract.Registry,
	tracker progress.Tracker,
	eventPublisher *pktNats.Publisher,
	metrics IMetricsService,
	uploadDir string,
	maxFileSize int64,
	batchSizeLimit int,
) IIngestionService {
	return &ingestionService{
		uowFactory:       uowFactory,
		publisherService: publisherService,
		ipfsClient:       ipfsClient,
		extractRegistry:  extractRegistry,
		tracker:          tracker,
		eventPublisher:   eventPublisher,
		metrics:          metrics,
		uploadDir:        uploadDir,
		maxFileSize:      maxFileSize,
		batchSizeLimit:   batchSizeLimit,
	}
}

func (s *ingestionService) validate(req *dto.IngestDocumentRequest) error {
	if req.Filename == "" {
		return apperror.Validation("filename is required")
	}
	if len(req.Content) == 0 {
		return apperror.Validation("file content is empty")
	}
	if int64(len(req.Content)) > s.maxFileSize {
		return apperror.Validationf("file %s exceeds maximum size of %d bytes", req.Filename, s.maxFileSize)
	}
	if !s.extractRegistry.IsSupported(req.MimeType) {
		return apperror.Validationf("unsupported MIME type: %s", req.MimeType)
	}
	return nil
}

// Submit validates the upload, records a PENDING document, spools the raw
// bytes to disk and enqueues the processing message. The response returns
// immediately; ingestion happens asynchronously.
func (s *ingestionService) Submit(ctx context.Context, req *dto.IngestDocumentRequest) (*dto.IngestDocumentResponse, error) {
	if err := s.validate(req); err != nil {
		return nil, err
	}

	doc := &entity.Document{
		Id:       uuid.New(),
		Title:    req.Filename,
		MimeType: req.MimeType,
		Status:   entity.StatusPending,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().Create(ctx, doc); err != nil {
		return nil, err
	}

	filePath, err := s.spool(doc.Id, req.Content)
	if err != nil {
		_ = uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.StatusFailed, nil, "failed to spool upload")
		return nil, apperror.Storage("failed to spool upload to disk", err)
	}

	payload := dto.ProcessDocumentMessage{
		DocumentId: doc.Id,
		Filename:   req.Filename,
		MimeType:   req.MimeType,
		FilePath:   filePath,
	}
	payloadJson, err := json.Marshal(payload)
	if err != nil {
		return nil, apperror.Wrap(apperror.KindInternal, "failed to marshal processing message", err)
	}

	if err := s.publisherService.Publish(ctx, payloadJson); err != nil {
		_ = uow.DocumentRepository().UpdateStatus(ctx, doc.Id, entity.StatusFailed, nil, "failed to enqueue processing")
		s.removeSpool(filePath)
		return nil, apperror.Transient("failed to enqueue document for processing", err)
	}

	s.tracker.Set(ctx, doc.Id.String(), 5, "Queued for processing")
	s.metrics.IncSubmitted()

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentSubmitted,
			Data: map[string]interface{}{
				"document_id": doc.Id.String(),
				"filename":    req.Filename,
				"mime_type":   req.MimeType,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish submit event for %s: %v", doc.Id, err)
		}
	}

	return &dto.IngestDocumentResponse{
		DocumentId: doc.Id,
		Status:     entity.StatusPending,
		Message:    "Document accepted for processing",
	}, nil
}

// SubmitBatch accepts up to the configured batch limit. Individual failures
// reject that file without aborting the batch; the response carries coarse
// accepted and rejected counts.
func (s *ingestionService) SubmitBatch(ctx context.Context, reqs []dto.IngestDocumentRequest) (*dto.BatchUploadResponse, error) {
	if len(reqs) == 0 {
		return nil, apperror.Validation("batch contains no files")
	}
	if len(reqs) > s.batchSizeLimit {
		return nil, apperror.Validationf("batch size %d exceeds limit of %d", len(reqs), s.batchSizeLimit)
	}

	accepted := 0
	for i := range reqs {
		if _, err := s.Submit(ctx, &reqs[i]); err != nil {
			log.Printf("[WARN] Batch upload rejected file %s: %v", reqs[i].Filename, err)
			continue
		}
		accepted++
	}

	return &dto.BatchUploadResponse{
		BatchId:       uuid.New(),
		TotalFiles:    len(reqs),
		AcceptedFiles: accepted,
		RejectedFiles: len(reqs) - accepted,
		Message:       fmt.Sprintf("%d of %d files accepted", accepted, len(reqs)),
	}, nil
}

// GetStatus merges the durable row status with the live progress channel.
// Terminal statuses win over stale progress entries.
func (s *ingestionService) GetStatus(ctx context.Context, id uuid.UUID) (*dto.DocumentStatusResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, apperror.NotFound("document " + id.String() + " not found")
	}

	resp := &dto.DocumentStatusResponse{
		DocumentId: doc.Id,
		Status:     doc.Status,
		Cid:        doc.Cid,
	}

	switch doc.Status {
	case entity.StatusCompleted:
		resp.Progress = 100
		resp.Message = "Ingestion complete"
	case entity.StatusFailed:
		if p, _, ok := s.tracker.Get(ctx, id.String()); ok {
			resp.Progress = p
		}
		resp.Message = doc.ErrorMessage
	default:
		if p, msg, ok := s.tracker.Get(ctx, id.String()); ok {
			resp.Progress = p
			resp.Message = msg
		} else {
			resp.Message = "Waiting in queue"
		}
	}

	return resp, nil
}

// GetContent fetches the original bytes back from the content store.
func (s *ingestionService) GetContent(ctx context.Context, id uuid.UUID) ([]byte, string, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, "", err
	}
	if doc == nil {
		return nil, "", apperror.NotFound("document " + id.String() + " not found")
	}
	if doc.Cid == nil {
		return nil, "", apperror.NotFound("document " + id.String() + " has no stored content")
	}

	content, err := s.ipfsClient.Retrieve(ctx, *doc.Cid)
	if err != nil {
		return nil, "", err
	}
	return content, doc.MimeType, nil
}

// List returns a page of documents, newest first, optionally narrowed to a
// single lifecycle status. The filter applies to the total count as well so
// totalPages stays consistent with the filtered result.
func (s *ingestionService) List(ctx context.Context, page, limit int, statusFilter string) (*dto.ListDocumentsResponse, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}

	var filters []specification.Specification
	if statusFilter != "" {
		statusFilter = strings.ToUpper(statusFilter)
		switch statusFilter {
		case entity.StatusPending, entity.StatusProcessing, entity.StatusCompleted, entity.StatusFailed:
		default:
			return nil, apperror.Validationf("unknown status filter: %s", statusFilter)
		}
		filters = append(filters, specification.ByStatus{Status: statusFilter})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DocumentRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	docs, err := repo.FindAll(ctx, append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)...)
	if err != nil {
		return nil, err
	}

	summaries := make([]dto.DocumentSummary, len(docs))
	for i, doc := range docs {
		summaries[i] = dto.DocumentSummary{
			Id:        doc.Id,
			Cid:       doc.Cid,
			Title:     doc.Title,
			MimeType:  doc.MimeType,
			SourceURL: doc.SourceURL,
			Status:    doc.Status,
			CreatedAt: doc.CreatedAt,
		}
	}

	return &dto.ListDocumentsResponse{
		Documents:  summaries,
		TotalCount: total,
		Page:       page,
		Limit:      limit,
		TotalPages: int(math.Ceil(float64(total) / float64(limit))),
	}, nil
}

// Delete removes the document row (chunks cascade) and best-effort unpins the
// stored content. Unpin failures are logged, never surfaced.
func (s *ingestionService) Delete(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if doc == nil {
		return apperror.NotFound("document " + id.String() + " not found")
	}

	deleted, err := uow.DocumentRepository().Delete(ctx, id)
	if err != nil {
		return err
	}
	if !deleted {
		return apperror.NotFound("document " + id.String() + " not found")
	}

	if doc.Cid != nil {
		if err := s.ipfsClient.Unpin(ctx, *doc.Cid); err != nil {
			log.Printf("[WARN] Failed to unpin CID %s for deleted document %s: %v", *doc.Cid, id, err)
		}
	}

	s.tracker.Clear(ctx, id.String())

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeDocumentDeleted,
			Data: map[string]interface{}{
				"document_id": id.String(),
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			log.Printf("[WARN] Failed to publish delete event for %s: %v", id, err)
		}
	}

	return nil
}

func (s *ingestionService) spool(id uuid.UUID, content []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", err
	}
	filePath := filepath.Join(s.uploadDir, id.String())
	if err := os.WriteFile(filePath, content, 0o644); err != nil {
		return "", err
	}
	return filePath, nil
}

func (s *ingestionService) removeSpool(filePath string) {
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Failed to remove spooled file %s: %v", filePath, err)
	}
}
