package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"veritas-data-pipeline/internal/dto"
	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/pkg/progress"
	"veritas-data-pipeline/internal/repository/specification"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/pkg/chunker"
	"veritas-data-pipeline/pkg/embedding"
	"veritas-data-pipeline/pkg/events"
	"veritas-data-pipeline/pkg/extract"
	"veritas-data-pipeline/pkg/ipfs"
	pktNats "veritas-data-pipeline/pkg/nats"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"
	"golang.org/x/sync/errgroup"
)

// Progress milestones for a single document run. Extraction lands at 40,
// embedding fills 40 to 80, content storage at 80, commit at 100.
const (
	progressExtracting = 10
	progressExtracted  = 40
	progressEmbedded   = 80
	progressDone       = 100
)

type IConsumerService interface {
	Consume(ctx context.Context) error
	Shutdown()
}

// ConsumerOptions carries the pipeline tunables the worker honors per document.
type ConsumerOptions struct {
	TopicName        string
	WorkerCount      int
	MaxChunkSize     int
	ChunkOverlap     int
	ProcessTimeout   time.Duration
	EmbedConcurrency int
}

type consumerService struct {
	pubSub            *gochannel.GoChannel
	opts              ConsumerOptions
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
	ipfsClient        *ipfs.Client
	extractRegistry   *extract.Registry
	tracker           progress.Tracker
	eventPublisher    *pktNats.Publisher
	metrics           IMetricsService
	pool              *ants.Pool
}

func NewConsumerService(
	pubSub *gochannel.GoChannel,
	opts ConsumerOptions,
	uowFactory unitofwork.RepositoryFactory,
	embeddingProvider embedding.Provider,
	ipfsClient *ipfs.Client,
	extractRegistry *extract.Registry,
	tracker progress.Tracker,
	eventPublisher *pktNats.Publisher,
	metrics IMetricsService,
) (IConsumerService, error) {
	if opts.WorkerCount <= 0 {
		opts.WorkerCount = 4
	}
	if opts.EmbedConcurrency <= 0 {
		opts.EmbedConcurrency = 1
	}

	pool, err := ants.NewPool(opts.WorkerCount, ants.WithNonblocking(false))
	if err != nil {
		return nil, fmt.Errorf("failed to create worker pool: %w", err)
	}

	return &consumerService{
		pubSub:            pubSub,
		opts:              opts,
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
		ipfsClient:        ipfsClient,
		extractRegistry:   extractRegistry,
		tracker:           tracker,
		eventPublisher:    eventPublisher,
		metrics:           metrics,
		pool:              pool,
	}, nil
}

func (cs *consumerService) Consume(ctx context.Context) error {
	messages, err := cs.pubSub.Subscribe(ctx, cs.opts.TopicName)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			m := msg
			if err := cs.pool.Submit(func() {
				cs.processMessage(ctx, m)
			}); err != nil {
				log.Printf("[ERROR] Failed to submit message to worker pool: %v", err)
				m.Nack()
			}
		}
	}()

	return nil
}

func (cs *consumerService) Shutdown() {
	cs.pool.Release()
}

func (cs *consumerService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProcessDocumentMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		log.Printf("[ERROR] Failed to unmarshal message: %v", err)
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	procCtx, cancel := context.WithTimeout(ctx, cs.opts.ProcessTimeout)
	defer cancel()

	start := time.Now()
	log.Printf("[INFO] Processing document %s (%s)", payload.DocumentId, payload.Filename)

	chunkCount, err := cs.processDocument(procCtx, &payload)
	if err != nil {
		log.Printf("[ERROR] Document %s failed: %v", payload.DocumentId, err)
		cs.markFailed(payload.DocumentId, err)
		cs.removeSpool(payload.FilePath)
		cs.metrics.IncFailed()
		cs.publishEvent(events.TypeDocumentFailed, map[string]interface{}{
			"document_id": payload.DocumentId.String(),
			"error":       err.Error(),
		})
		msg.Ack() // failure is durably recorded on the row
		return
	}

	cs.removeSpool(payload.FilePath)
	cs.metrics.IncCompleted()
	cs.metrics.AddChunks(chunkCount)
	cs.metrics.ObserveProcessing(time.Since(start))
	cs.publishEvent(events.TypeDocumentIngested, map[string]interface{}{
		"document_id": payload.DocumentId.String(),
		"chunks":      chunkCount,
	})

	log.Printf("[SUCCESS] Document %s ingested: %d chunks in %s", payload.DocumentId, chunkCount, time.Since(start).Round(time.Millisecond))
	msg.Ack()
}

// processDocument runs the full ingestion for a single document: extract,
// chunk, embed, store content, then commit metadata and chunks in one
// transaction. Returns the number of chunks written.
func (cs *consumerService) processDocument(ctx context.Context, payload *dto.ProcessDocumentMessage) (int, error) {
	docId := payload.DocumentId
	uow := cs.uowFactory.NewUnitOfWork(ctx)

	if err := uow.DocumentRepository().UpdateStatus(ctx, docId, entity.StatusProcessing, nil, ""); err != nil {
		return 0, err
	}
	cs.tracker.Set(ctx, docId.String(), progressExtracting, "Extracting text")

	raw, err := os.ReadFile(payload.FilePath)
	if err != nil {
		return 0, apperror.Storage("failed to read spooled upload", err)
	}

	text, err := cs.extractRegistry.Extract(raw, payload.MimeType)
	if err != nil {
		return 0, err
	}

	chunks, err := chunker.Chunk(text, cs.opts.MaxChunkSize, cs.opts.ChunkOverlap)
	if err != nil {
		return 0, err
	}
	if len(chunks) == 0 {
		return 0, apperror.Validation("document contains no extractable text")
	}
	cs.tracker.Set(ctx, docId.String(), progressExtracted, fmt.Sprintf("Split into %d chunks", len(chunks)))

	vectors, err := cs.embedChunks(ctx, docId, chunks)
	if err != nil {
		return 0, err
	}
	cs.tracker.Set(ctx, docId.String(), progressEmbedded, "Embeddings generated")

	cid, err := cs.ipfsClient.Store(ctx, raw)
	if err != nil {
		return 0, err
	}
	cs.tracker.Set(ctx, docId.String(), progressEmbedded+10, "Content stored")

	now := time.Now()
	chunkEntities := make([]*entity.DocumentChunk, len(chunks))
	for i, content := range chunks {
		chunkEntities[i] = &entity.DocumentChunk{
			Id:         uuid.New(),
			DocumentId: docId,
			ChunkIndex: i,
			Content:    content,
			Embedding:  vectors[i],
			CreatedAt:  now,
		}
	}

	if err := uow.Begin(ctx); err != nil {
		return 0, apperror.Transient("failed to begin transaction", err)
	}
	defer uow.Rollback()

	doc, err := uow.DocumentRepository().FindOne(ctx, specification.ByID{ID: docId})
	if err != nil {
		return 0, err
	}
	if doc == nil {
		return 0, apperror.NotFound("document " + docId.String() + " disappeared during processing")
	}

	doc.Cid = &cid
	doc.Content = text
	doc.Status = entity.StatusCompleted
	doc.ErrorMessage = ""
	if err := uow.DocumentRepository().Update(ctx, doc); err != nil {
		return 0, err
	}

	if err := uow.DocumentChunkRepository().CreateBulk(ctx, chunkEntities); err != nil {
		return 0, err
	}

	if err := uow.Commit(); err != nil {
		return 0, apperror.Transient("failed to commit ingestion transaction", err)
	}

	cs.tracker.Set(ctx, docId.String(), progressDone, "Ingestion complete")
	return len(chunkEntities), nil
}

// embedChunks generates one vector per chunk, preserving order. Embedding
// calls run with bounded concurrency; a single bad vector fails the document.
func (cs *consumerService) embedChunks(ctx context.Context, docId uuid.UUID, chunks []string) ([][]float32, error) {
	vectors := make([][]float32, len(chunks))
	dims := cs.embeddingProvider.Dimensions()

	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(cs.opts.EmbedConcurrency)

	for i, chunk := range chunks {
		i, chunk := i, chunk
		g.Go(func() error {
			vec, err := cs.embeddingProvider.EmbedText(gCtx, chunk)
			if err != nil {
				return err
			}
			if !embedding.ValidateVector(vec, dims) {
				return apperror.Embedding(fmt.Sprintf("invalid vector for chunk %d", i), nil)
			}
			vectors[i] = vec

			// Embedding occupies the 40-80 band; report coarse forward progress.
			p := progressExtracted + (progressEmbedded-progressExtracted)*(i+1)/len(chunks)
			cs.tracker.Set(gCtx, docId.String(), p, fmt.Sprintf("Embedding chunk %d of %d", i+1, len(chunks)))
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

// markFailed records the failure on the row outside the canceled processing
// context so the terminal status always lands.
func (cs *consumerService) markFailed(docId uuid.UUID, cause error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	uow := cs.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DocumentRepository().UpdateStatus(ctx, docId, entity.StatusFailed, nil, cause.Error()); err != nil {
		log.Printf("[ERROR] Failed to mark document %s as FAILED: %v", docId, err)
	}
}

func (cs *consumerService) removeSpool(filePath string) {
	if filePath == "" {
		return
	}
	if err := os.Remove(filePath); err != nil && !os.IsNotExist(err) {
		log.Printf("[WARN] Failed to remove spooled file %s: %v", filePath, err)
	}
}

func (cs *consumerService) publishEvent(eventType string, data map[string]interface{}) {
	if cs.eventPublisher == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	evt := events.BaseEvent{Type: eventType, Data: data, OccurredAt: time.Now()}
	if err := cs.eventPublisher.Publish(ctx, evt); err != nil {
		log.Printf("[WARN] Failed to publish %s event: %v", eventType, err)
	}
}
