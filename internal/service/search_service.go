package service

import (
	"context"
	"log"
	"time"

	"veritas-data-pipeline/internal/dto"
	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/repository/unitofwork"
	"veritas-data-pipeline/pkg/embedding"

	"github.com/google/uuid"
)

const (
	defaultSearchLimit     = 10
	maxSearchLimit         = 50
	defaultSimilarityFloor = 0.7
)

type ISearchService interface {
	// SearchByText embeds the query text and searches with the result.
	SearchByText(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
	// SearchSimilar searches with a caller-provided query vector.
	SearchSimilar(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error)
}

type searchService struct {
	uowFactory        unitofwork.RepositoryFactory
	embeddingProvider embedding.Provider
}

func NewSearchService(uowFactory unitofwork.RepositoryFactory, embeddingProvider embedding.Provider) ISearchService {
	return &searchService{
		uowFactory:        uowFactory,
		embeddingProvider: embeddingProvider,
	}
}

func (s *searchService) SearchByText(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	if req.Query == "" {
		return nil, apperror.Validation("query text is required")
	}

	vec, err := s.embeddingProvider.EmbedText(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	req.QueryVector = vec
	return s.SearchSimilar(ctx, req)
}

func (s *searchService) SearchSimilar(ctx context.Context, req *dto.SearchRequest) (*dto.SearchResponse, error) {
	if len(req.QueryVector) == 0 {
		return nil, apperror.Validation("query vector is required")
	}
	if !embedding.ValidateVector(req.QueryVector, s.embeddingProvider.Dimensions()) {
		return nil, apperror.Validationf("query vector must have %d finite dimensions", s.embeddingProvider.Dimensions())
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultSearchLimit
	}
	if limit > maxSearchLimit {
		limit = maxSearchLimit
	}

	threshold := req.SimilarityThreshold
	if threshold <= 0 {
		threshold = defaultSimilarityFloor
	}

	start := time.Now()

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.DocumentChunkRepository().SearchSimilarWithScore(ctx, req.QueryVector, limit, threshold)
	if err != nil {
		return nil, err
	}

	matches := make([]dto.SearchMatch, len(scored))
	for i, sc := range scored {
		matches[i] = dto.SearchMatch{
			DocumentId: sc.Chunk.DocumentId,
			Content:    sc.Chunk.Content,
			ChunkIndex: sc.Chunk.ChunkIndex,
			Title:      sc.Title,
			Cid:        sc.Cid,
			Similarity: sc.Similarity,
		}
	}

	s.recordVerification(req.Query, matches, time.Since(start))

	return &dto.SearchResponse{
		Matches: matches,
		Total:   len(matches),
	}, nil
}

// recordVerification writes the analytics row asynchronously. A failed insert
// is logged and never affects the search result.
func (s *searchService) recordVerification(query string, matches []dto.SearchMatch, elapsed time.Duration) {
	if query == "" {
		return
	}

	docIds := make([]uuid.UUID, 0, len(matches))
	seen := make(map[uuid.UUID]struct{}, len(matches))
	confidence := 0.0
	for _, m := range matches {
		if m.Similarity > confidence {
			confidence = m.Similarity
		}
		if _, ok := seen[m.DocumentId]; !ok {
			seen[m.DocumentId] = struct{}{}
			docIds = append(docIds, m.DocumentId)
		}
	}

	status := "NO_MATCH"
	if len(matches) > 0 {
		status = "MATCHED"
	}

	record := &entity.VerificationRequest{
		Id:               uuid.New(),
		ClaimText:        query,
		Confidence:       confidence,
		Status:           status,
		DocIds:           docIds,
		Source:           "api",
		ProcessingTimeMs: int(elapsed.Milliseconds()),
		CreatedAt:        time.Now(),
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		uow := s.uowFactory.NewUnitOfWork(ctx)
		if err := uow.VerificationRequestRepository().Create(ctx, record); err != nil {
			log.Printf("[WARN] Failed to record verification request: %v", err)
		}
	}()
}
