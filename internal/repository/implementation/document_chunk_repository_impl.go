package implementation

import (
	"context"

	"veritas-data-pipeline/internal/mapper"
	"veritas-data-pipeline/internal/model"
	"veritas-data-pipeline/internal/repository/contract"

	"veritas-data-pipeline/internal/entity"

	"github.com/google/uuid"
	"github.com/pgvector/pgvector-go"
	"gorm.io/gorm"
)

type DocumentChunkRepositoryImpl struct {
	db     *gorm.DB
	mapper *mapper.DocumentChunkMapper
}

func NewDocumentChunkRepository(db *gorm.DB) contract.DocumentChunkRepository {
	return &DocumentChunkRepositoryImpl{
		db:     db,
		mapper: mapper.NewDocumentChunkMapper(),
	}
}

func (r *DocumentChunkRepositoryImpl) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	if len(chunks) == 0 {
		return nil
	}

	models := r.mapper.ToModels(chunks)
	if err := r.db.WithContext(ctx).Create(models).Error; err != nil {
		return translateError(err, "failed to create document chunks")
	}

	for i, m := range models {
		*chunks[i] = *r.mapper.ToEntity(m)
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) FindByDocumentId(ctx context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error) {
	var models []*model.DocumentChunk
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Order("chunk_index ASC").
		Find(&models).Error
	if err != nil {
		return nil, translateError(err, "failed to load chunks of document "+documentId.String())
	}
	return r.mapper.ToEntities(models), nil
}

func (r *DocumentChunkRepositoryImpl) UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, embedding []float32) error {
	err := r.db.WithContext(ctx).
		Model(&model.DocumentChunk{}).
		Where("id = ?", chunkId).
		Update("embedding", pgvector.NewVector(embedding)).Error
	if err != nil {
		return translateError(err, "failed to update embedding of chunk "+chunkId.String())
	}
	return nil
}

func (r *DocumentChunkRepositoryImpl) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	err := r.db.WithContext(ctx).
		Where("document_id = ?", documentId).
		Delete(&model.DocumentChunk{}).Error
	if err != nil {
		return translateError(err, "failed to delete chunks of document "+documentId.String())
	}
	return nil
}

// SearchSimilarWithScore joins source_documents to expose title and cid.
// pgvector cosine distance is 1 - cosine_similarity, so we select
// 1 - (embedding <=> query) and filter strictly above the threshold.
func (r *DocumentChunkRepositoryImpl) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredChunk, error) {
	if limit <= 0 {
		limit = 10
	}

	type result struct {
		model.DocumentChunk
		Title      string
		Cid        string
		Similarity float64
	}
	var results []result

	queryVector := pgvector.NewVector(embedding)

	err := r.db.WithContext(ctx).
		Table("document_chunks").
		Select("document_chunks.*, source_documents.title, source_documents.cid, 1 - (embedding <=> ?) as similarity", queryVector).
		Joins("JOIN source_documents ON source_documents.id = document_chunks.document_id").
		Where("1 - (embedding <=> ?) > ?", queryVector, threshold).
		Order("similarity DESC").
		Limit(limit).
		Scan(&results).Error
	if err != nil {
		return nil, translateError(err, "failed to search similar chunks")
	}

	scored := make([]*contract.ScoredChunk, len(results))
	for i, res := range results {
		scored[i] = &contract.ScoredChunk{
			Chunk:      r.mapper.ToEntity(&res.DocumentChunk),
			Title:      res.Title,
			Cid:        res.Cid,
			Similarity: res.Similarity,
		}
	}
	return scored, nil
}
