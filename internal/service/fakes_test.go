package service

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"veritas-data-pipeline/internal/entity"
	"veritas-data-pipeline/internal/pkg/apperror"
	"veritas-data-pipeline/internal/repository/contract"
	"veritas-data-pipeline/internal/repository/specification"
	"veritas-data-pipeline/internal/repository/unitofwork"

	"github.com/google/uuid"
)

// In-memory doubles for the repository layer. Specifications are matched by
// concrete type; only the ones the services actually use are interpreted.

type fakeStore struct {
	mu      sync.Mutex
	docs    map[uuid.UUID]*entity.Document
	chunks  map[uuid.UUID][]*entity.DocumentChunk
	records []*entity.VerificationRequest

	searchResults []*contract.ScoredChunk
	recorded      chan struct{}
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		docs:     make(map[uuid.UUID]*entity.Document),
		chunks:   make(map[uuid.UUID][]*entity.DocumentChunk),
		recorded: make(chan struct{}, 16),
	}
}

type fakeUow struct {
	store *fakeStore
}

func (u *fakeUow) Begin(ctx context.Context) error { return nil }
func (u *fakeUow) Commit() error                   { return nil }
func (u *fakeUow) Rollback() error                 { return nil }

func (u *fakeUow) DocumentRepository() contract.DocumentRepository {
	return &fakeDocumentRepo{store: u.store}
}

func (u *fakeUow) DocumentChunkRepository() contract.DocumentChunkRepository {
	return &fakeChunkRepo{store: u.store}
}

func (u *fakeUow) VerificationRequestRepository() contract.VerificationRequestRepository {
	return &fakeVerificationRepo{store: u.store}
}

type fakeFactory struct {
	store *fakeStore
}

func newFakeFactory() *fakeFactory {
	return &fakeFactory{store: newFakeStore()}
}

func (f *fakeFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork {
	return &fakeUow{store: f.store}
}

type fakeDocumentRepo struct {
	store *fakeStore
}

func (r *fakeDocumentRepo) Create(ctx context.Context, doc *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	cp := *doc
	r.store.docs[doc.Id] = &cp
	return nil
}

func (r *fakeDocumentRepo) Update(ctx context.Context, doc *entity.Document) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.docs[doc.Id]; !ok {
		return apperror.NotFound("document not found")
	}
	cp := *doc
	r.store.docs[doc.Id] = &cp
	return nil
}

func (r *fakeDocumentRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string, cid *string, errorMessage string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	doc, ok := r.store.docs[id]
	if !ok {
		return apperror.NotFound("document not found")
	}
	doc.Status = status
	doc.ErrorMessage = errorMessage
	if cid != nil {
		doc.Cid = cid
	}
	return nil
}

func (r *fakeDocumentRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, spec := range specs {
		if byID, ok := spec.(specification.ByID); ok {
			if doc, found := r.store.docs[byID.ID]; found {
				cp := *doc
				return &cp, nil
			}
			return nil, nil
		}
	}
	return nil, errors.New("fakeDocumentRepo.FindOne: unsupported specification")
}

func (r *fakeDocumentRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Document, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	statusFilter := ""
	desc := false
	limit, offset := -1, 0
	var cutoff *time.Time
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByStatus:
			statusFilter = s.Status
		case specification.OrderBy:
			desc = s.Desc
		case specification.Pagination:
			limit, offset = s.Limit, s.Offset
		case specification.OlderThan:
			c := s.Cutoff
			cutoff = &c
		}
	}

	var out []*entity.Document
	for _, doc := range r.store.docs {
		if statusFilter != "" && doc.Status != statusFilter {
			continue
		}
		if cutoff != nil && !doc.CreatedAt.Before(*cutoff) {
			continue
		}
		cp := *doc
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if desc {
			return out[i].CreatedAt.After(out[j].CreatedAt)
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})

	if offset > len(out) {
		offset = len(out)
	}
	out = out[offset:]
	if limit >= 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r *fakeDocumentRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()

	statusFilter := ""
	for _, spec := range specs {
		if byStatus, ok := spec.(specification.ByStatus); ok {
			statusFilter = byStatus.Status
		}
	}

	var count int64
	for _, doc := range r.store.docs {
		if statusFilter != "" && doc.Status != statusFilter {
			continue
		}
		count++
	}
	return count, nil
}

func (r *fakeDocumentRepo) Delete(ctx context.Context, id uuid.UUID) (bool, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.docs[id]; !ok {
		return false, nil
	}
	delete(r.store.docs, id)
	delete(r.store.chunks, id)
	return true, nil
}

type fakeChunkRepo struct {
	store *fakeStore
}

func (r *fakeChunkRepo) CreateBulk(ctx context.Context, chunks []*entity.DocumentChunk) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, c := range chunks {
		cp := *c
		r.store.chunks[c.DocumentId] = append(r.store.chunks[c.DocumentId], &cp)
	}
	return nil
}

func (r *fakeChunkRepo) FindByDocumentId(ctx context.Context, documentId uuid.UUID) ([]*entity.DocumentChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	chunks := make([]*entity.DocumentChunk, len(r.store.chunks[documentId]))
	copy(chunks, r.store.chunks[documentId])
	sort.Slice(chunks, func(i, j int) bool {
		return chunks[i].ChunkIndex < chunks[j].ChunkIndex
	})
	return chunks, nil
}

func (r *fakeChunkRepo) UpdateEmbedding(ctx context.Context, chunkId uuid.UUID, embedding []float32) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, chunks := range r.store.chunks {
		for _, c := range chunks {
			if c.Id == chunkId {
				c.Embedding = embedding
				return nil
			}
		}
	}
	return apperror.NotFound("chunk not found")
}

func (r *fakeChunkRepo) DeleteByDocumentId(ctx context.Context, documentId uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	delete(r.store.chunks, documentId)
	return nil
}

func (r *fakeChunkRepo) SearchSimilarWithScore(ctx context.Context, embedding []float32, limit int, threshold float64) ([]*contract.ScoredChunk, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var out []*contract.ScoredChunk
	for _, sc := range r.store.searchResults {
		if sc.Similarity > threshold && len(out) < limit {
			out = append(out, sc)
		}
	}
	return out, nil
}

type fakeVerificationRepo struct {
	store *fakeStore
}

func (r *fakeVerificationRepo) Create(ctx context.Context, req *entity.VerificationRequest) error {
	r.store.mu.Lock()
	r.store.records = append(r.store.records, req)
	r.store.mu.Unlock()

	select {
	case r.store.recorded <- struct{}{}:
	default:
	}
	return nil
}

// fakeProvider is a deterministic 2-dimensional embedding provider.
type fakeProvider struct {
	mu       sync.Mutex
	failNext bool
	calls    int
}

func (p *fakeProvider) EmbedText(ctx context.Context, text string) ([]float32, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls++
	if p.failNext {
		return nil, apperror.Embedding("provider unavailable", nil)
	}
	return []float32{float32(len(text)), 1}, nil
}

func (p *fakeProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := p.EmbedText(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

func (p *fakeProvider) Dimensions() int { return 2 }
func (p *fakeProvider) Name() string    { return "fake" }
