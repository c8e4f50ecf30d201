// Package service provides business logic services for Glimpse.
package service

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"github.com/glimpse-app/glimpse/internal/domain"
	"github.com/glimpse-app/glimpse/internal/repository"
)

// =============================================================================
// Mock Repository Types
// =============================================================================

type mockUserRepository struct {
	mock.Mock
}

func (m *mockUserRepository) Create(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) GetByID(ctx context.Context, id int64) (*domain.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) GetByExternalID(ctx context.Context, externalID string) (*domain.User, error) {
	args := m.Called(ctx, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.User), args.Error(1)
}

func (m *mockUserRepository) Update(ctx context.Context, user *domain.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *mockUserRepository) Delete(ctx context.Context, id int64) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *mockUserRepository) List(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.User], error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.User]), args.Error(1)
}

func (m *mockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *mockUserRepository) ExistsByExternalID(ctx context.Context, externalID string) (bool, error) {
	args := m.Called(ctx, externalID)
	return args.Bool(0), args.Error(1)
}

type mockPhotoRepository struct {
	mock.Mock
}

func (m *mockPhotoRepository) Create(ctx context.Context, photo *domain.Photo) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}

func (m *mockPhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Photo), args.Error(1)
}

func (m *mockPhotoRepository) ListAll(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	args := m.Called(ctx, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.Photo]), args.Error(1)
}

func (m *mockPhotoRepository) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	args := m.Called(ctx, ownerID, opts)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.ListResult[domain.Photo]), args.Error(1)
}

func (m *mockPhotoRepository) UpdateVersioned(ctx context.Context, photo *domain.Photo) error {
	args := m.Called(ctx, photo)
	return args.Error(0)
}

func (m *mockPhotoRepository) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type mockStorageBackend struct {
	mock.Mock
}

func (m *mockStorageBackend) Save(ctx context.Context, filename string, reader io.Reader, size int64) error {
	args := m.Called(ctx, filename, reader, size)
	return args.Error(0)
}

func (m *mockStorageBackend) Open(ctx context.Context, filename string) (io.ReadCloser, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *mockStorageBackend) Delete(ctx context.Context, filename string) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}

func (m *mockStorageBackend) Exists(ctx context.Context, filename string) (bool, error) {
	args := m.Called(ctx, filename)
	return args.Bool(0), args.Error(1)
}

func (m *mockStorageBackend) Size(ctx context.Context, filename string) (int64, error) {
	args := m.Called(ctx, filename)
	return args.Get(0).(int64), args.Error(1)
}

// fakePhotoRepository is an in-memory PhotoRepository with real
// version-check semantics, for exercising the retry loop under
// concurrent writers.
type fakePhotoRepository struct {
	mu     chan struct{} // buffered size 1, used as a mutex
	photos map[string]*domain.Photo
}

func newFakePhotoRepository() *fakePhotoRepository {
	r := &fakePhotoRepository{
		mu:     make(chan struct{}, 1),
		photos: make(map[string]*domain.Photo),
	}
	r.mu <- struct{}{}
	return r
}

func (r *fakePhotoRepository) lock()   { <-r.mu }
func (r *fakePhotoRepository) unlock() { r.mu <- struct{}{} }

func clonePhoto(p *domain.Photo) *domain.Photo {
	cp := *p
	cp.Likes = append([]domain.Like(nil), p.Likes...)
	cp.Views = append([]domain.View(nil), p.Views...)
	cp.Comments = make([]domain.Comment, len(p.Comments))
	for i, c := range p.Comments {
		cc := c
		cc.Replies = append([]domain.Reply(nil), c.Replies...)
		cp.Comments[i] = cc
	}
	return &cp
}

func (r *fakePhotoRepository) Create(ctx context.Context, photo *domain.Photo) error {
	r.lock()
	defer r.unlock()
	photo.Version = 1
	r.photos[photo.ID] = clonePhoto(photo)
	return nil
}

func (r *fakePhotoRepository) GetByID(ctx context.Context, id string) (*domain.Photo, error) {
	r.lock()
	defer r.unlock()
	p, ok := r.photos[id]
	if !ok {
		return nil, domain.ErrPhotoNotFound
	}
	return clonePhoto(p), nil
}

func (r *fakePhotoRepository) ListAll(ctx context.Context, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	r.lock()
	defer r.unlock()
	var items []*domain.Photo
	for _, p := range r.photos {
		items = append(items, clonePhoto(p))
	}
	return &repository.ListResult[domain.Photo]{Items: items, Total: int64(len(items))}, nil
}

func (r *fakePhotoRepository) ListByOwner(ctx context.Context, ownerID int64, opts repository.ListOptions) (*repository.ListResult[domain.Photo], error) {
	r.lock()
	defer r.unlock()
	var items []*domain.Photo
	for _, p := range r.photos {
		if p.OwnerID == ownerID {
			items = append(items, clonePhoto(p))
		}
	}
	return &repository.ListResult[domain.Photo]{Items: items, Total: int64(len(items))}, nil
}

func (r *fakePhotoRepository) UpdateVersioned(ctx context.Context, photo *domain.Photo) error {
	r.lock()
	defer r.unlock()
	stored, ok := r.photos[photo.ID]
	if !ok {
		return domain.ErrPhotoNotFound
	}
	if stored.Version != photo.Version {
		return domain.ErrVersionConflict
	}
	photo.Version++
	r.photos[photo.ID] = clonePhoto(photo)
	return nil
}

func (r *fakePhotoRepository) Delete(ctx context.Context, id string) error {
	r.lock()
	defer r.unlock()
	if _, ok := r.photos[id]; !ok {
		return domain.ErrPhotoNotFound
	}
	delete(r.photos, id)
	return nil
}

var _ repository.PhotoRepository = (*fakePhotoRepository)(nil)
