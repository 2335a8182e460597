package store

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"bookshelf-backend/internal/domains/catalogue/model"
)

// MemoryStore is the in-memory Store used for tests and offline demos.
// It must behave exactly like the postgres store for every operation:
// same dedup search, same not-found semantics.
type MemoryStore struct {
	mu      sync.RWMutex
	authors map[uuid.UUID]*model.Author
	books   map[uuid.UUID]*model.Book
	order   []uuid.UUID // author insertion order, for first-match dedup
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		authors: make(map[uuid.UUID]*model.Author),
		books:   make(map[uuid.UUID]*model.Book),
	}
}

func (s *MemoryStore) FindAuthorByName(ctx context.Context, firstName, lastName string) (*model.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	first := strings.ToLower(firstName)
	last := strings.ToLower(lastName)

	// Scan in insertion order so the first match wins, like the
	// ORDER BY created_at in the postgres query.
	for _, id := range s.order {
		a := s.authors[id]
		if strings.ToLower(a.FirstName) == first && strings.ToLower(a.LastName) == last {
			return copyAuthor(a), nil
		}
	}

	return nil, nil
}

func (s *MemoryStore) GetAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	a, ok := s.authors[id]
	if !ok {
		return nil, model.ErrAuthorNotFound
	}
	return copyAuthor(a), nil
}

func (s *MemoryStore) InsertAuthor(ctx context.Context, author *model.Author) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	created := &model.Author{
		ID:        uuid.New(),
		FirstName: author.FirstName,
		LastName:  author.LastName,
		Biography: copyString(author.Biography),
		CreatedAt: now,
		UpdatedAt: now,
	}

	s.authors[created.ID] = created
	s.order = append(s.order, created.ID)

	return copyAuthor(created), nil
}

func (s *MemoryStore) UpdateAuthorBiography(ctx context.Context, id uuid.UUID, biography string) (*model.Author, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.authors[id]
	if !ok {
		return nil, model.ErrAuthorNotFound
	}

	a.Biography = &biography
	a.UpdatedAt = time.Now()

	return copyAuthor(a), nil
}

func (s *MemoryStore) InsertBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	created := &model.Book{
		ID:             uuid.New(),
		Title:          book.Title,
		ISBN:           copyString(book.ISBN),
		Edition:        copyString(book.Edition),
		Volume:         copyInt(book.Volume),
		Summary:        copyString(book.Summary),
		ReleaseDate:    copyString(book.ReleaseDate),
		AuthorNames:    append([]string(nil), book.AuthorNames...),
		GenreNames:     append([]string(nil), book.GenreNames...),
		CoverImagePath: copyString(book.CoverImagePath),
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	s.books[created.ID] = created

	return copyBook(created), nil
}

func (s *MemoryStore) GetBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b, ok := s.books[id]
	if !ok {
		return nil, model.ErrBookNotFound
	}
	return copyBook(b), nil
}

// InvalidateAuthor is a no-op: there is no cache layer in memory mode.
func (s *MemoryStore) InvalidateAuthor(ctx context.Context, author *model.Author) {}

// AuthorCount reports the number of stored authors. Test helper.
func (s *MemoryStore) AuthorCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.authors)
}

// BookCount reports the number of stored books. Test helper.
func (s *MemoryStore) BookCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.books)
}

func copyAuthor(a *model.Author) *model.Author {
	out := *a
	out.Biography = copyString(a.Biography)
	return &out
}

func copyBook(b *model.Book) *model.Book {
	out := *b
	out.ISBN = copyString(b.ISBN)
	out.Edition = copyString(b.Edition)
	out.Volume = copyInt(b.Volume)
	out.Summary = copyString(b.Summary)
	out.ReleaseDate = copyString(b.ReleaseDate)
	out.CoverImagePath = copyString(b.CoverImagePath)
	out.AuthorNames = append([]string(nil), b.AuthorNames...)
	out.GenreNames = append([]string(nil), b.GenreNames...)
	return &out
}

func copyString(s *string) *string {
	if s == nil {
		return nil
	}
	v := *s
	return &v
}

func copyInt(i *int) *int {
	if i == nil {
		return nil
	}
	v := *i
	return &v
}
