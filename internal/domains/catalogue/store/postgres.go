package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"bookshelf-backend/internal/domains/catalogue/model"
	"bookshelf-backend/pkg/cache"
	"bookshelf-backend/pkg/database"
)

// postgresStore implements Store over pgxpool with a Redis cache-aside
// layer for reads. The package-level query functions below take a
// database.Querier so the proposal approval transaction can run the same
// statements against its own pgx.Tx.
type postgresStore struct {
	pool  *pgxpool.Pool
	cache cache.Cache
}

func NewPostgresStore(pool *pgxpool.Pool, cache cache.Cache) Store {
	return &postgresStore{
		pool:  pool,
		cache: cache,
	}
}

// Cache key constants
const (
	authorCacheKeyPrefix = "catalogue:author:"
	authorNameKeyPrefix  = "catalogue:author:name:"
	bookCacheKeyPrefix   = "catalogue:book:"
	cacheTTL             = 15 * time.Minute
)

func authorNameKey(firstName, lastName string) string {
	return authorNameKeyPrefix + strings.ToLower(firstName) + "|" + strings.ToLower(lastName)
}

// ==========================================================
// Querier-level statements (transaction participants)
// ==========================================================

// FindAuthorByName searches case-insensitively for an exact
// (first name, last name) pair. Returns (nil, nil) when absent.
func FindAuthorByName(ctx context.Context, q database.Querier, firstName, lastName string) (*model.Author, error) {
	query := `
        SELECT id, first_name, last_name, biography, created_at, updated_at
        FROM authors
        WHERE LOWER(first_name) = LOWER($1) AND LOWER(last_name) = LOWER($2)
        ORDER BY created_at ASC
        LIMIT 1
    `

	var a model.Author
	err := q.QueryRow(ctx, query, firstName, lastName).Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Biography,
		&a.CreatedAt,
		&a.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to find author by name: %w", err)
	}

	return &a, nil
}

// InsertAuthor inserts a new author row.
func InsertAuthor(ctx context.Context, q database.Querier, a *model.Author) (*model.Author, error) {
	query := `
        INSERT INTO authors (first_name, last_name, biography)
        VALUES ($1, $2, $3)
        RETURNING id, first_name, last_name, biography, created_at, updated_at
    `

	var created model.Author
	err := q.QueryRow(ctx, query, a.FirstName, a.LastName, a.Biography).Scan(
		&created.ID,
		&created.FirstName,
		&created.LastName,
		&created.Biography,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert author: %w", err)
	}

	return &created, nil
}

// UpdateAuthorBiography backfills the biography of an existing author.
func UpdateAuthorBiography(ctx context.Context, q database.Querier, id uuid.UUID, biography string) (*model.Author, error) {
	query := `
        UPDATE authors
        SET biography = $1, updated_at = NOW()
        WHERE id = $2
        RETURNING id, first_name, last_name, biography, created_at, updated_at
    `

	var updated model.Author
	err := q.QueryRow(ctx, query, biography, id).Scan(
		&updated.ID,
		&updated.FirstName,
		&updated.LastName,
		&updated.Biography,
		&updated.CreatedAt,
		&updated.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to update author biography: %w", err)
	}

	return &updated, nil
}

// InsertBook inserts a new book row.
func InsertBook(ctx context.Context, q database.Querier, b *model.Book) (*model.Book, error) {
	query := `
        INSERT INTO books (title, isbn, edition, volume, summary, release_date, author_names, genre_names, cover_image_path)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
        RETURNING id, title, isbn, edition, volume, summary, release_date, author_names, genre_names, cover_image_path, created_at, updated_at
    `

	var created model.Book
	err := q.QueryRow(
		ctx,
		query,
		b.Title,
		b.ISBN,
		b.Edition,
		b.Volume,
		b.Summary,
		b.ReleaseDate,
		b.AuthorNames,
		b.GenreNames,
		b.CoverImagePath,
	).Scan(
		&created.ID,
		&created.Title,
		&created.ISBN,
		&created.Edition,
		&created.Volume,
		&created.Summary,
		&created.ReleaseDate,
		&created.AuthorNames,
		&created.GenreNames,
		&created.CoverImagePath,
		&created.CreatedAt,
		&created.UpdatedAt,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to insert book: %w", err)
	}

	return &created, nil
}

// ==========================================================
// Store methods (pool-backed, cache-aside)
// ==========================================================

func (s *postgresStore) FindAuthorByName(ctx context.Context, firstName, lastName string) (*model.Author, error) {
	cacheKey := authorNameKey(firstName, lastName)

	var a model.Author
	cached, err := s.cache.Get(ctx, cacheKey, &a)
	if err == nil && cached {
		return &a, nil
	}

	found, err := FindAuthorByName(ctx, s.pool, firstName, lastName)
	if err != nil || found == nil {
		return found, err
	}

	if data, err := json.Marshal(found); err == nil {
		s.cache.Set(ctx, cacheKey, string(data), cacheTTL)
	}

	return found, nil
}

func (s *postgresStore) GetAuthorByID(ctx context.Context, id uuid.UUID) (*model.Author, error) {
	cacheKey := authorCacheKeyPrefix + id.String()

	var a model.Author
	cached, err := s.cache.Get(ctx, cacheKey, &a)
	if err == nil && cached {
		return &a, nil
	}

	query := `
        SELECT id, first_name, last_name, biography, created_at, updated_at
        FROM authors
        WHERE id = $1
    `

	err = s.pool.QueryRow(ctx, query, id).Scan(
		&a.ID,
		&a.FirstName,
		&a.LastName,
		&a.Biography,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrAuthorNotFound
		}
		return nil, fmt.Errorf("failed to get author by id: %w", err)
	}

	if data, err := json.Marshal(a); err == nil {
		s.cache.Set(ctx, cacheKey, string(data), cacheTTL)
	}

	return &a, nil
}

func (s *postgresStore) InsertAuthor(ctx context.Context, author *model.Author) (*model.Author, error) {
	created, err := InsertAuthor(ctx, s.pool, author)
	if err != nil {
		return nil, err
	}

	s.invalidateAuthorCache(ctx, created)
	return created, nil
}

func (s *postgresStore) UpdateAuthorBiography(ctx context.Context, id uuid.UUID, biography string) (*model.Author, error) {
	updated, err := UpdateAuthorBiography(ctx, s.pool, id, biography)
	if err != nil {
		return nil, err
	}

	s.invalidateAuthorCache(ctx, updated)
	return updated, nil
}

func (s *postgresStore) InsertBook(ctx context.Context, book *model.Book) (*model.Book, error) {
	return InsertBook(ctx, s.pool, book)
}

func (s *postgresStore) GetBookByID(ctx context.Context, id uuid.UUID) (*model.Book, error) {
	cacheKey := bookCacheKeyPrefix + id.String()

	var b model.Book
	cached, err := s.cache.Get(ctx, cacheKey, &b)
	if err == nil && cached {
		return &b, nil
	}

	query := `
        SELECT id, title, isbn, edition, volume, summary, release_date, author_names, genre_names, cover_image_path, created_at, updated_at
        FROM books
        WHERE id = $1
    `

	err = s.pool.QueryRow(ctx, query, id).Scan(
		&b.ID,
		&b.Title,
		&b.ISBN,
		&b.Edition,
		&b.Volume,
		&b.Summary,
		&b.ReleaseDate,
		&b.AuthorNames,
		&b.GenreNames,
		&b.CoverImagePath,
		&b.CreatedAt,
		&b.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrBookNotFound
		}
		return nil, fmt.Errorf("failed to get book by id: %w", err)
	}

	if data, err := json.Marshal(b); err == nil {
		s.cache.Set(ctx, cacheKey, string(data), cacheTTL)
	}

	return &b, nil
}

// InvalidateAuthor drops cached entries after an approval transaction
// touched the authors table outside this store's pool methods.
func (s *postgresStore) InvalidateAuthor(ctx context.Context, author *model.Author) {
	s.invalidateAuthorCache(ctx, author)
}

func (s *postgresStore) invalidateAuthorCache(ctx context.Context, author *model.Author) {
	s.cache.Delete(ctx,
		authorCacheKeyPrefix+author.ID.String(),
		authorNameKey(author.FirstName, author.LastName),
	)
}
