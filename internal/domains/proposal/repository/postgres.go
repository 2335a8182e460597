package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	cataloguemodel "bookshelf-backend/internal/domains/catalogue/model"
	cataloguestore "bookshelf-backend/internal/domains/catalogue/store"
	"bookshelf-backend/internal/domains/proposal/model"
	"bookshelf-backend/pkg/database"
)

// postgresRepository implements Repository over pgxpool.
// Approval runs as one transaction spanning the proposals table and the
// catalogue tables, using the catalogue store's Querier-level statements.
type postgresRepository struct {
	pool      *pgxpool.Pool
	catalogue cataloguestore.Store
}

func NewPostgresRepository(pool *pgxpool.Pool, catalogue cataloguestore.Store) Repository {
	return &postgresRepository{
		pool:      pool,
		catalogue: catalogue,
	}
}

const proposalColumns = `
    id, kind, status,
    submitted_by, submitter_email, submitted_at,
    decided_by, decided_at, rejection_reason,
    title, isbn, edition, volume, summary, release_date,
    author_names, genre_names, cover_image_path,
    first_name, last_name, biography,
    created_at, updated_at`

func scanProposal(row pgx.Row) (*model.Proposal, error) {
	var p model.Proposal
	err := row.Scan(
		&p.ID, &p.Kind, &p.Status,
		&p.SubmittedBy, &p.SubmitterEmail, &p.SubmittedAt,
		&p.DecidedBy, &p.DecidedAt, &p.RejectionReason,
		&p.Title, &p.ISBN, &p.Edition, &p.Volume, &p.Summary, &p.ReleaseDate,
		&p.AuthorNames, &p.GenreNames, &p.CoverImagePath,
		&p.FirstName, &p.LastName, &p.Biography,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// Create inserts a new pending proposal row.
func (r *postgresRepository) Create(ctx context.Context, proposal *model.Proposal) (*model.Proposal, error) {
	query := `
        INSERT INTO proposals (
            kind, status,
            submitted_by, submitter_email, submitted_at,
            title, isbn, edition, volume, summary, release_date,
            author_names, genre_names, cover_image_path,
            first_name, last_name, biography
        )
        VALUES ($1, $2, $3, $4, NOW(), $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
        RETURNING` + proposalColumns

	created, err := scanProposal(r.pool.QueryRow(
		ctx,
		query,
		proposal.Kind,
		model.StatusPending,
		proposal.SubmittedBy,
		proposal.SubmitterEmail,
		proposal.Title,
		proposal.ISBN,
		proposal.Edition,
		proposal.Volume,
		proposal.Summary,
		proposal.ReleaseDate,
		proposal.AuthorNames,
		proposal.GenreNames,
		proposal.CoverImagePath,
		proposal.FirstName,
		proposal.LastName,
		proposal.Biography,
	))
	if err != nil {
		return nil, fmt.Errorf("failed to create proposal: %w", err)
	}

	return created, nil
}

func (r *postgresRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Proposal, error) {
	query := `SELECT` + proposalColumns + ` FROM proposals WHERE id = $1`

	p, err := scanProposal(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, model.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to get proposal by id: %w", err)
	}

	return p, nil
}

// List returns proposals ordered by submission time, newest first.
func (r *postgresRepository) List(ctx context.Context, filter model.ListFilter) ([]model.Proposal, int64, error) {
	var queryBuilder strings.Builder
	queryBuilder.WriteString(`SELECT` + proposalColumns + ` FROM proposals WHERE 1=1`)

	args := []interface{}{}
	argPos := 1

	var where strings.Builder
	if filter.Status != nil {
		where.WriteString(fmt.Sprintf(" AND status = $%d", argPos))
		args = append(args, *filter.Status)
		argPos++
	}
	if filter.SubmittedBy != nil {
		where.WriteString(fmt.Sprintf(" AND submitted_by = $%d", argPos))
		args = append(args, *filter.SubmittedBy)
		argPos++
	}

	queryBuilder.WriteString(where.String())
	queryBuilder.WriteString(" ORDER BY submitted_at DESC")
	queryBuilder.WriteString(fmt.Sprintf(" LIMIT $%d OFFSET $%d", argPos, argPos+1))
	countArgs := append([]interface{}{}, args...)
	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, queryBuilder.String(), args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query proposals: %w", err)
	}
	defer rows.Close()

	var proposals []model.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan proposal: %w", err)
		}
		proposals = append(proposals, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating proposals: %w", err)
	}

	countQuery := `SELECT COUNT(*) FROM proposals WHERE 1=1` + where.String()

	var total int64
	if err := r.pool.QueryRow(ctx, countQuery, countArgs...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count proposals: %w", err)
	}

	return proposals, total, nil
}

// UpdatePayload edits a still-pending book proposal's payload fields.
// The WHERE clause includes the pending guard so a decided proposal is
// never touched.
func (r *postgresRepository) UpdatePayload(ctx context.Context, id uuid.UUID, patch model.UpdateBookProposalRequest) (*model.Proposal, error) {
	var setClauses []string
	args := []interface{}{}
	argPos := 1

	addSet := func(column string, value interface{}) {
		setClauses = append(setClauses, fmt.Sprintf("%s = $%d", column, argPos))
		args = append(args, value)
		argPos++
	}

	if patch.Title != nil {
		addSet("title", *patch.Title)
	}
	if patch.ISBN != nil {
		addSet("isbn", nullIfEmpty(patch.ISBN))
	}
	if patch.Edition != nil {
		addSet("edition", nullIfEmpty(patch.Edition))
	}
	if patch.Volume != nil {
		addSet("volume", *patch.Volume)
	}
	if patch.Summary != nil {
		addSet("summary", nullIfEmpty(patch.Summary))
	}
	if patch.ReleaseDate != nil {
		addSet("release_date", nullIfEmpty(patch.ReleaseDate))
	}
	if patch.AuthorNames != nil {
		addSet("author_names", patch.AuthorNames)
	}
	if patch.GenreNames != nil {
		addSet("genre_names", patch.GenreNames)
	}

	if len(setClauses) == 0 {
		return nil, model.ErrInvalidInput
	}

	setClauses = append(setClauses, "updated_at = NOW()")

	query := fmt.Sprintf(
		`UPDATE proposals SET %s WHERE id = $%d AND status = $%d RETURNING`+proposalColumns,
		strings.Join(setClauses, ", "), argPos, argPos+1,
	)
	args = append(args, id, model.StatusPending)

	updated, err := scanProposal(r.pool.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Either the id is unknown or the proposal is already decided.
			exists, checkErr := r.existsByID(ctx, id)
			if checkErr != nil {
				return nil, checkErr
			}
			if !exists {
				return nil, model.ErrProposalNotFound
			}
			return nil, model.ErrProposalNotPending
		}
		return nil, fmt.Errorf("failed to update proposal: %w", err)
	}

	return updated, nil
}

// Approve runs the decision transaction.
//
// The proposal row is read under FOR UPDATE so a concurrent decision on
// the same id blocks until this transaction finishes, then observes the
// terminal status. The catalogue write and the status flip either both
// commit or both roll back.
func (r *postgresRepository) Approve(ctx context.Context, id, deciderID uuid.UUID) (*model.DecisionResult, error) {
	result, err := database.WithTransactionResult(ctx, r.pool, func(tx pgx.Tx) (*model.DecisionResult, error) {
		lockQuery := `SELECT` + proposalColumns + ` FROM proposals WHERE id = $1 FOR UPDATE`

		p, err := scanProposal(tx.QueryRow(ctx, lockQuery, id))
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, model.ErrProposalNotFound
			}
			return nil, fmt.Errorf("failed to lock proposal: %w", err)
		}

		if !p.IsPending() {
			return nil, model.ErrProposalNotPending
		}

		res := &model.DecisionResult{}

		switch p.Kind {
		case model.KindBook:
			book, err := cataloguestore.InsertBook(ctx, tx, bookFromProposal(p))
			if err != nil {
				return nil, err
			}
			res.Book = book

		case model.KindAuthor:
			author, err := resolveAuthor(ctx, tx, p)
			if err != nil {
				return nil, err
			}
			res.Author = author

		default:
			return nil, fmt.Errorf("unknown proposal kind: %q", p.Kind)
		}

		updateQuery := `
            UPDATE proposals
            SET status = $1, decided_by = $2, decided_at = NOW(), rejection_reason = NULL, updated_at = NOW()
            WHERE id = $3
            RETURNING` + proposalColumns

		updated, err := scanProposal(tx.QueryRow(ctx, updateQuery, model.StatusApproved, deciderID, id))
		if err != nil {
			return nil, fmt.Errorf("failed to mark proposal approved: %w", err)
		}
		res.Proposal = updated

		return res, nil
	})
	if err != nil {
		return nil, err
	}

	// The tx wrote the authors table behind the catalogue store's cache.
	if result.Author != nil {
		r.catalogue.InvalidateAuthor(ctx, result.Author)
	}

	return result, nil
}

// resolveAuthor performs the dedup search inside the approval transaction:
// an existing case-insensitive (first, last) match is reused, with the
// biography backfilled when the catalogue row has none and the proposal
// supplies one. Only when no match exists is a new row inserted.
func resolveAuthor(ctx context.Context, tx pgx.Tx, p *model.Proposal) (*cataloguemodel.Author, error) {
	existing, err := cataloguestore.FindAuthorByName(ctx, tx, *p.FirstName, *p.LastName)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		hasBio := existing.Biography != nil && *existing.Biography != ""
		if !hasBio && p.Biography != nil {
			return cataloguestore.UpdateAuthorBiography(ctx, tx, existing.ID, *p.Biography)
		}
		return existing, nil
	}

	return cataloguestore.InsertAuthor(ctx, tx, &cataloguemodel.Author{
		FirstName: *p.FirstName,
		LastName:  *p.LastName,
		Biography: p.Biography,
	})
}

func bookFromProposal(p *model.Proposal) *cataloguemodel.Book {
	return &cataloguemodel.Book{
		Title:          *p.Title,
		ISBN:           p.ISBN,
		Edition:        p.Edition,
		Volume:         p.Volume,
		Summary:        p.Summary,
		ReleaseDate:    p.ReleaseDate,
		AuthorNames:    p.AuthorNames,
		GenreNames:     p.GenreNames,
		CoverImagePath: p.CoverImagePath,
	}
}

// Reject transitions a pending proposal to rejected with a single
// conditional update. No row lock: rejection performs no secondary
// insert, so the atomic status guard alone closes the race window.
func (r *postgresRepository) Reject(ctx context.Context, id, deciderID uuid.UUID, reason *string) (*model.Proposal, error) {
	query := `
        UPDATE proposals
        SET status = $1, decided_by = $2, decided_at = NOW(), rejection_reason = $3, updated_at = NOW()
        WHERE id = $4 AND status = $5
        RETURNING` + proposalColumns

	rejected, err := scanProposal(r.pool.QueryRow(ctx, query, model.StatusRejected, deciderID, reason, id, model.StatusPending))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Unknown id and already-decided collapse into not-found on
			// purpose: a losing concurrent caller learns nothing.
			return nil, model.ErrProposalNotFound
		}
		return nil, fmt.Errorf("failed to reject proposal: %w", err)
	}

	return rejected, nil
}

// nullIfEmpty turns an explicit empty string into SQL NULL so a cleared
// optional field reads back as absent, same as it started.
func nullIfEmpty(s *string) interface{} {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func (r *postgresRepository) existsByID(ctx context.Context, id uuid.UUID) (bool, error) {
	var exists bool
	err := r.pool.QueryRow(ctx, `SELECT EXISTS(SELECT 1 FROM proposals WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check proposal existence: %w", err)
	}
	return exists, nil
}
