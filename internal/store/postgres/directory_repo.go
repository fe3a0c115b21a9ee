package postgres

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"carebook/internal/domain"
	"carebook/internal/store"
)

type DirectoryRepo struct {
	db *bun.DB
}

func NewDirectoryRepo(db *bun.DB) *DirectoryRepo {
	return &DirectoryRepo{db: db}
}

func (r *DirectoryRepo) CreateProvider(ctx context.Context, p domain.Provider) (domain.Provider, error) {
	if _, err := r.db.NewInsert().Model(&p).Exec(ctx); err != nil {
		return domain.Provider{}, mapUniqueError(err)
	}
	return p, nil
}

func (r *DirectoryRepo) GetProvider(ctx context.Context, id uuid.UUID) (domain.Provider, error) {
	var p domain.Provider
	err := r.db.NewSelect().
		Model(&p).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Provider{}, store.ErrNotFound
		}
		return domain.Provider{}, err
	}
	return p, nil
}

func (r *DirectoryRepo) FindProviderByEmail(ctx context.Context, email string) (domain.Provider, error) {
	var p domain.Provider
	err := r.db.NewSelect().
		Model(&p).
		Where("LOWER(email) = LOWER(?)", email).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Provider{}, store.ErrNotFound
		}
		return domain.Provider{}, err
	}
	return p, nil
}

func (r *DirectoryRepo) ListProviders(ctx context.Context) ([]domain.Provider, error) {
	var rows []domain.Provider
	err := r.db.NewSelect().
		Model(&rows).
		OrderExpr("name ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *DirectoryRepo) DeleteProvider(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.NewDelete().
		Model((*domain.Provider)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (r *DirectoryRepo) CreateRequester(ctx context.Context, req domain.Requester) (domain.Requester, error) {
	if _, err := r.db.NewInsert().Model(&req).Exec(ctx); err != nil {
		return domain.Requester{}, mapUniqueError(err)
	}
	return req, nil
}

func (r *DirectoryRepo) GetRequester(ctx context.Context, id uuid.UUID) (domain.Requester, error) {
	var req domain.Requester
	err := r.db.NewSelect().
		Model(&req).
		Where("id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Requester{}, store.ErrNotFound
		}
		return domain.Requester{}, err
	}
	return req, nil
}

func mapUniqueError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return store.ErrConflict
	}
	return err
}
