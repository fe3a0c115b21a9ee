package postgres

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/uptrace/bun"

	"carebook/internal/domain"
	"carebook/internal/store"
)

type AppointmentRepo struct {
	db *bun.DB
}

func NewAppointmentRepo(db *bun.DB) *AppointmentRepo {
	return &AppointmentRepo{db: db}
}

type scheduleTx struct {
	tx bun.Tx
}

func (r *AppointmentRepo) InProviderTransaction(ctx context.Context, providerID uuid.UUID, fn func(ctx context.Context, tx store.ScheduleTx) error) error {
	return r.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if err := lockProviderSchedule(ctx, tx, providerID); err != nil {
			return err
		}
		return fn(ctx, scheduleTx{tx: tx})
	})
}

// lockProviderSchedule serializes all mutating work on one provider's
// schedule. Distinct providers hash to distinct advisory locks and proceed
// in parallel; the lock is released when the transaction ends.
func lockProviderSchedule(ctx context.Context, tx bun.Tx, providerID uuid.UUID) error {
	_, err := tx.NewRaw("SELECT pg_advisory_xact_lock(hashtext(?))", providerID.String()).Exec(ctx)
	return err
}

func (r *AppointmentRepo) FindByID(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := r.db.NewSelect().
		Model(&appt).
		Relation("Requester").
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (r *AppointmentRepo) ListByRequester(ctx context.Context, requesterID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Requester").
		Where("a.requester_id = ?", requesterID).
		OrderExpr("a.start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByProvider(ctx context.Context, providerID uuid.UUID) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Requester").
		Where("a.provider_id = ?", providerID).
		OrderExpr("a.start_time DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByProviderForDay(ctx context.Context, providerID uuid.UUID, dayStart, dayEnd time.Time, requesterName string) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	q := r.db.NewSelect().
		Model(&rows).
		Relation("Requester").
		Where("a.provider_id = ?", providerID).
		Where("a.start_time >= ?", dayStart).
		Where("a.start_time <= ?", dayEnd).
		OrderExpr("a.start_time ASC")

	if name := strings.TrimSpace(requesterName); name != "" {
		q = q.Where("LOWER(requester.name) LIKE ?", "%"+strings.ToLower(name)+"%")
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) ListByRequesterAndStatus(ctx context.Context, requesterID uuid.UUID, status domain.AppointmentStatus) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := r.db.NewSelect().
		Model(&rows).
		Relation("Requester").
		Where("a.requester_id = ?", requesterID).
		Where("a.status = ?", status).
		OrderExpr("a.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *AppointmentRepo) DeleteAllByProvider(ctx context.Context, providerID uuid.UUID) error {
	return r.InProviderTransaction(ctx, providerID, func(ctx context.Context, tx store.ScheduleTx) error {
		s, ok := tx.(scheduleTx)
		if !ok {
			return errors.New("unexpected transaction type")
		}
		_, err := s.tx.NewDelete().
			Model((*domain.Appointment)(nil)).
			Where("provider_id = ?", providerID).
			Exec(ctx)
		return err
	})
}

func (t scheduleTx) GetAppointment(ctx context.Context, id uuid.UUID) (domain.Appointment, error) {
	var appt domain.Appointment
	err := t.tx.NewSelect().
		Model(&appt).
		Where("a.id = ?", id).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Appointment{}, store.ErrNotFound
		}
		return domain.Appointment{}, err
	}
	return appt, nil
}

func (t scheduleTx) ListProviderInRange(ctx context.Context, providerID uuid.UUID, rangeStart, rangeEnd time.Time) ([]domain.Appointment, error) {
	var rows []domain.Appointment
	err := t.tx.NewSelect().
		Model(&rows).
		Where("a.provider_id = ?", providerID).
		Where("a.start_time >= ?", rangeStart).
		Where("a.start_time <= ?", rangeEnd).
		OrderExpr("a.start_time ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (t scheduleTx) CreateAppointment(ctx context.Context, appt domain.Appointment) (domain.Appointment, error) {
	m := domain.Appointment{
		ID:          appt.ID,
		ProviderID:  appt.ProviderID,
		RequesterID: appt.RequesterID,
		StartTime:   appt.StartTime,
		EndTime:     appt.EndTime,
		Status:      appt.Status,
		CreatedAt:   appt.CreatedAt,
		UpdatedAt:   appt.UpdatedAt,
	}

	_, err := t.tx.NewInsert().Model(&m).Exec(ctx)
	if err != nil {
		return domain.Appointment{}, mapOverlapError(err)
	}

	appt.ID = m.ID
	return appt, nil
}

func (t scheduleTx) UpdateAppointmentTime(ctx context.Context, id uuid.UUID, start, end time.Time) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("start_time = ?", start).
		Set("end_time = ?", end).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return mapOverlapError(err)
	}
	return requireAffected(res)
}

func (t scheduleTx) UpdateAppointmentStatus(ctx context.Context, id uuid.UUID, status domain.AppointmentStatus) error {
	res, err := t.tx.NewUpdate().
		Model((*domain.Appointment)(nil)).
		Set("status = ?", status).
		Set("updated_at = ?", time.Now().UTC()).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t scheduleTx) DeleteAppointment(ctx context.Context, id uuid.UUID) error {
	res, err := t.tx.NewDelete().
		Model((*domain.Appointment)(nil)).
		Where("id = ?", id).
		Exec(ctx)
	if err != nil {
		return err
	}
	return requireAffected(res)
}

func (t scheduleTx) ProviderExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return t.tx.NewSelect().
		Model((*domain.Provider)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

func (t scheduleTx) RequesterExists(ctx context.Context, id uuid.UUID) (bool, error) {
	return t.tx.NewSelect().
		Model((*domain.Requester)(nil)).
		Where("id = ?", id).
		Exists(ctx)
}

// mapOverlapError translates a violation of the appointments_no_overlap
// exclusion constraint into store.ErrConflict. The constraint is the
// database-level backstop behind the advisory lock.
func mapOverlapError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == "23P01" && pgErr.ConstraintName == "appointments_no_overlap" {
			return store.ErrConflict
		}
	}
	return err
}

func requireAffected(res sql.Result) error {
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return store.ErrNotFound
	}
	return nil
}
