package domain

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// Provider is the party whose time is being scheduled.
type Provider struct {
	bun.BaseModel `bun:"table:providers"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Specialty string    `bun:"specialty,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Phone     string    `bun:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (p *Provider) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampDirectoryModel(query, &p.ID, &p.CreatedAt, &p.UpdatedAt)
}

// Requester is the party booking time with a provider.
type Requester struct {
	bun.BaseModel `bun:"table:requesters"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	Email     string    `bun:"email,notnull,unique"`
	Phone     string    `bun:"phone"`
	CreatedAt time.Time `bun:"created_at,notnull"`
	UpdatedAt time.Time `bun:"updated_at,notnull"`
}

func (r *Requester) BeforeAppendModel(ctx context.Context, query bun.Query) error {
	return stampDirectoryModel(query, &r.ID, &r.CreatedAt, &r.UpdatedAt)
}

func stampDirectoryModel(query bun.Query, id *uuid.UUID, createdAt, updatedAt *time.Time) error {
	now := time.Now().UTC()
	switch query.(type) {
	case *bun.InsertQuery:
		if *id == uuid.Nil {
			v, err := uuid.NewV7()
			if err != nil {
				return err
			}
			*id = v
		}
		if createdAt.IsZero() {
			*createdAt = now
		}
		if updatedAt.IsZero() {
			*updatedAt = now
		}
	case *bun.UpdateQuery:
		*updatedAt = now
	}
	return nil
}
