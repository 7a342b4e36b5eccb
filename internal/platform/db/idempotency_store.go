package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fanvault/internal/shared/idempotency"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type idempotencyModel struct {
	Operation   string    `gorm:"column:operation;primaryKey"`
	Scope       string    `gorm:"column:scope;primaryKey"`
	Key         string    `gorm:"column:idempotency_key;primaryKey"`
	RequestHash string    `gorm:"column:request_hash"`
	Status      string    `gorm:"column:status"`
	StatusCode  int       `gorm:"column:status_code"`
	Payload     []byte    `gorm:"column:payload"`
	ExpiresAt   time.Time `gorm:"column:expires_at;index"`
}

func (idempotencyModel) TableName() string {
	return "idempotency_records"
}

// IdempotencyStore persists guard records in Postgres. The composite primary
// key makes Reserve atomic across API replicas.
type IdempotencyStore struct {
	db *gorm.DB
}

var _ idempotency.Store = (*IdempotencyStore)(nil)

func NewIdempotencyStore(db *gorm.DB) *IdempotencyStore {
	return &IdempotencyStore{db: db}
}

func (s *IdempotencyStore) Migrate(ctx context.Context) error {
	if err := s.db.WithContext(ctx).AutoMigrate(&idempotencyModel{}); err != nil {
		return fmt.Errorf("migrate idempotency table: %w", err)
	}
	return nil
}

func (s *IdempotencyStore) Reserve(ctx context.Context, record idempotency.Record, now time.Time) (bool, idempotency.Record, error) {
	var (
		reserved bool
		existing idempotency.Record
	)
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.
			Where("operation = ? AND scope = ? AND idempotency_key = ? AND expires_at < ?",
				record.ID.Operation, record.ID.Scope, record.ID.Key, now.UTC()).
			Delete(&idempotencyModel{}).Error; err != nil {
			return err
		}
		row := modelFromRecord(record)
		result := tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&row)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 1 {
			reserved = true
			return nil
		}
		var current idempotencyModel
		if err := tx.
			Where("operation = ? AND scope = ? AND idempotency_key = ?", record.ID.Operation, record.ID.Scope, record.ID.Key).
			First(&current).Error; err != nil {
			return err
		}
		existing = current.toRecord()
		return nil
	})
	if err != nil {
		return false, idempotency.Record{}, fmt.Errorf("reserve idempotency record: %w", err)
	}
	return reserved, existing, nil
}

func (s *IdempotencyStore) Get(ctx context.Context, id idempotency.RecordID, now time.Time) (idempotency.Record, bool, error) {
	var row idempotencyModel
	err := s.db.WithContext(ctx).
		Where("operation = ? AND scope = ? AND idempotency_key = ? AND expires_at >= ?", id.Operation, id.Scope, id.Key, now.UTC()).
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return idempotency.Record{}, false, nil
		}
		return idempotency.Record{}, false, err
	}
	return row.toRecord(), true, nil
}

func (s *IdempotencyStore) Complete(ctx context.Context, record idempotency.Record) error {
	row := modelFromRecord(record)
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "operation"}, {Name: "scope"}, {Name: "idempotency_key"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"request_hash", "status", "status_code", "payload", "expires_at",
			}),
		}).
		Create(&row).Error
}

func (s *IdempotencyStore) Release(ctx context.Context, id idempotency.RecordID) error {
	return s.db.WithContext(ctx).
		Where("operation = ? AND scope = ? AND idempotency_key = ? AND status = ?",
			id.Operation, id.Scope, id.Key, idempotency.StatusPending).
		Delete(&idempotencyModel{}).Error
}

func modelFromRecord(record idempotency.Record) idempotencyModel {
	return idempotencyModel{
		Operation:   record.ID.Operation,
		Scope:       record.ID.Scope,
		Key:         record.ID.Key,
		RequestHash: record.RequestHash,
		Status:      record.Status,
		StatusCode:  record.StatusCode,
		Payload:     append([]byte(nil), record.Payload...),
		ExpiresAt:   record.ExpiresAt.UTC(),
	}
}

func (m idempotencyModel) toRecord() idempotency.Record {
	return idempotency.Record{
		ID:          idempotency.RecordID{Operation: m.Operation, Scope: m.Scope, Key: m.Key},
		RequestHash: m.RequestHash,
		Status:      m.Status,
		StatusCode:  m.StatusCode,
		Payload:     append([]byte(nil), m.Payload...),
		ExpiresAt:   m.ExpiresAt.UTC(),
	}
}
