package store

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"talentmatch/internal/matching"
)

// Gorm persists batches in PostgreSQL. Candidates live in their own table but
// are only ever read and written through their parent batch.
type Gorm struct {
	db     *gorm.DB
	logger *zap.Logger
}

// Open connects to PostgreSQL and migrates the schema.
func Open(dsn string, logger *zap.Logger) (*Gorm, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}

	if err := db.AutoMigrate(&matching.JobBatch{}, &matching.Candidate{}); err != nil {
		return nil, fmt.Errorf("migrate schema: %w", err)
	}

	logger.Info("database connection established")

	return &Gorm{db: db, logger: logger}, nil
}

// CreateBatch persists a new batch together with its candidates in one
// transaction. Candidate positions are assigned from the ranked order.
func (s *Gorm) CreateBatch(ctx context.Context, batch *matching.JobBatch) error {
	for i := range batch.RankedCandidates {
		batch.RankedCandidates[i].BatchID = batch.ID
		batch.RankedCandidates[i].Position = i
	}

	if err := s.db.WithContext(ctx).Create(batch).Error; err != nil {
		return fmt.Errorf("create batch: %w", err)
	}

	return nil
}

func (s *Gorm) GetBatch(ctx context.Context, id string) (*matching.JobBatch, error) {
	var batch matching.JobBatch
	err := s.db.WithContext(ctx).
		Preload("RankedCandidates", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&batch, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, matching.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get batch: %w", err)
	}

	return &batch, nil
}

func (s *Gorm) ListBatches(ctx context.Context, owner string) ([]*matching.JobBatch, error) {
	var batches []*matching.JobBatch
	err := s.db.WithContext(ctx).
		Preload("RankedCandidates", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("owner = ?", owner).
		Order("created_at DESC").
		Find(&batches).Error
	if err != nil {
		return nil, fmt.Errorf("list batches: %w", err)
	}

	return batches, nil
}

// SaveBatch writes back mutable candidate fields. The transaction takes a row
// lock on the batch so concurrent writes to the same batch are serialized.
func (s *Gorm) SaveBatch(ctx context.Context, batch *matching.JobBatch) error {
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var locked matching.JobBatch
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).First(&locked, "id = ?", batch.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return matching.ErrNotFound
			}
			return err
		}

		for i := range batch.RankedCandidates {
			c := &batch.RankedCandidates[i]
			err := tx.Model(&matching.Candidate{}).
				Where("id = ? AND batch_id = ?", c.ID, batch.ID).
				Updates(map[string]any{"status": c.Status, "notes": c.Notes}).Error
			if err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		if errors.Is(err, matching.ErrNotFound) {
			return err
		}
		return fmt.Errorf("save batch: %w", err)
	}

	return nil
}
