package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rental-sync-manager/backend/internal/storage/models"
)

// PropertyRepository provides data access for properties.
type PropertyRepository struct {
	BaseRepository
}

// NewPropertyRepository creates a new property repository.
func NewPropertyRepository(db *DB) *PropertyRepository {
	return &PropertyRepository{
		BaseRepository: NewBaseRepository(db),
	}
}

// Create inserts a new property.
func (r *PropertyRepository) Create(ctx context.Context, p *models.Property) error {
	p.ID = GenerateID()
	p.CreatedAt = r.Now()
	p.UpdatedAt = r.Now()

	_, err := r.DB().ExecContext(ctx, `
		INSERT INTO properties (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
	`, p.ID, p.Name, p.CreatedAt, p.UpdatedAt)

	if err != nil {
		return fmt.Errorf("inserting property: %w", err)
	}

	return nil
}

// GetByID retrieves a property by its ID. Returns nil if not found.
func (r *PropertyRepository) GetByID(ctx context.Context, id string) (*models.Property, error) {
	p := &models.Property{}

	err := r.DB().GetContext(ctx, p, "SELECT * FROM properties WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("querying property: %w", err)
	}

	return p, nil
}

// List retrieves all properties.
func (r *PropertyRepository) List(ctx context.Context) ([]models.Property, error) {
	var properties []models.Property
	err := r.DB().SelectContext(ctx, &properties, "SELECT * FROM properties ORDER BY name")
	if err != nil {
		return nil, fmt.Errorf("querying properties: %w", err)
	}
	return properties, nil
}
