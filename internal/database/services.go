package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"radiantbloom/internal/models"
)

func (db *DB) CreateService(ctx context.Context, service *models.Service) error {
	query := `INSERT INTO services (slug, name, description, duration_minutes, price_cents, active, created_at, updated_at)
              VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	now := time.Now().UTC()
	result, err := db.ExecContext(ctx, query,
		service.Slug,
		service.Name,
		service.Description,
		service.DurationMinutes,
		service.PriceCents,
		service.Active,
		now,
		now,
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get last insert id: %w", err)
	}
	service.ID = id
	service.CreatedAt = now
	service.UpdatedAt = now
	return nil
}

func (db *DB) GetServiceBySlug(ctx context.Context, slug string) (*models.Service, error) {
	query := `SELECT id, slug, name, description, duration_minutes, price_cents, active, created_at, updated_at
              FROM services WHERE slug = ?`
	var s models.Service
	err := db.QueryRowContext(ctx, query, slug).Scan(
		&s.ID, &s.Slug, &s.Name, &s.Description, &s.DurationMinutes,
		&s.PriceCents, &s.Active, &s.CreatedAt, &s.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get service by slug: %w", err)
	}
	return &s, nil
}

func (db *DB) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	query := `SELECT id, slug, name, description, duration_minutes, price_cents, active, created_at, updated_at
              FROM services WHERE active = 1 ORDER BY name`
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to list services: %w", err)
	}
	defer rows.Close()

	var services []*models.Service
	for rows.Next() {
		var s models.Service
		if err := rows.Scan(
			&s.ID, &s.Slug, &s.Name, &s.Description, &s.DurationMinutes,
			&s.PriceCents, &s.Active, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan service: %w", err)
		}
		services = append(services, &s)
	}
	return services, rows.Err()
}
