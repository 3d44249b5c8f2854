package service

import (
	"context"
	"io"
	"testing"

	"radiantbloom/internal/database"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupCatalog(t *testing.T) (*CatalogService, *database.DB) {
	t.Helper()
	logger := zerolog.New(io.Discard)
	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	for _, name := range []string{"Amelie", "Bree"} {
		require.NoError(t, db.CreateStaff(context.Background(), &models.Staff{DisplayName: name, Active: true}))
	}
	return NewCatalogService(db, nil, &logger), db
}

func TestSeedServicesIdempotent(t *testing.T) {
	catalog, _ := setupCatalog(t)
	ctx := context.Background()

	seed := []models.Service{
		{Slug: "glow-facial", Name: "Glow Facial", DurationMinutes: 60},
		{Slug: "hot-stone", Name: "Hot Stone Massage", DurationMinutes: 90},
	}
	require.NoError(t, catalog.SeedServices(ctx, seed))
	// Повторный посев не дублирует каталог.
	require.NoError(t, catalog.SeedServices(ctx, seed))

	services, err := catalog.ListActiveServices(ctx)
	require.NoError(t, err)
	assert.Len(t, services, 2)
}

func TestCreateServiceLinksActiveStaff(t *testing.T) {
	catalog, db := setupCatalog(t)
	ctx := context.Background()

	svc := &models.Service{Slug: "manicure", Name: "Manicure", DurationMinutes: 45}
	require.NoError(t, catalog.CreateService(ctx, svc))
	assert.True(t, svc.Active)
	require.NotZero(t, svc.ID)

	staff, err := db.ListStaffForService(ctx, svc.ID)
	require.NoError(t, err)
	assert.Len(t, staff, 2)

	cached, err := catalog.GetServiceBySlug(ctx, "manicure")
	require.NoError(t, err)
	assert.Equal(t, svc.ID, cached.ID)
}

func TestCreateServiceValidation(t *testing.T) {
	catalog, _ := setupCatalog(t)
	ctx := context.Background()

	err := catalog.CreateService(ctx, &models.Service{Name: "No Slug", DurationMinutes: 30})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	err = catalog.CreateService(ctx, &models.Service{Slug: "zero", Name: "Zero", DurationMinutes: 0})
	assert.ErrorIs(t, err, ErrInvalidRequest)
}

func TestSubscribeNewsletterNormalizes(t *testing.T) {
	catalog, db := setupCatalog(t)
	ctx := context.Background()

	require.NoError(t, catalog.SubscribeNewsletter(ctx, "  Fan@Example.COM "))

	var email string
	require.NoError(t, db.QueryRowContext(ctx,
		`SELECT email FROM newsletter_subscribers`).Scan(&email))
	assert.Equal(t, "fan@example.com", email)

	assert.ErrorIs(t, catalog.SubscribeNewsletter(ctx, "not-an-email"), ErrInvalidRequest)
}
