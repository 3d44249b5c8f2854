package service

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"radiantbloom/internal/domain"
	"radiantbloom/internal/events"
	"radiantbloom/internal/models"

	"github.com/rs/zerolog"
)

// CatalogService manages the published service list. Reads go through
// an in-memory snapshot refreshed on every write.
type CatalogService struct {
	store    domain.Store
	eventBus domain.EventPublisher
	logger   *zerolog.Logger

	services []*models.Service
	bySlug   map[string]*models.Service
	mu       sync.RWMutex
}

func NewCatalogService(store domain.Store, eventBus domain.EventPublisher, logger *zerolog.Logger) *CatalogService {
	return &CatalogService{
		store:    store,
		eventBus: eventBus,
		logger:   logger,
		bySlug:   make(map[string]*models.Service),
	}
}

// SeedServices inserts any configured service missing from the catalog.
// Already present slugs are left untouched.
func (s *CatalogService) SeedServices(ctx context.Context, seed []models.Service) error {
	for i := range seed {
		svc := seed[i]
		if _, err := s.store.GetServiceBySlug(ctx, svc.Slug); err == nil {
			continue
		}
		if err := s.createService(ctx, &svc); err != nil {
			return fmt.Errorf("seed service %q: %w", svc.Slug, err)
		}
		s.logger.Info().Str("slug", svc.Slug).Msg("seeded service")
	}
	return s.Refresh(ctx)
}

func (s *CatalogService) ListActiveServices(ctx context.Context) ([]*models.Service, error) {
	s.mu.RLock()
	cached := s.services
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}
	if err := s.Refresh(ctx); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.services, nil
}

func (s *CatalogService) GetServiceBySlug(ctx context.Context, slug string) (*models.Service, error) {
	s.mu.RLock()
	svc, ok := s.bySlug[slug]
	s.mu.RUnlock()
	if ok {
		return svc, nil
	}
	return s.store.GetServiceBySlug(ctx, slug)
}

// CreateService publishes a new service. Every active staff member is
// linked to it immediately so it shows availability from the first
// matrix build.
func (s *CatalogService) CreateService(ctx context.Context, svc *models.Service) error {
	if err := validateService(svc); err != nil {
		return err
	}
	if err := s.createService(ctx, svc); err != nil {
		return err
	}
	return s.Refresh(ctx)
}

func (s *CatalogService) createService(ctx context.Context, svc *models.Service) error {
	svc.Active = true
	if err := s.store.CreateService(ctx, svc); err != nil {
		return err
	}

	staff, err := s.store.ListActiveStaff(ctx)
	if err != nil {
		return fmt.Errorf("load active staff: %w", err)
	}
	if len(staff) == 0 {
		return nil
	}
	ids := make([]int64, 0, len(staff))
	for _, member := range staff {
		ids = append(ids, member.ID)
	}
	return s.store.LinkStaffToService(ctx, svc.ID, ids)
}

// SubscribeNewsletter records a marketing opt-in. Duplicate e-mails
// are accepted silently.
func (s *CatalogService) SubscribeNewsletter(ctx context.Context, email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return fmt.Errorf("%w: email is required", ErrInvalidRequest)
	}
	if err := s.store.SubscribeNewsletter(ctx, email); err != nil {
		return err
	}
	if s.eventBus != nil {
		_ = s.eventBus.PublishJSON(events.EventNewsletterSubscribed, map[string]string{"email": email})
	}
	return nil
}

// Refresh reloads the in-memory snapshot from storage.
func (s *CatalogService) Refresh(ctx context.Context) error {
	services, err := s.store.ListActiveServices(ctx)
	if err != nil {
		return err
	}

	bySlug := make(map[string]*models.Service, len(services))
	for _, svc := range services {
		bySlug[svc.Slug] = svc
	}

	s.mu.Lock()
	s.services = services
	s.bySlug = bySlug
	s.mu.Unlock()
	return nil
}

func validateService(svc *models.Service) error {
	if strings.TrimSpace(svc.Slug) == "" {
		return fmt.Errorf("%w: slug is required", ErrInvalidRequest)
	}
	if strings.TrimSpace(svc.Name) == "" {
		return fmt.Errorf("%w: name is required", ErrInvalidRequest)
	}
	if svc.DurationMinutes <= 0 {
		return fmt.Errorf("%w: duration_minutes must be positive", ErrInvalidRequest)
	}
	if svc.PriceCents < 0 {
		return fmt.Errorf("%w: price_cents must not be negative", ErrInvalidRequest)
	}
	return nil
}
