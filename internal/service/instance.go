package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/taskboxapp/taskbox-server/internal/config"
	"github.com/taskboxapp/taskbox-server/internal/domain"
	domainerrors "github.com/taskboxapp/taskbox-server/internal/errors"
	"github.com/taskboxapp/taskbox-server/internal/store"
)

// InstanceService handles business logic for server instance configuration.
type InstanceService struct {
	store  *store.Store
	logger *slog.Logger
	config *config.Config
}

// NewInstanceService creates a new instance service.
func NewInstanceService(store *store.Store, logger *slog.Logger, config *config.Config) *InstanceService {
	return &InstanceService{
		store:  store,
		logger: logger,
		config: config,
	}
}

// GetInstance retrieves the server instance configuration.
func (s *InstanceService) GetInstance(ctx context.Context) (*domain.Instance, error) {
	instance, err := s.store.GetInstance(ctx)
	if err != nil {
		if errors.Is(err, store.ErrServerNotFound) {
			return nil, domainerrors.NotFound("instance configuration not found").WithCause(err)
		}
		return nil, fmt.Errorf("failed to get instance: %w", err)
	}

	return instance, nil
}

// InitializeInstance ensures a server instance configuration exists.
// This is the main entry point for instance setup on first run.
func (s *InstanceService) InitializeInstance(ctx context.Context) (*domain.Instance, error) {
	instance, err := s.store.InitializeInstance(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize instance: %w", err)
	}

	// Update instance with config values if they're set.
	if s.config.Server.Name != "" {
		instance.Name = s.config.Server.Name
	}

	if err := s.store.UpdateInstance(ctx, instance); err != nil {
		return nil, fmt.Errorf("failed to update instance with config: %w", err)
	}

	return instance, nil
}

// IsInstanceSetup checks if the server instance has been fully configured.
func (s *InstanceService) IsInstanceSetup(ctx context.Context) (bool, error) {
	instance, err := s.GetInstance(ctx)
	if err != nil {
		if errors.Is(err, store.ErrServerNotFound) {
			return false, nil
		}
		return false, err
	}

	return !instance.IsSetupRequired(), nil
}

// IsSetupRequired checks if the server requires initial setup.
// Setup is required when no root user has been configured.
func (s *InstanceService) IsSetupRequired(ctx context.Context) (bool, error) {
	instance, err := s.GetInstance(ctx)
	if err != nil {
		return false, err
	}

	return instance.IsSetupRequired(), nil
}

// SetRootUser marks the instance as configured with a root user.
// This should only be called once during initial setup.
func (s *InstanceService) SetRootUser(ctx context.Context) error {
	instance, err := s.GetInstance(ctx)
	if err != nil {
		return fmt.Errorf("failed to get instance: %w", err)
	}

	if !instance.IsSetupRequired() {
		return domainerrors.AlreadyConfigured("root user already configured")
	}

	instance.SetRootUser()

	if err := s.store.UpdateInstance(ctx, instance); err != nil {
		return fmt.Errorf("failed to update instance: %w", err)
	}

	if s.logger != nil {
		s.logger.Info("Root user configured",
			"instance_id", instance.ID,
		)
	}

	return nil
}
