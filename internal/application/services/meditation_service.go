package services

import (
	"context"
	"fmt"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// MeditationService handles music meditation records
type MeditationService struct {
	meditations ports.Collection[entities.Meditation]
	deps        Dependencies
}

// NewMeditationService creates a new meditation service
func NewMeditationService(meditations ports.Collection[entities.Meditation], deps Dependencies) *MeditationService {
	return &MeditationService{
		meditations: meditations,
		deps:        deps.withDefaults(),
	}
}

// List returns every meditation in stored order
func (s *MeditationService) List(ctx context.Context) ([]entities.Meditation, error) {
	meditations, err := s.meditations.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list meditations: %w", err)
	}
	return meditations, nil
}

// Create adds a meditation at the front of the collection
func (s *MeditationService) Create(ctx context.Context, req ports.CreateMeditationRequest) (*entities.Meditation, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var created entities.Meditation
	err := s.meditations.Update(ctx, func(meditations []entities.Meditation) ([]entities.Meditation, error) {
		now := entities.NewTimestamp(s.deps.Now())
		created = entities.Meditation{
			ID:        s.deps.IDs.NextID(existingIDs(meditations)),
			CreatedAt: now,
			UpdatedAt: now,
		}
		applyMeditation(&created, req)
		return prepend(meditations, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create meditation: %w", err)
	}

	s.deps.Logger.Debugw("Meditation details",
		"meditation_id", created.ID,
		"title", created.Title,
		"duration_minutes", created.DurationMinutes,
	)
	s.deps.recordChange(entities.CollectionMeditations, ports.ChangeCreated, created.ID)

	return &created, nil
}

// Update replaces the meditation with the same id
func (s *MeditationService) Update(ctx context.Context, req ports.UpdateMeditationRequest) (*entities.Meditation, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	var updated entities.Meditation
	err := s.meditations.Update(ctx, func(meditations []entities.Meditation) ([]entities.Meditation, error) {
		i := indexByID(meditations, req.ID)
		if i < 0 {
			return nil, entities.ErrMeditationNotFound
		}

		updated = entities.Meditation{
			ID:        meditations[i].ID,
			CreatedAt: meditations[i].CreatedAt,
			UpdatedAt: entities.NewTimestamp(s.deps.Now()),
		}
		applyMeditation(&updated, req.CreateMeditationRequest)
		meditations[i] = updated
		return meditations, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update meditation %s: %w", req.ID, err)
	}

	s.deps.recordChange(entities.CollectionMeditations, ports.ChangeUpdated, updated.ID)

	return &updated, nil
}

// Delete removes exactly one meditation
func (s *MeditationService) Delete(ctx context.Context, id string) (*ports.MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	err := s.meditations.Update(ctx, func(meditations []entities.Meditation) ([]entities.Meditation, error) {
		i := indexByID(meditations, id)
		if i < 0 {
			return nil, entities.ErrMeditationNotFound
		}
		return removeAt(meditations, i), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete meditation %s: %w", id, err)
	}

	s.deps.recordChange(entities.CollectionMeditations, ports.ChangeDeleted, id)

	return &ports.MessageResponse{Message: "Meditation deleted successfully"}, nil
}

func applyMeditation(m *entities.Meditation, req ports.CreateMeditationRequest) {
	m.Title = req.Title
	m.Duration = req.Duration
	m.DurationMinutes = entities.DurationMinutes(req.Duration)
	m.Category = req.Category
	m.Artist = req.Artist
	m.Description = req.Description
	m.Thumbnail = orDefault(req.Thumbnail, entities.DefaultImage)
	m.AudioURL = req.AudioURL
}
