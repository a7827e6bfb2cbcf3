package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// OwnerService handles device owner records
type OwnerService struct {
	owners ports.Collection[entities.Owner]
	deps   Dependencies
}

// NewOwnerService creates a new owner service
func NewOwnerService(owners ports.Collection[entities.Owner], deps Dependencies) *OwnerService {
	return &OwnerService{
		owners: owners,
		deps:   deps.withDefaults(),
	}
}

// List returns every owner in stored order
func (s *OwnerService) List(ctx context.Context) ([]entities.Owner, error) {
	owners, err := s.owners.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	return owners, nil
}

// Create adds an active owner at the front of the collection
func (s *OwnerService) Create(ctx context.Context, req ports.CreateOwnerRequest) (*entities.Owner, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}
	locations, err := buildLocations(req.Locations)
	if err != nil {
		return nil, err
	}

	var created entities.Owner
	err = s.owners.Update(ctx, func(owners []entities.Owner) ([]entities.Owner, error) {
		created = entities.Owner{
			ID:        s.deps.IDs.NextID(existingIDs(owners)),
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Status:    entities.OwnerStatusActive,
			CreatedAt: entities.NewTimestamp(s.deps.Now()),
			Locations: locations,
		}
		return prepend(owners, created), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}

	s.deps.Logger.Debugw("Owner details",
		"owner_id", created.ID,
		"locations", len(created.Locations),
		"devices", created.DeviceCount(),
	)
	s.deps.recordChange(entities.CollectionOwners, ports.ChangeCreated, created.ID)

	return &created, nil
}

// Update replaces the owner with the same id, keeping its creation time
func (s *OwnerService) Update(ctx context.Context, req ports.UpdateOwnerRequest) (*entities.Owner, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}
	locations, err := buildLocations(req.Locations)
	if err != nil {
		return nil, err
	}

	var updated entities.Owner
	err = s.owners.Update(ctx, func(owners []entities.Owner) ([]entities.Owner, error) {
		i := indexByID(owners, req.ID)
		if i < 0 {
			return nil, entities.ErrOwnerNotFound
		}

		updated = entities.Owner{
			ID:        owners[i].ID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Status:    req.Status,
			CreatedAt: owners[i].CreatedAt,
			Locations: locations,
		}
		owners[i] = updated
		return owners, nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update owner %s: %w", req.ID, err)
	}

	s.deps.recordChange(entities.CollectionOwners, ports.ChangeUpdated, updated.ID)

	return &updated, nil
}

// Delete removes exactly one owner
func (s *OwnerService) Delete(ctx context.Context, id string) (*ports.MessageResponse, error) {
	if err := requireID(id); err != nil {
		return nil, err
	}

	err := s.owners.Update(ctx, func(owners []entities.Owner) ([]entities.Owner, error) {
		i := indexByID(owners, id)
		if i < 0 {
			return nil, entities.ErrOwnerNotFound
		}
		return removeAt(owners, i), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to delete owner %s: %w", id, err)
	}

	s.deps.recordChange(entities.CollectionOwners, ports.ChangeDeleted, id)

	return &ports.MessageResponse{Message: "Owner deleted successfully"}, nil
}

// buildLocations assigns ids to new locations and rejects duplicate location ids
// within one owner and duplicate device ids within one location.
func buildLocations(inputs []ports.LocationInput) ([]entities.Location, error) {
	locations := make([]entities.Location, 0, len(inputs))
	seen := make(map[string]int, len(inputs))
	var fields []entities.FieldError

	for i, in := range inputs {
		id := in.ID
		if id == "" {
			id = uuid.NewString()
		}
		if first, dup := seen[id]; dup {
			fields = append(fields, entities.FieldError{
				Field:   fmt.Sprintf("locations[%d].id", i),
				Message: fmt.Sprintf("duplicates locations[%d].id", first),
			})
			continue
		}
		seen[id] = i

		devices := make([]string, 0, len(in.DeviceIDs))
		seenDevices := make(map[string]int, len(in.DeviceIDs))
		for j, device := range in.DeviceIDs {
			if first, dup := seenDevices[device]; dup {
				fields = append(fields, entities.FieldError{
					Field:   fmt.Sprintf("locations[%d].deviceIds[%d]", i, j),
					Message: fmt.Sprintf("duplicates locations[%d].deviceIds[%d]", i, first),
				})
				continue
			}
			seenDevices[device] = j
			devices = append(devices, device)
		}
		locations = append(locations, entities.Location{
			ID:        id,
			Name:      in.Name,
			DeviceIDs: devices,
		})
	}

	if len(fields) > 0 {
		return nil, &entities.ValidationError{Message: "validation failed", Fields: fields}
	}
	return locations, nil
}
