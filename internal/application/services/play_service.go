package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/relaxflow/core/internal/domain/entities"
	"github.com/relaxflow/core/internal/ports"
)

// PlayService counts meditation plays per calendar date
type PlayService struct {
	plays ports.Collection[entities.DailyPlay]
	deps  Dependencies
}

// NewPlayService creates a new play service
func NewPlayService(plays ports.Collection[entities.DailyPlay], deps Dependencies) *PlayService {
	return &PlayService{
		plays: plays,
		deps:  deps.withDefaults(),
	}
}

// List returns every daily play record in stored order
func (s *PlayService) List(ctx context.Context) ([]entities.DailyPlay, error) {
	plays, err := s.plays.ReadAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list daily plays: %w", err)
	}
	return plays, nil
}

// RecordPlay increments the counter for the request date, appending a new
// record with one play when the date has none yet.
func (s *PlayService) RecordPlay(ctx context.Context, req ports.RecordPlayRequest) (*entities.DailyPlay, error) {
	if err := s.deps.Validator.Struct(req); err != nil {
		return nil, err
	}

	date, err := entities.NormalizeDate(req.Date)
	if err != nil {
		if errors.Is(err, entities.ErrInvalidDate) {
			return nil, &entities.ValidationError{
				Message: "validation failed",
				Fields:  []entities.FieldError{{Field: "date", Message: "must be a YYYY-MM-DD or RFC 3339 date"}},
			}
		}
		return nil, err
	}

	var record entities.DailyPlay
	err = s.plays.Update(ctx, func(plays []entities.DailyPlay) ([]entities.DailyPlay, error) {
		if i := indexByID(plays, date); i >= 0 {
			plays[i].Plays++
			record = plays[i]
			return plays, nil
		}
		record = entities.DailyPlay{Date: date, Plays: 1}
		return append(plays, record), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to record play for %s: %w", date, err)
	}

	s.deps.Logger.Debugw("Play recorded",
		"date", record.Date,
		"plays", record.Plays,
		"meditation_id", req.MeditationID,
	)
	s.deps.recordChange(entities.CollectionDailyPlay, ports.ChangePlayed, record.Date)

	return &record, nil
}
