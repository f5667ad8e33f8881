package service

import (
	"context"
	"time"

	"labcaixa/internal/apierror"
	"labcaixa/internal/dto"
	"labcaixa/internal/model"
	"labcaixa/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

type ReviewService interface {
	// List returns envelopes awaiting review (reviewed ones are excluded).
	List(ctx context.Context, filter dto.ReviewFilter) (*dto.ReviewListResponse, error)
	Stats(ctx context.Context, unitID string) (*dto.ReviewStatsResponse, error)
	// Review performs the terminal transition. Idempotent: reviewing an
	// already-reviewed envelope is a no-op success, unlike label issuance.
	Review(ctx context.Context, envelopeID, actorID uuid.UUID) (*dto.EnvelopeResponse, error)
	ReviewBulk(ctx context.Context, envelopeIDs []uuid.UUID, actorID uuid.UUID) (*dto.BulkReviewResponse, error)
}

type reviewService struct {
	envelopes repository.EnvelopeRepository
}

func NewReviewService(envelopes repository.EnvelopeRepository) ReviewService {
	return &reviewService{envelopes: envelopes}
}

func (s *reviewService) List(ctx context.Context, filter dto.ReviewFilter) (*dto.ReviewListResponse, error) {
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 || filter.Limit > 100 {
		filter.Limit = 50
	}
	envelopes, total, err := s.envelopes.ListPendingReview(ctx, filter)
	if err != nil {
		return nil, err
	}
	items := make([]dto.EnvelopeResponse, 0, len(envelopes))
	for i := range envelopes {
		items = append(items, *envelopeToResponse(&envelopes[i]))
	}
	return &dto.ReviewListResponse{
		Data:  items,
		Total: total,
		Page:  filter.Page,
		Limit: filter.Limit,
	}, nil
}

func (s *reviewService) Stats(ctx context.Context, unitID string) (*dto.ReviewStatsResponse, error) {
	return s.envelopes.Stats(ctx, unitID)
}

func (s *reviewService) Review(ctx context.Context, envelopeID, actorID uuid.UUID) (*dto.EnvelopeResponse, error) {
	envelope, err := s.envelopes.FindByID(ctx, envelopeID)
	if err != nil {
		return nil, apierror.Validationf("envelope not found")
	}

	if envelope.Status == model.EnvelopeReviewed || envelope.Status == model.EnvelopeReviewedDiff {
		// Already terminal — repeat calls return the same state.
		return envelopeToResponse(envelope), nil
	}

	target := model.EnvelopeReviewed
	if envelope.HasDifference {
		target = model.EnvelopeReviewedDiff
	}
	now := time.Now().UTC()
	affected, err := s.envelopes.MarkReviewed(ctx, envelopeID, target, actorID, now)
	if err != nil {
		return nil, err
	}
	if affected == 0 {
		// Lost a race with another reviewer — still a success, same terminal state.
		refreshed, err := s.envelopes.FindByID(ctx, envelopeID)
		if err != nil {
			return nil, err
		}
		return envelopeToResponse(refreshed), nil
	}

	envelope.Status = target
	envelope.ReviewedAt = &now
	envelope.ReviewedBy = &actorID
	log.Info().Str("envelope", envelope.Code).Str("status", target).Msg("envelope reviewed")
	return envelopeToResponse(envelope), nil
}

func (s *reviewService) ReviewBulk(ctx context.Context, envelopeIDs []uuid.UUID, actorID uuid.UUID) (*dto.BulkReviewResponse, error) {
	resp := &dto.BulkReviewResponse{}
	for _, id := range envelopeIDs {
		envelope, err := s.envelopes.FindByID(ctx, id)
		if err != nil {
			resp.Errors = append(resp.Errors, "envelope "+id.String()+" not found")
			continue
		}
		if envelope.Status == model.EnvelopeReviewed || envelope.Status == model.EnvelopeReviewedDiff {
			resp.Skipped++
			continue
		}
		if _, err := s.Review(ctx, id, actorID); err != nil {
			resp.Errors = append(resp.Errors, "envelope "+envelope.Code+": "+err.Error())
			continue
		}
		resp.Reviewed++
	}
	return resp, nil
}
