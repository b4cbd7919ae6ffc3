package swap

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ProgressService keeps the append-only log of self-reported completion
// percentages. Only the owner and the approved requester may post, and only
// while the exchange is in progress.
type ProgressService struct {
	progress     ProgressStore
	requests     RequestStore
	interactions InteractionStore
}

func NewProgressService(progress ProgressStore, requests RequestStore, interactions InteractionStore) *ProgressService {
	return &ProgressService{progress: progress, requests: requests, interactions: interactions}
}

func (s *ProgressService) Post(ctx context.Context, requestID, authorID, title, message string, percentage int) (*ProgressUpdate, error) {
	if percentage < 0 || percentage > 100 {
		return nil, fmt.Errorf("%w: percentage must be between 0 and 100", ErrValidation)
	}
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: title is required", ErrValidation)
	}

	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: request is %s, not in progress", ErrInvalidState, req.Status)
	}

	if authorID != req.OwnerID {
		approved, err := s.interactions.GetApproved(ctx, requestID)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				return nil, fmt.Errorf("%w: only participants may post progress", ErrForbidden)
			}
			return nil, fmt.Errorf("reading approved interaction: %w", err)
		}
		if approved.RequesterID != authorID {
			return nil, fmt.Errorf("%w: only participants may post progress", ErrForbidden)
		}
	}

	up := &ProgressUpdate{
		ID:            uuid.New().String(),
		SwapRequestID: requestID,
		AuthorID:      authorID,
		Title:         strings.TrimSpace(title),
		Message:       strings.TrimSpace(message),
		Percentage:    percentage,
		CreatedAt:     time.Now(),
	}
	if err := s.progress.Append(ctx, up); err != nil {
		return nil, err
	}
	return up, nil
}

// Latest returns the participant's most recent reported percentage, 0 when
// they have posted nothing yet.
func (s *ProgressService) Latest(ctx context.Context, requestID, participantID string) (int, error) {
	return s.progress.LatestPercentage(ctx, requestID, participantID)
}

func (s *ProgressService) List(ctx context.Context, requestID string) ([]ProgressUpdate, error) {
	return s.progress.ListByRequest(ctx, requestID)
}
