package swap

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestService owns the SwapRequest lifecycle:
// Open -> InProgress -> Completed, with Cancelled reachable from Open and
// InProgress. Permission checks live here; the store re-applies state guards
// atomically so concurrent callers cannot corrupt a record.
type RequestService struct {
	requests     RequestStore
	interactions InteractionStore
	progress     ProgressStore
	notifier     Notifier
}

func NewRequestService(requests RequestStore, interactions InteractionStore, progress ProgressStore, notifier Notifier) *RequestService {
	return &RequestService{requests: requests, interactions: interactions, progress: progress, notifier: notifier}
}

type CreateRequestInput struct {
	ServiceTitle       string     `json:"service_title"`
	ServiceCategories  []string   `json:"service_categories"`
	ServiceRequired    string     `json:"service_required"`
	ServiceDescription string     `json:"service_description"`
	YearsOfExperience  *int       `json:"years_of_experience"`
	PreferredLocation  string     `json:"preferred_location"`
	Deadline           *time.Time `json:"deadline"`
}

func (in *CreateRequestInput) validate() error {
	if strings.TrimSpace(in.ServiceTitle) == "" {
		return fmt.Errorf("%w: service_title is required", ErrValidation)
	}
	if strings.TrimSpace(in.ServiceRequired) == "" {
		return fmt.Errorf("%w: service_required is required", ErrValidation)
	}
	if in.YearsOfExperience != nil && *in.YearsOfExperience < 0 {
		return fmt.Errorf("%w: years_of_experience must not be negative", ErrValidation)
	}
	return nil
}

func (s *RequestService) Create(ctx context.Context, ownerID string, in CreateRequestInput) (*SwapRequest, error) {
	if err := in.validate(); err != nil {
		return nil, err
	}

	req := &SwapRequest{
		ID:                 uuid.New().String(),
		OwnerID:            ownerID,
		ServiceTitle:       strings.TrimSpace(in.ServiceTitle),
		ServiceCategories:  normalizeCategories(in.ServiceCategories),
		ServiceRequired:    strings.TrimSpace(in.ServiceRequired),
		ServiceDescription: strings.TrimSpace(in.ServiceDescription),
		YearsOfExperience:  in.YearsOfExperience,
		PreferredLocation:  strings.TrimSpace(in.PreferredLocation),
		Deadline:           in.Deadline,
		Status:             StatusOpen,
		CreatedAt:          time.Now(),
	}
	if err := s.requests.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("creating swap request: %w", err)
	}
	return req, nil
}

// EditRequestInput carries partial edits; nil fields are left untouched.
type EditRequestInput struct {
	ServiceTitle       *string    `json:"service_title"`
	ServiceCategories  []string   `json:"service_categories"`
	ServiceRequired    *string    `json:"service_required"`
	ServiceDescription *string    `json:"service_description"`
	YearsOfExperience  *int       `json:"years_of_experience"`
	PreferredLocation  *string    `json:"preferred_location"`
	Deadline           *time.Time `json:"deadline"`
}

func (s *RequestService) Edit(ctx context.Context, requestID, actorID string, in EditRequestInput) (*SwapRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the owner may edit a request", ErrForbidden)
	}
	if req.Status != StatusOpen {
		return nil, fmt.Errorf("%w: request is %s", ErrInvalidState, req.Status)
	}

	if in.ServiceTitle != nil {
		if strings.TrimSpace(*in.ServiceTitle) == "" {
			return nil, fmt.Errorf("%w: service_title must not be empty", ErrValidation)
		}
		req.ServiceTitle = strings.TrimSpace(*in.ServiceTitle)
	}
	if in.ServiceCategories != nil {
		req.ServiceCategories = normalizeCategories(in.ServiceCategories)
	}
	if in.ServiceRequired != nil {
		if strings.TrimSpace(*in.ServiceRequired) == "" {
			return nil, fmt.Errorf("%w: service_required must not be empty", ErrValidation)
		}
		req.ServiceRequired = strings.TrimSpace(*in.ServiceRequired)
	}
	if in.ServiceDescription != nil {
		req.ServiceDescription = strings.TrimSpace(*in.ServiceDescription)
	}
	if in.YearsOfExperience != nil {
		if *in.YearsOfExperience < 0 {
			return nil, fmt.Errorf("%w: years_of_experience must not be negative", ErrValidation)
		}
		req.YearsOfExperience = in.YearsOfExperience
	}
	if in.PreferredLocation != nil {
		req.PreferredLocation = strings.TrimSpace(*in.PreferredLocation)
	}
	if in.Deadline != nil {
		req.Deadline = in.Deadline
	}

	if err := s.requests.UpdateOpenFields(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// Cancel is the owner's escape hatch at Open or InProgress. Cancelling an
// InProgress request force-rejects the approved interaction and notifies its
// requester.
func (s *RequestService) Cancel(ctx context.Context, requestID, actorID string) (*SwapRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.OwnerID != actorID {
		return nil, fmt.Errorf("%w: only the owner may cancel a request", ErrForbidden)
	}

	forced, err := s.requests.Cancel(ctx, requestID)
	if err != nil {
		return nil, err
	}
	req.Status = StatusCancelled

	if forced != nil {
		s.notifier.Notify(UserParty(forced.RequesterID), "swap_cancelled",
			fmt.Sprintf("The exchange %q was cancelled by its owner.", req.ServiceTitle))
	}
	log.Printf("swap request %s cancelled by %s", requestID, actorID)
	return req, nil
}

// Delete hard-deletes an Open request with no interactions; anything else is
// a Conflict and callers should cancel instead.
func (s *RequestService) Delete(ctx context.Context, requestID, actorID string) error {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return err
	}
	if req.OwnerID != actorID {
		return fmt.Errorf("%w: only the owner may delete a request", ErrForbidden)
	}
	return s.requests.DeleteOpen(ctx, requestID)
}

// Complete finishes an exchange once both sides report 100%. Either
// participant may trigger it; the store re-reads both percentages under the
// row lock so a stale reading cannot complete the request.
func (s *RequestService) Complete(ctx context.Context, requestID, actorID string) (*SwapRequest, error) {
	req, err := s.requests.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != StatusInProgress {
		return nil, fmt.Errorf("%w: request is %s, not in progress", ErrPreconditionFailed, req.Status)
	}
	approved, err := s.interactions.GetApproved(ctx, requestID)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("%w: no approved partner on this request", ErrPreconditionFailed)
		}
		return nil, fmt.Errorf("reading approved interaction: %w", err)
	}
	if actorID != req.OwnerID && actorID != approved.RequesterID {
		return nil, fmt.Errorf("%w: only participants may complete a request", ErrForbidden)
	}

	ownerPct, err := s.progress.LatestPercentage(ctx, requestID, req.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("reading owner progress: %w", err)
	}
	partnerPct, err := s.progress.LatestPercentage(ctx, requestID, approved.RequesterID)
	if err != nil {
		return nil, fmt.Errorf("reading partner progress: %w", err)
	}
	if ownerPct < 100 || partnerPct < 100 {
		return nil, fmt.Errorf("%w: both sides must report 100%% (owner %d%%, partner %d%%)",
			ErrPreconditionFailed, ownerPct, partnerPct)
	}

	if err := s.requests.Complete(ctx, requestID); err != nil {
		return nil, err
	}
	req.Status = StatusCompleted

	msg := fmt.Sprintf("The exchange %q is complete.", req.ServiceTitle)
	s.notifier.Notify(UserParty(req.OwnerID), "swap_completed", msg)
	s.notifier.Notify(UserParty(approved.RequesterID), "swap_completed", msg)
	log.Printf("swap request %s completed", requestID)
	return req, nil
}

func (s *RequestService) Get(ctx context.Context, requestID string) (*SwapRequest, error) {
	return s.requests.GetByID(ctx, requestID)
}

func (s *RequestService) ListOpen(ctx context.Context, limit, offset int) ([]SwapRequest, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return s.requests.ListOpen(ctx, limit, offset)
}

func (s *RequestService) ListByOwner(ctx context.Context, ownerID string) ([]SwapRequest, error) {
	return s.requests.ListByOwner(ctx, ownerID)
}

func normalizeCategories(cats []string) []string {
	out := make([]string, 0, len(cats))
	seen := make(map[string]bool, len(cats))
	for _, c := range cats {
		c = strings.ToLower(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
