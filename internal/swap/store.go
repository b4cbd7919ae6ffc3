package swap

import "context"

// Stores own persistence for the three collections. Mutating methods that
// race against concurrent callers (place/approve/cancel/complete) must apply
// their guard and their write atomically; losers get ErrConflict or
// ErrInvalidState back, never a silent partial write.

type RequestStore interface {
	Create(ctx context.Context, req *SwapRequest) error
	GetByID(ctx context.Context, id string) (*SwapRequest, error)

	// UpdateOpenFields persists editable fields while the request is still
	// Open. ErrConflict when the row exists but left Open in the meantime.
	UpdateOpenFields(ctx context.Context, req *SwapRequest) error

	// DeleteOpen hard-deletes an Open request with zero interactions.
	// ErrConflict when either guard fails.
	DeleteOpen(ctx context.Context, id string) error

	// Cancel moves an Open or InProgress request to Cancelled and
	// force-rejects the approved interaction, if any, returning it so the
	// caller can notify its requester. ErrInvalidState on terminal requests.
	Cancel(ctx context.Context, id string) (*Interaction, error)

	// Complete moves an InProgress request to Completed, re-reading both
	// participants' latest percentages under the same row lock.
	// ErrInvalidState when not InProgress, ErrPreconditionFailed when either
	// side is below 100.
	Complete(ctx context.Context, id string) error

	ListOpen(ctx context.Context, limit, offset int) ([]SwapRequest, error)
	ListByOwner(ctx context.Context, ownerID string) ([]SwapRequest, error)

	// ListOpenForUser returns Open requests not owned by userID and with no
	// interaction by userID, newest first. Feed for the recommendation
	// engine.
	ListOpenForUser(ctx context.Context, userID string) ([]SwapRequest, error)
}

// ApprovalOutcome reports what an approval changed besides the interaction
// itself: every sibling pending interaction is rejected by side effect.
type ApprovalOutcome struct {
	Interaction        *Interaction
	RejectedRequesters []string
}

type InteractionStore interface {
	// Create inserts a Pending interaction, re-checking inside the same
	// transaction that the request is still Open (ErrInvalidState) and that
	// no Pending/Approved interaction exists for the pair (ErrConflict).
	Create(ctx context.Context, in *Interaction) error

	GetByID(ctx context.Context, id string) (*Interaction, error)
	ListByRequest(ctx context.Context, requestID string) ([]Interaction, error)

	// GetApproved returns the approved interaction for a request, or
	// ErrNotFound.
	GetApproved(ctx context.Context, requestID string) (*Interaction, error)

	// HasActive reports whether a Pending or Approved interaction exists for
	// the pair.
	HasActive(ctx context.Context, requestID, requesterID string) (bool, error)

	// Approve atomically marks the interaction Approved, rejects all sibling
	// Pending interactions, and moves the request to InProgress.
	// ErrInvalidState when the interaction is no longer Pending or the
	// request already left Open.
	Approve(ctx context.Context, id string) (*ApprovalOutcome, error)

	// Reject marks a Pending interaction Rejected. ErrInvalidState when it
	// was already decided.
	Reject(ctx context.Context, id string) (*Interaction, error)
}

type ProgressStore interface {
	// Append inserts a progress update, re-checking under the request row
	// lock that the request is still InProgress (ErrInvalidState).
	Append(ctx context.Context, up *ProgressUpdate) error

	ListByRequest(ctx context.Context, requestID string) ([]ProgressUpdate, error)

	// LatestPercentage returns the percentage of the participant's most
	// recent update, 0 if they have posted none.
	LatestPercentage(ctx context.Context, requestID, participantID string) (int, error)
}
