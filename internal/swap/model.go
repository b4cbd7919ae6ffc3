package swap

import "time"

type RequestStatus string

const (
	StatusOpen       RequestStatus = "open"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

type InteractionStatus string

const (
	InteractionPending  InteractionStatus = "pending"
	InteractionApproved InteractionStatus = "approved"
	InteractionRejected InteractionStatus = "rejected"
)

// SwapRequest is a posted offer to exchange one service for another.
type SwapRequest struct {
	ID                 string        `json:"id"`
	OwnerID            string        `json:"owner_id"`
	ServiceTitle       string        `json:"service_title"`
	ServiceCategories  []string      `json:"service_categories"`
	ServiceRequired    string        `json:"service_required"`
	ServiceDescription string        `json:"service_description,omitempty"`
	YearsOfExperience  *int          `json:"years_of_experience,omitempty"`
	PreferredLocation  string        `json:"preferred_location,omitempty"`
	Deadline           *time.Time    `json:"deadline,omitempty"`
	Status             RequestStatus `json:"status"`
	CreatedAt          time.Time     `json:"created_at"`
}

// Interaction is one user's placed claim against a SwapRequest, subject to
// owner approval. At most one per (request, requester) may be pending or
// approved, and a request carries at most one approved interaction.
type Interaction struct {
	ID            string            `json:"id"`
	SwapRequestID string            `json:"swap_request_id"`
	RequesterID   string            `json:"requester_id"`
	Status        InteractionStatus `json:"status"`
	CreatedAt     time.Time         `json:"created_at"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`
}

// ProgressUpdate is an append-only self-reported completion percentage.
type ProgressUpdate struct {
	ID            string    `json:"id"`
	SwapRequestID string    `json:"swap_request_id"`
	AuthorID      string    `json:"author_id"`
	Title         string    `json:"title"`
	Message       string    `json:"message,omitempty"`
	Percentage    int       `json:"percentage"`
	CreatedAt     time.Time `json:"created_at"`
}

type PartyKind string

const (
	PartyUser         PartyKind = "user"
	PartyOrganization PartyKind = "organization"
)

// Party identifies an actor or notification recipient. Organizations show up
// as counterparts in org-managed exchanges and are addressed the same way.
type Party struct {
	Kind PartyKind `json:"kind"`
	ID   string    `json:"id"`
}

func UserParty(id string) Party {
	return Party{Kind: PartyUser, ID: id}
}

// Notifier delivers a fire-and-forget event to a recipient. Failures are the
// sink's problem; callers never treat delivery as part of the mutation.
type Notifier interface {
	Notify(recipient Party, event, message string)
}

// CanTransition reports whether the request state machine allows moving from
// one status to another. Completed and Cancelled are terminal.
func CanTransition(from, to RequestStatus) bool {
	switch from {
	case StatusOpen:
		return to == StatusInProgress || to == StatusCancelled
	case StatusInProgress:
		return to == StatusCompleted || to == StatusCancelled
	default:
		return false
	}
}
