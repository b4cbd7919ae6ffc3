package alerts

import "time"

// Task type constants
const (
	TaskWelcomeEmail = "notify:welcome"
	TaskSwapEvent    = "notify:swap_event"
)

// Swap lifecycle events delivered through the sink.
const (
	EventSwapPlaced    = "swap_placed"
	EventSwapApproved  = "swap_approved"
	EventSwapRejected  = "swap_rejected"
	EventSwapCompleted = "swap_completed"
	EventSwapCancelled = "swap_cancelled"
)

// Common envelope for email-like notifications
type EmailEnvelope struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// Welcome email payload
type WelcomeEmailPayload struct {
	UserID   string        `json:"user_id"`
	Name     string        `json:"name"`
	Email    string        `json:"email"`
	Envelope EmailEnvelope `json:"envelope"`
	SentAt   time.Time     `json:"sent_at"`
}

// Swap event payload. RecipientKind distinguishes users from organizations
// acting as exchange counterparts; both are addressed by id.
type SwapEventPayload struct {
	RecipientID   string    `json:"recipient_id"`
	RecipientKind string    `json:"recipient_kind"`
	Event         string    `json:"event"`
	Message       string    `json:"message"`
	SentAt        time.Time `json:"sent_at"`
}

var eventSubjects = map[string]string{
	EventSwapPlaced:    "New request on your swap offer",
	EventSwapApproved:  "Your swap request was approved",
	EventSwapRejected:  "Your swap request was not selected",
	EventSwapCompleted: "Swap exchange completed",
	EventSwapCancelled: "Swap exchange cancelled",
}

func subjectFor(event string) string {
	if s, ok := eventSubjects[event]; ok {
		return s
	}
	return "SkillSwap notification"
}
