package alerts

import (
	"log"

	"github.com/sudo-init-do/skillswap/internal/swap"
)

// Sink adapts the task queue to the swap.Notifier interface. Delivery is
// fire-and-forget: an enqueue failure is logged and swallowed so a dropped
// notification can never roll back the state change that triggered it.
type Sink struct{}

func NewSink() *Sink {
	return &Sink{}
}

func (s *Sink) Notify(recipient swap.Party, event, message string) {
	if err := EnqueueSwapEvent(recipient.ID, string(recipient.Kind), event, message); err != nil {
		log.Printf("[notify][ERROR] enqueue %s for %s failed: %v", event, recipient.ID, err)
	}
}
