package alerts

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/hibiken/asynq"
)

// ensureClient lazily creates the enqueue client. It never starts the worker
// server; only Init does that.
func ensureClient() *asynq.Client {
	if client == nil {
		client = asynq.NewClient(redisOpt())
	}
	return client
}

// EnqueueWelcomeEmail schedules a welcome email to the user
func EnqueueWelcomeEmail(userID, email, name string) error {
	base := os.Getenv("APP_URL")
	if base == "" {
		base = "http://localhost:3000"
	}
	base = strings.TrimRight(base, "/")

	subject := fmt.Sprintf("Welcome to SkillSwap, %s!", name)
	body := fmt.Sprintf("Hi %s, thanks for joining SkillSwap.\n\nPost the service you can offer and the one you need, and we'll surface matching offers for you.\n\nOpen SkillSwap: %s", name, base)

	env := EmailEnvelope{To: email, Subject: subject, Body: body}
	payload := WelcomeEmailPayload{UserID: userID, Name: name, Email: email, Envelope: env, SentAt: time.Now()}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskWelcomeEmail, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("emails"))
	return err
}

// EnqueueSwapEvent schedules delivery of a swap lifecycle event to one
// recipient: an in-app notification row plus a best-effort email.
func EnqueueSwapEvent(recipientID, recipientKind, event, message string) error {
	payload := SwapEventPayload{
		RecipientID:   recipientID,
		RecipientKind: recipientKind,
		Event:         event,
		Message:       message,
		SentAt:        time.Now(),
	}
	b, _ := json.Marshal(payload)
	task := asynq.NewTask(TaskSwapEvent, b)
	_, err := ensureClient().Enqueue(task, asynq.Queue("notifications"))
	return err
}
