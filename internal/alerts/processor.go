package alerts

import (
	"context"
	"encoding/json"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"

	"github.com/sudo-init-do/skillswap/internal/db"
)

var (
	client *asynq.Client
	server *asynq.Server
)

// redisOpt resolves the queue's Redis connection from the environment.
func redisOpt() asynq.RedisClientOpt {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		if host := os.Getenv("REDIS_HOST"); host != "" {
			port := os.Getenv("REDIS_PORT")
			if port == "" {
				port = "6379"
			}
			addr = host + ":" + port
		} else {
			addr = "127.0.0.1:6379"
		}
	}
	return asynq.RedisClientOpt{Addr: addr}
}

// Init starts the Asynq worker server and initializes the shared client.
func Init() {
	opt := redisOpt()
	if client == nil {
		client = asynq.NewClient(opt)
	}

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskWelcomeEmail, handleWelcomeEmail)
	mux.HandleFunc(TaskSwapEvent, handleSwapEvent)

	server = asynq.NewServer(opt, asynq.Config{
		Concurrency: 5,
		Queues: map[string]int{
			"notifications": 10,
			"emails":        5,
		},
	})
	go func() {
		if err := server.Run(mux); err != nil {
			log.Printf("Asynq server stopped: %v", err)
		}
	}()

	log.Printf("Asynq initialized (addr=%s)", opt.Addr)
}

// Close releases client and stops server.
func Close() {
	if client != nil {
		_ = client.Close()
	}
	if server != nil {
		server.Shutdown()
	}
}

func handleWelcomeEmail(_ context.Context, t *asynq.Task) error {
	var p WelcomeEmailPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}
	if err := SendEmail(p.Email, p.Envelope.Subject, p.Envelope.Body); err != nil {
		log.Printf("[notify][ERROR] WelcomeEmail send failed: %v", err)
		return err
	}
	log.Printf("[notify] WelcomeEmail sent -> to=%s user=%s", p.Email, p.UserID)
	return nil
}

// handleSwapEvent records an in-app notification and sends a best-effort
// email. The in-app row is the durable part; a missing email address or a
// failed send is logged and dropped, never retried into a user-visible error.
func handleSwapEvent(ctx context.Context, t *asynq.Task) error {
	var p SwapEventPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return err
	}

	_, err := db.Conn.Exec(ctx, `
		INSERT INTO notifications (id, user_id, type, body, created_at)
		VALUES ($1, $2, $3, $4, $5)`,
		uuid.New().String(), p.RecipientID, p.Event, p.Message, p.SentAt)
	if err != nil {
		log.Printf("[notify][ERROR] failed to record notification: %v", err)
		return err
	}

	var email string
	_ = db.Conn.QueryRow(ctx, `SELECT email FROM users WHERE id = $1`, p.RecipientID).Scan(&email)
	if email != "" {
		if err := SendEmail(email, subjectFor(p.Event), p.Message); err != nil {
			log.Printf("[notify][ERROR] %s email send failed: %v", p.Event, err)
		}
	}

	log.Printf("[notify] %s delivered -> recipient=%s", p.Event, p.RecipientID)
	return nil
}
