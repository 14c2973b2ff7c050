package tasks

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"dwellhub/backend/internal/config"
	"dwellhub/backend/internal/email"
	"dwellhub/backend/internal/models"
	"dwellhub/backend/internal/services"
)

// Task types.
const (
	TypeInquiryNotify = "inquiry:notify"
)

// InquiryNotifyPayload carries everything the worker needs to notify an
// agent about a new inquiry. The inquiry content is embedded so the worker
// does not re-read the inquiries collection.
type InquiryNotifyPayload struct {
	AgentID       string `json:"agent_id"`
	PropertyTitle string `json:"property_title"`
	PropertySlug  string `json:"property_slug"`
	FromName      string `json:"from_name"`
	FromEmail     string `json:"from_email"`
	FromPhone     string `json:"from_phone,omitempty"`
	Message       string `json:"message"`
}

// --- Task Client (Enqueuing tasks) ---

// NewClient builds an asynq client over the shared Redis connection.
func NewClient(rdb *redis.Client) *asynq.Client {
	opts := rdb.Options()
	return asynq.NewClient(asynq.RedisClientOpt{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
}

// EnqueueInquiryNotify queues an agent notification email. Enqueue failures
// are returned to the caller to log; the inquiry itself is already stored.
func EnqueueInquiryNotify(client *asynq.Client, payload InquiryNotifyPayload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal inquiry notify payload: %w", err)
	}
	_, err = client.Enqueue(asynq.NewTask(TypeInquiryNotify, data), asynq.Queue("default"))
	if err != nil {
		return fmt.Errorf("failed to enqueue inquiry notification: %w", err)
	}
	return nil
}

// --- Task Server (Processing tasks) ---

// TaskProcessor holds the dependencies task handlers need.
type TaskProcessor struct {
	cfg         *config.Config
	emailSender email.Sender
	userService services.IUserService
	log         *zap.Logger
}

func NewTaskProcessor(cfg *config.Config, emailSender email.Sender, userService services.IUserService, logger *zap.Logger) *TaskProcessor {
	return &TaskProcessor{
		cfg:         cfg,
		emailSender: emailSender,
		userService: userService,
		log:         logger,
	}
}

// SetupServer configures the asynq server and its handler mux. The caller
// runs the server and owns its shutdown.
func SetupServer(rdb *redis.Client, processor *TaskProcessor, logger *zap.Logger) (*asynq.Server, *asynq.ServeMux) {
	opts := rdb.Options()
	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     opts.Addr,
			Password: opts.Password,
			DB:       opts.DB,
		},
		asynq.Config{
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				logger.Error("task failed",
					zap.String("type", task.Type()),
					zap.ByteString("payload", task.Payload()),
					zap.Error(err))
			}),
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeInquiryNotify, processor.HandleInquiryNotifyTask)

	return srv, mux
}

// HandleInquiryNotifyTask emails the agent about a new inquiry. A malformed
// payload or a deleted agent skips retrying; transient email failures are
// retried under asynq's default policy.
func (p *TaskProcessor) HandleInquiryNotifyTask(ctx context.Context, t *asynq.Task) error {
	var payload InquiryNotifyPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal inquiry notify payload: %v: %w", err, asynq.SkipRetry)
	}

	agent, err := resolveAgent(ctx, p.userService, payload.AgentID)
	if err != nil {
		p.log.Warn("skipping inquiry notification, agent not resolvable",
			zap.String("agent_id", payload.AgentID), zap.Error(err))
		return fmt.Errorf("agent %s not resolvable: %v: %w", payload.AgentID, err, asynq.SkipRetry)
	}

	subject := fmt.Sprintf("New inquiry about %s", payload.PropertyTitle)
	body := renderInquiryEmail(p.cfg.ClientURL, payload)
	msg := email.BuildMessage(p.cfg.SmtpFromAddress, []string{agent.Email}, subject, body)

	if err := p.emailSender.Send(ctx, []string{agent.Email}, subject, msg); err != nil {
		return fmt.Errorf("failed to send inquiry notification to %s: %w", agent.Email, err)
	}
	return nil
}

func resolveAgent(ctx context.Context, users services.IUserService, agentID string) (*models.User, error) {
	objID, err := primitive.ObjectIDFromHex(agentID)
	if err != nil {
		return nil, fmt.Errorf("invalid agent id: %w", err)
	}
	return users.FindByID(ctx, objID)
}

func renderInquiryEmail(clientURL string, payload InquiryNotifyPayload) string {
	contact := payload.FromEmail
	if payload.FromPhone != "" {
		contact = fmt.Sprintf("%s / %s", payload.FromEmail, payload.FromPhone)
	}
	return fmt.Sprintf(
		"You have a new inquiry about your listing %q.\n\n"+
			"From: %s (%s)\n\n"+
			"%s\n\n"+
			"View the listing: %s/properties/%s\n",
		payload.PropertyTitle, payload.FromName, contact, payload.Message,
		clientURL, payload.PropertySlug,
	)
}
