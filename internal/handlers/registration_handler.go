package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"accounts/internal/models"
	"accounts/internal/services"

	"github.com/sirupsen/logrus"
	"github.com/streadway/amqp"
)

// Registrar registers candidate users.
type Registrar interface {
	Register(ctx context.Context, candidate models.CandidateUser) (services.RegistrationResult, error)
}

// Replier sends a reply to the queue named by a request.
type Replier interface {
	Reply(replyTo, correlationID string, body []byte) error
}

// RegistrationHandler handles registration requests delivered over RabbitMQ.
type RegistrationHandler struct {
	registrar Registrar
	replier   Replier
	timeout   time.Duration
	log       logrus.FieldLogger
}

// NewRegistrationHandler creates a new RegistrationHandler. A zero timeout leaves requests unbounded.
func NewRegistrationHandler(registrar Registrar, replier Replier, timeout time.Duration, log logrus.FieldLogger) *RegistrationHandler {
	return &RegistrationHandler{
		registrar: registrar,
		replier:   replier,
		timeout:   timeout,
		log:       log,
	}
}

// HandleDelivery processes one registration request. A returned error asks the
// consumer to requeue the message; that only happens for infrastructure errors
// on a first delivery.
func (h *RegistrationHandler) HandleDelivery(msg amqp.Delivery) error {
	entry := h.log.WithField("correlation_id", msg.CorrelationId)

	var candidate models.CandidateUser
	if err := json.Unmarshal(msg.Body, &candidate); err != nil {
		entry.WithError(err).Warn("malformed registration request")
		return h.reply(msg, models.RegistrationReply{Status: models.StatusMalformed, Error: "invalid request body"})
	}

	ctx := context.Background()
	if h.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.timeout)
		defer cancel()
	}

	result, err := h.registrar.Register(ctx, candidate)
	if err != nil {
		if !msg.Redelivered {
			return err
		}
		entry.WithError(err).Error("registration failed after redelivery")
		return h.reply(msg, models.RegistrationReply{Status: models.StatusError, Error: "registration could not be completed"})
	}

	if !result.Registered() {
		entry.WithFields(logrus.Fields{
			"email":    candidate.Email,
			"failures": result.Failures.Kinds(),
		}).Info("registration rejected")
		return h.reply(msg, models.RegistrationReply{Status: models.StatusRejected, Failures: result.Failures})
	}

	return h.reply(msg, models.RegistrationReply{Status: models.StatusRegistered, User: result.User})
}

func (h *RegistrationHandler) reply(msg amqp.Delivery, reply models.RegistrationReply) error {
	if msg.ReplyTo == "" || h.replier == nil {
		return nil
	}
	body, err := json.Marshal(reply)
	if err != nil {
		return fmt.Errorf("failed to marshal registration reply: %w", err)
	}
	if err := h.replier.Reply(msg.ReplyTo, msg.CorrelationId, body); err != nil {
		return fmt.Errorf("failed to send registration reply: %w", err)
	}
	return nil
}
