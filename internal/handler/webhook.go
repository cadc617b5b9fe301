package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/rs/zerolog/log"

	"github.com/vendalocal/whatsapp-assistant/internal/audit"
	"github.com/vendalocal/whatsapp-assistant/internal/middleware"
	"github.com/vendalocal/whatsapp-assistant/internal/session"
	"github.com/vendalocal/whatsapp-assistant/internal/util"
)

// WebhookHandler receives Cloud API deliveries: the GET verification
// handshake and POSTed message/status events.
type WebhookHandler struct {
	manager     *session.Manager
	router      *Router
	rateLimiter *middleware.RedisRateLimiter
	verifyToken string
}

func NewWebhookHandler(
	manager *session.Manager,
	router *Router,
	rateLimiter *middleware.RedisRateLimiter,
	verifyToken string,
) *WebhookHandler {
	return &WebhookHandler{
		manager:     manager,
		router:      router,
		rateLimiter: rateLimiter,
		verifyToken: verifyToken,
	}
}

// Verify answers the subscription handshake by echoing hub.challenge.
func (h *WebhookHandler) Verify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || token != h.verifyToken {
		log.Warn().Str("mode", mode).Msg("webhook verification rejected")
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "Verification failed"})
		return
	}

	w.WriteHeader(http.StatusOK)
	if _, err := w.Write([]byte(challenge)); err != nil {
		log.Error().Err(err).Msg("failed to write challenge response")
	}
}

// Receive handles a POSTed event batch. Processing failures are logged
// but always acknowledged with 200; Meta retries non-2xx deliveries and a
// retried batch would only replay messages the duplicate check then has
// to absorb.
func (h *WebhookHandler) Receive(w http.ResponseWriter, r *http.Request) {
	var envelope WebhookEnvelope
	if err := json.NewDecoder(r.Body).Decode(&envelope); err != nil {
		log.Warn().Err(err).Msg("invalid webhook request body")
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Invalid request body"})
		return
	}

	ctx := r.Context()
	for _, entry := range envelope.Entry {
		for _, change := range entry.Changes {
			for _, status := range change.Value.Statuses {
				log.Debug().
					Str("messageId", status.ID).
					Str("status", status.Status).
					Msg("delivery status update")
			}
			for i := range change.Value.Messages {
				h.processMessage(ctx, &change.Value.Messages[i])
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *WebhookHandler) processMessage(ctx context.Context, msg *InboundMessage) {
	if msg.From == "" || msg.ID == "" {
		log.Warn().Msg("inbound message missing sender or id, skipping")
		return
	}

	if h.rateLimiter != nil && !h.rateLimiter.AllowPhone(ctx, msg.From) {
		return
	}

	err := h.manager.WithPhoneLock(ctx, msg.From, func(ctx context.Context) error {
		s, wasReset, err := h.manager.GetActiveOrReset(ctx, msg.From)
		if err != nil {
			return err
		}

		if h.manager.IsDuplicateMessage(s, msg.ID) {
			audit.Log(ctx, audit.Event{
				Type:  audit.EventDuplicateInbound,
				Phone: s.Phone,
				Details: map[string]interface{}{
					"message_id": msg.ID,
				},
			})
			return nil
		}

		if err := h.manager.RecordInbound(ctx, s, msg.ID, msg.MessageType()); err != nil {
			return err
		}

		return h.router.Dispatch(ctx, s, msg, wasReset)
	})
	if err != nil {
		log.Error().
			Err(err).
			Str("phone", util.MaskPhone(msg.From)).
			Str("messageId", msg.ID).
			Msg("failed to process inbound message")
	}
}
