// Package bridge orchestrates the two webhook flows connecting the WhatsApp
// gateway to the bot backend.
package bridge

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/wolfman30/whatsapp-bridge/internal/botpress"
	"github.com/wolfman30/whatsapp-bridge/internal/messaging"
	"github.com/wolfman30/whatsapp-bridge/internal/normalize"
	"github.com/wolfman30/whatsapp-bridge/internal/observability/metrics"
	"github.com/wolfman30/whatsapp-bridge/internal/session"
	"github.com/wolfman30/whatsapp-bridge/internal/wati"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

// DefaultAckText is sent when the bot replied in a shape the extraction chain
// does not cover, so the user never waits on a reply that already happened.
const DefaultAckText = "OK"

const maxWebhookBody = 256 * 1024

// Dispatcher forwards normalized messages to the bot backend.
type Dispatcher interface {
	Dispatch(ctx context.Context, conversationID, text string) (botpress.Result, error)
}

// TextSender delivers text to an end user through the messaging provider.
type TextSender interface {
	SendText(ctx context.Context, phone, text string) wati.SendResult
}

// Handler holds the webhook entry points. Both flows acknowledge with 200
// regardless of downstream outcome; a non-2xx ack would trigger the
// provider's retry storm.
type Handler struct {
	dispatcher    Dispatcher
	sender        TextSender
	resolver      session.Resolver
	metrics       *metrics.BridgeMetrics
	logger        *logging.Logger
	fallbackReply string
}

// NewHandler creates the webhook handler.
func NewHandler(dispatcher Dispatcher, sender TextSender, resolver session.Resolver, m *metrics.BridgeMetrics, fallbackReply string, logger *logging.Logger) *Handler {
	if dispatcher == nil {
		panic("bridge: dispatcher cannot be nil")
	}
	if sender == nil {
		panic("bridge: sender cannot be nil")
	}
	if resolver == nil {
		panic("bridge: resolver cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Handler{
		dispatcher:    dispatcher,
		sender:        sender,
		resolver:      resolver,
		metrics:       m,
		logger:        logger,
		fallbackReply: fallbackReply,
	}
}

// Inbound handles POST /inbound: provider webhook carrying a user message.
func (h *Handler) Inbound(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("inbound", time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read inbound webhook body", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	fields := normalize.InboundFields(body)
	phone := messaging.CanonicalPhone(fields.Phone)
	text := strings.TrimSpace(fields.Text)
	if phone == "" || text == "" {
		h.logger.Info("ignoring inbound webhook without phone or text",
			"has_phone", phone != "", "has_text", text != "")
		h.metrics.ObserveInbound("ignored")
		ack(w)
		return
	}

	conversationID, err := h.resolver.Resolve(ctx, phone)
	if err != nil {
		h.logger.Error("conversation resolution failed", "error", err, "phone", phone)
		h.metrics.ObserveInbound("resolve_failed")
		h.sendFallback(ctx, phone)
		ack(w)
		return
	}

	result, err := h.dispatcher.Dispatch(ctx, conversationID, text)
	if err != nil || !result.Delivered {
		if err != nil {
			h.logger.Error("bot dispatch failed", "error", err, "conversation_id", conversationID)
		}
		h.metrics.ObserveInbound("dispatch_failed")
		h.sendFallback(ctx, phone)
		ack(w)
		return
	}

	replyText := result.ReplyText
	if replyText == "" && result.Replied {
		// The bot answered synchronously but in a shape we cannot extract.
		replyText = DefaultAckText
	}
	if replyText != "" {
		res := h.sender.SendText(ctx, phone, replyText)
		h.metrics.ObserveOutbound("wati", sendStatus(res))
	}

	h.metrics.ObserveInbound("dispatched")
	ack(w)
}

// Reply handles POST /reply: bot webhook carrying an asynchronous reply.
func (h *Handler) Reply(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	defer func() { h.metrics.ObserveWebhookLatency("reply", time.Since(start).Seconds()) }()

	body, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		h.logger.Error("failed to read reply webhook body", "error", err)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	ctx := r.Context()
	reply := normalize.ReplyFields(body)
	if reply.ConversationID == "" || reply.Text == "" {
		h.logger.Info("ignoring reply webhook without conversation id or text",
			"has_conversation_id", reply.ConversationID != "", "has_text", reply.Text != "")
		h.metrics.ObserveReply("ignored")
		ack(w)
		return
	}

	phone := h.resolver.ReverseResolve(ctx, reply.ConversationID)
	res := h.sender.SendText(ctx, phone, reply.Text)
	h.metrics.ObserveOutbound("wati", sendStatus(res))
	if res.OK {
		h.metrics.ObserveReply("sent")
	} else {
		h.metrics.ObserveReply("send_failed")
	}
	ack(w)
}

// Health handles GET /health.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// sendFallback notifies the user once, best effort, after their message was
// accepted but could not reach the bot. A failed notice is logged only.
func (h *Handler) sendFallback(ctx context.Context, phone string) {
	if h.fallbackReply == "" {
		return
	}
	res := h.sender.SendText(ctx, phone, h.fallbackReply)
	h.metrics.ObserveOutbound("wati", sendStatus(res))
	if !res.OK {
		h.logger.Warn("fallback notice could not be delivered", "phone", phone)
	}
}

func sendStatus(res wati.SendResult) string {
	if res.OK {
		return "ok"
	}
	return "failed"
}

func ack(w http.ResponseWriter) {
	w.WriteHeader(http.StatusOK)
}
