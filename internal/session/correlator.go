package session

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/wolfman30/whatsapp-bridge/internal/messaging"
	"github.com/wolfman30/whatsapp-bridge/pkg/logging"
)

// conversationIDPrefix marks conversation ids derived from phone numbers.
const conversationIDPrefix = "wati-"

// Resolver correlates a canonical phone number with a bot-side conversation
// identifier, in both directions.
type Resolver interface {
	// Resolve returns the conversation id for a phone number.
	Resolve(ctx context.Context, phone string) (string, error)
	// ReverseResolve maps a conversation id back to a phone number. It never
	// fails; with no mapping it degrades to treating the id as the phone.
	ReverseResolve(ctx context.Context, conversationID string) string
}

// StatelessResolver uses the phone number itself as the conversation id. No
// state, no round trips.
type StatelessResolver struct{}

// NewStatelessResolver creates a pure derivation resolver.
func NewStatelessResolver() *StatelessResolver {
	return &StatelessResolver{}
}

var _ Resolver = (*StatelessResolver)(nil)

// Resolve returns the phone as-is: the canonical phone is the conversation id.
func (r *StatelessResolver) Resolve(_ context.Context, phone string) (string, error) {
	return phone, nil
}

// ReverseResolve reduces the id to its digits. That is the identity for ids
// this resolver issued, and also routes prefixed ids minted elsewhere.
func (r *StatelessResolver) ReverseResolve(_ context.Context, conversationID string) string {
	return messaging.CanonicalPhone(conversationID)
}

// ConversationMinter issues new conversation ids on the bot backend.
type ConversationMinter interface {
	CreateConversation(ctx context.Context) (string, error)
}

// StatefulResolver looks conversations up in an injected store and mints
// missing ones remotely. Concurrent first-time lookups for one phone may both
// mint; the mapping is idempotently overwritten with the latest result.
type StatefulResolver struct {
	store  Store
	minter ConversationMinter
	logger *logging.Logger
}

// NewStatefulResolver creates a store-backed resolver. minter may be nil, in
// which case missing conversations get locally generated ids.
func NewStatefulResolver(store Store, minter ConversationMinter, logger *logging.Logger) *StatefulResolver {
	if store == nil {
		panic("session: store cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &StatefulResolver{store: store, minter: minter, logger: logger}
}

var _ Resolver = (*StatefulResolver)(nil)

func phoneKey(phone string) string { return "phone:" + phone }

func conversationKey(conversationID string) string { return "conv:" + conversationID }

// Resolve returns the cached conversation id, minting one on a miss. A remote
// minting failure propagates so the caller reports a dispatch failure.
func (r *StatefulResolver) Resolve(ctx context.Context, phone string) (string, error) {
	conversationID, ok, err := r.store.Get(ctx, phoneKey(phone))
	if err != nil {
		return "", err
	}
	if ok {
		return conversationID, nil
	}

	if r.minter != nil {
		conversationID, err = r.minter.CreateConversation(ctx)
		if err != nil {
			return "", fmt.Errorf("session: mint conversation for %s: %w", phone, err)
		}
	} else {
		conversationID = conversationIDPrefix + phone
		if phone == "" {
			conversationID = uuid.NewString()
		}
	}

	if err := r.store.Set(ctx, phoneKey(phone), conversationID); err != nil {
		return "", err
	}
	if err := r.store.Set(ctx, conversationKey(conversationID), phone); err != nil {
		return "", err
	}
	r.logger.Info("conversation created", "phone", phone, "conversation_id", conversationID)
	return conversationID, nil
}

// ReverseResolve looks the phone up in the mapping. Store errors and misses
// degrade to the canonicalized id so a reply is never dropped.
func (r *StatefulResolver) ReverseResolve(ctx context.Context, conversationID string) string {
	phone, ok, err := r.store.Get(ctx, conversationKey(conversationID))
	if err != nil {
		r.logger.Warn("reverse lookup failed, falling back to conversation id digits",
			"conversation_id", conversationID, "error", err)
	}
	if ok && phone != "" {
		return phone
	}
	if strings.HasPrefix(conversationID, conversationIDPrefix) {
		return strings.TrimPrefix(conversationID, conversationIDPrefix)
	}
	return messaging.CanonicalPhone(conversationID)
}
