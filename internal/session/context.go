package session

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/splitbot/splitbot/internal/ledger"
)

const (
	keyCredential = "credential"
	keyState      = "state"
	keySelection  = "settle_with_contact"
	keyNonce      = "nonce"
	keyComplete   = "state_complete"
	keyMessageID  = "last_message_id"
)

// Selection is the in-progress settle choice, captured at selection time.
type Selection struct {
	Name      string          `json:"name"`
	Amount    decimal.Decimal `json:"amount"`
	ContactID int64           `json:"contact_id"`
}

// Context is a typed view over one chat's slice of a Store.
type Context struct {
	store  Store
	chatID string
}

func NewContext(store Store, chatID string) *Context {
	return &Context{store: store, chatID: chatID}
}

// Credential returns the stored token pair, or nil when the account has
// not been connected.
func (c *Context) Credential(ctx context.Context) (*ledger.Credential, error) {
	raw, ok, err := c.store.Get(ctx, c.chatID, keyCredential)
	if err != nil || !ok {
		return nil, err
	}
	var cred ledger.Credential
	if err := json.Unmarshal([]byte(raw), &cred); err != nil {
		return nil, fmt.Errorf("corrupt credential for chat %s: %w", c.chatID, err)
	}
	return &cred, nil
}

func (c *Context) SetCredential(ctx context.Context, cred *ledger.Credential) error {
	raw, err := json.Marshal(cred)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.chatID, keyCredential, string(raw))
}

func (c *Context) State(ctx context.Context) (string, error) {
	state, _, err := c.store.Get(ctx, c.chatID, keyState)
	return state, err
}

func (c *Context) SetState(ctx context.Context, state string) error {
	return c.store.Set(ctx, c.chatID, keyState, state)
}

func (c *Context) Selection(ctx context.Context) (*Selection, error) {
	raw, ok, err := c.store.Get(ctx, c.chatID, keySelection)
	if err != nil || !ok {
		return nil, err
	}
	var sel Selection
	if err := json.Unmarshal([]byte(raw), &sel); err != nil {
		return nil, fmt.Errorf("corrupt selection for chat %s: %w", c.chatID, err)
	}
	return &sel, nil
}

func (c *Context) SetSelection(ctx context.Context, sel *Selection) error {
	raw, err := json.Marshal(sel)
	if err != nil {
		return err
	}
	return c.store.Set(ctx, c.chatID, keySelection, string(raw))
}

func (c *Context) Nonce(ctx context.Context) (string, error) {
	nonce, _, err := c.store.Get(ctx, c.chatID, keyNonce)
	return nonce, err
}

func (c *Context) SetNonce(ctx context.Context, nonce string) error {
	return c.store.Set(ctx, c.chatID, keyNonce, nonce)
}

func (c *Context) LastMessageID(ctx context.Context) (string, error) {
	id, _, err := c.store.Get(ctx, c.chatID, keyMessageID)
	return id, err
}

func (c *Context) SetLastMessageID(ctx context.Context, id string) error {
	return c.store.Set(ctx, c.chatID, keyMessageID, id)
}

func (c *Context) Completed(ctx context.Context) (bool, error) {
	value, ok, err := c.store.Get(ctx, c.chatID, keyComplete)
	if err != nil {
		return false, err
	}
	return ok && value == "true", nil
}

func (c *Context) MarkComplete(ctx context.Context) error {
	return c.store.Set(ctx, c.chatID, keyComplete, "true")
}

// ResetDialogue clears everything but the credential, so a new dialogue
// starts from a clean slate.
func (c *Context) ResetDialogue(ctx context.Context) error {
	for _, key := range []string{keyState, keySelection, keyNonce, keyComplete, keyMessageID} {
		if err := c.store.Delete(ctx, c.chatID, key); err != nil {
			return err
		}
	}
	return nil
}
