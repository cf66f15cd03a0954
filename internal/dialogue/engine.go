// Package dialogue drives the multi-step settle-expense conversation:
// present candidates, capture a selection, confirm, then commit or cancel,
// with an inactivity timeout.
package dialogue

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/splitbot/splitbot/internal/balance"
	"github.com/splitbot/splitbot/internal/ledger"
	"github.com/splitbot/splitbot/internal/session"
)

// Dialogue states. Absence of a state means the chat is idle.
const (
	StateSelectContact = "select_contact"
	StateConfirm       = "confirm"
)

// Button payload kinds.
const (
	payloadSettle  = "settle"
	payloadConfirm = "confirm"
)

const (
	msgNotConnected  = "Your account is not connected. Send /connect to link your Splitwise account."
	msgLedgerFailure = "Something went wrong talking to Splitwise. Please try again later."
	msgNothingOwed   = "You don't owe anyone right now, nothing to settle."
	msgSettleWith    = "Settle with"
	msgSettled       = "Expense settled!"
	msgNotSettled    = "No expense settled"
	msgCommitFailed  = "Could not settle the expense. No expense was created."
	msgStaleContact  = "That balance is no longer valid. Send /settle_expense to start again."
	msgExpired       = "Session expired, no expense settled."
	msgStaleButtons  = "That session has expired. Send /settle_expense to start again."
)

// Ledger is the slice of the expense ledger the engine needs.
type Ledger interface {
	CurrentUserID(ctx context.Context, cred *ledger.Credential) (int64, error)
	ContactsWithBalances(ctx context.Context, cred *ledger.Credential) ([]ledger.Contact, error)
	CreateSettlingExpense(ctx context.Context, cred *ledger.Credential, payerID, payeeID int64, amount decimal.Decimal, description string) error
}

// Button is one inline choice presented to the user. Payload comes back
// verbatim on the click.
type Button struct {
	Label   string
	Payload string
}

// Transport delivers messages and button grids to a chat.
type Transport interface {
	SendText(chatID, text string) error
	SendButtons(chatID, text string, rows [][]Button) (messageID string, err error)
	EditText(chatID, messageID, text string) error
	EditButtons(chatID, messageID, text string, rows [][]Button) error
}

type Engine struct {
	ledger      Ledger
	chat        Transport
	store       session.Store
	timeout     time.Duration
	symbol      string
	description string

	mu    sync.Mutex
	chats map[string]*chatState
}

// chatState serializes events for one chat and owns its inactivity timer.
type chatState struct {
	mu    sync.Mutex
	timer *time.Timer
	gen   uint64
}

func NewEngine(l Ledger, t Transport, store session.Store, timeout time.Duration, currencySymbol, settleDescription string) *Engine {
	return &Engine{
		ledger:      l,
		chat:        t,
		store:       store,
		timeout:     timeout,
		symbol:      currencySymbol,
		description: settleDescription,
		chats:       make(map[string]*chatState),
	}
}

func (e *Engine) chatFor(chatID string) *chatState {
	e.mu.Lock()
	defer e.mu.Unlock()
	c, ok := e.chats[chatID]
	if !ok {
		c = &chatState{}
		e.chats[chatID] = c
	}
	return c
}

// Start enters the settle dialogue for a chat. A start while a dialogue
// is already active resets it, discarding any uncommitted selection.
func (e *Engine) Start(ctx context.Context, chatID string) error {
	c := e.chatFor(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	sctx := session.NewContext(e.store, chatID)
	cred, err := sctx.Credential(ctx)
	if err != nil {
		return err
	}
	if cred == nil {
		return e.chat.SendText(chatID, msgNotConnected)
	}

	contacts, err := e.ledger.ContactsWithBalances(ctx, cred)
	if err != nil {
		return e.chat.SendText(chatID, userMessage(err))
	}

	_, owedByUser := balance.Partition(contacts)
	if len(owedByUser) == 0 {
		return e.chat.SendText(chatID, msgNothingOwed)
	}

	nonce := uuid.NewString()
	rows := candidateRows(owedByUser, nonce)

	messageID, err := e.chat.SendButtons(chatID, msgSettleWith, rows)
	if err != nil {
		return fmt.Errorf("failed to present candidates: %w", err)
	}

	if err := sctx.ResetDialogue(ctx); err != nil {
		return err
	}
	if err := sctx.SetState(ctx, StateSelectContact); err != nil {
		return err
	}
	if err := sctx.SetNonce(ctx, nonce); err != nil {
		return err
	}
	if err := sctx.SetLastMessageID(ctx, messageID); err != nil {
		return err
	}

	e.armTimer(c, chatID)
	return nil
}

// HandleCallback processes a button click. The payload carries the kind,
// the dialogue nonce and the argument, so clicks on a previous render are
// rejected without touching state.
func (e *Engine) HandleCallback(ctx context.Context, chatID, payload string) error {
	c := e.chatFor(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	kind, nonce, arg, ok := parsePayload(payload)
	if !ok {
		return e.chat.SendText(chatID, msgStaleButtons)
	}

	sctx := session.NewContext(e.store, chatID)
	live, err := e.dialogueLive(ctx, sctx, nonce)
	if err != nil {
		return err
	}
	if !live {
		return e.chat.SendText(chatID, msgStaleButtons)
	}

	state, err := sctx.State(ctx)
	if err != nil {
		return err
	}

	switch {
	case kind == payloadSettle && state == StateSelectContact:
		return e.takeSelection(ctx, c, sctx, chatID, nonce, arg)
	case kind == payloadConfirm && state == StateConfirm:
		return e.finishConfirm(ctx, c, sctx, chatID, arg)
	default:
		return e.chat.SendText(chatID, msgStaleButtons)
	}
}

// dialogueLive reports whether an active dialogue exists and the click
// belongs to its current render.
func (e *Engine) dialogueLive(ctx context.Context, sctx *session.Context, nonce string) (bool, error) {
	complete, err := sctx.Completed(ctx)
	if err != nil {
		return false, err
	}
	if complete {
		return false, nil
	}
	state, err := sctx.State(ctx)
	if err != nil {
		return false, err
	}
	if state == "" {
		return false, nil
	}
	current, err := sctx.Nonce(ctx)
	if err != nil {
		return false, err
	}
	return current != "" && current == nonce, nil
}

func (e *Engine) takeSelection(ctx context.Context, c *chatState, sctx *session.Context, chatID, nonce, arg string) error {
	contactID, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return e.chat.SendText(chatID, msgStaleButtons)
	}

	cred, err := sctx.Credential(ctx)
	if err != nil {
		return err
	}

	// Re-query instead of trusting the rendered list: balances may have
	// changed between render and click.
	contacts, lerr := e.ledger.ContactsWithBalances(ctx, cred)
	if lerr != nil {
		return e.terminate(ctx, c, sctx, chatID, userMessage(lerr))
	}

	var selected *ledger.Contact
	for i := range contacts {
		if contacts[i].ID == contactID && !contacts[i].Balance.IsZero() {
			selected = &contacts[i]
			break
		}
	}
	if selected == nil {
		return e.terminate(ctx, c, sctx, chatID, msgStaleContact)
	}

	sel := &session.Selection{
		Name:      selected.Name,
		Amount:    selected.Balance.Abs(),
		ContactID: selected.ID,
	}
	if err := sctx.SetSelection(ctx, sel); err != nil {
		return err
	}
	if err := sctx.SetState(ctx, StateConfirm); err != nil {
		return err
	}

	messageID, err := sctx.LastMessageID(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf("Settle balance with %s of %s%s?", sel.Name, e.symbol, sel.Amount.String())
	rows := [][]Button{{
		{Label: "Yes", Payload: payloadConfirm + ":" + nonce + ":yes"},
		{Label: "No", Payload: payloadConfirm + ":" + nonce + ":no"},
	}}
	if err := e.chat.EditButtons(chatID, messageID, text, rows); err != nil {
		return fmt.Errorf("failed to ask for confirmation: %w", err)
	}

	e.armTimer(c, chatID)
	return nil
}

func (e *Engine) finishConfirm(ctx context.Context, c *chatState, sctx *session.Context, chatID, arg string) error {
	if arg != "yes" {
		return e.terminate(ctx, c, sctx, chatID, msgNotSettled)
	}

	sel, err := sctx.Selection(ctx)
	if err != nil {
		return err
	}
	cred, err := sctx.Credential(ctx)
	if err != nil {
		return err
	}
	if sel == nil || cred == nil {
		return e.terminate(ctx, c, sctx, chatID, msgCommitFailed)
	}

	selfID, lerr := e.ledger.CurrentUserID(ctx, cred)
	if lerr == nil {
		lerr = e.ledger.CreateSettlingExpense(ctx, cred, selfID, sel.ContactID, sel.Amount, e.description)
	}
	if lerr != nil {
		// Never report success when the ledger call failed.
		log.Printf("dialogue: settle commit failed for chat %s: %v", chatID, lerr)
		return e.terminate(ctx, c, sctx, chatID, msgCommitFailed)
	}

	log.Printf("dialogue: settled %s%s with contact %d in chat %s", e.symbol, sel.Amount.String(), sel.ContactID, chatID)
	return e.terminate(ctx, c, sctx, chatID, msgSettled)
}

// Cancel ends an active dialogue. Cancelling when no dialogue is active
// has no side effect.
func (e *Engine) Cancel(ctx context.Context, chatID string) error {
	c := e.chatFor(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	sctx := session.NewContext(e.store, chatID)
	state, err := sctx.State(ctx)
	if err != nil {
		return err
	}
	complete, err := sctx.Completed(ctx)
	if err != nil {
		return err
	}
	if state == "" || complete {
		return nil
	}
	return e.terminate(ctx, c, sctx, chatID, msgNotSettled)
}

// terminate marks the session complete, stops the timer, and replaces the
// last rendered message (dropping its buttons) with the outcome text.
func (e *Engine) terminate(ctx context.Context, c *chatState, sctx *session.Context, chatID, text string) error {
	if err := sctx.MarkComplete(ctx); err != nil {
		return err
	}
	e.stopTimer(c)

	messageID, err := sctx.LastMessageID(ctx)
	if err != nil {
		return err
	}
	if messageID == "" {
		return e.chat.SendText(chatID, text)
	}
	return e.chat.EditText(chatID, messageID, text)
}

func (e *Engine) armTimer(c *chatState, chatID string) {
	if c.timer != nil {
		c.timer.Stop()
	}
	c.gen++
	gen := c.gen
	c.timer = time.AfterFunc(e.timeout, func() {
		e.expire(chatID, gen)
	})
}

func (e *Engine) stopTimer(c *chatState) {
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.gen++
}

func (e *Engine) expire(chatID string, gen uint64) {
	c := e.chatFor(chatID)
	c.mu.Lock()
	defer c.mu.Unlock()

	// A newer event re-armed or stopped the timer while this one fired.
	if c.gen != gen {
		return
	}

	ctx := context.Background()
	sctx := session.NewContext(e.store, chatID)
	state, err := sctx.State(ctx)
	if err != nil {
		log.Printf("dialogue: timeout check failed for chat %s: %v", chatID, err)
		return
	}
	complete, err := sctx.Completed(ctx)
	if err != nil {
		log.Printf("dialogue: timeout check failed for chat %s: %v", chatID, err)
		return
	}
	if state == "" || complete {
		return
	}

	if err := e.terminate(ctx, c, sctx, chatID, msgExpired); err != nil {
		log.Printf("dialogue: failed to expire session for chat %s: %v", chatID, err)
	}
}

// candidateRows lays contacts out two buttons per row; the last row may
// be partial.
func candidateRows(contacts []ledger.Contact, nonce string) [][]Button {
	var rows [][]Button
	var row []Button
	for _, c := range contacts {
		row = append(row, Button{
			Label:   c.Name,
			Payload: payloadSettle + ":" + nonce + ":" + strconv.FormatInt(c.ID, 10),
		})
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return rows
}

func parsePayload(payload string) (kind, nonce, arg string, ok bool) {
	parts := strings.SplitN(payload, ":", 3)
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return "", "", "", false
	}
	return parts[0], parts[1], parts[2], true
}

func userMessage(err error) string {
	if errors.Is(err, ledger.ErrAuthRequired) {
		return msgNotConnected
	}
	return msgLedgerFailure
}
