package bot

import (
	"context"
	"errors"
	"log"

	"github.com/splitbot/splitbot/internal/auth"
	"github.com/splitbot/splitbot/internal/balance"
	"github.com/splitbot/splitbot/internal/dialogue"
	"github.com/splitbot/splitbot/internal/ledger"
	"github.com/splitbot/splitbot/internal/session"
)

const (
	msgNotConnected   = "Your account is not connected. Send /connect to link your Splitwise account."
	msgLedgerFailure  = "Something went wrong talking to Splitwise. Please try again later."
	msgConnected      = "Your Splitwise account is connected! Send /list_expense to see your balances."
	msgConnectFailed  = "Could not connect your account. Send /connect to try again."
	msgNoBalances     = "You have no outstanding balances."
	msgStartUsage     = "Usage: /start <code> with the code from the authorization page."
	msgUnknownCommand = "Sorry, I didn't understand that command."
)

// Services are the collaborators the command handlers call into.
type Services struct {
	Auth     *auth.Service
	Balances *balance.Service
	Engine   *dialogue.Engine
	Store    session.Store
}

type handlers struct {
	bot      *Bot
	svc      Services
	registry *Registry
}

// NewRouter builds the static command registry.
func NewRouter(b *Bot, svc Services) *Registry {
	h := &handlers{bot: b, svc: svc}

	r := NewRegistry()
	r.Register("start", "Finish connecting your Splitwise account", h.start)
	r.Register("connect", "Connect your Splitwise account", h.connect)
	r.Register("help", "Show the available commands", h.help)
	r.Register("list_expense", "List expenses from your Splitwise account", h.listExpense)
	r.Register("settle_expense", "Settle expenses in your Splitwise account", h.settleExpense)
	r.Register("cancel", "Cancel the current settle session", h.cancel)
	r.SetFallback(h.unknown)

	h.registry = r
	return r
}

func (h *handlers) connect(ctx context.Context, ev Event) error {
	url, err := h.svc.Auth.BeginConnect(ev.ChatID)
	if err != nil {
		log.Printf("bot: failed to build authorize URL for chat %s: %v", ev.ChatID, err)
		return h.bot.SendText(ev.ChatID, msgConnectFailed)
	}
	return h.bot.SendText(ev.ChatID, url)
}

func (h *handlers) start(ctx context.Context, ev Event) error {
	if len(ev.Args) == 0 {
		return h.bot.SendText(ev.ChatID, msgStartUsage)
	}
	if err := h.svc.Auth.Complete(ctx, ev.ChatID, ev.Args[0]); err != nil {
		log.Printf("bot: manual auth completion failed for chat %s: %v", ev.ChatID, err)
		return h.bot.SendText(ev.ChatID, msgConnectFailed)
	}
	return h.bot.SendText(ev.ChatID, msgConnected)
}

func (h *handlers) help(ctx context.Context, ev Event) error {
	return h.bot.SendText(ev.ChatID, h.registry.Help())
}

func (h *handlers) listExpense(ctx context.Context, ev Event) error {
	sctx := session.NewContext(h.svc.Store, ev.ChatID)
	cred, err := sctx.Credential(ctx)
	if err != nil {
		return err
	}
	if cred == nil {
		return h.bot.SendText(ev.ChatID, msgNotConnected)
	}

	contacts, err := h.svc.Balances.ListContactsWithBalances(ctx, cred)
	if err != nil {
		if errors.Is(err, ledger.ErrAuthRequired) {
			return h.bot.SendText(ev.ChatID, msgNotConnected)
		}
		log.Printf("bot: list_expense failed for chat %s: %v", ev.ChatID, err)
		return h.bot.SendText(ev.ChatID, msgLedgerFailure)
	}
	if len(contacts) == 0 {
		return h.bot.SendText(ev.ChatID, msgNoBalances)
	}
	return h.bot.SendText(ev.ChatID, h.svc.Balances.RenderSummary(contacts))
}

func (h *handlers) settleExpense(ctx context.Context, ev Event) error {
	return h.svc.Engine.Start(ctx, ev.ChatID)
}

func (h *handlers) cancel(ctx context.Context, ev Event) error {
	return h.svc.Engine.Cancel(ctx, ev.ChatID)
}

func (h *handlers) unknown(ctx context.Context, ev Event) error {
	return h.bot.SendText(ev.ChatID, msgUnknownCommand)
}
