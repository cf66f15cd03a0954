// Package balance turns ledger balances into the summaries the bot shows.
package balance

import (
	"context"
	"strings"

	"github.com/splitbot/splitbot/internal/ledger"
)

// Gateway is the slice of the ledger client this service needs.
type Gateway interface {
	ContactsWithBalances(ctx context.Context, cred *ledger.Credential) ([]ledger.Contact, error)
}

type Service struct {
	gateway Gateway
	symbol  string
}

func NewService(gateway Gateway, currencySymbol string) *Service {
	return &Service{gateway: gateway, symbol: currencySymbol}
}

// ListContactsWithBalances fetches contacts with a nonzero balance, in
// ledger order. Failures (including a missing credential) propagate to
// the caller untouched.
func (s *Service) ListContactsWithBalances(ctx context.Context, cred *ledger.Credential) ([]ledger.Contact, error) {
	return s.gateway.ContactsWithBalances(ctx, cred)
}

// Partition splits contacts by the sign of their balance. Every contact
// lands in exactly one of the two slices.
func Partition(contacts []ledger.Contact) (owedToUser, owedByUser []ledger.Contact) {
	for _, c := range contacts {
		if c.Balance.IsPositive() {
			owedToUser = append(owedToUser, c)
		} else {
			owedByUser = append(owedByUser, c)
		}
	}
	return owedToUser, owedByUser
}

// RenderSummary formats the two-section balance overview. Amounts are
// always shown as absolute values.
func (s *Service) RenderSummary(contacts []ledger.Contact) string {
	owedToUser, owedByUser := Partition(contacts)

	var b strings.Builder
	b.WriteString("OWES YOU:\n")
	for _, c := range owedToUser {
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(s.symbol)
		b.WriteString(c.Balance.Abs().String())
		b.WriteString("\n")
	}
	b.WriteString("\nYOU OWE:\n")
	for _, c := range owedByUser {
		b.WriteString(c.Name)
		b.WriteString(": ")
		b.WriteString(s.symbol)
		b.WriteString(c.Balance.Abs().String())
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
