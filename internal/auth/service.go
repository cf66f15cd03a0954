// Package auth runs the account-connection flow: issue an authorize URL
// for a chat, then store the exchanged credential in that chat's session.
package auth

import (
	"context"
	"fmt"
	"log"

	"github.com/splitbot/splitbot/internal/ledger"
	"github.com/splitbot/splitbot/internal/session"
)

// Ledger is the slice of the ledger client the connect flow needs.
type Ledger interface {
	AuthorizeURL(state string) string
	Exchange(ctx context.Context, code string) (*ledger.Credential, error)
}

type Service struct {
	ledger Ledger
	store  session.Store
	signer *StateSigner
}

func NewService(l Ledger, store session.Store, signer *StateSigner) *Service {
	return &Service{ledger: l, store: store, signer: signer}
}

// BeginConnect returns the URL the user must visit to authorize the bot
// for this chat.
func (s *Service) BeginConnect(chatID string) (string, error) {
	state, err := s.signer.Sign(chatID)
	if err != nil {
		return "", err
	}
	return s.ledger.AuthorizeURL(state), nil
}

// Complete exchanges the authorization code and stores the credential for
// the chat.
func (s *Service) Complete(ctx context.Context, chatID, code string) error {
	cred, err := s.ledger.Exchange(ctx, code)
	if err != nil {
		return err
	}
	sctx := session.NewContext(s.store, chatID)
	if err := sctx.SetCredential(ctx, cred); err != nil {
		return err
	}
	log.Printf("auth: connected account for chat %s", chatID)
	return nil
}

// CompleteFromState verifies a callback's state token and completes the
// exchange for the chat it names.
func (s *Service) CompleteFromState(ctx context.Context, code, state string) (string, error) {
	chatID, err := s.signer.Verify(state)
	if err != nil {
		return "", fmt.Errorf("rejected auth callback: %w", err)
	}
	if err := s.Complete(ctx, chatID, code); err != nil {
		return "", err
	}
	return chatID, nil
}
