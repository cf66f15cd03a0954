package session

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitbot/splitbot/internal/ledger"
)

func TestCredentialRoundTrip(t *testing.T) {
	store := NewMemory()
	sctx := NewContext(store, "chat-1")
	ctx := context.Background()

	cred, err := sctx.Credential(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cred != nil {
		t.Fatal("expected no credential before SetCredential")
	}

	if err := sctx.SetCredential(ctx, &ledger.Credential{AccessToken: "tok", TokenType: "Bearer"}); err != nil {
		t.Fatal(err)
	}
	cred, err = sctx.Credential(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cred == nil || cred.AccessToken != "tok" || cred.TokenType != "Bearer" {
		t.Errorf("got %+v", cred)
	}
}

func TestSelectionRoundTrip(t *testing.T) {
	store := NewMemory()
	sctx := NewContext(store, "chat-1")
	ctx := context.Background()

	want := &Selection{Name: "Bob", Amount: decimal.NewFromInt(75), ContactID: 2}
	if err := sctx.SetSelection(ctx, want); err != nil {
		t.Fatal(err)
	}

	got, err := sctx.Selection(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got == nil || got.Name != "Bob" || got.ContactID != 2 || !got.Amount.Equal(want.Amount) {
		t.Errorf("got %+v", got)
	}
}

func TestCompletionFlag(t *testing.T) {
	store := NewMemory()
	sctx := NewContext(store, "chat-1")
	ctx := context.Background()

	complete, err := sctx.Completed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Fatal("fresh session reported complete")
	}

	if err := sctx.MarkComplete(ctx); err != nil {
		t.Fatal(err)
	}
	complete, err = sctx.Completed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if !complete {
		t.Error("MarkComplete did not stick")
	}
}

func TestResetDialogueKeepsCredential(t *testing.T) {
	store := NewMemory()
	sctx := NewContext(store, "chat-1")
	ctx := context.Background()

	if err := sctx.SetCredential(ctx, &ledger.Credential{AccessToken: "tok"}); err != nil {
		t.Fatal(err)
	}
	if err := sctx.SetState(ctx, "confirm"); err != nil {
		t.Fatal(err)
	}
	if err := sctx.SetNonce(ctx, "nonce"); err != nil {
		t.Fatal(err)
	}
	if err := sctx.MarkComplete(ctx); err != nil {
		t.Fatal(err)
	}

	if err := sctx.ResetDialogue(ctx); err != nil {
		t.Fatal(err)
	}

	state, err := sctx.State(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if state != "" {
		t.Errorf("state survived reset: %q", state)
	}
	complete, err := sctx.Completed(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if complete {
		t.Error("completion flag survived reset")
	}
	cred, err := sctx.Credential(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if cred == nil {
		t.Error("credential must survive a dialogue reset")
	}
}
