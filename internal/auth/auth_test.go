package auth

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/splitbot/splitbot/internal/ledger"
	"github.com/splitbot/splitbot/internal/session"
)

func TestStateSignerRoundTrip(t *testing.T) {
	signer := NewStateSigner([]byte("secret"))

	state, err := signer.Sign("chat-42")
	if err != nil {
		t.Fatal(err)
	}

	chatID, err := signer.Verify(state)
	if err != nil {
		t.Fatal(err)
	}
	if chatID != "chat-42" {
		t.Errorf("chatID = %q, want chat-42", chatID)
	}
}

func TestStateSignerRejectsBadTokens(t *testing.T) {
	signer := NewStateSigner([]byte("secret"))
	other := NewStateSigner([]byte("different-secret"))

	signed, err := other.Sign("chat-42")
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name  string
		state string
	}{
		{name: "garbage", state: "not-a-token"},
		{name: "empty", state: ""},
		{name: "wrong secret", state: signed},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := signer.Verify(tt.state); err == nil {
				t.Error("expected verification to fail")
			}
		})
	}
}

type fakeLedger struct {
	cred *ledger.Credential
	err  error
}

func (f *fakeLedger) AuthorizeURL(state string) string {
	return "https://ledger.example/oauth/authorize?state=" + state
}

func (f *fakeLedger) Exchange(ctx context.Context, code string) (*ledger.Credential, error) {
	return f.cred, f.err
}

func TestBeginConnectEmbedsState(t *testing.T) {
	store := session.NewMemory()
	signer := NewStateSigner([]byte("secret"))
	svc := NewService(&fakeLedger{}, store, signer)

	url, err := svc.BeginConnect("chat-42")
	if err != nil {
		t.Fatal(err)
	}

	state := strings.TrimPrefix(url, "https://ledger.example/oauth/authorize?state=")
	chatID, err := signer.Verify(state)
	if err != nil {
		t.Fatal(err)
	}
	if chatID != "chat-42" {
		t.Errorf("state names chat %q, want chat-42", chatID)
	}
}

func TestCompleteStoresCredential(t *testing.T) {
	store := session.NewMemory()
	svc := NewService(&fakeLedger{cred: &ledger.Credential{AccessToken: "tok"}}, store, NewStateSigner([]byte("secret")))

	if err := svc.Complete(context.Background(), "chat-42", "the-code"); err != nil {
		t.Fatal(err)
	}

	cred, err := session.NewContext(store, "chat-42").Credential(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred == nil || cred.AccessToken != "tok" {
		t.Errorf("stored credential = %+v", cred)
	}
}

func TestCompleteFromState(t *testing.T) {
	store := session.NewMemory()
	signer := NewStateSigner([]byte("secret"))
	svc := NewService(&fakeLedger{cred: &ledger.Credential{AccessToken: "tok"}}, store, signer)

	state, err := signer.Sign("chat-42")
	if err != nil {
		t.Fatal(err)
	}

	chatID, err := svc.CompleteFromState(context.Background(), "the-code", state)
	if err != nil {
		t.Fatal(err)
	}
	if chatID != "chat-42" {
		t.Errorf("chatID = %q, want chat-42", chatID)
	}

	// A forged state never reaches the exchange.
	if _, err := svc.CompleteFromState(context.Background(), "the-code", "forged"); err == nil {
		t.Error("expected forged state to be rejected")
	}
}

func TestCompleteExchangeFailure(t *testing.T) {
	store := session.NewMemory()
	wantErr := errors.New("exchange blew up")
	svc := NewService(&fakeLedger{err: wantErr}, store, NewStateSigner([]byte("secret")))

	if err := svc.Complete(context.Background(), "chat-42", "the-code"); !errors.Is(err, wantErr) {
		t.Errorf("got %v, want %v", err, wantErr)
	}

	cred, err := session.NewContext(store, "chat-42").Credential(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if cred != nil {
		t.Error("no credential may be stored when the exchange fails")
	}
}
