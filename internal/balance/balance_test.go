package balance

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/splitbot/splitbot/internal/ledger"
)

type fakeGateway struct {
	contacts []ledger.Contact
	err      error
}

func (f *fakeGateway) ContactsWithBalances(ctx context.Context, cred *ledger.Credential) ([]ledger.Contact, error) {
	return f.contacts, f.err
}

func TestPartition(t *testing.T) {
	tests := []struct {
		name          string
		contacts      []ledger.Contact
		wantOwedToYou []string
		wantYouOwe    []string
	}{
		{
			name: "mixed signs",
			contacts: []ledger.Contact{
				{ID: 1, Name: "Alice", Balance: decimal.NewFromInt(150)},
				{ID: 2, Name: "Bob", Balance: decimal.NewFromInt(-75)},
				{ID: 3, Name: "Carol", Balance: decimal.NewFromInt(-20)},
			},
			wantOwedToYou: []string{"Alice"},
			wantYouOwe:    []string{"Bob", "Carol"},
		},
		{
			name: "all positive",
			contacts: []ledger.Contact{
				{ID: 1, Name: "Alice", Balance: decimal.NewFromInt(5)},
			},
			wantOwedToYou: []string{"Alice"},
			wantYouOwe:    nil,
		},
		{
			name:          "empty",
			contacts:      nil,
			wantOwedToYou: nil,
			wantYouOwe:    nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			owedToUser, owedByUser := Partition(tt.contacts)
			if len(owedToUser)+len(owedByUser) != len(tt.contacts) {
				t.Fatalf("partition is not exhaustive: %d + %d != %d",
					len(owedToUser), len(owedByUser), len(tt.contacts))
			}
			checkNames(t, "owedToUser", owedToUser, tt.wantOwedToYou)
			checkNames(t, "owedByUser", owedByUser, tt.wantYouOwe)
		})
	}
}

func checkNames(t *testing.T, label string, got []ledger.Contact, want []string) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("%s: got %d contacts, want %d", label, len(got), len(want))
	}
	for i, name := range want {
		if got[i].Name != name {
			t.Errorf("%s[%d] = %q, want %q", label, i, got[i].Name, name)
		}
	}
}

func TestRenderSummary(t *testing.T) {
	svc := NewService(&fakeGateway{}, "₹")

	contacts := []ledger.Contact{
		{ID: 1, Name: "Alice", Balance: decimal.NewFromInt(150)},
		{ID: 2, Name: "Bob", Balance: decimal.NewFromInt(-75)},
	}

	want := "OWES YOU:\nAlice: ₹150\n\nYOU OWE:\nBob: ₹75"
	if got := svc.RenderSummary(contacts); got != want {
		t.Errorf("RenderSummary() = %q, want %q", got, want)
	}
}

func TestRenderSummaryShowsAbsoluteAmounts(t *testing.T) {
	svc := NewService(&fakeGateway{}, "$")

	amount, err := decimal.NewFromString("-33.50")
	if err != nil {
		t.Fatal(err)
	}
	contacts := []ledger.Contact{{ID: 2, Name: "Bob", Balance: amount}}

	want := "OWES YOU:\n\nYOU OWE:\nBob: $33.5"
	if got := svc.RenderSummary(contacts); got != want {
		t.Errorf("RenderSummary() = %q, want %q", got, want)
	}
}

func TestListContactsPropagatesErrors(t *testing.T) {
	svc := NewService(&fakeGateway{err: ledger.ErrAuthRequired}, "₹")

	_, err := svc.ListContactsWithBalances(context.Background(), nil)
	if err != ledger.ErrAuthRequired {
		t.Errorf("got %v, want ErrAuthRequired", err)
	}
}
