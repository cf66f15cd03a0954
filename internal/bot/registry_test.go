package bot

import (
	"context"
	"strings"
	"testing"
)

func TestRegistryDispatch(t *testing.T) {
	r := NewRegistry()

	var handled, fellBack string
	r.Register("settle_expense", "Settle expenses", func(ctx context.Context, ev Event) error {
		handled = ev.ChatID
		return nil
	})
	r.SetFallback(func(ctx context.Context, ev Event) error {
		fellBack = ev.ChatID
		return nil
	})

	if err := r.Dispatch(context.Background(), "settle_expense", Event{ChatID: "chat-1"}); err != nil {
		t.Fatal(err)
	}
	if handled != "chat-1" {
		t.Errorf("handler not invoked, handled = %q", handled)
	}

	if err := r.Dispatch(context.Background(), "bogus", Event{ChatID: "chat-2"}); err != nil {
		t.Fatal(err)
	}
	if fellBack != "chat-2" {
		t.Errorf("fallback not invoked, fellBack = %q", fellBack)
	}
}

func TestRegistryDispatchWithoutFallback(t *testing.T) {
	r := NewRegistry()
	if err := r.Dispatch(context.Background(), "bogus", Event{}); err != nil {
		t.Errorf("unknown command without fallback should be a no-op, got %v", err)
	}
}

func TestRegistryHelp(t *testing.T) {
	r := NewRegistry()
	noop := func(ctx context.Context, ev Event) error { return nil }
	r.Register("list_expense", "List expenses from your Splitwise account", noop)
	r.Register("settle_expense", "Settle expenses in your Splitwise account", noop)

	help := r.Help()
	if !strings.HasPrefix(help, "The following commands are available:") {
		t.Errorf("unexpected help header: %q", help)
	}
	for _, want := range []string{
		"/list_expense: List expenses from your Splitwise account",
		"/settle_expense: Settle expenses in your Splitwise account",
	} {
		if !strings.Contains(help, want) {
			t.Errorf("help missing %q:\n%s", want, help)
		}
	}

	// Registration order is preserved.
	if strings.Index(help, "/list_expense") > strings.Index(help, "/settle_expense") {
		t.Error("help is not in registration order")
	}
}
