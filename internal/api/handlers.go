package api

import (
	"log"
	"net/http"
	"strings"
)

const successPage = `<!DOCTYPE html>
<html>
<head><title>splitbot</title></head>
<body>
<h1>Account connected</h1>
<p>Your Splitwise account is linked. You can close this tab and return to your chat.</p>
</body>
</html>`

const failurePage = `<!DOCTYPE html>
<html>
<head><title>splitbot</title></head>
<body>
<h1>Authorization failed</h1>
<p>The link may have expired. Send /connect in your chat to try again.</p>
</body>
</html>`

func (a *API) handleCallback(w http.ResponseWriter, r *http.Request) {
	code := r.URL.Query().Get("code")
	state := r.URL.Query().Get("state")
	if code == "" || state == "" {
		http.Error(w, "missing code or state", http.StatusBadRequest)
		return
	}

	chatID, err := a.auth.CompleteFromState(r.Context(), code, state)
	if err != nil {
		log.Printf("api: auth callback failed: %v", err)
		status := http.StatusBadGateway
		if strings.Contains(err.Error(), "rejected auth callback") {
			status = http.StatusBadRequest
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(status)
		w.Write([]byte(failurePage))
		return
	}

	if err := a.notify.SendText(chatID, "Your Splitwise account is connected! Send /list_expense to see your balances."); err != nil {
		log.Printf("api: failed to notify chat %s: %v", chatID, err)
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Write([]byte(successPage))
}

func (a *API) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}
