package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/oauth2"
)

var (
	// ErrAuthRequired means no usable credential was available for the call.
	ErrAuthRequired = errors.New("account not connected")
	// ErrLedgerFailure wraps any API-level failure from Splitwise.
	ErrLedgerFailure = errors.New("splitwise request failed")
)

// Contact is a friend with a tracked balance relative to the current user.
// A positive balance means the contact owes the user, negative means the
// user owes the contact.
type Contact struct {
	ID      int64
	Name    string
	Balance decimal.Decimal
}

// Credential is the token pair obtained from the OAuth2 exchange, stored
// per chat session.
type Credential struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
}

type Client struct {
	apiURL string
	http   *http.Client
	oauth  *oauth2.Config
}

func NewClient(clientID, clientSecret, apiURL, redirectURI string) *Client {
	apiURL = strings.TrimRight(apiURL, "/")
	return &Client{
		apiURL: apiURL,
		http:   &http.Client{Timeout: 15 * time.Second},
		oauth: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  redirectURI,
			Endpoint: oauth2.Endpoint{
				AuthURL:  apiURL + "/oauth/authorize",
				TokenURL: apiURL + "/oauth/token",
			},
		},
	}
}

// AuthorizeURL builds the URL the user must visit to authorize the bot.
// The state parameter is echoed back on the callback.
func (c *Client) AuthorizeURL(state string) string {
	return c.oauth.AuthCodeURL(state)
}

// Exchange trades an authorization code for an access token.
func (c *Client) Exchange(ctx context.Context, code string) (*Credential, error) {
	token, err := c.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("token exchange failed: %w", err)
	}
	return &Credential{AccessToken: token.AccessToken, TokenType: token.TokenType}, nil
}

type currentUserResponse struct {
	User struct {
		ID int64 `json:"id"`
	} `json:"user"`
}

// CurrentUserID returns the ledger id of the authenticated user.
func (c *Client) CurrentUserID(ctx context.Context, cred *Credential) (int64, error) {
	var out currentUserResponse
	if err := c.get(ctx, cred, "/get_current_user", &out); err != nil {
		return 0, err
	}
	return out.User.ID, nil
}

type friendsResponse struct {
	Friends []struct {
		ID        int64  `json:"id"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Balance   []struct {
			CurrencyCode string `json:"currency_code"`
			Amount       string `json:"amount"`
		} `json:"balance"`
	} `json:"friends"`
}

// ContactsWithBalances fetches all friends and keeps those with at least
// one nonzero balance entry, in the order Splitwise returned them. The
// ledger is the source of truth, so the result is never cached.
func (c *Client) ContactsWithBalances(ctx context.Context, cred *Credential) ([]Contact, error) {
	var out friendsResponse
	if err := c.get(ctx, cred, "/get_friends", &out); err != nil {
		return nil, err
	}

	var contacts []Contact
	for _, f := range out.Friends {
		if len(f.Balance) == 0 {
			continue
		}
		amount, err := decimal.NewFromString(f.Balance[0].Amount)
		if err != nil {
			return nil, fmt.Errorf("%w: bad balance amount %q for friend %d", ErrLedgerFailure, f.Balance[0].Amount, f.ID)
		}
		if amount.IsZero() {
			continue
		}
		name := strings.TrimSpace(f.FirstName + " " + f.LastName)
		contacts = append(contacts, Contact{ID: f.ID, Name: name, Balance: amount})
	}
	return contacts, nil
}

type createExpenseResponse struct {
	Errors map[string][]string `json:"errors"`
}

// CreateSettlingExpense records a single expense where the payer paid the
// full amount and owes nothing, and the payee paid nothing and owes the
// full amount, netting their mutual balance toward zero.
func (c *Client) CreateSettlingExpense(ctx context.Context, cred *Credential, payerID, payeeID int64, amount decimal.Decimal, description string) error {
	form := url.Values{}
	form.Set("cost", amount.String())
	form.Set("description", description)
	form.Set("users__0__user_id", strconv.FormatInt(payerID, 10))
	form.Set("users__0__paid_share", amount.String())
	form.Set("users__0__owed_share", "0")
	form.Set("users__1__user_id", strconv.FormatInt(payeeID, 10))
	form.Set("users__1__paid_share", "0")
	form.Set("users__1__owed_share", amount.String())

	var out createExpenseResponse
	if err := c.postForm(ctx, cred, "/create_expense", form, &out); err != nil {
		return err
	}
	if len(out.Errors) > 0 {
		return fmt.Errorf("%w: %v", ErrLedgerFailure, out.Errors)
	}
	return nil
}

func (c *Client) get(ctx context.Context, cred *Credential, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.apiURL+"/api/v3.0"+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, cred, out)
}

func (c *Client) postForm(ctx context.Context, cred *Credential, path string, form url.Values, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL+"/api/v3.0"+path, strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return c.do(req, cred, out)
}

func (c *Client) do(req *http.Request, cred *Credential, out interface{}) error {
	if cred == nil || cred.AccessToken == "" {
		return ErrAuthRequired
	}
	req.Header.Set("Authorization", "Bearer "+cred.AccessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerFailure, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return ErrAuthRequired
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: splitwise API returned status %d", ErrLedgerFailure, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrLedgerFailure, err)
	}
	return nil
}
