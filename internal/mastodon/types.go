package mastodon

import "fmt"

// App is an OAuth application registered on an instance.
type App struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"` // #nosec G117 - JSON field for OAuth app, not an exposed secret
}

// Status is a posted status (toot).
type Status struct {
	ID         string `json:"id"`
	URL        string `json:"url"`
	Content    string `json:"content"`
	Visibility string `json:"visibility"`
	CreatedAt  string `json:"created_at"`
}

// Account is the authenticated account.
type Account struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Acct     string `json:"acct"`
}

// APIError is a non-200 response from the instance.
type APIError struct {
	StatusCode int
	Message    string
	Detail     string
}

func (e *APIError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s: %s", e.Message, e.Detail)
	}
	return e.Message
}
