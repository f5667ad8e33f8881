package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

// BookkeepingTransaction is a single ledger entry as returned by the external
// bookkeeping system's API. Amounts come over the wire as strings to avoid
// float rounding; the sync worker parses them into decimals.
type BookkeepingTransaction struct {
	ExternalID      string `json:"id"`
	UnitID          string `json:"unit_id"`
	EntryDate       string `json:"entry_date"` // YYYY-MM-DD
	Amount          string `json:"amount"`
	Description     string `json:"description"`
	CorrelationCode string `json:"correlation_code,omitempty"`
	Approved        bool   `json:"approved"`
	Deleted         bool   `json:"deleted"`
}

// BookkeepingPage is the paginated response envelope of the bookkeeping API.
type BookkeepingPage struct {
	Transactions []BookkeepingTransaction `json:"transactions"`
	NextCursor   string                   `json:"next_cursor"`
}

// BookkeepingClient pulls approved cash entries from the external bookkeeping
// system. Failures here must never block the closing flow; the ledger sync
// cron wraps calls in a circuit breaker.
type BookkeepingClient struct {
	baseURL    string
	httpClient *http.Client
}

func NewBookkeepingClient(baseURL string) *BookkeepingClient {
	return &BookkeepingClient{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchTransactions retrieves one page of ledger entries updated since the
// given date. An empty cursor starts from the first page.
func (c *BookkeepingClient) FetchTransactions(ctx context.Context, since time.Time, cursor string, limit int) (*BookkeepingPage, error) {
	q := url.Values{}
	q.Set("since", since.Format("2006-01-02"))
	q.Set("limit", fmt.Sprintf("%d", limit))
	if cursor != "" {
		q.Set("cursor", cursor)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/transactions?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("bookkeeping: create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("bookkeeping: unreachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("bookkeeping: returned %d", resp.StatusCode)
	}

	var page BookkeepingPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("bookkeeping: decode response: %w", err)
	}
	return &page, nil
}
