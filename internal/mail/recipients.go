package mail

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"invrep/pkg/logx"
)

const recipientsQuery = `query {
    inventoryDashboardEmailRecipients {
        status
        data {
            email
        }
        message
    }
}`

// Resolver decides who the report goes to. With the API disabled it returns
// the static list untouched; enabled, it queries the ERP and falls back to
// the static list on any failure. Resolve never returns an error.
type Resolver struct {
	Endpoint string
	Token    string
	Timeout  time.Duration
	Client   *http.Client

	Log logx.Logger
}

type recipientsResponse struct {
	Data struct {
		InventoryDashboardEmailRecipients *struct {
			Status string `json:"status"`
			Data   []struct {
				Email string `json:"email"`
			} `json:"data"`
			Message string `json:"message"`
		} `json:"inventoryDashboardEmailRecipients"`
	} `json:"data"`
}

// Resolve returns the recipient list for this run.
func (r *Resolver) Resolve(ctx context.Context, static []string, useAPI bool) []string {
	if !useAPI {
		r.Log.Info("recipient api disabled, using configured list", logx.Int("count", len(static)))
		return append([]string(nil), static...)
	}

	emails, err := r.fetch(ctx)
	if err != nil {
		r.Log.Warn("recipient fetch failed, falling back to configured list",
			logx.Err(err), logx.Int("fallback_count", len(static)))
		return append([]string(nil), static...)
	}
	r.Log.Info("resolved recipients from erp", logx.Int("count", len(emails)))
	return emails
}

func (r *Resolver) fetch(ctx context.Context) ([]string, error) {
	if r.Endpoint == "" {
		return nil, fmt.Errorf("erp endpoint is not configured")
	}

	payload, err := json.Marshal(map[string]string{"query": recipientsQuery})
	if err != nil {
		return nil, err
	}

	timeout := r.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.Endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if r.Token != "" {
		req.Header.Set("X-Internal-Token", r.Token)
	} else {
		r.Log.Warn("erp api token not configured, requesting without authentication")
	}

	client := r.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("erp api returned http %d", resp.StatusCode)
	}

	var decoded recipientsResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("decode erp response: %w", err)
	}

	result := decoded.Data.InventoryDashboardEmailRecipients
	if result == nil {
		return nil, fmt.Errorf("erp response missing inventoryDashboardEmailRecipients")
	}
	if result.Status != "" && !strings.EqualFold(result.Status, "success") {
		return nil, fmt.Errorf("erp api status %q: %s", result.Status, result.Message)
	}

	seen := make(map[string]bool)
	var emails []string
	for _, item := range result.Data {
		e := strings.ToLower(strings.TrimSpace(item.Email))
		if e == "" || !strings.Contains(e, "@") || seen[e] {
			continue
		}
		seen[e] = true
		emails = append(emails, e)
	}
	if len(emails) == 0 {
		return nil, fmt.Errorf("erp api returned no valid recipients")
	}
	return emails, nil
}
