// Package sheets appends attendance event rows to a Google Sheets
// spreadsheet through the REST API.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

const defaultBaseURL = "https://sheets.googleapis.com"

// Client appends rows to one spreadsheet range.
type Client struct {
	spreadsheetID string
	appendRange   string
	baseURL       string
	http          *http.Client
	tokens        tokenProvider
}

// New creates a client for the given spreadsheet. appendRange is an A1 range
// such as "DailyEvents!A:G".
func New(spreadsheetID, appendRange string, creds Credentials) *Client {
	httpClient := &http.Client{Timeout: 15 * time.Second}
	return &Client{
		spreadsheetID: spreadsheetID,
		appendRange:   appendRange,
		baseURL:       defaultBaseURL,
		http:          httpClient,
		tokens:        newServiceAccountTokens(creds, httpClient),
	}
}

// Append writes one row to the end of the range. Delivery is attempted once;
// the caller decides what a failure means.
func (c *Client) Append(ctx context.Context, row []string) error {
	token, err := c.tokens.Token(ctx)
	if err != nil {
		return fmt.Errorf("sheets auth: %w", err)
	}

	payload, err := json.Marshal(map[string][][]string{"values": {row}})
	if err != nil {
		return fmt.Errorf("sheets encode row: %w", err)
	}

	endpoint := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s:append?valueInputOption=USER_ENTERED",
		c.baseURL, url.PathEscape(c.spreadsheetID), url.PathEscape(c.appendRange))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("sheets create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("sheets append failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("sheets append failed (%d): %s", resp.StatusCode, string(body))
	}
	return nil
}
