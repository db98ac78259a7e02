package tradingview

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/wonny/screener/internal/contracts"
	"github.com/wonny/screener/pkg/httputil"
	"github.com/wonny/screener/pkg/logger"
)

// maxErrorBody caps how much of a failed response ends up in the error
const maxErrorBody = 512

// Client talks to the TradingView scanner endpoint
// ⭐ SSOT: 스캐너 API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	baseURL    string
}

var _ contracts.Scanner = (*Client)(nil)

// NewClient creates a new scanner client
func NewClient(httpClient *httputil.Client, log *logger.Logger, baseURL string) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log,
		baseURL:    strings.TrimRight(baseURL, "/"),
	}
}

// Scan sends one query and maps the positional response back onto column names.
// Each row additionally carries the exchange-qualified identifier under "ticker".
func (c *Client) Scan(ctx context.Context, q contracts.Query) (*contracts.ScanResult, error) {
	if len(q.Columns) == 0 {
		return nil, fmt.Errorf("query has no columns")
	}
	if q.Market == "" {
		return nil, fmt.Errorf("query has no market")
	}

	body := scanRequest{
		Columns: q.Columns,
		Filter:  q.Predicates,
		Markets: []string{q.Market},
		Options: scanOptions{Lang: "en"},
		Range:   [2]int{0, q.Limit},
		Symbols: scanSymbols{Query: symbolQuery{Types: []string{}}, Tickers: []string{}},
	}

	url := fmt.Sprintf("%s/%s/scan", c.baseURL, q.Market)
	resp, err := c.httpClient.PostJSON(ctx, url, body)
	if err != nil {
		return nil, fmt.Errorf("scanner request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, fmt.Errorf("scanner returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var decoded scanResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("failed to decode scanner response: %w", err)
	}

	return toResult(q.Columns, decoded)
}

// toResult converts the positional payload into rows keyed by column
func toResult(columns []string, decoded scanResponse) (*contracts.ScanResult, error) {
	result := &contracts.ScanResult{
		TotalCount: decoded.TotalCount,
		Rows:       make([]contracts.Row, 0, len(decoded.Data)),
	}

	for i, item := range decoded.Data {
		if len(item.D) != len(columns) {
			return nil, fmt.Errorf("row %d (%s): got %d values for %d columns", i, item.S, len(item.D), len(columns))
		}

		row := make(contracts.Row, len(columns)+1)
		row[TickerField] = item.S
		for j, col := range columns {
			row[col] = item.D[j]
		}
		result.Rows = append(result.Rows, row)
	}

	return result, nil
}
