// Package fiscal implements the application fiscal.Submitter port as an HTTP client against
// Click's OFD receipt-submission endpoint: a SHA-1 auth digest header and a
// JSON item array, fire-and-forget after an order is marked paid.
package fiscal

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	domorder "github.com/shopmini/paycore/internal/domain/order"
	"github.com/shopmini/paycore/internal/observability"
)

const (
	unitsPiece   = 241092
	vatPercent   = 0
)

type item struct {
	Name       string `json:"name"`
	Price      int64  `json:"price"` // tiyin
	Amount     int    `json:"amount"`
	Units      int    `json:"units"`
	VATPercent int    `json:"vat_percent"`
}

type submitRequest struct {
	ClickTransID int64  `json:"click_trans_id"`
	ServiceID    int    `json:"service_id"`
	Items        []item `json:"items"`
}

// Client posts receipt items to Click's fiscalization endpoint.
type Client struct {
	baseURL        string
	serviceID      int
	merchantUserID string
	secretKey      string
	httpClient     *http.Client
	log            observability.Logger
}

func New(baseURL string, serviceID int, merchantUserID, secretKey string, tel observability.Observability) *Client {
	if tel == nil {
		tel = observability.Nop()
	}
	return &Client{
		baseURL:        baseURL,
		serviceID:      serviceID,
		merchantUserID: merchantUserID,
		secretKey:      secretKey,
		httpClient:     &http.Client{Timeout: 10 * time.Second},
		log:            tel.Logger().With(observability.F("component", "fiscal-client")),
	}
}

// SubmitItems dispatches the order's line items for fiscal receipt issuance.
// Failures are logged, never returned to a commit path that has already
// happened (callers invoke this post-commit and discard the error, per the
// "side-channel failures" rule).
func (c *Client) SubmitItems(ctx context.Context, clickTransID int64, o *domorder.Order) error {
	req := submitRequest{ClickTransID: clickTransID, ServiceID: c.serviceID, Items: itemsFor(o)}
	body, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("fiscal: encode request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("fiscal: build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Auth", c.authHeader())

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.log.Warn("fiscal_submit_failed", observability.F("click_trans_id", clickTransID), observability.F("error", err.Error()))
		return err
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= 300 {
		err := fmt.Errorf("fiscal: unexpected status %d", resp.StatusCode)
		c.log.Warn("fiscal_submit_rejected", observability.F("click_trans_id", clickTransID), observability.F("status", resp.StatusCode))
		return err
	}
	return nil
}

// authHeader computes `<merchantUserId>:<sha1(timestamp||secret)>:<timestamp>`.
func (c *Client) authHeader() string {
	ts := strconv.FormatInt(time.Now().Unix(), 10)
	sum := sha1.Sum([]byte(ts + c.secretKey))
	digest := hex.EncodeToString(sum[:])
	return fmt.Sprintf("%s:%s:%s", c.merchantUserID, digest, ts)
}

func itemsFor(o *domorder.Order) []item {
	if o.OrderType == domorder.TypeDebtRepayment {
		return []item{{
			Name:       "Погашение задолженности",
			Price:      o.TotalAmount * 100,
			Amount:     1,
			Units:      unitsPiece,
			VATPercent: vatPercent,
		}}
	}
	out := make([]item, 0, len(o.Items))
	for _, it := range o.Items {
		out = append(out, item{
			Name:       it.ProductName,
			Price:      it.PriceAtPurchase * 100,
			Amount:     it.Quantity,
			Units:      unitsPiece,
			VATPercent: vatPercent,
		})
	}
	return out
}
