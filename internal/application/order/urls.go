package order

import (
	"encoding/base64"
	"fmt"
)

// PayURLConfig carries the provider-facing configuration OrderService needs
// to build a payment redirect URL; loaded once at boot (§6 Configuration).
type PayURLConfig struct {
	PaymeMerchantID string
	PaymeBaseURL    string // e.g. https://checkout.paycom.uz
	ClickServiceID  string
	ClickMerchantID string
	ClickBaseURL    string // e.g. https://my.click.uz/services/pay
}

// BuildPaymeURL builds {PAYME_URL}/{base64("m=<id>;ac.order_id=<order>;a=<tiyin>")}.
func (c PayURLConfig) BuildPaymeURL(orderID int64, tiyin int64) string {
	raw := fmt.Sprintf("m=%s;ac.order_id=%d;a=%d", c.PaymeMerchantID, orderID, tiyin)
	return c.PaymeBaseURL + "/" + base64.StdEncoding.EncodeToString([]byte(raw))
}

// BuildClickURL builds the Click checkout redirect link.
func (c PayURLConfig) BuildClickURL(orderID int64, sum int64) string {
	return fmt.Sprintf("%s?service_id=%s&merchant_id=%s&amount=%d&transaction_param=%d",
		c.ClickBaseURL, c.ClickServiceID, c.ClickMerchantID, sum, orderID)
}
