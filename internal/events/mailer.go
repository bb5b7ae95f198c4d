package events

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"github.com/talkincode/toughstore/config"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// variantEvent is the decoded shape of a variant change payload.
type variantEvent struct {
	Op        string `mapstructure:"op"`
	ID        int64  `mapstructure:"id"`
	ProductID int64  `mapstructure:"product_id"`
	Quantity  int64  `mapstructure:"quantity"`
	Sku       string `mapstructure:"sku"`
}

// StockMailer emails the configured recipient when a variant runs out
// of stock.
type StockMailer struct {
	cfg config.SmtpConfig
}

func NewStockMailer(cfg config.SmtpConfig) *StockMailer {
	return &StockMailer{cfg: cfg}
}

// HandleVariantChange implements Handler for catalog variant topics.
func (m *StockMailer) HandleVariantChange(topic string, payload map[string]interface{}) {
	var ev variantEvent
	if err := mapstructure.Decode(payload, &ev); err != nil {
		zap.L().Warn("stock mailer: undecodable payload", zap.Error(err))
		return
	}
	if ev.Op == "delete" || ev.Quantity > 0 {
		return
	}
	if m.cfg.Host == "" || m.cfg.AlertTo == "" {
		return
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.From)
	msg.SetHeader("To", m.cfg.AlertTo)
	msg.SetHeader("Subject", fmt.Sprintf("[toughstore] sku %s is out of stock", ev.Sku))
	msg.SetBody("text/plain", fmt.Sprintf(
		"Variant %d (sku %s) of product %d now has zero quantity.\nOperation: %s\n",
		ev.ID, ev.Sku, ev.ProductID, ev.Op))

	dialer := gomail.NewDialer(m.cfg.Host, m.cfg.Port, m.cfg.Username, m.cfg.Password)
	if err := dialer.DialAndSend(msg); err != nil {
		zap.L().Warn("stock mailer: send failed", zap.Error(err))
	}
}
