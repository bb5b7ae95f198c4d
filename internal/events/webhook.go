package events

import (
	"time"

	"github.com/guonaihong/gout"
	"go.uber.org/zap"
)

// WebhookNotifier POSTs every change event to an external URL so
// outside subscribers can refetch. Failures are logged and dropped;
// there is no retry or delivery guarantee.
type WebhookNotifier struct {
	url     string
	timeout time.Duration
}

func NewWebhookNotifier(url string) *WebhookNotifier {
	return &WebhookNotifier{url: url, timeout: 5 * time.Second}
}

// Handle implements Handler.
func (w *WebhookNotifier) Handle(topic string, payload map[string]interface{}) {
	if w.url == "" {
		return
	}
	var code int
	err := gout.POST(w.url).
		SetJSON(gout.H{
			"topic": topic,
			"event": payload,
			"ts":    time.Now().Unix(),
		}).
		SetTimeout(w.timeout).
		Code(&code).
		Do()
	if err != nil {
		zap.L().Warn("webhook delivery failed",
			zap.String("url", w.url), zap.String("topic", topic), zap.Error(err))
		return
	}
	if code >= 300 {
		zap.L().Warn("webhook endpoint rejected event",
			zap.String("url", w.url), zap.Int("code", code))
	}
}
