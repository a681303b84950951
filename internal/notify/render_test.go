package notify

import (
	"strings"
	"testing"

	"token-alert-relay/internal/market"
)

func TestRenderAlertContainsAddress(t *testing.T) {
	token := market.Token{
		Address:   "So11111111111111111111111111111111111111112",
		Symbol:    "sol",
		Name:      "Wrapped SOL",
		PriceUSD:  150.25,
		Volume24h: 1000000,
	}

	text := renderAlert(token)
	if !strings.Contains(text, token.Address) {
		t.Fatalf("提醒文本缺少代币地址，text=%s", text)
	}
	if !strings.Contains(text, "SOL") {
		t.Fatalf("期望符号折叠为大写，text=%s", text)
	}
}

func TestRenderAlertHandlesSparseToken(t *testing.T) {
	text := renderAlert(market.Token{Address: "addr-1"})
	if !strings.Contains(text, "UNKNOWN") {
		t.Fatalf("期望缺失符号时使用占位符，text=%s", text)
	}
}
