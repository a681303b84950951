package notify

import (
	"fmt"
	"strings"

	"token-alert-relay/internal/market"
)

func renderAlert(token market.Token) string {
	builder := &strings.Builder{}

	symbol := strings.ToUpper(strings.TrimSpace(token.Symbol))
	if symbol == "" {
		symbol = "UNKNOWN"
	}

	builder.WriteString(fmt.Sprintf("🔥 新趋势代币: %s\n", symbol))
	if token.Name != "" {
		builder.WriteString(fmt.Sprintf("名称: %s\n", token.Name))
	}
	if token.PriceUSD > 0 {
		builder.WriteString(fmt.Sprintf("价格: $%.8f\n", token.PriceUSD))
	}
	if token.Volume24h > 0 {
		builder.WriteString(fmt.Sprintf("24h 成交量: $%.0f\n", token.Volume24h))
	}
	builder.WriteString(fmt.Sprintf("地址: %s", token.Address))

	return builder.String()
}
