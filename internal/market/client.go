package market

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Token 行情 API 返回的趋势代币
type Token struct {
	Address   string  `json:"address"`
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	PriceUSD  float64 `json:"priceUsd"`
	Volume24h float64 `json:"volume24h"`
}

// Client 行情数据 API 客户端
type Client struct {
	baseURL      string
	trendingPath string
	httpClient   *http.Client
}

func NewClient(baseURL, trendingPath string) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		trendingPath: trendingPath,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// FetchTrending 拉取趋势代币列表，地址为空的条目直接丢弃。
func (c *Client) FetchTrending(ctx context.Context) ([]Token, error) {
	endpoint := c.baseURL + c.trendingPath
	request, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("创建趋势列表请求失败: %w", err)
	}

	c.fillHeaders(request)

	response, err := c.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("调用行情 API 失败: %w", err)
	}
	defer response.Body.Close()

	data, _ := io.ReadAll(response.Body)
	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return nil, fmt.Errorf("行情 API 返回异常: HTTP %d, body=%s", response.StatusCode, string(data))
	}

	var tokens []Token
	if err := json.Unmarshal(data, &tokens); err != nil {
		return nil, fmt.Errorf("解析趋势列表响应失败: %w", err)
	}

	result := make([]Token, 0, len(tokens))
	for _, token := range tokens {
		if strings.TrimSpace(token.Address) == "" {
			continue
		}
		result = append(result, token)
	}
	return result, nil
}

func (c *Client) fillHeaders(request *http.Request) {
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", "Token-Alert-Relay")
}
