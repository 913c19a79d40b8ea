// Package fetch 提供面向上游的取回实现，标识符即资源 URL。
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// defaultTransport 在进程内复用连接池，避免每次取回都重建连接。
var defaultTransport = &http.Transport{
	Proxy: http.ProxyFromEnvironment,
	DialContext: (&net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}).DialContext,
	ForceAttemptHTTP2:     true,
	MaxIdleConns:          100,
	MaxIdleConnsPerHost:   100,
	IdleConnTimeout:       90 * time.Second,
	TLSHandshakeTimeout:   10 * time.Second,
	ExpectContinueTimeout: 1 * time.Second,
}

// NewClient 构造访问上游的 HTTP 客户端，timeout 为整体超时，<= 0 时取 30 秒。
func NewClient(timeout time.Duration) *http.Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: defaultTransport.Clone(),
	}
}

// HTTPFetcher 通过 GET 请求取回标识符指向的资源正文，仅接受 200 状态码，
// 其余状态一律视为取回失败，不会产生可缓存的结果。
type HTTPFetcher struct {
	client *http.Client
}

// NewHTTPFetcher 构造 HTTPFetcher，client 为 nil 时使用默认客户端。
func NewHTTPFetcher(client *http.Client) *HTTPFetcher {
	if client == nil {
		client = NewClient(0)
	}
	return &HTTPFetcher{client: client}
}

// Fetch 取回 identifier 指向的资源正文。
func (f *HTTPFetcher) Fetch(ctx context.Context, identifier string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, identifier, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if !isCacheableStatus(resp.StatusCode) {
		return nil, fmt.Errorf("upstream status %d", resp.StatusCode)
	}

	return io.ReadAll(resp.Body)
}

// isCacheableStatus 判断上游响应能否进入缓存，只有 200 允许落盘。
func isCacheableStatus(status int) bool {
	return status == http.StatusOK
}
