package httpclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

// Client 是一个带链路追踪的 HTTP 客户端。
// 超时完全由调用方传入的 context 控制，客户端本身不设 Timeout。
type Client struct {
	Tracer     trace.Tracer
	HTTPClient *http.Client
}

// BasicAuth 携带一组用于 HTTP Basic 认证的凭证。
type BasicAuth struct {
	Username string
	Password string
}

func NewClient(tracer trace.Tracer) *Client {
	return &Client{
		Tracer: tracer,
		HTTPClient: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 100,
			},
		},
	}
}

// PostJSON 向外部服务发送 JSON 请求并解码响应。auth 为 nil 时不带认证。
// 非 2xx 响应作为错误返回，响应体截断后附在错误信息里。
func (c *Client) PostJSON(ctx context.Context, rawURL string, body interface{}, auth *BasicAuth, out interface{}) error {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	spanName := fmt.Sprintf("call-%s", strings.Split(parsed.Host, ":")[0])
	ctx, span := c.Tracer.Start(ctx, spanName, trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()

	payload, err := json.Marshal(body)
	if err != nil {
		span.RecordError(err)
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(payload))
	if err != nil {
		span.RecordError(err)
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if auth != nil {
		req.SetBasicAuth(auth.Username, auth.Password)
	}

	span.SetAttributes(
		attribute.String("http.url", rawURL),
		attribute.String("http.method", http.MethodPost),
	)
	otel.GetTextMapPropagator().Inject(ctx, propagation.HeaderCarrier(req.Header))

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		span.RecordError(err)
		return err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("%s returned status %s: %s", parsed.Host, resp.Status, truncate(raw, 256))
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to decode response from %s: %w", parsed.Host, err)
		}
	}
	return nil
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
