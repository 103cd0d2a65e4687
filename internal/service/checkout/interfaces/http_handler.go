package interfaces

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"saregare/internal/pkg/logger"
	"saregare/internal/pkg/tracing"
	catalogapp "saregare/internal/service/catalog/application"
	"saregare/internal/service/checkout/application"
	"saregare/internal/service/checkout/domain"
)

// CheckoutHandler 封装结账服务对外的 HTTP 面。
type CheckoutHandler struct {
	service  *application.CheckoutService
	verifier *application.PaymentVerifier
	catalog  *catalogapp.CatalogService
}

func NewCheckoutHandler(service *application.CheckoutService, verifier *application.PaymentVerifier, catalog *catalogapp.CatalogService) *CheckoutHandler {
	return &CheckoutHandler{service: service, verifier: verifier, catalog: catalog}
}

// RegisterRoutes 在 ServeMux 上注册全部路由。
func (h *CheckoutHandler) RegisterRoutes(mux *http.ServeMux) {
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusOK) })
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/api/checkout/start", h.traced(h.startCheckout))
	mux.Handle("/api/checkout/cancel", h.traced(h.cancelOrder))
	mux.Handle("/api/orders", h.traced(h.getOrder))
	mux.Handle("/api/products", h.traced(h.listProducts))
	// 网关的服务端回调入口，不经过买家浏览器
	mux.Handle("/webhooks/razorpay", h.traced(h.razorpayWebhook))
}

// traced 提取上游链路上下文，并把带 trace_id 的 logger 注入请求 context。
func (h *CheckoutHandler) traced(next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := otel.GetTextMapPropagator().Extract(r.Context(), propagation.HeaderCarrier(r.Header))
		ctx, _ = logger.WithTraceID(ctx, tracing.GetTraceIDFromContext(ctx))
		next(w, r.WithContext(ctx))
	})
}

func (h *CheckoutHandler) startCheckout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req application.StartCheckoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	resp, err := h.service.StartCheckout(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (h *CheckoutHandler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req struct {
		OrderID string `json:"orderId"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.OrderID == "" {
		http.Error(w, "orderId is required", http.StatusBadRequest)
		return
	}
	if err := h.service.Cancel(r.Context(), req.OrderID); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"orderId": req.OrderID, "status": string(domain.StatusCancelled)})
}

func (h *CheckoutHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	id := r.URL.Query().Get("id")
	if id == "" {
		http.Error(w, "id is required", http.StatusBadRequest)
		return
	}
	view, err := h.service.GetOrder(r.Context(), id)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *CheckoutHandler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.catalog.ListActive(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, products)
}

// razorpayWebhook 接收 Razorpay 的服务端回调并交给 Verifier。
// 为了不触发网关的无谓重试，业务性拒绝（验签失败、金额不符、
// 重复回调）也回 200；只有服务内部错误才回 5xx。
func (h *CheckoutHandler) razorpayWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	raw, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		http.Error(w, "failed to read body", http.StatusBadRequest)
		return
	}

	outcome, err := h.verifier.HandleCallback(r.Context(), "razorpay", raw)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrSignatureInvalid), errors.Is(err, domain.ErrAmountMismatch):
			// 订单已被置为 failed，回 200 告知网关不要重试
			writeJSON(w, http.StatusOK, map[string]string{"result": "rejected"})
		case errors.Is(err, domain.ErrUnknownOrder):
			http.Error(w, "unknown order", http.StatusNotFound)
		default:
			logger.Ctx(r.Context()).Error().Err(err).Msg("webhook processing failed")
			http.Error(w, "internal error", http.StatusInternalServerError)
		}
		return
	}
	writeJSON(w, http.StatusOK, outcome)
}

// writeError 把领域错误映射为 HTTP 状态码。对外文案不暴露密钥等细节。
func (h *CheckoutHandler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	logger.Ctx(r.Context()).Warn().Err(err).Str("path", r.URL.Path).Msg("request failed")
	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		http.Error(w, "please login to continue", http.StatusUnauthorized)
	case errors.Is(err, domain.ErrInvalidLicense), errors.Is(err, domain.ErrUnsupportedGateway):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, domain.ErrGatewayNotConfigured):
		http.Error(w, "payment method unavailable", http.StatusServiceUnavailable)
	case errors.Is(err, domain.ErrGatewayUnavailable):
		http.Error(w, "payment failed, try again", http.StatusBadGateway)
	case errors.Is(err, domain.ErrAlreadyInFlight):
		http.Error(w, "payment is in flight, wait for confirmation", http.StatusConflict)
	case errors.Is(err, domain.ErrInvalidTransition):
		http.Error(w, "order can no longer be changed", http.StatusConflict)
	case errors.Is(err, domain.ErrOrderNotFound), errors.Is(err, domain.ErrProductNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	default:
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
