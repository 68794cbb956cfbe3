package vnpay

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
)

type Config struct {
	TmnCode        string
	HashSecret     string
	PayURL         string
	APIURL         string
	ReturnURL      string
	Version        string
	TimeoutMinutes int
	HTTPTimeout    time.Duration
	MaxRetries     int
}

// Gateway signs and sends requests to the VNPay payment gateway. Amounts
// cross the wire multiplied by 100, per the gateway convention for VND.
type Gateway struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func NewGateway(cfg Config, logger *slog.Logger) *Gateway {
	if cfg.Version == "" {
		cfg.Version = "2.1.0"
	}
	if cfg.TimeoutMinutes <= 0 {
		cfg.TimeoutMinutes = 15
	}
	if cfg.HTTPTimeout <= 0 {
		cfg.HTTPTimeout = 30 * time.Second
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}

	return &Gateway{
		cfg:    cfg,
		client: &http.Client{Timeout: cfg.HTTPTimeout},
		logger: logger,
	}
}

type PaymentURLRequest struct {
	OrderID   string
	Amount    int64
	OrderInfo string
	BankCode  string
	Locale    string
	ClientIP  string
	ReturnURL string
}

type PaymentURLResult struct {
	PaymentURL string
	TxnRef     string
	CreatedAt  time.Time
	ExpiresAt  time.Time
}

// CreatePaymentURL assembles the signed redirect URL the customer is sent
// to. vnp_BankCode is only included when the caller preselected a bank, and
// the expiry is CreateDate plus the configured timeout.
func (g *Gateway) CreatePaymentURL(req PaymentURLRequest) (*PaymentURLResult, error) {
	if req.OrderID == "" {
		return nil, fmt.Errorf("order id is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("amount must be positive, got %d", req.Amount)
	}

	now := time.Now().In(gatewayLocation)
	expire := now.Add(time.Duration(g.cfg.TimeoutMinutes) * time.Minute)
	txnRef := NewTxnRef(req.OrderID)

	locale := req.Locale
	if locale != "vn" && locale != "en" {
		locale = "vn"
	}
	returnURL := req.ReturnURL
	if returnURL == "" {
		returnURL = g.cfg.ReturnURL
	}
	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = "Thanh toan don hang: " + req.OrderID
	}

	params := map[string]string{
		"vnp_Version":    g.cfg.Version,
		"vnp_Command":    "pay",
		"vnp_TmnCode":    g.cfg.TmnCode,
		"vnp_Amount":     strconv.FormatInt(req.Amount*100, 10),
		"vnp_CurrCode":   "VND",
		"vnp_TxnRef":     txnRef,
		"vnp_OrderInfo":  orderInfo,
		"vnp_OrderType":  "other",
		"vnp_Locale":     locale,
		"vnp_ReturnUrl":  returnURL,
		"vnp_IpAddr":     req.ClientIP,
		"vnp_CreateDate": now.Format(dateFormat),
		"vnp_ExpireDate": expire.Format(dateFormat),
	}
	if req.BankCode != "" {
		params["vnp_BankCode"] = req.BankCode
	}

	signature := HashAllFields(params, g.cfg.HashSecret)
	if signature == "" {
		return nil, fmt.Errorf("failed to sign payment request")
	}

	paymentURL := fmt.Sprintf("%s?%s&vnp_SecureHash=%s", g.cfg.PayURL, encodeQuery(params), signature)

	g.logger.Info("payment URL created",
		"order_id", req.OrderID,
		"txn_ref", txnRef,
		"amount", req.Amount,
		"expires_at", expire.Format(dateFormat))

	return &PaymentURLResult{
		PaymentURL: paymentURL,
		TxnRef:     txnRef,
		CreatedAt:  now,
		ExpiresAt:  expire,
	}, nil
}

// ValidateCallback recomputes the signature over the callback parameters and
// compares it against the one the gateway sent. vnp_SecureHash and
// vnp_SecureHashType never participate in the hash input.
func (g *Gateway) ValidateCallback(params map[string]string) bool {
	received := params["vnp_SecureHash"]

	fields := make(map[string]string, len(params))
	for k, v := range params {
		if k == "vnp_SecureHash" || k == "vnp_SecureHashType" {
			continue
		}
		fields[k] = v
	}

	return VerifySignature(fields, g.cfg.HashSecret, received)
}

type QueryRequest struct {
	TxnRef          string
	TransactionDate string
	OrderInfo       string
	ClientIP        string
}

type QueryResult struct {
	ResponseCode      string
	Message           string
	TransactionNo     string
	TransactionStatus string
	Amount            int64
}

// QueryTransaction asks the gateway for the current state of a transaction,
// signed with the same canonical hash as the redirect flow.
func (g *Gateway) QueryTransaction(ctx context.Context, req QueryRequest) (*QueryResult, error) {
	if req.TxnRef == "" {
		return nil, fmt.Errorf("txn ref is required")
	}

	now := time.Now().In(gatewayLocation)
	orderInfo := req.OrderInfo
	if orderInfo == "" {
		orderInfo = "Truy van giao dich: " + req.TxnRef
	}
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_RequestId":       uuid.New().String(),
		"vnp_Version":         g.cfg.Version,
		"vnp_Command":         "querydr",
		"vnp_TmnCode":         g.cfg.TmnCode,
		"vnp_TxnRef":          req.TxnRef,
		"vnp_OrderInfo":       orderInfo,
		"vnp_TransactionDate": req.TransactionDate,
		"vnp_CreateDate":      now.Format(dateFormat),
		"vnp_IpAddr":          clientIP,
	}

	respBody, err := g.postSigned(ctx, params)
	if err != nil {
		return nil, err
	}

	var out struct {
		ResponseCode      string `json:"vnp_ResponseCode"`
		Message           string `json:"vnp_Message"`
		TransactionNo     string `json:"vnp_TransactionNo"`
		TransactionStatus string `json:"vnp_TransactionStatus"`
		Amount            string `json:"vnp_Amount"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode query response: %w", err)
	}

	var amount int64
	if out.Amount != "" {
		if parsed, err := strconv.ParseInt(out.Amount, 10, 64); err == nil {
			amount = parsed / 100
		}
	}

	return &QueryResult{
		ResponseCode:      out.ResponseCode,
		Message:           out.Message,
		TransactionNo:     out.TransactionNo,
		TransactionStatus: out.TransactionStatus,
		Amount:            amount,
	}, nil
}

type RefundCall struct {
	TxnRef          string
	Amount          int64
	TransactionNo   string
	TransactionDate string
	CreatedBy       string
	Reason          string
	ClientIP        string
}

type RefundCallResult struct {
	ResponseCode  string
	Message       string
	TransactionNo string
}

// Refund issues a full refund for a settled transaction through the
// server-to-server API.
func (g *Gateway) Refund(ctx context.Context, req RefundCall) (*RefundCallResult, error) {
	if req.TxnRef == "" {
		return nil, fmt.Errorf("txn ref is required")
	}
	if req.Amount <= 0 {
		return nil, fmt.Errorf("refund amount must be positive, got %d", req.Amount)
	}

	now := time.Now().In(gatewayLocation)
	orderInfo := req.Reason
	if orderInfo == "" {
		orderInfo = "Hoan tien giao dich: " + req.TxnRef
	}
	clientIP := req.ClientIP
	if clientIP == "" {
		clientIP = "127.0.0.1"
	}

	params := map[string]string{
		"vnp_RequestId":       uuid.New().String(),
		"vnp_Version":         g.cfg.Version,
		"vnp_Command":         "refund",
		"vnp_TmnCode":         g.cfg.TmnCode,
		"vnp_TransactionType": "02",
		"vnp_TxnRef":          req.TxnRef,
		"vnp_Amount":          strconv.FormatInt(req.Amount*100, 10),
		"vnp_OrderInfo":       orderInfo,
		"vnp_TransactionNo":   req.TransactionNo,
		"vnp_TransactionDate": req.TransactionDate,
		"vnp_CreateBy":        req.CreatedBy,
		"vnp_CreateDate":      now.Format(dateFormat),
		"vnp_IpAddr":          clientIP,
	}

	respBody, err := g.postSigned(ctx, params)
	if err != nil {
		return nil, err
	}

	var out struct {
		ResponseCode  string `json:"vnp_ResponseCode"`
		Message       string `json:"vnp_Message"`
		TransactionNo string `json:"vnp_TransactionNo"`
	}
	if err := json.Unmarshal(respBody, &out); err != nil {
		return nil, fmt.Errorf("decode refund response: %w", err)
	}

	return &RefundCallResult{
		ResponseCode:  out.ResponseCode,
		Message:       out.Message,
		TransactionNo: out.TransactionNo,
	}, nil
}

// postSigned signs the params, posts them as JSON to the merchant API and
// retries transient failures with exponential backoff. 5xx answers count as
// transient; any other non-OK status is a hard rejection.
func (g *Gateway) postSigned(ctx context.Context, params map[string]string) ([]byte, error) {
	signature := HashAllFields(params, g.cfg.HashSecret)
	if signature == "" {
		return nil, fmt.Errorf("failed to sign gateway request")
	}

	payload := make(map[string]string, len(params)+1)
	for k, v := range params {
		payload[k] = v
	}
	payload["vnp_SecureHash"] = signature

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal gateway request: %w", err)
	}

	backoff := retry.WithMaxRetries(uint64(g.cfg.MaxRetries), retry.NewExponential(500*time.Millisecond))

	var data []byte
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.APIURL, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("build gateway request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := g.client.Do(req)
		if err != nil {
			g.logger.Warn("gateway call failed",
				"command", params["vnp_Command"],
				"error", err)
			return retry.RetryableError(err)
		}
		defer resp.Body.Close()

		data, err = io.ReadAll(resp.Body)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("read gateway response: %w", err))
		}
		if resp.StatusCode >= http.StatusInternalServerError {
			g.logger.Warn("gateway call failed",
				"command", params["vnp_Command"],
				"status", resp.StatusCode)
			return retry.RetryableError(fmt.Errorf("gateway returned status %d", resp.StatusCode))
		}
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("gateway returned status %d: %s", resp.StatusCode, string(data))
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gateway call failed: %w", err)
	}
	return data, nil
}
