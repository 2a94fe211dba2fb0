package payment

import (
	"bytes"
	"context"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"storefront-be/internal/logger"
	"storefront-be/internal/metrics"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	payPath         = "/pg/v1/pay"
	statusPathFmt   = "/pg/v1/status/%s/%s"
	checksumDivider = "###"
	gatewayTimeout  = 30 * time.Second
)

var (
	ErrGateway          = errors.New("payment gateway error")
	ErrInvalidSignature = errors.New("invalid callback checksum")
)

type Gateway interface {
	Pay(ctx context.Context, req PayRequest) (*PayResponse, error)
	CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error)
	VerifyCallback(base64Response, xVerify string) error
}

type PayRequest struct {
	MerchantTransactionID string
	MerchantUserID        string
	Amount                decimal.Decimal
	RedirectURL           string
	CallbackURL           string
	MobileNumber          string
}

type PayResponse struct {
	Code        string
	RedirectURL string
	Raw         json.RawMessage
}

type StatusResponse struct {
	Code                 string
	GatewayTransactionID string
	Amount               int64
	Raw                  json.RawMessage
}

// envelope is the body shape PhonePe uses for pay, status and callback payloads.
type envelope struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Message string `json:"message"`
	Data    struct {
		MerchantID            string `json:"merchantId"`
		MerchantTransactionID string `json:"merchantTransactionId"`
		TransactionID         string `json:"transactionId"`
		Amount                int64  `json:"amount"`
		State                 string `json:"state"`
		InstrumentResponse    struct {
			Type         string `json:"type"`
			RedirectInfo struct {
				URL    string `json:"url"`
				Method string `json:"method"`
			} `json:"redirectInfo"`
		} `json:"instrumentResponse"`
	} `json:"data"`
}

type PhonePeConfig struct {
	MerchantID string
	SaltKey    string
	SaltIndex  string
	BaseURL    string
}

type phonePeGateway struct {
	cfg        PhonePeConfig
	httpClient *http.Client
}

func NewPhonePeGateway(cfg PhonePeConfig) Gateway {
	if cfg.MerchantID == "" || cfg.SaltKey == "" {
		logger.L().Warn("PhonePe merchant credentials are empty")
	}
	return &phonePeGateway{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: gatewayTimeout},
	}
}

// Checksum builds the X-VERIFY value: sha256(payload + path + salt) in hex,
// followed by ### and the salt index.
func Checksum(payload, path, saltKey, saltIndex string) string {
	sum := sha256.Sum256([]byte(payload + path + saltKey))
	return hex.EncodeToString(sum[:]) + checksumDivider + saltIndex
}

// ToPaise converts a rupee amount to the integer minor unit PhonePe expects.
func ToPaise(amount decimal.Decimal) int64 {
	return amount.Shift(2).Round(0).IntPart()
}

func (g *phonePeGateway) Pay(ctx context.Context, req PayRequest) (*PayResponse, error) {
	log := logger.FromCtx(ctx).With(
		zap.String("gateway", "phonepe"),
		zap.String("merchant_transaction_id", req.MerchantTransactionID),
		zap.String("amount", req.Amount.String()),
	)

	payload := map[string]any{
		"merchantId":            g.cfg.MerchantID,
		"merchantTransactionId": req.MerchantTransactionID,
		"merchantUserId":        req.MerchantUserID,
		"amount":                ToPaise(req.Amount),
		"redirectUrl":           req.RedirectURL,
		"redirectMode":          "REDIRECT",
		"callbackUrl":           req.CallbackURL,
		"paymentInstrument":     map[string]string{"type": "PAY_PAGE"},
	}
	if req.MobileNumber != "" {
		payload["mobileNumber"] = req.MobileNumber
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	encoded := base64.StdEncoding.EncodeToString(raw)

	body, err := json.Marshal(map[string]string{"request": encoded})
	if err != nil {
		return nil, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.cfg.BaseURL+payPath, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", Checksum(encoded, payPath, g.cfg.SaltKey, g.cfg.SaltIndex))

	timer := metrics.StartTimer()
	env, respBody, err := g.do(httpReq)
	if err != nil {
		log.Error("pay request failed", zap.Error(err), zap.Duration("duration", timer.Duration()))
		return nil, err
	}

	redirect := env.Data.InstrumentResponse.RedirectInfo.URL
	if !env.Success || redirect == "" {
		log.Error("pay request rejected", zap.String("code", env.Code), zap.String("message", env.Message))
		return nil, fmt.Errorf("%w: %s %s", ErrGateway, env.Code, env.Message)
	}

	log.Info("payment initiated", zap.String("code", env.Code), zap.Duration("duration", timer.Duration()))
	return &PayResponse{Code: env.Code, RedirectURL: redirect, Raw: respBody}, nil
}

func (g *phonePeGateway) CheckStatus(ctx context.Context, merchantTransactionID string) (*StatusResponse, error) {
	path := fmt.Sprintf(statusPathFmt, g.cfg.MerchantID, merchantTransactionID)

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, g.cfg.BaseURL+path, nil)
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("X-VERIFY", Checksum("", path, g.cfg.SaltKey, g.cfg.SaltIndex))
	httpReq.Header.Set("X-MERCHANT-ID", g.cfg.MerchantID)

	env, respBody, err := g.do(httpReq)
	if err != nil {
		logger.FromCtx(ctx).Error("status request failed",
			zap.String("merchant_transaction_id", merchantTransactionID),
			zap.Error(err),
		)
		return nil, err
	}

	return &StatusResponse{
		Code:                 env.Code,
		GatewayTransactionID: env.Data.TransactionID,
		Amount:               env.Data.Amount,
		Raw:                  respBody,
	}, nil
}

// VerifyCallback checks X-VERIFY on a callback: sha256(response + salt)###index.
func (g *phonePeGateway) VerifyCallback(base64Response, xVerify string) error {
	expected := Checksum(base64Response, "", g.cfg.SaltKey, g.cfg.SaltIndex)
	if subtle.ConstantTimeCompare([]byte(expected), []byte(xVerify)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// do sends the request and decodes the envelope. Non-2xx responses that still
// carry an envelope (PhonePe returns 4xx with a code) are returned decoded.
func (g *phonePeGateway) do(req *http.Request) (*envelope, json.RawMessage, error) {
	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %v", ErrGateway, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, nil, fmt.Errorf("%w: read body: %v", ErrGateway, err)
	}

	var env envelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, nil, fmt.Errorf("%w: status %d: undecodable body", ErrGateway, resp.StatusCode)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, nil, fmt.Errorf("%w: status %d: %s", ErrGateway, resp.StatusCode, env.Code)
	}
	return &env, body, nil
}

// decodeCallback unpacks the base64 response field of a webhook body.
func decodeCallback(base64Response string) (*envelope, json.RawMessage, error) {
	raw, err := base64.StdEncoding.DecodeString(base64Response)
	if err != nil {
		return nil, nil, err
	}
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, nil, err
	}
	return &env, raw, nil
}
