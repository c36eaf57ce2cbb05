package esewa

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/config"
	apperrors "github.com/Semicolon3407/OmegaStore-FYP-sub001/pkg/errors"
)

// StatusComplete is the gateway's terminal success status.
const StatusComplete = "COMPLETE"

// signedFields is the canonical field list signed on outbound requests. The
// order is fixed by the gateway contract.
var signedFields = []string{"total_amount", "transaction_uuid", "product_code"}

// PaymentForm is everything a client needs to POST the hosted payment page.
type PaymentForm struct {
	URL    string            `json:"url"`
	Fields map[string]string `json:"fields"`
}

// FormParams are the order figures rendered into a payment form.
type FormParams struct {
	TransactionUUID string
	Amount          decimal.Decimal
	DeliveryCharge  decimal.Decimal
	TotalAmount     decimal.Decimal
}

// CallbackData is the decoded success-callback payload.
type CallbackData struct {
	TransactionCode  string `json:"transaction_code"`
	Status           string `json:"status"`
	TotalAmount      string `json:"total_amount"`
	TransactionUUID  string `json:"transaction_uuid"`
	ProductCode      string `json:"product_code"`
	SignedFieldNames string `json:"signed_field_names"`
	Signature        string `json:"signature"`
}

// Client signs outbound payment requests and verifies inbound callbacks.
type Client struct {
	secretKey   []byte
	productCode string
	paymentURL  string
	successURL  string
	failureURL  string
}

func NewClient(cfg config.EsewaConfig) (*Client, error) {
	if cfg.SecretKey == "" {
		return nil, errors.New("esewa secret key is required")
	}
	if cfg.ProductCode == "" {
		return nil, errors.New("esewa product code is required")
	}
	if cfg.SuccessURL == "" || cfg.FailureURL == "" {
		return nil, errors.New("esewa callback urls are required")
	}
	return &Client{
		secretKey:   []byte(cfg.SecretKey),
		productCode: cfg.ProductCode,
		paymentURL:  cfg.PaymentURL,
		successURL:  cfg.SuccessURL,
		failureURL:  cfg.FailureURL,
	}, nil
}

// ProductCode exposes the merchant code used on outbound requests.
func (c *Client) ProductCode() string {
	return c.productCode
}

// BuildPaymentForm produces the signed field set for the hosted payment page.
func (c *Client) BuildPaymentForm(params FormParams) (*PaymentForm, error) {
	if params.TransactionUUID == "" {
		return nil, errors.New("transaction uuid is required")
	}
	if !params.TotalAmount.IsPositive() {
		return nil, errors.New("total amount must be positive")
	}

	totalAmount := params.TotalAmount.StringFixed(2)
	message := signatureMessage(totalAmount, params.TransactionUUID, c.productCode)

	fields := map[string]string{
		"amount":                  params.Amount.StringFixed(2),
		"tax_amount":              "0",
		"product_service_charge":  "0",
		"product_delivery_charge": params.DeliveryCharge.StringFixed(2),
		"total_amount":            totalAmount,
		"transaction_uuid":        params.TransactionUUID,
		"product_code":            c.productCode,
		"success_url":             c.successURL,
		"failure_url":             c.failureURL,
		"signed_field_names":      strings.Join(signedFields, ","),
		"signature":               c.sign(message),
	}
	return &PaymentForm{URL: c.paymentURL, Fields: fields}, nil
}

// DecodeCallback parses the base64-encoded JSON payload the gateway appends
// to the success redirect.
func DecodeCallback(raw string) (*CallbackData, error) {
	if raw == "" {
		return nil, apperrors.New(apperrors.CodeValidation, "callback payload is empty")
	}
	decoded, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some gateway deployments emit URL-safe base64.
		decoded, err = base64.URLEncoding.DecodeString(raw)
		if err != nil {
			return nil, apperrors.New(apperrors.CodeValidation, "callback payload is not valid base64")
		}
	}
	var data CallbackData
	if err := json.Unmarshal(decoded, &data); err != nil {
		return nil, apperrors.New(apperrors.CodeValidation, "callback payload is not valid JSON")
	}
	return &data, nil
}

// VerifyCallback recomputes the signature over the fields the gateway says
// it signed and compares in constant time. The payload is untrusted until
// this returns nil.
func (c *Client) VerifyCallback(data *CallbackData) error {
	if data == nil {
		return apperrors.New(apperrors.CodeValidation, "callback payload is required")
	}
	if data.SignedFieldNames == "" || data.Signature == "" {
		return apperrors.New(apperrors.CodeSignatureMismatch, "callback is missing signature fields")
	}

	values := map[string]string{
		"transaction_code":   data.TransactionCode,
		"status":             data.Status,
		"total_amount":       data.TotalAmount,
		"transaction_uuid":   data.TransactionUUID,
		"product_code":       data.ProductCode,
		"signed_field_names": data.SignedFieldNames,
	}

	parts := make([]string, 0, 4)
	for _, name := range strings.Split(data.SignedFieldNames, ",") {
		name = strings.TrimSpace(name)
		value, ok := values[name]
		if !ok {
			return apperrors.New(apperrors.CodeSignatureMismatch, fmt.Sprintf("unknown signed field %q", name))
		}
		parts = append(parts, name+"="+value)
	}

	expected := c.sign(strings.Join(parts, ","))
	if !hmac.Equal([]byte(expected), []byte(data.Signature)) {
		return apperrors.New(apperrors.CodeSignatureMismatch, "callback signature mismatch")
	}
	return nil
}

func signatureMessage(totalAmount, transactionUUID, productCode string) string {
	return fmt.Sprintf("total_amount=%s,transaction_uuid=%s,product_code=%s",
		totalAmount, transactionUUID, productCode)
}

func (c *Client) sign(message string) string {
	mac := hmac.New(sha256.New, c.secretKey)
	mac.Write([]byte(message))
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}
