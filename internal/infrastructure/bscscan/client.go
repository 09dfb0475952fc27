package bscscan

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/lokix94/peru-hub-sub000/internal/application"
	"github.com/lokix94/peru-hub-sub000/internal/domain"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Client struct {
	baseURL    string
	apiKey     string
	chainID    uint64
	httpClient *http.Client
}

type Config struct {
	BaseURL string
	APIKey  string
	ChainID uint64
	Timeout time.Duration
}

func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		return nil, errors.New("explorer base url is required")
	}
	if cfg.ChainID == 0 {
		cfg.ChainID = 56
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		chainID:    cfg.ChainID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Configured reports whether an API key is present. Calls made without a key
// fail with application.ErrNotConfigured before touching the network.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// TransactionReceipt fetches the chain-level execution record for a hash.
func (c *Client) TransactionReceipt(ctx context.Context, txHash string) (domain.ChainReceipt, error) {
	if !c.Configured() {
		return domain.ChainReceipt{}, application.ErrNotConfigured
	}

	tracer := otel.Tracer("payhub/bscscan")
	ctx, span := tracer.Start(ctx, "bscscan.transaction_receipt")
	span.SetAttributes(attribute.String("tx.hash", txHash))
	defer span.End()

	params := url.Values{}
	params.Set("module", "proxy")
	params.Set("action", "eth_getTransactionReceipt")
	params.Set("txhash", txHash)

	var envelope struct {
		Result *struct {
			Status string `json:"status"`
			From   string `json:"from"`
		} `json:"result"`
	}
	if err := c.get(ctx, params, &envelope); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return domain.ChainReceipt{}, err
	}
	if envelope.Result == nil {
		return domain.ChainReceipt{}, application.ErrTxNotFound
	}
	return domain.ChainReceipt{
		TxHash:    txHash,
		Succeeded: envelope.Result.Status != "0x0",
		From:      envelope.Result.From,
	}, nil
}

// TokenTransfers lists the most recent token transfers touching the wallet
// for the given contract, newest first. An explorer answer of "no
// transactions found" is an empty list, not an error.
func (c *Client) TokenTransfers(ctx context.Context, wallet, contract string, pageSize int) ([]domain.TokenTransfer, error) {
	if !c.Configured() {
		return nil, application.ErrNotConfigured
	}
	if pageSize <= 0 {
		pageSize = 100
	}

	tracer := otel.Tracer("payhub/bscscan")
	ctx, span := tracer.Start(ctx, "bscscan.token_transfers")
	span.SetAttributes(
		attribute.String("wallet", wallet),
		attribute.String("contract", contract),
		attribute.Int("page_size", pageSize),
	)
	defer span.End()

	params := url.Values{}
	params.Set("module", "account")
	params.Set("action", "tokentx")
	params.Set("contractaddress", contract)
	params.Set("address", wallet)
	params.Set("page", "1")
	params.Set("offset", strconv.Itoa(pageSize))
	params.Set("sort", "desc")

	var envelope struct {
		Status  string          `json:"status"`
		Message string          `json:"message"`
		Result  json.RawMessage `json:"result"`
	}
	if err := c.get(ctx, params, &envelope); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	if envelope.Status != "1" {
		if strings.EqualFold(envelope.Message, "No transactions found") {
			return nil, nil
		}
		detail := envelope.Message
		if detail == "" {
			detail = "unexpected explorer response"
		}
		err := fmt.Errorf("%w: %s", application.ErrUpstream, detail)
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	var rows []transferRow
	if err := json.Unmarshal(envelope.Result, &rows); err != nil {
		wrapped := fmt.Errorf("%w: decoding transfer list: %v", application.ErrUpstream, err)
		span.RecordError(wrapped)
		span.SetStatus(codes.Error, wrapped.Error())
		return nil, wrapped
	}

	transfers := make([]domain.TokenTransfer, 0, len(rows))
	for _, row := range rows {
		transfers = append(transfers, row.toDomain())
	}
	return transfers, nil
}

type transferRow struct {
	Hash            string `json:"hash"`
	From            string `json:"from"`
	To              string `json:"to"`
	ContractAddress string `json:"contractAddress"`
	Value           string `json:"value"`
	TokenDecimal    string `json:"tokenDecimal"`
	Confirmations   string `json:"confirmations"`
	TimeStamp       string `json:"timeStamp"`
}

func (r transferRow) toDomain() domain.TokenTransfer {
	decimals, _ := strconv.ParseInt(r.TokenDecimal, 10, 32)
	confirmations, _ := strconv.ParseUint(r.Confirmations, 10, 64)
	var timestamp time.Time
	if unix, err := strconv.ParseInt(r.TimeStamp, 10, 64); err == nil {
		timestamp = time.Unix(unix, 0).UTC()
	}
	return domain.TokenTransfer{
		TxHash:          r.Hash,
		From:            r.From,
		To:              r.To,
		ContractAddress: r.ContractAddress,
		RawValue:        r.Value,
		Decimals:        int32(decimals),
		Confirmations:   confirmations,
		Timestamp:       timestamp,
	}
}

func (c *Client) get(ctx context.Context, params url.Values, result any) error {
	params.Set("chainid", strconv.FormatUint(c.chainID, 10))
	params.Set("apikey", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", application.ErrUpstream, err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return fmt.Errorf("%w: %v", application.ErrUpstreamTimeout, err)
		}
		return fmt.Errorf("%w: %v", application.ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: status %d", application.ErrUpstream, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("%w: decoding response: %v", application.ErrUpstream, err)
	}
	return nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}
