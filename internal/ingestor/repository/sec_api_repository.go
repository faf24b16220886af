package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"golang-insider-scanner/internal/ingestor/config"
	"golang-insider-scanner/internal/ingestor/dto"
	"golang-insider-scanner/pkg/logger"
	"golang-insider-scanner/pkg/utils"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const insiderTradingPath = "/insider-trading"

// SecAPIRepository queries the sec-api.io insider trading endpoint.
type SecAPIRepository interface {
	FetchRecentPurchases(ctx context.Context, since time.Time) ([]dto.Filing, error)
}

type secAPIRepository struct {
	cfg            *config.Config
	log            *logger.Logger
	httpClient     *http.Client
	requestLimiter *rate.Limiter
}

func NewSecAPIRepository(cfg *config.Config, log *logger.Logger) SecAPIRepository {
	perMinute := cfg.SecAPI.MaxRequestPerMinute
	if perMinute <= 0 {
		perMinute = 30
	}
	secondsPerRequest := time.Minute / time.Duration(perMinute)
	requestLimiter := rate.NewLimiter(rate.Every(secondsPerRequest), 1)
	return &secAPIRepository{
		cfg: cfg,
		log: log,
		httpClient: &http.Client{
			Timeout: cfg.SecAPI.Timeout,
		},
		requestLimiter: requestLimiter,
	}
}

// BuildPurchaseQuery returns the query for purchase-coded transactions filed on or after since.
func BuildPurchaseQuery(since time.Time, pageSize int) dto.SearchRequest {
	return dto.SearchRequest{
		Query: fmt.Sprintf(`nonDerivativeTable.transactions.coding.code:"P" AND filedAt:[%s TO *]`, since.Format(utils.DateLayout)),
		From:  "0",
		Size:  strconv.Itoa(pageSize),
		Sort:  []map[string]dto.SortBy{{"filedAt": {Order: "desc"}}},
	}
}

func (r *secAPIRepository) FetchRecentPurchases(ctx context.Context, since time.Time) ([]dto.Filing, error) {
	url := strings.TrimRight(r.cfg.SecAPI.BaseURL, "/") + insiderTradingPath
	payload, err := json.Marshal(BuildPurchaseQuery(since, r.cfg.Ingestor.PageSize))
	if err != nil {
		return nil, err
	}

	body, err := r.sendRequest(ctx, http.MethodPost, url, payload)
	if err != nil {
		return nil, err
	}

	var response dto.SearchResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("decode insider trading response: %w", err)
	}

	r.log.DebugContext(ctx, "sec-api returned filings",
		logger.IntField("filings", len(response.Transactions)),
		logger.IntField("total", response.Total.Value),
	)

	return response.Transactions, nil
}

func (r *secAPIRepository) sendRequest(ctx context.Context, method string, url string, payload []byte) ([]byte, error) {
	fields := []zap.Field{
		zap.String("url", url),
		zap.Int("max_request_per_minute", r.cfg.SecAPI.MaxRequestPerMinute),
		zap.String("payload", string(payload)),
	}

	if err := r.requestLimiter.Wait(ctx); err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to wait for request limit", fields...)
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(payload))
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to create new http request", fields...)
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", r.cfg.SecAPI.Key)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to send request to sec-api", fields...)
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		fields = append(fields, zap.Error(err))
		r.log.ErrorContext(ctx, "Failed to read response body from sec-api", fields...)
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		fields = append(fields,
			zap.Int("status_code", resp.StatusCode),
			zap.String("response_body", utils.Truncate(string(body), 512)),
		)
		r.log.ErrorContext(ctx, "Received non-OK response from sec-api", fields...)
		return nil, fmt.Errorf("sec-api returned status %d", resp.StatusCode)
	}

	return body, nil
}
