package service

import (
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"golang-insider-scanner/internal/detector/config"
	"golang-insider-scanner/internal/detector/repository"
	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/pkg/common"
	"golang-insider-scanner/pkg/logger"
	"golang-insider-scanner/pkg/telegram"
	"golang-insider-scanner/pkg/utils"

	"github.com/dustin/go-humanize"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// ClusterBuyService detects tickers bought by several distinct insiders within the window.
type ClusterBuyService interface {
	GetName() string
	Execute(ctx context.Context) (string, error)
}

// DetectSummary is the outcome of one detection run.
type DetectSummary struct {
	WindowStart     string `json:"window_start"`
	Transactions    int    `json:"transactions"`
	Tickers         int    `json:"tickers"`
	Qualifying      int    `json:"qualifying"`
	AlreadySignaled int    `json:"already_signaled"`
	Created         int    `json:"created"`
}

type clusterBuyService struct {
	cfg        *config.Config
	log        *logger.Logger
	form4Repo  repository.Form4FilingRepository
	signalRepo repository.SignalRepository
	publisher  repository.SignalPublisher
	notifier   telegram.Notifier
	now        func() time.Time
}

// NewClusterBuyService creates the detection job. publisher and notifier may be nil.
func NewClusterBuyService(
	cfg *config.Config,
	log *logger.Logger,
	form4Repo repository.Form4FilingRepository,
	signalRepo repository.SignalRepository,
	publisher repository.SignalPublisher,
	notifier telegram.Notifier,
) ClusterBuyService {
	return &clusterBuyService{
		cfg:        cfg,
		log:        log,
		form4Repo:  form4Repo,
		signalRepo: signalRepo,
		publisher:  publisher,
		notifier:   notifier,
		now:        utils.NowIn(utils.MustLoadLocation(cfg.App.TimeZone)),
	}
}

func (s *clusterBuyService) GetName() string {
	return common.JobNameSignalDetector
}

// Execute scans the window once and returns the JSON summary. Store errors abort the run.
func (s *clusterBuyService) Execute(ctx context.Context) (string, error) {
	now := s.now()
	today := utils.DateOf(now)
	windowStart := utils.DaysBefore(now, s.cfg.Detector.WindowDays)
	summary := DetectSummary{WindowStart: windowStart.Format(utils.DateLayout)}

	s.log.InfoContext(ctx, "Looking for cluster buy signals", logger.StringField("window_start", summary.WindowStart))

	purchases, err := s.form4Repo.ListPurchasesSince(ctx, windowStart)
	if err != nil {
		return "", fmt.Errorf("list purchases since %s: %w", summary.WindowStart, err)
	}
	summary.Transactions = len(purchases)
	if len(purchases) == 0 {
		s.log.InfoContext(ctx, "No recent purchase filings found to analyze")
		return s.finish(ctx, summary)
	}

	byTicker := GroupByTicker(purchases)
	tickers := make([]string, 0, len(byTicker))
	for ticker := range byTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	summary.Tickers = len(tickers)

	for _, ticker := range tickers {
		group := byTicker[ticker]
		insiders := DistinctInsiders(group)
		if len(insiders) < s.cfg.Detector.MinInsiders {
			continue
		}
		summary.Qualifying++

		exists, err := s.signalRepo.ExistsSince(ctx, ticker, entity.SignalTypeClusterBuy, windowStart)
		if err != nil {
			return "", fmt.Errorf("check signal for %s: %w", ticker, err)
		}
		if exists {
			summary.AlreadySignaled++
			s.log.DebugContext(ctx, "Cluster buy already signaled in window", logger.StringField("ticker", ticker))
			continue
		}

		total := AggregateValue(group)
		signal, err := s.buildSignal(ticker, today, windowStart, group, insiders, total)
		if err != nil {
			return "", err
		}
		inserted, err := s.signalRepo.CreateIgnoreConflict(ctx, signal)
		if err != nil {
			return "", fmt.Errorf("insert signal for %s: %w", ticker, err)
		}
		if !inserted {
			summary.AlreadySignaled++
			continue
		}
		summary.Created++

		s.log.InfoContext(ctx, "FOUND SIGNAL: Cluster Buy",
			logger.StringField("ticker", ticker),
			logger.IntField("insiders", len(insiders)),
			logger.StringField("description", signal.SignalDescription),
		)
		s.dispatch(ctx, signal, insiders, total)
	}

	return s.finish(ctx, summary)
}

func (s *clusterBuyService) buildSignal(ticker string, today, windowStart time.Time, group []entity.Form4Filing, insiders []string, total decimal.Decimal) (*entity.Signal, error) {
	data, err := json.Marshal(entity.ClusterBuyData{
		WindowStart:      windowStart.Format(utils.DateLayout),
		InsiderCount:     len(insiders),
		Insiders:         insiders,
		TransactionCount: len(group),
		TotalValue:       total.StringFixed(2),
	})
	if err != nil {
		return nil, fmt.Errorf("marshal signal data for %s: %w", ticker, err)
	}

	return &entity.Signal{
		Ticker:            ticker,
		SignalType:        entity.SignalTypeClusterBuy,
		SignalDate:        datatypes.Date(today),
		SignalDescription: BuildDescription(insiders, s.cfg.Detector.PreviewNames, total),
		Status:            entity.SignalStatusNew,
		WindowBucket:      WindowBucket(today, s.cfg.Detector.WindowDays),
		Data:              datatypes.JSON(data),
	}, nil
}

// dispatch forwards a created signal to the optional stream and chat. Failures are only logged.
func (s *clusterBuyService) dispatch(ctx context.Context, signal *entity.Signal, insiders []string, total decimal.Decimal) {
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, signal); err != nil {
			s.log.WarnContext(ctx, "Failed to publish signal", logger.StringField("ticker", signal.Ticker), logger.ErrorField(err))
		}
	}
	if s.notifier != nil {
		msg := telegram.FormatClusterBuyAlert(telegram.ClusterBuyAlert{
			Ticker:       signal.Ticker,
			SignalDate:   time.Time(signal.SignalDate).Format(utils.DateLayout),
			InsiderCount: len(insiders),
			Insiders:     insiders,
			TotalValue:   FormatUSD(total),
			Description:  signal.SignalDescription,
		})
		if err := s.notifier.SendMessage(msg); err != nil {
			s.log.WarnContext(ctx, "Failed to send telegram alert", logger.StringField("ticker", signal.Ticker), logger.ErrorField(err))
		}
	}
}

func (s *clusterBuyService) finish(ctx context.Context, summary DetectSummary) (string, error) {
	s.log.InfoContext(ctx, "Finished signal detection",
		logger.IntField("transactions", summary.Transactions),
		logger.IntField("tickers", summary.Tickers),
		logger.IntField("qualifying", summary.Qualifying),
		logger.IntField("created", summary.Created),
	)
	out, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GroupByTicker groups purchases by ticker, dropping placeholder tickers. Input order is kept.
func GroupByTicker(purchases []entity.Form4Filing) map[string][]entity.Form4Filing {
	groups := make(map[string][]entity.Form4Filing)
	for _, p := range purchases {
		ticker := strings.TrimSpace(p.Ticker)
		if utils.IsPlaceholderTicker(ticker) {
			continue
		}
		groups[ticker] = append(groups[ticker], p)
	}
	return groups
}

// DistinctInsiders returns the exact insider names in order of first appearance.
func DistinctInsiders(group []entity.Form4Filing) []string {
	seen := make(map[string]struct{}, len(group))
	var names []string
	for _, p := range group {
		if _, ok := seen[p.InsiderName]; ok {
			continue
		}
		seen[p.InsiderName] = struct{}{}
		names = append(names, p.InsiderName)
	}
	return names
}

// AggregateValue sums total_value over every transaction in the group.
func AggregateValue(group []entity.Form4Filing) decimal.Decimal {
	total := decimal.Zero
	for _, p := range group {
		total = total.Add(p.TotalValue)
	}
	return total
}

// BuildDescription renders the signal text, previewing at most previewN names.
func BuildDescription(insiders []string, previewN int, total decimal.Decimal) string {
	preview := strings.Join(insiders, ", ")
	if len(insiders) > previewN {
		preview = strings.Join(insiders[:previewN], ", ") + " and others"
	}
	return fmt.Sprintf("%d insiders, including %s, purchased a combined %s worth of stock.",
		len(insiders), preview, FormatUSD(total))
}

// FormatUSD renders v as "$1,234.56", rounding to cents.
func FormatUSD(v decimal.Decimal) string {
	sign := ""
	if v.IsNegative() {
		sign = "-"
		v = v.Neg()
	}
	whole, cents, _ := strings.Cut(v.StringFixed(2), ".")
	n, ok := new(big.Int).SetString(whole, 10)
	if !ok {
		return sign + "$" + whole + "." + cents
	}
	return sign + "$" + humanize.BigComma(n) + "." + cents
}

// WindowBucket numbers consecutive windowDays-long periods since the Unix epoch.
func WindowBucket(date time.Time, windowDays int) int64 {
	if windowDays <= 0 {
		windowDays = 1
	}
	days := utils.DateOf(date).Unix() / int64(24*time.Hour/time.Second)
	return days / int64(windowDays)
}
