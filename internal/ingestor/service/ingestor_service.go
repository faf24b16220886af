package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"golang-insider-scanner/internal/ingestor/config"
	"golang-insider-scanner/internal/ingestor/repository"
	"golang-insider-scanner/pkg/common"
	"golang-insider-scanner/pkg/logger"
	"golang-insider-scanner/pkg/utils"

	"github.com/patrickmn/go-cache"
)

// IngestorService fetches recent Form 4 purchases and stores each one exactly once.
type IngestorService interface {
	GetName() string
	Execute(ctx context.Context) (string, error)
}

// IngestSummary is the outcome of one ingest run.
type IngestSummary struct {
	FiledSince    string `json:"filed_since"`
	Fetched       int    `json:"fetched"`
	Inserted      int    `json:"inserted"`
	AlreadyStored int    `json:"already_stored"`
	Invalid       int    `json:"invalid"`
	NonPurchase   int    `json:"non_purchase"`
	FetchError    string `json:"fetch_error,omitempty"`
}

type ingestorService struct {
	cfg        *config.Config
	log        *logger.Logger
	secAPIRepo repository.SecAPIRepository
	form4Repo  repository.Form4FilingRepository
	seen       *cache.Cache
	now        func() time.Time
}

// NewIngestorService creates the ingest job.
func NewIngestorService(cfg *config.Config, log *logger.Logger, secAPIRepo repository.SecAPIRepository, form4Repo repository.Form4FilingRepository) IngestorService {
	return newIngestorService(cfg, log, secAPIRepo, form4Repo, utils.NowIn(utils.MustLoadLocation(cfg.App.TimeZone)))
}

func newIngestorService(cfg *config.Config, log *logger.Logger, secAPIRepo repository.SecAPIRepository, form4Repo repository.Form4FilingRepository, now func() time.Time) *ingestorService {
	ttl := cfg.Ingestor.SeenCacheTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &ingestorService{
		cfg:        cfg,
		log:        log,
		secAPIRepo: secAPIRepo,
		form4Repo:  form4Repo,
		seen:       cache.New(ttl, 2*ttl),
		now:        now,
	}
}

func (s *ingestorService) GetName() string {
	return common.JobNameIngestor
}

// Execute runs one fetch-then-normalize pass and returns the JSON summary.
// Fetch failures yield an empty run; store errors abort it.
func (s *ingestorService) Execute(ctx context.Context) (string, error) {
	since := utils.DaysBefore(s.now(), s.cfg.Ingestor.LookbackDays)
	summary := IngestSummary{FiledSince: since.Format(utils.DateLayout)}

	s.log.InfoContext(ctx, "Fetching recent insider purchases", logger.StringField("filed_since", summary.FiledSince))

	filings, err := s.secAPIRepo.FetchRecentPurchases(ctx, since)
	if err != nil {
		s.log.ErrorContext(ctx, "Failed to fetch filings, treating run as empty", logger.ErrorField(err))
		summary.FetchError = err.Error()
		return s.finish(ctx, summary)
	}
	summary.Fetched = len(filings)
	s.log.InfoContext(ctx, "Processing filings", logger.IntField("filings", len(filings)))

	for _, filing := range filings {
		rows, rejections := NormalizeFiling(filing, s.cfg.Ingestor.FilingPolicy)
		for _, r := range rejections {
			if r.Reason == RejectNotPurchase {
				summary.NonPurchase++
				continue
			}
			summary.Invalid++
			s.log.DebugContext(ctx, "Discarded transaction",
				logger.StringField("accession_no", filing.AccessionNo),
				logger.IntField("transaction_index", r.TransactionIndex),
				logger.StringField("reason", string(r.Reason)),
			)
		}
		if len(rows) == 0 {
			continue
		}

		url := rows[0].SecFilingURL
		if _, found := s.seen.Get(url); found {
			summary.AlreadyStored += len(rows)
			continue
		}

		if s.cfg.Ingestor.FilingPolicy != config.PolicyAllPurchases {
			exists, err := s.form4Repo.ExistsByFilingURL(ctx, url)
			if err != nil {
				return "", fmt.Errorf("check filing %s: %w", url, err)
			}
			if exists {
				s.seen.SetDefault(url, struct{}{})
				summary.AlreadyStored++
				continue
			}
		}

		for i := range rows {
			row := &rows[i]
			inserted, err := s.form4Repo.CreateIgnoreConflict(ctx, row)
			if err != nil {
				return "", fmt.Errorf("insert filing %s: %w", url, err)
			}
			if !inserted {
				summary.AlreadyStored++
				continue
			}
			summary.Inserted++
			s.log.InfoContext(ctx, "Saved new trade",
				logger.StringField("ticker", row.Ticker),
				logger.StringField("insider", row.InsiderName),
				logger.StringField("total_value", row.TotalValue.StringFixed(2)),
			)
		}
		s.seen.SetDefault(url, struct{}{})
	}

	return s.finish(ctx, summary)
}

func (s *ingestorService) finish(ctx context.Context, summary IngestSummary) (string, error) {
	s.log.InfoContext(ctx, "Finished saving trades",
		logger.IntField("fetched", summary.Fetched),
		logger.IntField("inserted", summary.Inserted),
		logger.IntField("already_stored", summary.AlreadyStored),
		logger.IntField("invalid", summary.Invalid),
		logger.IntField("non_purchase", summary.NonPurchase),
	)
	out, err := json.Marshal(summary)
	if err != nil {
		return "", err
	}
	return string(out), nil
}
