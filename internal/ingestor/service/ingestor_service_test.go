package service

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/internal/ingestor/config"
	"golang-insider-scanner/internal/ingestor/dto"
	"golang-insider-scanner/internal/ingestor/repository"
	"golang-insider-scanner/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubSecAPIRepository struct {
	filings []dto.Filing
	err     error
	since   []time.Time
}

func (s *stubSecAPIRepository) FetchRecentPurchases(ctx context.Context, since time.Time) ([]dto.Filing, error) {
	s.since = append(s.since, since)
	return s.filings, s.err
}

type failingForm4Repository struct{}

func (failingForm4Repository) ExistsByFilingURL(ctx context.Context, url string) (bool, error) {
	return false, nil
}

func (failingForm4Repository) CreateIgnoreConflict(ctx context.Context, filing *entity.Form4Filing) (bool, error) {
	return false, errors.New("connection reset")
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.Form4Filing{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func testConfig(policy string) *config.Config {
	return &config.Config{
		Ingestor: config.Ingestor{LookbackDays: 3, PageSize: 50, FilingPolicy: policy, SeenCacheTTL: time.Hour},
	}
}

var fixedNow = func() time.Time {
	return time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC)
}

func decodeSummary(t *testing.T, out string) IngestSummary {
	t.Helper()
	var s IngestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &s))
	return s
}

func countRows(t *testing.T, db *gorm.DB) int64 {
	t.Helper()
	var n int64
	require.NoError(t, db.Model(&entity.Form4Filing{}).Count(&n).Error)
	return n
}

func TestIngestorService_IdempotentAcrossRuns(t *testing.T) {
	db := newTestDB(t)
	api := &stubSecAPIRepository{filings: []dto.Filing{
		testFiling("ACME", "0000000001-26-000001", purchase("2026-10-15", 100, 10), purchase("2026-10-15", 50, 10)),
		testFiling("ACME", "0000000001-26-000001", purchase("2026-10-15", 100, 10)),
		testFiling("NONE", "0000000001-26-000002", purchase("2026-10-15", 100, 10)),
		testFiling("BETA", "0000000001-26-000003", purchase("2026-10-16", 7, 3)),
	}}
	cfg := testConfig(config.PolicyFirstPurchase)

	first := newIngestorService(cfg, logger.NewNop(), api, repository.NewForm4FilingRepository(db), fixedNow)
	out, err := first.Execute(testContext(t))
	require.NoError(t, err)

	s := decodeSummary(t, out)
	assert.Equal(t, "2026-10-15", s.FiledSince)
	assert.Equal(t, 4, s.Fetched)
	assert.Equal(t, 2, s.Inserted)
	assert.Equal(t, 1, s.AlreadyStored)
	assert.Equal(t, 1, s.Invalid)
	assert.Equal(t, int64(2), countRows(t, db))

	// a new process has an empty seen cache and relies on the store
	second := newIngestorService(cfg, logger.NewNop(), api, repository.NewForm4FilingRepository(db), fixedNow)
	out, err = second.Execute(testContext(t))
	require.NoError(t, err)

	s = decodeSummary(t, out)
	assert.Equal(t, 0, s.Inserted)
	assert.Equal(t, 3, s.AlreadyStored)
	assert.Equal(t, int64(2), countRows(t, db))

	require.Len(t, api.since, 2)
	assert.Equal(t, time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC), api.since[0])
}

func TestIngestorService_AllPurchasesPolicy(t *testing.T) {
	db := newTestDB(t)
	api := &stubSecAPIRepository{filings: []dto.Filing{
		testFiling("ACME", "0000000001-26-000001", purchase("2026-10-15", 100, 10), purchase("2026-10-16", 50, 11)),
	}}
	cfg := testConfig(config.PolicyAllPurchases)

	for i := 0; i < 2; i++ {
		svc := newIngestorService(cfg, logger.NewNop(), api, repository.NewForm4FilingRepository(db), fixedNow)
		_, err := svc.Execute(testContext(t))
		require.NoError(t, err)
	}
	assert.Equal(t, int64(2), countRows(t, db))
}

func TestIngestorService_FetchErrorIsEmptyRun(t *testing.T) {
	db := newTestDB(t)
	api := &stubSecAPIRepository{err: errors.New("dial tcp: timeout")}

	svc := newIngestorService(testConfig(config.PolicyFirstPurchase), logger.NewNop(), api, repository.NewForm4FilingRepository(db), fixedNow)
	out, err := svc.Execute(testContext(t))
	require.NoError(t, err)

	s := decodeSummary(t, out)
	assert.Equal(t, "dial tcp: timeout", s.FetchError)
	assert.Zero(t, s.Fetched)
	assert.Zero(t, countRows(t, db))
}

func TestIngestorService_StoreErrorPropagates(t *testing.T) {
	api := &stubSecAPIRepository{filings: []dto.Filing{
		testFiling("ACME", "0000000001-26-000001", purchase("2026-10-15", 100, 10)),
	}}

	svc := newIngestorService(testConfig(config.PolicyFirstPurchase), logger.NewNop(), api, failingForm4Repository{}, fixedNow)
	_, err := svc.Execute(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
}

func TestIngestorService_Name(t *testing.T) {
	svc := NewIngestorService(testConfig(config.PolicyFirstPurchase), logger.NewNop(), &stubSecAPIRepository{}, failingForm4Repository{})
	assert.Equal(t, "form4-ingestor", svc.GetName())
}
