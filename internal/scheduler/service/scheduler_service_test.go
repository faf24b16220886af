package service

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"golang-insider-scanner/internal/entity"
	"golang-insider-scanner/internal/scheduler/repository"
	"golang-insider-scanner/pkg/logger"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

type stubJob struct {
	output string
	err    error
	calls  int
}

func (j *stubJob) GetName() string { return "stub-job" }

func (j *stubJob) Execute(ctx context.Context) (string, error) {
	j.calls++
	return j.output, j.err
}

type stubLocker struct {
	held     bool
	err      error
	acquired []string
	released []string
}

func (l *stubLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	if l.err != nil {
		return "", false, l.err
	}
	if l.held {
		return "", false, nil
	}
	l.acquired = append(l.acquired, key)
	return "token-1", true, nil
}

func (l *stubLocker) Release(ctx context.Context, key, token string) error {
	l.released = append(l.released, key+"/"+token)
	return nil
}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&entity.JobRun{}))
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	})
	return db
}

func storedRuns(t *testing.T, db *gorm.DB) []entity.JobRun {
	t.Helper()
	var runs []entity.JobRun
	require.NoError(t, db.Order("id").Find(&runs).Error)
	return runs
}

func TestRunOnce_Completed(t *testing.T) {
	db := newTestDB(t)
	job := &stubJob{output: `{"inserted":2}`}
	locker := &stubLocker{}
	svc := NewSchedulerService(job, repository.NewJobRunRepository(db), logger.NewNop(), Options{Locker: locker})

	run, err := svc.RunOnce(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, entity.JobRunStatusCompleted, run.Status)
	assert.Len(t, run.RunID, 36)

	runs := storedRuns(t, db)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.JobRunStatusCompleted, runs[0].Status)
	assert.Equal(t, `{"inserted":2}`, runs[0].Output.String)
	assert.True(t, runs[0].CompletedAt.Valid)
	assert.False(t, runs[0].ErrorMessage.Valid)

	assert.Equal(t, []string{"insider-scanner:lock:stub-job"}, locker.acquired)
	assert.Equal(t, []string{"insider-scanner:lock:stub-job/token-1"}, locker.released)
}

func TestRunOnce_FailedPropagates(t *testing.T) {
	db := newTestDB(t)
	job := &stubJob{err: errors.New("insert signal: disk full")}
	svc := NewSchedulerService(job, repository.NewJobRunRepository(db), logger.NewNop(), Options{})

	run, err := svc.RunOnce(testContext(t))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	assert.Equal(t, entity.JobRunStatusFailed, run.Status)

	runs := storedRuns(t, db)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.JobRunStatusFailed, runs[0].Status)
	assert.Equal(t, "insert signal: disk full", runs[0].ErrorMessage.String)
}

func TestRunOnce_SkippedWhenLocked(t *testing.T) {
	db := newTestDB(t)
	job := &stubJob{}
	svc := NewSchedulerService(job, repository.NewJobRunRepository(db), logger.NewNop(), Options{Locker: &stubLocker{held: true}})

	run, err := svc.RunOnce(testContext(t))
	require.NoError(t, err)
	assert.Equal(t, entity.JobRunStatusSkipped, run.Status)
	assert.Zero(t, job.calls)

	runs := storedRuns(t, db)
	require.Len(t, runs, 1)
	assert.Equal(t, entity.JobRunStatusSkipped, runs[0].Status)
}

func TestRunOnce_LockErrorFails(t *testing.T) {
	db := newTestDB(t)
	job := &stubJob{}
	svc := NewSchedulerService(job, repository.NewJobRunRepository(db), logger.NewNop(), Options{Locker: &stubLocker{err: errors.New("connection refused")}})

	_, err := svc.RunOnce(testContext(t))
	require.Error(t, err)
	assert.Zero(t, job.calls)
	assert.Equal(t, entity.JobRunStatusFailed, storedRuns(t, db)[0].Status)
}

func TestStart_InvalidCron(t *testing.T) {
	svc := NewSchedulerService(&stubJob{}, repository.NewJobRunRepository(newTestDB(t)), logger.NewNop(), Options{Cron: "every tuesday"})
	assert.Error(t, svc.Start(testContext(t)))
}

func TestStart_StopsOnCancel(t *testing.T) {
	svc := NewSchedulerService(&stubJob{}, repository.NewJobRunRepository(newTestDB(t)), logger.NewNop(), Options{Cron: "@every 1h"})

	ctx, cancel := context.WithCancel(testContext(t))
	done := make(chan error, 1)
	go func() { done <- svc.Start(ctx) }()
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("scheduler did not stop")
	}
}

func TestExecutionHistoryService_GetRuns(t *testing.T) {
	db := newTestDB(t)
	repo := repository.NewJobRunRepository(db)
	base := time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)
	for i, name := range []string{"a", "b", "a"} {
		require.NoError(t, repo.Create(testContext(t), &entity.JobRun{
			RunID:     "run-" + string(rune('1'+i)),
			JobName:   name,
			Status:    entity.JobRunStatusRunning,
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		}))
	}

	svc := NewExecutionHistoryService(repo, logger.NewNop())

	all, err := svc.GetRuns(testContext(t), "", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "run-3", all[0].RunID)

	onlyA, err := svc.GetRuns(testContext(t), "a", 1)
	require.NoError(t, err)
	require.Len(t, onlyA, 1)
	assert.Equal(t, "run-3", onlyA[0].RunID)

	one, err := svc.GetRunByID(testContext(t), "run-2")
	require.NoError(t, err)
	assert.Equal(t, "b", one.JobName)
	assert.Nil(t, one.CompletedAt)

	_, err = svc.GetRunByID(testContext(t), "missing")
	assert.Error(t, err)
}
