package store

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tsawler/msocr/model"
)

func setupTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, s.Close()) })
	return s
}

func testRecord(id string, started time.Time) RunRecord {
	conf := 87.5
	return RunRecord{
		ID:             id,
		Source:         "/data/" + id + ".pdf",
		Title:          "Informe " + id,
		Outcome:        model.OutcomePartialSuccess.String(),
		Languages:      []string{"spa", "eng"},
		StartedAt:      started,
		WallTime:       1500 * time.Millisecond,
		TotalPages:     4,
		PagesNative:    2,
		PagesOCR:       2,
		PagesFailed:    1,
		Tables:         3,
		WordsCorrected: 12,
		AvgConfidence:  &conf,
		Outputs:        []string{"out/" + id + ".md"},
		Failures: []model.PageFailure{
			{PageIndex: 3, Stage: model.StageOCR, Reason: "engine crashed"},
			{PageIndex: 1, Stage: model.StageRender, Reason: "no image"},
		},
	}
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	s, err := Open(dir)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	s, err = Open(dir)
	require.NoError(t, err)
	defer s.Close()

	var versions int
	require.NoError(t, s.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 1, versions)
}

func TestSaveAndGetRun(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	started := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	require.NoError(t, s.SaveRun(ctx, testRecord("a", started)))

	got, err := s.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "Informe a", got.Title)
	assert.Equal(t, "partial_success", got.Outcome)
	assert.Equal(t, []string{"spa", "eng"}, got.Languages)
	assert.True(t, started.Equal(got.StartedAt))
	assert.Equal(t, 1500*time.Millisecond, got.WallTime)
	assert.Equal(t, 3, got.Tables)
	require.NotNil(t, got.AvgConfidence)
	assert.InDelta(t, 87.5, *got.AvgConfidence, 1e-9)
	assert.Equal(t, []string{"out/a.md"}, got.Outputs)

	require.Len(t, got.Failures, 2)
	assert.Equal(t, 1, got.Failures[0].PageIndex)
	assert.Equal(t, model.StageRender, got.Failures[0].Stage)
	assert.Equal(t, 3, got.Failures[1].PageIndex)
}

func TestSaveRunReplaces(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()

	r := testRecord("a", time.Now())
	require.NoError(t, s.SaveRun(ctx, r))

	r.Outcome = model.OutcomeSuccess.String()
	r.Failures = nil
	r.AvgConfidence = nil
	require.NoError(t, s.SaveRun(ctx, r))

	got, err := s.GetRun(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, "success", got.Outcome)
	assert.Empty(t, got.Failures)
	assert.Nil(t, got.AvgConfidence)

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}

func TestListRunsNewestFirst(t *testing.T) {
	s := setupTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	for i, id := range []string{"old", "new", "mid"} {
		offset := []time.Duration{0, 2 * time.Hour, time.Hour}[i]
		require.NoError(t, s.SaveRun(ctx, testRecord(id, base.Add(offset))))
	}

	runs, err := s.ListRuns(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "new", runs[0].ID)
	assert.Equal(t, "mid", runs[1].ID)
	assert.Equal(t, "old", runs[2].ID)

	runs, err = s.ListRuns(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestGetRunNotFound(t *testing.T) {
	s := setupTestStore(t)
	_, err := s.GetRun(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestSaveRunRequiresID(t *testing.T) {
	s := setupTestStore(t)
	assert.Error(t, s.SaveRun(context.Background(), RunRecord{}))
}

func TestRecordFromDocument(t *testing.T) {
	doc := &model.Document{
		RunID:      "run-1",
		Source:     "informe.pdf",
		Title:      "Informe",
		Languages:  []string{"spa"},
		TotalPages: 2,
		Failures:   []model.PageFailure{{PageIndex: 1, Stage: model.StageOCR, Reason: "x"}},
		Outcome:    model.OutcomePartialSuccess,
		Metrics: model.DocumentMetrics{
			PagesNative: 1,
			PagesOCR:    1,
			PagesFailed: 1,
			TotalTables: 2,
			WallTime:    time.Second,
		},
	}
	started := time.Now()
	r := RecordFromDocument(doc, started, []string{"a.md"})
	assert.Equal(t, "run-1", r.ID)
	assert.Equal(t, "partial_success", r.Outcome)
	assert.Equal(t, 2, r.Tables)
	assert.Equal(t, time.Second, r.WallTime)
	assert.Equal(t, started, r.StartedAt)
	assert.Len(t, r.Failures, 1)
}
