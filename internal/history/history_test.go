package history

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"scriptunit/internal/domain"
)

func TestDSNFromEnv(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "3307")
	t.Setenv("DB_USERNAME", "ci")
	t.Setenv("DB_PASSWORD", "secret")
	t.Setenv("DB_DATABASE", "")

	cfg, err := mysql.ParseDSN(DSNFromEnv())
	require.NoError(t, err)

	assert.Equal(t, "db.internal:3307", cfg.Addr)
	assert.Equal(t, "ci", cfg.User)
	assert.Equal(t, "secret", cfg.Passwd)
	assert.Equal(t, DefaultDatabase, cfg.DBName)
}

func TestNormalizeDSN(t *testing.T) {
	tests := []struct {
		name    string
		dsn     string
		wantErr bool
	}{
		{name: "valid", dsn: "user:pw@tcp(localhost:3306)/runs"},
		{name: "missing database", dsn: "user:pw@tcp(localhost:3306)/", wantErr: true},
		{name: "malformed", dsn: "user:pw@tcp(localhost:3306", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dsn, err := normalizeDSN(tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)

			cfg, err := mysql.ParseDSN(dsn)
			require.NoError(t, err)
			assert.True(t, cfg.ParseTime)
		})
	}
}

func sampleOutput(runID string) *domain.TestResultsOutput {
	return &domain.TestResultsOutput{
		Meta: domain.TestResultsMeta{
			RunID:           runID,
			TotalTestFiles:  3,
			FailedTestFiles: 1,
			PassedTestCases: 7,
			FailedTestCases: 1,
			IgnoredCases:    2,
			DurationSeconds: 0.25,
			Timestamp:       "2026-10-19T12:00:00Z",
		},
		Details: []domain.TestFailure{{TestName: "testDiv", SuiteName: "Calc", FilePath: "calc_test.gos", Status: domain.StatusFailed, Message: "Value is false"}},
	}
}

func TestRunFromOutput(t *testing.T) {
	run, err := runFromOutput(sampleOutput("abc"))
	require.NoError(t, err)

	assert.Equal(t, Run{
		RunID:           "abc",
		FinishedAt:      time.Date(2026, 10, 19, 12, 0, 0, 0, time.UTC),
		Files:           3,
		FailedFiles:     1,
		Passed:          7,
		Failed:          1,
		Ignored:         2,
		DurationSeconds: 0.25,
	}, run)
	assert.False(t, run.Success())

	_, err = runFromOutput(&domain.TestResultsOutput{})
	assert.Error(t, err)

	broken := sampleOutput("abc")
	broken.Meta.Timestamp = "yesterday"
	_, err = runFromOutput(broken)
	assert.Error(t, err)
}

// TestStore_RecordAndRecent needs a MySQL server, named by
// SCRIPTUNIT_TEST_MYSQL_DSN.
func TestStore_RecordAndRecent(t *testing.T) {
	dsn := os.Getenv("SCRIPTUNIT_TEST_MYSQL_DSN")
	if dsn == "" {
		t.Skip("SCRIPTUNIT_TEST_MYSQL_DSN not set")
	}

	ctx := context.Background()
	store, err := Open(ctx, dsn)
	require.NoError(t, err)
	defer store.Close()

	runID := time.Now().Format("20060102150405.000000000")
	require.NoError(t, store.Record(ctx, sampleOutput(runID)))

	runs, err := store.Recent(ctx, 50)
	require.NoError(t, err)

	var found bool
	for _, run := range runs {
		if run.RunID == runID {
			found = true
			assert.Equal(t, 7, run.Passed)
		}
	}
	assert.True(t, found)
}
