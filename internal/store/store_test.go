package store_test

import (
	"context"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/kiranshivaraju/replysim/internal/store"
	"github.com/kiranshivaraju/replysim/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// migrationsDir returns the absolute path to the migrations directory.
func migrationsDir() string {
	_, filename, _, _ := runtime.Caller(0)
	return filepath.Join(filepath.Dir(filename), "..", "..", "migrations")
}

func strPtr(s string) *string     { return &s }
func intPtr(i int) *int           { return &i }
func floatPtr(f float64) *float64 { return &f }

func sampleRun(company string) *models.SimulationRun {
	return &models.SimulationRun{
		CompanyName:      company,
		Scenario:         "Customer asks about order status",
		InputEmail:       "Customer asks about order status.\nWhere is order #123?",
		GeneratedSubject: strPtr("Re: order #123"),
		GeneratedBody:    strPtr("Your order shipped yesterday."),
		ModelName:        strPtr("gpt-4.1-mini"),
		LatencyMs:        intPtr(420),
		SentOK:           true,
		Grade:            floatPtr(8.5),
	}
}

// testStoreContract runs the behaviour every Store implementation must share.
func testStoreContract(t *testing.T, s store.Store) {
	ctx := context.Background()

	t.Run("EmptyCatalog", func(t *testing.T) {
		_, err := s.RandomCompanyName(ctx)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("Companies", func(t *testing.T) {
		acme := &models.Company{Name: "Acme", URL: "https://acme.example", Description: "Anvils"}
		require.NoError(t, s.CreateCompany(ctx, acme))
		assert.NotZero(t, acme.ID)
		assert.False(t, acme.CreatedAt.IsZero())

		require.NoError(t, s.CreateCompany(ctx, &models.Company{Name: "Globex"}))

		err := s.CreateCompany(ctx, &models.Company{Name: "Acme"})
		assert.ErrorIs(t, err, store.ErrDuplicateKey)

		got, err := s.GetCompanyByName(ctx, "Acme")
		require.NoError(t, err)
		assert.Equal(t, "https://acme.example", got.URL)

		_, err = s.GetCompanyByName(ctx, "Initech")
		assert.ErrorIs(t, err, store.ErrNotFound)

		list, err := s.ListCompanies(ctx)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "Acme", list[0].Name)
		assert.Equal(t, "Globex", list[1].Name)

		name, err := s.RandomCompanyName(ctx)
		require.NoError(t, err)
		assert.Contains(t, []string{"Acme", "Globex"}, name)
	})

	t.Run("Runs", func(t *testing.T) {
		run := sampleRun("Acme")
		require.NoError(t, s.CreateRun(ctx, run))
		assert.NotEqual(t, uuid.Nil, run.ID)
		assert.False(t, run.CreatedAt.IsZero())

		failed := &models.SimulationRun{
			CompanyName:  "Globex",
			Scenario:     "Refund",
			InputEmail:   "Refund please",
			ErrorMessage: strPtr("llm provider unavailable"),
		}
		require.NoError(t, s.CreateRun(ctx, failed))
		assert.NotEqual(t, run.ID, failed.ID)

		got, err := s.GetRun(ctx, run.ID)
		require.NoError(t, err)
		assert.Equal(t, "Acme", got.CompanyName)
		require.NotNil(t, got.GeneratedBody)
		assert.Equal(t, "Your order shipped yesterday.", *got.GeneratedBody)
		require.NotNil(t, got.LatencyMs)
		assert.Equal(t, 420, *got.LatencyMs)
		require.NotNil(t, got.Grade)
		assert.InDelta(t, 8.5, *got.Grade, 1e-9)
		assert.True(t, got.SentOK)
		assert.Nil(t, got.ErrorMessage)

		got, err = s.GetRun(ctx, failed.ID)
		require.NoError(t, err)
		assert.Nil(t, got.GeneratedBody)
		assert.Nil(t, got.Grade)
		assert.False(t, got.SentOK)
		require.NotNil(t, got.ErrorMessage)

		_, err = s.GetRun(ctx, uuid.New())
		assert.ErrorIs(t, err, store.ErrNotFound)

		runs, err := s.GetRunsByIDs(ctx, []uuid.UUID{run.ID, uuid.New(), failed.ID})
		require.NoError(t, err)
		assert.Len(t, runs, 2)

		runs, err = s.GetRunsByIDs(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, runs)

		require.NoError(t, s.UpdateRunGrade(ctx, failed.ID, 3))
		got, err = s.GetRun(ctx, failed.ID)
		require.NoError(t, err)
		require.NotNil(t, got.Grade)
		assert.InDelta(t, 3.0, *got.Grade, 1e-9)

		assert.ErrorIs(t, s.UpdateRunGrade(ctx, uuid.New(), 5), store.ErrNotFound)
	})

	t.Run("Summaries", func(t *testing.T) {
		started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
		ids := []uuid.UUID{uuid.New(), uuid.New()}
		first := &models.TestSummary{
			Companies:        []string{"Acme", "Globex"},
			NumEmails:        2,
			TotalRequests:    2,
			ConcurrencyLevel: 4,
			StartedAt:        started,
			FinishedAt:       started.Add(3 * time.Second),
			AvgReplyGrade:    floatPtr(7.25),
			RunIDs:           ids,
		}
		require.NoError(t, s.CreateSummary(ctx, first))
		assert.NotZero(t, first.ID)

		second := &models.TestSummary{
			Companies:        []string{},
			ConcurrencyLevel: 1,
			StartedAt:        started,
			FinishedAt:       started,
		}
		require.NoError(t, s.CreateSummary(ctx, second))
		assert.Greater(t, second.ID, first.ID)

		got, err := s.GetSummary(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"Acme", "Globex"}, got.Companies)
		assert.Equal(t, ids, got.RunIDs)
		assert.True(t, started.Equal(got.StartedAt))
		require.NotNil(t, got.AvgReplyGrade)
		assert.InDelta(t, 7.25, *got.AvgReplyGrade, 1e-9)

		got, err = s.GetSummary(ctx, second.ID)
		require.NoError(t, err)
		assert.Nil(t, got.AvgReplyGrade)
		assert.Empty(t, got.RunIDs)

		_, err = s.GetSummary(ctx, 999999)
		assert.ErrorIs(t, err, store.ErrNotFound)

		list, err := s.ListSummaries(ctx, 1)
		require.NoError(t, err)
		require.Len(t, list, 1)
		assert.Equal(t, second.ID, list[0].ID)
	})

	t.Run("Ping", func(t *testing.T) {
		assert.NoError(t, s.Ping(ctx))
	})
}
