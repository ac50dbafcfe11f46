package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/l3hautikpatel/credwise-sub000/internal/domain/model"
	"github.com/l3hautikpatel/credwise-sub000/internal/domain/service"
	"github.com/l3hautikpatel/credwise-sub000/internal/infrastructure/persistence/postgres"
	pkgpostgres "github.com/l3hautikpatel/credwise-sub000/pkg/postgres"
	"github.com/l3hautikpatel/credwise-sub000/pkg/testutil"
)

func newEvaluation(t *testing.T, fields map[string]any, at time.Time) model.CreditEvaluation {
	t.Helper()
	evaluator := service.NewEvaluator(service.WithClock(func() time.Time { return at }))
	profile, result, err := evaluator.EvaluateApplicant(context.Background(), fields, nil)
	require.NoError(t, err)
	e, err := model.NewCreditEvaluation(profile, result, at)
	require.NoError(t, err)
	return e
}

func TestEvaluationRepo_Integration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)
	pg.RunMigrations(t, postgres.Migrations, postgres.MigrationsPath)

	repo := postgres.NewEvaluationRepo(pg.Pool)
	base := time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

	approved := newEvaluation(t, testutil.ApplicantFields(testutil.ApplicantReference), base)
	student := testutil.ApplicantFields(testutil.ApplicantReference)
	student["employmentStatus"] = "Student"
	student["monthsEmployed"] = 2
	denied := newEvaluation(t, student, base.Add(time.Hour))

	require.NoError(t, repo.Save(ctx, approved))
	require.NoError(t, repo.Save(ctx, denied))

	t.Run("duplicate save is rejected", func(t *testing.T) {
		assert.ErrorIs(t, repo.Save(ctx, approved), model.ErrEvaluationExists)
	})

	t.Run("find by id restores the full result", func(t *testing.T) {
		got, err := repo.FindByID(ctx, approved.ID())
		require.NoError(t, err)

		want := approved.Result()
		res := got.Result()
		assert.Equal(t, approved.ApplicantReference(), got.ApplicantReference())
		assert.True(t, approved.LoanType().Equal(got.LoanType()))
		assert.True(t, approved.RequestedAmount().Equal(got.RequestedAmount()))
		assert.Equal(t, want.CreditScore(), res.CreditScore())
		assert.True(t, want.CreditScoreRating().Equal(res.CreditScoreRating()))
		assert.True(t, want.DTI().Equal(res.DTI()))
		assert.True(t, want.Decision().Equal(res.Decision()))
		assert.True(t, want.EMI().Equal(res.EMI()))
		assert.True(t, want.InterestRate().Equal(res.InterestRate()))
		assert.Len(t, res.Schedule(), len(want.Schedule()))
		require.Len(t, res.DecisionFactors(), len(want.DecisionFactors()))
		for i, f := range want.DecisionFactors() {
			assert.Equal(t, f.Factor(), res.DecisionFactors()[i].Factor())
			assert.True(t, f.Impact().Equal(res.DecisionFactors()[i].Impact()))
		}
		assert.True(t, approved.EvaluatedAt().Equal(got.EvaluatedAt()))
	})

	t.Run("unknown and malformed ids are not found", func(t *testing.T) {
		_, err := repo.FindByID(ctx, "7f1d7c52-5b7a-4b61-9a43-000000000000")
		assert.ErrorIs(t, err, model.ErrEvaluationNotFound)

		_, err = repo.FindByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, model.ErrEvaluationNotFound)
	})

	t.Run("find by applicant is newest first and limited", func(t *testing.T) {
		got, err := repo.FindByApplicant(ctx, testutil.ApplicantReference, 10)
		require.NoError(t, err)
		require.Len(t, got, 2)
		assert.Equal(t, denied.ID(), got[0].ID())
		assert.Equal(t, approved.ID(), got[1].ID())

		got, err = repo.FindByApplicant(ctx, testutil.ApplicantReference, 1)
		require.NoError(t, err)
		assert.Len(t, got, 1)

		got, err = repo.FindByApplicant(ctx, "nobody", 10)
		require.NoError(t, err)
		assert.Empty(t, got)
	})
}

func TestMigrations_UpDown(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	ctx := context.Background()
	pg := testutil.NewPostgresContainer(ctx, t)

	tableExists := func() bool {
		var exists bool
		err := pg.Pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM information_schema.tables WHERE table_name = 'credit_evaluations')`,
		).Scan(&exists)
		require.NoError(t, err)
		return exists
	}

	require.NoError(t, pkgpostgres.RunMigrations(pg.DSN, postgres.Migrations, postgres.MigrationsPath))
	assert.True(t, tableExists())

	// A second run has nothing to apply.
	require.NoError(t, pkgpostgres.RunMigrations(pg.DSN, postgres.Migrations, postgres.MigrationsPath))

	require.NoError(t, pkgpostgres.RunMigrationsDown(pg.DSN, postgres.Migrations, postgres.MigrationsPath))
	assert.False(t, tableExists())
}
