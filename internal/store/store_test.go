package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/iwvelando/setaside/internal/allocation"
	"github.com/iwvelando/setaside/internal/setaside"
	"github.com/iwvelando/setaside/pkg/constants"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func sampleRequest(id string, loanID int64, created time.Time) setaside.Request {
	return setaside.Request{
		ID:                      id,
		LoanID:                  loanID,
		CoreCustomerID:          77,
		SetAsideType:            constants.SetAsideTypeDSA,
		DisasterCode:            "M1234",
		ApprovalDate:            "2024-01-05",
		InstallmentDate:         "12/31/2024",
		SetAsideAmount:          decimal.RequireFromString("10000.00"),
		PaymentAfterInstallment: decimal.RequireFromString("412.37"),
		CreatedAt:               created,
	}
}

func sampleOutcome(req setaside.Request) setaside.Outcome {
	accrual := setaside.Accrual{
		NonCapitalizedInterest:         decimal.RequireFromString("100"),
		DeferredNonCapitalizedInterest: decimal.RequireFromString("50"),
		DeferredInterest:               decimal.RequireFromString("25"),
		AccruedInterest:                decimal.RequireFromString("75"),
	}
	return setaside.Outcome{
		RequestID:          req.ID,
		LoanID:             req.LoanID,
		Accrual:            accrual,
		Allocation:         allocation.Allocate(accrual.Input(req.SetAsideAmount)),
		ConfirmationNumber: "SAABC",
		CreatedAt:          req.CreatedAt,
	}
}

// exerciseStore runs the same contract against every implementation.
func exerciseStore(t *testing.T, s setaside.Store) {
	t.Helper()
	ctx := context.Background()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("missing lookups", func(t *testing.T) {
		_, err := s.GetRequest(ctx, "nope")
		assert.ErrorIs(t, err, setaside.ErrNotFound)
		_, err = s.GetOutcome(ctx, "nope")
		assert.ErrorIs(t, err, setaside.ErrNotFound)
		assert.ErrorIs(t, s.DeleteRequest(ctx, "nope"), setaside.ErrNotFound)
	})

	t.Run("outcome requires request", func(t *testing.T) {
		orphan := sampleOutcome(sampleRequest("orphan", 1, base))
		assert.ErrorIs(t, s.SaveOutcome(ctx, orphan), setaside.ErrNotFound)
	})

	t.Run("round trip", func(t *testing.T) {
		req := sampleRequest("r1", 10, base)
		require.NoError(t, s.SaveRequest(ctx, req))

		got, err := s.GetRequest(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, req.LoanID, got.LoanID)
		assert.Equal(t, req.DisasterCode, got.DisasterCode)
		assert.True(t, req.SetAsideAmount.Equal(got.SetAsideAmount))
		assert.True(t, req.PaymentAfterInstallment.Equal(got.PaymentAfterInstallment))
		assert.True(t, req.CreatedAt.Equal(got.CreatedAt))

		out := sampleOutcome(req)
		require.NoError(t, s.SaveOutcome(ctx, out))

		gotOut, err := s.GetOutcome(ctx, "r1")
		require.NoError(t, err)
		assert.Equal(t, "SAABC", gotOut.ConfirmationNumber)
		assert.True(t, out.Allocation.PrincipalAmount.Equal(gotOut.Allocation.PrincipalAmount))
		assert.True(t, out.Allocation.Total().Equal(gotOut.Allocation.Total()))
		assert.True(t, out.Accrual.AccruedInterest.Equal(gotOut.Accrual.AccruedInterest))
	})

	t.Run("list is ordered and scoped to the loan", func(t *testing.T) {
		require.NoError(t, s.SaveRequest(ctx, sampleRequest("r3", 20, base.Add(2*time.Minute))))
		require.NoError(t, s.SaveRequest(ctx, sampleRequest("r2", 20, base.Add(time.Minute))))
		require.NoError(t, s.SaveRequest(ctx, sampleRequest("r4", 21, base)))

		list, err := s.ListRequests(ctx, 20)
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "r2", list[0].ID)
		assert.Equal(t, "r3", list[1].ID)

		empty, err := s.ListRequests(ctx, 999)
		require.NoError(t, err)
		assert.Empty(t, empty)
	})

	t.Run("list orders requests within the same second", func(t *testing.T) {
		second := base.Add(5 * time.Second)
		inserts := []struct {
			id      string
			created time.Time
		}{
			{id: "s2", created: second.Add(620 * time.Millisecond)},
			{id: "s4", created: second},
			{id: "s1", created: second.Add(600 * time.Millisecond)},
			{id: "s3", created: second.Add(500 * time.Millisecond)},
		}
		for _, in := range inserts {
			require.NoError(t, s.SaveRequest(ctx, sampleRequest(in.id, 30, in.created)))
		}

		list, err := s.ListRequests(ctx, 30)
		require.NoError(t, err)
		ids := make([]string, 0, len(list))
		for _, req := range list {
			ids = append(ids, req.ID)
		}
		assert.Equal(t, []string{"s4", "s3", "s1", "s2"}, ids)
		assert.True(t, list[3].CreatedAt.Equal(second.Add(620*time.Millisecond)))
	})

	t.Run("delete removes request and outcome", func(t *testing.T) {
		require.NoError(t, s.DeleteRequest(ctx, "r1"))
		_, err := s.GetRequest(ctx, "r1")
		assert.ErrorIs(t, err, setaside.ErrNotFound)
		_, err = s.GetOutcome(ctx, "r1")
		assert.ErrorIs(t, err, setaside.ErrNotFound)
	})
}

func TestMemoryStore(t *testing.T) {
	s := NewMemory()
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteStore(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "nested", "setaside.db")
	s, err := NewSQL(zap.NewNop(), constants.DriverSQLite, dsn)
	require.NoError(t, err)
	defer s.Close()
	exerciseStore(t, s)
}

func TestSQLiteRejectsInMemoryDSN(t *testing.T) {
	tests := []string{":memory:", "file::memory:?cache=shared", "file:test.db?mode=memory"}
	for _, dsn := range tests {
		t.Run(dsn, func(t *testing.T) {
			_, err := NewSQL(zap.NewNop(), constants.DriverSQLite, dsn)
			assert.Error(t, err)
		})
	}
}

func TestFormatTimeSortsChronologically(t *testing.T) {
	base := time.Date(2024, 3, 1, 12, 0, 5, 0, time.UTC)
	times := []time.Time{
		base,
		base.Add(500 * time.Millisecond),
		base.Add(600 * time.Millisecond),
		base.Add(620 * time.Millisecond),
		base.Add(time.Second),
	}
	for i := 1; i < len(times); i++ {
		prev, cur := formatTime(times[i-1]), formatTime(times[i])
		assert.Less(t, prev, cur)
		assert.Len(t, cur, len(prev))
	}

	parsed, err := parseTime(formatTime(times[3]))
	require.NoError(t, err)
	assert.True(t, parsed.Equal(times[3]))
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	dsn := filepath.Join(t.TempDir(), "setaside.db")
	require.NoError(t, RunMigrations(constants.DriverSQLite, dsn))
	require.NoError(t, RunMigrations(constants.DriverSQLite, dsn))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		name    string
		driver  string
		dsn     string
		wantErr bool
	}{
		{name: "empty driver is memory", driver: ""},
		{name: "memory", driver: constants.DriverMemory},
		{name: "postgres without dsn", driver: constants.DriverPostgres, wantErr: true},
		{name: "unknown driver", driver: "oracle", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := Open(nil, tt.driver, tt.dsn)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.IsType(t, &Memory{}, s)
		})
	}
}

func TestRebind(t *testing.T) {
	pg := &SQL{driver: constants.DriverPostgres}
	lite := &SQL{driver: constants.DriverSQLite}
	q := "SELECT a FROM t WHERE x = ? AND y = ?"

	assert.Equal(t, "SELECT a FROM t WHERE x = $1 AND y = $2", pg.rebind(q))
	assert.Equal(t, q, lite.rebind(q))
}
