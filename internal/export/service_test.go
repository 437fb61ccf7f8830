package export_test

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/csv"
	"io"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/text/currency"

	"github.com/RaniyaAK/arts/internal/export"
	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/money"
	"github.com/RaniyaAK/arts/internal/transaction"
)

func statementFixture() []*transaction.Transaction {
	ref := "PAY-1"

	return []*transaction.Transaction{
		{
			ID:              uuid.New(),
			Amount:          decimal.RequireFromString("1050.00"),
			Type:            transaction.TypeBalance,
			Mode:            transaction.ModeOffline,
			CreatedAt:       time.Date(2026, 4, 2, 9, 0, 0, 0, time.UTC),
			CommissionCode:  "PAL-ABC123",
			CommissionTitle: "Portrait, oil",
		},
		{
			ID:                uuid.New(),
			Amount:            decimal.RequireFromString("450.00"),
			Type:              transaction.TypeAdvance,
			Mode:              transaction.ModeOnline,
			ExternalReference: &ref,
			CreatedAt:         time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC),
			CommissionCode:    "PAL-ABC123",
			CommissionTitle:   "Portrait, oil",
		},
	}
}

func newService(t *testing.T, actor identity.Actor) (*export.Service, *export.Statement) {
	t.Helper()

	ctrl := gomock.NewController(t)
	repo := transaction.NewMockRepository(ctrl)
	repo.EXPECT().ListTransactions(gomock.Any(), gomock.Any()).Return(statementFixture(), nil)

	svc := export.NewService(transaction.NewService(repo), money.NewFormatter(currency.USD))

	st, err := svc.Statement(context.Background(), actor, transaction.ListFilter{})
	require.NoError(t, err)

	return svc, st
}

func TestService_WriteCSV(t *testing.T) {
	svc, st := newService(t, identity.Actor{ID: uuid.New(), Role: identity.RoleArtist})

	var buf bytes.Buffer
	require.NoError(t, svc.WriteCSV(&buf, st))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, rows, 3)
	assert.Equal(t, []string{"date", "commission", "title", "type", "mode", "amount", "reference"}, rows[0])
	assert.Equal(t, []string{"2026-04-02", "PAL-ABC123", "Portrait, oil", "balance", "offline", "1050.00", ""}, rows[1])
	assert.Equal(t, "PAY-1", rows[2][6])
}

func TestService_Summary(t *testing.T) {
	t.Run("Artist", func(t *testing.T) {
		svc, st := newService(t, identity.Actor{ID: uuid.New(), Role: identity.RoleArtist})

		got := svc.Summary(st)

		assert.Contains(t, got, "* 2026-04-02 | PAL-ABC123 | Portrait, oil | balance offline | +USD 1,050.00\n")
		assert.Contains(t, got, "Total (2): USD 1,500.00\n")
	})

	t.Run("ClientPaysOut", func(t *testing.T) {
		svc, st := newService(t, identity.Actor{ID: uuid.New(), Role: identity.RoleClient})

		assert.Contains(t, svc.Summary(st), "| -USD 450.00\n")
	})
}

func TestService_WriteArchive(t *testing.T) {
	svc, st := newService(t, identity.Actor{ID: uuid.New(), Role: identity.RoleAdmin})

	var buf bytes.Buffer
	require.NoError(t, svc.WriteArchive(&buf, st))

	zr, err := zip.NewReader(bytes.NewReader(buf.Bytes()), int64(buf.Len()))
	require.NoError(t, err)

	names := make(map[string]string)

	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)

		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()

		names[f.Name] = string(b)
	}

	assert.Contains(t, names, "statement.csv")
	assert.Contains(t, names["summary.txt"], "Total (2)")
}

func TestService_Statement_SystemRejected(t *testing.T) {
	ctrl := gomock.NewController(t)
	svc := export.NewService(transaction.NewService(transaction.NewMockRepository(ctrl)), money.NewFormatter(currency.USD))

	_, err := svc.Statement(context.Background(), identity.System, transaction.ListFilter{})

	assert.ErrorIs(t, err, identity.ErrNotAuthorized)
}

func TestFilename(t *testing.T) {
	st := &export.Statement{GeneratedAt: time.Date(2026, 1, 9, 0, 0, 0, 0, time.UTC)}

	assert.Equal(t, "statement_20260109.zip", export.Filename(st, "zip"))
}
