package export

import (
	"archive/zip"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/RaniyaAK/arts/internal/identity"
	"github.com/RaniyaAK/arts/internal/money"
	"github.com/RaniyaAK/arts/internal/transaction"
)

var csvHeader = []string{"date", "commission", "title", "type", "mode", "amount", "reference"}

// Statement is an actor's transactions over a period.
type Statement struct {
	Role         identity.Role
	Transactions []*transaction.Transaction
	GeneratedAt  time.Time
}

// Total sums every transaction on the statement.
func (st *Statement) Total() decimal.Decimal {
	total := decimal.Zero
	for _, tx := range st.Transactions {
		total = total.Add(tx.Amount)
	}

	return total
}

// Service renders transaction statements.
type Service struct {
	transactions *transaction.Service
	format       *money.Formatter
	now          func() time.Time
}

func NewService(txService *transaction.Service, format *money.Formatter) *Service {
	return &Service{
		transactions: txService,
		format:       format,
		now:          time.Now,
	}
}

// Statement collects the transactions actor may see that match filter.
func (s *Service) Statement(ctx context.Context, actor identity.Actor, filter transaction.ListFilter) (*Statement, error) {
	txs, err := s.transactions.List(ctx, actor, filter)
	if err != nil {
		return nil, fmt.Errorf("listing transactions: %w", err)
	}

	return &Statement{Role: actor.Role, Transactions: txs, GeneratedAt: s.now()}, nil
}

// WriteCSV writes one row per transaction with plain decimal amounts.
func (s *Service) WriteCSV(w io.Writer, st *Statement) error {
	cw := csv.NewWriter(w)

	if err := cw.Write(csvHeader); err != nil {
		return fmt.Errorf("writing csv header: %w", err)
	}

	for _, tx := range st.Transactions {
		ref := ""
		if tx.ExternalReference != nil {
			ref = *tx.ExternalReference
		}

		row := []string{
			tx.CreatedAt.Format(time.DateOnly),
			tx.CommissionCode,
			tx.CommissionTitle,
			string(tx.Type),
			string(tx.Mode),
			tx.Amount.StringFixed(2),
			ref,
		}

		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing csv row for %s: %w", tx.ID, err)
		}
	}

	cw.Flush()

	return cw.Error()
}

// Summary creates a human readable body listing each transaction and the total.
func (s *Service) Summary(st *Statement) string {
	var sb strings.Builder

	// Clients pay out; artists and admins see income.
	sign := "+"
	if st.Role == identity.RoleClient {
		sign = "-"
	}

	for _, tx := range st.Transactions {
		sb.WriteString(fmt.Sprintf("* %s | %s | %s | %s %s | %s%s\n",
			tx.CreatedAt.Format(time.DateOnly),
			tx.CommissionCode,
			tx.CommissionTitle,
			tx.Type,
			tx.Mode,
			sign,
			s.format.Format(tx.Amount),
		))
	}

	sb.WriteString(fmt.Sprintf("Total (%d): %s\n", len(st.Transactions), s.format.Format(st.Total())))

	return sb.String()
}

// WriteArchive writes a zip holding statement.csv and summary.txt.
func (s *Service) WriteArchive(w io.Writer, st *Statement) error {
	zw := zip.NewWriter(w)

	f, err := zw.Create("statement.csv")
	if err != nil {
		return fmt.Errorf("adding statement.csv: %w", err)
	}

	if err := s.WriteCSV(f, st); err != nil {
		return err
	}

	f, err = zw.Create("summary.txt")
	if err != nil {
		return fmt.Errorf("adding summary.txt: %w", err)
	}

	if _, err := io.WriteString(f, s.Summary(st)); err != nil {
		return fmt.Errorf("writing summary: %w", err)
	}

	return zw.Close()
}

// Filename names a statement download.
func Filename(st *Statement, ext string) string {
	return fmt.Sprintf("statement_%s.%s", st.GeneratedAt.Format("20060102"), ext)
}
