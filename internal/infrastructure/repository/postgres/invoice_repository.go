package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/olegsavin/invoice-assistant/internal/core/domain"
)

// InvoiceRepository persists invoice records and serves the invoice-level
// side of query plans: metadata search and pre-resolving invoice filters to
// an ID set before the vector store is consulted.
type InvoiceRepository struct {
	db *sql.DB
}

func NewInvoiceRepository(db *sql.DB) *InvoiceRepository {
	return &InvoiceRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *InvoiceRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across ingest/daemon startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026082801)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS invoices (
	id TEXT PRIMARY KEY,
	filename TEXT NOT NULL,
	file_hash TEXT NOT NULL UNIQUE,
	uploaded_at TIMESTAMPTZ NOT NULL,
	status TEXT NOT NULL,
	error_message TEXT,
	total_pages INTEGER NOT NULL DEFAULT 0,
	processing_seconds DOUBLE PRECISION NOT NULL DEFAULT 0,
	invoice_number TEXT,
	invoice_date DATE,
	sender_name TEXT,
	receiver_name TEXT,
	currency TEXT NOT NULL DEFAULT 'USD',
	total_amount DOUBLE PRECISION
);

CREATE INDEX IF NOT EXISTS idx_invoices_status ON invoices(status);
CREATE INDEX IF NOT EXISTS idx_invoices_uploaded_at ON invoices(uploaded_at DESC);
CREATE INDEX IF NOT EXISTS idx_invoices_invoice_number ON invoices(invoice_number);
CREATE INDEX IF NOT EXISTS idx_invoices_invoice_date ON invoices(invoice_date);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

const invoiceColumns = `id, filename, file_hash, uploaded_at, status, error_message, total_pages, processing_seconds, invoice_number, invoice_date, sender_name, receiver_name, currency, total_amount`

func (r *InvoiceRepository) Create(ctx context.Context, inv *domain.Invoice) error {
	_, err := r.db.ExecContext(ctx, `
INSERT INTO invoices (
	id, filename, file_hash, uploaded_at, status, error_message, total_pages, processing_seconds, invoice_number, invoice_date, sender_name, receiver_name, currency, total_amount
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
`,
		inv.ID, inv.Filename, inv.FileHash, inv.UploadedAt, string(inv.Status), inv.Error,
		inv.TotalPages, inv.ProcessingSeconds,
		nullStr(inv.InvoiceNumber), inv.InvoiceDate, nullStr(inv.SenderName), nullStr(inv.ReceiverName),
		inv.Currency, inv.TotalAmount,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.WrapError(domain.ErrDuplicateDocument, "insert invoice", err)
		}
		return fmt.Errorf("insert invoice: %w", err)
	}
	return nil
}

// isUniqueViolation detects a lost insert race on file_hash. Two parallel
// ingests of the same new file both pass the hash lookup; the loser's insert
// fails with SQLSTATE 23505.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (r *InvoiceRepository) GetByID(ctx context.Context, id string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id = $1`, id)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice", fmt.Errorf("id %s", id))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetByHash(ctx context.Context, fileHash string) (*domain.Invoice, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE file_hash = $1`, fileHash)
	inv, err := scanInvoice(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrInvoiceNotFound, "get invoice by hash", errors.New("no match"))
		}
		return nil, fmt.Errorf("scan invoice: %w", err)
	}
	return inv, nil
}

func (r *InvoiceRepository) GetByIDs(ctx context.Context, ids []string) (map[string]*domain.Invoice, error) {
	if len(ids) == 0 {
		return map[string]*domain.Invoice{}, nil
	}

	placeholders := make([]string, len(ids))
	args := make([]any, len(ids))
	for i, id := range ids {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT `+invoiceColumns+` FROM invoices WHERE id IN (`+strings.Join(placeholders, ",")+`)`,
		args...)
	if err != nil {
		return nil, fmt.Errorf("query invoices by ids: %w", err)
	}
	defer rows.Close()

	out := make(map[string]*domain.Invoice, len(ids))
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out[inv.ID] = inv
	}
	return out, rows.Err()
}

func (r *InvoiceRepository) UpdateStatus(ctx context.Context, id string, status domain.ProcessingStatus, errMessage string) error {
	_, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = $3
WHERE id = $1
`, id, string(status), errMessage)
	if err != nil {
		return fmt.Errorf("update invoice status: %w", err)
	}
	return nil
}

// FinishProcessing marks the invoice COMPLETED and persists the metadata the
// extraction pass accumulated.
func (r *InvoiceRepository) FinishProcessing(ctx context.Context, id string, totalPages int, seconds float64, invCtx domain.InvoiceContext) error {
	currency := invCtx.Currency
	if currency == "" {
		currency = "USD"
	}

	_, err := r.db.ExecContext(ctx, `
UPDATE invoices
SET status = $2, error_message = '', total_pages = $3, processing_seconds = $4,
	invoice_number = $5, invoice_date = $6, sender_name = $7, receiver_name = $8,
	currency = $9, total_amount = $10
WHERE id = $1
`,
		id, string(domain.StatusCompleted), totalPages, seconds,
		nullStr(invCtx.InvoiceNumber), parseISODate(invCtx.InvoiceDate),
		nullStr(invCtx.SenderName), nullStr(invCtx.ReceiverName),
		currency, parseAmountValue(invCtx.TotalAmount),
	)
	if err != nil {
		return fmt.Errorf("finish invoice: %w", err)
	}
	return nil
}

// SearchInvoices executes an invoice-metadata plan: filter stages become
// WHERE predicates, results come back newest-first.
func (r *InvoiceRepository) SearchInvoices(ctx context.Context, plan domain.QueryPlan) ([]domain.Invoice, error) {
	where, args, err := buildInvoiceWhere(plan)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + invoiceColumns + ` FROM invoices`
	if where != "" {
		query += " WHERE " + where
	}
	query += fmt.Sprintf(" ORDER BY uploaded_at DESC LIMIT %d", plan.Limit)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("search invoices: %w", err)
	}
	defer rows.Close()

	var out []domain.Invoice
	for rows.Next() {
		inv, err := scanInvoice(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invoice: %w", err)
		}
		out = append(out, *inv)
	}
	return out, rows.Err()
}

// ResolveInvoiceIDs narrows the plan's invoice-level stages to an ID set so
// the line-item store can apply them as a payload filter in one request. A
// nil return means the plan has no invoice-level stages; an empty non-nil
// set means the stages matched nothing.
func (r *InvoiceRepository) ResolveInvoiceIDs(ctx context.Context, plan domain.QueryPlan) ([]string, error) {
	narrowed := invoiceLevelPlan(plan)
	if !narrowed.HasPreFilters() {
		return nil, nil
	}

	where, args, err := buildInvoiceWhere(narrowed)
	if err != nil {
		return nil, err
	}

	rows, err := r.db.QueryContext(ctx, `SELECT id FROM invoices WHERE `+where, args...)
	if err != nil {
		return nil, fmt.Errorf("resolve invoice ids: %w", err)
	}
	defer rows.Close()

	ids := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan invoice id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// invoiceLevelPlan keeps only the stages that live on the invoices table.
// Line-item stages (page ranges, description) are handled by the vector
// store's payload filter.
func invoiceLevelPlan(plan domain.QueryPlan) domain.QueryPlan {
	out := domain.QueryPlan{Kind: plan.Kind, Identifier: plan.Identifier, Limit: plan.Limit}
	for _, f := range plan.Filters {
		if _, ok := invoiceFilterColumns[f.Field]; ok {
			out.Filters = append(out.Filters, f)
		}
	}
	return out
}

var invoiceFilterColumns = map[string]string{
	"invoice_date_start": "invoice_date",
	"invoice_date_end":   "invoice_date",
	"min_amount":         "total_amount",
	"max_amount":         "total_amount",
	"status":             "status",
	"sender_name":        "sender_name",
	"filename":           "filename",
}

func buildInvoiceWhere(plan domain.QueryPlan) (string, []any, error) {
	var (
		preds []string
		args  []any
	)
	arg := func(v any) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	for _, f := range plan.Filters {
		column, ok := invoiceFilterColumns[f.Field]
		if !ok {
			continue
		}
		switch f.Op {
		case domain.FilterEq:
			preds = append(preds, column+" = "+arg(f.Value))
		case domain.FilterGTE:
			preds = append(preds, column+" >= "+arg(f.Value))
		case domain.FilterLTE:
			preds = append(preds, column+" <= "+arg(f.Value))
		case domain.FilterContains:
			preds = append(preds, column+" ILIKE "+arg("%"+f.Value+"%"))
		default:
			return "", nil, domain.WrapError(domain.ErrInvalidFilter, f.Field,
				fmt.Errorf("unsupported op %q", f.Op))
		}
	}

	if id := plan.Identifier; id != nil {
		if id.Fuzzy {
			preds = append(preds, "invoice_number ILIKE "+arg("%"+id.Value+"%"))
		} else {
			preds = append(preds, "invoice_number = "+arg(id.Value))
		}
	}

	return strings.Join(preds, " AND "), args, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInvoice(row rowScanner) (*domain.Invoice, error) {
	var (
		inv           domain.Invoice
		status        string
		errMessage    sql.NullString
		invoiceNumber sql.NullString
		invoiceDate   sql.NullTime
		senderName    sql.NullString
		receiverName  sql.NullString
		totalAmount   sql.NullFloat64
	)

	err := row.Scan(
		&inv.ID, &inv.Filename, &inv.FileHash, &inv.UploadedAt, &status, &errMessage,
		&inv.TotalPages, &inv.ProcessingSeconds,
		&invoiceNumber, &invoiceDate, &senderName, &receiverName, &inv.Currency, &totalAmount,
	)
	if err != nil {
		return nil, err
	}

	inv.Status = domain.ProcessingStatus(status)
	inv.Error = errMessage.String
	inv.InvoiceNumber = invoiceNumber.String
	if invoiceDate.Valid {
		d := invoiceDate.Time
		inv.InvoiceDate = &d
	}
	inv.SenderName = senderName.String
	inv.ReceiverName = receiverName.String
	if totalAmount.Valid {
		v := totalAmount.Float64
		inv.TotalAmount = &v
	}
	return &inv, nil
}

func nullStr(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func parseISODate(raw string) any {
	if raw == "" {
		return nil
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return nil
	}
	return t
}

func parseAmountValue(raw string) any {
	if raw == "" {
		return nil
	}
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r >= '0' && r <= '9', r == '.', r == '-':
			return r
		default:
			return -1
		}
	}, raw)
	if cleaned == "" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return v
}
