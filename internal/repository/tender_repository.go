package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"dotk/api/internal/models"
)

var (
	ErrTenderNotFound    = errors.New("tender not found")
	ErrTenderNumberTaken = errors.New("tender number already exists")
	ErrDocumentNotFound  = errors.New("document not found")
)

type TenderFilter struct {
	Status   string
	Category string
	Search   string
}

type TenderRepository struct {
	pool *pgxpool.Pool
}

func NewTenderRepository(pool *pgxpool.Pool) *TenderRepository {
	return &TenderRepository{pool: pool}
}

const tenderColumns = `
	t.id, t.title, t.description, t.tender_number, t.reference_number,
	t.publish_date, t.closing_date, t.extended_date, t.estimated_value,
	t.category, t.status, t.department, t.contact_person, t.contact_email,
	t.contact_phone, t.created_by, t.updated_by, t.created_at, t.updated_at`

func scanTender(row pgx.Row, extra ...any) (models.Tender, error) {
	var t models.Tender
	dest := []any{
		&t.ID, &t.Title, &t.Description, &t.TenderNumber, &t.ReferenceNumber,
		&t.PublishDate, &t.ClosingDate, &t.ExtendedDate, &t.EstimatedValue,
		&t.Category, &t.Status, &t.Department, &t.ContactPerson, &t.ContactEmail,
		&t.ContactPhone, &t.CreatedBy, &t.UpdatedBy, &t.CreatedAt, &t.UpdatedAt,
	}
	dest = append(dest, extra...)

	if err := row.Scan(dest...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Tender{}, ErrTenderNotFound
		}
		return models.Tender{}, err
	}
	return t, nil
}

func tenderConflict(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation &&
		pgErr.ConstraintName == "tenders_tender_number_key" {
		return ErrTenderNumberTaken
	}
	return err
}

func (r *TenderRepository) List(ctx context.Context, filter TenderFilter) ([]models.Tender, error) {
	query := `
		SELECT` + tenderColumns + `, COUNT(d.id)
		FROM tenders t
		LEFT JOIN tender_documents d ON d.tender_id = t.id`

	var conditions []string
	var args []any

	if filter.Status != "" {
		args = append(args, filter.Status)
		conditions = append(conditions, fmt.Sprintf("t.status = $%d", len(args)))
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		conditions = append(conditions, fmt.Sprintf("t.category = $%d", len(args)))
	}
	if filter.Search != "" {
		args = append(args, "%"+filter.Search+"%")
		n := len(args)
		conditions = append(conditions, fmt.Sprintf(
			"(t.title ILIKE $%d OR t.tender_number ILIKE $%d OR t.description ILIKE $%d)", n, n, n))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " GROUP BY t.id ORDER BY t.created_at DESC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	for rows.Next() {
		var count int
		t, err := scanTender(rows, &count)
		if err != nil {
			return nil, err
		}
		t.DocumentsCount = count
		tenders = append(tenders, t)
	}
	return tenders, rows.Err()
}

// Get loads a tender with its ordered documents and the names of the
// users who created and last updated it.
func (r *TenderRepository) Get(ctx context.Context, id int64) (models.Tender, error) {
	query := `
		SELECT` + tenderColumns + `, c.full_name, u.full_name
		FROM tenders t
		LEFT JOIN users c ON c.id = t.created_by
		LEFT JOIN users u ON u.id = t.updated_by
		WHERE t.id = $1`

	var creator, updater *string
	t, err := scanTender(r.pool.QueryRow(ctx, query, id), &creator, &updater)
	if err != nil {
		return models.Tender{}, err
	}
	t.CreatorName = creator
	t.UpdaterName = updater

	t.Documents, err = r.listDocuments(ctx, id)
	if err != nil {
		return models.Tender{}, err
	}
	t.DocumentsCount = len(t.Documents)
	return t, nil
}

func (r *TenderRepository) Create(ctx context.Context, t *models.Tender) error {
	const query = `
		INSERT INTO tenders (
			title, description, tender_number, reference_number, publish_date,
			closing_date, extended_date, estimated_value, category, status,
			department, contact_person, contact_email, contact_phone,
			created_by, updated_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16
		)
		RETURNING id, created_at, updated_at`

	err := r.pool.QueryRow(ctx, query,
		t.Title, t.Description, t.TenderNumber, t.ReferenceNumber, t.PublishDate,
		t.ClosingDate, t.ExtendedDate, t.EstimatedValue, t.Category, t.Status,
		t.Department, t.ContactPerson, t.ContactEmail, t.ContactPhone,
		t.CreatedBy, t.UpdatedBy,
	).Scan(&t.ID, &t.CreatedAt, &t.UpdatedAt)
	if err != nil {
		return tenderConflict(err)
	}
	return nil
}

func (r *TenderRepository) Update(ctx context.Context, t *models.Tender) error {
	const query = `
		UPDATE tenders
		SET title = $2, description = $3, tender_number = $4, reference_number = $5,
		    publish_date = $6, closing_date = $7, extended_date = $8,
		    estimated_value = $9, category = $10, status = $11, department = $12,
		    contact_person = $13, contact_email = $14, contact_phone = $15,
		    updated_by = $16, updated_at = NOW()
		WHERE id = $1`

	cmd, err := r.pool.Exec(ctx, query,
		t.ID, t.Title, t.Description, t.TenderNumber, t.ReferenceNumber,
		t.PublishDate, t.ClosingDate, t.ExtendedDate, t.EstimatedValue,
		t.Category, t.Status, t.Department, t.ContactPerson, t.ContactEmail,
		t.ContactPhone, t.UpdatedBy,
	)
	if err != nil {
		return tenderConflict(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrTenderNotFound
	}
	return nil
}

// Delete removes a tender and its document rows in one transaction.
// Removing the uploaded files from disk is the caller's job.
func (r *TenderRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, `DELETE FROM tender_documents WHERE tender_id = $1`, id); err != nil {
		return err
	}

	cmd, err := tx.Exec(ctx, `DELETE FROM tenders WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTenderNotFound
	}

	return tx.Commit(ctx)
}

func (r *TenderRepository) Stats(ctx context.Context) (models.TenderStats, error) {
	const query = `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status IN ('active', 'extended')),
			COUNT(*) FILTER (WHERE status = 'draft'),
			COUNT(*) FILTER (WHERE status = 'closed'),
			COUNT(*) FILTER (WHERE status = 'cancelled')
		FROM tenders`

	var stats models.TenderStats
	err := r.pool.QueryRow(ctx, query).Scan(
		&stats.Total, &stats.Active, &stats.Draft, &stats.Closed, &stats.Cancelled)
	return stats, err
}

// ListPublished returns every non-draft tender with documents attached,
// newest publish date first. Feeds the public site.
func (r *TenderRepository) ListPublished(ctx context.Context) ([]models.Tender, error) {
	query := `
		SELECT` + tenderColumns + `
		FROM tenders t
		WHERE t.status != 'draft'
		ORDER BY t.publish_date DESC`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tenders []models.Tender
	var ids []int64
	for rows.Next() {
		t, err := scanTender(rows)
		if err != nil {
			return nil, err
		}
		tenders = append(tenders, t)
		ids = append(ids, t.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(tenders) == 0 {
		return tenders, nil
	}

	docs, err := r.documentsForTenders(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range tenders {
		tenders[i].Documents = docs[tenders[i].ID]
		tenders[i].DocumentsCount = len(tenders[i].Documents)
	}
	return tenders, nil
}

const documentColumns = `
	id, tender_id, name, file_path, file_type, file_size, sort_order,
	created_at, updated_at`

func scanDocument(row pgx.Row) (models.TenderDocument, error) {
	var d models.TenderDocument
	err := row.Scan(
		&d.ID, &d.TenderID, &d.Name, &d.FilePath, &d.FileType,
		&d.FileSize, &d.SortOrder, &d.CreatedAt, &d.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.TenderDocument{}, ErrDocumentNotFound
	}
	return d, err
}

func (r *TenderRepository) listDocuments(ctx context.Context, tenderID int64) ([]models.TenderDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM tender_documents WHERE tender_id = $1 ORDER BY sort_order`

	rows, err := r.pool.Query(ctx, query, tenderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var docs []models.TenderDocument
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, d)
	}
	return docs, rows.Err()
}

func (r *TenderRepository) documentsForTenders(ctx context.Context, ids []int64) (map[int64][]models.TenderDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM tender_documents WHERE tender_id = ANY($1) ORDER BY tender_id, sort_order`

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	docs := make(map[int64][]models.TenderDocument)
	for rows.Next() {
		d, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs[d.TenderID] = append(docs[d.TenderID], d)
	}
	return docs, rows.Err()
}

// AddDocument appends a document to the tender. sort_order is one past
// the current maximum, so deletions never free a slot for reuse.
func (r *TenderRepository) AddDocument(ctx context.Context, d *models.TenderDocument) error {
	const query = `
		INSERT INTO tender_documents (tender_id, name, file_path, file_type, file_size, sort_order)
		VALUES ($1, $2, $3, $4, $5,
			(SELECT COALESCE(MAX(sort_order) + 1, 0) FROM tender_documents WHERE tender_id = $1))
		RETURNING id, sort_order, created_at, updated_at`

	return r.pool.QueryRow(ctx, query,
		d.TenderID, d.Name, d.FilePath, d.FileType, d.FileSize,
	).Scan(&d.ID, &d.SortOrder, &d.CreatedAt, &d.UpdatedAt)
}

func (r *TenderRepository) GetDocument(ctx context.Context, tenderID, docID int64) (models.TenderDocument, error) {
	query := `SELECT` + documentColumns + `
		FROM tender_documents WHERE tender_id = $1 AND id = $2`
	return scanDocument(r.pool.QueryRow(ctx, query, tenderID, docID))
}

func (r *TenderRepository) DeleteDocument(ctx context.Context, tenderID, docID int64) error {
	cmd, err := r.pool.Exec(ctx,
		`DELETE FROM tender_documents WHERE tender_id = $1 AND id = $2`, tenderID, docID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrDocumentNotFound
	}
	return nil
}

// CloseExpired transitions open tenders whose effective closing date
// has passed to closed. Run by the daily scheduler.
func (r *TenderRepository) CloseExpired(ctx context.Context, today time.Time) (int64, error) {
	const query = `
		UPDATE tenders
		SET status = 'closed', updated_at = NOW()
		WHERE status IN ('active', 'extended')
		  AND COALESCE(extended_date, closing_date) < $1`

	cmd, err := r.pool.Exec(ctx, query, today)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
