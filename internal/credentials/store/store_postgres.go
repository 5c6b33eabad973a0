package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"vcissuer/internal/credentials/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	txcontext "vcissuer/pkg/platform/tx"
)

const resourceColumns = `id, participant_context_id, issuer_id, holder_id, state, format, raw_vc, credential,
	status_list_purpose, status_list_index, status_list_size, status_list_active, status_list_published,
	status_list_url, version, created_at, updated_at`

// PostgresStore persists credential resources in PostgreSQL. Statements join
// the transaction carried by ctx when present.
type PostgresStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db, now: time.Now}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *PostgresStore) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *PostgresStore) Create(ctx context.Context, resource *models.VerifiableCredentialResource) error {
	if resource == nil {
		return fmt.Errorf("credential resource is required")
	}
	credential, err := json.Marshal(resource.Credential.Credential)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	now := s.now()
	if resource.CreatedAt.IsZero() {
		resource.CreatedAt = now
	}
	sl := statusListArgs(resource.StatusList)
	_, err = s.execer(ctx).ExecContext(ctx, `
		INSERT INTO credential_resources (`+resourceColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, 1, $15, $16)`,
		resource.ID,
		resource.ParticipantContextID,
		resource.IssuerID,
		resource.HolderID,
		string(resource.State),
		string(resource.Credential.Format),
		nullString(resource.Credential.RawVC),
		credential,
		sl.purpose, sl.index, sl.size, sl.active, sl.published, sl.url,
		resource.CreatedAt,
		now,
	)
	if err != nil {
		if pgErr := uniqueViolation(err); pgErr != nil {
			if pgErr.ConstraintName == "credential_resources_pkey" {
				return sentinel.ErrAlreadyExists
			}
			return fmt.Errorf("create credential %s: %w", resource.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("create credential: %w", err)
	}
	resource.Version = 1
	resource.UpdatedAt = now
	return nil
}

// Update writes every mutable column except status_list_index, guarded by the
// resource version.
func (s *PostgresStore) Update(ctx context.Context, resource *models.VerifiableCredentialResource) error {
	if resource == nil {
		return fmt.Errorf("credential resource is required")
	}
	credential, err := json.Marshal(resource.Credential.Credential)
	if err != nil {
		return fmt.Errorf("marshal credential: %w", err)
	}
	now := s.now()
	sl := statusListArgs(resource.StatusList)

	var (
		version int
		index   sql.NullInt64
	)
	err = s.execer(ctx).QueryRowContext(ctx, `
		UPDATE credential_resources
		SET issuer_id = $2, holder_id = $3, state = $4, format = $5, raw_vc = $6, credential = $7,
			status_list_purpose = $8, status_list_size = $9, status_list_active = $10,
			status_list_published = $11, status_list_url = $12,
			version = version + 1, updated_at = $13
		WHERE id = $1 AND version = $14
		RETURNING version, status_list_index`,
		resource.ID,
		resource.IssuerID,
		resource.HolderID,
		string(resource.State),
		string(resource.Credential.Format),
		nullString(resource.Credential.RawVC),
		credential,
		sl.purpose, sl.size, sl.active, sl.published, sl.url,
		now,
		resource.Version,
	).Scan(&version, &index)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return s.missingOrStale(ctx, resource.ID)
		}
		if uniqueViolation(err) != nil {
			return fmt.Errorf("update credential %s: %w", resource.ID, sentinel.ErrConflict)
		}
		return fmt.Errorf("update credential: %w", err)
	}
	resource.Version = version
	resource.UpdatedAt = now
	if resource.StatusList != nil && index.Valid {
		resource.StatusList.CurrentIndex = int(index.Int64)
	}
	return nil
}

func (s *PostgresStore) missingOrStale(ctx context.Context, id string) error {
	var exists bool
	err := s.execer(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM credential_resources WHERE id = $1)`, id).Scan(&exists)
	if err != nil {
		return fmt.Errorf("check credential: %w", err)
	}
	if !exists {
		return sentinel.ErrNotFound
	}
	return fmt.Errorf("credential %s was modified concurrently: %w", id, sentinel.ErrConflict)
}

func (s *PostgresStore) FindByID(ctx context.Context, id string) (*models.VerifiableCredentialResource, error) {
	r, err := scanResource(s.execer(ctx).QueryRowContext(ctx,
		`SELECT `+resourceColumns+` FROM credential_resources WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential: %w", err)
	}
	return r, nil
}

func (s *PostgresStore) Query(ctx context.Context, spec query.Spec) ([]*models.VerifiableCredentialResource, error) {
	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	clause, args, err := query.SQL(spec, columns, 0)
	if err != nil {
		return nil, err
	}
	rows, err := s.execer(ctx).QueryContext(ctx,
		`SELECT `+resourceColumns+` FROM credential_resources`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query credentials: %w", err)
	}
	defer rows.Close()

	var out []*models.VerifiableCredentialResource
	for rows.Next() {
		r, err := scanResource(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credentials: %w", err)
	}
	return out, nil
}

func (s *PostgresStore) Delete(ctx context.Context, id string) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		DELETE FROM credential_resources
		WHERE id = $1 AND COALESCE(status_list_index, 0) = 0`, id)
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("status list %s is referenced by issued credentials: %w", id, sentinel.ErrInvalidState)
	}
	return nil
}

// IncrementStatusListIndex is a single compare-and-swap on the current index.
func (s *PostgresStore) IncrementStatusListIndex(ctx context.Context, id string, expected int) error {
	res, err := s.execer(ctx).ExecContext(ctx, `
		UPDATE credential_resources
		SET status_list_index = status_list_index + 1, updated_at = $3
		WHERE id = $1 AND status_list_index = $2 AND status_list_index < status_list_size`,
		id, expected, s.now())
	if err != nil {
		return fmt.Errorf("increment status list index: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("increment status list index: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("status list %s index moved past %d: %w", id, expected, sentinel.ErrConflict)
	}
	return nil
}

type statusListColumns struct {
	purpose   sql.NullString
	index     sql.NullInt64
	size      sql.NullInt64
	active    bool
	published bool
	url       sql.NullString
}

func statusListArgs(m *models.StatusListMetadata) statusListColumns {
	if m == nil {
		return statusListColumns{}
	}
	return statusListColumns{
		purpose:   sql.NullString{String: m.Purpose, Valid: true},
		index:     sql.NullInt64{Int64: int64(m.CurrentIndex), Valid: true},
		size:      sql.NullInt64{Int64: int64(m.BitstringSize), Valid: true},
		active:    m.Active,
		published: m.Published,
		url:       nullString(m.PublicURL),
	}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanResource(row rowScanner) (*models.VerifiableCredentialResource, error) {
	var (
		r          models.VerifiableCredentialResource
		state      string
		format     string
		rawVC      sql.NullString
		credential []byte
		sl         statusListColumns
	)
	if err := row.Scan(
		&r.ID, &r.ParticipantContextID, &r.IssuerID, &r.HolderID, &state, &format, &rawVC, &credential,
		&sl.purpose, &sl.index, &sl.size, &sl.active, &sl.published, &sl.url,
		&r.Version, &r.CreatedAt, &r.UpdatedAt,
	); err != nil {
		return nil, err
	}
	r.State = models.VcStatus(state)
	r.Credential.Format = models.CredentialFormat(format)
	r.Credential.RawVC = rawVC.String
	if err := json.Unmarshal(credential, &r.Credential.Credential); err != nil {
		return nil, fmt.Errorf("decode credential %s: %w", r.ID, err)
	}
	if sl.purpose.Valid {
		r.StatusList = &models.StatusListMetadata{
			Purpose:       sl.purpose.String,
			CurrentIndex:  int(sl.index.Int64),
			BitstringSize: int(sl.size.Int64),
			Active:        sl.active,
			Published:     sl.published,
			PublicURL:     sl.url.String,
		}
	}
	return &r, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func uniqueViolation(err error) *pgconn.PgError {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return pgErr
	}
	return nil
}

var _ Store = (*PostgresStore)(nil)
