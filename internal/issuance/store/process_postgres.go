package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
	txcontext "vcissuer/pkg/platform/tx"
)

const processColumnList = `id, participant_context_id, holder_id, holder_pid, state, state_count, state_timestamp,
	credential_formats, credential_definitions, claims, error_detail, created_at, updated_at`

// PostgresProcessStore leases rows with FOR UPDATE SKIP LOCKED so concurrent
// engines never pick the same process.
type PostgresProcessStore struct {
	db   *sql.DB
	opts processOptions
}

func NewPostgresProcessStore(db *sql.DB, opts ...ProcessOption) *PostgresProcessStore {
	return &PostgresProcessStore{db: db, opts: buildProcessOptions(opts)}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func execer(ctx context.Context, db *sql.DB) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return db
}

func (s *PostgresProcessStore) Create(ctx context.Context, p *models.Process) error {
	if p == nil {
		return fmt.Errorf("issuance process is required")
	}
	cols, err := encodeProcess(p)
	if err != nil {
		return err
	}
	now := s.opts.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	if p.StateTimestamp.IsZero() {
		p.StateTimestamp = now
	}
	p.UpdatedAt = now
	_, err = execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO issuance_processes (`+processColumnList+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		p.ID, p.ParticipantContextID, p.HolderID, p.HolderPID, int(p.State), p.StateCount, p.StateTimestamp,
		cols.formats, cols.definitions, cols.claims, p.ErrorDetail, p.CreatedAt, p.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return sentinel.ErrAlreadyExists
		}
		return fmt.Errorf("create issuance process: %w", err)
	}
	return nil
}

// Save upserts p and clears the lease, unless another holder's lease is live.
func (s *PostgresProcessStore) Save(ctx context.Context, p *models.Process) error {
	if p == nil {
		return fmt.Errorf("issuance process is required")
	}
	cols, err := encodeProcess(p)
	if err != nil {
		return err
	}
	now := s.opts.now()
	if p.CreatedAt.IsZero() {
		p.CreatedAt = now
	}
	p.UpdatedAt = now
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO issuance_processes (`+processColumnList+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		ON CONFLICT (id) DO UPDATE SET
			holder_id = EXCLUDED.holder_id,
			holder_pid = EXCLUDED.holder_pid,
			state = EXCLUDED.state,
			state_count = EXCLUDED.state_count,
			state_timestamp = EXCLUDED.state_timestamp,
			credential_formats = EXCLUDED.credential_formats,
			credential_definitions = EXCLUDED.credential_definitions,
			claims = EXCLUDED.claims,
			error_detail = EXCLUDED.error_detail,
			updated_at = EXCLUDED.updated_at,
			lease_holder = NULL,
			lease_expires_at = NULL
		WHERE issuance_processes.lease_holder IS NULL
			OR issuance_processes.lease_holder = $14
			OR issuance_processes.lease_expires_at < $13`,
		p.ID, p.ParticipantContextID, p.HolderID, p.HolderPID, int(p.State), p.StateCount, p.StateTimestamp,
		cols.formats, cols.definitions, cols.claims, p.ErrorDetail, p.CreatedAt, p.UpdatedAt,
		s.opts.lease.Holder,
	)
	if err != nil {
		return fmt.Errorf("save issuance process: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("save issuance process: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("issuance process %s: %w", p.ID, sentinel.ErrLeased)
	}
	return nil
}

func (s *PostgresProcessStore) FindByID(ctx context.Context, id string) (*models.Process, error) {
	p, err := scanProcess(execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+processColumnList+` FROM issuance_processes WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find issuance process: %w", err)
	}
	return p, nil
}

func (s *PostgresProcessStore) Query(ctx context.Context, spec query.Spec) ([]*models.Process, error) {
	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	clause, args, err := query.SQL(spec, processColumns, 0)
	if err != nil {
		return nil, err
	}
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+processColumnList+` FROM issuance_processes`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query issuance processes: %w", err)
	}
	return collectProcesses(rows)
}

func (s *PostgresProcessStore) NextNotLeased(ctx context.Context, limit int, states ...models.State) ([]*models.Process, error) {
	if len(states) == 0 || limit <= 0 {
		return nil, nil
	}
	now := s.opts.now()
	args := []any{now, limit, s.opts.lease.Holder, now.Add(s.opts.lease.Duration)}
	placeholders := make([]string, len(states))
	for i, st := range states {
		args = append(args, int(st))
		placeholders[i] = fmt.Sprintf("$%d", len(args))
	}

	rows, err := execer(ctx, s.db).QueryContext(ctx, `
		WITH next AS (
			SELECT id FROM issuance_processes
			WHERE state IN (`+strings.Join(placeholders, ", ")+`)
				AND (lease_expires_at IS NULL OR lease_expires_at < $1)
			ORDER BY state_timestamp ASC
			LIMIT $2
			FOR UPDATE SKIP LOCKED
		)
		UPDATE issuance_processes p
		SET lease_holder = $3, lease_expires_at = $4
		FROM next
		WHERE p.id = next.id
		RETURNING `+prefixed("p.", processColumnList), args...)
	if err != nil {
		return nil, fmt.Errorf("lease issuance processes: %w", err)
	}
	out, err := collectProcesses(rows)
	if err != nil {
		return nil, err
	}
	// RETURNING does not preserve the CTE order.
	slices.SortFunc(out, func(a, b *models.Process) int {
		return a.StateTimestamp.Compare(b.StateTimestamp)
	})
	return out, nil
}

func (s *PostgresProcessStore) BreakLease(ctx context.Context, id string) error {
	res, err := execer(ctx, s.db).ExecContext(ctx, `
		UPDATE issuance_processes
		SET lease_holder = NULL, lease_expires_at = NULL
		WHERE id = $1 AND (lease_holder IS NULL OR lease_holder = $2 OR lease_expires_at < $3)`,
		id, s.opts.lease.Holder, s.opts.now())
	if err != nil {
		return fmt.Errorf("break lease: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("break lease: %w", err)
	}
	if n == 0 {
		if _, err := s.FindByID(ctx, id); err != nil {
			return err
		}
		return fmt.Errorf("issuance process %s: %w", id, sentinel.ErrLeased)
	}
	return nil
}

type processJSON struct {
	formats     []byte
	definitions []byte
	claims      []byte
}

func encodeProcess(p *models.Process) (processJSON, error) {
	var (
		out processJSON
		err error
	)
	formats := p.CredentialFormats
	if formats == nil {
		formats = map[string]credmodels.CredentialFormat{}
	}
	if out.formats, err = json.Marshal(formats); err != nil {
		return out, fmt.Errorf("marshal credential formats: %w", err)
	}
	definitions := p.CredentialDefinitions
	if definitions == nil {
		definitions = []string{}
	}
	if out.definitions, err = json.Marshal(definitions); err != nil {
		return out, fmt.Errorf("marshal credential definitions: %w", err)
	}
	claims := p.Claims
	if claims == nil {
		claims = map[string]any{}
	}
	if out.claims, err = json.Marshal(claims); err != nil {
		return out, fmt.Errorf("marshal claims: %w", err)
	}
	return out, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProcess(row rowScanner) (*models.Process, error) {
	var (
		p     models.Process
		state int
		cols  processJSON
	)
	if err := row.Scan(
		&p.ID, &p.ParticipantContextID, &p.HolderID, &p.HolderPID, &state, &p.StateCount, &p.StateTimestamp,
		&cols.formats, &cols.definitions, &cols.claims, &p.ErrorDetail, &p.CreatedAt, &p.UpdatedAt,
	); err != nil {
		return nil, err
	}
	p.State = models.State(state)
	if err := json.Unmarshal(cols.formats, &p.CredentialFormats); err != nil {
		return nil, fmt.Errorf("decode credential formats of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(cols.definitions, &p.CredentialDefinitions); err != nil {
		return nil, fmt.Errorf("decode credential definitions of %s: %w", p.ID, err)
	}
	if err := json.Unmarshal(cols.claims, &p.Claims); err != nil {
		return nil, fmt.Errorf("decode claims of %s: %w", p.ID, err)
	}
	return &p, nil
}

func collectProcesses(rows *sql.Rows) ([]*models.Process, error) {
	defer rows.Close()
	var out []*models.Process
	for rows.Next() {
		p, err := scanProcess(rows)
		if err != nil {
			return nil, fmt.Errorf("scan issuance process: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate issuance processes: %w", err)
	}
	return out, nil
}

func prefixed(prefix, columns string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = prefix + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

var (
	_ ProcessStore = (*PostgresProcessStore)(nil)
	_ ProcessStore = (*InMemoryProcessStore)(nil)
)
