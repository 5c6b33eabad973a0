package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	credmodels "vcissuer/internal/credentials/models"
	"vcissuer/internal/issuance/models"
	"vcissuer/pkg/platform/query"
	"vcissuer/pkg/platform/sentinel"
)

const definitionColumnList = `id, participant_context_id, credential_type, format, json_schema, json_schema_url,
	validity_seconds, mappings, created_at, updated_at`

// PostgresDefinitionStore persists credential definitions in credential_definitions.
type PostgresDefinitionStore struct {
	db  *sql.DB
	now func() time.Time
}

func NewPostgresDefinitionStore(db *sql.DB) *PostgresDefinitionStore {
	return &PostgresDefinitionStore{db: db, now: time.Now}
}

func (s *PostgresDefinitionStore) Create(ctx context.Context, d *models.CredentialDefinition) error {
	if d == nil {
		return fmt.Errorf("credential definition is required")
	}
	mappings, err := encodeMappings(d.Mappings)
	if err != nil {
		return err
	}
	now := s.now()
	if d.CreatedAt.IsZero() {
		d.CreatedAt = now
	}
	d.UpdatedAt = now
	_, err = execer(ctx, s.db).ExecContext(ctx, `
		INSERT INTO credential_definitions (`+definitionColumnList+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		d.ID, d.ParticipantContextID, d.CredentialType, string(d.Format),
		nullString(d.JSONSchema), nullString(d.JSONSchemaURL), int64(d.Validity/time.Second),
		mappings, d.CreatedAt, d.UpdatedAt,
	)
	if err != nil {
		return definitionWriteError(err, "create credential definition")
	}
	return nil
}

func (s *PostgresDefinitionStore) Update(ctx context.Context, d *models.CredentialDefinition) error {
	if d == nil {
		return fmt.Errorf("credential definition is required")
	}
	mappings, err := encodeMappings(d.Mappings)
	if err != nil {
		return err
	}
	d.UpdatedAt = s.now()
	err = execer(ctx, s.db).QueryRowContext(ctx, `
		UPDATE credential_definitions
		SET credential_type = $2, format = $3, json_schema = $4, json_schema_url = $5,
			validity_seconds = $6, mappings = $7, updated_at = $8
		WHERE id = $1
		RETURNING created_at`,
		d.ID, d.CredentialType, string(d.Format), nullString(d.JSONSchema), nullString(d.JSONSchemaURL),
		int64(d.Validity/time.Second), mappings, d.UpdatedAt,
	).Scan(&d.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return sentinel.ErrNotFound
		}
		return definitionWriteError(err, "update credential definition")
	}
	return nil
}

func (s *PostgresDefinitionStore) FindByID(ctx context.Context, id string) (*models.CredentialDefinition, error) {
	d, err := scanDefinition(execer(ctx, s.db).QueryRowContext(ctx,
		`SELECT `+definitionColumnList+` FROM credential_definitions WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, sentinel.ErrNotFound
		}
		return nil, fmt.Errorf("find credential definition: %w", err)
	}
	return d, nil
}

func (s *PostgresDefinitionStore) Query(ctx context.Context, spec query.Spec) ([]*models.CredentialDefinition, error) {
	if spec.SortBy == "" {
		spec.SortBy = FieldCreatedAt
	}
	clause, args, err := query.SQL(spec, definitionColumns, 0)
	if err != nil {
		return nil, err
	}
	rows, err := execer(ctx, s.db).QueryContext(ctx,
		`SELECT `+definitionColumnList+` FROM credential_definitions`+clause, args...)
	if err != nil {
		return nil, fmt.Errorf("query credential definitions: %w", err)
	}
	defer rows.Close()

	var out []*models.CredentialDefinition
	for rows.Next() {
		d, err := scanDefinition(rows)
		if err != nil {
			return nil, fmt.Errorf("scan credential definition: %w", err)
		}
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate credential definitions: %w", err)
	}
	return out, nil
}

func (s *PostgresDefinitionStore) Delete(ctx context.Context, id string) error {
	res, err := execer(ctx, s.db).ExecContext(ctx, `DELETE FROM credential_definitions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete credential definition: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete credential definition: %w", err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func definitionWriteError(err error, op string) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		if pgErr.ConstraintName == "credential_definitions_type_unique" {
			return fmt.Errorf("%s: %w", op, sentinel.ErrConflict)
		}
		return sentinel.ErrAlreadyExists
	}
	return fmt.Errorf("%s: %w", op, err)
}

func encodeMappings(mappings []models.Mapping) ([]byte, error) {
	if mappings == nil {
		mappings = []models.Mapping{}
	}
	b, err := json.Marshal(mappings)
	if err != nil {
		return nil, fmt.Errorf("marshal mappings: %w", err)
	}
	return b, nil
}

func scanDefinition(row rowScanner) (*models.CredentialDefinition, error) {
	var (
		d          models.CredentialDefinition
		format     string
		schema     sql.NullString
		schemaURL  sql.NullString
		validity   int64
		rawMapping []byte
	)
	if err := row.Scan(&d.ID, &d.ParticipantContextID, &d.CredentialType, &format, &schema, &schemaURL,
		&validity, &rawMapping, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	d.Format = credmodels.CredentialFormat(format)
	d.JSONSchema = schema.String
	d.JSONSchemaURL = schemaURL.String
	d.Validity = time.Duration(validity) * time.Second
	if err := json.Unmarshal(rawMapping, &d.Mappings); err != nil {
		return nil, fmt.Errorf("decode mappings of %s: %w", d.ID, err)
	}
	if len(d.Mappings) == 0 {
		d.Mappings = nil
	}
	return &d, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

var (
	_ DefinitionStore = (*PostgresDefinitionStore)(nil)
	_ DefinitionStore = (*InMemoryDefinitionStore)(nil)
)
