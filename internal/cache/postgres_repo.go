package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	jsoniter "github.com/json-iterator/go"

	"catalogsearch/internal/entity"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &PostgresRepo{db: db, timeout: timeout}
}

func (r *PostgresRepo) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, r.timeout)
}

// snapshot is the jsonb payload of an entity row.
type snapshot struct {
	Title         string   `json:"title,omitempty"`
	Subtitle      string   `json:"subtitle,omitempty"`
	PubYear       int      `json:"pub_year,omitempty"`
	PubMonth      int      `json:"pub_month,omitempty"`
	PubDay        int      `json:"pub_day,omitempty"`
	Languages     []string `json:"languages,omitempty"`
	LegalDeposits []string `json:"legal_deposits,omitempty"`
	Pages         int      `json:"pages,omitempty"`
	Volumes       int      `json:"volumes,omitempty"`
	ImageURL      string   `json:"image_url,omitempty"`
	Description   string   `json:"description,omitempty"`
	BirthDate     string   `json:"birth_date,omitempty"`
	DeathDate     string   `json:"death_date,omitempty"`
	SignatureURL  string   `json:"signature_url,omitempty"`
	Website       string   `json:"website,omitempty"`
	FoundedOn     string   `json:"founded_on,omitempty"`
}

func snapshotOf(e *entity.Entity) snapshot {
	date := func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Format("2006-01-02")
	}
	return snapshot{
		Title:         e.Title,
		Subtitle:      e.Subtitle,
		PubYear:       e.PubYear,
		PubMonth:      e.PubMonth,
		PubDay:        e.PubDay,
		Languages:     e.Languages,
		LegalDeposits: e.LegalDeposits,
		Pages:         e.Pages,
		Volumes:       e.Volumes,
		ImageURL:      e.ImageURL,
		Description:   e.Description,
		BirthDate:     date(e.BirthDate),
		DeathDate:     date(e.DeathDate),
		SignatureURL:  e.SignatureURL,
		Website:       e.Website,
		FoundedOn:     date(e.FoundedOn),
	}
}

func (r *PostgresRepo) FindBySlug(ctx context.Context, kind entity.Kind, slug string) ([]Record, error) {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		SELECT id::text, kind, slug, created_at
		FROM entities
		WHERE kind = $1 AND slug = $2
		ORDER BY created_at, id`
	return r.findRecords(ctx, sql, string(kind), slug)
}

func (r *PostgresRepo) FindByIdentifiers(ctx context.Context, keys []string) ([]Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	const sql = `
		SELECT DISTINCT e.id::text, e.kind, e.slug, e.created_at
		FROM entities e
		JOIN entity_identifiers i ON i.entity_id = e.id
		WHERE i.key = ANY($1)
		ORDER BY e.created_at, e.id::text`
	return r.findRecords(ctx, sql, keys)
}

func (r *PostgresRepo) findRecords(ctx context.Context, sql string, args ...any) ([]Record, error) {
	rows, err := r.db.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("find entities: %w", err)
	}
	defer rows.Close()

	var out []Record
	index := make(map[string]int)
	var ids []string
	for rows.Next() {
		var (
			rec  Record
			kind string
		)
		if err := rows.Scan(&rec.ID, &kind, &rec.Slug, &rec.CreatedAt); err != nil {
			return nil, err
		}
		rec.Kind = entity.Kind(kind)
		index[rec.ID] = len(out)
		ids = append(ids, rec.ID)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, nil
	}

	const idSQL = `
		SELECT entity_id::text, type, value
		FROM entity_identifiers
		WHERE entity_id = ANY($1::uuid[])
		ORDER BY type, value`
	idRows, err := r.db.Query(ctx, idSQL, ids)
	if err != nil {
		return nil, fmt.Errorf("find identifiers: %w", err)
	}
	defer idRows.Close()
	for idRows.Next() {
		var entityID, typ, value string
		if err := idRows.Scan(&entityID, &typ, &value); err != nil {
			return nil, err
		}
		i := index[entityID]
		out[i].Identifiers = append(out[i].Identifiers, entity.Identifier{Type: entity.IdentifierType(typ), Value: value})
	}
	return out, idRows.Err()
}

// Commit upserts every entity with an ID in a single transaction. Holdings
// are replaced, identifiers move to the entity committed last, and relations
// are stored when both endpoints are part of the commit.
func (r *PostgresRepo) Commit(ctx context.Context, entities []*entity.Entity) error {
	ctx, cancel := r.withTimeout(ctx)
	defer cancel()

	tx, err := r.db.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	committed := make(map[*entity.Entity]bool)
	for _, e := range entities {
		if e == nil || e.ID == "" {
			continue
		}
		if err := upsertEntity(ctx, tx, e); err != nil {
			return err
		}
		committed[e] = true
	}

	const relationSQL = `
		INSERT INTO entity_relations (from_id, type, to_id)
		VALUES ($1, $2, $3)
		ON CONFLICT DO NOTHING`
	for e := range committed {
		for _, rel := range e.Relations {
			if rel.From != e || !committed[rel.To] {
				continue
			}
			if _, err := tx.Exec(ctx, relationSQL, e.ID, string(rel.Type), rel.To.ID); err != nil {
				return fmt.Errorf("insert relation: %w", err)
			}
		}
	}

	return tx.Commit(ctx)
}

func upsertEntity(ctx context.Context, tx pgx.Tx, e *entity.Entity) error {
	data, err := json.Marshal(snapshotOf(e))
	if err != nil {
		return fmt.Errorf("encode entity: %w", err)
	}
	createdAt := e.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	const entitySQL = `
		INSERT INTO entities (id, kind, slug, name, data, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now())
		ON CONFLICT (id) DO UPDATE SET
			kind = EXCLUDED.kind,
			slug = EXCLUDED.slug,
			name = EXCLUDED.name,
			data = EXCLUDED.data,
			updated_at = now()`
	if _, err := tx.Exec(ctx, entitySQL, e.ID, string(e.Kind), e.Slug, e.DisplayName(), data, createdAt); err != nil {
		return fmt.Errorf("upsert entity: %w", err)
	}

	const identifierSQL = `
		INSERT INTO entity_identifiers (key, entity_id, type, value)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (key) DO UPDATE SET entity_id = EXCLUDED.entity_id`
	for _, id := range e.Identifiers {
		if _, err := tx.Exec(ctx, identifierSQL, id.Key(), e.ID, string(id.Type), id.Value); err != nil {
			return fmt.Errorf("upsert identifier: %w", err)
		}
	}

	if e.Kind != entity.Work {
		return nil
	}
	if _, err := tx.Exec(ctx, `DELETE FROM holdings WHERE entity_id = $1`, e.ID); err != nil {
		return fmt.Errorf("clear holdings: %w", err)
	}
	const holdingSQL = `
		INSERT INTO holdings (entity_id, position, catalog_id, call_number, location_name, online_url, loanable, available)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	for i, h := range e.Holdings {
		if _, err := tx.Exec(ctx, holdingSQL, e.ID, i, h.CatalogID, h.CallNumber, h.LocationName, h.OnlineURL, h.Loanable, h.Available); err != nil {
			return fmt.Errorf("insert holding: %w", err)
		}
	}
	return nil
}
