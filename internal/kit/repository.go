package kit

import (
	"context"
	"encoding/json"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/koustreak/cowclash/internal/database"
	"github.com/koustreak/cowclash/internal/errs"
	"github.com/koustreak/cowclash/internal/logger"
)

const (
	tableName        = "kits"
	defaultCacheSize = 128
)

// Executor is the slice of *database.Gateway the repository uses.
type Executor interface {
	ExecuteQuery(ctx context.Context, query string, params ...database.Value) (*database.Cursor, error)
	ExecuteUpdate(ctx context.Context, query string, params ...database.Value) (int64, error)
	Dialect() database.Dialect
}

// Repository stores kits in the kits table, one row per kit with the items
// JSON-encoded. Reads go through an LRU cache that every write invalidates.
type Repository struct {
	db    Executor
	cache *lru.Cache[string, Kit]
	log   *logger.Logger
}

// RepoOption configures a Repository.
type RepoOption func(*repoOptions)

type repoOptions struct {
	cacheSize int
	log       *logger.Logger
}

// WithCacheSize sets how many kits are kept in memory.
func WithCacheSize(n int) RepoOption {
	return func(o *repoOptions) { o.cacheSize = n }
}

// WithRepoLogger sets the repository logger.
func WithRepoLogger(l *logger.Logger) RepoOption {
	return func(o *repoOptions) { o.log = l }
}

// NewRepository returns a repository over db.
func NewRepository(db Executor, opts ...RepoOption) (*Repository, error) {
	o := repoOptions{cacheSize: defaultCacheSize, log: logger.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	cache, err := lru.New[string, Kit](o.cacheSize)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindInvalidInput, "invalid kit cache size", err)
	}
	if o.log == nil {
		o.log = logger.Nop()
	}
	return &Repository{
		db:    db,
		cache: cache,
		log:   o.log.With().Str("component", "kits").Logger(),
	}, nil
}

// EnsureSchema creates the kits table if it does not exist.
func (r *Repository) EnsureSchema(ctx context.Context) error {
	q := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	name       VARCHAR(64) NOT NULL PRIMARY KEY,
	items      TEXT        NOT NULL,
	updated_at TIMESTAMP   NOT NULL DEFAULT CURRENT_TIMESTAMP
)`, r.table())
	_, err := r.db.ExecuteUpdate(ctx, q)
	return err
}

// Save inserts or replaces k.
func (r *Repository) Save(ctx context.Context, k Kit) error {
	if k.Name == "" {
		return errs.New(errs.ErrKindInvalidInput, "kit name must not be empty")
	}
	items, err := json.Marshal(k.Items)
	if err != nil {
		return errs.Wrap(errs.ErrKindInvalidInput, "failed to encode kit items", err)
	}

	if _, err := r.db.ExecuteUpdate(ctx, r.upsertQuery(), database.Text(k.Name), database.Text(string(items))); err != nil {
		return err
	}
	r.cache.Remove(k.Name)
	r.log.DebugWith("kit saved", map[string]interface{}{"kit": k.Name, "items": len(k.Items)})
	return nil
}

// SaveAll saves every kit, stopping at the first failure.
func (r *Repository) SaveAll(ctx context.Context, kits []Kit) error {
	for _, k := range kits {
		if err := r.Save(ctx, k); err != nil {
			return err
		}
	}
	return nil
}

// Get returns the kit called name, or an errs.ErrKindNotFound error.
func (r *Repository) Get(ctx context.Context, name string) (Kit, error) {
	if k, ok := r.cache.Get(name); ok {
		return k.Clone(), nil
	}

	q, params, err := database.Select(tableName, r.db.Dialect()).
		Columns("name", "items").
		Where("name", "=", database.Text(name)).
		Build()
	if err != nil {
		return Kit{}, err
	}

	kits, err := r.query(ctx, q, params)
	if err != nil {
		return Kit{}, err
	}
	if len(kits) == 0 {
		return Kit{}, errs.Newf(errs.ErrKindNotFound, "kit %q not found", name)
	}

	r.cache.Add(name, kits[0])
	return kits[0].Clone(), nil
}

// List returns every kit ordered by name.
func (r *Repository) List(ctx context.Context) ([]Kit, error) {
	q, params, err := database.Select(tableName, r.db.Dialect()).
		Columns("name", "items").
		OrderBy("name", database.Asc).
		Build()
	if err != nil {
		return nil, err
	}

	kits, err := r.query(ctx, q, params)
	if err != nil {
		return nil, err
	}
	for _, k := range kits {
		r.cache.Add(k.Name, k.Clone())
	}
	return kits, nil
}

// Delete removes the kit called name. A missing kit is errs.ErrKindNotFound.
func (r *Repository) Delete(ctx context.Context, name string) error {
	q := fmt.Sprintf("DELETE FROM %s WHERE name = ?", r.table())
	n, err := r.db.ExecuteUpdate(ctx, q, database.Text(name))
	r.cache.Remove(name)
	if err != nil {
		return err
	}
	if n == 0 {
		return errs.Newf(errs.ErrKindNotFound, "kit %q not found", name)
	}
	return nil
}

func (r *Repository) query(ctx context.Context, q string, params []database.Value) ([]Kit, error) {
	cur, err := r.db.ExecuteQuery(ctx, q, params...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	kits := make([]Kit, 0)
	for cur.Next() {
		var name, items string
		if err := cur.Scan(&name, &items); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, "failed to scan kit row", err)
		}
		k := Kit{Name: name}
		if err := json.Unmarshal([]byte(items), &k.Items); err != nil {
			return nil, errs.Wrap(errs.ErrKindQueryFailed, fmt.Sprintf("kit %q has malformed items", name), err)
		}
		kits = append(kits, k)
	}
	if err := cur.Err(); err != nil {
		return nil, errs.Wrap(errs.ErrKindQueryFailed, "error during kit iteration", err)
	}
	return kits, nil
}

func (r *Repository) table() string {
	t, _ := database.QuoteIdent(r.db.Dialect(), tableName)
	return t
}

func (r *Repository) upsertQuery() string {
	if r.db.Dialect() == database.DialectPostgres {
		return fmt.Sprintf(`INSERT INTO %s (name, items) VALUES (?, ?)
ON CONFLICT (name) DO UPDATE SET items = EXCLUDED.items, updated_at = CURRENT_TIMESTAMP`, r.table())
	}
	return fmt.Sprintf(`INSERT INTO %s (name, items) VALUES (?, ?)
ON DUPLICATE KEY UPDATE items = VALUES(items), updated_at = CURRENT_TIMESTAMP`, r.table())
}
