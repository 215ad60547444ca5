package repo

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"niche-pacer/internal/domain"
	"niche-pacer/internal/infra/metrics"
)

//go:embed schema.sql
var schemaSQL string

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.AccountRepo = (*Postgres)(nil)
	_ domain.NicheRepo   = (*Postgres)(nil)
	_ domain.ActionRepo  = (*Postgres)(nil)
)

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// Migrate создаёт таблицы, если их ещё нет.
func (p *Postgres) Migrate(ctx context.Context) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, schemaSQL)
	metrics.ObserveNetworkRequest("postgres", "migrate", "schema", start, err)
	if err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

// EnsureAccount реализует domain.AccountRepo.
func (p *Postgres) EnsureAccount(ctx context.Context, username string) (domain.Account, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var acc domain.Account
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO accounts (username) VALUES ($1)
ON CONFLICT (username) DO UPDATE SET username = EXCLUDED.username
RETURNING id, username
`, username).Scan(&acc.ID, &acc.Username)
	metrics.ObserveNetworkRequest("postgres", "accounts_upsert", "accounts", start, err)
	return acc, err
}

// GetAccount реализует domain.AccountRepo.
func (p *Postgres) GetAccount(ctx context.Context, username string) (domain.Account, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var acc domain.Account
	start := time.Now()
	err := p.pool.QueryRow(ctx, `SELECT id, username FROM accounts WHERE username=$1`, username).Scan(&acc.ID, &acc.Username)
	metrics.ObserveNetworkRequest("postgres", "accounts_get", "accounts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Account{}, domain.ErrAccountNotFound
	}
	return acc, err
}

// ListNiches реализует domain.NicheRepo. Категории возвращаются в порядке создания.
func (p *Postgres) ListNiches(ctx context.Context, accountID int64) ([]domain.Niche, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, account_id, tag, priority
FROM niches WHERE account_id=$1
ORDER BY id
`, accountID)
	metrics.ObserveNetworkRequest("postgres", "niches_list", "niches", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var niches []domain.Niche
	for rows.Next() {
		var n domain.Niche
		if err := rows.Scan(&n.ID, &n.AccountID, &n.Tag, &n.Priority); err != nil {
			return nil, err
		}
		niches = append(niches, n)
	}
	return niches, rows.Err()
}

// CreateNiche реализует domain.NicheRepo.
func (p *Postgres) CreateNiche(ctx context.Context, niche domain.Niche) (domain.Niche, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO niches (account_id, tag, priority)
VALUES ($1,$2,$3)
RETURNING id
`, niche.AccountID, niche.Tag, niche.Priority).Scan(&niche.ID)
	metrics.ObserveNetworkRequest("postgres", "niches_insert", "niches", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return domain.Niche{}, fmt.Errorf("niche %q already exists: %w", niche.Tag, err)
		}
		return domain.Niche{}, err
	}
	return niche, nil
}

// UpdateNichePriority реализует domain.NicheRepo.
func (p *Postgres) UpdateNichePriority(ctx context.Context, nicheID int64, priority int) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE niches SET priority=$2 WHERE id=$1`, nicheID, priority)
	metrics.ObserveNetworkRequest("postgres", "niches_update_priority", "niches", start, err)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("niche %d not found", nicheID)
	}
	return nil
}

// ListAccountActions реализует domain.ActionRepo.
func (p *Postgres) ListAccountActions(ctx context.Context, accountID int64, from, to string) ([]domain.ActionRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT a.id, a.niche_id, a.target_actor, a.ts
FROM actions a JOIN niches n ON n.id = a.niche_id
WHERE n.account_id=$1 AND a.ts >= $2 AND a.ts <= $3
ORDER BY a.ts, a.id
`, accountID, from, to)
	metrics.ObserveNetworkRequest("postgres", "actions_list_account", "actions", start, err)
	if err != nil {
		return nil, err
	}
	return scanActions(rows)
}

// ListNicheActions реализует domain.ActionRepo.
func (p *Postgres) ListNicheActions(ctx context.Context, nicheID int64, from, to string) ([]domain.ActionRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, niche_id, target_actor, ts
FROM actions
WHERE niche_id=$1 AND ts >= $2 AND ts <= $3
ORDER BY ts, id
`, nicheID, from, to)
	metrics.ObserveNetworkRequest("postgres", "actions_list_niche", "actions", start, err)
	if err != nil {
		return nil, err
	}
	return scanActions(rows)
}

// AppendAction реализует domain.ActionRepo.
func (p *Postgres) AppendAction(ctx context.Context, record domain.ActionRecord) (domain.ActionRecord, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO actions (niche_id, target_actor, ts)
VALUES ($1,$2,$3)
RETURNING id
`, record.NicheID, record.TargetActor, record.Timestamp).Scan(&record.ID)
	metrics.ObserveNetworkRequest("postgres", "actions_insert", "actions", start, err)
	if err != nil {
		return domain.ActionRecord{}, err
	}
	return record, nil
}

func scanActions(rows pgx.Rows) ([]domain.ActionRecord, error) {
	defer rows.Close()
	var out []domain.ActionRecord
	for rows.Next() {
		var r domain.ActionRecord
		if err := rows.Scan(&r.ID, &r.NicheID, &r.TargetActor, &r.Timestamp); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
