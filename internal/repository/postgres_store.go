package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JackFeatherston/Osprey/internal/domain/models"
	drepo "github.com/JackFeatherston/Osprey/internal/domain/repository"
	"github.com/JackFeatherston/Osprey/pkg/postgres"
)

// Schema statements executed at startup. Idempotent.
var proposalSchema = []string{
	`CREATE TABLE IF NOT EXISTS trade_proposals (
		id          UUID PRIMARY KEY,
		symbol      TEXT NOT NULL,
		action      TEXT NOT NULL,
		quantity    INT NOT NULL,
		price       DOUBLE PRECISION NOT NULL,
		reason      TEXT NOT NULL DEFAULT '',
		strategy    TEXT NOT NULL DEFAULT '',
		user_id     TEXT NOT NULL,
		status      TEXT NOT NULL DEFAULT 'PENDING',
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		expires_at  TIMESTAMPTZ NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_proposals_user_status
		ON trade_proposals (user_id, status, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS trade_decisions (
		id          UUID PRIMARY KEY,
		proposal_id UUID NOT NULL REFERENCES trade_proposals (id),
		decision    TEXT NOT NULL,
		notes       TEXT NOT NULL DEFAULT '',
		user_id     TEXT NOT NULL,
		executed    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS trade_executions (
		id               UUID PRIMARY KEY,
		proposal_id      UUID NOT NULL REFERENCES trade_proposals (id),
		execution_status TEXT NOT NULL DEFAULT 'PENDING',
		order_id         TEXT NOT NULL DEFAULT '',
		executed_price   DOUBLE PRECISION NOT NULL DEFAULT 0,
		executed_at      TIMESTAMPTZ,
		error_message    TEXT NOT NULL DEFAULT '',
		user_id          TEXT NOT NULL,
		created_at       TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// ProposalStore persists the proposal lifecycle in Postgres. Rows are
// never deleted; state changes are status updates only.
type ProposalStore struct {
	client *postgres.Client
}

// NewProposalStore builds the store and ensures the schema exists.
func NewProposalStore(ctx context.Context, client *postgres.Client) (drepo.ProposalStore, error) {
	if err := client.InitSchema(ctx, proposalSchema); err != nil {
		return nil, fmt.Errorf("proposal schema: %w", err)
	}
	return &ProposalStore{client: client}, nil
}

func (s *ProposalStore) InsertProposal(ctx context.Context, p *models.Proposal) (*models.Proposal, error) {
	out := *p
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Status == "" {
		out.Status = models.ProposalPending
	}

	row := s.client.DB().QueryRowContext(ctx,
		`INSERT INTO trade_proposals
			(id, symbol, action, quantity, price, reason, strategy, user_id, status, expires_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING created_at`,
		out.ID, out.Symbol, out.Action, out.Quantity, out.Price,
		out.Reason, out.StrategyName, out.UserID, out.Status, out.ExpiresAt)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert proposal: %w", err)
	}
	return &out, nil
}

func (s *ProposalStore) GetProposal(ctx context.Context, id string) (*models.Proposal, error) {
	row := s.client.DB().QueryRowContext(ctx,
		`SELECT id, symbol, action, quantity, price, reason, strategy, user_id, status, created_at, expires_at
		 FROM trade_proposals WHERE id = $1`, id)
	p, err := scanProposal(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: proposal %s", models.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get proposal: %w", err)
	}
	return p, nil
}

func (s *ProposalStore) ListProposals(ctx context.Context, userID string, status models.ProposalStatus, limit int) ([]*models.Proposal, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, symbol, action, quantity, price, reason, strategy, user_id, status, created_at, expires_at
	      FROM trade_proposals WHERE 1=1`
	args := []interface{}{}
	if userID != "" {
		args = append(args, userID)
		q += fmt.Sprintf(" AND user_id = $%d", len(args))
	}
	if status != "" {
		args = append(args, status)
		q += fmt.Sprintf(" AND status = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.client.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list proposals: %w", err)
	}
	defer rows.Close()

	var out []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProposalStore) UpdateProposalStatus(ctx context.Context, id string, status models.ProposalStatus) error {
	res, err := s.client.DB().ExecContext(ctx,
		`UPDATE trade_proposals SET status = $1 WHERE id = $2`, status, id)
	if err != nil {
		return fmt.Errorf("update proposal status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: proposal %s", models.ErrNotFound, id)
	}
	return nil
}

// ExpirePending flips every overdue PENDING proposal to EXPIRED in one
// statement and returns the affected rows.
func (s *ProposalStore) ExpirePending(ctx context.Context, now time.Time) ([]*models.Proposal, error) {
	rows, err := s.client.DB().QueryContext(ctx,
		`UPDATE trade_proposals SET status = $1
		 WHERE status = $2 AND expires_at <= $3
		 RETURNING id, symbol, action, quantity, price, reason, strategy, user_id, status, created_at, expires_at`,
		models.ProposalExpired, models.ProposalPending, now)
	if err != nil {
		return nil, fmt.Errorf("expire pending: %w", err)
	}
	defer rows.Close()

	var out []*models.Proposal
	for rows.Next() {
		p, err := scanProposal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expired proposal: %w", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

func (s *ProposalStore) InsertDecision(ctx context.Context, d *models.Decision) (*models.Decision, error) {
	out := *d
	if out.ID == "" {
		out.ID = uuid.NewString()
	}

	row := s.client.DB().QueryRowContext(ctx,
		`INSERT INTO trade_decisions (id, proposal_id, decision, notes, user_id, executed)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at`,
		out.ID, out.ProposalID, out.Decision, out.Notes, out.UserID, out.Executed)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert decision: %w", err)
	}
	return &out, nil
}

func (s *ProposalStore) UpdateDecisionExecuted(ctx context.Context, id string, executed bool) error {
	res, err := s.client.DB().ExecContext(ctx,
		`UPDATE trade_decisions SET executed = $1 WHERE id = $2`, executed, id)
	if err != nil {
		return fmt.Errorf("update decision executed: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: decision %s", models.ErrNotFound, id)
	}
	return nil
}

func (s *ProposalStore) ListDecisions(ctx context.Context, userID string, limit int) ([]*models.Decision, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, proposal_id, decision, notes, user_id, executed, created_at
	      FROM trade_decisions`
	args := []interface{}{}
	if userID != "" {
		args = append(args, userID)
		q += fmt.Sprintf(" WHERE user_id = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.client.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list decisions: %w", err)
	}
	defer rows.Close()

	var out []*models.Decision
	for rows.Next() {
		var d models.Decision
		if err := rows.Scan(&d.ID, &d.ProposalID, &d.Decision, &d.Notes, &d.UserID, &d.Executed, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan decision: %w", err)
		}
		out = append(out, &d)
	}
	return out, rows.Err()
}

func (s *ProposalStore) InsertExecution(ctx context.Context, e *models.Execution) (*models.Execution, error) {
	out := *e
	if out.ID == "" {
		out.ID = uuid.NewString()
	}
	if out.Status == "" {
		out.Status = models.ExecutionPending
	}

	row := s.client.DB().QueryRowContext(ctx,
		`INSERT INTO trade_executions
			(id, proposal_id, execution_status, order_id, executed_price, executed_at, error_message, user_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING created_at`,
		out.ID, out.ProposalID, out.Status, out.OrderID,
		out.ExecutedPrice, nullTime(out.ExecutedAt), out.ErrorMessage, out.UserID)
	if err := row.Scan(&out.CreatedAt); err != nil {
		return nil, fmt.Errorf("insert execution: %w", err)
	}
	return &out, nil
}

func (s *ProposalStore) UpdateExecution(ctx context.Context, e *models.Execution) error {
	res, err := s.client.DB().ExecContext(ctx,
		`UPDATE trade_executions
		 SET execution_status = $1, order_id = $2, executed_price = $3, executed_at = $4, error_message = $5
		 WHERE id = $6`,
		e.Status, e.OrderID, e.ExecutedPrice, nullTime(e.ExecutedAt), e.ErrorMessage, e.ID)
	if err != nil {
		return fmt.Errorf("update execution: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: execution %s", models.ErrNotFound, e.ID)
	}
	return nil
}

func (s *ProposalStore) ListExecutions(ctx context.Context, userID string, limit int) ([]*models.Execution, error) {
	if limit <= 0 {
		limit = 50
	}

	q := `SELECT id, proposal_id, execution_status, order_id, executed_price, executed_at, error_message, user_id, created_at
	      FROM trade_executions`
	args := []interface{}{}
	if userID != "" {
		args = append(args, userID)
		q += fmt.Sprintf(" WHERE user_id = $%d", len(args))
	}
	args = append(args, limit)
	q += fmt.Sprintf(" ORDER BY created_at DESC LIMIT $%d", len(args))

	rows, err := s.client.DB().QueryContext(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list executions: %w", err)
	}
	defer rows.Close()

	var out []*models.Execution
	for rows.Next() {
		var e models.Execution
		var executedAt sql.NullTime
		if err := rows.Scan(&e.ID, &e.ProposalID, &e.Status, &e.OrderID,
			&e.ExecutedPrice, &executedAt, &e.ErrorMessage, &e.UserID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan execution: %w", err)
		}
		if executedAt.Valid {
			e.ExecutedAt = executedAt.Time
		}
		out = append(out, &e)
	}
	return out, rows.Err()
}

func (s *ProposalStore) Health(ctx context.Context) error {
	return s.client.Health(ctx)
}

func (s *ProposalStore) Close() error {
	return s.client.Close()
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanProposal(r rowScanner) (*models.Proposal, error) {
	var p models.Proposal
	err := r.Scan(&p.ID, &p.Symbol, &p.Action, &p.Quantity, &p.Price,
		&p.Reason, &p.StrategyName, &p.UserID, &p.Status, &p.CreatedAt, &p.ExpiresAt)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
