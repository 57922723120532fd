package analysis

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/CAIO-SANTANA3127/Oportunidade-investimentos/internal/contracts"
)

// OpportunityRepository persists materialized opportunities. Inserts are
// append-only: re-running an analysis for the same day adds new rows
// rather than replacing earlier ones.
type OpportunityRepository struct {
	pool *pgxpool.Pool
}

// NewOpportunityRepository creates an opportunity repository.
func NewOpportunityRepository(pool *pgxpool.Pool) *OpportunityRepository {
	return &OpportunityRepository{pool: pool}
}

// Insert stores one opportunity and fills in its generated id.
func (r *OpportunityRepository) Insert(ctx context.Context, o *contracts.Opportunity) error {
	err := r.pool.QueryRow(ctx,
		`INSERT INTO opportunities
		   (segment_id, title, description, kind, predicted_price,
		    potential_return_pct, risk_tier, confidence, analysis_date, active)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		 RETURNING id, created_at`,
		o.SegmentID, o.Title, o.Description, o.Kind, o.PredictedPrice,
		o.PotentialReturnPct, o.RiskTier, o.Confidence, o.AnalysisDate, o.Active,
	).Scan(&o.ID, &o.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert opportunity for segment %d: %w", o.SegmentID, err)
	}
	return nil
}

// List returns active opportunities, newest analysis first. A nil
// segmentID lists across all segments.
func (r *OpportunityRepository) List(ctx context.Context, segmentID *int64) ([]contracts.Opportunity, error) {
	query := `SELECT id, segment_id, title, description, kind, predicted_price,
	                 potential_return_pct, risk_tier, confidence, analysis_date,
	                 created_at, active
	          FROM opportunities
	          WHERE active = TRUE`
	args := []interface{}{}
	if segmentID != nil {
		query += ` AND segment_id = $1`
		args = append(args, *segmentID)
	}
	query += ` ORDER BY analysis_date DESC, created_at DESC`

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}
	defer rows.Close()

	var opportunities []contracts.Opportunity
	for rows.Next() {
		var o contracts.Opportunity
		err := rows.Scan(&o.ID, &o.SegmentID, &o.Title, &o.Description, &o.Kind,
			&o.PredictedPrice, &o.PotentialReturnPct, &o.RiskTier, &o.Confidence,
			&o.AnalysisDate, &o.CreatedAt, &o.Active)
		if err != nil {
			return nil, fmt.Errorf("failed to scan opportunity row: %w", err)
		}
		opportunities = append(opportunities, o)
	}
	return opportunities, rows.Err()
}
