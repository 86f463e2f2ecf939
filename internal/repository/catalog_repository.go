package repository

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	"github.com/godilite/wellness-eval/internal/repository/models"
)

//go:embed schema.sql
var schema string

// ErrNotFound is returned when a lookup by primary key matches nothing.
var ErrNotFound = errors.New("not found")

// CatalogRepository reads the wellness catalogue. SaveEntity exists for
// seeding and fixtures; the service never writes on a request path.
type CatalogRepository struct {
	db *sql.DB
}

func NewCatalogRepository(db *sql.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Migrate creates the catalogue tables when they do not exist.
func (s *CatalogRepository) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate catalogue schema: %w", err)
	}
	return nil
}

func (s *CatalogRepository) GetEntity(ctx context.Context, id string) (models.EntityRow, error) {
	const query = `
		SELECT id, name, tier, overall_score
		FROM entities
		WHERE id = ?
	`

	var (
		row     models.EntityRow
		overall sql.NullFloat64
	)
	err := s.db.QueryRowContext(ctx, query, id).Scan(&row.ID, &row.Name, &row.Tier, &overall)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return models.EntityRow{}, fmt.Errorf("entity %q: %w", id, ErrNotFound)
		}
		return models.EntityRow{}, fmt.Errorf("query GetEntity: %w", err)
	}
	row.OverallScore = nullableFloat(overall)
	return row, nil
}

// ListEntities returns entities ordered by name. An empty tier lists all.
func (s *CatalogRepository) ListEntities(ctx context.Context, tier string) ([]models.EntityRow, error) {
	const query = `
		SELECT id, name, tier, overall_score
		FROM entities
		WHERE ? = '' OR tier = ?
		ORDER BY name, id
	`

	rows, err := s.db.QueryContext(ctx, query, tier, tier)
	if err != nil {
		return nil, fmt.Errorf("query ListEntities: %w", err)
	}
	defer rows.Close()

	var results []models.EntityRow
	for rows.Next() {
		var (
			r       models.EntityRow
			overall sql.NullFloat64
		)
		if err := rows.Scan(&r.ID, &r.Name, &r.Tier, &overall); err != nil {
			return nil, fmt.Errorf("scan ListEntities row: %w", err)
		}
		r.OverallScore = nullableFloat(overall)
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate ListEntities: %w", err)
	}
	return results, nil
}

func (s *CatalogRepository) GetDimensionScores(ctx context.Context, entityID string) ([]models.DimensionScoreRow, error) {
	const query = `
		SELECT dimension, score
		FROM dimension_scores
		WHERE entity_id = ?
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query GetDimensionScores: %w", err)
	}
	defer rows.Close()

	var results []models.DimensionScoreRow
	for rows.Next() {
		var r models.DimensionScoreRow
		if err := rows.Scan(&r.Dimension, &r.Score); err != nil {
			return nil, fmt.Errorf("scan GetDimensionScores row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetDimensionScores: %w", err)
	}
	return results, nil
}

func (s *CatalogRepository) GetReviews(ctx context.Context, entityID string) ([]models.ReviewRow, error) {
	const query = `
		SELECT
			id, overall_rating,
			service_rating, facilities_rating, dining_rating, value_rating,
			outcome,
			weight_change, energy_change, sleep_change, stress_change, pain_change
		FROM reviews
		WHERE entity_id = ?
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query GetReviews: %w", err)
	}
	defer rows.Close()

	var results []models.ReviewRow
	for rows.Next() {
		var (
			r                                  models.ReviewRow
			service, facilities, dining, value sql.NullFloat64
			weight, energy, sleep, stress      sql.NullFloat64
			pain                               sql.NullFloat64
			outcome                            sql.NullString
		)
		if err := rows.Scan(
			&r.ID, &r.OverallRating,
			&service, &facilities, &dining, &value,
			&outcome,
			&weight, &energy, &sleep, &stress, &pain,
		); err != nil {
			return nil, fmt.Errorf("scan GetReviews row: %w", err)
		}
		r.ServiceRating = nullableFloat(service)
		r.FacilitiesRating = nullableFloat(facilities)
		r.DiningRating = nullableFloat(dining)
		r.ValueRating = nullableFloat(value)
		r.WeightChange = nullableFloat(weight)
		r.EnergyChange = nullableFloat(energy)
		r.SleepChange = nullableFloat(sleep)
		r.StressChange = nullableFloat(stress)
		r.PainChange = nullableFloat(pain)
		if outcome.Valid {
			o := outcome.String
			r.Outcome = &o
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetReviews: %w", err)
	}
	return results, nil
}

// GetBiomarkers returns the readings of every review of an entity.
func (s *CatalogRepository) GetBiomarkers(ctx context.Context, entityID string) ([]models.BiomarkerRow, error) {
	const query = `
		SELECT b.review_id, b.marker, b.before_value, b.after_value
		FROM review_biomarkers AS b
		JOIN reviews AS r ON r.entity_id = b.entity_id AND r.id = b.review_id
		WHERE b.entity_id = ?
		ORDER BY r.position, b.position
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query GetBiomarkers: %w", err)
	}
	defer rows.Close()

	var results []models.BiomarkerRow
	for rows.Next() {
		var r models.BiomarkerRow
		if err := rows.Scan(&r.ReviewID, &r.Marker, &r.Before, &r.After); err != nil {
			return nil, fmt.Errorf("scan GetBiomarkers row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetBiomarkers: %w", err)
	}
	return results, nil
}

func (s *CatalogRepository) GetOfferings(ctx context.Context, entityID string) ([]models.OfferingRow, error) {
	const query = `
		SELECT offering_key, label, signature
		FROM offerings
		WHERE entity_id = ?
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query GetOfferings: %w", err)
	}
	defer rows.Close()

	var results []models.OfferingRow
	for rows.Next() {
		var r models.OfferingRow
		if err := rows.Scan(&r.Key, &r.Label, &r.Signature); err != nil {
			return nil, fmt.Errorf("scan GetOfferings row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetOfferings: %w", err)
	}
	return results, nil
}

func (s *CatalogRepository) GetAttributes(ctx context.Context, entityID string) ([]models.AttributeRow, error) {
	const query = `
		SELECT attribute_key, label, value_json, highlight
		FROM entity_attributes
		WHERE entity_id = ?
		ORDER BY position
	`

	rows, err := s.db.QueryContext(ctx, query, entityID)
	if err != nil {
		return nil, fmt.Errorf("query GetAttributes: %w", err)
	}
	defer rows.Close()

	var results []models.AttributeRow
	for rows.Next() {
		var r models.AttributeRow
		if err := rows.Scan(&r.Key, &r.Label, &r.ValueJSON, &r.Highlight); err != nil {
			return nil, fmt.Errorf("scan GetAttributes row: %w", err)
		}
		results = append(results, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate GetAttributes: %w", err)
	}
	return results, nil
}

// GetTierAverage computes the mean stored overall score of a tier in SQL.
// Entities without a stored score are left out of the mean.
func (s *CatalogRepository) GetTierAverage(ctx context.Context, tier string) (models.TierAverage, error) {
	const query = `
		SELECT AVG(overall_score), COUNT(overall_score)
		FROM entities
		WHERE tier = ?
	`

	var (
		avg   sql.NullFloat64
		count sql.NullInt64
	)
	if err := s.db.QueryRowContext(ctx, query, tier).Scan(&avg, &count); err != nil {
		return models.TierAverage{}, fmt.Errorf("query GetTierAverage: %w", err)
	}

	result := models.TierAverage{Average: nullableFloat(avg)}
	if count.Valid {
		result.Count = count.Int64
	}
	return result, nil
}

// SaveEntity replaces an entity and all of its child rows.
func (s *CatalogRepository) SaveEntity(ctx context.Context, b models.EntityBundle) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin SaveEntity: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	id := b.Entity.ID
	cleanup := []string{
		`DELETE FROM review_biomarkers WHERE entity_id = ?`,
		`DELETE FROM reviews WHERE entity_id = ?`,
		`DELETE FROM dimension_scores WHERE entity_id = ?`,
		`DELETE FROM offerings WHERE entity_id = ?`,
		`DELETE FROM entity_attributes WHERE entity_id = ?`,
		`DELETE FROM entities WHERE id = ?`,
	}
	for _, stmt := range cleanup {
		if _, err = tx.ExecContext(ctx, stmt, id); err != nil {
			return fmt.Errorf("clear entity %q: %w", id, err)
		}
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO entities (id, name, tier, overall_score) VALUES (?, ?, ?, ?)`,
		id, b.Entity.Name, b.Entity.Tier, b.Entity.OverallScore,
	); err != nil {
		return fmt.Errorf("insert entity %q: %w", id, err)
	}

	for i, d := range b.Dimensions {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO dimension_scores (entity_id, position, dimension, score) VALUES (?, ?, ?, ?)`,
			id, i, d.Dimension, d.Score,
		); err != nil {
			return fmt.Errorf("insert dimension score: %w", err)
		}
	}

	for i, r := range b.Reviews {
		if _, err = tx.ExecContext(ctx, `
			INSERT INTO reviews (
				id, entity_id, position, overall_rating,
				service_rating, facilities_rating, dining_rating, value_rating,
				outcome,
				weight_change, energy_change, sleep_change, stress_change, pain_change
			) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			r.ID, id, i, r.OverallRating,
			r.ServiceRating, r.FacilitiesRating, r.DiningRating, r.ValueRating,
			r.Outcome,
			r.WeightChange, r.EnergyChange, r.SleepChange, r.StressChange, r.PainChange,
		); err != nil {
			return fmt.Errorf("insert review %q: %w", r.ID, err)
		}
	}

	for i, m := range b.Biomarkers {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO review_biomarkers (entity_id, review_id, position, marker, before_value, after_value) VALUES (?, ?, ?, ?, ?, ?)`,
			id, m.ReviewID, i, m.Marker, m.Before, m.After,
		); err != nil {
			return fmt.Errorf("insert biomarker: %w", err)
		}
	}

	for i, o := range b.Offerings {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO offerings (entity_id, position, offering_key, label, signature) VALUES (?, ?, ?, ?, ?)`,
			id, i, o.Key, o.Label, o.Signature,
		); err != nil {
			return fmt.Errorf("insert offering: %w", err)
		}
	}

	for i, a := range b.Attributes {
		if _, err = tx.ExecContext(ctx,
			`INSERT INTO entity_attributes (entity_id, position, attribute_key, label, value_json, highlight) VALUES (?, ?, ?, ?, ?, ?)`,
			id, i, a.Key, a.Label, a.ValueJSON, a.Highlight,
		); err != nil {
			return fmt.Errorf("insert attribute: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit SaveEntity: %w", err)
	}
	return nil
}

func nullableFloat(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}
