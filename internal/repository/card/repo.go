package card

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pgvector/pgvector-go"

	"github.com/kailas-cloud/cardex/internal/db"
	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/search/keyword"
)

// querier is the consumer interface over a pgx pool (ISP).
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Begin(ctx context.Context) (pgx.Tx, error)
}

// Repo implements the catalog, search and reindex card repositories on Postgres.
type Repo struct {
	db querier
}

// New creates a card repository.
func New(q querier) *Repo {
	return &Repo{db: q}
}

// List returns one page of published cards.
func (r *Repo) List(ctx context.Context, opts domcard.ListOptions) ([]domcard.Card, error) {
	q, args := buildListQuery(opts)
	return r.queryCards(ctx, q, args...)
}

// Count returns the number of published cards matching filters.
func (r *Repo) Count(ctx context.Context, f domcard.Filters) (int, error) {
	q, args := buildCountQuery(f)
	var n int
	if err := r.db.QueryRow(ctx, q, args...).Scan(&n); err != nil {
		return 0, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("count cards: %w", err)}
	}
	return n, nil
}

// Get returns a published card with its features.
func (r *Repo) Get(ctx context.Context, id string) (domcard.Card, error) {
	cards, err := r.queryCards(ctx,
		"SELECT "+cardColumns+" FROM cards c WHERE c.id = $1 AND c.is_published", id)
	if err != nil {
		return domcard.Card{}, err
	}
	if len(cards) == 0 {
		return domcard.Card{}, domain.ErrCardNotFound
	}
	return cards[0], nil
}

// GetMany returns published cards by ID, featured first then by rating.
func (r *Repo) GetMany(ctx context.Context, ids []string) ([]domcard.Card, error) {
	if len(ids) == 0 {
		return []domcard.Card{}, nil
	}
	return r.queryCards(ctx,
		"SELECT "+cardColumns+" FROM cards c WHERE c.id = ANY($1) AND c.is_published"+
			orderBy(domcard.SortFeatured), ids)
}

// Featured returns featured published cards by rating.
func (r *Repo) Featured(ctx context.Context, limit int) ([]domcard.Card, error) {
	return r.queryCards(ctx,
		"SELECT "+cardColumns+" FROM cards c WHERE c.is_published AND c.is_featured"+
			" ORDER BY c.rating DESC, c.review_count DESC, c.id LIMIT $1", limit)
}

// Published returns published cards in catalog order. limit <= 0 returns all.
func (r *Repo) Published(ctx context.Context, limit int) ([]domcard.Card, error) {
	q := "SELECT " + cardColumns + " FROM cards c WHERE c.is_published" + orderBy(domcard.SortFeatured)
	if limit > 0 {
		return r.queryCards(ctx, q+" LIMIT $1", limit)
	}
	return r.queryCards(ctx, q)
}

// KeywordSearch matches the literal query against names, categories and features.
func (r *Repo) KeywordSearch(ctx context.Context, query string, limit int) ([]domcard.Card, error) {
	return r.queryCards(ctx, keywordQuery, keyword.LikePattern(query), limit)
}

// Candidates returns every published card joined to its vector of contentType.
// Cards without such a vector are not returned.
func (r *Repo) Candidates(ctx context.Context, contentType string) ([]domcard.Candidate, error) {
	rows, err := r.db.Query(ctx, candidatesQuery, contentType)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("query candidates: %w", err)}
	}
	defer rows.Close()

	var out []domcard.Candidate
	for rows.Next() {
		var row cardRow
		var vec pgvector.Vector
		if err := rows.Scan(append(row.dest(), &vec)...); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan candidate: %w", err)}
		}
		out = append(out, domcard.Candidate{Card: row.toDomain(), Vector: vec.Slice()})
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("iterate candidates: %w", err)}
	}

	cards := make([]*domcard.Card, len(out))
	for i := range out {
		cards[i] = &out[i].Card
	}
	if err := r.attachFeatures(ctx, cards); err != nil {
		return nil, err
	}
	return out, nil
}

// FilterOptions lists distinct values for the catalog filters.
func (r *Repo) FilterOptions(ctx context.Context) (domcard.FilterOptions, error) {
	values := make(map[string][]domcard.Option, len(distinctColumns))
	for key, column := range distinctColumns {
		opts, err := r.distinct(ctx, column)
		if err != nil {
			return domcard.FilterOptions{}, err
		}
		values[key] = opts
	}
	return domcard.FilterOptions{
		Types:           values["type"],
		EmploymentTypes: values["employment_type"],
		NetworkTypes:    values["network_type"],
		BestFor:         values["best_for"],
		IncomeRanges:    domcard.IncomeRanges(),
	}, nil
}

func (r *Repo) distinct(ctx context.Context, column string) ([]domcard.Option, error) {
	rows, err := r.db.Query(ctx, distinctQuery(column))
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("distinct %s: %w", column, err)}
	}
	values, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("distinct %s: %w", column, err)}
	}
	opts := make([]domcard.Option, len(values))
	for i, v := range values {
		opts[i] = domcard.Option{Label: v, Value: v}
	}
	return opts, nil
}

// Stats summarizes the published catalog with the five top-rated cards.
func (r *Repo) Stats(ctx context.Context) (domcard.Stats, error) {
	var s domcard.Stats
	err := r.db.QueryRow(ctx, `SELECT count(*), count(*) FILTER (WHERE is_featured), COALESCE(avg(rating), 0)
FROM cards WHERE is_published`).Scan(&s.TotalCards, &s.FeaturedCards, &s.AverageRating)
	if err != nil {
		return domcard.Stats{}, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("card stats: %w", err)}
	}
	top, err := r.queryCards(ctx, "SELECT "+cardColumns+" FROM cards c WHERE c.is_published"+
		orderBy(domcard.SortRating)+" LIMIT 5")
	if err != nil {
		return domcard.Stats{}, err
	}
	s.TopRated = top
	return s, nil
}

// UpsertCard inserts or replaces a card and its full feature list.
func (r *Repo) UpsertCard(ctx context.Context, c domcard.Card) error {
	if err := c.Validate(); err != nil {
		return fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
	}
	createdAt := c.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	err := pgx.BeginFunc(ctx, r.db, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, upsertCardQuery,
			c.ID, c.Name, c.IssuerID, c.IssuerName, c.IssuerSlug, c.IssuerImage, c.Logo, c.ImageURL,
			c.Type, c.BestFor, c.EmploymentType, c.NetworkType, c.JoiningFee, c.AnnualFee,
			c.APR, c.RewardRate, c.RewardPoints, c.MinMonthlyIncome, c.Rating, c.ReviewCount,
			c.Featured, c.Published, c.URLSlug, c.ReferralLink, createdAt,
		); err != nil {
			return fmt.Errorf("upsert card %s: %w", c.ID, err)
		}
		if _, err := tx.Exec(ctx, "DELETE FROM card_features WHERE card_id = $1", c.ID); err != nil {
			return fmt.Errorf("clear features %s: %w", c.ID, err)
		}

		batch := &pgx.Batch{}
		for _, f := range c.Features {
			batch.Queue(`INSERT INTO card_features (id, card_id, position, heading, description)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (id) DO UPDATE SET card_id = EXCLUDED.card_id, position = EXCLUDED.position,
	heading = EXCLUDED.heading, description = EXCLUDED.description`,
				f.ID, c.ID, f.Position, f.Heading, f.Description)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert features %s: %w", c.ID, err)
		}
		return nil
	})
	if err != nil {
		return &db.Error{Op: db.OpExec, Err: err}
	}
	return nil
}

// UpsertVector stores the embedding of one textual view of a card.
func (r *Repo) UpsertVector(ctx context.Context, v domcard.Vector) error {
	if len(v.Values) == 0 {
		return fmt.Errorf("%w: empty vector for card %s", domain.ErrInvalidRequest, v.CardID)
	}
	if _, err := r.db.Exec(ctx, upsertVectorQuery,
		v.CardID, v.ContentType, v.Model, pgvector.NewVector(v.Values),
	); err != nil {
		return &db.Error{Op: db.OpExec, Err: fmt.Errorf("upsert vector %s: %w", v.CardID, err)}
	}
	return nil
}

func (r *Repo) queryCards(ctx context.Context, q string, args ...any) ([]domcard.Card, error) {
	rows, err := r.db.Query(ctx, q, args...)
	if err != nil {
		return nil, &db.Error{Op: db.OpQuery, Err: fmt.Errorf("query cards: %w", err)}
	}
	defer rows.Close()

	out := []domcard.Card{}
	for rows.Next() {
		var row cardRow
		if err := rows.Scan(row.dest()...); err != nil {
			return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan card: %w", err)}
		}
		out = append(out, row.toDomain())
	}
	if err := rows.Err(); err != nil {
		return nil, &db.Error{Op: db.OpScan, Err: fmt.Errorf("iterate cards: %w", err)}
	}

	cards := make([]*domcard.Card, len(out))
	for i := range out {
		cards[i] = &out[i]
	}
	if err := r.attachFeatures(ctx, cards); err != nil {
		return nil, err
	}
	return out, nil
}

// attachFeatures loads features for all cards in one query.
func (r *Repo) attachFeatures(ctx context.Context, cards []*domcard.Card) error {
	if len(cards) == 0 {
		return nil
	}
	ids := make([]string, len(cards))
	byID := make(map[string][]*domcard.Card, len(cards))
	for i, c := range cards {
		ids[i] = c.ID
		byID[c.ID] = append(byID[c.ID], c)
	}

	rows, err := r.db.Query(ctx, featuresQuery, ids)
	if err != nil {
		return &db.Error{Op: db.OpQuery, Err: fmt.Errorf("query features: %w", err)}
	}
	defer rows.Close()

	for rows.Next() {
		var f domcard.Feature
		if err := rows.Scan(&f.ID, &f.CardID, &f.Position, &f.Heading, &f.Description); err != nil {
			return &db.Error{Op: db.OpScan, Err: fmt.Errorf("scan feature: %w", err)}
		}
		for _, c := range byID[f.CardID] {
			c.Features = append(c.Features, f)
		}
	}
	if err := rows.Err(); err != nil {
		return &db.Error{Op: db.OpScan, Err: fmt.Errorf("iterate features: %w", err)}
	}
	return nil
}
