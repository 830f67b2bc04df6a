package card

import (
	"strconv"
	"strings"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/domain/search/keyword"
)

const cardColumns = `c.id, c.name, c.issuer_id, c.issuer_name, c.issuer_slug, c.issuer_image,
	c.logo, c.image_url, c.card_type, c.best_for, c.employment_type, c.network_type,
	c.joining_fee, c.annual_fee, c.apr, c.reward_rate, c.reward_points,
	c.min_monthly_income, c.rating, c.review_count, c.is_featured, c.is_published,
	c.url_slug, c.referral_link, c.created_at`

// whereBuilder accumulates AND-ed predicates with positional arguments.
type whereBuilder struct {
	clauses []string
	args    []any
}

func (w *whereBuilder) add(clause string, arg any) {
	w.args = append(w.args, arg)
	w.clauses = append(w.clauses, strings.ReplaceAll(clause, "?", "$"+strconv.Itoa(len(w.args))))
}

func (w *whereBuilder) addRaw(clause string) {
	w.clauses = append(w.clauses, clause)
}

func (w *whereBuilder) sql() string {
	if len(w.clauses) == 0 {
		return ""
	}
	return " WHERE " + strings.Join(w.clauses, " AND ")
}

func (w *whereBuilder) next() string {
	return "$" + strconv.Itoa(len(w.args)+1)
}

func contains(s string) string {
	return keyword.LikePattern(s)
}

// buildFilters translates catalog filters into a published-only predicate.
func buildFilters(f domcard.Filters) *whereBuilder {
	w := &whereBuilder{}
	w.addRaw("c.is_published")
	if f.Type != "" {
		w.add("c.card_type ILIKE ?", contains(f.Type))
	}
	if f.EmploymentType != "" {
		w.add("c.employment_type ILIKE ?", contains(f.EmploymentType))
	}
	if f.NetworkType != "" {
		w.add("c.network_type ILIKE ?", contains(f.NetworkType))
	}
	if f.BestFor != "" {
		w.add("c.best_for ILIKE ?", contains(f.BestFor))
	}
	if f.MinIncome > 0 {
		w.add("c.min_monthly_income >= ?", f.MinIncome)
	}
	if f.MaxIncome > 0 {
		w.add("c.min_monthly_income <= ?", f.MaxIncome)
	}
	if f.Featured != nil {
		w.add("c.is_featured = ?", *f.Featured)
	}
	if f.MinRating > 0 {
		w.add("c.rating >= ?", f.MinRating)
	}
	return w
}

func orderBy(s domcard.SortBy) string {
	switch s {
	case domcard.SortRating:
		return " ORDER BY c.rating DESC, c.review_count DESC, c.id"
	case domcard.SortNewest:
		return " ORDER BY c.created_at DESC, c.id"
	case domcard.SortIncomeLow:
		return " ORDER BY c.min_monthly_income ASC, c.id"
	case domcard.SortIncomeHigh:
		return " ORDER BY c.min_monthly_income DESC, c.id"
	case domcard.SortName:
		return " ORDER BY c.name ASC, c.id"
	default:
		return " ORDER BY c.is_featured DESC, c.rating DESC, c.review_count DESC, c.id"
	}
}

// buildListQuery renders the paginated listing query.
func buildListQuery(opts domcard.ListOptions) (string, []any) {
	w := buildFilters(opts.Filters)
	q := "SELECT " + cardColumns + " FROM cards c" + w.sql() + orderBy(opts.Sort)
	limitArg := w.next()
	w.args = append(w.args, opts.PageSize)
	offsetArg := w.next()
	w.args = append(w.args, opts.Offset())
	return q + " LIMIT " + limitArg + " OFFSET " + offsetArg, w.args
}

// buildCountQuery renders the count for the same filters.
func buildCountQuery(f domcard.Filters) (string, []any) {
	w := buildFilters(f)
	return "SELECT count(*) FROM cards c" + w.sql(), w.args
}

const keywordQuery = `SELECT ` + cardColumns + `
FROM cards c
WHERE c.is_published AND (
	c.name ILIKE $1 ESCAPE '\'
	OR c.card_type ILIKE $1 ESCAPE '\'
	OR c.best_for ILIKE $1 ESCAPE '\'
	OR EXISTS (
		SELECT 1 FROM card_features f
		WHERE f.card_id = c.id
		  AND (f.heading ILIKE $1 ESCAPE '\' OR f.description ILIKE $1 ESCAPE '\')
	)
)
ORDER BY c.is_featured DESC, c.rating DESC, c.id
LIMIT $2`

const candidatesQuery = `SELECT ` + cardColumns + `, v.embedding
FROM cards c
JOIN card_vectors v ON v.card_id = c.id AND v.content_type = $1
WHERE c.is_published
ORDER BY c.id`

const featuresQuery = `SELECT id, card_id, position, heading, description
FROM card_features
WHERE card_id = ANY($1)
ORDER BY card_id, position, id`

const upsertCardQuery = `INSERT INTO cards (
	id, name, issuer_id, issuer_name, issuer_slug, issuer_image, logo, image_url,
	card_type, best_for, employment_type, network_type, joining_fee, annual_fee,
	apr, reward_rate, reward_points, min_monthly_income, rating, review_count,
	is_featured, is_published, url_slug, referral_link, created_at
) VALUES (
	$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
	$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25
)
ON CONFLICT (id) DO UPDATE SET
	name = EXCLUDED.name,
	issuer_id = EXCLUDED.issuer_id,
	issuer_name = EXCLUDED.issuer_name,
	issuer_slug = EXCLUDED.issuer_slug,
	issuer_image = EXCLUDED.issuer_image,
	logo = EXCLUDED.logo,
	image_url = EXCLUDED.image_url,
	card_type = EXCLUDED.card_type,
	best_for = EXCLUDED.best_for,
	employment_type = EXCLUDED.employment_type,
	network_type = EXCLUDED.network_type,
	joining_fee = EXCLUDED.joining_fee,
	annual_fee = EXCLUDED.annual_fee,
	apr = EXCLUDED.apr,
	reward_rate = EXCLUDED.reward_rate,
	reward_points = EXCLUDED.reward_points,
	min_monthly_income = EXCLUDED.min_monthly_income,
	rating = EXCLUDED.rating,
	review_count = EXCLUDED.review_count,
	is_featured = EXCLUDED.is_featured,
	is_published = EXCLUDED.is_published,
	url_slug = EXCLUDED.url_slug,
	referral_link = EXCLUDED.referral_link`

const upsertVectorQuery = `INSERT INTO card_vectors (card_id, content_type, model, embedding, updated_at)
VALUES ($1, $2, $3, $4, now())
ON CONFLICT (card_id, content_type) DO UPDATE SET
	model = EXCLUDED.model,
	embedding = EXCLUDED.embedding,
	updated_at = now()`

// distinctColumns whitelists the columns FilterOptions may enumerate.
var distinctColumns = map[string]string{
	"type":            "card_type",
	"employment_type": "employment_type",
	"network_type":    "network_type",
	"best_for":        "best_for",
}

func distinctQuery(column string) string {
	return "SELECT DISTINCT " + column + " FROM cards WHERE is_published AND " +
		column + " <> '' ORDER BY " + column
}
