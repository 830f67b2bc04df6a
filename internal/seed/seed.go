// Package seed reads catalog exports into cards and writes them to a store.
//
// The export is the issuer listing format: a `cardIssuer` array of cards and
// a flat `cardFeatureList` joined to cards by `cardID`.
package seed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/logger"
)

// Writer stores cards.
type Writer interface {
	UpsertCard(ctx context.Context, c domcard.Card) error
}

// export is the on-disk shape.
type export struct {
	Cards    []cardRow    `json:"cardIssuer"`
	Features []featureRow `json:"cardFeatureList"`
}

type cardRow struct {
	IssuerName           *string `json:"cardIssuerName"`
	Logo                 *string `json:"cardLogo"`
	IssuerID             *string `json:"cardIssuerID"`
	IssuerImage          string  `json:"issuerImage"`
	IssuerSlug           string  `json:"issuerSlug"`
	IsFeatured           int     `json:"isFeatured"`
	Publish              int     `json:"publish"`
	CardID               flexID  `json:"cardID"`
	CardName             string  `json:"cardName"`
	CardImage            string  `json:"cardImage"`
	JoiningFee           string  `json:"joiningFee"`
	AnnualFee            string  `json:"annualFee"`
	MinMonthlyIncome     float64 `json:"minMonthlyIncome"`
	AnnualPercentageRate string  `json:"annualPercentageRate"`
	CardType             string  `json:"cardType"`
	EmploymentType       string  `json:"employmentType"`
	NetworkType          *string `json:"networkType"`
	URLSlug              string  `json:"urlSlug"`
	OverAllRating        float64 `json:"overAllRating"`
	StatsCount           int     `json:"statsCount"`
	DateCreated          string  `json:"datecreated"`
	RewardPoints         *string `json:"rewardPoints"`
	BestFor              string  `json:"bestFor"`
	RewardRate           string  `json:"rewardRate"`
	ReferralLink         *string `json:"referralLink"`
}

type featureRow struct {
	ID           *flexID `json:"cardFeatureID"`
	CardID       flexID  `json:"cardID"`
	SerialNumber *int    `json:"serialNumber"`
	Heading      string  `json:"heading"`
	Description  *string `json:"description"`
}

// flexID accepts ids exported either as strings or as numbers.
type flexID string

func (f *flexID) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*f = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		*f = flexID(strings.TrimSpace(s))
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("id must be a string or number: %s", b)
	}
	*f = flexID(n.String())
	return nil
}

var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func parseDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// Parse decodes an export. Features that reference unknown cards are dropped;
// features without a serial number keep their export order.
func Parse(r io.Reader) ([]domcard.Card, error) {
	var ex export
	if err := json.NewDecoder(r).Decode(&ex); err != nil {
		return nil, fmt.Errorf("decode export: %w", err)
	}

	cards := make([]domcard.Card, 0, len(ex.Cards))
	index := make(map[string]int, len(ex.Cards))
	for i := range ex.Cards {
		c := toCard(&ex.Cards[i])
		if c.ID == "" {
			return nil, fmt.Errorf("card %d (%q): cardID is required", i, ex.Cards[i].CardName)
		}
		if _, dup := index[c.ID]; dup {
			return nil, fmt.Errorf("card %s: duplicate cardID", c.ID)
		}
		index[c.ID] = len(cards)
		cards = append(cards, c)
	}

	for i, f := range ex.Features {
		ci, ok := index[string(f.CardID)]
		if !ok {
			continue
		}
		c := &cards[ci]
		pos := len(c.Features) + 1
		if f.SerialNumber != nil {
			pos = *f.SerialNumber
		}
		id := fmt.Sprintf("%s-%d", c.ID, i)
		if f.ID != nil && *f.ID != "" {
			id = string(*f.ID)
		}
		c.Features = append(c.Features, domcard.Feature{
			ID:          id,
			CardID:      c.ID,
			Position:    pos,
			Heading:     strings.TrimSpace(f.Heading),
			Description: strings.TrimSpace(deref(f.Description)),
		})
	}
	for i := range cards {
		cards[i].SortFeatures()
	}
	return cards, nil
}

// ParseFile reads an export from disk.
func ParseFile(path string) ([]domcard.Card, error) {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer func() { _ = f.Close() }()

	cards, err := Parse(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cards, nil
}

// Result reports a seed run.
type Result struct {
	Total    int
	Written  int
	Failed   int
	Duration time.Duration
}

// Load writes every card. A card that fails validation or storage is logged
// and skipped; only context cancellation stops the run.
func Load(ctx context.Context, w Writer, cards []domcard.Card) (Result, error) {
	log := logger.FromContext(ctx)
	start := time.Now()
	res := Result{Total: len(cards)}

	for i := range cards {
		if err := ctx.Err(); err != nil {
			res.Duration = time.Since(start)
			return res, fmt.Errorf("seed interrupted: %w", err)
		}
		if err := w.UpsertCard(ctx, cards[i]); err != nil {
			res.Failed++
			log.Warn("Failed to seed card", zap.String("card_id", cards[i].ID), zap.Error(err))
			continue
		}
		res.Written++
	}

	res.Duration = time.Since(start)
	log.Info("Seed completed",
		zap.Int("total", res.Total),
		zap.Int("written", res.Written),
		zap.Int("failed", res.Failed),
		zap.Duration("duration", res.Duration),
	)
	return res, nil
}

func toCard(r *cardRow) domcard.Card {
	return domcard.Card{
		ID:               string(r.CardID),
		Name:             strings.TrimSpace(r.CardName),
		IssuerID:         deref(r.IssuerID),
		IssuerName:       deref(r.IssuerName),
		IssuerSlug:       r.IssuerSlug,
		IssuerImage:      r.IssuerImage,
		Logo:             deref(r.Logo),
		ImageURL:         r.CardImage,
		Type:             r.CardType,
		BestFor:          r.BestFor,
		EmploymentType:   r.EmploymentType,
		NetworkType:      deref(r.NetworkType),
		JoiningFee:       r.JoiningFee,
		AnnualFee:        r.AnnualFee,
		APR:              r.AnnualPercentageRate,
		RewardRate:       r.RewardRate,
		RewardPoints:     deref(r.RewardPoints),
		MinMonthlyIncome: int(r.MinMonthlyIncome),
		Rating:           r.OverAllRating,
		ReviewCount:      r.StatsCount,
		Featured:         r.IsFeatured == 1,
		Published:        r.Publish == 1,
		URLSlug:          r.URLSlug,
		ReferralLink:     deref(r.ReferralLink),
		CreatedAt:        parseDate(r.DateCreated),
	}
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
