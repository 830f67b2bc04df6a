package card

import (
	"time"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
)

// cardRow mirrors the cardColumns projection.
type cardRow struct {
	ID               string
	Name             string
	IssuerID         string
	IssuerName       string
	IssuerSlug       string
	IssuerImage      string
	Logo             string
	ImageURL         string
	Type             string
	BestFor          string
	EmploymentType   string
	NetworkType      string
	JoiningFee       string
	AnnualFee        string
	APR              string
	RewardRate       string
	RewardPoints     string
	MinMonthlyIncome int
	Rating           float64
	ReviewCount      int
	Featured         bool
	Published        bool
	URLSlug          string
	ReferralLink     string
	CreatedAt        time.Time
}

func (r *cardRow) dest() []any {
	return []any{
		&r.ID, &r.Name, &r.IssuerID, &r.IssuerName, &r.IssuerSlug, &r.IssuerImage,
		&r.Logo, &r.ImageURL, &r.Type, &r.BestFor, &r.EmploymentType, &r.NetworkType,
		&r.JoiningFee, &r.AnnualFee, &r.APR, &r.RewardRate, &r.RewardPoints,
		&r.MinMonthlyIncome, &r.Rating, &r.ReviewCount, &r.Featured, &r.Published,
		&r.URLSlug, &r.ReferralLink, &r.CreatedAt,
	}
}

func (r *cardRow) toDomain() domcard.Card {
	return domcard.Card{
		ID:               r.ID,
		Name:             r.Name,
		IssuerID:         r.IssuerID,
		IssuerName:       r.IssuerName,
		IssuerSlug:       r.IssuerSlug,
		IssuerImage:      r.IssuerImage,
		Logo:             r.Logo,
		ImageURL:         r.ImageURL,
		Type:             r.Type,
		BestFor:          r.BestFor,
		EmploymentType:   r.EmploymentType,
		NetworkType:      r.NetworkType,
		JoiningFee:       r.JoiningFee,
		AnnualFee:        r.AnnualFee,
		APR:              r.APR,
		RewardRate:       r.RewardRate,
		RewardPoints:     r.RewardPoints,
		MinMonthlyIncome: r.MinMonthlyIncome,
		Rating:           r.Rating,
		ReviewCount:      r.ReviewCount,
		Featured:         r.Featured,
		Published:        r.Published,
		URLSlug:          r.URLSlug,
		ReferralLink:     r.ReferralLink,
		CreatedAt:        r.CreatedAt,
	}
}
