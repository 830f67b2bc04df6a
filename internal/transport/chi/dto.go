package chi

import (
	"time"

	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	domchat "github.com/kailas-cloud/cardex/internal/domain/chat"
	"github.com/kailas-cloud/cardex/internal/domain/search/result"
	"github.com/kailas-cloud/cardex/internal/usecase/advisor"
	"github.com/kailas-cloud/cardex/internal/usecase/chat"
)

// CardDTO is the wire form of a card, in the field names the web client expects.
type CardDTO struct {
	CardID               string       `json:"cardID"`
	CardName             string       `json:"cardName"`
	CardIssuerID         string       `json:"cardIssuerID,omitempty"`
	CardIssuerName       string       `json:"cardIssuerName"`
	IssuerSlug           string       `json:"issuerSlug,omitempty"`
	IssuerImage          string       `json:"issuerImage,omitempty"`
	CardLogo             string       `json:"cardLogo,omitempty"`
	CardImage            string       `json:"cardImage,omitempty"`
	CardType             string       `json:"cardType"`
	BestFor              string       `json:"bestFor"`
	EmploymentType       string       `json:"employmentType"`
	NetworkType          string       `json:"networkType"`
	JoiningFee           string       `json:"joiningFee"`
	AnnualFee            string       `json:"annualFee"`
	AnnualPercentageRate string       `json:"annualPercentageRate,omitempty"`
	RewardRate           string       `json:"rewardRate"`
	RewardPoints         string       `json:"rewardPoints,omitempty"`
	MinMonthlyIncome     int          `json:"minMonthlyIncome"`
	OverAllRating        float64      `json:"overAllRating"`
	StatsCount           int          `json:"statsCount"`
	IsFeatured           bool         `json:"isFeatured"`
	URLSlug              string       `json:"urlSlug,omitempty"`
	ReferralLink         string       `json:"referralLink,omitempty"`
	DateCreated          string       `json:"datecreated,omitempty"`
	Features             []FeatureDTO `json:"features"`
}

// FeatureDTO is the wire form of a card feature.
type FeatureDTO struct {
	CardFeatureID string `json:"cardFeatureID"`
	CardID        string `json:"cardID"`
	SerialNumber  int    `json:"serialNumber"`
	Heading       string `json:"heading"`
	Description   string `json:"description"`
}

// SearchResultDTO is a card plus how it matched.
type SearchResultDTO struct {
	CardDTO
	Similarity  float64 `json:"similarity"`
	MatchReason string  `json:"matchReason"`
}

// SearchResponse is the body of a search answer.
type SearchResponse struct {
	Query        string            `json:"query"`
	Results      []SearchResultDTO `json:"results"`
	SearchType   string            `json:"searchType"`
	TotalResults int               `json:"totalResults"`
	Threshold    *float64          `json:"threshold,omitempty"`
	Note         string            `json:"note,omitempty"`
}

const fallbackNote = "No semantic matches found above threshold, showing keyword results"

// CardListResponse is one page of the catalog.
type CardListResponse struct {
	Cards      []CardDTO     `json:"cards"`
	Pagination PaginationDTO `json:"pagination"`
}

// PaginationDTO describes the position of a page.
type PaginationDTO struct {
	TotalCount  int  `json:"totalCount"`
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	PageSize    int  `json:"pageSize"`
	HasNext     bool `json:"hasNext"`
	HasPrevious bool `json:"hasPrevious"`
}

// OptionDTO is one filter dropdown entry.
type OptionDTO struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// FilterOptionsDTO lists the values the catalog can be filtered by.
type FilterOptionsDTO struct {
	CardTypes       []OptionDTO `json:"cardTypes"`
	EmploymentTypes []OptionDTO `json:"employmentTypes"`
	NetworkTypes    []OptionDTO `json:"networkTypes"`
	BestFor         []OptionDTO `json:"bestFor"`
	IncomeRanges    []OptionDTO `json:"incomeRanges"`
}

// StatsDTO summarizes the catalog.
type StatsDTO struct {
	TotalCards    int       `json:"totalCards"`
	FeaturedCards int       `json:"featuredCards"`
	AverageRating float64   `json:"averageRating"`
	TopRatedCards []CardDTO `json:"topRatedCards"`
}

// SummaryDTO is a card summary.
type SummaryDTO struct {
	CardID      string   `json:"cardId"`
	Summary     string   `json:"summary"`
	KeyBenefits []string `json:"keyBenefits"`
	BestFor     []string `json:"bestFor"`
	Warnings    []string `json:"warnings"`
	Generated   bool     `json:"aiGenerated"`
}

// ComparisonDTO weighs cards against each other.
type ComparisonDTO struct {
	Cards          []CardDTO           `json:"cards"`
	Pros           map[string][]string `json:"pros"`
	Cons           map[string][]string `json:"cons"`
	BestFor        map[string]string   `json:"bestFor"`
	Recommendation string              `json:"recommendation"`
	Generated      bool                `json:"aiGenerated"`
}

// RecommendationDTO is the answer to a free-text recommendation request.
type RecommendationDTO struct {
	Query       string    `json:"query"`
	Cards       []CardDTO `json:"cards"`
	Explanation string    `json:"explanation"`
	Confidence  int       `json:"confidence"`
	Generated   bool      `json:"aiGenerated"`
}

// ChatReplyDTO is the answer to one chat turn.
type ChatReplyDTO struct {
	SessionID string           `json:"sessionId"`
	Message   string           `json:"message"`
	Timestamp time.Time        `json:"timestamp"`
	Metadata  ChatReplyMetaDTO `json:"metadata"`
}

// ChatReplyMetaDTO describes the context a reply was built from.
type ChatReplyMetaDTO struct {
	RelevantCardCount  int `json:"relevantCardCount"`
	ConversationLength int `json:"conversationLength"`
}

// ChatHistoryDTO lists stored conversations.
type ChatHistoryDTO struct {
	Sessions      []ChatSessionDTO `json:"sessions"`
	TotalSessions int              `json:"totalSessions"`
}

// ChatDeleteDTO confirms a deletion.
type ChatDeleteDTO struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId,omitempty"`
	UserID    string `json:"userId,omitempty"`
	Deleted   int    `json:"deletedCount"`
}

// RelatedSuggestionsDTO answers a related-suggestions request.
type RelatedSuggestionsDTO struct {
	Query              string   `json:"query"`
	RelatedSuggestions []string `json:"relatedSuggestions"`
	Count              int      `json:"count"`
}

// ChatSessionDTO is a stored conversation.
type ChatSessionDTO struct {
	ID        string           `json:"id"`
	UserID    string           `json:"userId,omitempty"`
	Active    bool             `json:"isActive"`
	CreatedAt time.Time        `json:"createdAt"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Messages  []ChatMessageDTO `json:"messages"`
}

// ChatMessageDTO is one transcript line.
type ChatMessageDTO struct {
	Role      string         `json:"role"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"createdAt"`
}

// SuggestionsDTO is a list of query suggestions.
type SuggestionsDTO struct {
	Suggestions []string `json:"suggestions"`
	Type        string   `json:"type"`
}

func cardToDTO(c *domcard.Card) CardDTO {
	out := CardDTO{
		CardID:               c.ID,
		CardName:             c.Name,
		CardIssuerID:         c.IssuerID,
		CardIssuerName:       c.IssuerName,
		IssuerSlug:           c.IssuerSlug,
		IssuerImage:          c.IssuerImage,
		CardLogo:             c.Logo,
		CardImage:            c.ImageURL,
		CardType:             c.Type,
		BestFor:              c.BestFor,
		EmploymentType:       c.EmploymentType,
		NetworkType:          c.NetworkType,
		JoiningFee:           c.JoiningFee,
		AnnualFee:            c.AnnualFee,
		AnnualPercentageRate: c.APR,
		RewardRate:           c.RewardRate,
		RewardPoints:         c.RewardPoints,
		MinMonthlyIncome:     c.MinMonthlyIncome,
		OverAllRating:        c.Rating,
		StatsCount:           c.ReviewCount,
		IsFeatured:           c.Featured,
		URLSlug:              c.URLSlug,
		ReferralLink:         c.ReferralLink,
		Features:             make([]FeatureDTO, len(c.Features)),
	}
	if !c.CreatedAt.IsZero() {
		out.DateCreated = c.CreatedAt.UTC().Format(time.RFC3339)
	}
	for i, f := range c.Features {
		out.Features[i] = FeatureDTO{
			CardFeatureID: f.ID,
			CardID:        c.ID,
			SerialNumber:  f.Position,
			Heading:       f.Heading,
			Description:   f.Description,
		}
	}
	return out
}

func cardsToDTO(cards []domcard.Card) []CardDTO {
	out := make([]CardDTO, len(cards))
	for i := range cards {
		out[i] = cardToDTO(&cards[i])
	}
	return out
}

func optionsToDTO(opts []domcard.Option) []OptionDTO {
	out := make([]OptionDTO, len(opts))
	for i, o := range opts {
		out[i] = OptionDTO{Label: o.Label, Value: o.Value}
	}
	return out
}

func searchResponseToDTO(resp *result.Response) SearchResponse {
	items := make([]SearchResultDTO, len(resp.Results))
	for i := range resp.Results {
		r := &resp.Results[i]
		c := r.Card()
		items[i] = SearchResultDTO{
			CardDTO:     cardToDTO(&c),
			Similarity:  r.Score(),
			MatchReason: string(r.Reason()),
		}
	}

	out := SearchResponse{
		Query:        resp.Query,
		Results:      items,
		SearchType:   string(resp.SearchType),
		TotalResults: resp.TotalResults(),
	}
	if !resp.SearchType.IsFallback() {
		th := resp.Threshold
		out.Threshold = &th
		return out
	}
	if resp.SearchType == result.TypeKeywordFallback {
		out.Note = fallbackNote
	}
	return out
}

func pageToDTO(p *domcard.Page, pageSize int) CardListResponse {
	return CardListResponse{
		Cards: cardsToDTO(p.Cards),
		Pagination: PaginationDTO{
			TotalCount:  p.TotalCount,
			TotalPages:  p.TotalPages,
			CurrentPage: p.CurrentPage,
			PageSize:    pageSize,
			HasNext:     p.HasNext,
			HasPrevious: p.HasPrevious,
		},
	}
}

func summaryToDTO(s *advisor.Summary) SummaryDTO {
	return SummaryDTO{
		CardID:      s.CardID,
		Summary:     s.Summary,
		KeyBenefits: nonNil(s.KeyBenefits),
		BestFor:     nonNil(s.BestFor),
		Warnings:    nonNil(s.Warnings),
		Generated:   s.Generated,
	}
}

func comparisonToDTO(c *advisor.Comparison) ComparisonDTO {
	return ComparisonDTO{
		Cards:          cardsToDTO(c.Cards),
		Pros:           c.Pros,
		Cons:           c.Cons,
		BestFor:        c.BestFor,
		Recommendation: c.Recommendation,
		Generated:      c.Generated,
	}
}

func recommendationToDTO(r *advisor.Recommendation) RecommendationDTO {
	return RecommendationDTO{
		Query:       r.Query,
		Cards:       cardsToDTO(r.Cards),
		Explanation: r.Explanation,
		Confidence:  r.Confidence,
		Generated:   r.Generated,
	}
}

func replyToDTO(r *chat.Reply) ChatReplyDTO {
	return ChatReplyDTO{
		SessionID: r.SessionID,
		Message:   r.Message,
		Timestamp: r.Timestamp,
		Metadata: ChatReplyMetaDTO{
			RelevantCardCount:  r.RelevantCardCount,
			ConversationLength: r.ConversationLength,
		},
	}
}

func sessionsToDTO(sessions []domchat.Session) []ChatSessionDTO {
	out := make([]ChatSessionDTO, len(sessions))
	for i := range sessions {
		s := &sessions[i]
		msgs := make([]ChatMessageDTO, len(s.Messages))
		for j, m := range s.Messages {
			msgs[j] = ChatMessageDTO{
				Role:      string(m.Role),
				Content:   m.Content,
				Metadata:  m.Metadata,
				CreatedAt: m.CreatedAt,
			}
		}
		out[i] = ChatSessionDTO{
			ID:        s.ID,
			UserID:    s.UserID,
			Active:    s.Active,
			CreatedAt: s.CreatedAt,
			UpdatedAt: s.UpdatedAt,
			Messages:  msgs,
		}
	}
	return out
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
