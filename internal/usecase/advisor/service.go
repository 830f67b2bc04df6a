package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cardex/internal/domain"
	domcard "github.com/kailas-cloud/cardex/internal/domain/card"
	"github.com/kailas-cloud/cardex/internal/logger"
	"github.com/kailas-cloud/cardex/internal/metrics"
)

// MaxCatalogCards caps the cards offered to the model for a recommendation.
const MaxCatalogCards = 100

// Service produces LLM-backed card advice with deterministic fallbacks.
type Service struct {
	cards CardReader
	llm   domain.Completer
}

// New creates an advisor. llm may be nil, in which case every answer is a fallback.
func New(cards CardReader, llm domain.Completer) *Service {
	return &Service{cards: cards, llm: llm}
}

// Summarize describes one published card.
func (s *Service) Summarize(ctx context.Context, cardID string) (Summary, error) {
	c, err := s.cards.Get(ctx, cardID)
	if err != nil {
		return Summary{}, fmt.Errorf("get card %s: %w", cardID, err)
	}

	var parsed struct {
		Summary     string   `json:"summary"`
		KeyBenefits []string `json:"keyBenefits"`
		BestFor     []string `json:"bestFor"`
		Warnings    []string `json:"warnings"`
	}
	if err := s.ask(ctx, "summary", summaryPrompt(&c), &parsed); err != nil {
		return fallbackSummary(&c), nil
	}

	out := Summary{
		CardID:      c.ID,
		Summary:     parsed.Summary,
		KeyBenefits: parsed.KeyBenefits,
		BestFor:     parsed.BestFor,
		Warnings:    parsed.Warnings,
		Generated:   true,
	}
	if out.Summary == "" {
		out.Summary = fmt.Sprintf("%s offers %s rewards and is best for %s.",
			c.Name, c.RewardRate, strings.ToLower(c.BestFor))
	}
	if len(out.KeyBenefits) == 0 {
		out.KeyBenefits = c.FeatureHeadings(5)
	}
	if len(out.BestFor) == 0 {
		out.BestFor = []string{c.BestFor}
	}
	return out, nil
}

func fallbackSummary(c *domcard.Card) Summary {
	return Summary{
		CardID: c.ID,
		Summary: fmt.Sprintf("%s is a %s offering %s rewards. Best suited for %s with a minimum income of ₹%s.",
			c.Name, strings.ToLower(c.Type), c.RewardRate, strings.ToLower(c.BestFor),
			domcard.FormatIncome(c.MinMonthlyIncome)),
		KeyBenefits: c.FeatureHeadings(5),
		BestFor:     []string{c.BestFor},
	}
}

// Compare weighs two or more published cards.
func (s *Service) Compare(ctx context.Context, cardIDs []string) (Comparison, error) {
	if len(cardIDs) < 2 {
		return Comparison{}, domain.ErrComparisonTooFew
	}
	cards, err := s.cards.GetMany(ctx, cardIDs)
	if err != nil {
		return Comparison{}, fmt.Errorf("get cards: %w", err)
	}
	if len(cards) < 2 {
		return Comparison{}, fmt.Errorf("%w: found %d published cards", domain.ErrComparisonTooFew, len(cards))
	}

	var parsed struct {
		Pros           map[string][]string `json:"pros"`
		Cons           map[string][]string `json:"cons"`
		BestFor        map[string]string   `json:"bestFor"`
		Recommendation string              `json:"recommendation"`
	}
	if err := s.ask(ctx, "compare", comparePrompt(cards), &parsed); err != nil {
		return fallbackComparison(cards), nil
	}

	out := Comparison{
		Cards:          cards,
		Pros:           parsed.Pros,
		Cons:           parsed.Cons,
		BestFor:        parsed.BestFor,
		Recommendation: parsed.Recommendation,
		Generated:      true,
	}
	if out.Pros == nil {
		out.Pros = map[string][]string{}
	}
	if out.Cons == nil {
		out.Cons = map[string][]string{}
	}
	if out.BestFor == nil {
		out.BestFor = map[string]string{}
	}
	if out.Recommendation == "" {
		out.Recommendation = defaultVerdict
	}
	return out, nil
}

func fallbackComparison(cards []domcard.Card) Comparison {
	out := Comparison{
		Cards:          cards,
		Pros:           make(map[string][]string, len(cards)),
		Cons:           make(map[string][]string, len(cards)),
		BestFor:        make(map[string]string, len(cards)),
		Recommendation: fallbackVerdict,
	}
	for i := range cards {
		c := &cards[i]
		out.Pros[c.Name] = []string{
			c.RewardRate + " reward rate",
			fmt.Sprintf("Rated %v/5 by users", c.Rating),
		}
		fee, _, _ := strings.Cut(c.JoiningFee, "|")
		out.Cons[c.Name] = []string{"₹" + strings.TrimSpace(fee) + " joining fee"}
		out.BestFor[c.Name] = c.BestFor
	}
	return out
}

// Recommend picks up to MaxRecommended published cards for a free-text request.
func (s *Service) Recommend(ctx context.Context, query string) (Recommendation, error) {
	q := strings.TrimSpace(query)
	if q == "" {
		return Recommendation{}, domain.ErrInvalidQuery
	}
	cards, err := s.cards.Published(ctx, MaxCatalogCards)
	if err != nil {
		return Recommendation{}, fmt.Errorf("load catalog: %w", err)
	}

	var parsed struct {
		CardIDs     []string `json:"cardIds"`
		Confidence  *int     `json:"confidence"`
		Explanation string   `json:"explanation"`
	}
	if err := s.ask(ctx, "recommend", recommendPrompt(q, cards), &parsed); err != nil {
		return fallbackRecommendation(q, cards), nil
	}

	picked := make(map[string]bool, len(parsed.CardIDs))
	for _, id := range parsed.CardIDs {
		picked[id] = true
	}
	out := Recommendation{Query: q, Explanation: parsed.Explanation, Confidence: DefaultConfidence, Generated: true}
	for i := range cards {
		if picked[cards[i].ID] && len(out.Cards) < MaxRecommended {
			out.Cards = append(out.Cards, cards[i])
		}
	}
	if parsed.Confidence != nil && *parsed.Confidence != 0 {
		out.Confidence = clampConfidence(*parsed.Confidence)
	}
	if out.Explanation == "" {
		out.Explanation = defaultExplanation
	}
	return out, nil
}

func fallbackRecommendation(query string, cards []domcard.Card) Recommendation {
	words := strings.Fields(strings.ToLower(query))
	out := Recommendation{Query: query, Explanation: fallbackExplanation, Confidence: FallbackConfidence}
	for i := range cards {
		if len(out.Cards) == MaxRecommended {
			break
		}
		c := &cards[i]
		text := strings.ToLower(c.Name + " " + c.BestFor + " " + c.Type)
		features := strings.ToLower(strings.Join(c.FeatureHeadings(0), " "))
		for _, w := range words {
			if strings.Contains(text, w) || strings.Contains(features, w) {
				out.Cards = append(out.Cards, *c)
				break
			}
		}
	}
	return out
}

// ask runs one completion and decodes its JSON reply into v.
// Any failure is counted as a fallback for feature.
func (s *Service) ask(ctx context.Context, feature, prompt string, v any) error {
	err := s.complete(ctx, prompt, v)
	if err != nil {
		metrics.LLMFallbacksTotal.WithLabelValues(feature).Inc()
		logger.FromContext(ctx).Warn("Advisor completion failed, using fallback",
			zap.String("feature", feature), zap.Error(err))
	}
	return err
}

func (s *Service) complete(ctx context.Context, prompt string, v any) error {
	if s.llm == nil {
		return domain.ErrLLMProviderError
	}
	raw, err := s.llm.Complete(ctx, prompt)
	if err != nil {
		return err
	}
	if err := json.Unmarshal([]byte(stripFences(raw)), v); err != nil {
		return fmt.Errorf("%w: decode reply: %w", domain.ErrLLMProviderError, err)
	}
	return nil
}
