package suggestion

// staticSuggestions is served whenever nothing better is available.
var staticSuggestions = []string{
	"Best travel credit cards with lounge access",
	"Cards with no annual fee for beginners",
	"Premium cards for high income earners",
	"Best cashback cards for fuel and dining",
	"Credit cards with instant approval",
	"Student credit cards with low income requirements",
	"Business credit cards with rewards",
	"Cards with airport lounge access",
	"Zero percent interest credit cards",
	"Best credit cards for online shopping",
	"Lifetime free credit cards",
	"Cards with movie ticket discounts",
	"Credit cards for frequent travelers",
	"Cards with dining and entertainment benefits",
	"Low interest rate credit cards",
}

// seedIdeas open every generated list.
var seedIdeas = []string{
	"Show me cards with no annual fee",
	"Best travel credit cards with lounge access",
	"Cards with high cashback on fuel and dining",
	"Premium cards for high income earners",
	"Best first credit card for beginners",
}

// Static returns the first n fallback suggestions.
func Static(n int) []string {
	if n <= 0 || n > len(staticSuggestions) {
		n = len(staticSuggestions)
	}
	return append([]string(nil), staticSuggestions[:n]...)
}
