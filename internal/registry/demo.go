package registry

import (
	"time"

	"github.com/liamashdown/resolvewatch/internal/market"
)

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}

// DemoMarkets returns the markets seeded at startup when SEED_DEMO_MARKETS is set
func DemoMarkets() []market.Market {
	all := []market.Outcome{market.OutcomeYes, market.OutcomeNo, market.OutcomeUnknown, market.OutcomeEarly}

	return []market.Market{
		{
			ID:                 "market-trump-2024-election",
			Question:           "Will Donald Trump win the 2024 US Presidential Election?",
			Description:        "This market resolves to YES if Donald Trump wins the 2024 United States Presidential Election.",
			Category:           "Politics",
			CreatedAt:          mustTime("2024-01-01T00:00:00Z"),
			CloseTime:          mustTime("2024-11-05T23:59:59Z"),
			ResolutionDeadline: mustTime("2024-12-20T23:59:59Z"),
			Status:             market.StatusClosed,
			Rules: market.Rules{
				Description:        "Resolution is based on the official certification of electoral votes by the United States Congress.",
				ResolutionCriteria: "The market resolves YES if Donald Trump is certified as the winner of the 2024 Presidential Election by the United States Congress, receiving at least 270 electoral votes. The market resolves NO if any other candidate wins.",
				PrimarySources: []string{
					"https://www.archives.gov/electoral-college",
					"https://www.congress.gov",
					"https://apnews.com",
					"https://www.reuters.com",
				},
				EdgeCases: []string{
					"If the election outcome is contested and goes to the House of Representatives, the final House decision determines resolution.",
					"Recounts do not affect resolution unless they change the certified winner.",
					"The market resolves based on certification, not projected winners on election night.",
				},
			},
			AllowedOutcomes: all,
		},
		{
			ID:                 "market-btc-100k-jan-2026",
			Question:           "Will Bitcoin reach $100,000 by January 31, 2026?",
			Description:        "This market resolves to YES if the price of Bitcoin (BTC) reaches or exceeds $100,000 USD at any point before the resolution deadline.",
			Category:           "Crypto",
			CreatedAt:          mustTime("2025-12-01T00:00:00Z"),
			CloseTime:          mustTime("2026-01-31T23:59:59Z"),
			ResolutionDeadline: mustTime("2026-02-02T23:59:59Z"),
			Status:             market.StatusActive,
			Rules: market.Rules{
				Description:        "Resolution is based on the spot price of BTC/USD on major exchanges.",
				ResolutionCriteria: "The market resolves YES if Bitcoin's spot price reaches or exceeds $100,000 USD on any of the following exchanges: Coinbase, Binance, or Kraken. The price must be sustained for at least 1 minute as shown on the exchange's official price feed.",
				PrimarySources: []string{
					"https://www.coinbase.com",
					"https://www.binance.com",
					"https://www.kraken.com",
					"https://coinmarketcap.com",
					"https://www.coingecko.com",
				},
				EdgeCases: []string{
					"If an exchange experiences a flash crash or flash spike that is later reversed or marked as erroneous, that price will not count.",
					"If all listed exchanges are unavailable, CoinMarketCap or CoinGecko aggregate price will be used.",
					"Price must be from spot markets, not futures or derivatives.",
				},
			},
			AllowedOutcomes: all,
		},
		{
			ID:                 "market-fed-rate-cut-jan-2026",
			Question:           "Will the Federal Reserve cut interest rates at the January 2026 FOMC meeting?",
			Description:        "This market resolves to YES if the Federal Reserve announces a reduction in the federal funds target rate at the January 2026 FOMC meeting.",
			Category:           "Economics",
			CreatedAt:          mustTime("2025-12-15T00:00:00Z"),
			CloseTime:          mustTime("2026-01-29T19:00:00Z"),
			ResolutionDeadline: mustTime("2026-01-30T23:59:59Z"),
			Status:             market.StatusActive,
			Rules: market.Rules{
				Description:        "Resolution is based on the official FOMC statement released after the January 2026 meeting.",
				ResolutionCriteria: "The market resolves YES if the Federal Reserve announces any reduction (of any size) to the federal funds target rate range. The market resolves NO if the rate is held steady or increased.",
				PrimarySources: []string{
					"https://www.federalreserve.gov",
					"https://www.reuters.com",
					"https://www.bloomberg.com",
				},
				EdgeCases: []string{
					"Emergency rate decisions made before the scheduled meeting date count only if they explicitly replace the January decision.",
					"If the meeting is postponed, resolution will be based on the rescheduled meeting.",
					"Technical corrections or clarifications to the rate announcement do not change the resolution.",
				},
			},
			AllowedOutcomes: all,
		},
		{
			ID:                 "market-superbowl-lix-chiefs",
			Question:           "Will the Kansas City Chiefs win Super Bowl LIX?",
			Description:        "This market resolves to YES if the Kansas City Chiefs win Super Bowl LIX.",
			Category:           "Sports",
			CreatedAt:          mustTime("2025-09-01T00:00:00Z"),
			CloseTime:          mustTime("2026-02-09T23:30:00Z"),
			ResolutionDeadline: mustTime("2026-02-10T23:59:59Z"),
			Status:             market.StatusActive,
			Rules: market.Rules{
				Description:        "Resolution is based on the official result of Super Bowl LIX.",
				ResolutionCriteria: "The market resolves YES if the Kansas City Chiefs are declared the official winner of Super Bowl LIX by the NFL. The market resolves NO if any other team wins or if the Chiefs do not participate in the Super Bowl.",
				PrimarySources: []string{
					"https://www.nfl.com",
					"https://www.espn.com",
					"https://www.cbssports.com",
				},
				EdgeCases: []string{
					"If the game is cancelled and not rescheduled, the market resolves UNKNOWN.",
					"If the result is overturned due to rule violations after the game, the final NFL official ruling will be used.",
					"Overtime victories count as a valid win.",
				},
			},
			AllowedOutcomes: all,
		},
	}
}
