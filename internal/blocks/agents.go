package blocks

const (
	colourAgent      = "#8E44AD"
	colourLimitOrder = "#1F6FEB"
)

var updateFrequencies = []Option{
	{"30 seconds", "30SEC"},
	{"1 minute", "1MIN"},
	{"5 minutes", "5MIN"},
	{"15 minutes", "15MIN"},
	{"1 hour", "1HOUR"},
}

// agentTypes are the AI agent blocks used by the AI templates.
func agentTypes() []BlockType {
	return []BlockType{
		statementBlock("ai_agent", colourAgent, "AI agent that makes trading decisions",
			dropdown("AGENT_TYPE",
				Option{"Trading Agent", "TRADING_AGENT"},
				Option{"Sentiment Analysis", "SENTIMENT_ANALYSIS"},
				Option{"News Analysis", "NEWS_ANALYSIS"},
				Option{"Portfolio Optimization", "PORTFOLIO_OPTIMIZATION"},
				Option{"Risk Management", "RISK_MANAGEMENT"},
			),
			dropdown("MODEL", Option{"GPT-4", "GPT4"}, Option{"Claude 3.5", "CLAUDE35"}),
			statementIn("CONFIG"),
		),
		statementBlock("ai_agent_config", colourAgent, "AI agent settings",
			number("TEMPERATURE", "0.3"),
			number("MAX_TOKENS", "1024"),
			dropdown("STRATEGY",
				Option{"Balanced", "BALANCED"},
				Option{"Conservative", "CONSERVATIVE"},
				Option{"Aggressive", "AGGRESSIVE"},
			),
			dropdown("UPDATE_FREQUENCY", updateFrequencies...),
		),
		statementBlock("ai_prompt", colourAgent, "Instructions for the AI agent",
			Field{Name: "PROMPT_TEXT", Kind: FieldMultiline},
			dropdown("PROMPT_TYPE",
				Option{"Trading Decision", "TRADING_DECISION"},
				Option{"Sentiment Analysis", "SENTIMENT_ANALYSIS"},
				Option{"News Impact", "NEWS_IMPACT"},
				Option{"Portfolio Review", "PORTFOLIO_REVIEW"},
				Option{"Risk Assessment", "RISK_ASSESSMENT"},
			),
		),
		statementBlock("ai_data_source", colourAgent, "Data feed for the AI agent",
			dropdown("DATA_SOURCE",
				Option{"Market Data", "MARKET_DATA"},
				Option{"News Sentiment", "NEWS_SENTIMENT"},
				Option{"Social Media", "SOCIAL_MEDIA"},
				Option{"On-chain Metrics", "ONCHAIN_METRICS"},
			),
			dropdown("UPDATE_FREQUENCY", updateFrequencies...),
		),
		statementBlock("ai_condition", colourAgent, "Gate AI decisions on a score",
			dropdown("CONDITION_TYPE",
				Option{"Confidence", "CONFIDENCE"},
				Option{"Risk Score", "RISK_SCORE"},
				Option{"Sentiment", "SENTIMENT"},
			),
			dropdown("OPERATOR",
				Option{">", "GT"},
				Option{"<", "LT"},
				Option{"≥", "GTE"},
				Option{"≤", "LTE"},
				Option{"=", "EQ"},
			),
			valueIn("THRESHOLD", TypeNumber),
		),
		statementBlock("ai_optimization", colourAgent, "Optimization routine run by the agent",
			dropdown("OPTIMIZATION_TYPE",
				Option{"Portfolio", "PORTFOLIO"},
				Option{"Risk Parity", "RISK_PARITY"},
				Option{"Sharpe Ratio", "SHARPE"},
			),
			dropdown("OPTIMIZATION_METHOD",
				Option{"Bayesian", "BAYESIAN"},
				Option{"Genetic", "GENETIC"},
				Option{"Grid Search", "GRID_SEARCH"},
			),
		),
	}
}

// limitOrderTypes are the 1inch limit order blocks.
func limitOrderTypes() []BlockType {
	return []BlockType{
		statementBlock("limit_order_strategy", colourLimitOrder, "1inch limit order strategy",
			dropdown("STRATEGY_TYPE",
				Option{"Grid", "GRID"},
				Option{"Scalping", "SCALPING"},
				Option{"DCA", "DCA"},
				Option{"Mean Reversion", "MEAN_REVERSION"},
				Option{"Arbitrage", "ARBITRAGE"},
			),
			dropdown("RISK_LEVEL",
				Option{"Conservative", "CONSERVATIVE"},
				Option{"Moderate", "MODERATE"},
				Option{"Aggressive", "AGGRESSIVE"},
			),
			statementIn("CONFIG"),
		),
		statementBlock("limit_order_config", colourLimitOrder, "Limit order sizing",
			number("GRID_SPACING", "0.01"),
			number("POSITION_SIZE", "0.02"),
			number("MAX_ORDERS", "20"),
			number("SLIPPAGE_TOLERANCE", "0.005"),
		),
		statementBlock("limit_order_1inch", colourLimitOrder, "Place a 1inch limit order",
			dropdown("ORDER_SIDE", Option{"Buy", "BUY"}, Option{"Sell", "SELL"}),
			valueIn("AMOUNT", TypeNumber),
			dropdown("FROM_TOKEN", swapTokens...),
			dropdown("TO_TOKEN", swapTokens...),
			valueIn("LIMIT_PRICE", TypeNumber),
			dropdown("EXPIRY", Option{"1 hour", "1H"}, Option{"4 hours", "4H"}, Option{"1 day", "1D"}, Option{"7 days", "7D"}),
		),
		valueBlock("limit_order_condition", TypeBoolean, colourLimitOrder, "Trigger for a limit order",
			dropdown("CONDITION_TYPE",
				Option{"Price Crosses Below", "PRICE_CROSS_BELOW"},
				Option{"Price Crosses Above", "PRICE_CROSS_ABOVE"},
				Option{"Spread Above", "SPREAD_ABOVE"},
			),
			valueIn("THRESHOLD", TypeNumber),
			dropdown("TOKEN_PAIR", tradingPairs...),
			dropdown("TIMEFRAME", timeframes...),
			dropdown("EXECUTION_TYPE",
				Option{"Limit Order", "LIMIT_ORDER"},
				Option{"Market Order", "MARKET_ORDER"},
			),
		),
	}
}
