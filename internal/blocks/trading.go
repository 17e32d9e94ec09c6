package blocks

// StartType is the entry block every strategy hangs from.
const StartType = "strategy_start"

var timeframes = same("1m", "5m", "15m", "1h", "4h", "1d")

var tradingPairs = []Option{
	{"BTC/USDT", "BTC_USDT"},
	{"ETH/USDT", "ETH_USDT"},
	{"SOL/USDT", "SOL_USDT"},
	{"ADA/USDT", "ADA_USDT"},
	{"DOT/USDT", "DOT_USDT"},
	{"LINK/USDT", "LINK_USDT"},
	{"MATIC/USDT", "MATIC_USDT"},
	{"AVAX/USDT", "AVAX_USDT"},
}

func tradingTypes() []BlockType {
	return []BlockType{
		hatBlock(StartType, "#45B7D1", "Entry point for trading strategy", statementIn("DO")),

		valueBlock("technical_indicator", TypeBoolean, "#FF6B6B", "Technical indicator condition",
			dropdown("INDICATOR",
				Option{"RSI", "RSI"},
				Option{"MACD", "MACD"},
				Option{"Bollinger Bands", "BOLLINGER"},
				Option{"Moving Average", "MA"},
				Option{"Stochastic", "STOCH"},
				Option{"Volume", "VOLUME"},
				Option{"Price Action", "PRICE_ACTION"},
				Option{"Support/Resistance", "S_R"},
			),
			dropdown("OPERATOR",
				Option{"<", "LT"},
				Option{">", "GT"},
				Option{"=", "EQ"},
				Option{"Crosses Above", "CROSS_ABOVE"},
				Option{"Crosses Below", "CROSS_BELOW"},
				Option{"Between", "BETWEEN"},
			),
			valueIn("VALUE", TypeNumber),
			dropdown("TIMEFRAME", timeframes...),
		),

		statementBlock("trading_action", "#4ECDC4", "Execute trading action",
			dropdown("ACTION",
				Option{"Buy", "BUY"},
				Option{"Sell", "SELL"},
				Option{"Buy Long", "BUY_LONG"},
				Option{"Sell Short", "SELL_SHORT"},
				Option{"Close Position", "CLOSE"},
			),
			dropdown("ORDER_TYPE",
				Option{"Market", "MARKET"},
				Option{"Limit", "LIMIT"},
				Option{"Stop Loss", "STOP_LOSS"},
				Option{"Take Profit", "TAKE_PROFIT"},
				Option{"Trailing Stop", "TRAILING_STOP"},
			),
			valueIn("AMOUNT", TypeNumber),
			dropdown("ASSET", tradingPairs...),
		),

		statementBlock("risk_management", "#FF9F43", "Risk management settings",
			dropdown("RISK_TYPE",
				Option{"Max Position Size", "MAX_POSITION"},
				Option{"Stop Loss", "STOP_LOSS"},
				Option{"Take Profit", "TAKE_PROFIT"},
				Option{"Max Daily Loss", "MAX_DAILY_LOSS"},
				Option{"Max Portfolio Risk", "MAX_PORTFOLIO_RISK"},
			),
			valueIn("PERCENTAGE", TypeNumber),
		),

		valueBlock("portfolio_balance", TypeNumber, "#A55EEA", "Get portfolio balance information",
			dropdown("BALANCE_TYPE",
				Option{"Total Value", "TOTAL_VALUE"},
				Option{"Available Balance", "AVAILABLE"},
				Option{"Position Value", "POSITION_VALUE"},
				Option{"Unrealized P&L", "UNREALIZED_PNL"},
				Option{"Realized P&L", "REALIZED_PNL"},
			),
			dropdown("ASSET",
				Option{"USDT", "USDT"},
				Option{"BTC", "BTC"},
				Option{"ETH", "ETH"},
				Option{"All Assets", "ALL"},
			),
		),

		valueBlock("market_data", TypeNumber, "#26DE81", "Get real-time market data",
			dropdown("DATA_TYPE",
				Option{"Current Price", "PRICE"},
				Option{"24h Change", "24H_CHANGE"},
				Option{"24h Volume", "24H_VOLUME"},
				Option{"Market Cap", "MARKET_CAP"},
				Option{"Fear & Greed Index", "FEAR_GREED"},
				Option{"Funding Rate", "FUNDING_RATE"},
			),
			dropdown("ASSET", tradingPairs[:5]...),
			dropdown("TIMEFRAME", timeframes...),
		),

		valueBlock("get_price", TypeNumber, "#00B894", "Get current price from exchange",
			dropdown("ASSET", same("BTC", "ETH", "SOL", "ADA", "DOT", "LINK", "MATIC", "AVAX", "UNI", "AAVE")...),
			dropdown("EXCHANGE",
				Option{"Binance", "BINANCE"},
				Option{"Coinbase", "COINBASE"},
				Option{"Kraken", "KRAKEN"},
				Option{"KuCoin", "KUCOIN"},
				Option{"Bybit", "BYBIT"},
				Option{"OKX", "OKX"},
				Option{"Uniswap", "UNISWAP"},
				Option{"SushiSwap", "SUSHISWAP"},
			),
		),
	}
}
