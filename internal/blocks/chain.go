package blocks

var swapTokens = same("USDT", "USDC", "ETH", "BTC", "SOL", "ADA", "DOT", "LINK", "MATIC", "AVAX")

func chainTypes() []BlockType {
	return []BlockType{
		statementBlock("blockchain_operation", "#6C5CE7", "Blockchain operation",
			dropdown("OPERATION",
				Option{"Send", "SEND"},
				Option{"Receive", "RECEIVE"},
				Option{"Swap", "SWAP"},
				Option{"Bridge", "BRIDGE"},
				Option{"Stake", "STAKE"},
				Option{"Unstake", "UNSTAKE"},
				Option{"Claim Rewards", "CLAIM"},
				Option{"Vote", "VOTE"},
			),
			valueIn("AMOUNT", TypeNumber),
			dropdown("CHAIN",
				Option{"Ethereum", "ETH"},
				Option{"Binance Smart Chain", "BSC"},
				Option{"Polygon", "POLYGON"},
				Option{"Arbitrum", "ARBITRUM"},
				Option{"Optimism", "OPTIMISM"},
				Option{"Solana", "SOLANA"},
				Option{"Avalanche", "AVALANCHE"},
				Option{"Cardano", "CARDANO"},
				Option{"Polkadot", "POLKADOT"},
				Option{"Cosmos", "COSMOS"},
			),
		),

		statementBlock("defi_operation", "#FD79A8", "DeFi protocol operation",
			dropdown("DEFI_ACTION",
				Option{"Deposit", "DEPOSIT"},
				Option{"Withdraw", "WITHDRAW"},
				Option{"Borrow", "BORROW"},
				Option{"Repay", "REPAY"},
				Option{"Add Liquidity", "ADD_LIQUIDITY"},
				Option{"Remove Liquidity", "REMOVE_LIQUIDITY"},
				Option{"Stake", "STAKE"},
				Option{"Unstake", "UNSTAKE"},
				Option{"Claim Rewards", "CLAIM_REWARDS"},
				Option{"Harvest", "HARVEST"},
			),
			valueIn("AMOUNT", TypeNumber),
			dropdown("TOKEN", same("USDT", "USDC", "DAI", "WETH", "WBTC", "UNI", "AAVE", "CRV", "COMP", "SUSHI")...),
			dropdown("PROTOCOL",
				Option{"Uniswap", "UNISWAP"},
				Option{"SushiSwap", "SUSHISWAP"},
				Option{"Aave", "AAVE"},
				Option{"Compound", "COMPOUND"},
				Option{"Curve", "CURVE"},
				Option{"Yearn Finance", "YEARN"},
				Option{"Balancer", "BALANCER"},
				Option{"1inch", "1INCH"},
				Option{"PancakeSwap", "PANCAKESWAP"},
				Option{"Trader Joe", "TRADER_JOE"},
			),
		),

		statementBlock("swap_operation", "#FDCB6E", "Token swap operation",
			valueIn("FROM_AMOUNT", TypeNumber),
			dropdown("FROM_TOKEN", swapTokens...),
			valueIn("TO_AMOUNT", TypeNumber),
			dropdown("TO_TOKEN", swapTokens...),
		),

		statementBlock("staking_operation", "#E17055", "Staking operation",
			dropdown("STAKING_ACTION",
				Option{"Stake", "STAKE"},
				Option{"Unstake", "UNSTAKE"},
				Option{"Claim Rewards", "CLAIM"},
				Option{"Reinvest", "REINVEST"},
				Option{"Delegate", "DELEGATE"},
				Option{"Undelegate", "UNDELEGATE"},
			),
			valueIn("AMOUNT", TypeNumber),
			dropdown("TOKEN", same("ETH", "SOL", "ADA", "DOT", "ATOM", "MATIC", "AVAX", "BNB", "FTM", "NEAR")...),
			dropdown("VALIDATOR",
				Option{"Auto Select", "AUTO"},
				Option{"Binance", "BINANCE"},
				Option{"Coinbase", "COINBASE"},
				Option{"Kraken", "KRAKEN"},
				Option{"Lido", "LIDO"},
				Option{"Rocket Pool", "ROCKET_POOL"},
				Option{"Custom Validator", "CUSTOM"},
			),
		),

		statementBlock("gas_optimization", "#74B9FF", "Gas fee optimization",
			dropdown("GAS_STRATEGY",
				Option{"Low Priority", "LOW"},
				Option{"Medium Priority", "MEDIUM"},
				Option{"High Priority", "HIGH"},
				Option{"Custom Gas Price", "CUSTOM"},
				Option{"Wait for Low Gas", "WAIT"},
				Option{"Use Layer 2", "L2"},
			),
			dropdown("NETWORK",
				Option{"Ethereum", "ETH"},
				Option{"Polygon", "POLYGON"},
				Option{"Arbitrum", "ARBITRUM"},
				Option{"Optimism", "OPTIMISM"},
				Option{"BSC", "BSC"},
				Option{"Avalanche", "AVALANCHE"},
			),
		),
	}
}
