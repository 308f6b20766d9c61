package router

// Minimal ABI fragments for the surfaces the sweeper touches. The dust
// router exposes quoting and the batched swap; approvals and allowance
// reads go against the dust tokens themselves.

const routerABIJSON = `[
	{
		"inputs": [
			{"name": "token", "type": "address"},
			{"name": "amountIn", "type": "uint256"}
		],
		"name": "getSwapQuote",
		"outputs": [{"name": "", "type": "uint256"}],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokens", "type": "address[]"},
			{"name": "amountsIn", "type": "uint256[]"}
		],
		"name": "getBulkSwapQuote",
		"outputs": [
			{"name": "total", "type": "uint256"},
			{"name": "perToken", "type": "uint256[]"}
		],
		"stateMutability": "view",
		"type": "function"
	},
	{
		"inputs": [
			{"name": "tokens", "type": "address[]"},
			{"name": "amountsIn", "type": "uint256[]"},
			{"name": "minReceive", "type": "uint256"}
		],
		"name": "executeBulkSwap",
		"outputs": [],
		"stateMutability": "nonpayable",
		"type": "function"
	}
]`

const erc20ABIJSON = `[
	{
		"constant": true,
		"inputs": [{"name": "_owner", "type": "address"}],
		"name": "balanceOf",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": false,
		"inputs": [
			{"name": "_spender", "type": "address"},
			{"name": "_value", "type": "uint256"}
		],
		"name": "approve",
		"outputs": [{"name": "", "type": "bool"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [
			{"name": "_owner", "type": "address"},
			{"name": "_spender", "type": "address"}
		],
		"name": "allowance",
		"outputs": [{"name": "", "type": "uint256"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "decimals",
		"outputs": [{"name": "", "type": "uint8"}],
		"type": "function"
	},
	{
		"constant": true,
		"inputs": [],
		"name": "symbol",
		"outputs": [{"name": "", "type": "string"}],
		"type": "function"
	}
]`
