package instruments

// venueCodes maps internal symbols to Infoway codes. Crypto pairs are quoted
// against USDT on the venue.
var venueCodes = map[string]string{
	// forex majors
	"EURUSD": "EURUSD", "GBPUSD": "GBPUSD", "USDJPY": "USDJPY", "USDCHF": "USDCHF",
	"AUDUSD": "AUDUSD", "NZDUSD": "NZDUSD", "USDCAD": "USDCAD",

	// forex crosses
	"EURGBP": "EURGBP", "EURJPY": "EURJPY", "GBPJPY": "GBPJPY", "EURCHF": "EURCHF",
	"EURAUD": "EURAUD", "EURCAD": "EURCAD", "GBPAUD": "GBPAUD", "GBPCAD": "GBPCAD",
	"AUDCAD": "AUDCAD", "AUDJPY": "AUDJPY", "CADJPY": "CADJPY", "CHFJPY": "CHFJPY",
	"NZDJPY": "NZDJPY", "AUDNZD": "AUDNZD", "CADCHF": "CADCHF", "GBPCHF": "GBPCHF",
	"GBPNZD": "GBPNZD", "EURNZD": "EURNZD", "NZDCAD": "NZDCAD", "NZDCHF": "NZDCHF",
	"AUDCHF": "AUDCHF",

	// exotics carried by the venue
	"USDSGD": "USDSGD", "EURSGD": "EURSGD", "GBPSGD": "GBPSGD", "AUDSGD": "AUDSGD",
	"SGDJPY": "SGDJPY", "USDHKD": "USDHKD", "USDCNH": "USDCNH", "USDRUB": "USDRUB",
	"USDTHB": "USDTHB", "USDTWD": "USDTWD", "HKDJPY": "HKDJPY", "SGDCHF": "SGDCHF",

	// metals
	"XAUUSD": "XAUUSD", "XAGUSD": "XAGUSD", "XPTUSD": "XPTUSD", "XPDUSD": "XPDUSD",

	// commodities
	"USOIL": "USOIL", "UKOIL": "UKOIL", "NGAS": "NGAS",
	"COPPER": "XCUUSD", "ALUMINUM": "XALUSD", "NICKEL": "XNIUSD",

	// crypto
	"BTCUSD": "BTCUSDT", "ETHUSD": "ETHUSDT", "BNBUSD": "BNBUSDT", "SOLUSD": "SOLUSDT",
	"XRPUSD": "XRPUSDT", "ADAUSD": "ADAUSDT", "DOGEUSD": "DOGEUSDT", "TRXUSD": "TRXUSDT",
	"LINKUSD": "LINKUSDT", "MATICUSD": "MATICUSDT", "DOTUSD": "DOTUSDT",
	"SHIBUSD": "SHIBUSDT", "LTCUSD": "LTCUSDT", "BCHUSD": "BCHUSDT", "AVAXUSD": "AVAXUSDT",
	"XLMUSD": "XLMUSDT", "UNIUSD": "UNIUSDT", "ATOMUSD": "ATOMUSDT", "ETCUSD": "ETCUSDT",
	"FILUSD": "FILUSDT", "ICPUSD": "ICPUSDT", "VETUSD": "VETUSDT",
	"NEARUSD": "NEARUSDT", "GRTUSD": "GRTUSDT", "AAVEUSD": "AAVEUSDT", "MKRUSD": "MKRUSDT",
	"ALGOUSD": "ALGOUSDT", "FTMUSD": "FTMUSDT", "SANDUSD": "SANDUSDT", "MANAUSD": "MANAUSDT",
	"AXSUSD": "AXSUSDT", "THETAUSD": "THETAUSDT", "XMRUSD": "XMRUSDT", "FLOWUSD": "FLOWUSDT",
	"SNXUSD": "SNXUSDT", "EOSUSD": "EOSUSDT", "CHZUSD": "CHZUSDT", "ENJUSD": "ENJUSDT",
	"ZILUSD": "ZILUSDT", "BATUSD": "BATUSDT", "CRVUSD": "CRVUSDT", "COMPUSD": "COMPUSDT",
	"SUSHIUSD": "SUSHIUSDT", "ZRXUSD": "ZRXUSDT", "LRCUSD": "LRCUSDT", "ANKRUSD": "ANKRUSDT",
	"GALAUSD": "GALAUSDT", "APEUSD": "APEUSDT", "WAVESUSD": "WAVESUSDT", "ZECUSD": "ZECUSDT",
	"PEPEUSD": "PEPEUSDT", "ARBUSD": "ARBUSDT", "OPUSD": "OPUSDT", "SUIUSD": "SUIUSDT",
	"APTUSD": "APTUSDT", "INJUSD": "INJUSDT", "LDOUSD": "LDOUSDT", "IMXUSD": "IMXUSDT",
	"RUNEUSD": "RUNEUSDT", "KAVAUSD": "KAVAUSDT", "KSMUSD": "KSMUSDT", "NEOUSD": "NEOUSDT",
	"QNTUSD": "QNTUSDT", "FETUSD": "FETUSDT", "RNDRUSD": "RNDRUSDT", "OCEANUSD": "OCEANUSDT",
	"WLDUSD": "WLDUSDT", "SEIUSD": "SEIUSDT", "TIAUSD": "TIAUSDT", "BLURUSD": "BLURUSDT",
	"ROSEUSD": "ROSEUSDT", "MINAUSD": "MINAUSDT", "GMXUSD": "GMXUSDT", "DYDXUSD": "DYDXUSDT",
	"STXUSD": "STXUSDT", "CFXUSD": "CFXUSDT", "ACHUSD": "ACHUSDT", "DASHUSD": "DASHUSDT",
	"XTZUSD": "XTZUSDT", "IOTUSD": "IOTAUSDT", "CELOUSD": "CELOUSDT", "ONEUSD": "ONEUSDT",
	"HOTUSD": "HOTUSDT", "SKLUSD": "SKLUSDT", "STORJUSD": "STORJUSDT", "YFIUSD": "YFIUSDT",
	"UMAUSD": "UMAUSDT", "BANDUSD": "BANDUSDT", "RVNUSD": "RVNUSDT", "OXTUSD": "OXTUSDT",
	"NKNUSD": "NKNUSDT", "WOOUSD": "WOOUSDT", "JASMYUSD": "JASMYUSDT",
	"MASKUSD": "MASKUSDT", "DENTUSD": "DENTUSDT", "CELRUSD": "CELRUSDT", "COTIUSD": "COTIUSDT",
	"IOTXUSD": "IOTXUSDT", "KLAYUSD": "KLAYUSDT", "OGNUSD": "OGNUSDT",
	"RLCUSD": "RLCUSDT", "STMXUSD": "STMXUSDT", "SUNUSD": "SUNUSDT", "SXPUSD": "SXPUSDT",
	"AUDIOUSD": "AUDIOUSDT", "BONKUSD": "BONKUSDT", "FLOKIUSD": "FLOKIUSDT", "ORDIUSD": "ORDIUSDT",
	"1INCHUSD": "1INCHUSDT", "HBARUSD": "HBARUSDT", "TONUSD": "TONUSDT",
}

var popular = map[string]bool{
	"EURUSD": true, "GBPUSD": true, "USDJPY": true, "USDCHF": true, "AUDUSD": true,
	"NZDUSD": true, "USDCAD": true, "EURGBP": true, "EURJPY": true, "GBPJPY": true,
	"EURCHF": true, "EURAUD": true, "AUDCAD": true, "AUDJPY": true, "CADJPY": true,
	"XAUUSD": true, "XAGUSD": true, "XPTUSD": true, "XPDUSD": true,
	"USOIL": true, "UKOIL": true, "NGAS": true, "COPPER": true, "ALUMINUM": true, "NICKEL": true,
	"BTCUSD": true, "ETHUSD": true, "BNBUSD": true, "SOLUSD": true, "XRPUSD": true,
	"ADAUSD": true, "DOGEUSD": true, "DOTUSD": true, "MATICUSD": true, "LTCUSD": true,
	"AVAXUSD": true, "LINKUSD": true, "SHIBUSD": true, "UNIUSD": true, "ATOMUSD": true,
}

var displayNames = map[string]string{
	"XAUUSD": "Gold", "XAGUSD": "Silver", "XPTUSD": "Platinum", "XPDUSD": "Palladium",
	"USOIL": "US Oil", "UKOIL": "UK Oil", "NGAS": "Natural Gas", "COPPER": "Copper",
	"ALUMINUM": "Aluminum", "NICKEL": "Nickel",
	"BTCUSD": "Bitcoin", "ETHUSD": "Ethereum", "BNBUSD": "BNB", "SOLUSD": "Solana",
	"XRPUSD": "XRP", "ADAUSD": "Cardano", "DOGEUSD": "Dogecoin", "TRXUSD": "TRON",
	"LINKUSD": "Chainlink", "MATICUSD": "Polygon", "DOTUSD": "Polkadot",
	"SHIBUSD": "Shiba Inu", "LTCUSD": "Litecoin", "BCHUSD": "Bitcoin Cash", "AVAXUSD": "Avalanche",
	"XLMUSD": "Stellar", "UNIUSD": "Uniswap", "ATOMUSD": "Cosmos", "ETCUSD": "Ethereum Classic",
	"FILUSD": "Filecoin", "ICPUSD": "Internet Computer", "VETUSD": "VeChain",
	"NEARUSD": "NEAR Protocol", "GRTUSD": "The Graph", "AAVEUSD": "Aave", "MKRUSD": "Maker",
	"ALGOUSD": "Algorand", "FTMUSD": "Fantom", "SANDUSD": "The Sandbox", "MANAUSD": "Decentraland",
	"AXSUSD": "Axie Infinity", "THETAUSD": "Theta Network", "XMRUSD": "Monero", "FLOWUSD": "Flow",
	"SNXUSD": "Synthetix", "EOSUSD": "EOS", "CHZUSD": "Chiliz", "ENJUSD": "Enjin Coin",
	"ZILUSD": "Zilliqa", "BATUSD": "Basic Attention Token", "CRVUSD": "Curve DAO", "COMPUSD": "Compound",
	"SUSHIUSD": "SushiSwap", "ZRXUSD": "0x", "LRCUSD": "Loopring", "ANKRUSD": "Ankr",
	"GALAUSD": "Gala", "APEUSD": "ApeCoin", "WAVESUSD": "Waves", "ZECUSD": "Zcash",
	"PEPEUSD": "Pepe", "ARBUSD": "Arbitrum", "OPUSD": "Optimism", "SUIUSD": "Sui",
	"APTUSD": "Aptos", "INJUSD": "Injective", "LDOUSD": "Lido DAO", "IMXUSD": "Immutable X",
	"RUNEUSD": "THORChain", "KAVAUSD": "Kava", "KSMUSD": "Kusama", "NEOUSD": "NEO",
	"QNTUSD": "Quant", "FETUSD": "Fetch.ai", "RNDRUSD": "Render", "OCEANUSD": "Ocean Protocol",
	"WLDUSD": "Worldcoin", "SEIUSD": "Sei", "TIAUSD": "Celestia", "BLURUSD": "Blur",
	"ROSEUSD": "Oasis Network", "MINAUSD": "Mina Protocol", "GMXUSD": "GMX", "DYDXUSD": "dYdX",
	"STXUSD": "Stacks", "CFXUSD": "Conflux", "ACHUSD": "Alchemy Pay", "DASHUSD": "Dash",
	"XTZUSD": "Tezos", "IOTUSD": "IOTA", "CELOUSD": "Celo", "ONEUSD": "Harmony",
	"HOTUSD": "Holo", "SKLUSD": "SKALE", "STORJUSD": "Storj", "YFIUSD": "yearn.finance",
	"UMAUSD": "UMA", "BANDUSD": "Band Protocol", "RVNUSD": "Ravencoin", "OXTUSD": "Orchid",
	"NKNUSD": "NKN", "WOOUSD": "WOO Network", "JASMYUSD": "JasmyCoin",
	"MASKUSD": "Mask Network", "DENTUSD": "Dent", "CELRUSD": "Celer Network", "COTIUSD": "COTI",
	"IOTXUSD": "IoTeX", "KLAYUSD": "Klaytn", "OGNUSD": "Origin Protocol",
	"RLCUSD": "iExec RLC", "STMXUSD": "StormX", "SUNUSD": "Sun Token", "SXPUSD": "Solar",
	"AUDIOUSD": "Audius", "BONKUSD": "Bonk", "FLOKIUSD": "Floki", "ORDIUSD": "ORDI",
	"1INCHUSD": "1inch", "HBARUSD": "Hedera", "TONUSD": "Toncoin",
}
