package providers

// Setup creates a registry with all built-in providers
func Setup() *Registry {
	registry := NewRegistry()

	registry.Register(YahooID, NewYahoo)
	registry.Register(ExchangeRateAPIID, NewExchangeRateAPI, RequiresAPIKey)
	registry.Register(RateExchangeID, NewRateExchange)
	registry.Register(OpenExchangeRatesID, NewOpenExchangeRates, RequiresAPIKey)
	registry.Register(OandaID, NewOanda)

	return registry
}
