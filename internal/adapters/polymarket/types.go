package polymarket

import "encoding/json"

// DTOs raw de las APIs de Polymarket. Solo se usan dentro de este paquete.
// La conversión a domain entities se hace en mapping.go.

// --- Data API ---

// rawTrade es un item de GET /trades y de GET /activity?type=TRADE.
// Ambos endpoints comparten los campos que nos interesan.
type rawTrade struct {
	ProxyWallet     string      `json:"proxyWallet"`
	Type            string      `json:"type"`
	Side            string      `json:"side"`
	Asset           string      `json:"asset"`
	ConditionID     string      `json:"conditionId"`
	Size            json.Number `json:"size"`
	Price           json.Number `json:"price"`
	Timestamp       json.Number `json:"timestamp"`
	Title           string      `json:"title"`
	Outcome         string      `json:"outcome"`
	OutcomeIndex    json.Number `json:"outcomeIndex"`
	TransactionHash string      `json:"transactionHash"`
}

// --- Gamma API ---

// gammaMarketsResponse es la respuesta de GET /markets de Gamma.
type gammaMarketsResponse []gammaMarket

// gammaMarket contiene la metadata y el estado de resolución de un mercado.
// outcomes, outcomePrices y clobTokenIds llegan como arrays JSON serializados en un string.
type gammaMarket struct {
	ConditionID         string `json:"conditionId"`
	Question            string `json:"question"`
	Slug                string `json:"slug"`
	Category            string `json:"category"`
	Outcomes            string `json:"outcomes"`
	OutcomePrices       string `json:"outcomePrices"`
	ClobTokenIDs        string `json:"clobTokenIds"`
	Closed              bool   `json:"closed"`
	ClosedTime          string `json:"closedTime"`
	UMAResolutionStatus string `json:"umaResolutionStatus"`
	Events              []struct {
		Category string `json:"category"`
	} `json:"events"`
}
