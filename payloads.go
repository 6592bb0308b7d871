package feedws

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

type (
	// HandshakePayload is the payload of the connection-kind envelope the
	// server sends right after the transport opens.
	HandshakePayload struct {
		ClientID          string   `json:"client_id"`
		AvailableChannels []string `json:"available_channels,omitempty"`
	}

	// ChannelsPayload carries the channel list of subscribe/unsubscribe
	// requests and their subscribed/unsubscribed acknowledgements.
	ChannelsPayload struct {
		Events []string `json:"events"`
	}

	// ServerErrorPayload is the payload of an error-kind envelope.
	ServerErrorPayload struct {
		Code    string `json:"code,omitempty"`
		Message string `json:"message"`
	}

	// PriceUpdate is one tick of a symbol's price stream.
	PriceUpdate struct {
		Symbol        string          `json:"symbol"`
		Price         decimal.Decimal `json:"price"`
		Change        decimal.Decimal `json:"change"`
		ChangePercent decimal.Decimal `json:"change_percent"`
		Volume        int64           `json:"volume"`
		High          decimal.Decimal `json:"high,omitempty"`
		Low           decimal.Decimal `json:"low,omitempty"`
		Open          decimal.Decimal `json:"open,omitempty"`
	}

	// ExchangeRate is one tick of a currency pair.
	ExchangeRate struct {
		Base  string          `json:"base"`
		Quote string          `json:"quote"`
		Rate  decimal.Decimal `json:"rate"`
	}

	// TradeSignal is a generated buy/sell/hold recommendation.
	TradeSignal struct {
		Symbol     string          `json:"symbol"`
		Action     string          `json:"action"`
		Confidence decimal.Decimal `json:"confidence"`
		Reason     string          `json:"reason,omitempty"`
	}

	// SessionStatus describes whether a market is open, closed or in a
	// pre/post session, and when the next transition happens.
	SessionStatus struct {
		Market         string `json:"market"`
		Status         string `json:"status"`
		NextTransition string `json:"next_transition,omitempty"`
	}

	// NewsItem is one headline from the news feed.
	NewsItem struct {
		ID          string   `json:"id"`
		Title       string   `json:"title"`
		Source      string   `json:"source,omitempty"`
		URL         string   `json:"url,omitempty"`
		Symbols     []string `json:"symbols,omitempty"`
		PublishedAt string   `json:"published_at,omitempty"`
	}
)

func decodePayload[T any](e Envelope) (T, error) {
	var out T
	if len(e.Payload) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(e.Payload, &out); err != nil {
		return out, wrapDecodeError(err, e.Payload)
	}
	return out, nil
}

// DecodePriceUpdate extracts a typed price tick from a price-kind envelope.
func DecodePriceUpdate(e Envelope) (PriceUpdate, error) {
	return decodePayload[PriceUpdate](e)
}

// DecodeExchangeRate extracts a typed rate tick from an exchange_rate-kind envelope.
func DecodeExchangeRate(e Envelope) (ExchangeRate, error) {
	return decodePayload[ExchangeRate](e)
}

// DecodeTradeSignal extracts a typed signal from a signal-kind envelope.
func DecodeTradeSignal(e Envelope) (TradeSignal, error) {
	return decodePayload[TradeSignal](e)
}

// DecodeSessionStatus extracts a typed session status from a market_status-kind envelope.
func DecodeSessionStatus(e Envelope) (SessionStatus, error) {
	return decodePayload[SessionStatus](e)
}

// DecodeNewsItem extracts a typed headline from a news-kind envelope.
func DecodeNewsItem(e Envelope) (NewsItem, error) {
	return decodePayload[NewsItem](e)
}
