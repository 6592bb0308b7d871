package feedws

import (
	"encoding/json"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecodePriceUpdate(t *testing.T) {
	env := Envelope{
		Kind: KindPrice,
		Payload: json.RawMessage(`{
			"symbol": "005930",
			"price": "71200",
			"change": "-300",
			"change_percent": "-0.42",
			"volume": 12034500
		}`),
	}

	p, err := DecodePriceUpdate(env)
	require.NoError(t, err)

	assert.Equal(t, "005930", p.Symbol)
	assert.True(t, p.Price.Equal(decimal.NewFromInt(71200)))
	assert.True(t, p.Change.IsNegative())
	assert.Equal(t, int64(12034500), p.Volume)
}

func TestDecodeExchangeRate(t *testing.T) {
	env := Envelope{
		Kind:    KindExchangeRate,
		Payload: json.RawMessage(`{"base":"USD","quote":"KRW","rate":"1391.50"}`),
	}

	r, err := DecodeExchangeRate(env)
	require.NoError(t, err)

	assert.Equal(t, "USD", r.Base)
	assert.Equal(t, "KRW", r.Quote)
	assert.True(t, r.Rate.Equal(decimal.RequireFromString("1391.50")))
}

func TestDecodeTradeSignal(t *testing.T) {
	env := Envelope{
		Kind:    KindSignal,
		Payload: json.RawMessage(`{"symbol":"005930","action":"buy","confidence":"0.84","reason":"momentum"}`),
	}

	s, err := DecodeTradeSignal(env)
	require.NoError(t, err)

	assert.Equal(t, "buy", s.Action)
	assert.True(t, s.Confidence.Equal(decimal.RequireFromString("0.84")))
}

func TestDecodeSessionStatus(t *testing.T) {
	env := Envelope{
		Kind:    KindMarketStatus,
		Payload: json.RawMessage(`{"market":"KRX","status":"open","next_transition":"2026-08-29T15:30:00+09:00"}`),
	}

	s, err := DecodeSessionStatus(env)
	require.NoError(t, err)

	assert.Equal(t, "KRX", s.Market)
	assert.Equal(t, "open", s.Status)
}

func TestDecodeNewsItem(t *testing.T) {
	env := Envelope{
		Kind:    KindNews,
		Payload: json.RawMessage(`{"id":"n1","title":"earnings beat","symbols":["005930"]}`),
	}

	n, err := DecodeNewsItem(env)
	require.NoError(t, err)

	assert.Equal(t, "earnings beat", n.Title)
	assert.Equal(t, []string{"005930"}, n.Symbols)
}

func TestDecodePayloadMalformed(t *testing.T) {
	env := Envelope{Kind: KindPrice, Payload: json.RawMessage(`"not an object"`)}

	_, err := DecodePriceUpdate(env)
	assert.ErrorIs(t, err, ErrMalformedFrame)
}

func TestDecodePayloadEmpty(t *testing.T) {
	p, err := DecodePriceUpdate(Envelope{Kind: KindPrice})
	require.NoError(t, err)
	assert.Empty(t, p.Symbol)
}
