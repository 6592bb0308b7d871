package feedws

import (
	"context"
)

// FeedClient is the public facade over the streaming core. One instance
// owns one connection state machine, one schema registry and one
// desired-channel set.
type FeedClient struct {
	opts    Options
	manager *connManager
}

// New builds a client dialing a real websocket transport.
func New(opts Options) (*FeedClient, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return nil, err
	}

	factory := NewWebsocketTransportFactory(
		opts.Logger,
		opts.Address,
		opts.Protocols,
		opts.Header,
	)
	return newFeedClient(opts, factory, NewSchemaRegistry()), nil
}

// NewWithTransport builds a client on a caller-supplied transport
// factory. Intended for embedding and tests.
func NewWithTransport(
	opts Options,
	factory TransportFactory,
	registry *SchemaRegistry,
) (*FeedClient, error) {
	opts = opts.withDefaults()
	if registry == nil {
		registry = NewSchemaRegistry()
	}
	return newFeedClient(opts, factory, registry), nil
}

func newFeedClient(opts Options, factory TransportFactory, registry *SchemaRegistry) *FeedClient {
	c := &FeedClient{
		opts: opts,
		manager: newConnManager(
			opts.Logger,
			factory,
			registry,
			opts.EnableSchemaValidation,
			opts.MaxReconnectAttempts,
			opts.ReconnectInterval,
			opts.PingInterval,
		),
	}

	if len(opts.InitialChannels) > 0 {
		c.manager.subs.add(opts.InitialChannels)
	}

	if opts.AutoConnect {
		go func() {
			_ = c.Connect(context.Background())
		}()
	}

	return c
}

func (c *FeedClient) Connect(ctx context.Context) error {
	return c.manager.Connect(ctx)
}

func (c *FeedClient) Disconnect() {
	c.manager.Disconnect()
}

func (c *FeedClient) Reconnect(ctx context.Context) error {
	return c.manager.Reconnect(ctx)
}

func (c *FeedClient) Subscribe(channels ...string) {
	c.manager.Subscribe(channels)
}

func (c *FeedClient) Unsubscribe(channels ...string) {
	c.manager.Unsubscribe(channels)
}

func (c *FeedClient) Send(env Envelope) bool {
	return c.manager.Send(env)
}

func (c *FeedClient) State() ConnectionState {
	return c.manager.State()
}

func (c *FeedClient) Info() ConnectionInfo {
	return c.manager.Info()
}

func (c *FeedClient) LastEnvelope() (Envelope, bool) {
	return c.manager.dispatcher.lastEnvelope()
}

func (c *FeedClient) On(kind string, h EnvelopeHandler) {
	c.manager.dispatcher.on(kind, h)
}

func (c *FeedClient) OnError(h ErrorHandler) {
	c.manager.dispatcher.onError(h)
}

// OnStateChange registers a listener for every lifecycle transition.
func (c *FeedClient) OnStateChange(h func(StateChange)) {
	c.manager.emitter.On(EventStateChange, h)
}

// OnPriceUpdate registers a typed handler for the price feed. Envelopes
// that fail to decode go to the error handler.
func (c *FeedClient) OnPriceUpdate(h func(PriceUpdate)) {
	c.On(KindPrice, typedHandler(c, DecodePriceUpdate, h))
}

// OnExchangeRate registers a typed handler for the exchange-rate feed.
func (c *FeedClient) OnExchangeRate(h func(ExchangeRate)) {
	c.On(KindExchangeRate, typedHandler(c, DecodeExchangeRate, h))
}

// OnTradeSignal registers a typed handler for the signal feed.
func (c *FeedClient) OnTradeSignal(h func(TradeSignal)) {
	c.On(KindSignal, typedHandler(c, DecodeTradeSignal, h))
}

// OnSessionStatus registers a typed handler for the session-status feed.
func (c *FeedClient) OnSessionStatus(h func(SessionStatus)) {
	c.On(KindMarketStatus, typedHandler(c, DecodeSessionStatus, h))
}

// OnNews registers a typed handler for the news feed.
func (c *FeedClient) OnNews(h func(NewsItem)) {
	c.On(KindNews, typedHandler(c, DecodeNewsItem, h))
}

func typedHandler[T any](
	c *FeedClient,
	decode func(Envelope) (T, error),
	h func(T),
) EnvelopeHandler {
	return func(env Envelope) {
		v, err := decode(env)
		if err != nil {
			c.manager.dispatcher.reportError(err)
			return
		}
		h(v)
	}
}

// Close disposes the client. Once closed it cannot be reopened.
func (c *FeedClient) Close() {
	c.manager.dispose()
}

var _ Client = (*FeedClient)(nil)
