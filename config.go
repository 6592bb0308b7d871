package feedws

import (
	"net/http"
	"time"

	"github.com/pkg/errors"
)

// Options configures one client instance. There is no process-wide
// default state; every client carries its own copy.
type Options struct {
	// Address is the websocket endpoint of the feed server. Required.
	Address string `mapstructure:"address"`
	// Protocols are optional websocket subprotocols offered on dial.
	Protocols []string `mapstructure:"protocols"`
	// Header is sent with the opening handshake request.
	Header http.Header `mapstructure:"-"`
	// ReconnectInterval is the fixed delay between automatic reconnect
	// attempts.
	ReconnectInterval time.Duration `mapstructure:"reconnect_interval"`
	// MaxReconnectAttempts bounds automatic reconnection before the
	// client parks in the failed state.
	MaxReconnectAttempts int `mapstructure:"max_reconnect_attempts"`
	// PingInterval is the keepalive probe cadence. A negative value
	// disables pings.
	PingInterval time.Duration `mapstructure:"ping_interval"`
	// EnableSchemaValidation turns on per-kind payload validation.
	EnableSchemaValidation bool `mapstructure:"enable_schema_validation"`
	// AutoConnect starts the connection as soon as the client is built.
	AutoConnect bool `mapstructure:"auto_connect"`
	// InitialChannels are subscribed before the first connection.
	InitialChannels []string `mapstructure:"initial_channels"`
	// Logger receives client diagnostics. Defaults to a no-op logger.
	Logger Logger `mapstructure:"-"`
}

const (
	defaultReconnectInterval    = 3 * time.Second
	defaultMaxReconnectAttempts = 5
	defaultPingInterval         = 30 * time.Second
)

func (o Options) withDefaults() Options {
	if o.ReconnectInterval <= 0 {
		o.ReconnectInterval = defaultReconnectInterval
	}
	if o.MaxReconnectAttempts <= 0 {
		o.MaxReconnectAttempts = defaultMaxReconnectAttempts
	}
	if o.PingInterval == 0 {
		o.PingInterval = defaultPingInterval
	}
	if o.Logger == nil {
		o.Logger = nopLogger{}
	}
	return o
}

func (o Options) validate() error {
	if o.Address == "" {
		return errors.New("options: address is required")
	}
	return nil
}
