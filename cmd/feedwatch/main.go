package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog"
	"github.com/spf13/viper"

	"github.com/tickerlab/feedws"
)

func main() {
	configPath := flag.String("c", "", "path to config file (default searches ./feedwatch.yaml, /etc/feedwatch/)")
	flag.Parse()

	opts, err := loadOptions(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "cannot load config: %s\n", err)
		os.Exit(1)
	}

	zl := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).
		With().
		Timestamp().
		Logger()
	opts.Logger = feedws.NewZerologLogger(zl)

	client, err := feedws.New(opts)
	if err != nil {
		zl.Fatal().Err(err).Msg("cannot build client")
	}
	defer client.Close()

	client.OnStateChange(func(change feedws.StateChange) {
		zl.Info().
			Stringer("from", change.From).
			Stringer("to", change.To).
			Msg("connection state changed")
	})

	client.OnError(func(err error) {
		zl.Warn().Err(err).Msg("feed error")
	})

	client.OnPriceUpdate(func(p feedws.PriceUpdate) {
		zl.Info().
			Str("symbol", p.Symbol).
			Str("price", p.Price.String()).
			Str("change_pct", p.ChangePercent.String()).
			Msg("price")
	})

	client.OnExchangeRate(func(r feedws.ExchangeRate) {
		zl.Info().
			Str("pair", r.Base+"/"+r.Quote).
			Str("rate", r.Rate.String()).
			Msg("fx")
	})

	client.OnTradeSignal(func(s feedws.TradeSignal) {
		zl.Info().
			Str("symbol", s.Symbol).
			Str("action", s.Action).
			Str("confidence", s.Confidence.String()).
			Msg("signal")
	})

	client.OnSessionStatus(func(s feedws.SessionStatus) {
		zl.Info().
			Str("market", s.Market).
			Str("status", s.Status).
			Msg("session")
	})

	client.OnNews(func(n feedws.NewsItem) {
		zl.Info().
			Str("title", n.Title).
			Str("source", n.Source).
			Msg("news")
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := client.Connect(ctx); err != nil {
		zl.Error().Err(err).Msg("initial connect failed, retrying in background")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	zl.Info().Msg("shutting down")
	client.Disconnect()
}

func loadOptions(path string) (feedws.Options, error) {
	v := viper.New()
	v.SetDefault("reconnect_interval", "3s")
	v.SetDefault("max_reconnect_attempts", 5)
	v.SetDefault("ping_interval", "30s")
	v.SetDefault("enable_schema_validation", true)

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("feedwatch")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/feedwatch")
	}

	if err := v.ReadInConfig(); err != nil {
		return feedws.Options{}, err
	}

	var opts feedws.Options
	if err := v.Unmarshal(&opts); err != nil {
		return feedws.Options{}, err
	}
	return opts, nil
}
