//
// Date: 2026-02-16
// Copyright (c) 2026. All rights reserved.
//

package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"text/tabwriter"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/lumenquant/tradestream/internal/aggregator"
	"github.com/lumenquant/tradestream/internal/broker"
	"github.com/lumenquant/tradestream/internal/config"
	"github.com/lumenquant/tradestream/internal/indicator"
	"github.com/lumenquant/tradestream/internal/logging"
	"github.com/lumenquant/tradestream/internal/metrics"
	"github.com/lumenquant/tradestream/internal/provider"
	"github.com/lumenquant/tradestream/internal/publisher"
	"github.com/lumenquant/tradestream/internal/stats"
	"github.com/lumenquant/tradestream/internal/trade"
	"github.com/lumenquant/tradestream/internal/viewmodel"
)

var (
	flagToken           string
	flagSymbols         string
	flagURL             string
	flagMaxTrades       int
	flagWindowSize      int
	flagEnhancedMetrics bool
	flagProvider        string
	flagSortByTimestamp bool
	flagMetricsAddr     string
	flagNATSURL         string
)

// streamCmd is the main command: it wires a Provider into the broker and
// the broker into the stats collector, view model, indicator engines
// (when --enhanced-metrics is set), publisher, and metrics registry,
// then runs until Ctrl-C.
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream real-time trades and statistics",
	Long:  "Connect to a market data provider, stream trades through the broker, and print rolling statistics (and, with --enhanced-metrics, indicator signals) until interrupted.",
	RunE:  runStream,
}

func init() {
	streamCmd.Flags().StringVar(&flagToken, "token", "", "Provider API token/key (overrides config and provider-specific env vars)")
	streamCmd.Flags().StringVar(&flagSymbols, "symbol", "", "Comma-separated list of symbols to subscribe to (overrides config/SYMBOLS)")
	streamCmd.Flags().StringVar(&flagURL, "url", "", "Provider WebSocket base URL (overrides config/provider default)")
	streamCmd.Flags().IntVar(&flagMaxTrades, "max-trades", 0, "Maximum recent trades retained in the view model (0 = use config/default)")
	streamCmd.Flags().IntVar(&flagWindowSize, "window-size", 0, "Event-based window size for rolling statistics (0 = use config/default)")
	streamCmd.Flags().BoolVar(&flagEnhancedMetrics, "enhanced-metrics", false, "Enable the indicator engines and signal aggregator")
	streamCmd.Flags().StringVar(&flagProvider, "provider", "", "Market data provider: finnhub or polygon (overrides config/MARKET_DATA_PROVIDER)")
	streamCmd.Flags().BoolVar(&flagSortByTimestamp, "sort-by-timestamp", false, "Reorder trades within a bounded flush window by sourceTimestamp")
	streamCmd.Flags().StringVar(&flagMetricsAddr, "metrics-addr", "", "Address to serve Prometheus metrics on (empty = disabled)")
	streamCmd.Flags().StringVar(&flagNATSURL, "nats-url", "", "NATS URL to publish trades to (empty = disabled)")
	rootCmd.AddCommand(streamCmd)
}

func runStream(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		cfg = config.DefaultConfig()
	}

	providerName := flagProvider
	if providerName == "" {
		providerName = config.GetProvider(cfg)
	}

	symbols := resolveSymbols(cfg)
	if len(symbols) == 0 {
		return fmt.Errorf("no symbols configured: pass --symbol, set SYMBOLS, or save them with 'tradestream config init'")
	}

	maxTrades := flagMaxTrades
	if maxTrades == 0 {
		maxTrades = cfg.MaxTrades
	}
	windowSize := flagWindowSize
	if windowSize == 0 {
		windowSize = cfg.WindowSize
	}
	windowCfg, err := stats.NewEventBased(windowSize)
	if err != nil {
		return fmt.Errorf("invalid window size: %w", err)
	}

	metricsAddr := flagMetricsAddr
	if metricsAddr == "" {
		metricsAddr = config.GetMetricsAddr(cfg)
	}
	natsURL := flagNATSURL
	if natsURL == "" {
		natsURL = config.GetNATSURL(cfg)
	}
	enhancedMetrics := flagEnhancedMetrics || cfg.EnhancedMetrics

	log := logging.New(logrus.InfoLevel)

	prov, err := buildProvider(providerName, cfg, log)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer stop()

	if err := prov.Authenticate(ctx); err != nil {
		return fmt.Errorf("authenticate: %w", err)
	}

	trades, err := prov.Subscribe(ctx, symbols)
	if err != nil {
		return fmt.Errorf("subscribe: %w", err)
	}

	var brokerOpts []broker.Option
	if flagSortByTimestamp {
		brokerOpts = append(brokerOpts, broker.WithTimestampSort(50*time.Millisecond))
	}
	b := broker.New(brokerOpts...)
	defer b.Close()

	reg := metrics.NewRegistry()
	if metricsAddr != "" {
		go func() {
			if err := serveMetrics(ctx, metricsAddr, reg); err != nil {
				log.WithError(err).Warn("metrics server stopped")
			}
		}()
	}

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		for {
			select {
			case t, ok := <-trades:
				if !ok {
					return
				}
				reg.ObserveTrade(t.LatencyMs)
				if err := b.Publish(ctx, t); err != nil {
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	collector := viewmodel.NewCollector(windowCfg)
	if sub, err := b.Subscribe(); err == nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			collector.Run(ctx, sub)
		}()
	}

	model := viewmodel.NewModel(collector, maxTrades, viewmodel.DefaultInterval)
	var snapshots <-chan viewmodel.Snapshot
	if sub, err := b.Subscribe(); err == nil {
		snapshots = model.Run(ctx, sub)
	}

	if natsURL != "" {
		nats := publisher.NewNATS(natsURL, log)
		defer nats.Close()
		if sub, err := b.Subscribe(); err == nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				publisher.Run(ctx, sub, nats, func(t trade.Record, err error) {
					log.WithError(err).WithField("symbol", t.Symbol).Warn("publish failed")
				})
			}()
		}
	}

	if enhancedMetrics {
		runIndicators(ctx, &wg, b, symbols, reg)
	}

	wg.Add(1)
	go func() {
		defer wg.Done()
		renderSnapshots(ctx, snapshots)
	}()

	<-ctx.Done()
	fmt.Fprintln(os.Stderr, "\nShutting down...")
	wg.Wait()
	return nil
}

func resolveSymbols(cfg *config.Config) []trade.Symbol {
	var raw []string
	if flagSymbols != "" {
		for _, s := range strings.Split(flagSymbols, ",") {
			s = strings.TrimSpace(strings.ToUpper(s))
			if s != "" {
				raw = append(raw, s)
			}
		}
	} else {
		raw = config.GetSymbols(cfg)
	}

	out := make([]trade.Symbol, 0, len(raw))
	for _, s := range raw {
		out = append(out, trade.Symbol(s))
	}
	return out
}

func buildProvider(name string, cfg *config.Config, log *logrus.Logger) (provider.Provider, error) {
	switch name {
	case "polygon":
		key := flagToken
		if key == "" {
			key = config.GetPolygonAPIKey(cfg)
		}
		url := flagURL
		if url == "" {
			url = config.GetPolygonWSURL(cfg)
		}
		return provider.NewPolygon(key, url, log), nil
	case "finnhub", "":
		token := flagToken
		if token == "" {
			token = config.GetFinnhubToken(cfg)
		}
		url := flagURL
		if url == "" {
			url = config.GetFinnhubWSURL(cfg)
		}
		return provider.NewFinnhub(token, url, log), nil
	default:
		return nil, fmt.Errorf("unknown provider %q: expected finnhub or polygon", name)
	}
}

// runIndicators instantiates one default indicator set per symbol (SMA,
// EMA, RSI, Bollinger, VWAP, Volatility), feeds each from its own broker
// subscription, periodically aggregates their latest signals, and logs
// the consensus. Enabled only under --enhanced-metrics, since it is
// extra CPU and goroutine overhead over the base stats/view-model path.
func runIndicators(ctx context.Context, wg *sync.WaitGroup, b *broker.Broker, symbols []trade.Symbol, reg *metrics.Registry) {
	for _, symbol := range symbols {
		engines := []indicator.Engine{
			indicator.NewSMA(symbol, 20),
			indicator.NewEMA(symbol, 20),
			indicator.NewRSI(symbol, 14),
			indicator.NewBollinger(symbol, 20),
			indicator.NewVWAP(symbol, true),
			indicator.NewVolatility(symbol, 14, indicator.StdDev, 30),
		}

		latest := make(map[string]indicator.Signal)
		var mu sync.Mutex

		for _, eng := range engines {
			sub, err := b.Subscribe()
			if err != nil {
				continue
			}
			wg.Add(1)
			go func(eng indicator.Engine, sub *broker.Subscription) {
				defer wg.Done()
				states := eng.Process(ctx, sub.C())
				for st := range states {
					reg.ObserveIndicatorState(eng.ID())
					sig := eng.Signal(st)
					mu.Lock()
					latest[eng.ID()] = sig
					mu.Unlock()
				}
			}(eng, sub)
		}

		wg.Add(1)
		go func(symbol trade.Symbol) {
			defer wg.Done()
			ticker := time.NewTicker(time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ticker.C:
					mu.Lock()
					signals := make([]indicator.Signal, 0, len(latest))
					for _, sig := range latest {
						signals = append(signals, sig)
					}
					mu.Unlock()
					if len(signals) == 0 {
						continue
					}
					consensus := aggregator.Aggregate(signals)
					if consensus.Kind != indicator.Hold {
						fmt.Fprintf(os.Stderr, "[%s] consensus=%v strength=%.2f reason=%s\n", symbol, consensus.Kind, consensus.Strength, consensus.Reason)
					}
				case <-ctx.Done():
					return
				}
			}
		}(symbol)
	}
}

func renderSnapshots(ctx context.Context, snapshots <-chan viewmodel.Snapshot) {
	if snapshots == nil {
		<-ctx.Done()
		return
	}

	var w *tabwriter.Writer
	if outputFormat == "table" {
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	}

	for {
		select {
		case snap, ok := <-snapshots:
			if !ok {
				return
			}
			if outputFormat == "json" {
				line, err := json.Marshal(snap)
				if err == nil {
					fmt.Println(string(line))
				}
				continue
			}
			fmt.Fprintln(w, "SYMBOL\tMEAN\tVWAP\tMOMENTUM\tVOLATILITY")
			for symbol, st := range snap.Statistics {
				fmt.Fprintf(w, "%s\t%.4f\t%.4f\t%.2f%%\t%.2f%%\n", symbol, st.Mean(), st.VWAP(), st.Momentum(), st.Volatility())
			}
			w.Flush()
		case <-ctx.Done():
			return
		}
	}
}

func serveMetrics(ctx context.Context, addr string, reg *metrics.Registry) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
