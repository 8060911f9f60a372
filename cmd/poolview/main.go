// Command poolview serves a live liquidity histogram and range selector
// for one Orca Whirlpool.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"whirlpool-range-lab/internal/api"
	"whirlpool-range-lab/internal/config"
	"whirlpool-range-lab/internal/domain"
	"whirlpool-range-lab/internal/liquidity"
	"whirlpool-range-lab/internal/poolview"
	"whirlpool-range-lab/internal/rangestate"
	"whirlpool-range-lab/internal/reporting"
	"whirlpool-range-lab/internal/solana"
	"whirlpool-range-lab/internal/storage/memory"
	"whirlpool-range-lab/internal/whirlpool"
)

func main() {
	config.LoadEnvFile(".env")

	root := &cobra.Command{
		Use:          "poolview",
		Short:        "Whirlpool liquidity histogram and range selector",
		SilenceUsage: true,
	}
	root.PersistentFlags().String("config", "", "config file path")
	config.RegisterFlags(root.PersistentFlags())

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Poll the pool and serve the view over HTTP",
		RunE:  runServe,
	})
	histogramCmd := &cobra.Command{
		Use:   "histogram",
		Short: "Fetch the histogram once and print it",
		RunE:  runHistogram,
	}
	histogramCmd.Flags().String("format", "json", "output format (json, csv, markdown)")
	root.AddCommand(histogramCmd)
	root.AddCommand(&cobra.Command{
		Use:   "snapshot",
		Short: "Fetch the pool snapshot once and print it as JSON",
		RunE:  runSnapshot,
	})

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

// app holds the wired components shared by all commands.
type app struct {
	cfg     config.Config
	logger  *zap.Logger
	rpc     *solana.HTTPClient
	pools   *whirlpool.PoolReader
	fetcher *liquidity.Fetcher
	service *poolview.Service
	ws      *solana.WSClientImpl
}

func (a *app) Close() {
	a.service.Close()
	a.fetcher.Close()
	if a.ws != nil {
		a.ws.Close()
	}
	_ = a.logger.Sync()
}

func newApp(ctx context.Context, cmd *cobra.Command, subscribe bool) (*app, error) {
	cfgFile, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(cfgFile, cmd.Flags())
	if err != nil {
		return nil, err
	}

	logger, err := newLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	rpc := solana.NewHTTPClient(cfg.RPCEndpoint,
		solana.WithMaxRetries(cfg.MaxRetries),
		solana.WithRetryDelay(cfg.RetryDelay),
		solana.WithLogger(logger.Named("rpc")),
	)

	program, err := whirlpool.NewProgram(cfg.ProgramID)
	if err != nil {
		return nil, err
	}
	decimals, err := whirlpool.NewDecimalsResolver(rpc, cfg.DecimalsCacheSize)
	if err != nil {
		return nil, err
	}
	pools := whirlpool.NewPoolReader(rpc, decimals, logger.Named("pool"))

	fetcher, err := liquidity.NewFetcher(liquidity.Options{
		Reader:  whirlpool.NewRPCShardReader(rpc),
		Locator: program,
		Decoder: program,
		Workers: cfg.DecodeWorkers,
		Logger:  logger.Named("liquidity"),
	})
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger, rpc: rpc, pools: pools, fetcher: fetcher}

	var subscriber poolview.AccountSubscriber
	if subscribe && cfg.WSEndpoint != "" {
		ws, err := solana.NewWSClient(ctx, cfg.WSEndpoint, &solana.WSClientConfig{Logger: logger.Named("ws")})
		if err != nil {
			logger.Warn("websocket unavailable, polling only", zap.Error(err))
		} else {
			a.ws = ws
			subscriber = ws
		}
	}

	ctrl := rangestate.New(rangestate.Config{
		UserRangePct:   cfg.UserRangePct,
		ChartMarginPct: cfg.ChartMarginPct,
	})
	service, err := poolview.New(poolview.Options{
		PoolAddress: cfg.Pool,
		Pools:       pools,
		Liquidity:   fetcher,
		Controller:  ctrl,
		Snapshots:   memory.NewSnapshotStore(),
		Samples:     memory.NewSampleStore(),
		Subscriber:  subscriber,
		CommitDelay: cfg.CommitDebounce,
		SampleTTL:   cfg.RefreshInterval / 2,
		Logger:      logger.Named("poolview"),
	})
	if err != nil {
		fetcher.Close()
		if a.ws != nil {
			a.ws.Close()
		}
		return nil, err
	}
	a.service = service
	return a, nil
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, true)
	if err != nil {
		return err
	}
	defer a.Close()

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	api.NewHandler(e, a.service, a.rpc, a.logger.Named("api"))

	go func() {
		a.logger.Info("http server start", zap.String("addr", a.cfg.ListenAddr))
		if err := e.Start(a.cfg.ListenAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("http server failed", zap.Error(err))
			stop()
		}
	}()

	a.logger.Info("poolview start",
		zap.String("rpc", a.cfg.RPCEndpoint),
		zap.String("pool", a.cfg.Pool),
		zap.Duration("refresh_interval", a.cfg.RefreshInterval),
		zap.Bool("subscribed", a.ws != nil),
	)

	err = a.service.Run(ctx, a.cfg.RefreshInterval)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if serr := e.Shutdown(shutdownCtx); serr != nil {
		a.logger.Warn("http shutdown", zap.Error(serr))
	}

	if errors.Is(err, context.Canceled) {
		a.logger.Info("shutdown complete")
		return nil
	}
	return err
}

func runHistogram(cmd *cobra.Command, _ []string) error {
	format, _ := cmd.Flags().GetString("format")
	switch format {
	case "json", "csv", "markdown":
	default:
		return fmt.Errorf("unknown format %q", format)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.service.Sync(ctx); err != nil {
		return err
	}
	bins, err := a.service.Histogram()
	if err != nil {
		return err
	}
	view, err := a.service.Range()
	if err != nil {
		return err
	}

	switch format {
	case "csv":
		_, err = io.WriteString(cmd.OutOrStdout(), reporting.RenderCSV(bins))
		return err
	case "markdown":
		snap, err := a.service.Snapshot(ctx)
		if err != nil {
			return err
		}
		report := reporting.NewReport(time.Now(), snap, view, bins)
		_, err = io.WriteString(cmd.OutOrStdout(), reporting.RenderMarkdown(report))
		return err
	}
	return printJSON(cmd, struct {
		Range poolview.RangeView    `json:"range"`
		Bins  []domain.HistogramBin `json:"bins"`
	}{view, bins})
}

func runSnapshot(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cmd, false)
	if err != nil {
		return err
	}
	defer a.Close()

	snap, err := a.pools.ReadPool(ctx, a.cfg.Pool)
	if err != nil {
		return fmt.Errorf("read pool %s: %w", a.cfg.Pool, err)
	}
	return printJSON(cmd, snap)
}

func printJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newLogger(level string) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevel()
	if err := cfg.Level.UnmarshalText([]byte(level)); err != nil {
		return nil, err
	}

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	return cfg.Build()
}
