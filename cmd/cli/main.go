// Command cli drives one staking simulation from the terminal.
package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	infra_cache "github.com/amirasaad/stakesim/infra/cache"
	infra_eventbus "github.com/amirasaad/stakesim/infra/eventbus"
	"github.com/amirasaad/stakesim/infra/initializer"
	infra_provider "github.com/amirasaad/stakesim/infra/provider"
	assetfixtures "github.com/amirasaad/stakesim/internal/fixtures/assets"
	"github.com/amirasaad/stakesim/pkg/amount"
	"github.com/amirasaad/stakesim/pkg/app"
	"github.com/amirasaad/stakesim/pkg/asset"
	"github.com/amirasaad/stakesim/pkg/config"
	"github.com/amirasaad/stakesim/pkg/form"
	"github.com/amirasaad/stakesim/pkg/provider"
	"github.com/amirasaad/stakesim/pkg/service/simulator"
	"github.com/google/uuid"
)

const (
	settleTimeout = 3 * time.Second
	warnLevel     = 4
)

const usage = `Commands:
  fiat <amount>      set the fiat amount
  crypto <amount>    set the crypto amount
  coin <id>          switch coin (see "coins")
  currency <code>    switch currency (usd, eur)
  period <days>      set the staking period
  coins              list coins and prices
  refresh            fetch prices now
  chart              show the projection
  help               show this help
  quit               exit`

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Sprint("Error: ", err))
		os.Exit(1)
	}
}

type options struct {
	envFile  string
	static   bool
	coin     string
	currency string
	period   int
	amount   float64
	debounce time.Duration
	verbose  bool
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var o options
	fs := flag.NewFlagSet("cli", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&o.envFile, "env", ".env", "environment file")
	fs.BoolVar(&o.static, "static", false, "use built-in prices instead of CoinGecko")
	fs.StringVar(&o.coin, "coin", "", "initial coin id")
	fs.StringVar(&o.currency, "currency", "", "initial currency")
	fs.IntVar(&o.period, "period", 0, "initial period in days")
	fs.Float64Var(&o.amount, "amount", -1, "initial fiat amount")
	fs.DurationVar(&o.debounce, "debounce", 0, "override the input debounce")
	fs.BoolVar(&o.verbose, "v", false, "log at info level")
	err := fs.Parse(args)
	return o, err
}

func run(args []string, in io.Reader, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}
	cfg, err := config.Load(opts.envFile)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if !opts.verbose {
		cfg.Log.Level = warnLevel
	}
	if opts.debounce > 0 {
		cfg.Simulator.Debounce = opts.debounce
	}
	logger := initializer.SetupLogger(cfg.Log)

	catalog, err := assetfixtures.LoadCatalog("")
	if err != nil {
		return err
	}
	var p provider.PriceProvider = infra_provider.NewCoinGeckoProvider(cfg.CoinGecko, logger)
	if opts.static {
		p = infra_provider.NewStaticProvider(infra_provider.DefaultStaticQuotes())
	}

	a := app.New(&app.Deps{
		Catalog:       catalog,
		PriceProvider: p,
		PriceCache:    infra_cache.NewMemoryCache(),
		EventBus:      infra_eventbus.NewWithMemory(logger),
		Logger:        logger,
	}, cfg)
	defer a.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := a.Prices.Refresh(ctx); err != nil {
		fmt.Fprintln(out, warnStyle.Sprint("Prices unavailable: ", err))
	}
	a.Start(ctx)

	so := simulator.SessionOptions{Coin: opts.coin, PeriodDays: opts.period}
	if opts.currency != "" {
		f, err := asset.ParseFiat(opts.currency)
		if err != nil {
			return err
		}
		so.Fiat = f
	}
	if opts.amount >= 0 {
		so.Amount = &opts.amount
	}
	snap, err := a.SimulatorService.CreateSession(ctx, so)
	if err != nil {
		return err
	}

	r := &repl{sim: a.SimulatorService, app: a, id: snap.SessionID, out: out, width: terminalWidth(out)}
	r.show(snap)
	return r.loop(ctx, in)
}

type repl struct {
	sim   *simulator.Service
	app   *app.App
	id    uuid.UUID
	out   io.Writer
	width int
}

func (r *repl) loop(ctx context.Context, in io.Reader) error {
	scanner := bufio.NewScanner(in)
	fmt.Fprint(r.out, "> ")
	for scanner.Scan() {
		cmd, arg := parseCommand(scanner.Text())
		if cmd == "quit" || cmd == "exit" {
			return nil
		}
		if err := r.exec(ctx, cmd, arg); err != nil {
			fmt.Fprintln(r.out, errorStyle.Sprint(err))
		}
		fmt.Fprint(r.out, "> ")
	}
	return scanner.Err()
}

func parseCommand(line string) (cmd, arg string) {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return "", ""
	}
	cmd = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = strings.Join(fields[1:], " ")
	}
	return cmd, arg
}

func (r *repl) exec(ctx context.Context, cmd, arg string) error {
	var (
		snap form.Snapshot
		err  error
	)
	switch cmd {
	case "":
		return nil
	case "help":
		fmt.Fprintln(r.out, usage)
		return nil
	case "fiat", "crypto":
		field, _ := amount.ParseField(cmd)
		snap, err = r.sim.EditAmount(r.id, field, arg)
		if errors.Is(err, amount.ErrInvalidNumericInput) {
			r.show(snap)
			return err
		}
	case "coin":
		snap, err = r.sim.SelectCoin(r.id, arg)
	case "currency":
		snap, err = r.sim.SelectCurrency(r.id, arg)
	case "period":
		days, convErr := strconv.Atoi(arg)
		if convErr != nil {
			return fmt.Errorf("period must be a whole number of days: %q", arg)
		}
		snap, err = r.sim.SelectPeriod(r.id, days)
	case "coins":
		renderPrices(r.out, r.sim.Catalog(), r.app.Prices.Price)
		return nil
	case "refresh":
		if _, err := r.app.Prices.Retry(ctx); err != nil {
			return err
		}
		snap, err = r.sim.Snapshot(r.id)
	case "chart":
		return r.chart()
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
	if err != nil {
		return err
	}
	r.show(snap)
	return nil
}

// show prints the session and, once the inputs have settled, its chart.
func (r *repl) show(snap form.Snapshot) {
	renderSession(r.out, snap)
	deadline := time.Now().Add(settleTimeout)
	for snap.Pending && time.Now().Before(deadline) {
		time.Sleep(20 * time.Millisecond)
		next, err := r.sim.Snapshot(r.id)
		if err != nil {
			return
		}
		snap = next
	}
	for {
		err := r.chart()
		if err == nil {
			return
		}
		if !errors.Is(err, simulator.ErrChartNotReady) || time.Now().After(deadline) {
			fmt.Fprintln(r.out, warnStyle.Sprint(err))
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
}

func (r *repl) chart() error {
	c, err := r.sim.Chart(r.id)
	if err != nil {
		return err
	}
	renderChart(r.out, c, r.width)
	return nil
}
