package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"budget/internal/amqp"
	"budget/internal/api"
	"budget/internal/app"
	"budget/internal/charts"
	"budget/internal/cli"
	"budget/internal/config"
	applog "budget/internal/log"
	"budget/internal/session"
	gsheet "budget/internal/sheets/google"
	"budget/internal/sheets/memory"
	"budget/internal/view"
)

const usage = `usage: budget [global flags] <command> [flags]

commands:
  home        show the home page
  login       -email E -password P
  register    -email E -name N -password P -confirm P
  logout      forget the stored token
  dashboard   list expenses and draw the charts
  add         -desc D -amount A -category C [-date YYYY-MM-DD]
  export      [-dry-run] append the dashboard expenses to Google Sheets

global flags:
`

func main() {
	ctx, stop := cli.SignalContext()
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes one command and returns the process exit code. Page-level
// failures are shown on the page and still exit 0.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	global := flag.NewFlagSet("budget", flag.ContinueOnError)
	global.SetOutput(stderr)
	apiURL := global.String("api", "", "backend base URL (overrides BUDGET_API_URL)")
	envFile := global.String("env", "", "dotenv file to load (default .env)")
	global.Usage = func() {
		fmt.Fprint(stderr, usage)
		global.PrintDefaults()
	}
	if err := global.Parse(args); err != nil {
		return 2
	}
	if global.NArg() == 0 {
		global.Usage()
		return 2
	}

	if *envFile != "" {
		cli.LoadEnvFile(*envFile)
	} else {
		cli.LoadEnvFile()
	}

	cfg, err := cli.LoadAndValidateConfig(*apiURL)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	logger := cli.SetupLogger(cfg.LogLevel, stderr)

	cmd, cmdArgs := global.Arg(0), global.Args()[1:]
	bindings := view.NewBindings(charts.CanvasCategory, charts.CanvasMonthly)
	page, err := parseCommand(cmd, cmdArgs, bindings, stderr)
	if err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintln(stderr, err)
		}
		return 2
	}
	if page.export {
		exporter, err := newExporter(ctx, cfg, page.dryRun, logger)
		if err != nil {
			fmt.Fprintln(stderr, err)
			return 1
		}
		page.action = app.ExportAction(exporter, nil)
	}

	tokens, closeTokens, err := cli.InitTokenStore(logger, cfg)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}
	defer closeTokens()

	client, err := api.New(cfg.APIURL, tokens,
		api.WithTimeout(cfg.HTTPTimeout),
		api.WithLogger(logger))
	if err != nil {
		fmt.Fprintln(stderr, err)
		return 1
	}

	var events app.ExpenseEvents
	if cfg.AMQPEnabled() && cmd == "add" {
		pub := amqp.NewPublisher(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
		defer pub.Close()
		events = pub
	}

	cur := charts.Currency(cfg.Currency)
	ctrl := app.NewController(app.Deps{
		Tokens:                tokens,
		Backend:               client,
		Charts:                charts.NewRenderer(cfg.ChartsDir, nil, cur, logger),
		View:                  bindings,
		Events:                events,
		Logger:                logger,
		Currency:              cur,
		RegisterRedirectDelay: cfg.RegisterRedirectDelay,
	})

	term := view.NewTerminal(stdout)
	browser := app.NewBrowser(ctrl).WithMaxHops(cfg.MaxRedirects)
	browser.OnPage = func(route string) error {
		return term.Render(route, ctrl.View())
	}

	final, err := browser.Open(ctx, page.route, page.action)
	if err != nil {
		logger.Error("Navigation failed", applog.FieldRoute, final, applog.FieldError, err)
		return 1
	}
	return 0
}

// newExporter returns the Sheets exporter, or an in-memory one for dry runs.
func newExporter(ctx context.Context, cfg *config.Config, dryRun bool, logger *applog.Logger) (app.Exporter, error) {
	if dryRun {
		return memory.New(), nil
	}
	if err := cfg.ValidateExport(); err != nil {
		return nil, err
	}
	return gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:   cfg.GoogleSpreadsheetID,
		SheetName:       cfg.GoogleSheetName,
		CredentialsJSON: cfg.GoogleServiceAccountJSON,
		CredentialsFile: cfg.GoogleServiceAccountFile,
	}, logger)
}

// pageRequest is a parsed command: the page to open and what to do there.
// Export actions need configuration, so export only marks the request.
type pageRequest struct {
	route  string
	action app.Action
	export bool
	dryRun bool
}

// parseCommand maps a command to a pageRequest, copying flag values into the
// form bindings.
func parseCommand(cmd string, args []string, b *view.Bindings, stderr io.Writer) (pageRequest, error) {
	fs := flag.NewFlagSet(cmd, flag.ContinueOnError)
	fs.SetOutput(stderr)

	var p pageRequest

	switch cmd {
	case "home":
		p.route = session.RouteHome
	case "login":
		p.route, p.action = session.RouteLogin, app.LoginAction
		fs.StringVar(&b.LoginForm.Email, "email", "", "account email")
		fs.StringVar(&b.LoginForm.Password, "password", os.Getenv("BUDGET_PASSWORD"), "account password (default $BUDGET_PASSWORD)")
	case "register":
		p.route, p.action = session.RouteRegister, app.RegisterAction
		fs.StringVar(&b.RegisterForm.Email, "email", "", "account email")
		fs.StringVar(&b.RegisterForm.FullName, "name", "", "full name")
		fs.StringVar(&b.RegisterForm.Password, "password", "", "password")
		fs.StringVar(&b.RegisterForm.ConfirmPassword, "confirm", "", "password again")
	case "logout":
		p.route, p.action = session.RouteHome, app.LogoutAction
	case "dashboard":
		p.route = session.RouteDashboard
	case "add":
		p.route, p.action = session.RouteDashboard, app.AddExpenseAction
		fs.StringVar(&b.ExpenseForm.Description, "desc", "", "description")
		fs.StringVar(&b.ExpenseForm.Amount, "amount", "", "amount, e.g. 12.50")
		fs.StringVar(&b.ExpenseForm.Category, "category", "", "category")
		fs.StringVar(&b.ExpenseForm.Date, "date", "", "expense date, YYYY-MM-DD (default today, set by the backend)")
	case "export":
		p.route, p.export = session.RouteDashboard, true
		fs.BoolVar(&p.dryRun, "dry-run", false, "export to memory and only report the range")
	default:
		return pageRequest{}, fmt.Errorf("unknown command %q", cmd)
	}

	if err := fs.Parse(args); err != nil {
		return pageRequest{}, err
	}
	if fs.NArg() > 0 {
		return pageRequest{}, fmt.Errorf("%s: unexpected arguments: %s", cmd, strings.Join(fs.Args(), " "))
	}
	return p, nil
}
