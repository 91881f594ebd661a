package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/abrezinsky/pickem/internal/app"
	"github.com/abrezinsky/pickem/internal/auth"
	"github.com/abrezinsky/pickem/internal/config"
	"github.com/abrezinsky/pickem/internal/logger"
	"github.com/abrezinsky/pickem/internal/models"
)

// ANSI escape codes
const (
	reset  = "\033[0m"
	yellow = "\033[33m"
	red    = "\033[31m"
	green  = "\033[32m"
	cyan   = "\033[36m"
	bold   = "\033[1m"
)

var (
	version = "dev"
)

// showLogo prints the banner
func showLogo() {
	width := 46
	border := strings.Repeat("═", width)
	logo := []string{
		"      ____  _      _    _                 ",
		"     |  _ \\(_) ___| | _( )___ _ __ ___    ",
		"     | |_) | |/ __| |/ /// _ \\ '_ ` _ \\   ",
		"     |  __/| | (__|   <  __/ | | | | |    ",
		"     |_|   |_|\\___|_|\\_\\ \\___|_| |_| |_|  ",
	}

	fmt.Printf("\n  %s╔%s╗%s\n", cyan, border, reset)
	for _, line := range logo {
		fmt.Printf("  %s║%s%-*s%s║%s\n", cyan, yellow, width, line, cyan, reset)
	}
	fmt.Printf("  %s╚%s╝%s\n\n", cyan, border, reset)
}

// cycleLogLevel cycles through debug -> info -> warn -> error
func cycleLogLevel(appLog *logger.SlogLogger) string {
	var next string
	switch appLog.GetLevel().String() {
	case "DEBUG":
		next = "info"
	case "INFO":
		next = "warn"
	case "WARN":
		next = "error"
	default:
		next = "debug"
	}

	appLog.SetLevel(logger.ParseLevel(next))
	fmt.Printf("%sLog level: %s%s%s\n", green, yellow, next, reset)
	return next
}

// printKeyboardHelp displays all available keyboard shortcuts
func printKeyboardHelp() {
	fmt.Printf("\n%s%s  Keyboard Shortcuts:%s\n", bold, green, reset)
	fmt.Printf("    %sa%s      - Open admin API in browser\n", cyan, reset)
	fmt.Printf("    %sh%s      - Toggle HTTP request logging\n", cyan, reset)
	fmt.Printf("    %sl%s      - Cycle log level (debug → info → warn → error)\n", cyan, reset)
	fmt.Printf("    %sr%s      - Rescore all rounds\n", cyan, reset)
	fmt.Printf("    %sq%s      - Quit server\n", cyan, reset)
	fmt.Printf("    %s?%s      - Show this help\n\n", cyan, reset)
}

// parseMintSpec parses "uid[:role]" for -mint-token. The role defaults to admin.
func parseMintSpec(spec string) (auth.Identity, error) {
	uid, role, found := strings.Cut(spec, ":")
	uid = strings.TrimSpace(uid)
	if uid == "" {
		return auth.Identity{}, fmt.Errorf("mint-token needs a user id, e.g. -mint-token ops:admin")
	}
	if !found || strings.TrimSpace(role) == "" {
		role = models.RoleAdmin
	}
	role = auth.NormalizeRole(strings.TrimSpace(role))
	return auth.Identity{UID: uid, Role: role}, nil
}

// applyFlags copies explicitly set flags over the loaded configuration
func applyFlags(cfg *config.Config, fs *flag.FlagSet) {
	fs.Visit(func(f *flag.Flag) {
		v := f.Value.String()
		switch f.Name {
		case "port":
			fmt.Sscanf(v, "%d", &cfg.Server.Port)
		case "db":
			cfg.Store.SQLitePath = v
		case "backend":
			cfg.Store.Backend = v
		case "project":
			cfg.Store.FirestoreProject = v
		case "loglevel":
			cfg.Log.Level = v
		case "logformat":
			cfg.Log.Format = v
		case "baseurl":
			cfg.Server.BaseURL = v
		}
	})
}

func main() {
	configPath := flag.String("config", "pickem.yaml", "YAML config file")
	flag.Int("port", 8081, "HTTP server port")
	flag.String("db", "pickem.db", "SQLite database path")
	flag.String("backend", config.BackendSQLite, "Store backend (sqlite, firestore)")
	flag.String("project", "", "Firestore project id")
	flag.String("loglevel", "info", "Log level (debug, info, warn, error)")
	flag.String("logformat", "text", "Log format (text, json)")
	flag.String("baseurl", "", "Public base URL for share links")
	mintToken := flag.String("mint-token", "", "Print a signed token for uid[:role] and exit")
	rescore := flag.Bool("rescore", false, "Reconcile every round once and exit")
	noKeyboard := flag.Bool("nokeyboard", false, "Disable keyboard shortcuts")
	showVersion := flag.Bool("version", false, "Show version and exit")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, `Pick'em - contest scoring and round lifecycle server

Usage:
  pickem [options]

Options:
  -config string     YAML config file (default "pickem.yaml")
  -port int          HTTP server port (default 8081)
  -db string         SQLite database path (default "pickem.db")
  -backend string    Store backend: sqlite, firestore (default "sqlite")
  -project string    Firestore project id
  -loglevel string   Log level: debug, info, warn, error (default "info")
  -logformat string  Log format: text, json (default "text")
  -baseurl string    Public base URL for share links
  -mint-token spec   Print a signed token for uid[:role] and exit
  -rescore           Reconcile every round once and exit
  -nokeyboard        Disable keyboard shortcuts
  -version           Show version and exit

Environment variables (PICKEM_*) and a .env file override the config file;
flags override both.

Keyboard Shortcuts (when enabled):
  a              Open admin API in browser
  h              Toggle HTTP request logging
  l              Cycle log level (debug → info → warn → error)
  r              Rescore all rounds
  q              Quit server
  ?              Show keyboard help

Examples:
  pickem                                   # sqlite on port 8081
  pickem -backend firestore -project demo  # Firestore backend
  pickem -mint-token ops:admin             # Token for the admin API
  pickem -rescore                          # One-off reconciliation

`)
	}

	flag.Parse()

	if *showVersion {
		fmt.Printf("pickem %s\n", version)
		os.Exit(0)
	}

	config.LoadEnvFiles()
	configRequired := false
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "config" {
			configRequired = true
		}
	})
	cfg, err := config.Load(*configPath, configRequired)
	if err != nil {
		log.Fatal("Failed to load config: ", err)
	}
	applyFlags(cfg, flag.CommandLine)
	if err := cfg.Validate(); err != nil {
		log.Fatal("Invalid config: ", err)
	}

	appLog := logger.NewWithOptions(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: cfg.Log.Format,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := app.New(ctx, appLog, cfg)
	if err != nil {
		log.Fatal("Failed to initialize application: ", err)
	}
	defer a.Close()

	if *mintToken != "" {
		id, err := parseMintSpec(*mintToken)
		if err != nil {
			log.Fatal(err)
		}
		token, err := a.MintToken(id)
		if err != nil {
			log.Fatal("Failed to mint token: ", err)
		}
		fmt.Println(token)
		return
	}

	if *rescore {
		res, err := a.Rescore(ctx)
		if err != nil {
			log.Fatal("Rescore failed: ", err)
		}
		fmt.Printf("considered=%d written=%d skipped=%d failed=%d\n", res.Considered, res.Written, res.Skipped, res.Failed)
		return
	}

	showLogo()
	a.Start()

	serverErr := make(chan error, 1)
	go func() {
		serverErr <- a.Run(ctx, cfg.Addr())
	}()

	// Wait a moment for server to start
	time.Sleep(100 * time.Millisecond)

	if !*noKeyboard {
		printKeyboardHelp()
		go listenForKeyboard(ctx, &shortcuts{
			adminURL: a.BaseURL() + "/api/admin/rounds",
			log:      appLog,
			rescore: func() {
				res, err := a.Rescore(ctx)
				if err != nil {
					fmt.Printf("%sRescore failed: %v%s\n", red, err, reset)
					return
				}
				fmt.Printf("%sRescored: %d written, %d failed%s\n", green, res.Written, res.Failed, reset)
			},
			quit: stop,
		})
	} else {
		fmt.Printf("\n%sKeyboard shortcuts disabled (use -nokeyboard=false to enable)%s\n\n", yellow, reset)
	}

	if err := <-serverErr; err != nil {
		appLog.Error("Server stopped", "error", err)
		a.Close()
		os.Exit(1)
	}
}
