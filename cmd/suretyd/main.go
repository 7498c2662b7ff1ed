// suretyd is the airline insurance registry daemon.
package main

import (
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"github.com/urfave/cli/v2"

	"github.com/surety-network/surety/internal/flags"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/node"
)

const clientIdentifier = "suretyd"

// Git SHA1 commit hash of the release (set via linker flags)
var gitCommit = ""
var gitDate = ""

var (
	configFileFlag = &cli.StringFlag{
		Name:     "config",
		Usage:    "TOML configuration file",
		Category: flags.MiscCategory,
	}
	// Registry settings
	DataDirFlag = &cli.StringFlag{
		Name:     "datadir",
		Usage:    "Data directory for the registry database",
		Category: flags.RegistryCategory,
	}
	OwnerFlag = &cli.StringFlag{
		Name:     "registry.owner",
		Usage:    "Address of the registry owner (0x-prefixed hex)",
		Category: flags.RegistryCategory,
	}
	OriginFlag = &cli.StringFlag{
		Name:     "registry.origin",
		Usage:    "Calling-surface identity stamped on gated operations (0x-prefixed hex)",
		Category: flags.RegistryCategory,
	}
	FirstAirlineFlag = &cli.StringFlag{
		Name:     "registry.firstairline",
		Usage:    "Airline admitted at bootstrap of a fresh database (0x-prefixed hex)",
		Category: flags.RegistryCategory,
	}
	SeedFlag = &cli.Uint64Flag{
		Name:     "registry.seed",
		Usage:    "Oracle entropy seed (0 draws a random one)",
		Category: flags.RegistryCategory,
	}
	// Database settings
	CacheFlag = &cli.IntFlag{
		Name:     "cache",
		Usage:    "Megabytes of memory allocated to database caching",
		Value:    node.DefaultConfig.DatabaseCache,
		Category: flags.DatabaseCategory,
	}
	// API settings
	HTTPAddrFlag = &cli.StringFlag{
		Name:     "http.addr",
		Usage:    "HTTP server listening interface",
		Value:    node.DefaultConfig.HTTPHost,
		Category: flags.APICategory,
	}
	HTTPPortFlag = &cli.IntFlag{
		Name:     "http.port",
		Usage:    "HTTP server listening port",
		Value:    node.DefaultConfig.HTTPPort,
		Category: flags.APICategory,
	}
	HTTPCorsFlag = &cli.StringFlag{
		Name:     "http.corsdomain",
		Usage:    "Comma separated list of domains from which to accept cross origin requests (browser enforced)",
		Category: flags.APICategory,
	}
	WSOriginsFlag = &cli.StringFlag{
		Name:     "ws.origins",
		Usage:    "Comma separated list of origins from which to accept websocket requests",
		Category: flags.APICategory,
	}
	JWTSecretFlag = &cli.StringFlag{
		Name:     "http.jwtsecret",
		Usage:    "Path to a JWT secret protecting the RPC and event endpoints (created if absent)",
		Category: flags.APICategory,
	}
	// Logging settings
	VerbosityFlag = &cli.IntFlag{
		Name:     "verbosity",
		Usage:    "Logging verbosity: 0=crit, 1=error, 2=warn, 3=info, 4=debug, 5=trace",
		Value:    3,
		Category: flags.LoggingCategory,
	}
)

var (
	nodeFlags = []cli.Flag{
		configFileFlag,
		DataDirFlag,
		OwnerFlag,
		OriginFlag,
		FirstAirlineFlag,
		SeedFlag,
		CacheFlag,
	}
	apiFlags = []cli.Flag{
		HTTPAddrFlag,
		HTTPPortFlag,
		HTTPCorsFlag,
		WSOriginsFlag,
		JWTSecretFlag,
	}
)

var app = flags.NewApp(gitCommit, gitDate, "the airline insurance registry daemon")

func init() {
	app.Action = suretyd
	app.Commands = []*cli.Command{
		initCommand,
		dumpConfigCommand,
		inspectCommand,
		versionCommand,
	}
	sort.Sort(cli.CommandsByName(app.Commands))
	app.Flags = flags.Merge(nodeFlags, apiFlags, []cli.Flag{VerbosityFlag})
	app.Before = func(ctx *cli.Context) error {
		setupLogging(ctx)
		return nil
	}
}

func main() {
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// setupLogging configures the process logger from the verbosity flag,
// coloring output when stderr is a terminal.
func setupLogging(ctx *cli.Context) {
	usecolor := isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())
	output := io.Writer(os.Stderr)
	if usecolor {
		output = colorable.NewColorableStderr()
	}
	log.Setup(log.Lvl(ctx.Int(VerbosityFlag.Name)), usecolor, output)
}

// suretyd is the main entry point into the system: it loads the
// configuration, assembles the node and blocks until shutdown.
func suretyd(ctx *cli.Context) error {
	if args := ctx.Args().Slice(); len(args) > 0 {
		return fmt.Errorf("invalid command: %q", args[0])
	}
	cfg := makeConfig(ctx)
	n, err := node.New(&cfg.Node)
	if err != nil {
		return err
	}
	defer n.Close()
	if err := n.Start(); err != nil {
		return err
	}
	go func() {
		sigc := make(chan os.Signal, 1)
		signal.Notify(sigc, syscall.SIGINT, syscall.SIGTERM)
		defer signal.Stop(sigc)
		<-sigc
		log.Info("Got interrupt, shutting down...")
		n.Close()
	}()
	n.Wait()
	return nil
}
