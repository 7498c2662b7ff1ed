package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/naoina/toml"
	"github.com/urfave/cli/v2"

	"github.com/surety-network/surety/common"
	"github.com/surety-network/surety/internal/flags"
	"github.com/surety-network/surety/log"
	"github.com/surety-network/surety/node"
)

var (
	initCommand = &cli.Command{
		Action:    initConfig,
		Name:      "init",
		Usage:     "Write a default configuration file",
		ArgsUsage: "<file>",
		Description: `
The init command writes the default configuration to the given file,
refusing to overwrite an existing one. The file defaults to suretyd.toml
in the working directory.
`,
	}
	dumpConfigCommand = &cli.Command{
		Action:    dumpConfig,
		Name:      "dumpconfig",
		Usage:     "Export configuration values in TOML format",
		ArgsUsage: " ",
		Flags:     flags.Merge(nodeFlags, apiFlags),
		Description: `
The dumpconfig command shows the effective configuration: defaults,
overlaid with the configuration file, overlaid with flags.
`,
	}
)

// suretydConfig is the document layout of the configuration file.
type suretydConfig struct {
	Node node.Config
}

// These settings ensure that TOML keys use the same names as Go struct
// fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		return fmt.Errorf("field '%s' is not defined in %s", field, rt.String())
	},
}

func loadConfig(file string, cfg *suretydConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

func defaultNodeConfig() node.Config {
	cfg := node.DefaultConfig
	cfg.Name = clientIdentifier
	return cfg
}

// makeConfig resolves the effective configuration: defaults, overlaid
// with the configuration file, overlaid with command line flags.
func makeConfig(ctx *cli.Context) *suretydConfig {
	cfg := suretydConfig{Node: defaultNodeConfig()}
	if file := ctx.String(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			log.Crit("Failed to load configuration", "file", file, "err", err)
		}
	}
	applyNodeFlags(ctx, &cfg.Node)
	return &cfg
}

func applyNodeFlags(ctx *cli.Context, cfg *node.Config) {
	if ctx.IsSet(DataDirFlag.Name) {
		cfg.DataDir = ctx.String(DataDirFlag.Name)
	}
	if ctx.IsSet(OwnerFlag.Name) {
		cfg.Owner = parseAddress(ctx, OwnerFlag)
	}
	if ctx.IsSet(OriginFlag.Name) {
		cfg.Origin = parseAddress(ctx, OriginFlag)
	}
	if ctx.IsSet(FirstAirlineFlag.Name) {
		cfg.FirstAirline = parseAddress(ctx, FirstAirlineFlag)
	}
	if ctx.IsSet(SeedFlag.Name) {
		cfg.Seed = ctx.Uint64(SeedFlag.Name)
	}
	if ctx.IsSet(CacheFlag.Name) {
		cfg.DatabaseCache = ctx.Int(CacheFlag.Name)
	}
	if ctx.IsSet(HTTPAddrFlag.Name) {
		cfg.HTTPHost = ctx.String(HTTPAddrFlag.Name)
	}
	if ctx.IsSet(HTTPPortFlag.Name) {
		cfg.HTTPPort = ctx.Int(HTTPPortFlag.Name)
	}
	if ctx.IsSet(HTTPCorsFlag.Name) {
		cfg.HTTPCors = splitAndTrim(ctx.String(HTTPCorsFlag.Name))
	}
	if ctx.IsSet(WSOriginsFlag.Name) {
		cfg.WSOrigins = splitAndTrim(ctx.String(WSOriginsFlag.Name))
	}
	if ctx.IsSet(JWTSecretFlag.Name) {
		cfg.JWTSecretFile = ctx.String(JWTSecretFlag.Name)
	}
}

// parseAddress decodes a 0x-prefixed 20 byte hex address flag,
// terminating the process on malformed input.
func parseAddress(ctx *cli.Context, flag *cli.StringFlag) common.Address {
	var addr common.Address
	value := ctx.String(flag.Name)
	if err := addr.UnmarshalText([]byte(value)); err != nil {
		log.Crit("Invalid address flag", "flag", flag.Name, "value", value, "err", err)
	}
	return addr
}

// splitAndTrim splits input separated by a comma and trims excessive
// white space from the substrings.
func splitAndTrim(input string) (ret []string) {
	for _, r := range strings.Split(input, ",") {
		if r = strings.TrimSpace(r); r != "" {
			ret = append(ret, r)
		}
	}
	return ret
}

func initConfig(ctx *cli.Context) error {
	path := "suretyd.toml"
	if ctx.NArg() > 0 {
		path = ctx.Args().First()
	}
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("configuration file %s already exists", path)
	}
	cfg := suretydConfig{Node: defaultNodeConfig()}
	out, err := tomlSettings.Marshal(&cfg)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return err
	}
	log.Info("Wrote default configuration", "file", path)
	return nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg := makeConfig(ctx)
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = os.Stdout.Write(out)
	return err
}
