// Copyright (c) 2013-2015 The btcsuite developers
// Copyright (c) 2024 The Empower1 developers
// Use of this source code is governed by an ISC
// license that can be found in the LICENSE file.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/BigBossBooling/empwallet/internal/cfgutil"
	"github.com/btcsuite/btcd/btcutil"
	flags "github.com/jessevdk/go-flags"
)

const (
	defaultConfigFilename = "empwallet.conf"
	defaultLogLevel       = "info"
	defaultLogDirname     = "logs"
	defaultLogFilename    = "empwallet.log"
	defaultWalletFilename = "wallet_key.json"
	defaultNodeAddress    = "localhost"
	defaultNodePort       = "8080"
)

var (
	empwalletHomeDir  = btcutil.AppDataDir("empwallet", false)
	defaultConfigFile = filepath.Join(empwalletHomeDir, defaultConfigFilename)
	defaultDataDir    = empwalletHomeDir
	defaultLogDir     = filepath.Join(empwalletHomeDir, defaultLogDirname)
)

type config struct {
	// General application behavior
	ShowVersion bool                    `short:"v" long:"version" description:"Display version information and exit"`
	ConfigFile  *cfgutil.ExplicitString `short:"C" long:"configfile" description:"Path to configuration file"`
	DataDir     string                  `short:"b" long:"datadir" description:"Directory to store key and transaction files"`
	LogDir      string                  `long:"logdir" description:"Directory to log output"`
	DebugLevel  string                  `short:"d" long:"debuglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`

	// Wallet and node
	Wallet string `long:"wallet" description:"Wallet key file (relative paths are rooted at datadir)"`
	Node   string `long:"node" description:"Host or URL of the node accepting transaction submissions"`
}

// cleanAndExpandPath expands environement variables and leading ~ in the
// passed path, cleans the result, and returns it.
func cleanAndExpandPath(path string) string {
	// Expand initial ~ to OS specific home directory.
	if strings.HasPrefix(path, "~") {
		homeDir := filepath.Dir(empwalletHomeDir)
		path = strings.Replace(path, "~", homeDir, 1)
	}

	// NOTE: The os.ExpandEnv doesn't work with Windows cmd.exe-style
	// %VARIABLE%, but they variables can still be expanded via POSIX-style
	// $VARIABLE.
	return filepath.Clean(os.ExpandEnv(path))
}

// validLogLevel returns whether or not logLevel is a valid debug log level.
func validLogLevel(logLevel string) bool {
	switch logLevel {
	case "trace":
		fallthrough
	case "debug":
		fallthrough
	case "info":
		fallthrough
	case "warn":
		fallthrough
	case "error":
		fallthrough
	case "critical":
		return true
	}
	return false
}

// supportedSubsystems returns a sorted slice of the supported subsystems for
// logging purposes.
func supportedSubsystems() []string {
	// Convert the subsystemLoggers map keys to a slice.
	subsystems := make([]string, 0, len(subsystemLoggers))
	for subsysID := range subsystemLoggers {
		subsystems = append(subsystems, subsysID)
	}

	// Sort the subsytems for stable display.
	sort.Strings(subsystems)
	return subsystems
}

// parseAndSetDebugLevels attempts to parse the specified debug level and set
// the levels accordingly.  An appropriate error is returned if anything is
// invalid.
func parseAndSetDebugLevels(debugLevel string) error {
	// When the specified string doesn't have any delimters, treat it as
	// the log level for all subsystems.
	if !strings.Contains(debugLevel, ",") && !strings.Contains(debugLevel, "=") {
		// Validate debug log level.
		if !validLogLevel(debugLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, debugLevel)
		}

		// Change the logging level for all subsystems.
		setLogLevels(debugLevel)

		return nil
	}

	// Split the specified string into subsystem/level pairs while detecting
	// issues and update the log levels accordingly.
	for _, logLevelPair := range strings.Split(debugLevel, ",") {
		if !strings.Contains(logLevelPair, "=") {
			str := "The specified debug level contains an invalid " +
				"subsystem/level pair [%v]"
			return fmt.Errorf(str, logLevelPair)
		}

		// Extract the specified subsystem and log level.
		fields := strings.Split(logLevelPair, "=")
		subsysID, logLevel := fields[0], fields[1]

		// Validate subsystem.
		if _, exists := subsystemLoggers[subsysID]; !exists {
			str := "The specified subsystem [%v] is invalid -- " +
				"supported subsytems %v"
			return fmt.Errorf(str, subsysID, supportedSubsystems())
		}

		// Validate log level.
		if !validLogLevel(logLevel) {
			str := "The specified debug level [%v] is invalid"
			return fmt.Errorf(str, logLevel)
		}

		setLogLevel(subsysID, logLevel)
	}

	return nil
}

// loadConfig initializes and parses the config using a config file and command
// line options.
//
// The configuration proceeds as follows:
//	1) Start with a default config with sane settings
//	2) Pre-parse the command line to check for an alternative config file
//	3) Load configuration file overwriting defaults with any specified options
//	4) Parse CLI options and overwrite/add any specified options
//
// The above results in empwallet functioning properly without any config
// settings while still allowing the user to override settings with config
// files and command line options.  Command line options always take
// precedence.
//
// The subcommand named on the command line is returned along with its
// remaining positional arguments rather than executed, so that logging and
// validation above are finished before any command runs.
func loadConfig() (*config, flags.Commander, []string, error) {
	// Default config.
	cfg := config{
		DebugLevel: defaultLogLevel,
		ConfigFile: cfgutil.NewExplicitString(defaultConfigFile),
		DataDir:    defaultDataDir,
		LogDir:     defaultLogDir,
		Node:       defaultNodeAddress,
	}

	// A config file in the current directory takes precedence.
	exists, err := cfgutil.FileExists(defaultConfigFilename)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}
	if exists {
		cfg.ConfigFile.Value = defaultConfigFilename
	}

	// Pre-parse the command line options to see if an alternative config
	// file or the version flag was specified.  Unknown options belonging
	// to subcommands are ignored here and caught by the final parse below.
	preCfg := cfg
	preParser := flags.NewParser(&preCfg, flags.IgnoreUnknown)
	if _, err := preParser.Parse(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}

	// Show the version and exit if the version flag was specified.
	funcName := "loadConfig"
	appName := filepath.Base(os.Args[0])
	appName = strings.TrimSuffix(appName, filepath.Ext(appName))
	if preCfg.ShowVersion {
		fmt.Println(appName, "version", version())
		os.Exit(0)
	}

	// The final parser knows the subcommands.  Commands are captured
	// instead of executed so that main dispatches them after the
	// configuration is fully validated.
	parser := flags.NewParser(&cfg, flags.Default)
	if err := addCommands(parser); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}
	var activeCommand flags.Commander
	var activeArgs []string
	parser.CommandHandler = func(command flags.Commander, args []string) error {
		activeCommand = command
		activeArgs = args
		return nil
	}

	// Load additional config from file.  A config file named explicitly
	// on the command line must exist, while the default one may be
	// missing.
	configFilePath := cleanAndExpandPath(preCfg.ConfigFile.Value)
	confFileExists, err := cfgutil.FileExists(configFilePath)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}
	if confFileExists {
		err = flags.NewIniParser(parser).ParseFile(configFilePath)
		if err != nil {
			fmt.Fprintln(os.Stderr, err)
			parser.WriteHelp(os.Stderr)
			return nil, nil, nil, err
		}
	} else if preCfg.ConfigFile.ExplicitlySet() {
		err = fmt.Errorf("%s: config file %s does not exist", funcName,
			configFilePath)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}

	// Parse command line options again to ensure they take precedence.
	_, err = parser.Parse()
	if err != nil {
		if e, ok := err.(*flags.Error); !ok || e.Type != flags.ErrHelp {
			parser.WriteHelp(os.Stderr)
		}
		return nil, nil, nil, err
	}

	// Expand environment variables and leading ~ for filepaths.
	cfg.DataDir = cleanAndExpandPath(cfg.DataDir)
	cfg.LogDir = cleanAndExpandPath(cfg.LogDir)

	// Initialize log rotation.  After log rotation has been initialized,
	// the logger variables may be used.
	initLogRotator(filepath.Join(cfg.LogDir, defaultLogFilename))

	// Parse, validate, and set debug log level(s).
	if err := parseAndSetDebugLevels(cfg.DebugLevel); err != nil {
		err := fmt.Errorf("%s: %v", funcName, err.Error())
		fmt.Fprintln(os.Stderr, err)
		parser.WriteHelp(os.Stderr)
		return nil, nil, nil, err
	}

	// Create the data directory, which holds the wallet key file and any
	// transaction records written with relative paths.
	if err := os.MkdirAll(cfg.DataDir, 0700); err != nil {
		err := fmt.Errorf("%s: failed to create data directory: %v",
			funcName, err)
		fmt.Fprintln(os.Stderr, err)
		return nil, nil, nil, err
	}

	// The wallet key file defaults to living in the data directory, and
	// relative paths are interpreted against it.
	if cfg.Wallet == "" {
		cfg.Wallet = defaultWalletFilename
	}
	cfg.Wallet = cleanAndExpandPath(cfg.Wallet)
	if !filepath.IsAbs(cfg.Wallet) {
		cfg.Wallet = filepath.Join(cfg.DataDir, cfg.Wallet)
	}

	// Add the default port to the node address when a bare host was
	// given.  Full URLs pass through untouched.
	if !strings.Contains(cfg.Node, "://") {
		cfg.Node, err = cfgutil.NormalizeAddress(cfg.Node, defaultNodePort)
		if err != nil {
			err := fmt.Errorf("%s: invalid node address: %v",
				funcName, err)
			fmt.Fprintln(os.Stderr, err)
			return nil, nil, nil, err
		}
	}

	return &cfg, activeCommand, activeArgs, nil
}
