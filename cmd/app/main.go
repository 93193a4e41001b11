package main

import (
	"flag"
	"fmt"
	hlog "hemlock/internal/log"
	"hemlock/internal/repl"
	"hemlock/internal/runtime"
	"hemlock/internal/util"
	"log/slog"
	"os"
)

var (
	// Version is stamped at build time with -ldflags.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	rootPath   string
	debugAST   bool
	configPath string
	evalSource string
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// evaluator config
	flag.StringVar(&rootPath, "root", "", "Set the root context for the program (used for imports)")
	flag.StringVar(&evalSource, "e", "", "Evaluate the given source and exit")
	flag.StringVar(&configPath, "config", "", "Load settings from a .toml or .yaml file")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Render the AST as a JSON file")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	if version {
		printVersion()
		return 0
	}
	if help {
		printHelp()
		return 0
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	logCloser := hlog.Setup(config.LogLevel, config.LogFile)
	defer logCloser.Close()

	rt := runtime.NewRuntime(config)
	rt.OnFatal = func(fe *runtime.FatalError) {
		fmt.Fprintln(os.Stderr, fe.Error())
		_ = logCloser.Close()
		os.Exit(1)
	}

	switch {
	case evalSource != "":
		err = rt.Run(evalSource, "")
	case flag.NArg() > 0:
		err = rt.RunFile(flag.Arg(0))
	default:
		if isTerminal(os.Stdin) {
			repl.Run(rt, os.Stdout)
		} else {
			repl.Start(rt, os.Stdin, os.Stdout)
		}
		err = rt.Close()
	}

	if err != nil {
		slog.Debug("program failed", slog.Any("error", err))
		fmt.Fprintln(os.Stderr, err.Error())
		return 1
	}
	return 0
}

// loadConfiguration layers the config file, HEMLOCK_HOME and explicitly set
// flags, in that order.
func loadConfiguration() (util.Configuration, error) {
	config := util.Configuration{
		Version:     Version,
		BuildDate:   BuildDate,
		Commit:      Commit,
		HemlockHome: os.Getenv("HEMLOCK_HOME"),
		LogLevel:    logLevel,
	}

	if configPath != "" {
		loaded, err := util.LoadConfigFile(configPath, config)
		if err != nil {
			return config, err
		}
		config = loaded
	}

	flag.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "root":
			config.RootPath = rootPath
		case "debug-ast":
			config.DebugAST = debugAST
		case "log-level":
			config.LogLevel = logLevel
		case "log-file":
			config.LogFile = logFile
		}
	})

	if flag.NArg() > 0 && evalSource == "" {
		config.Args = flag.Args()
	} else {
		config.Args = append([]string{"hemlock"}, flag.Args()...)
		if config.RootPath == "" {
			config.RootPath = "."
		}
	}
	return config, nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}

func printVersion() {
	fmt.Printf("hemlock version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: hemlock [options] [filename [args...]]

Options:
  -root <path>       Set the root context for imports. Default is the script's directory.
  -e <source>        Evaluate the given source and exit.
  -config <path>     Load settings from a .toml or .yaml file.
  -debug-ast         Write the AST as <filename>.ast.json.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Environment:
  HEMLOCK_HOME       Directory holding the stdlib/ module tree.

Examples:
  hemlock                       Start the REPL
  hemlock myfile.hml            Execute the provided Hemlock file
  hemlock myfile.hml arg1 arg2  Execute the file with command-line arguments
  hemlock -e 'print(1 + 2);'    Evaluate inline source

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
