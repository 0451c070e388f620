package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"

	"mika/internal/evaluator"
	"mika/internal/foreign"
	mikalog "mika/internal/log"
	"mika/internal/object"
	"mika/internal/parser"
	"mika/internal/repl"
	"mika/internal/runtime"
	"mika/internal/util"
)

const (
	DefaultRootPath = "."
	historyFile     = ".mika_history"
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
	configPath string
	debugAST   bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// evaluator config
	flag.StringVar(&rootPath, "root", DefaultRootPath, "Set the root context for the program (used for imports)")
	flag.StringVar(&configPath, "config", "", "Path to a mika.toml file (default: <root>/mika.toml)")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Write the AST of each parsed file as YAML")
	// log config
	flag.StringVar(&logLevel, "log-level", "none", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	flag.Parse()

	if version {
		printVersion()
		return
	}
	if help {
		printHelp()
		return
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	logger := mikalog.InitLogger(config.LogLevel, config.LogFile)
	code := run(config, flag.Args())
	logger.Close()
	os.Exit(code)
}

// loadConfiguration layers defaults, then mika.toml, then flags the user
// actually set.
func loadConfiguration() (util.Configuration, error) {
	base := util.DefaultConfiguration()
	base.Version = Version
	base.BuildDate = BuildDate
	base.Commit = Commit
	base.RootPath = rootPath

	config, err := util.LoadConfiguration(base, configPath)
	if err != nil {
		return config, err
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
	return config, nil
}

func run(config util.Configuration, args []string) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	rt := runtime.NewRuntime(ctx, config)
	interp := evaluator.New(rt, os.Stdout)

	if len(args) == 0 {
		home, _ := os.UserHomeDir()
		history := ""
		if home != "" {
			history = filepath.Join(home, historyFile)
		}
		err := repl.Start(interp, os.Stdout, history)
		_ = rt.Scheduler.Shutdown()
		return exitCode(err, "")
	}

	scriptArgs := make([]object.Object, 0, len(args)-1)
	for _, a := range args[1:] {
		scriptArgs = append(scriptArgs, &object.String{Value: a})
	}
	interp.Globals().Define("args", &object.List{Elements: scriptArgs})

	return runFile(interp, config, args[0])
}

// runFile parses, resolves and interprets one script, then waits for its
// pending timers.
func runFile(interp *evaluator.Interpreter, config util.Configuration, path string) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read file %s: %v\n", path, err)
		return 1
	}
	src := string(source)

	program, err := parser.Parse(src)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if config.DebugAST {
		if err := parser.WriteASTToYAML(program, path+".ast.yaml"); err != nil {
			slog.Error("Failed to write AST as YAML", slog.Any("error", err))
		}
	}
	if err := interp.Resolve(program); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	sched := interp.Runtime.Scheduler
	if _, err := interp.Interpret(program); err != nil {
		_ = sched.Shutdown()
		return exitCode(err, src)
	}
	if err := sched.Wait(); err != nil {
		return exitCode(err, src)
	}
	return 0
}

// exitCode reports err and maps it to a process status. exit(n) is not an
// error to report.
func exitCode(err error, src string) int {
	if err == nil {
		return 0
	}
	var exit *foreign.ExitError
	if errors.As(err, &exit) {
		return exit.Code
	}
	if rtErr, ok := object.AsRuntimeError(err); ok {
		fmt.Fprintln(os.Stderr, object.RenderError(rtErr, src))
		return 1
	}
	fmt.Fprintln(os.Stderr, err)
	return 1
}

func printVersion() {
	fmt.Printf("mika version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: mika [options] [filename [args...]]

Options:
  -root <path>       Set the root context for the program (used for imports). Default is '.'
  -config <path>     Read configuration from this TOML file instead of <root>/mika.toml.
  -debug-ast         Write the AST of each parsed file as <file>.ast.yaml.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Without a filename mika starts an interactive prompt.

Examples:
  mika -log-level=debug         Start the prompt with debug logging enabled
  mika myfile.mika              Execute the provided file
  mika myfile.mika arg1 arg2    Execute the file; the script sees them in 'args'

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}
