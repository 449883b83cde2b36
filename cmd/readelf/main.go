package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/version"
	"github.com/spf13/afero"
	"gopkg.in/alecthomas/kingpin.v2"

	"github.com/grafana/readelf/pkg/clictx"
	"github.com/grafana/readelf/pkg/config"
)

var cfg struct {
	verbose     bool
	configFile  string
	expandEnv   bool
	metricsFile string
	tree        bool
	section     string
	files       []string
}

var (
	consoleOutput = os.Stderr
	logger        = log.NewLogfmtLogger(consoleOutput)
)

func main() {
	app := kingpin.New(filepath.Base(os.Args[0]), "Display information about the contents of ELF files.").UsageWriter(os.Stdout)
	app.Version(version.Print("readelf"))
	app.HelpFlag.Short('h')
	app.Flag("verbose", "Enable verbose logging.").Short('v').Default("0").BoolVar(&cfg.verbose)
	app.Flag("config.file", "Configuration file to load.").StringVar(&cfg.configFile)
	app.Flag("config.expand-env", "Expands ${var} or $var in the configuration file according to the values of the environment variables.").Default("false").BoolVar(&cfg.expandEnv)
	app.Flag("metrics.file", "Write the collected metrics to this file in the Prometheus text format.").StringVar(&cfg.metricsFile)
	overrides := config.RegisterFlags(app)

	fileHeaderCmd := app.Command("file-header", "Display the ELF file header.").Alias("h")
	addFiles(fileHeaderCmd)
	programHeadersCmd := app.Command("program-headers", "Display the program headers and the section to segment mapping.").Alias("segments").Alias("l")
	programHeadersCmd.Flag("tree", "Print the section to segment mapping as a tree.").Default("false").BoolVar(&cfg.tree)
	addFiles(programHeadersCmd)
	sectionHeadersCmd := app.Command("section-headers", "Display the section headers.").Alias("sections").Alias("S")
	addFiles(sectionHeadersCmd)
	headersCmd := app.Command("headers", "Display the file, program and section headers.").Alias("e")
	headersCmd.Flag("tree", "Print the section to segment mapping as a tree.").Default("false").BoolVar(&cfg.tree)
	addFiles(headersCmd)
	hexDumpCmd := app.Command("hex-dump", "Dump the content of a section as bytes.").Alias("x")
	hexDumpCmd.Flag("section", "Section number or name.").Short('s').Required().StringVar(&cfg.section)
	addFiles(hexDumpCmd)
	stringDumpCmd := app.Command("string-dump", "Dump the content of a section as strings.").Alias("p")
	stringDumpCmd.Flag("section", "Section number or name.").Short('s').Required().StringVar(&cfg.section)
	addFiles(stringDumpCmd)
	buildIDCmd := app.Command("build-id", "Display the GNU or Go build ID.")
	addFiles(buildIDCmd)
	summaryCmd := app.Command("summary", "Display a one line summary per file.")
	addFiles(summaryCmd)

	// parse command line arguments
	parsedCmd := kingpin.MustParse(app.Parse(os.Args[1:]))

	// enable verbose logging if requested
	if !cfg.verbose {
		logger = level.NewFilter(logger, level.AllowInfo())
	}

	fs := afero.NewOsFs()
	c, err := loadConfig(fs, overrides)
	if err != nil {
		os.Exit(checkError(err))
	}

	registry := prometheus.NewRegistry()
	ctx := clictx.WithLogger(context.Background(), logger)
	ctx = clictx.WithRegistry(ctx, registry)
	ctx = clictx.WithOutput(ctx, os.Stdout)

	r, err := newRunner(ctx, fs, c, runOptions{
		tree:      cfg.tree,
		color:     useColor(c.Output.Color),
		fileNames: len(cfg.files) > 1,
	})
	if err != nil {
		os.Exit(checkError(err))
	}

	switch parsedCmd {
	case fileHeaderCmd.FullCommand():
		err = r.fileHeader(ctx, cfg.files)
	case programHeadersCmd.FullCommand():
		err = r.programHeaders(ctx, cfg.files)
	case sectionHeadersCmd.FullCommand():
		err = r.sectionHeaders(ctx, cfg.files)
	case headersCmd.FullCommand():
		err = r.headers(ctx, cfg.files)
	case hexDumpCmd.FullCommand():
		err = r.hexDump(ctx, cfg.section, cfg.files)
	case stringDumpCmd.FullCommand():
		err = r.stringDump(ctx, cfg.section, cfg.files)
	case buildIDCmd.FullCommand():
		err = r.buildID(ctx, cfg.files)
	case summaryCmd.FullCommand():
		err = r.summary(ctx, cfg.files)
	default:
		level.Error(logger).Log("msg", "unknown command", "cmd", parsedCmd)
	}
	if closeErr := r.close(); err == nil {
		err = closeErr
	}

	if cfg.metricsFile != "" {
		if werr := prometheus.WriteToTextfile(cfg.metricsFile, registry); werr != nil {
			level.Error(logger).Log("msg", "failed to write metrics", "file", cfg.metricsFile, "err", werr)
		}
	}
	os.Exit(checkError(err))
}

func addFiles(cmd *kingpin.CmdClause) {
	cmd.Arg("file", "ELF files to read. gzip and zstd compressed files are decompressed.").Required().StringsVar(&cfg.files)
}

func loadConfig(fs afero.Fs, overrides *config.Overrides) (*config.Config, error) {
	c := config.Default()
	if cfg.configFile != "" {
		loaded, err := config.Load(fs, cfg.configFile, cfg.expandEnv)
		if err != nil {
			return nil, err
		}
		c = *loaded
	}
	overrides.Apply(&c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return &c, nil
}

func useColor(mode string) bool {
	switch mode {
	case "always":
		return true
	case "never":
		return false
	}
	fd := os.Stdout.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func checkError(err error) int {
	switch err {
	case nil:
		return 0
	case errFilesFailed:
		// Every failure is already logged.
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return 1
}
