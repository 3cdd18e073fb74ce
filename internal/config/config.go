// Package config provides CLI configuration and application logic for retrokit.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/charmbracelet/log"

	"github.com/mazrean/retrokit/internal/retrokit"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// CLI is the root command configuration with subcommands.
type CLI struct {
	LogLevel string           `kong:"short='l',help='Log level',enum='debug,info,warn,error',default='info'"`
	Generate GenerateCmd      `kong:"cmd,default='withargs',help='Generate service proxies (default)'"`
	Scan     ScanCmd          `kong:"cmd,help='List the service interfaces declared in packages'"`
	Version  kong.VersionFlag `kong:"short='v',help='Show version and exit.'"`
}

// GenerateCmd is the default command for generating service proxies.
type GenerateCmd struct {
	Files []string `kong:"arg,help='Go files containing retrokit.Scan declarations'"`
}

// Run executes the generate command.
func (c *GenerateCmd) Run(cli *CLI) error {
	setupLogger(os.Stderr, cli.LogLevel)

	if len(c.Files) == 0 {
		return fmt.Errorf("no files specified")
	}

	slog.Info("Generating service proxies", "files", c.Files)

	processor := retrokit.NewProcessor()
	return processor.ProcessFiles(c.Files)
}

// ScanCmd lists service interfaces without generating code.
type ScanCmd struct {
	Routes   bool     `kong:"short='r',help='List every method with its HTTP route'"`
	Patterns []string `kong:"arg,optional,help='Go package patterns to scan',default='./...'"`
}

// Run executes the scan command.
func (c *ScanCmd) Run(cli *CLI) error {
	setupLogger(os.Stderr, cli.LogLevel)

	services, err := retrokit.NewScanner().Scan(".", c.Patterns...)
	if err != nil {
		return fmt.Errorf("scan: %w", err)
	}

	if len(services) == 0 {
		slog.Warn("No services found", "patterns", c.Patterns)
		return nil
	}

	if c.Routes {
		return renderRoutes(os.Stdout, services)
	}
	return renderServices(os.Stdout, services)
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers(headers...).
		StyleFunc(func(row, _ int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})
}

func renderServices(w io.Writer, services []*retrokit.ServiceSpec) error {
	t := newTable("Name", "Interface", "Package", "Methods")
	for _, svc := range services {
		t.Row(svc.Name, svc.TypeName, svc.PkgPath, strconv.Itoa(len(svc.Methods)))
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func renderRoutes(w io.Writer, services []*retrokit.ServiceSpec) error {
	t := newTable("Service", "Method", "HTTP", "Path", "Headers")
	for _, svc := range services {
		for _, m := range svc.Methods {
			headers := make([]string, 0, len(m.Headers))
			for _, h := range m.Headers {
				headers = append(headers, h.Key+": "+h.Value)
			}
			t.Row(svc.Name, m.Name, m.HTTPMethod, m.Path, strings.Join(headers, ", "))
		}
	}

	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func Run() error {
	var cli CLI
	kongCtx := kong.Parse(&cli,
		kong.Name("retrokit"),
		kong.Description("A REST client code generator for annotated Go interfaces"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.Vars{
			"version": fmt.Sprintf("%s (%s) released on %s", version, commit, date),
		},
	)

	return kongCtx.Run(&cli)
}

func setupLogger(w io.Writer, level string) {
	handler := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           parseLogLevel(level),
	})
	slog.SetDefault(slog.New(handler))
}

func parseLogLevel(level string) log.Level {
	switch strings.ToLower(level) {
	case "debug":
		return log.DebugLevel
	case "info":
		return log.InfoLevel
	case "warn":
		return log.WarnLevel
	case "error":
		return log.ErrorLevel
	default:
		return log.InfoLevel
	}
}
