package config

import (
	"bytes"
	"strings"
	"testing"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/mazrean/retrokit/internal/retrokit"
)

func TestParseLogLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		level string
		want  log.Level
	}{
		{level: "debug", want: log.DebugLevel},
		{level: "INFO", want: log.InfoLevel},
		{level: "warn", want: log.WarnLevel},
		{level: "error", want: log.ErrorLevel},
		{level: "verbose", want: log.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			t.Parallel()

			if got := parseLogLevel(tt.level); got != tt.want {
				t.Errorf("parseLogLevel(%q) = %v, want %v", tt.level, got, tt.want)
			}
		})
	}
}

func TestCLI_Parse(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		args        []string
		wantCommand string
		check       func(t *testing.T, cli *CLI)
	}{
		{
			name:        "generate by default",
			args:        []string{"retrokit.go"},
			wantCommand: "generate <files>",
			check: func(t *testing.T, cli *CLI) {
				if len(cli.Generate.Files) != 1 || cli.Generate.Files[0] != "retrokit.go" {
					t.Errorf("Files = %v", cli.Generate.Files)
				}
				if cli.LogLevel != "info" {
					t.Errorf("LogLevel = %q, want info", cli.LogLevel)
				}
			},
		},
		{
			name:        "scan with default patterns",
			args:        []string{"-l", "debug", "scan", "--routes"},
			wantCommand: "scan",
			check: func(t *testing.T, cli *CLI) {
				if len(cli.Scan.Patterns) != 1 || cli.Scan.Patterns[0] != "./..." {
					t.Errorf("Patterns = %v", cli.Scan.Patterns)
				}
				if !cli.Scan.Routes {
					t.Error("Routes should be set")
				}
				if cli.LogLevel != "debug" {
					t.Errorf("LogLevel = %q, want debug", cli.LogLevel)
				}
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var cli CLI
			parser, err := kong.New(&cli, kong.Vars{"version": "test"})
			if err != nil {
				t.Fatalf("kong.New() error = %v", err)
			}

			ctx, err := parser.Parse(tt.args)
			if err != nil {
				t.Fatalf("Parse(%v) error = %v", tt.args, err)
			}

			if got := ctx.Command(); got != tt.wantCommand {
				t.Errorf("Command() = %q, want %q", got, tt.wantCommand)
			}
			tt.check(t, &cli)
		})
	}
}

func TestRender(t *testing.T) {
	t.Parallel()

	services := []*retrokit.ServiceSpec{
		{
			Name:     "gitHub",
			TypeName: "GitHub",
			PkgPath:  "example.com/api",
			Methods: []*retrokit.MethodSpec{
				{
					Name:       "ListRepos",
					HTTPMethod: "GET",
					Path:       "users/{user}/repos",
					Headers:    []retrokit.Header{{Key: "Accept", Value: "application/json"}},
				},
			},
		},
	}

	var buf bytes.Buffer
	if err := renderServices(&buf, services); err != nil {
		t.Fatalf("renderServices() error = %v", err)
	}
	for _, want := range []string{"Name", "gitHub", "GitHub", "example.com/api", "1"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("services table does not contain %q:\n%s", want, buf.String())
		}
	}

	buf.Reset()
	if err := renderRoutes(&buf, services); err != nil {
		t.Fatalf("renderRoutes() error = %v", err)
	}
	for _, want := range []string{"ListRepos", "GET", "users/{user}/repos", "Accept: application/json"} {
		if !strings.Contains(buf.String(), want) {
			t.Errorf("routes table does not contain %q:\n%s", want, buf.String())
		}
	}
}
