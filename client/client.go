package client

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/aleph-zero/stacklab/telemetry"
	"github.com/chzyer/readline"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

const (
	serviceName       = "stacklab-cli"
	serviceVersion    = "0.0.1"
	readlineConfigDir = ".config/stacklab"
)

type Config struct {
	RemoteAddr string
	RemotePort int
}

type Option func(*Config)

func NewConfig(options ...Option) *Config {
	cfg := &Config{}
	for _, option := range options {
		option(cfg)
	}
	return cfg
}

func WithRemoteAddr(addr string) Option {
	return func(cfg *Config) {
		cfg.RemoteAddr = addr
	}
}

func WithRemotePort(port uint16) Option {
	return func(cfg *Config) {
		cfg.RemotePort = int(port)
	}
}

func (c *Config) endpoint() string {
	return fmt.Sprintf("http://%s:%d", c.RemoteAddr, c.RemotePort)
}

func Bootstrap(config *Config) {
	ctx := context.Background()
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	rl, err := setupReadline()
	if err != nil {
		slog.Error("Error setting up readline config", "error", err)
		return
	}
	defer rl.Close()

	shutdown, err := telemetry.New(serviceName, serviceVersion, telemetry.CollectorURL)
	if err != nil {
		slog.Error("Error initializing telemetry", "error", err)
	} else {
		defer shutdown()
	}

	client := &http.Client{
		Transport: otelhttp.NewTransport(http.DefaultTransport),
		Timeout:   time.Second * 30,
	}
	session := NewSession(client, config.endpoint(), rl.Stdout())

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if len(line) == 0 {
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			break
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			break
		}
		if err := session.Execute(ctx, line); err != nil {
			fmt.Fprintln(rl.Stderr(), "error:", err)
		}
		rl.SetPrompt(session.prompt())
	}
}

func setupReadline() (rl *readline.Instance, err error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, err
	}

	dir := filepath.Join(home, readlineConfigDir)
	err = os.MkdirAll(dir, 0750)
	if err != nil {
		return nil, err
	}

	return readline.NewEx(&readline.Config{
		Prompt:            defaultPrompt,
		HistoryFile:       filepath.Join(dir, "stacklab.history"),
		AutoComplete:      completer,
		InterruptPrompt:   "^C",
		EOFPrompt:         "exit",
		HistorySearchFold: true,
	})
}

var completer = readline.NewPrefixCompleter(
	readline.PcItem("new", readline.PcItem("manual"), readline.PcItem("managed")),
	readline.PcItem("use"),
	readline.PcItem("push"),
	readline.PcItem("pop"),
	readline.PcItem("len"),
	readline.PcItem("ls"),
	readline.PcItem("drop"),
	readline.PcItem("help"),
	readline.PcItem("exit"),
)
