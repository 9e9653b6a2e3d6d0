package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"github.com/zarlcorp/core/pkg/zapp"
	"github.com/zarlcorp/zhrm/internal/cli"
	"github.com/zarlcorp/zhrm/internal/config"
	"github.com/zarlcorp/zhrm/internal/tui"
)

// version is set at build time via ldflags.
var version = "dev"

const demoEmployees = 20

func main() {
	app := zapp.New(zapp.WithName("zhrm"))

	ctx, cancel := zapp.SignalContext(context.Background())
	defer cancel()

	// a .env file is optional; the environment wins over it
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		slog.Warn("load .env", "err", err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "zhrm: %v\n", err)
		_ = app.Close()
		os.Exit(1)
	}

	if len(os.Args) > 1 {
		runCLI(ctx, cfg, os.Args[1])
		_ = app.Close()
		return
	}

	if err := runTUI(cfg); err != nil {
		slog.Error("tui", "err", err)
		_ = app.Close()
		os.Exit(1)
	}

	if err := app.Close(); err != nil {
		slog.Error("shutdown", "err", err)
		os.Exit(1)
	}
}

func runCLI(ctx context.Context, cfg config.Config, cmd string) {
	switch cmd {
	case "version":
		fmt.Printf("zhrm %s\n", version)
	case "use":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: zhrm use <employee-id>")
			os.Exit(1)
		}
		cli.CmdUse(os.Args[2])
	case "whoami":
		cli.CmdWhoami()
	case "forget":
		cli.CmdForget()
	case "profile":
		cli.CmdProfile(ctx, cfg, os.Args[2:])
	case "avatar":
		if len(os.Args) < 3 {
			fmt.Fprintln(os.Stderr, "usage: zhrm avatar <image>")
			os.Exit(1)
		}
		cli.CmdAvatar(ctx, cfg, os.Args[2])
	case "demo":
		addr := cfg.DemoAddr
		if len(os.Args) > 2 {
			addr = os.Args[2]
		}
		cli.CmdDemo(ctx, addr, cfg.DemoOrigins, demoEmployees)
	default:
		fmt.Fprintf(os.Stderr, "zhrm: unknown command %q\n", cmd)
		os.Exit(1)
	}
}

func runTUI(cfg config.Config) error {
	dataDir := cli.DataDir()
	firstRun := cli.IsFirstRun(dataDir)

	// the terminal belongs to the TUI, so logs go to a file
	logPath := cfg.LogFile
	if logPath == "" {
		if err := os.MkdirAll(dataDir, 0o700); err != nil {
			return fmt.Errorf("create data dir: %w", err)
		}
		logPath = filepath.Join(dataDir, "zhrm.log")
	}
	f, err := tea.LogToFile(logPath, "zhrm")
	if err != nil {
		return fmt.Errorf("open log: %w", err)
	}
	defer f.Close()
	slog.SetDefault(slog.New(slog.NewTextHandler(f, nil)))

	m := tui.New(version, dataDir, cfg, firstRun)
	p := tea.NewProgram(m)
	finalModel, err := p.Run()
	if err != nil {
		return err
	}

	if fm, ok := finalModel.(tui.Model); ok {
		fm.Close()
	}

	return nil
}
