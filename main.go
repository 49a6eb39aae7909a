package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/godbus/dbus/v5"
	"github.com/joho/godotenv"
	vfs "github.com/twpayne/go-vfs/v4"
	"github.com/urfave/cli/v2"

	"github.com/diskenc-io/agent/bus"
	"github.com/diskenc-io/agent/config"
	"github.com/diskenc-io/agent/credentials"
	"github.com/diskenc-io/agent/dialogs"
	"github.com/diskenc-io/agent/events"
	"github.com/diskenc-io/agent/registry"
	"github.com/diskenc-io/agent/types"
)

func main() {
	app := &cli.App{
		Name:  "diskenc-agent",
		Usage: "session agent for the disk encryption daemon",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "config",
				Value: config.DefaultPath,
				Usage: "path to the agent configuration file",
			},
			&cli.StringFlag{
				Name:  "log-level",
				Value: "",
				Usage: "override the configured log level",
			},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		fmt.Println("Error:", err)
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load(vfs.OSFS, c.String("config"))
	if err != nil {
		return err
	}
	if lv := c.String("log-level"); lv != "" {
		cfg.LogLevel = lv
	}
	log := types.NewAgentLogger("diskenc-agent", cfg.LogLevel, false)

	ui := dialogs.NewTerminal(log)
	resolver := credentials.NewLUKSResolver(log)
	deriver := credentials.ChainDeriver{
		credentials.NewDiscoveryDeriver(log, cfg.DiscoveryPaths...),
		&credentials.NVDeriver{NVIndex: cfg.TPM.NVIndex, CIndex: cfg.TPM.CIndex, Device: cfg.TPM.Device},
	}
	flow := credentials.NewFlow(ui, resolver, deriver, log)
	reg := registry.New(ui, log)

	// The session-manager proxy needs the bus connection, which exists only
	// after Connect; reach it through the closure.
	var session *bus.SessionManager
	handler := events.New(ui, reg, flow, events.RebootFunc(func() error {
		if session == nil {
			return errors.New("session manager unavailable")
		}
		return session.RequestReboot()
	}), log)

	manager := bus.NewManager(handler, handler, log,
		bus.WithDaemonEndpoint(cfg.Daemon.BusName, dbus.ObjectPath(cfg.Daemon.ObjectPath), cfg.Daemon.Interface),
		bus.WithAgentEndpoint(cfg.Agent.BusName, dbus.ObjectPath(cfg.Agent.ObjectPath), cfg.Agent.Interface),
		bus.WithDeviceNamer(resolver),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := manager.Connect(ctx); err != nil {
		return err
	}
	defer manager.Close()

	session = bus.NewSessionManager(manager.Conn(),
		cfg.Session.BusName, dbus.ObjectPath(cfg.Session.ObjectPath), cfg.Session.Interface, log)

	if err := manager.Register(); err != nil {
		return err
	}

	go handler.Run(ctx)

	log.Logger.Info().Msg("Disk encryption agent ready")
	if err := manager.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}
