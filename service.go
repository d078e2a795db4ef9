package main

import (
	"fmt"
	"io"
	"time"

	"smartsummarizer/core"
	"smartsummarizer/shutdown"

	"github.com/kardianos/service"
	"github.com/spf13/cobra"
)

const serviceStopTimeout = 30 * time.Second

// program runs the web page under the system service manager. The service
// manager owns signals, so the shutdown manager is triggered from Stop.
type program struct {
	stderr io.Writer
	m      *shutdown.Manager
	done   chan int
}

func (p *program) Start(s service.Service) error {
	cfg, err := loadConfig()
	if err != nil {
		printConfigError(p.stderr, err)
		return err
	}
	logger, err := newLogger(cfg, nil)
	if err != nil {
		return err
	}

	p.m = shutdown.NewManager(logger)
	p.done = make(chan int, 1)
	go func() {
		p.done <- serve(p.m, cfg, logger)
	}()
	return nil
}

func (p *program) Stop(s service.Service) error {
	if p.m == nil {
		return nil
	}
	p.m.Trigger()
	select {
	case code := <-p.done:
		if code != core.ExitCodeSuccess {
			return fmt.Errorf("service exited with %s", core.ExitCodeName(code))
		}
		return nil
	case <-time.After(serviceStopTimeout):
		return fmt.Errorf("timeout waiting for service to stop")
	}
}

func serviceConfig() *service.Config {
	return &service.Config{
		Name:        "smartsummarizer",
		DisplayName: "Smart Summarizer",
		Description: "Serves the Smart Summarizer page for text and PDF summaries.",
		Arguments:   []string{"service", "run"},
		Option: service.KeyValue{
			"StartType": "automatic",
			"Restart":   "on-failure",
		},
	}
}

func newService(stderr io.Writer) (service.Service, error) {
	s, err := service.New(&program{stderr: stderr}, serviceConfig())
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	return s, nil
}

func serviceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "service",
		Short: "Install or control the page as a system service",
	}

	control := func(action, done string) *cobra.Command {
		return &cobra.Command{
			Use:   action,
			Short: action + " the system service",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				s, err := newService(cmd.ErrOrStderr())
				if err != nil {
					return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
				}
				if err := service.Control(s, action); err != nil {
					return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Service %s\n", done)
				return nil
			},
		}
	}

	uninstall := control("uninstall", "uninstalled")
	uninstall.Aliases = []string{"remove"}

	cmd.AddCommand(
		control("install", "installed"),
		uninstall,
		control("start", "started"),
		control("stop", "stopped"),
		control("restart", "restarted"),
		serviceStatusCmd(),
		serviceRunCmd(),
	)
	return cmd
}

func serviceStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the service status",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
			}
			status, err := s.Status()
			if err != nil {
				return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Service is %s\n", statusName(status))
			return nil
		},
	}
}

func serviceRunCmd() *cobra.Command {
	return &cobra.Command{
		Use:    "run",
		Short:  "Run under the service manager",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newService(cmd.ErrOrStderr())
			if err != nil {
				return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
			}
			if err := s.Run(); err != nil {
				return exitWith(core.ExitCodeError, reportError(cmd.ErrOrStderr(), err))
			}
			return nil
		},
	}
}

func statusName(status service.Status) string {
	switch status {
	case service.StatusRunning:
		return "running"
	case service.StatusStopped:
		return "stopped"
	default:
		return "in an unknown state"
	}
}

func reportError(w io.Writer, err error) error {
	fmt.Fprintf(w, "Error: %v\n", err)
	return err
}
