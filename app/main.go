package main

import (
	"errors"
	"fmt"
	"os"
	"os/signal"
	"runtime"
	"syscall"

	log "github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
)

// Options is the command line, one subcommand per mode.
type Options struct {
	Server  ServerCmd `command:"server" description:"run web server"`
	Show    ShowCmd   `command:"show" description:"show the theme preference of a visitor"`
	Toggle  ToggleCmd `command:"toggle" description:"toggle the theme preference of a visitor"`
	Version bool      `long:"version" description:"show version and exit"`
}

var revision = "unknown"

func main() {
	fmt.Printf("themer %s\n", revision)

	var opts Options
	p := flags.NewParser(&opts, flags.PassDoubleDash|flags.HelpFlag)
	p.SubcommandsOptional = true
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if errors.As(err, &flagsErr) && flagsErr.Type == flags.ErrHelp {
			p.WriteHelp(os.Stderr)
			os.Exit(2)
		}
		fmt.Printf("%v\n", err)
		os.Exit(1)
	}

	if opts.Version || p.Active == nil {
		os.Exit(0)
	}
}

func setupLogs(debug bool) {
	log.Setup(log.Msec)
	if debug {
		log.Setup(log.Debug, log.CallerFunc, log.CallerPkg, log.CallerFile)
	}
}

func signals(cancel func()) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			switch sig {
			case syscall.SIGQUIT:
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
			case syscall.SIGTERM, syscall.SIGINT:
				cancel()
			}
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
