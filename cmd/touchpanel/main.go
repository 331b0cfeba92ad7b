package main

import (
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/mattn/go-isatty"
	"github.com/temoto/touchpanel/log2"
	"github.com/temoto/touchpanel/state"
)

const stopTimeout = 5 * time.Second

var log = log2.NewStderr(log2.LInfo)

func main() {
	flagConfig := flag.String("config", "touchpanel.hcl", "")
	flagDebug := flag.Bool("debug", false, "debug logging")
	flag.Parse()

	if sdnotify("start") {
		// we're under systemd, assume systemd journal logging, remove timestamp
		log.SetFlags(log2.LServiceFlags)
	} else if isatty.IsTerminal(os.Stderr.Fd()) {
		log.SetFlags(log2.LInteractiveFlags)
	} else {
		log.SetFlags(log2.LStdFlags)
	}
	if *flagDebug {
		log.SetLevel(log2.LDebug)
	}
	log.Infof("touchpanel start config=%s", *flagConfig)

	config := state.MustReadConfig(log, state.NewOsFullReader(), *flagConfig)
	g := state.NewGlobal(log)
	g.MustInit(config)
	g.Start()
	sdnotify(daemon.SdNotifyReady)
	log.Infof("touchpanel running")

	signalCh := make(chan os.Signal, 1)
	signal.Notify(signalCh, syscall.SIGINT, syscall.SIGTERM)
	select {
	case s := <-signalCh:
		log.Infof("touchpanel signal=%v", s)
	case <-g.Alive.StopChan():
	}
	sdnotify(daemon.SdNotifyStopping)
	if err := g.Stop(stopTimeout); err != nil {
		g.Error(err, "touchpanel stop")
		os.Exit(1)
	}
	log.Infof("touchpanel stop %s", g.Panel.Stat().String())
}

func sdnotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		log.Fatal("sdnotify: ", errors.ErrorStack(err))
	}
	return ok
}
