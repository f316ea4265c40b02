package main

import (
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ManouchehrRasoulli/rfspoll/pkg"
	"github.com/ManouchehrRasoulli/rfspoll/pkg/filehandler"
	"github.com/ManouchehrRasoulli/rfspoll/pkg/logger"
)

func main() {
	var config string

	flag.StringVar(&config, "config", "config.yml", "specify configuration file for service.")
	flag.StringVar(&config, "c", "config.yml", "specify configuration file for service.")
	flag.Parse()

	lg := log.New(os.Stdout, "rfspoll --> ", 1|4)
	clg := logger.NewColorLogger(lg)
	clg.Printcf(logger.ColorGreen, "start rfspoll : with config file %v", config)

	cfg, err := pkg.ReadConfig(config)
	if err != nil {
		clg.Printcf(logger.ColorRed, "error rfspoll : got error %v on reading configuration file %s", err, config)
		os.Exit(1)
	}

	clg.Printcf(logger.ColorBlue, "config rfspoll : path: %s, backend: %s, tick: %v", cfg.Path, cfg.Backend, cfg.Tick)

	var index *filehandler.Handler
	if cfg.Index {
		index, err = filehandler.NewHandler(cfg.Path, lg)
		if err != nil {
			clg.Printcf(logger.ColorRed, "error rfspoll : got error %v on initiating file handler !", err)
			os.Exit(1)
		}
	}

	bridge, err := pkg.NewBridge(cfg, lg)
	if err != nil {
		clg.Printcf(logger.ColorRed, "error rfspoll : got error %v on creating bridge !", err)
		os.Exit(1)
	}

	if err := bridge.Watch(cfg.Path); err != nil {
		clg.Printcf(logger.ColorRed, "error rfspoll : got error %v on watch !", err)
		os.Exit(1)
	}

	handle := func(m pkg.Message) {
		if m.Action == "move" {
			clg.Printcf(logger.ActionColor(m.Action), "%-6s %s -> %s", m.Action, m.Old, m.File)
		} else {
			clg.Printcf(logger.ActionColor(m.Action), "%-6s %s", m.Action, m.File)
		}
		if index != nil {
			index.Apply(m)
		}
	}

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.Tick)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			bridge.Poll(handle)
		case s := <-sig:
			clg.Printcf(logger.ColorYellow, "stop rfspoll : got signal %v", s)
			if err := bridge.Unwatch(); err != nil {
				clg.Printcf(logger.ColorRed, "error rfspoll : got error %v on unwatch !", err)
			}
			bridge.Poll(handle)
			clg.Printc(logger.ColorYellow, "stop rfspoll : remaining events delivered")
			if index != nil {
				clg.Printcf(logger.ColorBlue, "index rfspoll : %d files under %s", index.Len(), cfg.Path)
			}
			return
		}
	}
}
