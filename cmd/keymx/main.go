package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/keymx/keymx/cmd/keymx/poll"
	"github.com/keymx/keymx/cmd/keymx/slave"
	"github.com/keymx/keymx/cmd/keymx/subcmd"
	"github.com/keymx/keymx/internal/state"
	"github.com/keymx/keymx/internal/tele"
	"github.com/keymx/keymx/log2"
)

var (
	log     = log2.NewStderr(log2.LDebug)
	modules = []subcmd.Mod{
		slave.Mod,
		poll.Mod,
		{Name: "version", Main: versionMain},
	}
)

var (
	BuildVersion  string = "unknown" // set by ldflags -X
	reFlagVersion        = regexp.MustCompile("-?-?version")
)

func main() {
	flagset := flag.NewFlagSet(os.Args[0], flag.ExitOnError)
	flagset.Usage = func() {
		fmt.Fprint(flagset.Output(), "Usage: [option...] command\n\nOptions:\n")
		flagset.PrintDefaults()
		commandNames := make([]string, len(modules))
		for i, m := range modules {
			commandNames[i] = m.Name
		}
		fmt.Fprintf(flagset.Output(), "Commands: %s\n", strings.Join(commandNames, " "))
	}
	configPath := flagset.String("config", "/etc/keymx/config.hcl", "")
	onlyVersion := flagset.Bool("version", false, "print build version and exit")
	if err := flagset.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
	versionMain(context.Background(), nil)
	if *onlyVersion || reFlagVersion.MatchString(flagset.Arg(0)) {
		return
	}

	mod, err := subcmd.Parse(flagset.Arg(0), modules)
	if err != nil {
		fmt.Fprintf(flagset.Output(), "command line error: %v\n\n", err)
		flagset.Usage()
		os.Exit(1)
	}
	if subcmd.SdNotify("start") {
		// systemd journal already stamps lines
		log.SetFlags(log2.LServiceFlags)
	} else {
		log.SetFlags(log2.LInteractiveFlags)
	}

	ctx, g := state.NewContext(log, tele.New())
	g.BuildVersion = BuildVersion
	if _, err := os.Stat(*configPath); os.IsNotExist(err) {
		log.Infof("config file=%s not found, using defaults", *configPath)
		config := &state.Config{}
		config.Normalize()
		g.Config = config
	} else {
		config, err := state.ReadConfig(log, *configPath)
		if err != nil {
			log.Fatal(err)
		}
		g.Config = config
	}
	log.Debugf("starting %s", flagset.Args())

	if err := mod.Main(ctx, flagset.Args()); err != nil {
		g.Log.Errorf("%v", err)
		os.Exit(1)
	}
}

func versionMain(ctx context.Context, _ ...[]string) error {
	fmt.Printf("keymx %s\n", BuildVersion)
	return nil
}
