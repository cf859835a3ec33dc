// Firmware mode: scan the matrix, buffer key events, answer bus polls.
package slave

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
	"github.com/keymx/keymx/cmd/keymx/subcmd"
	"github.com/keymx/keymx/hardware/bus"
	"github.com/keymx/keymx/internal/state"
)

const statPeriod = 30 * time.Second

var Mod = subcmd.Mod{Name: "slave", Main: Main}

func Main(ctx context.Context, args ...[]string) error {
	g := state.GetGlobal(ctx)
	g.MustInit(ctx, g.Config)

	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigs
		g.Log.Infof("system signal - %v", sig)
		g.Stop()
	}()

	socketPath := g.Config.Bus.Socket
	if socketPath == "" {
		return errors.NotValidf("slave needs bus socket in config")
	}
	slave := bus.NewSocketSlave(g.Log)
	if err := slave.Open(socketPath); err != nil {
		return errors.Annotate(err, "bus slave open")
	}
	defer slave.Close()
	slave.OnRequest(g.Hardware.Responder.OnRequest)

	g.Hardware.Keyboard.Start()
	subcmd.SdNotify(daemon.SdNotifyReady)
	g.Log.Debugf("slave init complete socket=%s", socketPath)

	g.Alive.Add(1)
	go func() {
		defer g.Alive.Done()
		tick := time.NewTicker(statPeriod)
		defer tick.Stop()
		for {
			select {
			case <-tick.C:
				if err := g.ReportStat(ctx); err != nil {
					g.Log.Debugf("stat report err=%v", err)
				}
			case <-g.Alive.StopChan():
				return
			}
		}
	}()

	g.Alive.Wait()
	return nil
}
