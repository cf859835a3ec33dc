package subcmd

import (
	"context"
	"os"

	"github.com/coreos/go-systemd/daemon"
	"github.com/juju/errors"
)

type Mod struct {
	Name string
	Main func(ctx context.Context, args ...[]string) error
}

func Parse(name string, modules []Mod) (Mod, error) {
	if name == "" {
		return Mod{}, errors.NotValidf("empty command")
	}
	for _, m := range modules {
		if m.Name == name {
			return m, nil
		}
	}
	return Mod{}, errors.NotFoundf("command=%s", name)
}

// SdNotify reports state to systemd, false when not running under it.
func SdNotify(s string) bool {
	ok, err := daemon.SdNotify(false, s)
	if err != nil {
		os.Stderr.WriteString("sdnotify: " + err.Error() + "\n")
	}
	return ok
}
