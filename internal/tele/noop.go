package tele

import (
	"context"

	tele_config "github.com/keymx/keymx/internal/tele/config"
	"github.com/keymx/keymx/log2"
)

type Noop struct{}

var _ Teler = Noop{} // compile-time interface test

func (Noop) Init(context.Context, *log2.Log, tele_config.Config) error { return nil }

func (Noop) Close() {}

func (Noop) Error(error) {}

func (Noop) StatModify(func(*Stat)) {}

func (Noop) Report(context.Context) error { return nil }
