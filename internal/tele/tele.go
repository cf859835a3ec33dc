// Package tele ships keyboard diagnostics to a remote broker. It has
// no behavioral effect on scanning or polling, a broken broker only
// loses reports.
package tele

import (
	"context"
	"sync"

	tele_config "github.com/keymx/keymx/internal/tele/config"
	"github.com/keymx/keymx/log2"
)

// Stat is the diagnostic counter set published by Report.
type Stat struct {
	KeyTransitions uint32
	QueueOverflow  uint32
	QueueStale     uint32
	Polls          uint32
	ScanErrors     uint32
}

type Teler interface {
	Init(context.Context, *log2.Log, tele_config.Config) error
	Close()
	Error(error)
	StatModify(func(*Stat))
	Report(context.Context) error
}

func New() Teler { return &tele{} }

type tele struct {
	transport transportMqtt
	log       *log2.Log
	statMu    sync.Mutex
	stat      Stat
}

func (t *tele) Init(ctx context.Context, log *log2.Log, cfg tele_config.Config) error {
	t.log = log
	return t.transport.Init(log, cfg)
}

func (t *tele) Close() { t.transport.Close() }

func (t *tele) Error(e error) {
	if e == nil {
		return
	}
	t.transport.SendError([]byte(e.Error()))
}

func (t *tele) StatModify(fun func(*Stat)) {
	t.statMu.Lock()
	fun(&t.stat)
	t.statMu.Unlock()
}

func (t *tele) Report(ctx context.Context) error {
	t.statMu.Lock()
	s := t.stat
	t.statMu.Unlock()
	return t.transport.SendStat(s)
}
