package tele

import (
	"fmt"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/juju/errors"
	"github.com/keymx/keymx/helpers"
	tele_config "github.com/keymx/keymx/internal/tele/config"
	"github.com/keymx/keymx/log2"
)

const defaultKeepalive = 60
const defaultPingTimeout = 30

type transportMqtt struct {
	enabled bool
	log     *log2.Log
	m       mqtt.Client

	topicConnect string
	topicStat    string
	topicError   string
}

func (tm *transportMqtt) Init(log *log2.Log, cfg tele_config.Config) error {
	if !cfg.Enabled {
		return nil
	}
	tm.enabled = true
	tm.log = log
	mqtt.ERROR = log
	mqtt.CRITICAL = log
	mqtt.WARN = log
	if cfg.MqttLogDebug {
		mqtt.DEBUG = log
	}

	clientId := fmt.Sprintf("kb%d", cfg.DeviceId)
	tm.topicConnect = fmt.Sprintf("%s/c", clientId)
	tm.topicStat = fmt.Sprintf("%s/w/stat", clientId)
	tm.topicError = fmt.Sprintf("%s/w/error", clientId)

	keepAlive := helpers.IntSecondDefault(cfg.KeepaliveSec, defaultKeepalive)
	pingTimeout := helpers.IntSecondDefault(cfg.PingTimeoutSec, defaultPingTimeout)
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.MqttBroker).
		SetClientID(clientId).
		SetUsername(clientId).
		SetPassword(cfg.MqttPassword).
		SetKeepAlive(keepAlive).
		SetPingTimeout(pingTimeout).
		SetAutoReconnect(true).
		SetBinaryWill(tm.topicConnect, []byte{0}, 1, true).
		SetOnConnectHandler(func(c mqtt.Client) {
			c.Publish(tm.topicConnect, 1, true, []byte{1})
		})
	tm.m = mqtt.NewClient(opts)
	t := tm.m.Connect()
	if t.Wait() && t.Error() != nil {
		return errors.Annotatef(t.Error(), "tele connect broker=%s", cfg.MqttBroker)
	}
	return nil
}

func (tm *transportMqtt) Close() {
	if !tm.enabled {
		return
	}
	tm.m.Publish(tm.topicConnect, 1, true, []byte{0})
	tm.m.Disconnect(250)
}

func (tm *transportMqtt) SendError(payload []byte) {
	if !tm.enabled {
		return
	}
	tm.m.Publish(tm.topicError, 1, false, payload)
}

func (tm *transportMqtt) SendStat(s Stat) error {
	if !tm.enabled {
		return nil
	}
	payload := fmt.Sprintf("transitions=%d overflow=%d stale=%d polls=%d scan_errors=%d",
		s.KeyTransitions, s.QueueOverflow, s.QueueStale, s.Polls, s.ScanErrors)
	t := tm.m.Publish(tm.topicStat, 0, false, payload)
	if t.Wait() && t.Error() != nil {
		return errors.Annotate(t.Error(), "tele stat publish")
	}
	return nil
}
