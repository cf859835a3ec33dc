// Telemetry client config.
// Separate package is workaround to import cycles.
package tele_config

type Config struct { //nolint:maligned
	Enabled        bool   `hcl:"enable,optional"`
	DeviceId       int    `hcl:"device_id,optional"`
	KeepaliveSec   int    `hcl:"keepalive_sec,optional"`
	PingTimeoutSec int    `hcl:"ping_timeout_sec,optional"`
	MqttBroker     string `hcl:"mqtt_broker,optional"`
	MqttLogDebug   bool   `hcl:"mqtt_log_debug,optional"`
	MqttPassword   string `hcl:"mqtt_password,optional"` // secret
}
