// Package mqtt publishes itemstore change notifications over MQTT.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Publishing with QoS validation and a 1MB payload cap
//   - Last Will and Testament for offline detection
//   - Item change events on itemstore/item/{created,updated,deleted}
//
// Event payload:
//
//	{"event_id":"<uuid>","action":"created","item_id":1,"timestamp":"2026-03-01T09:00:00Z"}
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.PublishItemChange(ctx, mqtt.ActionCreated, id, time.Now())
//
// # Security Considerations
//
//   - Enable TLS (cfg.Broker.TLS) for brokers outside localhost
//   - Payloads carry item ids only, never item contents
package mqtt
