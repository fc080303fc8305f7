// Package mqtt provides MQTT client connectivity for the input core.
//
// This package manages:
//   - Connection to the broker with auto-reconnect
//   - Message publishing with QoS guarantees
//   - Topic subscriptions, restored after a reconnect
//   - Last Will and Testament (LWT) for offline detection
//
// The broker links the core to the input bridge that owns the physical
// devices, and carries the core's notifications to other consumers:
//
//	input bridge ↔ MQTT broker ↔ input core
//
// # Usage
//
//	client, err := mqtt.Connect(cfg.MQTT)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	err = client.Subscribe(mqtt.Topics{}.AllBridgeActions(), 1,
//	    func(topic string, payload []byte) error {
//	        return nil
//	    })
//
//	client.PublishJSON(mqtt.Topics{}.CoreReady(), map[string]bool{"ready": true}, true)
package mqtt
