// Package influxdb provides InfluxDB connectivity for the input core.
//
// It wraps influxdb-client-go v2 for connection management, batched point
// writes and health checks. The core records device status changes and
// binding overrides as time series so rebinding activity can be charted
// next to the rest of the site's telemetry.
//
// # Usage
//
//	client, err := influxdb.Connect(ctx, cfg.InfluxDB)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer client.Close()
//
//	client.WritePoint("input_binding_override",
//	    map[string]string{"map": "Player", "action": "Jump"},
//	    map[string]any{"index": 0, "bind": "Keyboard.Space"})
//
// Writes never block; batch errors are delivered to the SetOnError callback.
package influxdb
