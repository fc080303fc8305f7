package notify

import (
	"strconv"

	"github.com/nerrad567/gray-logic-input/internal/device"
	"github.com/nerrad567/gray-logic-input/internal/input"
)

// Measurement names written by the InfluxDB sink.
const (
	MeasurementDevices        = "input_devices"
	MeasurementDeviceStatus   = "input_device_status"
	MeasurementBindingChanges = "input_binding_override"
	MeasurementReady          = "input_ready"
)

// PointWriter buffers time-series points. *influxdb.Client satisfies it.
type PointWriter interface {
	WritePoint(measurement string, tags map[string]string, fields map[string]any)
}

// Influx records handler notifications as InfluxDB points.
type Influx struct {
	w    PointWriter
	site string
}

var _ input.Notifier = (*Influx)(nil)

// NewInflux returns a sink tagging every point with site.
func NewInflux(w PointWriter, site string) *Influx {
	return &Influx{w: w, site: site}
}

func (i *Influx) tags(kv ...string) map[string]string {
	tags := map[string]string{"site": i.site}
	for j := 0; j+1 < len(kv); j += 2 {
		tags[kv[j]] = kv[j+1]
	}
	return tags
}

// DevicesUpdated implements input.Notifier.
func (i *Influx) DevicesUpdated(devices []device.Device, active device.Device) {
	i.w.WritePoint(MeasurementDevices,
		i.tags("active", active.String()),
		map[string]any{"connected": len(devices)})
}

// DeviceStatusChanged implements input.Notifier.
func (i *Influx) DeviceStatusChanged(d device.Device, kind device.ChangeKind) {
	i.w.WritePoint(MeasurementDeviceStatus,
		i.tags("device", d.String(), "kind", string(kind)),
		map[string]any{"count": 1})
}

// BindingOverridden implements input.Notifier.
func (i *Influx) BindingOverridden(ev input.BindingEvent) {
	i.w.WritePoint(MeasurementBindingChanges,
		i.tags("map", ev.Map, "action", ev.Action, "index", strconv.Itoa(ev.Index), "source", ev.Source),
		map[string]any{"bind": ev.Bind, "reset": ev.Reset})
}

// InputsReady implements input.Notifier.
func (i *Influx) InputsReady() {
	i.w.WritePoint(MeasurementReady, i.tags(), map[string]any{"ready": true})
}
