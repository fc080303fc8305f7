// Package device tracks connected input devices and arbitrates the single
// active device.
//
// # Architecture
//
//	platform handle ──▶ Classifier ──▶ Device (closed set)
//	                                        │
//	change kind ──────────────────────────▶ Registry
//	                                        │  connected (ordered set)
//	                                        │  active (sticky once resolved)
//	                                        ▼
//	                            PreferenceRepository (SQLite)
//
// # Active device resolution
//
// The active device is resolved only while it is None. Resolution picks the
// remembered user preference if connected, then the configured default if
// connected, then the first connected device. Once a real device is active
// it stays active until Switch is called, even if that device disconnects.
//
// # Usage
//
//	reg := device.NewRegistry(device.NewClassifier(), device.MouseKeyboard)
//	reg.SetLogger(log)
//	reg.SetPreferred(pref)
//
//	change, err := reg.HandleChange(handle, device.ChangeAdded)
//	if errors.Is(err, device.ErrInvalidPlatformState) {
//	    // unhandled platform contract case
//	}
package device
