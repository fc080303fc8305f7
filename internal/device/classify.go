package device

import (
	"strings"
	"sync"
)

// defaultVariants maps platform device class tags to devices.
var defaultVariants = map[string]Device{
	"keyboard":            MouseKeyboard,
	"mouse":               MouseKeyboard,
	"pointer":             MouseKeyboard,
	"gamepad":             Gamepad,
	"xinputcontroller":    Gamepad,
	"dualshockgamepad":    Gamepad,
	"dualsensegamepad":    Gamepad,
	"switchprocontroller": Gamepad,
	"joystick":            Joystick,
	"touchscreen":         Touch,
	"pen":                 Touch,
}

// Classifier maps opaque platform handles to the closed device set using a
// table of class tags. New platform classes are supported by registering a
// variant rather than adding type checks.
//
// All methods are safe for concurrent use.
type Classifier struct {
	mu       sync.RWMutex
	variants map[string]Device
}

// NewClassifier returns a classifier seeded with the built-in variants.
func NewClassifier() *Classifier {
	c := &Classifier{variants: make(map[string]Device, len(defaultVariants))}
	for class, d := range defaultVariants {
		c.variants[class] = d
	}
	return c
}

// Register adds or replaces the device for a class tag. Class tags are
// matched case-insensitively.
func (c *Classifier) Register(class string, d Device) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.variants[normaliseClass(class)] = d
}

// Classify returns the device for a handle, or None for unknown classes.
func (c *Classifier) Classify(h Handle) Device {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.variants[normaliseClass(h.Class)]
}

func normaliseClass(class string) string {
	return strings.ToLower(strings.TrimSpace(class))
}
