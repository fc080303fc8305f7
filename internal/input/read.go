package input

import (
	"fmt"
	"strconv"
	"sync"

	"github.com/nerrad567/gray-logic-input/internal/binding"
)

// lookup resolves an action on the live model. It returns nil before the
// model is built or when the action does not exist.
func (h *Handler) lookup(action, mapName string) *binding.ActionBinding {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if h.schemes == nil {
		return nil
	}
	a, err := h.schemes.Find(action, mapName)
	if err != nil {
		return nil
	}
	return a
}

// ReadTyped returns the current value of an action coerced to T. It
// returns T's zero value before Ready, for a missing action, when the
// platform has no value, or when the value cannot be converted.
func ReadTyped[T any](h *Handler, action, mapName string) T {
	var zero T
	if !h.IsReady() {
		return zero
	}
	a := h.lookup(action, mapName)
	if a == nil {
		return zero
	}
	v, ok := h.platform.Value(a.Map, a.Name)
	if !ok {
		return zero
	}
	out, ok := coerce[T](v)
	if !ok {
		h.logger.Debug("action value not convertible",
			"action", a.Name, "map", a.Map, "value_type", fmt.Sprintf("%T", v), "want", fmt.Sprintf("%T", zero))
		return zero
	}
	return out
}

// ReadButton returns the pressed state of a button action. A missing
// action, or any read before Ready, reports not pressed. Reading an action
// whose declared kind is not a button returns ErrUnsupportedOperation.
func (h *Handler) ReadButton(action, mapName string) (bool, error) {
	_, pressed, err := h.readButton(action, mapName)
	return pressed, err
}

func (h *Handler) readButton(action, mapName string) (*binding.ActionBinding, bool, error) {
	if !h.IsReady() {
		return nil, false, nil
	}
	a := h.lookup(action, mapName)
	if a == nil {
		return nil, false, nil
	}
	if !a.IsButton() {
		return a, false, fmt.Errorf("%w: action %q in map %q is a %s action", ErrUnsupportedOperation, a.Name, a.Map, a.Kind)
	}
	return a, h.platform.Pressed(a.Map, a.Name), nil
}

// ReadButtonOnce reports true only on the not-pressed to pressed
// transition of an action for one owner. It returns false while the button
// is held and re-arms when it is released.
func (h *Handler) ReadButtonOnce(owner, action, mapName string) (bool, error) {
	a, pressed, err := h.readButton(action, mapName)
	if err != nil || a == nil {
		return false, err
	}
	return h.memory.edge(owner, a.Map+binding.Separator+a.Name, pressed), nil
}

// ForgetOwner drops all edge memory of an owner.
func (h *Handler) ForgetOwner(owner string) {
	h.memory.forget(owner)
}

type memoryKey struct {
	owner  string
	action string
}

// buttonMemory records the (owner, action) pairs whose press has already
// been reported.
type buttonMemory struct {
	mu   sync.Mutex
	held map[memoryKey]struct{}
}

func newButtonMemory() *buttonMemory {
	return &buttonMemory{held: make(map[memoryKey]struct{})}
}

func (m *buttonMemory) edge(owner, action string, pressed bool) bool {
	key := memoryKey{owner: owner, action: action}

	m.mu.Lock()
	defer m.mu.Unlock()

	if !pressed {
		delete(m.held, key)
		return false
	}
	if _, consumed := m.held[key]; consumed {
		return false
	}
	m.held[key] = struct{}{}
	return true
}

func (m *buttonMemory) forget(owner string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for k := range m.held {
		if k.owner == owner {
			delete(m.held, k)
		}
	}
}

func (m *buttonMemory) len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.held)
}

// coerce converts a platform value to T. Numeric kinds convert between
// each other; bools map to 0/1 and back.
func coerce[T any](v any) (T, bool) {
	var out T
	if t, ok := v.(T); ok {
		return t, true
	}

	switch p := any(&out).(type) {
	case *float64:
		f, ok := asFloat(v)
		*p = f
		return out, ok
	case *float32:
		f, ok := asFloat(v)
		*p = float32(f)
		return out, ok
	case *int:
		f, ok := asFloat(v)
		*p = int(f)
		return out, ok
	case *int32:
		f, ok := asFloat(v)
		*p = int32(f)
		return out, ok
	case *int64:
		f, ok := asFloat(v)
		*p = int64(f)
		return out, ok
	case *bool:
		f, ok := asFloat(v)
		*p = f != 0
		return out, ok
	case *string:
		*p = fmt.Sprint(v)
		return out, true
	}
	return out, false
}

func asFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	}
	return 0, false
}
