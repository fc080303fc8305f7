package override

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nerrad567/gray-logic-input/internal/binding"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the override file used when none is configured.
const DefaultPath = "overrides.yaml"

// Logger defines the logging interface used by the Store and Watcher.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Record is one persisted override, keyed to a part by (Map, Action, Index).
type Record struct {
	Action string `json:"action"`
	Map    string `json:"map"`
	Index  int    `json:"index"`
	Bind   string `json:"bind"`
}

// Unbind reports whether the record is an explicit unbind.
func (r Record) Unbind() bool {
	return r.Bind == binding.NullBinding
}

// file mirrors the on-disk YAML tree.
type file struct {
	Actions []actionNode `yaml:"actions"`
}

type actionNode struct {
	Name     string        `yaml:"name"`
	Map      string        `yaml:"map"`
	Bindings []bindingNode `yaml:"bindings"`
}

type bindingNode struct {
	Index rawIndex `yaml:"index"`
	// Bind is nil when the file carries a bare YAML null.
	Bind *string `yaml:"bind"`
}

// rawIndex keeps the index text so a malformed value fails only its own
// record instead of the whole document.
type rawIndex string

func (r *rawIndex) UnmarshalYAML(node *yaml.Node) error {
	*r = rawIndex(node.Value)
	return nil
}

func (r rawIndex) MarshalYAML() (any, error) {
	if n, err := strconv.Atoi(string(r)); err == nil {
		return n, nil
	}
	return string(r), nil
}

// Store reads and writes the override file.
type Store struct {
	path   string
	logger Logger
}

// NewStore creates a store for the given file. An empty path selects
// DefaultPath.
func NewStore(path string) *Store {
	if path == "" {
		path = DefaultPath
	}
	return &Store{path: path, logger: noopLogger{}}
}

// SetLogger sets the logger for the store.
func (s *Store) SetLogger(logger Logger) {
	s.logger = logger
}

// Path returns the override file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads every record from the override file.
//
// A missing file returns no records and no error. Records that cannot be
// parsed are skipped and reported without failing the rest of the file.
//
// Returns:
//   - []Record: The valid records, in file order
//   - []error: One *RecordError wrapping ErrConfiguration per rejected record
//   - error: Non-nil only when the file cannot be read or is not valid YAML
func (s *Store) Load() ([]Record, []error, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		s.logger.Debug("override file not found, no overrides", "path", s.path)
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("reading override file: %w", err)
	}

	var f file
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, nil, fmt.Errorf("%w: parsing %s: %w", ErrConfiguration, s.path, err)
	}

	var (
		records []Record
		errs    []error
	)
	for _, a := range f.Actions {
		for _, b := range a.Bindings {
			rec, err := parseRecord(a, b)
			if err != nil {
				s.logger.Warn("skipping malformed override",
					"action", a.Name, "map", a.Map, "index", string(b.Index), "error", err)
				errs = append(errs, err)
				continue
			}
			records = append(records, rec)
		}
	}
	return records, errs, nil
}

// ValidateBind checks a dotted bind path such as "Keyboard.Space". The
// NullBinding sentinel is valid. Segments must be non-empty and must not
// contain the characters of the internal path syntax.
func ValidateBind(bind string) error {
	if bind == "" {
		return fmt.Errorf("%w: empty bind path", ErrConfiguration)
	}
	if bind == binding.NullBinding {
		return nil
	}
	if strings.ContainsAny(bind, "<>"+binding.Separator) {
		return fmt.Errorf("%w: bind path %q must be dotted", ErrConfiguration, bind)
	}
	for _, seg := range strings.Split(bind, binding.DottedSeparator) {
		if strings.TrimSpace(seg) == "" {
			return fmt.Errorf("%w: bind path %q has an empty segment", ErrConfiguration, bind)
		}
	}
	return nil
}

func parseRecord(a actionNode, b bindingNode) (Record, error) {
	reject := func(err error) (Record, error) {
		return Record{}, &RecordError{Action: a.Name, Map: a.Map, Index: string(b.Index), Err: err}
	}
	fail := func(format string, args ...any) (Record, error) {
		return reject(fmt.Errorf("%w: "+format, append([]any{ErrConfiguration}, args...)...))
	}

	if strings.TrimSpace(a.Name) == "" {
		return fail("action name is required")
	}
	idx, err := strconv.Atoi(strings.TrimSpace(string(b.Index)))
	if err != nil || idx < 0 {
		return fail("invalid binding index %q", string(b.Index))
	}

	bind := binding.NullBinding
	if b.Bind != nil {
		bind = strings.TrimSpace(*b.Bind)
	}
	if err := ValidateBind(bind); err != nil {
		return reject(err)
	}

	return Record{Action: a.Name, Map: a.Map, Index: idx, Bind: bind}, nil
}

// Save replaces the override file with the given records. The file is
// written to a temporary sibling and renamed into place.
func (s *Store) Save(records []Record) error {
	var f file
	pos := make(map[[2]string]int)
	for _, r := range records {
		key := [2]string{r.Map, r.Action}
		i, ok := pos[key]
		if !ok {
			i = len(f.Actions)
			pos[key] = i
			f.Actions = append(f.Actions, actionNode{Name: r.Action, Map: r.Map})
		}
		bind := r.Bind
		f.Actions[i].Bindings = append(f.Actions[i].Bindings, bindingNode{
			Index: rawIndex(strconv.Itoa(r.Index)),
			Bind:  &bind,
		})
	}

	data, err := yaml.Marshal(&f)
	if err != nil {
		return fmt.Errorf("encoding overrides: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("creating override directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, ".overrides-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) //nolint:errcheck // gone after a successful rename

	if _, err := tmp.Write(data); err != nil {
		tmp.Close() //nolint:errcheck // write error takes precedence
		return fmt.Errorf("writing overrides: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		return fmt.Errorf("replacing override file: %w", err)
	}

	s.logger.Info("overrides saved", "path", s.path, "count", len(records))
	return nil
}
