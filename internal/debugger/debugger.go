package debugger

import (
	"bytes"
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/danmuck/storedbg/internal/observability"
	"github.com/danmuck/storedbg/internal/protocol"
	"github.com/danmuck/storedbg/internal/store"
	"github.com/danmuck/storedbg/internal/variant"
)

const (
	// Version is the protocol version reported by the v command.
	Version = 2
	// MaxAliases bounds the alias table.
	MaxAliases = 32
)

// Command characters.
const (
	CmdCapabilities   = '?'
	CmdRead           = 'r'
	CmdWrite          = 'w'
	CmdEcho           = 'e'
	CmdList           = 'l'
	CmdIdentification = 'i'
	CmdVersion        = 'v'
	CmdAlias          = 'a'

	Ack  = '!'
	Nack = '?'
)

// Capabilities is the response to the capabilities command.
var Capabilities = string([]byte{
	CmdCapabilities, CmdRead, CmdWrite, CmdEcho, CmdList, CmdIdentification, CmdVersion, CmdAlias,
})

var (
	ErrStoreExists = errors.New("debugger: store already mapped")
	ErrInvalidName = errors.New("debugger: invalid store name")
)

// Debugger maps stores under names like "/Store" and serves the debugger
// protocol, one request per decoded frame. It is a protocol.Layer meant to
// sit at the top of a stack. It does no locking; callers serialize a full
// decode and respond cycle.
type Debugger struct {
	protocol.Base

	stores  map[string]DebugStore
	aliases map[byte]string

	identification string
	appVersion     string

	log zerolog.Logger
}

func New() *Debugger {
	return &Debugger{
		stores:  make(map[string]DebugStore),
		aliases: make(map[byte]string),
		log:     observability.Component("debugger"),
	}
}

// SetIdentification sets the i response. Empty disables the command.
func (d *Debugger) SetIdentification(id string) { d.identification = id }

func (d *Debugger) Identification() string { return d.identification }

// SetVersions sets the application version appended to the v response.
func (d *Debugger) SetVersions(app string) { d.appVersion = app }

// Map adds s under name, or under s.Name() when name is empty.
func (d *Debugger) Map(s DebugStore, name string) error {
	if name == "" {
		name = s.Name()
	}
	if err := store.ValidateStoreName(name); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	if _, ok := d.stores[name]; ok {
		return fmt.Errorf("%w: %s", ErrStoreExists, name)
	}
	d.stores[name] = s
	d.log.Debug().Str("store", name).Msg("debugger: mapped")
	return nil
}

// MapStore is Map for a concrete store under its own name.
func (d *Debugger) MapStore(s *store.Store) error {
	return d.Map(Adapt(s), "")
}

// Unmap removes the store mapped under name, and every alias into it.
func (d *Debugger) Unmap(name string) {
	if _, ok := d.stores[name]; !ok {
		return
	}
	delete(d.stores, name)
	for c, path := range d.aliases {
		if strings.HasPrefix(path, name+"/") {
			delete(d.aliases, c)
		}
	}
	d.log.Debug().Str("store", name).Msg("debugger: unmapped")
}

// Stores returns the mapped names in lexicographic order.
func (d *Debugger) Stores() []string {
	names := make([]string, 0, len(d.stores))
	for name := range d.stores {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

// Find resolves "/Store/path". An unknown store or object yields an
// invalid variant.
func (d *Debugger) Find(full string) variant.DebugVariant {
	if len(full) < 2 || full[0] != '/' {
		return variant.DebugVariant{}
	}
	i := strings.IndexByte(full[1:], '/')
	if i < 0 {
		return variant.DebugVariant{}
	}
	s, ok := d.stores[full[:i+1]]
	if !ok {
		return variant.DebugVariant{}
	}
	return s.Find(full[i+1:])
}

// List visits every object of every store, stores in name order.
func (d *Debugger) List(fn func(name string, v variant.DebugVariant)) {
	for _, name := range d.Stores() {
		d.stores[name].List(func(path string, v variant.DebugVariant) {
			fn(name+path, v)
		})
	}
}

// Decode treats every decoded frame as one request.
func (d *Debugger) Decode(frame []byte) {
	d.ProcessApplication(frame)
}

// ProcessApplication handles one request and sends the response down.
func (d *Debugger) ProcessApplication(frame []byte) {
	var cmd byte
	if len(frame) > 0 {
		cmd = frame[0]
	}
	resp, err := d.process(frame)
	observability.RecordCommand(cmd, err == nil)
	if err != nil {
		d.log.Debug().Err(err).Str("request", protocol.StringLiteral(frame, "")).Msg("debugger: request failed")
		resp = []byte{Nack}
	}
	d.RespondApplication(resp)
}

// RespondApplication sends one complete response frame.
func (d *Debugger) RespondApplication(resp []byte) {
	if d.Down() == nil {
		d.log.Warn().Int("bytes", len(resp)).Msg("debugger: no layer to respond through")
		return
	}
	d.Encode(resp, true)
}

var errUnknownCommand = errors.New("debugger: unknown command")

func (d *Debugger) process(frame []byte) ([]byte, error) {
	if len(frame) == 0 {
		return nil, fmt.Errorf("%w: empty frame", errUnknownCommand)
	}
	arg := frame[1:]
	switch frame[0] {
	case CmdCapabilities:
		return []byte(Capabilities), nil
	case CmdRead:
		return d.read(arg)
	case CmdWrite:
		return d.write(arg)
	case CmdEcho:
		return slices.Clone(arg), nil
	case CmdList:
		return d.list()
	case CmdIdentification:
		if d.identification == "" {
			return nil, errors.New("debugger: no identification")
		}
		return []byte(d.identification), nil
	case CmdVersion:
		v := strconv.Itoa(Version)
		if d.appVersion != "" {
			v += " " + d.appVersion
		}
		return []byte(v), nil
	case CmdAlias:
		return d.alias(arg)
	}
	return nil, fmt.Errorf("%w: %q", errUnknownCommand, frame[0])
}

// resolve looks up a path, or an alias when path is a single character.
func (d *Debugger) resolve(path []byte) (variant.DebugVariant, error) {
	if len(path) == 1 {
		if full, ok := d.aliases[path[0]]; ok {
			path = []byte(full)
		}
	}
	v := d.Find(string(path))
	if !v.Valid() {
		return v, fmt.Errorf("debugger: %q not found", path)
	}
	return v, nil
}

func (d *Debugger) read(path []byte) ([]byte, error) {
	v, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	buf := make([]byte, v.Size())
	n, err := v.Get(buf)
	if err != nil {
		return nil, err
	}
	if !v.Type().Data().IsFixed() {
		buf = buf[:n]
	}
	return encodeValue(v.Type(), buf), nil
}

func (d *Debugger) write(arg []byte) ([]byte, error) {
	var h, path []byte
	if i := bytes.IndexByte(arg, '/'); i >= 0 {
		h, path = arg[:i], arg[i:]
	} else if len(arg) >= 2 {
		h, path = arg[:len(arg)-1], arg[len(arg)-1:]
	} else {
		return nil, fmt.Errorf("%w: write without target", ErrBadValue)
	}

	v, err := d.resolve(path)
	if err != nil {
		return nil, err
	}
	b, err := decodeValue(v.Type(), v.Size(), h)
	if err != nil {
		return nil, err
	}
	if _, err := v.Set(b); err != nil {
		return nil, err
	}
	return []byte{Ack}, nil
}

func (d *Debugger) list() ([]byte, error) {
	var out []byte
	d.List(func(name string, v variant.DebugVariant) {
		out = fmt.Appendf(out, "%02x%x%s\n", uint8(v.Type()), v.Size(), name)
	})
	if len(out) == 0 {
		return nil, errors.New("debugger: nothing to list")
	}
	return out, nil
}

func (d *Debugger) alias(arg []byte) ([]byte, error) {
	if len(arg) == 0 {
		return nil, errors.New("debugger: alias without name")
	}
	c := arg[0]
	if c < 0x20 || c > 0x7e || c == '/' {
		return nil, fmt.Errorf("debugger: invalid alias %q", c)
	}
	path := string(arg[1:])
	if path == "" {
		delete(d.aliases, c)
		return []byte{Ack}, nil
	}
	if !d.Find(path).Valid() {
		return nil, fmt.Errorf("debugger: alias target %q not found", path)
	}
	if _, ok := d.aliases[c]; !ok && len(d.aliases) >= MaxAliases {
		return nil, errors.New("debugger: too many aliases")
	}
	d.aliases[c] = path
	return []byte{Ack}, nil
}
