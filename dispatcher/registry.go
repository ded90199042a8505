package dispatcher

import (
	"fmt"
	"sync"

	"github.com/pkg/errors"

	"github.com/weaveworks/pubbot/update"
)

// Registry errors.
var (
	ErrAlreadyBuilt         = errors.New("registry already built")
	ErrUnknownKind          = errors.New("unknown update kind")
	ErrPatternsNotSupported = errors.New("patterns are only supported for bot_command bindings")
)

type registration struct {
	kind     update.Kind
	name     string
	factory  Factory
	patterns []string
}

// Registry collects handler registrations until it is built into a Dispatcher.
type Registry struct {
	mtx           sync.Mutex
	built         bool
	registrations []registration
}

// NewRegistry makes an empty Registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Add registers a handler factory for kind. Order of registration is the
// order bindings are evaluated in. Validation happens in Build. Add panics
// once the registry has been built.
func (r *Registry) Add(kind update.Kind, name string, factory Factory, patterns ...string) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.built {
		panic(fmt.Sprintf("dispatcher: binding %q added after Build", name))
	}
	r.registrations = append(r.registrations, registration{
		kind:     kind,
		name:     name,
		factory:  factory,
		patterns: patterns,
	})
}

// Build instantiates every handler with deps and freezes the bindings. It
// can only be called once.
func (r *Registry) Build(deps Deps) (*Dispatcher, error) {
	r.mtx.Lock()
	defer r.mtx.Unlock()
	if r.built {
		return nil, ErrAlreadyBuilt
	}

	for _, reg := range r.registrations {
		if !reg.kind.Valid() {
			return nil, errors.Wrapf(ErrUnknownKind, "binding %q: %q", reg.name, reg.kind)
		}
		if len(reg.patterns) > 0 && reg.kind != update.KindBotCommand {
			return nil, errors.Wrapf(ErrPatternsNotSupported, "binding %q", reg.name)
		}
	}

	bindings := map[update.Kind][]Binding{}
	for _, reg := range r.registrations {
		b := Binding{
			Kind:    reg.kind,
			Name:    reg.name,
			Handler: reg.factory(deps),
		}
		if len(reg.patterns) > 0 {
			b.patterns = make(map[string]struct{}, len(reg.patterns))
			for _, p := range reg.patterns {
				b.patterns[p] = struct{}{}
			}
		}
		bindings[reg.kind] = append(bindings[reg.kind], b)
	}
	r.built = true
	return &Dispatcher{bindings: bindings}, nil
}
