package arxml

import "fmt"

// SwComponentType is any software component type. Atomic kinds may own an
// internal behavior; compositions own component prototypes and connectors.
type SwComponentType struct {
	base
	kind       Kind
	Ports      []*Port
	Behavior   *InternalBehavior
	Components []*ComponentPrototype
	Assemblies []*AssemblyConnector
	Delegates  []*DelegationConnector
}

// NewComponent returns an empty component type of the given kind.
func NewComponent(name string, kind Kind) (*SwComponentType, error) {
	if !kind.IsComponent() {
		return nil, fmt.Errorf("%w: %s is not a component kind", ErrInvalidValue, kind)
	}
	return &SwComponentType{base: base{name: name}, kind: kind}, nil
}

func (c *SwComponentType) Kind() Kind { return c.kind }

func (c *SwComponentType) child(name string) Element {
	if p := findChild(name, c.Ports); p != nil {
		return p
	}
	if c.Behavior != nil && c.Behavior.name == name {
		return c.Behavior
	}
	if p := findChild(name, c.Components); p != nil {
		return p
	}
	if a := findChild(name, c.Assemblies); a != nil {
		return a
	}
	return findChild(name, c.Delegates)
}

// Port returns the port called name, or nil.
func (c *SwComponentType) Port(name string) *Port {
	for _, p := range c.Ports {
		if p.name == name {
			return p
		}
	}
	return nil
}

// CreatePort adds a port of the given direction typed by a port interface.
func (c *SwComponentType) CreatePort(name string, kind Kind, iface Ref) (*Port, error) {
	if err := claim(c, name); err != nil {
		return nil, err
	}
	if !kind.IsPort() {
		return nil, fmt.Errorf("%w: %s is not a port kind", ErrInvalidValue, kind)
	}
	if !iface.Kind().IsPortInterface() {
		return nil, fmt.Errorf("%w: port %s must be typed by a port interface, got %q", ErrInvalidStructure, name, iface.Dest)
	}
	p := &Port{base: base{name: name, parent: c}, kind: kind, InterfaceRef: iface}
	c.Ports = append(c.Ports, p)
	return p, nil
}

func (c *SwComponentType) requireComposition(what string) error {
	if c.kind != KindCompositionComponent {
		return fmt.Errorf("%w: %s is only allowed in a composition, %s is a %s", ErrInvalidStructure, what, Path(c), c.kind)
	}
	return nil
}

// CreateComponentPrototype instantiates typ inside the composition.
func (c *SwComponentType) CreateComponentPrototype(name string, typ *SwComponentType) (*ComponentPrototype, error) {
	if err := c.requireComposition("a component prototype"); err != nil {
		return nil, err
	}
	if typ == c {
		return nil, fmt.Errorf("%w: composition %s cannot contain itself", ErrInvalidStructure, Path(c))
	}
	if err := claim(c, name); err != nil {
		return nil, err
	}
	cp := &ComponentPrototype{base: base{name: name, parent: c}, TypeRef: RefTo(typ)}
	c.Components = append(c.Components, cp)
	return cp, nil
}

// CreateAssemblyConnector wires a provided port of one prototype to a
// required port of another. An empty name is derived from the endpoints.
func (c *SwComponentType) CreateAssemblyConnector(name string, provider *ComponentPrototype, providerPort *Port, requester *ComponentPrototype, requesterPort *Port) (*AssemblyConnector, error) {
	if err := c.requireComposition("an assembly connector"); err != nil {
		return nil, err
	}
	for _, cp := range []*ComponentPrototype{provider, requester} {
		if cp.Parent() != c {
			return nil, fmt.Errorf("%w: prototype %s is not part of %s", ErrInvalidStructure, Path(cp), Path(c))
		}
	}
	if err := providerPort.belongsTo(provider); err != nil {
		return nil, err
	}
	if err := requesterPort.belongsTo(requester); err != nil {
		return nil, err
	}
	if !providerPort.Provides() {
		return nil, fmt.Errorf("%w: %s is not a provided port", ErrInvalidStructure, Path(providerPort))
	}
	if !requesterPort.Requires() {
		return nil, fmt.Errorf("%w: %s is not a required port", ErrInvalidStructure, Path(requesterPort))
	}
	if providerPort.InterfaceRef != requesterPort.InterfaceRef {
		return nil, fmt.Errorf("%w: %s and %s are typed by different interfaces", ErrInvalidStructure, Path(providerPort), Path(requesterPort))
	}
	if name == "" {
		name = fmt.Sprintf("%s_%s_%s_%s", provider.name, providerPort.name, requester.name, requesterPort.name)
	}
	if err := claim(c, name); err != nil {
		return nil, err
	}
	conn := &AssemblyConnector{
		base:          base{name: name, parent: c},
		Provider:      RefTo(provider),
		ProviderPort:  RefTo(providerPort),
		Requester:     RefTo(requester),
		RequesterPort: RefTo(requesterPort),
	}
	c.Assemblies = append(c.Assemblies, conn)
	return conn, nil
}

// CreateDelegationConnector exposes an inner prototype's port through an
// outer port of the composition. Both ports must share direction and
// interface.
func (c *SwComponentType) CreateDelegationConnector(name string, inner *ComponentPrototype, innerPort *Port, outerPort *Port) (*DelegationConnector, error) {
	if err := c.requireComposition("a delegation connector"); err != nil {
		return nil, err
	}
	if inner.Parent() != c {
		return nil, fmt.Errorf("%w: prototype %s is not part of %s", ErrInvalidStructure, Path(inner), Path(c))
	}
	if err := innerPort.belongsTo(inner); err != nil {
		return nil, err
	}
	if outerPort.Parent() != c {
		return nil, fmt.Errorf("%w: outer port %s is not a port of %s", ErrInvalidStructure, Path(outerPort), Path(c))
	}
	if innerPort.kind != outerPort.kind && innerPort.kind != KindProvideRequirePort {
		return nil, fmt.Errorf("%w: %s and %s have different directions", ErrInvalidStructure, Path(innerPort), Path(outerPort))
	}
	if innerPort.InterfaceRef != outerPort.InterfaceRef {
		return nil, fmt.Errorf("%w: %s and %s are typed by different interfaces", ErrInvalidStructure, Path(innerPort), Path(outerPort))
	}
	if name == "" {
		name = fmt.Sprintf("%s_%s_%s", inner.name, innerPort.name, outerPort.name)
	}
	if err := claim(c, name); err != nil {
		return nil, err
	}
	conn := &DelegationConnector{
		base:      base{name: name, parent: c},
		Inner:     RefTo(inner),
		InnerPort: RefTo(innerPort),
		OuterPort: RefTo(outerPort),
	}
	c.Delegates = append(c.Delegates, conn)
	return conn, nil
}

// Port is a P-, R- or PR-PORT-PROTOTYPE.
type Port struct {
	base
	kind         Kind
	InterfaceRef Ref
	ComSpecs     []*ComSpec
}

func (p *Port) Kind() Kind { return p.kind }

// Provides reports whether the port has a provided side.
func (p *Port) Provides() bool { return p.kind == KindProvidePort || p.kind == KindProvideRequirePort }

// Requires reports whether the port has a required side.
func (p *Port) Requires() bool { return p.kind == KindRequirePort || p.kind == KindProvideRequirePort }

func (p *Port) belongsTo(cp *ComponentPrototype) error {
	if Path(p.Parent()) != cp.TypeRef.Path {
		return fmt.Errorf("%w: port %s is not a port of %s's type %s", ErrInvalidStructure, Path(p), cp.name, cp.TypeRef.Path)
	}
	return nil
}

// ComSpecOptions tunes a communication specification. Fields that do not
// apply to the chosen com spec kind must be left unset.
type ComSpecOptions struct {
	Queued       bool
	InitValue    *ValueSpec
	QueueLength  *int
	AliveTimeout *float64
}

// CreateComSpec attaches a communication specification for element, a data
// element or operation of the port's interface. The com spec kind follows
// from the port direction, the interface kind and opts.Queued.
func (p *Port) CreateComSpec(element Element, opts ComSpecOptions) (*ComSpec, error) {
	ref := RefTo(element)
	if !ref.Within(p.InterfaceRef.Path) {
		return nil, fmt.Errorf("%w: %s is not part of interface %s", ErrInvalidStructure, ref.Path, p.InterfaceRef.Path)
	}
	kind, err := p.comSpecKind(element.Kind(), opts.Queued)
	if err != nil {
		return nil, err
	}
	switch kind {
	case KindNonqueuedSenderComSpec, KindNonqueuedReceiverComSpec, KindQueuedSenderComSpec, KindQueuedReceiverComSpec:
	default:
		if opts.InitValue != nil {
			return nil, fmt.Errorf("%w: init value is only allowed for sender-receiver ports", ErrInvalidStructure)
		}
	}
	if opts.QueueLength != nil {
		if kind != KindQueuedReceiverComSpec && kind != KindServerComSpec {
			return nil, fmt.Errorf("%w: queue length does not apply to %s", ErrInvalidStructure, kind)
		}
		if *opts.QueueLength < 1 {
			return nil, fmt.Errorf("%w: queue length must be at least 1", ErrInvalidValue)
		}
	}
	if opts.AliveTimeout != nil {
		if kind != KindNonqueuedReceiverComSpec {
			return nil, fmt.Errorf("%w: alive timeout does not apply to %s", ErrInvalidStructure, kind)
		}
		if *opts.AliveTimeout < 0 {
			return nil, fmt.Errorf("%w: alive timeout must not be negative", ErrInvalidValue)
		}
	}
	for _, cs := range p.ComSpecs {
		if cs.ElementRef == ref {
			return nil, fmt.Errorf("%w: %s already has a com spec for %s", ErrDuplicateName, Path(p), ref.Name())
		}
	}
	cs := &ComSpec{
		base:         base{name: element.Name(), parent: p},
		kind:         kind,
		ElementRef:   ref,
		InitValue:    opts.InitValue,
		QueueLength:  opts.QueueLength,
		AliveTimeout: opts.AliveTimeout,
	}
	p.ComSpecs = append(p.ComSpecs, cs)
	return cs, nil
}

func (p *Port) comSpecKind(target Kind, queued bool) (Kind, error) {
	if p.kind == KindProvideRequirePort {
		return "", fmt.Errorf("%w: com specs on PR ports are not supported", ErrInvalidStructure)
	}
	switch p.InterfaceRef.Kind() {
	case KindSenderReceiverInterface:
		if target != KindDataElement {
			return "", fmt.Errorf("%w: sender-receiver com spec needs a data element, got %s", ErrInvalidStructure, target)
		}
		switch {
		case p.kind == KindProvidePort && queued:
			return KindQueuedSenderComSpec, nil
		case p.kind == KindProvidePort:
			return KindNonqueuedSenderComSpec, nil
		case queued:
			return KindQueuedReceiverComSpec, nil
		default:
			return KindNonqueuedReceiverComSpec, nil
		}
	case KindClientServerInterface:
		if target != KindOperation {
			return "", fmt.Errorf("%w: client-server com spec needs an operation, got %s", ErrInvalidStructure, target)
		}
		if queued {
			return "", fmt.Errorf("%w: queued applies to sender-receiver ports only", ErrInvalidStructure)
		}
		if p.kind == KindProvidePort {
			return KindServerComSpec, nil
		}
		return KindClientComSpec, nil
	}
	return "", fmt.Errorf("%w: com specs for %s ports are not supported", ErrInvalidStructure, p.InterfaceRef.Dest)
}

// ComSpec is a port's communication specification for one interface
// element. It carries the element's name.
type ComSpec struct {
	base
	kind         Kind
	ElementRef   Ref
	InitValue    *ValueSpec
	QueueLength  *int
	AliveTimeout *float64
}

func (c *ComSpec) Kind() Kind { return c.kind }

// ComponentPrototype is an instance of a component type inside a
// composition.
type ComponentPrototype struct {
	base
	TypeRef Ref
}

func (c *ComponentPrototype) Kind() Kind { return KindComponentPrototype }

// AssemblyConnector links a provided and a required port of two prototypes.
type AssemblyConnector struct {
	base
	Provider      Ref
	ProviderPort  Ref
	Requester     Ref
	RequesterPort Ref
}

func (a *AssemblyConnector) Kind() Kind { return KindAssemblyConnector }

// DelegationConnector links an inner prototype's port to an outer port.
type DelegationConnector struct {
	base
	Inner     Ref
	InnerPort Ref
	OuterPort Ref
}

func (d *DelegationConnector) Kind() Kind { return KindDelegationConnector }
