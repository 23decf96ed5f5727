package arxml

import "fmt"

// InternalBehavior is the SWC-INTERNAL-BEHAVIOR of an atomic component: its
// runnables and the events that start them.
type InternalBehavior struct {
	base
	Runnables []*Runnable
	Events    []*Event
}

func (b *InternalBehavior) Kind() Kind { return KindInternalBehavior }

func (b *InternalBehavior) child(name string) Element {
	if r := findChild(name, b.Runnables); r != nil {
		return r
	}
	return findChild(name, b.Events)
}

// CreateInternalBehavior gives an atomic component its behavior. A component
// has at most one. An empty name becomes "<component>_InternalBehavior".
func (c *SwComponentType) CreateInternalBehavior(name string) (*InternalBehavior, error) {
	if !c.kind.IsAtomicComponent() {
		return nil, fmt.Errorf("%w: %s is a %s and cannot own an internal behavior", ErrInvalidStructure, Path(c), c.kind)
	}
	if c.Behavior != nil {
		return nil, fmt.Errorf("%w: %s already has internal behavior %s", ErrInvalidStructure, Path(c), c.Behavior.name)
	}
	if name == "" {
		name = c.name + "_InternalBehavior"
	}
	if err := claim(c, name); err != nil {
		return nil, err
	}
	c.Behavior = &InternalBehavior{base: base{name: name, parent: c}}
	return c.Behavior, nil
}

// Runnable is a RUNNABLE-ENTITY.
type Runnable struct {
	base
	Symbol                   string
	CanBeInvokedConcurrently bool
}

func (r *Runnable) Kind() Kind { return KindRunnable }

// CreateRunnable adds a runnable. The symbol defaults to the name.
func (b *InternalBehavior) CreateRunnable(name, symbol string, concurrent bool) (*Runnable, error) {
	if err := claim(b, name); err != nil {
		return nil, err
	}
	if symbol == "" {
		symbol = name
	}
	r := &Runnable{base: base{name: name, parent: b}, Symbol: symbol, CanBeInvokedConcurrently: concurrent}
	b.Runnables = append(b.Runnables, r)
	return r, nil
}

// Mode switch activations.
const (
	ActivationOnEntry = "ON-ENTRY"
	ActivationOnExit  = "ON-EXIT"
)

// Event is an RTE event starting a runnable. Which fields are set depends on
// the kind: Period for timing events, Port and Target for data received and
// operation invoked events, Port, ModeGroup, Target and Activation for mode
// switch events.
type Event struct {
	base
	kind       Kind
	StartOn    Ref
	Period     float64
	Port       Ref
	ModeGroup  Ref
	Target     Ref
	Activation string
}

func (e *Event) Kind() Kind { return e.kind }

func (b *InternalBehavior) addEvent(name string, e *Event) (*Event, error) {
	if err := claim(b, name); err != nil {
		return nil, err
	}
	e.name = name
	e.parent = b
	b.Events = append(b.Events, e)
	return e, nil
}

func (b *InternalBehavior) ownRunnable(r *Runnable) error {
	if r.Parent() != b {
		return fmt.Errorf("%w: runnable %s is not part of %s", ErrInvalidStructure, Path(r), Path(b))
	}
	return nil
}

func (b *InternalBehavior) ownPort(p *Port) error {
	if p.Parent() != b.Parent() {
		return fmt.Errorf("%w: port %s is not a port of %s", ErrInvalidStructure, Path(p), Path(b.Parent()))
	}
	return nil
}

// CreateTimingEvent starts r every period seconds. Default name TMT_<runnable>.
func (b *InternalBehavior) CreateTimingEvent(name string, r *Runnable, period float64) (*Event, error) {
	if err := b.ownRunnable(r); err != nil {
		return nil, err
	}
	if period <= 0 {
		return nil, fmt.Errorf("%w: timing event period must be positive, got %v", ErrInvalidValue, period)
	}
	if name == "" {
		name = "TMT_" + r.name
	}
	return b.addEvent(name, &Event{kind: KindTimingEvent, StartOn: RefTo(r), Period: period})
}

// CreateInitEvent starts r once at initialization. Default name IT_<runnable>.
func (b *InternalBehavior) CreateInitEvent(name string, r *Runnable) (*Event, error) {
	if err := b.ownRunnable(r); err != nil {
		return nil, err
	}
	if name == "" {
		name = "IT_" + r.name
	}
	return b.addEvent(name, &Event{kind: KindInitEvent, StartOn: RefTo(r)})
}

// CreateDataReceivedEvent starts r when element arrives on a required
// sender-receiver port. Default name DRT_<runnable>_<port>_<element>.
func (b *InternalBehavior) CreateDataReceivedEvent(name string, r *Runnable, p *Port, element *DataElement) (*Event, error) {
	if err := b.ownRunnable(r); err != nil {
		return nil, err
	}
	if err := b.ownPort(p); err != nil {
		return nil, err
	}
	if !p.Requires() || p.InterfaceRef.Kind() != KindSenderReceiverInterface {
		return nil, fmt.Errorf("%w: data received events need a required sender-receiver port, %s is not one", ErrInvalidStructure, Path(p))
	}
	target := RefTo(element)
	if !target.Within(p.InterfaceRef.Path) {
		return nil, fmt.Errorf("%w: %s is not part of interface %s", ErrInvalidStructure, target.Path, p.InterfaceRef.Path)
	}
	if name == "" {
		name = fmt.Sprintf("DRT_%s_%s_%s", r.name, p.name, element.name)
	}
	return b.addEvent(name, &Event{kind: KindDataReceivedEvent, StartOn: RefTo(r), Port: RefTo(p), Target: target})
}

// CreateOperationInvokedEvent starts r when a client calls op on a provided
// client-server port. Default name OIT_<runnable>_<port>_<operation>.
func (b *InternalBehavior) CreateOperationInvokedEvent(name string, r *Runnable, p *Port, op *Operation) (*Event, error) {
	if err := b.ownRunnable(r); err != nil {
		return nil, err
	}
	if err := b.ownPort(p); err != nil {
		return nil, err
	}
	if !p.Provides() || p.InterfaceRef.Kind() != KindClientServerInterface {
		return nil, fmt.Errorf("%w: operation invoked events need a provided client-server port, %s is not one", ErrInvalidStructure, Path(p))
	}
	target := RefTo(op)
	if !target.Within(p.InterfaceRef.Path) {
		return nil, fmt.Errorf("%w: %s is not part of interface %s", ErrInvalidStructure, target.Path, p.InterfaceRef.Path)
	}
	if name == "" {
		name = fmt.Sprintf("OIT_%s_%s_%s", r.name, p.name, op.name)
	}
	return b.addEvent(name, &Event{kind: KindOperationInvokedEvent, StartOn: RefTo(r), Port: RefTo(p), Target: target})
}

// CreateModeSwitchEvent starts r when the mode group behind a required mode
// switch port enters or leaves mode. iface is the port's interface. Default
// name MST_<runnable>_<port>_<mode>.
func (b *InternalBehavior) CreateModeSwitchEvent(name string, r *Runnable, p *Port, iface *ModeSwitchInterface, mode *ModeDeclaration, activation string) (*Event, error) {
	if err := b.ownRunnable(r); err != nil {
		return nil, err
	}
	if err := b.ownPort(p); err != nil {
		return nil, err
	}
	if !p.Requires() || p.InterfaceRef != RefTo(iface) {
		return nil, fmt.Errorf("%w: mode switch events need a required port typed by %s", ErrInvalidStructure, Path(iface))
	}
	if iface.ModeGroup == nil || Path(mode.Parent()) != iface.ModeGroup.TypeRef.Path {
		return nil, fmt.Errorf("%w: mode %s is not declared by the mode group of %s", ErrInvalidStructure, Path(mode), Path(iface))
	}
	switch activation {
	case "":
		activation = ActivationOnEntry
	case ActivationOnEntry, ActivationOnExit:
	default:
		return nil, fmt.Errorf("%w: activation %q", ErrInvalidValue, activation)
	}
	if name == "" {
		name = fmt.Sprintf("MST_%s_%s_%s", r.name, p.name, mode.name)
	}
	return b.addEvent(name, &Event{
		kind:       KindModeSwitchEvent,
		StartOn:    RefTo(r),
		Port:       RefTo(p),
		ModeGroup:  RefTo(iface.ModeGroup),
		Target:     RefTo(mode),
		Activation: activation,
	})
}
