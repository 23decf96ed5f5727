package arxml

import "fmt"

// SenderReceiverInterface carries data elements.
type SenderReceiverInterface struct {
	base
	DataElements []*DataElement
}

// NewSenderReceiverInterface returns an interface without data elements.
func NewSenderReceiverInterface(name string) *SenderReceiverInterface {
	return &SenderReceiverInterface{base: base{name: name}}
}

func (i *SenderReceiverInterface) Kind() Kind { return KindSenderReceiverInterface }

func (i *SenderReceiverInterface) child(name string) Element {
	return findChild(name, i.DataElements)
}

// CreateDataElement adds a data element typed by an implementation data type.
func (i *SenderReceiverInterface) CreateDataElement(name string, typ Ref) (*DataElement, error) {
	if err := claim(i, name); err != nil {
		return nil, err
	}
	if typ.IsZero() {
		return nil, fmt.Errorf("%w: data element %s needs a type", ErrInvalidStructure, name)
	}
	de := &DataElement{base: base{name: name, parent: i}, TypeRef: typ}
	i.DataElements = append(i.DataElements, de)
	return de, nil
}

// DataElement is a VARIABLE-DATA-PROTOTYPE of a sender-receiver interface.
type DataElement struct {
	base
	TypeRef Ref
}

func (d *DataElement) Kind() Kind { return KindDataElement }

// ClientServerInterface carries operations and the application errors they
// may return.
type ClientServerInterface struct {
	base
	Operations []*Operation
	Errors     []*ApplicationError
}

// NewClientServerInterface returns an empty interface.
func NewClientServerInterface(name string) *ClientServerInterface {
	return &ClientServerInterface{base: base{name: name}}
}

func (i *ClientServerInterface) Kind() Kind { return KindClientServerInterface }

func (i *ClientServerInterface) child(name string) Element {
	if op := findChild(name, i.Operations); op != nil {
		return op
	}
	return findChild(name, i.Errors)
}

// CreateOperation adds an operation without arguments.
func (i *ClientServerInterface) CreateOperation(name string) (*Operation, error) {
	if err := claim(i, name); err != nil {
		return nil, err
	}
	op := &Operation{base: base{name: name, parent: i}}
	i.Operations = append(i.Operations, op)
	return op, nil
}

// CreateApplicationError adds an application error with the given code.
func (i *ClientServerInterface) CreateApplicationError(name string, code int) (*ApplicationError, error) {
	if err := claim(i, name); err != nil {
		return nil, err
	}
	if code < 0 || code > 63 {
		return nil, fmt.Errorf("%w: application error code %d outside 0..63", ErrInvalidValue, code)
	}
	ae := &ApplicationError{base: base{name: name, parent: i}, Code: code}
	i.Errors = append(i.Errors, ae)
	return ae, nil
}

// ApplicationError is an error an operation may report.
type ApplicationError struct {
	base
	Code int
}

func (e *ApplicationError) Kind() Kind { return KindApplicationError }

// ArgumentDirection is the DIRECTION of an operation argument.
type ArgumentDirection string

const (
	DirectionIn    ArgumentDirection = "IN"
	DirectionOut   ArgumentDirection = "OUT"
	DirectionInOut ArgumentDirection = "INOUT"
)

// Operation is a CLIENT-SERVER-OPERATION.
type Operation struct {
	base
	Arguments      []*Argument
	PossibleErrors []Ref
}

func (o *Operation) Kind() Kind { return KindOperation }

func (o *Operation) child(name string) Element {
	return findChild(name, o.Arguments)
}

// CreateArgument appends an argument; order is the call signature.
func (o *Operation) CreateArgument(name string, typ Ref, dir ArgumentDirection) (*Argument, error) {
	if err := claim(o, name); err != nil {
		return nil, err
	}
	switch dir {
	case DirectionIn, DirectionOut, DirectionInOut:
	default:
		return nil, fmt.Errorf("%w: argument direction %q", ErrInvalidValue, dir)
	}
	if typ.IsZero() {
		return nil, fmt.Errorf("%w: argument %s needs a type", ErrInvalidStructure, name)
	}
	arg := &Argument{base: base{name: name, parent: o}, TypeRef: typ, Direction: dir}
	o.Arguments = append(o.Arguments, arg)
	return arg, nil
}

// AddPossibleError lets the operation report e. The error must belong to the
// operation's own interface.
func (o *Operation) AddPossibleError(e *ApplicationError) error {
	if e.Parent() != o.Parent() {
		return fmt.Errorf("%w: application error %s is not defined by interface %s", ErrInvalidStructure, Path(e), Path(o.Parent()))
	}
	ref := RefTo(e)
	for _, have := range o.PossibleErrors {
		if have == ref {
			return nil
		}
	}
	o.PossibleErrors = append(o.PossibleErrors, ref)
	return nil
}

// Argument is an ARGUMENT-DATA-PROTOTYPE.
type Argument struct {
	base
	TypeRef   Ref
	Direction ArgumentDirection
}

func (a *Argument) Kind() Kind { return KindArgument }

// ModeDeclarationGroup is an ordered set of modes with an initial mode.
type ModeDeclarationGroup struct {
	base
	Modes       []*ModeDeclaration
	InitialMode string
}

// NewModeDeclarationGroup builds a group from mode names. An empty initial
// mode selects the first one.
func NewModeDeclarationGroup(name string, modes []string, initial string) (*ModeDeclarationGroup, error) {
	g := &ModeDeclarationGroup{base: base{name: name}}
	if len(modes) == 0 {
		return nil, fmt.Errorf("%w: mode declaration group %s needs at least one mode", ErrInvalidStructure, name)
	}
	for _, m := range modes {
		if err := claim(g, m); err != nil {
			return nil, err
		}
		g.Modes = append(g.Modes, &ModeDeclaration{base: base{name: m, parent: g}})
	}
	if initial == "" {
		initial = modes[0]
	}
	if g.child(initial) == nil {
		return nil, fmt.Errorf("%w: initial mode %q is not a mode of %s", ErrInvalidStructure, initial, name)
	}
	g.InitialMode = initial
	return g, nil
}

func (g *ModeDeclarationGroup) Kind() Kind { return KindModeDeclarationGroup }

func (g *ModeDeclarationGroup) child(name string) Element {
	return findChild(name, g.Modes)
}

// Mode returns the declaration called name, or nil.
func (g *ModeDeclarationGroup) Mode(name string) *ModeDeclaration {
	for _, m := range g.Modes {
		if m.name == name {
			return m
		}
	}
	return nil
}

// ModeDeclaration is one mode of a group.
type ModeDeclaration struct {
	base
}

func (m *ModeDeclaration) Kind() Kind { return KindModeDeclaration }

// ModeSwitchInterface exposes exactly one mode group prototype.
type ModeSwitchInterface struct {
	base
	ModeGroup *ModeGroupPrototype
}

// NewModeSwitchInterface builds the interface and its mode group prototype.
// protoName defaults to "mode".
func NewModeSwitchInterface(name string, group Ref, protoName string) (*ModeSwitchInterface, error) {
	if group.IsZero() {
		return nil, fmt.Errorf("%w: mode switch interface %s needs a mode declaration group", ErrInvalidStructure, name)
	}
	if protoName == "" {
		protoName = "mode"
	}
	if err := ValidateName(protoName); err != nil {
		return nil, err
	}
	msi := &ModeSwitchInterface{base: base{name: name}}
	msi.ModeGroup = &ModeGroupPrototype{base: base{name: protoName, parent: msi}, TypeRef: group}
	return msi, nil
}

func (i *ModeSwitchInterface) Kind() Kind { return KindModeSwitchInterface }

func (i *ModeSwitchInterface) child(name string) Element {
	if i.ModeGroup != nil && i.ModeGroup.name == name {
		return i.ModeGroup
	}
	return nil
}

// ModeGroupPrototype is the MODE-GROUP of a mode switch interface.
type ModeGroupPrototype struct {
	base
	TypeRef Ref
}

func (p *ModeGroupPrototype) Kind() Kind { return KindModeGroupPrototype }
