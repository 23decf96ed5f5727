// Package arxml is the AUTOSAR modeling layer: an element model rooted in
// packages, a workspace with a package map and document planning, and an
// ARXML writer and reader.
//
// Elements are plain Go values linked to their parent. References between
// elements are stored as Ref values (destination tag plus absolute path), the
// same way they appear in ARXML, so a model read from disk and a model built
// in memory look alike.
package arxml

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// Kind names an AUTOSAR meta-class.
type Kind string

const (
	KindPackage                  Kind = "ARPackage"
	KindSwBaseType               Kind = "SwBaseType"
	KindImplementationDataType   Kind = "ImplementationDataType"
	KindUnit                     Kind = "Unit"
	KindConstantSpecification    Kind = "ConstantSpecification"
	KindSenderReceiverInterface  Kind = "SenderReceiverInterface"
	KindClientServerInterface    Kind = "ClientServerInterface"
	KindModeSwitchInterface      Kind = "ModeSwitchInterface"
	KindModeDeclarationGroup     Kind = "ModeDeclarationGroup"
	KindModeDeclaration          Kind = "ModeDeclaration"
	KindModeGroupPrototype       Kind = "ModeDeclarationGroupPrototype"
	KindDataElement              Kind = "VariableDataPrototype"
	KindOperation                Kind = "ClientServerOperation"
	KindArgument                 Kind = "ArgumentDataPrototype"
	KindApplicationError         Kind = "ApplicationError"
	KindApplicationComponent     Kind = "ApplicationSwComponentType"
	KindSensorActuatorComponent  Kind = "SensorActuatorSwComponentType"
	KindServiceComponent         Kind = "ServiceSwComponentType"
	KindComplexDeviceDriver      Kind = "ComplexDeviceDriverSwComponentType"
	KindCompositionComponent     Kind = "CompositionSwComponentType"
	KindProvidePort              Kind = "PPortPrototype"
	KindRequirePort              Kind = "RPortPrototype"
	KindProvideRequirePort       Kind = "PRPortPrototype"
	KindNonqueuedSenderComSpec   Kind = "NonqueuedSenderComSpec"
	KindQueuedSenderComSpec      Kind = "QueuedSenderComSpec"
	KindNonqueuedReceiverComSpec Kind = "NonqueuedReceiverComSpec"
	KindQueuedReceiverComSpec    Kind = "QueuedReceiverComSpec"
	KindServerComSpec            Kind = "ServerComSpec"
	KindClientComSpec            Kind = "ClientComSpec"
	KindInternalBehavior         Kind = "SwcInternalBehavior"
	KindRunnable                 Kind = "RunnableEntity"
	KindTimingEvent              Kind = "TimingEvent"
	KindDataReceivedEvent        Kind = "DataReceivedEvent"
	KindOperationInvokedEvent    Kind = "OperationInvokedEvent"
	KindModeSwitchEvent          Kind = "SwcModeSwitchEvent"
	KindInitEvent                Kind = "InitEvent"
	KindComponentPrototype       Kind = "SwComponentPrototype"
	KindAssemblyConnector        Kind = "AssemblySwConnector"
	KindDelegationConnector      Kind = "DelegationSwConnector"
	KindDocument                 Kind = "Document"
	KindDocumentMapping          Kind = "DocumentMapping"
)

// tags maps each XML-backed kind to its ARXML element tag, which is also
// the DEST attribute of references pointing at it.
var tags = map[Kind]string{
	KindPackage:                  "AR-PACKAGE",
	KindSwBaseType:               "SW-BASE-TYPE",
	KindImplementationDataType:   "IMPLEMENTATION-DATA-TYPE",
	KindUnit:                     "UNIT",
	KindConstantSpecification:    "CONSTANT-SPECIFICATION",
	KindSenderReceiverInterface:  "SENDER-RECEIVER-INTERFACE",
	KindClientServerInterface:    "CLIENT-SERVER-INTERFACE",
	KindModeSwitchInterface:      "MODE-SWITCH-INTERFACE",
	KindModeDeclarationGroup:     "MODE-DECLARATION-GROUP",
	KindModeDeclaration:          "MODE-DECLARATION",
	KindModeGroupPrototype:       "MODE-DECLARATION-GROUP-PROTOTYPE",
	KindDataElement:              "VARIABLE-DATA-PROTOTYPE",
	KindOperation:                "CLIENT-SERVER-OPERATION",
	KindArgument:                 "ARGUMENT-DATA-PROTOTYPE",
	KindApplicationError:         "APPLICATION-ERROR",
	KindApplicationComponent:     "APPLICATION-SW-COMPONENT-TYPE",
	KindSensorActuatorComponent:  "SENSOR-ACTUATOR-SW-COMPONENT-TYPE",
	KindServiceComponent:         "SERVICE-SW-COMPONENT-TYPE",
	KindComplexDeviceDriver:      "COMPLEX-DEVICE-DRIVER-SW-COMPONENT-TYPE",
	KindCompositionComponent:     "COMPOSITION-SW-COMPONENT-TYPE",
	KindProvidePort:              "P-PORT-PROTOTYPE",
	KindRequirePort:              "R-PORT-PROTOTYPE",
	KindProvideRequirePort:       "PR-PORT-PROTOTYPE",
	KindNonqueuedSenderComSpec:   "NONQUEUED-SENDER-COM-SPEC",
	KindQueuedSenderComSpec:      "QUEUED-SENDER-COM-SPEC",
	KindNonqueuedReceiverComSpec: "NONQUEUED-RECEIVER-COM-SPEC",
	KindQueuedReceiverComSpec:    "QUEUED-RECEIVER-COM-SPEC",
	KindServerComSpec:            "SERVER-COM-SPEC",
	KindClientComSpec:            "CLIENT-COM-SPEC",
	KindInternalBehavior:         "SWC-INTERNAL-BEHAVIOR",
	KindRunnable:                 "RUNNABLE-ENTITY",
	KindTimingEvent:              "TIMING-EVENT",
	KindDataReceivedEvent:        "DATA-RECEIVED-EVENT",
	KindOperationInvokedEvent:    "OPERATION-INVOKED-EVENT",
	KindModeSwitchEvent:          "SWC-MODE-SWITCH-EVENT",
	KindInitEvent:                "INIT-EVENT",
	KindComponentPrototype:       "SW-COMPONENT-PROTOTYPE",
	KindAssemblyConnector:        "ASSEMBLY-SW-CONNECTOR",
	KindDelegationConnector:      "DELEGATION-SW-CONNECTOR",
}

var kindsByTag = func() map[string]Kind {
	out := make(map[string]Kind, len(tags))
	for k, t := range tags {
		out[t] = k
	}
	return out
}()

// Tag returns the ARXML tag for k, or "" when k has no XML form.
func (k Kind) Tag() string { return tags[k] }

// KindOfTag is the inverse of Kind.Tag.
func KindOfTag(tag string) (Kind, bool) {
	k, ok := kindsByTag[tag]
	return k, ok
}

// IsComponent reports whether k is any software component type.
func (k Kind) IsComponent() bool {
	return k.IsAtomicComponent() || k == KindCompositionComponent
}

// IsAtomicComponent reports whether k is a component type that may own an
// internal behavior.
func (k Kind) IsAtomicComponent() bool {
	switch k {
	case KindApplicationComponent, KindSensorActuatorComponent, KindServiceComponent, KindComplexDeviceDriver:
		return true
	}
	return false
}

// IsPackageable reports whether elements of kind k may live directly in a
// package.
func (k Kind) IsPackageable() bool {
	switch k {
	case KindPackage, KindSwBaseType, KindImplementationDataType, KindUnit, KindConstantSpecification,
		KindSenderReceiverInterface, KindClientServerInterface, KindModeSwitchInterface, KindModeDeclarationGroup:
		return true
	}
	return k.IsComponent()
}

// IsPortInterface reports whether k can type a port.
func (k Kind) IsPortInterface() bool {
	switch k {
	case KindSenderReceiverInterface, KindClientServerInterface, KindModeSwitchInterface:
		return true
	}
	return false
}

// IsPort reports whether k is a port prototype.
func (k Kind) IsPort() bool {
	switch k {
	case KindProvidePort, KindRequirePort, KindProvideRequirePort:
		return true
	}
	return false
}

// Errors returned by the modeling layer.
var (
	ErrInvalidName       = errors.New("arxml: invalid short name")
	ErrDuplicateName     = errors.New("arxml: duplicate short name")
	ErrInvalidStructure  = errors.New("arxml: invalid model structure")
	ErrInvalidValue      = errors.New("arxml: invalid value")
	ErrUnknownPackageKey = errors.New("arxml: unknown package key")
	ErrInvalidPath       = errors.New("arxml: invalid package path")
	ErrParse             = errors.New("arxml: parse error")
)

// Element is an identifiable AUTOSAR object.
type Element interface {
	Name() string
	Kind() Kind
	Parent() Element
}

// base holds what every identifiable element shares.
type base struct {
	name   string
	parent Element
}

func (b *base) Name() string     { return b.name }
func (b *base) Parent() Element  { return b.parent }
func (b *base) attach(p Element) { b.parent = p }

type attachable interface {
	attach(Element)
}

// validator is implemented by elements with invariants checked on insertion.
type validator interface {
	validate() error
}

var shortName = regexp.MustCompile(`^[A-Za-z][A-Za-z0-9_]{0,127}$`)

// ValidateName checks that name is a legal AUTOSAR short name.
func ValidateName(name string) error {
	if !shortName.MatchString(name) {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// Path returns the absolute AUTOSAR reference of e, e.g. "/Pkg/Sub/Elem".
func Path(e Element) string {
	var parts []string
	for cur := e; cur != nil; cur = cur.Parent() {
		parts = append(parts, cur.Name())
	}
	var sb strings.Builder
	for i := len(parts) - 1; i >= 0; i-- {
		sb.WriteByte('/')
		sb.WriteString(parts[i])
	}
	return sb.String()
}

// Ref is a typed reference to another element.
type Ref struct {
	Dest string
	Path string
}

// RefTo builds a reference to e.
func RefTo(e Element) Ref {
	return Ref{Dest: e.Kind().Tag(), Path: Path(e)}
}

// IsZero reports whether r is unset.
func (r Ref) IsZero() bool { return r.Path == "" }

// Kind returns the kind named by the DEST attribute.
func (r Ref) Kind() Kind {
	k, _ := KindOfTag(r.Dest)
	return k
}

// Name returns the last path segment.
func (r Ref) Name() string {
	if i := strings.LastIndexByte(r.Path, '/'); i >= 0 {
		return r.Path[i+1:]
	}
	return r.Path
}

// Within reports whether r points at a direct child of the element at parent.
func (r Ref) Within(parent string) bool {
	return strings.HasPrefix(r.Path, parent+"/") && !strings.Contains(r.Path[len(parent)+1:], "/")
}

// container is implemented by elements that own named children reachable by
// path lookup. All children of one container share a namespace.
type container interface {
	Element
	child(name string) Element
}

// claim checks that name is a legal short name not yet used inside c; the
// common prologue of every Create* method.
func claim(c container, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	if c.child(name) != nil {
		return fmt.Errorf("%w: %q in %s", ErrDuplicateName, name, Path(c))
	}
	return nil
}

func findChild[E Element](name string, items []E) Element {
	for _, it := range items {
		if it.Name() == name {
			return it
		}
	}
	return nil
}
