package arxml

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/beevik/etree"
)

// Supported AUTOSAR R4 schema versions.
const (
	MinSchemaVersion     = 48
	MaxSchemaVersion     = 53
	DefaultSchemaVersion = 51
)

const (
	namespace = "http://autosar.org/schema/r4.0"
	xsiNS     = "http://www.w3.org/2001/XMLSchema-instance"
)

// Writer serializes packages to ARXML.
type Writer struct {
	schemaVersion int
	indent        int
}

// NewWriter returns a writer for the given schema version, indenting nested
// elements by indent spaces.
func NewWriter(schemaVersion, indent int) (*Writer, error) {
	if schemaVersion < MinSchemaVersion || schemaVersion > MaxSchemaVersion {
		return nil, fmt.Errorf("%w: schema version %d outside %d..%d", ErrInvalidValue, schemaVersion, MinSchemaVersion, MaxSchemaVersion)
	}
	if indent < 0 {
		return nil, fmt.Errorf("%w: negative indent", ErrInvalidValue)
	}
	return &Writer{schemaVersion: schemaVersion, indent: indent}, nil
}

// SchemaVersion returns the version written into the schema location.
func (wr *Writer) SchemaVersion() int { return wr.schemaVersion }

// SchemaFile returns the XSD name for version, e.g. AUTOSAR_00051.xsd.
func SchemaFile(version int) string {
	return fmt.Sprintf("AUTOSAR_%05d.xsd", version)
}

// WriteFile writes the selected part of roots to path. A nil selection
// writes everything.
func (wr *Writer) WriteFile(path string, roots []*Package, sel *Selection) (int64, error) {
	f, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	n, err := wr.WriteTo(f, roots, sel)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return n, err
}

// WriteTo writes the selected part of roots to w.
func (wr *Writer) WriteTo(w io.Writer, roots []*Package, sel *Selection) (int64, error) {
	return wr.document(roots, sel).WriteTo(w)
}

func (wr *Writer) document(roots []*Package, sel *Selection) *etree.Document {
	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="utf-8"`)
	root := doc.CreateElement("AUTOSAR")
	root.CreateAttr("xmlns", namespace)
	root.CreateAttr("xmlns:xsi", xsiNS)
	root.CreateAttr("xsi:schemaLocation", namespace+" "+SchemaFile(wr.schemaVersion))
	var pkgs []*Package
	for _, p := range roots {
		if sel.touches(p) {
			pkgs = append(pkgs, p)
		}
	}
	if len(pkgs) > 0 {
		list := root.CreateElement("AR-PACKAGES")
		for _, p := range pkgs {
			writePackage(list, p, sel)
		}
	}
	if wr.indent > 0 {
		doc.Indent(wr.indent)
	}
	return doc
}

func writePackage(parent *etree.Element, p *Package, sel *Selection) {
	if sel.wholePackage(p) {
		sel = nil
	}
	el := withName(parent, "AR-PACKAGE", p.name)
	var elems []Element
	for _, e := range p.Elements {
		if sel.element(e) {
			elems = append(elems, e)
		}
	}
	if len(elems) > 0 {
		list := el.CreateElement("ELEMENTS")
		for _, e := range elems {
			writeElement(list, e)
		}
	}
	var subs []*Package
	for _, sub := range p.Packages {
		if sel.touches(sub) {
			subs = append(subs, sub)
		}
	}
	if len(subs) > 0 {
		list := el.CreateElement("AR-PACKAGES")
		for _, sub := range subs {
			writePackage(list, sub, sel)
		}
	}
}

func writeElement(parent *etree.Element, e Element) {
	switch v := e.(type) {
	case *SwBaseType:
		writeBaseType(parent, v)
	case *ImplementationDataType:
		writeImplementationType(parent, v)
	case *Unit:
		writeUnit(parent, v)
	case *ConstantSpecification:
		el := withName(parent, "CONSTANT-SPECIFICATION", v.name)
		writeValue(el.CreateElement("VALUE-SPEC"), v.Value)
	case *SenderReceiverInterface:
		writeSenderReceiver(parent, v)
	case *ClientServerInterface:
		writeClientServer(parent, v)
	case *ModeDeclarationGroup:
		writeModeGroup(parent, v)
	case *ModeSwitchInterface:
		el := withName(parent, "MODE-SWITCH-INTERFACE", v.name)
		if v.ModeGroup != nil {
			mg := withName(el, "MODE-GROUP", v.ModeGroup.name)
			writeRef(mg, "TYPE-TREF", v.ModeGroup.TypeRef)
		}
	case *SwComponentType:
		writeComponent(parent, v)
	}
}

func withName(parent *etree.Element, tag, name string) *etree.Element {
	el := parent.CreateElement(tag)
	el.CreateElement("SHORT-NAME").SetText(name)
	return el
}

func text(parent *etree.Element, tag, value string) {
	if value != "" {
		parent.CreateElement(tag).SetText(value)
	}
}

func writeRef(parent *etree.Element, tag string, r Ref) {
	if r.IsZero() {
		return
	}
	el := parent.CreateElement(tag)
	el.CreateAttr("DEST", r.Dest)
	el.SetText(r.Path)
}

func optInt(parent *etree.Element, tag string, v *int) {
	if v != nil {
		parent.CreateElement(tag).SetText(strconv.Itoa(*v))
	}
}

func optFloat(parent *etree.Element, tag string, v *float64) {
	if v != nil {
		parent.CreateElement(tag).SetText(formatFloat(*v))
	}
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'g', -1, 64)
}

func writeBaseType(parent *etree.Element, t *SwBaseType) {
	el := withName(parent, "SW-BASE-TYPE", t.name)
	text(el, "CATEGORY", t.Category)
	optInt(el, "BASE-TYPE-SIZE", t.Size)
	optInt(el, "MAX-BASE-TYPE-SIZE", t.MaxSize)
	text(el, "BASE-TYPE-ENCODING", t.Encoding)
	optInt(el, "MEM-ALIGNMENT", t.Alignment)
	text(el, "BYTE-ORDER", string(t.ByteOrder))
	text(el, "NATIVE-DECLARATION", t.NativeDeclaration)
}

func writeImplementationType(parent *etree.Element, t *ImplementationDataType) {
	el := withName(parent, "IMPLEMENTATION-DATA-TYPE", t.name)
	text(el, "CATEGORY", t.Category)
	if t.BaseTypeRef.IsZero() && t.TypeRef.IsZero() {
		return
	}
	cond := el.CreateElement("SW-DATA-DEF-PROPS").
		CreateElement("SW-DATA-DEF-PROPS-VARIANTS").
		CreateElement("SW-DATA-DEF-PROPS-CONDITIONAL")
	writeRef(cond, "BASE-TYPE-REF", t.BaseTypeRef)
	writeRef(cond, "IMPLEMENTATION-DATA-TYPE-REF", t.TypeRef)
}

func writeUnit(parent *etree.Element, u *Unit) {
	el := withName(parent, "UNIT", u.name)
	text(el, "DISPLAY-NAME", u.DisplayName)
	optFloat(el, "FACTOR-SI-TO-UNIT", u.Factor)
	optFloat(el, "OFFSET-SI-TO-UNIT", u.Offset)
	writeRef(el, "PHYSICAL-DIMENSION-REF", u.PhysicalDimensionRef)
}

func writeValue(parent *etree.Element, v *ValueSpec) {
	if v == nil {
		return
	}
	switch v.Kind {
	case ValueNumerical:
		parent.CreateElement("NUMERICAL-VALUE-SPECIFICATION").CreateElement("VALUE").SetText(v.Value)
	case ValueText:
		parent.CreateElement("TEXT-VALUE-SPECIFICATION").CreateElement("VALUE").SetText(v.Value)
	case ValueArray:
		arr := parent.CreateElement("ARRAY-VALUE-SPECIFICATION")
		if len(v.Elements) > 0 {
			list := arr.CreateElement("ELEMENTS")
			for _, item := range v.Elements {
				writeValue(list, item)
			}
		}
	case ValueConstantReference:
		writeRef(parent.CreateElement("CONSTANT-REFERENCE"), "CONSTANT-REF", v.ConstantRef)
	}
}

func writeSenderReceiver(parent *etree.Element, i *SenderReceiverInterface) {
	el := withName(parent, "SENDER-RECEIVER-INTERFACE", i.name)
	if len(i.DataElements) == 0 {
		return
	}
	list := el.CreateElement("DATA-ELEMENTS")
	for _, de := range i.DataElements {
		writeRef(withName(list, "VARIABLE-DATA-PROTOTYPE", de.name), "TYPE-TREF", de.TypeRef)
	}
}

func writeClientServer(parent *etree.Element, i *ClientServerInterface) {
	el := withName(parent, "CLIENT-SERVER-INTERFACE", i.name)
	if len(i.Operations) > 0 {
		ops := el.CreateElement("OPERATIONS")
		for _, op := range i.Operations {
			oel := withName(ops, "CLIENT-SERVER-OPERATION", op.name)
			if len(op.Arguments) > 0 {
				args := oel.CreateElement("ARGUMENTS")
				for _, a := range op.Arguments {
					ael := withName(args, "ARGUMENT-DATA-PROTOTYPE", a.name)
					writeRef(ael, "TYPE-TREF", a.TypeRef)
					text(ael, "DIRECTION", string(a.Direction))
				}
			}
			if len(op.PossibleErrors) > 0 {
				refs := oel.CreateElement("POSSIBLE-ERROR-REFS")
				for _, r := range op.PossibleErrors {
					writeRef(refs, "POSSIBLE-ERROR-REF", r)
				}
			}
		}
	}
	if len(i.Errors) > 0 {
		errs := el.CreateElement("POSSIBLE-ERRORS")
		for _, ae := range i.Errors {
			text(withName(errs, "APPLICATION-ERROR", ae.name), "ERROR-CODE", strconv.Itoa(ae.Code))
		}
	}
}

func writeModeGroup(parent *etree.Element, g *ModeDeclarationGroup) {
	el := withName(parent, "MODE-DECLARATION-GROUP", g.name)
	if g.InitialMode != "" {
		writeRef(el, "INITIAL-MODE-REF", Ref{Dest: KindModeDeclaration.Tag(), Path: Path(g) + "/" + g.InitialMode})
	}
	if len(g.Modes) > 0 {
		list := el.CreateElement("MODE-DECLARATIONS")
		for _, m := range g.Modes {
			withName(list, "MODE-DECLARATION", m.name)
		}
	}
}

func writeComponent(parent *etree.Element, c *SwComponentType) {
	el := withName(parent, c.kind.Tag(), c.name)
	if len(c.Ports) > 0 {
		list := el.CreateElement("PORTS")
		for _, p := range c.Ports {
			writePort(list, p)
		}
	}
	if len(c.Components) > 0 {
		list := el.CreateElement("COMPONENTS")
		for _, cp := range c.Components {
			writeRef(withName(list, "SW-COMPONENT-PROTOTYPE", cp.name), "TYPE-TREF", cp.TypeRef)
		}
	}
	if len(c.Assemblies)+len(c.Delegates) > 0 {
		list := el.CreateElement("CONNECTORS")
		for _, a := range c.Assemblies {
			writeAssembly(list, a)
		}
		for _, d := range c.Delegates {
			writeDelegation(list, d)
		}
	}
	if c.Behavior != nil {
		writeBehavior(el.CreateElement("INTERNAL-BEHAVIORS"), c.Behavior)
	}
}

func writePort(parent *etree.Element, p *Port) {
	el := withName(parent, p.kind.Tag(), p.name)
	switch p.kind {
	case KindProvidePort:
		writeComSpecs(el, "PROVIDED-COM-SPECS", p.ComSpecs)
		writeRef(el, "PROVIDED-INTERFACE-TREF", p.InterfaceRef)
	case KindRequirePort:
		writeComSpecs(el, "REQUIRED-COM-SPECS", p.ComSpecs)
		writeRef(el, "REQUIRED-INTERFACE-TREF", p.InterfaceRef)
	default:
		writeRef(el, "PROVIDED-REQUIRED-INTERFACE-TREF", p.InterfaceRef)
	}
}

func writeComSpecs(parent *etree.Element, tag string, specs []*ComSpec) {
	if len(specs) == 0 {
		return
	}
	list := parent.CreateElement(tag)
	for _, cs := range specs {
		el := list.CreateElement(cs.kind.Tag())
		switch cs.kind {
		case KindServerComSpec, KindClientComSpec:
			writeRef(el, "OPERATION-REF", cs.ElementRef)
		default:
			writeRef(el, "DATA-ELEMENT-REF", cs.ElementRef)
		}
		optFloat(el, "ALIVE-TIMEOUT", cs.AliveTimeout)
		optInt(el, "QUEUE-LENGTH", cs.QueueLength)
		if cs.InitValue != nil {
			writeValue(el.CreateElement("INIT-VALUE"), cs.InitValue)
		}
	}
}

func writeAssembly(parent *etree.Element, a *AssemblyConnector) {
	el := withName(parent, "ASSEMBLY-SW-CONNECTOR", a.name)
	prov := el.CreateElement("PROVIDER-IREF")
	writeRef(prov, "CONTEXT-COMPONENT-REF", a.Provider)
	writeRef(prov, "TARGET-P-PORT-REF", a.ProviderPort)
	req := el.CreateElement("REQUESTER-IREF")
	writeRef(req, "CONTEXT-COMPONENT-REF", a.Requester)
	writeRef(req, "TARGET-R-PORT-REF", a.RequesterPort)
}

func writeDelegation(parent *etree.Element, d *DelegationConnector) {
	el := withName(parent, "DELEGATION-SW-CONNECTOR", d.name)
	inner := el.CreateElement("INNER-PORT-IREF")
	if d.InnerPort.Kind() == KindRequirePort {
		iref := inner.CreateElement("R-PORT-IN-COMPOSITION-INSTANCE-REF")
		writeRef(iref, "CONTEXT-COMPONENT-REF", d.Inner)
		writeRef(iref, "TARGET-R-PORT-REF", d.InnerPort)
	} else {
		iref := inner.CreateElement("P-PORT-IN-COMPOSITION-INSTANCE-REF")
		writeRef(iref, "CONTEXT-COMPONENT-REF", d.Inner)
		writeRef(iref, "TARGET-P-PORT-REF", d.InnerPort)
	}
	writeRef(el, "OUTER-PORT-REF", d.OuterPort)
}

func writeBehavior(parent *etree.Element, b *InternalBehavior) {
	el := withName(parent, "SWC-INTERNAL-BEHAVIOR", b.name)
	if len(b.Events) > 0 {
		list := el.CreateElement("EVENTS")
		for _, ev := range b.Events {
			writeEvent(list, ev)
		}
	}
	if len(b.Runnables) > 0 {
		list := el.CreateElement("RUNNABLES")
		for _, r := range b.Runnables {
			rel := withName(list, "RUNNABLE-ENTITY", r.name)
			text(rel, "CAN-BE-INVOKED-CONCURRENTLY", strconv.FormatBool(r.CanBeInvokedConcurrently))
			text(rel, "SYMBOL", r.Symbol)
		}
	}
}

func writeEvent(parent *etree.Element, ev *Event) {
	el := withName(parent, ev.kind.Tag(), ev.name)
	writeRef(el, "START-ON-EVENT-REF", ev.StartOn)
	switch ev.kind {
	case KindTimingEvent:
		text(el, "PERIOD", formatFloat(ev.Period))
	case KindDataReceivedEvent:
		iref := el.CreateElement("DATA-IREF")
		writeRef(iref, "CONTEXT-R-PORT-REF", ev.Port)
		writeRef(iref, "TARGET-DATA-ELEMENT-REF", ev.Target)
	case KindOperationInvokedEvent:
		iref := el.CreateElement("OPERATION-IREF")
		writeRef(iref, "CONTEXT-P-PORT-REF", ev.Port)
		writeRef(iref, "TARGET-PROVIDED-OPERATION-REF", ev.Target)
	case KindModeSwitchEvent:
		text(el, "ACTIVATION", ev.Activation)
		iref := el.CreateElement("MODE-IREFS").CreateElement("MODE-IREF")
		writeRef(iref, "CONTEXT-PORT-REF", ev.Port)
		writeRef(iref, "CONTEXT-MODE-DECLARATION-GROUP-PROTOTYPE-REF", ev.ModeGroup)
		writeRef(iref, "TARGET-MODE-DECLARATION-REF", ev.Target)
	}
}
