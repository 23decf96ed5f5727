package arxml

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/beevik/etree"
)

// File is the content of one ARXML file.
type File struct {
	SchemaVersion int
	Packages      []*Package
	// Skipped lists "TAG /Path" for every element the reader does not model.
	Skipped []string
}

var schemaLocation = regexp.MustCompile(`AUTOSAR_0*(\d+)\.xsd`)

// ReadFile parses an ARXML file.
func ReadFile(path string) (*File, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromFile(path); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, path, err)
	}
	return parseDocument(doc)
}

// Read parses ARXML from r.
func Read(r io.Reader) (*File, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	return parseDocument(doc)
}

func parseDocument(doc *etree.Document) (*File, error) {
	root := doc.Root()
	if root == nil || root.Tag != "AUTOSAR" {
		return nil, fmt.Errorf("%w: root element is not AUTOSAR", ErrParse)
	}
	f := &File{}
	for _, a := range root.Attr {
		if a.Key == "schemaLocation" {
			if m := schemaLocation.FindStringSubmatch(a.Value); m != nil {
				f.SchemaVersion, _ = strconv.Atoi(m[1])
			}
		}
	}
	r := &reader{file: f}
	if list := root.SelectElement("AR-PACKAGES"); list != nil {
		seen := make(map[string]bool)
		for _, el := range list.SelectElements("AR-PACKAGE") {
			p, err := r.pkg(el, nil)
			if err != nil {
				return nil, err
			}
			if seen[p.Name()] {
				return nil, fmt.Errorf("%w: root package /%s", ErrDuplicateName, p.Name())
			}
			seen[p.Name()] = true
			f.Packages = append(f.Packages, p)
		}
	}
	return f, nil
}

type reader struct {
	file *File
}

func (r *reader) skip(el *etree.Element, parent string) {
	name := shortNameOf(el)
	r.file.Skipped = append(r.file.Skipped, el.Tag+" "+parent+"/"+name)
}

func shortNameOf(el *etree.Element) string {
	if sn := el.SelectElement("SHORT-NAME"); sn != nil {
		return strings.TrimSpace(sn.Text())
	}
	return ""
}

func childText(el *etree.Element, tag string) string {
	if c := el.SelectElement(tag); c != nil {
		return strings.TrimSpace(c.Text())
	}
	return ""
}

func childRef(el *etree.Element, tag string) Ref {
	c := el.SelectElement(tag)
	if c == nil {
		return Ref{}
	}
	return Ref{Dest: c.SelectAttrValue("DEST", ""), Path: strings.TrimSpace(c.Text())}
}

func childInt(el *etree.Element, tag string) (*int, error) {
	s := childText(el, tag)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, tag, err)
	}
	return &v, nil
}

func childFloat(el *etree.Element, tag string) (*float64, error) {
	s := childText(el, tag)
	if s == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, tag, err)
	}
	return &v, nil
}

// children returns the element children of the named list child of el.
func children(el *etree.Element, list string) []*etree.Element {
	if c := el.SelectElement(list); c != nil {
		return c.ChildElements()
	}
	return nil
}

func (r *reader) pkg(el *etree.Element, parent *Package) (*Package, error) {
	p := NewPackage(shortNameOf(el))
	if err := ValidateName(p.name); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}
	if parent != nil {
		if err := parent.Append(p); err != nil {
			return nil, err
		}
	}
	for _, child := range children(el, "ELEMENTS") {
		e, err := r.element(child, p)
		if err != nil {
			return nil, err
		}
		if e == nil {
			r.skip(child, Path(p))
			continue
		}
		if v, ok := e.(validator); ok && v.validate() != nil {
			r.skip(child, Path(p))
			continue
		}
		if err := p.Append(e); err != nil {
			return nil, err
		}
	}
	for _, child := range children(el, "AR-PACKAGES") {
		if _, err := r.pkg(child, p); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// element decodes a packageable element, or returns nil for tags the model
// does not cover.
func (r *reader) element(el *etree.Element, pkg *Package) (Element, error) {
	name := shortNameOf(el)
	switch el.Tag {
	case "SW-BASE-TYPE":
		return readBaseType(el, name)
	case "IMPLEMENTATION-DATA-TYPE":
		t := NewImplementationDataType(name, childText(el, "CATEGORY"))
		if cond := el.FindElement("SW-DATA-DEF-PROPS/SW-DATA-DEF-PROPS-VARIANTS/SW-DATA-DEF-PROPS-CONDITIONAL"); cond != nil {
			t.BaseTypeRef = childRef(cond, "BASE-TYPE-REF")
			t.TypeRef = childRef(cond, "IMPLEMENTATION-DATA-TYPE-REF")
		}
		return t, nil
	case "UNIT":
		return readUnit(el, name)
	case "CONSTANT-SPECIFICATION":
		c := &ConstantSpecification{base: base{name: name}}
		if vs := el.SelectElement("VALUE-SPEC"); vs != nil {
			c.Value = readValue(vs.ChildElements())
		}
		return c, nil
	case "SENDER-RECEIVER-INTERFACE":
		i := NewSenderReceiverInterface(name)
		for _, de := range children(el, "DATA-ELEMENTS") {
			i.DataElements = append(i.DataElements, &DataElement{
				base:    base{name: shortNameOf(de), parent: i},
				TypeRef: childRef(de, "TYPE-TREF"),
			})
		}
		return i, nil
	case "CLIENT-SERVER-INTERFACE":
		return readClientServer(el, name)
	case "MODE-DECLARATION-GROUP":
		g := &ModeDeclarationGroup{base: base{name: name}}
		for _, m := range children(el, "MODE-DECLARATIONS") {
			g.Modes = append(g.Modes, &ModeDeclaration{base: base{name: shortNameOf(m), parent: g}})
		}
		g.InitialMode = childRef(el, "INITIAL-MODE-REF").Name()
		return g, nil
	case "MODE-SWITCH-INTERFACE":
		i := &ModeSwitchInterface{base: base{name: name}}
		if mg := el.SelectElement("MODE-GROUP"); mg != nil {
			i.ModeGroup = &ModeGroupPrototype{base: base{name: shortNameOf(mg), parent: i}, TypeRef: childRef(mg, "TYPE-TREF")}
		}
		return i, nil
	}
	if kind, ok := KindOfTag(el.Tag); ok && kind.IsComponent() {
		return r.component(el, name, kind, pkg)
	}
	return nil, nil
}

func readBaseType(el *etree.Element, name string) (*SwBaseType, error) {
	t := NewSwBaseType(name)
	if c := childText(el, "CATEGORY"); c != "" {
		t.Category = c
	}
	var err error
	if t.Size, err = childInt(el, "BASE-TYPE-SIZE"); err != nil {
		return nil, err
	}
	if t.MaxSize, err = childInt(el, "MAX-BASE-TYPE-SIZE"); err != nil {
		return nil, err
	}
	if t.Alignment, err = childInt(el, "MEM-ALIGNMENT"); err != nil {
		return nil, err
	}
	t.Encoding = childText(el, "BASE-TYPE-ENCODING")
	t.ByteOrder = ByteOrder(childText(el, "BYTE-ORDER"))
	t.NativeDeclaration = childText(el, "NATIVE-DECLARATION")
	return t, nil
}

func readUnit(el *etree.Element, name string) (*Unit, error) {
	u := NewUnit(name)
	u.DisplayName = childText(el, "DISPLAY-NAME")
	var err error
	if u.Factor, err = childFloat(el, "FACTOR-SI-TO-UNIT"); err != nil {
		return nil, err
	}
	if u.Offset, err = childFloat(el, "OFFSET-SI-TO-UNIT"); err != nil {
		return nil, err
	}
	u.PhysicalDimensionRef = childRef(el, "PHYSICAL-DIMENSION-REF")
	return u, nil
}

// readValue decodes the first value specification among els.
func readValue(els []*etree.Element) *ValueSpec {
	for _, el := range els {
		switch el.Tag {
		case "NUMERICAL-VALUE-SPECIFICATION":
			return &ValueSpec{Kind: ValueNumerical, Value: childText(el, "VALUE")}
		case "TEXT-VALUE-SPECIFICATION":
			return &ValueSpec{Kind: ValueText, Value: childText(el, "VALUE")}
		case "ARRAY-VALUE-SPECIFICATION":
			out := &ValueSpec{Kind: ValueArray}
			for _, item := range children(el, "ELEMENTS") {
				if v := readValue([]*etree.Element{item}); v != nil {
					out.Elements = append(out.Elements, v)
				}
			}
			return out
		case "CONSTANT-REFERENCE":
			return &ValueSpec{Kind: ValueConstantReference, ConstantRef: childRef(el, "CONSTANT-REF")}
		}
	}
	return nil
}

func readClientServer(el *etree.Element, name string) (*ClientServerInterface, error) {
	i := NewClientServerInterface(name)
	for _, oel := range children(el, "OPERATIONS") {
		op := &Operation{base: base{name: shortNameOf(oel), parent: i}}
		for _, ael := range children(oel, "ARGUMENTS") {
			op.Arguments = append(op.Arguments, &Argument{
				base:      base{name: shortNameOf(ael), parent: op},
				TypeRef:   childRef(ael, "TYPE-TREF"),
				Direction: ArgumentDirection(childText(ael, "DIRECTION")),
			})
		}
		for _, rel := range children(oel, "POSSIBLE-ERROR-REFS") {
			op.PossibleErrors = append(op.PossibleErrors, Ref{Dest: rel.SelectAttrValue("DEST", ""), Path: strings.TrimSpace(rel.Text())})
		}
		i.Operations = append(i.Operations, op)
	}
	for _, eel := range children(el, "POSSIBLE-ERRORS") {
		code, err := childInt(eel, "ERROR-CODE")
		if err != nil {
			return nil, err
		}
		ae := &ApplicationError{base: base{name: shortNameOf(eel), parent: i}}
		if code != nil {
			ae.Code = *code
		}
		i.Errors = append(i.Errors, ae)
	}
	return i, nil
}

func (r *reader) component(el *etree.Element, name string, kind Kind, pkg *Package) (*SwComponentType, error) {
	c := &SwComponentType{base: base{name: name}, kind: kind}
	where := Path(pkg) + "/" + name
	for _, pel := range children(el, "PORTS") {
		pk, ok := KindOfTag(pel.Tag)
		if !ok || !pk.IsPort() {
			r.skip(pel, where)
			continue
		}
		p := &Port{base: base{name: shortNameOf(pel), parent: c}, kind: pk}
		switch pk {
		case KindProvidePort:
			p.InterfaceRef = childRef(pel, "PROVIDED-INTERFACE-TREF")
			specs, err := r.comSpecs(children(pel, "PROVIDED-COM-SPECS"), p, where)
			if err != nil {
				return nil, err
			}
			p.ComSpecs = specs
		case KindRequirePort:
			p.InterfaceRef = childRef(pel, "REQUIRED-INTERFACE-TREF")
			specs, err := r.comSpecs(children(pel, "REQUIRED-COM-SPECS"), p, where)
			if err != nil {
				return nil, err
			}
			p.ComSpecs = specs
		default:
			p.InterfaceRef = childRef(pel, "PROVIDED-REQUIRED-INTERFACE-TREF")
		}
		c.Ports = append(c.Ports, p)
	}
	for _, cel := range children(el, "COMPONENTS") {
		c.Components = append(c.Components, &ComponentPrototype{
			base:    base{name: shortNameOf(cel), parent: c},
			TypeRef: childRef(cel, "TYPE-TREF"),
		})
	}
	for _, cel := range children(el, "CONNECTORS") {
		switch cel.Tag {
		case "ASSEMBLY-SW-CONNECTOR":
			a := &AssemblyConnector{base: base{name: shortNameOf(cel), parent: c}}
			if prov := cel.SelectElement("PROVIDER-IREF"); prov != nil {
				a.Provider = childRef(prov, "CONTEXT-COMPONENT-REF")
				a.ProviderPort = childRef(prov, "TARGET-P-PORT-REF")
			}
			if req := cel.SelectElement("REQUESTER-IREF"); req != nil {
				a.Requester = childRef(req, "CONTEXT-COMPONENT-REF")
				a.RequesterPort = childRef(req, "TARGET-R-PORT-REF")
			}
			c.Assemblies = append(c.Assemblies, a)
		case "DELEGATION-SW-CONNECTOR":
			d := &DelegationConnector{base: base{name: shortNameOf(cel), parent: c}, OuterPort: childRef(cel, "OUTER-PORT-REF")}
			for _, iref := range children(cel, "INNER-PORT-IREF") {
				d.Inner = childRef(iref, "CONTEXT-COMPONENT-REF")
				if d.InnerPort = childRef(iref, "TARGET-P-PORT-REF"); d.InnerPort.IsZero() {
					d.InnerPort = childRef(iref, "TARGET-R-PORT-REF")
				}
			}
			c.Delegates = append(c.Delegates, d)
		default:
			r.skip(cel, where)
		}
	}
	behaviors := children(el, "INTERNAL-BEHAVIORS")
	for i, bel := range behaviors {
		if i > 0 || bel.Tag != "SWC-INTERNAL-BEHAVIOR" {
			r.skip(bel, where)
			continue
		}
		b, err := r.behavior(bel, c)
		if err != nil {
			return nil, err
		}
		c.Behavior = b
	}
	return c, nil
}

func (r *reader) comSpecs(els []*etree.Element, p *Port, where string) ([]*ComSpec, error) {
	var out []*ComSpec
	for _, el := range els {
		kind, ok := KindOfTag(el.Tag)
		if !ok {
			r.skip(el, where+"/"+p.name)
			continue
		}
		cs := &ComSpec{kind: kind}
		if kind == KindServerComSpec || kind == KindClientComSpec {
			cs.ElementRef = childRef(el, "OPERATION-REF")
		} else {
			cs.ElementRef = childRef(el, "DATA-ELEMENT-REF")
		}
		cs.base = base{name: cs.ElementRef.Name(), parent: p}
		var err error
		if cs.QueueLength, err = childInt(el, "QUEUE-LENGTH"); err != nil {
			return nil, err
		}
		if cs.AliveTimeout, err = childFloat(el, "ALIVE-TIMEOUT"); err != nil {
			return nil, err
		}
		if iv := el.SelectElement("INIT-VALUE"); iv != nil {
			cs.InitValue = readValue(iv.ChildElements())
		}
		out = append(out, cs)
	}
	return out, nil
}

func (r *reader) behavior(el *etree.Element, c *SwComponentType) (*InternalBehavior, error) {
	b := &InternalBehavior{base: base{name: shortNameOf(el), parent: c}}
	for _, rel := range children(el, "RUNNABLES") {
		b.Runnables = append(b.Runnables, &Runnable{
			base:                     base{name: shortNameOf(rel), parent: b},
			Symbol:                   childText(rel, "SYMBOL"),
			CanBeInvokedConcurrently: childText(rel, "CAN-BE-INVOKED-CONCURRENTLY") == "true",
		})
	}
	where := Path(c) + "/" + b.name
	for _, eel := range children(el, "EVENTS") {
		kind, ok := KindOfTag(eel.Tag)
		if !ok {
			r.skip(eel, where)
			continue
		}
		ev := &Event{base: base{name: shortNameOf(eel), parent: b}, kind: kind, StartOn: childRef(eel, "START-ON-EVENT-REF")}
		switch kind {
		case KindTimingEvent:
			period, err := childFloat(eel, "PERIOD")
			if err != nil {
				return nil, err
			}
			if period != nil {
				ev.Period = *period
			}
		case KindDataReceivedEvent:
			if iref := eel.SelectElement("DATA-IREF"); iref != nil {
				ev.Port = childRef(iref, "CONTEXT-R-PORT-REF")
				ev.Target = childRef(iref, "TARGET-DATA-ELEMENT-REF")
			}
		case KindOperationInvokedEvent:
			if iref := eel.SelectElement("OPERATION-IREF"); iref != nil {
				ev.Port = childRef(iref, "CONTEXT-P-PORT-REF")
				ev.Target = childRef(iref, "TARGET-PROVIDED-OPERATION-REF")
			}
		case KindModeSwitchEvent:
			ev.Activation = childText(eel, "ACTIVATION")
			if iref := eel.FindElement("MODE-IREFS/MODE-IREF"); iref != nil {
				ev.Port = childRef(iref, "CONTEXT-PORT-REF")
				ev.ModeGroup = childRef(iref, "CONTEXT-MODE-DECLARATION-GROUP-PROTOTYPE-REF")
				ev.Target = childRef(iref, "TARGET-MODE-DECLARATION-REF")
			}
		case KindInitEvent:
		default:
			r.skip(eel, where)
			continue
		}
		b.Events = append(b.Events, ev)
	}
	return b, nil
}
