package arxml

import (
	"errors"
	"testing"
)

// =============================================================================
// Helpers
// =============================================================================

type fixture struct {
	ws       *Workspace
	types    *Package
	ifaces   *Package
	comps    *Package
	uint8    *SwBaseType
	idt      *ImplementationDataType
	speedIf  *SenderReceiverInterface
	speed    *DataElement
	calcIf   *ClientServerInterface
	add      *Operation
	provider *SwComponentType
	receiver *SwComponentType
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{ws: NewWorkspace()}
	pkgs, err := f.ws.CreatePackageMap(map[string]string{
		"PlatformBaseTypes": "/AUTOSAR_Platform/BaseTypes",
		"PlatformImplTypes": "/AUTOSAR_Platform/ImplementationDataTypes",
		"PortInterfaces":    "/PortInterfaces",
		"ComponentTypes":    "/ComponentTypes",
	})
	if err != nil {
		t.Fatalf("CreatePackageMap: %v", err)
	}
	f.types = pkgs["PlatformImplTypes"]
	f.ifaces = pkgs["PortInterfaces"]
	f.comps = pkgs["ComponentTypes"]

	f.uint8 = NewSwBaseType("uint8")
	size := 8
	f.uint8.Size = &size
	must(t, pkgs["PlatformBaseTypes"].Append(f.uint8))

	f.idt = NewImplementationDataType("uint8", CategoryValue)
	f.idt.BaseTypeRef = RefTo(f.uint8)
	must(t, f.types.Append(f.idt))

	f.speedIf = NewSenderReceiverInterface("VehicleSpeed_I")
	must(t, f.ifaces.Append(f.speedIf))
	if f.speed, err = f.speedIf.CreateDataElement("VehicleSpeed", RefTo(f.idt)); err != nil {
		t.Fatalf("CreateDataElement: %v", err)
	}

	f.calcIf = NewClientServerInterface("Calc_I")
	must(t, f.ifaces.Append(f.calcIf))
	if f.add, err = f.calcIf.CreateOperation("Add"); err != nil {
		t.Fatalf("CreateOperation: %v", err)
	}

	f.provider, err = NewComponent("SpeedSensor", KindSensorActuatorComponent)
	must(t, err)
	must(t, f.comps.Append(f.provider))
	f.receiver, err = NewComponent("SpeedDisplay", KindApplicationComponent)
	must(t, err)
	must(t, f.comps.Append(f.receiver))
	return f
}

func must(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

// =============================================================================
// Names and paths
// =============================================================================

func TestValidateName_WhenLegal_ShouldAccept(t *testing.T) {
	for _, name := range []string{"A", "uint8", "Vehicle_Speed_I", "x1"} {
		if err := ValidateName(name); err != nil {
			t.Errorf("ValidateName(%q) = %v, want nil", name, err)
		}
	}
}

func TestValidateName_WhenIllegal_ShouldReject(t *testing.T) {
	for _, name := range []string{"", "1abc", "_x", "has space", "a/b", "ä"} {
		if err := ValidateName(name); !errors.Is(err, ErrInvalidName) {
			t.Errorf("ValidateName(%q) = %v, want ErrInvalidName", name, err)
		}
	}
}

func TestPath_ShouldJoinAncestors(t *testing.T) {
	f := newFixture(t)

	if got := Path(f.speed); got != "/PortInterfaces/VehicleSpeed_I/VehicleSpeed" {
		t.Errorf("Path = %q", got)
	}
	if got := Path(f.idt); got != "/AUTOSAR_Platform/ImplementationDataTypes/uint8" {
		t.Errorf("Path = %q", got)
	}
}

func TestRef_Within_ShouldMatchDirectChildrenOnly(t *testing.T) {
	r := Ref{Path: "/P/I/E"}
	if !r.Within("/P/I") {
		t.Error("expected /P/I/E within /P/I")
	}
	if r.Within("/P") {
		t.Error("grandchild must not count as within")
	}
	if r.Within("/P/In") {
		t.Error("prefix of a sibling name must not match")
	}
}

// =============================================================================
// Packages and workspace
// =============================================================================

func TestPackage_Append_WhenDuplicateName_ShouldFail(t *testing.T) {
	f := newFixture(t)

	err := f.ifaces.Append(NewSenderReceiverInterface("VehicleSpeed_I"))

	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestPackage_Append_WhenNameCollidesWithSubPackage_ShouldFail(t *testing.T) {
	ws := NewWorkspace()
	p, err := ws.MakePackages("/Root/Sub")
	must(t, err)

	err = p.Parent().(*Package).Append(NewUnit("Sub"))

	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestPackage_Append_WhenNotPackageable_ShouldFail(t *testing.T) {
	f := newFixture(t)

	err := f.ifaces.Append(&DataElement{base: base{name: "Loose"}})

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestWorkspace_MakePackages_ShouldReuseExisting(t *testing.T) {
	ws := NewWorkspace()
	a, err := ws.MakePackages("/A/B")
	must(t, err)
	b, err := ws.MakePackages("A/B/")
	must(t, err)

	if a != b {
		t.Fatal("expected the same package for the same path")
	}
	if len(ws.Packages) != 1 {
		t.Fatalf("expected 1 root package, got %d", len(ws.Packages))
	}
}

func TestWorkspace_CreatePackageMap_WhenOnePathInvalid_ShouldCreateNothing(t *testing.T) {
	ws := NewWorkspace()

	_, err := ws.CreatePackageMap(map[string]string{"Good": "/Good", "Bad": "/Bad/9x"})

	if !errors.Is(err, ErrInvalidPath) {
		t.Fatalf("expected ErrInvalidPath, got %v", err)
	}
	if len(ws.Packages) != 0 {
		t.Fatalf("expected no packages, got %d", len(ws.Packages))
	}
}

func TestWorkspace_PackageByKey_WhenUnknown_ShouldFail(t *testing.T) {
	ws := NewWorkspace()

	_, err := ws.PackageByKey("Nope")

	if !errors.Is(err, ErrUnknownPackageKey) {
		t.Fatalf("expected ErrUnknownPackageKey, got %v", err)
	}
}

func TestWorkspace_Find(t *testing.T) {
	f := newFixture(t)

	tests := []struct {
		path string
		want Element
	}{
		{"/PortInterfaces/VehicleSpeed_I", f.speedIf},
		{"/PortInterfaces/VehicleSpeed_I/VehicleSpeed", f.speed},
		{"/PortInterfaces/Calc_I/Add", f.add},
		{"/ComponentTypes", f.comps},
		{"/PortInterfaces/Missing", nil},
		{"/Nowhere/X", nil},
	}
	for _, tt := range tests {
		got, err := f.ws.Find(tt.path)
		if err != nil {
			t.Errorf("Find(%q) error: %v", tt.path, err)
			continue
		}
		if got != tt.want {
			t.Errorf("Find(%q) = %v, want %v", tt.path, got, tt.want)
		}
	}
}

func TestWorkspace_Merge_ShouldFoldIntoExistingRoots(t *testing.T) {
	f := newFixture(t)
	extra := NewPackage("PortInterfaces")
	must(t, extra.Append(NewSenderReceiverInterface("Other_I")))

	must(t, f.ws.Merge([]*Package{extra, NewPackage("NewRoot")}))

	if f.ws.RootPackage("NewRoot") == nil {
		t.Error("expected NewRoot to be appended")
	}
	got, _ := f.ws.Find("/PortInterfaces/Other_I")
	if got == nil {
		t.Fatal("expected Other_I merged into PortInterfaces")
	}
	if got.Parent() != f.ifaces {
		t.Error("merged element should be re-parented")
	}
}

// =============================================================================
// Data types
// =============================================================================

func TestImplementationDataType_WhenTypeReferenceWithoutTarget_ShouldFail(t *testing.T) {
	f := newFixture(t)

	err := f.types.Append(NewImplementationDataType("Speed_T", CategoryTypeReference))

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestImplementationDataType_WhenUnknownCategory_ShouldFail(t *testing.T) {
	f := newFixture(t)

	err := f.types.Append(NewImplementationDataType("Speed_T", "BOGUS"))

	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

func TestParseByteOrder(t *testing.T) {
	tests := map[string]ByteOrder{
		"BIG_ENDIAN":                  ByteOrderMostSignificantFirst,
		"LITTLE_ENDIAN":               ByteOrderMostSignificantLast,
		"OPAQUE":                      ByteOrderOpaque,
		"MOST-SIGNIFICANT-BYTE-LAST":  ByteOrderMostSignificantLast,
		"MOST-SIGNIFICANT-BYTE-FIRST": ByteOrderMostSignificantFirst,
	}
	for in, want := range tests {
		got, err := ParseByteOrder(in)
		if err != nil || got != want {
			t.Errorf("ParseByteOrder(%q) = %q, %v; want %q", in, got, err, want)
		}
	}
	if _, err := ParseByteOrder("MIDDLE"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue, got %v", err)
	}
}

func TestMakeValue(t *testing.T) {
	v, err := MakeValue([]any{float64(1), 2.5, true, "x", []any{}})
	must(t, err)

	if v.Kind != ValueArray || len(v.Elements) != 5 {
		t.Fatalf("unexpected value: %+v", v)
	}
	want := []string{"1", "2.5", "1", "x"}
	for i, w := range want {
		if v.Elements[i].Value != w {
			t.Errorf("element %d = %q, want %q", i, v.Elements[i].Value, w)
		}
	}
	if v.Elements[3].Kind != ValueText {
		t.Error("string should become a text value")
	}
}

func TestMakeValue_WhenObject_ShouldFail(t *testing.T) {
	_, err := MakeValue(map[string]any{"a": 1})

	if !errors.Is(err, ErrInvalidValue) {
		t.Fatalf("expected ErrInvalidValue, got %v", err)
	}
}

// =============================================================================
// Interfaces
// =============================================================================

func TestClientServerInterface_ErrorsAndOperationsShareNamespace(t *testing.T) {
	f := newFixture(t)

	_, err := f.calcIf.CreateApplicationError("Add", 1)

	if !errors.Is(err, ErrDuplicateName) {
		t.Fatalf("expected ErrDuplicateName, got %v", err)
	}
}

func TestOperation_AddPossibleError_WhenFromOtherInterface_ShouldFail(t *testing.T) {
	f := newFixture(t)
	other := NewClientServerInterface("Other_I")
	must(t, f.ifaces.Append(other))
	foreign, err := other.CreateApplicationError("E_FOREIGN", 2)
	must(t, err)

	err = f.add.AddPossibleError(foreign)

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestOperation_CreateArgument_ShouldKeepOrder(t *testing.T) {
	f := newFixture(t)
	for _, name := range []string{"a", "b", "result"} {
		dir := DirectionIn
		if name == "result" {
			dir = DirectionOut
		}
		_, err := f.add.CreateArgument(name, RefTo(f.idt), dir)
		must(t, err)
	}

	if len(f.add.Arguments) != 3 || f.add.Arguments[2].Direction != DirectionOut {
		t.Fatalf("unexpected arguments: %+v", f.add.Arguments)
	}
	if _, err := f.add.CreateArgument("c", RefTo(f.idt), "SIDEWAYS"); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for bad direction, got %v", err)
	}
}

func TestModeDeclarationGroup_ShouldDefaultInitialModeToFirst(t *testing.T) {
	g, err := NewModeDeclarationGroup("EcuMode", []string{"STARTUP", "RUN", "SHUTDOWN"}, "")
	must(t, err)

	if g.InitialMode != "STARTUP" {
		t.Errorf("InitialMode = %q, want STARTUP", g.InitialMode)
	}
	if _, err := NewModeDeclarationGroup("EcuMode", []string{"A"}, "B"); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("expected ErrInvalidStructure for unknown initial mode, got %v", err)
	}
	if _, err := NewModeDeclarationGroup("EcuMode", []string{"A", "A"}, ""); !errors.Is(err, ErrDuplicateName) {
		t.Errorf("expected ErrDuplicateName for repeated mode, got %v", err)
	}
}

// =============================================================================
// Components
// =============================================================================

func TestComponent_CreatePort_WhenNotInterface_ShouldFail(t *testing.T) {
	f := newFixture(t)

	_, err := f.provider.CreatePort("Speed", KindProvidePort, RefTo(f.idt))

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestPort_CreateComSpec_ShouldPickKindFromDirection(t *testing.T) {
	f := newFixture(t)
	pp, err := f.provider.CreatePort("Speed", KindProvidePort, RefTo(f.speedIf))
	must(t, err)
	rp, err := f.receiver.CreatePort("Speed", KindRequirePort, RefTo(f.speedIf))
	must(t, err)
	cp, err := f.receiver.CreatePort("Calc", KindRequirePort, RefTo(f.calcIf))
	must(t, err)

	zero, _ := MakeValue(float64(0))
	sender, err := pp.CreateComSpec(f.speed, ComSpecOptions{InitValue: zero})
	must(t, err)
	length := 4
	receiver, err := rp.CreateComSpec(f.speed, ComSpecOptions{Queued: true, QueueLength: &length})
	must(t, err)
	client, err := cp.CreateComSpec(f.add, ComSpecOptions{})
	must(t, err)

	if sender.Kind() != KindNonqueuedSenderComSpec {
		t.Errorf("sender kind = %s", sender.Kind())
	}
	if receiver.Kind() != KindQueuedReceiverComSpec {
		t.Errorf("receiver kind = %s", receiver.Kind())
	}
	if client.Kind() != KindClientComSpec {
		t.Errorf("client kind = %s", client.Kind())
	}
}

func TestPort_CreateComSpec_WhenElementOfOtherInterface_ShouldFail(t *testing.T) {
	f := newFixture(t)
	rp, err := f.receiver.CreatePort("Calc", KindRequirePort, RefTo(f.calcIf))
	must(t, err)

	_, err = rp.CreateComSpec(f.speed, ComSpecOptions{})

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestPort_CreateComSpec_WhenQueueLengthOnSender_ShouldFail(t *testing.T) {
	f := newFixture(t)
	pp, err := f.provider.CreatePort("Speed", KindProvidePort, RefTo(f.speedIf))
	must(t, err)
	length := 2

	_, err = pp.CreateComSpec(f.speed, ComSpecOptions{QueueLength: &length})

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func composition(t *testing.T, f *fixture) (*SwComponentType, *ComponentPrototype, *ComponentPrototype) {
	t.Helper()
	comp, err := NewComponent("Cluster", KindCompositionComponent)
	must(t, err)
	must(t, f.comps.Append(comp))
	sensor, err := comp.CreateComponentPrototype("Sensor", f.provider)
	must(t, err)
	display, err := comp.CreateComponentPrototype("Display", f.receiver)
	must(t, err)
	return comp, sensor, display
}

func TestComposition_CreateAssemblyConnector_ShouldDeriveName(t *testing.T) {
	f := newFixture(t)
	pp, err := f.provider.CreatePort("SpeedOut", KindProvidePort, RefTo(f.speedIf))
	must(t, err)
	rp, err := f.receiver.CreatePort("SpeedIn", KindRequirePort, RefTo(f.speedIf))
	must(t, err)
	comp, sensor, display := composition(t, f)

	conn, err := comp.CreateAssemblyConnector("", sensor, pp, display, rp)
	must(t, err)

	if conn.Name() != "Sensor_SpeedOut_Display_SpeedIn" {
		t.Errorf("name = %q", conn.Name())
	}
	if conn.ProviderPort.Path != "/ComponentTypes/SpeedSensor/SpeedOut" {
		t.Errorf("provider port ref = %q", conn.ProviderPort.Path)
	}
}

func TestComposition_CreateAssemblyConnector_WhenPortsSwapped_ShouldFail(t *testing.T) {
	f := newFixture(t)
	pp, err := f.provider.CreatePort("SpeedOut", KindProvidePort, RefTo(f.speedIf))
	must(t, err)
	rp, err := f.receiver.CreatePort("SpeedIn", KindRequirePort, RefTo(f.speedIf))
	must(t, err)
	comp, sensor, display := composition(t, f)

	_, err = comp.CreateAssemblyConnector("", sensor, rp, display, pp)

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestComposition_CreateDelegationConnector_WhenInterfaceDiffers_ShouldFail(t *testing.T) {
	f := newFixture(t)
	rp, err := f.receiver.CreatePort("SpeedIn", KindRequirePort, RefTo(f.speedIf))
	must(t, err)
	comp, _, display := composition(t, f)
	outer, err := comp.CreatePort("CalcIn", KindRequirePort, RefTo(f.calcIf))
	must(t, err)

	_, err = comp.CreateDelegationConnector("", display, rp, outer)

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestAtomicComponent_CreateComponentPrototype_ShouldFail(t *testing.T) {
	f := newFixture(t)

	_, err := f.receiver.CreateComponentPrototype("X", f.provider)

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

// =============================================================================
// Behavior
// =============================================================================

func TestInternalBehavior_AtMostOnePerComponent(t *testing.T) {
	f := newFixture(t)

	b, err := f.receiver.CreateInternalBehavior("")
	must(t, err)
	_, err = f.receiver.CreateInternalBehavior("Again")

	if b.Name() != "SpeedDisplay_InternalBehavior" {
		t.Errorf("default behavior name = %q", b.Name())
	}
	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestInternalBehavior_Events(t *testing.T) {
	f := newFixture(t)
	rp, err := f.receiver.CreatePort("SpeedIn", KindRequirePort, RefTo(f.speedIf))
	must(t, err)
	b, err := f.receiver.CreateInternalBehavior("")
	must(t, err)
	r, err := b.CreateRunnable("Display_Run", "", false)
	must(t, err)

	tmt, err := b.CreateTimingEvent("", r, 0.01)
	must(t, err)
	drt, err := b.CreateDataReceivedEvent("", r, rp, f.speed)
	must(t, err)
	it, err := b.CreateInitEvent("", r)
	must(t, err)

	if r.Symbol != "Display_Run" {
		t.Errorf("symbol = %q", r.Symbol)
	}
	for ev, want := range map[*Event]string{tmt: "TMT_Display_Run", drt: "DRT_Display_Run_SpeedIn_VehicleSpeed", it: "IT_Display_Run"} {
		if ev.Name() != want {
			t.Errorf("event name = %q, want %q", ev.Name(), want)
		}
	}
	if _, err := b.CreateTimingEvent("Bad", r, 0); !errors.Is(err, ErrInvalidValue) {
		t.Errorf("expected ErrInvalidValue for zero period, got %v", err)
	}
}

func TestInternalBehavior_WhenPortOfOtherComponent_ShouldFail(t *testing.T) {
	f := newFixture(t)
	foreign, err := f.provider.CreatePort("SpeedOut", KindProvidePort, RefTo(f.speedIf))
	must(t, err)
	b, err := f.receiver.CreateInternalBehavior("")
	must(t, err)
	r, err := b.CreateRunnable("Run", "", false)
	must(t, err)

	_, err = b.CreateDataReceivedEvent("", r, foreign, f.speed)

	if !errors.Is(err, ErrInvalidStructure) {
		t.Fatalf("expected ErrInvalidStructure, got %v", err)
	}
}

func TestInternalBehavior_ModeSwitchEvent(t *testing.T) {
	f := newFixture(t)
	g, err := NewModeDeclarationGroup("EcuMode", []string{"RUN", "SLEEP"}, "")
	must(t, err)
	must(t, f.ifaces.Append(g))
	msi, err := NewModeSwitchInterface("EcuMode_I", RefTo(g), "")
	must(t, err)
	must(t, f.ifaces.Append(msi))
	rp, err := f.receiver.CreatePort("Mode", KindRequirePort, RefTo(msi))
	must(t, err)
	b, err := f.receiver.CreateInternalBehavior("")
	must(t, err)
	r, err := b.CreateRunnable("OnSleep", "", false)
	must(t, err)

	ev, err := b.CreateModeSwitchEvent("", r, rp, msi, g.Mode("SLEEP"), ActivationOnExit)
	must(t, err)

	if ev.Name() != "MST_OnSleep_Mode_SLEEP" {
		t.Errorf("name = %q", ev.Name())
	}
	if ev.ModeGroup.Path != "/PortInterfaces/EcuMode_I/mode" {
		t.Errorf("mode group ref = %q", ev.ModeGroup.Path)
	}
	other, err := NewModeDeclarationGroup("Other", []string{"X"}, "")
	must(t, err)
	must(t, f.ifaces.Append(other))
	if _, err := b.CreateModeSwitchEvent("", r, rp, msi, other.Mode("X"), ""); !errors.Is(err, ErrInvalidStructure) {
		t.Errorf("expected ErrInvalidStructure for foreign mode, got %v", err)
	}
}
