package workspace

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

// =============================================================================
// Helpers
// =============================================================================

var ctx = context.Background()

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestManager(t *testing.T, opts ...Option) (*Manager, string) {
	t.Helper()
	root := t.TempDir()
	opts = append([]Option{WithDocumentRoot(root), WithLogger(quietLogger())}, opts...)
	return NewManager(opts...), root
}

func intp(v int) *int { return &v }

func floatp(v float64) *float64 { return &v }

func key(k string) Locator { return Locator{Package: k} }

func tgt(id string) Target { return Target{WorkspaceID: id} }

func wantType(t *testing.T, err error, want string) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s, got nil", want)
	}
	if got := faults.Classify(err); got != want {
		t.Fatalf("expected %s, got %s (%v)", want, got, err)
	}
}

// must unwraps a manager result; setup failures abort the test.
func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

// scene is a workspace with the usual platform packages, one sender-receiver
// interface and two atomic components.
type scene struct {
	m        *Manager
	root     string
	id       string
	baseType Summary
	idt      Summary
	speedIf  Summary
	speed    Summary
	sensor   Summary
	display  Summary
	sensorP  Summary
	displayR Summary
}

func newScene(t *testing.T, opts ...Option) *scene {
	t.Helper()
	m, root := newTestManager(t, opts...)
	s := &scene{m: m, root: root}
	s.id = must(m.CreateWorkspace(ctx, CreateWorkspaceRequest{})).WorkspaceID
	must(m.CreatePackageMap(ctx, PackageMapRequest{Target: tgt(s.id), Mapping: map[string]string{
		"PlatformBaseTypes": "/AUTOSAR_Platform/BaseTypes",
		"PlatformImplTypes": "/AUTOSAR_Platform/ImplementationDataTypes",
		"PortInterfaces":    "/PortInterfaces",
		"ComponentTypes":    "/ComponentTypes",
	}}))
	s.baseType = must(m.CreateBaseType(ctx, BaseTypeRequest{
		Target: tgt(s.id), Locator: key("PlatformBaseTypes"), Name: "uint8", Size: intp(8), Encoding: "NONE",
	}))
	s.idt = must(m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(s.id), Locator: key("PlatformImplTypes"), Name: "uint8", BaseType: s.baseType.Handle,
	}))
	s.speedIf = must(m.CreateSenderReceiverInterface(ctx, InterfaceRequest{
		Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "VehicleSpeed_I",
	}))
	s.speed = must(m.CreateDataElement(ctx, DataElementRequest{
		Target: tgt(s.id), Interface: s.speedIf.Handle, Name: "VehicleSpeed", Type: s.idt.Handle,
	}))
	s.sensor = must(m.CreateApplicationComponent(ctx, ComponentRequest{
		Target: tgt(s.id), Locator: key("ComponentTypes"), Name: "SpeedSensor", ComponentKind: "SENSOR_ACTUATOR",
	}))
	s.display = must(m.CreateApplicationComponent(ctx, ComponentRequest{
		Target: tgt(s.id), Locator: key("ComponentTypes"), Name: "SpeedDisplay",
	}))
	s.sensorP = must(m.CreatePort(ctx, PortRequest{
		Target: tgt(s.id), Component: s.sensor.Handle, Name: "Speed", Interface: s.speedIf.Handle, Direction: "P",
	}))
	s.displayR = must(m.CreatePort(ctx, PortRequest{
		Target: tgt(s.id), Component: s.display.Handle, Name: "Speed", Interface: s.speedIf.Handle, Direction: "R",
	}))
	return s
}

// =============================================================================
// Lifecycle
// =============================================================================

func TestManager_CreateWorkspace_ShouldReturnUniqueIDs(t *testing.T) {
	m, _ := newTestManager(t)
	shape := regexp.MustCompile(`^ws_[0-9a-f]{32}$`)

	a := must(m.CreateWorkspace(ctx, CreateWorkspaceRequest{}))
	b := must(m.CreateWorkspace(ctx, CreateWorkspaceRequest{}))

	if !shape.MatchString(a.WorkspaceID) || a.WorkspaceID == b.WorkspaceID {
		t.Errorf("unexpected ids %q and %q", a.WorkspaceID, b.WorkspaceID)
	}
	if got := len(m.Workspaces()); got != 2 {
		t.Errorf("Workspaces() has %d entries, want 2", got)
	}
}

func TestManager_DeleteWorkspace_ShouldInvalidateHandles(t *testing.T) {
	s := newScene(t)

	info := must(s.m.DeleteWorkspace(ctx, tgt(s.id)))

	if info.Invalidated == 0 {
		t.Error("expected handles to be invalidated")
	}
	if s.m.Handles() != 0 {
		t.Errorf("Handles() = %d after delete", s.m.Handles())
	}
	_, err := s.m.ListRootPackages(ctx, tgt(s.id))
	wantType(t, err, faults.TypeNotFound)
	_, err = s.m.DeleteWorkspace(ctx, tgt(s.id))
	wantType(t, err, faults.TypeNotFound)
}

func TestManager_ResetWorkspace_ShouldEmptyWorkspaceAndInvalidateHandles(t *testing.T) {
	s := newScene(t)

	info := must(s.m.ResetWorkspace(ctx, tgt(s.id)))

	if info.Invalidated == 0 {
		t.Error("expected invalidated handles")
	}
	list := must(s.m.ListRootPackages(ctx, tgt(s.id)))
	if len(list.Packages) != 0 {
		t.Errorf("expected empty workspace, got %v", list.Packages)
	}
	_, err := s.m.CreateDataElement(ctx, DataElementRequest{
		Target: tgt(s.id), Interface: s.speedIf.Handle, Name: "Other", Type: s.idt.Handle,
	})
	wantType(t, err, faults.TypeNotFound)
}

func TestManager_Sweep_ShouldRemoveIdleWorkspaces(t *testing.T) {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		return now
	}
	s := newScene(t, withClock(clock))
	fresh := must(s.m.CreateWorkspace(ctx, CreateWorkspaceRequest{})).WorkspaceID

	mu.Lock()
	now = now.Add(2 * time.Hour)
	mu.Unlock()
	must(s.m.ListRootPackages(ctx, tgt(fresh)))
	removed := s.m.Sweep(time.Hour)

	if removed != 1 {
		t.Fatalf("removed %d workspaces, want 1", removed)
	}
	if s.m.Handles() != 0 {
		t.Errorf("handles of the idle workspace survived: %d", s.m.Handles())
	}
	_, err := s.m.ListRootPackages(ctx, tgt(s.id))
	wantType(t, err, faults.TypeNotFound)
	if _, err := s.m.ListRootPackages(ctx, tgt(fresh)); err != nil {
		t.Errorf("recently used workspace was removed: %v", err)
	}
}

// =============================================================================
// Handles and references
// =============================================================================

func TestManager_WhenHandleFromOtherWorkspace_ShouldReturnNotFound(t *testing.T) {
	s := newScene(t)
	other := must(s.m.CreateWorkspace(ctx, CreateWorkspaceRequest{})).WorkspaceID
	must(s.m.CreatePackageMap(ctx, PackageMapRequest{Target: tgt(other), Mapping: map[string]string{"T": "/T"}}))

	_, err := s.m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(other), Locator: key("T"), Name: "x", BaseType: s.baseType.Handle,
	})

	wantType(t, err, faults.TypeNotFound)
}

func TestManager_WhenHandleOfWrongKind_ShouldReturnInvalidReferenceAndCreateNothing(t *testing.T) {
	s := newScene(t)

	_, err := s.m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(s.id), Locator: key("PlatformImplTypes"), Name: "broken", BaseType: s.sensorP.Handle,
	})

	wantType(t, err, faults.TypeInvalidReference)
	found := must(s.m.FindElement(ctx, FindRequest{Target: tgt(s.id), Path: "/AUTOSAR_Platform/ImplementationDataTypes/broken"}))
	if found.Found {
		t.Error("element was created despite the invalid reference")
	}
}

func TestManager_CreateArgument_WhenTypeIsPort_ShouldReturnInvalidReference(t *testing.T) {
	s := newScene(t)
	cs := must(s.m.CreateClientServerInterface(ctx, InterfaceRequest{Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "Calc_I"}))
	op := must(s.m.CreateOperation(ctx, OperationRequest{Target: tgt(s.id), Interface: cs.Handle, Name: "Add"}))

	_, err := s.m.CreateArgument(ctx, ArgumentRequest{Target: tgt(s.id), Operation: op.Handle, Name: "a", Type: s.sensorP.Handle})

	wantType(t, err, faults.TypeInvalidReference)
}

func TestManager_FindElement_ShouldReturnIssuedHandle(t *testing.T) {
	s := newScene(t)

	res := must(s.m.FindElement(ctx, FindRequest{Target: tgt(s.id), Path: "/ComponentTypes/SpeedSensor/Speed"}))
	missing := must(s.m.FindElement(ctx, FindRequest{Target: tgt(s.id), Path: "/ComponentTypes/Nope"}))

	if !res.Found || res.Element.Handle != s.sensorP.Handle {
		t.Errorf("expected the port handle %s, got %+v", s.sensorP.Handle, res.Element)
	}
	if missing.Found || missing.Element != nil {
		t.Errorf("expected not found, got %+v", missing)
	}
}

func TestManager_FindElement_WhenPathInvalid_ShouldReturnValidation(t *testing.T) {
	s := newScene(t)

	_, err := s.m.FindElement(ctx, FindRequest{Target: tgt(s.id), Path: "/"})

	wantType(t, err, faults.TypeValidation)
}

func TestManager_ListRootPackages_ShouldSummarizeRoots(t *testing.T) {
	s := newScene(t)

	list := must(s.m.ListRootPackages(ctx, tgt(s.id)))

	var names []string
	for _, p := range list.Packages {
		names = append(names, p.Path)
		if p.Kind != string(arxml.KindPackage) || p.Handle == "" {
			t.Errorf("bad summary %+v", p)
		}
	}
	sort.Strings(names)
	if strings.Join(names, ",") != "/AUTOSAR_Platform,/ComponentTypes,/PortInterfaces" {
		t.Errorf("roots = %v", names)
	}
}

// =============================================================================
// Package locator
// =============================================================================

func TestManager_Locator_Rules(t *testing.T) {
	s := newScene(t)
	pkgs := must(s.m.CreatePackageMap(ctx, PackageMapRequest{Target: tgt(s.id), Mapping: map[string]string{"Units": "/Units"}}))
	tests := []struct {
		name string
		loc  Locator
		want string
	}{
		{"neither", Locator{}, faults.TypeValidation},
		{"both", Locator{Package: "Units", PackageHandle: pkgs.Packages["Units"].Handle}, faults.TypeValidation},
		{"unknown key", Locator{Package: "Nope"}, faults.TypeNotFound},
		{"handle of non package", Locator{PackageHandle: s.sensorP.Handle}, faults.TypeInvalidReference},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.m.CreateUnit(ctx, UnitRequest{Target: tgt(s.id), Locator: tt.loc, Name: "km_per_h"})
			wantType(t, err, tt.want)
		})
	}

	u := must(s.m.CreateUnit(ctx, UnitRequest{
		Target: tgt(s.id), Locator: Locator{PackageHandle: pkgs.Packages["Units"].Handle}, Name: "km_per_h", Factor: floatp(0.2777),
	}))
	if u.Path != "/Units/km_per_h" {
		t.Errorf("unit path = %s", u.Path)
	}
}

func TestManager_CreateImplementationDataType_WhenNoLocator_ShouldUseBaseTypePackage(t *testing.T) {
	s := newScene(t)

	got := must(s.m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(s.id), Name: "uint8_T", BaseType: s.baseType.Handle,
	}))

	if got.Path != "/AUTOSAR_Platform/BaseTypes/uint8_T" {
		t.Errorf("path = %s", got.Path)
	}
}

func TestManager_CreateImplementationDataType_TypeReference(t *testing.T) {
	s := newScene(t)

	ref := must(s.m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(s.id), Locator: key("PlatformImplTypes"), Name: "Speed_T", Category: "TYPE_REFERENCE", TypeReference: s.idt.Handle,
	}))
	_, missing := s.m.CreateImplementationDataType(ctx, ImplementationTypeRequest{
		Target: tgt(s.id), Locator: key("PlatformImplTypes"), Name: "Bad_T", Category: "TYPE_REFERENCE",
	})

	if ref.Kind != string(arxml.KindImplementationDataType) {
		t.Errorf("kind = %s", ref.Kind)
	}
	wantType(t, missing, faults.TypeExternalLibrary)
}

func TestManager_WhenDuplicateName_ShouldReturnExternalLibrary(t *testing.T) {
	s := newScene(t)

	_, err := s.m.CreateBaseType(ctx, BaseTypeRequest{Target: tgt(s.id), Locator: key("PlatformBaseTypes"), Name: "uint8"})

	wantType(t, err, faults.TypeExternalLibrary)
}

func TestManager_CreateBaseType_WhenByteOrderUnknown_ShouldReturnValidation(t *testing.T) {
	s := newScene(t)

	_, err := s.m.CreateBaseType(ctx, BaseTypeRequest{Target: tgt(s.id), Locator: key("PlatformBaseTypes"), Name: "u16", ByteOrder: "MIDDLE"})

	wantType(t, err, faults.TypeValidation)
}

func TestManager_CreateConstant(t *testing.T) {
	s := newScene(t)

	c := must(s.m.CreateConstant(ctx, ConstantRequest{
		Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "Defaults", Value: []any{float64(1), "x", true},
	}))
	_, bad := s.m.CreateConstant(ctx, ConstantRequest{
		Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "Bad", Value: map[string]any{"a": 1},
	})

	if c.Kind != string(arxml.KindConstantSpecification) {
		t.Errorf("kind = %s", c.Kind)
	}
	wantType(t, bad, faults.TypeValidation)
}

// =============================================================================
// Interfaces and components
// =============================================================================

func TestManager_CreateOperation_WhenErrorOfOtherInterface_ShouldCreateNothing(t *testing.T) {
	s := newScene(t)
	a := must(s.m.CreateClientServerInterface(ctx, InterfaceRequest{Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "A_I"}))
	b := must(s.m.CreateClientServerInterface(ctx, InterfaceRequest{Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "B_I"}))
	foreign := must(s.m.CreateApplicationError(ctx, ApplicationErrorRequest{Target: tgt(s.id), Interface: b.Handle, Name: "E_BUSY", Code: 2}))

	_, err := s.m.CreateOperation(ctx, OperationRequest{
		Target: tgt(s.id), Interface: a.Handle, Name: "Run", PossibleErrors: []string{foreign.Handle},
	})

	wantType(t, err, faults.TypeExternalLibrary)
	found := must(s.m.FindElement(ctx, FindRequest{Target: tgt(s.id), Path: "/PortInterfaces/A_I/Run"}))
	if found.Found {
		t.Error("operation created despite the failed error link")
	}
}

func TestManager_CreateApplicationComponent_WhenKindUnknown_ShouldReturnValidation(t *testing.T) {
	s := newScene(t)

	_, err := s.m.CreateApplicationComponent(ctx, ComponentRequest{
		Target: tgt(s.id), Locator: key("ComponentTypes"), Name: "X", ComponentKind: "ROBOT",
	})

	wantType(t, err, faults.TypeValidation)
}

func TestManager_CreatePort_WhenInterfaceIsDataType_ShouldReturnInvalidReference(t *testing.T) {
	s := newScene(t)

	_, err := s.m.CreatePort(ctx, PortRequest{
		Target: tgt(s.id), Component: s.sensor.Handle, Name: "Bad", Interface: s.idt.Handle, Direction: "P",
	})

	wantType(t, err, faults.TypeInvalidReference)
}

func TestManager_CreateComSpec(t *testing.T) {
	s := newScene(t)
	c := must(s.m.CreateConstant(ctx, ConstantRequest{Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "SpeedInit", Value: float64(0)}))

	sender := must(s.m.CreateComSpec(ctx, ComSpecRequest{Target: tgt(s.id), Port: s.sensorP.Handle, Element: s.speed.Handle, InitValue: float64(0)}))
	receiver := must(s.m.CreateComSpec(ctx, ComSpecRequest{
		Target: tgt(s.id), Port: s.displayR.Handle, Element: s.speed.Handle, InitConstant: c.Handle, AliveTimeout: floatp(0.5),
	}))
	_, both := s.m.CreateComSpec(ctx, ComSpecRequest{
		Target: tgt(s.id), Port: s.displayR.Handle, Element: s.speed.Handle, InitValue: float64(1), InitConstant: c.Handle,
	})
	_, wrongEl := s.m.CreateComSpec(ctx, ComSpecRequest{Target: tgt(s.id), Port: s.displayR.Handle, Element: s.idt.Handle})

	if sender.Kind != string(arxml.KindNonqueuedSenderComSpec) || receiver.Kind != string(arxml.KindNonqueuedReceiverComSpec) {
		t.Errorf("kinds = %s, %s", sender.Kind, receiver.Kind)
	}
	wantType(t, both, faults.TypeValidation)
	wantType(t, wrongEl, faults.TypeInvalidReference)
}

func TestManager_Composition(t *testing.T) {
	s := newScene(t)
	comp := must(s.m.CreateCompositionComponent(ctx, CompositionRequest{Target: tgt(s.id), Locator: key("ComponentTypes"), Name: "Cluster"}))
	outer := must(s.m.CreatePort(ctx, PortRequest{Target: tgt(s.id), Component: comp.Handle, Name: "Speed", Interface: s.speedIf.Handle, Direction: "R"}))
	sensor := must(s.m.CreateComponentPrototype(ctx, PrototypeRequest{Target: tgt(s.id), Composition: comp.Handle, ComponentType: s.sensor.Handle, Name: "sensor"}))
	display := must(s.m.CreateComponentPrototype(ctx, PrototypeRequest{Target: tgt(s.id), Composition: comp.Handle, ComponentType: s.display.Handle, Name: "display"}))

	asm := must(s.m.CreateAssemblyConnector(ctx, AssemblyRequest{
		Target: tgt(s.id), Composition: comp.Handle,
		Provider: sensor.Handle, ProviderPort: s.sensorP.Handle,
		Requester: display.Handle, RequesterPort: s.displayR.Handle,
	}))
	del := must(s.m.CreateDelegationConnector(ctx, DelegationRequest{
		Target: tgt(s.id), Composition: comp.Handle, Inner: display.Handle, InnerPort: s.displayR.Handle, OuterPort: outer.Handle,
	}))
	_, swapped := s.m.CreateAssemblyConnector(ctx, AssemblyRequest{
		Target: tgt(s.id), Composition: comp.Handle,
		Provider: display.Handle, ProviderPort: s.displayR.Handle,
		Requester: sensor.Handle, RequesterPort: s.sensorP.Handle,
	})
	_, atomic := s.m.CreateComponentPrototype(ctx, PrototypeRequest{Target: tgt(s.id), Composition: s.sensor.Handle, ComponentType: s.display.Handle, Name: "x"})

	if asm.Name != "sensor_Speed_display_Speed" || del.Name != "display_Speed_Speed" {
		t.Errorf("connector names = %s, %s", asm.Name, del.Name)
	}
	wantType(t, swapped, faults.TypeExternalLibrary)
	wantType(t, atomic, faults.TypeInvalidReference)
}

// =============================================================================
// Behavior
// =============================================================================

func TestManager_Events(t *testing.T) {
	s := newScene(t)
	ib := must(s.m.CreateInternalBehavior(ctx, BehaviorRequest{Target: tgt(s.id), Component: s.display.Handle}))
	run := must(s.m.CreateRunnable(ctx, RunnableRequest{Target: tgt(s.id), Behavior: ib.Handle, Name: "Display_Step"}))

	timing := must(s.m.CreateEvent(ctx, EventRequest{Target: tgt(s.id), Runnable: run.Handle, EventType: EventTiming, Period: floatp(0.1)}))
	dr := must(s.m.CreateEvent(ctx, EventRequest{
		Target: tgt(s.id), Runnable: run.Handle, EventType: EventDataReceived, Port: s.displayR.Handle, Element: s.speed.Handle,
	}))
	_, noPeriod := s.m.CreateEvent(ctx, EventRequest{Target: tgt(s.id), Runnable: run.Handle, EventType: EventTiming, Name: "T2"})
	_, badType := s.m.CreateEvent(ctx, EventRequest{Target: tgt(s.id), Runnable: run.Handle, EventType: "CRON"})

	if ib.Name != "SpeedDisplay_InternalBehavior" {
		t.Errorf("behavior name = %s", ib.Name)
	}
	if timing.Name != "TMT_Display_Step" || dr.Name != "DRT_Display_Step_Speed_VehicleSpeed" {
		t.Errorf("event names = %s, %s", timing.Name, dr.Name)
	}
	wantType(t, noPeriod, faults.TypeValidation)
	wantType(t, badType, faults.TypeValidation)
}

func TestManager_CreateInternalBehavior_WhenComposition_ShouldReturnInvalidReference(t *testing.T) {
	s := newScene(t)
	comp := must(s.m.CreateCompositionComponent(ctx, CompositionRequest{Target: tgt(s.id), Locator: key("ComponentTypes"), Name: "Cluster"}))

	_, err := s.m.CreateInternalBehavior(ctx, BehaviorRequest{Target: tgt(s.id), Component: comp.Handle})

	wantType(t, err, faults.TypeInvalidReference)
}

func TestManager_ModeSwitchEvent_ShouldResolveModeByName(t *testing.T) {
	s := newScene(t)
	group := must(s.m.CreateModeDeclarationGroup(ctx, ModeGroupRequest{
		Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "EcuMode", Modes: []string{"STARTUP", "RUN"},
	}))
	msi := must(s.m.CreateModeSwitchInterface(ctx, ModeSwitchInterfaceRequest{
		Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "EcuMode_I", ModeGroup: group.Handle,
	}))
	port := must(s.m.CreatePort(ctx, PortRequest{Target: tgt(s.id), Component: s.display.Handle, Name: "EcuMode", Interface: msi.Handle, Direction: "R"}))
	ib := must(s.m.CreateInternalBehavior(ctx, BehaviorRequest{Target: tgt(s.id), Component: s.display.Handle}))
	run := must(s.m.CreateRunnable(ctx, RunnableRequest{Target: tgt(s.id), Behavior: ib.Handle, Name: "OnRun"}))

	ev := must(s.m.CreateEvent(ctx, EventRequest{
		Target: tgt(s.id), Runnable: run.Handle, EventType: EventModeSwitch, Port: port.Handle, Mode: "RUN", Activation: "ON_EXIT",
	}))
	_, unknown := s.m.CreateEvent(ctx, EventRequest{
		Target: tgt(s.id), Runnable: run.Handle, EventType: EventModeSwitch, Port: port.Handle, Mode: "SLEEP",
	})
	_, notMode := s.m.CreateEvent(ctx, EventRequest{
		Target: tgt(s.id), Runnable: run.Handle, EventType: EventModeSwitch, Port: s.displayR.Handle, Mode: "RUN",
	})

	if ev.Name != "MST_OnRun_EcuMode_RUN" || ev.Kind != string(arxml.KindModeSwitchEvent) {
		t.Errorf("event = %+v", ev)
	}
	wantType(t, unknown, faults.TypeNotFound)
	wantType(t, notMode, faults.TypeInvalidReference)
}

// =============================================================================
// Documents
// =============================================================================

func TestManager_WriteDocuments_ShouldRoundTrip(t *testing.T) {
	s := newScene(t)
	must(s.m.CreateDocument(ctx, DocumentRequest{
		Target: tgt(s.id), FilePath: "platform.arxml", Packages: []string{"PlatformBaseTypes", "PlatformImplTypes"},
	}))
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "interfaces.arxml", Packages: []string{"PortInterfaces"}}))
	must(s.m.CreateDocumentMapping(ctx, DocumentMappingRequest{Target: tgt(s.id), Locator: key("ComponentTypes"), BasePath: "swc"}))

	res := must(s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)}))

	if res.Written != 4 || res.Failed != 0 {
		t.Fatalf("written=%d failed=%d files=%+v", res.Written, res.Failed, res.Files)
	}
	file, err := arxml.ReadFile(filepath.Join(s.root, "swc", "SpeedSensor.arxml"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	if file.SchemaVersion != arxml.DefaultSchemaVersion {
		t.Errorf("schema version = %d", file.SchemaVersion)
	}
	fresh := arxml.NewWorkspace()
	if err := fresh.Merge(file.Packages); err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if e, _ := fresh.Find("/ComponentTypes/SpeedSensor/Speed"); e == nil || e.Kind() != arxml.KindProvidePort {
		t.Errorf("port missing after round trip: %v", e)
	}
	if e, _ := fresh.Find("/ComponentTypes/SpeedDisplay"); e != nil {
		t.Error("SpeedDisplay leaked into SpeedSensor.arxml")
	}
}

func TestManager_WriteDocuments_WhenOneFileFails_ShouldReportPartialSuccess(t *testing.T) {
	s := newScene(t)
	if err := os.WriteFile(filepath.Join(s.root, "blocked"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "good.arxml", Packages: []string{"PortInterfaces"}}))
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "blocked/bad.arxml", Packages: []string{"ComponentTypes"}}))

	res, err := s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)})

	if err != nil {
		t.Fatalf("expected partial success, got %v", err)
	}
	if res.Written != 1 || res.Failed != 1 || res.Files[1].OK || res.Files[1].Error == "" {
		t.Errorf("unexpected result %+v", res)
	}
	if _, err := os.Stat(filepath.Join(s.root, "good.arxml")); err != nil {
		t.Errorf("good.arxml missing: %v", err)
	}
}

func TestManager_WriteDocuments_WhenEveryFileFails_ShouldReturnIOError(t *testing.T) {
	s := newScene(t)
	if err := os.WriteFile(filepath.Join(s.root, "blocked"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "blocked/a.arxml", Packages: []string{"PortInterfaces"}}))

	_, err := s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)})

	report := faults.NewReport(err)
	if report.Type != faults.TypeIO {
		t.Fatalf("expected IOError, got %+v", report)
	}
	if _, ok := report.Context["files"]; !ok {
		t.Error("expected per-file results in the report context")
	}
}

func TestManager_WriteDocuments_WhenNothingPlanned_ShouldReturnExternalLibrary(t *testing.T) {
	s := newScene(t)

	_, err := s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)})

	wantType(t, err, faults.TypeExternalLibrary)
}

func TestManager_WriteDocuments_WhenSchemaVersionOutOfRange_ShouldReturnValidation(t *testing.T) {
	s := newScene(t)
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "a.arxml", Packages: []string{"PortInterfaces"}}))

	_, err := s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id), SchemaVersion: intp(47)})

	wantType(t, err, faults.TypeValidation)
}

func TestManager_Paths_WhenOutsideRoots_ShouldReturnValidation(t *testing.T) {
	s := newScene(t)
	outside := t.TempDir()

	_, rootErr := s.m.SetDocumentRoot(ctx, DocumentRootRequest{Target: tgt(s.id), Path: outside})
	_, docErr := s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "../escape.arxml", Packages: []string{"PortInterfaces"}})
	_, absErr := s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: filepath.Join(outside, "x.arxml"), Packages: []string{"PortInterfaces"}})
	_, loadErr := s.m.LoadArxml(ctx, LoadRequest{Target: tgt(s.id), FilePath: filepath.Join(outside, "x.arxml")})

	for name, err := range map[string]error{"root": rootErr, "doc": docErr, "abs": absErr, "load": loadErr} {
		if !errors.Is(err, faults.ErrValidation) {
			t.Errorf("%s: expected validation error, got %v", name, err)
		}
	}
}

func TestManager_SetDocumentRoot_ShouldRedirectOutput(t *testing.T) {
	s := newScene(t)

	res := must(s.m.SetDocumentRoot(ctx, DocumentRootRequest{Target: tgt(s.id), Path: "out"}))
	must(s.m.CreateDocument(ctx, DocumentRequest{Target: tgt(s.id), FilePath: "all.arxml", Packages: []string{"ComponentTypes"}}))
	must(s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)}))

	if res.DocumentRoot != filepath.Join(s.root, "out") {
		t.Errorf("document root = %s", res.DocumentRoot)
	}
	if _, err := os.Stat(filepath.Join(s.root, "out", "all.arxml")); err != nil {
		t.Errorf("expected output under the new root: %v", err)
	}
}

func TestManager_LoadArxml_ShouldMergeWrittenFile(t *testing.T) {
	s := newScene(t)
	must(s.m.CreateDocument(ctx, DocumentRequest{
		Target: tgt(s.id), FilePath: "model.arxml", Packages: []string{"PlatformBaseTypes", "PortInterfaces"},
	}))
	must(s.m.WriteDocuments(ctx, WriteRequest{Target: tgt(s.id)}))
	other := must(s.m.CreateWorkspace(ctx, CreateWorkspaceRequest{})).WorkspaceID

	res := must(s.m.LoadArxml(ctx, LoadRequest{Target: tgt(other), FilePath: "model.arxml"}))
	found := must(s.m.FindElement(ctx, FindRequest{Target: tgt(other), Path: "/PortInterfaces/VehicleSpeed_I/VehicleSpeed"}))
	_, missing := s.m.LoadArxml(ctx, LoadRequest{Target: tgt(other), FilePath: "nope.arxml"})

	if len(res.Packages) != 2 {
		t.Errorf("loaded %d root packages, want 2", len(res.Packages))
	}
	if !found.Found || found.Element.Kind != string(arxml.KindDataElement) {
		t.Errorf("data element not loaded: %+v", found)
	}
	wantType(t, missing, faults.TypeIO)
}

func TestManager_LoadArxml_WhenMalformed_ShouldReturnExternalLibrary(t *testing.T) {
	s := newScene(t)
	if err := os.WriteFile(filepath.Join(s.root, "bad.arxml"), []byte(`<?xml version="1.0"?><PROJECT/>`), 0o644); err != nil {
		t.Fatal(err)
	}

	_, err := s.m.LoadArxml(ctx, LoadRequest{Target: tgt(s.id), FilePath: "bad.arxml"})

	wantType(t, err, faults.TypeExternalLibrary)
}

func TestManager_LoadArxml_WhenRootPackagesRepeat_ShouldLeaveWorkspaceUnchanged(t *testing.T) {
	// Given: a file declaring the root package A twice
	s := newScene(t)
	src := `<AUTOSAR xmlns="http://autosar.org/schema/r4.0"><AR-PACKAGES>` +
		`<AR-PACKAGE><SHORT-NAME>A</SHORT-NAME></AR-PACKAGE>` +
		`<AR-PACKAGE><SHORT-NAME>A</SHORT-NAME></AR-PACKAGE>` +
		`</AR-PACKAGES></AUTOSAR>`
	if err := os.WriteFile(filepath.Join(s.root, "dup.arxml"), []byte(src), 0o644); err != nil {
		t.Fatal(err)
	}
	before := must(s.m.ListRootPackages(ctx, tgt(s.id)))

	// When
	_, err := s.m.LoadArxml(ctx, LoadRequest{Target: tgt(s.id), FilePath: "dup.arxml"})

	// Then: the load fails and no package A appears
	wantType(t, err, faults.TypeExternalLibrary)
	after := must(s.m.ListRootPackages(ctx, tgt(s.id)))
	if len(after.Packages) != len(before.Packages) {
		t.Errorf("root packages changed from %d to %d", len(before.Packages), len(after.Packages))
	}
}

// =============================================================================
// Concurrency
// =============================================================================

func TestManager_ConcurrentOperations_ShouldSerializePerWorkspace(t *testing.T) {
	s := newScene(t)
	const n = 32
	var wg sync.WaitGroup
	handles := make(chan string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sum, err := s.m.CreateSenderReceiverInterface(ctx, InterfaceRequest{
				Target: tgt(s.id), Locator: key("PortInterfaces"), Name: "If_" + string(rune('A'+i%26)) + strings.Repeat("x", i/26),
			})
			if err != nil {
				t.Error(err)
				return
			}
			handles <- sum.Handle
		}(i)
	}
	wg.Wait()
	close(handles)

	seen := make(map[string]bool)
	for h := range handles {
		if seen[h] {
			t.Fatalf("duplicate handle %s", h)
		}
		seen[h] = true
	}
	if len(seen) != n {
		t.Errorf("created %d interfaces, want %d", len(seen), n)
	}
}
