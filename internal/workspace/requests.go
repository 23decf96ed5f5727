package workspace

// Requests accepted by the Manager. The json and jsonschema tags define the
// tool-call argument schema; fields without omitempty are required.

// Summary is the JSON-safe description of a registered object.
type Summary struct {
	Handle string `json:"handle"`
	Kind   string `json:"kind"`
	Name   string `json:"name"`
	Path   string `json:"path"`
}

// Target names the workspace an operation runs in.
type Target struct {
	WorkspaceID string `json:"workspace_id" jsonschema:"minLength=1,description=Workspace ID returned by create_workspace"`
}

// Locator places a new element in a package: either a package-map key or a
// package handle.
type Locator struct {
	Package       string `json:"package,omitempty" jsonschema:"description=Package map key"`
	PackageHandle string `json:"package_handle,omitempty" jsonschema:"description=Handle of a package"`
}

// ---------------------------------------------------------------------------
// Workspace lifecycle and queries
// ---------------------------------------------------------------------------

type CreateWorkspaceRequest struct{}

type WorkspaceInfo struct {
	WorkspaceID string `json:"workspace_id"`
	Invalidated int    `json:"invalidated,omitempty"`
}

type PackageMapRequest struct {
	Target
	Mapping map[string]string `json:"mapping" jsonschema:"description=Package key to absolute AUTOSAR package path"`
}

type PackageMapResult struct {
	Packages map[string]Summary `json:"packages"`
}

type PackageList struct {
	Packages []Summary `json:"packages"`
}

type FindRequest struct {
	Target
	Path string `json:"path" jsonschema:"minLength=1,description=Absolute AUTOSAR path such as /Pkg/Element"`
}

type FindResult struct {
	Found   bool     `json:"found"`
	Element *Summary `json:"element,omitempty"`
}

type LoadRequest struct {
	Target
	FilePath string `json:"file_path" jsonschema:"minLength=1,description=ARXML file inside an allowed root"`
}

type LoadResult struct {
	Packages []Summary `json:"packages"`
	Skipped  []string  `json:"skipped"`
}

// ---------------------------------------------------------------------------
// Data types
// ---------------------------------------------------------------------------

type BaseTypeRequest struct {
	Target
	Locator
	Name              string `json:"name" jsonschema:"minLength=1"`
	Category          string `json:"category,omitempty" jsonschema:"description=Defaults to FIXED_LENGTH"`
	Size              *int   `json:"size,omitempty" jsonschema:"minimum=0,description=Size in bits"`
	MaxSize           *int   `json:"max_size,omitempty" jsonschema:"minimum=0"`
	Encoding          string `json:"encoding,omitempty" jsonschema:"description=e.g. NONE or 2C or IEEE754"`
	Alignment         *int   `json:"alignment,omitempty" jsonschema:"minimum=0"`
	ByteOrder         string `json:"byte_order,omitempty" jsonschema:"enum=BIG_ENDIAN,enum=LITTLE_ENDIAN,enum=OPAQUE"`
	NativeDeclaration string `json:"native_declaration,omitempty"`
}

type ImplementationTypeRequest struct {
	Target
	Locator
	Name          string `json:"name" jsonschema:"minLength=1"`
	Category      string `json:"category,omitempty" jsonschema:"enum=VALUE,enum=TYPE_REFERENCE,enum=ARRAY,enum=STRUCTURE"`
	BaseType      string `json:"base_type,omitempty" jsonschema:"description=Handle of a base type"`
	TypeReference string `json:"type_reference,omitempty" jsonschema:"description=Handle of an implementation data type (TYPE_REFERENCE only)"`
}

type UnitRequest struct {
	Target
	Locator
	Name                 string   `json:"name" jsonschema:"minLength=1"`
	DisplayName          string   `json:"display_name,omitempty"`
	Factor               *float64 `json:"factor,omitempty"`
	Offset               *float64 `json:"offset,omitempty"`
	PhysicalDimensionRef string   `json:"physical_dimension_ref,omitempty" jsonschema:"description=Absolute path of a physical dimension"`
}

type ConstantRequest struct {
	Target
	Locator
	Name  string `json:"name" jsonschema:"minLength=1"`
	Value any    `json:"value" jsonschema:"description=Number or string or boolean or a nested array of those"`
}

// ---------------------------------------------------------------------------
// Port interfaces
// ---------------------------------------------------------------------------

type InterfaceRequest struct {
	Target
	Locator
	Name string `json:"name" jsonschema:"minLength=1"`
}

type DataElementRequest struct {
	Target
	Interface string `json:"interface" jsonschema:"minLength=1,description=Handle of a sender-receiver interface"`
	Name      string `json:"name" jsonschema:"minLength=1"`
	Type      string `json:"type" jsonschema:"minLength=1,description=Handle of an implementation data type"`
}

type ApplicationErrorRequest struct {
	Target
	Interface string `json:"interface" jsonschema:"minLength=1,description=Handle of a client-server interface"`
	Name      string `json:"name" jsonschema:"minLength=1"`
	Code      int    `json:"code" jsonschema:"minimum=0,maximum=63"`
}

type OperationRequest struct {
	Target
	Interface      string   `json:"interface" jsonschema:"minLength=1,description=Handle of a client-server interface"`
	Name           string   `json:"name" jsonschema:"minLength=1"`
	PossibleErrors []string `json:"possible_errors,omitempty" jsonschema:"description=Handles of application errors of the same interface"`
}

type ArgumentRequest struct {
	Target
	Operation string `json:"operation" jsonschema:"minLength=1,description=Handle of an operation"`
	Name      string `json:"name" jsonschema:"minLength=1"`
	Type      string `json:"type" jsonschema:"minLength=1,description=Handle of an implementation data type"`
	Direction string `json:"direction,omitempty" jsonschema:"enum=IN,enum=OUT,enum=INOUT"`
}

type ModeGroupRequest struct {
	Target
	Locator
	Name        string   `json:"name" jsonschema:"minLength=1"`
	Modes       []string `json:"modes" jsonschema:"minItems=1"`
	InitialMode string   `json:"initial_mode,omitempty" jsonschema:"description=Defaults to the first mode"`
}

type ModeSwitchInterfaceRequest struct {
	Target
	Locator
	Name          string `json:"name" jsonschema:"minLength=1"`
	ModeGroup     string `json:"mode_group" jsonschema:"minLength=1,description=Handle of a mode declaration group"`
	ModeGroupName string `json:"mode_group_name,omitempty" jsonschema:"description=Short name of the mode group prototype (default mode)"`
}

// ---------------------------------------------------------------------------
// Components
// ---------------------------------------------------------------------------

type ComponentRequest struct {
	Target
	Locator
	Name          string `json:"name" jsonschema:"minLength=1"`
	ComponentKind string `json:"component_kind,omitempty" jsonschema:"enum=APPLICATION,enum=SENSOR_ACTUATOR,enum=SERVICE,enum=COMPLEX_DEVICE_DRIVER"`
}

type CompositionRequest struct {
	Target
	Locator
	Name string `json:"name" jsonschema:"minLength=1"`
}

type PortRequest struct {
	Target
	Component string `json:"component" jsonschema:"minLength=1,description=Handle of a component type"`
	Name      string `json:"name" jsonschema:"minLength=1"`
	Interface string `json:"interface" jsonschema:"minLength=1,description=Handle of a port interface"`
	Direction string `json:"direction" jsonschema:"enum=P,enum=R,enum=PR"`
}

type ComSpecRequest struct {
	Target
	Port         string   `json:"port" jsonschema:"minLength=1,description=Handle of a P or R port"`
	Element      string   `json:"element" jsonschema:"minLength=1,description=Handle of a data element or operation of the port interface"`
	Queued       bool     `json:"queued,omitempty"`
	InitValue    any      `json:"init_value,omitempty"`
	InitConstant string   `json:"init_constant,omitempty" jsonschema:"description=Handle of a constant used as init value"`
	QueueLength  *int     `json:"queue_length,omitempty" jsonschema:"minimum=1"`
	AliveTimeout *float64 `json:"alive_timeout,omitempty" jsonschema:"minimum=0"`
}

type PrototypeRequest struct {
	Target
	Composition   string `json:"composition" jsonschema:"minLength=1,description=Handle of a composition component"`
	ComponentType string `json:"component_type" jsonschema:"minLength=1,description=Handle of the component type to instantiate"`
	Name          string `json:"name" jsonschema:"minLength=1"`
}

type AssemblyRequest struct {
	Target
	Composition   string `json:"composition" jsonschema:"minLength=1"`
	Provider      string `json:"provider" jsonschema:"minLength=1,description=Handle of the providing component prototype"`
	ProviderPort  string `json:"provider_port" jsonschema:"minLength=1"`
	Requester     string `json:"requester" jsonschema:"minLength=1,description=Handle of the requiring component prototype"`
	RequesterPort string `json:"requester_port" jsonschema:"minLength=1"`
	Name          string `json:"name,omitempty"`
}

type DelegationRequest struct {
	Target
	Composition string `json:"composition" jsonschema:"minLength=1"`
	Inner       string `json:"inner" jsonschema:"minLength=1,description=Handle of the inner component prototype"`
	InnerPort   string `json:"inner_port" jsonschema:"minLength=1"`
	OuterPort   string `json:"outer_port" jsonschema:"minLength=1,description=Handle of a port of the composition"`
	Name        string `json:"name,omitempty"`
}

// ---------------------------------------------------------------------------
// Behavior
// ---------------------------------------------------------------------------

type BehaviorRequest struct {
	Target
	Component string `json:"component" jsonschema:"minLength=1,description=Handle of an atomic component type"`
	Name      string `json:"name,omitempty"`
}

type RunnableRequest struct {
	Target
	Behavior                 string `json:"behavior" jsonschema:"minLength=1,description=Handle of an internal behavior"`
	Name                     string `json:"name" jsonschema:"minLength=1"`
	Symbol                   string `json:"symbol,omitempty"`
	CanBeInvokedConcurrently bool   `json:"can_be_invoked_concurrently,omitempty"`
}

// Event types accepted by CreateEvent.
const (
	EventTiming           = "TIMING"
	EventDataReceived     = "DATA_RECEIVED"
	EventOperationInvoked = "OPERATION_INVOKED"
	EventModeSwitch       = "MODE_SWITCH"
	EventInit             = "INIT"
)

type EventRequest struct {
	Target
	Runnable   string   `json:"runnable" jsonschema:"minLength=1,description=Handle of the runnable to start"`
	EventType  string   `json:"event_type" jsonschema:"enum=TIMING,enum=DATA_RECEIVED,enum=OPERATION_INVOKED,enum=MODE_SWITCH,enum=INIT"`
	Name       string   `json:"name,omitempty"`
	Period     *float64 `json:"period,omitempty" jsonschema:"exclusiveMinimum=0,description=Seconds (TIMING)"`
	Port       string   `json:"port,omitempty" jsonschema:"description=Port handle (DATA_RECEIVED or OPERATION_INVOKED or MODE_SWITCH)"`
	Element    string   `json:"element,omitempty" jsonschema:"description=Data element or operation handle"`
	Mode       string   `json:"mode,omitempty" jsonschema:"description=Mode name (MODE_SWITCH)"`
	Activation string   `json:"activation,omitempty" jsonschema:"enum=ON_ENTRY,enum=ON_EXIT"`
}

// ---------------------------------------------------------------------------
// Documents
// ---------------------------------------------------------------------------

type DocumentRootRequest struct {
	Target
	Path string `json:"path" jsonschema:"minLength=1,description=Output directory inside an allowed root"`
}

type DocumentRootResult struct {
	DocumentRoot string `json:"document_root"`
}

type DocumentRequest struct {
	Target
	FilePath       string   `json:"file_path" jsonschema:"minLength=1,description=File path relative to the document root"`
	Packages       []string `json:"packages,omitempty" jsonschema:"description=Package map keys"`
	PackageHandles []string `json:"package_handles,omitempty"`
}

type DocumentMappingRequest struct {
	Target
	Locator
	ElementKinds  []string `json:"element_kinds,omitempty" jsonschema:"description=Element kinds to split out (default: all component kinds)"`
	SuffixFilters []string `json:"suffix_filters,omitempty" jsonschema:"description=Sibling name suffixes written with each element"`
	BasePath      string   `json:"base_path,omitempty" jsonschema:"description=Directory relative to the document root"`
}

type WriteRequest struct {
	Target
	SchemaVersion *int `json:"schema_version,omitempty" jsonschema:"minimum=48,maximum=53"`
}

type FileResult struct {
	Path  string `json:"path"`
	OK    bool   `json:"ok"`
	Bytes int64  `json:"bytes"`
	Error string `json:"error,omitempty"`
}

type WriteResult struct {
	DocumentRoot string       `json:"document_root"`
	Written      int          `json:"written"`
	Failed       int          `json:"failed"`
	Files        []FileResult `json:"files"`
}
