package tooling

import (
	"errors"

	"autosar-mcp/internal/workspace"
)

// AutosarTools returns the modeling tools backed by m.
func AutosarTools(m *workspace.Manager) ([]SchemaTool, error) {
	var (
		tools []SchemaTool
		errs  []error
	)
	add := func(t SchemaTool, err error) {
		if err != nil {
			errs = append(errs, err)
			return
		}
		tools = append(tools, t)
	}

	// Workspace lifecycle and queries.
	add(NewTool("create_workspace",
		"Create an empty modeling workspace and return its workspace_id. Every other tool needs this ID.",
		m.CreateWorkspace))
	add(NewTool("reset_workspace",
		"Discard every element of a workspace and invalidate its handles. The workspace ID stays valid.",
		m.ResetWorkspace))
	add(NewTool("delete_workspace",
		"Delete a workspace and invalidate its handles.",
		m.DeleteWorkspace))
	add(NewTool("create_package_map",
		"Create packages from a map of key to absolute AUTOSAR path. Later tools place elements by key.",
		m.CreatePackageMap))
	add(NewTool("list_root_packages",
		"List the root packages of a workspace.",
		m.ListRootPackages))
	add(NewTool("find_element",
		"Look up an element by absolute AUTOSAR path and return its handle.",
		m.FindElement))
	add(NewTool("load_arxml",
		"Merge the packages of an existing ARXML file into the workspace.",
		m.LoadArxml))

	// Data types.
	add(NewTool("create_base_type",
		"Create a software base type such as uint8.",
		m.CreateBaseType))
	add(NewTool("create_implementation_data_type",
		"Create an implementation data type. VALUE types reference a base type and TYPE_REFERENCE types reference another implementation data type.",
		m.CreateImplementationDataType))
	add(NewTool("create_unit",
		"Create a unit with optional factor and offset.",
		m.CreateUnit))
	add(NewTool("create_constant",
		"Create a constant specification from a number, string, boolean or nested array.",
		m.CreateConstant))

	// Port interfaces.
	add(NewTool("create_sender_receiver_interface",
		"Create a sender-receiver port interface.",
		m.CreateSenderReceiverInterface))
	add(NewTool("create_data_element",
		"Add a data element typed by an implementation data type to a sender-receiver interface.",
		m.CreateDataElement))
	add(NewTool("create_client_server_interface",
		"Create a client-server port interface.",
		m.CreateClientServerInterface))
	add(NewTool("create_application_error",
		"Add an application error with a return code to a client-server interface.",
		m.CreateApplicationError))
	add(NewTool("create_operation",
		"Add an operation to a client-server interface. Possible errors must belong to the same interface.",
		m.CreateOperation))
	add(NewTool("create_argument",
		"Add an argument to a client-server operation.",
		m.CreateArgument))
	add(NewTool("create_mode_declaration_group",
		"Create a mode declaration group from a list of mode names.",
		m.CreateModeDeclarationGroup))
	add(NewTool("create_mode_switch_interface",
		"Create a mode switch interface around a mode declaration group.",
		m.CreateModeSwitchInterface))

	// Components.
	add(NewTool("create_application_component",
		"Create an atomic software component type.",
		m.CreateApplicationComponent))
	add(NewTool("create_composition_component",
		"Create a composition software component type.",
		m.CreateCompositionComponent))
	add(NewTool("create_port",
		"Add a provide (P), require (R) or provide-require (PR) port typed by a port interface to a component.",
		m.CreatePort))
	add(NewTool("create_com_spec",
		"Add a communication spec for a data element or operation to a port.",
		m.CreateComSpec))
	add(NewTool("create_component_prototype",
		"Instantiate a component type inside a composition.",
		m.CreateComponentPrototype))
	add(NewTool("create_assembly_connector",
		"Connect a provide port of one prototype to a require port of another inside a composition.",
		m.CreateAssemblyConnector))
	add(NewTool("create_delegation_connector",
		"Connect a port of an inner prototype to a port of its composition.",
		m.CreateDelegationConnector))

	// Behavior.
	add(NewTool("create_internal_behavior",
		"Create the internal behavior of an atomic component.",
		m.CreateInternalBehavior))
	add(NewTool("create_runnable",
		"Add a runnable entity to an internal behavior.",
		m.CreateRunnable))
	add(NewTool("create_event",
		"Add an RTE event that starts a runnable. TIMING needs period; DATA_RECEIVED and OPERATION_INVOKED need port and element; MODE_SWITCH needs port and mode.",
		m.CreateEvent))

	// Documents.
	add(NewTool("set_document_root",
		"Set the directory ARXML documents of the workspace are written to.",
		m.SetDocumentRoot))
	add(NewTool("create_document",
		"Declare an ARXML file holding whole packages.",
		m.CreateDocument))
	add(NewTool("create_document_mapping",
		"Split elements of a package into one ARXML file per element.",
		m.CreateDocumentMapping))
	add(NewTool("write_documents",
		"Write every declared document. Files are attempted independently and results are reported per file.",
		m.WriteDocuments))

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return tools, nil
}

// NewAutosarRegistry returns a registry holding AutosarTools(m).
func NewAutosarRegistry(m *workspace.Manager) (*ToolRegistry, error) {
	tools, err := AutosarTools(m)
	if err != nil {
		return nil, err
	}
	reg := NewToolRegistry()
	for _, t := range tools {
		if err := reg.Register(t); err != nil {
			return nil, err
		}
	}
	return reg, nil
}
