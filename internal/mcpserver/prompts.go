package mcpserver

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

const instructions = `AUTOSAR model builder. Build models only through the tools; never write raw ARXML.
Every tool except create_workspace takes the workspace_id it returned.
Creation tools return a handle; pass handles, not names, to later tools.
Failed calls return {"ok": false, "error": {"type", "message"}}.`

type prompt struct {
	name        string
	description string
	text        string
}

func (p prompt) definition() mcp.Prompt {
	return mcp.NewPrompt(p.name, mcp.WithPromptDescription(p.description))
}

func (p prompt) handle(context.Context, mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return mcp.NewGetPromptResult(p.description, []mcp.PromptMessage{
		mcp.NewPromptMessage(mcp.RoleUser, mcp.NewTextContent(p.text)),
	}), nil
}

var prompts = []prompt{
	{
		name:        "autosar_build_order",
		description: "Strict order for building an AUTOSAR model with these tools",
		text: `You are an AUTOSAR model builder.
Use only the MCP tools. Never write raw ARXML.
Follow this build order:
1. create_workspace
2. create_package_map
3. create platform types (create_base_type, create_implementation_data_type, create_unit, create_constant)
4. create interfaces (create_sender_receiver_interface, create_client_server_interface, create_mode_switch_interface and their elements)
5. create components and ports (create_application_component, create_composition_component, create_port, create_com_spec)
6. create behavior (create_internal_behavior, create_runnable, create_event)
7. set_document_root
8. create_document and create_document_mapping
9. write_documents`,
	},
	{
		name:        "autosar_application_example",
		description: "Guidance for the ApplicationSoftwareComponent example layout",
		text: `Build the ApplicationSoftwareComponent example.
Split the output into:
- portinterfaces.arxml for the port interfaces package
- constants.arxml for the constants package
- platform.arxml for the platform types packages
- one document per component, using create_document_mapping on the component package`,
	},
}
