package workspace

import (
	"context"
	"fmt"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

// CreateSenderReceiverInterface adds an empty SENDER-RECEIVER-INTERFACE.
func (m *Manager) CreateSenderReceiverInterface(ctx context.Context, req InterfaceRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		var err error
		out, err = m.place(s, req.Locator, arxml.NewSenderReceiverInterface(req.Name))
		return err
	})
	return out, err
}

// CreateDataElement adds a data element to a sender-receiver interface.
func (m *Manager) CreateDataElement(ctx context.Context, req DataElementRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		iface, err := resolve[*arxml.SenderReceiverInterface](m, s, "interface", req.Interface, "SenderReceiverInterface")
		if err != nil {
			return err
		}
		typ, err := resolve[*arxml.ImplementationDataType](m, s, "type", req.Type, "ImplementationDataType")
		if err != nil {
			return err
		}
		de, err := iface.CreateDataElement(req.Name, arxml.RefTo(typ))
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, de)
		return err
	})
	return out, err
}

// CreateClientServerInterface adds an empty CLIENT-SERVER-INTERFACE.
func (m *Manager) CreateClientServerInterface(ctx context.Context, req InterfaceRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		var err error
		out, err = m.place(s, req.Locator, arxml.NewClientServerInterface(req.Name))
		return err
	})
	return out, err
}

// CreateApplicationError adds an application error to a client-server
// interface.
func (m *Manager) CreateApplicationError(ctx context.Context, req ApplicationErrorRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		iface, err := resolve[*arxml.ClientServerInterface](m, s, "interface", req.Interface, "ClientServerInterface")
		if err != nil {
			return err
		}
		ae, err := iface.CreateApplicationError(req.Name, req.Code)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, ae)
		return err
	})
	return out, err
}

// CreateOperation adds an operation and links its possible errors. The errors
// are checked before the operation is created.
func (m *Manager) CreateOperation(ctx context.Context, req OperationRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		iface, err := resolve[*arxml.ClientServerInterface](m, s, "interface", req.Interface, "ClientServerInterface")
		if err != nil {
			return err
		}
		errs := make([]*arxml.ApplicationError, 0, len(req.PossibleErrors))
		for i, h := range req.PossibleErrors {
			ae, err := resolve[*arxml.ApplicationError](m, s, fmt.Sprintf("possible_errors[%d]", i), h, "ApplicationError")
			if err != nil {
				return err
			}
			if ae.Parent() != arxml.Element(iface) {
				return faults.External(fmt.Errorf("%w: application error %s is not defined by interface %s",
					arxml.ErrInvalidStructure, arxml.Path(ae), arxml.Path(iface)))
			}
			errs = append(errs, ae)
		}
		op, err := iface.CreateOperation(req.Name)
		if err != nil {
			return faults.External(err)
		}
		for _, ae := range errs {
			if err := op.AddPossibleError(ae); err != nil {
				return faults.External(err)
			}
		}
		out, err = m.register(s, op)
		return err
	})
	return out, err
}

// CreateArgument appends an argument to an operation. Direction defaults to
// IN.
func (m *Manager) CreateArgument(ctx context.Context, req ArgumentRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		op, err := resolve[*arxml.Operation](m, s, "operation", req.Operation, "ClientServerOperation")
		if err != nil {
			return err
		}
		typ, err := resolve[*arxml.ImplementationDataType](m, s, "type", req.Type, "ImplementationDataType")
		if err != nil {
			return err
		}
		dir := arxml.ArgumentDirection(upper(req.Direction))
		if dir == "" {
			dir = arxml.DirectionIn
		}
		arg, err := op.CreateArgument(req.Name, arxml.RefTo(typ), dir)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, arg)
		return err
	})
	return out, err
}

// CreateModeDeclarationGroup adds a mode declaration group with its modes.
func (m *Manager) CreateModeDeclarationGroup(ctx context.Context, req ModeGroupRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		g, err := arxml.NewModeDeclarationGroup(req.Name, req.Modes, req.InitialMode)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.place(s, req.Locator, g)
		return err
	})
	return out, err
}

// CreateModeSwitchInterface adds a mode switch interface typed by a mode
// declaration group.
func (m *Manager) CreateModeSwitchInterface(ctx context.Context, req ModeSwitchInterfaceRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		g, err := resolve[*arxml.ModeDeclarationGroup](m, s, "mode_group", req.ModeGroup, "ModeDeclarationGroup")
		if err != nil {
			return err
		}
		msi, err := arxml.NewModeSwitchInterface(req.Name, arxml.RefTo(g), req.ModeGroupName)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.place(s, req.Locator, msi)
		return err
	})
	return out, err
}
