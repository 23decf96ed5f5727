package workspace

import (
	"context"
	"strings"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

// CreateInternalBehavior gives an atomic component its internal behavior.
func (m *Manager) CreateInternalBehavior(ctx context.Context, req BehaviorRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		c, err := resolve[*arxml.SwComponentType](m, s, "component", req.Component, "atomic component type")
		if err != nil {
			return err
		}
		if !c.Kind().IsAtomicComponent() {
			return faults.InvalidReference("component: %s is a %s, expected an atomic component type", req.Component, c.Kind())
		}
		b, err := c.CreateInternalBehavior(req.Name)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, b)
		return err
	})
	return out, err
}

// CreateRunnable adds a runnable entity to an internal behavior.
func (m *Manager) CreateRunnable(ctx context.Context, req RunnableRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		b, err := resolve[*arxml.InternalBehavior](m, s, "behavior", req.Behavior, "SwcInternalBehavior")
		if err != nil {
			return err
		}
		r, err := b.CreateRunnable(req.Name, req.Symbol, req.CanBeInvokedConcurrently)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, r)
		return err
	})
	return out, err
}

// CreateEvent adds an RTE event that starts a runnable. The event goes into
// the runnable's behavior.
func (m *Manager) CreateEvent(ctx context.Context, req EventRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		r, err := resolve[*arxml.Runnable](m, s, "runnable", req.Runnable, "RunnableEntity")
		if err != nil {
			return err
		}
		b, ok := r.Parent().(*arxml.InternalBehavior)
		if !ok {
			return faults.InvalidReference("runnable: %s is not part of an internal behavior", req.Runnable)
		}
		ev, err := m.event(s, b, r, req)
		if err != nil {
			return err
		}
		out, err = m.register(s, ev)
		return err
	})
	return out, err
}

func (m *Manager) event(s *session, b *arxml.InternalBehavior, r *arxml.Runnable, req EventRequest) (*arxml.Event, error) {
	var (
		ev  *arxml.Event
		err error
	)
	switch upper(req.EventType) {
	case EventTiming:
		if req.Period == nil {
			return nil, faults.Validation("period is required for TIMING events")
		}
		ev, err = b.CreateTimingEvent(req.Name, r, *req.Period)
	case EventInit:
		ev, err = b.CreateInitEvent(req.Name, r)
	case EventDataReceived:
		p, de, rerr := portAnd[*arxml.DataElement](m, s, req, "VariableDataPrototype")
		if rerr != nil {
			return nil, rerr
		}
		ev, err = b.CreateDataReceivedEvent(req.Name, r, p, de)
	case EventOperationInvoked:
		p, op, rerr := portAnd[*arxml.Operation](m, s, req, "ClientServerOperation")
		if rerr != nil {
			return nil, rerr
		}
		ev, err = b.CreateOperationInvokedEvent(req.Name, r, p, op)
	case EventModeSwitch:
		return m.modeSwitchEvent(s, b, r, req)
	default:
		return nil, faults.Validation("unknown event_type %q", req.EventType)
	}
	if err != nil {
		return nil, faults.External(err)
	}
	return ev, nil
}

// portAnd resolves the port and element handles of a port-bound event.
func portAnd[T any](m *Manager, s *session, req EventRequest, want string) (*arxml.Port, T, error) {
	var zero T
	p, err := resolve[*arxml.Port](m, s, "port", req.Port, "port")
	if err != nil {
		return nil, zero, err
	}
	el, err := resolve[T](m, s, "element", req.Element, want)
	if err != nil {
		return nil, zero, err
	}
	return p, el, nil
}

// modeSwitchEvent finds the mode by name in the group behind the port's mode
// switch interface.
func (m *Manager) modeSwitchEvent(s *session, b *arxml.InternalBehavior, r *arxml.Runnable, req EventRequest) (*arxml.Event, error) {
	p, err := resolve[*arxml.Port](m, s, "port", req.Port, "port")
	if err != nil {
		return nil, err
	}
	if req.Mode == "" {
		return nil, faults.Validation("mode is required for MODE_SWITCH events")
	}
	found, err := s.ws.Find(p.InterfaceRef.Path)
	if err != nil {
		return nil, faults.External(err)
	}
	msi, ok := found.(*arxml.ModeSwitchInterface)
	if !ok {
		return nil, faults.InvalidReference("port: %s is not typed by a mode switch interface", req.Port)
	}
	if msi.ModeGroup == nil {
		return nil, faults.NotFound("mode group of %s", arxml.Path(msi))
	}
	found, err = s.ws.Find(msi.ModeGroup.TypeRef.Path)
	if err != nil {
		return nil, faults.External(err)
	}
	group, ok := found.(*arxml.ModeDeclarationGroup)
	if !ok {
		return nil, faults.NotFound("mode declaration group %s", msi.ModeGroup.TypeRef.Path)
	}
	mode := group.Mode(req.Mode)
	if mode == nil {
		return nil, faults.NotFound("mode %q in %s", req.Mode, arxml.Path(group))
	}
	activation := strings.ReplaceAll(upper(req.Activation), "_", "-")
	ev, err := b.CreateModeSwitchEvent(req.Name, r, p, msi, mode, activation)
	if err != nil {
		return nil, faults.External(err)
	}
	return ev, nil
}
