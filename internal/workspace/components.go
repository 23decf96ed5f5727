package workspace

import (
	"context"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

var componentKinds = map[string]arxml.Kind{
	"APPLICATION":           arxml.KindApplicationComponent,
	"SENSOR_ACTUATOR":       arxml.KindSensorActuatorComponent,
	"SERVICE":               arxml.KindServiceComponent,
	"COMPLEX_DEVICE_DRIVER": arxml.KindComplexDeviceDriver,
}

var portKinds = map[string]arxml.Kind{
	"P":  arxml.KindProvidePort,
	"R":  arxml.KindRequirePort,
	"PR": arxml.KindProvideRequirePort,
}

// CreateApplicationComponent adds an atomic component type. The kind
// defaults to APPLICATION.
func (m *Manager) CreateApplicationComponent(ctx context.Context, req ComponentRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		name := upper(req.ComponentKind)
		if name == "" {
			name = "APPLICATION"
		}
		kind, ok := componentKinds[name]
		if !ok {
			return faults.Validation("unknown component_kind %q", req.ComponentKind)
		}
		c, err := arxml.NewComponent(req.Name, kind)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.place(s, req.Locator, c)
		return err
	})
	return out, err
}

// CreateCompositionComponent adds a composition component type.
func (m *Manager) CreateCompositionComponent(ctx context.Context, req CompositionRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		c, err := arxml.NewComponent(req.Name, arxml.KindCompositionComponent)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.place(s, req.Locator, c)
		return err
	})
	return out, err
}

// composition resolves a handle that must name a composition.
func (m *Manager) composition(s *session, field, handle string) (*arxml.SwComponentType, error) {
	c, err := resolve[*arxml.SwComponentType](m, s, field, handle, "CompositionSwComponentType")
	if err != nil {
		return nil, err
	}
	if c.Kind() != arxml.KindCompositionComponent {
		return nil, faults.InvalidReference("%s: %s is a %s, expected CompositionSwComponentType", field, handle, c.Kind())
	}
	return c, nil
}

// CreatePort adds a port typed by any port interface.
func (m *Manager) CreatePort(ctx context.Context, req PortRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		kind, ok := portKinds[upper(req.Direction)]
		if !ok {
			return faults.Validation("direction must be P, R or PR, got %q", req.Direction)
		}
		c, err := resolve[*arxml.SwComponentType](m, s, "component", req.Component, "component type")
		if err != nil {
			return err
		}
		iface, err := resolve[arxml.Element](m, s, "interface", req.Interface, "port interface")
		if err != nil {
			return err
		}
		if !iface.Kind().IsPortInterface() {
			return faults.InvalidReference("interface: %s is a %s, expected a port interface", req.Interface, iface.Kind())
		}
		p, err := c.CreatePort(req.Name, kind, arxml.RefTo(iface))
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, p)
		return err
	})
	return out, err
}

// CreateComSpec attaches a com spec for a data element or operation to a
// port. The init value is either a literal or a constant, never both.
func (m *Manager) CreateComSpec(ctx context.Context, req ComSpecRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		p, err := resolve[*arxml.Port](m, s, "port", req.Port, "port")
		if err != nil {
			return err
		}
		el, err := resolve[arxml.Element](m, s, "element", req.Element, "data element or operation")
		if err != nil {
			return err
		}
		if k := el.Kind(); k != arxml.KindDataElement && k != arxml.KindOperation {
			return faults.InvalidReference("element: %s is a %s, expected a data element or operation", req.Element, k)
		}
		opts := arxml.ComSpecOptions{
			Queued:       req.Queued,
			QueueLength:  req.QueueLength,
			AliveTimeout: req.AliveTimeout,
		}
		switch {
		case req.InitValue != nil && req.InitConstant != "":
			return faults.Validation("set either init_value or init_constant, not both")
		case req.InitValue != nil:
			v, err := arxml.MakeValue(req.InitValue)
			if err != nil {
				return faults.Validation("init_value: %v", err)
			}
			opts.InitValue = v
		case req.InitConstant != "":
			c, err := resolve[*arxml.ConstantSpecification](m, s, "init_constant", req.InitConstant, "ConstantSpecification")
			if err != nil {
				return err
			}
			opts.InitValue = arxml.ConstantValue(c)
		}
		cs, err := p.CreateComSpec(el, opts)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, cs)
		return err
	})
	return out, err
}

// CreateComponentPrototype instantiates a component type in a composition.
func (m *Manager) CreateComponentPrototype(ctx context.Context, req PrototypeRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		comp, err := m.composition(s, "composition", req.Composition)
		if err != nil {
			return err
		}
		typ, err := resolve[*arxml.SwComponentType](m, s, "component_type", req.ComponentType, "component type")
		if err != nil {
			return err
		}
		cp, err := comp.CreateComponentPrototype(req.Name, typ)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, cp)
		return err
	})
	return out, err
}

// CreateAssemblyConnector connects a provided port of one prototype to a
// required port of another.
func (m *Manager) CreateAssemblyConnector(ctx context.Context, req AssemblyRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		comp, err := m.composition(s, "composition", req.Composition)
		if err != nil {
			return err
		}
		prov, err := resolve[*arxml.ComponentPrototype](m, s, "provider", req.Provider, "SwComponentPrototype")
		if err != nil {
			return err
		}
		provPort, err := resolve[*arxml.Port](m, s, "provider_port", req.ProviderPort, "port")
		if err != nil {
			return err
		}
		reqr, err := resolve[*arxml.ComponentPrototype](m, s, "requester", req.Requester, "SwComponentPrototype")
		if err != nil {
			return err
		}
		reqPort, err := resolve[*arxml.Port](m, s, "requester_port", req.RequesterPort, "port")
		if err != nil {
			return err
		}
		conn, err := comp.CreateAssemblyConnector(req.Name, prov, provPort, reqr, reqPort)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, conn)
		return err
	})
	return out, err
}

// CreateDelegationConnector exposes an inner prototype's port through a port
// of the composition.
func (m *Manager) CreateDelegationConnector(ctx context.Context, req DelegationRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		comp, err := m.composition(s, "composition", req.Composition)
		if err != nil {
			return err
		}
		inner, err := resolve[*arxml.ComponentPrototype](m, s, "inner", req.Inner, "SwComponentPrototype")
		if err != nil {
			return err
		}
		innerPort, err := resolve[*arxml.Port](m, s, "inner_port", req.InnerPort, "port")
		if err != nil {
			return err
		}
		outerPort, err := resolve[*arxml.Port](m, s, "outer_port", req.OuterPort, "port")
		if err != nil {
			return err
		}
		conn, err := comp.CreateDelegationConnector(req.Name, inner, innerPort, outerPort)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, conn)
		return err
	})
	return out, err
}
