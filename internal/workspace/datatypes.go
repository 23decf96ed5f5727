package workspace

import (
	"context"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
)

// CreateBaseType adds a SW-BASE-TYPE.
func (m *Manager) CreateBaseType(ctx context.Context, req BaseTypeRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		t := arxml.NewSwBaseType(req.Name)
		if req.Category != "" {
			t.Category = req.Category
		}
		t.Size, t.MaxSize, t.Alignment = req.Size, req.MaxSize, req.Alignment
		t.Encoding = req.Encoding
		t.NativeDeclaration = req.NativeDeclaration
		if req.ByteOrder != "" {
			bo, err := arxml.ParseByteOrder(req.ByteOrder)
			if err != nil {
				return faults.Validation("%v", err)
			}
			t.ByteOrder = bo
		}
		var err error
		out, err = m.place(s, req.Locator, t)
		return err
	})
	return out, err
}

// CreateImplementationDataType adds an IMPLEMENTATION-DATA-TYPE. With a base
// type and no locator it goes into the base type's package.
func (m *Manager) CreateImplementationDataType(ctx context.Context, req ImplementationTypeRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		t := arxml.NewImplementationDataType(req.Name, req.Category)
		var home *arxml.Package
		if req.BaseType != "" {
			bt, err := resolve[*arxml.SwBaseType](m, s, "base_type", req.BaseType, "SwBaseType")
			if err != nil {
				return err
			}
			t.BaseTypeRef = arxml.RefTo(bt)
			home, _ = bt.Parent().(*arxml.Package)
		}
		if req.TypeReference != "" {
			ref, err := resolve[*arxml.ImplementationDataType](m, s, "type_reference", req.TypeReference, "ImplementationDataType")
			if err != nil {
				return err
			}
			t.TypeRef = arxml.RefTo(ref)
		}
		pkg := home
		if req.Package != "" || req.PackageHandle != "" || home == nil {
			var err error
			if pkg, err = m.locate(s, req.Locator); err != nil {
				return err
			}
		}
		var err error
		out, err = m.insert(s, pkg, t)
		return err
	})
	return out, err
}

// CreateUnit adds a UNIT.
func (m *Manager) CreateUnit(ctx context.Context, req UnitRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		u := arxml.NewUnit(req.Name)
		u.DisplayName = req.DisplayName
		u.Factor, u.Offset = req.Factor, req.Offset
		if req.PhysicalDimensionRef != "" {
			u.PhysicalDimensionRef = arxml.Ref{Dest: "PHYSICAL-DIMENSION", Path: req.PhysicalDimensionRef}
		}
		var err error
		out, err = m.place(s, req.Locator, u)
		return err
	})
	return out, err
}

// CreateConstant adds a CONSTANT-SPECIFICATION from a JSON value.
func (m *Manager) CreateConstant(ctx context.Context, req ConstantRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		if req.Value == nil {
			return faults.Validation("value is required")
		}
		c, err := arxml.NewConstant(req.Name, req.Value)
		if err != nil {
			return faults.Validation("value: %v", err)
		}
		out, err = m.place(s, req.Locator, c)
		return err
	})
	return out, err
}
