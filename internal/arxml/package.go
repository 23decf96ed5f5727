package arxml

import (
	"fmt"
	"strings"
)

// Package is an AR-PACKAGE: a named container of packageable elements and
// sub-packages. Elements and sub-packages share one namespace.
type Package struct {
	base
	Elements []Element
	Packages []*Package
}

// NewPackage returns a detached, empty package.
func NewPackage(name string) *Package {
	return &Package{base: base{name: name}}
}

func (p *Package) Kind() Kind { return KindPackage }

// Append inserts e into the package. A *Package is added as a sub-package.
func (p *Package) Append(e Element) error {
	if !e.Kind().IsPackageable() {
		return fmt.Errorf("%w: %s cannot be placed in a package", ErrInvalidStructure, e.Kind())
	}
	if err := claim(p, e.Name()); err != nil {
		return err
	}
	if v, ok := e.(validator); ok {
		if err := v.validate(); err != nil {
			return err
		}
	}
	if a, ok := e.(attachable); ok {
		a.attach(p)
	}
	if sub, ok := e.(*Package); ok {
		p.Packages = append(p.Packages, sub)
		return nil
	}
	p.Elements = append(p.Elements, e)
	return nil
}

// CreatePackage creates and appends a sub-package.
func (p *Package) CreatePackage(name string) (*Package, error) {
	sub := NewPackage(name)
	if err := p.Append(sub); err != nil {
		return nil, err
	}
	return sub, nil
}

// Package returns the direct sub-package called name, or nil.
func (p *Package) Package(name string) *Package {
	for _, sub := range p.Packages {
		if sub.name == name {
			return sub
		}
	}
	return nil
}

// Element returns the direct element called name, or nil.
func (p *Package) Element(name string) Element {
	return findChild(name, p.Elements)
}

func (p *Package) child(name string) Element {
	if sub := p.Package(name); sub != nil {
		return sub
	}
	return p.Element(name)
}

// merge folds src into p: sub-packages with the same name merge recursively,
// everything else is appended. Stops at the first conflict; what was merged
// before it stays merged.
func (p *Package) merge(src *Package) error {
	for _, e := range src.Elements {
		if err := p.Append(e); err != nil {
			return err
		}
	}
	for _, sub := range src.Packages {
		if existing := p.Package(sub.name); existing != nil {
			if err := existing.merge(sub); err != nil {
				return err
			}
			continue
		}
		if err := p.Append(sub); err != nil {
			return err
		}
	}
	return nil
}

// splitPath turns "/A/B" or "A/B" into its segments.
func splitPath(path string) ([]string, error) {
	trimmed := strings.Trim(path, "/")
	if trimmed == "" {
		return nil, fmt.Errorf("%w: %q", ErrInvalidPath, path)
	}
	parts := strings.Split(trimmed, "/")
	for _, part := range parts {
		if err := ValidateName(part); err != nil {
			return nil, fmt.Errorf("%w: %q: %v", ErrInvalidPath, path, err)
		}
	}
	return parts, nil
}

// lookup descends from e through named children.
func lookup(e Element, parts []string) Element {
	cur := e
	for _, part := range parts {
		c, ok := cur.(container)
		if !ok {
			return nil
		}
		if cur = c.child(part); cur == nil {
			return nil
		}
	}
	return cur
}
