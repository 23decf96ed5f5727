package arxml

import (
	"fmt"
	"sort"
)

// Workspace is the root of a model: its root packages, a package map from
// short keys to packages, and the document layout used when writing.
type Workspace struct {
	Packages []*Package

	packageMap   map[string]*Package
	documentRoot string
	documents    []*Document
	mappings     []*DocumentMapping
}

// NewWorkspace returns an empty workspace.
func NewWorkspace() *Workspace {
	return &Workspace{packageMap: make(map[string]*Package)}
}

// RootPackage returns the root package called name, or nil.
func (w *Workspace) RootPackage(name string) *Package {
	for _, p := range w.Packages {
		if p.name == name {
			return p
		}
	}
	return nil
}

func (w *Workspace) appendRoot(p *Package) error {
	if err := ValidateName(p.name); err != nil {
		return err
	}
	if w.RootPackage(p.name) != nil {
		return fmt.Errorf("%w: root package %q", ErrDuplicateName, p.name)
	}
	p.parent = nil
	w.Packages = append(w.Packages, p)
	return nil
}

// MakePackages returns the package at path, creating every missing package
// along the way.
func (w *Workspace) MakePackages(path string) (*Package, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	cur := w.RootPackage(parts[0])
	if cur == nil {
		cur = NewPackage(parts[0])
		if err := w.appendRoot(cur); err != nil {
			return nil, err
		}
	}
	for _, part := range parts[1:] {
		if next := cur.Package(part); next != nil {
			cur = next
			continue
		}
		if cur.Element(part) != nil {
			return nil, fmt.Errorf("%w: %s/%s exists and is not a package", ErrInvalidStructure, Path(cur), part)
		}
		if cur, err = cur.CreatePackage(part); err != nil {
			return nil, err
		}
	}
	return cur, nil
}

// CreatePackageMap creates the package behind every path of mapping and binds
// it to its key. Existing keys are rebound. All paths are checked before any
// package is created.
func (w *Workspace) CreatePackageMap(mapping map[string]string) (map[string]*Package, error) {
	if len(mapping) == 0 {
		return nil, fmt.Errorf("%w: empty package map", ErrInvalidStructure)
	}
	keys := make([]string, 0, len(mapping))
	for key, path := range mapping {
		if key == "" {
			return nil, fmt.Errorf("%w: empty package key", ErrInvalidValue)
		}
		if _, err := splitPath(path); err != nil {
			return nil, fmt.Errorf("package key %q: %w", key, err)
		}
		keys = append(keys, key)
	}
	sort.Strings(keys)
	out := make(map[string]*Package, len(keys))
	for _, key := range keys {
		p, err := w.MakePackages(mapping[key])
		if err != nil {
			return nil, fmt.Errorf("package key %q: %w", key, err)
		}
		w.packageMap[key] = p
		out[key] = p
	}
	return out, nil
}

// PackageByKey returns the package bound to key by CreatePackageMap.
func (w *Workspace) PackageByKey(key string) (*Package, error) {
	p, ok := w.packageMap[key]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPackageKey, key)
	}
	return p, nil
}

// PackageKeys returns the bound keys in sorted order.
func (w *Workspace) PackageKeys() []string {
	keys := make([]string, 0, len(w.packageMap))
	for k := range w.packageMap {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Find returns the element at the absolute path, or nil when nothing lives
// there.
func (w *Workspace) Find(path string) (Element, error) {
	parts, err := splitPath(path)
	if err != nil {
		return nil, err
	}
	root := w.RootPackage(parts[0])
	if root == nil {
		return nil, nil
	}
	return lookup(root, parts[1:]), nil
}

// Merge folds packages, typically read from a file, into the workspace. Root
// packages with a known name merge into the existing ones.
func (w *Workspace) Merge(pkgs []*Package) error {
	for _, p := range pkgs {
		if existing := w.RootPackage(p.name); existing != nil {
			if err := existing.merge(p); err != nil {
				return err
			}
			continue
		}
		if err := w.appendRoot(p); err != nil {
			return err
		}
	}
	return nil
}
