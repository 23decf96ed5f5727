package arxml

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Document is one output file holding whole packages.
type Document struct {
	FilePath string
	Packages []*Package
}

func (d *Document) Name() string    { return d.FilePath }
func (d *Document) Kind() Kind      { return KindDocument }
func (d *Document) Parent() Element { return nil }

// DocumentMapping writes every element of the chosen kinds in a package to
// its own file, <BasePath>/<name>.arxml. Siblings named <name><suffix> for a
// suffix in Suffixes go into the same file.
type DocumentMapping struct {
	Package      *Package
	ElementKinds []Kind
	Suffixes     []string
	BasePath     string
}

func (m *DocumentMapping) Name() string    { return Path(m.Package) }
func (m *DocumentMapping) Kind() Kind      { return KindDocumentMapping }
func (m *DocumentMapping) Parent() Element { return nil }

func (m *DocumentMapping) maps(k Kind) bool {
	for _, want := range m.ElementKinds {
		if want == k {
			return true
		}
	}
	return false
}

// DefaultMappingKinds are the kinds a mapping selects when none are given.
var DefaultMappingKinds = []Kind{
	KindApplicationComponent,
	KindSensorActuatorComponent,
	KindServiceComponent,
	KindComplexDeviceDriver,
	KindCompositionComponent,
}

// SetDocumentRoot sets the directory relative document paths resolve
// against.
func (w *Workspace) SetDocumentRoot(dir string) {
	w.documentRoot = filepath.Clean(dir)
}

// DocumentRoot returns the directory set by SetDocumentRoot, or "".
func (w *Workspace) DocumentRoot() string { return w.documentRoot }

// ResolvePath joins a relative document path onto the document root.
func (w *Workspace) ResolvePath(p string) string {
	if filepath.IsAbs(p) || w.documentRoot == "" {
		return filepath.Clean(p)
	}
	return filepath.Join(w.documentRoot, p)
}

// CreateDocument adds a document holding pkgs. The file path must not be used
// by another document.
func (w *Workspace) CreateDocument(filePath string, pkgs []*Package) (*Document, error) {
	if strings.TrimSpace(filePath) == "" {
		return nil, fmt.Errorf("%w: empty document path", ErrInvalidValue)
	}
	if len(pkgs) == 0 {
		return nil, fmt.Errorf("%w: document %s has no packages", ErrInvalidStructure, filePath)
	}
	for _, d := range w.documents {
		if w.ResolvePath(d.FilePath) == w.ResolvePath(filePath) {
			return nil, fmt.Errorf("%w: document %s", ErrDuplicateName, filePath)
		}
	}
	doc := &Document{FilePath: filePath, Packages: append([]*Package(nil), pkgs...)}
	w.documents = append(w.documents, doc)
	return doc, nil
}

// CreateDocumentMapping adds a per-element mapping over pkg. Empty kinds
// select DefaultMappingKinds.
func (w *Workspace) CreateDocumentMapping(pkg *Package, kinds []Kind, suffixes []string, basePath string) (*DocumentMapping, error) {
	if len(kinds) == 0 {
		kinds = DefaultMappingKinds
	}
	for _, k := range kinds {
		if k.Tag() == "" || k == KindPackage {
			return nil, fmt.Errorf("%w: %s cannot be mapped to documents", ErrInvalidValue, k)
		}
	}
	for _, s := range suffixes {
		if s == "" {
			return nil, fmt.Errorf("%w: empty suffix filter", ErrInvalidValue)
		}
	}
	m := &DocumentMapping{
		Package:      pkg,
		ElementKinds: append([]Kind(nil), kinds...),
		Suffixes:     append([]string(nil), suffixes...),
		BasePath:     basePath,
	}
	w.mappings = append(w.mappings, m)
	return m, nil
}

// Documents returns the documents in creation order.
func (w *Workspace) Documents() []*Document { return w.documents }

// Mappings returns the document mappings in creation order.
func (w *Workspace) Mappings() []*DocumentMapping { return w.mappings }

// PlannedFile is one file WriteDocuments will produce.
type PlannedFile struct {
	Path      string
	Selection *Selection
}

// Plan expands documents and mappings into files. Entries that resolve to the
// same path are merged into the first one.
func (w *Workspace) Plan() ([]PlannedFile, error) {
	var files []PlannedFile
	index := make(map[string]int)
	add := func(path string, sel *Selection) {
		if i, ok := index[path]; ok {
			files[i].Selection.Union(sel)
			return
		}
		index[path] = len(files)
		files = append(files, PlannedFile{Path: path, Selection: sel})
	}
	for _, d := range w.documents {
		sel := NewSelection()
		for _, p := range d.Packages {
			sel.AddPackage(p)
		}
		add(w.ResolvePath(d.FilePath), sel)
	}
	for _, m := range w.mappings {
		for _, e := range m.Package.Elements {
			if !m.maps(e.Kind()) || m.isSuffixSibling(e) {
				continue
			}
			sel := NewSelection()
			sel.AddElement(e)
			for _, s := range m.Suffixes {
				if sib := m.Package.Element(e.Name() + s); sib != nil {
					sel.AddElement(sib)
				}
			}
			add(w.ResolvePath(filepath.Join(m.BasePath, e.Name()+".arxml")), sel)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w: no documents or document mappings to write", ErrInvalidStructure)
	}
	return files, nil
}

// isSuffixSibling reports whether e is itself written alongside another
// mapped element.
func (m *DocumentMapping) isSuffixSibling(e Element) bool {
	for _, s := range m.Suffixes {
		stem, ok := strings.CutSuffix(e.Name(), s)
		if !ok || stem == "" {
			continue
		}
		if owner := m.Package.Element(stem); owner != nil && m.maps(owner.Kind()) {
			return true
		}
	}
	return false
}

// WriteResult reports the outcome for one planned file.
type WriteResult struct {
	Path  string
	Bytes int64
	Err   error
}

// WriteDocuments writes every planned file in order. A failing file does not
// stop the others; files already written are left in place. Once ctx is done
// the remaining files fail with ctx.Err().
func (w *Workspace) WriteDocuments(ctx context.Context, wr *Writer) ([]WriteResult, error) {
	plan, err := w.Plan()
	if err != nil {
		return nil, err
	}
	results := make([]WriteResult, 0, len(plan))
	for _, f := range plan {
		res := WriteResult{Path: f.Path}
		if err := ctx.Err(); err != nil {
			res.Err = err
			results = append(results, res)
			continue
		}
		if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
			res.Err = err
		} else {
			res.Bytes, res.Err = wr.WriteFile(f.Path, w.Packages, f.Selection)
		}
		results = append(results, res)
	}
	return results, nil
}

// Selection picks the part of a package tree a file contains: whole
// packages, single elements, and the packages leading to them.
type Selection struct {
	whole    map[*Package]bool
	elements map[Element]bool
	onPath   map[*Package]bool
}

// NewSelection returns an empty selection.
func NewSelection() *Selection {
	return &Selection{
		whole:    make(map[*Package]bool),
		elements: make(map[Element]bool),
		onPath:   make(map[*Package]bool),
	}
}

// AddPackage selects p with everything below it.
func (s *Selection) AddPackage(p *Package) {
	s.whole[p] = true
	s.markAncestors(p)
}

// AddElement selects a single packageable element.
func (s *Selection) AddElement(e Element) {
	s.elements[e] = true
	if parent, ok := e.Parent().(*Package); ok {
		s.markAncestors(parent)
	}
}

func (s *Selection) markAncestors(p *Package) {
	for cur := p; cur != nil; {
		s.onPath[cur] = true
		parent, ok := cur.Parent().(*Package)
		if !ok {
			return
		}
		cur = parent
	}
}

// Union adds everything selected by o.
func (s *Selection) Union(o *Selection) {
	for p := range o.whole {
		s.whole[p] = true
	}
	for e := range o.elements {
		s.elements[e] = true
	}
	for p := range o.onPath {
		s.onPath[p] = true
	}
}

// Empty reports whether nothing is selected.
func (s *Selection) Empty() bool { return len(s.whole) == 0 && len(s.elements) == 0 }

func (s *Selection) wholePackage(p *Package) bool { return s == nil || s.whole[p] }

func (s *Selection) touches(p *Package) bool { return s == nil || s.whole[p] || s.onPath[p] }

func (s *Selection) element(e Element) bool { return s == nil || s.elements[e] }
