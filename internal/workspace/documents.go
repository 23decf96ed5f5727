package workspace

import (
	"context"
	"fmt"
	"path/filepath"

	"autosar-mcp/internal/arxml"
	"autosar-mcp/internal/faults"
	"autosar-mcp/internal/security"
)

// SetDocumentRoot changes the output directory of a workspace. Relative
// paths resolve against the manager's document root.
func (m *Manager) SetDocumentRoot(ctx context.Context, req DocumentRootRequest) (DocumentRootResult, error) {
	var out DocumentRootResult
	err := m.do(req.WorkspaceID, func(s *session) error {
		dir := req.Path
		if !filepath.IsAbs(dir) {
			dir = filepath.Join(m.root, dir)
		}
		dir, err := security.WithinRoots(m.roots, dir)
		if err != nil {
			return faults.Validation("%v", err)
		}
		s.ws.SetDocumentRoot(dir)
		out.DocumentRoot = s.ws.DocumentRoot()
		return nil
	})
	return out, err
}

// checkOutput keeps relative output paths inside the document root and every
// output path inside the allowed roots.
func (m *Manager) checkOutput(s *session, field, p string) error {
	if !filepath.IsAbs(p) {
		if _, err := security.JailPath(s.ws.DocumentRoot(), p); err != nil {
			return faults.Validation("%s: %v", field, err)
		}
	}
	_, err := m.checkPath(s, p)
	return err
}

// CreateDocument declares an output file holding whole packages.
func (m *Manager) CreateDocument(ctx context.Context, req DocumentRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		if err := m.checkOutput(s, "file_path", req.FilePath); err != nil {
			return err
		}
		pkgs := make([]*arxml.Package, 0, len(req.Packages)+len(req.PackageHandles))
		for _, key := range req.Packages {
			p, err := s.ws.PackageByKey(key)
			if err != nil {
				return faults.NotFound("package key %q", key)
			}
			pkgs = append(pkgs, p)
		}
		for i, h := range req.PackageHandles {
			p, err := resolve[*arxml.Package](m, s, fmt.Sprintf("package_handles[%d]", i), h, "ARPackage")
			if err != nil {
				return err
			}
			pkgs = append(pkgs, p)
		}
		if len(pkgs) == 0 {
			return faults.Validation("packages or package_handles is required")
		}
		doc, err := s.ws.CreateDocument(req.FilePath, pkgs)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, doc)
		return err
	})
	return out, err
}

// CreateDocumentMapping splits the chosen element kinds of a package into
// one file per element.
func (m *Manager) CreateDocumentMapping(ctx context.Context, req DocumentMappingRequest) (Summary, error) {
	var out Summary
	err := m.do(req.WorkspaceID, func(s *session) error {
		if req.BasePath != "" {
			if err := m.checkOutput(s, "base_path", req.BasePath); err != nil {
				return err
			}
		}
		kinds := make([]arxml.Kind, 0, len(req.ElementKinds))
		for _, name := range req.ElementKinds {
			k, err := parseKind(name)
			if err != nil {
				return err
			}
			kinds = append(kinds, k)
		}
		pkg, err := m.locate(s, req.Locator)
		if err != nil {
			return err
		}
		mapping, err := s.ws.CreateDocumentMapping(pkg, kinds, req.SuffixFilters, req.BasePath)
		if err != nil {
			return faults.External(err)
		}
		out, err = m.register(s, mapping)
		return err
	})
	return out, err
}

// parseKind accepts a meta-class name such as ApplicationSwComponentType or
// its ARXML tag.
func parseKind(name string) (arxml.Kind, error) {
	if k, ok := arxml.KindOfTag(name); ok {
		return k, nil
	}
	if k := arxml.Kind(name); k.Tag() != "" {
		return k, nil
	}
	return "", faults.Validation("unknown element kind %q", name)
}

// WriteDocuments writes every planned file. Files are attempted in order and
// a failure does not stop the rest; the call fails only when every file
// failed.
func (m *Manager) WriteDocuments(ctx context.Context, req WriteRequest) (WriteResult, error) {
	var out WriteResult
	err := m.do(req.WorkspaceID, func(s *session) error {
		version := m.schemaVersion
		if req.SchemaVersion != nil {
			version = *req.SchemaVersion
		}
		wr, err := arxml.NewWriter(version, m.indent)
		if err != nil {
			return faults.Validation("%v", err)
		}
		plan, err := s.ws.Plan()
		if err != nil {
			return faults.External(err)
		}
		for _, f := range plan {
			if _, err := security.WithinRoots(m.roots, f.Path); err != nil {
				return faults.Validation("%v", err)
			}
		}
		results, err := s.ws.WriteDocuments(ctx, wr)
		if err != nil {
			return faults.External(err)
		}
		out = WriteResult{DocumentRoot: s.ws.DocumentRoot(), Files: make([]FileResult, 0, len(results))}
		for _, r := range results {
			fr := FileResult{Path: r.Path, OK: r.Err == nil, Bytes: r.Bytes}
			if r.Err != nil {
				fr.Error = r.Err.Error()
				out.Failed++
				m.log().Warn("document write failed", "workspace_id", s.id, "path", r.Path, "error", r.Err)
			} else {
				out.Written++
			}
			out.Files = append(out.Files, fr)
		}
		m.log().Info("documents written", "workspace_id", s.id, "written", out.Written, "failed", out.Failed, "schema_version", version)
		if out.Written == 0 {
			return faults.Report{
				Type:    faults.TypeIO,
				Message: fmt.Sprintf("all %d document writes failed", out.Failed),
				Context: map[string]any{"files": out.Files},
			}
		}
		return nil
	})
	return out, err
}
