package tpl

import (
	"fmt"
	"html/template"
	"io"
	"io/fs"
	"os"
	"path"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"
)

const FileSuffix = ".gohtml"

type HTMLTemplateStore struct {
	Base     map[string]*template.Template // each file → one template
	Combined map[string]*template.Template // composed templates
	funcs    template.FuncMap
	logger   *zap.Logger
}

func NewHTMLTemplateStore(logger *zap.Logger, funcs template.FuncMap) *HTMLTemplateStore {
	return &HTMLTemplateStore{
		Base:     make(map[string]*template.Template),
		Combined: make(map[string]*template.Template),
		funcs:    funcs,
		logger:   logger,
	}
}

func (s *HTMLTemplateStore) LoadBaseTemplates(tplRoot string) error {
	return s.LoadBaseTemplatesFS(os.DirFS(tplRoot), ".")
}

// LoadBaseTemplatesFS parses every *.gohtml under root, e.g. from an embed.FS.
// Key: path relative to root without the suffix.
func (s *HTMLTemplateStore) LoadBaseTemplatesFS(fsys fs.FS, root string) error {
	count := 0
	err := fs.WalkDir( // Pre-order Depth-first Traversal
		fsys,
		root,
		func(p string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			name := d.Name()
			// Skip hidden files and directories
			if strings.HasPrefix(name, ".") && p != root {
				if d.IsDir() {
					return fs.SkipDir
				}
				return nil
			}
			if d.IsDir() || !strings.HasSuffix(p, FileSuffix) {
				return nil
			}
			data, err := fs.ReadFile(fsys, p)
			if err != nil {
				return err
			}
			if !utf8.Valid(data) {
				return fmt.Errorf("file %s is not valid UTF-8", p)
			}
			rel := strings.TrimPrefix(p, strings.TrimSuffix(root, "/")+"/")
			if root == "." {
				rel = p
			}
			key := strings.TrimSuffix(path.Clean(rel), FileSuffix)
			if _, exists := s.Base[key]; exists {
				return fmt.Errorf("duplicate template key detected: %s (file=%s)", key, p)
			}
			t, err := template.New(key).Funcs(s.funcs).Parse(string(data))
			if err != nil {
				return fmt.Errorf("parse error in %s: %w", p, err)
			}
			s.Base[key] = t
			count++
			return nil
		},
	)
	if err != nil {
		return err
	}
	s.logger.Info("templates loaded", zap.Int("count", count), zap.String("root", root))
	return nil
}

// Combine stores under key a clone of layout with the definitions of parts added.
// A part typically defines the blocks the layout executes ("title", "content").
func (s *HTMLTemplateStore) Combine(key string, layout string, parts ...string) error {
	base, ok := s.Base[layout]
	if !ok {
		return fmt.Errorf("layout template %q not found", layout)
	}
	t, err := base.Clone()
	if err != nil {
		return err
	}
	for _, part := range parts {
		p, ok := s.Base[part]
		if !ok {
			return fmt.Errorf("template %q not found", part)
		}
		for _, def := range p.Templates() {
			if def.Tree == nil || def.Name() == part {
				continue
			}
			if _, err = t.AddParseTree(def.Name(), def.Tree.Copy()); err != nil {
				return fmt.Errorf("combine %s: %w", key, err)
			}
		}
	}
	s.Combined[key] = t
	return nil
}

// Lookup prefers a combined template over a base one
func (s *HTMLTemplateStore) Lookup(key string) (*template.Template, bool) {
	if t, ok := s.Combined[key]; ok {
		return t, true
	}
	t, ok := s.Base[key]
	return t, ok
}

func (s *HTMLTemplateStore) Execute(w io.Writer, key string, data any) error {
	t, ok := s.Lookup(key)
	if !ok {
		return fmt.Errorf("template %q not found", key)
	}
	return t.Execute(w, data)
}
