// Package tags scans Java sources for restriction javadoc tags
// (@noextend, @noimplement, @noinstantiate, @noreference, @nooverride) and
// the matching marker annotations, producing descriptions that can be
// applied to the compiled types.
package tags

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/gobwas/glob"
	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	"golang.org/x/sync/errgroup"

	apperrors "apiguard/internal/core/errors"
	"apiguard/internal/engine/description"
	"apiguard/internal/engine/model"
	"apiguard/internal/shared/util"
)

var tagPattern = regexp.MustCompile(`@no(extend|implement|instantiate|reference|override)\b`)

type Options struct {
	// AnnotationPackage is the package of the NoExtend, NoImplement, ...
	// marker annotations.
	AnnotationPackage string
	Workers           int
	// Exclude holds slash-separated path globs relative to each root.
	Exclude []string
}

type Scanner struct {
	opts    Options
	exclude []glob.Glob
	lang    *sitter.Language
	walker  *walker
}

func NewScanner(opts Options) (*Scanner, error) {
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	s := &Scanner{
		opts: opts,
		lang: sitter.NewLanguage(tree_sitter_java.Language()),
	}
	for _, p := range opts.Exclude {
		g, err := glob.Compile(p, '/')
		if err != nil {
			return nil, apperrors.Wrap(err, apperrors.CodeValidationError, "compile exclude pattern "+p)
		}
		s.exclude = append(s.exclude, g)
	}
	s.walker = &walker{handlers: map[string]nodeHandler{
		"package_declaration":             s.handlePackage,
		"import_declaration":              s.handleImport,
		"class_declaration":               s.handleType,
		"interface_declaration":           s.handleType,
		"enum_declaration":                s.handleType,
		"annotation_type_declaration":     s.handleType,
		"record_declaration":              s.handleType,
		"method_declaration":              s.handleMethod,
		"constructor_declaration":         s.handleMethod,
		"compact_constructor_declaration": s.handleMethod,
		"field_declaration":               s.handleField,
		"constant_declaration":            s.handleField,
		// Local and anonymous classes are never restriction-bearing.
		"block":                           stop,
		"object_creation_expression":      stop,
		"enum_constant":                   stop,
	}}
	return s, nil
}

func stop(*walkContext, *sitter.Node) bool { return true }

// ParseSource extracts the declarations of one compilation unit.
func (s *Scanner) ParseSource(src []byte) ([]description.TypeEntry, error) {
	parser := sitter.NewParser()
	defer parser.Close()
	if err := parser.SetLanguage(s.lang); err != nil {
		return nil, apperrors.Wrap(err, apperrors.CodeInternal, "set java grammar")
	}
	tree := parser.Parse(src, nil)
	if tree == nil {
		return nil, apperrors.New(apperrors.CodeUnparseable, "parse java source")
	}
	defer tree.Close()

	ctx := &walkContext{
		source:  src,
		imports: imports{single: map[string]bool{}, wildcard: map[string]bool{}},
		entries: make(map[string]*entryBuilder),
	}
	s.walker.walk(ctx, tree.RootNode())

	var out []description.TypeEntry
	for _, name := range ctx.order {
		if e := ctx.entries[name]; !e.empty() {
			out = append(out, e.build())
		}
	}
	return out, nil
}

// Scan parses every .java file below roots. Files that cannot be read
// become notices; only cancellation is returned as an error.
func (s *Scanner) Scan(ctx context.Context, roots []string, component string) (*description.Description, []model.Notice, error) {
	var files []string
	var notices []model.Notice
	for _, root := range roots {
		err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return err
			}
			rel, _ := filepath.Rel(root, path)
			if s.excluded(filepath.ToSlash(rel)) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if !d.IsDir() && strings.HasSuffix(path, ".java") {
				files = append(files, path)
			}
			return nil
		})
		if err != nil {
			notices = append(notices, model.Notice{Kind: model.NoticeUnparseable, Subject: root, Reason: err.Error()})
		}
	}

	results := make([][]description.TypeEntry, len(files))
	failures := make([]*model.Notice, len(files))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i, path := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			src, err := os.ReadFile(path)
			if err == nil {
				results[i], err = s.ParseSource(src)
			}
			if err != nil {
				failures[i] = &model.Notice{Kind: model.NoticeUnparseable, Subject: path, Reason: err.Error()}
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, apperrors.Wrap(err, apperrors.CodeCanceled, "scan sources")
	}

	d := &description.Description{Component: component, Source: strings.Join(roots, string(os.PathListSeparator))}
	for i := range files {
		if failures[i] != nil {
			notices = append(notices, *failures[i])
			continue
		}
		d.Types = append(d.Types, results[i]...)
	}
	sort.SliceStable(d.Types, func(i, j int) bool { return d.Types[i].Name < d.Types[j].Name })
	slog.Debug("source tags scanned", "files", len(files), "types", len(d.Types), "declarations", d.Len())
	return d, notices, nil
}

func (s *Scanner) excluded(rel string) bool {
	rel = util.NormalizePatternPath(rel)
	for _, g := range s.exclude {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

func (s *Scanner) handlePackage(ctx *walkContext, node *sitter.Node) bool {
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() == "scoped_identifier" || child.Kind() == "identifier" {
			ctx.pkg = ctx.text(child)
		}
	}
	return true
}

func (s *Scanner) handleImport(ctx *walkContext, node *sitter.Node) bool {
	var name string
	wildcard := false
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		switch child.Kind() {
		case "scoped_identifier", "identifier":
			name = ctx.text(child)
		case "asterisk":
			wildcard = true
		}
	}
	if wildcard {
		ctx.imports.wildcard[name] = true
	} else if name != "" {
		ctx.imports.single[name] = true
	}
	return true
}

func (s *Scanner) handleType(ctx *walkContext, node *sitter.Node) bool {
	simple := ctx.text(node.ChildByFieldName("name"))
	if simple == "" {
		return true
	}
	var name string
	switch outer := ctx.current(); {
	case outer != "":
		name = outer + "$" + simple
	case ctx.pkg != "":
		name = ctx.pkg + "." + simple
	default:
		name = simple
	}
	e := ctx.entry(name)
	e.restrictions = e.restrictions.Union(s.declared(ctx, node))

	ctx.scope = append(ctx.scope, name)
	s.walker.walk(ctx, node.ChildByFieldName("body"))
	ctx.scope = ctx.scope[:len(ctx.scope)-1]
	return true
}

func (s *Scanner) handleMethod(ctx *walkContext, node *sitter.Node) bool {
	owner := ctx.current()
	if owner == "" {
		return true
	}
	name := ctx.text(node.ChildByFieldName("name"))
	if node.Kind() != "method_declaration" {
		name = model.ConstructorName
	}
	if set := s.declared(ctx, node); !set.Empty() && name != "" {
		ctx.entry(owner).method(name, set)
	}
	return true
}

func (s *Scanner) handleField(ctx *walkContext, node *sitter.Node) bool {
	owner := ctx.current()
	if owner == "" {
		return true
	}
	set := s.declared(ctx, node)
	if set.Empty() {
		return true
	}
	for i := uint(0); i < node.NamedChildCount(); i++ {
		child := node.NamedChild(i)
		if child.Kind() != "variable_declarator" {
			continue
		}
		if name := ctx.text(child.ChildByFieldName("name")); name != "" {
			ctx.entry(owner).field(name, set)
		}
	}
	return true
}

// declared unions the javadoc tags and marker annotations of a declaration.
func (s *Scanner) declared(ctx *walkContext, node *sitter.Node) model.RestrictionSet {
	var set model.RestrictionSet
	if doc := javadoc(ctx, node); doc != "" {
		for _, m := range tagPattern.FindAllStringSubmatch(doc, -1) {
			if k, ok := model.ParseKind(m[1]); ok {
				set = set.With(k)
			}
		}
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		child := node.Child(i)
		if child.Kind() != "modifiers" {
			continue
		}
		for j := uint(0); j < child.NamedChildCount(); j++ {
			ann := child.NamedChild(j)
			if ann.Kind() != "marker_annotation" && ann.Kind() != "annotation" {
				continue
			}
			if k, ok := s.annotationKind(ctx, ctx.text(ann.ChildByFieldName("name"))); ok {
				set = set.With(k)
			}
		}
	}
	return set
}

// annotationKind accepts a fully qualified annotation in the configured
// package, or a simple name imported from it.
func (s *Scanner) annotationKind(ctx *walkContext, name string) (model.Kind, bool) {
	pkg := s.opts.AnnotationPackage
	simple := name
	if idx := lastDot(name); idx >= 0 {
		if name[:idx] != pkg {
			return 0, false
		}
		simple = name[idx+1:]
	} else if !ctx.imports.has(pkg + "." + name) {
		return 0, false
	}
	k, ok := model.ParseKind(simple)
	if !ok || k.Annotation() != simple {
		return 0, false
	}
	return k, true
}

// javadoc returns the /** */ comment directly preceding node, skipping
// line comments.
func javadoc(ctx *walkContext, node *sitter.Node) string {
	prev := node.PrevSibling()
	for prev != nil && prev.Kind() == "line_comment" {
		prev = prev.PrevSibling()
	}
	if prev == nil || prev.Kind() != "block_comment" {
		return ""
	}
	text := ctx.text(prev)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}
