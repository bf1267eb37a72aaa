// Package parse extracts class metadata from PHP source files using tree-sitter.
package parse

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phobologic/docreflect/internal/lang"
	"github.com/phobologic/docreflect/internal/model"
)

var classKinds = map[string]model.ClassKind{
	"class_declaration":     model.Class,
	"interface_declaration": model.Interface,
	"trait_declaration":     model.Trait,
	"enum_declaration":      model.Enum,
}

// ExtractFile parses a PHP source file and returns its namespace, imports,
// declarations and class references. The parser must be created for PHP.
// filePath is used only for FileInfo.Path and should be the repo-relative path.
func ExtractFile(ctx context.Context, parser *sitter.Parser, source []byte, filePath string) (model.FileInfo, error) {
	info := model.FileInfo{Path: filePath, Language: "php"}
	if len(source) == 0 {
		return info, nil
	}

	tree, err := parser.ParseCtx(ctx, nil, source)
	if err != nil {
		return info, fmt.Errorf("parsing %s: %w", filePath, err)
	}
	defer tree.Close()

	e := &extractor{source: source, info: &info}
	e.statements(tree.RootNode())
	return info, nil
}

// extractor walks one syntax tree. ns and uses are the scope in effect at the
// statement being visited.
type extractor struct {
	source        []byte
	info          *model.FileInfo
	ns            string
	uses          []model.UseAlias
	seenNamespace bool
}

func (e *extractor) statements(node *sitter.Node) {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "namespace_definition":
			e.namespace(child)
		case "namespace_use_declaration":
			e.use(child)
		case "class_declaration", "interface_declaration", "trait_declaration", "enum_declaration":
			e.info.Classes = append(e.info.Classes, e.class(child))
			e.references(child)
		case "function_definition":
			e.info.Functions = append(e.info.Functions, e.function(child))
			e.references(child)
		case "compound_statement":
			e.statements(child)
		default:
			e.references(child)
		}
	}
}

func (e *extractor) namespace(node *sitter.Node) {
	nameNode := node.ChildByFieldName("name")
	if nameNode == nil {
		nameNode = lang.FirstChild(node, "namespace_name")
	}
	e.ns = compact(lang.NodeText(nameNode, e.source))
	e.uses = nil
	if !e.seenNamespace {
		e.info.Namespace = e.ns
		e.seenNamespace = true
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = lang.FirstChild(node, "compound_statement")
	}
	if body != nil {
		e.statements(body)
		e.ns, e.uses = "", nil
	}
}

func (e *extractor) use(node *sitter.Node) {
	kind := useKind(node, model.UseClass)

	if group := lang.FirstChild(node, "namespace_use_group"); group != nil {
		prefix := compact(lang.NodeText(lang.FirstChild(node, "namespace_name", "qualified_name", "name"), e.source))
		for _, clause := range lang.Children(group, "namespace_use_group_clause", "namespace_use_clause") {
			e.useClause(clause, prefix, kind)
		}
		return
	}
	for _, clause := range lang.Children(node, "namespace_use_clause") {
		e.useClause(clause, "", kind)
	}
}

func (e *extractor) useClause(node *sitter.Node, prefix string, kind model.UseKind) {
	var name, alias string
	if a := node.ChildByFieldName("alias"); a != nil {
		alias = lang.NodeText(a, e.source)
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "name", "qualified_name", "namespace_name":
			text := compact(lang.NodeText(child, e.source))
			if name == "" {
				name = text
			} else if alias == "" {
				alias = text
			}
		case "namespace_aliasing_clause":
			alias = lang.NodeText(lang.FirstChild(child, "name"), e.source)
		}
	}
	if name == "" {
		return
	}
	name = strings.TrimPrefix(name, `\`)
	if prefix != "" {
		name = strings.TrimPrefix(prefix, `\`) + `\` + name
	}

	u := model.UseAlias{
		Name:  name,
		Alias: alias,
		Kind:  useKind(node, kind),
		Line:  lang.Line(node),
	}
	e.uses = append(e.uses, u)
	e.info.Uses = append(e.info.Uses, u)
}

// useKind looks for a `function` or `const` keyword among node's tokens.
func useKind(node *sitter.Node, fallback model.UseKind) model.UseKind {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.IsNamed() {
			continue
		}
		switch strings.ToLower(child.Type()) {
		case "function":
			return model.UseFunction
		case "const":
			return model.UseConst
		}
	}
	return fallback
}

func (e *extractor) class(node *sitter.Node) model.ClassInfo {
	c := model.ClassInfo{
		Name:      e.declName(node),
		Namespace: e.ns,
		Kind:      classKinds[node.Type()],
		Abstract:  lang.HasChild(node, "abstract_modifier"),
		Final:     lang.HasChild(node, "final_modifier"),
		Doc:       e.docComment(node),
		Line:      lang.Line(node),
	}

	if base := lang.FirstChild(node, "base_clause"); base != nil {
		names := e.names(base)
		if c.Kind == model.Interface {
			c.Interfaces = append(c.Interfaces, names...)
		} else if len(names) > 0 {
			c.Parent = names[0]
		}
	}
	if impl := lang.FirstChild(node, "class_interface_clause"); impl != nil {
		c.Interfaces = append(c.Interfaces, e.names(impl)...)
	}

	body := node.ChildByFieldName("body")
	if body == nil {
		body = lang.FirstChild(node, "declaration_list", "enum_declaration_list")
	}
	if body == nil {
		return c
	}

	for i := 0; i < int(body.NamedChildCount()); i++ {
		member := body.NamedChild(i)
		switch member.Type() {
		case "method_declaration":
			m := e.method(member)
			c.Methods = append(c.Methods, m)
			if strings.EqualFold(m.Name, "__construct") {
				c.Properties = append(c.Properties, e.promoted(member, m)...)
			}
		case "property_declaration":
			c.Properties = append(c.Properties, e.properties(member)...)
		case "const_declaration":
			c.Constants = append(c.Constants, e.constants(member)...)
		case "enum_case":
			c.Constants = append(c.Constants, e.enumCase(member))
		case "use_declaration":
			c.Traits = append(c.Traits, e.names(member)...)
		}
	}
	return c
}

func (e *extractor) method(node *sitter.Node) model.Method {
	return model.Method{
		Name:       e.declName(node),
		Visibility: e.visibility(node),
		Static:     lang.HasChild(node, "static_modifier"),
		Abstract:   lang.HasChild(node, "abstract_modifier"),
		Final:      lang.HasChild(node, "final_modifier"),
		Params:     e.params(node),
		ReturnType: e.returnType(node),
		Doc:        e.docComment(node),
		Line:       lang.Line(node),
	}
}

func (e *extractor) function(node *sitter.Node) model.Function {
	return model.Function{
		Name:       e.declName(node),
		Namespace:  e.ns,
		Params:     e.params(node),
		ReturnType: e.returnType(node),
		Doc:        e.docComment(node),
		Line:       lang.Line(node),
	}
}

func (e *extractor) params(node *sitter.Node) []model.Parameter {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		list = lang.FirstChild(node, "formal_parameters")
	}
	if list == nil {
		return nil
	}

	var params []model.Parameter
	for i := 0; i < int(list.NamedChildCount()); i++ {
		child := list.NamedChild(i)
		switch child.Type() {
		case "simple_parameter", "variadic_parameter", "property_promotion_parameter":
		default:
			continue
		}

		nameNode := child.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = lang.FirstChild(child, "variable_name", "by_ref")
		}
		name := lang.NodeText(nameNode, e.source)

		p := model.Parameter{
			Name:     strings.TrimLeft(name, "&$"),
			Type:     lang.CollapseWhitespace(lang.NodeText(child.ChildByFieldName("type"), e.source)),
			Variadic: child.Type() == "variadic_parameter",
			ByRef:    strings.HasPrefix(name, "&") || lang.HasChild(child, "reference_modifier", "&"),
			Promoted: child.Type() == "property_promotion_parameter",
		}
		if def := child.ChildByFieldName("default_value"); def != nil {
			p.Default = lang.CollapseWhitespace(lang.NodeText(def, e.source))
			p.HasDefault = true
		}
		if p.Promoted && p.Type == "" {
			p.Type = e.promotedType(child)
		}
		params = append(params, p)
	}
	return params
}

// promotedType returns the declared type of a promoted constructor
// parameter, which the grammar does not always expose as a field.
func (e *extractor) promotedType(node *sitter.Node) string {
	if t := node.ChildByFieldName("type"); t != nil {
		return lang.CollapseWhitespace(lang.NodeText(t, e.source))
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case "named_type", "optional_type", "primitive_type", "union_type", "intersection_type", "type_list":
			return lang.CollapseWhitespace(lang.NodeText(child, e.source))
		}
	}
	return ""
}

func (e *extractor) returnType(node *sitter.Node) string {
	return lang.CollapseWhitespace(lang.NodeText(node.ChildByFieldName("return_type"), e.source))
}

func (e *extractor) properties(node *sitter.Node) []model.Property {
	vis := e.visibility(node)
	static := lang.HasChild(node, "static_modifier")
	readonly := lang.HasChild(node, "readonly_modifier")
	typ := lang.CollapseWhitespace(lang.NodeText(node.ChildByFieldName("type"), e.source))
	doc := e.docComment(node)

	var props []model.Property
	for _, el := range lang.Children(node, "property_element") {
		nameNode := el.ChildByFieldName("name")
		if nameNode == nil {
			nameNode = lang.FirstChild(el, "variable_name")
		}
		p := model.Property{
			Name:       strings.TrimPrefix(lang.NodeText(nameNode, e.source), "$"),
			Visibility: vis,
			Type:       typ,
			Static:     static,
			Readonly:   readonly,
			Doc:        doc,
			Line:       lang.Line(el),
		}
		def := el.ChildByFieldName("default_value")
		if def == nil {
			if init := lang.FirstChild(el, "property_initializer"); init != nil && init.NamedChildCount() > 0 {
				def = init.NamedChild(0)
			}
		}
		if def != nil {
			p.Default = lang.CollapseWhitespace(lang.NodeText(def, e.source))
			p.HasDefault = true
		}
		props = append(props, p)
	}
	return props
}

func (e *extractor) constants(node *sitter.Node) []model.Constant {
	doc := e.docComment(node)
	var consts []model.Constant
	for _, el := range lang.Children(node, "const_element") {
		n := int(el.NamedChildCount())
		if n == 0 {
			continue
		}
		c := model.Constant{
			Name: lang.NodeText(el.NamedChild(0), e.source),
			Doc:  doc,
			Line: lang.Line(el),
		}
		if n > 1 {
			c.Value = lang.CollapseWhitespace(lang.NodeText(el.NamedChild(n-1), e.source))
		}
		consts = append(consts, c)
	}
	return consts
}

func (e *extractor) enumCase(node *sitter.Node) model.Constant {
	c := model.Constant{
		Name: e.declName(node),
		Doc:  e.docComment(node),
		Line: lang.Line(node),
	}
	if v := node.ChildByFieldName("value"); v != nil {
		c.Value = lang.CollapseWhitespace(lang.NodeText(v, e.source))
	}
	return c
}

func (e *extractor) visibility(node *sitter.Node) string {
	if v := lang.FirstChild(node, "visibility_modifier"); v != nil {
		return strings.ToLower(lang.NodeText(v, e.source))
	}
	return "public"
}

func (e *extractor) declName(node *sitter.Node) string {
	n := node.ChildByFieldName("name")
	if n == nil {
		n = lang.FirstChild(node, "name")
	}
	return lang.NodeText(n, e.source)
}

// names resolves every class name listed directly under node, as in
// `extends A, B` or `use TraitA, TraitB;`.
func (e *extractor) names(node *sitter.Node) []string {
	var out []string
	for _, n := range lang.Children(node, "name", "qualified_name") {
		out = append(out, e.resolve(lang.NodeText(n, e.source)))
	}
	return out
}

// docComment returns the /** */ comment directly preceding a declaration.
func (e *extractor) docComment(node *sitter.Node) string {
	prev := node.PrevNamedSibling()
	if prev == nil || prev.Type() != "comment" {
		return ""
	}
	text := lang.NodeText(prev, e.source)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	return text
}

func (e *extractor) references(node *sitter.Node) {
	switch node.Type() {
	case "object_creation_expression":
		e.ref(lang.FirstChild(node, "name", "qualified_name"))
	case "scoped_call_expression", "class_constant_access_expression", "scoped_property_access_expression":
		scope := node.ChildByFieldName("scope")
		if scope == nil && node.NamedChildCount() > 0 {
			scope = node.NamedChild(0)
		}
		e.ref(scope)
	case "binary_expression":
		if op := node.ChildByFieldName("operator"); op != nil && strings.EqualFold(lang.NodeText(op, e.source), "instanceof") {
			e.ref(node.ChildByFieldName("right"))
		}
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		e.references(node.NamedChild(i))
	}
}

func (e *extractor) ref(node *sitter.Node) {
	if node == nil {
		return
	}
	switch node.Type() {
	case "name", "qualified_name":
	default:
		return
	}
	name := e.resolve(lang.NodeText(node, e.source))
	switch strings.ToLower(name) {
	case "", "self", "static", "parent":
		return
	}
	e.info.References = append(e.info.References, model.Reference{Name: name, Line: lang.Line(node)})
}

func (e *extractor) resolve(name string) string {
	return model.Resolve(e.ns, e.uses, compact(name))
}

// promoted turns promoted constructor parameters into properties.
func (e *extractor) promoted(node *sitter.Node, m model.Method) []model.Property {
	list := node.ChildByFieldName("parameters")
	if list == nil {
		list = lang.FirstChild(node, "formal_parameters")
	}
	if list == nil {
		return nil
	}

	var props []model.Property
	promotedNodes := lang.Children(list, "property_promotion_parameter")
	i := 0
	for _, p := range m.Params {
		if !p.Promoted || i >= len(promotedNodes) {
			continue
		}
		n := promotedNodes[i]
		i++
		props = append(props, model.Property{
			Name:       p.Name,
			Visibility: e.visibility(n),
			Type:       p.Type,
			Default:    p.Default,
			HasDefault: p.HasDefault,
			Readonly:   lang.HasChild(n, "readonly_modifier"),
			Line:       lang.Line(n),
		})
	}
	return props
}

func compact(s string) string {
	return strings.Join(strings.Fields(s), "")
}
