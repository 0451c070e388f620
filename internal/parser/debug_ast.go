package parser

import (
	"fmt"
	"mika/internal/ast"
	"mika/internal/token"
	"os"
	"reflect"
	"strconv"

	"gopkg.in/yaml.v3"
)

var tokenType = reflect.TypeOf(token.Token{})

// WalkAST converts a node into a YAML document tree. Struct fields keep
// their declaration order; tokens collapse to their position.
func WalkAST(node ast.Node) *yaml.Node {
	return walkValue(reflect.ValueOf(node))
}

func walkValue(v reflect.Value) *yaml.Node {
	for v.Kind() == reflect.Interface || v.Kind() == reflect.Ptr {
		if v.IsNil() {
			return scalar("!!null", "null")
		}
		v = v.Elem()
	}

	switch v.Kind() {
	case reflect.Struct:
		if v.Type() == tokenType {
			pos := v.Interface().(token.Token).Position
			return scalar("!!str", fmt.Sprintf("%d:%d", pos.Line, pos.Column))
		}
		out := &yaml.Node{Kind: yaml.MappingNode}
		out.Content = append(out.Content, scalar("!!str", "type"), scalar("!!str", v.Type().Name()))
		for i := 0; i < v.NumField(); i++ {
			field := v.Type().Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if field.Type == tokenType {
				name = "position"
			}
			out.Content = append(out.Content, scalar("!!str", name), walkValue(v.Field(i)))
		}
		return out
	case reflect.Slice:
		out := &yaml.Node{Kind: yaml.SequenceNode}
		for i := 0; i < v.Len(); i++ {
			out.Content = append(out.Content, walkValue(v.Index(i)))
		}
		return out
	case reflect.String:
		return scalar("!!str", v.String())
	case reflect.Bool:
		return scalar("!!bool", strconv.FormatBool(v.Bool()))
	case reflect.Int:
		return scalar("!!int", strconv.FormatInt(v.Int(), 10))
	case reflect.Float64:
		return scalar("!!float", strconv.FormatFloat(v.Float(), 'g', -1, 64))
	default:
		return scalar("!!str", fmt.Sprint(v.Interface()))
	}
}

func scalar(tag, value string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: tag, Value: value}
}

// DumpYAML renders node as a YAML document.
func DumpYAML(node ast.Node) ([]byte, error) {
	doc := &yaml.Node{Kind: yaml.DocumentNode, Content: []*yaml.Node{WalkAST(node)}}
	out, err := yaml.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("failed to render AST: %w", err)
	}
	return out, nil
}

// WriteASTToYAML takes a root AST node and writes it to a YAML file.
func WriteASTToYAML(node ast.Node, filename string) error {
	out, err := DumpYAML(node)
	if err != nil {
		return err
	}
	if err := os.WriteFile(filename, out, 0o644); err != nil {
		return fmt.Errorf("failed to write AST file: %w", err)
	}
	return nil
}
