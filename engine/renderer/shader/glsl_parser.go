package shader

import (
	"fmt"
	"regexp"
	"strings"
)

// glslComponentMap maps GLSL float types to their component count.
var glslComponentMap = map[string]int{
	"float": 1,
	"vec2":  2,
	"vec3":  3,
	"vec4":  4,
	"mat2":  4,
	"mat3":  9,
	"mat4":  16,
}

// glslIgnoredQualifiers are qualifiers that may precede the type in a declaration but do not
// change how the renderer binds the variable.
var glslIgnoredQualifiers = map[string]bool{
	"lowp":          true,
	"mediump":       true,
	"highp":         true,
	"flat":          true,
	"smooth":        true,
	"noperspective": true,
	"centroid":      true,
	"invariant":     true,
}

var (
	blockCommentRegex = regexp.MustCompile(`(?s)/\*.*?\*/`)
	lineCommentRegex  = regexp.MustCompile(`//[^\n]*`)
	layoutRegex       = regexp.MustCompile(`^layout\s*\([^)]*\)\s*`)
	identRegex        = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
)

// stripComments removes block and line comments from GLSL source.
func stripComments(source string) string {
	source = blockCommentRegex.ReplaceAllString(source, " ")
	return lineCommentRegex.ReplaceAllString(source, "")
}

// parseDeclarations extracts global attribute and uniform declarations from GLSL source.
// Only statements at brace depth zero are considered, so locals and struct members are skipped.
func parseDeclarations(source string, shaderType ShaderType) ([]Declaration, error) {
	code := stripComments(source)

	var decls []Declaration
	depth := 0
	var stmt strings.Builder
	for _, r := range code {
		switch r {
		case '{':
			depth++
			stmt.Reset()
			continue
		case '}':
			depth--
			stmt.Reset()
			continue
		case ';':
			if depth == 0 {
				d, err := parseStatement(stmt.String(), shaderType)
				if err != nil {
					return nil, err
				}
				decls = append(decls, d...)
			}
			stmt.Reset()
			continue
		}
		if depth == 0 {
			stmt.WriteRune(r)
		}
	}
	if depth != 0 {
		return nil, fmt.Errorf("unbalanced braces in shader source")
	}

	for i := range decls {
		decls[i].Referenced = countIdentifier(code, decls[i].Name) > 1
	}
	return decls, nil
}

// parseStatement parses one top-level statement. Statements that are not attribute or
// uniform declarations yield no declarations.
func parseStatement(stmt string, shaderType ShaderType) ([]Declaration, error) {
	stmt = strings.TrimSpace(stmt)
	// preprocessor lines carry no semicolon of their own, so drop any leading ones
	for strings.HasPrefix(stmt, "#") {
		nl := strings.IndexByte(stmt, '\n')
		if nl < 0 {
			return nil, nil
		}
		stmt = strings.TrimSpace(stmt[nl+1:])
	}
	stmt = layoutRegex.ReplaceAllString(stmt, "")

	fields := strings.Fields(stmt)
	if len(fields) < 3 {
		return nil, nil
	}

	var qualifier Qualifier
	switch fields[0] {
	case "uniform":
		qualifier = QualifierUniform
	case "attribute":
		qualifier = QualifierAttribute
	case "in":
		if shaderType != ShaderTypeVertex {
			return nil, nil
		}
		qualifier = QualifierAttribute
	default:
		return nil, nil
	}

	rest := fields[1:]
	for len(rest) > 0 && glslIgnoredQualifiers[rest[0]] {
		rest = rest[1:]
	}
	if len(rest) < 2 {
		return nil, fmt.Errorf("malformed %s declaration %q", qualifier, stmt)
	}

	typ := rest[0]
	var decls []Declaration
	for _, raw := range strings.Split(strings.Join(rest[1:], " "), ",") {
		name := strings.TrimSpace(raw)
		if i := strings.IndexByte(name, '['); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if i := strings.IndexByte(name, '='); i >= 0 {
			name = strings.TrimSpace(name[:i])
		}
		if !identRegex.MatchString(name) {
			return nil, fmt.Errorf("malformed %s declaration %q", qualifier, stmt)
		}
		decls = append(decls, Declaration{
			Qualifier:  qualifier,
			Type:       typ,
			Name:       name,
			Components: glslComponentMap[typ],
		})
	}
	return decls, nil
}

// countIdentifier counts whole-word occurrences of name in code.
func countIdentifier(code, name string) int {
	re := regexp.MustCompile(`\b` + regexp.QuoteMeta(name) + `\b`)
	return len(re.FindAllStringIndex(code, -1))
}
