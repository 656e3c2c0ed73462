package tokenizer

import (
	"fmt"
	"slices"
	"strconv"
	"strings"
)

// Token overheads of a chat-completion prompt. They are fitted to observed
// API usage counts, not derived from the chat format.
const (
	tokensPerMessage       = 3
	tokensPerName          = 1
	tokensFunctionRole     = -2
	tokensPerFunctionCall  = 3
	tokensPerCompletion    = 3
	tokensFunctionsBlock   = 9
	tokensSystemWithFuncs  = -4
	tokensFunctionCallNone = 1
	tokensFunctionCallName = 4
)

// CountChatTokens estimates the prompt tokens the API bills for a chat
// request, including function definitions and the function_call directive.
//
// The estimate reproduces the counts the API reports for the cl100k_base and
// o200k_base models. Text is counted with the default special-token policy,
// so content containing a special literal fails.
func (e *Encoding) CountChatTokens(req ChatRequest) (int, error) {
	hasFunctions := len(req.Functions) > 0

	total := 0
	padded := false
	for _, m := range req.Messages {
		// With functions present the first system message carries a trailing
		// newline before the definitions.
		if hasFunctions && !padded && m.Role == RoleSystem {
			if !strings.HasSuffix(m.Content, "\n") {
				m.Content += "\n"
			}
			padded = true
		}

		n, err := e.messageTokens(m)
		if err != nil {
			return 0, err
		}
		total += n
	}

	total += tokensPerCompletion

	if hasFunctions {
		defs, err := FormatFunctionDefinitions(req.Functions)
		if err != nil {
			return 0, err
		}
		n, err := e.CountTokens(defs)
		if err != nil {
			return 0, err
		}
		total += n + tokensFunctionsBlock

		if slices.ContainsFunc(req.Messages, func(m ChatMessage) bool { return m.Role == RoleSystem }) {
			total += tokensSystemWithFuncs
		}
	}

	if d := req.FunctionCall; d != nil {
		switch {
		case d.Name != "":
			n, err := e.CountTokens(d.Name)
			if err != nil {
				return 0, err
			}
			total += n + tokensFunctionCallName
		case d.Mode == FunctionCallNone:
			total += tokensFunctionCallNone
		}
	}

	return total, nil
}

func (e *Encoding) messageTokens(m ChatMessage) (int, error) {
	parts := []string{m.Role, m.Content, m.Name}
	if m.FunctionCall != nil {
		parts = append(parts, m.FunctionCall.Name, m.FunctionCall.Arguments)
	}

	total := tokensPerMessage
	for _, p := range parts {
		n, err := e.CountTokens(p)
		if err != nil {
			return 0, err
		}
		total += n
	}

	if m.Name != "" {
		total += tokensPerName
	}
	if m.Role == RoleFunction {
		total += tokensFunctionRole
	}
	if m.FunctionCall != nil {
		total += tokensPerFunctionCall
	}

	return total, nil
}

// FormatFunctionDefinitions renders function definitions the way the model
// sees them: a TypeScript-like namespace with one type per function.
//
//	namespace functions {
//
//	// Get the weather
//	type get_weather = (_: {
//	// City name
//	city: string,
//	unit?: "c" | "f",
//	}) => any;
//
//	} // namespace functions
func FormatFunctionDefinitions(functions []FunctionDefinition) (string, error) {
	lines := []string{"namespace functions {", ""}

	for _, f := range functions {
		if f.Description != "" {
			lines = append(lines, "// "+f.Description)
		}

		if f.Parameters != nil && f.Parameters.Properties != nil && f.Parameters.Properties.Len() > 0 {
			props, err := formatProperties(f.Parameters, 0)
			if err != nil {
				return "", fmt.Errorf("function %s: %w", f.Name, err)
			}
			lines = append(lines, "type "+f.Name+" = (_: {", props, "}) => any;")
		} else {
			lines = append(lines, "type "+f.Name+" = () => any;")
		}
		lines = append(lines, "")
	}

	lines = append(lines, "} // namespace functions")
	return strings.Join(lines, "\n"), nil
}

// formatProperties renders the properties of an object schema, one per line,
// each line prefixed by indent spaces. Descriptions are only rendered for the
// two outermost levels.
func formatProperties(obj *Schema, indent int) (string, error) {
	var lines []string

	if obj.Properties != nil {
		for pair := obj.Properties.Oldest(); pair != nil; pair = pair.Next() {
			name, prop := pair.Key, pair.Value
			if prop == nil {
				prop = &Schema{}
			}

			if prop.Description != "" && indent < 2 {
				lines = append(lines, "// "+prop.Description)
			}

			typ, err := formatType(prop, indent)
			if err != nil {
				return "", fmt.Errorf("property %s: %w", name, err)
			}

			if slices.Contains(obj.Required, name) {
				lines = append(lines, name+": "+typ+",")
			} else {
				lines = append(lines, name+"?: "+typ+",")
			}
		}
	}

	pad := strings.Repeat(" ", indent)
	for i, l := range lines {
		lines[i] = pad + l
	}
	return strings.Join(lines, "\n"), nil
}

func formatType(s *Schema, indent int) (string, error) {
	switch s.Type {
	case "string":
		if s.Enum != nil {
			return formatEnum(s.Enum, true), nil
		}
		return "string", nil
	case "number", "integer":
		if s.Enum != nil {
			return formatEnum(s.Enum, false), nil
		}
		return s.Type, nil
	case "boolean", "null":
		return s.Type, nil
	case "array":
		if s.Items == nil {
			return "any[]", nil
		}
		elem, err := formatType(s.Items, indent)
		if err != nil {
			return "", err
		}
		return elem + "[]", nil
	case "object":
		props, err := formatProperties(s, indent+2)
		if err != nil {
			return "", err
		}
		return "{\n" + props + "\n}", nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnsupportedSchemaType, s.Type)
	}
}

// formatEnum renders enum values as a union of literals.
func formatEnum(values []any, quote bool) string {
	parts := make([]string, len(values))
	for i, v := range values {
		s := literal(v)
		if quote {
			s = `"` + s + `"`
		}
		parts[i] = s
	}
	return strings.Join(parts, " | ")
}

func literal(v any) string {
	switch v := v.(type) {
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case nil:
		return "null"
	default:
		return fmt.Sprint(v)
	}
}
