package domain

import (
	"fmt"
	"regexp"
	"strings"
	"text/template"
)

// PromptFormatter selects how a template string is rendered.
type PromptFormatter string

const (
	// FormatterSimple substitutes {name} placeholders literally.
	FormatterSimple PromptFormatter = "simple"
	// FormatterGoTemplate renders with text/template, {{.name}} style.
	FormatterGoTemplate PromptFormatter = "gotemplate"
)

// NoAnswerInputKey names the prompt input holding the canonical sentence the
// model is instructed to reply with when the context holds no answer.
const NoAnswerInputKey = "no_answer_sentence"

// PromptTemplate couples a template string with static inputs. Static inputs
// act as partial variables and take precedence over runtime-injected ones.
type PromptTemplate struct {
	Formatter PromptFormatter
	Template  string
	Inputs    map[string]string
}

// NoAnswerSentence returns the configured no-answer sentence and whether one
// is configured at all.
func (p PromptTemplate) NoAnswerSentence() (string, bool) {
	if p.Inputs == nil {
		return "", false
	}
	sentence, ok := p.Inputs[NoAnswerInputKey]
	return sentence, ok && sentence != ""
}

var simplePlaceholderRe = regexp.MustCompile(`\{([a-zA-Z0-9_]+)\}`)

// Render resolves the template against runtime variables merged with the
// static inputs. An unresolved placeholder is a configuration error, not a
// silent pass-through.
func (p PromptTemplate) Render(runtime map[string]string) (string, error) {
	vars := make(map[string]string, len(p.Inputs)+len(runtime))
	for k, v := range runtime {
		vars[k] = v
	}
	for k, v := range p.Inputs {
		vars[k] = v
	}

	switch p.Formatter {
	case FormatterSimple, "":
		return renderSimple(p.Template, vars)
	case FormatterGoTemplate:
		return renderGoTemplate(p.Template, vars)
	default:
		return "", WrapError(ErrConfiguration, "render prompt",
			fmt.Errorf("unknown prompt formatter %q", p.Formatter))
	}
}

func renderSimple(tmpl string, vars map[string]string) (string, error) {
	var unresolved []string
	out := simplePlaceholderRe.ReplaceAllStringFunc(tmpl, func(match string) string {
		name := match[1 : len(match)-1]
		value, ok := vars[name]
		if !ok {
			unresolved = append(unresolved, name)
			return match
		}
		return value
	})
	if len(unresolved) > 0 {
		return "", WrapError(ErrConfiguration, "render prompt",
			fmt.Errorf("unresolved placeholders: %s", strings.Join(unresolved, ", ")))
	}
	return out, nil
}

func renderGoTemplate(tmpl string, vars map[string]string) (string, error) {
	parsed, err := template.New("prompt").Option("missingkey=error").Parse(tmpl)
	if err != nil {
		return "", WrapError(ErrConfiguration, "parse prompt template", err)
	}
	var b strings.Builder
	if err := parsed.Execute(&b, vars); err != nil {
		return "", WrapError(ErrConfiguration, "render prompt", err)
	}
	return b.String(), nil
}
