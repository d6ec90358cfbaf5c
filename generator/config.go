package generator

import (
	"encoding/hex"
	"os"
	"strings"

	"github.com/goccy/go-yaml"
	"github.com/pkg/errors"
)

// specYAML is the on-disk spec format read by the herring CLI.
type specYAML struct {
	Package     string            `yaml:"package"`
	Type        string            `yaml:"type"`
	Error       string            `yaml:"error,omitempty"`
	Extras      string            `yaml:"extras,omitempty"`
	Source      string            `yaml:"source,omitempty"`
	Initial     string            `yaml:"initial,omitempty"`
	Ignore      string            `yaml:"ignore,omitempty"`
	Subpatterns map[string]string `yaml:"subpatterns,omitempty"`
	Skip        []patternYAML     `yaml:"skip,omitempty"`
	Tokens      []variantYAML     `yaml:"tokens"`
}

type variantYAML struct {
	Name        string        `yaml:"name"`
	patternYAML `yaml:",inline"`
	Patterns    []patternYAML `yaml:"patterns,omitempty"`
}

// patternYAML describes one pattern: exactly one of token, regex or hex.
// The bytes flag switches token and regex to raw byte interpretation; hex
// is always a raw byte literal.
type patternYAML struct {
	Token      string `yaml:"token,omitempty"`
	Regex      string `yaml:"regex,omitempty"`
	Hex        string `yaml:"hex,omitempty"`
	Bytes      bool   `yaml:"bytes,omitempty"`
	Priority   *int   `yaml:"priority,omitempty"`
	IgnoreCase bool   `yaml:"ignore_case,omitempty"`
	Callback   string `yaml:"callback,omitempty"`
}

func (p *patternYAML) empty() bool {
	return p.Token == "" && p.Regex == "" && p.Hex == ""
}

func (p *patternYAML) toSpec(context string) (PatternSpec, error) {
	declared := 0
	for _, v := range []string{p.Token, p.Regex, p.Hex} {
		if v != "" {
			declared++
		}
	}
	if declared != 1 {
		return PatternSpec{}, &ShapeError{Context: context, Reason: "exactly one of token, regex or hex expected"}
	}
	out := PatternSpec{
		Priority:   p.Priority,
		IgnoreCase: p.IgnoreCase,
		Callback:   p.Callback,
	}
	switch {
	case p.Hex != "":
		data, err := hex.DecodeString(strings.ReplaceAll(p.Hex, " ", ""))
		if err != nil {
			return PatternSpec{}, errors.Wrapf(err, "%s: invalid hex pattern", context)
		}
		out.Kind = KindTokenBytes
		out.Bytes = data
	case p.Token != "" && p.Bytes:
		out.Kind = KindTokenBytes
		out.Bytes = []byte(p.Token)
	case p.Token != "":
		out.Kind = KindToken
		out.Text = p.Token
	case p.Bytes:
		out.Kind = KindRegexBytes
		out.Text = p.Regex
	default:
		out.Kind = KindRegex
		out.Text = p.Regex
	}
	return out, nil
}

// ParseSpec decodes a YAML spec document.
func ParseSpec(data []byte) (*Spec, error) {
	var doc specYAML
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Errorf("spec yaml syntax error:\n%v", yaml.FormatError(err, false, true))
	}
	spec := &Spec{
		Options: Options{
			Package:    doc.Package,
			TypeName:   doc.Type,
			ErrorType:  doc.Error,
			ExtrasType: doc.Extras,
			Source:     doc.Source,
			Initial:    doc.Initial,
			IgnoreHook: doc.Ignore,
		},
		Subpatterns: doc.Subpatterns,
	}
	for _, p := range doc.Skip {
		ps, err := p.toSpec("skip")
		if err != nil {
			return nil, err
		}
		spec.Skips = append(spec.Skips, ps)
	}
	for _, v := range doc.Tokens {
		variant := Variant{Name: v.Name}
		if !v.patternYAML.empty() {
			ps, err := v.patternYAML.toSpec(v.Name)
			if err != nil {
				return nil, err
			}
			variant.Patterns = append(variant.Patterns, ps)
		}
		for _, p := range v.Patterns {
			ps, err := p.toSpec(v.Name)
			if err != nil {
				return nil, err
			}
			variant.Patterns = append(variant.Patterns, ps)
		}
		spec.Variants = append(spec.Variants, variant)
	}
	return spec, nil
}

// LoadSpec reads and decodes a YAML spec file.
func LoadSpec(path string) (*Spec, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "reading spec file")
	}
	return ParseSpec(data)
}
