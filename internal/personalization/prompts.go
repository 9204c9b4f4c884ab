package personalization

import (
	_ "embed"
	"fmt"
	"os"
	"strings"
	"text/template"

	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

// Mode selects the agent persona for a call.
type Mode string

const (
	ModeInbound           Mode = "INBOUND"
	ModeVolunteerOutbound Mode = "VOLUNTEER_OUTBOUND"
	ModeSeniorCallback    Mode = "SENIOR_CALLBACK"
)

var Modes = []Mode{ModeInbound, ModeVolunteerOutbound, ModeSeniorCallback}

func (m Mode) Valid() bool {
	switch m {
	case ModeInbound, ModeVolunteerOutbound, ModeSeniorCallback:
		return true
	default:
		return false
	}
}

// Fact is one optional sentence, rendered only when every key it requires
// has a value.
type Fact struct {
	Text     string   `yaml:"text"`
	Requires []string `yaml:"requires"`

	tmpl *template.Template
}

type Record struct {
	Prompt       string   `yaml:"prompt"`
	FirstMessage string   `yaml:"first_message"`
	Preamble     []string `yaml:"preamble"`
	Facts        []Fact   `yaml:"facts"`
}

// Prompts holds one record per mode.
type Prompts struct {
	records map[Mode]*Record
}

// LoadPrompts reads path, or the built-in prompts when path is empty.
func LoadPrompts(path string) (*Prompts, error) {
	raw := defaultPrompts
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read prompts: %w", err)
		}
		raw = b
	}
	return ParsePrompts(raw)
}

func ParsePrompts(raw []byte) (*Prompts, error) {
	var records map[Mode]*Record
	if err := yaml.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse prompts: %w", err)
	}

	var errs []string
	for _, m := range Modes {
		rec, ok := records[m]
		if !ok || rec == nil {
			errs = append(errs, fmt.Sprintf("mode %s is missing", m))
			continue
		}
		if strings.TrimSpace(rec.Prompt) == "" {
			errs = append(errs, fmt.Sprintf("mode %s has no prompt", m))
		}
		for i := range rec.Facts {
			t, err := template.New(fmt.Sprintf("%s.facts[%d]", m, i)).Option("missingkey=zero").Parse(rec.Facts[i].Text)
			if err != nil {
				errs = append(errs, err.Error())
				continue
			}
			rec.Facts[i].tmpl = t
		}
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("prompts errors: %s", strings.Join(errs, "; "))
	}
	return &Prompts{records: records}, nil
}

// Record returns the record for m, falling back to INBOUND.
func (p *Prompts) Record(m Mode) *Record {
	if rec, ok := p.records[m]; ok && rec != nil {
		return rec
	}
	return p.records[ModeInbound]
}

// Render builds the system prompt for rec from vars.
func Render(rec *Record, vars map[string]string) (string, error) {
	parts := []string{strings.TrimSpace(rec.Prompt)}
	parts = append(parts, rec.Preamble...)

	for _, f := range rec.Facts {
		if !present(vars, f.Requires) {
			continue
		}
		tmpl := f.tmpl
		if tmpl == nil {
			var err error
			if tmpl, err = template.New("fact").Option("missingkey=zero").Parse(f.Text); err != nil {
				return "", err
			}
		}
		var b strings.Builder
		if err := tmpl.Execute(&b, vars); err != nil {
			return "", err
		}
		parts = append(parts, b.String())
	}
	return strings.TrimSpace(strings.Join(parts, " ")), nil
}

func present(vars map[string]string, keys []string) bool {
	for _, k := range keys {
		if strings.TrimSpace(vars[k]) == "" {
			return false
		}
	}
	return true
}
