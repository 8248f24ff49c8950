package config

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/oszuidwest/zwfm-crudread/internal/listread"
)

// Resources is the parsed resource file: what can be read, by whom.
type Resources struct {
	Defaults  Defaults            `yaml:"defaults"`
	Resources map[string]Resource `yaml:"resources" validate:"required,min=1,dive,keys,resourcename,endkeys,required"`
	Policies  []Policy            `yaml:"policies" validate:"dive"`
	Clients   []Client            `yaml:"clients" validate:"unique=Name,dive"`
}

// Defaults apply to every resource that leaves the value unset.
type Defaults struct {
	Limit    int `yaml:"limit" validate:"gte=0"`
	MaxLimit int `yaml:"max_limit" validate:"gte=0"`
}

// Resource declares one readable base query. Table, joins and conditions are
// trusted SQL fragments.
type Resource struct {
	Table        string   `yaml:"table" validate:"required"`
	Select       []string `yaml:"select" validate:"omitempty,dive,required"`
	Joins        []string `yaml:"joins" validate:"omitempty,dive,required"`
	Where        []string `yaml:"where" validate:"omitempty,dive,required"`
	DefaultOrder string   `yaml:"default_order"`

	listread.Settings `yaml:",inline"`
}

// Policy grants a role an action on a resource ("*" matches every resource).
type Policy struct {
	Role     string
	Resource string
	Action   string
}

// Client is an API client. KeyHash is a bcrypt hash of the client secret.
type Client struct {
	Name    string `yaml:"name" validate:"required,excludes=:"`
	KeyHash string `yaml:"key_hash" validate:"required,startswith=$2"`
	Role    string `yaml:"role" validate:"required"`
}

// UnmarshalYAML reads a policy written as a [role, resource, action] triple.
func (p *Policy) UnmarshalYAML(node *yaml.Node) error {
	var parts []string
	if err := node.Decode(&parts); err != nil {
		return err
	}
	if len(parts) != 3 {
		return fmt.Errorf("line %d: policy must be [role, resource, action], got %d values", node.Line, len(parts))
	}
	p.Role, p.Resource, p.Action = parts[0], parts[1], parts[2]
	return nil
}

var resourceNamePattern = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("column", func(fl validator.FieldLevel) bool {
		return listread.IsIdentifier(fl.Field().String())
	})
	_ = v.RegisterValidation("resourcename", func(fl validator.FieldLevel) bool {
		return resourceNamePattern.MatchString(fl.Field().String())
	})
	return v
}

// LoadResources reads and validates the resource file at path.
func LoadResources(path string) (*Resources, error) {
	// #nosec G304 - path comes from operator configuration
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read resource file: %w", err)
	}
	return ParseResources(data)
}

// ParseResources decodes and validates a resource file. Unknown keys are
// rejected so that typos do not silently disable a setting.
func ParseResources(data []byte) (*Resources, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var r Resources
	if err := dec.Decode(&r); err != nil {
		return nil, fmt.Errorf("failed to parse resource file: %w", err)
	}
	if err := validate.Struct(r); err != nil {
		return nil, fmt.Errorf("invalid resource file: %w", describeValidation(err))
	}
	for i, p := range r.Policies {
		if p.Resource != "*" {
			if _, ok := r.Resources[p.Resource]; !ok {
				return nil, fmt.Errorf("invalid resource file: policy %d names unknown resource %q", i, p.Resource)
			}
		}
	}
	return &r, nil
}

// Settings returns the resource's read settings with file defaults applied.
func (r *Resources) Settings(name string) (listread.Settings, bool) {
	res, ok := r.Resources[name]
	if !ok {
		return listread.Settings{}, false
	}
	s := res.Settings
	if s.DefaultLimit == 0 {
		s.DefaultLimit = r.Defaults.Limit
	}
	if s.MaxLimit == 0 {
		s.MaxLimit = r.Defaults.MaxLimit
	}
	return s, true
}

func describeValidation(err error) error {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	messages := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		messages = append(messages, fmt.Sprintf("%s failed %q", fe.Namespace(), fe.Tag()))
	}
	return errors.New(strings.Join(messages, "; "))
}
