package docskema

import (
	"fmt"
	"maps"
	"slices"
	"sync"

	"github.com/kelseyhightower/envconfig"

	"github.com/reoring/docskema/i18n"
)

// EnvPrefix is the environment variable prefix read by LoadConfig.
const EnvPrefix = "DOCSKEMA"

// Validation actions and levels understood by document database validators.
const (
	ActionError = "error"
	ActionWarn  = "warn"

	LevelStrict   = "strict"
	LevelModerate = "moderate"
	LevelOff      = "off"
)

// Config is the process-wide configuration. It is installed with Configure
// and read as an immutable snapshot at the start of every shaping,
// validation and compilation run.
type Config struct {
	// IdentityField is the generated identity of a document. It may be
	// omitted on full inserts and is implicitly allowed when undeclared.
	IdentityField string `envconfig:"IDENTITY_FIELD" default:"_id"`
	// IdentityType is the type tag used for an undeclared identity field.
	IdentityType string `envconfig:"IDENTITY_TYPE" default:"any"`
	// AdditionalTypes maps registered type names to backend type tags,
	// e.g. DOCSKEMA_ADDITIONAL_TYPES=money:decimal,slug:string.
	AdditionalTypes map[string]string `envconfig:"ADDITIONAL_TYPES"`
	// ValidationAction and ValidationLevel are passed to the backend
	// validator when a compiled schema is attached.
	ValidationAction string `envconfig:"VALIDATION_ACTION" default:"error"`
	ValidationLevel  string `envconfig:"VALIDATION_LEVEL" default:"strict"`
	// Language selects the built-in message dictionary.
	Language string `envconfig:"MESSAGE_LANG" default:"en"`
	// AutoCheck makes guarded collections validate writes before they run.
	AutoCheck bool `envconfig:"AUTO_CHECK" default:"true"`
}

// DefaultConfig returns the configuration used when Configure was never
// called.
func DefaultConfig() Config {
	return Config{
		IdentityField:    "_id",
		IdentityType:     string(Any),
		ValidationAction: ActionError,
		ValidationLevel:  LevelStrict,
		Language:         "en",
		AutoCheck:        true,
	}
}

// LoadConfig reads a Config from DOCSKEMA_* environment variables.
func LoadConfig() (Config, error) {
	var c Config
	if err := envconfig.Process(EnvPrefix, &c); err != nil {
		return Config{}, fmt.Errorf("docskema: load config: %w", err)
	}
	return c, nil
}

// Validate reports configuration errors.
func (c Config) Validate() error {
	if !slices.Contains([]string{ActionError, ActionWarn}, c.ValidationAction) {
		return fmt.Errorf("docskema: invalid validation action %q", c.ValidationAction)
	}
	if !slices.Contains([]string{LevelStrict, LevelModerate, LevelOff}, c.ValidationLevel) {
		return fmt.Errorf("docskema: invalid validation level %q", c.ValidationLevel)
	}
	if c.Language != "" && !slices.Contains(i18n.Languages(), c.Language) {
		return fmt.Errorf("docskema: unsupported language %q", c.Language)
	}
	if c.IdentityType != "" && !snapshotTypes().known(Type(c.IdentityType)) {
		return fmt.Errorf("%w: identity type %q", ErrUnknownType, c.IdentityType)
	}
	return nil
}

func (c Config) clone() Config {
	c.AdditionalTypes = maps.Clone(c.AdditionalTypes)
	return c
}

var (
	configMu sync.RWMutex
	config   = DefaultConfig()
)

// Configure validates and installs c as the process-wide configuration.
func Configure(c Config) error {
	if c.IdentityType == "" {
		c.IdentityType = string(Any)
	}
	if err := c.Validate(); err != nil {
		return err
	}
	configMu.Lock()
	config = c.clone()
	configMu.Unlock()
	if c.Language != "" {
		i18n.SetLanguage(c.Language)
	}
	return nil
}

// CurrentConfig returns a snapshot of the process-wide configuration.
func CurrentConfig() Config {
	configMu.RLock()
	defer configMu.RUnlock()
	return config.clone()
}
