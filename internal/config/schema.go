package config

import "time"

// Form ordering and copy acquisition modes.
const (
	OrderBookFirst    = "group-book-student"
	OrderStudentFirst = "group-student-book"

	ModeQuantity = "quantity"
	ModeManual   = "manual"
)

// Config is the top-level libreq configuration.
type Config struct {
	Server ServerConfig `mapstructure:"server"`
	Form   FormConfig   `mapstructure:"form"`
	Scan   ScanConfig   `mapstructure:"scan"`
	Log    LogConfig    `mapstructure:"log"`
	Dev    DevConfig    `mapstructure:"dev"`
}

// ServerConfig holds the lending backend connection settings.
type ServerConfig struct {
	BaseURL string        `mapstructure:"base_url" validate:"required,url"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

// FormConfig selects which form variant the client behaves as.
type FormConfig struct {
	Order     string         `mapstructure:"order" validate:"oneof=group-book-student group-student-book"`
	Mode      string         `mapstructure:"mode" validate:"oneof=quantity manual"`
	Strict    bool           `mapstructure:"strict"`
	Collation string         `mapstructure:"collation" validate:"required"`
	Debounce  DebounceConfig `mapstructure:"debounce"`
}

// DebounceConfig holds per-field search debounce windows.
type DebounceConfig struct {
	Students time.Duration `mapstructure:"students" validate:"gte=0"`
	Books    time.Duration `mapstructure:"books" validate:"gte=0"`
}

// ScanConfig configures the QR capture loop.
type ScanConfig struct {
	Interval time.Duration `mapstructure:"interval" validate:"gt=0"`
	Source   string        `mapstructure:"source"` // snapshot image path written by a capture tool
}

// LogConfig configures the zap logger.
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format" validate:"oneof=json console"`
	File   string `mapstructure:"file"`
}

// DevConfig configures the fixture backend.
type DevConfig struct {
	Addr     string `mapstructure:"addr" validate:"required"`
	Fixtures string `mapstructure:"fixtures"`
}

// StudentFirst reports whether the student must be chosen before the book.
func (f FormConfig) StudentFirst() bool {
	return f.Order == OrderStudentFirst
}

// QuantityMode reports whether copies are picked with the quantity stepper.
func (f FormConfig) QuantityMode() bool {
	return f.Mode != ModeManual
}

// EffectiveCollation returns the collation language tag, "ru" when unset.
func (f FormConfig) EffectiveCollation() string {
	if f.Collation != "" {
		return f.Collation
	}
	return "ru"
}
