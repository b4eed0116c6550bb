// Package config holds the immutable configuration snapshot of a pivot table.
//
// Options are decoded from loosely typed records (JSON, YAML or TOML documents, or
// maps built by the host) with mapstructure. Absent options keep their defaults.
package config

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// ActionShowListing is the control action that selects a custom drill-through listing.
const ActionShowListing = "showListing"

// DataSource is the configuration of a single data source.
type DataSource struct {
	BasicMDX  string        `mapstructure:"basicMDX" json:"basicMDX,omitempty"`
	Server    string        `mapstructure:"server" json:"server,omitempty"`
	Namespace string        `mapstructure:"namespace" json:"namespace,omitempty"`
	Username  string        `mapstructure:"username" json:"username,omitempty"`
	Password  string        `mapstructure:"password" json:"-"`
	Timeout   time.Duration `mapstructure:"timeout" json:"timeout,omitempty"`
}

// Control is an entry of the host's control list.
type Control struct {
	Action         string `mapstructure:"action" json:"action"`
	TargetProperty string `mapstructure:"targetProperty" json:"targetProperty,omitempty"`
}

// Config is the user-supplied configuration of a pivot table.
// It is a value type; the engine never mutates it after construction.
type Config struct {
	ColumnResizing        bool `mapstructure:"columnResizing" json:"columnResizing"`
	Pagination            int  `mapstructure:"pagination" json:"pagination"`
	EnableSearch          bool `mapstructure:"enableSearch" json:"enableSearch"`
	StretchColumns        bool `mapstructure:"stretchColumns" json:"stretchColumns"`
	EnableListingSelect   bool `mapstructure:"enableListingSelect" json:"enableListingSelect"`
	ShowListingRowsNumber bool `mapstructure:"showListingRowsNumber" json:"showListingRowsNumber"`

	DataSource DataSource `mapstructure:"dataSource" json:"dataSource"`
	Locale     string     `mapstructure:"locale" json:"locale,omitempty"`

	// DrillDownExpression holds one drill override per level. A scalar in the
	// source document is decoded as a one-element sequence.
	DrillDownExpression []string `mapstructure:"drillDownExpression" json:"drillDownExpression,omitempty"`

	DefaultFilterSpecs []string       `mapstructure:"defaultFilterSpecs" json:"defaultFilterSpecs,omitempty"`
	RowCount           int            `mapstructure:"rowCount" json:"rowCount,omitempty"`
	Controls           []Control      `mapstructure:"controls" json:"controls,omitempty"`
	PivotProperties    map[string]any `mapstructure:"pivotProperties" json:"pivotProperties,omitempty"`
}

// Default returns the configuration used when an option is absent.
func Default() Config {
	return Config{
		ColumnResizing:        true,
		Pagination:            200,
		EnableSearch:          true,
		StretchColumns:        true,
		EnableListingSelect:   true,
		ShowListingRowsNumber: true,
	}
}

// Decode applies a loosely typed record on top of the defaults.
// Input that is not a record yields the defaults and no error.
func Decode(raw any) (Config, error) {
	cfg := Default()

	switch v := raw.(type) {
	case Config:
		return v, nil
	case *Config:
		if v == nil {
			return cfg, nil
		}
		return *v, nil
	case map[string]any:
		if v == nil {
			return cfg, nil
		}
	default:
		return cfg, nil
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &cfg,
		WeaklyTypedInput: false,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			scalarToSliceHook,
		),
	})
	if err != nil {
		return Default(), fmt.Errorf("failed to build config decoder: %w", err)
	}
	if err := decoder.Decode(raw); err != nil {
		return Default(), fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// FromAny is the total form of Decode: malformed input falls back to the defaults.
func FromAny(raw any) Config {
	cfg, err := Decode(raw)
	if err != nil {
		return Default()
	}
	return cfg
}

// scalarToSliceHook lifts a single string into a one-element string slice.
func scalarToSliceHook(from reflect.Type, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	if from.Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	if s == "" {
		return []string{}, nil
	}
	return []string{s}, nil
}

// DrillExpression returns the drill-down override configured for a level.
func (c Config) DrillExpression(level int) (string, bool) {
	if level < 0 || level >= len(c.DrillDownExpression) {
		return "", false
	}
	expr := c.DrillDownExpression[level]
	return expr, expr != ""
}

// ListingTarget returns the target property of the first "show listing" control.
func (c Config) ListingTarget() (string, bool) {
	for _, ctrl := range c.Controls {
		if ctrl.Action == ActionShowListing {
			return ctrl.TargetProperty, ctrl.TargetProperty != ""
		}
	}
	return "", false
}

// PivotProperty looks a value up in the pivot properties tree.
func (c Config) PivotProperty(path ...string) (any, bool) {
	if c.PivotProperties == nil {
		return nil, false
	}
	return Lookup(c.PivotProperties, path...)
}

// Lookup walks a nested record by key. It never panics: a missing key or a
// non-record intermediate value yields (nil, false). An empty path returns the tree.
func Lookup(tree map[string]any, path ...string) (any, bool) {
	if tree == nil {
		return nil, false
	}
	var cur any = tree
	for _, key := range path {
		next, ok := child(cur, key)
		if !ok {
			return nil, false
		}
		cur = next
	}
	return cur, true
}

func child(node any, key string) (any, bool) {
	switch m := node.(type) {
	case map[string]any:
		v, ok := m[key]
		return v, ok
	case map[any]any:
		v, ok := m[key]
		return v, ok
	default:
		return nil, false
	}
}
