package discount

import "fmt"

// Type determines which Discount a Config creates
type Type string

const (
	FixedType    Type = "Fixed"
	AdaptiveType Type = "Adaptive"
)

// Config describes a Discount so that it can be stored in a
// configuration file
type Config struct {
	Type   Type
	Gamma  float64 `json:",omitempty"`
	Alpha  float64 `json:",omitempty"`
	Source Source  `json:",omitempty"`
}

// Create returns the Discount described by the Config
func (c Config) Create() (Discount, error) {
	switch c.Type {
	case FixedType:
		return NewFixed(c.Gamma)

	case AdaptiveType:
		return NewAdaptive(c.Alpha, c.Source)

	default:
		return nil, fmt.Errorf("create: unknown discount type %v", c.Type)
	}
}
