// Package relight fits and applies relighting coefficients that map
// synthetic object pixel statistics onto real photograph statistics.
package relight

import (
	"fmt"
	"strings"

	"sign-relight/internal/colorspace"
)

// BaseMethod identifies the fitting strategy.
type BaseMethod int

const (
	None BaseMethod = iota
	Percentile
	Polynomial
	ColorTransfer
)

func (b BaseMethod) String() string {
	switch b {
	case None:
		return "none"
	case Percentile:
		return "percentile"
	case Polynomial:
		return "polynomial"
	case ColorTransfer:
		return "color_transfer"
	default:
		return "unknown"
	}
}

// ChannelSet restricts which channels of the working color space a method
// fits and rewrites. Unselected channels pass through unchanged.
type ChannelSet int

const (
	ChannelsAll    ChannelSet = iota // all three channels
	ChannelsPooled                   // one coefficient row fitted on all channels pooled
	ChannelsSV                       // saturation + value (HSV)
	ChannelsL                        // lightness only (Lab)
)

// Indices returns the channel indices covered by the set.
func (cs ChannelSet) Indices() []int {
	switch cs {
	case ChannelsSV:
		return []int{1, 2}
	case ChannelsL:
		return []int{0}
	default:
		return []int{0, 1, 2}
	}
}

// Reduction optionally collapses the three channels into one before a
// polynomial fit.
type Reduction int

const (
	ReduceNone Reduction = iota
	ReduceMax
	ReduceMean
)

// Method is a fully resolved relighting configuration. It replaces the ad
// hoc method-name strings of earlier experiments with explicit fields; the
// names are only parsed once at the CLI boundary.
type Method struct {
	Base       BaseMethod       `json:"base"`
	Space      colorspace.Space `json:"space"`
	Channels   ChannelSet       `json:"channels"`
	Reduce     Reduction        `json:"reduce,omitempty"`
	Degree     int              `json:"degree,omitempty"`     // polynomial degree
	Percentile float64          `json:"percentile,omitempty"` // scaling anchor or outlier-drop fraction
}

// Validate checks internal consistency of the method configuration.
func (m Method) Validate() error {
	switch m.Base {
	case None:
		return nil
	case Percentile:
		if m.Percentile < 0 || m.Percentile > 1 {
			return fmt.Errorf("percentile must be in [0, 1], got %g", m.Percentile)
		}
	case Polynomial:
		if m.Degree < 0 {
			return fmt.Errorf("polynomial degree must be non-negative, got %d", m.Degree)
		}
		if m.Percentile < 0 || m.Percentile >= 1 {
			return fmt.Errorf("outlier-drop fraction must be in [0, 1), got %g", m.Percentile)
		}
	case ColorTransfer:
		if m.Space == colorspace.RGB {
			return fmt.Errorf("color transfer requires a non-RGB color space")
		}
		if m.Reduce != ReduceNone {
			return fmt.Errorf("color transfer does not support channel reduction")
		}
	default:
		return fmt.Errorf("unknown relight method %d", m.Base)
	}
	return nil
}

// String returns the canonical method name, e.g. "polynomial_hsv-sv".
func (m Method) String() string {
	if m.Base == None {
		return "none"
	}
	name := m.Base.String()
	switch m.Reduce {
	case ReduceMax:
		return name + "_max"
	case ReduceMean:
		return name + "_mean"
	}
	suffix := ""
	switch m.Space {
	case colorspace.HSV:
		suffix = "_hsv"
	case colorspace.LabCIE, colorspace.LabLMS:
		suffix = "_lab"
	}
	switch m.Channels {
	case ChannelsSV:
		suffix += "-sv"
	case ChannelsL:
		suffix += "-l"
	}
	return name + suffix
}

// ParseMethod resolves a method name into a Method. Degree and percentile
// come from separate options since the names never carried them.
//
// Recognized names: none, percentile[_hsv-sv|_lab-l], polynomial,
// polynomial_max, polynomial_mean, polynomial_hsv-sv, polynomial_lab,
// polynomial_lab-l, color_transfer_hsv-sv, color_transfer_lab-l.
func ParseMethod(name string, degree int, percentile float64) (Method, error) {
	m := Method{Degree: degree, Percentile: percentile}

	base := name
	mode := ""
	if idx := strings.LastIndex(name, "_"); idx >= 0 {
		switch {
		case strings.HasPrefix(name, "color_transfer"):
			base = "color_transfer"
			mode = strings.TrimPrefix(name, "color_transfer")
			mode = strings.TrimPrefix(mode, "_")
		default:
			base = name[:idx]
			mode = name[idx+1:]
		}
	}

	switch base {
	case "", "none":
		m.Base = None
		return m, nil
	case "percentile":
		m.Base = Percentile
		m.Channels = ChannelsPooled
	case "polynomial":
		m.Base = Polynomial
	case "color_transfer":
		m.Base = ColorTransfer
	default:
		return Method{}, fmt.Errorf("unknown relight method %q", name)
	}

	space := mode
	channels := ""
	if idx := strings.Index(mode, "-"); idx >= 0 {
		space = mode[:idx]
		channels = mode[idx+1:]
	}

	switch space {
	case "":
		m.Space = colorspace.RGB
	case "hsv":
		m.Space = colorspace.HSV
	case "lab":
		// Color transfer uses the log-LMS variant; the other methods use
		// standard CIE Lab.
		if m.Base == ColorTransfer {
			m.Space = colorspace.LabLMS
		} else {
			m.Space = colorspace.LabCIE
		}
	case "max":
		m.Reduce = ReduceMax
	case "mean":
		m.Reduce = ReduceMean
	default:
		return Method{}, fmt.Errorf("unknown color space %q in method %q", space, name)
	}

	switch channels {
	case "":
	case "sv":
		m.Channels = ChannelsSV
	case "l":
		m.Channels = ChannelsL
	default:
		return Method{}, fmt.Errorf("unknown channel subset %q in method %q", channels, name)
	}

	if err := m.Validate(); err != nil {
		return Method{}, err
	}
	return m, nil
}
