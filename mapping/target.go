package mapping

import (
	"fmt"

	"github.com/openpad/go-remap/settings"
)

// TargetKind discriminates digital mapping targets.
type TargetKind int

const (
	// TargetButton is an ordinary digital destination slot
	TargetButton TargetKind = iota

	// TargetDpad is one of the four virtual DPAD-layer directions.
	// These are not real slots: binding one repurposes the source into
	// the DPAD layer instead of writing a mapping entry.
	TargetDpad
)

// Target names where a digital source should be bound: a real
// destination slot or a virtual DPAD direction.
type Target struct {
	Kind      TargetKind
	Button    int                // destination index for TargetButton
	Direction settings.Direction // direction for TargetDpad
}

// ButtonTarget returns the target for an ordinary destination slot.
func ButtonTarget(dest int) Target {
	return Target{Kind: TargetButton, Button: dest}
}

// DpadTarget returns the target for a virtual DPAD direction.
func DpadTarget(dir settings.Direction) Target {
	return Target{Kind: TargetDpad, Direction: dir}
}

func (t Target) String() string {
	switch t.Kind {
	case TargetButton:
		return fmt.Sprintf("button %d", t.Button)
	case TargetDpad:
		return "dpad " + t.Direction.String()
	default:
		return "invalid target"
	}
}

// TriggerSide selects which logical trigger receives the analog value.
type TriggerSide int

const (
	TriggerRight TriggerSide = iota
	TriggerLeft
)

func (s TriggerSide) String() string {
	if s == TriggerLeft {
		return "left"
	}
	return "right"
}

// AnalogTargetKind discriminates analog mapping targets.
type AnalogTargetKind int

const (
	// TargetAxis is an ordinary analog destination channel
	TargetAxis AnalogTargetKind = iota

	// TargetTrigger is one of the two virtual trigger sub-destinations.
	// Both write the same analog slot (the trigger channel); the side
	// additionally steers the trigger policy's routing flag.
	TargetTrigger
)

// AnalogTarget names where an analog source should be bound.
type AnalogTarget struct {
	Kind AnalogTargetKind
	Axis int         // channel index for TargetAxis
	Side TriggerSide // side for TargetTrigger
}

// AxisTarget returns the target for an ordinary analog channel.
func AxisTarget(axis int) AnalogTarget {
	return AnalogTarget{Kind: TargetAxis, Axis: axis}
}

// TriggerTarget returns the virtual trigger sub-destination for side.
func TriggerTarget(side TriggerSide) AnalogTarget {
	return AnalogTarget{Kind: TargetTrigger, Side: side}
}
