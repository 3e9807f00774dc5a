package gdtf

import "fmt"

// wheelRegistry assigns one wheel name per wheel-capable attribute. The
// first slotted channel across all modes that resolves to the attribute
// names its wheel; later channels reuse it.
type wheelRegistry struct {
	names map[string]string
}

func buildWheelRegistry(modes []Mode, resolver *Resolver) wheelRegistry {
	reg := wheelRegistry{names: make(map[string]string)}
	for _, mode := range modes {
		for _, ch := range mode.Channels {
			if ch.FineByte || len(ch.Slots) == 0 {
				continue
			}
			attr := resolver.Resolve(ch.Name).Attribute
			if !wheelAttributes[attr] {
				continue
			}
			if _, claimed := reg.names[attr]; claimed {
				continue
			}
			reg.names[attr] = SafeName(ch.Name, attr)
		}
	}
	return reg
}

// nameFor returns the wheel name registered for attr, or "" when the
// attribute emits no wheel.
func (r wheelRegistry) nameFor(attr string) string {
	return r.names[attr]
}

// buildWheels emits one Wheel per registered wheel name, taking slots from
// the first channel encountered for that name and prepending the implicit
// Open slot. When sanitization collapses two attributes onto the same wheel
// name, the first writer wins and the losers' slot data is reported as a
// warning rather than an error.
func buildWheels(modes []Mode, resolver *Resolver, reg wheelRegistry) (Wheels, []string) {
	var wheels []Wheel
	var warnings []string
	owner := make(map[string]string)
	for _, mode := range modes {
		for _, ch := range mode.Channels {
			if ch.FineByte || len(ch.Slots) == 0 {
				continue
			}
			attr := resolver.Resolve(ch.Name).Attribute
			name := reg.nameFor(attr)
			if name == "" {
				continue
			}
			if claimedBy, written := owner[name]; written {
				if claimedBy != attr {
					warnings = append(warnings, fmt.Sprintf(
						"wheel name %q already belongs to attribute %s; slots from channel %q (%s) were not emitted",
						name, claimedBy, ch.Name, attr))
				}
				continue
			}
			slots := make([]WheelSlot, 0, len(ch.Slots)+1)
			slots = append(slots, WheelSlot{Name: "Open", Color: DefaultColor})
			for _, s := range ch.Slots {
				slots = append(slots, WheelSlot{Name: SafeName(s.Label, "Slot"), Color: DefaultColor})
			}
			wheels = append(wheels, Wheel{Name: name, Slots: slots})
			owner[name] = attr
		}
	}
	return Wheels{Wheels: wheels}, warnings
}
