package stage

// ButtonState is the edge-aware FSM used pervasively by action and
// timer stages: NoInput -> Pressed -> Repeat* -> Released -> NoInput.
type ButtonState int

const (
	NoInput ButtonState = iota
	Pressed
	Repeat
	Released
)

// ButtonFSM tracks ButtonState transitions across ticks for one boolean
// input. Kept as an explicit struct field (not a closure) per DESIGN.md so
// Reset semantics are precise.
type ButtonFSM struct {
	state ButtonState
}

// Next advances the FSM for this tick's raw boolean input and returns the
// resulting state. At most one Pressed is produced per physical press.
func (b *ButtonFSM) Next(input bool) ButtonState {
	switch b.state {
	case NoInput, Released:
		if input {
			b.state = Pressed
		} else {
			b.state = NoInput
		}
	case Pressed, Repeat:
		if input {
			b.state = Repeat
		} else {
			b.state = Released
		}
	}
	return b.state
}

// Reset returns the FSM to NoInput, as happens when a pipeline is
// disengaged.
func (b *ButtonFSM) Reset() { b.state = NoInput }
