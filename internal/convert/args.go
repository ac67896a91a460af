package convert

import "strings"

// Usage is the positional argument synopsis printed with usage errors.
const Usage = "<watchedRoot> <changedPath> <eventDescriptor> <outputRoot>"

// InvocationArgs are the four positional values supplied by the trigger.
type InvocationArgs struct {
	WatchedRoot string
	ChangedPath string
	// Event is echoed and recorded, never branched upon.
	Event      string
	OutputRoot string
}

// ParseArgs requires exactly four positional values in fixed order.
func ParseArgs(args []string) (InvocationArgs, error) {
	if len(args) != 4 {
		return InvocationArgs{}, &UsageError{Got: len(args)}
	}
	return InvocationArgs{
		WatchedRoot: args[0],
		ChangedPath: args[1],
		Event:       args[2],
		OutputRoot:  args[3],
	}, nil
}

// Slice returns the arguments in positional order.
func (a InvocationArgs) Slice() []string {
	return []string{a.WatchedRoot, a.ChangedPath, a.Event, a.OutputRoot}
}

func (a InvocationArgs) String() string {
	return strings.Join(a.Slice(), " ")
}
