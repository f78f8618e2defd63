package bot

import "strings"

// Command is a parsed chat intent: the !-prefixed name and its arguments,
// in order. Constructed per message and discarded after dispatch.
type Command struct {
	Name string
	Args []string
}

// ParseCommand turns a raw chat line into a Command. It reports false when
// the line does not start with '!'. The line is split on runs of whitespace;
// the first token (leading '!' included) is the command name. No further
// validation happens here; argument interpretation is each handler's job.
func ParseCommand(text string) (Command, bool) {
	if !strings.HasPrefix(text, "!") {
		return Command{}, false
	}
	fields := strings.Fields(text)
	return Command{Name: fields[0], Args: fields[1:]}, true
}
