package console

import (
	"slices"
)

// CategoryID identifies a closed group of argument literals.
type CategoryID int

const (
	CategoryNone CategoryID = iota
	// CategoryInterfaces holds the names of panels that can be toggled.
	CategoryInterfaces
)

func (c CategoryID) String() string {
	switch c {
	case CategoryInterfaces:
		return "interfaces"
	default:
		return "none"
	}
}

// ParseCategory maps a category name to its CategoryID.
func ParseCategory(name string) (CategoryID, bool) {
	switch name {
	case "interfaces":
		return CategoryInterfaces, true
	case "none":
		return CategoryNone, true
	}
	return CategoryNone, false
}

// ToggleCommand toggles a panel; its single argument completes from
// CategoryInterfaces.
const ToggleCommand = "imgui_toggle"

// argumentTriggers maps a command to the category its argument completes from.
var argumentTriggers = map[string]CategoryID{
	ToggleCommand: CategoryInterfaces,
}

// Registry holds the command names offered for completion, in insertion
// order, and the argument literals of each category.
type Registry struct {
	commands  []string
	arguments map[CategoryID][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{arguments: map[CategoryID][]string{}}
}

// AddCommand registers name. Registering the same name twice is a no-op.
func (r *Registry) AddCommand(name string) {
	if name == "" || slices.Contains(r.commands, name) {
		return
	}
	r.commands = append(r.commands, name)
}

// RemoveCommand drops name if present.
func (r *Registry) RemoveCommand(name string) {
	if i := slices.Index(r.commands, name); i >= 0 {
		r.commands = slices.Delete(r.commands, i, i+1)
	}
}

// ClearCommands drops every command name. Argument lists are kept.
func (r *Registry) ClearCommands() {
	r.commands = nil
}

// Commands returns the registered names in insertion order.
func (r *Registry) Commands() []string {
	return slices.Clone(r.commands)
}

// HasCommand reports whether name is registered.
func (r *Registry) HasCommand(name string) bool {
	return slices.Contains(r.commands, name)
}

// AddArgument appends literal to the category's list.
func (r *Registry) AddArgument(cat CategoryID, literal string) {
	r.arguments[cat] = append(r.arguments[cat], literal)
}

// RemoveArgument drops the first occurrence of literal from the category.
func (r *Registry) RemoveArgument(cat CategoryID, literal string) {
	args, ok := r.arguments[cat]
	if !ok {
		return
	}
	if i := slices.Index(args, literal); i >= 0 {
		r.arguments[cat] = slices.Delete(args, i, i+1)
	}
}

// Arguments returns the category's literals in insertion order.
func (r *Registry) Arguments(cat CategoryID) []string {
	return slices.Clone(r.arguments[cat])
}

// Replace swaps the whole content for the given commands and arguments.
// It is used when the command definitions are reloaded.
func (r *Registry) Replace(commands []string, arguments map[CategoryID][]string) {
	r.commands = nil
	for _, c := range commands {
		r.AddCommand(c)
	}
	r.arguments = map[CategoryID][]string{}
	for cat, args := range arguments {
		r.arguments[cat] = slices.Clone(args)
	}
}
