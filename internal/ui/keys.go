package ui

import "github.com/charmbracelet/bubbles/key"

type keyMap struct {
	Up         key.Binding
	Down       key.Binding
	PageUp     key.Binding
	PageDown   key.Binding
	Home       key.Binding
	End        key.Binding
	Search     key.Binding
	Open       key.Binding
	Back       key.Binding
	Copy       key.Binding
	CopyImage  key.Binding
	Card       key.Binding
	Vote       key.Binding
	Edit       key.Binding
	Delete     key.Binding
	ToggleDark key.Binding
	Refresh    key.Binding
	Help       key.Binding
	Quit       key.Binding
	Confirm    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("↑/k", "move up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("↓/j", "move down"),
		),
		PageUp: key.NewBinding(
			key.WithKeys("pgup"),
			key.WithHelp("pgup", "page up"),
		),
		PageDown: key.NewBinding(
			key.WithKeys("pgdown"),
			key.WithHelp("pgdown", "page down"),
		),
		Home: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "go to top"),
		),
		End: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "go to bottom"),
		),
		Search: key.NewBinding(
			key.WithKeys("/"),
			key.WithHelp("/", "filter by title"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open details"),
		),
		Back: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "back / clear filter"),
		),
		Copy: key.NewBinding(
			key.WithKeys("c"),
			key.WithHelp("c", "copy cleaned config"),
		),
		CopyImage: key.NewBinding(
			key.WithKeys("i"),
			key.WithHelp("i", "copy preview card image"),
		),
		Card: key.NewBinding(
			key.WithKeys("p"),
			key.WithHelp("p", "show preview card (kitty graphics)"),
		),
		Vote: key.NewBinding(
			key.WithKeys("v"),
			key.WithHelp("v", "vote / withdraw vote"),
		),
		Edit: key.NewBinding(
			key.WithKeys("e"),
			key.WithHelp("e", "remix in editor"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete (asks first)"),
		),
		ToggleDark: key.NewBinding(
			key.WithKeys("t"),
			key.WithHelp("t", "cycle all / dark / light"),
		),
		Refresh: key.NewBinding(
			key.WithKeys("r"),
			key.WithHelp("r", "reload"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "toggle help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
		Confirm: key.NewBinding(
			key.WithKeys("d", "y"),
			key.WithHelp("d/y", "confirm delete"),
		),
	}
}

// helpSections groups bindings for the help screen.
func (k keyMap) helpSections() []helpSection {
	return []helpSection{
		{"Navigation", []key.Binding{k.Up, k.Down, k.PageUp, k.PageDown, k.Home, k.End}},
		{"Browsing", []key.Binding{k.Search, k.Open, k.Back, k.ToggleDark, k.Refresh}},
		{"Actions", []key.Binding{k.Copy, k.CopyImage, k.Card, k.Vote, k.Edit, k.Delete}},
		{"General", []key.Binding{k.Help, k.Quit}},
	}
}

type helpSection struct {
	title    string
	bindings []key.Binding
}
