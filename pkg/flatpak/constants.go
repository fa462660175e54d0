package flatpak

import "time"

const (
	// Binary is the Flatpak command line client
	Binary = "flatpak"

	// DefaultRemote is where applications are installed from
	DefaultRemote = "flathub"

	// DefaultTimeout bounds listing commands
	DefaultTimeout = 60 * time.Second
)

// Column selections for listing commands
const (
	columnsInstalled = "--columns=application,version,description"
	columnsUpdates   = "--columns=application,version"
	columnsSearch    = "--columns=application,version,description"
)

const (
	flagYes            = "-y"
	flagNonInteractive = "--noninteractive"
	flagUser           = "--user"
	flagApps           = "--app"
)

// noMatches is printed by flatpak search when nothing is found
const noMatches = "No matches found"

var env = []string{"LC_ALL=C"}
