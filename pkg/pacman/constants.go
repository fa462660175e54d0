package pacman

import "time"

const (
	// Binary is the Arch Linux package manager
	Binary = "pacman"

	// DefaultTimeout bounds listing commands
	DefaultTimeout = 60 * time.Second
)

// Operation flags
const (
	flagSync       = "-S"   // Install or upgrade from the sync repositories
	flagRemove     = "-R"   // Remove an installed package
	flagSysUpgrade = "-Syu" // Refresh databases and upgrade everything
	flagQueryInfo  = "-Qi"  // Show information about installed packages
	flagQuery      = "-Q"   // Check a single installed package
	flagUpgrades   = "-Qu"  // List outdated packages
	flagSearch     = "-Ss"  // Search the sync repositories
	flagNoConfirm  = "--noconfirm"
)

// Field names in -Qi output
const (
	fieldName        = "Name"
	fieldVersion     = "Version"
	fieldDescription = "Description"
)

// env forces untranslated output so the parsers see English field names
var env = []string{"LC_ALL=C"}
