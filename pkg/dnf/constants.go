package dnf

import "time"

// Programs driven by the dnf backend
const (
	BinaryDnf = "dnf"
	BinaryYum = "yum"
	BinaryRpm = "rpm"
)

const (
	// DefaultTimeout bounds listing commands
	DefaultTimeout = 60 * time.Second

	// checkUpdateAvailable is the check-update exit status when updates exist
	checkUpdateAvailable = 100

	// installedFormat is the rpm query format: name, version-release, summary
	installedFormat = "%{NAME}\t%{VERSION}-%{RELEASE}\t%{SUMMARY}\n"

	// gpgPubkey pseudo-packages hold imported signing keys
	gpgPubkey = "gpg-pubkey"
)

// env forces untranslated output
var env = []string{"LC_ALL=C"}
