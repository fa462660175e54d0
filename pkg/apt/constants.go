package apt

import "time"

// Programs driven by the apt backend
const (
	Binary          = "apt-get" // Mutating operations
	BinaryCache     = "apt-cache"
	BinaryList      = "apt"
	BinaryDpkg      = "dpkg"
	BinaryDpkgQuery = "dpkg-query"
)

const (
	// DefaultTimeout bounds listing commands
	DefaultTimeout = 60 * time.Second

	// installedFormat is the dpkg-query row format: status, name, version, summary
	installedFormat = "${db:Status-Abbrev}\t${Package}\t${Version}\t${binary:Summary}\n"

	// installedStatus is the dpkg -s status of a fully installed package
	installedStatus = "install ok installed"

	// upgradableMarker prefixes the old version in `apt list --upgradable`
	upgradableMarker = "[upgradable from: "
)

// env keeps output untranslated and stops debconf from prompting
var env = []string{"LC_ALL=C", "DEBIAN_FRONTEND=noninteractive"}
