// pkg/dnf/platform.go
package dnf

// DistroIDs lists os-release IDs whose native manager is dnf, or yum on older releases
var DistroIDs = []string{
	"fedora",
	"rhel",
	"centos",
	"rocky",
	"almalinux",
	"ol",
	"amzn",
}
