// pkg/apt/platform.go
package apt

// DistroIDs lists os-release IDs whose native manager is apt
var DistroIDs = []string{
	"debian",
	"ubuntu",
	"linuxmint",
	"pop",
	"elementary",
	"zorin",
	"kali",
	"raspbian",
}
