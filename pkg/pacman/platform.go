// pkg/pacman/platform.go
package pacman

// DistroIDs lists os-release IDs whose native manager is pacman
var DistroIDs = []string{
	"arch",
	"manjaro",
	"endeavouros",
	"garuda",
	"artix",
}
