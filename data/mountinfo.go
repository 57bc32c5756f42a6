package data

import "time"

// MountInfo is the public metadata of one mounted filesystem.
type MountInfo struct {
	ID        string
	Path      string
	MountTime time.Time
}

// DisplayPath returns the mount path with the root sentinel expanded
// back to "/".
func (mi MountInfo) DisplayPath() string {
	if mi.Path == "" {
		return "/"
	}
	return mi.Path
}
