package entities

// SiteLocation is the directory to publish. GeneratedIndex is set when its
// index.html was written locally, so the remote repository does not have it.
type SiteLocation struct {
	Dir            string
	GeneratedIndex bool
}
