package entities

// PriorityClass orders files for packing. Lower classes are packed first.
type PriorityClass int

const (
	PriorityEntryPoint PriorityClass = 1
	PriorityMarkup     PriorityClass = 10
	PriorityCode       PriorityClass = 20
	PriorityImage      PriorityClass = 30
	PriorityFont       PriorityClass = 40
	PriorityData       PriorityClass = 50
	PriorityDefault    PriorityClass = 100
)

// ArtifactFile is one file considered for packing.
type ArtifactFile struct {
	RelativePath string
	SizeBytes    int64
	Priority     PriorityClass
}

// Artifact is a size-bounded zip of a site's build output.
type Artifact struct {
	Data              []byte
	Files             []ArtifactFile
	BudgetBytes       int64
	TotalBytes        int64
	SkippedOversized  []ArtifactFile
	SkippedOverBudget []ArtifactFile
}

// Paths returns the relative paths of the packed files in packing order.
func (a *Artifact) Paths() []string {
	paths := make([]string, 0, len(a.Files))
	for _, f := range a.Files {
		paths = append(paths, f.RelativePath)
	}
	return paths
}
