package projects

// SeedFile is the top-level structure of the projects seed file:
//
//	projects:
//	  - name: checkout
//	  - name: billing
type SeedFile struct {
	Projects []ProjectSeed `yaml:"projects"`
}

// ProjectSeed declares one project that must exist.
type ProjectSeed struct {
	Name string `yaml:"name"`
}
