package domain

// TaskRef points at an optional task handed to the worker at launch.
type TaskRef struct {
	Path string `yaml:"path" json:"path"`
	ID   string `yaml:"id" json:"id"`
}

// Profile is the parsed content of one agent profile file. Only Name is
// required; everything else defaults to zero values.
type Profile struct {
	Name           string  `yaml:"name" json:"name"`
	LoadMemory     bool    `yaml:"load_memory" json:"load_memory"`
	InitialMessage string  `yaml:"initial_message" json:"initial_message"`
	Task           TaskRef `yaml:"task" json:"task"`
}

// ProfileSource reads and validates a profile from a path. A failed read or
// validation skips that one agent; it is never fatal to the rest of startup.
type ProfileSource interface {
	Load(path string) (*Profile, error)
}
