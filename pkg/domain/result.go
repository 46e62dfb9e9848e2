package domain

// GenerationRequest is the payload of one generateCommitMessage call.
type GenerationRequest struct {
	CommitType    CommitType `json:"commitType"`
	CustomMessage string     `json:"customMessage"`
	ProjectDir    string     `json:"projectDir"`
	AutoCommit    bool       `json:"autoCommit"`
}

// GenerationResult is returned by the backend and only formatted for display.
type GenerationResult struct {
	CommitMessage      string `json:"commitMessage" mapstructure:"commitMessage"`
	Experience         int    `json:"experience" mapstructure:"experience"`
	EnemiesSlain       int    `json:"enemiesSlain" mapstructure:"enemiesSlain"`
	AutoCommitResponse string `json:"autoCommitResponse,omitempty" mapstructure:"autoCommitResponse"`
}

// SetupRequest is the payload of one setup call.
type SetupRequest struct {
	ProjectDir   string `json:"projectDir"`
	CreateConfig string `json:"createConfig"`
}

// SetupResult is the backend's answer to setup.
type SetupResult struct {
	Message string         `json:"message" mapstructure:"message"`
	Config  map[string]any `json:"config,omitempty" mapstructure:"config"`
}
