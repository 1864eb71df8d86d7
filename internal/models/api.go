package models

// AppRequest is the body of add and update requests on the control API.
// Field names follow the Apps.json records. Fields left out of the body
// keep the base value, so an update may carry only what changes.
type AppRequest struct {
	ID                  string    `json:"ID,omitempty"`
	ExecutablePath      *string   `json:"ExecutablePath,omitempty"`
	Arguments           *[]string `json:"Arguments,omitempty"`
	WorkingDirectory    *string   `json:"WorkingDirectory,omitempty"`
	Enabled             *bool     `json:"Enabled,omitempty"`
	Hidden              *bool     `json:"Hidden,omitempty"`
	AutoRestart         *bool     `json:"AutoRestart,omitempty"`
	RestartDelaySeconds *int      `json:"RestartDelaySeconds,omitempty"`
	MaxRestarts         *int      `json:"MaxRestarts,omitempty"`
}

// Executable returns the requested executable path, or "" when unset.
func (r AppRequest) Executable() string {
	if r.ExecutablePath == nil {
		return ""
	}
	return *r.ExecutablePath
}

// Apply merges the request onto base. An empty ID keeps the base ID.
func (r AppRequest) Apply(base AppDefinition) AppDefinition {
	def := base.Clone()
	if r.ID != "" {
		def.ID = r.ID
	}
	if r.ExecutablePath != nil {
		def.ExecutablePath = *r.ExecutablePath
	}
	if r.Arguments != nil {
		def.Arguments = append([]string(nil), (*r.Arguments)...)
	}
	if r.WorkingDirectory != nil {
		def.WorkingDirectory = *r.WorkingDirectory
	}
	if r.Enabled != nil {
		def.Enabled = *r.Enabled
	}
	if r.Hidden != nil {
		def.Hidden = *r.Hidden
	}
	if r.AutoRestart != nil {
		def.AutoRestart = *r.AutoRestart
	}
	if r.RestartDelaySeconds != nil {
		def.DelaySeconds = *r.RestartDelaySeconds
	}
	if r.MaxRestarts != nil {
		def.MaxRestarts = *r.MaxRestarts
	}
	return def
}

// RenameRequest is the body of a rename request.
type RenameRequest struct {
	NewID string `json:"new_id"`
}

// AppList is the body of the list response.
type AppList struct {
	Apps []Snapshot `json:"apps"`
}

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error string `json:"error"`
}
