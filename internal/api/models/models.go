package models

// User is the public view of an account. IDs are rendered as decimal strings.
type User struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Name     string `json:"name"`
}

// LoginRequest is the body of a login call. The form tags serve the web login form.
type LoginRequest struct {
	Username  string `json:"username" form:"username"`
	AccessKey string `json:"accessKey" form:"accessKey"`
	// Device names the issued token, e.g. "cli@laptop".
	Device string `json:"device,omitempty" form:"-"`
}

// LoginResponse is returned by a successful login.
type LoginResponse struct {
	User  User   `json:"user"`
	Token string `json:"token"`
}

// MessageResponse carries a plain acknowledgement or error message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ValidationError is returned for rejected input, keyed by field name.
type ValidationError struct {
	Message string              `json:"message"`
	Errors  map[string][]string `json:"errors"`
}

// Project is a downloadable sample project.
type Project struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
	Language      string   `json:"language"`
	Difficulty    string   `json:"difficulty"`
	Tags          []string `json:"tags"`
	ZipFileName   string   `json:"zipFileName"`
	FileStructure string   `json:"fileStructure"`
}

// ProjectList is the response of the project listing.
type ProjectList struct {
	Projects  []Project `json:"projects"`
	Languages []string  `json:"languages"`
	Tags      []string  `json:"tags"`
}

// ProjectDetail is a project plus its download instructions.
type ProjectDetail struct {
	Project
	DownloadURL string `json:"downloadUrl"`
	Command     string `json:"command"`
}

// Explanation is the advisory explanation of a download command.
type Explanation struct {
	Command     string `json:"command"`
	Explanation string `json:"explanation"`
}

// StudyGuide is the advisory study guide of a project.
type StudyGuide struct {
	ProjectID string `json:"projectId"`
	Guide     string `json:"guide"`
	HTML      string `json:"html,omitempty"`
}

// Health is the response of the health check.
type Health struct {
	Status   string      `json:"status"`
	AI       bool        `json:"ai"`
	Cache    CacheStats  `json:"cache"`
	Archives []Archive   `json:"archives"`
	Jobs     []JobStatus `json:"jobs,omitempty"`
}

// CacheStats summarizes the token cache.
type CacheStats struct {
	Type string `json:"type"`
	Hits int    `json:"hits"`
	Miss int    `json:"miss"`
}

// Archive describes a project archive on disk.
type Archive struct {
	Name      string `json:"name"`
	Size      int64  `json:"size"`
	HumanSize string `json:"humanSize"`
	Present   bool   `json:"present"`
}

// JobStatus is the state of a background job.
type JobStatus struct {
	ID        string `json:"id"`
	Status    string `json:"status"`
	LastRun   string `json:"lastRun,omitempty"`
	NextRun   string `json:"nextRun,omitempty"`
	LastError string `json:"lastError,omitempty"`
}
