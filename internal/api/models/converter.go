package models

import (
	"strconv"
	"time"

	"github.com/ccoveille/go-safecast"
	"github.com/dustin/go-humanize"
	"github.com/jon4hz/codevault/internal/auth"
	"github.com/jon4hz/codevault/internal/cache"
	"github.com/jon4hz/codevault/internal/catalog"
	"github.com/jon4hz/codevault/internal/scheduler"
)

// FormatUserID renders a user ID the way clients see it.
func FormatUserID(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}

// ToUser converts the public user view to its JSON representation.
func ToUser(u *auth.PublicUser) User {
	return User{
		ID:       FormatUserID(u.ID),
		Username: u.Username,
		Name:     u.Name,
	}
}

// ToProject converts a catalog project to its JSON representation.
func ToProject(p catalog.Project) Project {
	return Project{
		ID:            p.ID,
		Title:         p.Title,
		Description:   p.Description,
		Language:      p.Language,
		Difficulty:    string(p.Difficulty),
		Tags:          p.Tags,
		ZipFileName:   p.ZipFileName,
		FileStructure: p.FileStructure,
	}
}

// ToProjects converts a slice of catalog projects.
func ToProjects(projects []catalog.Project) []Project {
	result := make([]Project, len(projects))
	for i, p := range projects {
		result[i] = ToProject(p)
	}
	return result
}

// ToProjectDetail adds the download instructions for baseURL to p.
func ToProjectDetail(p catalog.Project, baseURL string) ProjectDetail {
	return ProjectDetail{
		Project:     ToProject(p),
		DownloadURL: catalog.DownloadURL(baseURL, p),
		Command:     catalog.DownloadCommand(baseURL, p),
	}
}

// ToCacheStats converts token cache statistics.
func ToCacheStats(s *cache.Stats) CacheStats {
	if s == nil || s.Stats == nil {
		return CacheStats{}
	}
	return CacheStats{
		Type: s.CacheType,
		Hits: s.Hits,
		Miss: s.Miss,
	}
}

// ToArchive describes an archive of size bytes. A negative size marks a missing file.
func ToArchive(name string, size int64) Archive {
	a := Archive{Name: name}
	if size < 0 {
		return a
	}
	a.Present = true
	a.Size = size
	if u, err := safecast.Convert[uint64](size); err == nil {
		a.HumanSize = humanize.Bytes(u)
	}
	return a
}

// ToJobStatuses converts scheduler job snapshots.
func ToJobStatuses(jobs []scheduler.JobInfo) []JobStatus {
	result := make([]JobStatus, len(jobs))
	for i, j := range jobs {
		result[i] = JobStatus{
			ID:        j.ID,
			Status:    string(j.Status),
			LastRun:   formatTime(j.LastRun),
			NextRun:   formatTime(j.NextRun),
			LastError: j.LastError,
		}
	}
	return result
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}
