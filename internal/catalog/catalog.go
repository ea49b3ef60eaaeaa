// Package catalog holds the static list of downloadable sample projects.
package catalog

import (
	"fmt"
	"slices"
	"strings"

	"github.com/samber/lo"
)

// Difficulty is the skill level a project targets.
type Difficulty string

const (
	Beginner     Difficulty = "Beginner"
	Intermediate Difficulty = "Intermediate"
	Advanced     Difficulty = "Advanced"
)

// Valid reports whether d is one of the known difficulty levels.
func (d Difficulty) Valid() bool {
	switch d {
	case Beginner, Intermediate, Advanced:
		return true
	}
	return false
}

// ParseDifficulty parses a difficulty case-insensitively.
func ParseDifficulty(s string) (Difficulty, error) {
	for _, d := range []Difficulty{Beginner, Intermediate, Advanced} {
		if strings.EqualFold(s, string(d)) {
			return d, nil
		}
	}
	return "", fmt.Errorf("unknown difficulty %q", s)
}

// Project is a downloadable sample project.
type Project struct {
	ID            string
	Title         string
	Description   string
	Language      string
	Difficulty    Difficulty
	Tags          []string
	ZipFileName   string
	FileStructure string
}

var projects = []Project{
	{
		ID:          "p1",
		Title:       "React Todo MVC",
		Description: "A classic Todo application implementation using React Hooks and Context API. Perfect for understanding state management.",
		Language:    "TypeScript",
		Difficulty:  Beginner,
		Tags:        []string{"react", "hooks", "context", "css-modules"},
		ZipFileName: "react-todo-mvc.zip",
		FileStructure: `src/
  components/
    TodoList.tsx
    TodoItem.tsx
  context/
    TodoContext.tsx
  App.tsx
  index.tsx`,
	},
	{
		ID:          "p2",
		Title:       "Node.js REST API",
		Description: "Express.js backend with JWT authentication and MongoDB connection boilerplate.",
		Language:    "JavaScript",
		Difficulty:  Intermediate,
		Tags:        []string{"nodejs", "express", "jwt", "mongodb"},
		ZipFileName: "nodejs-rest-api.zip",
		FileStructure: `src/
  controllers/
    authController.js
  models/
    User.js
  routes/
    auth.js
  server.js`,
	},
	{
		ID:          "p3",
		Title:       "Python Data Scraper",
		Description: "BeautifulSoup and Requests based scraper to collect data from e-commerce sites securely.",
		Language:    "Python",
		Difficulty:  Advanced,
		Tags:        []string{"python", "beautifulsoup", "automation"},
		ZipFileName: "python-scraper.zip",
		FileStructure: `scraper.py
requirements.txt
utils/
  parser.py`,
	},
}

// All returns every project in catalog order.
func All() []Project {
	return lo.Map(projects, func(p Project, _ int) Project {
		return p.clone()
	})
}

// Get returns the project with the given ID.
func Get(id string) (Project, bool) {
	p, ok := lo.Find(projects, func(p Project) bool {
		return p.ID == id
	})
	if !ok {
		return Project{}, false
	}
	return p.clone(), true
}

// Filter returns the projects matching all non-empty criteria.
// Matching is case-insensitive.
func Filter(language string, difficulty Difficulty, tag string) []Project {
	matched := lo.Filter(projects, func(p Project, _ int) bool {
		if language != "" && !strings.EqualFold(p.Language, language) {
			return false
		}
		if difficulty != "" && !strings.EqualFold(string(p.Difficulty), string(difficulty)) {
			return false
		}
		if tag != "" && !lo.ContainsBy(p.Tags, func(t string) bool { return strings.EqualFold(t, tag) }) {
			return false
		}
		return true
	})
	return lo.Map(matched, func(p Project, _ int) Project {
		return p.clone()
	})
}

// Languages returns the distinct project languages, sorted.
func Languages() []string {
	langs := lo.Uniq(lo.Map(projects, func(p Project, _ int) string {
		return p.Language
	}))
	slices.Sort(langs)
	return langs
}

// Tags returns the distinct tags over all projects, sorted.
func Tags() []string {
	tags := lo.Uniq(lo.FlatMap(projects, func(p Project, _ int) []string {
		return p.Tags
	}))
	slices.Sort(tags)
	return tags
}

// DownloadURL returns the public archive URL of p.
func DownloadURL(baseURL string, p Project) string {
	return strings.TrimSuffix(baseURL, "/") + "/downloads/" + p.ZipFileName
}

// DownloadCommand returns the terminal command that downloads the archive of p.
func DownloadCommand(baseURL string, p Project) string {
	return fmt.Sprintf("curl -L -o %s %q", p.ZipFileName, DownloadURL(baseURL, p))
}

// HasArchive reports whether name is the archive of any project.
func HasArchive(name string) bool {
	return lo.ContainsBy(projects, func(p Project) bool {
		return p.ZipFileName == name
	})
}

func (p Project) clone() Project {
	p.Tags = slices.Clone(p.Tags)
	return p
}
