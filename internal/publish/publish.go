package publish

import (
	"net/http"
	"os"
	"path/filepath"
	"regexp"

	"github.com/klass-lk/blogboot/internal/server"
)

// FileService writes generated site artifacts to wherever the static site
// is served from.
type FileService interface {
	Write(name string, content []byte) error
}

// LocalFileService writes artifacts into the public directory on disk.
type LocalFileService struct {
	dir string
}

func NewLocalFileService(dir string) *LocalFileService {
	return &LocalFileService{dir: dir}
}

func (s *LocalFileService) Write(name string, content []byte) error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.dir, name), content, 0o644)
}

var (
	sitemapPattern = regexp.MustCompile(`(?s)^<\?xml.*</urlset>\s*$`)
	robotsPattern  = regexp.MustCompile(`(?m)^User-agent:`)
)

// Publisher validates and writes sitemap.xml and robots.txt.
type Publisher struct {
	files FileService
}

func NewPublisher(files FileService) *Publisher {
	return &Publisher{files: files}
}

func (p *Publisher) PublishSitemap(content string) error {
	if !sitemapPattern.MatchString(content) {
		return server.NewApiError(http.StatusBadRequest, "INVALID_SITEMAP", "Content is not a valid sitemap")
	}
	return p.files.Write("sitemap.xml", []byte(content))
}

func (p *Publisher) PublishRobots(content string) error {
	if !robotsPattern.MatchString(content) {
		return server.NewApiError(http.StatusBadRequest, "INVALID_ROBOTS", "Content is not a valid robots.txt")
	}
	return p.files.Write("robots.txt", []byte(content))
}
