// Package sheettest provides an in-memory content service for sheet tests.
package sheettest

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"

	"github.com/pluqqy/pluqqy-datasheet/pkg/models"
)

// ErrNotFound is returned for paths the service does not hold.
var ErrNotFound = errors.New("not found")

// Write records one WriteContent call.
type Write struct {
	Path        string
	Content     string
	ContentType string
}

// Service is an in-memory repository with per-path failure injection.
type Service struct {
	mu sync.Mutex

	definitions map[string]string
	docs        map[string]string
	types       map[string]string
	locks       map[string]string

	// Failure injection, keyed by path
	FailGet   map[string]error
	FailWrite map[string]error
	FailMeta  map[string]error
	SearchErr error

	// BeforeWrite runs before a write is applied. Tests use it to change
	// the repository while a save is in flight.
	BeforeWrite func(path string)

	Writes  []Write
	Unlocks []string
}

// New creates an empty service.
func New() *Service {
	return &Service{
		definitions: map[string]string{},
		docs:        map[string]string{},
		types:       map[string]string{},
		locks:       map[string]string{},
		FailGet:     map[string]error{},
		FailWrite:   map[string]error{},
		FailMeta:    map[string]error{},
	}
}

// SetDefinition sets the form definition of a content type.
func (s *Service) SetDefinition(contentType, definition string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.definitions[contentType] = definition
}

// AddItem stores a document of a content type.
func (s *Service) AddItem(contentType, path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.types[path] = contentType
	s.docs[path] = content
}

// SetDoc replaces a stored document.
func (s *Service) SetDoc(path, content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[path] = content
}

// Doc returns the stored document of path.
func (s *Service) Doc(path string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.docs[path]
}

// Lock marks path as locked by owner.
func (s *Service) Lock(path, owner string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.locks[path] = owner
}

// WriteCount returns how many writes path received.
func (s *Service) WriteCount(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, w := range s.Writes {
		if w.Path == path {
			n++
		}
	}
	return n
}

func (s *Service) FormDefinition(ctx context.Context, contentType string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	def, ok := s.definitions[contentType]
	if !ok {
		return "", ErrNotFound
	}
	return def, nil
}

func (s *Service) Search(ctx context.Context, req models.SearchRequest) (models.SearchResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.SearchErr != nil {
		return models.SearchResult{}, s.SearchErr
	}

	var paths []string
	for path, contentType := range s.types {
		if contentType != req.ContentType {
			continue
		}
		if req.Keyword != "" && !strings.Contains(s.docs[path], req.Keyword) {
			continue
		}
		paths = append(paths, path)
	}
	sort.Strings(paths)

	result := models.SearchResult{Total: len(paths), Items: []models.SearchItem{}}
	start := req.Offset
	if start > len(paths) {
		start = len(paths)
	}
	end := len(paths)
	if req.Limit > 0 && start+req.Limit < end {
		end = start + req.Limit
	}
	for _, p := range paths[start:end] {
		result.Items = append(result.Items, models.SearchItem{Path: p})
	}
	return result, nil
}

func (s *Service) GetContent(ctx context.Context, path string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailGet[path]; err != nil {
		return "", err
	}
	doc, ok := s.docs[path]
	if !ok {
		return "", ErrNotFound
	}
	return doc, nil
}

func (s *Service) WriteContent(ctx context.Context, path, content, contentType string) error {
	if hook := s.BeforeWrite; hook != nil {
		hook(path)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailWrite[path]; err != nil {
		return err
	}
	s.docs[path] = content
	delete(s.locks, path)
	s.Writes = append(s.Writes, Write{Path: path, Content: content, ContentType: contentType})
	return nil
}

func (s *Service) ItemMeta(ctx context.Context, path string) (*models.ItemMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.FailMeta[path]; err != nil {
		return nil, err
	}
	if _, ok := s.docs[path]; !ok {
		return nil, ErrNotFound
	}
	return &models.ItemMeta{LockOwner: s.locks[path]}, nil
}

func (s *Service) Unlock(ctx context.Context, path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.docs[path]; !ok {
		return ErrNotFound
	}
	delete(s.locks, path)
	s.Unlocks = append(s.Unlocks, path)
	return nil
}
