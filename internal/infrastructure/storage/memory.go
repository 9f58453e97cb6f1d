package storage

import (
	"context"
	"errors"
	"net/url"
	"strconv"
	"sync"
	"time"

	"github.com/jhoicas/timebill-api/internal/application/documents"
)

// Object contenido almacenado en memoria.
type Object struct {
	Data        []byte
	ContentType string
	Version     int
}

// MemoryStore almacenamiento en proceso para desarrollo y pruebas.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]Object
	baseURL string
	now     func() time.Time
}

// NewMemoryStore baseURL prefijo de los enlaces generados.
func NewMemoryStore(baseURL string) *MemoryStore {
	if baseURL == "" {
		baseURL = "http://localhost:8080/files"
	}
	return &MemoryStore{objects: map[string]Object{}, baseURL: baseURL, now: time.Now}
}

func (s *MemoryStore) Put(_ context.Context, key string, data []byte, contentType string) error {
	if key == "" {
		return errors.New("storage: clave requerida")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	prev := s.objects[key]
	s.objects[key] = Object{Data: append([]byte(nil), data...), ContentType: contentType, Version: prev.Version + 1}
	return nil
}

func (s *MemoryStore) SignedGet(_ context.Context, key string, ttl time.Duration) (string, error) {
	s.mu.RLock()
	_, ok := s.objects[key]
	s.mu.RUnlock()
	if !ok {
		return "", errors.New("storage: objeto inexistente " + key)
	}
	exp := s.now().Add(ttl).Unix()
	return s.baseURL + "/" + url.PathEscape(key) + "?expires=" + strconv.FormatInt(exp, 10), nil
}

// Get devuelve el objeto almacenado.
func (s *MemoryStore) Get(key string) (Object, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	o, ok := s.objects[key]
	return o, ok
}

var _ documents.ObjectStore = (*MemoryStore)(nil)
