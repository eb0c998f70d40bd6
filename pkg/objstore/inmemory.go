package objstore

import (
	"context"
	"fmt"
	"sync"
	"time"
)

type inMemObject struct {
	body        []byte
	contentType string
	modified    time.Time
}

// InMemory keeps objects in a map. For local development and tests.
type InMemory struct {
	mu      sync.RWMutex
	objects map[string]inMemObject
}

var _ Storage = (*InMemory)(nil)

func NewInMemory() *InMemory {
	return &InMemory{
		objects: map[string]inMemObject{},
	}
}

func (s *InMemory) SignedUploadURL(_ context.Context, key, contentType string, expiry time.Duration) (string, error) {
	exp := time.Now().Add(expiry).Unix()
	return fmt.Sprintf("memory://%s?contentType=%s&expires=%d", key, contentType, exp), nil
}

func (s *InMemory) Head(_ context.Context, key string) (ObjectInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return ObjectInfo{}, ErrNotFound
	}

	info := ObjectInfo{
		Key:           key,
		ContentLength: int64(len(obj.body)),
		ContentType:   obj.contentType,
		LastModified:  obj.modified,
	}

	return info, nil
}

func (s *InMemory) Copy(_ context.Context, srcKey, dstKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	src, ok := s.objects[srcKey]
	if !ok {
		return ErrNotFound
	}

	body := make([]byte, len(src.body))
	copy(body, src.body)
	s.objects[dstKey] = inMemObject{
		body:        body,
		contentType: src.contentType,
		modified:    time.Now(),
	}

	return nil
}

func (s *InMemory) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.objects, key)
	return nil
}

func (s *InMemory) Get(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	obj, ok := s.objects[key]
	if !ok {
		return nil, ErrNotFound
	}

	body := make([]byte, len(obj.body))
	copy(body, obj.body)
	return body, nil
}

func (s *InMemory) Put(_ context.Context, key string, body []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := make([]byte, len(body))
	copy(cp, body)
	s.objects[key] = inMemObject{
		body:        cp,
		contentType: contentType,
		modified:    time.Now(),
	}

	return nil
}
