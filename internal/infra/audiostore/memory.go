package audiostore

import (
	"bytes"
	"container/list"
	"context"
	"io"
	"sync"

	"github.com/yanqian/health-voice/internal/domain/voice"
)

// DefaultMemoryCapacity is the clip limit used when none is configured.
const DefaultMemoryCapacity = 200

// MemoryStore keeps the most recent clips in memory. Useful for tests and local dev.
type MemoryStore struct {
	mu       sync.Mutex
	capacity int
	blobs    map[string]*list.Element
	order    *list.List
}

type storedBlob struct {
	key      string
	data     []byte
	mimeType string
}

// NewMemoryStore constructs storage holding at most capacity clips; older clips are dropped first.
func NewMemoryStore(capacity int) *MemoryStore {
	if capacity <= 0 {
		capacity = DefaultMemoryCapacity
	}
	return &MemoryStore{
		capacity: capacity,
		blobs:    make(map[string]*list.Element),
		order:    list.New(),
	}
}

// Put stores a copy of the clip.
func (s *MemoryStore) Put(_ context.Context, key string, data []byte, mimeType string) (voice.StoredAudio, error) {
	blob := &storedBlob{key: key, data: append([]byte(nil), data...), mimeType: mimeType}
	s.mu.Lock()
	if elem, ok := s.blobs[key]; ok {
		s.order.Remove(elem)
	}
	s.blobs[key] = s.order.PushBack(blob)
	for s.order.Len() > s.capacity {
		oldest := s.order.Front()
		s.order.Remove(oldest)
		delete(s.blobs, oldest.Value.(*storedBlob).key)
	}
	s.mu.Unlock()
	return voice.StoredAudio{Key: key, Size: int64(len(blob.data)), MimeType: mimeType}, nil
}

// Open returns a reader for the stored clip.
func (s *MemoryStore) Open(_ context.Context, key string) (voice.AudioObject, error) {
	s.mu.Lock()
	elem, ok := s.blobs[key]
	s.mu.Unlock()
	if !ok {
		return voice.AudioObject{}, voice.ErrAudioNotFound
	}
	blob := elem.Value.(*storedBlob)
	return voice.AudioObject{
		StoredAudio: voice.StoredAudio{Key: key, Size: int64(len(blob.data)), MimeType: blob.mimeType},
		Body:        io.NopCloser(bytes.NewReader(blob.data)),
	}, nil
}

var _ voice.AudioStore = (*MemoryStore)(nil)
