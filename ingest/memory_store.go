package ingest

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"sync"
)

// MemoryStore хранит документы в памяти процесса. Используется для локального
// запуска без хранилища и в тестах.
type MemoryStore struct {
	mu      sync.RWMutex
	objects map[string]StorageObject
}

// NewMemoryStore создает пустое хранилище
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string]StorageObject)}
}

// Put сохраняет копию объекта; повторная запись с тем же ключом перезаписывает его
func (m *MemoryStore) Put(ctx context.Context, obj StorageObject) (*UploadResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrStorageWriteFailed, err)
	}

	body := make([]byte, len(obj.Body))
	copy(body, obj.Body)
	obj.Body = body

	m.mu.Lock()
	m.objects[memoryKey(obj.Bucket, obj.Key)] = obj
	m.mu.Unlock()

	sum := md5.Sum(body)
	log.Debug("Stored %s/%s in memory (%d bytes)", obj.Bucket, obj.Key, len(body))
	return &UploadResult{
		Location: fmt.Sprintf("memory://%s/%s", obj.Bucket, obj.Key),
		ETag:     `"` + hex.EncodeToString(sum[:]) + `"`,
		Bucket:   obj.Bucket,
		Key:      obj.Key,
	}, nil
}

// Get возвращает сохраненный объект
func (m *MemoryStore) Get(bucket, key string) (StorageObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	obj, ok := m.objects[memoryKey(bucket, key)]
	return obj, ok
}

// Len возвращает количество объектов
func (m *MemoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.objects)
}

func memoryKey(bucket, key string) string {
	return bucket + "/" + key
}
