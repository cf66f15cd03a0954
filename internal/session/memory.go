package session

import (
	"context"
	"sync"
)

// Memory keeps session data for the lifetime of the process.
type Memory struct {
	mu    sync.RWMutex
	chats map[string]map[string]string
}

func NewMemory() *Memory {
	return &Memory{
		chats: make(map[string]map[string]string),
	}
}

func (m *Memory) Get(_ context.Context, chatID, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	value, ok := m.chats[chatID][key]
	return value, ok, nil
}

func (m *Memory) Set(_ context.Context, chatID, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	chat, ok := m.chats[chatID]
	if !ok {
		chat = make(map[string]string)
		m.chats[chatID] = chat
	}
	chat[key] = value
	return nil
}

func (m *Memory) Delete(_ context.Context, chatID, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.chats[chatID], key)
	return nil
}
