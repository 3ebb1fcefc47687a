// internal/service/lock.go
package service

import (
	"sync"

	"github.com/google/uuid"
)

// StudentLocker は生徒単位の排他ロックを提供します。
// SubjectProgress の read-modify-write は同一生徒への並行配分で
// 残り時間を二重消費し得るため、配分処理全体をこのロックで直列化します。
type StudentLocker struct {
	mu    sync.Mutex
	locks map[uuid.UUID]*sync.Mutex
}

func NewStudentLocker() *StudentLocker {
	return &StudentLocker{locks: make(map[uuid.UUID]*sync.Mutex)}
}

// Lock は生徒用のミューテックスを取得してロックします。
// 解放は返されたミューテックスの Unlock で行います。
func (l *StudentLocker) Lock(studentID uuid.UUID) *sync.Mutex {
	l.mu.Lock()
	m, ok := l.locks[studentID]
	if !ok {
		m = &sync.Mutex{}
		l.locks[studentID] = m
	}
	l.mu.Unlock()
	m.Lock()
	return m
}
