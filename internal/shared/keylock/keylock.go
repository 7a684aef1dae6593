// Package keylock はキー単位の排他制御を提供します。
package keylock

import (
	"context"
	"sync"
)

// entry は1つのキーに対応するロックです。
// chは容量1のチャネルで、送信できた側がロックを保持します。
type entry struct {
	ch   chan struct{}
	refs int
}

// KeyLock はキーごとに独立したミューテックスを管理します。
// 異なるキーの操作は並行に進み、同じキーの操作は直列化されます。
type KeyLock struct {
	mu      sync.Mutex
	entries map[string]*entry
}

// New は空のKeyLockを生成します。
func New() *KeyLock {
	return &KeyLock{entries: make(map[string]*entry)}
}

// Lock はkeyのロックを取得し、解放関数を返します。
// ctxがキャンセルまたはタイムアウトした場合は待機を打ち切りctx.Err()を返します。
func (l *KeyLock) Lock(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	e, ok := l.entries[key]
	if !ok {
		e = &entry{ch: make(chan struct{}, 1)}
		l.entries[key] = e
	}
	e.refs++
	l.mu.Unlock()

	select {
	case e.ch <- struct{}{}:
	case <-ctx.Done():
		l.release(key, e)
		return nil, ctx.Err()
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			<-e.ch
			l.release(key, e)
		})
	}, nil
}

// release は参照カウントを減らし、誰も使っていないエントリを削除します。
func (l *KeyLock) release(key string, e *entry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	e.refs--
	if e.refs == 0 {
		delete(l.entries, key)
	}
}

// size は保持中のエントリ数を返します(テスト用)。
func (l *KeyLock) size() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}
