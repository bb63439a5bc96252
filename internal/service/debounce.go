package service

import (
	"sync"
	"time"
)

// Debouncer 尾沿防抖：窗口内的重复触发只产生最后一次生效调用。
// 定时器句柄由实例显式持有，Stop 之后不再触发。
type Debouncer struct {
	mu      sync.Mutex
	delay   time.Duration
	fn      func()
	timer   *time.Timer
	stopped bool
}

func NewDebouncer(delay time.Duration, fn func()) *Debouncer {
	if delay <= 0 {
		delay = time.Second
	}
	return &Debouncer{delay: delay, fn: fn}
}

// Trigger 触发一次。每次调用都会重置待生效的定时器
func (s *Debouncer) Trigger() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, s.fn)
}

// Stop 取消未生效的触发并拒绝后续触发。卸载时必须调用
func (s *Debouncer) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopped = true
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
