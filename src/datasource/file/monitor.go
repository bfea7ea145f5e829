// monitor.go
package file

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 编辑器保存时会连续触发多个事件，合并后只处理一次
const DefaultDebounce = 200 * time.Millisecond

// FileMonitor 监控单个数据文件的变化
type FileMonitor struct {
	watchDir string
	target   string
	watcher  *fsnotify.Watcher
	lastMod  time.Time
	debounce time.Duration
	mu       sync.Mutex
}

// NewFileMonitor 监控 filePath 所在目录，只关心 filePath 本身
// 监控目录而不是文件，这样文件被替换(先删后建)也能收到事件
func NewFileMonitor(filePath string) (*FileMonitor, error) {
	abs, err := filepath.Abs(filePath)
	if err != nil {
		return nil, err
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	dir := filepath.Dir(abs)
	if err := watcher.Add(dir); err != nil {
		_ = watcher.Close()
		return nil, err
	}

	m := &FileMonitor{
		watchDir: dir,
		target:   abs,
		watcher:  watcher,
		debounce: DefaultDebounce,
	}
	if info, err := os.Stat(abs); err == nil {
		m.lastMod = info.ModTime()
	}
	return m, nil
}

// SetDebounce 修改合并事件的时间窗口
func (m *FileMonitor) SetDebounce(d time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.debounce = d
}

// Close 停止监控
func (m *FileMonitor) Close() error {
	return m.watcher.Close()
}

// Watch 阻塞直到 ctx 结束或监控出错
// 目标文件被写入或重新创建且修改时间变新时调用 handler
// Watch 返回后 handler 不会再被调用
func (m *FileMonitor) Watch(ctx context.Context, handler func(string)) error {
	var (
		timer   *time.Timer
		pending sync.WaitGroup // 已安排或正在执行的 handler
	)
	defer func() {
		m.mu.Lock()
		if timer != nil && timer.Stop() {
			pending.Done()
		}
		m.mu.Unlock()
		pending.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-m.watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) == 0 {
				continue
			}
			if filepath.Clean(event.Name) != m.target {
				continue
			}

			m.mu.Lock()
			if timer != nil && timer.Stop() {
				pending.Done()
			}
			pending.Add(1)
			timer = time.AfterFunc(m.debounce, func() {
				defer pending.Done()
				if ctx.Err() != nil {
					return
				}
				if m.changed() {
					handler(m.target)
				}
			})
			m.mu.Unlock()
		case err, ok := <-m.watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}

// changed 修改时间比上次处理时新才算变化
func (m *FileMonitor) changed() bool {
	info, err := os.Stat(m.target)
	if err != nil {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !info.ModTime().After(m.lastMod) {
		return false
	}
	m.lastMod = info.ModTime()
	return true
}
