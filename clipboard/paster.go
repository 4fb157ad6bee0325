package clipboard

import (
	"sync"
	"time"

	"dictator/log"
)

const (
	DefaultSettle  = 50 * time.Millisecond
	DefaultRestore = 600 * time.Millisecond
)

// Paster pastes text and then puts the user's previous clipboard back.
type Paster struct {
	read  func() (string, error)
	copy  func(string) error
	paste func() error

	settle  time.Duration
	restore time.Duration

	mu      sync.Mutex
	gen     uint64
	pending bool
	saved   string
	wg      sync.WaitGroup
}

func NewPaster() *Paster {
	return &Paster{
		read:    Read,
		copy:    Copy,
		paste:   Paste,
		settle:  DefaultSettle,
		restore: DefaultRestore,
	}
}

// Paste copies text, sends the paste shortcut and schedules the previous
// clipboard contents to be restored. A failed paste restores immediately.
// Empty text is ignored. A paste that
// lands while a restore is pending keeps the original contents as the
// restore target.
func (p *Paster) Paste(text string) error {
	if text == "" {
		return nil
	}

	p.mu.Lock()
	prev, pending := p.saved, p.pending
	p.mu.Unlock()
	if !pending {
		var err error
		if prev, err = p.read(); err != nil {
			log.Debugf("clipboard read failed, not restoring: %v", err)
			prev = ""
		}
	}

	if err := p.copy(text); err != nil {
		return err
	}
	time.Sleep(p.settle)
	pasteErr := p.paste()

	p.mu.Lock()
	defer p.mu.Unlock()
	p.gen++
	if prev == "" || prev == text {
		p.pending, p.saved = false, ""
		return pasteErr
	}
	if pasteErr != nil {
		// nothing landed, so put the user's contents back right away
		p.pending, p.saved = false, ""
		if err := p.copy(prev); err != nil {
			log.Warnf("clipboard restore failed: %v", err)
		}
		return pasteErr
	}
	p.pending, p.saved = true, prev
	gen := p.gen

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		time.Sleep(p.restore)
		p.mu.Lock()
		defer p.mu.Unlock()
		// a newer paste owns the restore now
		if p.gen != gen {
			return
		}
		p.pending, p.saved = false, ""
		if err := p.copy(prev); err != nil {
			log.Warnf("clipboard restore failed: %v", err)
		}
	}()
	return nil
}

// Flush waits for pending clipboard restores.
func (p *Paster) Flush() {
	p.wg.Wait()
}
