// Package session tracks the battle currently being fought so log records
// and observers can tag themselves with it.
package session

import (
	"log/slog"
	"sync"
	"time"

	"github.com/battlesim/battlesim/internal/model/core"
	"github.com/google/uuid"
)

// Context holds the current battle state
type Context struct {
	mu      sync.RWMutex
	battle  *core.Battle
	elapsed func() time.Duration
}

// NewContext creates a new Context with default values
func NewContext() *Context {
	return &Context{
		battle: &core.Battle{Name: "No battle loaded"},
	}
}

// GetBattle returns the current battle
func (c *Context) GetBattle() *core.Battle {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.battle
}

// SetBattle sets the current battle. elapsed reports battle time and may be nil.
func (c *Context) SetBattle(b *core.Battle, elapsed func() time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.battle = b
	c.elapsed = elapsed
}

// Attrs returns the log attributes for the current battle. It has the
// logging.AttrsFunc signature.
func (c *Context) Attrs() []slog.Attr {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if c.battle == nil || c.battle.ID == uuid.Nil {
		return nil
	}
	attrs := []slog.Attr{slog.String("battle_id", c.battle.ID.String())}
	if c.elapsed != nil {
		attrs = append(attrs, slog.Duration("battle_elapsed", c.elapsed()))
	}
	return attrs
}
