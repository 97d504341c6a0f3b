// Package store provides thread-safe in-memory storage for deployed
// scripts and their compiled namespaces.
package store

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/jbvsmo/funcbuilder/pkg/ast"
	"github.com/jbvsmo/funcbuilder/pkg/runtime"
)

// Script represents a deployed script: its source, the parsed program, and
// the namespace compiled from it.
type Script struct {
	Name       string    `json:"name"`
	Revision   int64     `json:"revision"`
	CreateTime time.Time `json:"createTime"`
	UpdateTime time.Time `json:"updateTime"`
	Source     string    `json:"source"`

	Program   *ast.Program       `json:"-"`
	Namespace *runtime.Namespace `json:"-"`
}

// Store is a thread-safe in-memory collection of deployed scripts.
type Store struct {
	mu      sync.RWMutex
	scripts map[string]*Script
}

// New creates a new empty store.
func New() *Store {
	return &Store{scripts: make(map[string]*Script)}
}

// Save deploys a script, replacing any previous revision under the same
// name. The returned record is a snapshot safe to read without locking.
func (s *Store) Save(name, source string, prog *ast.Program, ns *runtime.Namespace) *Script {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	prev, exists := s.scripts[name]
	script := &Script{
		Name:       name,
		Revision:   1,
		CreateTime: now,
		UpdateTime: now,
		Source:     source,
		Program:    prog,
		Namespace:  ns,
	}
	if exists {
		script.Revision = prev.Revision + 1
		script.CreateTime = prev.CreateTime
	}
	s.scripts[name] = script
	return script
}

// Get retrieves a deployed script by name.
func (s *Store) Get(name string) (*Script, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	script, ok := s.scripts[name]
	if !ok {
		return nil, fmt.Errorf("script '%s' not found", name)
	}
	return script, nil
}

// List returns all deployed scripts sorted by name.
func (s *Store) List() []*Script {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*Script, 0, len(s.scripts))
	for _, script := range s.scripts {
		result = append(result, script)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}

// Delete removes a deployed script.
func (s *Store) Delete(name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.scripts[name]; !ok {
		return fmt.Errorf("script '%s' not found", name)
	}
	delete(s.scripts, name)
	return nil
}
