// Package plugin attaches documentation synthesis to a command lifecycle.
// The engine never generates the OpenAPI document itself; it hooks in
// before the host's generation command to enrich the manifest and after
// it to finalize the document the generator wrote.
package plugin

import (
	"context"
	"fmt"
)

// Lifecycle names. The engine only ever binds to the generation command.
const (
	GenerateCommand = "openapi:generate"
	BeforeGenerate  = "before:" + GenerateCommand
	AfterGenerate   = "after:" + GenerateCommand
)

// HookFunc is a lifecycle callback.
type HookFunc func(ctx context.Context) error

// Host is the lifecycle a plugin attaches to: it exposes named commands
// and accepts hooks around them.
type Host interface {
	HasCommand(name string) bool
	Hook(event string, fn HookFunc)
}

// Runner is a minimal Host: a command registry with ordered before/after
// hooks.
type Runner struct {
	commands map[string]HookFunc
	hooks    map[string][]HookFunc
}

// NewRunner returns an empty lifecycle runner.
func NewRunner() *Runner {
	return &Runner{
		commands: make(map[string]HookFunc),
		hooks:    make(map[string][]HookFunc),
	}
}

// RegisterCommand installs the function executed for a named command.
func (r *Runner) RegisterCommand(name string, fn HookFunc) {
	r.commands[name] = fn
}

// HasCommand reports whether a command is registered.
func (r *Runner) HasCommand(name string) bool {
	_, ok := r.commands[name]
	return ok
}

// Hook appends a callback for a lifecycle event. Hooks run in
// registration order.
func (r *Runner) Hook(event string, fn HookFunc) {
	r.hooks[event] = append(r.hooks[event], fn)
}

// Run executes a command with its before and after hooks. The first
// failing step aborts the run.
func (r *Runner) Run(ctx context.Context, command string) error {
	cmd, ok := r.commands[command]
	if !ok {
		return fmt.Errorf("plugin: unknown command %q", command)
	}
	for _, h := range r.hooks["before:"+command] {
		if err := h(ctx); err != nil {
			return err
		}
	}
	if err := cmd(ctx); err != nil {
		return err
	}
	for _, h := range r.hooks["after:"+command] {
		if err := h(ctx); err != nil {
			return err
		}
	}
	return nil
}
