// Package registry loads the worker roster and the capability graph of legal handoffs.
package registry

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

//go:embed workers.yaml
var defaultConfig []byte

type PromptSource interface {
	Lookup(name string) (string, bool)
}

type Options struct {
	// ToolExists reports whether a tool id is known. Nil accepts every id.
	ToolExists func(name string) bool
	Prompts    PromptSource
	// Vars replaces {{KEY}} placeholders inside instruction payloads.
	Vars map[string]string
}

type fileConfig struct {
	Entry   string         `yaml:"entry"`
	Workers []workerConfig `yaml:"workers"`
}

type workerConfig struct {
	ID           string   `yaml:"id"`
	Prompt       string   `yaml:"prompt"`
	Instructions string   `yaml:"instructions"`
	Handoffs     []string `yaml:"handoffs"`
	Tools        []string `yaml:"tools"`
	StepBudget   int      `yaml:"step_budget"`
}

// Worker is immutable once the registry is loaded.
type Worker struct {
	ID           contractx.WorkerID
	Instructions string
	Handoffs     []contractx.WorkerID
	Tools        []string
	// StepBudget overrides the router default when positive.
	StepBudget int
}

func (w Worker) CanHandoff(to contractx.WorkerID) bool {
	return slices.Contains(w.Handoffs, to)
}

func (w Worker) CanUse(tool string) bool {
	return slices.Contains(w.Tools, tool)
}

type Registry struct {
	entry   contractx.WorkerID
	order   []contractx.WorkerID
	workers map[contractx.WorkerID]Worker
}

// Default loads the roster embedded in the binary.
func Default(opts Options) (*Registry, error) {
	return Load(defaultConfig, opts)
}

func LoadFile(path string, opts Options) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read registry %s: %v", contractx.ErrConfig, path, err)
	}
	return Load(data, opts)
}

// Load parses and validates a roster. Every problem found is reported in one
// joined error wrapping contract.ErrConfig.
func Load(data []byte, opts Options) (*Registry, error) {
	var cfg fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		return nil, fmt.Errorf("%w: parse registry: %v", contractx.ErrConfig, err)
	}

	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{contractx.ErrConfig}, args...)...))
	}

	if len(cfg.Workers) == 0 {
		fail("registry declares no workers")
	}

	reg := &Registry{
		entry:   contractx.WorkerID(strings.TrimSpace(cfg.Entry)),
		workers: make(map[contractx.WorkerID]Worker, len(cfg.Workers)),
	}

	replacer := placeholderReplacer(opts.Vars)
	for i, wc := range cfg.Workers {
		id := contractx.WorkerID(strings.TrimSpace(wc.ID))
		if id == "" {
			fail("worker #%d has an empty id", i+1)
			continue
		}
		if _, dup := reg.workers[id]; dup {
			fail("worker %q is declared more than once", id)
			continue
		}
		if wc.StepBudget < 0 {
			fail("worker %q has a negative step_budget", id)
		}

		instructions := strings.TrimSpace(wc.Instructions)
		if name := strings.TrimSpace(wc.Prompt); name != "" {
			if instructions != "" {
				fail("worker %q sets both prompt and instructions", id)
			}
			if opts.Prompts == nil {
				fail("worker %q references prompt %q but no prompt source is configured", id, name)
			} else if v, ok := opts.Prompts.Lookup(name); !ok {
				errs = append(errs, fmt.Errorf("%w: %w: worker %q references unknown prompt %q",
					contractx.ErrConfig, contractx.ErrPromptMissing, id, name))
			} else {
				instructions = v
			}
		}

		w := Worker{
			ID:           id,
			Instructions: replacer.Replace(instructions),
			StepBudget:   wc.StepBudget,
		}
		for _, h := range wc.Handoffs {
			target := contractx.WorkerID(strings.TrimSpace(h))
			if target == id {
				fail("worker %q lists itself as a handoff target", id)
				continue
			}
			if !slices.Contains(w.Handoffs, target) {
				w.Handoffs = append(w.Handoffs, target)
			}
		}
		for _, t := range wc.Tools {
			name := strings.TrimSpace(t)
			if opts.ToolExists != nil && !opts.ToolExists(name) {
				fail("worker %q references unknown tool %q", id, name)
				continue
			}
			if !slices.Contains(w.Tools, name) {
				w.Tools = append(w.Tools, name)
			}
		}

		reg.workers[id] = w
		reg.order = append(reg.order, id)
	}

	for _, id := range reg.order {
		for _, target := range reg.workers[id].Handoffs {
			if _, ok := reg.workers[target]; !ok {
				fail("worker %q hands off to unknown worker %q", id, target)
			}
		}
	}

	if reg.entry == "" {
		fail("entry worker is not set")
	} else if _, ok := reg.workers[reg.entry]; !ok {
		fail("entry worker %q is not registered", reg.entry)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return reg, nil
}

func (r *Registry) Entry() contractx.WorkerID {
	return r.entry
}

func (r *Registry) Worker(id contractx.WorkerID) (Worker, bool) {
	w, ok := r.workers[id]
	return w, ok
}

// IDs returns worker ids in declaration order.
func (r *Registry) IDs() []contractx.WorkerID {
	return slices.Clone(r.order)
}

// CheckHandoff returns an error wrapping contract.ErrProtocolViolation when
// the transfer from -> to is not part of the capability graph.
func (r *Registry) CheckHandoff(from, to contractx.WorkerID) error {
	src, ok := r.workers[from]
	if !ok {
		return fmt.Errorf("%w: unknown source worker %q", contractx.ErrProtocolViolation, from)
	}
	if _, ok := r.workers[to]; !ok {
		return fmt.Errorf("%w: %q is not a registered worker; %s may hand off to: %s",
			contractx.ErrProtocolViolation, to, from, joinIDs(src.Handoffs))
	}
	if !src.CanHandoff(to) {
		return fmt.Errorf("%w: %s may not hand off to %s; allowed targets: %s",
			contractx.ErrProtocolViolation, from, to, joinIDs(src.Handoffs))
	}
	return nil
}

func joinIDs(ids []contractx.WorkerID) string {
	if len(ids) == 0 {
		return "none"
	}
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = string(id)
	}
	return strings.Join(parts, ", ")
}

func placeholderReplacer(vars map[string]string) *strings.Replacer {
	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{{"+k+"}}", v)
	}
	return strings.NewReplacer(pairs...)
}
