package tool

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"

	contractx "github.com/tanpawarit/Financial-Swarm-Analyst/agent/contract"
)

// Executor runs one tool. Returning a *contract.ToolError selects the error
// kind reported to the worker; any other error is reported as an execution failure.
type Executor func(ctx context.Context, args map[string]string) (string, error)

type Definition struct {
	Name   string
	Desc   string
	Params map[string]*schema.ParameterInfo
	Run    Executor
}

func (d Definition) Info() *schema.ToolInfo {
	info := &schema.ToolInfo{Name: d.Name, Desc: d.Desc}
	if len(d.Params) > 0 {
		info.ParamsOneOf = schema.NewParamsOneOfByParams(d.Params)
	}
	return info
}

// Catalog is the tool invocation layer: a name-indexed set of executors that
// never lets a failure escape as a Go error or a panic.
type Catalog struct {
	defs   map[string]Definition
	order  []string
	logger zerolog.Logger
}

var _ contractx.ToolGateway = (*Catalog)(nil)

func NewCatalog(logger zerolog.Logger, defs ...Definition) (*Catalog, error) {
	c := &Catalog{
		defs:   make(map[string]Definition, len(defs)),
		logger: logger.With().Str("component", "tool_catalog").Logger(),
	}
	for _, d := range defs {
		if err := c.Register(d); err != nil {
			return nil, err
		}
	}
	return c, nil
}

func (c *Catalog) Register(d Definition) error {
	name := strings.TrimSpace(d.Name)
	if name == "" {
		return fmt.Errorf("%w: tool name is required", contractx.ErrConfig)
	}
	if d.Run == nil {
		return fmt.Errorf("%w: tool %s has no executor", contractx.ErrConfig, name)
	}
	if _, dup := c.defs[name]; dup {
		return fmt.Errorf("%w: tool %s registered twice", contractx.ErrConfig, name)
	}
	d.Name = name
	c.defs[name] = d
	c.order = append(c.order, name)
	return nil
}

func (c *Catalog) Has(name string) bool {
	_, ok := c.defs[name]
	return ok
}

func (c *Catalog) Names() []string {
	out := make([]string, len(c.order))
	copy(out, c.order)
	return out
}

// Infos returns the schemas of the named tools in the given order.
func (c *Catalog) Infos(names []string) ([]*schema.ToolInfo, error) {
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		d, ok := c.defs[name]
		if !ok {
			return nil, fmt.Errorf("%w: unknown tool %s", contractx.ErrConfig, name)
		}
		infos = append(infos, d.Info())
	}
	return infos, nil
}

func (c *Catalog) Invoke(ctx context.Context, req contractx.ToolRequest) (res contractx.ToolResult) {
	res = contractx.ToolResult{CallID: req.CallID, Tool: req.Tool}

	d, ok := c.defs[req.Tool]
	if !ok {
		res.Error = contractx.NewToolError(contractx.ToolErrUnknown, "tool %q is not registered", req.Tool)
		return res
	}
	if missing := missingParams(d.Params, req.Args); len(missing) > 0 {
		res.Error = contractx.NewToolError(contractx.ToolErrInvalidArgs, "missing required argument(s): %s", strings.Join(missing, ", "))
		return res
	}

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error().Str("tool", req.Tool).Interface("panic", r).Msg("tool panicked")
			res.Payload = ""
			res.Error = contractx.NewToolError(contractx.ToolErrPanic, "tool %s failed unexpectedly: %v", req.Tool, r)
		}
	}()

	payload, err := d.Run(ctx, req.Args)
	if err != nil {
		var toolErr *contractx.ToolError
		if errors.As(err, &toolErr) {
			res.Error = toolErr
		} else {
			res.Error = contractx.NewToolError(contractx.ToolErrExecution, "%v", err)
		}
		c.logger.Debug().Str("tool", req.Tool).Str("kind", string(res.Error.Kind)).Msg(res.Error.Message)
		return res
	}
	res.Payload = payload
	return res
}

func missingParams(params map[string]*schema.ParameterInfo, args map[string]string) []string {
	var missing []string
	for name, p := range params {
		if p != nil && p.Required && strings.TrimSpace(args[name]) == "" {
			missing = append(missing, name)
		}
	}
	sort.Strings(missing)
	return missing
}
