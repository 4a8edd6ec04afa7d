package runner

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/casualjim/switchboard/api"
	"github.com/casualjim/switchboard/guardrail"
	"github.com/casualjim/switchboard/handoff"
	"github.com/casualjim/switchboard/messages"
	"github.com/casualjim/switchboard/pkg/slogx"
	"github.com/casualjim/switchboard/pkg/uuidx"
	"github.com/casualjim/switchboard/provider"
	"github.com/casualjim/switchboard/thread"
	"github.com/casualjim/switchboard/tool"
	"github.com/casualjim/switchboard/tracing"
	"github.com/casualjim/switchboard/types"
	"github.com/go-openapi/strfmt"
	"github.com/google/uuid"
)

// ErrMaxTurnsExceeded is returned when a run needs more model calls than allowed.
var ErrMaxTurnsExceeded = errors.New("max turns exceeded")

// MultipleHandoffsOutput is the tool output of every hand-off call of a turn but the first.
const MultipleHandoffsOutput = "Multiple handoffs detected, ignoring this one."

// Run runs agent on input until it produces a final output.
func Run(ctx context.Context, agent api.Agent, input Input, options ...Option) (*Result, error) {
	cfg, err := newConfig(options)
	if err != nil {
		return nil, err
	}
	r := &run{cfg: cfg, emit: func(Event) {}}
	return r.execute(ctx, agent, input)
}

// RunStreamed starts the run in the background and reports its progress as events.
// The events channel must be drained for the run to make progress.
func RunStreamed(ctx context.Context, agent api.Agent, input Input, options ...Option) *Streamed {
	s := &Streamed{
		events: make(chan Event, 64),
		done:   make(chan struct{}),
	}

	cfg, err := newConfig(options)
	if err != nil {
		s.err = err
		close(s.events)
		close(s.done)
		return s
	}
	cfg.stream = true

	r := &run{cfg: cfg, emit: func(ev Event) {
		select {
		case s.events <- ev:
		case <-ctx.Done():
		}
	}}
	go func() {
		defer close(s.done)
		defer close(s.events)
		s.result, s.err = r.execute(ctx, agent, input)
	}()
	return s
}

type run struct {
	cfg   *config
	emit  func(Event)
	id    uuid.UUID
	cv    types.ContextVars
	items []RunItem

	// hookMu serializes tool hooks of parallel tool calls.
	hookMu sync.Mutex
}

func (r *run) addItem(item RunItem) {
	r.items = append(r.items, item)
	r.emit(RunItemEvent{Name: item.Kind, Item: item})
}

func (r *run) execute(ctx context.Context, starting api.Agent, input Input) (*Result, error) {
	if starting == nil {
		return nil, errors.New("agent is required")
	}
	if input == nil {
		return nil, errors.New("input is required")
	}
	th, err := input.thread()
	if err != nil {
		return nil, err
	}

	r.id = uuidx.New()
	r.cv = r.cfg.contextVars.Clone()

	ctx, tr := r.startTrace(ctx)
	defer tr.Finish()

	active := starting
	agentCtx, agentSpan := r.startAgent(ctx, active)
	defer func() { agentSpan.End() }()
	r.emit(AgentUpdatedEvent{Agent: active})

	if err := r.checkInput(agentCtx, active, lastUserText(th)); err != nil {
		agentSpan.SetError(err.Error(), nil)
		return nil, err
	}

	for turn := 0; turn < r.cfg.maxTurns; turn++ {
		resp, err := r.callModel(agentCtx, active, th)
		if err != nil {
			agentSpan.SetError(err.Error(), nil)
			return nil, err
		}
		th.AddUsage(&resp.usage)

		if resp.toolCalls == nil {
			msg := provider.ResponseToMessage(*resp.assistant, active.Name())
			th.AddAssistantMessage(msg)

			output := resp.assistant.Response.Text()
			r.addItem(RunItem{Kind: MessageOutputItem, Agent: active.Name(), Content: output})

			if err := r.checkOutput(agentCtx, active, output); err != nil {
				agentSpan.SetError(err.Error(), nil)
				return nil, err
			}
			r.cfg.hooks.OnAgentEnd(agentCtx, active, output)
			return &Result{
				FinalOutput: output,
				LastAgent:   active,
				NewItems:    r.items,
				Usage:       th.Usage(),
				Thread:      th,
			}, nil
		}

		forked := th.Fork()
		forked.AddToolCall(provider.ResponseToMessage(*resp.toolCalls, active.Name()))
		next, err := r.handleToolCalls(agentCtx, active, forked, resp.toolCalls.Response)
		if err != nil {
			agentSpan.SetError(err.Error(), nil)
			return nil, err
		}
		th.Join(forked)

		if next != nil {
			agentSpan.End()
			active = next
			agentCtx, agentSpan = r.startAgent(ctx, active)
			r.emit(AgentUpdatedEvent{Agent: active})
		}
	}

	err = fmt.Errorf("%w: %d", ErrMaxTurnsExceeded, r.cfg.maxTurns)
	agentSpan.SetError(err.Error(), nil)
	return nil, err
}

func (r *run) startTrace(ctx context.Context) (context.Context, *tracing.Trace) {
	traceOpts := []tracing.Option{}
	if r.cfg.traceProvider != nil {
		traceOpts = append(traceOpts, tracing.WithProvider(r.cfg.traceProvider))
	}
	if r.cfg.groupID != "" {
		traceOpts = append(traceOpts, tracing.GroupID(r.cfg.groupID))
	}

	if r.cfg.tracingDisabled {
		return tracing.Start(ctx, r.cfg.workflowName, append(traceOpts, tracing.Disabled(true))...)
	}
	// an enclosing trace owns the run
	if tracing.TraceFromContext(ctx) != nil {
		return ctx, nil
	}
	return tracing.Start(ctx, r.cfg.workflowName, traceOpts...)
}

func (r *run) startAgent(ctx context.Context, agent api.Agent) (context.Context, *tracing.Span) {
	toolNames := make([]string, 0, len(agent.Tools()))
	for _, t := range agent.Tools() {
		toolNames = append(toolNames, t.Name)
	}
	handoffNames := make([]string, 0, len(agent.Handoffs()))
	for _, h := range agent.Handoffs() {
		handoffNames = append(handoffNames, h.Agent.Name())
	}
	ctx, span := tracing.StartSpan(ctx, tracing.KindAgent, agent.Name(), map[string]any{
		"tools":    toolNames,
		"handoffs": handoffNames,
	})
	slog.DebugContext(ctx, "agent started", slogx.LoggerName("runner"), slogx.Agent(agent.Name()), slog.String("run_id", r.id.String()))
	r.cfg.hooks.OnAgentStart(ctx, agent)
	return ctx, span
}

func (r *run) checkInput(ctx context.Context, agent api.Agent, input string) error {
	for _, g := range agent.InputGuardrails() {
		if g.Check == nil {
			continue
		}
		res, err := r.checkGuardrail(ctx, g.Name, func(ctx context.Context) (api.GuardrailResult, error) {
			return g.Check(ctx, agent, input, r.cv)
		})
		if err != nil {
			return fmt.Errorf("input guardrail %s: %w", g.Name, err)
		}
		if res.TripwireTriggered {
			return &guardrail.InputTripwireError{Guardrail: g.Name, Result: res}
		}
	}
	return nil
}

func (r *run) checkOutput(ctx context.Context, agent api.Agent, output string) error {
	for _, g := range agent.OutputGuardrails() {
		if g.Check == nil {
			continue
		}
		res, err := r.checkGuardrail(ctx, g.Name, func(ctx context.Context) (api.GuardrailResult, error) {
			return g.Check(ctx, agent, output, r.cv)
		})
		if err != nil {
			return fmt.Errorf("output guardrail %s: %w", g.Name, err)
		}
		if res.TripwireTriggered {
			return &guardrail.OutputTripwireError{Guardrail: g.Name, Agent: agent.Name(), Result: res}
		}
	}
	return nil
}

func (r *run) checkGuardrail(ctx context.Context, name string, check func(context.Context) (api.GuardrailResult, error)) (api.GuardrailResult, error) {
	ctx, span := tracing.StartSpan(ctx, tracing.KindGuardrail, name, nil)
	defer span.End()

	res, err := check(ctx)
	if err != nil {
		span.SetError(err.Error(), nil)
		return res, err
	}
	span.Set("triggered", res.TripwireTriggered)
	return res, nil
}

type modelResponse struct {
	assistant *provider.Response[messages.AssistantMessage]
	toolCalls *provider.Response[messages.ToolCallMessage]
	usage     thread.Usage
}

func (r *run) modelFor(agent api.Agent) (api.Model, error) {
	model := r.cfg.model
	if model == nil {
		model = agent.Model()
	}
	if model == nil {
		return nil, fmt.Errorf("agent %s has no model", agent.Name())
	}
	if model.Provider() == nil {
		return nil, fmt.Errorf("model %s has no provider", model.Name())
	}
	return model, nil
}

func (r *run) callModel(ctx context.Context, agent api.Agent, th *thread.Thread) (*modelResponse, error) {
	model, err := r.modelFor(agent)
	if err != nil {
		return nil, err
	}
	instructions, err := agent.RenderInstructions(r.cv)
	if err != nil {
		return nil, fmt.Errorf("failed to render instructions: %w", err)
	}

	tools := slices.Concat(agent.Tools(), handoffTools(agent))

	ctx, span := tracing.StartSpan(ctx, tracing.KindGeneration, "generation", map[string]any{
		"model": model.Name(),
	})
	defer span.End()

	stream, err := model.Provider().ChatCompletion(ctx, provider.CompletionParams{
		RunID:             r.id,
		Instructions:      instructions,
		Thread:            th,
		Stream:            r.cfg.stream,
		ResponseSchema:    r.cfg.outputSchema,
		Model:             model,
		Tools:             tools,
		ParallelToolCalls: agent.ParallelToolCalls(),
	})
	if err != nil {
		span.SetError(err.Error(), nil)
		return nil, fmt.Errorf("failed to get chat completion: %w", err)
	}

	resp, err := r.consume(ctx, stream)
	if err != nil {
		span.SetError(err.Error(), nil)
		return nil, err
	}
	span.Set("usage", map[string]any{
		"input_tokens":  resp.usage.PromptTokens,
		"output_tokens": resp.usage.CompletionTokens,
	})
	return resp, nil
}

func (r *run) consume(ctx context.Context, stream <-chan provider.StreamEvent) (*modelResponse, error) {
	var resp modelResponse
	for {
		select {
		case <-ctx.Done():
			go drain(stream)
			return nil, ctx.Err()
		case ev, ok := <-stream:
			if !ok {
				if resp.assistant == nil && resp.toolCalls == nil {
					return nil, errors.New("model stream ended without a response")
				}
				return &resp, nil
			}
			switch ev := ev.(type) {
			case provider.Error:
				go drain(stream)
				return nil, ev
			case provider.Response[messages.AssistantMessage]:
				resp.assistant = &ev
				resp.usage = ev.Usage
			case provider.Response[messages.ToolCallMessage]:
				resp.toolCalls = &ev
				resp.usage = ev.Usage
			}
			r.emit(RawResponseEvent{Data: ev})
		}
	}
}

// drain discards what a provider still sends after the run stopped reading.
func drain(stream <-chan provider.StreamEvent) {
	for range stream {
	}
}

func handoffTools(agent api.Agent) []tool.Definition {
	defs := make([]tool.Definition, 0, len(agent.Handoffs()))
	for _, h := range agent.Handoffs() {
		output := handoff.Output(h.Agent)
		defs = append(defs, tool.Definition{
			Name:        h.ToolName,
			Description: h.ToolDescription,
			Function:    func() string { return output },
		})
	}
	return defs
}

type toolOutcome struct {
	output      string
	contextVars types.ContextVars
	// changed holds the entries a parallel tool wrote into its own copy of the
	// context variables; removed lists the keys it deleted.
	changed types.ContextVars
	removed []string
}

func (r *run) handleToolCalls(ctx context.Context, agent api.Agent, th *thread.Thread, msg messages.ToolCallMessage) (api.Agent, error) {
	tools := make(map[string]tool.Definition, len(agent.Tools()))
	for _, t := range agent.Tools() {
		tools[t.Name] = t
	}
	handoffs := make(map[string]api.Handoff, len(agent.Handoffs()))
	for _, h := range agent.Handoffs() {
		handoffs[h.ToolName] = h
	}

	for _, call := range msg.ToolCalls {
		_, isTool := tools[call.Name]
		_, isHandoff := handoffs[call.Name]
		if !isTool && !isHandoff {
			return nil, fmt.Errorf("unknown tool %s", call.Name)
		}
	}

	outcomes := make([]toolOutcome, len(msg.ToolCalls))
	chosen := -1
	var regular []int
	for i, call := range msg.ToolCalls {
		if _, ok := handoffs[call.Name]; ok {
			r.addItem(RunItem{Kind: HandoffCallItem, Agent: agent.Name(), ToolCall: call})
			if chosen < 0 {
				chosen = i
			} else {
				outcomes[i].output = MultipleHandoffsOutput
			}
			continue
		}
		r.addItem(RunItem{Kind: ToolCallItem, Agent: agent.Name(), ToolCall: call})
		regular = append(regular, i)
	}

	if agent.ParallelToolCalls() && len(regular) > 1 {
		var wg sync.WaitGroup
		for _, i := range regular {
			wg.Add(1)
			own := r.cv.Clone()
			go func() {
				defer wg.Done()
				out := r.callTool(ctx, agent, tools[msg.ToolCalls[i].Name], msg.ToolCalls[i], own)
				out.changed, out.removed = diffVars(r.cv, own)
				outcomes[i] = out
			}()
		}
		wg.Wait()
	} else {
		for _, i := range regular {
			outcomes[i] = r.callTool(ctx, agent, tools[msg.ToolCalls[i].Name], msg.ToolCalls[i], r.cv)
		}
	}

	var next api.Agent
	if chosen >= 0 {
		h := handoffs[msg.ToolCalls[chosen].Name]
		if err := r.takeHandoff(ctx, agent, h); err != nil {
			return nil, err
		}
		outcomes[chosen].output = handoff.Output(h.Agent)
		next = h.Agent
	}

	for i, call := range msg.ToolCalls {
		out := outcomes[i]
		resp := messages.New().
			WithSender(agent.Name()).
			WithRunID(r.id).
			WithTurnID(th.ID()).
			ToolResponse(call.ID, call.Name, out.output)
		resp.Timestamp = strfmt.DateTime(time.Now())
		th.AddToolResponse(resp)

		kind := ToolCallOutputItem
		item := RunItem{Agent: agent.Name(), Content: out.output, ToolCall: call}
		if i == chosen {
			kind = HandoffOutputItem
			item.TargetAgent = next.Name()
		}
		item.Kind = kind
		r.addItem(item)

		for _, k := range out.removed {
			delete(r.cv, k)
		}
		maps.Copy(r.cv, out.changed)
		if out.contextVars != nil {
			maps.Copy(r.cv, out.contextVars)
		}
	}
	return next, nil
}

func (r *run) callTool(ctx context.Context, agent api.Agent, def tool.Definition, call messages.ToolCallData, cv types.ContextVars) toolOutcome {
	ctx, span := tracing.StartSpan(ctx, tracing.KindFunction, def.Name, map[string]any{
		"input": call.Arguments,
	})
	defer span.End()

	r.hookMu.Lock()
	r.cfg.hooks.OnToolStart(ctx, agent, def)
	r.hookMu.Unlock()
	res, err := def.Call(ctx, call.Arguments, cv)
	out := toolOutcome{output: res.Value, contextVars: res.ContextVars}
	if err != nil {
		slog.WarnContext(ctx, "tool call failed", slogx.LoggerName("runner"), slogx.Agent(agent.Name()), slog.String("tool", def.Name), slogx.Error(err))
		span.SetError(err.Error(), nil)
		out = toolOutcome{output: "error: " + err.Error()}
	}
	span.Set("output", out.output)
	r.hookMu.Lock()
	r.cfg.hooks.OnToolEnd(ctx, agent, def, out.output)
	r.hookMu.Unlock()
	return out
}

// diffVars reports the entries of after that are new or differ from before,
// and the keys of before that after no longer has.
func diffVars(before, after types.ContextVars) (types.ContextVars, []string) {
	changed := types.ContextVars{}
	for k, v := range after {
		if old, ok := before[k]; !ok || !reflect.DeepEqual(old, v) {
			changed[k] = v
		}
	}
	var removed []string
	for k := range before {
		if _, ok := after[k]; !ok {
			removed = append(removed, k)
		}
	}
	slices.Sort(removed)
	return changed, removed
}

func (r *run) takeHandoff(ctx context.Context, from api.Agent, h api.Handoff) error {
	ctx, span := tracing.StartSpan(ctx, tracing.KindHandoff, h.ToolName, map[string]any{
		"from_agent": from.Name(),
		"to_agent":   h.Agent.Name(),
	})
	defer span.End()

	if h.OnHandoff != nil {
		if err := h.OnHandoff(ctx, r.cv); err != nil {
			span.SetError(err.Error(), nil)
			return fmt.Errorf("handoff to %s: %w", h.Agent.Name(), err)
		}
	}
	slog.DebugContext(ctx, "handing off", slogx.LoggerName("runner"), slog.String("from", from.Name()), slog.String("to", h.Agent.Name()))
	r.cfg.hooks.OnHandoff(ctx, from, h.Agent)
	return nil
}
