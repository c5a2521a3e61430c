package harness

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/quillback/waystone/internal/protocol"
	"github.com/quillback/waystone/internal/service"
	"github.com/quillback/waystone/internal/testutil"
)

// stepTimeout bounds a single command round trip. A healthy engine
// answers in microseconds; hitting this means the loop is wedged.
const stepTimeout = 10 * time.Second

// Run executes a scenario against a fresh service and returns the
// result. Expectation failures land in Result.Errors; an error return
// means the scenario could not be executed at all.
func Run(scenario *Scenario) (*Result, error) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	svc := service.New(nil,
		service.WithLogger(logger),
		service.WithTestCommands(),
		service.WithIDGenerator(testutil.NewSequenceIDGenerator("step")),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loopDone := make(chan struct{})
	go func() {
		defer close(loopDone)
		_ = svc.Run(ctx)
	}()
	defer func() {
		svc.Stop()
		<-loopDone
	}()

	h := &runner{svc: svc}
	result := NewResult()

	rules, err := os.ReadFile(scenario.Rules)
	if err != nil {
		return nil, fmt.Errorf("read rules: %w", err)
	}
	resp, err := h.submit(&protocol.Request{Command: protocol.CmdLoadRules, Rules: rules})
	if err != nil {
		return nil, err
	}
	if resp.Status != protocol.StatusOK {
		return nil, fmt.Errorf("rule set failed to load: %s", describeFailure(resp))
	}

	for i, step := range scenario.Setup {
		resp, err := h.runStep(step)
		if err != nil {
			return nil, fmt.Errorf("setup[%d]: %w", i, err)
		}
		result.AddTrace(traceEvent(i, step, resp))
		if resp.Status != protocol.StatusOK {
			return nil, fmt.Errorf("setup[%d] %s failed: %s", i, step.Command, describeFailure(resp))
		}
	}

	for i, step := range scenario.Steps {
		resp, err := h.runStep(step)
		if err != nil {
			return nil, fmt.Errorf("steps[%d]: %w", i, err)
		}
		result.AddTrace(traceEvent(len(scenario.Setup)+i, step, resp))
		checkExpect(result, i, step, resp)
	}

	// Capture final state for assertions and golden comparison.
	resp, err = h.submit(&protocol.Request{Command: protocol.CmdGetSnapshot})
	if err != nil {
		return nil, err
	}
	result.Snapshot = resp.Snapshot

	resp, err = h.submit(&protocol.Request{Command: protocol.CmdListLocations})
	if err != nil {
		return nil, err
	}
	if resp.Status == protocol.StatusOK {
		result.Listing = resp.Locations
	}

	EvaluateAssertions(result, scenario.Assertions)
	return result, nil
}

type runner struct {
	svc *service.Service
}

func (h *runner) submit(req *protocol.Request) (*protocol.Response, error) {
	req.ID = h.svc.NewRequestID()
	ctx, cancel := context.WithTimeout(context.Background(), stepTimeout)
	defer cancel()
	return h.svc.Submit(ctx, req)
}

func (h *runner) runStep(step Step) (*protocol.Response, error) {
	req := &protocol.Request{
		Command:                protocol.Command(step.Command),
		Item:                   step.Item,
		Count:                  step.Count,
		Location:               step.Location,
		Setting:                step.Setting,
		Value:                  step.Value,
		Items:                  step.Items,
		DeferRegionComputation: step.DeferRegions,
	}
	return h.submit(req)
}

func traceEvent(index int, step Step, resp *protocol.Response) TraceEvent {
	e := TraceEvent{
		Step:    index,
		Command: step.Command,
		Status:  string(resp.Status),
	}
	if resp.Error != nil {
		e.Code = resp.Error.Code
	}
	return e
}

// checkExpect validates one step's response against its expect clause.
// A step with no clause must succeed.
func checkExpect(result *Result, index int, step Step, resp *protocol.Response) {
	if step.Expect == nil {
		if resp.Status != protocol.StatusOK {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected success, got %s",
				index, step.Command, describeFailure(resp)))
		}
		return
	}
	if string(resp.Status) != step.Expect.Status {
		result.AddError(fmt.Sprintf("steps[%d] %s: expected status %q, got %q (%s)",
			index, step.Command, step.Expect.Status, resp.Status, describeFailure(resp)))
		return
	}
	if step.Expect.Code != "" {
		code := ""
		if resp.Error != nil {
			code = resp.Error.Code
		}
		if code != step.Expect.Code {
			result.AddError(fmt.Sprintf("steps[%d] %s: expected code %q, got %q",
				index, step.Command, step.Expect.Code, code))
		}
	}
}

func describeFailure(resp *protocol.Response) string {
	if resp.Error == nil {
		return string(resp.Status)
	}
	return fmt.Sprintf("%s: %s (%s)", resp.Status, resp.Error.Message, resp.Error.Code)
}
