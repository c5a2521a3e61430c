// Package protocol defines the wire shapes of the command surface:
// request/response envelopes, notification frames, and the command
// vocabulary. The engine never initiates requests; it answers them and
// pushes notifications. Embedded JSON Schemas document the envelopes and
// back the conformance tests.
package protocol

import (
	"encoding/json"
	"fmt"

	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/query"
	"github.com/quillback/waystone/internal/snapshot"
)

// Version is the protocol version echoed by initialize.
const Version = 1

// Command names one operation of the command surface.
type Command string

const (
	CmdInitialize        Command = "initialize"
	CmdLoadRules         Command = "loadRules"
	CmdAddItem           Command = "addItemToInventory"
	CmdRemoveItem        Command = "removeItemFromInventory"
	CmdCheckLocation     Command = "checkLocation"
	CmdUncheckLocation   Command = "uncheckLocation"
	CmdGetSnapshot       Command = "getSnapshot"
	CmdClearChecked      Command = "clearCheckedLocations"
	CmdUpdateSetting     Command = "updateSetting"
	CmdApplyRuntimeState Command = "applyRuntimeState"
	CmdBeginBatch        Command = "beginBatchUpdate"
	CmdCommitBatch       Command = "commitBatchUpdate"
	CmdListLocations     Command = "listLocations"

	// Test-only commands, kept on the production surface so test
	// tooling drives the engine through the same door.
	CmdSetupTestInventory    Command = "setupTestInventoryAndGetSnapshot"
	CmdEvaluateAccessibility Command = "evaluateAccessibilityForTest"
	CmdApplyTestInventory    Command = "applyTestInventoryAndEvaluate"
)

// Commands lists every command, in surface order.
func Commands() []Command {
	return []Command{
		CmdInitialize, CmdLoadRules, CmdAddItem, CmdRemoveItem,
		CmdCheckLocation, CmdUncheckLocation, CmdGetSnapshot,
		CmdClearChecked, CmdUpdateSetting, CmdApplyRuntimeState,
		CmdBeginBatch, CmdCommitBatch, CmdListLocations,
		CmdSetupTestInventory, CmdEvaluateAccessibility, CmdApplyTestInventory,
	}
}

// Request is one command envelope. Only the fields a command reads are
// set; Validate enforces the per-command requirements.
type Request struct {
	ID      string  `json:"id"`
	Command Command `json:"command"`

	// Rules carries the rule-set document for loadRules.
	Rules json.RawMessage `json:"rules,omitempty"`
	// Item and Count serve the inventory commands; Count defaults to 1.
	Item  string `json:"item,omitempty"`
	Count int    `json:"count,omitempty"`
	// Location serves check/uncheck/evaluate commands.
	Location string `json:"location,omitempty"`
	// Setting and Value serve updateSetting.
	Setting string `json:"setting,omitempty"`
	Value   any    `json:"value,omitempty"`
	// State carries a captured runtime state for applyRuntimeState.
	State *engine.RuntimeState `json:"state,omitempty"`
	// Filter serves listLocations.
	Filter *query.Filter `json:"filter,omitempty"`
	// DeferRegionComputation is the batch option of beginBatchUpdate.
	DeferRegionComputation bool `json:"deferRegionComputation,omitempty"`
	// Items carries a whole inventory for the test-only commands.
	Items map[string]int `json:"items,omitempty"`
}

// Validate checks the envelope before dispatch: known command, present
// ID, and the fields that command requires.
func (r *Request) Validate() error {
	if r.ID == "" {
		return fmt.Errorf("request has no id")
	}
	switch r.Command {
	case CmdInitialize, CmdGetSnapshot, CmdClearChecked, CmdBeginBatch, CmdCommitBatch, CmdListLocations:
		return nil
	case CmdLoadRules:
		if len(r.Rules) == 0 {
			return fmt.Errorf("%s requires rules", r.Command)
		}
	case CmdAddItem, CmdRemoveItem:
		if r.Item == "" {
			return fmt.Errorf("%s requires item", r.Command)
		}
		if r.Count < 0 {
			return fmt.Errorf("%s count must not be negative", r.Command)
		}
	case CmdCheckLocation, CmdUncheckLocation, CmdEvaluateAccessibility:
		if r.Location == "" {
			return fmt.Errorf("%s requires location", r.Command)
		}
	case CmdUpdateSetting:
		if r.Setting == "" {
			return fmt.Errorf("%s requires setting", r.Command)
		}
	case CmdApplyRuntimeState:
		if r.State == nil {
			return fmt.Errorf("%s requires state", r.Command)
		}
	case CmdSetupTestInventory, CmdApplyTestInventory:
		if r.Items == nil {
			return fmt.Errorf("%s requires items", r.Command)
		}
		if r.Command == CmdApplyTestInventory && r.Location == "" {
			return fmt.Errorf("%s requires location", r.Command)
		}
	default:
		return fmt.Errorf("unknown command %q", r.Command)
	}
	return nil
}

// Status classifies a response.
type Status string

const (
	// StatusOK means the command succeeded.
	StatusOK Status = "ok"
	// StatusRejected means command validation refused the operation;
	// Error.Code carries the typed reason and state is unchanged.
	StatusRejected Status = "rejected"
	// StatusError means the command failed structurally (bad envelope,
	// load failure).
	StatusError Status = "error"
)

// Error is the structured failure payload of a non-ok response.
type Error struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

// InitializeInfo answers the initialize command.
type InitializeInfo struct {
	ProtocolVersion int    `json:"protocolVersion"`
	Game            string `json:"game,omitempty"`
	RulesLoaded     bool   `json:"rulesLoaded"`
}

// Response is the answer to one request, echoing its ID.
type Response struct {
	ID      string  `json:"id"`
	Command Command `json:"command"`
	Status  Status  `json:"status"`
	Error   *Error  `json:"error,omitempty"`

	Snapshot   *snapshot.Snapshot `json:"snapshot,omitempty"`
	Info       *InitializeInfo    `json:"info,omitempty"`
	Locations  []query.Location   `json:"locations,omitempty"`
	Accessible *bool              `json:"accessible,omitempty"`
	Count      *int               `json:"count,omitempty"`
	Warnings   []string           `json:"warnings,omitempty"`
}

// Notification is the push frame emitted after state changes.
type Notification struct {
	Kind     string `json:"kind"`
	Revision int64  `json:"revision"`
}

// OK builds a success response for a request.
func OK(req *Request) *Response {
	return &Response{ID: req.ID, Command: req.Command, Status: StatusOK}
}

// Rejected builds a typed-rejection response.
func Rejected(req *Request, code, message string) *Response {
	return &Response{
		ID:      req.ID,
		Command: req.Command,
		Status:  StatusRejected,
		Error:   &Error{Code: code, Message: message},
	}
}

// Failed builds a structural-failure response.
func Failed(req *Request, code, message string) *Response {
	return &Response{
		ID:      req.ID,
		Command: req.Command,
		Status:  StatusError,
		Error:   &Error{Code: code, Message: message},
	}
}
