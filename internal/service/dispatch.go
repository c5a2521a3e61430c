package service

import (
	"github.com/quillback/waystone/internal/engine"
	"github.com/quillback/waystone/internal/protocol"
	"github.com/quillback/waystone/internal/query"
	"github.com/quillback/waystone/internal/ruleset"
)

// dispatch applies one request to the engine. Runs only in the Run
// goroutine.
func (s *Service) dispatch(req *protocol.Request) *protocol.Response {
	if err := req.Validate(); err != nil {
		return protocol.Failed(req, "bad_request", err.Error())
	}

	switch req.Command {
	case protocol.CmdInitialize:
		resp := protocol.OK(req)
		resp.Info = &protocol.InitializeInfo{
			ProtocolVersion: protocol.Version,
			Game:            s.eng.Game(),
			RulesLoaded:     s.eng.RulesLoaded(),
		}
		return resp

	case protocol.CmdLoadRules:
		if err := s.eng.LoadRuleSet(req.Rules); err != nil {
			return protocol.Failed(req, ruleset.CodeOf(err), err.Error())
		}
		resp := s.okWithSnapshot(req)
		resp.Warnings = s.eng.Warnings()
		return resp

	case protocol.CmdAddItem:
		n := req.Count
		if n == 0 {
			n = 1
		}
		count := s.eng.AddItem(req.Item, n)
		resp := s.okWithSnapshot(req)
		resp.Count = &count
		return resp

	case protocol.CmdRemoveItem:
		n := req.Count
		if n == 0 {
			n = 1
		}
		removed := s.eng.RemoveItem(req.Item, n)
		resp := s.okWithSnapshot(req)
		resp.Count = &removed
		return resp

	case protocol.CmdCheckLocation:
		if err := s.eng.CheckLocation(req.Location); err != nil {
			return s.refuse(req, err)
		}
		return s.okWithSnapshot(req)

	case protocol.CmdUncheckLocation:
		if err := s.eng.UncheckLocation(req.Location); err != nil {
			return s.refuse(req, err)
		}
		return s.okWithSnapshot(req)

	case protocol.CmdGetSnapshot:
		return s.okWithSnapshot(req)

	case protocol.CmdClearChecked:
		s.eng.ClearCheckedLocations()
		return s.okWithSnapshot(req)

	case protocol.CmdUpdateSetting:
		s.eng.UpdateSetting(req.Setting, req.Value)
		return s.okWithSnapshot(req)

	case protocol.CmdApplyRuntimeState:
		if err := s.eng.ApplyRuntimeState(*req.State); err != nil {
			return s.refuse(req, err)
		}
		return s.okWithSnapshot(req)

	case protocol.CmdBeginBatch:
		var opts []engine.BatchOption
		if req.DeferRegionComputation {
			opts = append(opts, engine.DeferRegionComputation())
		}
		if err := s.eng.BeginBatch(opts...); err != nil {
			return s.refuse(req, err)
		}
		return protocol.OK(req)

	case protocol.CmdCommitBatch:
		if err := s.eng.CommitBatch(); err != nil {
			return s.refuse(req, err)
		}
		return s.okWithSnapshot(req)

	case protocol.CmdListLocations:
		var f query.Filter
		if req.Filter != nil {
			f = *req.Filter
		}
		rows, err := s.eng.ListLocations(f)
		if err != nil {
			return s.refuse(req, err)
		}
		resp := protocol.OK(req)
		resp.Locations = rows
		return resp

	case protocol.CmdSetupTestInventory:
		if resp := s.requireTest(req); resp != nil {
			return resp
		}
		if err := s.eng.SetInventory(req.Items); err != nil {
			return s.refuse(req, err)
		}
		return s.okWithSnapshot(req)

	case protocol.CmdEvaluateAccessibility:
		if resp := s.requireTest(req); resp != nil {
			return resp
		}
		return s.evaluate(req)

	case protocol.CmdApplyTestInventory:
		if resp := s.requireTest(req); resp != nil {
			return resp
		}
		if err := s.eng.SetInventory(req.Items); err != nil {
			return s.refuse(req, err)
		}
		return s.evaluate(req)
	}

	// Validate rejects unknown commands before we get here.
	return protocol.Failed(req, "bad_request", "unhandled command")
}

// evaluate answers a location accessibility probe without mutating
// checked state.
func (s *Service) evaluate(req *protocol.Request) *protocol.Response {
	accessible, err := s.eng.LocationAccessible(req.Location)
	if err != nil {
		return s.refuse(req, err)
	}
	resp := s.okWithSnapshot(req)
	resp.Accessible = &accessible
	return resp
}

func (s *Service) okWithSnapshot(req *protocol.Request) *protocol.Response {
	resp := protocol.OK(req)
	resp.Snapshot = s.eng.Snapshot()
	return resp
}

// refuse maps an engine error to a response: typed rejections become
// status "rejected", everything else "error".
func (s *Service) refuse(req *protocol.Request, err error) *protocol.Response {
	if reason := engine.RejectReason(err); reason != "" {
		return protocol.Rejected(req, reason, err.Error())
	}
	return protocol.Failed(req, "internal", err.Error())
}

// requireTest gates the test-only commands.
func (s *Service) requireTest(req *protocol.Request) *protocol.Response {
	if s.allowTest {
		return nil
	}
	return protocol.Rejected(req, "test_commands_disabled",
		"test commands are not enabled on this server")
}
