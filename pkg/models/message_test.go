package models

import "testing"

func TestToolCallParsedArgsMalformed(t *testing.T) {
	tc := ToolCall{ID: "1", Name: "read_file", Args: "{not json"}
	args, ok := tc.ParsedArgs()
	if ok {
		t.Fatalf("expected malformed JSON to report ok=false")
	}
	if len(args) != 0 {
		t.Fatalf("expected empty args map on malformed input, got %v", args)
	}
}

func TestToolCallParsedArgsEmpty(t *testing.T) {
	tc := ToolCall{ID: "1", Name: "list_dir", Args: ""}
	args, ok := tc.ParsedArgs()
	if !ok || len(args) != 0 {
		t.Fatalf("expected empty args object for empty input, got %v ok=%v", args, ok)
	}
}

func TestRiskForToolFixedMapping(t *testing.T) {
	cases := map[string]ToolRisk{
		"read_file":   RiskLow,
		"list_dir":    RiskLow,
		"glob":        RiskLow,
		"grep":        RiskLow,
		"write_file":  RiskMedium,
		"append_file": RiskMedium,
		"delete_file": RiskHigh,
		"run_shell":   RiskHigh,
		"unknown_xyz": RiskMedium,
		"ext:tool":    RiskMedium,
	}
	for name, want := range cases {
		if got := RiskForTool(name); got != want {
			t.Errorf("RiskForTool(%q) = %v, want %v", name, got, want)
		}
	}
}

func TestApprovalModeNeedsApprovalMonotone(t *testing.T) {
	modes := []ApprovalMode{
		ApprovalAutoApprove,
		ApprovalApproveDangerous,
		ApprovalApproveWrites,
		ApprovalApproveAll,
		ApprovalDryRun,
	}
	risks := []ToolRisk{RiskLow, RiskMedium, RiskHigh}
	for _, m := range modes {
		prev := false
		for _, r := range risks {
			cur := m.NeedsApproval(r)
			if prev && !cur {
				t.Errorf("mode %v not monotone in risk: risk %v needed approval but a lower risk did not", m, r)
			}
			prev = cur
		}
	}
}

func TestApprovalDryRunAlwaysTrue(t *testing.T) {
	for _, r := range []ToolRisk{RiskLow, RiskMedium, RiskHigh} {
		if !ApprovalDryRun.NeedsApproval(r) {
			t.Errorf("DryRun.NeedsApproval(%v) = false, want true", r)
		}
	}
}
