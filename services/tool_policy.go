package services

import (
	"fmt"
	"os"

	"github.com/alphabatem/common/context"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/shared"
)

// ToolPolicyService decides what the AI agent layer may do with a tool
// request. Authorization is two-dimensional: a role may hold the capability
// for a tool (CanUseTool) while the tool is independently always-sensitive
// (RequiresApproval). The sensitive check is evaluated after the capability
// check and is never bypassed by any role, including the admin wildcard —
// a sensitive tool never auto-executes, it becomes a proposal a human must
// confirm.
type ToolPolicyService struct {
	context.DefaultService

	policyPath string

	version    string
	roleGrants map[string]map[model.ToolName]struct{}
	wildcards  map[string]struct{}
	sensitive  map[model.ToolName]struct{}
}

const TOOL_POLICY_SVC = "tool_policy_svc"

func (svc ToolPolicyService) Id() string {
	return TOOL_POLICY_SVC
}

func (svc *ToolPolicyService) Configure(ctx *context.Context) error {
	svc.policyPath = os.Getenv("TOOL_POLICY_PATH")
	return svc.DefaultService.Configure(ctx)
}

func (svc *ToolPolicyService) Start() error {
	policy := defaultToolPolicy()

	if svc.policyPath != "" {
		raw, err := os.ReadFile(svc.policyPath)
		if err != nil {
			return shared.NewConfigurationError(err, "cannot read tool policy file")
		}
		if err := yaml.Unmarshal(raw, &policy); err != nil {
			return shared.NewConfigurationError(err, "cannot parse tool policy file")
		}
	}

	if err := svc.load(policy); err != nil {
		return shared.NewConfigurationError(err, "invalid tool policy")
	}

	log.WithFields(log.Fields{
		"version":   svc.version,
		"roles":     len(svc.roleGrants) + len(svc.wildcards),
		"sensitive": len(svc.sensitive),
	}).Info("Tool governance policy loaded")

	return nil
}

// toolPolicyFile is the on-disk policy shape. Every identifier is checked
// against the closed tool enum at load; a single typo rejects the whole
// file instead of silently dropping governance for one tool.
type toolPolicyFile struct {
	Version   string              `yaml:"version"`
	Roles     map[string][]string `yaml:"roles"`
	Sensitive []string            `yaml:"sensitive"`
}

func (svc *ToolPolicyService) load(policy toolPolicyFile) error {
	roleGrants := make(map[string]map[model.ToolName]struct{}, len(policy.Roles))
	wildcards := make(map[string]struct{})

	for role, tools := range policy.Roles {
		grants := make(map[model.ToolName]struct{}, len(tools))
		for _, raw := range tools {
			if raw == model.ToolWildcard {
				wildcards[role] = struct{}{}
				continue
			}
			tool, err := model.ParseToolName(raw)
			if err != nil {
				return fmt.Errorf("role %q: %w", role, err)
			}
			grants[tool] = struct{}{}
		}
		roleGrants[role] = grants
	}

	sensitive := make(map[model.ToolName]struct{}, len(policy.Sensitive))
	for _, raw := range policy.Sensitive {
		tool, err := model.ParseToolName(raw)
		if err != nil {
			return fmt.Errorf("sensitive set: %w", err)
		}
		sensitive[tool] = struct{}{}
	}

	svc.version = policy.Version
	svc.roleGrants = roleGrants
	svc.wildcards = wildcards
	svc.sensitive = sensitive
	return nil
}

// defaultToolPolicy mirrors the built-in governance rules; a policy file
// replaces it wholesale.
func defaultToolPolicy() toolPolicyFile {
	return toolPolicyFile{
		Version: "1",
		Roles: map[string][]string{
			shared.RoleAdmin: {model.ToolWildcard},
			shared.RoleDentist: {
				string(model.ToolCreatePrescription),
				string(model.ToolViewPatient),
				string(model.ToolCreateAppointment),
				string(model.ToolViewClinicalRecord),
				string(model.ToolCreateClinicalRecord),
				string(model.ToolSearchProcedures),
			},
			shared.RoleReceptionist: {
				string(model.ToolCreateAppointment),
				string(model.ToolViewPatient),
				string(model.ToolCreatePatient),
				string(model.ToolViewAppointments),
				string(model.ToolRescheduleAppointment),
			},
			shared.RolePatient: {
				string(model.ToolViewOwnAppointments),
			},
		},
		Sensitive: []string{
			string(model.ToolCreatePrescription),
			string(model.ToolCreatePayment),
			string(model.ToolRefundPayment),
			string(model.ToolDeleteAppointment),
			string(model.ToolSendLabOrder),
		},
	}
}

// ==================== GOVERNANCE CHECKS ====================

// CanUseTool reports whether the role holds the capability for the tool.
// Unknown roles resolve to an empty grant set: deny by default.
func (svc *ToolPolicyService) CanUseTool(role string, tool model.ToolName) bool {
	if _, ok := svc.wildcards[role]; ok {
		return true
	}
	grants, ok := svc.roleGrants[role]
	if !ok {
		return false
	}
	_, ok = grants[tool]
	return ok
}

// RequiresApproval reports whether the tool is always-sensitive. The answer
// does not depend on who is asking.
func (svc *ToolPolicyService) RequiresApproval(tool model.ToolName) bool {
	_, ok := svc.sensitive[tool]
	return ok
}

// Decide collapses both checks into the action the agent layer must take.
// A deny is fatal to the proposed action; a propose must block until a
// human explicitly confirms.
func (svc *ToolPolicyService) Decide(role string, tool model.ToolName) dto.ToolDecision {
	decision := dto.ToolDecision{Tool: string(tool)}

	if !svc.CanUseTool(role, tool) {
		decision.Action = dto.ToolActionDeny
		return decision
	}

	decision.Allowed = true
	if svc.RequiresApproval(tool) {
		decision.RequiresApproval = true
		decision.Action = dto.ToolActionPropose
	} else {
		decision.Action = dto.ToolActionExecute
	}

	return decision
}

// PolicySummary renders the active policy for interpolation into the
// system prompt's tool-policy section.
func (svc *ToolPolicyService) PolicySummary(role string) string {
	if _, ok := svc.wildcards[role]; ok {
		return "All tools are available to this role; sensitive tools still require explicit human approval."
	}

	grants, ok := svc.roleGrants[role]
	if !ok || len(grants) == 0 {
		return "No tools are available to this role."
	}

	summary := "Available tools:"
	for tool := range grants {
		summary += "\n- " + string(tool)
		if svc.RequiresApproval(tool) {
			summary += " (requires human approval)"
		}
	}
	return summary
}
