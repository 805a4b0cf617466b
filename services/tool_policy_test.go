package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/shared"
)

func newTestToolPolicy(t *testing.T) *ToolPolicyService {
	t.Helper()
	svc := &ToolPolicyService{}
	require.NoError(t, svc.load(defaultToolPolicy()))
	return svc
}

func TestCanUseTool(t *testing.T) {
	svc := newTestToolPolicy(t)

	assert.True(t, svc.CanUseTool(shared.RoleDentist, model.ToolCreatePrescription))
	assert.True(t, svc.CanUseTool(shared.RoleReceptionist, model.ToolCreatePatient))
	assert.True(t, svc.CanUseTool(shared.RolePatient, model.ToolViewOwnAppointments))

	assert.False(t, svc.CanUseTool(shared.RolePatient, model.ToolCreatePayment))
	assert.False(t, svc.CanUseTool(shared.RoleReceptionist, model.ToolCreatePrescription))
	assert.False(t, svc.CanUseTool(shared.RoleDentist, model.ToolRefundPayment))
}

func TestCanUseToolAdminWildcard(t *testing.T) {
	svc := newTestToolPolicy(t)

	tools := []model.ToolName{
		model.ToolCreatePrescription,
		model.ToolViewPatient,
		model.ToolDeleteAppointment,
		model.ToolRefundPayment,
		model.ToolSendLabOrder,
		model.ToolViewOwnAppointments,
	}
	for _, tool := range tools {
		assert.True(t, svc.CanUseTool(shared.RoleAdmin, tool), "admin should hold %s", tool)
	}
}

func TestCanUseToolUnknownRoleDenied(t *testing.T) {
	svc := newTestToolPolicy(t)

	assert.False(t, svc.CanUseTool("intern", model.ToolViewPatient))
	assert.False(t, svc.CanUseTool("", model.ToolViewPatient))
}

func TestRequiresApprovalIgnoresRole(t *testing.T) {
	svc := newTestToolPolicy(t)

	// The sensitive set is role-independent; even the admin wildcard never
	// turns a sensitive tool into an auto-execute.
	assert.True(t, svc.RequiresApproval(model.ToolCreatePrescription))
	assert.True(t, svc.RequiresApproval(model.ToolRefundPayment))
	assert.False(t, svc.RequiresApproval(model.ToolViewPatient))

	adminDecision := svc.Decide(shared.RoleAdmin, model.ToolRefundPayment)
	assert.True(t, adminDecision.Allowed)
	assert.True(t, adminDecision.RequiresApproval)
	assert.Equal(t, dto.ToolActionPropose, adminDecision.Action)
}

func TestDecide(t *testing.T) {
	svc := newTestToolPolicy(t)

	tests := []struct {
		name   string
		role   string
		tool   model.ToolName
		action dto.ToolAction
	}{
		{"dentist sensitive tool proposes", shared.RoleDentist, model.ToolCreatePrescription, dto.ToolActionPropose},
		{"dentist plain tool executes", shared.RoleDentist, model.ToolViewPatient, dto.ToolActionExecute},
		{"patient denied payment", shared.RolePatient, model.ToolCreatePayment, dto.ToolActionDeny},
		{"receptionist denied clinical record", shared.RoleReceptionist, model.ToolViewClinicalRecord, dto.ToolActionDeny},
		{"admin plain tool executes", shared.RoleAdmin, model.ToolViewAppointments, dto.ToolActionExecute},
		{"admin sensitive tool proposes", shared.RoleAdmin, model.ToolDeleteAppointment, dto.ToolActionPropose},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			decision := svc.Decide(tt.role, tt.tool)
			assert.Equal(t, tt.action, decision.Action)
			assert.Equal(t, string(tt.tool), decision.Tool)
			assert.Equal(t, tt.action != dto.ToolActionDeny, decision.Allowed)
			assert.Equal(t, tt.action == dto.ToolActionPropose, decision.RequiresApproval)
		})
	}
}

func TestLoadRejectsUnknownToolName(t *testing.T) {
	svc := &ToolPolicyService{}

	policy := defaultToolPolicy()
	policy.Roles[shared.RoleDentist] = append(policy.Roles[shared.RoleDentist], "create_perscription")

	err := svc.load(policy)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "create_perscription")
}

func TestLoadRejectsUnknownSensitiveTool(t *testing.T) {
	svc := &ToolPolicyService{}

	policy := defaultToolPolicy()
	policy.Sensitive = append(policy.Sensitive, "drop_all_tables")

	err := svc.load(policy)
	require.Error(t, err)
}

func TestPolicySummary(t *testing.T) {
	svc := newTestToolPolicy(t)

	summary := svc.PolicySummary(shared.RoleDentist)
	assert.Contains(t, summary, string(model.ToolCreatePrescription))
	assert.Contains(t, summary, "requires human approval")

	assert.Contains(t, svc.PolicySummary(shared.RoleAdmin), "All tools")
	assert.Contains(t, svc.PolicySummary("intern"), "No tools")
}
