package model

import "fmt"

// ToolName is the closed set of AI-invocable tool identifiers. Governance
// config is validated against this enum at load so a typo in a policy file
// cannot silently disable the approval gate for a tool.
type ToolName string

const (
	ToolCreatePrescription    ToolName = "create_prescription"
	ToolViewPatient           ToolName = "view_patient"
	ToolCreatePatient         ToolName = "create_patient"
	ToolCreateAppointment     ToolName = "create_appointment"
	ToolViewAppointments      ToolName = "view_appointments"
	ToolRescheduleAppointment ToolName = "reschedule_appointment"
	ToolDeleteAppointment     ToolName = "delete_appointment"
	ToolViewOwnAppointments   ToolName = "view_own_appointments"
	ToolViewClinicalRecord    ToolName = "view_clinical_record"
	ToolCreateClinicalRecord  ToolName = "create_clinical_record"
	ToolSearchProcedures      ToolName = "search_procedures"
	ToolCreatePayment         ToolName = "create_payment"
	ToolRefundPayment         ToolName = "refund_payment"
	ToolSendLabOrder          ToolName = "send_lab_order"
)

// ToolWildcard grants a role every tool in the catalog. It is only ever
// valid inside a role grant list, never in the sensitive set.
const ToolWildcard = "*"

var toolCatalog = map[ToolName]struct{}{
	ToolCreatePrescription:    {},
	ToolViewPatient:           {},
	ToolCreatePatient:         {},
	ToolCreateAppointment:     {},
	ToolViewAppointments:      {},
	ToolRescheduleAppointment: {},
	ToolDeleteAppointment:     {},
	ToolViewOwnAppointments:   {},
	ToolViewClinicalRecord:    {},
	ToolCreateClinicalRecord:  {},
	ToolSearchProcedures:      {},
	ToolCreatePayment:         {},
	ToolRefundPayment:         {},
	ToolSendLabOrder:          {},
}

func ParseToolName(s string) (ToolName, error) {
	tool := ToolName(s)
	if _, ok := toolCatalog[tool]; !ok {
		return "", fmt.Errorf("unknown tool name %q", s)
	}
	return tool, nil
}

func KnownTool(tool ToolName) bool {
	_, ok := toolCatalog[tool]
	return ok
}
