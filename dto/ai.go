package dto

// ==================== AI ASSISTANT DTOs ====================

type ChatRequest struct {
	Message string   `json:"message" validate:"required,max=4000" example:"Agende uma consulta para amanhã às 10h"`
	Tools   []string `json:"tools,omitempty" example:"create_appointment"`
}

func (c ChatRequest) Validate() error {
	return GetValidator().Struct(c)
}

// ToolAction is what the agent execution layer must do with a tool request.
type ToolAction string

const (
	// ToolActionExecute: capability granted and not sensitive — may run.
	ToolActionExecute ToolAction = "execute"
	// ToolActionPropose: capability granted but sensitive — must be turned
	// into a proposal and blocked until a human explicitly confirms.
	ToolActionPropose ToolAction = "propose"
	// ToolActionDeny: role lacks the capability — fatal, never downgraded.
	ToolActionDeny ToolAction = "deny"
)

type ToolDecision struct {
	Tool             string     `json:"tool" example:"create_prescription"`
	Allowed          bool       `json:"allowed" example:"true"`
	RequiresApproval bool       `json:"requires_approval" example:"true"`
	Action           ToolAction `json:"action" example:"propose"`
}

type ChatResponse struct {
	Success   bool           `json:"success" example:"true"`
	Message   string         `json:"message" example:"Agende uma consulta para amanhã às 10h"`
	Decisions []ToolDecision `json:"decisions,omitempty"`
}
