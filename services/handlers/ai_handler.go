package handlers

import (
	"github.com/gofiber/fiber/v2"
	log "github.com/sirupsen/logrus"

	"github.com/dentis-care/dentis-api/dto"
	"github.com/dentis-care/dentis-api/model"
	"github.com/dentis-care/dentis-api/shared"
)

// AIHandler fronts the assistant endpoint. Every message passes through
// sanitization, jailbreak screening and PII redaction before anything is
// logged or forwarded, and every requested tool gets an explicit governance
// decision.
type AIHandler struct {
	safetySvc AISafetyServiceInterface
	policySvc ToolPolicyServiceInterface
	monSvc    MonitoringServiceInterface
}

func NewAIHandler(safetySvc AISafetyServiceInterface, policySvc ToolPolicyServiceInterface, monSvc MonitoringServiceInterface) *AIHandler {
	return &AIHandler{
		safetySvc: safetySvc,
		policySvc: policySvc,
		monSvc:    monSvc,
	}
}

// @Summary Assistant chat
// @Description Screen a chat message and resolve governance decisions for requested tools
// @Tags ai
// @Accept json
// @Produce json
// @Security Bearer
// @Param chatRequest body dto.ChatRequest true "Chat message and requested tools"
// @Success 200 {object} dto.ChatResponse
// @Failure 400 {object} dto.ErrorResponse
// @Router /ai/chat [post]
func (h *AIHandler) Chat(c *fiber.Ctx) error {
	var req dto.ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Invalid request body"})
	}

	if err := req.Validate(); err != nil {
		validationResp := dto.CreateValidationErrorResponse(err)
		return c.Status(fiber.StatusBadRequest).JSON(validationResp)
	}

	userID, _ := c.Locals(shared.UserID).(string)
	role, _ := c.Locals(shared.UserRole).(string)

	message := h.safetySvc.SanitizeInput(req.Message)
	if message == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Error: "Message is empty"})
	}

	if h.safetySvc.DetectJailbreak(message) {
		h.monSvc.RecordJailbreakDetection()
		log.WithFields(log.Fields{
			"user_id": userID,
			"message": h.safetySvc.RedactPII(message),
		}).Warn("Jailbreak attempt blocked")
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: "Mensagem bloqueada por violar as regras de uso do assistente.",
		})
	}

	decisions := make([]dto.ToolDecision, 0, len(req.Tools))
	for _, raw := range req.Tools {
		tool, err := model.ParseToolName(raw)
		if err != nil {
			// Unknown tools are denied, not errored: a hallucinated tool
			// name must not break the whole turn.
			decisions = append(decisions, dto.ToolDecision{Tool: raw, Action: dto.ToolActionDeny})
			h.monSvc.RecordToolDecision(string(dto.ToolActionDeny))
			continue
		}

		decision := h.policySvc.Decide(role, tool)
		h.monSvc.RecordToolDecision(string(decision.Action))
		decisions = append(decisions, decision)
	}

	log.WithFields(log.Fields{
		"user_id":   userID,
		"role":      role,
		"message":   h.safetySvc.RedactPII(message),
		"decisions": len(decisions),
	}).Info("Assistant turn governed")

	return c.Status(fiber.StatusOK).JSON(dto.ChatResponse{
		Success:   true,
		Message:   message,
		Decisions: decisions,
	})
}
