package templates

import "github.com/dukex/flowgen/pkg/models"

// NotifyFactory builds the message asking a person to perform a human step.
// MS365 and Google use their native messaging nodes; other platforms post to
// a generic HTTP endpoint.
type NotifyFactory struct{}

func (f *NotifyFactory) ID() models.NodeRole { return models.RoleHuman }

func (f *NotifyFactory) Name() string { return "Notify Human" }

func (f *NotifyFactory) Description() string {
	return "Notifies the responsible person through the platform's messaging integration"
}

var (
	teamsBase = map[string]any{
		"resource":    "chatMessage",
		"operation":   "create",
		"chatId":      map[string]any{"__rl": true, "mode": "id", "value": ""},
		"contentType": "text",
	}
	gmailBase = map[string]any{
		"resource":  "message",
		"operation": "send",
		"sendTo":    "",
		"message":   "={{ JSON.stringify($json, null, 2) }}",
		"options":   map[string]any{},
	}
	httpNotifyBase = map[string]any{
		"method":         "POST",
		"url":            "",
		"sendBody":       true,
		"specifyBody":    "json",
		"options":        map[string]any{},
		"authentication": "none",
	}
)

func (f *NotifyFactory) Build(ctx Context) Template {
	message := "Action required: " + ctx.StepLabel

	switch ctx.Options.Platform {
	case models.PlatformMS365:
		return Template{
			Type:        "n8n-nodes-base.microsoftTeams",
			TypeVersion: 2,
			Parameters:  Override(teamsBase, map[string]any{"message": message}),
		}
	case models.PlatformGoogle:
		return Template{
			Type:        "n8n-nodes-base.gmail",
			TypeVersion: 2.1,
			Parameters:  Override(gmailBase, map[string]any{"subject": message}),
		}
	default:
		return Template{
			Type:        "n8n-nodes-base.httpRequest",
			TypeVersion: 4.2,
			Parameters: Override(httpNotifyBase, map[string]any{
				"jsonBody": `={{ JSON.stringify({ message: "` + jsString(message) + `", platform: "` + jsString(ctx.Options.PlatformLabel()) + `", data: $json }) }}`,
			}),
		}
	}
}

// ApprovalFactory builds the gate that pauses until a person signs off.
type ApprovalFactory struct{}

func (f *ApprovalFactory) ID() models.NodeRole { return models.RoleApproval }

func (f *ApprovalFactory) Name() string { return "Human Approval" }

func (f *ApprovalFactory) Description() string {
	return "Waits for a webhook call approving the human step before continuing"
}

var approvalBase = map[string]any{
	"resume":     "webhook",
	"httpMethod": "POST",
	"options": map[string]any{
		"webhookSuffix": "approve",
	},
	"limitWaitTime": true,
	"limitType":     "afterTimeInterval",
	"resumeAmount":  24,
	"resumeUnit":    "hours",
}

func (f *ApprovalFactory) Build(ctx Context) Template {
	return Template{
		Type:        "n8n-nodes-base.wait",
		TypeVersion: 1.1,
		Parameters:  Override(approvalBase, map[string]any{"notes": "Approve: " + ctx.StepLabel}),
	}
}
