package templates

import "github.com/dukex/flowgen/pkg/models"

// TriggerFactory builds the webhook intake that starts every generated workflow.
type TriggerFactory struct{}

func (f *TriggerFactory) ID() models.NodeRole { return models.RoleTrigger }

func (f *TriggerFactory) Name() string { return "Webhook Trigger" }

func (f *TriggerFactory) Description() string {
	return "Receives the workflow input over an HTTP POST webhook"
}

var triggerBase = map[string]any{
	"httpMethod":   "POST",
	"path":         "workflow-trigger",
	"responseMode": "responseNode",
	"options":      map[string]any{},
}

func (f *TriggerFactory) Build(_ Context) Template {
	return Template{
		Type:        "n8n-nodes-base.webhook",
		TypeVersion: 2,
		Parameters:  Clone(triggerBase),
	}
}

// ResponseFactory builds the synchronous reply closing the webhook request.
type ResponseFactory struct{}

func (f *ResponseFactory) ID() models.NodeRole { return models.RoleResponse }

func (f *ResponseFactory) Name() string { return "Respond to Webhook" }

func (f *ResponseFactory) Description() string {
	return "Returns the final workflow result to the caller of the trigger webhook"
}

var responseBase = map[string]any{
	"respondWith":  "json",
	"responseBody": `={{ JSON.stringify({ success: true, result: $json, completedAt: $now.toISO() }) }}`,
	"options": map[string]any{
		"responseCode": 200,
	},
}

func (f *ResponseFactory) Build(_ Context) Template {
	return Template{
		Type:        "n8n-nodes-base.respondToWebhook",
		TypeVersion: 1,
		Parameters:  Clone(responseBase),
	}
}

// ErrorHandlerFactory builds the disconnected node external error routing points at.
type ErrorHandlerFactory struct{}

func (f *ErrorHandlerFactory) ID() models.NodeRole { return models.RoleError }

func (f *ErrorHandlerFactory) Name() string { return "Error Handler" }

func (f *ErrorHandlerFactory) Description() string {
	return "Formats execution errors; wired by the automation platform's error workflow settings"
}

var errorHandlerBase = map[string]any{
	"mode":     "runOnceForAllItems",
	"language": "javaScript",
}

func (f *ErrorHandlerFactory) Build(ctx Context) Template {
	return Template{
		Type:        "n8n-nodes-base.code",
		TypeVersion: 2,
		Parameters: Override(errorHandlerBase, map[string]any{
			"jsCode": "return $input.all().map(item => ({ json: {\n" +
				"  success: false,\n" +
				"  error: item.json.error ?? 'Unknown error',\n" +
				"  platform: '" + jsString(ctx.Options.PlatformLabel()) + "',\n" +
				"  failedAt: new Date().toISOString(),\n" +
				"} }));",
		}),
	}
}
