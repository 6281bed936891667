package templates

import (
	"strings"
	"time"

	"github.com/dukex/flowgen/pkg/models"
)

const defaultAIModel = "gpt-4o-mini"

// AIFactory builds the language-model call performing an AI step.
type AIFactory struct{}

func (f *AIFactory) ID() models.NodeRole { return models.RoleAI }

func (f *AIFactory) Name() string { return "AI Analysis" }

func (f *AIFactory) Description() string {
	return "Sends the step instruction and the previous output to a language model"
}

var aiBase = map[string]any{
	"resource": "text",
	"modelId": map[string]any{
		"__rl":  true,
		"mode":  "list",
		"value": defaultAIModel,
	},
	"options": map[string]any{
		"temperature": 0.2,
	},
}

func (f *AIFactory) Build(ctx Context) Template {
	return Template{
		Type:        "@n8n/n8n-nodes-langchain.openAi",
		TypeVersion: 1.8,
		Parameters: Override(aiBase, map[string]any{
			"messages": map[string]any{
				"values": []any{
					map[string]any{
						"role": "system",
						"content": "You are an automation assistant working in the " +
							ctx.Options.PlatformLabel() + " environment.",
					},
					map[string]any{
						"content": "Task: " + ctx.StepLabel + "\n\nInput:\n={{ JSON.stringify($json) }}",
					},
				},
			},
		}),
	}
}

// TransformFactory builds the normalization step that follows every AI call.
type TransformFactory struct{}

func (f *TransformFactory) ID() models.NodeRole { return models.RoleTransform }

func (f *TransformFactory) Name() string { return "Process AI Response" }

func (f *TransformFactory) Description() string {
	return "Normalizes model output and stamps it with the platform and processing time"
}

var transformBase = map[string]any{
	"mode":     "runOnceForEachItem",
	"language": "javaScript",
}

func (f *TransformFactory) Build(ctx Context) Template {
	stamp := ctx.Timestamp.UTC().Format(time.RFC3339)

	return Template{
		Type:        "n8n-nodes-base.code",
		TypeVersion: 2,
		Parameters: Override(transformBase, map[string]any{
			"jsCode": "const output = $json.message?.content ?? $json.text ?? $json;\n" +
				"return { json: {\n" +
				"  step: '" + jsString(ctx.StepLabel) + "',\n" +
				"  result: output,\n" +
				"  platform: '" + jsString(ctx.Options.PlatformLabel()) + "',\n" +
				"  processedAt: '" + stamp + "',\n" +
				"} };",
		}),
	}
}

var jsEscaper = strings.NewReplacer(`\`, `\\`, `'`, `\'`, "\n", `\n`, "\r", `\r`)

func jsString(s string) string {
	return jsEscaper.Replace(s)
}
