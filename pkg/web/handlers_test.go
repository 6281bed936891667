package web_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/dukex/flowgen/pkg/generator"
	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/n8n"
	"github.com/dukex/flowgen/pkg/persistence/memory"
	"github.com/dukex/flowgen/pkg/services"
	"github.com/dukex/flowgen/pkg/web"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const explanation = "1. Collect the request (human)\n2. Summarize it (ai)\n3. Sign off (human)"

func setupTestApp(t *testing.T) (*fiber.App, *services.Graphs) {
	t.Helper()

	graphService := services.NewGraphs(generator.New(), memory.NewPersistence())
	handlers := web.NewAPIHandlers(graphService, validator.New(validator.WithRequiredStructEnabled()))

	app := fiber.New()
	app.Get("/health", handlers.HealthCheck)
	app.Get("/templates", handlers.GetTemplates)
	app.Post("/steps/parse", handlers.ParseSteps)
	app.Post("/render/diagram", handlers.RenderDiagram)
	app.Post("/render/steps", handlers.RenderSteps)

	g := app.Group("/graphs")
	g.Get("/", handlers.GetGraphs)
	g.Post("/generate", handlers.GenerateGraph)
	g.Get("/:id", handlers.GetGraph)
	g.Delete("/:id", handlers.DeleteGraph)
	g.Get("/:id/diagram", handlers.GetGraphDiagram)
	g.Get("/:id/steps", handlers.GetGraphSteps)
	g.Get("/:id/n8n", handlers.GetGraphN8N)

	return app, graphService
}

func doJSON(t *testing.T, app *fiber.App, method, path string, body any) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		require.NoError(t, err)

		reader = bytes.NewReader(payload)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() {
		if err := resp.Body.Close(); err != nil {
			t.Logf("Failed to close response body: %v", err)
		}
	}()

	respBody, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	return resp, respBody
}

func problemType(t *testing.T, body []byte) string {
	t.Helper()

	var problem map[string]any
	require.NoError(t, json.Unmarshal(body, &problem))

	kind, _ := problem["type"].(string)

	return kind
}

func TestAPIHandlers_ParseSteps(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/steps/parse", web.ParseRequest{
		Explanation: "Intro\n1. Draft (ai)\n2. Review (human)\n2. Review again",
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var parsed web.ParseResponse
	require.NoError(t, json.Unmarshal(body, &parsed))
	require.Len(t, parsed.Steps, 3)
	assert.Equal(t, models.ActorAI, parsed.Steps[0].Actor)
	assert.Equal(t, []int{2}, parsed.Duplicates)
}

func TestAPIHandlers_GenerateGraph(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		path           string
		requestBody    any
		expectedStatus int
		expectedType   string
		validateResult func(t *testing.T, resp *http.Response, body []byte)
	}{
		{
			name:           "transient generation",
			path:           "/graphs/generate",
			requestBody:    web.GenerateRequest{Explanation: explanation, Platform: models.PlatformMS365, Approach: models.ApproachHybrid},
			expectedStatus: http.StatusOK,
			validateResult: func(t *testing.T, _ *http.Response, body []byte) {
				t.Helper()

				var result services.GenerateResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.Empty(t, result.ID)
				assert.Equal(t, "MS365 Hybrid Workflow", result.Graph.Name)
				assert.Len(t, result.Steps, 3)
			},
		},
		{
			name:           "persisted through body",
			path:           "/graphs/generate",
			requestBody:    web.GenerateRequest{Explanation: explanation, Persist: true},
			expectedStatus: http.StatusCreated,
			validateResult: func(t *testing.T, resp *http.Response, body []byte) {
				t.Helper()

				var result services.GenerateResult
				require.NoError(t, json.Unmarshal(body, &result))
				assert.NotEmpty(t, result.ID)
				assert.Equal(t, "/graphs/"+result.ID, resp.Header.Get("Location"))
			},
		},
		{
			name:           "persisted through query",
			path:           "/graphs/generate?persist=true",
			requestBody:    web.GenerateRequest{Explanation: explanation},
			expectedStatus: http.StatusCreated,
		},
		{
			name:           "invalid persist query",
			path:           "/graphs/generate?persist=maybe",
			requestBody:    web.GenerateRequest{Explanation: explanation},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
		{
			name:           "empty workflow",
			path:           "/graphs/generate",
			requestBody:    web.GenerateRequest{Explanation: "nothing numbered here"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "empty_workflow",
		},
		{
			name:           "duplicate steps",
			path:           "/graphs/generate",
			requestBody:    web.GenerateRequest{Explanation: "1. A\n1. B"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "duplicate_step",
		},
		{
			name:           "unknown platform",
			path:           "/graphs/generate",
			requestBody:    map[string]any{"explanation": explanation, "platform": "Slack"},
			expectedStatus: http.StatusBadRequest,
			expectedType:   "validation_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			app, _ := setupTestApp(t)

			resp, body := doJSON(t, app, http.MethodPost, tt.path, tt.requestBody)
			assert.Equal(t, tt.expectedStatus, resp.StatusCode, string(body))

			if tt.expectedType != "" {
				assert.Equal(t, tt.expectedType, problemType(t, body))
			}

			if tt.validateResult != nil {
				tt.validateResult(t, resp, body)
			}
		})
	}
}

func TestAPIHandlers_InvalidJSON(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	for _, path := range []string{"/steps/parse", "/graphs/generate", "/render/steps"} {
		req := httptest.NewRequest(http.MethodPost, path, strings.NewReader("{not json"))
		req.Header.Set("Content-Type", "application/json")

		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()

		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, path)
	}
}

func TestAPIHandlers_StoredGraph(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodPost, "/graphs/generate", web.GenerateRequest{
		Explanation: explanation,
		Platform:    models.PlatformGoogle,
		Approach:    models.ApproachAssisted,
		Persist:     true,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var result services.GenerateResult
	require.NoError(t, json.Unmarshal(body, &result))

	id := result.ID

	resp, body = doJSON(t, app, http.MethodGet, "/graphs/"+id, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var stored models.StoredGraph
	require.NoError(t, json.Unmarshal(body, &stored))
	assert.Equal(t, explanation, stored.Explanation)
	assert.Equal(t, models.PlatformGoogle, stored.Options.Platform)

	resp, body = doJSON(t, app, http.MethodGet, "/graphs/"+id+"/steps", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1. Collect the request (Human)\n2. Summarize it (AI)\n3. Sign off (Human)", string(body))

	resp, body = doJSON(t, app, http.MethodGet, "/graphs/"+id+"/diagram", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.True(t, strings.HasPrefix(string(body), "graph LR\n"))
	assert.Contains(t, string(body), ":::humanNode")

	resp, body = doJSON(t, app, http.MethodGet, "/graphs/"+id+"/n8n", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var workflow n8n.Workflow
	require.NoError(t, json.Unmarshal(body, &workflow))
	assert.Equal(t, "Google Assisted Workflow", workflow.Name)
	assert.Contains(t, workflow.Connections, models.TriggerNodeName)

	resp, body = doJSON(t, app, http.MethodGet, "/graphs?limit=5", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var page map[string]any
	require.NoError(t, json.Unmarshal(body, &page))
	assert.InDelta(t, 1, page["total_count"], 0)
	assert.Equal(t, false, page["has_next_page"])

	resp, _ = doJSON(t, app, http.MethodDelete, "/graphs/"+id, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	for _, path := range []string{"/graphs/" + id, "/graphs/" + id + "/steps", "/graphs/" + id + "/diagram", "/graphs/" + id + "/n8n"} {
		resp, body = doJSON(t, app, http.MethodGet, path, nil)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, path)
		assert.Equal(t, "graph_not_found", problemType(t, body))
	}

	resp, _ = doJSON(t, app, http.MethodDelete, "/graphs/"+id, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestAPIHandlers_GetGraphsInvalidQuery(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/graphs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", problemType(t, body))
}

func TestAPIHandlers_Render(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	graph, err := generator.New().Generate(t.Context(), "1. Classify (ai)\n2. Approve (human)", models.GenerationOptions{})
	require.NoError(t, err)

	resp, body := doJSON(t, app, http.MethodPost, "/render/steps", web.RenderRequest{Graph: graph})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "1. Classify (AI)\n2. Approve (Human)", string(body))

	resp, body = doJSON(t, app, http.MethodPost, "/render/diagram", web.RenderRequest{Graph: graph})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "step1_ai --> step1_transform")

	resp, body = doJSON(t, app, http.MethodPost, "/render/diagram", map[string]any{})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "validation_error", problemType(t, body))
}

func TestAPIHandlers_RenderJSON(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	graph, err := generator.New().Generate(t.Context(), "1. Classify (ai)", models.GenerationOptions{})
	require.NoError(t, err)

	payload, err := json.Marshal(web.RenderRequest{Graph: graph})
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, "/render/steps", bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := app.Test(req)
	require.NoError(t, err)

	defer func() { _ = resp.Body.Close() }()

	var text web.TextResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&text))
	assert.Equal(t, "1. Classify (AI)", text.Text)
}

func TestAPIHandlers_HealthAndTemplates(t *testing.T) {
	t.Parallel()

	app, _ := setupTestApp(t)

	resp, body := doJSON(t, app, http.MethodGet, "/health", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var health map[string]any
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "healthy", health["status"])

	resp, body = doJSON(t, app, http.MethodGet, "/templates", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var templates struct {
		Templates []services.TemplateInfo `json:"templates"`
	}
	require.NoError(t, json.Unmarshal(body, &templates))
	assert.Len(t, templates.Templates, 7)
}
