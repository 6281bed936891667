// Package web provides HTTP handlers and REST API endpoints for graph generation.
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/dukex/flowgen/pkg/models"
	"github.com/dukex/flowgen/pkg/persistence"
	"github.com/dukex/flowgen/pkg/services"
	"github.com/dukex/flowgen/pkg/steps"
	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
)

type APIHandlers struct {
	graphService *services.Graphs
	validator    *validator.Validate
}

func NewAPIHandlers(
	graphService *services.Graphs,
	validator *validator.Validate,
) *APIHandlers {
	return &APIHandlers{
		graphService: graphService,
		validator:    validator,
	}
}

func (h *APIHandlers) HealthCheck(c fiber.Ctx) error {
	catalogCheck, catOk := h.graphService.CatalogHealthCheck()
	repositoryCheck, repOk := h.graphService.HealthCheck(c.Context())

	status := "unhealthy"
	message := "Flowgen API is unhealthy"
	httpStatus := http.StatusInternalServerError

	if catOk && repOk {
		status = "healthy"
		message = "Flowgen API is healthy"
		httpStatus = http.StatusOK
	}

	return c.Status(httpStatus).JSON(fiber.Map{
		"status":  status,
		"message": message,
		"checkers": fiber.Map{
			"templates":  catalogCheck,
			"repository": repositoryCheck,
		},
		"timestamp": time.Now().UTC(),
	})
}

func (h *APIHandlers) GetTemplates(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"templates": h.graphService.Templates(c.Context()),
	})
}

func (h *APIHandlers) ParseSteps(c fiber.Ctx) error {
	var req ParseRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	parsed := h.graphService.Parse(c.Context(), req.Explanation)

	duplicates := steps.Duplicates(parsed)
	numbers := make([]int, len(duplicates))

	for i, index := range duplicates {
		numbers[i] = index + 1
	}

	return c.JSON(ParseResponse{
		Steps:      parsed,
		Duplicates: numbers,
	})
}

func (h *APIHandlers) GenerateGraph(c fiber.Ctx) error {
	var req GenerateRequest
	if err := c.Bind().JSON(&req); err != nil {
		return badRequest(c, "Invalid JSON format")
	}

	if err := h.validator.Struct(req); err != nil {
		return badRequest(c, err.Error())
	}

	if persistStr := c.Query("persist"); persistStr != "" {
		persist, err := strconv.ParseBool(persistStr)
		if err != nil {
			return badRequest(c, "Invalid persist parameter: "+err.Error())
		}

		req.Persist = persist
	}

	result, err := h.graphService.Generate(c.Context(), services.GenerateRequest{
		Explanation: req.Explanation,
		Options:     req.Options(),
		Persist:     req.Persist,
	})
	if err != nil {
		return handleServiceError(c, err)
	}

	if result.ID != "" {
		c.Set(fiber.HeaderLocation, "/graphs/"+result.ID)

		return c.Status(fiber.StatusCreated).JSON(result)
	}

	return c.JSON(result)
}

func (h *APIHandlers) GetGraphs(c fiber.Ctx) error {
	opts, err := parseListOptions(c)
	if err != nil {
		return badRequest(c, "Invalid query parameters: "+err.Error())
	}

	result, err := h.graphService.List(c.Context(), opts)
	if err != nil {
		return handleServiceError(c, err)
	}

	opts = opts.Normalize()

	return c.JSON(fiber.Map{
		"graphs":        result.Graphs,
		"total_count":   result.TotalCount,
		"has_next_page": result.HasNextPage,
		"pagination": fiber.Map{
			"limit":  opts.Limit,
			"offset": opts.Offset,
		},
	})
}

// parseListOptions reads the limit and offset query parameters.
func parseListOptions(c fiber.Ctx) (persistence.ListOptions, error) {
	opts := persistence.ListOptions{}

	if limitStr := c.Query("limit"); limitStr != "" {
		limit, err := strconv.Atoi(limitStr)
		if err != nil {
			return opts, err
		}

		opts.Limit = limit
	}

	if offsetStr := c.Query("offset"); offsetStr != "" {
		offset, err := strconv.Atoi(offsetStr)
		if err != nil {
			return opts, err
		}

		opts.Offset = offset
	}

	return opts, nil
}

func (h *APIHandlers) GetGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	stored, err := h.graphService.Get(c.Context(), id)
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(stored)
}

func (h *APIHandlers) DeleteGraph(c fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return badRequest(c, "Graph ID is required")
	}

	if err := h.graphService.Delete(c.Context(), id); err != nil {
		return handleServiceError(c, err)
	}

	return c.SendStatus(fiber.StatusNoContent)
}

func (h *APIHandlers) GetGraphDiagram(c fiber.Ctx) error {
	diagram, err := h.graphService.Diagram(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendText(c, diagram)
}

func (h *APIHandlers) GetGraphSteps(c fiber.Ctx) error {
	text, err := h.graphService.StepText(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendText(c, text)
}

func (h *APIHandlers) GetGraphN8N(c fiber.Ctx) error {
	workflow, err := h.graphService.Export(c.Context(), c.Params("id"))
	if err != nil {
		return handleServiceError(c, err)
	}

	return c.JSON(workflow)
}

func (h *APIHandlers) RenderDiagram(c fiber.Ctx) error {
	graph, err := h.bindGraph(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	diagram, err := h.graphService.RenderDiagram(c.Context(), graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendText(c, diagram)
}

func (h *APIHandlers) RenderSteps(c fiber.Ctx) error {
	graph, err := h.bindGraph(c)
	if err != nil {
		return badRequest(c, err.Error())
	}

	text, err := h.graphService.RenderSteps(c.Context(), graph)
	if err != nil {
		return handleServiceError(c, err)
	}

	return sendText(c, text)
}

func (h *APIHandlers) bindGraph(c fiber.Ctx) (*models.GeneratedGraph, error) {
	var req RenderRequest
	if err := c.Bind().JSON(&req); err != nil {
		return nil, errInvalidJSON
	}

	if err := h.validator.Struct(req); err != nil {
		return nil, err
	}

	return req.Graph, nil
}

// sendText answers with plain text, or a TextResponse when the client prefers JSON.
func sendText(c fiber.Ctx, text string) error {
	if c.Accepts(fiber.MIMETextPlain, fiber.MIMEApplicationJSON) == fiber.MIMEApplicationJSON {
		return c.JSON(TextResponse{Text: text})
	}

	c.Set(fiber.HeaderContentType, fiber.MIMETextPlainCharsetUTF8)

	return c.SendString(text)
}
