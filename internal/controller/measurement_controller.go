// FILE: internal/controller/measurement_controller.go
package controller

import (
	"errors"

	"ppg-monitor-be/internal/dto"
	"ppg-monitor-be/internal/mapper"
	"ppg-monitor-be/internal/measurement"
	"ppg-monitor-be/internal/pkg/serverutils"
	"ppg-monitor-be/internal/sensor"
	"ppg-monitor-be/internal/service"

	"github.com/gofiber/fiber/v2"
)

type IMeasurementController interface {
	RegisterRoutes(r fiber.Router)
	Health(ctx *fiber.Ctx) error
	Beat(ctx *fiber.Ctx) error
	Readings(ctx *fiber.Ctx) error
	Results(ctx *fiber.Ctx) error
	ResultByID(ctx *fiber.Ctx) error
	ClearResults(ctx *fiber.Ctx) error
	SetFinger(ctx *fiber.Ctx) error
}

type measurementController struct {
	service    service.IMeasurementService
	mapper     *mapper.MeasurementMapper
	streamPath string
}

func NewMeasurementController(service service.IMeasurementService, m *mapper.MeasurementMapper, streamPath string) IMeasurementController {
	return &measurementController{service: service, mapper: m, streamPath: streamPath}
}

func (c *measurementController) RegisterRoutes(r fiber.Router) {
	r.Get("/health", c.Health)
	r.Get("/beat", c.Beat)
	r.Get("/readings", c.Readings)
	r.Get("/results", c.Results)
	r.Get("/results/:id", c.ResultByID)
	r.Get("/clear_results", c.ClearResults)

	debug := r.Group("/debug")
	debug.Post("/finger", c.SetFinger)
}

func (c *measurementController) Health(ctx *fiber.Ctx) error {
	return ctx.JSON(c.mapper.ToHealth(c.service.Status(), c.streamPath))
}

func (c *measurementController) Beat(ctx *fiber.Ctx) error {
	return ctx.JSON(c.mapper.ToBeat(c.service.Status()))
}

func (c *measurementController) Readings(ctx *fiber.Ctx) error {
	started, err := c.service.Start(ctx.UserContext())
	if err != nil {
		if errors.Is(err, measurement.ErrMeasurementInProgress) {
			return ctx.Status(fiber.StatusBadRequest).JSON(dto.MessageResponse{Status: "error", Message: mapper.MessageInProgress})
		}
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}
	return ctx.Status(fiber.StatusAccepted).JSON(c.mapper.ToReadingsStarted(started, c.service.Duration()))
}

func (c *measurementController) Results(ctx *fiber.Ctx) error {
	status := c.service.Status()
	result, ok := status.Result()
	if !ok {
		return ctx.JSON(c.mapper.ToResultsNotReady(status))
	}
	return ctx.JSON(c.mapper.ToResults(result, status))
}

func (c *measurementController) ResultByID(ctx *fiber.Ctx) error {
	result, ok := c.service.ResultByID(ctx.Params("id"))
	if !ok {
		return ctx.Status(fiber.StatusNotFound).JSON(serverutils.ErrorResponse(404, "result not found or expired"))
	}
	return ctx.JSON(c.mapper.ToResults(result, c.service.Status()))
}

func (c *measurementController) ClearResults(ctx *fiber.Ctx) error {
	if _, err := c.service.ClearResults(ctx.UserContext()); err != nil {
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}
	return ctx.JSON(dto.MessageResponse{Status: "success", Message: mapper.MessageCleared})
}

func (c *measurementController) SetFinger(ctx *fiber.Ctx) error {
	var req dto.FingerRequest
	if err := ctx.BodyParser(&req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, "invalid request body"))
	}
	if err := serverutils.ValidateRequest(req); err != nil {
		return ctx.Status(fiber.StatusBadRequest).JSON(serverutils.ErrorResponse(400, err.Error()))
	}

	if err := c.service.SetFingerPresent(ctx.UserContext(), *req.Present); err != nil {
		if errors.Is(err, sensor.ErrUnsupported) {
			return ctx.Status(fiber.StatusConflict).JSON(serverutils.ErrorResponse(409, "sensor is not simulated"))
		}
		return ctx.Status(fiber.StatusServiceUnavailable).JSON(serverutils.ErrorResponse(503, err.Error()))
	}
	return ctx.JSON(serverutils.SuccessResponse("finger updated", fiber.Map{"present": *req.Present}))
}
