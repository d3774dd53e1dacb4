package rangereport

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"fuel-economy/internal/common/errors"
	"fuel-economy/internal/common/logger"
	"fuel-economy/internal/common/metrics"
	"fuel-economy/internal/common/validation"
	"fuel-economy/internal/fueleconomy"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const (
	TaskType = "fuel-economy-range-report"
)

// Aggregator is satisfied by *fueleconomy.Aggregator.
type Aggregator interface {
	AggregateAndPresent(ctx context.Context, year int, vehicleMake string, renderer fueleconomy.Renderer) error
}

type Handler struct {
	config     *Config
	aggregator Aggregator
	schema     *validation.Schema
	errHandler *errors.ErrorHandler
	logger     logger.Logger
}

func NewHandler(config *Config, aggregator Aggregator, log logger.Logger) *Handler {
	log = log.With(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:     config,
		aggregator: aggregator,
		schema:     validation.MustCompile(inputSchema),
		errHandler: errors.NewErrorHandler(log),
		logger:     log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.run(ctx, job.Variables)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(time.Since(start).Seconds())

	// The job deadline may already have passed; the broker still has to hear
	// the outcome.
	cmdCtx, cmdCancel := context.WithTimeout(context.WithoutCancel(ctx), h.commandTimeout())
	defer cmdCancel()

	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, string(errors.AsStandardError(err).Code)).Inc()
		h.errHandler.HandleJobError(cmdCtx, client, job, err)
		return
	}

	h.completeJob(cmdCtx, client, job, output)
}

func (h *Handler) commandTimeout() time.Duration {
	if h.config.CommandTimeout > 0 {
		return h.config.CommandTimeout
	}
	return defaultCommandTimeout
}

func (h *Handler) run(ctx context.Context, variables string) (*Output, error) {
	input, err := h.parseInput(variables)
	if err != nil {
		return nil, err
	}
	return h.execute(ctx, input)
}

// parseInput validates the raw job variables and decodes them.
func (h *Handler) parseInput(variables string) (*Input, error) {
	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(variables), &raw); err != nil {
		return nil, errors.NewInvalidQueryError(fmt.Sprintf("parse variables: %v", err))
	}

	result, err := h.schema.Validate(raw)
	if err != nil {
		return nil, errors.NewInvalidQueryError(err.Error())
	}
	if !result.Valid {
		return nil, errors.NewInvalidQueryError(result.Summary())
	}

	input := &Input{Make: strings.TrimSpace(raw["make"].(string))}
	switch y := raw["year"].(type) {
	case float64:
		input.Year = int(y)
	case string:
		input.Year, _ = strconv.Atoi(y)
	}

	if input.Year < 1984 {
		return nil, errors.NewInvalidQueryError(fmt.Sprintf("year %d predates the data source", input.Year))
	}
	if input.Make == "" {
		return nil, errors.NewInvalidQueryError("make is blank")
	}
	return input, nil
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	var records []fueleconomy.VariantRecord
	capture := fueleconomy.RendererFunc(func(ctx context.Context, sorted []fueleconomy.VariantRecord) error {
		records = sorted
		if h.config.Sink != nil {
			return h.config.Sink.Render(ctx, sorted)
		}
		return nil
	})

	if err := h.aggregator.AggregateAndPresent(ctx, input.Year, input.Make, capture); err != nil {
		return nil, err
	}

	summaries := make([]fueleconomy.Summary, len(records))
	for i, r := range records {
		summaries[i] = r.Summary()
	}

	return &Output{
		Year:    input.Year,
		Make:    input.Make,
		Records: summaries,
		Count:   len(summaries),
	}, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) {
	cmd, err := client.NewCompleteJobCommand().
		JobKey(job.Key).
		VariablesFromObject(output)
	if err != nil {
		h.logger.Error("failed to create complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	if _, err := cmd.Send(ctx); err != nil {
		h.logger.Error("failed to send complete job command", map[string]interface{}{
			"error": err.Error(),
		})
		return
	}

	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.logger.Info("job completed", map[string]interface{}{
		"jobKey": job.Key,
		"count":  output.Count,
	})
}
