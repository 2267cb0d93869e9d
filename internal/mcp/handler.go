package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dustin/go-humanize"
	"github.com/rpggio/aoiforge/internal/console"
	"github.com/rpggio/aoiforge/internal/domain/activity"
	"github.com/rpggio/aoiforge/internal/domain/hub"
	"github.com/rpggio/aoiforge/internal/domain/sample"
)

// Consoles resolves the console bound to a session.
type Consoles interface {
	Get(sessionID string) (*console.Console, error)
}

// Handler dispatches MCP commands.
type Handler struct {
	consoles Consoles
}

// NewHandler creates a new MCP handler.
func NewHandler(consoles Consoles) *Handler {
	return &Handler{consoles: consoles}
}

// Handle dispatches MCP requests to the session's console.
func (h *Handler) Handle(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	result, err := h.dispatch(ctx, sessionID, method, params)
	if err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

func (h *Handler) dispatch(ctx context.Context, sessionID, method string, params json.RawMessage) (any, error) {
	con, err := h.consoles.Get(sessionID)
	if err != nil {
		return nil, err
	}

	switch method {
	// Console and navigation
	case "get_console":
		return con.Snapshot(ctx)
	case "navigate":
		var req NavigateParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return con.Navigate(ctx, req.Tab)
	case "list_classes":
		return con.Samples().Registry().All(), nil

	// Wizard
	case "wizard_get":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.View(), nil
	case "wizard_set_scenario":
		var req SetScenarioParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.SetScenario(req.Scenario)
	case "wizard_set_hardware":
		var req SetHardwareParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.SetHardware(req.Hardware)
	case "wizard_select_dataset":
		var req SelectDatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.SelectDataset(req.DatasetRef)
	case "wizard_configure":
		var req ConfigureParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.Configure(req)
	case "wizard_advance":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.Advance()
	case "wizard_retreat":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.Retreat()
	case "wizard_jump_to_samples":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		if err := w.JumpToSampleHub(); err != nil {
			return nil, err
		}
		return con.Snapshot(ctx)

	// Build
	case "build_start":
		return con.StartBuild()
	case "build_status":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		return w.BuildStatus()
	case "build_artifact":
		w, err := con.Wizard()
		if err != nil {
			return nil, err
		}
		artifact, err := w.Artifact()
		if err != nil {
			return nil, err
		}
		return map[string]any{
			"name":       artifact.Name,
			"size_bytes": artifact.SizeBytes,
			"size_human": humanize.IBytes(uint64(artifact.SizeBytes)),
		}, nil

	// Sample hub
	case "list_samples":
		var req ListSamplesParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		hc, err := con.Hub()
		if err != nil {
			return nil, err
		}
		view, err := hc.SetFilter(ctx, sample.Filter{Line: req.Line, Query: req.Query})
		if err != nil {
			return nil, err
		}
		samples := view.Samples
		if samples == nil {
			samples = []sample.Sample{}
		}
		return SampleListResponse{Mode: string(view.Mode), Samples: samples, Count: len(samples)}, nil
	case "get_sample":
		var req SampleIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return con.Samples().Get(ctx, req.ID)
	case "start_annotation":
		var req SampleIDParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.withHub(con, func(hc *hub.Controller) (any, error) { return hc.StartAnnotation(ctx, req.ID) })
	case "edit_annotation":
		var req EditAnnotationParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.withHub(con, func(hc *hub.Controller) (any, error) { return hc.EditBoxes(req.Boxes) })
	case "save_annotation":
		return h.withHub(con, func(hc *hub.Controller) (any, error) { return hc.Save(ctx) })
	case "back_to_list":
		return h.withHub(con, func(hc *hub.Controller) (any, error) { return hc.Back(ctx) })
	case "upload_sample":
		var req UploadSampleParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return con.Upload(ctx, sample.UploadRequest{Filename: req.Filename, Line: req.Line, Data: req.Data})
	case "import_dataset":
		var req ImportDatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return h.withHub(con, func(hc *hub.Controller) (any, error) {
			return hc.Import(sample.ImportSource{Name: req.Name, Path: req.Path, Data: req.Data, Line: req.Line})
		})
	case "import_status":
		return h.withHub(con, func(hc *hub.Controller) (any, error) { return hc.ImportStatus(), nil })

	// Datasets
	case "generate_dataset":
		var req DatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		desc, err := con.Samples().GenerateDataset(ctx, req.config())
		if err != nil {
			return nil, err
		}
		return DatasetResponse{
			PackageDescriptor: desc,
			SampleCount:       len(desc.SampleIDs),
			SizeHuman:         humanize.Bytes(uint64(desc.SizeEstimateBytes)),
		}, nil
	case "package_dataset":
		var req DatasetParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		return con.Package(ctx, req.Name, req.config())

	// Activity
	case "get_recent_activity":
		var req GetRecentActivityParams
		if err := decodeParams(params, &req); err != nil {
			return nil, err
		}
		q := activity.Query{Types: req.Types, Limit: req.Limit}
		if req.Since != nil {
			q.Since = *req.Since
		}
		entries, err := con.Activity(ctx, q)
		if err != nil {
			return nil, err
		}
		resp := make([]ActivityEntryResponse, 0, len(entries))
		for _, entry := range entries {
			resp = append(resp, ActivityEntryResponse{
				Timestamp: entry.CreatedAt,
				Type:      entry.ActivityType,
				SessionID: entry.SessionID,
				Summary:   entry.Summary,
				Details:   entry.Details,
			})
		}
		return resp, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownMethod, method)
	}
}

func (h *Handler) withHub(con *console.Console, fn func(*hub.Controller) (any, error)) (any, error) {
	hc, err := con.Hub()
	if err != nil {
		return nil, err
	}
	return fn(hc)
}

func (p DatasetParams) config() sample.DatasetConfig {
	return sample.DatasetConfig{Lines: p.Lines, Classes: p.Classes, SplitRatio: p.SplitRatio}
}

func decodeParams(params json.RawMessage, out any) error {
	if len(params) == 0 || string(params) == "null" {
		return nil
	}
	if err := json.Unmarshal(params, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidParams, err)
	}
	return nil
}

func mapError(err error) error {
	if apiErr := MapError(err); apiErr != nil {
		return apiErr
	}
	return err
}
