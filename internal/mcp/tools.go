package mcp

// ToolDefinition describes one MCP tool.
type ToolDefinition struct {
	Name        string
	Description string
	InputSchema map[string]any
	ReadOnly    bool
}

func objectSchema(properties map[string]any, required ...string) map[string]any {
	schema := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		schema["required"] = required
	}
	return schema
}

func noArgs() map[string]any {
	return objectSchema(map[string]any{})
}

var lineSchema = map[string]any{
	"type":        "string",
	"description": "Production line",
	"enum":        []string{"WIRELESS", "OPTICAL"},
}

// withDescription copies schema with a tool-specific description.
func withDescription(schema map[string]any, description string) map[string]any {
	out := make(map[string]any, len(schema))
	for k, v := range schema {
		out[k] = v
	}
	out["description"] = description
	return out
}

var boxSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"class_code": map[string]any{"type": "string", "description": "Registry class code, e.g. SCRATCH"},
		"x":          map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"y":          map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"width":      map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"height":     map[string]any{"type": "number", "minimum": 0, "maximum": 1},
		"confidence": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
	},
	"required": []string{"class_code", "x", "y", "width", "height"},
}

func datasetProperties(withName bool) map[string]any {
	props := map[string]any{
		"lines": map[string]any{
			"type":        "array",
			"description": "Production lines to include (omit for all)",
			"items":       lineSchema,
		},
		"classes": map[string]any{
			"type":        "array",
			"description": "Include samples carrying any of these class codes (omit for all)",
			"items":       map[string]any{"type": "string"},
		},
		"split_ratio": map[string]any{
			"type":             "number",
			"description":      "Share of samples in the training split",
			"exclusiveMinimum": 0,
			"exclusiveMaximum": 1,
		},
	}
	if withName {
		props["name"] = map[string]any{"type": "string", "description": "Package name"}
	}
	return props
}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []ToolDefinition {
	return []ToolDefinition{
		// Console
		{
			Name:        "get_console",
			Description: "Get the session's console: mounted tab and the mounted screen's state",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},
		{
			Name:        "navigate",
			Description: "Mount a top-level tab. Leaving a tab resets its screen",
			InputSchema: objectSchema(map[string]any{
				"tab": map[string]any{
					"type": "string",
					"enum": []string{"training", "samples", "settings"},
				},
			}, "tab"),
		},
		{
			Name:        "list_classes",
			Description: "List the global defect class registry",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},

		// Wizard
		{
			Name:        "wizard_get",
			Description: "Get the training wizard state with derived batch size, base model and step gating",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},
		{
			Name:        "wizard_set_scenario",
			Description: "Choose the inspection scenario (step 0)",
			InputSchema: objectSchema(map[string]any{
				"scenario": map[string]any{
					"type": "string",
					"enum": []string{"detection", "classification", "segmentation"},
				},
			}, "scenario"),
		},
		{
			Name:        "wizard_set_hardware",
			Description: "Choose the deployment hardware (step 1). cpu forces batch size 4",
			InputSchema: objectSchema(map[string]any{
				"hardware": map[string]any{
					"type": "string",
					"enum": []string{"gpu", "cpu"},
				},
			}, "hardware"),
		},
		{
			Name:        "wizard_select_dataset",
			Description: "Select a dataset snapshot (step 2)",
			InputSchema: objectSchema(map[string]any{
				"dataset_ref": map[string]any{"type": "string", "description": "Snapshot ref from wizard_get"},
			}, "dataset_ref"),
		},
		{
			Name:        "wizard_configure",
			Description: "Update training parameters (step 3). Low-level fields need engineer_mode",
			InputSchema: objectSchema(map[string]any{
				"engineer_mode": map[string]any{"type": "boolean"},
				"intensity":     map[string]any{"type": "string", "enum": []string{"fast", "standard", "deep"}},
				"img_size":      map[string]any{"type": "integer", "enum": []int{320, 640}},
				"rotation":      map[string]any{"type": "boolean", "description": "Rotation augmentation"},
				"mosaic_prob":   map[string]any{"type": "number", "minimum": 0, "maximum": 1},
				"learning_rate": map[string]any{"type": "number", "exclusiveMinimum": 0},
				"optimizer":     map[string]any{"type": "string", "enum": []string{"AdamW", "SGD"}},
				"batch_size":    map[string]any{"type": "integer", "minimum": 1},
				"base_model":    map[string]any{"type": "string"},
			}),
		},
		{
			Name:        "wizard_advance",
			Description: "Advance to the next step when the current step's requirement is met",
			InputSchema: noArgs(),
		},
		{
			Name:        "wizard_retreat",
			Description: "Go back one step",
			InputSchema: noArgs(),
		},
		{
			Name:        "wizard_jump_to_samples",
			Description: "From the dataset step, switch to the samples tab",
			InputSchema: noArgs(),
		},

		// Build
		{
			Name:        "build_start",
			Description: "Start the simulated build at the export step",
			InputSchema: noArgs(),
		},
		{
			Name:        "build_status",
			Description: "Get the build state and its log lines in order",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},
		{
			Name:        "build_artifact",
			Description: "Get the download descriptor of a finished build",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},

		// Sample hub
		{
			Name:        "list_samples",
			Description: "Set the sample list filter and return the filtered samples in store order",
			InputSchema: objectSchema(map[string]any{
				"line":  lineSchema,
				"query": map[string]any{"type": "string", "description": "Case-insensitive filename substring"},
			}),
		},
		{
			Name:        "get_sample",
			Description: "Get one sample by ID",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string"},
			}, "id"),
			ReadOnly: true,
		},
		{
			Name:        "start_annotation",
			Description: "Open the annotation editor for a sample in the current list",
			InputSchema: objectSchema(map[string]any{
				"id": map[string]any{"type": "string"},
			}, "id"),
		},
		{
			Name:        "edit_annotation",
			Description: "Replace the editor's draft boxes. Nothing is stored until save_annotation",
			InputSchema: objectSchema(map[string]any{
				"boxes": map[string]any{"type": "array", "items": boxSchema},
			}, "boxes"),
		},
		{
			Name:        "save_annotation",
			Description: "Commit the draft, mark the sample LABELED and return to the list",
			InputSchema: noArgs(),
		},
		{
			Name:        "back_to_list",
			Description: "Leave the editor, discarding the draft",
			InputSchema: noArgs(),
		},
		{
			Name:        "upload_sample",
			Description: "Upload a PNG or JPEG image as a new unlabeled sample",
			InputSchema: objectSchema(map[string]any{
				"filename": map[string]any{"type": "string"},
				"line":     lineSchema,
				"data":     map[string]any{"type": "string", "contentEncoding": "base64"},
			}, "filename", "line", "data"),
		},
		{
			Name:        "import_dataset",
			Description: "Import a labeled zip archive in the background. Poll import_status",
			InputSchema: objectSchema(map[string]any{
				"name": map[string]any{"type": "string"},
				"path": map[string]any{"type": "string", "description": "Archive path relative to the server import directory"},
				"data": map[string]any{"type": "string", "contentEncoding": "base64"},
				"line": withDescription(lineSchema, "Line for samples the archive does not assign (default WIRELESS)"),
			}, "name"),
		},
		{
			Name:        "import_status",
			Description: "Get the latest import status",
			InputSchema: noArgs(),
			ReadOnly:    true,
		},

		// Datasets
		{
			Name:        "generate_dataset",
			Description: "Compute a dataset package descriptor: selected IDs, split counts and size estimate",
			InputSchema: objectSchema(datasetProperties(false), "split_ratio"),
			ReadOnly:    true,
		},
		{
			Name:        "package_dataset",
			Description: "Write a dataset zip with manifest and train/val listings",
			InputSchema: objectSchema(datasetProperties(true), "split_ratio"),
		},

		// Activity
		{
			Name:        "get_recent_activity",
			Description: "Get this session's recent console activity, newest first",
			InputSchema: objectSchema(map[string]any{
				"types": map[string]any{
					"type":        "array",
					"items":       map[string]any{"type": "string"},
					"description": "Only these activity types, e.g. annotation_saved",
				},
				"since": map[string]any{"type": "string", "format": "date-time", "description": "Only entries at or after this time"},
				"limit": map[string]any{"type": "integer", "description": "Maximum number of entries (default 50, max 500)"},
			}),
			ReadOnly: true,
		},
	}
}
