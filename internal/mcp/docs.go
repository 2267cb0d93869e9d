package mcp

import (
	"context"
	"encoding/json"

	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/aoiforge/internal/domain/class"
)

const serverInstructions = `aoiforge is an AOI (automated optical inspection) defect console: a training wizard, a sample hub and a simulated build runner.

Core concepts:
- Console: one per session. Exactly one tab is mounted: training, samples or settings. Leaving a tab resets its screen.
- Wizard (training tab): five steps scenario -> hardware -> dataset -> parameters -> export. Advance only when the step's required field is set.
- Derived rules: hardware=cpu forces batch size 4; scenario=detection pins the base model to YOLOv8-Industrial-S.
- Build (export step): Idle -> Running -> Finished. Log lines arrive in script order. A finished build exposes a download artifact.
- Sample hub (samples tab): list mode with line and filename filters, editor mode for bounding-box annotation.
- Class registry: SCRATCH, SOLDERING, DEBRIS. Unknown codes render as "unknown (CODE)".

Typical flow:
1) get_console to orient.
2) wizard_set_scenario, wizard_advance, wizard_set_hardware, wizard_advance, wizard_select_dataset (or wizard_jump_to_samples), wizard_advance, wizard_configure, wizard_advance.
3) build_start, then poll build_status until finished; build_artifact for the download.
4) navigate to samples; list_samples, start_annotation, edit_annotation, save_annotation.

Transport notes:
- HTTP: pass the console session via Mcp-Session-Id header.
- Stdio: pass it via _meta.session_id when supported; otherwise the transport session is used.

Docs:
- aoiforge://docs/index
- aoiforge://docs/wizard
- aoiforge://docs/annotation
- aoiforge://classes (JSON)
`

type docResource struct {
	URI         string
	Name        string
	Title       string
	Description string
	Content     string
}

var docResources = []docResource{
	{
		URI:         "aoiforge://docs/index",
		Name:        "docs_index",
		Title:       "aoiforge docs index",
		Description: "Entry point: screens, tools per screen and error codes.",
		Content: `# aoiforge: Agent Docs Index

## Screens and their tools

- Console: ` + "`get_console`" + `, ` + "`navigate`" + `, ` + "`list_classes`" + `, ` + "`get_recent_activity`" + `
- Training wizard: ` + "`wizard_get`" + `, ` + "`wizard_set_scenario`" + `, ` + "`wizard_set_hardware`" + `, ` + "`wizard_select_dataset`" + `, ` + "`wizard_configure`" + `, ` + "`wizard_advance`" + `, ` + "`wizard_retreat`" + `, ` + "`wizard_jump_to_samples`" + `
- Build: ` + "`build_start`" + `, ` + "`build_status`" + `, ` + "`build_artifact`" + `
- Sample hub: ` + "`list_samples`" + `, ` + "`get_sample`" + `, ` + "`start_annotation`" + `, ` + "`edit_annotation`" + `, ` + "`save_annotation`" + `, ` + "`back_to_list`" + `, ` + "`upload_sample`" + `, ` + "`import_dataset`" + `, ` + "`import_status`" + `
- Datasets: ` + "`generate_dataset`" + `, ` + "`package_dataset`" + `

Wizard and build tools need the training tab; hub tools need the samples tab. Otherwise they fail with ` + "`NOT_MOUNTED`" + `.

## Errors

Failed tools return ` + "`{code, message, recovery_hint}`" + `. Common codes: ` + "`VALIDATION`" + `, ` + "`WRONG_STEP`" + `, ` + "`FIELD_LOCKED`" + `, ` + "`ENGINEER_MODE_REQUIRED`" + `, ` + "`ALREADY_RUNNING`" + `, ` + "`ALREADY_FINISHED`" + `, ` + "`BUILD_RUNNING`" + `, ` + "`WRONG_MODE`" + `, ` + "`NOT_IN_VIEW`" + `, ` + "`UNKNOWN_CLASS`" + `.
`,
	},
	{
		URI:         "aoiforge://docs/wizard",
		Name:        "docs_wizard",
		Title:       "Training wizard",
		Description: "Step gating, derived parameters and the build lifecycle.",
		Content: `# Training wizard

| Step | Name | Required to advance |
|---|---|---|
| 0 | scenario | scenario |
| 1 | hardware | hardware |
| 2 | dataset | nothing |
| 3 | parameters | nothing |
| 4 | export | (last step) |

## Derived values

- hardware=cpu: effective batch size is 4 and ` + "`batch_size`" + ` is locked.
- scenario=detection: base model is YOLOv8-Industrial-S and ` + "`base_model`" + ` is locked.
- classification defaults to ResNet-50, segmentation to UNet.

## Engineer mode

Rotation, mosaic probability, learning rate, optimizer, batch size and base model are only editable with ` + "`engineer_mode=true`" + `. Intensity and image size are always editable.

## Build lifecycle

Entering the export step binds a fresh runner. ` + "`build_start`" + ` moves it to running; a second start fails with ` + "`ALREADY_RUNNING`" + `, and after completion with ` + "`ALREADY_FINISHED`" + `. Step navigation is blocked while running. Retreat and advance again for a new run.
`,
	},
	{
		URI:         "aoiforge://docs/annotation",
		Name:        "docs_annotation",
		Title:       "Sample hub and annotation",
		Description: "List filters, the editor draft, imports and dataset packaging.",
		Content: `# Sample hub and annotation

## List mode

` + "`list_samples`" + ` sets the filter (line, filename query) and returns matching samples in store order. ` + "`start_annotation`" + ` only accepts IDs in the filtered list.

## Editor mode

The editor holds a draft. ` + "`edit_annotation`" + ` replaces the draft boxes (normalized coordinates, registry class codes). ` + "`save_annotation`" + ` commits it, sets the sample LABELED and returns to the list. ` + "`back_to_list`" + ` discards it.

## Imports

` + "`import_dataset`" + ` runs in the background. Archives hold ` + "`classes.txt`" + `, ` + "`images/`" + `, ` + "`labels/`" + ` (YOLO rows) and an optional ` + "`manifest.yaml`" + ` with a ` + "`remap`" + ` table. A class that maps to no registry code fails the whole import.

## Datasets

` + "`generate_dataset`" + ` selects by line and class (any match), splits the first round(N*ratio) samples into train and estimates 90 KiB per sample. ` + "`package_dataset`" + ` writes the same selection to a zip.
`,
	},
}

func registerDocResources(server *sdkmcp.Server) {
	for _, doc := range docResources {
		doc := doc

		server.AddResource(&sdkmcp.Resource{
			URI:         doc.URI,
			Name:        doc.Name,
			Title:       doc.Title,
			Description: doc.Description,
			MIMEType:    "text/markdown",
			Size:        int64(len(doc.Content)),
		}, func(_ context.Context, req *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
			uri := doc.URI
			if req != nil && req.Params != nil && req.Params.URI != "" {
				uri = req.Params.URI
			}
			return &sdkmcp.ReadResourceResult{
				Contents: []*sdkmcp.ResourceContents{{
					URI:      uri,
					MIMEType: "text/markdown",
					Text:     doc.Content,
				}},
			}, nil
		})
	}
}

const classesURI = "aoiforge://classes"

func registerClassResource(server *sdkmcp.Server, registry *class.Registry) {
	server.AddResource(&sdkmcp.Resource{
		URI:         classesURI,
		Name:        "classes",
		Title:       "Global class registry",
		Description: "Defect classes with id, code, display name and color.",
		MIMEType:    "application/json",
	}, func(_ context.Context, _ *sdkmcp.ReadResourceRequest) (*sdkmcp.ReadResourceResult, error) {
		data, err := json.Marshal(registry.All())
		if err != nil {
			return nil, err
		}
		return &sdkmcp.ReadResourceResult{
			Contents: []*sdkmcp.ResourceContents{{
				URI:      classesURI,
				MIMEType: "application/json",
				Text:     string(data),
			}},
		}, nil
	})
}
