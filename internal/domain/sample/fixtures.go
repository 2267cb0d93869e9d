package sample

import "time"

// Fixtures returns the demo samples the console starts with.
func Fixtures() []Sample {
	day := func(d int) time.Time {
		return time.Date(2024, time.March, d, 9, 30, 0, 0, time.UTC)
	}
	return []Sample{
		{
			ID: "S-1001", Filename: "wl_board_0001.jpg", ThumbnailRef: "/samples/wl_board_0001.jpg",
			Line: LineWireless, Defects: []string{"SCRATCH"}, Status: StatusLabeled, UploadDate: day(1),
			Boxes: []BoundingBox{{ClassCode: "SCRATCH", X: 0.22, Y: 0.31, Width: 0.18, Height: 0.05, Confidence: 0.92}},
		},
		{
			ID: "S-1002", Filename: "wl_board_0002.jpg", ThumbnailRef: "/samples/wl_board_0002.jpg",
			Line: LineWireless, Defects: []string{"SCRATCH", "SOLDERING"}, Status: StatusLabeled, UploadDate: day(2),
			Boxes: []BoundingBox{
				{ClassCode: "SCRATCH", X: 0.10, Y: 0.12, Width: 0.20, Height: 0.04},
				{ClassCode: "SOLDERING", X: 0.55, Y: 0.60, Width: 0.08, Height: 0.08},
			},
		},
		{
			ID: "S-1003", Filename: "opt_module_0101.png", ThumbnailRef: "/samples/opt_module_0101.png",
			Line: LineOptical, Defects: []string{}, Status: StatusUnlabeled, UploadDate: day(3),
		},
		{
			ID: "S-1004", Filename: "opt_module_0102.png", ThumbnailRef: "/samples/opt_module_0102.png",
			Line: LineOptical, Defects: []string{"DEBRIS"}, Status: StatusLabeled, UploadDate: day(4),
			Boxes: []BoundingBox{{ClassCode: "DEBRIS", X: 0.40, Y: 0.42, Width: 0.06, Height: 0.05}},
		},
		{
			ID: "S-1005", Filename: "wl_board_0003.jpg", ThumbnailRef: "/samples/wl_board_0003.jpg",
			Line: LineWireless, Defects: []string{}, Status: StatusUnlabeled, UploadDate: day(5),
		},
		{
			ID: "S-1006", Filename: "opt_module_0103.png", ThumbnailRef: "/samples/opt_module_0103.png",
			Line: LineOptical, Defects: []string{"SOLDERING"}, Status: StatusLabeled, UploadDate: day(6),
			Boxes: []BoundingBox{{ClassCode: "SOLDERING", X: 0.70, Y: 0.20, Width: 0.10, Height: 0.12}},
		},
	}
}
