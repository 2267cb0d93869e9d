package class

// GlobalClass is the canonical definition of a defect category.
type GlobalClass struct {
	ID    int    `json:"id" yaml:"id"`
	Code  string `json:"code" yaml:"code"`
	Name  string `json:"name" yaml:"name"`
	Color string `json:"color" yaml:"color"`
}

// UnknownCode marks a defect code that has no registry entry.
const UnknownCode = "UNKNOWN"

// Unknown is displayed in place of unresolved defect codes.
var Unknown = GlobalClass{
	ID:    0,
	Code:  UnknownCode,
	Name:  "unknown",
	Color: "slate",
}

// Defaults are the classes registered when configuration provides none.
func Defaults() []GlobalClass {
	return []GlobalClass{
		{ID: 101, Code: "SCRATCH", Name: "划痕 (Scratch)", Color: "red"},
		{ID: 102, Code: "SOLDERING", Name: "开焊 (Soldering)", Color: "amber"},
		{ID: 103, Code: "DEBRIS", Name: "异物 (Debris)", Color: "purple"},
	}
}

// Resolved pairs a sample's defect code with its display metadata.
type Resolved struct {
	Code    string      `json:"code"`
	Class   GlobalClass `json:"class"`
	Unknown bool        `json:"unknown,omitempty"`
}

// RemapTable maps importer-local class identifiers onto registry codes.
type RemapTable map[int]string
