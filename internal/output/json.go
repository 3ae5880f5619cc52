package output

import (
	"encoding/json"

	"dbbind/engine"
	"dbbind/internal/bind"
	"dbbind/internal/core"
)

type jsonFormatter struct{}

type tablePayload struct {
	Name     string      `json:"name"`
	Database string      `json:"database"`
	Table    string      `json:"table"`
	FullName string      `json:"fullName"`
	FilePath string      `json:"filePath,omitempty"`
	Engine   engine.Kind `json:"engine"`
	Row      string      `json:"row"`
	Children []string    `json:"children,omitempty"`
}

type registryPayload struct {
	Name    string         `json:"name"`
	Backend core.Backend   `json:"backend"`
	Cluster string         `json:"cluster,omitempty"`
	Tables  []tablePayload `json:"tables"`
}

type projectPayload struct {
	Format     string            `json:"format"`
	Package    string            `json:"package"`
	OutputDir  string            `json:"outputDir"`
	TestUtils  bool              `json:"testUtils"`
	Registries []registryPayload `json:"registries"`
}

func (jsonFormatter) FormatProject(p *bind.Project) (string, error) {
	payload := projectPayload{Format: string(FormatJSON), Registries: []registryPayload{}}
	if p != nil {
		payload.Package = p.Package
		payload.OutputDir = p.OutputDir
		payload.TestUtils = p.TestUtils
		for _, reg := range p.Registries {
			rp := registryPayload{
				Name:    reg.Name,
				Backend: reg.Backend,
				Cluster: reg.Cluster,
				Tables:  make([]tablePayload, 0, len(reg.Tables)),
			}
			for _, t := range reg.Tables {
				rp.Tables = append(rp.Tables, tablePayload{
					Name:     t.Const,
					Database: t.Database,
					Table:    t.Name,
					FullName: t.FullName,
					FilePath: t.FilePath,
					Engine:   t.Engine,
					Row:      t.Row.Expr(),
					Children: t.Children,
				})
			}
			payload.Registries = append(payload.Registries, rp)
		}
	}
	return marshalJSON(payload)
}

func marshalJSON(payload projectPayload) (string, error) {
	b, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b) + "\n", nil
}
