package config

import (
	"os"

	"go.trai.ch/drainage/internal/core/domain"
	"go.trai.ch/zerr"
	"gopkg.in/yaml.v3"
)

type yamlFile struct {
	Pipelinefile `yaml:",inline"`
	Stages       yaml.Node `yaml:"stages"`
}

// decodeYAML reads a YAML pipeline. Stages keep their file order.
func decodeYAML(path string) (Pipelinefile, []StageDTO, error) {
	// #nosec G304 -- path is provided by the user
	data, err := os.ReadFile(path)
	if err != nil {
		return Pipelinefile{}, nil, zerr.With(zerr.Wrap(domain.ErrConfigReadFailed, err.Error()), "path", path)
	}

	var file yamlFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return Pipelinefile{}, nil, parseError(path, err)
	}

	if file.Stages.Kind == 0 {
		return file.Pipelinefile, nil, nil
	}
	if file.Stages.Kind != yaml.MappingNode {
		return Pipelinefile{}, nil, zerr.With(zerr.With(zerr.Wrap(domain.ErrConfigParseFailed,
			"stages must be a mapping keyed by stage id"), "path", path), "line", file.Stages.Line)
	}

	content := file.Stages.Content
	stages := make([]StageDTO, 0, len(content)/2)
	for i := 0; i+1 < len(content); i += 2 {
		var dto StageDTO
		if err := content[i+1].Decode(&dto); err != nil {
			return Pipelinefile{}, nil, zerr.With(parseError(path, err), "stage", content[i].Value)
		}
		dto.ID = content[i].Value
		stages = append(stages, dto)
	}
	return file.Pipelinefile, stages, nil
}

func parseError(path string, err error) error {
	return zerr.With(zerr.Wrap(domain.ErrConfigParseFailed, err.Error()), "path", path)
}
