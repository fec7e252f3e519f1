package mcpserver

import (
	"encoding/json"
)

const (
	manifestSchema = "https://static.modelcontextprotocol.io/schemas/2025-10-17/server.schema.json"
	registryName   = "io.github.panbanda/bugsight"
	imageName      = "ghcr.io/panbanda/bugsight"
	repositoryURL  = "https://github.com/panbanda/bugsight"
)

// Manifest is the registry server.json document.
type Manifest struct {
	Schema      string      `json:"$schema"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Version     string      `json:"version"`
	Repository  *Repository `json:"repository,omitempty"`
	Packages    []Package   `json:"packages,omitempty"`
}

type Repository struct {
	URL    string `json:"url"`
	Source string `json:"source"`
}

// Package is one way of launching the server. The container image mounts
// the project at /src and analyzes it from there.
type Package struct {
	RegistryType         string        `json:"registryType"`
	Identifier           string        `json:"identifier"`
	RuntimeArguments     []Argument    `json:"runtimeArguments,omitempty"`
	PackageArguments     []Argument    `json:"packageArguments,omitempty"`
	EnvironmentVariables []EnvVariable `json:"environmentVariables,omitempty"`
	Transport            Transport     `json:"transport"`
}

type Argument struct {
	Type  string `json:"type"`
	Name  string `json:"name,omitempty"`
	Value string `json:"value,omitempty"`
}

type EnvVariable struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsRequired  bool   `json:"isRequired"`
}

type Transport struct {
	Type string `json:"type"`
}

// GenerateManifest renders server.json for version ("" becomes 0.0.0).
func GenerateManifest(version string) ([]byte, error) {
	if version == "" {
		version = "0.0.0"
	}

	pkg := Package{
		RegistryType: "oci",
		Identifier:   imageName + ":" + version,
		RuntimeArguments: []Argument{
			{Type: "named", Name: "--volume", Value: ".:/src:ro"},
			{Type: "named", Name: "--workdir", Value: "/src"},
		},
		PackageArguments: []Argument{{Type: "positional", Value: "mcp"}},
		EnvironmentVariables: []EnvVariable{{
			Name:        "BUGSIGHT_CONFIG",
			Description: "Path to a bugsight config file (toml, yaml or json)",
		}},
		Transport: Transport{Type: "stdio"},
	}

	return json.MarshalIndent(Manifest{
		Schema:      manifestSchema,
		Name:        registryName,
		Description: "Object-oriented metrics for Python modules: coupling, cohesion, inheritance depth and call fan-in/fan-out",
		Version:     version,
		Repository:  &Repository{URL: repositoryURL, Source: "github"},
		Packages:    []Package{pkg},
	}, "", "  ")
}
