// Package config loads exported chatbot flow documents from YAML or
// JSON files and converts them into runnable flows.
//
// A document is the on-disk shape produced by the visual builder's
// export. Loading validates the document's structure before conversion
// so authoring mistakes surface as errors rather than stalled
// conversations.
package config

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/randalmurphal/botflow/pkg/botflow"
)

// validate is the shared validator instance.
// validator.New is expensive; the instance caches struct metadata.
var validate = validator.New(validator.WithRequiredStructEnabled())

// OptionDoc is one selectable choice of an option-driven node.
type OptionDoc struct {
	Label string `json:"label" yaml:"label" validate:"required"`
	Value string `json:"value" yaml:"value" validate:"required"`
}

// NodeDataDoc is the payload of a node in an exported document.
type NodeDataDoc struct {
	Title   string      `json:"title,omitempty" yaml:"title,omitempty"`
	Content string      `json:"content,omitempty" yaml:"content,omitempty"`
	Options []OptionDoc `json:"options,omitempty" yaml:"options,omitempty" validate:"dive"`
	UseAI   bool        `json:"useAI,omitempty" yaml:"useAI,omitempty"`
}

// NodeDoc is a single node in an exported document.
type NodeDoc struct {
	ID      string      `json:"id" yaml:"id" validate:"required"`
	Type    string      `json:"type" yaml:"type" validate:"required,oneof=start message multichoice button textinput rating end"`
	Data    NodeDataDoc `json:"data" yaml:"data"`
	Outputs []string    `json:"outputs,omitempty" yaml:"outputs,omitempty"`
}

// ConnectionDoc is a directed edge in an exported document.
type ConnectionDoc struct {
	ID           string `json:"id" yaml:"id" validate:"required"`
	SourceID     string `json:"sourceId" yaml:"sourceId" validate:"required"`
	TargetID     string `json:"targetId" yaml:"targetId" validate:"required"`
	SourceOutput string `json:"sourceOutput" yaml:"sourceOutput"`
}

// AIDoc configures the completion service for flows that use AI nodes.
// APIKey is intentionally absent; pass it via environment or code.
type AIDoc struct {
	Model       string `json:"model,omitempty" yaml:"model,omitempty"`
	BaseURL     string `json:"baseUrl,omitempty" yaml:"baseUrl,omitempty" validate:"omitempty,url"`
	MaxTokens   int    `json:"maxTokens,omitempty" yaml:"maxTokens,omitempty" validate:"omitempty,min=1"`
	MaxAttempts int    `json:"maxAttempts,omitempty" yaml:"maxAttempts,omitempty" validate:"omitempty,min=1"`
}

// Document is an exported chatbot flow file.
type Document struct {
	BotName         string          `json:"botName,omitempty" yaml:"botName,omitempty"`
	WelcomeMessage  string          `json:"welcomeMessage,omitempty" yaml:"welcomeMessage,omitempty"`
	FallbackMessage string          `json:"fallbackMessage,omitempty" yaml:"fallbackMessage,omitempty"`
	Nodes           []NodeDoc       `json:"nodes" yaml:"nodes" validate:"required,min=1,dive"`
	Connections     []ConnectionDoc `json:"connections" yaml:"connections" validate:"dive"`
	AI              *AIDoc          `json:"ai,omitempty" yaml:"ai,omitempty"`
}

// Validate checks the document's structure.
// Graph-level problems (missing start node, dangling connections) are
// the linter's job; Validate only rejects documents that cannot be
// converted at all.
func (d *Document) Validate() error {
	if err := validate.Struct(d); err != nil {
		return fmt.Errorf("invalid flow document: %w", err)
	}
	return nil
}

// Flow converts the document into a runnable flow.
// Call Validate first; Flow does not re-check the document.
func (d *Document) Flow() *botflow.Flow {
	f := &botflow.Flow{
		Name:            d.BotName,
		WelcomeMessage:  d.WelcomeMessage,
		FallbackMessage: d.FallbackMessage,
	}

	for _, n := range d.Nodes {
		node := botflow.Node{
			ID:   n.ID,
			Type: botflow.NodeType(n.Type),
			Data: botflow.NodeData{
				Title:   n.Data.Title,
				Content: n.Data.Content,
				UseAI:   n.Data.UseAI,
			},
		}
		for _, o := range n.Data.Options {
			node.Data.Options = append(node.Data.Options, botflow.Option{
				Label: o.Label,
				Value: o.Value,
			})
		}
		if n.Outputs != nil {
			node.Outputs = append([]string(nil), n.Outputs...)
		}
		f.AddNode(node)
	}

	for _, c := range d.Connections {
		f.AddConnection(botflow.Connection{
			ID:           c.ID,
			SourceID:     c.SourceID,
			TargetID:     c.TargetID,
			SourceOutput: c.SourceOutput,
		})
	}

	return f
}
