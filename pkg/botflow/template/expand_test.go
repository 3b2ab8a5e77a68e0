package template_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/randalmurphal/botflow/pkg/botflow/template"
)

// TestExpand verifies placeholder substitution.
func TestExpand(t *testing.T) {
	tests := []struct {
		name string
		in   string
		vars map[string]any
		want string
	}{
		{"simple", "Hello {{name}}", map[string]any{"name": "World"}, "Hello World"},
		{"multiple", "{{a}} and {{b}}", map[string]any{"a": "x", "b": "y"}, "x and y"},
		{"repeated", "{{x}}{{x}}", map[string]any{"x": "ab"}, "abab"},
		{"whitespace inside braces", "Hi {{ name }}", map[string]any{"name": "Bo"}, "Hi Bo"},
		{"no placeholders", "plain text", map[string]any{"name": "x"}, "plain text"},
		{"empty string", "", map[string]any{"name": "x"}, ""},
		{"non-string value", "n={{n}}", map[string]any{"n": 42}, "n=42"},
		{"underscored name", "{{user_input}}", map[string]any{"user_input": "hi"}, "hi"},
		{"single braces untouched", "{name}", map[string]any{"name": "x"}, "{name}"},
	}

	exp := template.NewExpander()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := exp.Expand(tt.in, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestExpandMissingActions verifies the three missing-variable policies.
func TestExpandMissingActions(t *testing.T) {
	t.Run("keep", func(t *testing.T) {
		exp := template.NewExpander(template.WithMissingAction(template.MissingKeep))
		got, err := exp.Expand("Hi {{who}}", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hi {{who}}", got)
	})

	t.Run("empty", func(t *testing.T) {
		exp := template.NewExpander(template.WithMissingAction(template.MissingEmpty))
		got, err := exp.Expand("Hi {{who}}!", nil)
		require.NoError(t, err)
		assert.Equal(t, "Hi !", got)
	})

	t.Run("error", func(t *testing.T) {
		exp := template.NewExpander(template.WithMissingAction(template.MissingError))
		_, err := exp.Expand("{{a}} {{b}}", map[string]any{"a": "x"})
		require.Error(t, err)

		var undefErr *template.UndefinedVariableError
		require.ErrorAs(t, err, &undefErr)
		assert.Equal(t, []string{"b"}, undefErr.Names)
	})

	t.Run("error lists all missing", func(t *testing.T) {
		exp := template.NewExpander(template.WithMissingAction(template.MissingError))
		_, err := exp.Expand("{{a}} {{b}}", nil)

		var undefErr *template.UndefinedVariableError
		require.ErrorAs(t, err, &undefErr)
		assert.Equal(t, []string{"a", "b"}, undefErr.Names)
		assert.Contains(t, undefErr.Error(), "undefined variables")
	})
}

// TestExpandAll verifies batch expansion.
func TestExpandAll(t *testing.T) {
	exp := template.NewExpander()

	got, err := exp.ExpandAll([]string{"{{a}}", "b is {{b}}"}, map[string]any{"a": "1", "b": "2"})
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "b is 2"}, got)

	got, err = exp.ExpandAll(nil, nil)
	require.NoError(t, err)
	assert.Nil(t, got)

	errExp := template.NewExpander(template.WithMissingAction(template.MissingError))
	_, err = errExp.ExpandAll([]string{"{{missing}}"}, nil)
	assert.Error(t, err)
}

// TestPackageLevelExpand verifies the default expander keeps missing
// placeholders.
func TestPackageLevelExpand(t *testing.T) {
	assert.Equal(t, "Hello World", template.Expand("Hello {{name}}", map[string]any{"name": "World"}))
	assert.Equal(t, "Hello {{name}}", template.Expand("Hello {{name}}", nil))
}
