package template_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/aretw0/gantry/pkg/domain"
	"github.com/aretw0/gantry/pkg/template"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const manifestTemplate = `{
  "name": "<%= name %>",
  "dependencies": {
    "express": "~4.0.0",<% if (filters.mongooseModels) { %>
    "mongoose": "~4.0.3",<% } %><% if (filters.sequelizeModels) { %>
    "sequelize": "^3.5.1",<% } %>
    "lodash": "~2.4.1"
  }
}
`

func TestReduce_Identity(t *testing.T) {
	inputs := []string{
		"",
		"plain text",
		"{\n  \"name\": \"app\"\n}\n",
		"100% < 200 > 50",
	}
	for _, in := range inputs {
		out, err := template.Reduce(in, template.Bindings{"name": "ignored"})
		require.NoError(t, err)
		assert.Equal(t, in, out)
	}
}

func TestReduce_ManifestScenario(t *testing.T) {
	out, err := template.Reduce(manifestTemplate, template.Bindings{
		"name":           "tempApp",
		"mongooseModels": false,
	})
	require.NoError(t, err)

	assert.Contains(t, out, `"name": "tempApp"`)
	assert.NotContains(t, out, "mongoose")
	assert.NotContains(t, out, "sequelize")
	assert.Contains(t, out, `"lodash": "~2.4.1"`)
	assert.NotContains(t, out, "<%")
	assert.NotContains(t, out, "%>")
}

func TestReduce_NestedBindings(t *testing.T) {
	out, err := template.Reduce(manifestTemplate, template.Bindings{
		"name":    "demo",
		"filters": map[string]any{"mongooseModels": true},
	})
	require.NoError(t, err)
	assert.Contains(t, out, `"mongoose": "~4.0.3",`)
	assert.NotContains(t, out, "sequelize")
}

func TestReduce_Conditionals(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		bindings template.Bindings
		want     string
	}{
		{
			name:     "else branch",
			input:    "<% if (a) { %>A<% } else { %>B<% } %>",
			bindings: template.Bindings{"a": false},
			want:     "B",
		},
		{
			name:     "else if branch",
			input:    "<% if (a) { %>A<% } else if (b) { %>B<% } else { %>C<% } %>",
			bindings: template.Bindings{"b": true},
			want:     "B",
		},
		{
			name:     "first taken branch wins",
			input:    "<% if (a) { %>A<% } else if (b) { %>B<% } %>",
			bindings: template.Bindings{"a": true, "b": true},
			want:     "A",
		},
		{
			name:     "close and open in one scriptlet",
			input:    "<% if (a) { %>A<% }\n   if (b) { %>B<% } %>",
			bindings: template.Bindings{"b": true},
			want:     "B",
		},
		{
			name:     "nested inside inactive block",
			input:    "<% if (a) { %>x<% if (b) { %>y<% } %><% } %>z",
			bindings: template.Bindings{"b": true},
			want:     "z",
		},
		{
			name:     "negation and conjunction",
			input:    "<% if (!a && (b || c)) { %>ok<% } %>",
			bindings: template.Bindings{"c": true},
			want:     "ok",
		},
		{
			name:     "string comparison",
			input:    "<% if (filters.router === 'uirouter') { %>ui<% } %>",
			bindings: template.Bindings{"filters": map[string]any{"router": "uirouter"}},
			want:     "ui",
		},
		{
			name:     "unsupported condition is false",
			input:    "<% if (filters.oauth.indexOf('x') > -1) { %>x<% } %>done",
			bindings: template.Bindings{},
			want:     "done",
		},
		{
			name:     "opaque code is stripped",
			input:    "<% var x = 1; %>a<% items.forEach(function(i) { %>b<% }) %>",
			bindings: template.Bindings{},
			want:     "ab",
		},
		{
			name:     "comment removed",
			input:    "a<%# note %>b",
			want:     "ab",
		},
		{
			name:     "trim marker slurps newline",
			input:    "<% if (a) { -%>\nA\n<% } -%>\nB",
			bindings: template.Bindings{"a": true},
			want:     "A\nB",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := template.Reduce(tt.input, tt.bindings)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestReduce_Substitution(t *testing.T) {
	out, err := template.Reduce("<%= a %>|<%- b.c %>|<%= missing %>|<%= list %>", template.Bindings{
		"a":    "x",
		"b":    map[string]any{"c": 3},
		"list": []string{"g", "t"},
	})
	require.NoError(t, err)
	assert.Equal(t, "x|3||g,t", out)
}

func TestReducer_FieldOverride(t *testing.T) {
	raw := `{
  "name": "<%= _.slugify(_.humanize(appname)) %>",
  "version": "<%= version %>"
}`
	r := template.New(template.WithField("name", "tempApp"))
	out, err := r.Reduce(raw, template.Bindings{"version": "0.0.0"})
	require.NoError(t, err)
	assert.Equal(t, "{\n  \"name\": \"tempApp\",\n  \"version\": \"0.0.0\"\n}", out)
}

func TestReduce_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		input string
		line  int
	}{
		{"unterminated", "ok\n<% if (a) { ", 2},
		{"stray close", "text %> more", 1},
		{"nested open", "<% <% %>", 1},
		{"unclosed block", "<% if (a) { %>A", 1},
		{"unbalanced close", "A<% } %>", 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := template.Reduce(tt.input, nil)
			require.Error(t, err)
			var merr *domain.MalformedTemplateError
			require.True(t, errors.As(err, &merr), "got %T", err)
			assert.Equal(t, tt.line, merr.Line)
		})
	}
}

func TestReduce_Totality(t *testing.T) {
	inputs := []string{
		manifestTemplate,
		"a<<%# x %>%b",
		"<%= v %>",
		"<% if (x) { %><%<%= y %><% } %>",
	}
	b := template.Bindings{"v": "<%= nested %>", "x": true, "y": "%>"}
	for _, in := range inputs {
		out, err := template.Reduce(in, b)
		if err != nil {
			continue
		}
		assert.False(t, strings.Contains(out, "<%") || strings.Contains(out, "%>"), "residual marker in %q", out)
	}
}

func TestReduce_Deterministic(t *testing.T) {
	b := template.Bindings{"name": "tempApp", "filters": map[string]any{"mongooseModels": true}}
	first, err := template.Reduce(manifestTemplate, b)
	require.NoError(t, err)
	for i := 0; i < 10; i++ {
		again, err := template.Reduce(manifestTemplate, b)
		require.NoError(t, err)
		assert.Equal(t, first, again)
	}
}
