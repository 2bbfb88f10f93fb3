package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_IsWorkflowFile(t *testing.T) {
	tests := []struct {
		name     string
		source   string
		expected bool
	}{
		{
			name: "openai import and call",
			source: `from openai import OpenAI
client = OpenAI()
resp = client.chat.completions.create(model="gpt-4o", messages=[])`,
			expected: true,
		},
		{
			name: "import without call",
			source: `import openai
print("nothing to see here")`,
			expected: false,
		},
		{
			name: "framework import standalone",
			source: `from langgraph.graph import StateGraph
builder = StateGraph(State)`,
			expected: true,
		},
		{
			name: "anthropic typescript",
			source: `import Anthropic from "@anthropic-ai/sdk";
const client = new Anthropic();
const msg = await client.messages.create({model: "claude-sonnet-4"});`,
			expected: true,
		},
		{
			name:     "plain web handler",
			source:   `app.get("/users", (req, res) => res.json(users))`,
			expected: false,
		},
	}

	r := Default()
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, r.IsWorkflowFile(tc.source))
		})
	}
}

func TestRegistry_DetectFramework(t *testing.T) {
	r := Default()
	assert.Equal(t, "langgraph", r.DetectFramework(`from langgraph.graph import StateGraph`))
	assert.Equal(t, "crewai", r.DetectFramework(`from crewai import Crew, Agent`))
	assert.Equal(t, "langchain", r.DetectFramework(`import { LLMChain } from "@langchain/core"`))
	assert.Equal(t, "", r.DetectFramework(`import express from "express"`))
}

func TestRegistry_MatchesServiceDomain(t *testing.T) {
	r := Default()
	assert.True(t, r.MatchesServiceDomain(`resp = requests.post("https://api.openai.com/v1/chat/completions")`))
	assert.True(t, r.MatchesServiceDomain(`fetch("http://localhost:11434/api/generate")`))
	assert.False(t, r.MatchesServiceDomain(`fetch("https://example.com/api")`))
}

func TestRegistry_MethodShapes(t *testing.T) {
	r := Default()
	assert.True(t, r.IsCallMethod("generate"))
	assert.True(t, r.IsCallMethod("sendMessage"))
	assert.False(t, r.IsCallMethod("toString"))
	assert.True(t, r.IsParserMethod("loads"))
	assert.True(t, r.IsHTTPMethod("post"))
	assert.True(t, r.IsToolMethod("addTool"))
	assert.True(t, r.MatchesConstructor(`new OpenAI({apiKey})`))
	assert.True(t, r.MatchesMemory(`store = Chroma(collection_name="docs")`))
}

func TestLoadOverlay(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "signatures.yaml")
	content := `providers:
  - id: acme
    imports:
      - 'from\s+acme_ai\s+import'
    calls:
      - '\.acme_generate\('
domains:
  - 'api\.acme\.dev'
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	r, err := LoadOverlay(path)
	require.NoError(t, err)
	assert.True(t, r.MatchesImport("from acme_ai import Client"))
	assert.True(t, r.MatchesServiceDomain("https://api.acme.dev/v1"))
	// Built-ins survive the overlay.
	assert.True(t, r.MatchesImport("import openai"))
}
