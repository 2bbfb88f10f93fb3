package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func locationsOfKind(analysis *FileAnalysis, kind Kind) []CodeLocation {
	var out []CodeLocation
	for _, loc := range analysis.Locations {
		if loc.Kind == kind {
			out = append(out, loc)
		}
	}
	return out
}

func TestExtractor_JavaScript_ClientInitAndCall(t *testing.T) {
	source := `import OpenAI from "openai";
const client = new OpenAI({ apiKey: key });
const resp = client.generate(prompt);
if (client.ok) {
  console.log(resp);
}`

	analysis := NewExtractor(nil).Analyze([]byte(source), "agent.js")

	llm := locationsOfKind(analysis, KindLLM)
	require.Len(t, llm, 2)
	assert.Equal(t, 2, llm[0].Line)
	assert.Equal(t, "client", llm[0].Variable)
	assert.Equal(t, 3, llm[1].Line)
	assert.Equal(t, "client", llm[1].Variable)

	decisions := locationsOfKind(analysis, KindDecision)
	require.Len(t, decisions, 1)
	assert.Equal(t, 4, decisions[0].Line)

	assert.True(t, analysis.TaintedVariables["client"])
	assert.True(t, analysis.TaintedVariables["resp"])
	assert.Contains(t, analysis.Imports, "openai")
}

func TestExtractor_Python_TaintPropagation(t *testing.T) {
	source := `from openai import OpenAI

def run(prompt):
    client = OpenAI()
    resp = client.chat.completions.create(model="gpt-4o", messages=prompt)
    if resp:
        return resp
    return None
`

	analysis := NewExtractor(nil).Analyze([]byte(source), "agent.py")

	llm := locationsOfKind(analysis, KindLLM)
	require.Len(t, llm, 2)
	assert.Equal(t, 4, llm[0].Line)
	assert.Equal(t, 5, llm[1].Line)
	assert.Equal(t, "run", llm[1].Function)

	require.Len(t, locationsOfKind(analysis, KindDecision), 1)
	outputs := locationsOfKind(analysis, KindOutput)
	require.Len(t, outputs, 1)
	assert.Equal(t, 7, outputs[0].Line)

	assert.Contains(t, analysis.Imports, "openai")
	assert.Contains(t, analysis.Exports, "run")
}

func TestExtractor_DecoratorRetention(t *testing.T) {
	withAI := `from openai import OpenAI

@app.post("/chat")
def chat(req):
    client = OpenAI()
    resp = client.chat.completions.create(messages=req)
    return resp
`
	withoutAI := `@app.get("/users")
def users():
    return db.query("select * from users")
`

	e := NewExtractor(nil)

	analysis := e.Analyze([]byte(withAI), "routes.py")
	triggers := locationsOfKind(analysis, KindTrigger)
	require.Len(t, triggers, 1)
	assert.Equal(t, 3, triggers[0].Line)
	assert.Equal(t, "chat", triggers[0].Function)

	// A decorator on a function without AI activity is a web route, not a
	// workflow trigger.
	analysis = e.Analyze([]byte(withoutAI), "routes.py")
	assert.Empty(t, locationsOfKind(analysis, KindTrigger))
}

func TestExtractor_DedupFirstWins(t *testing.T) {
	// Two matches on one line must collapse to a single (line, kind) entry.
	source := `from openai import OpenAI
client = OpenAI(); other = OpenAI()
`
	analysis := NewExtractor(nil).Analyze([]byte(source), "dup.py")

	llm := locationsOfKind(analysis, KindLLM)
	require.Len(t, llm, 1)
	assert.Equal(t, 2, llm[0].Line)
	assert.Equal(t, "client", llm[0].Variable)

	seen := make(map[[2]interface{}]bool)
	for _, loc := range analysis.Locations {
		key := [2]interface{}{loc.Line, loc.Kind}
		assert.False(t, seen[key], "duplicate (line, kind) pair survived")
		seen[key] = true
	}
}

func TestExtractor_UnsupportedExtension(t *testing.T) {
	analysis := NewExtractor(nil).Analyze([]byte("OpenAI()"), "notes.txt")
	assert.Empty(t, analysis.Locations)
	assert.Empty(t, analysis.Imports)
}

func TestExtractor_GoWalker(t *testing.T) {
	source := `package main

import (
	"context"
	"encoding/json"

	openai "github.com/sashabaranov/go-openai"
)

func Run(ctx context.Context, prompt string) (string, error) {
	client := openai.NewClient(key)
	resp, err := client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", err
	}
	var out Result
	json.Unmarshal([]byte(resp.Choices[0].Message.Content), &out)
	return resp.Choices[0].Message.Content, nil
}
`
	analysis := NewExtractor(nil).Analyze([]byte(source), "run.go")

	llm := locationsOfKind(analysis, KindLLM)
	require.NotEmpty(t, llm)
	assert.Equal(t, 11, llm[0].Line)
	require.Len(t, locationsOfKind(analysis, KindParser), 1)
	outputs := locationsOfKind(analysis, KindOutput)
	require.Len(t, outputs, 1)
	assert.Contains(t, analysis.Imports, "github.com/sashabaranov/go-openai")
	assert.Contains(t, analysis.Exports, "Run")
}

func TestExtractor_RegexFallbackTier(t *testing.T) {
	// Ruby has no structural walker; the signature tables still flag it.
	source := `require "openai"
client = OpenAI(access_token: token)
resp = client.chat.completions.create(messages: prompt)
`
	analysis := NewExtractor(nil).Analyze([]byte(source), "agent.rb")
	require.NotEmpty(t, analysis.Locations)
	assert.Equal(t, KindLLM, analysis.Locations[0].Kind)
	assert.Equal(t, 3, analysis.Locations[0].Line)
}

func TestExtractor_DomainFallbackTier(t *testing.T) {
	// Raw HTTP against a known AI endpoint, no SDK import anywhere.
	source := `resp=$(curl -s https://api.anthropic.com/v1/messages -d "$payload")`
	analysis := NewExtractor(nil).Analyze([]byte(source), "invoke.sh")
	require.Len(t, analysis.Locations, 1)
	assert.Equal(t, KindIntegration, analysis.Locations[0].Kind)
	assert.Equal(t, 1, analysis.Locations[0].Line)
}
