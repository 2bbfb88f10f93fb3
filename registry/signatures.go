package registry

// Built-in signature tables. Import patterns match module/package references
// in any supported language family; call patterns match the method shapes the
// corresponding SDKs expose.
var builtinProviders = []Provider{
	{
		ID: "openai",
		ImportPatterns: []string{
			`from\s+openai\s+import`,
			`import\s+openai`,
			`OpenAI\s*\(`,
			`from\s+['"]openai['"]`,
			`require\s*\(\s*['"]openai['"]`,
			`github\.com/sashabaranov/go-openai`,
			`AzureOpenAI`,
		},
		CallPatterns: []string{
			`\.chat\.completions\.create`,
			`\.completions\.create`,
			`CreateChatCompletion`,
		},
	},
	{
		ID: "anthropic",
		ImportPatterns: []string{
			`from\s+anthropic\s+import`,
			`import\s+anthropic`,
			`Anthropic\s*\(`,
			`@anthropic-ai/sdk`,
		},
		CallPatterns: []string{
			`\.messages\.create`,
		},
	},
	{
		ID: "gemini",
		ImportPatterns: []string{
			`import\s+google\.generativeai`,
			`from\s+google\s+import\s+genai`,
			`genai\.configure`,
			`genai\.Client`,
			`genai\.GenerativeModel`,
			`@google/generative-ai`,
			`GoogleGenerativeAI`,
			`google\.cloud\.aiplatform`,
			`from\s+vertexai`,
			`import\s+vertexai`,
		},
		CallPatterns: []string{
			`\.generate_content`,
			`\.generateContent`,
		},
	},
	{
		ID: "ollama",
		ImportPatterns: []string{
			`from\s+ollama\s+import`,
			`import\s+ollama`,
			`from\s+['"]ollama['"]`,
			`go-ollama`,
		},
		CallPatterns: []string{
			`\.chat\(`,
			`\.generate\(`,
		},
	},
	{
		ID: "cohere",
		ImportPatterns: []string{
			`import\s+cohere`,
			`cohere\.Client`,
			`cohere-ai`,
		},
		CallPatterns: []string{
			`\.chat\(`,
			`\.generate\(`,
		},
	},
	{
		ID: "huggingface",
		ImportPatterns: []string{
			`from\s+huggingface_hub\s+import`,
			`InferenceClient`,
			`@huggingface/inference`,
		},
		CallPatterns: []string{
			`AutoModelForCausalLM\.from_pretrained`,
			`\.text_generation\(`,
		},
	},
	{
		ID: "mistral",
		ImportPatterns: []string{
			`from\s+mistralai\s+import`,
			`MistralClient`,
			`Mistral\s*\(`,
		},
		CallPatterns: []string{
			`\.chat\(`,
			`\.complete\(`,
		},
	},
	{
		ID: "together",
		ImportPatterns: []string{
			`from\s+together\s+import`,
			`Together\s*\(`,
		},
		CallPatterns: []string{
			`\.chat\.completions\.create`,
		},
	},
	{
		ID: "replicate",
		ImportPatterns: []string{
			`import\s+replicate`,
			`from\s+replicate\s+import`,
		},
		CallPatterns: []string{
			`replicate\.run`,
		},
	},
	{
		ID: "fireworks",
		ImportPatterns: []string{
			`from\s+fireworks\s+import`,
			`fireworks\.client`,
		},
		CallPatterns: []string{
			`\.chat\.completions\.create`,
		},
	},
	{
		ID: "bedrock",
		ImportPatterns: []string{
			`bedrock-runtime`,
			`BedrockRuntimeClient`,
		},
		CallPatterns: []string{
			`InvokeModel`,
		},
	},
	{
		ID: "llamacpp",
		ImportPatterns: []string{
			`from\s+llama_cpp\s+import`,
			`import\s+llama_cpp`,
			`from\s+ctransformers\s+import`,
			`from\s+gguf\s+import`,
			`import\s+gguf`,
			`node-llama-cpp`,
		},
		CallPatterns: []string{
			`Llama\s*\(`,
			`GGUFReader\s*\(`,
			`\.create_completion\(`,
			`\.create_chat_completion\(`,
		},
	},
	{
		ID: "xai",
		ImportPatterns: []string{
			`from\s+xai\s+import`,
			`import\s+xai`,
		},
		CallPatterns: []string{
			`\.chat\.completions\.create`,
		},
	},
	{
		ID: "ai21",
		ImportPatterns: []string{
			`from\s+ai21\s+import`,
			`AI21Client`,
		},
		CallPatterns: []string{
			`\.chat\.completions\.create`,
		},
	},
	{
		ID: "mcp",
		ImportPatterns: []string{
			`@modelcontextprotocol/sdk`,
			`fastmcp`,
			`from\s+mcp\.server\s+import`,
			`from\s+mcp\.server\.`,
			`from\s+mcp\s+import`,
			`import\s+mcp\.server`,
			`import\s+mcp\b`,
			`McpServer\s*\(`,
			`MCPServer\s*\(`,
			`FastMCP\s*\(`,
			`github\.com/mark3labs/mcp-go`,
			`github\.com/modelcontextprotocol/go-sdk`,
			`use\s+rmcp\b`,
			`mcp::server`,
		},
		CallPatterns: []string{
			`new\s+McpServer\s*\(`,
			`McpServer\s*\(`,
			`MCPServer\s*\(`,
			`FastMCP\s*\(`,
			`\.tool\s*\(`,
			`\.resource\s*\(`,
			`\.prompt\s*\(`,
			`\.addTool\s*\(`,
			`\.addResource\s*\(`,
			`\.addPrompt\s*\(`,
			`\.AddTool\s*\(`,
			`\.AddResource\s*\(`,
			`\.AddPrompt\s*\(`,
			`NewMCPServer\s*\(`,
			`mcp\.NewTool\s*\(`,
			`mcp\.NewResource\s*\(`,
			`@\w+\.tool\b`,
			`@\w+\.resource\b`,
			`@\w+\.prompt\b`,
			`StdioServerTransport`,
			`[Ss]seServerTransport`,
			`server\.connect\s*\(`,
		},
	},
}

var builtinFrameworks = []Framework{
	{ID: "langgraph", Patterns: []string{
		`from\s+langgraph`,
		`@langchain/langgraph`,
		`StateGraph|MessageGraph`,
	}},
	{ID: "mastra", Patterns: []string{
		`from\s+mastra`,
		`from\s+['"]mastra['"]`,
		`@mastra/`,
	}},
	{ID: "langchain", Patterns: []string{
		`from\s+langchain`,
		`@langchain`,
		`LLMChain|SequentialChain`,
		`github\.com/tmc/langchaingo`,
	}},
	{ID: "crewai", Patterns: []string{
		`from\s+crewai`,
		`from\s+['"]crewai['"]`,
		`Crew\s*\(`,
	}},
	{ID: "llamaindex", Patterns: []string{
		`from\s+llama_index`,
		`from\s+['"]llamaindex['"]`,
		`@llama-index`,
	}},
	{ID: "autogen", Patterns: []string{
		`from\s+autogen`,
		`from\s+pyautogen`,
	}},
	{ID: "haystack", Patterns: []string{
		`from\s+haystack`,
	}},
	{ID: "semantickernel", Patterns: []string{
		`from\s+semantic_kernel`,
	}},
	{ID: "pydanticai", Patterns: []string{
		`from\s+pydantic_ai`,
	}},
	{ID: "instructor", Patterns: []string{
		`import\s+instructor`,
		`from\s+instructor\s+import`,
	}},
}

// Service domains for code that calls AI services over raw HTTP rather than
// through an SDK.
var builtinDomains = []string{
	`api\.openai\.com`,
	`api\.anthropic\.com`,
	`generativelanguage\.googleapis\.com`,
	`api\.mistral\.ai`,
	`api\.cohere\.(ai|com)`,
	`api\.together\.(xyz|ai)`,
	`api\.deepseek\.com`,
	`api\.x\.ai`,
	`openrouter\.ai`,
	`api\.groq\.com`,
	`api\.fireworks\.ai`,
	`api-inference\.huggingface\.co`,
	`localhost:11434`,
	`/v1/chat/completions`,
	`/v1/messages`,
}

// Method-shape patterns used by the structural walkers.
const (
	constructorPattern  = `(?i)(new\s+)?\b(OpenAI|AzureOpenAI|Anthropic|GoogleGenerativeAI|GenerativeModel|MistralClient|Mistral|Together|InferenceClient|AI21Client|BedrockRuntimeClient|Llama|ChatOpenAI|ChatAnthropic|ChatGoogleGenerativeAI|Ollama|cohere\.Client|genai\.Client)\s*\(`
	callMethodPattern   = `(?i)^(create|generate|generateContent|generate_content|chat|complete|completion|completions|messages|invoke|run|stream|predict|ask|send_message|sendMessage|call)$`
	parserMethodPattern = `(?i)^(parse|loads|load|parse_json|parseJSON|unmarshal|fromJSON|from_json)$`
	httpMethodPattern   = `(?i)^(get|post|put|delete|patch|fetch|request|do)$`
	toolMethodPattern   = `(?i)^(tool|addTool|add_tool|register_tool|registerTool|bind_tools|bindTools|resource|addResource|prompt|addPrompt)$`
	memoryPattern       = `(?i)(Chroma|Pinecone|Weaviate|FAISS|Qdrant|Milvus|pgvector|VectorStore|ConversationBufferMemory|ChatMemory|MemorySaver|vector_store)`
)
