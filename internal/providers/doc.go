// Package providers implements LLM completion clients behind a single
// Completer interface.
//
// Two wire formats cover every supported backend: Anthropic's Messages
// API, and the OpenAI chat-completions format shared by api.openai.com
// and local servers (Ollama, LM Studio). Rate-limit responses are retried
// with exponential backoff; auth failures surface as typed errors the CLI
// maps to a dedicated exit code.
package providers
