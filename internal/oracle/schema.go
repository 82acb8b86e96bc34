package oracle

import (
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Response schemas for the two structured oracle calls. Scores are typed as
// plain integers on purpose: range violations are surfaced to callers as data,
// not rejected here.
const judgeResultSchemaJSON = `{
  "type": "object",
  "required": ["scores", "issues", "rationale"],
  "properties": {
    "scores": {
      "type": "object",
      "required": ["task_success", "correctness", "helpfulness", "safety", "efficiency"],
      "properties": {
        "task_success": {"type": "integer"},
        "correctness": {"type": "integer"},
        "helpfulness": {"type": "integer"},
        "safety": {"type": "integer"},
        "efficiency": {"type": "integer"}
      }
    },
    "issues": {"type": "array", "items": {"type": "string"}},
    "rationale": {"type": "string"}
  }
}`

const promptImprovementSchemaJSON = `{
  "type": "object",
  "required": ["improved_prompt", "changes_explained"],
  "properties": {
    "improved_prompt": {"type": "string"},
    "changes_explained": {"type": "array", "items": {"type": "string"}}
  }
}`

const testPromptsSchemaJSON = `{
  "type": "object",
  "required": ["prompts"],
  "properties": {
    "prompts": {"type": "array", "items": {"type": "string"}}
  }
}`

var (
	// JudgeResultSchema validates judge verdicts.
	JudgeResultSchema = mustCompileSchema(judgeResultSchemaJSON, "judge_result.schema.json")
	// PromptImprovementSchema validates rewriter output.
	PromptImprovementSchema = mustCompileSchema(promptImprovementSchemaJSON, "prompt_improvement.schema.json")
	// TestPromptsSchema validates adversarial prompt batches.
	TestPromptsSchema = mustCompileSchema(testPromptsSchemaJSON, "test_prompts.schema.json")
)

func mustCompileSchema(raw string, name string) *jsonschema.Schema {
	var schemaDoc any
	if err := json.Unmarshal([]byte(raw), &schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to parse embedded %s: %v", name, err))
	}

	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource(name, schemaDoc); err != nil {
		panic(fmt.Sprintf("failed to add %s resource: %v", name, err))
	}

	sch, err := compiler.Compile(name)
	if err != nil {
		panic(fmt.Sprintf("failed to compile %s: %v", name, err))
	}
	return sch
}
