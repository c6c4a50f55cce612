package observer

import "go.opentelemetry.io/otel/attribute"

// Attribute keys for stage execution, tool dispatch, sandbox runs, and
// scholar provider spans and metrics.
var (
	AttrReasonerModel    = attribute.Key("reasoner.model")
	AttrReasonerProvider = attribute.Key("reasoner.provider")

	AttrTokensInput  = attribute.Key("reasoner.tokens.input")
	AttrTokensOutput = attribute.Key("reasoner.tokens.output")

	AttrToolName         = attribute.Key("tool.name")
	AttrToolStatus       = attribute.Key("tool.status")
	AttrToolResultLength = attribute.Key("tool.result_length")

	AttrStageName          = attribute.Key("stage.name")
	AttrStageConcurrency   = attribute.Key("stage.max_concurrency")
	AttrStagePathCount     = attribute.Key("stage.path_count")

	AttrSandboxIsolated = attribute.Key("sandbox.isolated")
	AttrSandboxExitCode = attribute.Key("sandbox.returncode")

	AttrScholarProvider = attribute.Key("scholar.provider")
	AttrScholarHitCount = attribute.Key("scholar.hit_count")

	AttrVerifierRuleFailed = attribute.Key("verifier.rule_failed")

	AttrAgentID     = attribute.Key("delegation.agent_id")
	AttrAgentStatus = attribute.Key("delegation.status")
)
