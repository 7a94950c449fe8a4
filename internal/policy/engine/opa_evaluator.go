package engine

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
)

const policyQuery = "data.workforce.console"

// Default Rego policy: owners may do anything, admins may manage assignments and
// non-owner roles, members may only read.
const defaultRegoPolicy = `package workforce.console

default allow := false

default reason := "not permitted"

admin_actions := {
	"assign_shift",
	"assign_locations",
	"remove_location",
	"bulk_remove",
	"bulk_change_role",
	"invite_member",
}

read_actions := {"refresh_roster", "get"}

allow if {
	read_actions[input.action]
}

allow if {
	input.actor.role == "owner"
	input.target_role != "owner"
}

allow if {
	input.actor.role == "admin"
	admin_actions[input.action]
	input.target_role != "owner"
}

reason := "the owner role cannot be granted" if {
	input.target_role == "owner"
}

reason := "admin role required" if {
	input.target_role != "owner"
	not input.actor.role in {"owner", "admin"}
}
`

// OPAEvaluator evaluates console authorization with an in-process OPA Rego policy.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
}

// NewOPAEvaluator compiles policy, or the built-in policy when policy is empty.
// A custom policy must declare package workforce.console with allow and reason rules.
func NewOPAEvaluator(ctx context.Context, policy string) (*OPAEvaluator, error) {
	if strings.TrimSpace(policy) == "" {
		policy = defaultRegoPolicy
	}
	compiler, err := ast.CompileModules(map[string]string{"workforce_console.rego": policy})
	if err != nil {
		return nil, fmt.Errorf("compile policy: %w", err)
	}
	q, err := rego.New(
		rego.Query(policyQuery),
		rego.Compiler(compiler),
	).PrepareForEval(ctx)
	if err != nil {
		return nil, fmt.Errorf("prepare policy: %w", err)
	}
	return &OPAEvaluator{query: q}, nil
}

// LoadPolicyFile reads a Rego policy from path. An empty path returns "" (built-in policy).
func LoadPolicyFile(path string) (string, error) {
	if strings.TrimSpace(path) == "" {
		return "", nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read policy file: %w", err)
	}
	return string(b), nil
}

// HealthCheck evaluates a fixed request and verifies the policy answers.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	_, err := e.Evaluate(ctx, Request{OrgID: "health", Action: "refresh_roster"})
	return err
}

// Evaluate runs the policy for req. Evaluation failures deny.
func (e *OPAEvaluator) Evaluate(ctx context.Context, req Request) (Decision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(req)))
	if err != nil {
		return Decision{Reason: "policy evaluation failed"}, fmt.Errorf("eval policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return Decision{Reason: "policy returned no result"}, fmt.Errorf("policy query returned no result")
	}
	doc, ok := rs[0].Expressions[0].Value.(map[string]interface{})
	if !ok {
		return Decision{Reason: "policy returned no result"}, fmt.Errorf("policy document has type %T", rs[0].Expressions[0].Value)
	}
	d := Decision{}
	if v, ok := doc["allow"].(bool); ok {
		d.Allow = v
	}
	if !d.Allow {
		d.Reason, _ = doc["reason"].(string)
		if d.Reason == "" {
			d.Reason = "not permitted"
		}
	}
	return d, nil
}

func buildInput(req Request) map[string]interface{} {
	return map[string]interface{}{
		"org_id": req.OrgID,
		"action": req.Action,
		"actor": map[string]interface{}{
			"id":   req.ActorID,
			"role": string(req.ActorRole),
		},
		"targets":     req.Targets,
		"target_role": string(req.TargetRole),
	}
}
